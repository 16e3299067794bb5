// Package esocial binds the ACBrLibeSocial component: it initializes a native
// library instance, edits its INI configuration, builds and transmits eSocial
// events and queries the government web services.
//
// A Lib wraps one native instance. Calls on a Lib are serialized; open several
// instances for parallel work. Every Lib shares the loader's single handle of
// the component, so the library file is loaded once per process.
//
//	lib, err := esocial.New(ctx, loader)
//	if err != nil {
//		return err
//	}
//	if err := lib.Initialize(ctx, esocial.InitParams{ConfigPath: "acbrlib.ini"}); err != nil {
//		return err
//	}
//	defer lib.Close()
//	version, err := lib.Version()
package esocial
