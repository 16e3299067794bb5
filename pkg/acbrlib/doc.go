// Package acbrlib loads the native ACBr libraries and exchanges data with
// them.
//
// The package is the layer beneath the per-function bindings (see the esocial
// subpackage). It covers three concerns:
//
//   - Loader: a registry that opens each library at most once, caches its
//     Handle and allows one load in flight process-wide. A load requested while
//     another runs fails fast with ErrAlreadyLoading.
//   - Symbol resolution: Resolve turns a Handle and a name into an address;
//     Bind and Func turn it into a typed Go func after checking the signature.
//   - Buffer exchange: ReadFixed and ReadSized implement the fixed-capacity and
//     two-phase read conventions the libraries use to return text, and
//     Encoding.CString encodes text going in.
//
// Libraries are looked up as <executable dir>/resources/<file name>, with
// <resources>/deps added to the platform search path first:
//
//	loader, err := acbrlib.NewLoader(acbrlib.Config{})
//	if err != nil {
//		return err
//	}
//	defer loader.Close()
//
//	h, err := loader.GetOrLoad(ctx, acbrlib.ESocial)
//	if err != nil {
//		return err
//	}
//	type nomeFunc func(lib uintptr, buf *byte, size *int32) int32
//	nome, err := acbrlib.Func[nomeFunc](loader, h, "eSocial_Nome")
//
// Native entry points are exported with the stdcall convention. On the 64-bit
// targets supported here that is the platform's only convention, so resolved
// functions are called directly.
package acbrlib
