// Package fakelib provides an in-memory acbrlib.Platform for tests.
//
// A fake library is a set of Go functions standing in for native entry
// points. Register it under a file name; Open succeeds for any existing file
// whose base name was registered, so tests exercise the same path resolution
// and existence checks as the native loader:
//
//	p := fakelib.New()
//	p.Register("componentA.so", &fakelib.Library{Symbols: map[string]any{
//	    "eSocial_Nome": func(lib uintptr, buf *byte, size *int32) int32 {
//	        return fakelib.WriteText(buf, size, "ACBrLibeSocial")
//	    },
//	}})
//	loader, _ := acbrlib.NewLoader(acbrlib.Config{
//	    ResourcesDir: dir,
//	    Filenames:    map[acbrlib.LibraryID]string{acbrlib.ESocial: "componentA.so"},
//	    Platform:     p,
//	})
//
// The platform counts Open, Symbol, Bind and Close calls and records the
// highest number of concurrent opens it observed. OpenHook lets a test hold an
// open in flight.
package fakelib
