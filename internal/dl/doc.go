// Package dl wraps the operating system's dynamic loader. It is the only
// package that talks to dlopen/LoadLibrary directly; everything above it works
// with opaque uintptr handles and addresses.
//
// The unix implementation is built on purego, so no cgo toolchain is needed.
// Windows goes through golang.org/x/sys/windows. Any other platform compiles
// against a stub that reports ErrUnsupported.
package dl
