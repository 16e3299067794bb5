// Package internalcheck holds repository lints that run as tests.
//
// The checks load the module with golang.org/x/tools/go/packages and inspect
// the syntax trees: raw pointer and foreign-call imports stay inside the
// loader primitives, core packages never panic, and the eSocial crypt key
// never reaches a logger.
//
// # Internal Use Only
//
// This package has no API. Applications use pkg/acbrlib and its subpackages.
package internalcheck
