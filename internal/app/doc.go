// Package app wires the runtime together: configuration, manifest,
// coordination client, routing registry, call wrapper, and the
// load-balanced HTTP application. Every dependency is constructed here and
// passed down explicitly; nothing in the production path reads package
// globals.
package app
