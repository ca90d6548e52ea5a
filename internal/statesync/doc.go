// Package statesync reads and mutates the canonical manifest held by the
// remote coordination service. Reads follow a two-hop query chain
// (environment → active build → manifest); writes are a read-modify-write
// cycle serialized by a per-client mutex and pushed back as one mutation.
//
// The mutex provides no cross-process protection: two endpoint processes
// updating the same resource concurrently race, and the remote store keeps
// whichever write lands last. The coordination API exposes no
// compare-and-swap surface, so this is the documented contract rather than
// an oversight.
package statesync
