// Package document provides a caller-owned, in-memory map document that
// records every change and can describe the difference between two of its
// states as a patch batch.
//
// It stands in for the replicated document at the boundary the projection
// cares about: a root map of containers, each container a map of scalars,
// heads that capture a state, and Diff(before, after) producing ordered
// patches. Merging replicas is not modelled.
//
// There is no package-level document. Callers create one with New, keep it
// for as long as they need, and capture Heads around the edits whose effect
// they want to project:
//
//	before := d.Heads()
//	_ = document.PutContact(d, c)
//	patches, _ := d.Diff(before, d.Heads())
package document
