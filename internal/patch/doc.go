// Package patch models the change descriptors emitted by a document diff and
// turns a batch of them into a single projection change.
//
// # Patch kinds
//
// The Patch interface is closed: only PutObject, PutField and RemoveObject
// implement it, and every switch over a Patch in this module handles all
// three plus a default that rejects anything else.
//
//   - PutObject: a container keyed by an entity ID was (re)created at the root
//   - PutField: a named scalar entry was set inside a container
//   - RemoveObject: a container was removed from the root
//
// # Batches
//
// A batch is the ordered slice of patches for one entity. Parse classifies it:
//
//   - first patch RemoveObject: Remove(id), later patches ignored
//   - first patch PutObject: the following PutField patches for that
//     container are folded into a Contact, returned as Upsert
//   - anything else: MALFORMED_BATCH
//
// Unknown field names and the id field are skipped, as are repeated PutObject
// patches for the same container. Integer values for text fields become
// base-10 text; a null text value is MALFORMED_BATCH. First and last name are
// required. Timestamps travel as base-10 strings.
package patch
