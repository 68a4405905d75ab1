// Package contact defines the Contact entity replicated through the document
// and mirrored into the relational projection.
//
// A Contact is identified by a random (v4) UUID that never changes after
// construction. Timestamps are milliseconds since the Unix epoch:
//   - CreatedAt is stamped once by New and never mutated
//   - UpdatedAt is refreshed by Touch on every logical mutation
//
// Within one process UpdatedAt never decreases across successive Touch calls,
// even if the wall clock steps backwards. Across replicas no ordering is
// implied.
package contact
