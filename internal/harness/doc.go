// Package harness runs contact scenarios end to end and checks the resulting
// projection.
//
// A scenario edits a document the way an application would, turns each edit
// into patches with document.Track, and feeds them through the real
// reconcile.Engine into a fresh in-memory SQLite store.
//
// # Scenario Format
//
//	name: update_preserves_created_at
//	description: "Updating a contact never moves created_at"
//	clock: 1700000000000          # optional starting time in ms
//	steps:
//	  - create: { ref: john, first_name: John, last_name: Doe }
//	    expect: { actions: [inserted] }
//	  - update: { ref: john, set: { phone: 555-987-6543 } }
//	    advance: 1000               # move the clock before the step
//	    expect: { actions: [updated] }
//	  - apply:                      # raw batch, "$ref" expands to the ref's ID
//	      patches:
//	        - { op: remove_object, key: $ghost }
//	    expect: { actions: [noop] }
//	  - delete: { ref: john }
//	assertions:
//	  - type: row_absent
//	    ref: john
//
// # Assertion Types
//
//   - row_exists: the ref's row is present
//   - row_absent: the ref's row is not present
//   - row_fields: the ref's row has the expected column values (subset match)
//   - row_count: the projection has exactly count rows
//   - list_order: List returns rows in the given "First Last" order
//
// # Deterministic Testing
//
// Every run starts from the same state: testutil.FixedClock for timestamps,
// testutil.SequenceIDs for contact IDs and an empty in-memory database. The
// same scenario therefore always produces the same trace and projection,
// which RunWithGolden compares against testdata/golden.
package harness
