// Package reconcile applies parsed document changes to the relational
// projection.
//
// Each call handles one batch to completion: parse, look up the current row,
// then issue exactly one mutation. Nothing is pipelined within a batch and
// nothing is shared between calls except the Repository.
//
// Per contact ID the projection moves through:
//
//	Absent  --Upsert--> Present   (insert)
//	Present --Upsert--> Present   (update, created_at untouched)
//	Present --Remove--> Absent    (delete)
//	Absent  --Remove--> Absent    (no-op)
//
// The insert-or-update decision is a read followed by a write. Two calls for
// the same new ID running at once can both insert; the loser fails with the
// store's duplicate error. Configure WithLocker to serialize per ID.
package reconcile
