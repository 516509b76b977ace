// Package cursor implements the continuation state of SCAN-family commands.
//
// A scan is driven by stateless numeric cursors. Whenever a page does not
// exhaust the scanned collection, the last element returned to the client is
// saved under a freshly allocated id, and the id is handed to the client as
// the next cursor. Resuming with that id consumes the entry (it is read once
// and deleted) and the next page starts strictly after the saved element.
//
// Lifecycle of a cursor:
//
//	FRESH (client sends 0) -> IN_PROGRESS (id bound to a payload)
//	  -> CONSUMED (taken on resume) -> DONE (server answers 0)
//
// Key Components:
//
//   - Store: a concurrent map (xsync.MapOf) from id to payload plus an atomic
//     counter for id allocation. Ids are never reused. Cursors that are never
//     resumed can be dropped with Prune.
//
//   - Scratch: a pooled, reusable byte buffer used to stage payloads before
//     they are saved. Buffers that grew beyond MaxScratchSize are not returned
//     to the pool so a single huge element cannot pin memory forever.
//
// Thread Safety:
//
//	Store is safe for concurrent use. A Scratch belongs to exactly one worker
//	between AcquireScratch and ReleaseScratch.
package cursor
