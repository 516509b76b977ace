/*
Package admin implements the server side of the admin commands: snapshots
(SAVE, BGSAVE, SHUTDOWN), FLUSHALL, INFO, CLUSTER SLOTS and TIME.

The admin works on a Keyspace, the set of logical databases owned by the
server. Each database is persisted into its own file "dump-<db>.rkv" inside the
data directory using the snapshot format of the store. Files are written to a
temporary file first and renamed into place, so a crash during a save never
corrupts the previous snapshot.

Usage:

	adm := admin.NewLocalAdmin(admin.Config{
	    DataDir:  "/var/lib/rkv",
	    Endpoint: "localhost:6380",
	    OnShutdown: func() { cancel() },
	}, keyspace)

	if _, err := adm.Restore(); err != nil {
	    // handle error
	}

Only one snapshot is written at a time. BackgroundSave fails while a save is
running unless it is called with schedule set, in which case the next save
starts right after the running one.
*/
package admin
