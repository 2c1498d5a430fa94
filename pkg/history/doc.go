// Package history records every lifecycle run so operators can see what
// the scheduler, the HTTP actions and the CLI did to the cluster.
//
// A Run carries the run ID, operation, trigger, timing and either the JSON
// result or the error with its classification. Runs are written through
// the Store interface; implementations live in the storage subpackage:
//
//   - storage.NewSQLiteStore: SQLite file via modernc.org/sqlite ("sqlite")
//     or github.com/mattn/go-sqlite3 ("sqlite3")
//   - storage.NewMemoryStore: in-process, lost on restart
//
// The retention subpackage deletes runs older than the configured number
// of days.
package history
