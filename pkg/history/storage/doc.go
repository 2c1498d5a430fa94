// Package storage provides history.Store implementations.
//
// SQLiteStore works with either registered SQLite driver: "sqlite" from
// modernc.org/sqlite (no cgo) and "sqlite3" from github.com/mattn/go-sqlite3.
// The schema and queries are identical for both. MemoryStore keeps runs in
// a map and is used when history should not outlive the process, and in tests.
//
//	store, err := storage.Open(cfg.History.Driver, cfg.History.Path)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
package storage
