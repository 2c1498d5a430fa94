package storage

import (
	"fmt"

	"mercator-hq/retainer/pkg/history"
)

// DriverMemory selects the in-memory store.
const DriverMemory = "memory"

// Open returns the store for driver: DriverSQLite, DriverSQLite3 or
// DriverMemory. path is ignored for the memory store.
func Open(driver, path string) (history.Store, error) {
	switch driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite, DriverSQLite3:
		config := DefaultSQLiteConfig()
		config.Driver = driver
		config.Path = path
		return NewSQLiteStore(config)
	default:
		return nil, fmt.Errorf("unknown history driver %q", driver)
	}
}
