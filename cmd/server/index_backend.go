package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"scenemesh.ai/internal/persistence/indexdb"
)

func openRuntimeIndex(dataDir string, disableDB bool) (*indexdb.SQLiteIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("SM_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		dbPath := filepath.Join(dataDir, "index", "scene.sqlite")
		return indexdb.OpenSQLite(dbPath)
	default:
		return nil, fmt.Errorf("unsupported SM_INDEX_BACKEND: %s", backend)
	}
}
