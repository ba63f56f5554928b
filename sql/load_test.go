package sql

import (
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	db := initDB(t)
	defer db.Close()

	t.Run("Initialize database extensions", func(t *testing.T) {
		err := Init(db.Instance)
		assert.NoError(t, err)

		for _, extension := range []string{"vector", "pg_trgm"} {
			var exists bool
			err = db.Instance.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = $1);", extension).Scan(&exists)
			require.NoError(t, err)
			assert.True(t, exists, "Extension %s should be created", extension)
		}
	})

	t.Run("Initialize database extensions is idempotent", func(t *testing.T) {
		assert.NoError(t, Init(db.Instance))
		assert.NoError(t, Init(db.Instance))
	})
}

func TestLoadSql(t *testing.T) {
	db := initDB(t)
	defer db.Close()

	loaders := []struct {
		name      string
		load      func(force bool) error
		functions []string
	}{
		{"segments", func(force bool) error { return LoadSegmentsSql(db.Instance, force) }, SegmentsFunctions},
		{"graph", func(force bool) error { return LoadGraphSql(db.Instance, force) }, GraphFunctions},
	}

	for _, loader := range loaders {
		t.Run("Load "+loader.name+" SQL functions", func(t *testing.T) {
			err := loader.load(false)
			assert.NoError(t, err)

			for _, funcName := range loader.functions {
				var exists bool
				err = db.Instance.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);", funcName).Scan(&exists)
				require.NoError(t, err)
				assert.True(t, exists, "Function %s should exist", funcName)
			}
		})

		t.Run("Load "+loader.name+" SQL is idempotent without force", func(t *testing.T) {
			assert.NoError(t, loader.load(false))
		})

		t.Run("Load "+loader.name+" SQL with force reloads", func(t *testing.T) {
			assert.NoError(t, loader.load(true))
		})
	}

	t.Run("Load all SQL functions", func(t *testing.T) {
		assert.NoError(t, LoadAllSql(db.Instance, false))
	})
}

func TestCheckFunctions(t *testing.T) {
	db := initDB(t)
	defer db.Close()

	t.Run("Check functions returns false when functions don't exist", func(t *testing.T) {
		exists, err := checkFunctions(db.Instance, []string{"nonexistent_function"})
		assert.NoError(t, err)
		assert.False(t, exists, "Should return false for nonexistent function")
	})

	t.Run("Check functions returns true when all functions exist", func(t *testing.T) {
		require.NoError(t, LoadGraphSql(db.Instance, false))

		exists, err := checkFunctions(db.Instance, GraphFunctions)
		assert.NoError(t, err)
		assert.True(t, exists, "Should return true when all functions exist")
	})

	t.Run("Check functions with empty list", func(t *testing.T) {
		exists, err := checkFunctions(db.Instance, []string{})
		assert.NoError(t, err)
		assert.False(t, exists, "Should return false for empty function list")
	})
}

func TestEmbeddedSQL(t *testing.T) {
	t.Run("Init SQL is embedded", func(t *testing.T) {
		assert.Contains(t, initSQL, "CREATE EXTENSION", "Should contain CREATE EXTENSION")
	})

	t.Run("Segments SQL defines every listed function", func(t *testing.T) {
		for _, f := range SegmentsFunctions {
			assert.Contains(t, segmentsSQL, "FUNCTION "+f+"(", "segmentsSQL should define %s", f)
		}
	})

	t.Run("Graph SQL defines every listed function", func(t *testing.T) {
		for _, f := range GraphFunctions {
			assert.Contains(t, graphSQL, "FUNCTION "+f+"(", "graphSQL should define %s", f)
		}
	})
}
