package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestDatabaseIntegration exercises a live backend. It runs only when
// INSIGHTPAPER_TEST_DB_URL points at a database with the procedures deployed.
func TestDatabaseIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	url := os.Getenv("INSIGHTPAPER_TEST_DB_URL")
	if url == "" {
		t.Skip("INSIGHTPAPER_TEST_DB_URL not set")
	}

	dialect, err := NewDialect(os.Getenv("INSIGHTPAPER_TEST_DB_TYPE"))
	require.NoError(t, err)

	db, err := Open(dialect, DialectConfig{URL: url}, 2)
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, db.Ping(ctx))

	res, err := db.Call(ctx, "spModels_GetAll")
	require.NoError(t, err)

	var models []map[string]any
	require.NoError(t, res.Decode(&models))
}
