package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDB_CreatesTables(t *testing.T) {
	db, teardown, err := InitDB(":memory:", "", "")
	require.NoError(t, err, "InitDB should not return an error")
	defer teardown()

	for _, table := range []string{"members", "member_stats", "rank_requests", "challenges"} {
		var name string
		err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, "Querying for %s table should not produce an error", table)
		assert.Equal(t, table, name)
	}
}

func TestInitDB_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "club.db")

	db, teardown, err := InitDB(path, "", "")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO members (id, name, rank, created_at) VALUES ('m1', 'Minh', 'H', 0)")
	require.NoError(t, err)
	teardown()

	db, teardown, err = InitDB(path, "", "")
	require.NoError(t, err, "re-opening an already migrated database should succeed")
	defer teardown()

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM members").Scan(&count))
	assert.Equal(t, 1, count, "data must survive re-initialisation")
}

func TestInitDB_EnforcesForeignKeys(t *testing.T) {
	db, teardown, err := InitDB(":memory:", "", "")
	require.NoError(t, err)
	defer teardown()

	_, err = db.Exec("INSERT INTO member_stats (member_id) VALUES ('ghost')")
	assert.Error(t, err, "stats for an unknown member must be rejected")
}
