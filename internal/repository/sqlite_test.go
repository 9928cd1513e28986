package repository_test

import (
	"path/filepath"
	"testing"

	"github.com/SergeiKhy/shortlink-analytics/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore(t *testing.T) {
	db, err := repository.NewSQLiteDB("file:" + filepath.Join(t.TempDir(), "shortener.db"))
	require.NoError(t, err)
	defer db.Close()

	runStoreSuite(t, repository.NewSQLiteLinkRepository(db), repository.NewSQLiteClickRepository(db))
}
