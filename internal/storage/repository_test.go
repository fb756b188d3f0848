package storage_test

import (
	"path/filepath"
	"testing"

	"farmledger/internal/storage"
	"farmledger/internal/storage/storagetest"
)

func TestSQLiteRepositoryContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Repository {
		repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
		if err != nil {
			t.Fatalf("open repository: %v", err)
		}
		t.Cleanup(func() { repo.Close() })
		return repo
	})
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ledger.db")
	repo, err := storage.NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	repo.Close()

	if err := storage.RunMigrations(path); err != nil {
		t.Fatalf("second migration run: %v", err)
	}
}
