package memory

import (
	"testing"

	"farmledger/internal/storage"
	"farmledger/internal/storage/storagetest"
)

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Repository { return New() })
}
