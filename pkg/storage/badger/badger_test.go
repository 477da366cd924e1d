package badger_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/yahyaAbdulSattar/major-project/pkg/storage/badger"
	"github.com/yahyaAbdulSattar/major-project/pkg/storage/testutil"
)

var testDB *badger.Database

func TestMain(m *testing.M) {
	dbPath := filepath.Join(os.TempDir(), "badger_test_"+uuid.NewString())

	var err error
	testDB, err = badger.NewDatabase(dbPath)
	if err != nil {
		panic(err)
	}

	code := m.Run()

	testDB.Close()
	os.RemoveAll(dbPath)

	os.Exit(code)
}

func TestRoundRepository(t *testing.T) {
	testutil.RoundRepositoryTests(t, badger.NewRoundRepository(testDB))
}

func TestPeerRepository(t *testing.T) {
	testutil.PeerRepositoryTests(t, badger.NewPeerRepository(testDB))
}
