package sqlite_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/yahyaAbdulSattar/major-project/pkg/storage/sqlite"
	"github.com/yahyaAbdulSattar/major-project/pkg/storage/testutil"
)

var testDB *sqlite.Database

func TestMain(m *testing.M) {
	dbPath := filepath.Join(os.TempDir(), "test_"+uuid.NewString()+".db")

	var err error
	testDB, err = sqlite.NewDatabase(dbPath)
	if err != nil {
		panic(err)
	}

	code := m.Run()

	testDB.Close()
	os.Remove(dbPath)

	os.Exit(code)
}

func TestMigrateIsIdempotent(t *testing.T) {
	if err := testDB.Migrate(); err != nil {
		t.Fatalf("second migration run failed: %s", err)
	}
}

func TestRoundRepository(t *testing.T) {
	testutil.RoundRepositoryTests(t, sqlite.NewRoundRepository(testDB))
}

func TestPeerRepository(t *testing.T) {
	testutil.PeerRepositoryTests(t, sqlite.NewPeerRepository(testDB))
}
