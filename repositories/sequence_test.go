package repositories

import (
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T, dir string) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(dir).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	return db
}

func TestSequenceRepository_Load_Unknown_Room_Is_Zero(t *testing.T) {
	req := require.New(t)
	db := openDB(t, t.TempDir())
	defer db.Close()
	repo := NewSequenceRepository(db, slog.Default())

	value, err := repo.Load("never-seen")

	req.NoError(err)
	req.Zero(value)
}

func TestSequenceRepository_Store_Then_Load(t *testing.T) {
	req := require.New(t)
	db := openDB(t, t.TempDir())
	defer db.Close()
	repo := NewSequenceRepository(db, slog.Default())

	req.NoError(repo.Store("room-1", 41))
	req.NoError(repo.Store("room-1", 42))

	value, err := repo.Load("room-1")
	req.NoError(err)
	req.Equal(uint64(42), value)
}

func TestSequenceRepository_Rooms_Are_Independent(t *testing.T) {
	req := require.New(t)
	db := openDB(t, t.TempDir())
	defer db.Close()
	repo := NewSequenceRepository(db, slog.Default())

	req.NoError(repo.Store("room-1", 10))
	req.NoError(repo.Store("room-2", 99))

	one, err := repo.Load("room-1")
	req.NoError(err)
	two, err := repo.Load("room-2")
	req.NoError(err)

	req.Equal(uint64(10), one)
	req.Equal(uint64(99), two)
}

func TestSequenceRepository_Counter_Survives_Reopen(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()

	// Given a counter persisted by a previous process
	db := openDB(t, dir)
	repo := NewSequenceRepository(db, slog.Default())
	req.NoError(repo.Store("room-1", 17))
	req.NoError(db.Close())

	// When the database is reopened, the counter is intact
	db = openDB(t, dir)
	defer db.Close()
	repo = NewSequenceRepository(db, slog.Default())

	value, err := repo.Load("room-1")
	req.NoError(err)
	req.Equal(uint64(17), value)
}

func TestSequenceRepository_Corrupt_Value_Is_An_Error(t *testing.T) {
	req := require.New(t)
	db := openDB(t, t.TempDir())
	defer db.Close()
	repo := NewSequenceRepository(db, slog.Default())

	// Given a value that is not a decimal counter
	err := db.Update(func(txn *badger.Txn) error {
		return txn.Set(SequenceKey("room-1"), []byte("not-a-number"))
	})
	req.NoError(err)

	_, err = repo.Load("room-1")
	req.ErrorContains(err, "corrupt sequence value")
}

func TestSequenceKey_Format(t *testing.T) {
	require.Equal(t, []byte("seq:room-1"), SequenceKey("room-1"))
}
