package repositories

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/dgraph-io/badger/v4"
)

// SequenceRepository persists each room's admission counter in BadgerDB.
// The key is formatted as "seq:{room_id}" and the value is the decimal
// counter. One key per room keeps the load at coordinator construction a
// single point read, and the store on admission a single-key transaction.
type SequenceRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewSequenceRepository(db *badger.DB, log *slog.Logger) SequenceRepository {
	return SequenceRepository{db: db, log: log}
}

// SequenceKey builds the badger key holding a room's counter. Exported for
// the inspector tooling, which scans the "seq:" prefix.
func SequenceKey(roomID string) []byte {
	return []byte(fmt.Sprintf("seq:%s", roomID))
}

// Load reads the last persisted counter for a room. A room that never
// admitted a connection yields zero, not an error.
func (r SequenceRepository) Load(roomID string) (uint64, error) {
	var value uint64
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(SequenceKey(roomID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			parsed, err := strconv.ParseUint(string(val), 10, 64)
			if err != nil {
				return fmt.Errorf("corrupt sequence value for room %s: %w", roomID, err)
			}
			value = parsed
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		r.log.Debug("No persisted sequence yet", "room", roomID)
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return value, nil
}

// Store persists the counter. Called synchronously on every admission so
// two restarts never mint the same connection id for the same room.
func (r SequenceRepository) Store(roomID string, value uint64) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(SequenceKey(roomID), []byte(strconv.FormatUint(value, 10)))
	})
}
