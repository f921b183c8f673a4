//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"stowroom/domain"
)

// CloseNormalClosure is the websocket normal-closure status code used when
// the coordinator terminates a connection on purpose (eviction).
const CloseNormalClosure = 1000

// Conn abstracts the bidirectional message channel handed to the
// coordinator by the transport. Metadata is attached to the connection
// itself, exactly once, so identity survives even if every derived view is
// rebuilt between two messages.
type Conn interface {
	// Attach stores the admission metadata on the connection. A second call
	// is an error: metadata is immutable for the connection's lifetime.
	Attach(meta domain.ConnectionMetadata) error

	// Metadata returns the attached metadata. ok is false for a connection
	// that closed before admission completed.
	Metadata() (meta domain.ConnectionMetadata, ok bool)

	// Write delivers one text frame. Failures are reported, never retried;
	// a connection that cannot be written to is reaped by the transport's
	// own close handling.
	Write(data []byte) error

	// Close terminates the connection with a status code and a
	// human-readable reason. Idempotent.
	Close(code int, reason string) error
}

// ISequenceRepository persists the per-room admission counter outside
// process memory, so connection ids minted after a coordinator restart can
// never collide with ids minted before it.
type ISequenceRepository interface {
	// Load returns the last persisted counter value, zero when the room has
	// never admitted a connection.
	Load(roomID string) (uint64, error)

	// Store persists a new counter value. It must complete before the
	// minted connection id is handed out.
	Store(roomID string, value uint64) error
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker
// lifecycle events, avoiding the need for manual naming in the Worker
// interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
