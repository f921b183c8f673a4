package realtime

import (
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"stowroom/domain"
	"stowroom/mocks"
	"stowroom/observability"
)

func newTestDirectory(t *testing.T, sequences *mocks.MockISequenceRepository) *Directory {
	t.Helper()
	log := slog.Default()
	return NewDirectory(sequences, log, observability.NewMonitoringManager(log))
}

func TestDirectory_Room_Is_Created_Once(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	sequences := mocks.NewMockISequenceRepository(ctrl)

	// The counter load runs exactly once, at construction
	sequences.EXPECT().Load("room-1").Return(uint64(7), nil).Times(1)
	directory := newTestDirectory(t, sequences)

	first, err := directory.Room("room-1")
	req.NoError(err)
	second, err := directory.Room("room-1")
	req.NoError(err)

	req.Same(first, second)
}

func TestDirectory_Failed_Construction_Is_Retried(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	sequences := mocks.NewMockISequenceRepository(ctrl)

	// Given the first counter load fails
	gomock.InOrder(
		sequences.EXPECT().Load("room-1").Return(uint64(0), fmt.Errorf("db offline")),
		sequences.EXPECT().Load("room-1").Return(uint64(0), nil),
	)
	directory := newTestDirectory(t, sequences)

	// Then the failure is not cached as a broken coordinator
	_, err := directory.Room("room-1")
	req.Error(err)

	coordinator, err := directory.Room("room-1")
	req.NoError(err)
	req.NotNil(coordinator)
}

func TestDirectory_OpenCounts(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	sequences := mocks.NewMockISequenceRepository(ctrl)
	sequences.EXPECT().Load(gomock.Any()).Return(uint64(0), nil).Times(2)
	sequences.EXPECT().Store(gomock.Any(), gomock.Any()).Return(nil).Times(3)
	directory := newTestDirectory(t, sequences)

	// Given two rooms with three connections between them
	roomA, err := directory.Room("room-a")
	req.NoError(err)
	roomB, err := directory.Room("room-b")
	req.NoError(err)

	identity := domain.Identity{UserID: "alice", Username: "Alice", Role: domain.RoleOwner}
	_, err = roomA.Admit(&fakeConn{}, identity)
	req.NoError(err)
	_, err = roomA.Admit(&fakeConn{}, identity)
	req.NoError(err)
	_, err = roomB.Admit(&fakeConn{}, identity)
	req.NoError(err)

	rooms, connections := directory.OpenCounts()
	req.Equal(2, rooms)
	req.Equal(3, connections)
}
