package ws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"stowroom/domain"
	"stowroom/errors"
)

func TestConn_Attach_Is_Write_Once(t *testing.T) {
	req := require.New(t)
	conn := NewConn(nil, time.Second)

	// Given no metadata attached yet
	_, ok := conn.Metadata()
	req.False(ok)

	// When metadata is attached at admission
	meta := domain.ConnectionMetadata{ConnectionID: "1-1700000000000", UserID: "alice"}
	req.NoError(conn.Attach(meta))

	// Then it is readable and immutable
	got, ok := conn.Metadata()
	req.True(ok)
	req.Equal(meta, got)

	err := conn.Attach(domain.ConnectionMetadata{ConnectionID: "2-1700000000001"})
	req.ErrorIs(err, errors.ErrMetadataAttached)

	got, _ = conn.Metadata()
	req.Equal("1-1700000000000", got.ConnectionID)
}
