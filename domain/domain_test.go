package domain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"stowroom/errors"
)

func TestParseRole(t *testing.T) {
	req := require.New(t)

	for _, s := range []string{"owner", "admin", "member"} {
		role, err := ParseRole(s)
		req.NoError(err)
		req.Equal(Role(s), role)
	}

	for _, s := range []string{"", "Owner", "superuser"} {
		_, err := ParseRole(s)
		req.ErrorIs(err, errors.ErrUnknownRole, s)
	}
}

func TestRole_Elevated(t *testing.T) {
	req := require.New(t)

	req.True(RoleOwner.Elevated())
	req.True(RoleAdmin.Elevated())
	req.False(RoleMember.Elevated())
}

func TestIdentity_Complete(t *testing.T) {
	req := require.New(t)

	req.True(Identity{UserID: "u", Username: "n", Role: RoleMember}.Complete())
	req.False(Identity{Username: "n", Role: RoleMember}.Complete())
	req.False(Identity{UserID: "u", Role: RoleMember}.Complete())
	req.False(Identity{UserID: "u", Username: "n"}.Complete())
	req.False(Identity{UserID: "u", Username: "n", Role: "superuser"}.Complete())
}

func TestDistinctPresent_Deduplicates_By_User(t *testing.T) {
	req := require.New(t)

	metas := []ConnectionMetadata{
		{ConnectionID: "1-a", UserID: "alice", Username: "Alice"},
		{ConnectionID: "2-b", UserID: "bob", Username: "Bob"},
		{ConnectionID: "3-c", UserID: "alice", Username: "Alice"},
	}

	present := DistinctPresent(metas)

	req.Equal([]PresentUser{
		{UserID: "alice", Username: "Alice"},
		{UserID: "bob", Username: "Bob"},
	}, present)
}

func TestDistinctPresent_Empty(t *testing.T) {
	require.Empty(t, DistinctPresent(nil))
}
