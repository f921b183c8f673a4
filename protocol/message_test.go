package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"stowroom/domain"
	"stowroom/errors"
)

func TestParse_Accepts_Every_Routable_Kind(t *testing.T) {
	req := require.New(t)

	for kind := range routes {
		payload := []byte(`{"type":"` + string(kind) + `","roomId":"r1"}`)
		env, err := Parse(payload)
		req.NoError(err, "kind %s", kind)
		req.Equal(kind, env.Type)
		req.Equal(payload, env.Raw())
	}
}

func TestParse_Rejects_Malformed_Frames(t *testing.T) {
	req := require.New(t)

	cases := map[string][]byte{
		"not json":       []byte(`{{{`),
		"json scalar":    []byte(`42`),
		"json array":     []byte(`["drawer_created"]`),
		"missing type":   []byte(`{"drawerId":"d1"}`),
		"empty type":     []byte(`{"type":""}`),
		"non-string":     []byte(`{"type":17}`),
		"unknown kind":   []byte(`{"type":"room_deleted"}`),
		"outbound error": []byte(`{"type":"error","message":"spoofed"}`),
	}
	for name, payload := range cases {
		_, err := Parse(payload)
		req.ErrorIs(err, errors.ErrInvalidMessage, name)
	}
}

func TestEnvelope_TargetUserID(t *testing.T) {
	req := require.New(t)

	env, err := Parse([]byte(`{"type":"rtc_offer","targetUserId":"bob"}`))
	req.NoError(err)
	req.Equal("bob", env.TargetUserID())

	env, err = Parse([]byte(`{"type":"rtc_offer","sdp":"v=0"}`))
	req.NoError(err)
	req.Empty(env.TargetUserID())

	env, err = Parse([]byte(`{"type":"rtc_offer","targetUserId":12}`))
	req.NoError(err)
	req.Empty(env.TargetUserID())
}

func TestEnvelope_Forward_Rewrites_Addressing(t *testing.T) {
	req := require.New(t)

	// Given an offer addressed to bob
	env, err := Parse([]byte(`{"type":"rtc_offer","targetUserId":"bob","sdp":"v=0"}`))
	req.NoError(err)

	// When it is forwarded on behalf of alice
	payload, err := env.Forward("alice", "Alice")
	req.NoError(err)

	// Then the target field is gone and the sender is authenticated
	var forwarded map[string]any
	req.NoError(json.Unmarshal(payload, &forwarded))
	req.Equal("rtc_offer", forwarded["type"])
	req.Equal("alice", forwarded["senderId"])
	req.Equal("Alice", forwarded["senderUsername"])
	req.Equal("v=0", forwarded["sdp"])
	req.NotContains(forwarded, "targetUserId")
}

func TestEnvelope_Forward_Username_Only_On_Offers(t *testing.T) {
	req := require.New(t)

	for _, kind := range []Type{TypeRTCAnswer, TypeRTCIceCandidate} {
		env, err := Parse([]byte(`{"type":"` + string(kind) + `","targetUserId":"bob"}`))
		req.NoError(err)

		payload, err := env.Forward("alice", "Alice")
		req.NoError(err)

		var forwarded map[string]any
		req.NoError(json.Unmarshal(payload, &forwarded))
		req.Equal("alice", forwarded["senderId"])
		req.NotContains(forwarded, "senderUsername", "kind %s", kind)
	}
}

func TestEnvelope_Forward_Spoofed_Sender_Is_Overwritten(t *testing.T) {
	req := require.New(t)

	// Given a client pre-filled senderId with someone else's identity
	env, err := Parse([]byte(`{"type":"rtc_ice_candidate","targetUserId":"bob","senderId":"mallory"}`))
	req.NoError(err)

	payload, err := env.Forward("alice", "Alice")
	req.NoError(err)

	var forwarded map[string]any
	req.NoError(json.Unmarshal(payload, &forwarded))
	req.Equal("alice", forwarded["senderId"])
}

func TestPresenceBuilders(t *testing.T) {
	req := require.New(t)

	joined, err := UserJoined("alice", "Alice")
	req.NoError(err)
	req.JSONEq(`{"type":"user_joined","userId":"alice","username":"Alice"}`, string(joined))

	left, err := UserLeft("alice")
	req.NoError(err)
	req.JSONEq(`{"type":"user_left","userId":"alice"}`, string(left))

	removed, err := MemberRemoved("alice", "room-1")
	req.NoError(err)
	req.JSONEq(`{"type":"member_removed","userId":"alice","roomId":"room-1"}`, string(removed))
}

func TestErrorReplies_Are_Fixed_Payloads(t *testing.T) {
	req := require.New(t)

	req.JSONEq(`{"type":"error","message":"Invalid message format"}`, string(InvalidFormatReply()))
	req.JSONEq(`{"type":"error","message":"Permission denied"}`, string(PermissionDeniedReply()))
}

func TestRouteOf_Signaling_Kinds_Relay(t *testing.T) {
	req := require.New(t)

	for _, kind := range []Type{TypeRTCOffer, TypeRTCAnswer, TypeRTCIceCandidate} {
		route, ok := RouteOf(kind)
		req.True(ok)
		req.Equal(RouteRelay, route)
	}

	route, ok := RouteOf(TypeDrawerCreated)
	req.True(ok)
	req.Equal(RouteBroadcast, route)

	_, ok = RouteOf(TypeError)
	req.False(ok)
}

func TestAllowed_Elevated_Roles_Send_Everything(t *testing.T) {
	req := require.New(t)

	for kind := range routes {
		req.True(Allowed(domain.RoleOwner, kind), "owner %s", kind)
		req.True(Allowed(domain.RoleAdmin, kind), "admin %s", kind)
	}
}

func TestAllowed_Member_Tier_Is_Restricted(t *testing.T) {
	req := require.New(t)

	// Item edits and cursor movement pass for members
	req.True(Allowed(domain.RoleMember, TypeItemUpdated))
	req.True(Allowed(domain.RoleMember, TypeItemsBatchUpdated))
	req.True(Allowed(domain.RoleMember, TypeCursorMove))

	// Structural mutations and presence forgeries do not
	denied := []Type{
		TypeDrawerCreated, TypeDrawerUpdated, TypeDrawerDeleted,
		TypeCompartmentUpdated, TypeDividersChanged,
		TypeCompartmentsMerged, TypeCompartmentSplit,
		TypeCategoryCreated, TypeCategoryUpdated, TypeCategoryDeleted,
		TypeUserJoined, TypeUserLeft, TypeMemberRemoved,
	}
	for _, kind := range denied {
		req.False(Allowed(domain.RoleMember, kind), "member %s", kind)
	}
}
