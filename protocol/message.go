// Package protocol defines the JSON wire contract shared with the existing
// web clients. The message set is closed: every routable kind appears in the
// routing table, and anything outside it is rejected as malformed.
package protocol

import (
	"encoding/json"

	"stowroom/errors"
)

// Type discriminates the sync message union.
type Type string

const (
	// Domain mutation notifications, fan-out to the whole room.
	TypeDrawerCreated      Type = "drawer_created"
	TypeDrawerUpdated      Type = "drawer_updated"
	TypeDrawerDeleted      Type = "drawer_deleted"
	TypeCompartmentUpdated Type = "compartment_updated"
	TypeDividersChanged    Type = "dividers_changed"
	TypeCompartmentsMerged Type = "compartments_merged"
	TypeCompartmentSplit   Type = "compartment_split"
	TypeItemUpdated        Type = "item_updated"
	TypeItemsBatchUpdated  Type = "items_batch_updated"
	TypeCategoryCreated    Type = "category_created"
	TypeCategoryUpdated    Type = "category_updated"
	TypeCategoryDeleted    Type = "category_deleted"

	// Presence notifications.
	TypeUserJoined    Type = "user_joined"
	TypeUserLeft      Type = "user_left"
	TypeCursorMove    Type = "cursor_move"
	TypeMemberRemoved Type = "member_removed"

	// Peer signaling, point-to-point relay.
	TypeRTCOffer        Type = "rtc_offer"
	TypeRTCAnswer       Type = "rtc_answer"
	TypeRTCIceCandidate Type = "rtc_ice_candidate"

	// Server-to-client unicast only.
	TypeError Type = "error"
)

// Envelope is a parsed inbound frame. The original bytes are kept so a
// broadcast re-sends the sender's payload verbatim, serialized exactly once.
type Envelope struct {
	Type   Type
	fields map[string]json.RawMessage
	raw    []byte
}

// Parse decodes an inbound text frame. Anything that is not a JSON object
// carrying a known type discriminator is malformed.
func Parse(data []byte) (*Envelope, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, errors.ErrInvalidMessage
	}
	rawType, ok := fields["type"]
	if !ok {
		return nil, errors.ErrInvalidMessage
	}
	var t string
	if err := json.Unmarshal(rawType, &t); err != nil || t == "" {
		return nil, errors.ErrInvalidMessage
	}
	typ := Type(t)
	if _, routable := routes[typ]; !routable {
		return nil, errors.ErrInvalidMessage
	}
	return &Envelope{Type: typ, fields: fields, raw: data}, nil
}

// Raw returns the frame exactly as the sender serialized it.
func (e *Envelope) Raw() []byte { return e.raw }

// TargetUserID extracts the addressee of a signaling message. Empty when
// absent; an unaddressed signal simply finds no connections to relay to.
func (e *Envelope) TargetUserID() string {
	raw, ok := e.fields["targetUserId"]
	if !ok {
		return ""
	}
	var target string
	if err := json.Unmarshal(raw, &target); err != nil {
		return ""
	}
	return target
}

// Forward rebuilds a signaling message for delivery to the target: the
// targetUserId field is replaced by the authenticated sender's id, and the
// initial offer additionally carries the sender's username so the recipient
// can render who is calling.
func (e *Envelope) Forward(senderID, senderUsername string) ([]byte, error) {
	forwarded := make(map[string]json.RawMessage, len(e.fields)+1)
	for k, v := range e.fields {
		forwarded[k] = v
	}
	delete(forwarded, "targetUserId")

	id, err := json.Marshal(senderID)
	if err != nil {
		return nil, err
	}
	forwarded["senderId"] = id

	if e.Type == TypeRTCOffer {
		username, err := json.Marshal(senderUsername)
		if err != nil {
			return nil, err
		}
		forwarded["senderUsername"] = username
	}
	return json.Marshal(forwarded)
}

type userJoined struct {
	Type     Type   `json:"type"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type userLeft struct {
	Type   Type   `json:"type"`
	UserID string `json:"userId"`
}

type memberRemoved struct {
	Type   Type   `json:"type"`
	UserID string `json:"userId"`
	RoomID string `json:"roomId"`
}

func UserJoined(userID, username string) ([]byte, error) {
	return json.Marshal(userJoined{Type: TypeUserJoined, UserID: userID, Username: username})
}

func UserLeft(userID string) ([]byte, error) {
	return json.Marshal(userLeft{Type: TypeUserLeft, UserID: userID})
}

func MemberRemoved(userID, roomID string) ([]byte, error) {
	return json.Marshal(memberRemoved{Type: TypeMemberRemoved, UserID: userID, RoomID: roomID})
}

// The two unicast error replies are part of the wire contract and never
// broadcast. Fixed payloads, serialized once for the process lifetime.
var (
	invalidFormatReply    = []byte(`{"type":"error","message":"Invalid message format"}`)
	permissionDeniedReply = []byte(`{"type":"error","message":"Permission denied"}`)
)

func InvalidFormatReply() []byte { return invalidFormatReply }

func PermissionDeniedReply() []byte { return permissionDeniedReply }
