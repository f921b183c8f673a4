package domain

import "time"

// Identity is the resolved collaborator triple supplied by the upstream
// authentication layer. The coordinator trusts these values; it only checks
// that all of them are present before admitting a connection.
type Identity struct {
	UserID   string `json:"userId" validate:"required"`
	Username string `json:"username" validate:"required"`
	Role     Role   `json:"role" validate:"required,oneof=owner admin member"`
}

func (i Identity) Complete() bool {
	return i.UserID != "" && i.Username != "" && i.Role.Valid()
}

// ConnectionMetadata travels with the connection object itself, never in a
// coordinator-owned map: the coordinator's memory may be discarded between
// two messages, so identity must always be recoverable from the live
// connection set alone. Immutable once attached.
type ConnectionMetadata struct {
	ConnectionID string    `json:"connectionId"`
	UserID       string    `json:"userId"`
	Username     string    `json:"username"`
	Role         Role      `json:"role"`
	ConnectedAt  time.Time `json:"connectedAt"`
}
