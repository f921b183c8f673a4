package domain

import "stowroom/errors"

// Role is the room membership role resolved by the upstream REST layer.
// Inside the session coordinator only two tiers matter: owner and admin
// form the elevated tier, member is the restricted tier. Finer-grained
// rules are enforced by the REST layer before an edit reaches this channel.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleOwner, RoleAdmin, RoleMember:
		return r, nil
	default:
		return "", errors.ErrUnknownRole
	}
}

func (r Role) Valid() bool {
	return r == RoleOwner || r == RoleAdmin || r == RoleMember
}

// Elevated reports whether the role may send any mutation or presence type.
func (r Role) Elevated() bool {
	return r == RoleOwner || r == RoleAdmin
}
