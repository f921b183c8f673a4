package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"stowroom/domain"
	"stowroom/errors"
)

// RoomClaims is the token payload minted by the REST layer once it has
// verified credentials and computed the room membership role. This
// subsystem only decodes it; it performs no credential checks of its own.
type RoomClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed room token. Used by the upstream layer in
// production and by the e2e scenarios to mint test collaborators.
func GenerateToken(identity domain.Identity, duration time.Duration, secret []byte) (string, error) {
	now := time.Now()
	claims := &RoomClaims{
		UserID:   identity.UserID,
		Username: identity.Username,
		Role:     string(identity.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "stowroom",
		},
	}

	// HS256 (HMAC with SHA256), same scheme the REST layer signs with.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken parses and validates the signature and expiration of a
// room token string.
func ValidateToken(tokenString string, secret []byte) (*RoomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &RoomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*RoomClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.ErrInvalidToken
}

// IdentityFromClaims maps the decoded claims onto the resolved identity
// triple the coordinator admits with.
func IdentityFromClaims(claims *RoomClaims) (domain.Identity, error) {
	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return domain.Identity{}, err
	}
	return domain.Identity{
		UserID:   claims.UserID,
		Username: claims.Username,
		Role:     role,
	}, nil
}
