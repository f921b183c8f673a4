package auth

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"stowroom/domain"
	"stowroom/errors"
)

var validate = validator.New()

// ValidateIdentity enforces the one fatal admission rule: a missing userId,
// username or role rejects the upgrade before any connection is created.
func ValidateIdentity(identity domain.Identity) error {
	if err := validate.Struct(identity); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrMissingIdentity, err)
	}
	return nil
}
