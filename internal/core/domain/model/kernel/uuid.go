package kernel

import (
	"fmt"

	"slaughterhouse/internal/pkg/errs"

	"github.com/google/uuid"
)

// ErrUUIDIsNotConstructed is returned by Validate for the zero UUID.
var ErrUUIDIsNotConstructed = errs.NewValueIsRequiredError("UUID must be created via NewUUID or UUIDFromString")

// UUID identifies processes and shipments. The zero value is invalid.
type UUID struct {
	id uuid.UUID
}

func NewUUID() UUID {
	return UUID{id: uuid.New()}
}

// UUIDFromString parses s and rejects the nil UUID.
func UUIDFromString(s string) (UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return UUID{}, errs.NewValueIsInvalidErrorWithCause("UUID", fmt.Errorf("invalid UUID format: %w", err))
	}

	parsed := UUID{id: id}
	if err = parsed.Validate(); err != nil {
		return UUID{}, err
	}
	return parsed, nil
}

func (u UUID) String() string {
	return u.id.String()
}

func (u UUID) IsEqual(other UUID) bool {
	return u.id == other.id
}

func (u UUID) IsZero() bool {
	return u.id == uuid.Nil
}

func (u UUID) Validate() error {
	if u.IsZero() {
		return ErrUUIDIsNotConstructed
	}
	return nil
}

func (u UUID) MarshalText() ([]byte, error) {
	return []byte(u.id.String()), nil
}

// UnmarshalText accepts the empty string as the zero UUID so optional references can be decoded.
func (u *UUID) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*u = UUID{}
		return nil
	}
	id, err := uuid.ParseBytes(text)
	if err != nil {
		return errs.NewValueIsInvalidErrorWithCause("UUID", err)
	}
	u.id = id
	return nil
}
