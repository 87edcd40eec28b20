package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"

	"github.com/eskrenkovic/matchroom/internal/modules/core"

	"github.com/google/uuid"
)

const MaxNameLength = 32

var guestSuffixRange = big.NewInt(1_000_000)

// NewGuest creates an identity with a fresh participant id. A blank
// name is replaced by Guest followed by six digits.
func NewGuest(name string) (core.Identity, error) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > MaxNameLength {
		return core.Identity{}, fmt.Errorf("name longer than %d characters", MaxNameLength)
	}

	if name == "" {
		suffix, err := rand.Int(rand.Reader, guestSuffixRange)
		if err != nil {
			return core.Identity{}, fmt.Errorf("generate guest name: %w", err)
		}
		name = fmt.Sprintf("Guest%06d", suffix.Int64())
	}

	return core.Identity{ParticipantID: uuid.NewString(), Name: name}, nil
}
