package social

import (
	"errors"
	"strings"
)

// Identity handle rules
const (
	MinIdentityLength = 3
	MaxIdentityLength = 20
	MaxInviteMessage  = 500
)

var reservedIdentities = map[string]struct{}{
	"admin":     {},
	"system":    {},
	"user":      {},
	"guest":     {},
	"bot":       {},
	"null":      {},
	"undefined": {},
	"root":      {},
	"test":      {},
	"demo":      {},
}

// Identity validation errors. Each one is a distinct reason reported to
// the client.
var (
	ErrIdentityTooShort     = errors.New("identity must be at least 3 characters")
	ErrIdentityTooLong      = errors.New("identity must be at most 20 characters")
	ErrIdentityCharset      = errors.New("identity may only contain letters, digits, '-' and '_'")
	ErrIdentityEdge         = errors.New("identity cannot start or end with '-' or '_'")
	ErrIdentityDoubleSymbol = errors.New("identity cannot contain consecutive '-' or '_' characters")
	ErrIdentityNoLetter     = errors.New("identity must contain at least one letter")
	ErrIdentityReserved     = errors.New("identity is a reserved word")
)

// ValidateIdentity checks a proposed human-facing handle. Rules are applied
// in a fixed order and the first violation is returned.
func ValidateIdentity(id string) error {
	if len(id) < MinIdentityLength {
		return ErrIdentityTooShort
	}
	if len(id) > MaxIdentityLength {
		return ErrIdentityTooLong
	}

	hasLetter := false
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
			hasLetter = true
		case c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return ErrIdentityCharset
		}
	}

	if isSymbol(id[0]) || isSymbol(id[len(id)-1]) {
		return ErrIdentityEdge
	}
	for i := 1; i < len(id); i++ {
		if isSymbol(id[i-1]) && isSymbol(id[i]) {
			return ErrIdentityDoubleSymbol
		}
	}
	if !hasLetter {
		return ErrIdentityNoLetter
	}
	if _, reserved := reservedIdentities[strings.ToLower(id)]; reserved {
		return ErrIdentityReserved
	}
	return nil
}

func isSymbol(c byte) bool {
	return c == '-' || c == '_'
}
