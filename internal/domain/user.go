// Package domain holds room and member identities and the rules for
// parsing and validating them.
package domain

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/language"
)

const (
	MaxUserIDLen    = 64
	DefaultLanguage = Language("en")

	placeholderPrefix = "user_"
)

var ErrUserIDTooLong = errors.New("user id too long")

type UserID string

// Language is a client-declared language code, canonicalised when it parses
// as a BCP 47 tag.
type Language string

// ParseUserID trims the declared id and falls back to a placeholder derived
// from seed (or a fresh uuid when seed is empty).
func ParseUserID(raw, seed string) (UserID, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return PlaceholderUserID(seed), nil
	}
	if len(id) > MaxUserIDLen {
		return "", ErrUserIDTooLong
	}
	return UserID(id), nil
}

func PlaceholderUserID(seed string) UserID {
	hex := strings.ReplaceAll(seed, "-", "")
	if len(hex) < 8 {
		hex = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	return UserID(placeholderPrefix + hex[:8])
}

// ParseLanguage never fails: empty means DefaultLanguage, tags that do not
// parse are kept lower-cased as declared.
func ParseLanguage(raw string) Language {
	code := strings.TrimSpace(raw)
	if code == "" {
		return DefaultLanguage
	}
	tag, err := language.Parse(code)
	if err != nil {
		return Language(strings.ToLower(code))
	}
	return Language(tag.String())
}

func (l Language) String() string { return string(l) }
