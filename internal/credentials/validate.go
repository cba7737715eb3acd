package credentials

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/nicole/internal/common"
)

// MinPasswordLength is the shortest password ValidatePasswordStrength accepts.
const MinPasswordLength = 8

// SpecialCharacters lists the symbols that satisfy the special-character rule.
const SpecialCharacters = "!@#$%^&*()_+={}[]|\\:;\"'<>,.?/`~"

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidatePasswordStrength returns nil for an acceptable password. Otherwise it
// returns the first failing rule, wrapped in common.ErrorValidation.
func ValidatePasswordStrength(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters long", common.ErrorValidation, MinPasswordLength)
	}
	if strings.IndexFunc(password, unicode.IsUpper) < 0 {
		return fmt.Errorf("%w: password must contain at least one uppercase letter", common.ErrorValidation)
	}
	if !strings.ContainsAny(password, SpecialCharacters) {
		return fmt.Errorf("%w: password must contain at least one special character", common.ErrorValidation)
	}
	return nil
}

// ValidateEmail is a purely syntactic check; no DNS lookups are made.
func ValidateEmail(candidate string) bool {
	return emailRe.MatchString(candidate)
}
