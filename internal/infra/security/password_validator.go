package security

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/nbutton23/zxcvbn-go"
)

// PasswordValidationError carries every rule violation found for a candidate
// password so callers can surface them all at once.
type PasswordValidationError struct {
	Violations []string
}

func (e *PasswordValidationError) Error() string {
	return "password validation failed: " + strings.Join(e.Violations, "; ")
}

// PasswordRule checks one property of a candidate password and returns a
// human readable violation when the check fails.
type PasswordRule interface {
	Validate(password string) (violation string, ok bool)
}

// PasswordRuleFunc adapts a function to the PasswordRule interface.
type PasswordRuleFunc func(password string) (string, bool)

func (f PasswordRuleFunc) Validate(password string) (string, bool) {
	return f(password)
}

// PasswordValidator runs candidate passwords through an ordered rule set.
type PasswordValidator struct {
	rules []PasswordRule
}

func NewPasswordValidator(rules ...PasswordRule) *PasswordValidator {
	return &PasswordValidator{rules: rules}
}

// Validate returns a *PasswordValidationError listing every violated rule,
// or nil when the password passes all rules.
func (v *PasswordValidator) Validate(password string) error {
	var violations []string
	for _, rule := range v.rules {
		if violation, ok := rule.Validate(password); !ok {
			violations = append(violations, violation)
		}
	}

	if len(violations) > 0 {
		return &PasswordValidationError{Violations: violations}
	}
	return nil
}

// MinLengthRule rejects passwords shorter than the given rune count.
func MinLengthRule(min int) PasswordRule {
	return PasswordRuleFunc(func(password string) (string, bool) {
		if len([]rune(password)) < min {
			return fmt.Sprintf("must be at least %d characters long", min), false
		}
		return "", true
	})
}

// MaxLengthRule bounds password length to keep hashing cost predictable.
func MaxLengthRule(max int) PasswordRule {
	return PasswordRuleFunc(func(password string) (string, bool) {
		if len([]rune(password)) > max {
			return fmt.Sprintf("must be at most %d characters long", max), false
		}
		return "", true
	})
}

// RequireCharacterClassesRule demands at least one letter and one digit.
func RequireCharacterClassesRule() PasswordRule {
	return PasswordRuleFunc(func(password string) (string, bool) {
		var hasLetter, hasDigit bool
		for _, r := range password {
			switch {
			case unicode.IsLetter(r):
				hasLetter = true
			case unicode.IsDigit(r):
				hasDigit = true
			}
		}
		if !hasLetter || !hasDigit {
			return "must contain at least one letter and one digit", false
		}
		return "", true
	})
}

// RequirePasswordStrengthRule rejects passwords scoring below minScore on the
// zxcvbn scale (0 weakest, 4 strongest).
func RequirePasswordStrengthRule(minScore int) PasswordRule {
	return PasswordRuleFunc(func(password string) (string, bool) {
		result := zxcvbn.PasswordStrength(password, nil)
		if result.Score < minScore {
			return "is too easy to guess", false
		}
		return "", true
	})
}

// DefaultPasswordValidator returns the validator used for password changes.
func DefaultPasswordValidator() *PasswordValidator {
	return NewPasswordValidator(
		MinLengthRule(8),
		MaxLengthRule(160),
		RequireCharacterClassesRule(),
		RequirePasswordStrengthRule(2),
	)
}
