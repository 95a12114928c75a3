package validation

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode"

	"insightpaper/internal/apperr"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// bcrypt ignores everything past 72 bytes.
const maxPasswordBytes = 72

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperr.Validation("email_required")
	}
	if !emailRegex.MatchString(email) {
		return apperr.Validation("email_invalid")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apperr.Validation("email_invalid")
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return apperr.Validation("password_required")
	}
	if len(password) < 8 {
		return apperr.Validation("password_too_short")
	}
	if len(password) > maxPasswordBytes {
		return apperr.Validation("password_too_long")
	}
	return nil
}

// ValidateName checks if a name is valid
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperr.Validation("name_required")
	}
	if len(name) < 2 {
		return apperr.Validation("name_too_short")
	}
	return nil
}

// Required returns "<field>_required" when value is blank.
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperr.Validation(field + "_required")
	}
	return nil
}

// ValidateOTP checks the shape of a one-time code before it is compared.
func ValidateOTP(code string) error {
	if code == "" {
		return apperr.Validation("otp_required")
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return apperr.ErrOTPInvalid
		}
	}
	return nil
}

// SanitizeQueryValue trims a query value and strips control characters and
// angle brackets.
func SanitizeQueryValue(value string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || r == '<' || r == '>' {
			return -1
		}
		return r
	}, strings.TrimSpace(value))
}
