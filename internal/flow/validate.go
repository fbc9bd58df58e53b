// Package flow implements the VisaDesk conversation engine: input validation,
// the shared personal-details sequencer, the top-level router, and the
// per-service flow state machines.
package flow

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/visadesk/visadesk/internal/models"
)

// MinPhoneDigits is the minimum digit count accepted for the phone field.
const MinPhoneDigits = 8

var (
	emailRegex    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	nonDigitRegex = regexp.MustCompile(`\D`)
)

// ValidationError reports user input rejected by a field rule. Message is the
// retry prompt shown to the user; it never escapes as a turn-level failure.
type ValidationError struct {
	Field   models.PersonalField
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ValidateField checks raw input against the field's rule and returns the
// normalized value. The returned error, when non-nil, is always a
// *ValidationError carrying the retry prompt for that field.
func ValidateField(field models.PersonalField, raw string) (string, error) {
	value := strings.TrimSpace(raw)

	switch field {
	case models.FieldPhone:
		digits := nonDigitRegex.ReplaceAllString(value, "")
		if len(digits) < MinPhoneDigits {
			return "", &ValidationError{Field: field, Message: "Invalid phone. Send again with country code."}
		}
		return digits, nil

	case models.FieldEmail:
		if strings.EqualFold(value, "n/a") {
			return "", nil
		}
		if emailRegex.MatchString(value) {
			return value, nil
		}
		return "", &ValidationError{Field: field, Message: "Invalid email. Send again or type N/A."}

	case models.FieldAge, models.FieldExperience:
		n, err := strconv.ParseFloat(value, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
			return "", &ValidationError{Field: field, Message: fmt.Sprintf("Please send a valid number for %s.", field)}
		}
		return strconv.FormatFloat(n, 'f', -1, 64), nil

	default:
		if value == "" {
			return "", &ValidationError{Field: field, Message: fmt.Sprintf("Please enter your %s.", field)}
		}
		return value, nil
	}
}
