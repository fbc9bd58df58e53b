package flow

import (
	"fmt"
	"strings"

	"github.com/visadesk/visadesk/internal/models"
)

// PersonalFields is the fixed order in which personal details are collected
// before any service flow begins.
var PersonalFields = []models.PersonalField{
	models.FieldName,
	models.FieldPhone,
	models.FieldEmail,
	models.FieldAge,
	models.FieldCity,
	models.FieldCountry,
	models.FieldEducation,
	models.FieldExperience,
}

var personalPrompts = map[models.PersonalField]string{
	models.FieldName:       "Please share your *full name*:",
	models.FieldPhone:      "Send your *phone number* with country code:",
	models.FieldEmail:      "Enter your *email address* (or type N/A):",
	models.FieldAge:        "What is your *age*?",
	models.FieldCity:       "Which *city* are you in?",
	models.FieldCountry:    "Which *country* are you living in?",
	models.FieldEducation:  "Your *highest education*?",
	models.FieldExperience: "Your *work experience* (in years)?",
}

// PersonalPrompt returns the question asked for one personal field.
func PersonalPrompt(field models.PersonalField) string {
	return personalPrompts[field]
}

// FirstPersonalPrompt returns the question that opens the personal-details
// sub-flow.
func FirstPersonalPrompt() string {
	return personalPrompts[PersonalFields[0]]
}

// AdvancePersonal runs one turn of the personal-details sequencer. It
// validates text against the field at the current cursor: on rejection the
// cursor holds and reply carries the retry prompt; on success the value is
// stored, the cursor advances, and reply carries the next field's question.
// done is true once every field has been collected, with an empty reply — the
// caller emits the summary and moves the session into its service step.
func AdvancePersonal(sess *models.Session, text string) (reply string, done bool) {
	if sess.PersonalIndex >= len(PersonalFields) {
		return "", true
	}

	field := PersonalFields[sess.PersonalIndex]
	value, err := ValidateField(field, text)
	if err != nil {
		return err.Error(), false
	}

	sess.SetPersonal(field, value)
	sess.PersonalIndex++

	if sess.PersonalIndex >= len(PersonalFields) {
		return "", true
	}
	return personalPrompts[PersonalFields[sess.PersonalIndex]], false
}

// PersonalSummary formats the collected details block echoed back to the user
// once the sequencer completes.
func PersonalSummary(p map[models.PersonalField]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", p[models.FieldName])
	fmt.Fprintf(&b, "Phone: %s\n", p[models.FieldPhone])
	fmt.Fprintf(&b, "Email: %s\n", p[models.FieldEmail])
	fmt.Fprintf(&b, "Age: %s\n", p[models.FieldAge])
	fmt.Fprintf(&b, "City: %s\n", p[models.FieldCity])
	fmt.Fprintf(&b, "Country: %s\n", p[models.FieldCountry])
	fmt.Fprintf(&b, "Education: %s\n", p[models.FieldEducation])
	fmt.Fprintf(&b, "Experience: %s years", p[models.FieldExperience])
	return b.String()
}
