package flow

import (
	"errors"
	"testing"

	"github.com/visadesk/visadesk/internal/models"
)

func TestValidateFieldPhone(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain digits", input: "4915551234567", want: "4915551234567"},
		{name: "formatted number", input: "+49 (155) 512-34567", want: "4915551234567"},
		{name: "too short", input: "12345", wantErr: true},
		{name: "no digits", input: "call me", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateField(models.FieldPhone, tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestValidateFieldEmail(t *testing.T) {
	if _, err := ValidateField(models.FieldEmail, "asha@example.com"); err != nil {
		t.Errorf("valid email rejected: %v", err)
	}
	if got, err := ValidateField(models.FieldEmail, "N/A"); err != nil || got != "" {
		t.Errorf("expected opt-out to normalize to empty, got %q, err %v", got, err)
	}
	if got, err := ValidateField(models.FieldEmail, "n/a"); err != nil || got != "" {
		t.Errorf("expected lowercase opt-out to normalize to empty, got %q, err %v", got, err)
	}
	if _, err := ValidateField(models.FieldEmail, "not-an-email"); err == nil {
		t.Error("expected error for malformed email")
	}
	if _, err := ValidateField(models.FieldEmail, "two@@example.com"); err == nil {
		t.Error("expected error for double at sign")
	}
}

func TestValidateFieldNumeric(t *testing.T) {
	if got, err := ValidateField(models.FieldAge, " 30 "); err != nil || got != "30" {
		t.Errorf("expected normalized 30, got %q, err %v", got, err)
	}
	if got, err := ValidateField(models.FieldExperience, "2.5"); err != nil || got != "2.5" {
		t.Errorf("expected 2.5, got %q, err %v", got, err)
	}
	for _, bad := range []string{"thirty", "-1", "NaN", "Inf", ""} {
		if _, err := ValidateField(models.FieldAge, bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestValidateFieldFreeText(t *testing.T) {
	if got, err := ValidateField(models.FieldCity, "  Berlin  "); err != nil || got != "Berlin" {
		t.Errorf("expected trimmed value, got %q, err %v", got, err)
	}
	if _, err := ValidateField(models.FieldName, "   "); err == nil {
		t.Error("expected error for blank name")
	}
}

func TestValidationErrorType(t *testing.T) {
	_, err := ValidateField(models.FieldPhone, "123")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if verr.Field != models.FieldPhone {
		t.Errorf("expected field %q, got %q", models.FieldPhone, verr.Field)
	}
	if verr.Error() == "" {
		t.Error("expected a retry message")
	}
}
