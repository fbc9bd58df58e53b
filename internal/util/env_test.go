package util

import "testing"

func TestParseBoolEnv(t *testing.T) {
	tests := []struct {
		value string
		def   bool
		want  bool
	}{
		{value: "", def: true, want: true},
		{value: "", def: false, want: false},
		{value: "true", def: false, want: true},
		{value: "1", def: false, want: true},
		{value: "YES", def: false, want: true},
		{value: "on", def: false, want: true},
		{value: "false", def: true, want: false},
		{value: "0", def: true, want: false},
		{value: "No", def: true, want: false},
		{value: "off", def: true, want: false},
		{value: "maybe", def: true, want: true},
		{value: " true ", def: false, want: true},
	}

	for _, tt := range tests {
		t.Setenv("VISADESK_TEST_BOOL", tt.value)
		if got := ParseBoolEnv("VISADESK_TEST_BOOL", tt.def); got != tt.want {
			t.Errorf("ParseBoolEnv(%q, %v) = %v, want %v", tt.value, tt.def, got, tt.want)
		}
	}
}
