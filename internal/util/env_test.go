package util

import "testing"

func TestEnvOrDefault(t *testing.T) {
	const key = "PMTRACK_UTIL_TEST"
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"unset", "", "fallback"},
		{"blank", "   ", "fallback"},
		{"set", "custom.yaml", "custom.yaml"},
		{"trimmed", "  custom.yaml\n", "custom.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(key, tt.value)
			if got := EnvOrDefault(key, "fallback"); got != tt.want {
				t.Errorf("EnvOrDefault = %q, want %q", got, tt.want)
			}
		})
	}
}
