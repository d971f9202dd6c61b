package ai

import (
	"testing"
)

func TestCleanResponse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain response",
			input:    "CHANGE_TYPE: pricing_change\nIMPORTANCE: 8",
			expected: "CHANGE_TYPE: pricing_change\nIMPORTANCE: 8",
		},
		{
			name:     "prompt echo lines removed",
			input:    ">>> hello\nCHANGE_TYPE: minor_update\n... continuation\nIMPORTANCE: 3",
			expected: "CHANGE_TYPE: minor_update\nIMPORTANCE: 3",
		},
		{
			name:     "blank lines collapsed",
			input:    "\n\nANALYSIS: stable\n\n",
			expected: "ANALYSIS: stable",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cleanResponse(tt.input)
			if got != tt.expected {
				t.Errorf("cleanResponse(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNewFromConfig(t *testing.T) {
	client, err := NewFromConfig("none", "", "")
	if err != nil {
		t.Fatalf("NewFromConfig(none) failed: %v", err)
	}
	if client != nil {
		t.Error("Provider 'none' should return a nil client")
	}

	client, err = NewFromConfig("ollama", "llama3", "")
	if err != nil {
		t.Fatalf("NewFromConfig(ollama) failed: %v", err)
	}
	if client == nil {
		t.Error("Provider 'ollama' should return a client")
	}

	if _, err := NewFromConfig("openai", "gpt-4o-mini", ""); err == nil {
		t.Error("Provider 'openai' without a key should fail")
	}

	if _, err := NewFromConfig("carrier-pigeon", "", ""); err == nil {
		t.Error("Unknown provider should fail")
	}
}
