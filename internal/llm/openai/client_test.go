package openai

import (
	"testing"
	"time"
)

func TestNewClientValidation(t *testing.T) {
	tests := []struct {
		name    string
		apiKey  string
		model   string
		wantErr bool
	}{
		{name: "ok", apiKey: "sk-test", model: "gpt-4o-mini", wantErr: false},
		{name: "missing model", apiKey: "sk-test", model: " ", wantErr: true},
		{name: "missing key", apiKey: "", model: "gpt-4o-mini", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.apiKey, tt.model, 10*time.Second)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewClient err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && c.Model() != tt.model {
				t.Fatalf("Model() = %q, want %q", c.Model(), tt.model)
			}
		})
	}
}

func TestNewClientDefaultTimeout(t *testing.T) {
	c, err := NewClient("sk-test", "gpt-4o-mini", 0)
	if err != nil {
		t.Fatal(err)
	}
	if c.httpClient.Timeout != 30*time.Second {
		t.Fatalf("timeout = %v, want 30s", c.httpClient.Timeout)
	}
}
