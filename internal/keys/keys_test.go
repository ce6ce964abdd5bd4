package keys

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	key, err := Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if err := Validate(key); err != nil {
		t.Errorf("Validate(%q) failed: %v", key, err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name string
		addr string
	}{
		{name: "empty", addr: ""},
		{name: "not base58", addr: "0OIl+/="},
		{name: "too short", addr: "abc"},
		{name: "too long", addr: strings.Repeat("1", 64)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Validate(tt.addr); err == nil {
				t.Errorf("Validate(%q) expected error", tt.addr)
			}
		})
	}
}

func TestGenerate_OnCurve(t *testing.T) {
	for i := 0; i < 10; i++ {
		key, err := Generate()
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if !IsOnCurve(key) {
			t.Errorf("Generate produced off-curve key %q", key)
		}
	}
}

func TestGenerateOffCurve(t *testing.T) {
	for i := 0; i < 10; i++ {
		key, err := GenerateOffCurve()
		if err != nil {
			t.Fatalf("GenerateOffCurve failed: %v", err)
		}
		if err := Validate(key); err != nil {
			t.Fatalf("off-curve key %q failed validation: %v", key, err)
		}
		if IsOnCurve(key) {
			t.Errorf("GenerateOffCurve produced on-curve key %q", key)
		}
	}
}

func TestIsOnCurve_Invalid(t *testing.T) {
	if IsOnCurve("not-a-key") {
		t.Error("IsOnCurve accepted malformed input")
	}
}
