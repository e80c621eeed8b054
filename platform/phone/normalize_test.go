package phone

import "testing"

func TestNormalizeIndianMobile(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"bare ten digits", "9876543210", "+919876543210", true},
		{"with country code", "919876543210", "+919876543210", true},
		{"e164", "+919876543210", "+919876543210", true},
		{"spaces and dashes", " +91 98765-43210 ", "+919876543210", true},
		{"landline rejected", "01123456789", "", false},
		{"too short", "98765", "", false},
		{"foreign number", "+14155552671", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeIndianMobile(tt.input)
			if ok != tt.ok {
				t.Fatalf("NormalizeIndianMobile(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if got != tt.want {
				t.Fatalf("NormalizeIndianMobile(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeE164FallsBackToInput(t *testing.T) {
	if got := NormalizeE164("not a number"); got != "not a number" {
		t.Fatalf("NormalizeE164 fallback = %q", got)
	}
	if got := NormalizeE164("+91 98765 43210"); got != "+919876543210" {
		t.Fatalf("NormalizeE164 = %q, want +919876543210", got)
	}
}
