package security

import (
	"strings"
	"testing"
)

func TestNewResetToken_URLSafeAndUnique(t *testing.T) {
	a, err := NewResetToken()
	if err != nil {
		t.Fatalf("NewResetToken: %v", err)
	}
	b, err := NewResetToken()
	if err != nil {
		t.Fatalf("NewResetToken: %v", err)
	}
	if a == b {
		t.Error("two reset tokens should not collide")
	}
	if len(a) < 40 {
		t.Errorf("token too short: %d chars", len(a))
	}
	if strings.ContainsAny(a, "+/=") {
		t.Errorf("token %q is not URL-safe", a)
	}
}
