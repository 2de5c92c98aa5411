package autherr

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodeOf(t *testing.T) {
	err := New(CodeInvalidCredentials, "invalid credentials")
	if CodeOf(err) != CodeInvalidCredentials {
		t.Errorf("CodeOf = %q, want %q", CodeOf(err), CodeInvalidCredentials)
	}
	if CodeOf(errors.New("boom")) != CodeInternal {
		t.Errorf("CodeOf plain error should be %q", CodeInternal)
	}
	wrapped := fmt.Errorf("handler: %w", New(CodeAccountBlocked, "blocked"))
	if CodeOf(wrapped) != CodeAccountBlocked {
		t.Errorf("CodeOf wrapped = %q, want %q", CodeOf(wrapped), CodeAccountBlocked)
	}
}

func TestWeakPassword_CarriesFeedback(t *testing.T) {
	err := WeakPassword([]string{"too short", "needs a number"})
	if CodeOf(err) != CodeWeakPassword {
		t.Fatalf("CodeOf = %q", CodeOf(err))
	}
	fb := FeedbackOf(err)
	if len(fb) != 2 || fb[0] != "too short" {
		t.Errorf("FeedbackOf = %v", fb)
	}
}

func TestInternal_HidesDetail(t *testing.T) {
	err := Internal()
	if err.Error() != "internal server error" {
		t.Errorf("Internal message = %q", err.Error())
	}
}
