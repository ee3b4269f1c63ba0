package payout

import (
	"testing"

	"github.com/google/uuid"
)

func TestValidatePayoutID(t *testing.T) {
	if err := validatePayoutID(uuid.New().String()); err != nil {
		t.Errorf("valid uuid rejected: %v", err)
	}
	if err := validatePayoutID("not-a-uuid"); err == nil {
		t.Error("expected error for malformed id")
	}
	if err := validatePayoutID(""); err == nil {
		t.Error("expected error for empty id")
	}
}

func TestValidateDenyReason(t *testing.T) {
	if err := validateDenyReason("account under review"); err != nil {
		t.Errorf("valid reason rejected: %v", err)
	}
	if err := validateDenyReason(""); err == nil {
		t.Error("expected error for empty reason")
	}
	if err := validateDenyReason("   "); err == nil {
		t.Error("expected error for whitespace-only reason")
	}
}

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		amount  string
		wantErr bool
	}{
		{"50.00", false},
		{"", true},
		{"0", true},
		{"-10", true},
		{"1.005", true},
	}

	for _, tt := range tests {
		err := validateAmount(tt.amount)
		if (err != nil) != tt.wantErr {
			t.Errorf("validateAmount(%q) error = %v, wantErr %v", tt.amount, err, tt.wantErr)
		}
	}
}
