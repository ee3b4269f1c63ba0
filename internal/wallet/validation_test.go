package wallet

import (
	"strings"
	"testing"
)

func TestValidateUserID(t *testing.T) {
	tests := []struct {
		name    string
		userID  string
		wantErr bool
	}{
		{name: "valid", userID: "user-123", wantErr: false},
		{name: "empty", userID: "", wantErr: true},
		{name: "too long", userID: strings.Repeat("a", 65), wantErr: true},
		{name: "max length", userID: strings.Repeat("a", 64), wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateUserID(tt.userID)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateUserID(%q) error = %v, wantErr %v", tt.userID, err, tt.wantErr)
			}
		})
	}
}

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		wantErr bool
	}{
		{name: "valid", amount: "100.50", wantErr: false},
		{name: "integer", amount: "5", wantErr: false},
		{name: "empty", amount: "", wantErr: true},
		{name: "zero", amount: "0", wantErr: true},
		{name: "negative", amount: "-1.00", wantErr: true},
		{name: "three decimals", amount: "1.005", wantErr: true},
		{name: "not a number", amount: "ten", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAmount(tt.amount)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateAmount(%q) error = %v, wantErr %v", tt.amount, err, tt.wantErr)
			}
		})
	}
}
