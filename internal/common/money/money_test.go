package money

import (
	"fmt"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "integer", input: "100", wantErr: false},
		{name: "two decimals", input: "100.50", wantErr: false},
		{name: "one decimal", input: "0.5", wantErr: false},
		{name: "zero", input: "0", wantErr: false},
		{name: "negative", input: "-10.25", wantErr: false},
		{name: "three decimals", input: "1.005", wantErr: true},
		{name: "not a number", input: "abc", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestParsePositive(t *testing.T) {
	if _, err := ParsePositive("10.00"); err != nil {
		t.Errorf("ParsePositive(10.00) unexpected error: %v", err)
	}
	if _, err := ParsePositive("0"); err == nil {
		t.Error("ParsePositive(0) expected error")
	}
	if _, err := ParsePositive("-5.00"); err == nil {
		t.Error("ParsePositive(-5.00) expected error")
	}
}

func TestAddSub(t *testing.T) {
	sum, err := Add("0.10", "0.20")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if sum != "0.30" {
		t.Errorf("Add(0.10, 0.20) = %s, want 0.30", sum)
	}

	diff, err := Sub("100.00", "0.01")
	if err != nil {
		t.Fatalf("Sub failed: %v", err)
	}
	if diff != "99.99" {
		t.Errorf("Sub(100.00, 0.01) = %s, want 99.99", diff)
	}
}

func TestCmp(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.00", "2.00", -1},
		{"2.00", "2.00", 0},
		{"2.00", "2", 0},
		{"3.00", "2.00", 1},
	}

	for _, tt := range tests {
		got, err := Cmp(tt.a, tt.b)
		if err != nil {
			t.Fatalf("Cmp(%s, %s) failed: %v", tt.a, tt.b, err)
		}
		if got != tt.want {
			t.Errorf("Cmp(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSplit(t *testing.T) {
	platform, instructor, err := Split("100.00")
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if platform != "30.00" {
		t.Errorf("platform share = %s, want 30.00", platform)
	}
	if instructor != "70.00" {
		t.Errorf("instructor share = %s, want 70.00", instructor)
	}

	if _, _, err := Split("0"); err == nil {
		t.Error("Split(0) expected error")
	}
	if _, _, err := Split("-5.00"); err == nil {
		t.Error("Split(-5.00) expected error")
	}
}

// The shares must sum back to the original amount for every cent value, or
// settlement would create or destroy money on odd prices.
func TestSplitConservesTotal(t *testing.T) {
	for cents := 1; cents <= 10000; cents++ {
		total := fmt.Sprintf("%d.%02d", cents/100, cents%100)

		platform, instructor, err := Split(total)
		if err != nil {
			t.Fatalf("Split(%s) failed: %v", total, err)
		}

		sum, err := Add(platform, instructor)
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}

		cmp, err := Cmp(sum, total)
		if err != nil {
			t.Fatalf("Cmp failed: %v", err)
		}
		if cmp != 0 {
			t.Fatalf("Split(%s) = %s + %s = %s, shares do not sum to total", total, platform, instructor, sum)
		}
	}
}
