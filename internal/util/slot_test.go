package util

import "testing"

func TestParseSlot(t *testing.T) {
	tests := []struct {
		arg     string
		slot    uint64
		latest  bool
		wantErr bool
	}{
		{"", 0, true, false},
		{"latest", 0, true, false},
		{" LATEST ", 0, true, false},
		{"259200100", 259200100, false, false},
		{"259_200_100", 259200100, false, false},
		{"0x10", 16, false, false},
		{"0X10", 16, false, false},
		{"-1", 0, false, true},
		{"tip", 0, false, true},
		{"0x", 0, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			slot, latest, err := ParseSlot(tt.arg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSlot(%q) error = %v, wantErr %v", tt.arg, err, tt.wantErr)
			}
			if slot != tt.slot || latest != tt.latest {
				t.Errorf("ParseSlot(%q) = %d, %v; want %d, %v", tt.arg, slot, latest, tt.slot, tt.latest)
			}
		})
	}
}
