package metrics

import (
	"testing"

	"github.com/dmagro/solrpc/internal/solana"
)

func hash(b byte) solana.Hash {
	var h solana.Hash
	h[0] = b
	return h
}

func TestCheck(t *testing.T) {
	checker := NewConsistencyChecker()

	tests := []struct {
		name          string
		slots         map[string]uint64
		hashes        map[string]solana.Hash
		refSlot       uint64
		wantConsensus bool
		wantGroups    int
		wantSlotOK    bool
	}{
		{
			name:          "all_same_hash",
			slots:         map[string]uint64{"a": 100, "b": 100, "c": 100},
			hashes:        map[string]solana.Hash{"a": hash(1), "b": hash(1), "c": hash(1)},
			refSlot:       100,
			wantConsensus: true,
			wantGroups:    1,
			wantSlotOK:    true,
		},
		{
			name:          "one_different_hash",
			slots:         map[string]uint64{"a": 100, "b": 100, "c": 100},
			hashes:        map[string]solana.Hash{"a": hash(1), "b": hash(1), "c": hash(2)},
			refSlot:       100,
			wantConsensus: false,
			wantGroups:    2,
			wantSlotOK:    true,
		},
		{
			name:          "zero_hash_excluded",
			slots:         map[string]uint64{"a": 100, "b": 100},
			hashes:        map[string]solana.Hash{"a": hash(1), "b": {}},
			refSlot:       100,
			wantConsensus: true,
			wantGroups:    1,
			wantSlotOK:    true,
		},
		{
			name:          "no_endpoints",
			slots:         map[string]uint64{},
			hashes:        map[string]solana.Hash{},
			wantConsensus: true,
			wantGroups:    0,
			wantSlotOK:    true,
		},
		{
			name:          "drift_within_threshold",
			slots:         map[string]uint64{"a": 120, "b": 100},
			hashes:        map[string]solana.Hash{"a": hash(1), "b": hash(1)},
			refSlot:       100,
			wantConsensus: true,
			wantGroups:    1,
			wantSlotOK:    true,
		},
		{
			name:          "drift_exceeds_threshold",
			slots:         map[string]uint64{"a": 200, "b": 100},
			hashes:        map[string]solana.Hash{"a": hash(1), "b": hash(1)},
			refSlot:       100,
			wantConsensus: true,
			wantGroups:    1,
			wantSlotOK:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := checker.Check(tt.slots, tt.hashes, tt.refSlot)

			if report.HashConsensus != tt.wantConsensus {
				t.Errorf("HashConsensus = %v, want %v", report.HashConsensus, tt.wantConsensus)
			}
			if len(report.HashGroups) != tt.wantGroups {
				t.Errorf("HashGroups = %d, want %d", len(report.HashGroups), tt.wantGroups)
			}
			if report.SlotConsensus != tt.wantSlotOK {
				t.Errorf("SlotConsensus = %v, want %v", report.SlotConsensus, tt.wantSlotOK)
			}
			if report.Consistent != (tt.wantConsensus && tt.wantSlotOK) {
				t.Errorf("Consistent = %v, issues %v", report.Consistent, report.Issues)
			}
		})
	}
}

func TestCheckMajorityFirst(t *testing.T) {
	report := NewConsistencyChecker().Check(
		map[string]uint64{"a": 10, "b": 10, "c": 11},
		map[string]solana.Hash{"a": hash(2), "b": hash(1), "c": hash(1)},
		10,
	)

	if got := report.HashGroups[0].Endpoints; len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Errorf("majority group = %v, want [b c]", got)
	}
	if report.AuthoritativeEndpoint != "c" {
		t.Errorf("AuthoritativeEndpoint = %q, want c", report.AuthoritativeEndpoint)
	}
	if len(report.Issues) != 1 {
		t.Errorf("Issues = %v, want one minority issue", report.Issues)
	}
}

func TestFormatSlotDrift(t *testing.T) {
	tests := []struct {
		drift uint64
		want  string
	}{
		{0, "all endpoints in sync"},
		{5, "5 slot(s) behind (~2s)"},
		{300, "300 slot(s) behind (~2m)"},
	}
	for _, tt := range tests {
		if got := FormatSlotDrift(tt.drift); got != tt.want {
			t.Errorf("FormatSlotDrift(%d) = %q, want %q", tt.drift, got, tt.want)
		}
	}
}
