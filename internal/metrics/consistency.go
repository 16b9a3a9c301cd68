package metrics

import (
	"fmt"
	"sort"
	"time"

	"github.com/dmagro/solrpc/internal/solana"
)

// slotDuration is the target slot time of the cluster.
const slotDuration = 400 * time.Millisecond

// ConsistencyReport holds the results of cross-endpoint consistency checks.
type ConsistencyReport struct {
	Slots                 map[string]uint64 // endpoint -> slot
	MaxSlot               uint64
	SlotDrift             uint64
	SlotConsensus         bool
	AuthoritativeEndpoint string // endpoint reporting the highest slot

	// Blockhashes fetched at ReferenceSlot.
	ReferenceSlot uint64
	Hashes        map[string]solana.Hash
	HashConsensus bool
	HashGroups    []HashGroup

	Consistent bool
	Issues     []string
}

// HashGroup represents endpoints that reported the same blockhash.
type HashGroup struct {
	Hash      solana.Hash
	Endpoints []string
}

// ConsistencyChecker validates data consistency across endpoints.
type ConsistencyChecker struct {
	acceptableSlotDrift uint64
}

// NewConsistencyChecker returns a checker tolerating 25 slots (~10s) of
// drift between endpoints.
func NewConsistencyChecker() *ConsistencyChecker {
	return &ConsistencyChecker{acceptableSlotDrift: 25}
}

// Check compares the slots each endpoint reported and the blockhashes they
// returned for referenceSlot. Zero hashes are endpoints that failed to
// return a block and are left out of the grouping.
func (c *ConsistencyChecker) Check(
	slots map[string]uint64,
	hashesAtRef map[string]solana.Hash,
	referenceSlot uint64,
) *ConsistencyReport {
	report := &ConsistencyReport{
		Slots:         slots,
		Hashes:        hashesAtRef,
		ReferenceSlot: referenceSlot,
		Consistent:    true,
	}

	var (
		minSlot uint64
		first   = true
	)
	for endpoint, slot := range slots {
		if slot > report.MaxSlot || (slot == report.MaxSlot && endpoint < report.AuthoritativeEndpoint) {
			report.MaxSlot = slot
			report.AuthoritativeEndpoint = endpoint
		}
		if first || slot < minSlot {
			minSlot = slot
			first = false
		}
	}
	report.SlotDrift = report.MaxSlot - minSlot
	report.SlotConsensus = report.SlotDrift <= c.acceptableSlotDrift
	if !report.SlotConsensus {
		report.Consistent = false
		report.Issues = append(report.Issues,
			fmt.Sprintf("Slot drift of %d exceeds threshold", report.SlotDrift))
	}

	byHash := make(map[solana.Hash][]string)
	for endpoint, hash := range hashesAtRef {
		if !hash.IsZero() {
			byHash[hash] = append(byHash[hash], endpoint)
		}
	}
	for hash, endpoints := range byHash {
		sort.Strings(endpoints)
		report.HashGroups = append(report.HashGroups, HashGroup{Hash: hash, Endpoints: endpoints})
	}
	sort.Slice(report.HashGroups, func(i, j int) bool {
		a, b := report.HashGroups[i], report.HashGroups[j]
		if len(a.Endpoints) != len(b.Endpoints) {
			return len(a.Endpoints) > len(b.Endpoints)
		}
		return a.Endpoints[0] < b.Endpoints[0]
	})

	report.HashConsensus = len(report.HashGroups) <= 1
	if !report.HashConsensus {
		report.Consistent = false
		majority := len(report.HashGroups[0].Endpoints)
		for _, group := range report.HashGroups[1:] {
			if len(group.Endpoints) < majority {
				report.Issues = append(report.Issues,
					fmt.Sprintf("Endpoint(s) %v report a different blockhash at slot %d (fork or stale node)",
						group.Endpoints, referenceSlot))
			}
		}
	}

	return report
}

// FormatSlotDrift returns a human-readable description of slot drift.
func FormatSlotDrift(drift uint64) string {
	if drift == 0 {
		return "all endpoints in sync"
	}
	behind := time.Duration(drift) * slotDuration
	if behind < time.Minute {
		return fmt.Sprintf("%d slot(s) behind (~%ds)", drift, int(behind.Seconds()))
	}
	return fmt.Sprintf("%d slot(s) behind (~%dm)", drift, int(behind.Minutes()))
}
