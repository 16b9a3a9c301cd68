package solana

import "github.com/dmagro/solrpc/internal/stream"

// EpochInfo is the result of getEpochInfo.
type EpochInfo struct {
	AbsoluteSlot     uint64
	BlockHeight      uint64
	Epoch            uint64
	SlotIndex        uint64
	SlotsInEpoch     uint64
	TransactionCount *uint64
}

// SlotsRemaining returns how many slots are left in the epoch.
func (e EpochInfo) SlotsRemaining() uint64 {
	if e.SlotIndex >= e.SlotsInEpoch {
		return 0
	}
	return e.SlotsInEpoch - e.SlotIndex
}

// Progress returns the completed fraction of the epoch in [0, 1].
func (e EpochInfo) Progress() float64 {
	if e.SlotsInEpoch == 0 {
		return 0
	}
	return float64(e.SlotIndex) / float64(e.SlotsInEpoch)
}

func visitEpochInfo(field string, e *EpochInfo, it *stream.Iter) bool {
	switch field {
	case "absoluteSlot":
		e.AbsoluteSlot = it.ReadUint64()
	case "blockHeight":
		e.BlockHeight = it.ReadUint64()
	case "epoch":
		e.Epoch = it.ReadUint64()
	case "slotIndex":
		e.SlotIndex = it.ReadUint64()
	case "slotsInEpoch":
		e.SlotsInEpoch = it.ReadUint64()
	case "transactionCount":
		e.TransactionCount = readOptionalUint64(it)
	default:
		it.Skip()
	}
	return true
}

func ReadEpochInfo(it *stream.Iter) EpochInfo {
	var e EpochInfo
	stream.VisitObject(it, &e, visitEpochInfo)
	return e
}

// EpochSchedule is the result of getEpochSchedule.
type EpochSchedule struct {
	SlotsPerEpoch            uint64
	LeaderScheduleSlotOffset uint64
	Warmup                   bool
	FirstNormalEpoch         uint64
	FirstNormalSlot          uint64
}

func visitEpochSchedule(field string, e *EpochSchedule, it *stream.Iter) bool {
	switch field {
	case "slotsPerEpoch":
		e.SlotsPerEpoch = it.ReadUint64()
	case "leaderScheduleSlotOffset":
		e.LeaderScheduleSlotOffset = it.ReadUint64()
	case "warmup":
		e.Warmup = it.ReadBool()
	case "firstNormalEpoch":
		e.FirstNormalEpoch = it.ReadUint64()
	case "firstNormalSlot":
		e.FirstNormalSlot = it.ReadUint64()
	default:
		it.Skip()
	}
	return true
}

func ReadEpochSchedule(it *stream.Iter) EpochSchedule {
	var e EpochSchedule
	stream.VisitObject(it, &e, visitEpochSchedule)
	return e
}

// EpochOf returns the epoch containing slot.
func (s EpochSchedule) EpochOf(slot uint64) uint64 {
	if s.SlotsPerEpoch == 0 {
		return 0
	}
	if slot < s.FirstNormalSlot {
		// Warmup epochs double in length starting from 32 slots.
		epoch, length, start := uint64(0), uint64(32), uint64(0)
		for start+length <= slot {
			start += length
			length *= 2
			epoch++
		}
		return epoch
	}
	return s.FirstNormalEpoch + (slot-s.FirstNormalSlot)/s.SlotsPerEpoch
}

func readOptionalUint64(it *stream.Iter) *uint64 {
	if it.ReadNull() {
		return nil
	}
	v := it.ReadUint64()
	return &v
}

func readOptionalInt64(it *stream.Iter) *int64 {
	if it.ReadNull() {
		return nil
	}
	v := it.ReadInt64()
	return &v
}

func readOptionalUint8(it *stream.Iter) *uint8 {
	if it.ReadNull() {
		return nil
	}
	v := it.ReadUint8()
	return &v
}

func readOptionalString(it *stream.Iter) *string {
	if it.ReadNull() {
		return nil
	}
	v := it.ReadString()
	return &v
}
