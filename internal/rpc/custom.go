package rpc

import (
	"fmt"
	"math"

	"github.com/dmagro/solrpc/internal/solana"
	"github.com/dmagro/solrpc/internal/stream"
)

// CustomError is the Solana specific meaning of a JSON-RPC error code.
// Implementations are CustomKind, SendTransactionPreflightFailure,
// NodeUnhealthy, MinContextSlotNotReached and UnknownCustomError.
type CustomError interface {
	error
	ErrorCode() int64
	customError()
}

// CustomKind is a custom error without payload, identified by its code.
type CustomKind int32

const (
	BlockCleanedUp                           CustomKind = -32001
	TransactionSignatureVerificationFailure  CustomKind = -32003
	BlockNotAvailable                        CustomKind = -32004
	TransactionPrecompileVerificationFailure CustomKind = -32006
	SlotSkipped                              CustomKind = -32007
	NoSnapshot                               CustomKind = -32008
	LongTermStorageSlotSkipped               CustomKind = -32009
	KeyExcludedFromSecondaryIndex            CustomKind = -32010
	TransactionHistoryNotAvailable           CustomKind = -32011
	ScanError                                CustomKind = -32012
	TransactionSignatureLenMismatch          CustomKind = -32013
	BlockStatusNotAvailableYet               CustomKind = -32014
	UnsupportedTransactionVersion            CustomKind = -32015
	EpochRewardsPeriodActive                 CustomKind = -32017
	SlotNotEpochBoundary                     CustomKind = -32018
	LongTermStorageUnreachable               CustomKind = -32019
)

// Codes of the variants that carry a payload in "data".
const (
	CodeSendTransactionPreflightFailure int64 = -32002
	CodeNodeUnhealthy                   int64 = -32005
	CodeMinContextSlotNotReached        int64 = -32016
)

var customKindNames = map[CustomKind]string{
	BlockCleanedUp:                           "BlockCleanedUp",
	TransactionSignatureVerificationFailure:  "TransactionSignatureVerificationFailure",
	BlockNotAvailable:                        "BlockNotAvailable",
	TransactionPrecompileVerificationFailure: "TransactionPrecompileVerificationFailure",
	SlotSkipped:                              "SlotSkipped",
	NoSnapshot:                               "NoSnapshot",
	LongTermStorageSlotSkipped:               "LongTermStorageSlotSkipped",
	KeyExcludedFromSecondaryIndex:            "KeyExcludedFromSecondaryIndex",
	TransactionHistoryNotAvailable:           "TransactionHistoryNotAvailable",
	ScanError:                                "ScanError",
	TransactionSignatureLenMismatch:          "TransactionSignatureLenMismatch",
	BlockStatusNotAvailableYet:               "BlockStatusNotAvailableYet",
	UnsupportedTransactionVersion:            "UnsupportedTransactionVersion",
	EpochRewardsPeriodActive:                 "EpochRewardsPeriodActive",
	SlotNotEpochBoundary:                     "SlotNotEpochBoundary",
	LongTermStorageUnreachable:               "LongTermStorageUnreachable",
}

func (k CustomKind) Error() string {
	if name, ok := customKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("CustomKind(%d)", int32(k))
}

func (k CustomKind) ErrorCode() int64 { return int64(k) }
func (CustomKind) customError()       {}

// SendTransactionPreflightFailure carries the simulation of a transaction
// that failed its preflight checks.
type SendTransactionPreflightFailure struct {
	Simulation solana.TxSimulation
}

func (e SendTransactionPreflightFailure) Error() string {
	if e.Simulation.Err != nil {
		return "SendTransactionPreflightFailure: " + e.Simulation.Err.Error()
	}
	return "SendTransactionPreflightFailure"
}

// Unwrap exposes the transaction error of the simulation, if any.
func (e SendTransactionPreflightFailure) Unwrap() error {
	if e.Simulation.Err == nil {
		return nil
	}
	return e.Simulation.Err
}

func (SendTransactionPreflightFailure) ErrorCode() int64 { return CodeSendTransactionPreflightFailure }
func (SendTransactionPreflightFailure) customError()     {}

// NodeUnhealthy reports a node lagging behind the cluster.
type NodeUnhealthy struct {
	NumSlotsBehind *uint64
}

func (e NodeUnhealthy) Error() string {
	if e.NumSlotsBehind != nil {
		return fmt.Sprintf("NodeUnhealthy: %d slots behind", *e.NumSlotsBehind)
	}
	return "NodeUnhealthy"
}

func (NodeUnhealthy) ErrorCode() int64 { return CodeNodeUnhealthy }
func (NodeUnhealthy) customError()     {}

// MinContextSlotNotReached reports the slot the node had reached when the
// request asked for a later one.
type MinContextSlotNotReached struct {
	ContextSlot uint64
}

func (e MinContextSlotNotReached) Error() string {
	return fmt.Sprintf("MinContextSlotNotReached: context slot %d", e.ContextSlot)
}

func (MinContextSlotNotReached) ErrorCode() int64 { return CodeMinContextSlotNotReached }
func (MinContextSlotNotReached) customError()     {}

// UnknownCustomError is any code without a Solana specific meaning,
// including the generic JSON-RPC codes.
type UnknownCustomError struct {
	Code int64
}

func (e UnknownCustomError) Error() string {
	return fmt.Sprintf("unknown custom error %d", e.Code)
}

func (e UnknownCustomError) ErrorCode() int64 { return e.Code }
func (UnknownCustomError) customError()       {}

// ParseCustomError maps an error code and its optional "data" member to a
// custom error. data is nil when the member is absent, otherwise it must be
// positioned at the value, which is consumed. The mapping is total: codes
// outside the known set, including those outside the int32 range, yield
// UnknownCustomError.
func ParseCustomError(code int64, data *stream.Iter) CustomError {
	if code < math.MinInt32 || code > math.MaxInt32 {
		skipData(data)
		return UnknownCustomError{Code: code}
	}
	switch code {
	case CodeSendTransactionPreflightFailure:
		var sim solana.TxSimulation
		if data != nil {
			sim = solana.ReadTxSimulation(data)
		}
		return SendTransactionPreflightFailure{Simulation: sim}
	case CodeNodeUnhealthy:
		var e NodeUnhealthy
		if data != nil {
			data.ReadObject(func(field string, it *stream.Iter) bool {
				if field == "numSlotsBehind" && !it.ReadNull() {
					if n := it.ReadUint64(); it.Err() == nil {
						e.NumSlotsBehind = &n
					}
				} else {
					it.Skip()
				}
				return true
			})
		}
		return e
	case CodeMinContextSlotNotReached:
		var e MinContextSlotNotReached
		if data != nil {
			data.ReadObject(func(field string, it *stream.Iter) bool {
				if field == "contextSlot" {
					e.ContextSlot = it.ReadUint64()
				} else {
					it.Skip()
				}
				return true
			})
		}
		return e
	}
	skipData(data)
	if k := CustomKind(code); customKindNames[k] != "" {
		return k
	}
	return UnknownCustomError{Code: code}
}

func skipData(data *stream.Iter) {
	if data != nil {
		data.Skip()
	}
}
