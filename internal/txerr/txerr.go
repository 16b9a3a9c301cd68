// Package txerr models the transaction-level error taxonomy returned in
// transaction metadata, signature statuses and simulation results.
package txerr

import (
	"fmt"

	"github.com/dmagro/solrpc/internal/ixerr"
)

// Error is one variant of the transaction error taxonomy. Implementations
// are Kind, InstructionError, DuplicateInstruction, InsufficientFundsForRent,
// ProgramExecutionTemporarilyRestricted and Unknown.
type Error interface {
	error
	transactionError()
}

// Kind is a payload-free transaction error.
type Kind string

func (k Kind) Error() string   { return string(k) }
func (Kind) transactionError() {}

const (
	AccountInUse                       Kind = "AccountInUse"
	AccountLoadedTwice                 Kind = "AccountLoadedTwice"
	AccountNotFound                    Kind = "AccountNotFound"
	ProgramAccountNotFound             Kind = "ProgramAccountNotFound"
	InsufficientFundsForFee            Kind = "InsufficientFundsForFee"
	InvalidAccountForFee               Kind = "InvalidAccountForFee"
	AlreadyProcessed                   Kind = "AlreadyProcessed"
	BlockhashNotFound                  Kind = "BlockhashNotFound"
	CallChainTooDeep                   Kind = "CallChainTooDeep"
	MissingSignatureForFee             Kind = "MissingSignatureForFee"
	InvalidAccountIndex                Kind = "InvalidAccountIndex"
	SignatureFailure                   Kind = "SignatureFailure"
	InvalidProgramForExecution         Kind = "InvalidProgramForExecution"
	SanitizeFailure                    Kind = "SanitizeFailure"
	ClusterMaintenance                 Kind = "ClusterMaintenance"
	AccountBorrowOutstanding           Kind = "AccountBorrowOutstanding"
	WouldExceedMaxBlockCostLimit       Kind = "WouldExceedMaxBlockCostLimit"
	UnsupportedVersion                 Kind = "UnsupportedVersion"
	InvalidWritableAccount             Kind = "InvalidWritableAccount"
	WouldExceedMaxAccountCostLimit     Kind = "WouldExceedMaxAccountCostLimit"
	WouldExceedAccountDataBlockLimit   Kind = "WouldExceedAccountDataBlockLimit"
	TooManyAccountLocks                Kind = "TooManyAccountLocks"
	AddressLookupTableNotFound         Kind = "AddressLookupTableNotFound"
	InvalidAddressLookupTableOwner     Kind = "InvalidAddressLookupTableOwner"
	InvalidAddressLookupTableData      Kind = "InvalidAddressLookupTableData"
	InvalidAddressLookupTableIndex     Kind = "InvalidAddressLookupTableIndex"
	InvalidRentPayingAccount           Kind = "InvalidRentPayingAccount"
	WouldExceedMaxVoteCostLimit        Kind = "WouldExceedMaxVoteCostLimit"
	WouldExceedAccountDataTotalLimit   Kind = "WouldExceedAccountDataTotalLimit"
	MaxLoadedAccountsDataSizeExceeded  Kind = "MaxLoadedAccountsDataSizeExceeded"
	InvalidLoadedAccountsDataSizeLimit Kind = "InvalidLoadedAccountsDataSizeLimit"
	ResanitizationNeeded               Kind = "ResanitizationNeeded"
	UnbalancedTransaction              Kind = "UnbalancedTransaction"
	ProgramCacheHitMaxLimit            Kind = "ProgramCacheHitMaxLimit"
	CommitCancelled                    Kind = "CommitCancelled"
)

// Kinds lists every payload-free variant.
var Kinds = []Kind{
	AccountInUse, AccountLoadedTwice, AccountNotFound, ProgramAccountNotFound,
	InsufficientFundsForFee, InvalidAccountForFee, AlreadyProcessed, BlockhashNotFound,
	CallChainTooDeep, MissingSignatureForFee, InvalidAccountIndex, SignatureFailure,
	InvalidProgramForExecution, SanitizeFailure, ClusterMaintenance, AccountBorrowOutstanding,
	WouldExceedMaxBlockCostLimit, UnsupportedVersion, InvalidWritableAccount,
	WouldExceedMaxAccountCostLimit, WouldExceedAccountDataBlockLimit, TooManyAccountLocks,
	AddressLookupTableNotFound, InvalidAddressLookupTableOwner, InvalidAddressLookupTableData,
	InvalidAddressLookupTableIndex, InvalidRentPayingAccount, WouldExceedMaxVoteCostLimit,
	WouldExceedAccountDataTotalLimit, MaxLoadedAccountsDataSizeExceeded,
	InvalidLoadedAccountsDataSizeLimit, ResanitizationNeeded, UnbalancedTransaction,
	ProgramCacheHitMaxLimit, CommitCancelled,
}

var kindsByName = make(map[string]Kind, len(Kinds))

func init() {
	for _, k := range Kinds {
		kindsByName[string(k)] = k
	}
}

// Lookup returns the payload-free variant spelled exactly like name.
func Lookup(name []byte) (Kind, bool) {
	k, ok := kindsByName[string(name)]
	return k, ok
}

// InstructionError reports which instruction of the transaction failed.
type InstructionError struct {
	Index uint8
	Err   ixerr.Error
}

func (e InstructionError) Error() string {
	return fmt.Sprintf("instruction %d: %v", e.Index, e.Err)
}

func (e InstructionError) Unwrap() error { return e.Err }

func (InstructionError) transactionError() {}

// DuplicateInstruction names an instruction that appears twice.
type DuplicateInstruction struct {
	Index uint8
}

func (e DuplicateInstruction) Error() string {
	return fmt.Sprintf("duplicate instruction %d", e.Index)
}

func (DuplicateInstruction) transactionError() {}

// InsufficientFundsForRent names the account left below the rent exempt
// minimum.
type InsufficientFundsForRent struct {
	AccountIndex uint8
}

func (e InsufficientFundsForRent) Error() string {
	return fmt.Sprintf("insufficient funds for rent: account %d", e.AccountIndex)
}

func (InsufficientFundsForRent) transactionError() {}

// ProgramExecutionTemporarilyRestricted rejects a transaction that invokes a
// program the cluster has restricted for now; AccountIndex names the account.
type ProgramExecutionTemporarilyRestricted struct {
	AccountIndex uint8
}

func (e ProgramExecutionTemporarilyRestricted) Error() string {
	return fmt.Sprintf("program execution temporarily restricted: account %d", e.AccountIndex)
}

func (ProgramExecutionTemporarilyRestricted) transactionError() {}

// Unknown is a variant this client has no entry for.
type Unknown struct {
	Name string
}

func (e Unknown) Error() string   { return "unknown transaction error: " + e.Name }
func (Unknown) transactionError() {}
