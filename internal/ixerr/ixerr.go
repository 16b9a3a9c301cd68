// Package ixerr models the instruction-level error taxonomy reported by the
// Solana runtime and decodes it from its JSON wire forms.
//
// Payload-free variants are Kind values whose text is the exact wire literal.
// Variants with a payload are Custom and BorshIoError. Anything the client does
// not know about decodes to Unknown, which keeps the raw name so that errors
// added by newer servers survive the trip.
package ixerr

import "fmt"

// Error is one variant of the instruction error taxonomy. The set of
// implementations is closed: Kind, Custom, BorshIoError and Unknown.
type Error interface {
	error
	instructionError()
}

// Kind is a payload-free instruction error.
type Kind string

func (k Kind) Error() string   { return string(k) }
func (Kind) instructionError() {}

const (
	GenericError                           Kind = "GenericError"
	InvalidArgument                        Kind = "InvalidArgument"
	InvalidInstructionData                 Kind = "InvalidInstructionData"
	InvalidAccountData                     Kind = "InvalidAccountData"
	AccountDataTooSmall                    Kind = "AccountDataTooSmall"
	InsufficientFunds                      Kind = "InsufficientFunds"
	IncorrectProgramID                     Kind = "IncorrectProgramId"
	MissingRequiredSignature               Kind = "MissingRequiredSignature"
	AccountAlreadyInitialized              Kind = "AccountAlreadyInitialized"
	UninitializedAccount                   Kind = "UninitializedAccount"
	UnbalancedInstruction                  Kind = "UnbalancedInstruction"
	ModifiedProgramID                      Kind = "ModifiedProgramId"
	ExternalAccountLamportSpend            Kind = "ExternalAccountLamportSpend"
	ExternalAccountDataModified            Kind = "ExternalAccountDataModified"
	ReadonlyLamportChange                  Kind = "ReadonlyLamportChange"
	ReadonlyDataModified                   Kind = "ReadonlyDataModified"
	DuplicateAccountIndex                  Kind = "DuplicateAccountIndex"
	ExecutableModified                     Kind = "ExecutableModified"
	RentEpochModified                      Kind = "RentEpochModified"
	NotEnoughAccountKeys                   Kind = "NotEnoughAccountKeys"
	AccountDataSizeChanged                 Kind = "AccountDataSizeChanged"
	AccountNotExecutable                   Kind = "AccountNotExecutable"
	AccountBorrowFailed                    Kind = "AccountBorrowFailed"
	AccountBorrowOutstanding               Kind = "AccountBorrowOutstanding"
	DuplicateAccountOutOfSync              Kind = "DuplicateAccountOutOfSync"
	InvalidError                           Kind = "InvalidError"
	ExecutableDataModified                 Kind = "ExecutableDataModified"
	ExecutableLamportChange                Kind = "ExecutableLamportChange"
	ExecutableAccountNotRentExempt         Kind = "ExecutableAccountNotRentExempt"
	UnsupportedProgramID                   Kind = "UnsupportedProgramId"
	CallDepth                              Kind = "CallDepth"
	MissingAccount                         Kind = "MissingAccount"
	ReentrancyNotAllowed                   Kind = "ReentrancyNotAllowed"
	MaxSeedLengthExceeded                  Kind = "MaxSeedLengthExceeded"
	InvalidSeeds                           Kind = "InvalidSeeds"
	InvalidRealloc                         Kind = "InvalidRealloc"
	ComputationalBudgetExceeded            Kind = "ComputationalBudgetExceeded"
	PrivilegeEscalation                    Kind = "PrivilegeEscalation"
	ProgramEnvironmentSetupFailure         Kind = "ProgramEnvironmentSetupFailure"
	ProgramFailedToComplete                Kind = "ProgramFailedToComplete"
	ProgramFailedToCompile                 Kind = "ProgramFailedToCompile"
	Immutable                              Kind = "Immutable"
	IncorrectAuthority                     Kind = "IncorrectAuthority"
	AccountNotRentExempt                   Kind = "AccountNotRentExempt"
	InvalidAccountOwner                    Kind = "InvalidAccountOwner"
	ArithmeticOverflow                     Kind = "ArithmeticOverflow"
	UnsupportedSysvar                      Kind = "UnsupportedSysvar"
	IllegalOwner                           Kind = "IllegalOwner"
	MaxAccountsDataAllocationsExceeded     Kind = "MaxAccountsDataAllocationsExceeded"
	MaxAccountsExceeded                    Kind = "MaxAccountsExceeded"
	MaxInstructionTraceLengthExceeded      Kind = "MaxInstructionTraceLengthExceeded"
	BuiltinProgramsMustConsumeComputeUnits Kind = "BuiltinProgramsMustConsumeComputeUnits"
)

// Kinds lists every payload-free variant in declaration order.
var Kinds = []Kind{
	GenericError, InvalidArgument, InvalidInstructionData, InvalidAccountData,
	AccountDataTooSmall, InsufficientFunds, IncorrectProgramID, MissingRequiredSignature,
	AccountAlreadyInitialized, UninitializedAccount, UnbalancedInstruction, ModifiedProgramID,
	ExternalAccountLamportSpend, ExternalAccountDataModified, ReadonlyLamportChange,
	ReadonlyDataModified, DuplicateAccountIndex, ExecutableModified, RentEpochModified,
	NotEnoughAccountKeys, AccountDataSizeChanged, AccountNotExecutable, AccountBorrowFailed,
	AccountBorrowOutstanding, DuplicateAccountOutOfSync, InvalidError, ExecutableDataModified,
	ExecutableLamportChange, ExecutableAccountNotRentExempt, UnsupportedProgramID, CallDepth,
	MissingAccount, ReentrancyNotAllowed, MaxSeedLengthExceeded, InvalidSeeds, InvalidRealloc,
	ComputationalBudgetExceeded, PrivilegeEscalation, ProgramEnvironmentSetupFailure,
	ProgramFailedToComplete, ProgramFailedToCompile, Immutable, IncorrectAuthority,
	AccountNotRentExempt, InvalidAccountOwner, ArithmeticOverflow, UnsupportedSysvar,
	IllegalOwner, MaxAccountsDataAllocationsExceeded, MaxAccountsExceeded,
	MaxInstructionTraceLengthExceeded, BuiltinProgramsMustConsumeComputeUnits,
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

// Custom is a program-specific error code.
type Custom struct {
	Code uint32
}

func (e Custom) Error() string   { return fmt.Sprintf("custom program error: %#x", e.Code) }
func (Custom) instructionError() {}

// BorshIoError reports a serialization failure inside a program.
type BorshIoError struct {
	Message string
}

func (e BorshIoError) Error() string   { return "BorshIoError: " + e.Message }
func (BorshIoError) instructionError() {}

// Unknown is a variant this client has no entry for.
type Unknown struct {
	Name string
}

func (e Unknown) Error() string   { return "unknown instruction error: " + e.Name }
func (Unknown) instructionError() {}
