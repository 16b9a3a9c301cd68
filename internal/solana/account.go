package solana

import (
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/blocto/solana-go-sdk/common"

	"github.com/dmagro/solrpc/internal/stream"
)

// PayloadFactory turns the raw data of the account at address into a typed
// payload. For jsonParsed responses data holds the JSON text of the parsed
// object instead of account bytes.
type PayloadFactory[T any] func(address PublicKey, data []byte) T

// RawData is the identity factory. The returned slice is owned by the caller.
func RawData(_ PublicKey, data []byte) []byte { return data }

// AccountInfo is the state of one account.
type AccountInfo[T any] struct {
	Address    PublicKey
	Lamports   uint64
	Owner      PublicKey
	Executable bool
	RentEpoch  uint64
	Space      uint64
	Data       T
}

type accountAssembler struct {
	lamports   uint64
	owner      PublicKey
	executable bool
	rentEpoch  uint64
	space      uint64
	data       []byte
}

func visitAccount(field string, a *accountAssembler, it *stream.Iter) bool {
	switch field {
	case "lamports":
		a.lamports = it.ReadUint64()
	case "owner":
		a.owner = ReadPublicKey(it)
	case "executable":
		a.executable = it.ReadBool()
	case "rentEpoch":
		a.rentEpoch = readRentEpoch(it)
	case "space":
		a.space = it.ReadUint64()
	case "data":
		a.data = readDataOrJSON(it)
	default:
		it.Skip()
	}
	return true
}

// readRentEpoch reads the rent epoch, which is u64::MAX for rent exempt
// accounts and is printed as a float by some nodes.
func readRentEpoch(it *stream.Iter) uint64 {
	n := it.ReadNumber()
	if it.Err() != nil {
		return 0
	}
	if strings.ContainsAny(n, ".eE") {
		return ^uint64(0)
	}
	v, err := strconv.ParseUint(n, 10, 64)
	if err != nil {
		it.Failf("invalid rent epoch %s", n)
		return 0
	}
	return v
}

func buildAccount[T any](a *accountAssembler, address PublicKey, factory PayloadFactory[T]) AccountInfo[T] {
	return AccountInfo[T]{
		Address:    address,
		Lamports:   a.lamports,
		Owner:      a.owner,
		Executable: a.executable,
		RentEpoch:  a.rentEpoch,
		Space:      a.space,
		Data:       factory(address, a.data),
	}
}

// ReadAccountInfo consumes an account object and hands its data to factory.
// A null account yields nil.
func ReadAccountInfo[T any](it *stream.Iter, address PublicKey, factory PayloadFactory[T]) *AccountInfo[T] {
	var a accountAssembler
	if !stream.VisitObject(it, &a, visitAccount) || it.Err() != nil {
		return nil
	}
	acc := buildAccount(&a, address, factory)
	return &acc
}

// ReadAccounts consumes the array returned by getMultipleAccounts. Accounts
// are matched to addresses by position; missing accounts are nil.
func ReadAccounts[T any](it *stream.Iter, addresses []PublicKey, factory PayloadFactory[T]) []*AccountInfo[T] {
	out := make([]*AccountInfo[T], 0, len(addresses))
	it.ReadArray(func(it *stream.Iter) bool {
		var address PublicKey
		if i := len(out); i < len(addresses) {
			address = addresses[i]
		}
		out = append(out, ReadAccountInfo(it, address, factory))
		return it.Err() == nil
	})
	return out
}

// ProgramAccount is one element of a getProgramAccounts result.
type ProgramAccount[T any] struct {
	Pubkey  PublicKey
	Account AccountInfo[T]
}

// ReadProgramAccount consumes {"pubkey", "account"}. The factory needs the
// address, so an "account" field seen before "pubkey" is decoded after the
// object has been walked.
func ReadProgramAccount[T any](it *stream.Iter, factory PayloadFactory[T]) ProgramAccount[T] {
	var (
		out        ProgramAccount[T]
		havePubkey bool
		account    []byte
	)
	it.ReadObject(func(field string, it *stream.Iter) bool {
		switch field {
		case "pubkey":
			out.Pubkey = ReadPublicKey(it)
			havePubkey = true
		case "account":
			if !havePubkey {
				account = it.SkipAndReturnBytes()
				return true
			}
			if acc := ReadAccountInfo(it, out.Pubkey, factory); acc != nil {
				out.Account = *acc
			}
		default:
			it.Skip()
		}
		return true
	})
	if account != nil {
		it.Replay(account, func(it *stream.Iter) {
			if acc := ReadAccountInfo(it, out.Pubkey, factory); acc != nil {
				out.Account = *acc
			}
		})
	}
	return out
}

// ReadProgramAccounts consumes a getProgramAccounts result.
func ReadProgramAccounts[T any](factory PayloadFactory[T]) func(it *stream.Iter) []ProgramAccount[T] {
	return func(it *stream.Iter) []ProgramAccount[T] {
		return stream.ReadList(it, func(it *stream.Iter) ProgramAccount[T] {
			return ReadProgramAccount(it, factory)
		})
	}
}

// TokenAccount is the fixed prefix of an SPL token account.
type TokenAccount struct {
	Address  PublicKey
	Mint     PublicKey
	Owner    PublicKey
	Amount   uint64
	Delegate *PublicKey
	State    TokenAccountState
}

type TokenAccountState uint8

const (
	TokenAccountUninitialized TokenAccountState = iota
	TokenAccountInitialized
	TokenAccountFrozen
)

func (s TokenAccountState) String() string {
	switch s {
	case TokenAccountUninitialized:
		return "uninitialized"
	case TokenAccountInitialized:
		return "initialized"
	case TokenAccountFrozen:
		return "frozen"
	}
	return "TokenAccountState(" + strconv.Itoa(int(s)) + ")"
}

// tokenAccountLen is the size of an SPL token account without extensions.
const tokenAccountLen = 165

// TokenAccountData is a PayloadFactory for accounts owned by the token
// program. Data too short to be a token account yields nil.
func TokenAccountData(address PublicKey, data []byte) *TokenAccount {
	if len(data) < tokenAccountLen {
		return nil
	}
	acc := &TokenAccount{
		Address: address,
		Mint:    common.PublicKeyFromBytes(data[0:32]),
		Owner:   common.PublicKeyFromBytes(data[32:64]),
		Amount:  binary.LittleEndian.Uint64(data[64:72]),
		State:   TokenAccountState(data[108]),
	}
	if binary.LittleEndian.Uint32(data[72:76]) == 1 {
		d := common.PublicKeyFromBytes(data[76:108])
		acc.Delegate = &d
	}
	return acc
}

// IsTokenProgram reports whether owner is the SPL token program.
func IsTokenProgram(owner PublicKey) bool {
	return owner == common.TokenProgramID
}
