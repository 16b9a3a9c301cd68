package solana

import (
	"github.com/blocto/solana-go-sdk/rpc"
	"github.com/rs/zerolog"

	"github.com/dmagro/solrpc/internal/stream"
	"github.com/dmagro/solrpc/internal/txerr"
)

// Commitment is the confirmation level of a slot or transaction.
type Commitment = rpc.Commitment

const (
	CommitmentProcessed = rpc.CommitmentProcessed
	CommitmentConfirmed = rpc.CommitmentConfirmed
	CommitmentFinalized = rpc.CommitmentFinalized
)

// ParseCommitment validates a commitment name.
func ParseCommitment(s string) (Commitment, bool) {
	switch c := Commitment(s); c {
	case CommitmentProcessed, CommitmentConfirmed, CommitmentFinalized:
		return c, true
	}
	return "", false
}

// TxStatus is one entry of getSignatureStatuses. Unknown signatures decode
// to nil.
type TxStatus struct {
	Slot               uint64
	Confirmations      *uint64
	Err                txerr.Error
	ConfirmationStatus Commitment
}

// Finalized reports whether the transaction is rooted.
func (s TxStatus) Finalized() bool {
	return s.Confirmations == nil || s.ConfirmationStatus == CommitmentFinalized
}

func visitTxStatus(field string, s *TxStatus, it *stream.Iter) bool {
	switch field {
	case "slot":
		s.Slot = it.ReadUint64()
	case "confirmations":
		s.Confirmations = readOptionalUint64(it)
	case "err":
		s.Err = txerr.ParseOptional(it)
	case "confirmationStatus":
		s.ConfirmationStatus = Commitment(it.ReadString())
	default:
		return false
	}
	return true
}

// ReadTxStatus consumes a status object, skipping fields it does not know.
func ReadTxStatus(it *stream.Iter) *TxStatus {
	return TxStatusReader(zerolog.Nop())(it)
}

// TxStatusReader returns a status decoder that reports unhandled fields on
// log at debug level before skipping them. The deprecated "status" field is
// skipped silently since "err" carries the same information.
func TxStatusReader(log zerolog.Logger) func(it *stream.Iter) *TxStatus {
	return func(it *stream.Iter) *TxStatus {
		var s TxStatus
		ok := it.ReadObject(func(field string, it *stream.Iter) bool {
			if visitTxStatus(field, &s, it) {
				return true
			}
			if field != "status" {
				log.Debug().Str("field", field).Msg("unhandled signature status field")
			}
			it.Skip()
			return true
		})
		if !ok {
			return nil
		}
		return &s
	}
}

// SignatureInfo is one entry of getSignaturesForAddress.
type SignatureInfo struct {
	Signature          Signature
	Slot               uint64
	Err                txerr.Error
	Memo               *string
	BlockTime          *int64
	ConfirmationStatus Commitment
}

func visitSignatureInfo(field string, s *SignatureInfo, it *stream.Iter) bool {
	switch field {
	case "signature":
		s.Signature = ReadSignature(it)
	case "slot":
		s.Slot = it.ReadUint64()
	case "err":
		s.Err = txerr.ParseOptional(it)
	case "memo":
		s.Memo = readOptionalString(it)
	case "blockTime":
		s.BlockTime = readOptionalInt64(it)
	case "confirmationStatus":
		s.ConfirmationStatus = Commitment(it.ReadString())
	default:
		it.Skip()
	}
	return true
}

func ReadSignatureInfo(it *stream.Iter) SignatureInfo {
	var s SignatureInfo
	stream.VisitObject(it, &s, visitSignatureInfo)
	return s
}
