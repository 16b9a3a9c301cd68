package solana

import (
	"github.com/dmagro/solrpc/internal/stream"
	"github.com/dmagro/solrpc/internal/txerr"
)

// TxSimulation is the value of a simulateTransaction response, and the data
// of a failed preflight check.
type TxSimulation struct {
	Err                  txerr.Error
	Logs                 []string
	Accounts             []*AccountInfo[[]byte]
	UnitsConsumed        *uint64
	ReturnData           *ReturnData
	ReplacementBlockhash *LatestBlockhash
	InnerInstructions    []InnerInstructions
}

func visitTxSimulation(field string, s *TxSimulation, it *stream.Iter) bool {
	switch field {
	case "err":
		s.Err = txerr.ParseOptional(it)
	case "logs":
		s.Logs = stream.ReadStrings(it)
	case "accounts":
		if !it.ReadNull() {
			s.Accounts = ReadAccounts(it, nil, RawData)
		}
	case "unitsConsumed":
		s.UnitsConsumed = readOptionalUint64(it)
	case "returnData":
		s.ReturnData = readReturnData(it)
	case "replacementBlockhash":
		if !it.ReadNull() {
			b := ReadLatestBlockhash(it)
			s.ReplacementBlockhash = &b
		}
	case "innerInstructions":
		s.InnerInstructions = stream.ReadList(it, ReadInnerInstructions)
	default:
		it.Skip()
	}
	return true
}

func ReadTxSimulation(it *stream.Iter) TxSimulation {
	var s TxSimulation
	stream.VisitObject(it, &s, visitTxSimulation)
	return s
}
