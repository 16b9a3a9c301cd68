package solana

import (
	"strconv"

	"github.com/dmagro/solrpc/internal/stream"
	"github.com/dmagro/solrpc/internal/txerr"
)

// TokenAmount is a token quantity in base units plus its UI rendering.
type TokenAmount struct {
	Amount         uint64
	Decimals       uint8
	UIAmountString string
}

func visitTokenAmount(field string, t *TokenAmount, it *stream.Iter) bool {
	switch field {
	case "amount":
		s := it.ReadString()
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			it.Failf("token amount %q: %v", s, err)
			return false
		}
		t.Amount = v
	case "decimals":
		t.Decimals = it.ReadUint8()
	case "uiAmountString":
		t.UIAmountString = it.ReadString()
	default:
		it.Skip()
	}
	return true
}

func ReadTokenAmount(it *stream.Iter) TokenAmount {
	var t TokenAmount
	stream.VisitObject(it, &t, visitTokenAmount)
	return t
}

// TokenBalance is a token account balance recorded in transaction metadata.
type TokenBalance struct {
	AccountIndex  uint8
	Mint          PublicKey
	Owner         *PublicKey
	ProgramID     *PublicKey
	UITokenAmount TokenAmount
}

func visitTokenBalance(field string, b *TokenBalance, it *stream.Iter) bool {
	switch field {
	case "accountIndex":
		b.AccountIndex = it.ReadUint8()
	case "mint":
		b.Mint = ReadPublicKey(it)
	case "owner":
		b.Owner = ReadOptionalPublicKey(it)
	case "programId":
		b.ProgramID = ReadOptionalPublicKey(it)
	case "uiTokenAmount":
		b.UITokenAmount = ReadTokenAmount(it)
	default:
		it.Skip()
	}
	return true
}

func ReadTokenBalance(it *stream.Iter) TokenBalance {
	var b TokenBalance
	stream.VisitObject(it, &b, visitTokenBalance)
	return b
}

// Reward is a balance change credited by the runtime.
type Reward struct {
	Pubkey      PublicKey
	Lamports    int64
	PostBalance uint64
	RewardType  string
	Commission  *uint8
}

func visitReward(field string, r *Reward, it *stream.Iter) bool {
	switch field {
	case "pubkey":
		r.Pubkey = ReadPublicKey(it)
	case "lamports":
		r.Lamports = it.ReadInt64()
	case "postBalance":
		r.PostBalance = it.ReadUint64()
	case "rewardType":
		r.RewardType = it.ReadString()
	case "commission":
		r.Commission = readOptionalUint8(it)
	default:
		it.Skip()
	}
	return true
}

func ReadReward(it *stream.Iter) Reward {
	var r Reward
	stream.VisitObject(it, &r, visitReward)
	return r
}

// CompiledInstruction is an instruction as recorded in a transaction, with
// accounts given as indexes into the account keys.
type CompiledInstruction struct {
	ProgramIDIndex uint8
	Accounts       []uint8
	Data           []byte
	StackHeight    *uint32
}

func visitCompiledInstruction(field string, c *CompiledInstruction, it *stream.Iter) bool {
	switch field {
	case "programIdIndex":
		c.ProgramIDIndex = it.ReadUint8()
	case "accounts":
		c.Accounts = stream.ReadList(it, (*stream.Iter).ReadUint8)
	case "data":
		c.Data = ReadEncodedBytes(it)
	case "stackHeight":
		if !it.ReadNull() {
			v := it.ReadUint32()
			c.StackHeight = &v
		}
	default:
		it.Skip()
	}
	return true
}

func ReadCompiledInstruction(it *stream.Iter) CompiledInstruction {
	var c CompiledInstruction
	stream.VisitObject(it, &c, visitCompiledInstruction)
	return c
}

// InnerInstructions lists the cross-program invocations made by one
// top-level instruction.
type InnerInstructions struct {
	Index        uint8
	Instructions []CompiledInstruction
}

func visitInnerInstructions(field string, in *InnerInstructions, it *stream.Iter) bool {
	switch field {
	case "index":
		in.Index = it.ReadUint8()
	case "instructions":
		in.Instructions = stream.ReadList(it, ReadCompiledInstruction)
	default:
		it.Skip()
	}
	return true
}

func ReadInnerInstructions(it *stream.Iter) InnerInstructions {
	var in InnerInstructions
	stream.VisitObject(it, &in, visitInnerInstructions)
	return in
}

// LoadedAddresses are the accounts a versioned transaction loaded from
// address lookup tables.
type LoadedAddresses struct {
	Writable []PublicKey
	Readonly []PublicKey
}

func visitLoadedAddresses(field string, l *LoadedAddresses, it *stream.Iter) bool {
	switch field {
	case "writable":
		l.Writable = stream.ReadList(it, ReadPublicKey)
	case "readonly":
		l.Readonly = stream.ReadList(it, ReadPublicKey)
	default:
		it.Skip()
	}
	return true
}

// ReturnData is the data a program returned through set_return_data.
type ReturnData struct {
	ProgramID PublicKey
	Data      []byte
}

func visitReturnData(field string, r *ReturnData, it *stream.Iter) bool {
	switch field {
	case "programId":
		r.ProgramID = ReadPublicKey(it)
	case "data":
		r.Data = ReadEncodedBytes(it)
	default:
		it.Skip()
	}
	return true
}

func readReturnData(it *stream.Iter) *ReturnData {
	var r ReturnData
	if !stream.VisitObject(it, &r, visitReturnData) {
		return nil
	}
	return &r
}

// TxMeta is the execution metadata of a confirmed transaction.
type TxMeta struct {
	Err                  txerr.Error
	Fee                  uint64
	PreBalances          []uint64
	PostBalances         []uint64
	PreTokenBalances     []TokenBalance
	PostTokenBalances    []TokenBalance
	LogMessages          []string
	ComputeUnitsConsumed *uint64
	LoadedAddresses      LoadedAddresses
	InnerInstructions    []InnerInstructions
	Rewards              []Reward
	ReturnData           *ReturnData
}

// BalanceChange returns the lamport delta of the account at index.
func (m TxMeta) BalanceChange(index int) (int64, bool) {
	if index < 0 || index >= len(m.PreBalances) || index >= len(m.PostBalances) {
		return 0, false
	}
	return int64(m.PostBalances[index]) - int64(m.PreBalances[index]), true
}

func visitTxMeta(field string, m *TxMeta, it *stream.Iter) bool {
	switch field {
	case "err":
		m.Err = txerr.ParseOptional(it)
	case "fee":
		m.Fee = it.ReadUint64()
	case "preBalances":
		m.PreBalances = stream.ReadUint64s(it)
	case "postBalances":
		m.PostBalances = stream.ReadUint64s(it)
	case "preTokenBalances":
		m.PreTokenBalances = stream.ReadList(it, ReadTokenBalance)
	case "postTokenBalances":
		m.PostTokenBalances = stream.ReadList(it, ReadTokenBalance)
	case "logMessages":
		m.LogMessages = stream.ReadStrings(it)
	case "computeUnitsConsumed":
		m.ComputeUnitsConsumed = readOptionalUint64(it)
	case "loadedAddresses":
		stream.VisitObject(it, &m.LoadedAddresses, visitLoadedAddresses)
	case "innerInstructions":
		m.InnerInstructions = stream.ReadList(it, ReadInnerInstructions)
	case "rewards":
		m.Rewards = stream.ReadList(it, ReadReward)
	case "returnData":
		m.ReturnData = readReturnData(it)
	default:
		it.Skip()
	}
	return true
}

// ReadTxMeta consumes transaction metadata. A null value yields nil.
func ReadTxMeta(it *stream.Iter) *TxMeta {
	var m TxMeta
	if !stream.VisitObject(it, &m, visitTxMeta) {
		return nil
	}
	return &m
}
