package solana

import "github.com/dmagro/solrpc/internal/stream"

// LegacyVersion marks a transaction without a version prefix.
const LegacyVersion = -1

// ReadTxVersion consumes a transaction version: "legacy" or a number.
func ReadTxVersion(it *stream.Iter) int {
	switch it.WhatIsNext() {
	case stream.String:
		if v := it.ReadString(); v != "legacy" {
			it.Failf("unknown transaction version %q", v)
		}
		return LegacyVersion
	case stream.Null:
		it.ReadNull()
		return LegacyVersion
	default:
		return int(it.ReadUint8())
	}
}

// BlockTransaction is a transaction inside a block.
type BlockTransaction struct {
	Transaction []byte
	Meta        *TxMeta
	Version     int
}

func visitBlockTransaction(field string, t *BlockTransaction, it *stream.Iter) bool {
	switch field {
	case "transaction":
		t.Transaction = readDataOrJSON(it)
	case "meta":
		t.Meta = ReadTxMeta(it)
	case "version":
		t.Version = ReadTxVersion(it)
	default:
		it.Skip()
	}
	return true
}

func ReadBlockTransaction(it *stream.Iter) BlockTransaction {
	t := BlockTransaction{Version: LegacyVersion}
	stream.VisitObject(it, &t, visitBlockTransaction)
	return t
}

// Block is the result of getBlock.
type Block struct {
	Blockhash         Hash
	PreviousBlockhash Hash
	ParentSlot        uint64
	BlockHeight       *uint64
	BlockTime         *int64
	Signatures        []Signature
	Transactions      []BlockTransaction
	Rewards           []Reward
}

// TransactionCount returns the number of transactions or signatures the
// block was requested with.
func (b Block) TransactionCount() int {
	if len(b.Transactions) > 0 {
		return len(b.Transactions)
	}
	return len(b.Signatures)
}

// Failed counts the transactions whose metadata carries an error.
func (b Block) Failed() int {
	n := 0
	for _, tx := range b.Transactions {
		if tx.Meta != nil && tx.Meta.Err != nil {
			n++
		}
	}
	return n
}

func visitBlock(field string, b *Block, it *stream.Iter) bool {
	switch field {
	case "blockhash":
		b.Blockhash = ReadHash(it)
	case "previousBlockhash":
		b.PreviousBlockhash = ReadHash(it)
	case "parentSlot":
		b.ParentSlot = it.ReadUint64()
	case "blockHeight":
		b.BlockHeight = readOptionalUint64(it)
	case "blockTime":
		b.BlockTime = readOptionalInt64(it)
	case "signatures":
		b.Signatures = stream.ReadList(it, ReadSignature)
	case "transactions":
		b.Transactions = stream.ReadList(it, ReadBlockTransaction)
	case "rewards":
		b.Rewards = stream.ReadList(it, ReadReward)
	default:
		it.Skip()
	}
	return true
}

// ReadBlock consumes a block. A null block, returned for skipped slots by
// some nodes, yields nil.
func ReadBlock(it *stream.Iter) *Block {
	var b Block
	if !stream.VisitObject(it, &b, visitBlock) {
		return nil
	}
	return &b
}

// Transaction is the result of getTransaction.
type Transaction struct {
	Slot        uint64
	BlockTime   *int64
	Version     int
	Meta        *TxMeta
	Transaction []byte
}

func visitTransaction(field string, t *Transaction, it *stream.Iter) bool {
	switch field {
	case "slot":
		t.Slot = it.ReadUint64()
	case "blockTime":
		t.BlockTime = readOptionalInt64(it)
	case "version":
		t.Version = ReadTxVersion(it)
	case "meta":
		t.Meta = ReadTxMeta(it)
	case "transaction":
		t.Transaction = readDataOrJSON(it)
	default:
		it.Skip()
	}
	return true
}

// ReadTransaction consumes a transaction. Unknown signatures yield nil.
func ReadTransaction(it *stream.Iter) *Transaction {
	t := Transaction{Version: LegacyVersion}
	if !stream.VisitObject(it, &t, visitTransaction) {
		return nil
	}
	return &t
}
