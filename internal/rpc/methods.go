package rpc

import (
	"context"
	"encoding/base64"

	"github.com/dmagro/solrpc/internal/solana"
	"github.com/dmagro/solrpc/internal/stream"
)

// config returns the configuration object sent as the last parameter of
// most methods, with the client's commitment filled in when set.
func (c *Client) config(kv ...any) map[string]any {
	cfg := make(map[string]any, len(kv)/2+1)
	if c.commitment != "" {
		cfg["commitment"] = string(c.commitment)
	}
	for i := 0; i+1 < len(kv); i += 2 {
		cfg[kv[i].(string)] = kv[i+1]
	}
	return cfg
}

func readUint64(it *stream.Iter) uint64 { return it.ReadUint64() }
func readBool(it *stream.Iter) bool     { return it.ReadBool() }
func readString(it *stream.Iter) string { return it.ReadString() }

// Contextual decodes an {"context", "value"} result whose value read
// decodes.
func Contextual[T any](read func(it *stream.Iter) T) DecodeFunc[solana.ContextValue[T]] {
	return Result(func(it *stream.Iter) solana.ContextValue[T] {
		return solana.ReadContextValue(it, solana.Plain(read))
	})
}

// GetSlot calls getSlot.
func (c *Client) GetSlot(ctx context.Context) (uint64, error) {
	return Call(ctx, c, "getSlot", Result(readUint64), c.config())
}

// GetBlockHeight calls getBlockHeight.
func (c *Client) GetBlockHeight(ctx context.Context) (uint64, error) {
	return Call(ctx, c, "getBlockHeight", Result(readUint64), c.config())
}

// GetBalance returns the lamport balance of address.
func (c *Client) GetBalance(ctx context.Context, address solana.PublicKey) (solana.ContextValue[uint64], error) {
	return Call(ctx, c, "getBalance", Contextual(readUint64), address.ToBase58(), c.config())
}

// GetAccountInfo fetches one account and builds its payload with factory.
// The value is nil when the account does not exist.
func GetAccountInfo[T any](ctx context.Context, c *Client, address solana.PublicKey, factory solana.PayloadFactory[T]) (solana.ContextValue[*solana.AccountInfo[T]], error) {
	read := func(it *stream.Iter, _ solana.Context) *solana.AccountInfo[T] {
		return solana.ReadAccountInfo(it, address, factory)
	}
	decode := Result(func(it *stream.Iter) solana.ContextValue[*solana.AccountInfo[T]] {
		return solana.ReadContextValue(it, read)
	})
	return Call(ctx, c, "getAccountInfo", decode, address.ToBase58(), c.config("encoding", solana.EncodingBase64))
}

// GetMultipleAccounts fetches several accounts in one request. The result
// has one entry per address, nil for missing accounts.
func GetMultipleAccounts[T any](ctx context.Context, c *Client, addresses []solana.PublicKey, factory solana.PayloadFactory[T]) (solana.ContextValue[[]*solana.AccountInfo[T]], error) {
	keys := make([]string, len(addresses))
	for i, a := range addresses {
		keys[i] = a.ToBase58()
	}
	read := func(it *stream.Iter, _ solana.Context) []*solana.AccountInfo[T] {
		return solana.ReadAccounts(it, addresses, factory)
	}
	decode := Result(func(it *stream.Iter) solana.ContextValue[[]*solana.AccountInfo[T]] {
		return solana.ReadContextValue(it, read)
	})
	return Call(ctx, c, "getMultipleAccounts", decode, keys, c.config("encoding", solana.EncodingBase64))
}

// GetProgramAccounts lists the accounts owned by program.
func GetProgramAccounts[T any](ctx context.Context, c *Client, program solana.PublicKey, factory solana.PayloadFactory[T]) ([]solana.ProgramAccount[T], error) {
	return Call(ctx, c, "getProgramAccounts", Result(solana.ReadProgramAccounts(factory)),
		program.ToBase58(), c.config("encoding", solana.EncodingBase64))
}

// GetTokenAccounts decodes the SPL token accounts at addresses. Entries are
// nil for missing accounts and for accounts not owned by the token program.
func (c *Client) GetTokenAccounts(ctx context.Context, addresses []solana.PublicKey) ([]*solana.TokenAccount, error) {
	res, err := GetMultipleAccounts(ctx, c, addresses, solana.TokenAccountData)
	if err != nil {
		return nil, err
	}
	out := make([]*solana.TokenAccount, len(res.Value))
	for i, acc := range res.Value {
		if acc != nil && solana.IsTokenProgram(acc.Owner) {
			out[i] = acc.Data
		}
	}
	return out, nil
}

func (c *Client) GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (solana.ContextValue[solana.TokenAmount], error) {
	return Call(ctx, c, "getTokenAccountBalance", Contextual(solana.ReadTokenAmount), account.ToBase58(), c.config())
}

func (c *Client) GetEpochInfo(ctx context.Context) (solana.EpochInfo, error) {
	return Call(ctx, c, "getEpochInfo", Result(solana.ReadEpochInfo), c.config())
}

func (c *Client) GetEpochSchedule(ctx context.Context) (solana.EpochSchedule, error) {
	return Call(ctx, c, "getEpochSchedule", Result(solana.ReadEpochSchedule))
}

func (c *Client) GetVoteAccounts(ctx context.Context) (solana.VoteAccounts, error) {
	return Call(ctx, c, "getVoteAccounts", Result(solana.ReadVoteAccounts), c.config())
}

func (c *Client) GetLatestBlockhash(ctx context.Context) (solana.ContextValue[solana.LatestBlockhash], error) {
	return Call(ctx, c, "getLatestBlockhash", Contextual(solana.ReadLatestBlockhash), c.config())
}

func (c *Client) IsBlockhashValid(ctx context.Context, hash solana.Hash) (solana.ContextValue[bool], error) {
	return Call(ctx, c, "isBlockhashValid", Contextual(readBool), hash.String(), c.config())
}

func (c *Client) GetVersion(ctx context.Context) (solana.Version, error) {
	return Call(ctx, c, "getVersion", Result(solana.ReadVersion))
}

// GetHealth returns nil when the node reports "ok". An unhealthy node
// answers with a NodeUnhealthy error.
func (c *Client) GetHealth(ctx context.Context) error {
	_, err := Call(ctx, c, "getHealth", Result(readString))
	return err
}

func (c *Client) GetIdentity(ctx context.Context) (solana.PublicKey, error) {
	return Call(ctx, c, "getIdentity", Result(solana.ReadIdentity))
}

func (c *Client) GetRecentPerformanceSamples(ctx context.Context, limit int) ([]solana.PerfSample, error) {
	return Call(ctx, c, "getRecentPerformanceSamples", Result(func(it *stream.Iter) []solana.PerfSample {
		return stream.ReadList(it, solana.ReadPerfSample)
	}), limit)
}

func (c *Client) GetClusterNodes(ctx context.Context) ([]solana.ClusterNode, error) {
	return Call(ctx, c, "getClusterNodes", Result(func(it *stream.Iter) []solana.ClusterNode {
		return stream.ReadList(it, solana.ReadClusterNode)
	}))
}

func (c *Client) GetSupply(ctx context.Context) (solana.ContextValue[solana.Supply], error) {
	return Call(ctx, c, "getSupply", Contextual(solana.ReadSupply), c.config("excludeNonCirculatingAccountsList", true))
}

// GetInflationReward returns one entry per address, nil where the address
// earned no reward in the epoch.
func (c *Client) GetInflationReward(ctx context.Context, addresses []solana.PublicKey, epoch *uint64) ([]*solana.InflationReward, error) {
	keys := make([]string, len(addresses))
	for i, a := range addresses {
		keys[i] = a.ToBase58()
	}
	cfg := c.config()
	if epoch != nil {
		cfg["epoch"] = *epoch
	}
	return Call(ctx, c, "getInflationReward", Result(func(it *stream.Iter) []*solana.InflationReward {
		return stream.ReadList(it, solana.ReadInflationReward)
	}), keys, cfg)
}

func (c *Client) GetBlockProduction(ctx context.Context) (solana.ContextValue[solana.BlockProduction], error) {
	return Call(ctx, c, "getBlockProduction", Contextual(solana.ReadBlockProduction), c.config())
}

func (c *Client) GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error) {
	return Call(ctx, c, "getMinimumBalanceForRentExemption", Result(readUint64), size, c.config())
}

// GetSignaturesForAddress lists confirmed signatures involving address,
// newest first.
func (c *Client) GetSignaturesForAddress(ctx context.Context, address solana.PublicKey, limit int) ([]solana.SignatureInfo, error) {
	return Call(ctx, c, "getSignaturesForAddress", Result(func(it *stream.Iter) []solana.SignatureInfo {
		return stream.ReadList(it, solana.ReadSignatureInfo)
	}), address.ToBase58(), c.config("limit", limit))
}

// GetSignatureStatuses returns one status per signature, nil for unknown
// signatures. Status fields this package does not decode are logged at
// debug level.
func (c *Client) GetSignatureStatuses(ctx context.Context, sigs []solana.Signature, searchHistory bool) (solana.ContextValue[[]*solana.TxStatus], error) {
	keys := make([]string, len(sigs))
	for i, s := range sigs {
		keys[i] = s.String()
	}
	readStatus := solana.TxStatusReader(c.log)
	return Call(ctx, c, "getSignatureStatuses", Contextual(func(it *stream.Iter) []*solana.TxStatus {
		return stream.ReadList(it, readStatus)
	}), keys, map[string]any{"searchTransactionHistory": searchHistory})
}

// GetTransaction returns nil when the transaction is not found.
func (c *Client) GetTransaction(ctx context.Context, sig solana.Signature) (*solana.Transaction, error) {
	return Call(ctx, c, "getTransaction", Result(solana.ReadTransaction), sig.String(),
		c.config("encoding", solana.EncodingBase64, "maxSupportedTransactionVersion", 0))
}

// GetBlock returns nil when the slot holds no block.
func (c *Client) GetBlock(ctx context.Context, slot uint64) (*solana.Block, error) {
	return Call(ctx, c, "getBlock", Result(solana.ReadBlock), slot,
		c.config("encoding", solana.EncodingBase64, "maxSupportedTransactionVersion", 0, "rewards", true))
}

// SimulateTransaction simulates a serialized transaction without signature
// verification.
func (c *Client) SimulateTransaction(ctx context.Context, tx []byte) (solana.ContextValue[solana.TxSimulation], error) {
	return Call(ctx, c, "simulateTransaction", Contextual(solana.ReadTxSimulation),
		base64.StdEncoding.EncodeToString(tx),
		c.config("encoding", solana.EncodingBase64, "sigVerify", false, "replaceRecentBlockhash", true))
}

// SendTransaction submits a signed, serialized transaction. A failed
// preflight yields an *Error wrapping SendTransactionPreflightFailure.
func (c *Client) SendTransaction(ctx context.Context, tx []byte) (solana.Signature, error) {
	cfg := map[string]any{"encoding": solana.EncodingBase64}
	if c.commitment != "" {
		cfg["preflightCommitment"] = string(c.commitment)
	}
	return Call(ctx, c, "sendTransaction", Result(solana.ReadSignature), base64.StdEncoding.EncodeToString(tx), cfg)
}

func (c *Client) RequestAirdrop(ctx context.Context, to solana.PublicKey, lamports uint64) (solana.Signature, error) {
	return Call(ctx, c, "requestAirdrop", Result(solana.ReadSignature), to.ToBase58(), lamports, c.config())
}
