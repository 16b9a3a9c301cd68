package main

import (
	"time"

	"github.com/dmagro/solrpc/internal/report"
	"github.com/dmagro/solrpc/internal/solana"
	"github.com/dmagro/solrpc/internal/txerr"
)

// JSON report forms of the decoded records. Keys are base58 strings and
// transaction errors their display text.

type contextView struct {
	Slot       uint64 `json:"slot"`
	APIVersion string `json:"api_version,omitempty"`
}

func newContextView(c solana.Context) contextView {
	return contextView{Slot: c.Slot, APIVersion: c.APIVersion}
}

func errText(err txerr.Error) *string {
	if err == nil {
		return nil
	}
	s := err.Error()
	return &s
}

func unixTime(t *int64) *time.Time {
	if t == nil {
		return nil
	}
	ts := time.Unix(*t, 0).UTC()
	return &ts
}

type epochView struct {
	Epoch            uint64  `json:"epoch"`
	AbsoluteSlot     uint64  `json:"absolute_slot"`
	BlockHeight      uint64  `json:"block_height"`
	SlotIndex        uint64  `json:"slot_index"`
	SlotsInEpoch     uint64  `json:"slots_in_epoch"`
	SlotsRemaining   uint64  `json:"slots_remaining"`
	Progress         float64 `json:"progress"`
	TransactionCount *uint64 `json:"transaction_count,omitempty"`
	SlotsPerEpoch    *uint64 `json:"slots_per_epoch,omitempty"`
}

type epochResult struct {
	info  solana.EpochInfo
	sched *solana.EpochSchedule
}

func newEpochView(r epochResult) any {
	v := epochView{
		Epoch:            r.info.Epoch,
		AbsoluteSlot:     r.info.AbsoluteSlot,
		BlockHeight:      r.info.BlockHeight,
		SlotIndex:        r.info.SlotIndex,
		SlotsInEpoch:     r.info.SlotsInEpoch,
		SlotsRemaining:   r.info.SlotsRemaining(),
		Progress:         r.info.Progress(),
		TransactionCount: r.info.TransactionCount,
	}
	if r.sched != nil {
		v.SlotsPerEpoch = &r.sched.SlotsPerEpoch
	}
	return v
}

type balanceView struct {
	Context  contextView `json:"context"`
	Lamports uint64      `json:"lamports"`
}

func newBalanceView(v solana.ContextValue[uint64]) any {
	return balanceView{Context: newContextView(v.Context), Lamports: v.Value}
}

type tokenView struct {
	Mint     string  `json:"mint"`
	Owner    string  `json:"owner"`
	Amount   uint64  `json:"amount"`
	Delegate *string `json:"delegate,omitempty"`
	State    string  `json:"state"`
}

type accountView struct {
	Address    string     `json:"address"`
	Owner      string     `json:"owner"`
	Lamports   uint64     `json:"lamports"`
	Executable bool       `json:"executable"`
	Space      uint64     `json:"space"`
	RentEpoch  uint64     `json:"rent_epoch"`
	Data       []byte     `json:"data"`
	Token      *tokenView `json:"token,omitempty"`
}

type accountResult struct {
	Context contextView  `json:"context"`
	Account *accountView `json:"account"`
}

func newAccountView(v solana.ContextValue[*solana.AccountInfo[[]byte]]) any {
	out := accountResult{Context: newContextView(v.Context)}
	acc := v.Value
	if acc == nil {
		return out
	}
	out.Account = &accountView{
		Address:    report.Key(acc.Address),
		Owner:      report.Key(acc.Owner),
		Lamports:   acc.Lamports,
		Executable: acc.Executable,
		Space:      acc.Space,
		RentEpoch:  acc.RentEpoch,
		Data:       acc.Data,
	}
	if solana.IsTokenProgram(acc.Owner) {
		if tok := solana.TokenAccountData(acc.Address, acc.Data); tok != nil {
			tv := &tokenView{
				Mint:   report.Key(tok.Mint),
				Owner:  report.Key(tok.Owner),
				Amount: tok.Amount,
				State:  tok.State.String(),
			}
			if tok.Delegate != nil {
				d := report.Key(*tok.Delegate)
				tv.Delegate = &d
			}
			out.Account.Token = tv
		}
	}
	return out
}

type blockhashView struct {
	Context              contextView `json:"context"`
	Blockhash            solana.Hash `json:"blockhash"`
	LastValidBlockHeight uint64      `json:"last_valid_block_height"`
}

func newBlockhashView(v solana.ContextValue[solana.LatestBlockhash]) any {
	return blockhashView{
		Context:              newContextView(v.Context),
		Blockhash:            v.Value.Blockhash,
		LastValidBlockHeight: v.Value.LastValidBlockHeight,
	}
}

type versionResult struct {
	version  solana.Version
	identity solana.PublicKey
}

type versionView struct {
	SolanaCore string `json:"solana_core"`
	FeatureSet uint32 `json:"feature_set"`
	Identity   string `json:"identity,omitempty"`
}

func newVersionView(r versionResult) any {
	return versionView{SolanaCore: r.version.SolanaCore, FeatureSet: r.version.FeatureSet, Identity: report.Key(r.identity)}
}

type voteView struct {
	VotePubkey     string `json:"vote_pubkey"`
	NodePubkey     string `json:"node_pubkey"`
	ActivatedStake uint64 `json:"activated_stake"`
	Commission     uint8  `json:"commission"`
	LastVote       uint64 `json:"last_vote"`
	RootSlot       uint64 `json:"root_slot"`
	Delinquent     bool   `json:"delinquent"`
}

type votesView struct {
	CurrentStake    uint64     `json:"current_stake"`
	DelinquentStake uint64     `json:"delinquent_stake"`
	Accounts        []voteView `json:"accounts"`
}

func votesViewer(limit int) func(solana.VoteAccounts) any {
	return func(v solana.VoteAccounts) any {
		current, delinquent := v.TotalStake()
		out := votesView{CurrentStake: current, DelinquentStake: delinquent, Accounts: []voteView{}}
		add := func(accounts []solana.VoteAccount, isDelinquent bool) {
			for _, a := range accounts {
				if limit > 0 && len(out.Accounts) >= limit {
					return
				}
				out.Accounts = append(out.Accounts, voteView{
					VotePubkey:     report.Key(a.VotePubkey),
					NodePubkey:     report.Key(a.NodePubkey),
					ActivatedStake: a.ActivatedStake,
					Commission:     a.Commission,
					LastVote:       a.LastVote,
					RootSlot:       a.RootSlot,
					Delinquent:     isDelinquent,
				})
			}
		}
		add(v.Current, false)
		add(v.Delinquent, true)
		return out
	}
}

type statusView struct {
	Signature          solana.Signature `json:"signature"`
	Found              bool             `json:"found"`
	Slot               uint64           `json:"slot,omitempty"`
	Confirmations      *uint64          `json:"confirmations,omitempty"`
	ConfirmationStatus string           `json:"confirmation_status,omitempty"`
	Err                *string          `json:"err,omitempty"`
}

type statusesView struct {
	Context  contextView  `json:"context"`
	Statuses []statusView `json:"statuses"`
}

func statusesViewer(sigs []solana.Signature) func(solana.ContextValue[[]*solana.TxStatus]) any {
	return func(v solana.ContextValue[[]*solana.TxStatus]) any {
		out := statusesView{Context: newContextView(v.Context), Statuses: make([]statusView, 0, len(v.Value))}
		for i, st := range v.Value {
			sv := statusView{}
			if i < len(sigs) {
				sv.Signature = sigs[i]
			}
			if st != nil {
				sv.Found = true
				sv.Slot = st.Slot
				sv.Confirmations = st.Confirmations
				sv.ConfirmationStatus = string(st.ConfirmationStatus)
				sv.Err = errText(st.Err)
			}
			out.Statuses = append(out.Statuses, sv)
		}
		return out
	}
}

type metaView struct {
	Err           *string  `json:"err"`
	Fee           uint64   `json:"fee"`
	ComputeUnits  *uint64  `json:"compute_units,omitempty"`
	Logs          []string `json:"logs,omitempty"`
	PreBalances   []uint64 `json:"pre_balances,omitempty"`
	PostBalances  []uint64 `json:"post_balances,omitempty"`
	TokenBalances int      `json:"token_balances"`
}

func newMetaView(m *solana.TxMeta) *metaView {
	if m == nil {
		return nil
	}
	return &metaView{
		Err:           errText(m.Err),
		Fee:           m.Fee,
		ComputeUnits:  m.ComputeUnitsConsumed,
		Logs:          m.LogMessages,
		PreBalances:   m.PreBalances,
		PostBalances:  m.PostBalances,
		TokenBalances: len(m.PostTokenBalances),
	}
}

type txView struct {
	Slot      uint64     `json:"slot"`
	BlockTime *time.Time `json:"block_time,omitempty"`
	Version   *int       `json:"version"`
	Size      int        `json:"size"`
	Meta      *metaView  `json:"meta"`
}

func txVersion(v int) *int {
	if v == solana.LegacyVersion {
		return nil
	}
	return &v
}

func newTxView(tx *solana.Transaction) any {
	if tx == nil {
		return nil
	}
	return txView{
		Slot:      tx.Slot,
		BlockTime: unixTime(tx.BlockTime),
		Version:   txVersion(tx.Version),
		Size:      len(tx.Transaction),
		Meta:      newMetaView(tx.Meta),
	}
}

type blockView struct {
	Slot              uint64      `json:"slot"`
	ParentSlot        uint64      `json:"parent_slot"`
	Blockhash         solana.Hash `json:"blockhash"`
	PreviousBlockhash solana.Hash `json:"previous_blockhash"`
	BlockHeight       *uint64     `json:"block_height,omitempty"`
	BlockTime         *time.Time  `json:"block_time,omitempty"`
	Transactions      int         `json:"transactions"`
	Failed            int         `json:"failed"`
	Fees              uint64      `json:"fees"`
	Rewards           int         `json:"rewards"`
}

func blockViewer(slot uint64) func(*solana.Block) any {
	return func(b *solana.Block) any {
		if b == nil {
			return nil
		}
		var fees uint64
		for _, tx := range b.Transactions {
			if tx.Meta != nil {
				fees += tx.Meta.Fee
			}
		}
		return blockView{
			Slot:              slot,
			ParentSlot:        b.ParentSlot,
			Blockhash:         b.Blockhash,
			PreviousBlockhash: b.PreviousBlockhash,
			BlockHeight:       b.BlockHeight,
			BlockTime:         unixTime(b.BlockTime),
			Transactions:      b.TransactionCount(),
			Failed:            b.Failed(),
			Fees:              fees,
			Rewards:           len(b.Rewards),
		}
	}
}

type returnDataView struct {
	ProgramID string `json:"program_id"`
	Data      []byte `json:"data"`
}

type simulationView struct {
	Context              contextView     `json:"context"`
	Err                  *string         `json:"err"`
	Logs                 []string        `json:"logs,omitempty"`
	UnitsConsumed        *uint64         `json:"units_consumed,omitempty"`
	ReturnData           *returnDataView `json:"return_data,omitempty"`
	ReplacementBlockhash *solana.Hash    `json:"replacement_blockhash,omitempty"`
}

func newSimulationView(v solana.ContextValue[solana.TxSimulation]) any {
	s := v.Value
	out := simulationView{
		Context:       newContextView(v.Context),
		Err:           errText(s.Err),
		Logs:          s.Logs,
		UnitsConsumed: s.UnitsConsumed,
	}
	if s.ReturnData != nil {
		out.ReturnData = &returnDataView{ProgramID: report.Key(s.ReturnData.ProgramID), Data: s.ReturnData.Data}
	}
	if s.ReplacementBlockhash != nil {
		out.ReplacementBlockhash = &s.ReplacementBlockhash.Blockhash
	}
	return out
}
