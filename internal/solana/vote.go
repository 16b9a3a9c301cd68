package solana

import "github.com/dmagro/solrpc/internal/stream"

// VoteAccounts is the result of getVoteAccounts.
type VoteAccounts struct {
	Current    []VoteAccount
	Delinquent []VoteAccount
}

// TotalStake sums the activated stake of current and delinquent validators.
func (v VoteAccounts) TotalStake() (current, delinquent uint64) {
	for _, a := range v.Current {
		current += a.ActivatedStake
	}
	for _, a := range v.Delinquent {
		delinquent += a.ActivatedStake
	}
	return current, delinquent
}

type VoteAccount struct {
	VotePubkey       PublicKey
	NodePubkey       PublicKey
	ActivatedStake   uint64
	EpochVoteAccount bool
	Commission       uint8
	LastVote         uint64
	RootSlot         uint64
	EpochCredits     []EpochCredits
}

// EpochCredits is one [epoch, credits, previousCredits] entry.
type EpochCredits struct {
	Epoch           uint64
	Credits         uint64
	PreviousCredits uint64
}

// Earned returns the credits earned during the epoch.
func (c EpochCredits) Earned() uint64 {
	if c.Credits < c.PreviousCredits {
		return 0
	}
	return c.Credits - c.PreviousCredits
}

func readEpochCredits(it *stream.Iter) EpochCredits {
	var c EpochCredits
	n := it.ReadTuple(
		func(it *stream.Iter) { c.Epoch = it.ReadUint64() },
		func(it *stream.Iter) { c.Credits = it.ReadUint64() },
		func(it *stream.Iter) { c.PreviousCredits = it.ReadUint64() },
	)
	if n == 0 && it.Err() == nil {
		it.Failf("epoch credits entry is empty")
	}
	return c
}

func visitVoteAccount(field string, v *VoteAccount, it *stream.Iter) bool {
	switch field {
	case "votePubkey":
		v.VotePubkey = ReadPublicKey(it)
	case "nodePubkey":
		v.NodePubkey = ReadPublicKey(it)
	case "activatedStake":
		v.ActivatedStake = it.ReadUint64()
	case "epochVoteAccount":
		v.EpochVoteAccount = it.ReadBool()
	case "commission":
		v.Commission = it.ReadUint8()
	case "lastVote":
		v.LastVote = it.ReadUint64()
	case "rootSlot":
		v.RootSlot = it.ReadUint64()
	case "epochCredits":
		v.EpochCredits = stream.ReadList(it, readEpochCredits)
	default:
		it.Skip()
	}
	return true
}

func ReadVoteAccount(it *stream.Iter) VoteAccount {
	var v VoteAccount
	stream.VisitObject(it, &v, visitVoteAccount)
	return v
}

func visitVoteAccounts(field string, v *VoteAccounts, it *stream.Iter) bool {
	switch field {
	case "current":
		v.Current = stream.ReadList(it, ReadVoteAccount)
	case "delinquent":
		v.Delinquent = stream.ReadList(it, ReadVoteAccount)
	default:
		it.Skip()
	}
	return true
}

func ReadVoteAccounts(it *stream.Iter) VoteAccounts {
	var v VoteAccounts
	stream.VisitObject(it, &v, visitVoteAccounts)
	return v
}
