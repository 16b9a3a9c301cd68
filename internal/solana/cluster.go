package solana

import "github.com/dmagro/solrpc/internal/stream"

// LatestBlockhash is the value of a getLatestBlockhash response.
type LatestBlockhash struct {
	Blockhash            Hash
	LastValidBlockHeight uint64
}

func visitLatestBlockhash(field string, b *LatestBlockhash, it *stream.Iter) bool {
	switch field {
	case "blockhash":
		b.Blockhash = ReadHash(it)
	case "lastValidBlockHeight":
		b.LastValidBlockHeight = it.ReadUint64()
	default:
		it.Skip()
	}
	return true
}

func ReadLatestBlockhash(it *stream.Iter) LatestBlockhash {
	var b LatestBlockhash
	stream.VisitObject(it, &b, visitLatestBlockhash)
	return b
}

// Version is the software version of a node.
type Version struct {
	SolanaCore string
	FeatureSet uint32
}

func visitVersion(field string, v *Version, it *stream.Iter) bool {
	switch field {
	case "solana-core":
		v.SolanaCore = it.ReadString()
	case "feature-set":
		v.FeatureSet = it.ReadUint32()
	default:
		it.Skip()
	}
	return true
}

func ReadVersion(it *stream.Iter) Version {
	var v Version
	stream.VisitObject(it, &v, visitVersion)
	return v
}

// ReadIdentity consumes the {"identity": pubkey} result of getIdentity.
func ReadIdentity(it *stream.Iter) PublicKey {
	var (
		pk    PublicKey
		found bool
	)
	it.ReadObject(func(field string, it *stream.Iter) bool {
		if field == "identity" {
			pk = ReadPublicKey(it)
			found = true
		} else {
			it.Skip()
		}
		return true
	})
	if !found && it.Err() == nil {
		it.Failf("identity missing")
	}
	return pk
}

// PerfSample is one entry of getRecentPerformanceSamples.
type PerfSample struct {
	Slot                   uint64
	NumTransactions        uint64
	NumNonVoteTransactions *uint64
	NumSlots               uint64
	SamplePeriodSecs       uint16
}

// TPS returns transactions per second over the sample period.
func (p PerfSample) TPS() float64 {
	if p.SamplePeriodSecs == 0 {
		return 0
	}
	return float64(p.NumTransactions) / float64(p.SamplePeriodSecs)
}

func visitPerfSample(field string, p *PerfSample, it *stream.Iter) bool {
	switch field {
	case "slot":
		p.Slot = it.ReadUint64()
	case "numTransactions":
		p.NumTransactions = it.ReadUint64()
	case "numNonVoteTransactions", "numNonVoteTransaction":
		p.NumNonVoteTransactions = readOptionalUint64(it)
	case "numSlots":
		p.NumSlots = it.ReadUint64()
	case "samplePeriodSecs":
		v := it.ReadUint32()
		if v > 0xffff {
			it.Failf("samplePeriodSecs %d overflows u16", v)
		}
		p.SamplePeriodSecs = uint16(v)
	default:
		it.Skip()
	}
	return true
}

func ReadPerfSample(it *stream.Iter) PerfSample {
	var p PerfSample
	stream.VisitObject(it, &p, visitPerfSample)
	return p
}

// ClusterNode describes one node from getClusterNodes.
type ClusterNode struct {
	Pubkey       PublicKey
	Gossip       *string
	TPU          *string
	RPC          *string
	Version      *string
	FeatureSet   *uint32
	ShredVersion *uint16
}

func visitClusterNode(field string, n *ClusterNode, it *stream.Iter) bool {
	switch field {
	case "pubkey":
		n.Pubkey = ReadPublicKey(it)
	case "gossip":
		n.Gossip = readOptionalString(it)
	case "tpu":
		n.TPU = readOptionalString(it)
	case "rpc":
		n.RPC = readOptionalString(it)
	case "version":
		n.Version = readOptionalString(it)
	case "featureSet":
		if !it.ReadNull() {
			v := it.ReadUint32()
			n.FeatureSet = &v
		}
	case "shredVersion":
		if !it.ReadNull() {
			v := it.ReadUint32()
			if v > 0xffff {
				it.Failf("shredVersion %d overflows u16", v)
			}
			sv := uint16(v)
			n.ShredVersion = &sv
		}
	default:
		it.Skip()
	}
	return true
}

func ReadClusterNode(it *stream.Iter) ClusterNode {
	var n ClusterNode
	stream.VisitObject(it, &n, visitClusterNode)
	return n
}

// Supply is the value of a getSupply response, in lamports.
type Supply struct {
	Total                  uint64
	Circulating            uint64
	NonCirculating         uint64
	NonCirculatingAccounts []PublicKey
}

func visitSupply(field string, s *Supply, it *stream.Iter) bool {
	switch field {
	case "total":
		s.Total = it.ReadUint64()
	case "circulating":
		s.Circulating = it.ReadUint64()
	case "nonCirculating":
		s.NonCirculating = it.ReadUint64()
	case "nonCirculatingAccounts":
		s.NonCirculatingAccounts = stream.ReadList(it, ReadPublicKey)
	default:
		it.Skip()
	}
	return true
}

func ReadSupply(it *stream.Iter) Supply {
	var s Supply
	stream.VisitObject(it, &s, visitSupply)
	return s
}

// InflationReward is one entry of getInflationReward. Addresses without a
// reward decode to nil.
type InflationReward struct {
	Epoch         uint64
	EffectiveSlot uint64
	Amount        uint64
	PostBalance   uint64
	Commission    *uint8
}

func visitInflationReward(field string, r *InflationReward, it *stream.Iter) bool {
	switch field {
	case "epoch":
		r.Epoch = it.ReadUint64()
	case "effectiveSlot":
		r.EffectiveSlot = it.ReadUint64()
	case "amount":
		r.Amount = it.ReadUint64()
	case "postBalance":
		r.PostBalance = it.ReadUint64()
	case "commission":
		r.Commission = readOptionalUint8(it)
	default:
		it.Skip()
	}
	return true
}

func ReadInflationReward(it *stream.Iter) *InflationReward {
	var r InflationReward
	if !stream.VisitObject(it, &r, visitInflationReward) {
		return nil
	}
	return &r
}

// BlockProduction is the value of a getBlockProduction response.
type BlockProduction struct {
	ByIdentity map[PublicKey]LeaderStats
	FirstSlot  uint64
	LastSlot   uint64
}

// LeaderStats counts the leader slots of a validator and the blocks it
// actually produced in them.
type LeaderStats struct {
	LeaderSlots    uint64
	BlocksProduced uint64
}

// SkipRate returns the fraction of leader slots without a block.
func (s LeaderStats) SkipRate() float64 {
	if s.LeaderSlots == 0 {
		return 0
	}
	return 1 - float64(s.BlocksProduced)/float64(s.LeaderSlots)
}

func visitBlockProduction(field string, p *BlockProduction, it *stream.Iter) bool {
	switch field {
	case "byIdentity":
		p.ByIdentity = make(map[PublicKey]LeaderStats)
		it.ReadObject(func(key string, it *stream.Iter) bool {
			var pk PublicKey
			if err := decodeBase58(key, pk[:]); err != nil {
				it.Failf("byIdentity key: %v", err)
				return false
			}
			var s LeaderStats
			it.ReadTuple(
				func(it *stream.Iter) { s.LeaderSlots = it.ReadUint64() },
				func(it *stream.Iter) { s.BlocksProduced = it.ReadUint64() },
			)
			p.ByIdentity[pk] = s
			return it.Err() == nil
		})
	case "range":
		it.ReadObject(func(key string, it *stream.Iter) bool {
			switch key {
			case "firstSlot":
				p.FirstSlot = it.ReadUint64()
			case "lastSlot":
				p.LastSlot = it.ReadUint64()
			default:
				it.Skip()
			}
			return true
		})
	default:
		it.Skip()
	}
	return true
}

func ReadBlockProduction(it *stream.Iter) BlockProduction {
	var p BlockProduction
	stream.VisitObject(it, &p, visitBlockProduction)
	return p
}
