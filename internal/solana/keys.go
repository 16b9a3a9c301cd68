// Package solana holds the immutable records returned by the Solana JSON-RPC
// API together with the streaming decoders that build them.
//
// Every record is produced by a Read function that walks its JSON object once
// through a stream.Iter. Fields are dispatched by name with a switch on the
// field bytes; fields the decoder does not know are skipped. Records with
// optional or deferred parts are accumulated in an unexported assembler and
// converted into the returned value once the object is exhausted.
package solana

import (
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/mr-tron/base58"

	"github.com/dmagro/solrpc/internal/stream"
)

// PublicKey is a 32 byte account address.
type PublicKey = common.PublicKey

const (
	keyLen       = 32
	signatureLen = 64
)

// ParsePublicKey decodes a base58 address and checks its length.
func ParsePublicKey(s string) (PublicKey, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return PublicKey{}, fmt.Errorf("public key %q: %w", s, err)
	}
	if len(b) != keyLen {
		return PublicKey{}, fmt.Errorf("public key %q: decoded to %d bytes", s, len(b))
	}
	return common.PublicKeyFromBytes(b), nil
}

// ReadPublicKey consumes a base58 string holding an address.
func ReadPublicKey(it *stream.Iter) PublicKey {
	var pk PublicKey
	readBase58(it, pk[:])
	return pk
}

// ReadOptionalPublicKey consumes an address or null.
func ReadOptionalPublicKey(it *stream.Iter) *PublicKey {
	if it.ReadNull() {
		return nil
	}
	pk := ReadPublicKey(it)
	return &pk
}

// Hash is a 32 byte blockhash.
type Hash [keyLen]byte

func (h Hash) String() string { return base58.Encode(h[:]) }

func (h Hash) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

// IsZero reports whether the hash was never set.
func (h Hash) IsZero() bool { return h == Hash{} }

// ReadHash consumes a base58 blockhash.
func ReadHash(it *stream.Iter) Hash {
	var h Hash
	readBase58(it, h[:])
	return h
}

// Signature is a 64 byte transaction signature.
type Signature [signatureLen]byte

func (s Signature) String() string { return base58.Encode(s[:]) }

func (s Signature) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// ParseSignature decodes a base58 transaction signature.
func ParseSignature(s string) (Signature, error) {
	var sig Signature
	b, err := base58.Decode(s)
	if err != nil {
		return sig, fmt.Errorf("signature %q: %w", s, err)
	}
	if len(b) != signatureLen {
		return sig, fmt.Errorf("signature %q: decoded to %d bytes", s, len(b))
	}
	copy(sig[:], b)
	return sig, nil
}

// ReadSignature consumes a base58 signature.
func ReadSignature(it *stream.Iter) Signature {
	var s Signature
	readBase58(it, s[:])
	return s
}

func readBase58(it *stream.Iter, dst []byte) {
	raw := it.ReadString()
	if it.Err() != nil {
		return
	}
	if err := decodeBase58(raw, dst); err != nil {
		it.Failf("%v", err)
	}
}

// decodeBase58 decodes raw into dst, which must be filled exactly.
func decodeBase58(raw string, dst []byte) error {
	b, err := base58.Decode(raw)
	if err != nil {
		return fmt.Errorf("invalid base58 %q: %w", raw, err)
	}
	if len(b) != len(dst) {
		return fmt.Errorf("base58 %q decodes to %d bytes, want %d", raw, len(b), len(dst))
	}
	copy(dst, b)
	return nil
}
