package types

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil/base58"
)

// IdentitySize is the size of an x-only (BIP-340) public key.
const IdentitySize = 32

// Identity is the public key of a ledger user. Its base58 form is what the
// api and cli exchange.
type Identity [IdentitySize]byte

func ParseIdentity(s string) (Identity, error) {
	var id Identity
	if s == "" {
		return id, fmt.Errorf("empty identity")
	}

	bz := base58.Decode(s)
	if len(bz) != IdentitySize {
		return id, fmt.Errorf("invalid identity %q: expected %d bytes, got %d", s, IdentitySize, len(bz))
	}
	if _, err := schnorr.ParsePubKey(bz); err != nil {
		return id, fmt.Errorf("invalid identity %q: %w", s, err)
	}

	copy(id[:], bz)
	return id, nil
}

func IdentityFromPubKey(pk *btcec.PublicKey) Identity {
	var id Identity
	copy(id[:], schnorr.SerializePubKey(pk))
	return id
}

func (id Identity) PubKey() (*btcec.PublicKey, error) {
	return schnorr.ParsePubKey(id[:])
}

func (id Identity) Bytes() []byte {
	return id[:]
}

func (id Identity) String() string {
	return base58.Encode(id[:])
}

func (id Identity) IsZero() bool {
	return id == Identity{}
}
