package ledger

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/lasagnafinance/stake-ledger/internal/types"
)

const (
	AddressSize = 32

	stakeSeed = "stake"
	pdaMarker = "ProgramDerivedAddress"
)

// Address locates a stake account. It is derived from the owner identity and
// is never chosen by the caller.
type Address [AddressSize]byte

// ProgramID namespaces derived addresses, so two ledgers sharing a store never
// collide.
type ProgramID [32]byte

// ParseProgramID decodes a base58 program id.
func ParseProgramID(s string) (ProgramID, error) {
	var id ProgramID
	bz := base58.Decode(s)
	if len(bz) != len(id) {
		return id, fmt.Errorf("invalid program id %q: expected %d bytes, got %d", s, len(id), len(bz))
	}
	copy(id[:], bz)
	return id, nil
}

func (p ProgramID) String() string {
	return base58.Encode(p[:])
}

// DeriveAddress hashes the "stake" seed and the owner identity with the
// program id. The result is a plain sha256 digest: there is no bump seed and
// no off-curve search, so it is not a chain program-derived address.
func DeriveAddress(program ProgramID, owner types.Identity) Address {
	buf := make([]byte, 0, len(stakeSeed)+types.IdentitySize+len(program)+len(pdaMarker))
	buf = append(buf, stakeSeed...)
	buf = append(buf, owner.Bytes()...)
	buf = append(buf, program[:]...)
	buf = append(buf, pdaMarker...)

	var addr Address
	copy(addr[:], chainhash.HashB(buf))
	return addr
}

func ParseAddress(s string) (Address, error) {
	var addr Address
	bz := base58.Decode(s)
	if len(bz) != AddressSize {
		return addr, fmt.Errorf("invalid address %q: expected %d bytes, got %d", s, AddressSize, len(bz))
	}
	copy(addr[:], bz)
	return addr, nil
}

func (a Address) String() string {
	return base58.Encode(a[:])
}

func (a Address) Bytes() []byte {
	return a[:]
}
