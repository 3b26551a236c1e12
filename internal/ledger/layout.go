package ledger

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const (
	// DiscriminatorSize is the size of the type tag written before every record.
	DiscriminatorSize = 8
	// RecordBodySize covers amount (u64) and last action timestamp (i64).
	RecordBodySize = 8 + 8
	// RecordSize is the full fixed size of a serialized stake account.
	RecordSize = DiscriminatorSize + RecordBodySize
)

var ErrInvalidRecord = errors.New("invalid stake account record")

// Discriminator tags serialized stake accounts: the first bytes of
// sha256("account:StakeAccount").
var Discriminator = func() [DiscriminatorSize]byte {
	var d [DiscriminatorSize]byte
	copy(d[:], chainhash.HashB([]byte("account:StakeAccount")))
	return d
}()

// MarshalBinary encodes the record in its fixed little-endian layout.
func (a *StakeAccount) MarshalBinary() ([]byte, error) {
	buf := make([]byte, RecordSize)
	copy(buf, Discriminator[:])
	binary.LittleEndian.PutUint64(buf[DiscriminatorSize:], a.Amount)
	binary.LittleEndian.PutUint64(buf[DiscriminatorSize+8:], uint64(a.LastActionTimestamp))
	return buf, nil
}

func (a *StakeAccount) UnmarshalBinary(data []byte) error {
	if len(data) != RecordSize {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidRecord, RecordSize, len(data))
	}
	if !bytes.Equal(data[:DiscriminatorSize], Discriminator[:]) {
		return fmt.Errorf("%w: discriminator mismatch", ErrInvalidRecord)
	}

	a.Amount = binary.LittleEndian.Uint64(data[DiscriminatorSize:])
	a.LastActionTimestamp = int64(binary.LittleEndian.Uint64(data[DiscriminatorSize+8:]))
	return nil
}
