// Package leveldb is an embedded stake account store. Values are the fixed
// ledger record layout followed by the owner identity.
package leveldb

import (
	"context"
	"errors"
	"fmt"
	"sync"

	sdkmath "cosmossdk.io/math"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/lasagnafinance/stake-ledger/internal/config"
	"github.com/lasagnafinance/stake-ledger/internal/db"
	"github.com/lasagnafinance/stake-ledger/internal/db/model"
	"github.com/lasagnafinance/stake-ledger/internal/ledger"
	"github.com/lasagnafinance/stake-ledger/internal/types"
)

var _ db.DbInterface = (*Store)(nil)

var (
	stakeAccountPrefix = []byte("sa/")

	writeOpt = opt.WriteOptions{Sync: true}
	readOpt  = opt.ReadOptions{}
)

const valueSize = ledger.RecordSize + types.IdentitySize

type Store struct {
	db *leveldb.DB
	// serializes compare-and-swap; leveldb has no conditional writes
	mu sync.Mutex
}

// New opens the database at cfg.Path, or an in-memory one if the path is
// empty.
func New(cfg config.LevelDBConfig) (*Store, error) {
	opts := options(cfg.CacheSize, cfg.OpenFilesCacheCapacity)
	if cfg.Path == "" {
		return wrap(leveldb.Open(storage.NewMemStorage(), opts))
	}

	// OpenFile owns the file storage, so Close releases the directory lock
	return wrap(leveldb.OpenFile(cfg.Path, opts))
}

func NewMem() (*Store, error) {
	return wrap(leveldb.Open(storage.NewMemStorage(), options(0, 0)))
}

func options(cacheSize, openFilesCacheCapacity int) *opt.Options {
	if cacheSize < 16 {
		cacheSize = 16
	}

	if openFilesCacheCapacity < 16 {
		openFilesCacheCapacity = 16
	}

	return &opt.Options{
		OpenFilesCacheCapacity: openFilesCacheCapacity,
		BlockCacheCapacity:     cacheSize / 2 * opt.MiB,
		WriteBuffer:            cacheSize / 4 * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
	}
}

func wrap(ldb *leveldb.DB, err error) (*Store, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb: %w", err)
	}
	return &Store{db: ldb}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(_ context.Context) error {
	_, err := s.db.GetProperty("leveldb.stats")
	return err
}

func (s *Store) GetStakeAccount(_ context.Context, address string) (*model.StakeAccountDocument, error) {
	key, err := accountKey(address)
	if err != nil {
		return nil, err
	}

	value, err := s.db.Get(key, &readOpt)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, &db.NotFoundError{
				Key:     address,
				Message: "stake account not found",
			}
		}
		return nil, err
	}

	return decodeValue(address, value)
}

func (s *Store) InsertStakeAccount(_ context.Context, doc *model.StakeAccountDocument) error {
	key, err := accountKey(doc.Address)
	if err != nil {
		return err
	}
	value, err := encodeValue(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.db.Has(key, &readOpt)
	if err != nil {
		return err
	}
	if exists {
		return &db.DuplicateKeyError{
			Key:     doc.Address,
			Message: "stake account already exists",
		}
	}

	return s.db.Put(key, value, &writeOpt)
}

func (s *Store) UpdateStakeAccount(_ context.Context, prev, next *model.StakeAccountDocument) error {
	key, err := accountKey(prev.Address)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.db.Get(key, &readOpt)
	if err != nil && !errors.Is(err, leveldb.ErrNotFound) {
		return err
	}
	conflict := &db.ConflictError{
		Key:     prev.Address,
		Message: "stake account not found or changed since it was read",
	}
	if err != nil {
		return conflict
	}

	current, err := decodeValue(prev.Address, stored)
	if err != nil {
		return err
	}
	if current.Amount != prev.Amount || current.LastActionTimestamp != prev.LastActionTimestamp {
		return conflict
	}

	// owner is immutable, keep the stored one
	updated := *next
	updated.Owner = current.Owner
	value, err := encodeValue(&updated)
	if err != nil {
		return err
	}

	return s.db.Put(key, value, &writeOpt)
}

func (s *Store) GetStakeStats(_ context.Context) (*model.StakeStats, error) {
	iter := s.db.NewIterator(util.BytesPrefix(stakeAccountPrefix), &readOpt)
	defer iter.Release()

	stats := model.NewStakeStats()
	for iter.Next() {
		value := iter.Value()
		if len(value) != valueSize {
			return nil, fmt.Errorf("corrupted stake account at key %x", iter.Key())
		}

		var account ledger.StakeAccount
		if err := account.UnmarshalBinary(value[:ledger.RecordSize]); err != nil {
			return nil, err
		}
		stats.Add(sdkmath.NewUint(account.Amount))
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}

	return stats, nil
}

func accountKey(address string) ([]byte, error) {
	addr, err := ledger.ParseAddress(address)
	if err != nil {
		return nil, err
	}
	return append(append([]byte{}, stakeAccountPrefix...), addr.Bytes()...), nil
}

func encodeValue(doc *model.StakeAccountDocument) ([]byte, error) {
	account, err := doc.ToStakeAccount()
	if err != nil {
		return nil, err
	}
	owner, err := types.ParseIdentity(doc.Owner)
	if err != nil {
		return nil, err
	}

	record, err := account.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return append(record, owner.Bytes()...), nil
}

func decodeValue(address string, value []byte) (*model.StakeAccountDocument, error) {
	if len(value) != valueSize {
		return nil, fmt.Errorf("corrupted stake account %s: expected %d bytes, got %d", address, valueSize, len(value))
	}

	var account ledger.StakeAccount
	if err := account.UnmarshalBinary(value[:ledger.RecordSize]); err != nil {
		return nil, fmt.Errorf("corrupted stake account %s: %w", address, err)
	}

	var owner types.Identity
	copy(owner[:], value[ledger.RecordSize:])

	addr, err := ledger.ParseAddress(address)
	if err != nil {
		return nil, err
	}

	return model.NewStakeAccountDocument(addr, owner, account), nil
}
