// Package auth turns a signed request into an AuthenticatedCaller.
//
// A request is signed with BIP-340 schnorr over
//
//	sha256("stake-ledger/v1|" + op + "|" + identity + "|" + amount + "|" + timestamp)
//
// The timestamp must be within the allowed skew of the server clock and every
// signature is accepted once. A signature whose operation failed with an
// internal error is released so the same request can be resent.
package auth

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"

	"github.com/lasagnafinance/stake-ledger/internal/clock"
	"github.com/lasagnafinance/stake-ledger/internal/config"
	"github.com/lasagnafinance/stake-ledger/internal/types"
)

const domainTag = "stake-ledger/v1"

type Operation string

const (
	OpStake    Operation = "stake"
	OpWithdraw Operation = "withdraw"
	OpRestake  Operation = "restake"
)

func (o Operation) String() string {
	return string(o)
}

// AuthenticatedCaller is the identity an operation runs on behalf of. Only
// Verifier hands them out for untrusted input.
type AuthenticatedCaller struct {
	Identity types.Identity

	replayKey string
}

// SignedRequest carries everything the signature commits to.
type SignedRequest struct {
	Op        Operation
	Identity  types.Identity
	Amount    uint64
	Timestamp int64
	Signature []byte
}

// Digest is the message hash the signature is made over.
func Digest(op Operation, identity types.Identity, amount uint64, timestamp int64) []byte {
	msg := strings.Join([]string{
		domainTag,
		op.String(),
		identity.String(),
		strconv.FormatUint(amount, 10),
		strconv.FormatInt(timestamp, 10),
	}, "|")
	return chainhash.HashB([]byte(msg))
}

// Sign builds a signed request for the given key.
func Sign(privKey *btcec.PrivateKey, op Operation, amount uint64, timestamp int64) (*SignedRequest, error) {
	identity := types.IdentityFromPubKey(privKey.PubKey())
	sig, err := schnorr.Sign(privKey, Digest(op, identity, amount, timestamp))
	if err != nil {
		return nil, fmt.Errorf("failed to sign %s request: %w", op, err)
	}

	return &SignedRequest{
		Op:        op,
		Identity:  identity,
		Amount:    amount,
		Timestamp: timestamp,
		Signature: sig.Serialize(),
	}, nil
}

// SignatureHex is a convenience for transports.
func (r *SignedRequest) SignatureHex() string {
	return hex.EncodeToString(r.Signature)
}

type Verifier struct {
	clock     clock.Clock
	maxSkew   time.Duration
	cacheSize int

	mu   sync.Mutex
	seen *expirable.LRU[string, struct{}]
}

// NewVerifier keeps every accepted signature for twice the allowed skew, the
// longest span in which its timestamp passes the window check.
func NewVerifier(cfg *config.AuthConfig, clk clock.Clock) (*Verifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid auth config: %w", err)
	}

	return &Verifier{
		clock:     clk,
		maxSkew:   cfg.MaxClockSkew,
		cacheSize: cfg.ReplayCacheSize,
		// unbounded, Verify enforces cacheSize so live entries are never evicted
		seen: expirable.NewLRU[string, struct{}](0, nil, 2*cfg.MaxClockSkew),
	}, nil
}

func (v *Verifier) Verify(ctx context.Context, req *SignedRequest) (*AuthenticatedCaller, *types.Error) {
	if req.Identity.IsZero() {
		return nil, types.NewErrorWithMsg(types.Unauthorized, "missing identity")
	}

	skew := v.clock.Now().Sub(time.Unix(req.Timestamp, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > v.maxSkew {
		return nil, types.NewErrorWithMsg(types.Unauthorized, "request timestamp %d outside of allowed window", req.Timestamp)
	}

	pubKey, err := req.Identity.PubKey()
	if err != nil {
		return nil, types.NewErrorWithMsg(types.Unauthorized, "invalid identity: %v", err)
	}
	sig, err := schnorr.ParseSignature(req.Signature)
	if err != nil {
		return nil, types.NewErrorWithMsg(types.Unauthorized, "invalid signature: %v", err)
	}
	if !sig.Verify(Digest(req.Op, req.Identity, req.Amount, req.Timestamp), pubKey) {
		return nil, types.NewErrorWithMsg(types.Unauthorized, "signature verification failed")
	}

	// the signature commits to everything else, so it is enough as replay key
	key := hex.EncodeToString(req.Signature)
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.seen.Contains(key) {
		log.Ctx(ctx).Warn().
			Stringer("identity", req.Identity).
			Stringer("op", req.Op).
			Msg("replayed request rejected")
		return nil, types.NewErrorWithMsg(types.Unauthorized, "request already processed")
	}
	if v.seen.Len() >= v.cacheSize {
		log.Ctx(ctx).Warn().Int("size", v.cacheSize).Msg("replay cache full")
		return nil, types.NewErrorWithMsg(types.InternalServiceError, "too many requests, retry later")
	}
	v.seen.Add(key, struct{}{})

	return &AuthenticatedCaller{Identity: req.Identity, replayKey: key}, nil
}

// Release forgets the caller's signature. Call it only when the operation
// was not applied.
func (v *Verifier) Release(caller *AuthenticatedCaller) {
	if caller == nil || caller.replayKey == "" {
		return
	}
	v.mu.Lock()
	v.seen.Remove(caller.replayKey)
	v.mu.Unlock()
}
