package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"

	"github.com/lasagnafinance/stake-ledger/internal/auth"
	"github.com/lasagnafinance/stake-ledger/internal/db"
	"github.com/lasagnafinance/stake-ledger/internal/db/model"
	"github.com/lasagnafinance/stake-ledger/internal/ledger"
	"github.com/lasagnafinance/stake-ledger/internal/observability/metrics"
	"github.com/lasagnafinance/stake-ledger/internal/queue"
	"github.com/lasagnafinance/stake-ledger/internal/types"
)

const (
	commitRetryDelay    = 10 * time.Millisecond
	commitRetryMaxDelay = 250 * time.Millisecond
)

// StakeAccountView is a stake account together with where it lives and who owns it.
type StakeAccountView struct {
	Identity types.Identity
	Address  ledger.Address
	Account  ledger.StakeAccount
	// CooldownRemaining is the number of seconds until a restake can succeed,
	// as of the time the view was taken.
	CooldownRemaining int64
}

// mutation applies one ledger transition to account. It must not have side
// effects besides account since it can run several times.
type mutation func(account *ledger.StakeAccount, now int64) error

// Stake adds amount to the caller's stake account, creating the account on
// the first stake.
func (s *Service) Stake(
	ctx context.Context, caller *auth.AuthenticatedCaller, amount uint64,
) (*StakeAccountView, *types.Error) {
	view, prevAmount, err := s.commit(ctx, auth.OpStake, caller.Identity, true,
		func(account *ledger.StakeAccount, now int64) error {
			return account.Stake(amount, now)
		},
	)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, queue.StakedEventType, view, view.Account.Amount-prevAmount)
	return view, nil
}

// Withdraw removes amount from the caller's stake account.
func (s *Service) Withdraw(
	ctx context.Context, caller *auth.AuthenticatedCaller, amount uint64,
) (*StakeAccountView, *types.Error) {
	view, prevAmount, err := s.commit(ctx, auth.OpWithdraw, caller.Identity, false,
		func(account *ledger.StakeAccount, _ int64) error {
			return account.Withdraw(amount)
		},
	)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, queue.WithdrawnEventType, view, prevAmount-view.Account.Amount)
	return view, nil
}

// Restake refreshes the timestamp of the caller's stake account once the
// cooldown has passed.
func (s *Service) Restake(
	ctx context.Context, caller *auth.AuthenticatedCaller,
) (*StakeAccountView, *types.Error) {
	view, _, err := s.commit(ctx, auth.OpRestake, caller.Identity, false,
		func(account *ledger.StakeAccount, now int64) error {
			return account.Restake(now)
		},
	)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, queue.RestakedEventType, view, 0)
	return view, nil
}

// GetStakeAccount is a read only lookup, it needs no authenticated caller.
func (s *Service) GetStakeAccount(ctx context.Context, owner types.Identity) (*StakeAccountView, *types.Error) {
	address := s.AddressOf(owner)
	doc, err := s.db.GetStakeAccount(ctx, address.String())
	if err != nil {
		if db.IsNotFoundError(err) {
			return nil, types.NewErrorWithMsg(types.AccountNotFound, "no stake account for %s", owner)
		}
		log.Ctx(ctx).Error().Err(err).Stringer("address", address).Msg("failed to load stake account")
		return nil, types.NewInternalServiceError(fmt.Errorf("failed to load stake account: %w", err))
	}

	account, err := doc.ToStakeAccount()
	if err != nil {
		return nil, types.NewInternalServiceError(err)
	}

	return &StakeAccountView{
		Identity:          owner,
		Address:           address,
		Account:           account,
		CooldownRemaining: account.CooldownRemaining(s.clock.Now().Unix()),
	}, nil
}

// commit loads the stake account of owner, applies mutate to it and persists
// the result. Losing a write race re-runs the whole sequence against the
// fresh state. A failing mutate aborts before anything is written. The second
// return value is the amount before the mutation.
func (s *Service) commit(
	ctx context.Context,
	op auth.Operation,
	owner types.Identity,
	createIfAbsent bool,
	mutate mutation,
) (*StakeAccountView, uint64, *types.Error) {
	log := log.Ctx(ctx).With().
		Stringer("op", op).
		Stringer("identity", owner).
		Logger()
	address := s.AddressOf(owner)

	var (
		view       *StakeAccountView
		prevAmount uint64
	)
	attempt := func() error {
		var (
			prev    *model.StakeAccountDocument
			account ledger.StakeAccount
		)

		doc, err := s.db.GetStakeAccount(ctx, address.String())
		switch {
		case err == nil:
			prev = doc
			account, err = doc.ToStakeAccount()
			if err != nil {
				return types.NewInternalServiceError(err)
			}
		case db.IsNotFoundError(err):
			if !createIfAbsent {
				return types.NewErrorWithMsg(types.AccountNotFound, "no stake account for %s", owner)
			}
			// fresh accounts start from the zero record
		default:
			return types.NewInternalServiceError(fmt.Errorf("failed to load stake account: %w", err))
		}

		before := account.Amount
		now := s.clock.Now().Unix()
		if err := mutate(&account, now); err != nil {
			return err
		}

		next := model.NewStakeAccountDocument(address, owner, account)
		if prev == nil {
			err = s.db.InsertStakeAccount(ctx, next)
		} else {
			err = s.db.UpdateStakeAccount(ctx, prev, next)
		}
		if err != nil {
			return err
		}

		view = &StakeAccountView{
			Identity:          owner,
			Address:           address,
			Account:           account,
			CooldownRemaining: account.CooldownRemaining(now),
		}
		prevAmount = before
		return nil
	}

	err := retry.Do(attempt,
		retry.Context(ctx),
		retry.Attempts(s.cfg.Ledger.MaxCommitAttempts),
		retry.Delay(commitRetryDelay),
		retry.MaxDelay(commitRetryMaxDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isWriteRace),
		retry.OnRetry(func(n uint, err error) {
			metrics.IncCommitRetries(op.String())
			log.Debug().Err(err).Uint("attempt", n+1).Msg("stake account changed concurrently, retrying")
		}),
	)
	if err != nil {
		typedErr := toTypedError(err)
		if typedErr.Code == types.InternalServiceError {
			log.Error().Err(err).Msg("failed to commit stake account")
		}
		metrics.RecordStakeOperation(op.String(), typedErr.Code.String())
		return nil, 0, typedErr
	}

	metrics.RecordStakeOperation(op.String(), "ok")
	log.Info().
		Uint64("amount", view.Account.Amount).
		Int64("last_action_timestamp", view.Account.LastActionTimestamp).
		Msg("stake account committed")
	return view, prevAmount, nil
}

func isWriteRace(err error) bool {
	return db.IsConflictError(err) || db.IsDuplicateKeyError(err)
}

func toTypedError(err error) *types.Error {
	var typedErr *types.Error
	if errors.As(err, &typedErr) {
		return typedErr
	}
	if isWriteRace(err) {
		return types.NewInternalServiceError(fmt.Errorf("gave up after repeated write conflicts: %w", err))
	}
	return types.NewInternalServiceError(err)
}

// publish announces a committed change. The commit stands even if the event
// cannot be delivered.
func (s *Service) publish(ctx context.Context, eventType queue.StakeEventType, view *StakeAccountView, delta uint64) {
	ev := queue.NewStakeEvent(
		eventType,
		view.Identity.String(),
		view.Address.String(),
		delta,
		view.Account.Amount,
		view.Account.LastActionTimestamp,
	)
	if err := s.publisher.PushStakeEvent(ctx, ev); err != nil {
		metrics.RecordQueueSendError()
		log.Ctx(ctx).Error().
			Err(err).
			Str("event_id", ev.ID).
			Str("event_type", string(eventType)).
			Msg("failed to publish stake event")
	}
}
