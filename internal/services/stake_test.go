package services

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lasagnafinance/stake-ledger/internal/auth"
	"github.com/lasagnafinance/stake-ledger/internal/clock"
	"github.com/lasagnafinance/stake-ledger/internal/config"
	"github.com/lasagnafinance/stake-ledger/internal/db"
	"github.com/lasagnafinance/stake-ledger/internal/db/leveldb"
	"github.com/lasagnafinance/stake-ledger/internal/db/model"
	"github.com/lasagnafinance/stake-ledger/internal/ledger"
	"github.com/lasagnafinance/stake-ledger/internal/observability/metrics"
	"github.com/lasagnafinance/stake-ledger/internal/queue"
	"github.com/lasagnafinance/stake-ledger/internal/types"
	"github.com/lasagnafinance/stake-ledger/tests/mocks"
	"github.com/lasagnafinance/stake-ledger/testutil"
)

const testProgramID = "4uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofM"

var genesis = time.Unix(1_700_000_000, 0)

func testConfig() *config.Config {
	return &config.Config{
		Ledger: config.LedgerConfig{
			ProgramID:         testProgramID,
			MaxCommitAttempts: 5,
		},
		Poller: config.PollerConfig{
			StatsPollingInterval: time.Second,
		},
	}
}

func setupService(t *testing.T, store db.DbInterface, publisher queue.EventPublisher) (*Service, *clock.FixedClock) {
	t.Helper()
	metrics.Init(0)

	clk := clock.NewFixedClock(genesis)
	service, err := NewService(testConfig(), store, clk, publisher)
	require.NoError(t, err)

	return service, clk
}

func newMemStore(t *testing.T) *leveldb.Store {
	t.Helper()

	store, err := leveldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func nopPublisher(t *testing.T) *mocks.EventPublisher {
	publisher := mocks.NewEventPublisher(t)
	publisher.On("PushStakeEvent", mock.Anything, mock.Anything).Return(nil).Maybe()
	return publisher
}

func newCaller(t *testing.T) *auth.AuthenticatedCaller {
	_, identity := testutil.RandomIdentity(t)
	return &auth.AuthenticatedCaller{Identity: identity}
}

func TestStakeWithdrawRestakeScenario(t *testing.T) {
	ctx := t.Context()
	service, clk := setupService(t, newMemStore(t), nopPublisher(t))
	caller := newCaller(t)

	view, err := service.Stake(ctx, caller, 100)
	require.Nil(t, err)
	assert.Equal(t, uint64(100), view.Account.Amount)
	assert.Equal(t, genesis.Unix(), view.Account.LastActionTimestamp)
	assert.Equal(t, service.AddressOf(caller.Identity), view.Address)

	view, err = service.Withdraw(ctx, caller, 50)
	require.Nil(t, err)
	assert.Equal(t, uint64(50), view.Account.Amount)

	_, err = service.Withdraw(ctx, caller, 51)
	require.NotNil(t, err)
	assert.Equal(t, types.InvalidAmount, err.Code)
	assert.Equal(t, "Invalid amount", err.Error())

	_, err = service.Restake(ctx, caller)
	require.NotNil(t, err)
	assert.Equal(t, types.RestakeTimeBufferNotMet, err.Code)

	clk.Advance(time.Duration(ledger.RestakeCooldown) * time.Second)
	view, err = service.Restake(ctx, caller)
	require.Nil(t, err)
	assert.Equal(t, uint64(50), view.Account.Amount)
	assert.Equal(t, clk.Now().Unix(), view.Account.LastActionTimestamp)

	stored, err := service.GetStakeAccount(ctx, caller.Identity)
	require.Nil(t, err)
	assert.Equal(t, view.Account, stored.Account)
}

func TestStake(t *testing.T) {
	ctx := t.Context()

	t.Run("zero amount on a fresh identity creates nothing", func(t *testing.T) {
		service, _ := setupService(t, newMemStore(t), nopPublisher(t))
		caller := newCaller(t)

		_, err := service.Stake(ctx, caller, 0)
		require.NotNil(t, err)
		assert.Equal(t, types.InvalidAmount, err.Code)

		_, err = service.GetStakeAccount(ctx, caller.Identity)
		require.NotNil(t, err)
		assert.Equal(t, types.AccountNotFound, err.Code)
	})
	t.Run("stakes accumulate and refresh the timestamp", func(t *testing.T) {
		service, clk := setupService(t, newMemStore(t), nopPublisher(t))
		caller := newCaller(t)

		_, err := service.Stake(ctx, caller, 10)
		require.Nil(t, err)
		clk.Advance(time.Minute)
		view, err := service.Stake(ctx, caller, 15)
		require.Nil(t, err)

		assert.Equal(t, uint64(25), view.Account.Amount)
		assert.Equal(t, genesis.Add(time.Minute).Unix(), view.Account.LastActionTimestamp)
	})
	t.Run("overflow keeps the stored account", func(t *testing.T) {
		service, _ := setupService(t, newMemStore(t), nopPublisher(t))
		caller := newCaller(t)

		_, err := service.Stake(ctx, caller, math.MaxUint64)
		require.Nil(t, err)

		_, err = service.Stake(ctx, caller, 1)
		require.NotNil(t, err)
		assert.Equal(t, types.Overflow, err.Code)

		stored, err := service.GetStakeAccount(ctx, caller.Identity)
		require.Nil(t, err)
		assert.Equal(t, uint64(math.MaxUint64), stored.Account.Amount)
	})
	t.Run("identities do not share accounts", func(t *testing.T) {
		service, _ := setupService(t, newMemStore(t), nopPublisher(t))
		alice, bob := newCaller(t), newCaller(t)

		_, err := service.Stake(ctx, alice, 7)
		require.Nil(t, err)

		_, err = service.Withdraw(ctx, bob, 7)
		require.NotNil(t, err)
		assert.Equal(t, types.AccountNotFound, err.Code)
	})
}

func TestWithdrawAndRestakeRequireAccount(t *testing.T) {
	ctx := t.Context()
	service, _ := setupService(t, newMemStore(t), nopPublisher(t))
	caller := newCaller(t)

	_, err := service.Withdraw(ctx, caller, 1)
	require.NotNil(t, err)
	assert.Equal(t, types.AccountNotFound, err.Code)

	_, err = service.Restake(ctx, caller)
	require.NotNil(t, err)
	assert.Equal(t, types.AccountNotFound, err.Code)
}

func TestWithdrawToZeroKeepsAccount(t *testing.T) {
	ctx := t.Context()
	service, _ := setupService(t, newMemStore(t), nopPublisher(t))
	caller := newCaller(t)

	_, err := service.Stake(ctx, caller, 5)
	require.Nil(t, err)
	_, err = service.Withdraw(ctx, caller, 5)
	require.Nil(t, err)

	stored, err := service.GetStakeAccount(ctx, caller.Identity)
	require.Nil(t, err)
	assert.Zero(t, stored.Account.Amount)
	assert.Equal(t, genesis.Unix(), stored.Account.LastActionTimestamp)
}

func TestPublishedEvents(t *testing.T) {
	ctx := t.Context()
	publisher := mocks.NewEventPublisher(t)
	service, clk := setupService(t, newMemStore(t), publisher)
	caller := newCaller(t)
	address := service.AddressOf(caller.Identity).String()

	var events []*queue.StakeEvent
	publisher.On("PushStakeEvent", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			events = append(events, args.Get(1).(*queue.StakeEvent))
		}).
		Return(nil)

	_, err := service.Stake(ctx, caller, 30)
	require.Nil(t, err)
	_, err = service.Withdraw(ctx, caller, 12)
	require.Nil(t, err)
	clk.Advance(25 * time.Hour)
	_, err = service.Restake(ctx, caller)
	require.Nil(t, err)

	require.Len(t, events, 3)

	assert.Equal(t, queue.StakedEventType, events[0].EventType)
	assert.Equal(t, uint64(30), events[0].Delta)
	assert.Equal(t, uint64(30), events[0].Amount)

	assert.Equal(t, queue.WithdrawnEventType, events[1].EventType)
	assert.Equal(t, uint64(12), events[1].Delta)
	assert.Equal(t, uint64(18), events[1].Amount)

	assert.Equal(t, queue.RestakedEventType, events[2].EventType)
	assert.Zero(t, events[2].Delta)
	assert.Equal(t, clk.Now().Unix(), events[2].LastActionTimestamp)

	for _, ev := range events {
		assert.NotEmpty(t, ev.ID)
		assert.Equal(t, caller.Identity.String(), ev.Identity)
		assert.Equal(t, address, ev.Address)
	}
}

func TestRejectedOperationPublishesNothing(t *testing.T) {
	// the mock fails the test on any unexpected call
	publisher := mocks.NewEventPublisher(t)
	service, _ := setupService(t, newMemStore(t), publisher)

	_, err := service.Stake(t.Context(), newCaller(t), 0)
	require.NotNil(t, err)
}

func TestPublishFailureKeepsCommit(t *testing.T) {
	ctx := t.Context()
	publisher := mocks.NewEventPublisher(t)
	publisher.On("PushStakeEvent", mock.Anything, mock.Anything).Return(errors.New("broker down"))
	service, _ := setupService(t, newMemStore(t), publisher)
	caller := newCaller(t)

	_, err := service.Stake(ctx, caller, 3)
	require.Nil(t, err)

	stored, err := service.GetStakeAccount(ctx, caller.Identity)
	require.Nil(t, err)
	assert.Equal(t, uint64(3), stored.Account.Amount)
}

func TestCommitRetries(t *testing.T) {
	ctx := t.Context()
	caller := newCaller(t)

	existing := func(service *Service, amount uint64) *model.StakeAccountDocument {
		return model.NewStakeAccountDocument(
			service.AddressOf(caller.Identity),
			caller.Identity,
			ledger.StakeAccount{Amount: amount, LastActionTimestamp: genesis.Unix()},
		)
	}

	t.Run("conflict re-reads the account", func(t *testing.T) {
		store := mocks.NewDbInterface(t)
		service, _ := setupService(t, store, nopPublisher(t))

		store.On("GetStakeAccount", mock.Anything, mock.Anything).Return(existing(service, 10), nil).Once()
		store.On("GetStakeAccount", mock.Anything, mock.Anything).Return(existing(service, 20), nil).Once()
		store.On("UpdateStakeAccount", mock.Anything, mock.Anything, mock.Anything).
			Return(&db.ConflictError{Message: "changed"}).Once()
		store.On("UpdateStakeAccount", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

		view, err := service.Withdraw(ctx, caller, 5)
		require.Nil(t, err)
		assert.Equal(t, uint64(15), view.Account.Amount)
	})
	t.Run("duplicate insert falls back to update", func(t *testing.T) {
		store := mocks.NewDbInterface(t)
		service, _ := setupService(t, store, nopPublisher(t))

		store.On("GetStakeAccount", mock.Anything, mock.Anything).
			Return(nil, &db.NotFoundError{Message: "missing"}).Once()
		store.On("InsertStakeAccount", mock.Anything, mock.Anything).
			Return(&db.DuplicateKeyError{Message: "exists"}).Once()
		store.On("GetStakeAccount", mock.Anything, mock.Anything).Return(existing(service, 4), nil).Once()
		store.On("UpdateStakeAccount", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

		view, err := service.Stake(ctx, caller, 6)
		require.Nil(t, err)
		assert.Equal(t, uint64(10), view.Account.Amount)
	})
	t.Run("gives up after max attempts", func(t *testing.T) {
		store := mocks.NewDbInterface(t)
		service, _ := setupService(t, store, mocks.NewEventPublisher(t))
		attempts := int(service.cfg.Ledger.MaxCommitAttempts)

		store.On("GetStakeAccount", mock.Anything, mock.Anything).Return(existing(service, 10), nil).Times(attempts)
		store.On("UpdateStakeAccount", mock.Anything, mock.Anything, mock.Anything).
			Return(&db.ConflictError{Message: "changed"}).Times(attempts)

		_, err := service.Withdraw(ctx, caller, 1)
		require.NotNil(t, err)
		assert.Equal(t, types.InternalServiceError, err.Code)
	})
	t.Run("storage failure is not retried", func(t *testing.T) {
		store := mocks.NewDbInterface(t)
		service, _ := setupService(t, store, mocks.NewEventPublisher(t))

		store.On("GetStakeAccount", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset")).Once()

		_, err := service.Stake(ctx, caller, 1)
		require.NotNil(t, err)
		assert.Equal(t, types.InternalServiceError, err.Code)
	})
	t.Run("ledger error is not retried", func(t *testing.T) {
		store := mocks.NewDbInterface(t)
		service, _ := setupService(t, store, mocks.NewEventPublisher(t))

		store.On("GetStakeAccount", mock.Anything, mock.Anything).Return(existing(service, 10), nil).Once()

		_, err := service.Restake(ctx, caller)
		require.NotNil(t, err)
		assert.Equal(t, types.RestakeTimeBufferNotMet, err.Code)
	})
}

func TestConcurrentStakes(t *testing.T) {
	const workers = 8

	store := newMemStore(t)
	service, _ := setupService(t, store, nopPublisher(t))
	service.cfg.Ledger.MaxCommitAttempts = workers + 1
	caller := newCaller(t)

	var wg sync.WaitGroup
	errs := make(chan *types.Error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := service.Stake(context.Background(), caller, 1); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("unexpected error: %v", err)
	}

	stored, err := service.GetStakeAccount(t.Context(), caller.Identity)
	require.Nil(t, err)
	assert.Equal(t, uint64(workers), stored.Account.Amount)
}

func TestCalculateAndUpdateStats(t *testing.T) {
	ctx := t.Context()
	service, _ := setupService(t, newMemStore(t), nopPublisher(t))

	for _, amount := range []uint64{math.MaxUint64, 1, 2} {
		_, err := service.Stake(ctx, newCaller(t), amount)
		require.Nil(t, err)
	}

	require.NoError(t, service.calculateAndUpdateStats(ctx))

	stats, err := service.db.GetStakeStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), stats.Accounts)
	assert.Equal(t, "18446744073709551618", stats.TotalStaked.String())
}

func TestCooldownRemaining(t *testing.T) {
	ctx := t.Context()
	service, clk := setupService(t, newMemStore(t), nopPublisher(t))
	caller := newCaller(t)

	view, err := service.Stake(ctx, caller, 1)
	require.Nil(t, err)
	assert.Equal(t, ledger.RestakeCooldown, view.CooldownRemaining)

	clk.Advance(time.Hour)
	view, err = service.GetStakeAccount(ctx, caller.Identity)
	require.Nil(t, err)
	assert.Equal(t, ledger.RestakeCooldown-3600, view.CooldownRemaining)

	clk.Advance(48 * time.Hour)
	view, err = service.GetStakeAccount(ctx, caller.Identity)
	require.Nil(t, err)
	assert.Zero(t, view.CooldownRemaining)
}
