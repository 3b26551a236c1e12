package ledgerclient

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/rs/zerolog/log"

	"github.com/lasagnafinance/stake-ledger/internal/api"
	"github.com/lasagnafinance/stake-ledger/internal/auth"
	"github.com/lasagnafinance/stake-ledger/internal/clients/client"
	"github.com/lasagnafinance/stake-ledger/internal/clock"
	"github.com/lasagnafinance/stake-ledger/internal/types"
)

const (
	defaultTimeout       = 10 * time.Second
	defaultMaxRetryTimes = 3
	defaultRetryInterval = 500 * time.Millisecond
)

type Client struct {
	baseURL       string
	httpClient    *http.Client
	clock         clock.Clock
	maxRetryTimes uint
	retryInterval time.Duration
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    &http.Client{},
		clock:         clock.SystemClock{},
		maxRetryTimes: defaultMaxRetryTimes,
		retryInterval: defaultRetryInterval,
	}
}

// WithClock sets the clock request timestamps are taken from.
func (c *Client) WithClock(clk clock.Clock) *Client {
	c.clock = clk
	return c
}

func (c *Client) GetBaseURL() string {
	return c.baseURL
}

func (c *Client) GetDefaultRequestTimeout() time.Duration {
	return defaultTimeout
}

func (c *Client) GetHttpClient() *http.Client {
	return c.httpClient
}

func (c *Client) Stake(ctx context.Context, key *btcec.PrivateKey, amount uint64) (*api.StakeAccountResponse, error) {
	return c.sendAmount(ctx, key, auth.OpStake, "/v1/stake", amount)
}

func (c *Client) Withdraw(ctx context.Context, key *btcec.PrivateKey, amount uint64) (*api.StakeAccountResponse, error) {
	return c.sendAmount(ctx, key, auth.OpWithdraw, "/v1/withdraw", amount)
}

func (c *Client) Restake(ctx context.Context, key *btcec.PrivateKey) (*api.StakeAccountResponse, error) {
	signed, err := auth.Sign(key, auth.OpRestake, 0, c.clock.Now().Unix())
	if err != nil {
		return nil, err
	}

	req := &api.RestakeRequest{
		Identity:  signed.Identity.String(),
		Timestamp: signed.Timestamp,
		Signature: signed.SignatureHex(),
	}
	opts := &client.HttpClientOptions{
		Path:         "/v1/restake",
		TemplatePath: "/v1/restake",
	}
	return callWithRetry(ctx, c, func() (*api.StakeAccountResponse, error) {
		return client.SendRequest[api.RestakeRequest, api.StakeAccountResponse](ctx, c, http.MethodPost, opts, req)
	})
}

func (c *Client) GetStakeAccount(ctx context.Context, identity types.Identity) (*api.StakeAccountResponse, error) {
	opts := &client.HttpClientOptions{
		Path:         "/v1/stake-accounts/" + identity.String(),
		TemplatePath: "/v1/stake-accounts/{identity}",
	}
	return callWithRetry(ctx, c, func() (*api.StakeAccountResponse, error) {
		return client.SendRequest[any, api.StakeAccountResponse](ctx, c, http.MethodGet, opts, nil)
	})
}

func (c *Client) sendAmount(
	ctx context.Context, key *btcec.PrivateKey, op auth.Operation, path string, amount uint64,
) (*api.StakeAccountResponse, error) {
	signed, err := auth.Sign(key, op, amount, c.clock.Now().Unix())
	if err != nil {
		return nil, err
	}

	req := &api.StakeRequest{
		Identity:  signed.Identity.String(),
		Amount:    signed.Amount,
		Timestamp: signed.Timestamp,
		Signature: signed.SignatureHex(),
	}
	opts := &client.HttpClientOptions{
		Path:         path,
		TemplatePath: path,
	}
	return callWithRetry(ctx, c, func() (*api.StakeAccountResponse, error) {
		return client.SendRequest[api.StakeRequest, api.StakeAccountResponse](ctx, c, http.MethodPost, opts, req)
	})
}

// callWithRetry retries server side and transport failures only. A signed
// request is resent unchanged: if the first attempt was committed the retry is
// rejected as a replay, and a request that failed before it was applied is
// released by the server and accepted again.
func callWithRetry[T any](ctx context.Context, c *Client, call func() (*T, error)) (*T, error) {
	return retry.DoWithData(call,
		retry.Context(ctx),
		retry.Attempts(c.maxRetryTimes),
		retry.Delay(c.retryInterval),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return types.CodeOf(err) == types.InternalServiceError
		}),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Debug().
				Uint("attempt", n+1).
				Uint("max_attempts", c.maxRetryTimes).
				Err(err).
				Msg("ledger request failed, retrying")
		}),
	)
}
