package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lasagnafinance/stake-ledger/internal/observability/metrics"
	"github.com/lasagnafinance/stake-ledger/internal/types"
)

type HttpClient interface {
	GetBaseURL() string
	GetDefaultRequestTimeout() time.Duration
	GetHttpClient() *http.Client
}

type HttpClientOptions struct {
	Timeout time.Duration
	Path    string
	// TemplatePath is the path with parameters left unexpanded, used as the
	// metrics label
	TemplatePath string
	Headers      map[string]string
}

// errorBody is the error payload of the ledger api.
type errorBody struct {
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}

func sendRequest[I any, R any](
	ctx context.Context, client HttpClient, method string, opts *HttpClientOptions, input *I,
) (*R, *types.Error) {
	timeout := client.GetDefaultRequestTimeout()
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := client.GetBaseURL() + opts.Path

	var body io.Reader
	if input != nil {
		payload, err := json.Marshal(input)
		if err != nil {
			return nil, types.NewErrorWithMsg(types.InternalServiceError, "failed to marshal request body: %v", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, types.NewErrorWithMsg(types.InternalServiceError, "failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := client.GetHttpClient().Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, types.NewErrorWithMsg(types.InternalServiceError, "request to %s timed out", url)
		}
		return nil, types.NewErrorWithMsg(types.InternalServiceError, "failed to send request to %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var errResp errorBody
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil || errResp.ErrorCode == "" {
			return nil, types.NewErrorWithMsg(
				types.InternalServiceError, "request to %s failed with status %d", url, resp.StatusCode,
			)
		}
		return nil, types.NewErrorWithMsg(types.ErrorCode(errResp.ErrorCode), "%s", errResp.Message)
	}

	var output R
	if err := json.NewDecoder(resp.Body).Decode(&output); err != nil {
		return nil, types.NewErrorWithMsg(types.InternalServiceError, "failed to decode response from %s: %v", url, err)
	}

	return &output, nil
}

// SendRequest sends a JSON request and decodes a JSON response. Errors
// reported by the api come back as *types.Error with the api's code.
func SendRequest[I any, R any](
	ctx context.Context, client HttpClient, method string, opts *HttpClientOptions, input *I,
) (*R, error) {
	timer := metrics.StartClientRequestDurationTimer(client.GetBaseURL(), method, opts.TemplatePath)

	result, err := sendRequest[I, R](ctx, client, method, opts, input)
	if err != nil {
		timer(err.Code.StatusCode())
		log.Ctx(ctx).Debug().Err(err).Str("path", opts.Path).Msg("request failed")
		return nil, err
	}

	timer(http.StatusOK)
	return result, nil
}
