package client

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lasagnafinance/stake-ledger/internal/observability/metrics"
	"github.com/lasagnafinance/stake-ledger/internal/types"
)

type testClient struct {
	baseURL string
}

func (c *testClient) GetBaseURL() string                      { return c.baseURL }
func (c *testClient) GetDefaultRequestTimeout() time.Duration { return time.Second }
func (c *testClient) GetHttpClient() *http.Client             { return http.DefaultClient }

type echo struct {
	Value string `json:"value"`
}

func TestSendRequest(t *testing.T) {
	metrics.Init(0)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte(`{"value":"pong"}`))
		case "/api-error":
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"errorCode":"INVALID_AMOUNT","message":"Invalid amount"}`))
		case "/slow":
			time.Sleep(200 * time.Millisecond)
			w.Write([]byte(`{"value":"late"}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("upstream gone"))
		}
	}))
	defer server.Close()

	c := &testClient{baseURL: server.URL}

	t.Run("ok", func(t *testing.T) {
		resp, err := SendRequest[echo, echo](t.Context(), c, http.MethodPost, &HttpClientOptions{Path: "/ok"}, &echo{Value: "ping"})
		require.NoError(t, err)
		assert.Equal(t, "pong", resp.Value)
	})
	t.Run("api error keeps its code", func(t *testing.T) {
		_, err := SendRequest[echo, echo](t.Context(), c, http.MethodGet, &HttpClientOptions{Path: "/api-error"}, nil)
		require.Error(t, err)
		assert.Equal(t, types.InvalidAmount, types.CodeOf(err))
		assert.Equal(t, "Invalid amount", err.Error())
	})
	t.Run("non api error", func(t *testing.T) {
		_, err := SendRequest[echo, echo](t.Context(), c, http.MethodGet, &HttpClientOptions{Path: "/gateway"}, nil)
		require.Error(t, err)
		assert.Equal(t, types.InternalServiceError, types.CodeOf(err))
		assert.Contains(t, err.Error(), "502")
	})
	t.Run("timeout", func(t *testing.T) {
		opts := &HttpClientOptions{Path: "/slow", Timeout: 20 * time.Millisecond}
		_, err := SendRequest[echo, echo](t.Context(), c, http.MethodGet, opts, nil)
		require.Error(t, err)
		assert.Equal(t, types.InternalServiceError, types.CodeOf(err))
	})
}
