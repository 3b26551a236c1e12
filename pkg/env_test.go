package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetenv(t *testing.T) {
	const (
		key          = "STAKE_LEDGER_PKG_TEST"
		defaultValue = "http://localhost:8080"
	)

	t.Run("unset key falls back to default", func(t *testing.T) {
		assert.Equal(t, defaultValue, Getenv(key+"_UNSET", defaultValue))
	})
	t.Run("empty value wins over default", func(t *testing.T) {
		t.Setenv(key, "")
		assert.Empty(t, Getenv(key, defaultValue))
	})
	t.Run("set value", func(t *testing.T) {
		t.Setenv(key, "http://ledger:9090")
		assert.Equal(t, "http://ledger:9090", Getenv(key, defaultValue))
	})
}
