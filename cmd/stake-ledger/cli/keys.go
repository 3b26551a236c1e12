package cli

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
)

func loadKey(path string) (*btcec.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file %s: %w", path, err)
	}

	raw, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("key file %s is not hex encoded: %w", path, err)
	}
	if len(raw) != btcec.PrivKeyBytesLen {
		return nil, fmt.Errorf("key file %s holds %d bytes, expected %d", path, len(raw), btcec.PrivKeyBytesLen)
	}

	privKey, _ := btcec.PrivKeyFromBytes(raw)
	return privKey, nil
}

// saveKey writes a new key file readable by the owner only. An existing file
// is never overwritten.
func saveKey(path string, privKey *btcec.PrivateKey) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("key file %s already exists", path)
		}
		return fmt.Errorf("failed to create key file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(hex.EncodeToString(privKey.Serialize()) + "\n"); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}
	return nil
}
