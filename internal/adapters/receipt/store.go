// Package receipt stores install receipts as one JSON file per prefix.
package receipt

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// Store implements ports.ReceiptStore using a file-per-prefix strategy.
type Store struct{}

// NewStore creates a new Store.
func NewStore() *Store {
	return &Store{}
}

// Get retrieves the receipt recorded for prefix.
func (s *Store) Get(root, prefix string) (*domain.Receipt, error) {
	filename := s.getFilename(root, prefix)
	//nolint:gosec // Path is constructed from trusted directory and hashed filename
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.Wrap(err, domain.ErrReceiptReadFailed.Error())
	}

	var r domain.Receipt
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, zerr.Wrap(err, domain.ErrReceiptUnmarshalFailed.Error())
	}

	return &r, nil
}

// Put stores the receipt.
func (s *Store) Put(root string, r domain.Receipt) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrReceiptMarshalFailed.Error())
	}

	filename := s.getFilename(root, r.Prefix)
	if err := os.MkdirAll(filepath.Dir(filename), domain.DirPerm); err != nil {
		return zerr.Wrap(err, domain.ErrReceiptCreateFailed.Error())
	}

	//nolint:gosec // Path is constructed from trusted directory and hashed filename
	if err := os.WriteFile(filename, data, domain.FilePerm); err != nil {
		return zerr.Wrap(err, domain.ErrReceiptWriteFailed.Error())
	}

	return nil
}

func (s *Store) getFilename(root, prefix string) string {
	hash := sha256.Sum256([]byte(prefix))
	return filepath.Join(root, domain.ReceiptsDirName, hex.EncodeToString(hash[:])+".json")
}
