package ports

import "go.trai.ch/kiln/internal/core/domain"

// ReceiptStore persists install receipts.
//
//go:generate mockgen -source=receipt_store.go -destination=mocks/mock_receipt_store.go -package=mocks
type ReceiptStore interface {
	// Get returns the receipt for prefix stored under root, or nil if none exists.
	Get(root, prefix string) (*domain.Receipt, error)

	// Put stores r under root, replacing any receipt for the same prefix.
	Put(root string, r domain.Receipt) error
}
