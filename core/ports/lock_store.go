// Package ports defines the core interfaces for the application.
package ports

import "go.trai.ch/pin/core/domain"

// LockStore defines the interface for reading and persisting the lock record.
//
//go:generate go run go.uber.org/mock/mockgen -source=lock_store.go -destination=mocks/mock_lock_store.go -package=mocks
type LockStore interface {
	// Read loads the persisted lock record.
	// A missing record is not an error: it returns a zero record and found=false.
	Read() (record domain.LockRecord, found bool, err error)

	// Write persists the lock record as an atomic replace.
	// Readers never observe a partially written record.
	Write(record domain.LockRecord) error
}
