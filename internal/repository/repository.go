// Package repository contains data access layer abstractions.
// Implementations live in subpackages (postgres, memory) inside this directory.
package repository

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a uniqueness constraint.
	ErrDuplicate = errors.New("record already exists")
	// ErrNoTransition is returned when a conditional status update matched no row.
	ErrNoTransition = errors.New("record not in expected state")
)

// Tx exposes the repositories bound to a single unit of work.
type Tx interface {
	Documents() DocumentRepository
	Requests() ChangeRequestRepository
}

// Store is the document store. Outside WithinTx every call is its own unit of work.
type Store interface {
	Tx

	// WithinTx runs fn in a transaction. It commits if fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	// PingContext reports whether the backing store is reachable.
	PingContext(ctx context.Context) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
