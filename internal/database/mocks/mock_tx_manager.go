// Package mocks provides test doubles for the database package.
package mocks

import "context"

// MockTxManager executes the transactional function directly, without a
// database. Set BeginErr to simulate a failure opening the transaction.
type MockTxManager struct {
	BeginErr error
	Calls    int
}

// WithTx runs fn in place of a real transaction.
func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Calls++
	if m.BeginErr != nil {
		return m.BeginErr
	}
	return fn(ctx)
}
