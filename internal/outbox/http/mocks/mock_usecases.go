// Package mocks provides mock implementations for testing outbox HTTP handlers.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/GarciaKevinFab/academico-sync/internal/outbox/domain"
	"github.com/GarciaKevinFab/academico-sync/internal/outbox/repository"
	"github.com/GarciaKevinFab/academico-sync/internal/outbox/usecase"
)

// MockEventProducer is a mock implementation of EventProducer.
type MockEventProducer struct {
	mock.Mock
}

func (m *MockEventProducer) CreateEvent(
	ctx context.Context,
	input usecase.CreateEventInput,
) (*domain.OutboxEvent, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OutboxEvent), args.Error(1)
}

// MockEventAdmin is a mock implementation of EventAdmin.
type MockEventAdmin struct {
	mock.Mock
}

func (m *MockEventAdmin) ListEvents(
	ctx context.Context,
	filter repository.ListFilter,
	limit, offset int,
) ([]*domain.OutboxEvent, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.OutboxEvent), args.Error(1)
}

func (m *MockEventAdmin) GetEvent(ctx context.Context, id uuid.UUID) (*domain.OutboxEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OutboxEvent), args.Error(1)
}

func (m *MockEventAdmin) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockEventAdmin) GetStats(ctx context.Context) (*usecase.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.Stats), args.Error(1)
}

func (m *MockEventAdmin) Reprocess(ctx context.Context, input usecase.ReprocessInput) (int64, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEventAdmin) PurgeAcked(ctx context.Context, olderThanDays int) (int64, error) {
	args := m.Called(ctx, olderThanDays)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEventAdmin) ResetStuck(ctx context.Context, stuckForMinutes int) (int64, error) {
	args := m.Called(ctx, stuckForMinutes)
	return args.Get(0).(int64), args.Error(1)
}

// MockDeadLetterAdmin is a mock implementation of DeadLetterAdmin.
type MockDeadLetterAdmin struct {
	mock.Mock
}

func (m *MockDeadLetterAdmin) ListDeadLetters(
	ctx context.Context,
	limit, offset int,
) ([]*domain.DeadLetterRecord, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DeadLetterRecord), args.Error(1)
}

func (m *MockDeadLetterAdmin) DeleteDeadLetter(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDeadLetterAdmin) ReprocessDeadLetter(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
