// Package mocks provides mock implementations for testing outbox use cases.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/GarciaKevinFab/academico-sync/internal/ministry"
	"github.com/GarciaKevinFab/academico-sync/internal/outbox/domain"
	"github.com/GarciaKevinFab/academico-sync/internal/outbox/repository"
)

// MockEventRepository is a mock implementation of EventRepository.
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Create(ctx context.Context, event *domain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.OutboxEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OutboxEvent), args.Error(1)
}

func (m *MockEventRepository) GetByIdempotentKey(ctx context.Context, key string) (*domain.OutboxEvent, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OutboxEvent), args.Error(1)
}

func (m *MockEventRepository) ClaimBatch(ctx context.Context, limit int, now time.Time) ([]*domain.OutboxEvent, error) {
	args := m.Called(ctx, limit, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.OutboxEvent), args.Error(1)
}

func (m *MockEventRepository) MarkSending(ctx context.Context, id uuid.UUID, from domain.Status) error {
	args := m.Called(ctx, id, from)
	return args.Error(0)
}

func (m *MockEventRepository) MarkSent(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockEventRepository) MarkAcked(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockEventRepository) ScheduleRetry(
	ctx context.Context,
	id uuid.UUID,
	retryCount int,
	nextAttemptAt time.Time,
	lastError string,
) error {
	args := m.Called(ctx, id, retryCount, nextAttemptAt, lastError)
	return args.Error(0)
}

func (m *MockEventRepository) MarkFailed(ctx context.Context, id uuid.UUID, retryCount int, lastError string) error {
	args := m.Called(ctx, id, retryCount, lastError)
	return args.Error(0)
}

func (m *MockEventRepository) List(
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

func (m *MockEventRepository) CountByStatus(ctx context.Context) (map[domain.Status]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.Status]int), args.Error(1)
}

func (m *MockEventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockEventRepository) ResetByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEventRepository) ResetByStatus(ctx context.Context, status domain.Status) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEventRepository) ResetAckedEntity(
	ctx context.Context,
	entityType, entityID, periodID, note string,
) (int64, error) {
	args := m.Called(ctx, entityType, entityID, periodID, note)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEventRepository) PurgeAcked(ctx context.Context, olderThan time.Time) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEventRepository) ResetStuckSending(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// MockDeadLetterRepository is a mock implementation of DeadLetterRepository.
type MockDeadLetterRepository struct {
	mock.Mock
}

func (m *MockDeadLetterRepository) Create(ctx context.Context, record *domain.DeadLetterRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockDeadLetterRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.DeadLetterRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeadLetterRecord), args.Error(1)
}

func (m *MockDeadLetterRepository) List(ctx context.Context, limit, offset int) ([]*domain.DeadLetterRecord, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DeadLetterRecord), args.Error(1)
}

func (m *MockDeadLetterRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockDeadLetterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockMinistrySubmitter is a mock implementation of MinistrySubmitter.
type MockMinistrySubmitter struct {
	mock.Mock
}

func (m *MockMinistrySubmitter) Submit(
	ctx context.Context,
	entityType string,
	payload []byte,
) (ministry.SubmitResult, error) {
	args := m.Called(ctx, entityType, payload)
	return args.Get(0).(ministry.SubmitResult), args.Error(1)
}
