// Package mocks provides mock implementations for testing reconciliation use cases.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	academicDomain "github.com/GarciaKevinFab/academico-sync/internal/academic/domain"
	"github.com/GarciaKevinFab/academico-sync/internal/ministry"
	"github.com/GarciaKevinFab/academico-sync/internal/reconciliation/domain"
)

// MockAcademicRepository is a mock implementation of AcademicRepository.
type MockAcademicRepository struct {
	mock.Mock
}

func (m *MockAcademicRepository) ListEnrollmentsByPeriod(
	ctx context.Context,
	periodID string,
) ([]academicDomain.Enrollment, error) {
	args := m.Called(ctx, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]academicDomain.Enrollment), args.Error(1)
}

func (m *MockAcademicRepository) ListGradesByPeriod(
	ctx context.Context,
	periodID string,
) ([]academicDomain.Grade, error) {
	args := m.Called(ctx, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]academicDomain.Grade), args.Error(1)
}

func (m *MockAcademicRepository) ListCertificatesByPeriod(
	ctx context.Context,
	periodID string,
) ([]academicDomain.Certificate, error) {
	args := m.Called(ctx, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]academicDomain.Certificate), args.Error(1)
}

// MockMinistryReader is a mock implementation of MinistryReader.
type MockMinistryReader struct {
	mock.Mock
}

func (m *MockMinistryReader) FetchRecords(
	ctx context.Context,
	entityType, periodID string,
) ([]ministry.RemoteRecord, error) {
	args := m.Called(ctx, entityType, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ministry.RemoteRecord), args.Error(1)
}

// MockResultRepository is a mock implementation of ResultRepository.
type MockResultRepository struct {
	mock.Mock
}

func (m *MockResultRepository) Create(ctx context.Context, result *domain.Result) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockResultRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Result, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Result), args.Error(1)
}

func (m *MockResultRepository) ListByPeriod(
	ctx context.Context,
	periodID string,
	limit, offset int,
) ([]*domain.Result, error) {
	args := m.Called(ctx, periodID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Result), args.Error(1)
}

// MockEventResetter is a mock implementation of EventResetter.
type MockEventResetter struct {
	mock.Mock
}

func (m *MockEventResetter) ResetAckedEntity(
	ctx context.Context,
	entityType, entityID, periodID, note string,
) (int64, error) {
	args := m.Called(ctx, entityType, entityID, periodID, note)
	return args.Get(0).(int64), args.Error(1)
}
