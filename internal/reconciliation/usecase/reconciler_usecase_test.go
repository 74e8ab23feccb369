package usecase

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob"
	"gocloud.dev/blob/memblob"

	academicDomain "github.com/GarciaKevinFab/academico-sync/internal/academic/domain"
	apperrors "github.com/GarciaKevinFab/academico-sync/internal/errors"
	"github.com/GarciaKevinFab/academico-sync/internal/ministry"
	"github.com/GarciaKevinFab/academico-sync/internal/reconciliation/domain"
	"github.com/GarciaKevinFab/academico-sync/internal/reconciliation/usecase/mocks"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type noopMetrics struct{}

func (noopMetrics) RecordOperation(context.Context, string, string, string)                {}
func (noopMetrics) RecordDuration(context.Context, string, string, time.Duration, string) {}

func sampleEnrollment(studentID, status string) academicDomain.Enrollment {
	return academicDomain.Enrollment{
		StudentID:  studentID,
		Status:     status,
		PeriodID:   "2026-I",
		Program:    "Contabilidad",
		EnrolledAt: "2026-03-15",
	}
}

func remoteEnrollment(studentID, status string) ministry.RemoteRecord {
	return ministry.RemoteRecord{
		Key: studentID,
		Fields: map[string]string{
			"status":    status,
			"program":   "Contabilidad",
			"period_id": "2026-I",
		},
	}
}

func newTestReconciler(
	t *testing.T,
	academicRepo AcademicRepository,
	reader MinistryReader,
	resultRepo ResultRepository,
	resetter EventResetter,
	bucket *blob.Bucket,
) *ReconcilerUseCase {
	t.Helper()
	return NewReconcilerUseCase(academicRepo, reader, resultRepo, resetter, bucket, noopMetrics{}, testLogger())
}

func TestReconcilerUseCase_ReconcilePeriod(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_CleanPeriod", func(t *testing.T) {
		academicRepo := new(mocks.MockAcademicRepository)
		reader := new(mocks.MockMinistryReader)
		resultRepo := new(mocks.MockResultRepository)
		resetter := new(mocks.MockEventResetter)

		academicRepo.On("ListEnrollmentsByPeriod", mock.Anything, "2026-I").
			Return([]academicDomain.Enrollment{sampleEnrollment("EST-001", "ACTIVA")}, nil)
		academicRepo.On("ListGradesByPeriod", mock.Anything, "2026-I").
			Return([]academicDomain.Grade{}, nil)
		academicRepo.On("ListCertificatesByPeriod", mock.Anything, "2026-I").
			Return([]academicDomain.Certificate{}, nil)
		reader.On("FetchRecords", mock.Anything, ministry.EntityEnrollment, "2026-I").
			Return([]ministry.RemoteRecord{remoteEnrollment("EST-001", "ACTIVA")}, nil)
		reader.On("FetchRecords", mock.Anything, ministry.EntityGrade, "2026-I").
			Return([]ministry.RemoteRecord{}, nil)
		reader.On("FetchRecords", mock.Anything, ministry.EntityCertificate, "2026-I").
			Return([]ministry.RemoteRecord{}, nil)
		resultRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Result")).Return(nil)

		uc := newTestReconciler(t, academicRepo, reader, resultRepo, resetter, nil)
		result, err := uc.ReconcilePeriod(ctx, "2026-I")

		require.NoError(t, err)
		assert.Equal(t, "2026-I", result.PeriodID)
		assert.Zero(t, result.DiscrepancyCount)
		assert.Zero(t, result.ReprocessedCount)
		assert.Empty(t, result.ReportPath)
		require.Len(t, result.Summaries, 3)
		for _, s := range result.Summaries {
			assert.False(t, s.RemoteFetchFailed)
			assert.Zero(t, s.DiscrepancyCount)
		}
		resetter.AssertNotCalled(t, "ResetAckedEntity")
	})

	t.Run("Success_MissingInRemoteIsReprocessed", func(t *testing.T) {
		academicRepo := new(mocks.MockAcademicRepository)
		reader := new(mocks.MockMinistryReader)
		resultRepo := new(mocks.MockResultRepository)
		resetter := new(mocks.MockEventResetter)

		academicRepo.On("ListEnrollmentsByPeriod", mock.Anything, "2026-I").
			Return([]academicDomain.Enrollment{
				sampleEnrollment("EST-001", "ACTIVA"),
				sampleEnrollment("EST-002", "ACTIVA"),
			}, nil)
		academicRepo.On("ListGradesByPeriod", mock.Anything, "2026-I").
			Return([]academicDomain.Grade{}, nil)
		academicRepo.On("ListCertificatesByPeriod", mock.Anything, "2026-I").
			Return([]academicDomain.Certificate{}, nil)
		reader.On("FetchRecords", mock.Anything, ministry.EntityEnrollment, "2026-I").
			Return([]ministry.RemoteRecord{remoteEnrollment("EST-001", "ACTIVA")}, nil)
		reader.On("FetchRecords", mock.Anything, ministry.EntityGrade, "2026-I").
			Return([]ministry.RemoteRecord{}, nil)
		reader.On("FetchRecords", mock.Anything, ministry.EntityCertificate, "2026-I").
			Return([]ministry.RemoteRecord{}, nil)
		resetter.On("ResetAckedEntity", mock.Anything, ministry.EntityEnrollment, "EST-002", "2026-I", reprocessNote).
			Return(int64(1), nil)
		resultRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Result")).Return(nil)

		uc := newTestReconciler(t, academicRepo, reader, resultRepo, resetter, nil)
		result, err := uc.ReconcilePeriod(ctx, "2026-I")

		require.NoError(t, err)
		require.Equal(t, 1, result.DiscrepancyCount)
		assert.Equal(t, domain.MissingInRemote, result.Discrepancies[0].Type)
		assert.Equal(t, "EST-002", result.Discrepancies[0].Key)
		assert.Equal(t, 1, result.ReprocessedCount)
	})

	t.Run("Success_DataMismatchIsNotReprocessed", func(t *testing.T) {
		academicRepo := new(mocks.MockAcademicRepository)
		reader := new(mocks.MockMinistryReader)
		resultRepo := new(mocks.MockResultRepository)
		resetter := new(mocks.MockEventResetter)

		academicRepo.On("ListEnrollmentsByPeriod", mock.Anything, "2026-I").
			Return([]academicDomain.Enrollment{sampleEnrollment("EST-001", "ACTIVA")}, nil)
		academicRepo.On("ListGradesByPeriod", mock.Anything, "2026-I").
			Return([]academicDomain.Grade{}, nil)
		academicRepo.On("ListCertificatesByPeriod", mock.Anything, "2026-I").
			Return([]academicDomain.Certificate{}, nil)
		reader.On("FetchRecords", mock.Anything, ministry.EntityEnrollment, "2026-I").
			Return([]ministry.RemoteRecord{remoteEnrollment("EST-001", "RETIRADA")}, nil)
		reader.On("FetchRecords", mock.Anything, ministry.EntityGrade, "2026-I").
			Return([]ministry.RemoteRecord{}, nil)
		reader.On("FetchRecords", mock.Anything, ministry.EntityCertificate, "2026-I").
			Return([]ministry.RemoteRecord{}, nil)
		resultRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Result")).Return(nil)

		uc := newTestReconciler(t, academicRepo, reader, resultRepo, resetter, nil)
		result, err := uc.ReconcilePeriod(ctx, "2026-I")

		require.NoError(t, err)
		require.Equal(t, 1, result.DiscrepancyCount)
		assert.Equal(t, domain.DataMismatch, result.Discrepancies[0].Type)
		require.Len(t, result.Discrepancies[0].Fields, 1)
		assert.Equal(t, "status", result.Discrepancies[0].Fields[0].Field)
		assert.Equal(t, "ACTIVA", result.Discrepancies[0].Fields[0].LocalValue)
		assert.Equal(t, "RETIRADA", result.Discrepancies[0].Fields[0].RemoteValue)
		assert.Zero(t, result.ReprocessedCount)
		resetter.AssertNotCalled(t, "ResetAckedEntity")
	})

	t.Run("Success_RemoteFetchFailureIsIsolated", func(t *testing.T) {
		academicRepo := new(mocks.MockAcademicRepository)
		reader := new(mocks.MockMinistryReader)
		resultRepo := new(mocks.MockResultRepository)
		resetter := new(mocks.MockEventResetter)

		academicRepo.On("ListEnrollmentsByPeriod", mock.Anything, "2026-I").
			Return([]academicDomain.Enrollment{sampleEnrollment("EST-001", "ACTIVA")}, nil)
		academicRepo.On("ListGradesByPeriod", mock.Anything, "2026-I").
			Return([]academicDomain.Grade{}, nil)
		academicRepo.On("ListCertificatesByPeriod", mock.Anything, "2026-I").
			Return([]academicDomain.Certificate{}, nil)
		// Enrollment fetch fails: that type must not report MISSING_IN_REMOTE.
		reader.On("FetchRecords", mock.Anything, ministry.EntityEnrollment, "2026-I").
			Return(nil, apperrors.ErrUnavailable)
		reader.On("FetchRecords", mock.Anything, ministry.EntityGrade, "2026-I").
			Return([]ministry.RemoteRecord{}, nil)
		reader.On("FetchRecords", mock.Anything, ministry.EntityCertificate, "2026-I").
			Return([]ministry.RemoteRecord{}, nil)
		resultRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Result")).Return(nil)

		uc := newTestReconciler(t, academicRepo, reader, resultRepo, resetter, nil)
		result, err := uc.ReconcilePeriod(ctx, "2026-I")

		require.NoError(t, err)
		assert.Zero(t, result.DiscrepancyCount)
		assert.Zero(t, result.ReprocessedCount)

		var enrollmentSummary domain.TypeSummary
		for _, s := range result.Summaries {
			if s.EntityType == ministry.EntityEnrollment {
				enrollmentSummary = s
			}
		}
		assert.True(t, enrollmentSummary.RemoteFetchFailed)
		assert.Equal(t, 1, enrollmentSummary.LocalCount)
		resetter.AssertNotCalled(t, "ResetAckedEntity")
	})

	t.Run("Success_ReportExportedToBucket", func(t *testing.T) {
		academicRepo := new(mocks.MockAcademicRepository)
		reader := new(mocks.MockMinistryReader)
		resultRepo := new(mocks.MockResultRepository)
		resetter := new(mocks.MockEventResetter)
		bucket := memblob.OpenBucket(nil)
		defer bucket.Close() //nolint:errcheck

		academicRepo.On("ListEnrollmentsByPeriod", mock.Anything, "2026-I").
			Return([]academicDomain.Enrollment{
				sampleEnrollment("EST-002", "ACTIVA"),
				sampleEnrollment("EST-003", "RETIRADA"),
			}, nil)
		academicRepo.On("ListGradesByPeriod", mock.Anything, "2026-I").
			Return([]academicDomain.Grade{}, nil)
		academicRepo.On("ListCertificatesByPeriod", mock.Anything, "2026-I").
			Return([]academicDomain.Certificate{}, nil)
		reader.On("FetchRecords", mock.Anything, ministry.EntityEnrollment, "2026-I").
			Return([]ministry.RemoteRecord{remoteEnrollment("EST-003", "ACTIVA")}, nil)
		reader.On("FetchRecords", mock.Anything, ministry.EntityGrade, "2026-I").
			Return([]ministry.RemoteRecord{}, nil)
		reader.On("FetchRecords", mock.Anything, ministry.EntityCertificate, "2026-I").
			Return([]ministry.RemoteRecord{}, nil)
		resetter.On("ResetAckedEntity", mock.Anything, ministry.EntityEnrollment, "EST-002", "2026-I", reprocessNote).
			Return(int64(1), nil)
		resultRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Result")).Return(nil)

		uc := newTestReconciler(t, academicRepo, reader, resultRepo, resetter, bucket)
		result, err := uc.ReconcilePeriod(ctx, "2026-I")

		require.NoError(t, err)
		require.NotEmpty(t, result.ReportPath)
		assert.True(t, strings.HasPrefix(result.ReportPath, "reconciliations/2026-I/"))

		raw, err := bucket.ReadAll(ctx, result.ReportPath)
		require.NoError(t, err)
		records, err := csv.NewReader(strings.NewReader(string(raw))).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t,
			[]string{"type", "entityType", "entityKey", "field", "localValue", "remoteValue", "description"},
			records[0],
		)
		assert.Equal(t,
			[]string{
				string(domain.MissingInRemote), ministry.EntityEnrollment, "EST-002",
				"", "", "", "present locally but not reported by the ministry",
			},
			records[1],
		)
		assert.Equal(t,
			[]string{
				string(domain.DataMismatch), ministry.EntityEnrollment, "EST-003",
				"status", "RETIRADA", "ACTIVA", "1 field(s) differ between local and ministry records",
			},
			records[2],
		)
	})

	t.Run("Success_NoReportOnCleanRun", func(t *testing.T) {
		academicRepo := new(mocks.MockAcademicRepository)
		reader := new(mocks.MockMinistryReader)
		resultRepo := new(mocks.MockResultRepository)
		resetter := new(mocks.MockEventResetter)
		bucket := memblob.OpenBucket(nil)
		defer bucket.Close() //nolint:errcheck

		academicRepo.On("ListEnrollmentsByPeriod", mock.Anything, "2026-I").
			Return([]academicDomain.Enrollment{sampleEnrollment("EST-001", "ACTIVA")}, nil)
		academicRepo.On("ListGradesByPeriod", mock.Anything, "2026-I").
			Return([]academicDomain.Grade{}, nil)
		academicRepo.On("ListCertificatesByPeriod", mock.Anything, "2026-I").
			Return([]academicDomain.Certificate{}, nil)
		reader.On("FetchRecords", mock.Anything, ministry.EntityEnrollment, "2026-I").
			Return([]ministry.RemoteRecord{remoteEnrollment("EST-001", "ACTIVA")}, nil)
		reader.On("FetchRecords", mock.Anything, ministry.EntityGrade, "2026-I").
			Return([]ministry.RemoteRecord{}, nil)
		reader.On("FetchRecords", mock.Anything, ministry.EntityCertificate, "2026-I").
			Return([]ministry.RemoteRecord{}, nil)
		resultRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Result")).Return(nil)

		uc := newTestReconciler(t, academicRepo, reader, resultRepo, resetter, bucket)
		result, err := uc.ReconcilePeriod(ctx, "2026-I")

		require.NoError(t, err)
		assert.Empty(t, result.ReportPath)

		iter := bucket.List(nil)
		_, iterErr := iter.Next(ctx)
		assert.ErrorIs(t, iterErr, io.EOF, "clean run should write nothing to the bucket")
	})

	t.Run("Success_SecondRunAfterRepairIsClean", func(t *testing.T) {
		academicRepo := new(mocks.MockAcademicRepository)
		reader := new(mocks.MockMinistryReader)
		resultRepo := new(mocks.MockResultRepository)
		resetter := new(mocks.MockEventResetter)

		academicRepo.On("ListEnrollmentsByPeriod", mock.Anything, "2026-I").
			Return([]academicDomain.Enrollment{sampleEnrollment("EST-002", "ACTIVA")}, nil).Twice()
		academicRepo.On("ListGradesByPeriod", mock.Anything, "2026-I").
			Return([]academicDomain.Grade{}, nil).Twice()
		academicRepo.On("ListCertificatesByPeriod", mock.Anything, "2026-I").
			Return([]academicDomain.Certificate{}, nil).Twice()
		// First run: ministry is missing the record. Second run: redelivered.
		reader.On("FetchRecords", mock.Anything, ministry.EntityEnrollment, "2026-I").
			Return([]ministry.RemoteRecord{}, nil).Once()
		reader.On("FetchRecords", mock.Anything, ministry.EntityEnrollment, "2026-I").
			Return([]ministry.RemoteRecord{remoteEnrollment("EST-002", "ACTIVA")}, nil).Once()
		reader.On("FetchRecords", mock.Anything, ministry.EntityGrade, "2026-I").
			Return([]ministry.RemoteRecord{}, nil).Twice()
		reader.On("FetchRecords", mock.Anything, ministry.EntityCertificate, "2026-I").
			Return([]ministry.RemoteRecord{}, nil).Twice()
		resetter.On("ResetAckedEntity", mock.Anything, ministry.EntityEnrollment, "EST-002", "2026-I", reprocessNote).
			Return(int64(1), nil).Once()
		resultRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Result")).Return(nil).Twice()

		uc := newTestReconciler(t, academicRepo, reader, resultRepo, resetter, nil)

		first, err := uc.ReconcilePeriod(ctx, "2026-I")
		require.NoError(t, err)
		assert.Equal(t, 1, first.DiscrepancyCount)
		assert.Equal(t, 1, first.ReprocessedCount)

		second, err := uc.ReconcilePeriod(ctx, "2026-I")
		require.NoError(t, err)
		assert.Zero(t, second.DiscrepancyCount)
		assert.Zero(t, second.ReprocessedCount)
	})

	t.Run("Error_InvalidPeriod", func(t *testing.T) {
		academicRepo := new(mocks.MockAcademicRepository)
		reader := new(mocks.MockMinistryReader)
		resultRepo := new(mocks.MockResultRepository)
		resetter := new(mocks.MockEventResetter)

		uc := newTestReconciler(t, academicRepo, reader, resultRepo, resetter, nil)
		_, err := uc.ReconcilePeriod(ctx, "2026-IV")

		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("Error_LocalFetchFailureAborts", func(t *testing.T) {
		academicRepo := new(mocks.MockAcademicRepository)
		reader := new(mocks.MockMinistryReader)
		resultRepo := new(mocks.MockResultRepository)
		resetter := new(mocks.MockEventResetter)

		academicRepo.On("ListEnrollmentsByPeriod", mock.Anything, "2026-I").
			Return(nil, errors.New("connection refused"))
		academicRepo.On("ListGradesByPeriod", mock.Anything, "2026-I").
			Return([]academicDomain.Grade{}, nil).Maybe()
		academicRepo.On("ListCertificatesByPeriod", mock.Anything, "2026-I").
			Return([]academicDomain.Certificate{}, nil).Maybe()
		reader.On("FetchRecords", mock.Anything, mock.Anything, "2026-I").
			Return([]ministry.RemoteRecord{}, nil).Maybe()

		uc := newTestReconciler(t, academicRepo, reader, resultRepo, resetter, nil)
		_, err := uc.ReconcilePeriod(ctx, "2026-I")

		require.Error(t, err)
		resultRepo.AssertNotCalled(t, "Create")
	})

	t.Run("Error_ResetFailureDoesNotAbortRun", func(t *testing.T) {
		academicRepo := new(mocks.MockAcademicRepository)
		reader := new(mocks.MockMinistryReader)
		resultRepo := new(mocks.MockResultRepository)
		resetter := new(mocks.MockEventResetter)

		academicRepo.On("ListEnrollmentsByPeriod", mock.Anything, "2026-I").
			Return([]academicDomain.Enrollment{sampleEnrollment("EST-002", "ACTIVA")}, nil)
		academicRepo.On("ListGradesByPeriod", mock.Anything, "2026-I").
			Return([]academicDomain.Grade{}, nil)
		academicRepo.On("ListCertificatesByPeriod", mock.Anything, "2026-I").
			Return([]academicDomain.Certificate{}, nil)
		reader.On("FetchRecords", mock.Anything, mock.Anything, "2026-I").
			Return([]ministry.RemoteRecord{}, nil)
		resetter.On("ResetAckedEntity", mock.Anything, ministry.EntityEnrollment, "EST-002", "2026-I", reprocessNote).
			Return(int64(0), errors.New("database gone"))
		resultRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Result")).Return(nil)

		uc := newTestReconciler(t, academicRepo, reader, resultRepo, resetter, nil)
		result, err := uc.ReconcilePeriod(ctx, "2026-I")

		require.NoError(t, err)
		assert.Equal(t, 1, result.DiscrepancyCount)
		assert.Zero(t, result.ReprocessedCount)
	})
}

func TestReconcilerUseCase_ListResults(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_FilterByPeriod", func(t *testing.T) {
		academicRepo := new(mocks.MockAcademicRepository)
		reader := new(mocks.MockMinistryReader)
		resultRepo := new(mocks.MockResultRepository)
		resetter := new(mocks.MockEventResetter)

		expected := []*domain.Result{domain.NewResult("2026-I", time.Now().UTC())}
		resultRepo.On("ListByPeriod", mock.Anything, "2026-I", 10, 0).Return(expected, nil)

		uc := newTestReconciler(t, academicRepo, reader, resultRepo, resetter, nil)
		results, err := uc.ListResults(ctx, "2026-I", 10, 0)

		require.NoError(t, err)
		assert.Equal(t, expected, results)
	})

	t.Run("Error_InvalidPeriodFilter", func(t *testing.T) {
		academicRepo := new(mocks.MockAcademicRepository)
		reader := new(mocks.MockMinistryReader)
		resultRepo := new(mocks.MockResultRepository)
		resetter := new(mocks.MockEventResetter)

		uc := newTestReconciler(t, academicRepo, reader, resultRepo, resetter, nil)
		_, err := uc.ListResults(ctx, "bogus", 10, 0)

		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}
