// Package usecase implements the reconciliation run: fetching both sides,
// diffing per entity type, persisting the result, exporting the CSV report
// and auto-reprocessing records the ministry is missing.
package usecase

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gocloud.dev/blob"
	"golang.org/x/sync/errgroup"

	academicDomain "github.com/GarciaKevinFab/academico-sync/internal/academic/domain"
	apperrors "github.com/GarciaKevinFab/academico-sync/internal/errors"
	"github.com/GarciaKevinFab/academico-sync/internal/ministry"
	"github.com/GarciaKevinFab/academico-sync/internal/reconciliation/domain"
	customValidation "github.com/GarciaKevinFab/academico-sync/internal/validation"
)

// reprocessNote is written to last_error on events the reconciler resets.
const reprocessNote = "reconciliation: missing in remote"

// AcademicRepository reads the local records the reconciler diffs.
type AcademicRepository interface {
	ListEnrollmentsByPeriod(ctx context.Context, periodID string) ([]academicDomain.Enrollment, error)
	ListGradesByPeriod(ctx context.Context, periodID string) ([]academicDomain.Grade, error)
	ListCertificatesByPeriod(ctx context.Context, periodID string) ([]academicDomain.Certificate, error)
}

// MinistryReader is the slice of the ministry client the reconciler needs.
type MinistryReader interface {
	FetchRecords(ctx context.Context, entityType, periodID string) ([]ministry.RemoteRecord, error)
}

// ResultRepository persists reconciliation results.
type ResultRepository interface {
	Create(ctx context.Context, result *domain.Result) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Result, error)
	ListByPeriod(ctx context.Context, periodID string, limit, offset int) ([]*domain.Result, error)
}

// EventResetter resets acknowledged outbox events for redelivery.
type EventResetter interface {
	ResetAckedEntity(ctx context.Context, entityType, entityID, periodID, note string) (int64, error)
}

// BusinessMetrics records domain operation counters and durations.
type BusinessMetrics interface {
	RecordOperation(ctx context.Context, domain, operation, status string)
	RecordDuration(ctx context.Context, domain, operation string, duration time.Duration, status string)
}

// ReconcilerUseCase runs period reconciliations. It is triggered on demand
// or on a schedule, independently of the delivery worker.
type ReconcilerUseCase struct {
	academicRepo   AcademicRepository
	ministryReader MinistryReader
	resultRepo     ResultRepository
	eventResetter  EventResetter
	bucket         *blob.Bucket
	metrics        BusinessMetrics
	logger         *slog.Logger
	now            func() time.Time
}

// NewReconcilerUseCase creates a new ReconcilerUseCase. The bucket may be
// nil, in which case report export is skipped.
func NewReconcilerUseCase(
	academicRepo AcademicRepository,
	ministryReader MinistryReader,
	resultRepo ResultRepository,
	eventResetter EventResetter,
	bucket *blob.Bucket,
	metrics BusinessMetrics,
	logger *slog.Logger,
) *ReconcilerUseCase {
	return &ReconcilerUseCase{
		academicRepo:   academicRepo,
		ministryReader: ministryReader,
		resultRepo:     resultRepo,
		eventResetter:  eventResetter,
		bucket:         bucket,
		metrics:        metrics,
		logger:         logger,
		now:            time.Now,
	}
}

// typeData holds one entity type's fetched sides.
type typeData struct {
	entityType        string
	local             map[string]map[string]string
	remote            map[string]map[string]string
	remoteFetchFailed bool
}

// ReconcilePeriod fetches local and ministry records for the period, diffs
// them per entity type, persists the result and exports the CSV report.
// A failed remote fetch degrades that type's result instead of aborting the
// run; a failed local fetch aborts since our own database is broken.
func (uc *ReconcilerUseCase) ReconcilePeriod(ctx context.Context, periodID string) (*domain.Result, error) {
	if err := customValidation.AcademicPeriod.Validate(periodID); err != nil {
		return nil, customValidation.WrapValidationError(err)
	}

	started := uc.now().UTC()
	uc.logger.InfoContext(ctx, "reconciliation started", slog.String("period_id", periodID))

	data, err := uc.fetchSides(ctx, periodID)
	if err != nil {
		uc.metrics.RecordOperation(ctx, "reconciliation", "reconcile_period", "error")
		return nil, err
	}

	result := domain.NewResult(periodID, started)
	for _, td := range data {
		summary := domain.TypeSummary{
			EntityType:        td.entityType,
			LocalCount:        len(td.local),
			RemoteCount:       len(td.remote),
			RemoteFetchFailed: td.remoteFetchFailed,
		}
		if td.remoteFetchFailed {
			// No diff for this type: zero remote records here means "could
			// not ask", not "ministry has nothing".
			result.Summaries = append(result.Summaries, summary)
			continue
		}
		discrepancies := domain.Diff(td.entityType, td.local, td.remote)
		summary.DiscrepancyCount = len(discrepancies)
		result.Summaries = append(result.Summaries, summary)
		result.Discrepancies = append(result.Discrepancies, discrepancies...)
	}
	result.DiscrepancyCount = len(result.Discrepancies)

	result.ReprocessedCount = uc.reprocessMissing(ctx, periodID, result.Discrepancies)
	result.DurationMS = uc.now().UTC().Sub(started).Milliseconds()
	result.ReportPath = uc.exportReport(ctx, result)

	if err := uc.resultRepo.Create(ctx, result); err != nil {
		uc.metrics.RecordOperation(ctx, "reconciliation", "reconcile_period", "error")
		return nil, err
	}

	uc.metrics.RecordOperation(ctx, "reconciliation", "reconcile_period", "success")
	uc.metrics.RecordDuration(ctx, "reconciliation", "reconcile_period",
		time.Duration(result.DurationMS)*time.Millisecond, "success")
	uc.logger.InfoContext(ctx, "reconciliation finished",
		slog.String("period_id", periodID),
		slog.Int("discrepancies", result.DiscrepancyCount),
		slog.Int("reprocessed", result.ReprocessedCount),
		slog.String("report_path", result.ReportPath),
	)
	return result, nil
}

// GetResult retrieves one stored result.
func (uc *ReconcilerUseCase) GetResult(ctx context.Context, id uuid.UUID) (*domain.Result, error) {
	return uc.resultRepo.GetByID(ctx, id)
}

// ListResults retrieves reconciliation history, optionally per period.
func (uc *ReconcilerUseCase) ListResults(
	ctx context.Context,
	periodID string,
	limit, offset int,
) ([]*domain.Result, error) {
	if periodID != "" {
		if err := customValidation.AcademicPeriod.Validate(periodID); err != nil {
			return nil, customValidation.WrapValidationError(err)
		}
	}
	return uc.resultRepo.ListByPeriod(ctx, periodID, limit, offset)
}

// fetchSides loads local and remote records for every entity type
// concurrently. Local failures abort; remote failures are isolated per type.
func (uc *ReconcilerUseCase) fetchSides(ctx context.Context, periodID string) ([]*typeData, error) {
	data := []*typeData{
		{entityType: ministry.EntityEnrollment},
		{entityType: ministry.EntityGrade},
		{entityType: ministry.EntityCertificate},
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, td := range data {
		g.Go(func() error {
			local, err := uc.fetchLocal(ctx, td.entityType, periodID)
			if err != nil {
				return apperrors.Wrap(err, fmt.Sprintf("failed to fetch local %s records", td.entityType))
			}
			td.local = local

			remote, err := uc.ministryReader.FetchRecords(ctx, td.entityType, periodID)
			if err != nil {
				uc.logger.ErrorContext(ctx, "ministry fetch failed, skipping diff for type",
					slog.String("entity_type", td.entityType),
					slog.String("period_id", periodID),
					slog.Any("error", err),
				)
				td.remoteFetchFailed = true
				return nil
			}
			td.remote = make(map[string]map[string]string, len(remote))
			for _, rec := range remote {
				td.remote[rec.Key] = rec.Fields
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}

func (uc *ReconcilerUseCase) fetchLocal(
	ctx context.Context,
	entityType, periodID string,
) (map[string]map[string]string, error) {
	records := make(map[string]map[string]string)
	switch entityType {
	case ministry.EntityEnrollment:
		list, err := uc.academicRepo.ListEnrollmentsByPeriod(ctx, periodID)
		if err != nil {
			return nil, err
		}
		for _, r := range list {
			records[r.Key()] = r.Fields()
		}
	case ministry.EntityGrade:
		list, err := uc.academicRepo.ListGradesByPeriod(ctx, periodID)
		if err != nil {
			return nil, err
		}
		for _, r := range list {
			records[r.Key()] = r.Fields()
		}
	case ministry.EntityCertificate:
		list, err := uc.academicRepo.ListCertificatesByPeriod(ctx, periodID)
		if err != nil {
			return nil, err
		}
		for _, r := range list {
			records[r.Key()] = r.Fields()
		}
	default:
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("unknown entity type %q", entityType))
	}
	return records, nil
}

// reprocessMissing resets acknowledged events for records the ministry is
// missing, so the worker delivers them again. Reset failures are logged and
// reflected in the count, never fatal.
func (uc *ReconcilerUseCase) reprocessMissing(
	ctx context.Context,
	periodID string,
	discrepancies []domain.Discrepancy,
) int {
	reprocessed := 0
	for _, d := range discrepancies {
		if d.Type != domain.MissingInRemote {
			continue
		}
		affected, err := uc.eventResetter.ResetAckedEntity(ctx, d.EntityType, d.Key, periodID, reprocessNote)
		if err != nil {
			uc.logger.ErrorContext(ctx, "failed to reset event for redelivery",
				slog.String("entity_type", d.EntityType),
				slog.String("key", d.Key),
				slog.Any("error", err),
			)
			continue
		}
		reprocessed += int(affected)
	}
	return reprocessed
}

// exportReport writes the CSV report (one row per discrepancy) to the
// reports bucket and returns its path. Clean runs produce no report. Export
// failures are logged; the run result is persisted either way.
func (uc *ReconcilerUseCase) exportReport(ctx context.Context, result *domain.Result) string {
	if uc.bucket == nil || len(result.Discrepancies) == 0 {
		return ""
	}

	key := fmt.Sprintf("reconciliations/%s/%s.csv", result.PeriodID, result.ID)
	w, err := uc.bucket.NewWriter(ctx, key, &blob.WriterOptions{ContentType: "text/csv"})
	if err != nil {
		uc.logger.ErrorContext(ctx, "failed to open report writer", slog.Any("error", err))
		return ""
	}

	cw := csv.NewWriter(w)
	record := func(fields ...string) {
		_ = cw.Write(fields)
	}
	record("type", "entityType", "entityKey", "field", "localValue", "remoteValue", "description")
	for _, d := range result.Discrepancies {
		field, localValue, remoteValue := flattenFieldDiffs(d.Fields)
		record(string(d.Type), d.EntityType, d.Key, field, localValue, remoteValue, describeDiscrepancy(d))
	}
	cw.Flush()

	if err := cw.Error(); err != nil {
		uc.logger.ErrorContext(ctx, "failed to write report", slog.Any("error", err))
		_ = w.Close()
		return ""
	}
	if err := w.Close(); err != nil {
		uc.logger.ErrorContext(ctx, "failed to close report writer", slog.Any("error", err))
		return ""
	}
	return key
}

// flattenFieldDiffs collapses a mismatch's field diffs into the three report
// columns, semicolon-joined position-wise when more than one field differs.
// Missing-record discrepancies carry no field diffs and yield empty columns.
func flattenFieldDiffs(diffs []domain.FieldDiff) (field, localValue, remoteValue string) {
	names := make([]string, 0, len(diffs))
	locals := make([]string, 0, len(diffs))
	remotes := make([]string, 0, len(diffs))
	for _, d := range diffs {
		names = append(names, d.Field)
		locals = append(locals, d.LocalValue)
		remotes = append(remotes, d.RemoteValue)
	}
	return strings.Join(names, ";"), strings.Join(locals, ";"), strings.Join(remotes, ";")
}

func describeDiscrepancy(d domain.Discrepancy) string {
	switch d.Type {
	case domain.MissingInRemote:
		return "present locally but not reported by the ministry"
	case domain.MissingInLocal:
		return "reported by the ministry but not found locally"
	case domain.DataMismatch:
		return fmt.Sprintf("%d field(s) differ between local and ministry records", len(d.Fields))
	}
	return ""
}
