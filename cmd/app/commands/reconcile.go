package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/GarciaKevinFab/academico-sync/internal/reconciliation/domain"
)

// Reconciler runs a reconciliation for one academic period.
type Reconciler interface {
	ReconcilePeriod(ctx context.Context, periodID string) (*domain.Result, error)
}

// RunReconcile runs a reconciliation for the given academic period and prints
// the outcome. Supports text and JSON output formats.
//
// Requirements: Database must be migrated and accessible, and the ministry
// API reachable.
func RunReconcile(
	ctx context.Context,
	reconciler Reconciler,
	logger *slog.Logger,
	writer io.Writer,
	periodID string,
	format string,
) error {
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format: %s (valid options: text, json)", format)
	}

	logger.Info("running reconciliation", slog.String("period_id", periodID))

	result, err := reconciler.ReconcilePeriod(ctx, periodID)
	if err != nil {
		return fmt.Errorf("reconciliation failed: %w", err)
	}

	if format == "json" {
		encoder := json.NewEncoder(writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		return nil
	}

	fmt.Fprintf(writer, "Reconciliation %s completed in %dms\n", result.ID, result.DurationMS)
	fmt.Fprintf(writer, "Period: %s\n", result.PeriodID)
	for _, summary := range result.Summaries {
		status := fmt.Sprintf("local=%d remote=%d discrepancies=%d",
			summary.LocalCount, summary.RemoteCount, summary.DiscrepancyCount)
		if summary.RemoteFetchFailed {
			status = "remote fetch failed, diff skipped"
		}
		fmt.Fprintf(writer, "  %-12s %s\n", summary.EntityType+":", status)
	}
	fmt.Fprintf(writer, "Discrepancies: %d\n", result.DiscrepancyCount)
	fmt.Fprintf(writer, "Reprocessed:   %d\n", result.ReprocessedCount)
	if result.ReportPath != "" {
		fmt.Fprintf(writer, "Report:        %s\n", result.ReportPath)
	}

	return nil
}
