package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/GarciaKevinFab/academico-sync/internal/app"
	"github.com/GarciaKevinFab/academico-sync/internal/config"
)

// RunWorker starts the delivery worker on its own, without the API server.
// Useful when delivery is scaled independently of the operator API. Blocks
// until receiving SIGINT/SIGTERM.
func RunWorker(ctx context.Context, version string) error {
	cfg := config.Load()

	container := app.NewContainer(cfg)
	logger := container.Logger()
	logger.Info("starting delivery worker", slog.String("version", version))

	defer closeContainer(container, logger)

	worker, err := container.WorkerUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize delivery worker: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := worker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("delivery worker error: %w", err)
	}

	logger.Info("delivery worker stopped")
	return nil
}
