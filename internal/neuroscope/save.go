package neuroscope

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"neuroscope/internal/fileutil"
	"neuroscope/internal/logging"
	"neuroscope/internal/metadata"
)

// saveLogger stamps a fresh correlation id on ctx and the returned logger.
func saveLogger(ctx context.Context, base *slog.Logger, component, folder string) (context.Context, *slog.Logger) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := logging.CorrelationIDFromContext(ctx); !ok {
		ctx = logging.WithCorrelationID(ctx, uuid.NewString())
	}
	logger := logging.WithContext(ctx, logging.NewComponentLogger(base, component))
	return ctx, logger.With(logging.String(logging.FieldSession, folder))
}

func lockFolder(ctx context.Context, folder string) (*fileutil.FolderLock, error) {
	lock, err := fileutil.LockFolder(ctx, folder)
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", folder, err)
	}
	return lock, nil
}

// writeSidecar writes md to path unless a sidecar is already there.
func writeSidecar(logger *slog.Logger, path string, md metadata.Metadata) error {
	written, err := metadata.Write(path, md)
	if err != nil {
		return err
	}
	if !written {
		logger.Debug("sidecar exists, left unchanged",
			logging.String(logging.FieldEventType, "metadata_exists"),
			logging.String("xml_path", path),
		)
		return nil
	}
	logger.Debug("sidecar written", logging.String("xml_path", path))
	return nil
}
