// Package cmd holds shared wiring helpers for the zzpkit binaries.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/zzpkit/zzpkit/pkg/persistence"
	"github.com/zzpkit/zzpkit/pkg/persistence/file"
	"github.com/zzpkit/zzpkit/pkg/persistence/postgresql"
)

// NewPersistence picks a storage backend from the URL scheme.
// "postgres://" and "postgresql://" open a PostgreSQL pool; anything
// else is treated as a directory path for the file backend.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch parseScheme(databaseURL) {
	case "postgres", "postgresql":
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}

		return p, nil
	default:
		root := strings.TrimPrefix(databaseURL, "file://")

		return file.NewPersistence(root), nil
	}
}

func parseScheme(databaseURL string) string {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return ""
	}

	return scheme
}
