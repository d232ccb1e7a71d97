package pg_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/subtrackhq/notify/pkg/pg"
)

func TestMigrate(t *testing.T) {
	t.Parallel()

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	// Both paths are rejected before the pool is touched.
	t.Run("empty migrations path", func(t *testing.T) {
		t.Parallel()

		err := pg.Migrate(context.Background(), nil, pg.Config{}, quiet)
		require.ErrorIs(t, err, pg.ErrFailedToApplyMigrations)
		require.ErrorIs(t, err, pg.ErrMigrationPathNotProvided)
	})

	t.Run("missing migrations directory", func(t *testing.T) {
		t.Parallel()

		cfg := pg.Config{MigrationsPath: filepath.Join(t.TempDir(), "nope")}
		err := pg.Migrate(context.Background(), nil, cfg, quiet)
		require.ErrorIs(t, err, pg.ErrMigrationsDirNotFound)
	})
}
