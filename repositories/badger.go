package repositories

import (
	"context"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// OpenBadger opens the on-disk store shared by the badger-backed repositories.
// Debug logging on the application logger turns badger's own logging up as well.
func OpenBadger(ctx context.Context, path string, log *slog.Logger) (*badger.DB, error) {
	options := badger.DefaultOptions(path)
	if log.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG)
	} else {
		options = options.WithLoggingLevel(badger.WARNING)
	}
	return badger.Open(options)
}
