package middleware

import (
	"context"
	"log/slog"
	"time"

	"vendorbook/internal/app/commands"
	"vendorbook/internal/app/queries"
)

// CommandLogging logs every dispatched command with its outcome.
func CommandLogging(logger *slog.Logger) CommandMiddleware {
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := nextFn(ctx, cmd)
			if logger != nil {
				if err != nil {
					logger.WarnContext(ctx, "command failed", "command", cmd.Key(), "duration", time.Since(start), "error", err)
				} else {
					logger.DebugContext(ctx, "command handled", "command", cmd.Key(), "duration", time.Since(start))
				}
			}
			return res, err
		})
	}
}

// QueryLogging logs failed queries; successful ones at debug level.
func QueryLogging(logger *slog.Logger) QueryMiddleware {
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			start := time.Now()
			res, err := nextFn(ctx, q)
			if logger != nil {
				if err != nil {
					logger.WarnContext(ctx, "query failed", "query", q.Key(), "duration", time.Since(start), "error", err)
				} else {
					logger.DebugContext(ctx, "query handled", "query", q.Key(), "duration", time.Since(start))
				}
			}
			return res, err
		})
	}
}
