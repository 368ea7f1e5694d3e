package middleware

import (
	"context"
	"log/slog"

	"vendorbook/internal/app/commands"
	"vendorbook/internal/app/outbox"
)

// OutboxFlush flushes box after every successful command. The command has
// already committed by then, so a flush failure is logged and the result is
// still returned; the relay worker delivers the stored records later.
func OutboxFlush(box outbox.Outbox, logger *slog.Logger) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := box.Flush(ctx); err != nil && logger != nil {
				logger.WarnContext(ctx, "outbox flush failed", "command", cmd.Key(), "error", err)
			}
			return res, nil
		})
	}
}
