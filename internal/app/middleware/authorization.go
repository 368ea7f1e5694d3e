package middleware

import (
	"context"
	"errors"
	"strings"

	"vendorbook/internal/app/commands"
)

// ErrActorRequired is returned when a command needs a caller identity and the
// transport supplied none.
var ErrActorRequired = errors.New("middleware: caller identity required")

// ActorCommand is implemented by commands issued on behalf of a user or host.
type ActorCommand interface {
	commands.Command
	Actor() string
}

type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

// ActorRequired rejects actor commands with a blank identity. Ownership is
// checked by the aggregates themselves.
type ActorRequired struct{}

func (ActorRequired) Authorize(_ context.Context, message any) error {
	cmd, ok := message.(ActorCommand)
	if !ok {
		return nil
	}
	if strings.TrimSpace(cmd.Actor()) == "" {
		return ErrActorRequired
	}
	return nil
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := a.Authorize(ctx, cmd); err != nil {
				return nil, err
			}
			return nextFn(ctx, cmd)
		})
	}
}
