package truststore

import (
	"context"
	"fmt"

	"github.com/tyemirov/truststore/internal/certificates"
)

func runRefresh(ctx context.Context, commandRunner certificates.CommandRunner, command RefreshCommand) error {
	if err := commandRunner.Run(ctx, command.Executable(), command.Arguments()); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRefreshFailed, command, err)
	}
	return nil
}
