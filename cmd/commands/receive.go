package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dezh-tech/immortal/pkg/logger"
)

func HandleReceive(args []string) {
	if len(args) < 4 {
		ExitOnError(errors.New("at least 2 arguments expected\nuse help command for more information"))
	}

	s := setup(args[2])
	defer s.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	inbox, err := s.inbox(ctx)
	if err != nil {
		ExitOnError(err)
	}

	path, err := inbox.Receive(ctx, args[3])
	if err != nil {
		ExitOnError(err)
	}

	logger.Info("transfer received", "record", args[3], "path", path)
	fmt.Println(path) //nolint
}
