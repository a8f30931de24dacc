package commands

import (
	"context"
	"errors"
	"time"

	"github.com/dezh-tech/immortal/pkg/logger"
)

func HandleSweep(args []string) {
	if len(args) < 3 {
		ExitOnError(errors.New("at least 1 arguments expected\nuse help command for more information"))
	}

	s := setup(args[2])
	defer s.close()

	sweeper, err := s.sweeper()
	if err != nil {
		ExitOnError(err)
	}

	report, err := sweeper.Sweep(context.Background(), time.Now())
	if err != nil {
		ExitOnError(err)
	}

	logger.Info("sweep finished", "removed", report.Removed, "failed", report.Failed)
}
