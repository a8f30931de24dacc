package commands

import (
	"errors"
	"os"

	"github.com/dezh-tech/immortal/pkg/logger"
)

func HandleContact(args []string) {
	if len(args) < 5 {
		ExitOnError(errors.New("at least 3 arguments expected\nuse help command for more information"))
	}

	s := setup(args[2])
	defer s.close()

	data, err := os.ReadFile(args[4])
	if err != nil {
		ExitOnError(err)
	}

	if err := s.keys.AddContact(args[3], data); err != nil {
		ExitOnError(err)
	}

	logger.Info("contact saved", "name", args[3])
}
