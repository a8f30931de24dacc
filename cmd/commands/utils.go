package commands

import (
	"os"

	"github.com/dezh-tech/immortal/pkg/logger"
)

func ExitOnError(err error) {
	logger.Error("cipherdrop error", "err", err.Error())
	os.Exit(1)
}
