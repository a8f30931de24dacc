package commands

import (
	"errors"
	"fmt"
)

func HandleKeygen(args []string) {
	if len(args) < 3 {
		ExitOnError(errors.New("at least 1 arguments expected\nuse help command for more information"))
	}

	s := setup(args[2])
	defer s.close()

	identity := s.cfg.Identity
	if len(args) > 3 {
		identity = args[3]
	}

	if _, err := s.keys.Generate(identity); err != nil {
		ExitOnError(err)
	}

	pub, err := s.keys.OwnPublicKeyPEM(identity)
	if err != nil {
		ExitOnError(err)
	}

	fmt.Print(string(pub)) //nolint
}
