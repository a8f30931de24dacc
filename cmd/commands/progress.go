package commands

import (
	"fmt"
	"os"

	"cipherdrop/internal/domain/entity"
)

func printProgress(p entity.Progress) {
	if p.Indeterminate || p.Total <= 0 {
		fmt.Fprintf(os.Stderr, "\r%-20s %d bytes", p.State, p.Loaded) //nolint

		return
	}

	fmt.Fprintf(os.Stderr, "\r%-20s %5.1f%%", p.State, p.Fraction()*100) //nolint
}
