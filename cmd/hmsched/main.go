// Command hmsched is the scheduler's CLI entry point (C12): a single
// `sched` subcommand that loads a JSON DAG, runs the hierarchical
// memory-aware scheduler, and writes the resulting op order back out as
// JSON.
package main

import (
	"fmt"
	"os"

	"github.com/LeeOHzzZ/HMCOS/internal/herrors"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if herr, ok := herrors.As(err); ok {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(exitCodeFor(herr.Kind))
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func exitCodeFor(kind herrors.Kind) int {
	switch kind {
	case herrors.KindSchema:
		return 2
	case herrors.KindInvariant:
		return 3
	case herrors.KindTypeMismatch:
		return 4
	default:
		return 1
	}
}
