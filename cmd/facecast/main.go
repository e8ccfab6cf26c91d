package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		// The daemon returns context.Canceled when a signal stops it;
		// that is a clean shutdown, not a failure.
		if errors.Is(err, context.Canceled) {
			return
		}
		fmt.Fprintln(os.Stderr, "facecast:", err)
		os.Exit(1)
	}
}
