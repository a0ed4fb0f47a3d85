package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

func main() {
	// Missing .env just means the environment is the only config source.
	_ = godotenv.Load()

	ctx := context.Background()
	root, a := newRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		if a.logg != nil {
			a.logg.Error(a.logg.WithField(ctx, "dump", pkgerrors.Dump(err)), "command failed", err)
		}
		fmt.Fprintln(os.Stderr, "Error:", pkgerrors.UserMessage(err))
		os.Exit(1)
	}
}
