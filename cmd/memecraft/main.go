package main

import (
	"context"
	"fmt"
	"os"

	"github.com/atul-1602/memecraft/internal/cmd"
)

func main() {
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "memecraft:", err)
		os.Exit(1)
	}
}
