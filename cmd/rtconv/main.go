package main

import (
	"fmt"
	"os"

	"richtext/internal/app"
)

func main() {
	application := app.New()
	if err := application.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "rtconv failed: %v\n", err)
		os.Exit(1)
	}
}
