package main

import (
	"fmt"
	"os"

	"github.com/pratik-mahalle/darkwatch/internal/cli"
	apperrors "github.com/pratik-mahalle/darkwatch/internal/pkg/errors"
)

func main() {
	if err := cli.Execute(); err != nil {
		appErr := apperrors.Present(err)
		msg := appErr.Error()
		if appErr.Silent {
			msg = appErr.Message
		}
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
		os.Exit(appErr.ExitCode)
	}
}
