package main

import (
	"os"

	"github.com/orderfall/orderfall/pkg/logging"
)

func main() {
	logger := logging.Setup(logging.FromEnv())

	if err := run(logger); err != nil {
		logger.Error("orderfall failed", "error", err)
		os.Exit(1)
	}
}
