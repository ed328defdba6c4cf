// cmd/client/main.go
package main

import (
	"fmt"
	"os"
	"strconv"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/azuelle/coinduel/internal/client"
)

const usage = "Usage: coinduel-client <server address> <server port> [--debug]"

func main() {
	args := os.Args[1:]
	if len(args) < 2 || len(args) > 3 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if len(args) == 3 {
		if args[2] != "--debug" {
			fmt.Fprintln(os.Stderr, usage)
			os.Exit(1)
		}
		logger.SetLevel(logrus.DebugLevel)
	}

	port, err := strconv.Atoi(args[1])
	if err != nil || port < 0 || port > 65535 {
		logger.Fatalf("invalid port: %s", args[1])
	}

	if err := client.Run(args[0], port, logger); err != nil {
		logger.Fatalf("client failed: %v", err)
	}
}
