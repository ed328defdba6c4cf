// cmd/server/main.go
package main

import (
	"fmt"
	"os"
	"strconv"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/azuelle/coinduel/internal/auth"
	"github.com/azuelle/coinduel/internal/config"
	"github.com/azuelle/coinduel/internal/server"
)

const usage = "Usage: coinduel-server <port> <path/to/UserInfo.txt> [--debug]"

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

	port, err := strconv.Atoi(args[0])
	if err != nil || port < 0 || port > 65535 {
		logger.Fatalf("invalid port: %s", args[0])
	}

	users, err := auth.LoadDirectory(args[1], logger)
	if err != nil {
		logger.Fatalf("failed to load user info: %v", err)
	}

	srv := server.New(users, config.Load(), logger)
	if err := srv.ListenAndServe(port); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
