package main

import (
	"errors"
	"fmt"
	"strconv"
)

var errUsage = errors.New("expected exactly two arguments: <port> <ip>")

// parseArgs reads the positional listening port and IP address.
func parseArgs(args []string) (int, string, error) {
	if len(args) != 2 {
		return 0, "", errUsage
	}

	port, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, "", fmt.Errorf("invalid port %q: %w", args[0], err)
	}
	if port <= 0 || port > 65535 {
		return 0, "", fmt.Errorf("port %d out of range 1-65535", port)
	}

	if args[1] == "" {
		return 0, "", errors.New("ip cannot be empty")
	}

	return port, args[1], nil
}
