// Package main is a minimal HTTP health check binary for use in distroless
// containers. It exits 0 when the /status endpoint returns HTTP 200, and 1
// otherwise. The port defaults to 8080 and can be passed as the first
// argument or via HOSTSTATUS_PORT. Compile with CGO_ENABLED=0 for a fully
// static binary.
package main

import (
	"net/http"
	"os"
	"time"
)

func main() {
	if !healthy(statusURL(os.Args[1:], os.Getenv("HOSTSTATUS_PORT"))) {
		os.Exit(1)
	}
}

func statusURL(args []string, envPort string) string {
	port := "8080"
	if envPort != "" {
		port = envPort
	}
	if len(args) > 0 && args[0] != "" {
		port = args[0]
	}
	return "http://localhost:" + port + "/status"
}

func healthy(url string) bool {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
