package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStatusURL(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		envPort  string
		expected string
	}{
		{name: "default", expected: "http://localhost:8080/status"},
		{name: "env", envPort: "9000", expected: "http://localhost:9000/status"},
		{name: "arg wins", args: []string{"9100"}, envPort: "9000", expected: "http://localhost:9100/status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusURL(tt.args, tt.envPort); got != tt.expected {
				t.Errorf("statusURL() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestHealthy(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	if !healthy(ok.URL + "/status") {
		t.Error("expected 200 to be healthy")
	}
	if healthy(failing.URL + "/status") {
		t.Error("expected 500 to be unhealthy")
	}
	if healthy("http://127.0.0.1:1/status") {
		t.Error("expected connection failure to be unhealthy")
	}
}
