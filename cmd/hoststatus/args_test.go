package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		port     int
		ip       string
		errorMsg string
	}{
		{name: "port and ip", args: []string{"8080", "0.0.0.0"}, port: 8080, ip: "0.0.0.0"},
		{name: "loopback", args: []string{"9000", "127.0.0.1"}, port: 9000, ip: "127.0.0.1"},
		{name: "hostname", args: []string{"80", "localhost"}, port: 80, ip: "localhost"},
		{name: "no args", args: nil, errorMsg: "expected exactly two arguments"},
		{name: "missing ip", args: []string{"8080"}, errorMsg: "expected exactly two arguments"},
		{name: "extra arg", args: []string{"8080", "0.0.0.0", "x"}, errorMsg: "expected exactly two arguments"},
		{name: "swapped order", args: []string{"0.0.0.0", "8080"}, errorMsg: "invalid port"},
		{name: "port zero", args: []string{"0", "0.0.0.0"}, errorMsg: "out of range"},
		{name: "port too large", args: []string{"70000", "0.0.0.0"}, errorMsg: "out of range"},
		{name: "empty ip", args: []string{"8080", ""}, errorMsg: "ip cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port, ip, err := parseArgs(tt.args)
			if tt.errorMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.port, port)
			assert.Equal(t, tt.ip, ip)
		})
	}
}
