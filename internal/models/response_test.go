package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusSnapshot_JSONKeys(t *testing.T) {
	snapshot := StatusSnapshot{
		CPU:             12.5,
		VirtualMemory:   43.2,
		SwapMemory:      0,
		DiskUsage:       61,
		ElasticsearchUp: false,
	}

	data, err := json.Marshal(snapshot)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Len(t, decoded, 5)
	assert.Equal(t, 12.5, decoded["cpu"])
	assert.Equal(t, 43.2, decoded["virtual_memory"])
	assert.Equal(t, 0.0, decoded["swap_memory"])
	assert.Equal(t, 61.0, decoded["disk_usage"])
	assert.Equal(t, false, decoded["elasticsearch_up"])
}

func TestNewErrorResponse(t *testing.T) {
	before := time.Now()
	resp := NewErrorResponse("disk unavailable", ErrorCodeMetricsUnavailable)

	assert.Equal(t, "error", resp.Error)
	assert.Equal(t, "disk unavailable", resp.Message)
	assert.Equal(t, ErrorCodeMetricsUnavailable, resp.Code)
	assert.False(t, resp.Timestamp.Before(before))
}

func TestErrorResponse_JSONKeys(t *testing.T) {
	data, err := json.Marshal(NewErrorResponse("Rate limit exceeded", ErrorCodeRateLimited))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Len(t, decoded, 4)
	for _, key := range []string{"error", "message", "code", "timestamp"} {
		assert.Contains(t, decoded, key)
	}
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", decoded["code"])
}
