package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"hoststatus/internal/api"
	"hoststatus/internal/config"
	"hoststatus/internal/hostmetrics"
	"hoststatus/internal/models"
	"hoststatus/internal/probe"
	"hoststatus/internal/ratelimit"
	"hoststatus/internal/server"
	"hoststatus/internal/status"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration tests that run the status server end-to-end against the real
// host and loopback stand-ins for the search node.

// searchNode accepts connections on two loopback ports, standing in for the
// HTTP and transport ports of a local search node.
type searchNode struct {
	listeners []net.Listener
	wg        sync.WaitGroup
}

func startSearchNode(t *testing.T) *searchNode {
	t.Helper()
	node := &searchNode{}
	for i := 0; i < 2; i++ {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		node.listeners = append(node.listeners, ln)

		node.wg.Add(1)
		go func() {
			defer node.wg.Done()
			for {
				conn, err := ln.Accept()
				if err != nil {
					return
				}
				conn.Close()
			}
		}()
	}
	t.Cleanup(node.stop)
	return node
}

func (n *searchNode) ports() []int {
	ports := make([]int, 0, len(n.listeners))
	for _, ln := range n.listeners {
		ports = append(ports, ln.Addr().(*net.TCPAddr).Port)
	}
	return ports
}

func (n *searchNode) stopTransport() {
	n.listeners[1].Close()
}

func (n *searchNode) stop() {
	for _, ln := range n.listeners {
		ln.Close()
	}
	n.wg.Wait()
}

// runningServer wires the same components as the hoststatus binary and
// serves them on an ephemeral loopback port.
type runningServer struct {
	srv    *server.Server
	cancel context.CancelFunc
	done   chan error
}

func startServer(t *testing.T, cfg *models.Config, opts ...api.RouteOption) *runningServer {
	t.Helper()

	collector := hostmetrics.NewSystemCollector(hostmetrics.Config{
		DiskPath:          cfg.Metrics.DiskPath,
		CPUSampleInterval: cfg.Metrics.CPUSampleInterval,
	})
	prober := probe.NewTCPProber(cfg.Probe.Host, cfg.Probe.Ports, cfg.Probe.Timeout)
	handlers := api.NewHandlers(status.NewAggregator(collector, prober))
	router := api.SetupRoutes(handlers, opts...)

	srv := server.New(server.Config{
		Host:            "127.0.0.1",
		Port:            0,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, router)

	ctx, cancel := context.WithCancel(context.Background())
	rs := &runningServer{srv: srv, cancel: cancel, done: make(chan error, 1)}
	go func() {
		rs.done <- srv.Run(ctx)
	}()

	select {
	case <-srv.Ready():
	case err := <-rs.done:
		cancel()
		t.Fatalf("server exited before ready: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("server did not become ready")
	}

	t.Cleanup(func() { rs.stop(t) })
	return rs
}

func (rs *runningServer) url(path string) string {
	return "http://" + rs.srv.Addr().String() + path
}

func (rs *runningServer) stop(t *testing.T) {
	rs.cancel()
	select {
	case err := <-rs.done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}

func testConfig(node *searchNode) *models.Config {
	cfg := models.NewDefaultConfig()
	cfg.Probe.Host = "127.0.0.1"
	cfg.Probe.Ports = node.ports()
	cfg.Probe.Timeout = time.Second
	cfg.Server.ShutdownTimeout = 5 * time.Second
	return cfg
}

func getStatus(t *testing.T, url string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]interface{}
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp, body
}

func TestIntegration_FullStatusFlow(t *testing.T) {
	node := startSearchNode(t)
	rs := startServer(t, testConfig(node))

	// Step 1: search node reachable on both ports
	resp, body := getStatus(t, rs.url("/status"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, models.StatusSchemaVersion, resp.Header.Get("X-Status-Schema"))

	assert.Len(t, body, 5)
	assert.Equal(t, true, body["elasticsearch_up"])
	for _, key := range []string{"cpu", "virtual_memory", "swap_memory", "disk_usage"} {
		v, ok := body[key].(float64)
		require.True(t, ok, "%s should be a number", key)
		assert.GreaterOrEqual(t, v, 0.0, key)
		assert.LessOrEqual(t, v, 100.0, key)
	}

	// Step 2: transport port goes away
	node.stopTransport()

	resp, body = getStatus(t, rs.url("/status"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["elasticsearch_up"])

	// Step 3: anything other than GET /status is refused
	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/status"},
		{http.MethodPut, "/status"},
		{http.MethodGet, "/"},
		{http.MethodGet, "/metrics"},
		{http.MethodGet, "/status/"},
	} {
		req, err := http.NewRequest(tc.method, rs.url(tc.path), nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)

		assert.Equal(t, http.StatusForbidden, resp.StatusCode, "%s %s", tc.method, tc.path)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		assert.Empty(t, data)
	}
}

func TestIntegration_ServiceDown(t *testing.T) {
	node := startSearchNode(t)
	cfg := testConfig(node)
	node.stop()

	rs := startServer(t, cfg)

	resp, body := getStatus(t, rs.url("/status"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["elasticsearch_up"])
}

func TestIntegration_ErrorHandling(t *testing.T) {
	node := startSearchNode(t)
	cfg := testConfig(node)
	cfg.Metrics.DiskPath = filepath.Join(t.TempDir(), "does-not-exist")

	rs := startServer(t, cfg)

	resp, err := http.Get(rs.url("/status"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var errResp models.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	assert.Equal(t, models.ErrorCodeMetricsUnavailable, errResp.Code)
	assert.Contains(t, errResp.Message, "does-not-exist")
}

func TestIntegration_ConcurrentRequests(t *testing.T) {
	node := startSearchNode(t)
	rs := startServer(t, testConfig(node))

	const numRequests = 20
	var wg sync.WaitGroup
	results := make(chan int, numRequests)

	for i := 0; i < numRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := http.Get(rs.url("/status"))
			if err != nil {
				results <- 0
				return
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			results <- resp.StatusCode
		}()
	}

	wg.Wait()
	close(results)

	successCount := 0
	for code := range results {
		if code == http.StatusOK {
			successCount++
		}
	}
	assert.Equal(t, numRequests, successCount)
}

func TestIntegration_RateLimit(t *testing.T) {
	node := startSearchNode(t)

	limiter := ratelimit.NewMemoryLimiter(60, 1, time.Minute)
	defer limiter.Close()

	rs := startServer(t, testConfig(node), api.WithRateLimit(limiter, false))

	resp, _ := getStatus(t, rs.url("/status"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = getStatus(t, rs.url("/status"))
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
}

func TestIntegration_ConfigLoading(t *testing.T) {
	node := startSearchNode(t)
	ports := node.ports()

	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "hoststatus.yaml")
	configContent := fmt.Sprintf(`
server:
  port: 18080
  host: "127.0.0.1"
  shutdown_timeout: 5s

probe:
  host: "127.0.0.1"
  ports: [%d, %d]
  timeout: 1s

metrics:
  disk_path: %q

logging:
  level: "debug"
  format: "text"
`, ports[0], ports[1], tempDir)

	require.NoError(t, os.WriteFile(configFile, []byte(configContent), 0644))

	cfg, err := config.Load(configFile)
	require.NoError(t, err)
	assert.Equal(t, ports, cfg.Probe.Ports)
	assert.Equal(t, tempDir, cfg.Metrics.DiskPath)

	rs := startServer(t, cfg)

	resp, body := getStatus(t, rs.url("/status"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["elasticsearch_up"])
}

func TestIntegration_GracefulShutdown(t *testing.T) {
	node := startSearchNode(t)
	rs := startServer(t, testConfig(node))
	addr := rs.srv.Addr().String()

	resp, _ := getStatus(t, rs.url("/status"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rs.cancel()
	select {
	case err := <-rs.done:
		require.NoError(t, err)
		rs.done <- nil
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.Equal(t, server.StateStopped, rs.srv.State())

	_, err := net.DialTimeout("tcp", addr, time.Second)
	assert.Error(t, err)
}
