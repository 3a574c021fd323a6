// Package probe infers whether a TCP service is accepting connections by
// dialing its ports and hanging up straight away. It is a best-effort,
// point-in-time signal: no protocol is spoken and nothing is retried.
package probe

import (
	"context"
	"net"
	"strconv"
	"time"
)

// DefaultTimeout bounds a single connect attempt.
const DefaultTimeout = 2 * time.Second

// TargetResult is the outcome of dialing one address.
type TargetResult struct {
	Address string
	OK      bool
	Latency time.Duration
	Err     error
}

// Result holds the targets that were dialed, in order. Targets after the
// first failure are not attempted and do not appear.
type Result struct {
	Targets []TargetResult
}

// Up reports whether every target accepted a connection.
func (r Result) Up() bool {
	if len(r.Targets) == 0 {
		return false
	}
	for _, t := range r.Targets {
		if !t.OK {
			return false
		}
	}
	return true
}

// Failed returns the failing target, if any.
func (r Result) Failed() (TargetResult, bool) {
	for _, t := range r.Targets {
		if !t.OK {
			return t, true
		}
	}
	return TargetResult{}, false
}

// Prober checks service liveness.
type Prober interface {
	Probe(ctx context.Context) Result
}

type dialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// TCPProber dials a fixed list of addresses in order.
type TCPProber struct {
	addresses []string
	timeout   time.Duration
	dial      dialFunc
}

// NewTCPProber creates a prober for host:port for each port, dialed in the
// given order. A non-positive timeout falls back to DefaultTimeout.
func NewTCPProber(host string, ports []int, timeout time.Duration) *TCPProber {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	addresses := make([]string, 0, len(ports))
	for _, port := range ports {
		addresses = append(addresses, net.JoinHostPort(host, strconv.Itoa(port)))
	}
	dialer := &net.Dialer{}
	return &TCPProber{
		addresses: addresses,
		timeout:   timeout,
		dial:      dialer.DialContext,
	}
}

// Addresses returns the dialed addresses in order.
func (p *TCPProber) Addresses() []string {
	out := make([]string, len(p.addresses))
	copy(out, p.addresses)
	return out
}

// Probe connects to each address and closes the connection immediately,
// stopping at the first failure. Errors are recorded, never returned.
func (p *TCPProber) Probe(ctx context.Context) Result {
	result := Result{Targets: make([]TargetResult, 0, len(p.addresses))}
	for _, addr := range p.addresses {
		tr := p.probeOne(ctx, addr)
		result.Targets = append(result.Targets, tr)
		if !tr.OK {
			break
		}
	}
	return result
}

// IsUp is Probe collapsed to a bool.
func (p *TCPProber) IsUp(ctx context.Context) bool {
	return p.Probe(ctx).Up()
}

func (p *TCPProber) probeOne(ctx context.Context, addr string) TargetResult {
	dctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	conn, err := p.dial(dctx, "tcp", addr)
	latency := time.Since(start)
	if err != nil {
		return TargetResult{Address: addr, Latency: latency, Err: err}
	}
	if err := conn.Close(); err != nil {
		return TargetResult{Address: addr, Latency: latency, Err: err}
	}
	return TargetResult{Address: addr, OK: true, Latency: latency}
}
