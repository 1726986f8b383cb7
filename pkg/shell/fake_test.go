package shell

import (
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/telekom/k8s-dashboard/pkg/config"
)

// fakeDialer hands out fakeConns that answer from handler and record every
// command they were asked to run.
type fakeDialer struct {
	mu        sync.Mutex
	dials     int
	closes    int
	dialErr   error
	probeErrs []error
	commands  []string
	stdins    []string
	handler   func(cmd string) Result

	// probeHangs makes that many probes block until their context ends
	probeHangs atomic.Int32

	inFlight   atomic.Int32
	overlapped atomic.Bool
}

func (d *fakeDialer) Dial(_ context.Context, _ config.SSHConfig) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.dialErr != nil {
		return nil, d.dialErr
	}
	return &fakeConn{d: d}, nil
}

func (d *fakeDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *fakeDialer) Commands() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.commands...)
}

type fakeConn struct {
	d *fakeDialer
}

func (c *fakeConn) Run(ctx context.Context, cmd string, stdin io.Reader) (Result, error) {
	if cmd == "echo ok" && c.d.probeHangs.Load() > 0 {
		c.d.probeHangs.Add(-1)
		<-ctx.Done()
		return Result{}, ctx.Err()
	}
	if c.d.inFlight.Add(1) > 1 {
		c.d.overlapped.Store(true)
	}
	defer c.d.inFlight.Add(-1)

	c.d.mu.Lock()
	defer c.d.mu.Unlock()
	if cmd == "echo ok" {
		if len(c.d.probeErrs) > 0 {
			err := c.d.probeErrs[0]
			c.d.probeErrs = c.d.probeErrs[1:]
			if err != nil {
				return Result{}, err
			}
		}
		return Result{Stdout: "ok\n"}, nil
	}
	c.d.commands = append(c.d.commands, cmd)
	if stdin != nil {
		b, _ := io.ReadAll(stdin)
		c.d.stdins = append(c.d.stdins, string(b))
	}
	if c.d.handler == nil {
		return Result{}, nil
	}
	return c.d.handler(cmd), nil
}

func (c *fakeConn) Close() error {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()
	c.d.closes++
	return nil
}

// respond answers the first matching command prefix, otherwise exit 0.
func respond(table map[string]Result) func(string) Result {
	return func(cmd string) Result {
		for prefix, res := range table {
			if strings.HasPrefix(cmd, prefix) {
				return res
			}
		}
		return Result{}
	}
}
