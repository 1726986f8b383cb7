// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/telekom/k8s-dashboard/pkg/clustererr"
	"github.com/telekom/k8s-dashboard/pkg/config"
	"github.com/telekom/k8s-dashboard/pkg/metrics"
	"github.com/telekom/k8s-dashboard/pkg/records"
)

// Backend runs kubectl on a remote host over one long-lived SSH session.
// All operations are serialized; each one probes the session first and
// reconnects once if the session is no longer active.
type Backend struct {
	cluster    string
	params     config.SSHConfig
	dialer     Dialer
	kubectl    string
	probe      string
	probeWait  time.Duration
	scratchDir string
	log        *zap.SugaredLogger

	mu     sync.Mutex
	conn   Conn
	closed bool
}

type Option func(*Backend)

func WithDialer(d Dialer) Option { return func(b *Backend) { b.dialer = d } }

func WithKubectl(path string) Option { return func(b *Backend) { b.kubectl = path } }

func WithProbeCommand(cmd string) Option { return func(b *Backend) { b.probe = cmd } }

// WithProbeTimeout bounds each liveness probe.
func WithProbeTimeout(d time.Duration) Option { return func(b *Backend) { b.probeWait = d } }

func WithScratchDir(dir string) Option { return func(b *Backend) { b.scratchDir = dir } }

func WithLogger(log *zap.SugaredLogger) Option { return func(b *Backend) { b.log = log } }

// OptionsFromConfig translates the shell section of the dashboard config.
func OptionsFromConfig(cfg config.Shell) []Option {
	return []Option{
		WithDialer(SSHDialer{Timeout: cfg.DialTimeoutDuration(), KnownHostsPath: cfg.KnownHostsPath}),
		WithKubectl(cfg.KubectlPath),
		WithProbeCommand(cfg.ProbeCommand),
		WithProbeTimeout(cfg.ProbeTimeoutDuration()),
		WithScratchDir(cfg.ScratchDir),
	}
}

// New builds the backend and opens the session. A failed connect is a
// Connection error.
func New(ctx context.Context, cluster string, params config.SSHConfig, opts ...Option) (*Backend, error) {
	if params.Hostname == "" || params.Username == "" {
		return nil, clustererr.Configuration(nil, "ssh_config needs hostname and username")
	}
	b := &Backend{
		cluster:    cluster,
		params:     params,
		dialer:     SSHDialer{},
		kubectl:    "kubectl",
		probe:      "echo ok",
		probeWait:  5 * time.Second,
		scratchDir: "/tmp",
		log:        zap.NewNop().Sugar(),
	}
	for _, o := range opts {
		o(b)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.connectLocked(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

// Close ends the session. It is safe to call more than once.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	if b.conn == nil {
		return nil
	}
	err := b.conn.Close()
	b.conn = nil
	b.log.Infow("Closed remote session", "cluster", b.cluster, "host", b.params.Address())
	return err
}

// do holds the backend lock across the liveness probe and fn.
func (b *Backend) do(ctx context.Context, op string, fn func(ctx context.Context, conn Conn) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return clustererr.Connection(nil, "remote session for %s is closed", b.params.Address())
	}
	if b.conn == nil {
		if err := b.connectLocked(ctx); err != nil {
			return err
		}
	} else if err := b.probeLocked(ctx); err != nil {
		if !errors.Is(err, ErrSessionNotActive) {
			metrics.ShellProbeFailures.WithLabelValues(b.cluster).Inc()
			return clustererr.Connection(err, "liveness probe before %s failed", op)
		}
		b.log.Infow("Remote session not active, reconnecting", "cluster", b.cluster, "operation", op)
		metrics.ShellReconnects.WithLabelValues(b.cluster).Inc()
		_ = b.conn.Close()
		b.conn = nil
		if err := b.connectLocked(ctx); err != nil {
			return err
		}
	}
	return fn(ctx, b.conn)
}

func (b *Backend) connectLocked(ctx context.Context) error {
	conn, err := b.dialer.Dial(ctx, b.params)
	if err != nil {
		metrics.ShellConnectFailures.WithLabelValues(b.cluster).Inc()
		b.log.Warnw("Connecting to remote host failed", "cluster", b.cluster, "host", b.params.Address(), "error", err)
		return clustererr.Connection(err, "ssh to %s as %s", b.params.Address(), b.params.Username)
	}
	metrics.ShellConnects.WithLabelValues(b.cluster).Inc()
	b.log.Infow("Connected to remote host", "cluster", b.cluster, "host", b.params.Address())
	b.conn = conn
	return nil
}

func (b *Backend) probeLocked(ctx context.Context) error {
	cmd, err := renderCommand("probe", commandData{Probe: b.probe})
	if err != nil {
		return err
	}
	probeCtx, cancel := context.WithTimeout(ctx, b.probeWait)
	defer cancel()
	res, err := b.conn.Run(probeCtx, cmd, nil)
	if err != nil {
		// a hung probe on a live request means a half-open session
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: probe timed out after %s", ErrSessionNotActive, b.probeWait)
		}
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("probe exited with status %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return nil
}

// exec renders and runs one command. Only transport failures are errors.
func (b *Backend) exec(ctx context.Context, conn Conn, name string, data commandData, stdin io.Reader) (Result, error) {
	data.Kubectl = b.kubectl
	cmd, err := renderCommand(name, data)
	if err != nil {
		return Result{}, err
	}
	res, err := conn.Run(ctx, cmd, stdin)
	if err != nil {
		return res, clustererr.Connection(err, "running %s on %s", name, b.params.Address())
	}
	metrics.ShellCommands.WithLabelValues(b.cluster, strconv.Itoa(res.ExitCode)).Inc()
	b.log.Debugw("Remote command finished", "cluster", b.cluster, "command", name, "exitCode", res.ExitCode)
	return res, nil
}

// Exit statuses the remote shell uses when the command itself could not run.
const (
	exitNotExecutable = 126
	exitNotFound      = 127
)

// failure maps a non-zero kubectl exit to the error taxonomy. Only the
// API server's NotFound and AlreadyExists replies are classified; anything
// else, including a missing kubectl binary, is a Backend error.
func failure(op string, res Result, kind records.Kind, name, namespace string) error {
	msg := strings.TrimSpace(res.Stderr)
	if msg == "" {
		msg = strings.TrimSpace(res.Stdout)
	}
	if res.ExitCode == exitNotExecutable || res.ExitCode == exitNotFound {
		return clustererr.Backend(errors.New(msg), 0, "%s could not run (status %d)", op, res.ExitCode)
	}
	switch {
	case strings.Contains(msg, "Error from server (NotFound)"):
		return clustererr.NotFound(kind.String(), name, namespace)
	case strings.Contains(msg, "Error from server (AlreadyExists)"):
		return clustererr.Conflict(kind.String(), name, namespace)
	}
	return clustererr.Backend(errors.New(msg), 0, "%s exited with status %d", op, res.ExitCode)
}
