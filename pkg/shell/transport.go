package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/telekom/k8s-dashboard/pkg/config"
)

// ErrSessionNotActive is the probe failure that triggers a reconnect.
var ErrSessionNotActive = errors.New("session not active")

// Result is the outcome of one remote command that ran to completion.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Conn runs commands on an established remote session.
type Conn interface {
	// Run executes cmd with stdin attached. A non-zero exit is reported in
	// Result, not as an error. Errors mean the command could not run.
	Run(ctx context.Context, cmd string, stdin io.Reader) (Result, error)
	Close() error
}

// Dialer opens remote sessions.
type Dialer interface {
	Dial(ctx context.Context, params config.SSHConfig) (Conn, error)
}

// SSHDialer dials with golang.org/x/crypto/ssh.
type SSHDialer struct {
	Timeout time.Duration
	// KnownHostsPath enables host key verification. Empty accepts any host key.
	KnownHostsPath string
}

func (d SSHDialer) Dial(ctx context.Context, params config.SSHConfig) (Conn, error) {
	auth, err := authMethods(params)
	if err != nil {
		return nil, err
	}
	hostKeyCallback := ssh.InsecureIgnoreHostKey() //nolint:gosec // host keys are only pinned when a known_hosts file is configured
	if d.KnownHostsPath != "" {
		hostKeyCallback, err = knownhosts.New(d.KnownHostsPath)
		if err != nil {
			return nil, fmt.Errorf("loading known hosts %s: %w", d.KnownHostsPath, err)
		}
	}
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	clientConfig := &ssh.ClientConfig{
		User:            params.Username,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         timeout,
	}

	addr := params.Address()
	dialer := net.Dialer{Timeout: timeout}
	netConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	c, chans, reqs, err := ssh.NewClientConn(netConn, addr, clientConfig)
	if err != nil {
		_ = netConn.Close()
		return nil, fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}
	return &sshConn{client: ssh.NewClient(c, chans, reqs)}, nil
}

func authMethods(params config.SSHConfig) ([]ssh.AuthMethod, error) {
	if params.KeyPath != "" {
		pem, err := os.ReadFile(params.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("reading private key %s: %w", params.KeyPath, err)
		}
		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			return nil, fmt.Errorf("parsing private key %s: %w", params.KeyPath, err)
		}
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
	}
	password := params.Password
	return []ssh.AuthMethod{
		ssh.Password(password),
		ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
			answers := make([]string, len(questions))
			for i := range answers {
				answers[i] = password
			}
			return answers, nil
		}),
	}, nil
}

type sshConn struct {
	client *ssh.Client
}

func (c *sshConn) Run(ctx context.Context, cmd string, stdin io.Reader) (Result, error) {
	session, err := c.client.NewSession()
	if err != nil {
		// the transport is gone; only a new client can recover
		return Result{}, fmt.Errorf("%w: %v", ErrSessionNotActive, err)
	}
	defer func() { _ = session.Close() }()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr
	if stdin != nil {
		session.Stdin = stdin
	}

	done := make(chan error, 1)
	go func() { done <- session.Run(cmd) }()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		_ = session.Close()
		return Result{}, ctx.Err()
	case err = <-done:
	}

	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	var exitErr *ssh.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitStatus()
	case errors.Is(err, io.EOF):
		return res, fmt.Errorf("%w: %v", ErrSessionNotActive, err)
	default:
		return res, err
	}
	return res, nil
}

func (c *sshConn) Close() error {
	return c.client.Close()
}
