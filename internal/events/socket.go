package events

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/specialistvlad/buildmodels/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// DialOptions configures the socket.io connection.
type DialOptions struct {
	Namespace          string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// SocketSink emits events over a connected socket.io client.
type SocketSink struct {
	io *socket.Socket
}

// Dial connects to the socket.io server at rawURL and waits for the
// connection to be established.
func Dial(ctx context.Context, rawURL string, opts DialOptions) (*SocketSink, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse events URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("events URL %q must include a scheme and host", rawURL)
	}
	namespace := opts.Namespace
	if namespace == "" {
		namespace = "/"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logger := ctxlog.FromContext(ctx).With("events_url", rawURL, "namespace", namespace)

	ioOpts := socket.DefaultOptions()
	if parsed.Path != "" {
		ioOpts.SetPath(parsed.Path)
	}
	if opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification for event stream")
		ioOpts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	ioOpts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host), ioOpts)
	io := manager.Socket(namespace, ioOpts)

	connected := make(chan error, 1)
	io.On(types.EventName("connect"), func(...any) {
		select {
		case connected <- nil:
		default:
		}
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connection refused")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		select {
		case connected <- err:
		default:
		}
	})
	io.Connect()

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("failed to connect to event stream: %w", err)
		}
	case <-dialCtx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("timed out connecting to event stream: %w", dialCtx.Err())
	}

	logger.Info("Connected to event stream.", "sid", io.Id())
	return &SocketSink{io: io}, nil
}

// Send implements Sink.
func (s *SocketSink) Send(name string, payload map[string]any) error {
	return s.io.Emit(name, payload)
}

// Close disconnects the client.
func (s *SocketSink) Close() error {
	s.io.Disconnect()
	return nil
}
