// Package debugstream forwards node completion and value observations to an
// external socket.io endpoint, so a debugger UI can watch a run node by node.
package debugstream

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/vk/flowdbg/internal/ctxlog"
	"github.com/vk/flowdbg/internal/debug"
	"github.com/vk/flowdbg/internal/tensor"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

const (
	// EventNodeCompletion is emitted once per executed node, after its
	// outputs commit.
	EventNodeCompletion = "node_completion"
	// EventNodeValue carries the node's primary output value.
	EventNodeValue = "node_value"

	defaultTimeout = 10 * time.Second
)

// Config describes the endpoint to stream to.
type Config struct {
	// URL is the full endpoint URL, including the engine.io path.
	URL string
	// Namespace is the socket.io namespace to join. Empty means the root
	// namespace.
	Namespace string
	// Timeout bounds the initial connection handshake. Zero means 10s.
	Timeout time.Duration
	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool
}

// Streamer is a connected socket.io client that translates debug hook
// invocations into emitted events. Emission is fire-and-forget; a slow or
// dead endpoint never blocks graph execution beyond the client's own buffer.
type Streamer struct {
	io      *socket.Socket
	manager *socket.Manager
}

// Dial connects to the endpoint and waits for the handshake to complete.
func Dial(ctx context.Context, cfg Config) (*Streamer, error) {
	logger := ctxlog.FromContext(ctx).With("url", cfg.URL, "namespace", cfg.Namespace)
	logger.Debug("Connecting debug stream.")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(cfg.Namespace, opts)

	var isConnected atomic.Bool
	done := make(chan error, 1)
	io.On(types.EventName("connect"), func(...any) {
		isConnected.Store(true)
		logger.Info("🩺 Debug stream connected.", "sid", io.Id())
		done <- nil
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		if len(errs) > 0 {
			if err, ok := errs[0].(error); ok {
				done <- err
				return
			}
		}
		done <- fmt.Errorf("connect_error")
	})

	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	io.Connect()
	select {
	case <-opCtx.Done():
		io.Disconnect()
		if isConnected.Load() {
			return nil, fmt.Errorf("handshake timed out after transport connect")
		}
		return nil, fmt.Errorf("timed out while waiting for initial connection")
	case err := <-done:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("debug stream connect failed: %w", err)
		}
	}

	return &Streamer{io: io, manager: manager}, nil
}

// CompletionCallback returns a hook that emits one EventNodeCompletion per
// executed node.
func (s *Streamer) CompletionCallback() debug.CompletionCallback {
	return func(nodeName string, completionTimestamp int64, isRef bool) {
		s.io.Emit(EventNodeCompletion, completionPayload(nodeName, completionTimestamp, isRef))
	}
}

// ValueCallback returns a hook that emits one EventNodeValue per executed
// node, carrying the primary output's shape and contents.
func (s *Streamer) ValueCallback() debug.ValueCallback {
	return func(nodeName string, value *tensor.Tensor, isRef bool) {
		s.io.Emit(EventNodeValue, valuePayload(nodeName, value, isRef))
	}
}

// Close disconnects the client.
func (s *Streamer) Close() {
	s.io.Disconnect()
}

func completionPayload(nodeName string, completionTimestamp int64, isRef bool) map[string]any {
	return map[string]any{
		"node":      nodeName,
		"timestamp": completionTimestamp,
		"is_ref":    isRef,
	}
}

func valuePayload(nodeName string, value *tensor.Tensor, isRef bool) map[string]any {
	payload := map[string]any{
		"node":        nodeName,
		"is_ref":      isRef,
		"initialized": value.Initialized(),
		"shape":       value.Shape(),
	}
	if value.Initialized() {
		payload["values"] = value.Values()
	}
	return payload
}
