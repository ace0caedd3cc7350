package app

import (
	"context"
	"fmt"

	"github.com/vk/flowdbg/internal/ctxlog"
	"github.com/vk/flowdbg/internal/debug"
	"github.com/vk/flowdbg/internal/debugstream"
	"github.com/vk/flowdbg/internal/tensor"
)

// Run executes the configured fetches and targets against the session and
// prints the fetched tensors.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(ctx)
		defer a.closeHealthcheckServer(ctx)
	}

	if err := a.installObservers(ctx); err != nil {
		return err
	}

	a.logger.Info("🚀 Starting graph execution...", "fetches", a.config.Fetches, "targets", a.config.Targets)
	outs, err := a.session.Run(ctx, nil, a.config.Fetches, a.config.Targets)
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	a.logger.Info("🏁 Execution finished.")

	for i, out := range outs {
		fmt.Fprintf(a.outW, "%s = %s %v\n", a.config.Fetches[i], out, out.Values())
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// installObservers wires the trace logger and the optional debug stream into
// the session's hooks. Both observe every node, so they are composed into a
// single callback per hook.
func (a *App) installObservers(ctx context.Context) error {
	var completions []debug.CompletionCallback
	var values []debug.ValueCallback

	if a.config.Trace {
		completions = append(completions, func(nodeName string, completionTimestamp int64, isRef bool) {
			a.logger.Info("▶️ Node completed.", "node", nodeName, "timestamp", completionTimestamp, "is_ref", isRef)
		})
		values = append(values, func(nodeName string, value *tensor.Tensor, isRef bool) {
			a.logger.Info("Node value observed.", "node", nodeName, "value", value.String(), "is_ref", isRef)
		})
	}

	if a.config.DebugStreamURL != "" {
		streamer, err := debugstream.Dial(ctx, debugstream.Config{URL: a.config.DebugStreamURL})
		if err != nil {
			return fmt.Errorf("failed to connect debug stream: %w", err)
		}
		completions = append(completions, streamer.CompletionCallback())
		values = append(values, streamer.ValueCallback())
	}

	if len(completions) > 0 {
		a.session.SetCompletionCallback(func(nodeName string, completionTimestamp int64, isRef bool) {
			for _, cb := range completions {
				cb(nodeName, completionTimestamp, isRef)
			}
		})
	}
	if len(values) > 0 {
		a.session.SetValueCallback(func(nodeName string, value *tensor.Tensor, isRef bool) {
			for _, cb := range values {
				cb(nodeName, value, isRef)
			}
		})
	}
	return nil
}
