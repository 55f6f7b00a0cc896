package engine

import (
	"context"

	"github.com/chatwarden/chatwarden/internal/metrics"
)

// apply carries out a verdict: ring/sink writes, gateway actions, and
// alert deliveries. Action and alert failures are logged and counted but
// never abort the remaining effects.
func (e *Engine) apply(ctx context.Context, v *verdict) {
	for _, evt := range v.events {
		e.eventLog.Record(evt)
	}
	for _, trace := range v.traces {
		e.eventLog.RecordTrace(trace)
	}

	for _, act := range v.actions {
		if err := e.issue(ctx, act); err != nil {
			metrics.ActionsIssued.WithLabelValues(act.kind, "error").Inc()
			e.logger.Error("moderation action failed",
				"action", act.kind, "user_id", act.userID, "err", err)
			continue
		}
		metrics.ActionsIssued.WithLabelValues(act.kind, "ok").Inc()
	}

	for _, a := range v.alerts {
		e.notifier.Send(ctx, a)
	}
}

func (e *Engine) issue(ctx context.Context, act plannedAction) error {
	switch act.kind {
	case "delete_message":
		return e.actions.DeleteMessage(ctx, act.channelID, act.messageID, act.reason)
	case "timeout":
		return e.actions.TimeoutUser(ctx, act.userID, act.duration, act.reason)
	case "notify":
		return e.actions.Notify(ctx, act.userID, act.title, act.body)
	default:
		return nil
	}
}
