package autoscale

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Runtime manages container instances of a service, addressed by their
// container name prefix. ScaleUp also receives the network alias new
// instances must join for DNS load balancing.
type Runtime interface {
	Count(ctx context.Context, prefix string) (int, error)
	ScaleUp(ctx context.Context, prefix, alias string) error
	ScaleDown(ctx context.Context, prefix string) error
}

// Result describes the outcome of one scaling attempt.
type Result struct {
	Service string `json:"service"`
	Action  Action `json:"action"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Scaler turns firing alerts into scaling actions, bounded by instance
// limits and a per (service, action) cooldown.
type Scaler struct {
	runtime  Runtime
	actions  *ActionLog
	services ServiceMap
	min      int
	max      int
	log      *zap.Logger
}

// NewScaler creates a Scaler.
func NewScaler(runtime Runtime, actions *ActionLog, services ServiceMap, minInstances, maxInstances int, log *zap.Logger) *Scaler {
	return &Scaler{
		runtime:  runtime,
		actions:  actions,
		services: services,
		min:      minInstances,
		max:      maxInstances,
		log:      log,
	}
}

// HandleWebhook processes every firing alert in the payload and returns
// one result per attempted scaling action. Alerts that are not firing,
// name no service, or carry an unrecognized alert name are skipped.
func (s *Scaler) HandleWebhook(ctx context.Context, payload *WebhookPayload) []Result {
	results := make([]Result, 0, len(payload.Alerts))

	for _, alert := range payload.Alerts {
		if alert.Status != "firing" {
			continue
		}

		service := alert.Labels.Service
		if service == "" {
			service = alert.Labels.Job
		}
		if service == "" {
			continue
		}

		action, ok := DetermineAction(alert.Labels.Alertname)
		if !ok {
			continue
		}

		results = append(results, s.scale(ctx, service, action))
	}

	return results
}

func (s *Scaler) scale(ctx context.Context, service string, action Action) Result {
	prefix := s.services.ContainerPrefix(service)

	if !s.actions.CanScale(prefix, action) {
		s.log.Info("scaling_skipped_cooldown",
			zap.String("target_service", service),
			zap.String("action", string(action)))
		return Result{
			Service: service,
			Action:  action,
			Message: fmt.Sprintf("skipping %s for %s: cooldown period active", action, service),
		}
	}

	current, err := s.runtime.Count(ctx, prefix)
	if err != nil {
		s.log.Error("instance_count_failed",
			zap.String("target_service", service),
			zap.Error(err))
		return Result{Service: service, Action: action, Message: err.Error()}
	}

	target := current
	if action == ActionScaleUp {
		target = min(current+1, s.max)
	} else {
		target = max(current-1, s.min)
	}

	if target == current {
		return Result{
			Service: service,
			Action:  action,
			Message: fmt.Sprintf("skipping %s for %s: already at target count %d", action, service, current),
		}
	}

	if action == ActionScaleUp {
		err = s.runtime.ScaleUp(ctx, prefix, s.services.Alias(prefix))
	} else {
		err = s.runtime.ScaleDown(ctx, prefix)
	}
	if err != nil {
		s.log.Error("scaling_failed",
			zap.String("target_service", service),
			zap.String("action", string(action)),
			zap.Error(err))
		return Result{Service: service, Action: action, Message: err.Error()}
	}

	s.actions.Record(prefix, action)
	s.log.Info("scaling_applied",
		zap.String("target_service", service),
		zap.String("container_prefix", prefix),
		zap.String("action", string(action)),
		zap.Int("from", current),
		zap.Int("to", target))

	return Result{
		Service: service,
		Action:  action,
		Success: true,
		Message: fmt.Sprintf("successfully applied %s to %s: %d instances to %d", action, service, current, target),
	}
}
