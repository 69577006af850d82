package autoscale

import "strings"

// Action is a scaling direction derived from an alert.
type Action string

const (
	ActionScaleUp   Action = "scale_up"
	ActionScaleDown Action = "scale_down"
)

// AlertLabels carries the identifying labels of a firing alert.
type AlertLabels struct {
	Service   string `json:"service"`
	Alertname string `json:"alertname"`
	Job       string `json:"job"`
}

// Alert is a single alert inside a monitoring webhook.
type Alert struct {
	Status      string            `json:"status"`
	Labels      AlertLabels       `json:"labels"`
	Annotations map[string]string `json:"annotations,omitempty"`
}

// WebhookPayload is the request body posted by the alerting stack.
type WebhookPayload struct {
	Alerts []Alert `json:"alerts"`
}

// DetermineAction maps an alert name to a scaling action. Alert names
// mentioning scale_up or high load scale up, scale_down or low load
// scale down. Anything else is ignored.
func DetermineAction(alertname string) (Action, bool) {
	name := strings.ToLower(alertname)
	switch {
	case strings.Contains(name, "scale_up"), strings.Contains(name, "high"):
		return ActionScaleUp, true
	case strings.Contains(name, "scale_down"), strings.Contains(name, "low"):
		return ActionScaleDown, true
	}
	return "", false
}
