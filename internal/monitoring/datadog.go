// Package monitoring translates monitoring webhook payloads into ticket
// intake requests. Only the Datadog webhook format is supported.
package monitoring

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/siftlabs/sift/internal/ticket"
)

// ErrInvalidPayload means a webhook payload is missing required fields.
var ErrInvalidPayload = errors.New("invalid monitoring payload")

// DatadogReporter and DatadogDepartment are stamped on every monitoring
// ticket so dashboards can separate machine-filed reports from human ones.
const (
	DatadogReporter   = "Datadog Monitor"
	DatadogDepartment = "Infrastructure"
)

// DatadogAlert is the subset of the Datadog webhook payload we consume.
type DatadogAlert struct {
	Title       string `json:"title"`
	Text        string `json:"text"`
	Host        string `json:"host"`
	MonitorName string `json:"monitor_name"`
	MonitorID   any    `json:"monitor_id"`
	Date        *int64 `json:"date"`
	AlertType   string `json:"alert_type"`
	Priority    string `json:"priority"`
	EventType   string `json:"event_type"`
}

// ParseDatadogAlert converts a Datadog webhook payload into a ticket intake
// request. The description is enriched with host, monitor, and alert-time
// context, and ForceP1 is set when the alerting source already classified
// the event as critical.
func ParseDatadogAlert(a DatadogAlert) (ticket.CreateInput, error) {
	title := strings.TrimSpace(a.Title)
	text := strings.TrimSpace(a.Text)
	if title == "" || text == "" {
		return ticket.CreateInput{}, fmt.Errorf("%w: must include non-empty 'title' and 'text'", ErrInvalidPayload)
	}

	parts := []string{text}
	if a.Host != "" {
		parts = append(parts, "Host: "+a.Host)
	}
	if a.MonitorName != "" {
		parts = append(parts, "Monitor: "+a.MonitorName)
	}
	if a.Date != nil {
		at := time.Unix(*a.Date, 0).UTC()
		parts = append(parts, "Alert time: "+at.Format("2006-01-02T15:04:05")+"Z")
	}

	metadata := map[string]any{
		"alert_type":   a.AlertType,
		"priority":     a.Priority,
		"event_type":   a.EventType,
		"monitor_id":   a.MonitorID,
		"monitor_name": a.MonitorName,
		"host":         a.Host,
	}

	alertType := strings.ToLower(strings.TrimSpace(a.AlertType))
	priority := strings.ToUpper(strings.TrimSpace(a.Priority))
	eventType := strings.ToLower(strings.TrimSpace(a.EventType))
	forceP1 := alertType == "error" || priority == "P1" || eventType == "triggered"

	return ticket.CreateInput{
		Title:       title,
		Description: strings.Join(parts, "\n"),
		Reporter:    DatadogReporter,
		Department:  DatadogDepartment,
		Source:      ticket.SourceDatadog,
		Metadata:    metadata,
		ForceP1:     forceP1,
	}, nil
}
