// Package push decodes inbound push notification payloads and resolves
// where a notification click should navigate.
package push

import (
	"encoding/json"
	"fmt"
)

// DashboardRoute is where a click with no named action lands.
const DashboardRoute = "/dashboard"

// Action is a named button rendered on the notification.
type Action struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// Payload is the inbound push contract: rendered as a system notification
// with optional action buttons.
type Payload struct {
	Title   string         `json:"title"`
	Body    string         `json:"body"`
	Data    map[string]any `json:"data,omitempty"`
	Actions []Action       `json:"actions,omitempty"`
}

// Decode parses a push event body. Missing titles get a generic fallback so
// a malformed push still renders something.
func Decode(data []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, fmt.Errorf("push: decode payload: %w", err)
	}
	if p.Title == "" {
		p.Title = "GlamFlow"
	}
	return p, nil
}

// ClickTarget resolves the in-app route for a notification click. A click
// with no action opens the dashboard; a named action navigates to /<action>.
func ClickTarget(action string) string {
	if action == "" {
		return DashboardRoute
	}
	return "/" + action
}
