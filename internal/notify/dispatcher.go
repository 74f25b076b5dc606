package notify

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/STOmaha/Time-to-Burn-sub002/internal/log"
)

// Dispatcher is the local-notification collaborator boundary. Dispatch
// is fire-and-forget: a rejected notification is dropped and logged,
// never retried, because by the time a retry would fire the risk
// context is stale.
type Dispatcher interface {
	Dispatch(ctx context.Context, n *SmartNotification) error
}

// LogDispatcher renders notifications to the structured log. It stands
// in for an OS-level notification center in headless deployments and in
// tests.
type LogDispatcher struct {
	tmpl *template.Template
}

const dispatchTemplate = `[{{.Priority}}] {{.Title}}
{{.Body}}
(type={{.Type}} risk={{.RiskLevel}} uv={{.AdjustedUV}} id={{.Identifier}})`

// NewLogDispatcher creates a dispatcher that renders to the log.
func NewLogDispatcher() *LogDispatcher {
	return &LogDispatcher{
		tmpl: template.Must(template.New("notification").Parse(dispatchTemplate)),
	}
}

// Dispatch renders and logs the notification.
func (d *LogDispatcher) Dispatch(_ context.Context, n *SmartNotification) error {
	var buf bytes.Buffer
	if err := d.tmpl.Execute(&buf, n); err != nil {
		return fmt.Errorf("failed to render notification: %w", err)
	}

	log.Infow("notification delivered",
		"identifier", n.Identifier,
		"type", string(n.Type),
		"priority", string(n.Priority),
		"rendered", buf.String(),
	)
	return nil
}
