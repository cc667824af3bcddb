// Package notify publishes build and publish events to NATS so other
// systems (CI dashboards, chat bridges) can react to debforge runs.
// Notification failures never fail a build; they degrade to warnings.
package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/debforge/internal/artifact"
	"git.home.luguber.info/inful/debforge/internal/config"
	"git.home.luguber.info/inful/debforge/internal/logfields"
)

// EventType enumerates announced events.
type EventType string

const (
	EventBuildFinished EventType = "build.finished"
	EventPublished     EventType = "artifact.published"
)

// Event is the JSON payload published on the configured subject.
type Event struct {
	Type         EventType `json:"type"`
	BuildID      string    `json:"build_id"`
	Package      string    `json:"package,omitempty"`
	Version      string    `json:"version,omitempty"`
	Architecture string    `json:"architecture,omitempty"`
	Distribution string    `json:"distribution,omitempty"`
	Status       string    `json:"status,omitempty"`
	Artifacts    []string  `json:"artifacts,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Announcer publishes events over a NATS connection.
type Announcer struct {
	conn    *nats.Conn
	subject string
}

// NewAnnouncer connects to NATS using the notify configuration.
func NewAnnouncer(cfg config.NotifyConfig) (*Announcer, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("notifications are disabled")
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name("debforge"),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	slog.Info("NATS announcer initialized", slog.String("url", cfg.URL), slog.String("subject", cfg.Subject))

	return &Announcer{conn: conn, subject: cfg.Subject}, nil
}

// AnnounceBuild publishes a build.finished event derived from the manifest.
func (a *Announcer) AnnounceBuild(m *artifact.BuildManifest) error {
	event := Event{
		Type:         EventBuildFinished,
		BuildID:      m.ID,
		Package:      m.Inputs.Package,
		Version:      m.Inputs.Version,
		Architecture: m.Inputs.Architecture,
		Distribution: m.Inputs.Distribution,
		Status:       m.Status,
	}
	for _, art := range m.Artifacts {
		event.Artifacts = append(event.Artifacts, art.Name)
	}
	return a.publish(event)
}

// AnnouncePublish publishes an artifact.published event.
func (a *Announcer) AnnouncePublish(buildID string, m *artifact.BuildManifest) error {
	event := Event{
		Type:         EventPublished,
		BuildID:      buildID,
		Package:      m.Inputs.Package,
		Version:      m.Inputs.Version,
		Architecture: m.Inputs.Architecture,
		Distribution: m.Inputs.Distribution,
		Status:       "published",
	}
	for _, art := range m.Artifacts {
		event.Artifacts = append(event.Artifacts, art.Name)
	}
	return a.publish(event)
}

func (a *Announcer) publish(event Event) error {
	event.Timestamp = time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := a.conn.Publish(a.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	slog.Debug("Published event",
		slog.String("type", string(event.Type)),
		logfields.BuildID(event.BuildID))

	return nil
}

// Close drains and closes the NATS connection.
func (a *Announcer) Close() error {
	if a.conn != nil {
		if err := a.conn.Drain(); err != nil {
			a.conn.Close()
		}
	}
	return nil
}

// Announce is a fire-and-forget helper: it builds an announcer from config,
// sends the build event, and logs (never returns) failures.
func Announce(cfg config.NotifyConfig, m *artifact.BuildManifest) {
	if !cfg.Enabled {
		return
	}
	a, err := NewAnnouncer(cfg)
	if err != nil {
		slog.Warn("Notification skipped", logfields.Error(err))
		return
	}
	defer func() { _ = a.Close() }()

	if err := a.AnnounceBuild(m); err != nil {
		slog.Warn("Notification failed", logfields.Error(err))
	}
}
