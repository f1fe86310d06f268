// Package notify announces exported releases over NATS.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/relkit/internal/config"
	rkerrors "git.home.luguber.info/inful/relkit/internal/errors"
	"git.home.luguber.info/inful/relkit/internal/export"
	"git.home.luguber.info/inful/relkit/internal/gitinfo"
	"git.home.luguber.info/inful/relkit/internal/logfields"
	"git.home.luguber.info/inful/relkit/internal/retry"
)

// Event is the JSON payload published for every export.
type Event struct {
	Project   string    `json:"project"`
	Target    string    `json:"target"`
	Version   string    `json:"version"`
	Archive   string    `json:"archive"`
	Format    string    `json:"format"`
	SHA256    string    `json:"sha256"`
	Size      int64     `json:"size"`
	Commit    string    `json:"commit,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// conn is the part of *nats.Conn the publisher needs.
type conn interface {
	Publish(subject string, data []byte) error
	FlushTimeout(timeout time.Duration) error
	Close()
}

// Publisher sends release events to NATS.
type Publisher struct {
	conn    conn
	cfg     config.NotifyConfig
	policy  retry.Policy
	project string
	head    gitinfo.Head
	now     func() time.Time
}

// Connect dials the configured NATS server, retrying transient failures
// according to policy.
func Connect(ctx context.Context, cfg config.NotifyConfig, policy retry.Policy) (*Publisher, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("release notifications are not configured")
	}

	var nc *nats.Conn
	err := policy.Do(ctx, "nats connect", func(context.Context) error {
		var cerr error
		nc, cerr = nats.Connect(cfg.NATSURL, nats.Name("relkit"), nats.Timeout(cfg.Timeout))
		if cerr != nil {
			return rkerrors.WrapRetryable(cerr, rkerrors.CategoryNetwork, rkerrors.SeverityWarning, "failed to connect to NATS").
				WithContext("url", cfg.NATSURL)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("NATS client initialized for release notifications",
		logfields.URL(cfg.NATSURL),
		"subject_prefix", cfg.SubjectPrefix)
	return newPublisher(nc, cfg, policy), nil
}

func newPublisher(c conn, cfg config.NotifyConfig, policy retry.Policy) *Publisher {
	return &Publisher{conn: c, cfg: cfg, policy: policy, now: time.Now}
}

// WithProject sets the project name and git head stamped on events.
func (p *Publisher) WithProject(name string, head gitinfo.Head) *Publisher {
	p.project = name
	p.head = head
	return p
}

// Subject returns the subject events for target are published on.
func (p *Publisher) Subject(target string) string {
	prefix := strings.TrimSuffix(p.cfg.SubjectPrefix, ".")
	if prefix == "" {
		return target
	}
	return prefix + "." + target
}

// Publish sends ev and waits for the server to acknowledge the flush.
func (p *Publisher) Publish(ctx context.Context, ev *Event) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = p.now()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := p.Subject(ev.Target)
	err = p.policy.Do(ctx, "nats publish", func(context.Context) error {
		if err := p.conn.Publish(subject, data); err != nil {
			return rkerrors.WrapRetryable(err, rkerrors.CategoryNetwork, rkerrors.SeverityWarning, "failed to publish event")
		}
		if err := p.conn.FlushTimeout(p.cfg.Timeout); err != nil {
			return rkerrors.WrapRetryable(err, rkerrors.CategoryNetwork, rkerrors.SeverityWarning, "failed to flush event")
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Debug("Published release event", "subject", subject, logfields.Target(ev.Target), logfields.Version(ev.Version))
	return nil
}

// OnExported implements export.Observer.
func (p *Publisher) OnExported(ctx context.Context, res *export.Result) {
	ev := &Event{
		Project: p.project,
		Target:  res.Target,
		Version: res.Version,
		Archive: filepath.Base(res.Archive.Path),
		Format:  string(res.Archive.Format),
		SHA256:  res.SHA256,
		Size:    res.Archive.Size,
		Commit:  p.head.Commit,
	}
	if err := p.Publish(ctx, ev); err != nil {
		slog.Warn("Failed to announce export", logfields.Target(res.Target), logfields.Error(err))
	}
}

// Close closes the NATS connection.
func (p *Publisher) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}

var _ export.Observer = (*Publisher)(nil)
