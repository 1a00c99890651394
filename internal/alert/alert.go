// Package alert delivers low-health notifications to chat platforms and
// local commands.
package alert

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/zulandar/rdtrack/internal/config"
)

// Alert describes an asset whose health fell below the threshold.
type Alert struct {
	AssetID   string
	AssetName string
	Score     float64
	Threshold float64
	At        time.Time
}

// Notifier delivers an alert to one destination.
type Notifier interface {
	Notify(ctx context.Context, a Alert) error
}

// Severity is "error" for scores below half the threshold, else "warning".
func (a Alert) Severity() string {
	if a.Score < a.Threshold/2 {
		return "error"
	}
	return "warning"
}

// Color returns a sidebar color hint for the severity.
func (a Alert) Color() string {
	if a.Severity() == "error" {
		return "#d00000"
	}
	return "#daa038"
}

// Title is the one-line headline used by every notifier.
func (a Alert) Title() string {
	name := a.AssetName
	if name == "" {
		name = a.AssetID
	}
	return fmt.Sprintf("Asset %s health %.2f below %.2f", name, a.Score, a.Threshold)
}

// Multi fans an alert out to every notifier. Failures are logged and joined.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, a Alert) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, a); err != nil {
			log.Printf("alert: %T: %v", n, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FromConfig builds a Multi from every configured destination. An empty
// configuration yields an empty Multi, which delivers nothing.
func FromConfig(cfg config.AlertsConfig) (Multi, error) {
	var m Multi
	if cfg.Command != "" {
		m = append(m, Command{Template: cfg.Command})
	}
	if cfg.Slack.BotToken != "" {
		s, err := NewSlack(cfg.Slack.BotToken, cfg.Slack.Channel)
		if err != nil {
			return nil, err
		}
		m = append(m, s)
	}
	if cfg.Discord.BotToken != "" {
		d, err := NewDiscord(cfg.Discord.BotToken, cfg.Discord.ChannelID)
		if err != nil {
			return nil, err
		}
		m = append(m, d)
	}
	return m, nil
}
