package config

import (
	"strconv"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/screenstore/internal/foundation/errors"
)

// Validate checks cfg after defaults were applied.
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return invalid("unsupported configuration version", "version", c.Version)
	}
	switch c.Store.Delivery {
	case DeliveryInline, DeliverySerial:
	default:
		return invalid("store.delivery must be inline or serial", "store.delivery", string(c.Store.Delivery))
	}
	if c.Journal.Enabled && strings.TrimSpace(c.Journal.Path) == "" {
		return invalid("journal.path is required when the journal is enabled", "journal.path", c.Journal.Path)
	}
	if c.Relay.Enabled && strings.TrimSpace(c.Relay.NATSURL) == "" {
		return invalid("relay.nats_url is required when the relay is enabled", "relay.nats_url", c.Relay.NATSURL)
	}
	if strings.ContainsAny(c.Relay.SubjectPrefix, " *>") {
		return invalid("relay.subject_prefix must be a literal subject", "relay.subject_prefix", c.Relay.SubjectPrefix)
	}
	for field, raw := range map[string]string{
		"relay.retry.initial": c.Relay.Retry.Initial,
		"relay.retry.max":     c.Relay.Retry.Max,
	} {
		if raw == "" {
			continue
		}
		if err := positiveDuration(field, raw); err != nil {
			return err
		}
	}
	if c.Relay.Retry.MaxRetries < 0 {
		return invalid("relay.retry.max_retries cannot be negative", "relay.retry.max_retries", strconv.Itoa(c.Relay.Retry.MaxRetries))
	}
	if err := positiveDuration("sync.interval", c.Sync.Interval); err != nil {
		return err
	}
	if err := positiveDuration("sync.timeout", c.Sync.Timeout); err != nil {
		return err
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return invalid("metrics.path must start with /", "metrics.path", c.Metrics.Path)
	}
	return nil
}

func positiveDuration(field, raw string) error {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return invalid(field+" must be a positive duration", field, raw)
	}
	return nil
}

func invalid(msg, field, value string) error {
	return ferrors.ConfigError(msg).
		WithContext("field", field).
		WithContext("value", value).
		Build()
}
