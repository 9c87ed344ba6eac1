package config

// ApplyDefaults fills unset fields.
func ApplyDefaults(cfg *Config) {
	if cfg.Version == "" {
		cfg.Version = CurrentVersion
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = LogLevelInfo
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = LogFormatText
	}
	if cfg.Store.Delivery == "" {
		cfg.Store.Delivery = DeliveryInline
	}
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = "./screenstore.db"
	}
	if cfg.Relay.SubjectPrefix == "" {
		cfg.Relay.SubjectPrefix = "screens"
	}
	if cfg.Sync.Interval == "" {
		cfg.Sync.Interval = "5m"
	}
	if cfg.Sync.Timeout == "" {
		cfg.Sync.Timeout = "30s"
	}
	if cfg.Metrics.ListenAddr == "" {
		cfg.Metrics.ListenAddr = ":9464"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}
