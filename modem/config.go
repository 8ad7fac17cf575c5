package modem

import (
	"time"
)

// Config carries everything the protocol engine needs: how to reach the
// modem, the cellular provisioning parameters, and the pacing knobs for
// polling and capture.
type Config struct {
	Dialer Dialer

	// APN is the access point name bound to the PDP context.
	APN string
	// TargetHost, TargetPort and RequestPath describe the HTTP fetch the
	// workflow performs over the cellular socket.
	TargetHost  string
	TargetPort  int
	RequestPath string

	// ATTimeout bounds ordinary command exchanges. ConnectTimeout bounds
	// the slow radio steps (attach, context activation, socket open,
	// payload send).
	ATTimeout      time.Duration
	ConnectTimeout time.Duration
	// PollAttempts and PollInterval shape the bounded receive polling.
	PollAttempts int
	PollInterval time.Duration
	// SettleDelay is the pause between workflow steps; the modem needs a
	// moment after radio-touching commands.
	SettleDelay time.Duration

	// CaptureBytes caps the per-exchange response capture. ReadSlice is
	// the transport wait per poll read; DrainWindow the quiet threshold
	// for idle drains.
	CaptureBytes int
	ReadSlice    time.Duration
	DrainWindow  time.Duration
}

func (c *Config) setDefaults() {
	if c.TargetPort == 0 {
		c.TargetPort = 80
	}
	if c.RequestPath == "" {
		c.RequestPath = "/"
	}
	if c.ATTimeout == 0 {
		c.ATTimeout = 5 * time.Second
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 30 * time.Second
	}
	if c.PollAttempts == 0 {
		c.PollAttempts = 10
	}
	if c.PollInterval == 0 {
		c.PollInterval = 500 * time.Millisecond
	}
	if c.SettleDelay == 0 {
		c.SettleDelay = 100 * time.Millisecond
	}
	if c.CaptureBytes == 0 {
		c.CaptureBytes = 4096
	}
	if c.ReadSlice == 0 {
		c.ReadSlice = 100 * time.Millisecond
	}
	if c.DrainWindow == 0 {
		c.DrainWindow = 50 * time.Millisecond
	}
}

func (c *Config) validate() error {
	if c.Dialer == nil {
		return ErrNoDialer
	}
	if c.TargetHost == "" {
		return ErrTargetRequired
	}
	return nil
}

// ConfigBuilder assembles a Config fluently and validates it on Build.
type ConfigBuilder struct {
	config Config
}

func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.config.Dialer = d
	return b
}

func (b *ConfigBuilder) WithAPN(apn string) *ConfigBuilder {
	b.config.APN = apn
	return b
}

func (b *ConfigBuilder) WithTarget(host string, port int) *ConfigBuilder {
	b.config.TargetHost = host
	b.config.TargetPort = port
	return b
}

func (b *ConfigBuilder) WithRequestPath(path string) *ConfigBuilder {
	b.config.RequestPath = path
	return b
}

func (b *ConfigBuilder) WithATTimeout(d time.Duration) *ConfigBuilder {
	b.config.ATTimeout = d
	return b
}

func (b *ConfigBuilder) WithConnectTimeout(d time.Duration) *ConfigBuilder {
	b.config.ConnectTimeout = d
	return b
}

func (b *ConfigBuilder) WithPolling(attempts int, interval time.Duration) *ConfigBuilder {
	b.config.PollAttempts = attempts
	b.config.PollInterval = interval
	return b
}

func (b *ConfigBuilder) WithSettleDelay(d time.Duration) *ConfigBuilder {
	b.config.SettleDelay = d
	return b
}

func (b *ConfigBuilder) WithCaptureBytes(n int) *ConfigBuilder {
	b.config.CaptureBytes = n
	return b
}

func (b *ConfigBuilder) WithReadSlice(d time.Duration) *ConfigBuilder {
	b.config.ReadSlice = d
	return b
}

func (b *ConfigBuilder) WithDrainWindow(d time.Duration) *ConfigBuilder {
	b.config.DrainWindow = d
	return b
}

// Build applies defaults, validates, and returns the finished Config.
func (b *ConfigBuilder) Build() (Config, error) {
	config := b.config
	config.setDefaults()
	if err := config.validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}
