package obd

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/hsccorp/node-bluetooth-tcp-obd/elm"
	"github.com/hsccorp/node-bluetooth-tcp-obd/pid"
)

const (
	// DefaultWriteDelay is the period of the drain ticker. The adapter runs
	// with adaptive timing (ATAT2), so 20 commands a second is sustainable.
	DefaultWriteDelay = 50 * time.Millisecond
	// DefaultQueueCapacity bounds the number of pending commands.
	DefaultQueueCapacity = 256
	// DefaultEventBuffer is the size of the event channel.
	DefaultEventBuffer = 256
	// DefaultDialTimeout applies when Connect's context has no deadline.
	DefaultDialTimeout = 10 * time.Second
)

var protocolPattern = regexp.MustCompile(`^[0-9]$`)

// ValidateProtocol checks an ATSP protocol selector.
func ValidateProtocol(protocol string) error {
	if !protocolPattern.MatchString(protocol) {
		return fmt.Errorf("%w: %q", ErrInvalidProtocol, protocol)
	}
	return nil
}

// Config holds the settings of a Session. Build one with NewConfigBuilder.
type Config struct {
	writeDelay    time.Duration
	protocol      string
	queueCapacity int
	eventBuffer   int
	dialTimeout   time.Duration
	table         *pid.Table
	logger        *slog.Logger
	clock         clockwork.Clock
}

func (c *Config) validate() error {
	if c.writeDelay < 0 {
		return fmt.Errorf("write delay must be >= 0, got %s", c.writeDelay)
	}
	if c.queueCapacity < 0 {
		return fmt.Errorf("queue capacity must be >= 0, got %d", c.queueCapacity)
	}
	if c.eventBuffer < 0 {
		return fmt.Errorf("event buffer must be >= 0, got %d", c.eventBuffer)
	}
	if c.protocol != "" {
		return ValidateProtocol(c.protocol)
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.writeDelay == 0 {
		c.writeDelay = DefaultWriteDelay
	}
	if c.protocol == "" {
		c.protocol = elm.DefaultProtocol
	}
	if c.queueCapacity == 0 {
		c.queueCapacity = DefaultQueueCapacity
	}
	if c.eventBuffer == 0 {
		c.eventBuffer = DefaultEventBuffer
	}
	if c.dialTimeout == 0 {
		c.dialTimeout = DefaultDialTimeout
	}
	if c.table == nil {
		c.table = pid.Default()
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.clock == nil {
		c.clock = clockwork.NewRealClock()
	}
}

// WriteDelay returns the period of the drain ticker.
func (c Config) WriteDelay() time.Duration { return c.writeDelay }

// ConfigBuilder assembles a Config. Zero values fall back to the defaults.
type ConfigBuilder struct {
	config Config
}

func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

func (b *ConfigBuilder) WithWriteDelay(d time.Duration) *ConfigBuilder {
	b.config.writeDelay = d
	return b
}

func (b *ConfigBuilder) WithProtocol(protocol string) *ConfigBuilder {
	b.config.protocol = protocol
	return b
}

func (b *ConfigBuilder) WithQueueCapacity(n int) *ConfigBuilder {
	b.config.queueCapacity = n
	return b
}

func (b *ConfigBuilder) WithEventBuffer(n int) *ConfigBuilder {
	b.config.eventBuffer = n
	return b
}

func (b *ConfigBuilder) WithDialTimeout(d time.Duration) *ConfigBuilder {
	b.config.dialTimeout = d
	return b
}

// WithTable replaces the default OBD-II parameter table.
func (b *ConfigBuilder) WithTable(table *pid.Table) *ConfigBuilder {
	b.config.table = table
	return b
}

func (b *ConfigBuilder) WithLogger(logger *slog.Logger) *ConfigBuilder {
	b.config.logger = logger
	return b
}

// WithClock sets the clock that drives the drain and poll tickers.
func (b *ConfigBuilder) WithClock(clock clockwork.Clock) *ConfigBuilder {
	b.config.clock = clock
	return b
}

// Build validates the settings and fills in defaults.
func (b *ConfigBuilder) Build() (Config, error) {
	config := b.config
	if err := config.validate(); err != nil {
		return Config{}, err
	}
	config.setDefaults()
	return config, nil
}
