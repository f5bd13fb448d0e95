package main

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/hsccorp/node-bluetooth-tcp-obd/obd"
)

// Config holds the application configuration
type Config struct {
	// ConnType selects the transport: "bluetooth", "serial" or "tcp"
	ConnType string `yaml:"conn_type"`
	// Target is the device path (e.g. "/dev/rfcomm0") or "host:port" of the adapter
	Target string `yaml:"target"`
	// BaudRate is the baud rate for serial and Bluetooth adapters (e.g. 38400)
	BaudRate int `yaml:"baud_rate"`
	// Protocol is the ATSP selector, "0" for automatic
	Protocol string `yaml:"protocol"`
	// WriteDelay is the interval between two commands sent to the adapter,
	// written as a duration string (e.g. "50ms"). A bare number is nanoseconds.
	WriteDelay time.Duration `yaml:"write_delay"`
	// PollInterval is the polling period as a duration string (e.g. "1s");
	// zero derives it from the pollers
	PollInterval time.Duration `yaml:"poll_interval"`
	// Pollers lists the parameter names requested on every poll
	Pollers []string `yaml:"pollers"`
	// BindAddress is the address the server listens on (e.g. "0.0.0.0:8080")
	BindAddress string `yaml:"bind_address"`
	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string `yaml:"log_level"`
}

// ErrInvalidPeriod is returned by LoadConfig for a negative or
// sub-millisecond write delay or poll interval.
var ErrInvalidPeriod = errors.New("invalid period")

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	if err := obd.ValidateProtocol(config.Protocol); err != nil {
		return nil, err
	}
	if err := validatePeriod("write_delay", config.WriteDelay); err != nil {
		return nil, err
	}
	if err := validatePeriod("poll_interval", config.PollInterval); err != nil {
		return nil, err
	}

	return config, nil
}

// validatePeriod rejects negative and sub-millisecond periods.
func validatePeriod(key string, d time.Duration) error {
	if d < 0 || (d > 0 && d < time.Millisecond) {
		return errors.Wrapf(ErrInvalidPeriod, "%s %s (use a duration such as \"50ms\")", key, d)
	}
	return nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.ConnType = obd.ConnBluetooth
		c.Target = "/dev/rfcomm0"
		c.BaudRate = obd.DefaultBaudRate
		c.Protocol = "0"
		c.WriteDelay = obd.DefaultWriteDelay
		c.PollInterval = 0
		c.Pollers = []string{"vss", "rpm", "temp", "load_pct", "map", "frp"}
		c.BindAddress = "0.0.0.0:8080"
		c.LogLevel = "info"
		return nil
	}
}

// WithFile loads configuration from a YAML file. An empty path is ignored.
// Fields missing from the file keep their current value.
func WithFile(path string) ConfigOption {
	return func(c *Config) error {
		if path == "" {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "read config %s", path)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return errors.Wrapf(err, "parse config %s", path)
		}
		return nil
	}
}

// WithEnv loads configuration from environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		if connType := os.Getenv("OBD_CONN_TYPE"); connType != "" {
			c.ConnType = connType
		}

		if target := os.Getenv("OBD_TARGET"); target != "" {
			c.Target = target
		}

		if baud := os.Getenv("OBD_BAUD_RATE"); baud != "" {
			if b, err := strconv.Atoi(baud); err == nil {
				c.BaudRate = b
			}
		}

		if protocol := os.Getenv("OBD_PROTOCOL"); protocol != "" {
			c.Protocol = protocol
		}

		if delay := os.Getenv("OBD_WRITE_DELAY"); delay != "" {
			if d, err := time.ParseDuration(delay); err == nil {
				c.WriteDelay = d
			}
		}

		if interval := os.Getenv("OBD_POLL_INTERVAL"); interval != "" {
			if d, err := time.ParseDuration(interval); err == nil {
				c.PollInterval = d
			}
		}

		if pollers, ok := os.LookupEnv("OBD_POLLERS"); ok {
			c.Pollers = splitList(pollers)
		}

		if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
			c.BindAddress = addr
		}

		if level := os.Getenv("LOG_LEVEL"); level != "" {
			c.LogLevel = level
		}

		return nil
	}
}

// WithFlags loads configuration from command-line flags
func WithFlags(fSet *flag.FlagSet) ConfigOption {
	return func(c *Config) error {
		fSet.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "conn-type":
				c.ConnType = f.Value.String()
			case "target":
				c.Target = f.Value.String()
			case "baud-rate":
				if b, err := strconv.Atoi(f.Value.String()); err == nil {
					c.BaudRate = b
				}
			case "protocol":
				c.Protocol = f.Value.String()
			case "write-delay":
				if d, err := time.ParseDuration(f.Value.String()); err == nil {
					c.WriteDelay = d
				}
			case "poll-interval":
				if d, err := time.ParseDuration(f.Value.String()); err == nil {
					c.PollInterval = d
				}
			case "pollers":
				c.Pollers = splitList(f.Value.String())
			case "bind-address":
				c.BindAddress = f.Value.String()
			case "log-level":
				c.LogLevel = f.Value.String()
			}
		})
		return nil
	}
}

// splitList parses a comma separated list, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
