package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	// BindAddress is the address the server listens on (e.g. "0.0.0.0:8080")
	BindAddress string `env:"CELLGW_BIND_ADDRESS" yaml:"bind_address"`
	// SerialPort is the path to the modem's serial port (e.g. "/dev/ttyUSB0")
	SerialPort string `env:"CELLGW_SERIAL_PORT" yaml:"serial_port"`
	// BaudRate is the baud rate for serial communication with the modem (e.g. 921600)
	BaudRate int `env:"CELLGW_BAUD_RATE" yaml:"baud_rate"`
	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string `env:"CELLGW_LOG_LEVEL" yaml:"log_level"`
	// Apn is the access point name used when configuring the PDP context
	Apn string `env:"CELLGW_APN" yaml:"apn"`
	// TargetHost is the host the fetch workflow connects to over the data call
	TargetHost string `env:"CELLGW_TARGET_HOST" yaml:"target_host"`
	// TargetPort is the TCP port on the target host (e.g. 80)
	TargetPort int `env:"CELLGW_TARGET_PORT" yaml:"target_port"`
	// RequestPath is the path requested from the target host (e.g. "/")
	RequestPath string `env:"CELLGW_REQUEST_PATH" yaml:"request_path"`
	// LogCapacity bounds the in-memory activity log, in bytes
	LogCapacity int `env:"CELLGW_LOG_CAPACITY" yaml:"log_capacity"`
}

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

	return config, nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.BindAddress = "0.0.0.0:8080"
		c.SerialPort = "/dev/ttyUSB0"
		c.BaudRate = 921600
		c.LogLevel = "info"
		c.Apn = "internet"
		c.TargetPort = 80
		c.RequestPath = "/"
		c.LogCapacity = 16 * 1024
		return nil
	}
}

// WithFile loads configuration from a YAML file. An empty path is a no-op
// so the flag can stay optional.
func WithFile(path string) ConfigOption {
	return func(c *Config) error {
		if path == "" {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parsing config file %s: %w", path, err)
		}

		return nil
	}
}

// WithEnv loads configuration from CELLGW_-prefixed environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		return env.Parse(c)
	}
}

// WithFlags loads configuration from command-line flags
func WithFlags(fSet *flag.FlagSet) ConfigOption {
	return func(c *Config) error {
		fSet.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "bind-address":
				c.BindAddress = f.Value.String()
			case "serial-port":
				c.SerialPort = f.Value.String()
			case "baud-rate":
				if b, err := strconv.Atoi(f.Value.String()); err == nil {
					c.BaudRate = b
				}
			case "log-level":
				c.LogLevel = f.Value.String()
			case "apn":
				c.Apn = f.Value.String()
			case "target-host":
				c.TargetHost = f.Value.String()
			case "target-port":
				if p, err := strconv.Atoi(f.Value.String()); err == nil {
					c.TargetPort = p
				}
			case "request-path":
				c.RequestPath = f.Value.String()
			}

		})
		return nil
	}

}
