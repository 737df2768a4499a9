package utils

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the application configuration shared by the elf64 tools.
type Config struct {
	LogLevel  string `yaml:"log_level" mapstructure:"log_level"`
	LogFormat string `yaml:"log_format" mapstructure:"log_format"`

	// Scan configuration for the fragmentation tool.
	Scan ScanConfig `yaml:"scan" mapstructure:"scan"`

	// Report configuration.
	Report ReportConfig `yaml:"report" mapstructure:"report"`
}

// ScanConfig holds directory scan options.
type ScanConfig struct {
	// LibSuffix filters candidate files by name suffix.
	LibSuffix string `yaml:"lib_suffix" mapstructure:"lib_suffix"`
}

// ReportConfig holds report emission options.
type ReportConfig struct {
	Format    string `yaml:"format" mapstructure:"format"`
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
}

// ConfigManager handles configuration loading and management
type ConfigManager struct {
	config *Config
	viper  *viper.Viper
	logger *Logger
}

// NewConfigManager creates a new configuration manager
func NewConfigManager() *ConfigManager {
	return &ConfigManager{
		config: &Config{},
		viper:  viper.New(),
		logger: NewDefaultLogger(),
	}
}

// LoadConfig loads configuration from file and environment variables
func (c *ConfigManager) LoadConfig(configFile string) error {
	c.setDefaults()

	c.viper.SetConfigType("yaml")
	c.viper.SetEnvPrefix("ELF64")
	c.viper.AutomaticEnv()
	c.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configFile != "" {
		c.viper.SetConfigFile(configFile)
		if err := c.viper.ReadInConfig(); err != nil {
			if !os.IsNotExist(err) {
				return fmt.Errorf("failed to read config file: %w", err)
			}
			c.logger.WithComponent("config").Warnf("Config file not found: %s", configFile)
		} else {
			c.logger.WithComponent("config").Infof("Loaded config from: %s", c.viper.ConfigFileUsed())
		}
	} else {
		// Look for config in standard locations
		c.viper.SetConfigName("config")
		c.viper.AddConfigPath(".")
		c.viper.AddConfigPath("$HOME/.elf64-tools")
		c.viper.AddConfigPath("/etc/elf64-tools")

		if err := c.viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return fmt.Errorf("failed to read config file: %w", err)
			}
			c.logger.WithComponent("config").Debug("No config file found, using defaults and environment variables")
		} else {
			c.logger.WithComponent("config").Infof("Loaded config from: %s", c.viper.ConfigFileUsed())
		}
	}

	if err := c.viper.Unmarshal(c.config); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := c.validateConfig(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	c.logger.WithComponent("config").Debug("Configuration loaded successfully")
	return nil
}

// setDefaults sets default configuration values
func (c *ConfigManager) setDefaults() {
	c.viper.SetDefault("log_level", "info")
	c.viper.SetDefault("log_format", "text")

	c.viper.SetDefault("scan.lib_suffix", ".so")

	c.viper.SetDefault("report.format", "text")
	c.viper.SetDefault("report.output_dir", ".")
}

// validateConfig validates the loaded configuration
func (c *ConfigManager) validateConfig() error {
	switch c.config.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level: %s", c.config.LogLevel)
	}

	switch c.config.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format: %s", c.config.LogFormat)
	}

	switch c.config.Report.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid report.format: %s", c.config.Report.Format)
	}

	if c.config.Scan.LibSuffix == "" {
		return fmt.Errorf("scan.lib_suffix must not be empty")
	}

	return nil
}

// GetConfig returns the loaded configuration
func (c *ConfigManager) GetConfig() *Config {
	return c.config
}

// SetLogger replaces the logger used while loading configuration
func (c *ConfigManager) SetLogger(logger *Logger) {
	c.logger = logger
}

// LoadDefaultConfig loads configuration from default locations
func LoadDefaultConfig() (*Config, error) {
	manager := NewConfigManager()
	if err := manager.LoadConfig(""); err != nil {
		return nil, err
	}
	return manager.GetConfig(), nil
}

// LoadConfigFromFile loads configuration from a specific file
func LoadConfigFromFile(filename string) (*Config, error) {
	manager := NewConfigManager()
	if err := manager.LoadConfig(filename); err != nil {
		return nil, err
	}
	return manager.GetConfig(), nil
}
