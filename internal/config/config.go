package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/mcp-aadhaar-reader/internal/extraction"
	"github.com/a3tai/mcp-aadhaar-reader/internal/identity"
	"github.com/a3tai/mcp-aadhaar-reader/internal/pdf"
	"github.com/a3tai/mcp-aadhaar-reader/internal/pdf/layout"
	"github.com/a3tai/mcp-aadhaar-reader/internal/pdf/wrapper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 10 * 1024 * 1024 // 10MB, e-Aadhaar files are well under 1MB

	// Directory permissions
	DefaultDirPerm = 0o750

	// EnvPrefix prefixes every environment variable, e.g. MCP_AADHAAR_DIR
	EnvPrefix = "MCP_AADHAAR"
)

// Config holds all configuration for the Aadhaar MCP server
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Upload directory
	PDFDirectory string

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum PDF file size in bytes

	// Extraction tuning
	LineThreshold    float64
	ContextWindow    int
	GenderDateWindow int
	MinTextLength    int
	MaxBirthYear     int
	FallbackPolicy   string
	Denylist         []string // extra words that never appear in a name
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:             ModeStdio, // Default to stdio mode for MCP compatibility
		Host:             DefaultHost,
		Port:             DefaultPort,
		PDFDirectory:     currentDir,
		Version:          "1.0.0",
		ServerName:       "mcp-aadhaar-reader",
		LogLevel:         DefaultLogLevel,
		MaxFileSize:      DefaultMaxFileSize,
		LineThreshold:    layout.DefaultLineThreshold,
		ContextWindow:    extraction.DefaultContextWindow,
		GenderDateWindow: extraction.DefaultGenderDateWindow,
		MinTextLength:    pdf.DefaultMinTextLength,
		MaxBirthYear:     identity.DefaultMaxBirthYear,
		FallbackPolicy:   string(extraction.FallbackStrict),
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	if cfg.PDFDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil {
			cfg.PDFDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// flagNames lists every flag bound to viper
var flagNames = []string{
	"mode", "host", "port", "dir", "loglevel", "maxfilesize",
	"linethreshold", "contextwindow", "genderdatewindow", "mintextlength",
	"maxbirthyear", "fallbackpolicy", "denylist",
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(EnvPrefix)
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.PDFDirectory)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("linethreshold", cfg.LineThreshold)
	viper.SetDefault("contextwindow", cfg.ContextWindow)
	viper.SetDefault("genderdatewindow", cfg.GenderDateWindow)
	viper.SetDefault("mintextlength", cfg.MinTextLength)
	viper.SetDefault("maxbirthyear", cfg.MaxBirthYear)
	viper.SetDefault("fallbackpolicy", cfg.FallbackPolicy)
	viper.SetDefault("denylist", cfg.Denylist)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for SSE server")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("dir", cfg.PDFDirectory, "Directory holding uploaded Aadhaar PDFs")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	pflag.Float64("linethreshold", cfg.LineThreshold, "Vertical distance (PDF units) that starts a new text line")
	pflag.Int("contextwindow", cfg.ContextWindow, "Characters around an ID candidate searched for context")
	pflag.Int("genderdatewindow", cfg.GenderDateWindow, "Characters after a gender keyword searched for the birth date")
	pflag.Int("mintextlength", cfg.MinTextLength, "Non-space characters below which a PDF counts as empty")
	pflag.Int("maxbirthyear", cfg.MaxBirthYear, "Latest accepted year of birth")
	pflag.String("fallbackpolicy", cfg.FallbackPolicy, "ID acceptance in the fallback tier: 'strict' or 'lenient'")
	pflag.StringSlice("denylist", cfg.Denylist, "Extra words that are never part of a name (comma separated)")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range flagNames {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nMCP Aadhaar Reader - A Model Context Protocol server that extracts identity fields from e-Aadhaar PDFs\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                         "+
			"# stdio mode, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/srv/uploads                      "+
			"# stdio mode with an upload directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --dir=/srv/uploads        # SSE server mode\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --fallbackpolicy=lenient                # accept checksum failures in the last tier\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		for _, name := range flagNames {
			fmt.Fprintf(os.Stderr, "  %s_%s\n", EnvPrefix, strings.ToUpper(name))
		}
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.PDFDirectory = viper.GetString("dir")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.LineThreshold = viper.GetFloat64("linethreshold")
	cfg.ContextWindow = viper.GetInt("contextwindow")
	cfg.GenderDateWindow = viper.GetInt("genderdatewindow")
	cfg.MinTextLength = viper.GetInt("mintextlength")
	cfg.MaxBirthYear = viper.GetInt("maxbirthyear")
	cfg.FallbackPolicy = strings.ToLower(viper.GetString("fallbackpolicy"))
	cfg.Denylist = splitList(viper.GetStringSlice("denylist"))
}

// splitList flattens comma separated entries, which env values arrive as
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Port only matters in server mode
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.PDFDirectory == "" {
		return errors.New("PDF directory cannot be empty")
	}

	// Create the upload directory if it doesn't exist
	if _, err := os.Stat(c.PDFDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.PDFDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create PDF directory %s: %w", c.PDFDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access PDF directory %s: %w", c.PDFDirectory, err)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if c.LineThreshold <= 0 {
		return errors.New("line threshold must be positive")
	}
	if c.MinTextLength <= 0 {
		return errors.New("minimum text length must be positive")
	}

	if err := c.ExtractionOptions().Validate(); err != nil {
		return err
	}

	return nil
}

// ExtractionOptions projects the configuration onto the extractor options
func (c *Config) ExtractionOptions() extraction.Options {
	return extraction.Options{
		ContextWindow:    c.ContextWindow,
		GenderDateWindow: c.GenderDateWindow,
		MaxBirthYear:     c.MaxBirthYear,
		FallbackPolicy:   extraction.FallbackPolicy(c.FallbackPolicy),
		Denylist:         identity.NewDenylist(c.Denylist...),
	}
}

// LayoutConfig projects the configuration onto the line reconstructor
func (c *Config) LayoutConfig() layout.Config {
	return layout.Config{LineThreshold: c.LineThreshold}
}

// ServiceConfig returns the pipeline configuration
func (c *Config) ServiceConfig() pdf.ServiceConfig {
	library := wrapper.DefaultFactoryConfig()
	library.DebugMode = c.IsDebug()

	return pdf.ServiceConfig{
		MaxFileSize:   c.MaxFileSize,
		Directory:     c.PDFDirectory,
		MinTextLength: c.MinTextLength,
		Layout:        c.LayoutConfig(),
		Extraction:    c.ExtractionOptions(),
		Library:       library,
	}
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, PDFDirectory: %s, LogLevel: %s, MaxFileSize: %d, "+
		"LineThreshold: %g, FallbackPolicy: %s}",
		c.Mode, c.Host, c.Port, c.PDFDirectory, c.LogLevel, c.MaxFileSize, c.LineThreshold, c.FallbackPolicy)
}

// IsServerMode returns true if the server is running in SSE server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
