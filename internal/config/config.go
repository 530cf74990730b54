// Package config provides functionality for managing configuration options
// for the client shell and the API server using command-line flags,
// environment variables and an optional JSON config file.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"
)

// Options holds the configuration values for the API server.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"port"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `json:"database_dsn"`

	// UploadDir is where uploaded photos are written.
	UploadDir string `json:"upload_dir"`

	// PublicURL prefixes the URLs returned for uploaded files.
	PublicURL string `json:"public_url"`

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `json:"tls_cert"`
	TLSKey  string `json:"tls_key"`

	// TokenTTL is how long a login session stays valid.
	TokenTTL time.Duration `json:"-"`

	// LogLevel is the minimum zap level.
	LogLevel string `json:"log_level"`

	// Config is the path to the Config file.
	Config string `json:"-"`
}

// ClientOptions holds the configuration values for the client shell.
type ClientOptions struct {
	// BaseURL is the API root.
	BaseURL string `json:"base_url"`

	// StorePath is the session file.
	StorePath string `json:"store_path"`

	// CAFile, when set, is the only CA the client trusts.
	CAFile string `json:"ca_file"`

	// UploadURL is where photos are sent; relative paths resolve against BaseURL.
	UploadURL string `json:"upload_url"`

	// Timeout bounds every HTTP request.
	Timeout time.Duration `json:"-"`

	// LogLevel is the minimum zap level.
	LogLevel string `json:"log_level"`

	// Config is the path to the Config file.
	Config string `json:"-"`
}

// Parse parses the command-line flags and environment variables to set
// server configuration values. It exits on invalid input.
func Parse() *Options {
	opts, err := ParseArgs(flag.CommandLine, os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return opts
}

// ParseClient is Parse for the client shell.
func ParseClient() *ClientOptions {
	opts, err := ParseClientArgs(flag.CommandLine, os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return opts
}

// ParseArgs registers the server flags on fs and resolves them in order:
// flag defaults, config file, environment, explicitly set flags.
func ParseArgs(fs *flag.FlagSet, args []string, getenv func(string) string) (*Options, error) {
	options := &Options{}
	fs.StringVar(&options.Port, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&options.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&options.UploadDir, "upload-dir", "uploads", "directory for uploaded files")
	fs.StringVar(&options.PublicURL, "public-url", "", "public base URL for uploaded files")
	fs.StringVar(&options.TLSCert, "tls-cert", "", "path to server TLS certificate")
	fs.StringVar(&options.TLSKey, "tls-key", "", "path to server TLS key")
	fs.DurationVar(&options.TokenTTL, "token-ttl", 24*time.Hour, "session lifetime")
	fs.StringVar(&options.LogLevel, "log-level", "info", "log level: debug, info, warn, error")
	fs.StringVar(&options.Config, "config", "config.json", "path to config file")
	fs.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	set := explicit(fs)

	if configPath := getenv("CONFIG"); configPath != "" && !has(set, "config", "c") {
		options.Config = configPath
	}
	if err := loadFile(options.Config, options); err != nil {
		return nil, err
	}

	envString(getenv, "SERVER_ADDRESS", &options.Port)
	envString(getenv, "DATABASE_DSN", &options.DatabaseDSN)
	envString(getenv, "UPLOAD_DIR", &options.UploadDir)
	envString(getenv, "PUBLIC_URL", &options.PublicURL)
	envString(getenv, "LOG_LEVEL", &options.LogLevel)
	if err := envDuration(getenv, "TOKEN_TTL", &options.TokenTTL); err != nil {
		return nil, err
	}

	// explicitly passed flags win over file and environment
	if err := reapply(fs, set); err != nil {
		return nil, err
	}
	if options.PublicURL == "" {
		scheme := "http"
		if options.TLSCert != "" {
			scheme = "https"
		}
		options.PublicURL = scheme + "://" + options.Port
	}
	return options, nil
}

// ParseClientArgs registers the client flags on fs; see ParseArgs.
func ParseClientArgs(fs *flag.FlagSet, args []string, getenv func(string) string) (*ClientOptions, error) {
	options := &ClientOptions{}
	fs.StringVar(&options.BaseURL, "url", "http://localhost:8080", "server base URL")
	fs.StringVar(&options.StorePath, "store", "session.json", "path to the persisted session")
	fs.StringVar(&options.CAFile, "ca", "", "path to CA cert for HTTPS servers")
	fs.StringVar(&options.UploadURL, "upload-url", "/api/uploads", "photo upload endpoint")
	fs.DurationVar(&options.Timeout, "timeout", 10*time.Second, "HTTP request timeout")
	fs.StringVar(&options.LogLevel, "log-level", "warn", "log level: debug, info, warn, error")
	fs.StringVar(&options.Config, "config", "client.json", "path to config file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	set := explicit(fs)

	if configPath := getenv("CONFIG"); configPath != "" && !has(set, "config") {
		options.Config = configPath
	}
	if err := loadFile(options.Config, options); err != nil {
		return nil, err
	}

	envString(getenv, "API_BASE_URL", &options.BaseURL)
	envString(getenv, "SESSION_STORE", &options.StorePath)
	envString(getenv, "CA_FILE", &options.CAFile)
	envString(getenv, "UPLOAD_URL", &options.UploadURL)
	envString(getenv, "LOG_LEVEL", &options.LogLevel)
	if err := envDuration(getenv, "HTTP_TIMEOUT", &options.Timeout); err != nil {
		return nil, err
	}

	if err := reapply(fs, set); err != nil {
		return nil, err
	}
	return options, nil
}

// loadFile overlays the JSON file at path onto dst. A missing file is not an error.
func loadFile(path string, dst any) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}
	return nil
}

// explicit records the flags present on the command line with their parsed values.
func explicit(fs *flag.FlagSet) map[string]string {
	set := make(map[string]string)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = f.Value.String() })
	return set
}

func reapply(fs *flag.FlagSet, set map[string]string) error {
	for name, value := range set {
		if err := fs.Set(name, value); err != nil {
			return err
		}
	}
	return nil
}

func has(set map[string]string, names ...string) bool {
	for _, n := range names {
		if _, ok := set[n]; ok {
			return true
		}
	}
	return false
}

func envString(getenv func(string) string, key string, dst *string) {
	if v := getenv(key); v != "" {
		*dst = v
	}
}

func envDuration(getenv func(string) string, key string, dst *time.Duration) error {
	v := getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}
