package config

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/vango-dev/navintent/internal/errors"
	"github.com/vango-dev/navintent/pkg/deeplink"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "navintent.json"

	// DefaultHost is the default listen host.
	DefaultHost = "0.0.0.0"

	// DefaultPort is the default listen port.
	DefaultPort = 8080

	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = "10s"

	// DefaultDebounce is the settle delay for live search input.
	DefaultDebounce = "300ms"

	// DefaultMaxDelay caps client-requested debounce delays.
	DefaultMaxDelay = "5s"

	// DefaultMetricsPath is where Prometheus metrics are served.
	DefaultMetricsPath = "/metrics"

	// DefaultNamespace is the Prometheus metrics namespace.
	DefaultNamespace = "navintent"

	// DefaultTracerName is the OpenTelemetry tracer name.
	DefaultTracerName = "navintent"
)

var localeSegment = regexp.MustCompile(`^[a-z]{2}$`)

// Config represents the complete navintent.json configuration.
type Config struct {
	// Server contains HTTP listener settings.
	Server ServerConfig `json:"server"`

	// Deeplink contains the route resolution table.
	Deeplink DeeplinkConfig `json:"deeplink"`

	// Search contains live search debounce settings.
	Search SearchConfig `json:"search"`

	// Telemetry contains metrics and tracing settings.
	Telemetry TelemetryConfig `json:"telemetry"`

	// configPath stores where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP listener settings.
type ServerConfig struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`

	// AppScheme is the custom URL scheme used by /open redirects
	// (e.g. "shop" produces shop:///product/55). Empty redirects to the
	// bare route.
	AppScheme string `json:"appScheme,omitempty"`

	// ShutdownTimeout is a Go duration string.
	ShutdownTimeout string `json:"shutdownTimeout,omitempty"`
}

// DeeplinkConfig configures deeplink.Resolver.
type DeeplinkConfig struct {
	HomeRoute     string        `json:"homeRoute,omitempty"`
	Locales       []string      `json:"locales"`
	DefaultLocale string        `json:"defaultLocale,omitempty"`
	Identifiers   string        `json:"identifiers,omitempty"`
	Routes        []RouteConfig `json:"routes,omitempty"`
}

// RouteConfig is one rule of the resolution table.
type RouteConfig struct {
	Keyword  string `json:"keyword"`
	Kind     string `json:"kind,omitempty"`
	Template string `json:"template"`
}

// SearchConfig contains live search debounce settings.
type SearchConfig struct {
	// Debounce is the default settle delay (Go duration string).
	Debounce string `json:"debounce,omitempty"`

	// MaxDelay caps per-message delays requested by clients.
	MaxDelay string `json:"maxDelay,omitempty"`
}

// TelemetryConfig contains metrics and tracing settings.
type TelemetryConfig struct {
	MetricsPath string `json:"metricsPath,omitempty"`
	Namespace   string `json:"namespace,omitempty"`
	TracerName  string `json:"tracerName,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from navintent.json in dir.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E141").
				WithDetail("No " + ConfigFileName + " found at " + path).
				WithSuggestion("Run 'navintent init' to create one")
		}
		return nil, errors.New("E120").Wrap(err)
	}

	cfg, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	cfg.configPath = path
	return cfg, nil
}

// Parse decodes and validates configuration bytes. source names the origin
// in error messages.
func Parse(data []byte, source string) (*Config, error) {
	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		nerr := errors.New("E120").
			WithDetail("Failed to parse " + source + ": " + err.Error()).
			WithSuggestion("Check that " + source + " is valid JSON")

		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case stderrors.As(err, &syntaxErr):
			nerr.WithOffset(source, data, syntaxErr.Offset)
		case stderrors.As(err, &typeErr):
			nerr.WithOffset(source, data, typeErr.Offset)
		}
		return nil, nerr.Wrap(err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E120").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E120").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" || IsRemote(c.configPath) {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if c.Deeplink.HomeRoute == "" {
		c.Deeplink.HomeRoute = deeplink.DefaultHomeRoute
	}
	// nil means "not set"; an explicit [] disables locale stripping.
	if c.Deeplink.Locales == nil {
		c.Deeplink.Locales = deeplink.DefaultLocales()
	}
	if c.Deeplink.Identifiers == "" {
		c.Deeplink.Identifiers = deeplink.IdentifierVerbatim.String()
	}
	if len(c.Deeplink.Routes) == 0 {
		for _, rule := range deeplink.DefaultRules() {
			c.Deeplink.Routes = append(c.Deeplink.Routes, RouteConfig{
				Keyword:  rule.Keyword,
				Kind:     string(rule.Kind),
				Template: rule.Template,
			})
		}
	}

	if c.Search.Debounce == "" {
		c.Search.Debounce = DefaultDebounce
	}
	if c.Search.MaxDelay == "" {
		c.Search.MaxDelay = DefaultMaxDelay
	}

	if c.Telemetry.MetricsPath == "" {
		c.Telemetry.MetricsPath = DefaultMetricsPath
	}
	if !strings.HasPrefix(c.Telemetry.MetricsPath, "/") {
		c.Telemetry.MetricsPath = "/" + c.Telemetry.MetricsPath
	}
	if c.Telemetry.Namespace == "" {
		c.Telemetry.Namespace = DefaultNamespace
	}
	if c.Telemetry.TracerName == "" {
		c.Telemetry.TracerName = DefaultTracerName
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.New("E122").
			WithDetail(fmt.Sprintf("Port %d is outside 1-65535", c.Server.Port))
	}
	if _, err := parseDuration(c.Server.ShutdownTimeout); err != nil {
		return errors.New("E123").
			WithDetail("server.shutdownTimeout: " + err.Error()).
			WithSuggestion(`Use a Go duration such as "10s"`)
	}

	for _, locale := range c.Deeplink.Locales {
		if !localeSegment.MatchString(locale) {
			return errors.New("E124").
				WithDetail(fmt.Sprintf("Locale %q must be two lowercase letters", locale))
		}
	}
	if c.Deeplink.DefaultLocale != "" && !localeSegment.MatchString(c.Deeplink.DefaultLocale) {
		return errors.New("E124").
			WithDetail(fmt.Sprintf("Default locale %q must be two lowercase letters", c.Deeplink.DefaultLocale))
	}
	if _, err := deeplink.ParseIdentifierMode(c.Deeplink.Identifiers); err != nil {
		return errors.New("E125").
			WithDetail(err.Error()).
			WithSuggestion(`Use "verbatim" or "segment"`)
	}
	if err := deeplink.ValidateRules(c.rules()); err != nil {
		return errors.New("E121").
			WithDetail(err.Error()).
			WithSuggestion(`Each route needs a keyword and a template containing "{id}"`).
			Wrap(err)
	}

	debounce, err := parseDuration(c.Search.Debounce)
	if err != nil {
		return errors.New("E123").
			WithDetail("search.debounce: " + err.Error()).
			WithSuggestion(`Use a Go duration such as "300ms"`)
	}
	maxDelay, err := parseDuration(c.Search.MaxDelay)
	if err != nil {
		return errors.New("E123").
			WithDetail("search.maxDelay: " + err.Error()).
			WithSuggestion(`Use a Go duration such as "5s"`)
	}
	if debounce > maxDelay {
		return errors.New("E123").
			WithDetail(fmt.Sprintf("search.debounce %s exceeds search.maxDelay %s", debounce, maxDelay))
	}

	return nil
}

func parseDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", s)
	}
	return d, nil
}

func (c *Config) rules() []deeplink.Rule {
	rules := make([]deeplink.Rule, 0, len(c.Deeplink.Routes))
	for _, route := range c.Deeplink.Routes {
		rules = append(rules, deeplink.Rule{
			Keyword:  route.Keyword,
			Kind:     deeplink.Kind(route.Kind),
			Template: route.Template,
		})
	}
	return rules
}

// ResolverOptions converts the deeplink section into resolver options.
func (c *Config) ResolverOptions() ([]deeplink.Option, error) {
	mode, err := deeplink.ParseIdentifierMode(c.Deeplink.Identifiers)
	if err != nil {
		return nil, errors.New("E125").WithDetail(err.Error())
	}
	return []deeplink.Option{
		deeplink.WithRules(c.rules()),
		deeplink.WithLocales(c.Deeplink.Locales...),
		deeplink.WithDefaultLocale(c.Deeplink.DefaultLocale),
		deeplink.WithHomeRoute(c.Deeplink.HomeRoute),
		deeplink.WithIdentifierMode(mode),
	}, nil
}

// NewResolver builds a resolver from the deeplink section.
func (c *Config) NewResolver(extra ...deeplink.Option) (*deeplink.Resolver, error) {
	opts, err := c.ResolverOptions()
	if err != nil {
		return nil, err
	}
	r, err := deeplink.New(append(opts, extra...)...)
	if err != nil {
		return nil, errors.New("E121").WithDetail(err.Error()).Wrap(err)
	}
	return r, nil
}

// Address returns the host:port listen address.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// ShutdownTimeout returns the parsed graceful shutdown bound.
func (c *Config) ShutdownTimeout() time.Duration {
	d, err := parseDuration(c.Server.ShutdownTimeout)
	if err != nil {
		d, _ = time.ParseDuration(DefaultShutdownTimeout)
	}
	return d
}

// DebounceDelay returns the parsed default settle delay.
func (c *Config) DebounceDelay() time.Duration {
	d, err := parseDuration(c.Search.Debounce)
	if err != nil {
		d, _ = time.ParseDuration(DefaultDebounce)
	}
	return d
}

// MaxDebounceDelay returns the parsed cap on client-requested delays.
func (c *Config) MaxDebounceDelay() time.Duration {
	d, err := parseDuration(c.Search.MaxDelay)
	if err != nil {
		d, _ = time.ParseDuration(DefaultMaxDelay)
	}
	return d
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the one holding
// navintent.json.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E141").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory").
				WithSuggestion("Run 'navintent init' to create one")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory
// or its nearest ancestor holding navintent.json.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
