package deeplink

import (
	"fmt"
	"regexp"
	"strings"
)

// originPattern matches the scheme and host of an absolute web URL.
var originPattern = regexp.MustCompile(`^https?://[^/]+`)

// IdentifierMode controls how much of the path after a keyword becomes the
// identifier.
type IdentifierMode int

const (
	// IdentifierVerbatim keeps everything after "/keyword/", including further
	// path segments: "/products/55/reviews" yields "55/reviews".
	IdentifierVerbatim IdentifierMode = iota

	// IdentifierSegment keeps only the segment right after "/keyword/":
	// "/products/55/reviews" yields "55".
	IdentifierSegment
)

// String returns the configuration name of the mode.
func (m IdentifierMode) String() string {
	switch m {
	case IdentifierVerbatim:
		return "verbatim"
	case IdentifierSegment:
		return "segment"
	default:
		return fmt.Sprintf("IdentifierMode(%d)", int(m))
	}
}

// ParseIdentifierMode parses "verbatim" or "segment". An empty string is
// IdentifierVerbatim.
func ParseIdentifierMode(s string) (IdentifierMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "verbatim":
		return IdentifierVerbatim, nil
	case "segment":
		return IdentifierSegment, nil
	default:
		return IdentifierVerbatim, fmt.Errorf("unknown identifier mode %q", s)
	}
}

// Intent is the structured result of resolving a URL.
type Intent struct {
	// Input is the raw string that was resolved.
	Input string `json:"input"`

	// Route is the in-app route to navigate to.
	Route string `json:"route"`

	// Kind is the screen family of Route.
	Kind Kind `json:"kind"`

	// ID is the extracted identifier; empty for the home route.
	ID string `json:"id,omitempty"`

	// Locale is the locale segment found in the URL, or the resolver's
	// default locale when the URL carried none.
	Locale string `json:"locale,omitempty"`
}

// IsHome reports whether the intent fell back to the home route.
func (i Intent) IsHome() bool {
	return i.Kind == KindHome
}

// Option configures a Resolver.
type Option func(*options)

type options struct {
	rules         []Rule
	locales       []string
	defaultLocale string
	homeRoute     string
	mode          IdentifierMode
}

// WithRules replaces the rule table. Order is priority order.
func WithRules(rules []Rule) Option {
	return func(o *options) {
		o.rules = append([]Rule(nil), rules...)
	}
}

// WithLocales sets the locale segments stripped from the path root.
// An empty list disables locale stripping.
func WithLocales(locales ...string) Option {
	return func(o *options) {
		o.locales = append([]string(nil), locales...)
	}
}

// WithDefaultLocale sets the locale reported when a URL carries none.
func WithDefaultLocale(locale string) Option {
	return func(o *options) {
		o.defaultLocale = locale
	}
}

// WithHomeRoute sets the fallback route.
func WithHomeRoute(route string) Option {
	return func(o *options) {
		o.homeRoute = route
	}
}

// WithIdentifierMode sets how identifiers are extracted.
func WithIdentifierMode(mode IdentifierMode) Option {
	return func(o *options) {
		o.mode = mode
	}
}

// Resolver maps URLs to in-app routes. It is immutable after construction
// and safe for concurrent use.
type Resolver struct {
	rules         []compiledRule
	locales       *regexp.Regexp
	defaultLocale string
	home          string
	mode          IdentifierMode
}

// New creates a Resolver. Without options it uses DefaultRules,
// DefaultLocales, DefaultHomeRoute and IdentifierVerbatim.
func New(opts ...Option) (*Resolver, error) {
	o := options{
		rules:     DefaultRules(),
		locales:   DefaultLocales(),
		homeRoute: DefaultHomeRoute,
		mode:      IdentifierVerbatim,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if err := ValidateRules(o.rules); err != nil {
		return nil, err
	}
	for _, locale := range o.locales {
		if strings.TrimSpace(locale) == "" || strings.Contains(locale, "/") {
			return nil, fmt.Errorf("invalid locale segment %q", locale)
		}
	}
	if strings.TrimSpace(o.homeRoute) == "" {
		return nil, fmt.Errorf("home route cannot be empty")
	}
	if o.mode != IdentifierVerbatim && o.mode != IdentifierSegment {
		return nil, fmt.Errorf("invalid identifier mode %v", o.mode)
	}

	return &Resolver{
		rules:         compileRules(o.rules),
		locales:       localePattern(o.locales),
		defaultLocale: o.defaultLocale,
		home:          o.homeRoute,
		mode:          o.mode,
	}, nil
}

// MustNew is like New but panics on invalid options.
func MustNew(opts ...Option) *Resolver {
	r, err := New(opts...)
	if err != nil {
		panic("deeplink: " + err.Error())
	}
	return r
}

// HomeRoute returns the fallback route.
func (r *Resolver) HomeRoute() string {
	return r.home
}

// Mode returns the identifier extraction mode.
func (r *Resolver) Mode() IdentifierMode {
	return r.mode
}

// Resolve returns the in-app route for raw.
func (r *Resolver) Resolve(raw string) string {
	return r.ResolveIntent(raw).Route
}

// ResolveIntent resolves raw and reports how the route was chosen.
func (r *Resolver) ResolveIntent(raw string) Intent {
	intent := Intent{
		Input:  raw,
		Route:  r.home,
		Kind:   KindHome,
		Locale: r.defaultLocale,
	}

	path := strings.TrimSpace(raw)
	if path == "" {
		return intent
	}

	path = originPattern.ReplaceAllString(path, "")

	if r.locales != nil {
		if m := r.locales.FindStringSubmatchIndex(path); m != nil {
			intent.Locale = path[m[2]:m[3]]
			path = path[m[1]:]
		}
	}

	// Markers are "/keyword/", so relative input needs a leading slash to
	// match at position zero.
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	for _, rule := range r.rules {
		idx := strings.Index(path, rule.marker)
		if idx < 0 {
			continue
		}

		id := path[idx+len(rule.marker):]
		if r.mode == IdentifierSegment {
			if cut := strings.IndexAny(id, "/?#"); cut >= 0 {
				id = id[:cut]
			}
		}
		if id == "" {
			continue
		}

		intent.Kind = rule.Kind
		intent.ID = id
		intent.Route = strings.ReplaceAll(rule.Template, IDPlaceholder, id)
		return intent
	}

	return intent
}

var defaultResolver = MustNew()

// Default returns the package-level resolver built with default options.
func Default() *Resolver {
	return defaultResolver
}

// Resolve resolves raw with the default resolver.
func Resolve(raw string) string {
	return defaultResolver.Resolve(raw)
}

// ResolveIntent resolves raw with the default resolver.
func ResolveIntent(raw string) Intent {
	return defaultResolver.ResolveIntent(raw)
}
