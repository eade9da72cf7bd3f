package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"time"
)

// Config holds the crawler's immutable runtime parameters. It is built once
// at startup through the With* builders and never mutated afterward; every
// component that needs a parameter reads it through a typed getter.
type Config struct {
	seedURLs      []string
	allowedHosts  map[string]struct{}
	maxDepth      int
	maxPages      int
	maxWorkers    int
	maxRetries    int
	sessionRecycle int
	queueTimeout  time.Duration
	timeout       time.Duration

	socksPrimaryPort  int
	socksFallbackPort int

	baseDelay  time.Duration
	jitter     time.Duration
	randomSeed int64

	ignoredExtensions map[string]struct{}

	dbPath string

	notifyCritical bool
	notifyHigh     bool
	notifyMedium   bool
	notifyLow      bool

	webhookGenericURL  string
	webhookSlackURL    string
	webhookDiscordURL  string
	telegramBotToken   string
	telegramChatID     string

	encryptionEnabled bool
	encryptionKey     string

	internalDomains   []string
	watchlistDomains  []string
	watchlistEmails   []string
	watchlistWallets  []string

	dryRun bool
}

// configDTO mirrors Config for JSON file loading; Config's fields are
// unexported so callers cannot bypass Build()'s validation.
type configDTO struct {
	SeedURLs          []string `json:"seed_urls"`
	AllowedHosts      []string `json:"allowed_hosts"`
	MaxDepth          int      `json:"max_depth"`
	MaxPages          int      `json:"max_pages"`
	MaxWorkers        int      `json:"max_workers"`
	MaxRetries        int      `json:"max_retries"`
	SessionRecycle    int      `json:"session_recycle"`
	QueueTimeoutSec   int      `json:"queue_timeout_sec"`
	TimeoutSec        int      `json:"timeout_sec"`
	SocksPrimaryPort  int      `json:"socks_primary_port"`
	SocksFallbackPort int      `json:"socks_fallback_port"`
	BaseDelayMs       int      `json:"base_delay_ms"`
	JitterMs          int      `json:"jitter_ms"`
	RandomSeed        int64    `json:"random_seed"`
	IgnoredExtensions []string `json:"ignored_extensions"`
	DBPath            string   `json:"db_path"`
	DryRun            bool     `json:"dry_run"`
}

func WithDefault(seedUrls []string) *Config {
	return &Config{
		seedURLs:          seedUrls,
		allowedHosts:      map[string]struct{}{},
		maxDepth:          5,
		maxPages:          10000,
		maxWorkers:        10,
		maxRetries:        3,
		sessionRecycle:    40,
		queueTimeout:      10 * time.Second,
		timeout:           90 * time.Second,
		socksPrimaryPort:  9050,
		socksFallbackPort: 9150,
		baseDelay:         2 * time.Second,
		jitter:            500 * time.Millisecond,
		randomSeed:        time.Now().UnixNano(),
		ignoredExtensions: defaultIgnoredExtensions(),
		dbPath:            "onionwatch.db",
		notifyCritical:    true,
		notifyHigh:        true,
		notifyMedium:      false,
		notifyLow:         false,
	}
}

func defaultIgnoredExtensions() map[string]struct{} {
	exts := []string{".jpg", ".jpeg", ".png", ".gif", ".css", ".js", ".ico", ".svg", ".woff", ".woff2", ".pdf", ".zip"}
	m := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		m[e] = struct{}{}
	}
	return m
}

func WithConfigFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var dto configDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := WithDefault(dto.SeedURLs)
	if len(dto.AllowedHosts) > 0 {
		cfg = cfg.WithAllowedHosts(dto.AllowedHosts)
	}
	if dto.MaxDepth > 0 {
		cfg.maxDepth = dto.MaxDepth
	}
	if dto.MaxPages > 0 {
		cfg.maxPages = dto.MaxPages
	}
	if dto.MaxWorkers > 0 {
		cfg.maxWorkers = dto.MaxWorkers
	}
	if dto.MaxRetries > 0 {
		cfg.maxRetries = dto.MaxRetries
	}
	if dto.SessionRecycle > 0 {
		cfg.sessionRecycle = dto.SessionRecycle
	}
	if dto.QueueTimeoutSec > 0 {
		cfg.queueTimeout = time.Duration(dto.QueueTimeoutSec) * time.Second
	}
	if dto.TimeoutSec > 0 {
		cfg.timeout = time.Duration(dto.TimeoutSec) * time.Second
	}
	if dto.SocksPrimaryPort > 0 {
		cfg.socksPrimaryPort = dto.SocksPrimaryPort
	}
	if dto.SocksFallbackPort > 0 {
		cfg.socksFallbackPort = dto.SocksFallbackPort
	}
	if dto.BaseDelayMs > 0 {
		cfg.baseDelay = time.Duration(dto.BaseDelayMs) * time.Millisecond
	}
	if dto.JitterMs > 0 {
		cfg.jitter = time.Duration(dto.JitterMs) * time.Millisecond
	}
	if dto.RandomSeed != 0 {
		cfg.randomSeed = dto.RandomSeed
	}
	if len(dto.IgnoredExtensions) > 0 {
		m := make(map[string]struct{}, len(dto.IgnoredExtensions))
		for _, e := range dto.IgnoredExtensions {
			m[e] = struct{}{}
		}
		cfg.ignoredExtensions = m
	}
	if dto.DBPath != "" {
		cfg.dbPath = dto.DBPath
	}
	cfg.dryRun = dto.DryRun

	return cfg, nil
}

func (c *Config) WithAllowedHosts(hosts []string) *Config {
	m := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		m[h] = struct{}{}
	}
	c.allowedHosts = m
	return c
}

func (c *Config) WithMaxDepth(d int) *Config           { c.maxDepth = d; return c }
func (c *Config) WithMaxPages(p int) *Config           { c.maxPages = p; return c }
func (c *Config) WithMaxWorkers(w int) *Config         { c.maxWorkers = w; return c }
func (c *Config) WithMaxRetries(r int) *Config         { c.maxRetries = r; return c }
func (c *Config) WithSessionRecycle(n int) *Config     { c.sessionRecycle = n; return c }
func (c *Config) WithQueueTimeout(d time.Duration) *Config { c.queueTimeout = d; return c }
func (c *Config) WithTimeout(d time.Duration) *Config  { c.timeout = d; return c }
func (c *Config) WithSocksPorts(primary, fallback int) *Config {
	c.socksPrimaryPort = primary
	c.socksFallbackPort = fallback
	return c
}
func (c *Config) WithBaseDelay(d time.Duration) *Config { c.baseDelay = d; return c }
func (c *Config) WithJitter(d time.Duration) *Config    { c.jitter = d; return c }
func (c *Config) WithRandomSeed(seed int64) *Config     { c.randomSeed = seed; return c }
func (c *Config) WithDBPath(path string) *Config        { c.dbPath = path; return c }
func (c *Config) WithDryRun(dryRun bool) *Config        { c.dryRun = dryRun; return c }

func (c *Config) WithNotifySeverities(critical, high, medium, low bool) *Config {
	c.notifyCritical = critical
	c.notifyHigh = high
	c.notifyMedium = medium
	c.notifyLow = low
	return c
}

func (c *Config) WithWebhooks(generic, slack, discord, telegramBotToken, telegramChatID string) *Config {
	c.webhookGenericURL = generic
	c.webhookSlackURL = slack
	c.webhookDiscordURL = discord
	c.telegramBotToken = telegramBotToken
	c.telegramChatID = telegramChatID
	return c
}

func (c *Config) WithEncryption(enabled bool, key string) *Config {
	c.encryptionEnabled = enabled
	c.encryptionKey = key
	return c
}

func (c *Config) WithWatchlists(internalDomains, watchlistDomains, watchlistEmails, watchlistWallets []string) *Config {
	c.internalDomains = internalDomains
	c.watchlistDomains = watchlistDomains
	c.watchlistEmails = watchlistEmails
	c.watchlistWallets = watchlistWallets
	return c
}

// Build validates the accumulated configuration and returns the immutable
// value. Non-empty seedURLs is the one hard requirement; allowedHosts
// defaults to the seeds' own hostnames when left unset.
func (c *Config) Build() (Config, error) {
	if len(c.seedURLs) == 0 {
		return Config{}, fmt.Errorf("config: at least one seed URL is required")
	}

	if len(c.allowedHosts) == 0 {
		hosts := make(map[string]struct{}, len(c.seedURLs))
		for _, raw := range c.seedURLs {
			u, err := url.Parse(raw)
			if err != nil {
				return Config{}, fmt.Errorf("config: invalid seed URL %q: %w", raw, err)
			}
			hosts[u.Hostname()] = struct{}{}
		}
		c.allowedHosts = hosts
	}

	return *c, nil
}

func (c Config) SeedURLs() []string { return c.seedURLs }
func (c Config) AllowedHosts() map[string]struct{} { return c.allowedHosts }
func (c Config) MaxDepth() int      { return c.maxDepth }
func (c Config) MaxPages() int      { return c.maxPages }
func (c Config) MaxWorkers() int    { return c.maxWorkers }
func (c Config) MaxRetries() int    { return c.maxRetries }
func (c Config) SessionRecycle() int { return c.sessionRecycle }
func (c Config) QueueTimeout() time.Duration { return c.queueTimeout }
func (c Config) Timeout() time.Duration      { return c.timeout }
func (c Config) SocksPrimaryPort() int       { return c.socksPrimaryPort }
func (c Config) SocksFallbackPort() int      { return c.socksFallbackPort }
func (c Config) BaseDelay() time.Duration    { return c.baseDelay }
func (c Config) Jitter() time.Duration       { return c.jitter }
func (c Config) RandomSeed() int64           { return c.randomSeed }
func (c Config) IgnoredExtensions() map[string]struct{} { return c.ignoredExtensions }
func (c Config) DBPath() string              { return c.dbPath }
func (c Config) DryRun() bool                { return c.dryRun }
func (c Config) NotifySeverities() (critical, high, medium, low bool) {
	return c.notifyCritical, c.notifyHigh, c.notifyMedium, c.notifyLow
}
func (c Config) Webhooks() (generic, slack, discord, telegramBotToken, telegramChatID string) {
	return c.webhookGenericURL, c.webhookSlackURL, c.webhookDiscordURL, c.telegramBotToken, c.telegramChatID
}
func (c Config) Encryption() (enabled bool, key string) { return c.encryptionEnabled, c.encryptionKey }
func (c Config) Watchlists() (internalDomains, watchlistDomains, watchlistEmails, watchlistWallets []string) {
	return c.internalDomains, c.watchlistDomains, c.watchlistEmails, c.watchlistWallets
}
