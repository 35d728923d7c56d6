package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	yaml "go.yaml.in/yaml/v3"
	"gopkg.in/ini.v1"
)

// Load reads the settings file once. INI (the historical config.ini layout)
// and YAML are both flattened to "section.key" values and go through the same
// validation.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	var values map[string]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		values, err = flattenYAML(data)
	default:
		values, err = flattenINI(data)
	}
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	if pw := os.Getenv(PasswordEnv); pw != "" {
		values["email.password"] = pw
	}

	cfg, err := Parse(values)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	return cfg, nil
}

func flattenINI(data []byte) (map[string]string, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		Insensitive:         true,
		IgnoreInlineComment: true,
	}, data)
	if err != nil {
		return nil, fmt.Errorf("ini: %w", err)
	}
	values := make(map[string]string)
	for _, sec := range f.Sections() {
		if strings.EqualFold(sec.Name(), ini.DefaultSection) {
			continue
		}
		for _, k := range sec.Keys() {
			values[sec.Name()+"."+k.Name()] = k.String()
		}
	}
	return values, nil
}

func flattenYAML(data []byte) (map[string]string, error) {
	var doc map[string]map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}
	values := make(map[string]string)
	for sec, keys := range doc {
		for k, v := range keys {
			if v == nil {
				continue
			}
			values[strings.ToLower(sec)+"."+strings.ToLower(k)] = fmt.Sprint(v)
		}
	}
	return values, nil
}

// Parse builds a Config from flattened "section.key" values. Every problem is
// collected so the operator sees them all at once.
func Parse(values map[string]string) (*Config, error) {
	p := &parser{values: values}

	cfg := &Config{
		Email: EmailConfig{
			User:     p.required("email.user"),
			Password: p.required("email.password"),
			To:       p.required("email.to"),
		},
		Product: ProductConfig{
			URL:            p.required("product.url"),
			Selector:       p.required("product.selector"),
			BlockingText:   p.required("product.blocking_text"),
			OutOfStockText: p.optional("product.out_of_stock_text", DefaultOutOfStockText),
			IdentifierText: p.optional("product.identifier_text", ""),
		},
		SMTP: SMTPConfig{
			Host: p.optional("smtp.host", defaultSMTPHost),
			Port: p.integer("smtp.port", defaultSMTPPort),
			TLS:  strings.ToLower(p.optional("smtp.tls", TLSImplicit)),
		},
		Browser: BrowserConfig{
			Engine:    strings.ToLower(p.optional("browser.engine", EngineChromedp)),
			Headless:  p.boolean("browser.headless", true),
			UserAgent: p.optional("browser.user_agent", DefaultUserAgent),
			Proxy:     p.optional("browser.proxy", ""),
			Install:   p.boolean("browser.install", false),
			ExecPath:  p.optional("browser.exec_path", ""),
		},
		Log: LogConfig{
			Level:   strings.ToLower(p.optional("log.level", "info")),
			File:    p.optional("log.file", DefaultLogFile),
			Console: p.boolean("log.console", true),
		},
	}
	cfg.SMTP.From = p.optional("smtp.from", cfg.Email.User)

	if !p.has("settings.check_interval") {
		p.fail("settings.check_interval: required")
	}
	interval := p.seconds("settings.check_interval", 0)
	cfg.Settings = SettingsConfig{
		CheckInterval:     interval,
		NavigateTimeout:   p.seconds("settings.navigate_timeout", defaultNavigateTimeout),
		ElementTimeout:    p.seconds("settings.element_timeout", defaultElementTimeout),
		OpenAttempts:      p.integer("settings.open_attempts", defaultOpenAttempts),
		HeartbeatInterval: p.seconds("settings.heartbeat_interval", defaultHeartbeatFactor*interval),
	}

	p.validate(cfg)

	if len(p.errs) > 0 {
		return nil, errors.Join(p.errs...)
	}
	return cfg, nil
}

type parser struct {
	values map[string]string
	errs   []error
}

func (p *parser) fail(format string, args ...any) {
	p.errs = append(p.errs, fmt.Errorf(format, args...))
}

func (p *parser) has(key string) bool {
	return strings.TrimSpace(p.values[key]) != ""
}

func (p *parser) required(key string) string {
	v := strings.TrimSpace(p.values[key])
	if v == "" {
		p.fail("%s: required", key)
	}
	return v
}

func (p *parser) optional(key, def string) string {
	if v := strings.TrimSpace(p.values[key]); v != "" {
		return v
	}
	return def
}

func (p *parser) integer(key string, def int) int {
	raw := strings.TrimSpace(p.values[key])
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.fail("%s: invalid integer %q", key, raw)
		return def
	}
	return n
}

func (p *parser) seconds(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(p.values[key])
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.fail("%s: invalid number of seconds %q", key, raw)
		return def
	}
	if n <= 0 {
		p.fail("%s: must be a positive integer", key)
		return def
	}
	return time.Duration(n) * time.Second
}

func (p *parser) boolean(key string, def bool) bool {
	raw := strings.TrimSpace(p.values[key])
	if raw == "" {
		return def
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	p.fail("%s: invalid boolean %q", key, raw)
	return def
}

func (p *parser) validate(cfg *Config) {
	if cfg.Product.URL != "" {
		u, err := url.Parse(cfg.Product.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			p.fail("product.url: %q is not an http(s) URL", cfg.Product.URL)
		}
	}
	if cfg.Email.To != "" && !strings.Contains(cfg.Email.To, "@") {
		p.fail("email.to: %q is not an email address", cfg.Email.To)
	}
	if cfg.Settings.OpenAttempts < 1 {
		p.fail("settings.open_attempts: must be at least 1")
	}
	if cfg.SMTP.Port <= 0 || cfg.SMTP.Port > 65535 {
		p.fail("smtp.port: %d out of range", cfg.SMTP.Port)
	}
	switch cfg.SMTP.TLS {
	case TLSImplicit, TLSStart, TLSNone:
	default:
		p.fail("smtp.tls: unknown mode %q", cfg.SMTP.TLS)
	}
	if cfg.Browser.Proxy != "" {
		if u, err := url.Parse(cfg.Browser.Proxy); err != nil || u.Scheme == "" || u.Host == "" {
			p.fail("browser.proxy: %q is not a proxy URL", cfg.Browser.Proxy)
		}
	}
	switch cfg.Browser.Engine {
	case EngineChromedp, EnginePlaywright, EngineStatic:
	default:
		p.fail("browser.engine: unknown engine %q", cfg.Browser.Engine)
	}
	switch cfg.Log.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		p.fail("log.level: unknown level %q", cfg.Log.Level)
	}
}
