package config

import "time"

const (
	EngineChromedp   = "chromedp"
	EnginePlaywright = "playwright"
	EngineStatic     = "static"
)

const (
	TLSImplicit = "ssl"
	TLSStart    = "starttls"
	TLSNone     = "none"
)

const (
	DefaultPath           = "config.ini"
	DefaultOutOfStockText = "finns ej i lager"
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/95.0.4638.69 Safari/537.36"
	DefaultLogFile        = "product_checker.log"

	defaultNavigateTimeout = 30 * time.Second
	defaultElementTimeout  = 10 * time.Second
	defaultOpenAttempts    = 3
	defaultHeartbeatFactor = 10
	defaultSMTPHost        = "smtp.gmail.com"
	defaultSMTPPort        = 465
)

// PasswordEnv overrides email.password when set, so the secret can stay out
// of the config file.
const PasswordEnv = "PAGEWATCH_EMAIL_PASSWORD"

type Config struct {
	Email    EmailConfig
	Product  ProductConfig
	Settings SettingsConfig
	SMTP     SMTPConfig
	Browser  BrowserConfig
	Log      LogConfig
}

type EmailConfig struct {
	User     string
	Password string
	To       string
}

type ProductConfig struct {
	URL            string
	Selector       string
	BlockingText   string
	OutOfStockText string
	IdentifierText string
}

type SettingsConfig struct {
	CheckInterval     time.Duration
	NavigateTimeout   time.Duration
	ElementTimeout    time.Duration
	OpenAttempts      int
	HeartbeatInterval time.Duration
}

type SMTPConfig struct {
	Host string
	Port int
	TLS  string
	From string
}

type BrowserConfig struct {
	Engine    string
	Headless  bool
	UserAgent string
	Proxy     string
	Install   bool
	ExecPath  string
}

type LogConfig struct {
	Level   string
	File    string
	Console bool
}
