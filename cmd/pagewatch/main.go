package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/yourneighborhoodchef/pagewatch/internal/client"
	"github.com/yourneighborhoodchef/pagewatch/internal/config"
	"github.com/yourneighborhoodchef/pagewatch/internal/logging"
	"github.com/yourneighborhoodchef/pagewatch/internal/mail"
	"github.com/yourneighborhoodchef/pagewatch/internal/monitor"
	"github.com/yourneighborhoodchef/pagewatch/internal/notify"
	"github.com/yourneighborhoodchef/pagewatch/internal/ratelimit"
	"github.com/yourneighborhoodchef/pagewatch/internal/sdnotify"
	"github.com/yourneighborhoodchef/pagewatch/internal/session"
	"github.com/yourneighborhoodchef/pagewatch/internal/session/cdp"
	"github.com/yourneighborhoodchef/pagewatch/internal/session/pw"
	"github.com/yourneighborhoodchef/pagewatch/internal/stock"
)

const (
	exitFailure = 1
	exitConfig  = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}

	fmt.Fprintln(os.Stderr, "Error:", err)
	var cerr *config.Error
	if errors.As(err, &cerr) {
		os.Exit(exitConfig)
	}
	os.Exit(exitFailure)
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		dryRun     bool
	)
	cmd := &cobra.Command{
		Use:           "pagewatch",
		Short:         "Watch a product page and email when it comes back in stock",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath, dryRun)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "settings file (.ini, .yaml or .yml)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log notifications instead of emailing them")
	return cmd
}

func run(ctx context.Context, configPath string, dryRun bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
		Console: cfg.Log.Console,
	})
	if err != nil {
		return err
	}
	defer logger.Close()
	log := logger.Logger

	engine, err := newEngine(cfg, log.With().Str("component", "session").Logger())
	if err != nil {
		return err
	}
	if c, ok := engine.(io.Closer); ok {
		defer func() {
			if err := c.Close(); err != nil {
				log.Warn().Err(err).Msg("error shutting down page engine")
			}
		}()
	}

	var mailer mail.Transport = mail.NewSMTP(mail.SmtpConfig{
		Server:       cfg.SMTP.Host,
		Port:         cfg.SMTP.Port,
		Mode:         cfg.SMTP.TLS,
		EmailAddress: cfg.Email.User,
		Password:     cfg.Email.Password,
		From:         cfg.SMTP.From,
	})
	if dryRun {
		mailer = mail.LogTransport{Log: log.With().Str("component", "mail").Logger()}
	}

	m := monitor.New(monitor.Deps{
		Engine: engine,
		Inspector: monitor.NewInspector(
			cfg.Product.URL,
			cfg.Product.Selector,
			cfg.Settings.NavigateTimeout,
			cfg.Settings.ElementTimeout,
			log.With().Str("component", "inspector").Logger(),
		),
		Classifier: stock.NewClassifier(stock.Markers{
			OutOfStock: cfg.Product.OutOfStockText,
			Blocking:   cfg.Product.BlockingText,
			Identifier: cfg.Product.IdentifierText,
		}),
		Gate:      notify.NewGate(cfg.Product.URL),
		Mailer:    mailer,
		Lifecycle: sdnotify.New(log),
		Logger:    log.With().Str("component", "monitor").Logger(),
	}, monitor.Options{
		URL:       cfg.Product.URL,
		Recipient: cfg.Email.To,
		Interval:  cfg.Settings.CheckInterval,
		Heartbeat: cfg.Settings.HeartbeatInterval,
		Backoff:   ratelimit.DefaultBackoff(cfg.Settings.OpenAttempts),
	})
	return m.Run(ctx)
}

func newEngine(cfg *config.Config, log zerolog.Logger) (session.Engine, error) {
	switch cfg.Browser.Engine {
	case config.EnginePlaywright:
		e := pw.NewEngine(pw.Options{
			Headless:  cfg.Browser.Headless,
			UserAgent: cfg.Browser.UserAgent,
			ProxyURL:  cfg.Browser.Proxy,
			Install:   cfg.Browser.Install,
		})
		if cfg.Browser.Install {
			log.Info().Msg("installing playwright driver and browser")
			if err := e.Initialize(); err != nil {
				return nil, err
			}
		}
		return e, nil
	case config.EngineStatic:
		return client.NewEngine(client.Options{
			UserAgent: cfg.Browser.UserAgent,
			ProxyURL:  cfg.Browser.Proxy,
			Timeout:   cfg.Settings.NavigateTimeout,
		}), nil
	default:
		return cdp.NewEngine(cdp.Options{
			Headless:  cfg.Browser.Headless,
			UserAgent: cfg.Browser.UserAgent,
			ProxyURL:  cfg.Browser.Proxy,
			ExecPath:  cfg.Browser.ExecPath,
			Logger:    log,
		}), nil
	}
}
