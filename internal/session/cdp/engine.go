// Package cdp drives a headless Chrome over the DevTools protocol with
// chromedp. Each session owns its own browser process so a crash only ever
// takes down the session that caused it.
package cdp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yourneighborhoodchef/pagewatch/internal/session"
)

const (
	defaultStartTimeout = 30 * time.Second
	pingTimeout         = 2 * time.Second
	windowWidth         = 1920
	windowHeight        = 1080
)

type Options struct {
	Headless     bool
	UserAgent    string
	ProxyURL     string
	ExecPath     string
	StartTimeout time.Duration
	Logger       zerolog.Logger
}

type Engine struct {
	opts Options
}

func NewEngine(opts Options) *Engine {
	if opts.StartTimeout <= 0 {
		opts.StartTimeout = defaultStartTimeout
	}
	return &Engine{opts: opts}
}

func (e *Engine) Name() string { return "chromedp" }

func (e *Engine) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", e.opts.Headless),
		chromedp.WindowSize(windowWidth, windowHeight),
		chromedp.DisableGPU,
		chromedp.NoSandbox,
	)
	if e.opts.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(e.opts.UserAgent))
	}
	if e.opts.ProxyURL != "" {
		opts = append(opts, chromedp.ProxyServer(e.opts.ProxyURL))
	}
	if e.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(e.opts.ExecPath))
	}
	return opts
}

// Open starts a browser and a blank tab. The browser's lifetime is detached
// from ctx; ctx only bounds the start-up.
func (e *Engine) Open(ctx context.Context) (session.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, session.Failure("open", err)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), e.allocatorOptions()...)
	log := e.opts.Logger
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...any) {
			log.Debug().Str("component", "chromedp").Msgf(format, args...)
		}),
	)

	// The first Run allocates the browser and must not carry a deadline,
	// otherwise the browser dies with it.
	started := make(chan error, 1)
	go func() { started <- chromedp.Run(tabCtx) }()

	timer := time.NewTimer(e.opts.StartTimeout)
	defer timer.Stop()

	var err error
	select {
	case err = <-started:
	case <-ctx.Done():
		err = ctx.Err()
	case <-timer.C:
		err = fmt.Errorf("browser did not start within %s", e.opts.StartTimeout)
	}
	if err != nil {
		tabCancel()
		allocCancel()
		return nil, session.Failure("open", err)
	}

	return &Session{
		id:          uuid.NewString(),
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		allocCancel: allocCancel,
	}, nil
}

type Session struct {
	id          string
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc
	closed      bool
}

func (s *Session) ID() string { return s.id }

// op derives a context from the tab that ends at timeout or when ctx is
// cancelled, whichever comes first.
func (s *Session) op(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	opCtx, cancel := context.WithTimeout(s.tabCtx, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return opCtx, func() {
		stop()
		cancel()
	}
}

func (s *Session) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if s.closed {
		return session.Failure("navigate", errors.New("session closed"))
	}
	opCtx, cancel := s.op(ctx, timeout)
	defer cancel()

	err := chromedp.Run(opCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return session.Failure("navigate", err)
	}
	return nil
}

func (s *Session) Locate(ctx context.Context, selector string, timeout time.Duration) (string, error) {
	if s.closed {
		return "", session.Failure("locate", errors.New("session closed"))
	}
	opCtx, cancel := s.op(ctx, timeout)
	defer cancel()

	var text string
	err := chromedp.Run(opCtx, chromedp.Text(selector, &text, chromedp.ByQuery, chromedp.NodeReady))
	if err == nil {
		return text, nil
	}

	// A lookup that ran out of time on a healthy tab is a missing element.
	// Anything else means the browser is gone.
	if ctx.Err() == nil && errors.Is(opCtx.Err(), context.DeadlineExceeded) && s.ping() == nil {
		return "", fmt.Errorf("%q: %w", selector, session.ErrNotFound)
	}
	return "", session.Failure("locate", err)
}

func (s *Session) ping() error {
	if err := s.tabCtx.Err(); err != nil {
		return err
	}
	pctx, cancel := context.WithTimeout(s.tabCtx, pingTimeout)
	defer cancel()
	var one int
	return chromedp.Run(pctx, chromedp.Evaluate(`1`, &one))
}

func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	// Cancel closes the tab and waits for the browser to exit. On a dead
	// browser it fails fast, and cancelling the allocator reaps what is left.
	_ = chromedp.Cancel(s.tabCtx)
	s.tabCancel()
	s.allocCancel()
	return nil
}
