// Package pw runs Chromium through playwright-go. One driver process is
// shared by every session; each session launches its own browser.
package pw

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	"github.com/yourneighborhoodchef/pagewatch/internal/session"
)

const (
	DefaultViewportWidth  = 1920
	DefaultViewportHeight = 1080
)

type Options struct {
	Headless  bool
	UserAgent string
	ProxyURL  string
	// Install downloads the driver and Chromium before the first start.
	Install bool
}

type Engine struct {
	mu          sync.Mutex
	opts        Options
	playwright  *playwright.Playwright
	initialized bool
}

func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts}
}

func (e *Engine) Name() string { return "playwright" }

// Initialize installs (when asked) and starts the playwright driver. It is
// called lazily by Open and is safe to call again after a failure.
func (e *Engine) Initialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initLocked()
}

func (e *Engine) initLocked() error {
	if e.initialized {
		return nil
	}

	opts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}
	if e.opts.Install {
		if err := playwright.Install(opts); err != nil {
			return fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	e.playwright = pw
	e.initialized = true
	return nil
}

func (e *Engine) Open(ctx context.Context) (session.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, session.Failure("open", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.initLocked(); err != nil {
		return nil, session.Failure("open", err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(e.opts.Headless),
		Args:     []string{"--disable-gpu", "--no-sandbox"},
	}
	if e.opts.ProxyURL != "" {
		launchOpts.Proxy = &playwright.Proxy{Server: e.opts.ProxyURL}
	}
	browser, err := e.playwright.Chromium.Launch(launchOpts)
	if err != nil {
		// The driver may be the thing that died; start it afresh next time.
		e.stopLocked()
		return nil, session.Failure("open", fmt.Errorf("failed to launch browser: %w", err))
	}

	contextOpts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  DefaultViewportWidth,
			Height: DefaultViewportHeight,
		},
	}
	if e.opts.UserAgent != "" {
		contextOpts.UserAgent = playwright.String(e.opts.UserAgent)
	}
	bctx, err := browser.NewContext(contextOpts)
	if err != nil {
		browser.Close()
		return nil, session.Failure("open", fmt.Errorf("failed to create context: %w", err))
	}

	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		browser.Close()
		return nil, session.Failure("open", fmt.Errorf("failed to create page: %w", err))
	}

	return &Session{
		id:      uuid.NewString(),
		Browser: browser,
		Context: bctx,
		Page:    page,
	}, nil
}

// Close stops the driver. Sessions still open become dead handles.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopLocked()
}

func (e *Engine) stopLocked() error {
	if !e.initialized || e.playwright == nil {
		return nil
	}
	err := e.playwright.Stop()
	e.playwright = nil
	e.initialized = false
	if err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	return nil
}

// Session is one browser with a single page.
type Session struct {
	id      string
	closed  bool
	Browser playwright.Browser
	Context playwright.BrowserContext
	Page    playwright.Page
}

func (s *Session) ID() string { return s.id }

// abortOnCancel closes the page once ctx is done. A pending playwright call
// on that page then fails immediately instead of running to its timeout.
// The returned func detaches the hook.
func (s *Session) abortOnCancel(ctx context.Context) func() bool {
	return context.AfterFunc(ctx, func() { _ = s.Page.Close() })
}

func (s *Session) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if s.closed {
		return session.Failure("navigate", errors.New("session closed"))
	}
	if err := ctx.Err(); err != nil {
		return session.Failure("navigate", err)
	}
	stop := s.abortOnCancel(ctx)
	defer stop()

	_, err := s.Page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(millis(ctx, timeout)),
	})
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			err = cerr
		}
		return session.Failure("navigate", err)
	}
	return nil
}

func (s *Session) Locate(ctx context.Context, selector string, timeout time.Duration) (string, error) {
	if s.closed {
		return "", session.Failure("locate", errors.New("session closed"))
	}
	if err := ctx.Err(); err != nil {
		return "", session.Failure("locate", err)
	}
	stop := s.abortOnCancel(ctx)
	defer stop()

	el, err := s.Page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(millis(ctx, timeout)),
	})
	if err != nil {
		if errors.Is(err, playwright.ErrTimeout) && ctx.Err() == nil && s.alive() {
			return "", fmt.Errorf("%q: %w", selector, session.ErrNotFound)
		}
		if cerr := ctx.Err(); cerr != nil {
			err = cerr
		}
		return "", session.Failure("locate", err)
	}
	if el == nil {
		return "", fmt.Errorf("%q: %w", selector, session.ErrNotFound)
	}

	text, err := el.InnerText()
	if err != nil {
		return "", session.Failure("locate", fmt.Errorf("text extraction failed: %w", err))
	}
	return text, nil
}

func (s *Session) alive() bool {
	if !s.Browser.IsConnected() || s.Page.IsClosed() {
		return false
	}
	_, err := s.Page.Evaluate(`1`)
	return err == nil
}

func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	_ = s.Page.Close()
	_ = s.Context.Close()
	_ = s.Browser.Close()
	return nil
}

// millis clamps timeout to whatever is left of ctx.
func millis(ctx context.Context, timeout time.Duration) float64 {
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout || timeout <= 0 {
			timeout = left
		}
	}
	if timeout <= 0 {
		timeout = time.Millisecond
	}
	return float64(timeout.Milliseconds())
}
