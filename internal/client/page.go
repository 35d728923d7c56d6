package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/google/uuid"

	"github.com/yourneighborhoodchef/pagewatch/internal/headers"
	"github.com/yourneighborhoodchef/pagewatch/internal/session"
)

const maxBodyBytes = 8 << 20

var errNoPage = errors.New("no page loaded")

// Engine fetches the raw HTML document with a Chrome TLS fingerprint and runs
// selectors against it. Nothing is rendered, so content injected by scripts
// is invisible to it.
type Engine struct {
	opts    Options
	profile headers.Profile
}

func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts, profile: headers.NewProfile(opts.UserAgent, opts.Language)}
}

func (e *Engine) Name() string { return "static" }

func (e *Engine) Open(ctx context.Context) (session.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, session.Failure("open", err)
	}
	c, err := CreateClient(e.opts)
	if err != nil {
		return nil, session.Failure("open", err)
	}
	return &Session{id: uuid.NewString(), client: c, profile: e.profile}, nil
}

type Session struct {
	id      string
	client  tls_client.HttpClient
	profile headers.Profile
	doc     *goquery.Document
	closed  bool
}

func (s *Session) ID() string { return s.id }

func (s *Session) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if s.closed {
		return session.Failure("navigate", errors.New("session closed"))
	}
	s.doc = nil

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header = s.profile.BuildHeaders()

	resp, err := s.client.Do(req)
	if err != nil {
		return session.Failure("navigate", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return session.Failure("navigate", fmt.Errorf("unexpected status code %d", resp.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return session.Failure("navigate", fmt.Errorf("read body: %w", err))
	}
	s.doc = doc
	return nil
}

// Locate has nothing to wait for: the document is complete once Navigate
// returns, so the timeout is unused.
func (s *Session) Locate(ctx context.Context, selector string, _ time.Duration) (string, error) {
	if s.closed {
		return "", session.Failure("locate", errors.New("session closed"))
	}
	if err := ctx.Err(); err != nil {
		return "", session.Failure("locate", err)
	}
	if s.doc == nil {
		return "", session.Failure("locate", errNoPage)
	}
	return selectText(s.doc, selector)
}

func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.doc = nil
	s.client.CloseIdleConnections()
	return nil
}

func selectText(doc *goquery.Document, selector string) (string, error) {
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", fmt.Errorf("%q: %w", selector, session.ErrNotFound)
	}
	return strings.Join(strings.Fields(sel.Text()), " "), nil
}
