package client

import (
	"compress/gzip"
	"context"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourneighborhoodchef/pagewatch/internal/session"
)

const productPage = `<!doctype html>
<html><body>
  <h1>Widget 3000</h1>
  <div class="buy">
    <button class="add-to-cart">
      Lägg i
      kundvagn
    </button>
  </div>
  <button class="add-to-cart">second</button>
</body></html>`

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestSelectTextFirstMatch(t *testing.T) {
	text, err := selectText(parse(t, productPage), "button.add-to-cart")
	require.NoError(t, err)
	assert.Equal(t, "Lägg i kundvagn", text)
}

func TestSelectTextNotFound(t *testing.T) {
	_, err := selectText(parse(t, productPage), "#missing")
	require.Error(t, err)
	assert.True(t, session.IsNotFound(err))
	assert.False(t, session.IsSessionFailure(err))
}

func TestSelectTextEmptyElement(t *testing.T) {
	text, err := selectText(parse(t, `<div id="status">  </div>`), "#status")
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestLocateWithoutPageIsSessionFailure(t *testing.T) {
	s := &Session{id: "test"}
	_, err := s.Locate(context.Background(), "#buy", 0)
	assert.True(t, session.IsSessionFailure(err))
}

func TestClosedSessionFails(t *testing.T) {
	s := &Session{id: "test", closed: true}
	assert.NoError(t, s.Close())

	err := s.Navigate(context.Background(), "https://example.com", 0)
	assert.True(t, session.IsSessionFailure(err))

	_, err = s.Locate(context.Background(), "#buy", 0)
	assert.True(t, session.IsSessionFailure(err))
}

const testUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func productServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := nethttp.NewServeMux()
	mux.HandleFunc("/product", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Header.Get("User-Agent") != testUA {
			w.WriteHeader(nethttp.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(productPage))
	})
	mux.HandleFunc("/gzip", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Encoding", "gzip")
		zw := gzip.NewWriter(w)
		zw.Write([]byte(productPage))
		zw.Close()
	})
	mux.HandleFunc("/busy", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusServiceUnavailable)
	})
	mux.HandleFunc("/slow-down", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusTooManyRequests)
	})
	mux.HandleFunc("/gone", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusNotFound)
		w.Write([]byte(`<html><body><h1>Page not found</h1></body></html>`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func openSession(t *testing.T) *Session {
	t.Helper()
	sess, err := NewEngine(Options{UserAgent: testUA, Timeout: 5 * time.Second}).Open(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { sess.Close() })
	return sess.(*Session)
}

func TestNavigateThenLocate(t *testing.T) {
	srv := productServer(t)

	for _, path := range []string{"/product", "/gzip"} {
		t.Run(path, func(t *testing.T) {
			s := openSession(t)
			require.NoError(t, s.Navigate(context.Background(), srv.URL+path, 5*time.Second))

			text, err := s.Locate(context.Background(), "button.add-to-cart", time.Second)
			require.NoError(t, err)
			assert.Equal(t, "Lägg i kundvagn", text)
		})
	}
}

func TestNavigateRejectedStatusIsSessionFailure(t *testing.T) {
	srv := productServer(t)

	for _, path := range []string{"/busy", "/slow-down"} {
		t.Run(path, func(t *testing.T) {
			s := openSession(t)
			err := s.Navigate(context.Background(), srv.URL+path, 5*time.Second)
			require.Error(t, err)
			assert.True(t, session.IsSessionFailure(err))

			_, err = s.Locate(context.Background(), "button.add-to-cart", time.Second)
			assert.True(t, session.IsSessionFailure(err))
		})
	}
}

func TestNavigateNotFoundPageLeavesElementMissing(t *testing.T) {
	srv := productServer(t)
	s := openSession(t)

	require.NoError(t, s.Navigate(context.Background(), srv.URL+"/gone", 5*time.Second))

	_, err := s.Locate(context.Background(), "button.add-to-cart", time.Second)
	require.Error(t, err)
	assert.True(t, session.IsNotFound(err))
	assert.False(t, session.IsSessionFailure(err))
}

func TestNavigateUnreachableIsSessionFailure(t *testing.T) {
	srv := httptest.NewServer(nethttp.NotFoundHandler())
	url := srv.URL
	srv.Close()

	s := openSession(t)
	err := s.Navigate(context.Background(), url+"/product", 5*time.Second)
	require.Error(t, err)
	assert.True(t, session.IsSessionFailure(err))
}
