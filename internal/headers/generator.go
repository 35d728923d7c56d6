package headers

import (
	"fmt"
	"strings"

	http "github.com/bogdanfinn/fhttp"
)

const (
	acceptHTML     = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"
	acceptLanguage = "en-US,en;q=0.9"
	acceptEncoding = "gzip, deflate, br"
)

var headerOrder = []string{
	"Accept",
	"Accept-Language",
	"Accept-Encoding",
	"User-Agent",
	"Sec-CH-UA",
	"Sec-CH-UA-Mobile",
	"Sec-CH-UA-Platform",
	"Sec-Fetch-Site",
	"Sec-Fetch-Mode",
	"Sec-Fetch-User",
	"Sec-Fetch-Dest",
	"Upgrade-Insecure-Requests",
	"Connection",
	"Cache-Control",
}

// Profile is the single browser identity a session presents. It is fixed for
// the life of the process.
type Profile struct {
	UA       string
	SecCHUA  string
	Mobile   bool
	Platform string
	Language string
}

func NewProfile(ua, language string) Profile {
	if language == "" {
		language = acceptLanguage
	}
	return Profile{
		UA:       ua,
		SecCHUA:  secCHUA(ua),
		Mobile:   strings.Contains(ua, "Mobile"),
		Platform: platform(ua),
		Language: language,
	}
}

func secCHUA(ua string) string {
	const fallback = "95"
	ver := fallback
	if idx := strings.Index(ua, "Chrome/"); idx != -1 {
		rest := ua[idx+7:]
		if j := strings.IndexAny(rest, ". "); j != -1 {
			ver = rest[:j]
		} else if rest != "" {
			ver = rest
		}
	}
	return fmt.Sprintf(
		`"Not:A-Brand";v="24", "Chromium";v="%s", "Google Chrome";v="%s"`,
		ver, ver,
	)
}

func platform(ua string) string {
	switch {
	case strings.Contains(ua, "Android"):
		return "Android"
	case strings.Contains(ua, "iPhone"), strings.Contains(ua, "iPad"):
		return "iOS"
	case strings.Contains(ua, "Windows"):
		return "Windows"
	case strings.Contains(ua, "Macintosh"):
		return "macOS"
	case strings.Contains(ua, "Linux"):
		return "Linux"
	}
	return "Unknown"
}

// BuildHeaders returns a top-level document navigation request's headers in
// the order Chrome sends them.
func (p Profile) BuildHeaders() http.Header {
	h := http.Header{}
	h.Set("Accept", acceptHTML)
	h.Set("Accept-Language", p.Language)
	h.Set("Accept-Encoding", acceptEncoding)
	h.Set("User-Agent", p.UA)
	h.Set("Sec-CH-UA", p.SecCHUA)
	if p.Mobile {
		h.Set("Sec-CH-UA-Mobile", "?1")
	} else {
		h.Set("Sec-CH-UA-Mobile", "?0")
	}
	h.Set("Sec-CH-UA-Platform", `"`+p.Platform+`"`)
	h.Set("Sec-Fetch-Site", "none")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-User", "?1")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Cache-Control", "max-age=0")

	h[http.HeaderOrderKey] = headerOrder

	return h
}
