package headers

import (
	"testing"

	http "github.com/bogdanfinn/fhttp"
	"github.com/stretchr/testify/assert"
)

const desktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/95.0.4638.69 Safari/537.36"

func TestNewProfile(t *testing.T) {
	p := NewProfile(desktopUA, "")

	assert.Equal(t, "Windows", p.Platform)
	assert.False(t, p.Mobile)
	assert.Equal(t, acceptLanguage, p.Language)
	assert.Equal(t, `"Not:A-Brand";v="24", "Chromium";v="95", "Google Chrome";v="95"`, p.SecCHUA)
}

func TestNewProfileWithoutChromeVersion(t *testing.T) {
	p := NewProfile("Mozilla/5.0 (Android 14; Mobile; rv:128.0) Gecko/128.0 Firefox/128.0", "sv-SE")
	assert.Equal(t, "Android", p.Platform)
	assert.True(t, p.Mobile)
	assert.Equal(t, "sv-SE", p.Language)
	assert.Contains(t, p.SecCHUA, `v="95"`)
}

func TestBuildHeaders(t *testing.T) {
	h := NewProfile(desktopUA, "").BuildHeaders()

	assert.Equal(t, desktopUA, h.Get("User-Agent"))
	assert.Equal(t, `"Windows"`, h.Get("Sec-CH-UA-Platform"))
	assert.Equal(t, "?0", h.Get("Sec-CH-UA-Mobile"))
	assert.Equal(t, "none", h.Get("Sec-Fetch-Site"))
	assert.Empty(t, h.Get("Referer"))
	assert.Equal(t, headerOrder, h[http.HeaderOrderKey])
}
