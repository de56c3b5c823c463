package stealth

import (
	"net/http"
	"sync/atomic"
)

// Fingerprint is the User-Agent and default headers a request goes out with.
type Fingerprint struct {
	UserAgent string
	Headers   http.Header
}

// FingerprintPool hands out browser fingerprints round-robin.
type FingerprintPool struct {
	fingerprints []Fingerprint
	idx          atomic.Uint64
}

// NewFingerprintPool pins every request to userAgent when it is set, and
// otherwise rotates the built-in desktop browsers.
func NewFingerprintPool(userAgent string) *FingerprintPool {
	if userAgent != "" {
		return &FingerprintPool{fingerprints: []Fingerprint{{UserAgent: userAgent, Headers: storefrontHeaders("")}}}
	}
	return &FingerprintPool{fingerprints: []Fingerprint{
		chrome("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36", `"Windows"`),
		chrome("Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36", `"macOS"`),
		chrome("Mozilla/5.0 (Linux; Android 14; SM-A546E) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Mobile Safari/537.36", `"Android"`),
		{
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:135.0) Gecko/20100101 Firefox/135.0",
			Headers:   storefrontHeaders(""),
		},
	}}
}

// Next returns the next fingerprint.
func (fp *FingerprintPool) Next() Fingerprint {
	i := fp.idx.Add(1) - 1
	return fp.fingerprints[i%uint64(len(fp.fingerprints))]
}

func chrome(ua, platform string) Fingerprint {
	return Fingerprint{UserAgent: ua, Headers: storefrontHeaders(platform)}
}

// storefrontHeaders are the defaults of a Pakistani shopper's browser.
// Chromium client hints are added when platform is set.
func storefrontHeaders(platform string) http.Header {
	h := http.Header{}
	h.Set("Accept", "*/*")
	h.Set("Accept-Language", "en-PK,en;q=0.9,ur;q=0.8")
	h.Set("Accept-Encoding", "gzip, br")
	if platform != "" {
		h.Set("Sec-Ch-Ua-Platform", platform)
		h.Set("Sec-Ch-Ua-Mobile", mobileHint(platform))
	}
	return h
}

func mobileHint(platform string) string {
	if platform == `"Android"` {
		return "?1"
	}
	return "?0"
}
