package waze

import "net/http"

// Headers is an immutable set of request headers sent with every upstream
// call. Construct it once and hand it to the transport.
type Headers struct {
	h http.Header
}

// NewHeaders copies kv into a Headers value.
func NewHeaders(kv map[string]string) Headers {
	h := make(http.Header, len(kv))
	for k, v := range kv {
		h.Set(k, v)
	}
	return Headers{h: h}
}

// DefaultHeaders impersonates the live-map web app running in mobile Edge.
func DefaultHeaders() Headers {
	return NewHeaders(map[string]string{
		"Accept":             "*/*",
		"Accept-Language":    "en-US,en;q=0.9",
		"Content-Type":       "application/json; charset=UTF-8",
		"Origin":             "https://www.waze.com",
		"Referer":            "https://www.waze.com/live-map/directions",
		"Sec-Ch-Ua":          `"Microsoft Edge";v="123", "Not:A-Brand";v="8", "Chromium";v="123"`,
		"Sec-Ch-Ua-Mobile":   "?1",
		"Sec-Ch-Ua-Platform": `"Android"`,
		"Sec-Fetch-Dest":     "empty",
		"Sec-Fetch-Mode":     "cors",
		"Sec-Fetch-Site":     "same-origin",
		"User-Agent": "Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 " +
			"(KHTML, like Gecko) Chrome/116.0.0.0 Mobile Safari/537.36 Edg/123.0.0.0",
	})
}

// IsZero reports whether no headers were configured.
func (h Headers) IsZero() bool { return len(h.h) == 0 }

// Get returns the first value for key.
func (h Headers) Get(key string) string { return h.h.Get(key) }

// With returns a copy of h with key set to value.
func (h Headers) With(key, value string) Headers {
	out := Headers{h: h.h.Clone()}
	if out.h == nil {
		out.h = make(http.Header)
	}
	out.h.Set(key, value)
	return out
}

func (h Headers) apply(dst http.Header) {
	for k, vs := range h.h {
		dst[k] = append([]string(nil), vs...)
	}
}
