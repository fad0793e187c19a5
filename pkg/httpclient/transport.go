package httpclient

import (
	"net"
	"net/http"
	"time"
)

// Config tunes the pooled transport used for backend HTTP APIs.
type Config struct {
	DialTimeout     time.Duration
	MaxConnsPerHost int
	IdleConnTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		DialTimeout:     5 * time.Second,
		MaxConnsPerHost: 50,
		IdleConnTimeout: 90 * time.Second,
	}
}

// NewTransport returns a keep-alive transport with bounded per-host
// connections. Request deadlines come from the caller's context.
func NewTransport(cfg Config) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.DialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          cfg.MaxConnsPerHost * 2,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
}
