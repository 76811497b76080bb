// File: internal/network/httpclient.go
package network

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/http2"

	"github.com/xkilldash9x/dorkbuilder/internal/config"
)

// Defaults for the outbound client. GHDB traffic is a handful of small JSON
// requests, so the pool stays small.
const (
	DefaultDialTimeout           = 5 * time.Second
	DefaultKeepAliveInterval     = 15 * time.Second
	DefaultTLSHandshakeTimeout   = 5 * time.Second
	DefaultResponseHeaderTimeout = 10 * time.Second
	DefaultRequestTimeout        = 30 * time.Second

	DefaultMaxIdleConns        = 10
	DefaultMaxIdleConnsPerHost = 4
	DefaultIdleConnTimeout     = 30 * time.Second
)

var defaultSecureCipherSuites = []uint16{
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
	tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
}

// ClientConfig holds the configuration for the HTTP client and transport layers.
type ClientConfig struct {
	TLSConfig *tls.Config

	// Timeout settings
	RequestTimeout        time.Duration
	DialTimeout           time.Duration
	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration

	// Connection pool settings
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration

	ForceHTTP2 bool
	ProxyURL   *url.URL

	Logger *zap.Logger
}

// NewDefaultClientConfig returns the defaults with HTTP/2 preferred.
func NewDefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		RequestTimeout:        DefaultRequestTimeout,
		DialTimeout:           DefaultDialTimeout,
		TLSHandshakeTimeout:   DefaultTLSHandshakeTimeout,
		ResponseHeaderTimeout: DefaultResponseHeaderTimeout,
		MaxIdleConns:          DefaultMaxIdleConns,
		MaxIdleConnsPerHost:   DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:       DefaultIdleConnTimeout,
		ForceHTTP2:            true,
		Logger:                zap.NewNop(),
	}
}

// ClientConfigFromGHDB derives the client settings from the GHDB section.
func ClientConfigFromGHDB(cfg config.GHDBConfig, logger *zap.Logger) (*ClientConfig, error) {
	cc := NewDefaultClientConfig()
	if cfg.Timeout > 0 {
		cc.RequestTimeout = cfg.Timeout
	}
	if cfg.ProxyURL != "" {
		proxy, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url %q: %w", cfg.ProxyURL, err)
		}
		cc.ProxyURL = proxy
	}
	if logger != nil {
		cc.Logger = logger.Named("httpclient")
	}
	return cc, nil
}

// NewHTTPTransport creates and configures an http.Transport based on the provided configuration.
func NewHTTPTransport(cfg *ClientConfig) *http.Transport {
	if cfg == nil {
		cfg = NewDefaultClientConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	tlsConfig := configureTLS(cfg)
	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: DefaultKeepAliveInterval,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		TLSClientConfig:       tlsConfig,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		ForceAttemptHTTP2:     cfg.ForceHTTP2,
		Proxy:                 http.ProxyFromEnvironment,
	}
	if cfg.ProxyURL != nil {
		transport.Proxy = http.ProxyURL(cfg.ProxyURL)
	}

	if cfg.ForceHTTP2 {
		if err := http2.ConfigureTransport(transport); err != nil {
			cfg.Logger.Warn("Failed to configure HTTP/2 transport, falling back to HTTP/1.1", zap.Error(err))
		}
	} else if len(tlsConfig.NextProtos) == 0 {
		tlsConfig.NextProtos = []string{"http/1.1"}
	}
	return transport
}

// NewClient returns an *http.Client on the configured transport. Redirects are
// followed since the GHDB front end may bounce between hosts.
func NewClient(cfg *ClientConfig) *http.Client {
	if cfg == nil {
		cfg = NewDefaultClientConfig()
	}
	return &http.Client{
		Transport: NewHTTPTransport(cfg),
		Timeout:   cfg.RequestTimeout,
	}
}

// configureTLS clones a caller-supplied TLS config or builds one with a
// TLS 1.2 floor, modern AEAD suites and a session cache.
func configureTLS(cfg *ClientConfig) *tls.Config {
	if cfg.TLSConfig != nil {
		tlsConfig := cfg.TLSConfig.Clone()
		if tlsConfig.MinVersion == 0 {
			tlsConfig.MinVersion = tls.VersionTLS12
		}
		if tlsConfig.ClientSessionCache == nil {
			tlsConfig.ClientSessionCache = tls.NewLRUClientSessionCache(64)
		}
		return tlsConfig
	}
	return &tls.Config{
		MinVersion:         tls.VersionTLS12,
		CipherSuites:       defaultSecureCipherSuites,
		ClientSessionCache: tls.NewLRUClientSessionCache(64),
	}
}
