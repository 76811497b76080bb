// internal/network/httpclient_test.go
package network

import (
	"crypto/tls"
	"crypto/x509"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/dorkbuilder/internal/config"
)

// -- Test Cases: Configuration and Defaults (ClientConfig) --

func TestNewDefaultClientConfig(t *testing.T) {
	cfg := NewDefaultClientConfig()

	assert.Equal(t, DefaultRequestTimeout, cfg.RequestTimeout)
	assert.Equal(t, DefaultResponseHeaderTimeout, cfg.ResponseHeaderTimeout)
	assert.Equal(t, DefaultMaxIdleConns, cfg.MaxIdleConns)
	assert.Equal(t, DefaultMaxIdleConnsPerHost, cfg.MaxIdleConnsPerHost)
	assert.True(t, cfg.ForceHTTP2, "HTTP/2 should be preferred by default")
	assert.Nil(t, cfg.ProxyURL)
	assert.NotNil(t, cfg.Logger)
}

func TestClientConfigFromGHDB(t *testing.T) {
	ghdbCfg := config.NewDefaultConfig().GHDB()
	ghdbCfg.Timeout = 7 * time.Second
	ghdbCfg.ProxyURL = "http://127.0.0.1:3128"

	cc, err := ClientConfigFromGHDB(ghdbCfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 7*time.Second, cc.RequestTimeout)
	require.NotNil(t, cc.ProxyURL)
	assert.Equal(t, "127.0.0.1:3128", cc.ProxyURL.Host)

	ghdbCfg.ProxyURL = "http://[::1"
	_, err = ClientConfigFromGHDB(ghdbCfg, nil)
	assert.ErrorContains(t, err, "invalid proxy url")
}

// -- Test Cases: TLS --

func TestConfigureTLS_Defaults(t *testing.T) {
	tlsConfig := configureTLS(NewDefaultClientConfig())

	require.NotNil(t, tlsConfig)
	assert.Equal(t, uint16(tls.VersionTLS12), tlsConfig.MinVersion)
	assert.False(t, tlsConfig.InsecureSkipVerify)
	assert.Equal(t, defaultSecureCipherSuites, tlsConfig.CipherSuites)
	assert.NotNil(t, tlsConfig.ClientSessionCache, "TLS session cache should be enabled")
}

func TestConfigureTLS_CustomConfigIsCloned(t *testing.T) {
	custom := &tls.Config{ServerName: "custom.sni"}
	cfg := NewDefaultClientConfig()
	cfg.TLSConfig = custom

	tlsConfig := configureTLS(cfg)

	assert.Equal(t, "custom.sni", tlsConfig.ServerName)
	assert.Equal(t, uint16(tls.VersionTLS12), tlsConfig.MinVersion)
	assert.NotNil(t, tlsConfig.ClientSessionCache)
	assert.NotSame(t, custom, tlsConfig)
	assert.Zero(t, custom.MinVersion, "the caller's config must not be modified")
}

// -- Test Cases: Transport --

func TestNewHTTPTransport_ConfigurationMapping(t *testing.T) {
	cfg := NewDefaultClientConfig()
	cfg.MaxIdleConns = 3
	cfg.MaxIdleConnsPerHost = 2
	cfg.IdleConnTimeout = time.Minute
	cfg.ResponseHeaderTimeout = 4 * time.Second

	transport := NewHTTPTransport(cfg)

	assert.Equal(t, 3, transport.MaxIdleConns)
	assert.Equal(t, 2, transport.MaxIdleConnsPerHost)
	assert.Equal(t, time.Minute, transport.IdleConnTimeout)
	assert.Equal(t, 4*time.Second, transport.ResponseHeaderTimeout)
	assert.NotNil(t, transport.DialContext)
}

func TestNewHTTPTransport_NilConfig(t *testing.T) {
	assert.NotPanics(t, func() {
		transport := NewHTTPTransport(nil)
		assert.NotNil(t, transport)
	})
}

func TestNewHTTPTransport_ProxyConfiguration(t *testing.T) {
	proxyURL, err := url.Parse("http://proxy.internal:8080")
	require.NoError(t, err)
	cfg := NewDefaultClientConfig()
	cfg.ProxyURL = proxyURL

	transport := NewHTTPTransport(cfg)
	require.NotNil(t, transport.Proxy)

	req := httptest.NewRequest(http.MethodGet, "https://www.exploit-db.com/", nil)
	got, err := transport.Proxy(req)
	require.NoError(t, err)
	assert.Equal(t, proxyURL.String(), got.String())
}

func TestNewHTTPTransport_HTTP2(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		transport := NewHTTPTransport(NewDefaultClientConfig())
		assert.Contains(t, transport.TLSNextProto, "h2")
	})

	t.Run("disabled", func(t *testing.T) {
		cfg := NewDefaultClientConfig()
		cfg.ForceHTTP2 = false
		transport := NewHTTPTransport(cfg)
		assert.NotContains(t, transport.TLSNextProto, "h2")
		assert.Equal(t, []string{"http/1.1"}, transport.TLSClientConfig.NextProtos)
	})
}

// -- Test Cases: Client behavior --

func TestNewClient_FollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusFound)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "moved")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(NewDefaultClientConfig())
	defer client.CloseIdleConnections()

	resp, err := client.Get(server.URL + "/old")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "moved", string(body))
}

func TestNewClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	cfg := NewDefaultClientConfig()
	cfg.RequestTimeout = 50 * time.Millisecond
	client := NewClient(cfg)
	defer client.CloseIdleConnections()

	start := time.Now()
	_, err := client.Get(server.URL)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestNewClient_HTTPS(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "secure")
	}))
	defer server.Close()

	t.Run("trusted root", func(t *testing.T) {
		pool := x509.NewCertPool()
		pool.AddCert(server.Certificate())
		cfg := NewDefaultClientConfig()
		cfg.TLSConfig = &tls.Config{RootCAs: pool}
		client := NewClient(cfg)
		defer client.CloseIdleConnections()

		resp, err := client.Get(server.URL)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("unknown authority", func(t *testing.T) {
		client := NewClient(NewDefaultClientConfig())
		defer client.CloseIdleConnections()

		_, err := client.Get(server.URL)
		assert.Error(t, err)
	})
}
