// Package proxy handles proxy selection and rotation for both the HTTP
// client transport and the headless-browser launch flags.
package proxy

import (
	"math/rand"
	"net/http"
	"net/url"

	"github.com/williampepple1/scrape-api/internal/config"
)

// Manager handles proxy configuration and rotation
type Manager struct {
	Config *config.ProxyConfig
}

// NewManager creates a new proxy manager
func NewManager(config *config.ProxyConfig) *Manager {
	return &Manager{
		Config: config,
	}
}

// GetProxyURL returns a proxy URL from the configuration, or nil when
// proxying is disabled.
func (m *Manager) GetProxyURL() (*url.URL, error) {
	if !m.Config.Enabled || len(m.Config.List) == 0 {
		return nil, nil
	}

	proxyStr := m.Config.List[0]
	if m.Config.Rotate && len(m.Config.List) > 1 {
		proxyStr = m.Config.List[rand.Intn(len(m.Config.List))]
	}

	proxyURL, err := url.Parse(proxyStr)
	if err != nil {
		return nil, err
	}

	if m.Config.Auth.Username != "" && m.Config.Auth.Password != "" {
		proxyURL.User = url.UserPassword(m.Config.Auth.Username, m.Config.Auth.Password)
	}

	return proxyURL, nil
}

// ApplyToTransport applies the proxy to an HTTP transport
func (m *Manager) ApplyToTransport(transport *http.Transport) (string, error) {
	proxyURL, err := m.GetProxyURL()
	if err != nil {
		return "", err
	}

	if proxyURL != nil {
		transport.Proxy = http.ProxyURL(proxyURL)
		return proxyURL.String(), nil
	}

	return "", nil
}

// ServerAddress returns a host:port proxy address for the browser launcher,
// without credentials. Chrome takes proxy auth separately, so authenticated
// proxies are only honored by the HTTP scraper.
func (m *Manager) ServerAddress() string {
	proxyURL, err := m.GetProxyURL()
	if err != nil || proxyURL == nil {
		return ""
	}
	proxyURL.User = nil
	return proxyURL.String()
}
