package llm

import (
	"fmt"
	"net/http"
	"sync"
)

// Provider adapts the generic Client to a specific LLM API's request and
// response shapes, following the teacher's provider-registry pattern.
type Provider interface {
	// Name returns the provider's registry key (e.g. "anthropic").
	Name() string
	// BuildURL constructs the completion endpoint URL from the
	// configured base endpoint.
	BuildURL(endpoint string) string
	// SetHeaders sets provider-specific auth/version headers.
	SetHeaders(req *http.Request)
	// BuildRequestBody marshals messages into the provider's wire format.
	BuildRequestBody(model string, messages []Message, temperature *float64, maxTokens int) ([]byte, error)
	// ParseResponse unmarshals the provider's response into a Response.
	ParseResponse(body []byte, model string) (*Response, error)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Provider{}
)

// RegisterProvider registers a Provider under its Name(). Providers
// self-register from an init() in their own file.
func RegisterProvider(p Provider) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[p.Name()] = p
}

// GetProvider looks up a registered provider by name.
func GetProvider(name string) (Provider, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	p, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("llm: no provider registered for %q", name)
	}
	return p, nil
}

// ListProviders returns the names of all registered providers.
func ListProviders() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
