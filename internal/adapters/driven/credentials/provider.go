// Package credentials resolves the API keys sources need.
//
// Credentials are looked up by name (e.g., "SERPER_API_KEY"). Providers can
// be chained so environment variables override the config file.
package credentials

import (
	"os"
	"strings"

	"github.com/synapse-labs/synapse/internal/core/ports/driven"
)

// Ensure providers implement the interface.
var (
	_ driven.CredentialProvider = (*EnvProvider)(nil)
	_ driven.CredentialProvider = (*ConfigProvider)(nil)
	_ driven.CredentialProvider = Static(nil)
	_ driven.CredentialProvider = Chain(nil)
)

// EnvProvider reads credentials from environment variables.
type EnvProvider struct {
	lookup func(string) (string, bool)
}

// NewEnvProvider creates a provider backed by the process environment.
func NewEnvProvider() *EnvProvider {
	return &EnvProvider{lookup: os.LookupEnv}
}

// Lookup returns a non-blank environment variable.
func (p *EnvProvider) Lookup(name string) (string, bool) {
	v, ok := p.lookup(name)
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// ConfigKeyPrefix namespaces credentials in the config file.
const ConfigKeyPrefix = "credentials."

// ConfigProvider reads credentials from a config store under
// credentials.<NAME>.
type ConfigProvider struct {
	store driven.ConfigStore
}

// NewConfigProvider creates a provider backed by a config store.
func NewConfigProvider(store driven.ConfigStore) *ConfigProvider {
	return &ConfigProvider{store: store}
}

// Lookup returns a non-blank configured credential.
func (p *ConfigProvider) Lookup(name string) (string, bool) {
	v := strings.TrimSpace(p.store.GetString(ConfigKeyPrefix + name))
	if v == "" {
		return "", false
	}
	return v, true
}

// Static is a fixed set of credentials.
type Static map[string]string

// Lookup returns a non-blank credential.
func (s Static) Lookup(name string) (string, bool) {
	v, ok := s[name]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Chain returns the first provider's hit.
type Chain []driven.CredentialProvider

// Lookup asks each provider in order.
func (c Chain) Lookup(name string) (string, bool) {
	for _, p := range c {
		if p == nil {
			continue
		}
		if v, ok := p.Lookup(name); ok {
			return v, true
		}
	}
	return "", false
}

// Status reports which of the named credentials are available, without
// exposing their values.
func Status(p driven.CredentialProvider, names []string) map[string]bool {
	out := make(map[string]bool, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		_, ok := p.Lookup(n)
		out[n] = ok
	}
	return out
}
