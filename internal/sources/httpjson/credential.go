package httpjson

import (
	"fmt"
	"strings"

	"github.com/synapse-labs/synapse/internal/core/domain"
	"github.com/synapse-labs/synapse/internal/core/ports/driven"
)

// Credential is a source credential resolved when the adapter is built.
type Credential struct {
	Name  string
	Value string
}

// ResolveCredential looks up the descriptor's credential. A missing
// credential is not an error here; Require reports it on each fetch so a
// non-critical source fails with an auth error instead of breaking startup.
func ResolveCredential(desc domain.SourceDescriptor, creds driven.CredentialProvider) Credential {
	c := Credential{Name: desc.CredentialEnv}
	if c.Name == "" || creds == nil {
		return c
	}
	if v, ok := creds.Lookup(c.Name); ok {
		c.Value = v
	}
	return c
}

// Require returns the credential value or an auth error when it is unset.
func (c Credential) Require() (string, error) {
	if c.Value != "" {
		return c.Value, nil
	}
	if c.Name == "" {
		return "", fmt.Errorf("%w: no credential configured", domain.ErrSourceAuth)
	}
	return "", fmt.Errorf("%w: credential %s is not set", domain.ErrSourceAuth, c.Name)
}

// Redact replaces secret in err's message while keeping err in the chain.
func Redact(err error, secret string) error {
	if err == nil || secret == "" || !strings.Contains(err.Error(), secret) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), secret, "REDACTED"), err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }

func (e *redactedError) Unwrap() error { return e.err }
