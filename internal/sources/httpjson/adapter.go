package httpjson

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/synapse-labs/synapse/internal/core/domain"
	"github.com/synapse-labs/synapse/internal/core/ports/driven"
)

// Kind is the adapter kind for template-driven JSON APIs.
const Kind = "httpjson"

// Ensure Adapter implements the interface.
var _ driven.SourceAdapter = (*Adapter)(nil)

// Adapter calls a JSON API described entirely by descriptor params:
//
//	url          request URL template; {business}, {name} and {credential}
//	             are replaced with query-escaped values
//	auth_header  header that carries the credential, if any
//	expect       comma separated top-level fields used for completeness
type Adapter struct {
	client     *Client
	template   string
	authHeader string
	expect     []string
	credential Credential
}

// New builds an Adapter from a descriptor.
func New(desc domain.SourceDescriptor, creds driven.CredentialProvider, httpClient *http.Client) (*Adapter, error) {
	template := desc.Param("url", "")
	if template == "" {
		return nil, fmt.Errorf("%w: source %s: httpjson needs a url param", domain.ErrConfiguration, desc.ID)
	}
	if _, err := url.Parse(expand(template, "x", "x", "x")); err != nil {
		return nil, fmt.Errorf("%w: source %s: invalid url template: %w", domain.ErrConfiguration, desc.ID, err)
	}

	return &Adapter{
		client:     NewClient(httpClient, desc.ID),
		template:   template,
		authHeader: desc.Param("auth_header", ""),
		expect:     splitList(desc.Param("expect", "")),
		credential: ResolveCredential(desc, creds),
	}, nil
}

// Kind returns the adapter kind.
func (a *Adapter) Kind() string {
	return Kind
}

// Fetch calls the templated URL and returns the JSON document as-is.
func (a *Adapter) Fetch(ctx context.Context, q domain.SourceQuery) (domain.RawPayload, error) {
	needsCredential := a.authHeader != "" || strings.Contains(a.template, "{credential}")
	secret := ""
	if needsCredential {
		v, err := a.credential.Require()
		if err != nil {
			return domain.RawPayload{}, err
		}
		secret = v
	}

	target := expand(a.template, q.Business, q.Param("name", domain.BusinessName(q.Business)), secret)
	var header http.Header
	if a.authHeader != "" {
		header = http.Header{a.authHeader: []string{secret}}
	}

	var doc json.RawMessage
	if err := a.client.GetJSON(ctx, target, header, &doc); err != nil {
		return domain.RawPayload{}, Redact(Redact(err, url.QueryEscape(secret)), secret)
	}

	completeness, err := FieldCompleteness(doc, a.expect)
	if err != nil {
		return domain.RawPayload{}, err
	}
	return domain.RawPayload{Data: doc, Completeness: completeness}, nil
}

// FieldCompleteness reports the fraction of fields present and non-empty
// at the top level of a JSON object. With no fields any non-empty document
// is complete.
func FieldCompleteness(doc json.RawMessage, fields []string) (float64, error) {
	trimmed := bytes.TrimSpace(doc)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return 0, fmt.Errorf("%w: empty document", domain.ErrMalformedResponse)
	}
	if len(fields) == 0 {
		return 1, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return 0, fmt.Errorf("%w: expected a JSON object: %w", domain.ErrMalformedResponse, err)
	}

	present := make(map[string]bool, len(fields))
	for _, f := range fields {
		present[f] = !isEmptyJSON(obj[f])
	}
	return domain.Completeness(present), nil
}

func isEmptyJSON(v json.RawMessage) bool {
	switch strings.TrimSpace(string(v)) {
	case "", "null", `""`, "[]", "{}":
		return true
	default:
		return false
	}
}

func expand(template, business, name, credential string) string {
	return strings.NewReplacer(
		"{business}", url.QueryEscape(business),
		"{name}", url.QueryEscape(name),
		"{credential}", url.QueryEscape(credential),
	).Replace(template)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
