package domain

import (
	"fmt"
	"net"
	"net/url"
	"sort"
	"strings"
)

// SourceQuery is the normalised request handed to one source adapter.
// It is created per fan-out and discarded with it.
type SourceQuery struct {
	// SourceID identifies the target source.
	SourceID string

	// QueryKey is the deterministic cache key for the business query.
	QueryKey string

	// Business is the normalised business host (e.g., "acme.com").
	Business string

	// Params merges the descriptor's static params with caller params.
	// Caller params win on conflict.
	Params map[string]string
}

// Param returns a query parameter or def when unset.
func (q SourceQuery) Param(key, def string) string {
	if v, ok := q.Params[key]; ok && v != "" {
		return v
	}
	return def
}

// BusinessURL returns the canonical https URL for the business.
func (q SourceQuery) BusinessURL() string {
	return "https://" + q.Business
}

// NormalizeBusinessURL reduces a business URL or bare domain to a canonical
// host[/path] form: lowercase host, no scheme, no "www.", no default port,
// no query, fragment or trailing slash.
func NormalizeBusinessURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("%w: business url is empty", ErrInvalidInput)
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: parse business url %q: %w", ErrInvalidInput, raw, err)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("%w: business url %q has no host", ErrInvalidInput, raw)
	}
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimSuffix(host, ".")

	if port := u.Port(); port != "" && port != "80" && port != "443" {
		host = net.JoinHostPort(host, port)
	}

	path := strings.TrimRight(u.EscapedPath(), "/")
	return host + path, nil
}

// NormalizeParams returns params with trimmed, lowercase names and empty
// names dropped. When several names fold to the same key, an already
// lowercase name wins, then the last in sorted order.
func NormalizeParams(params map[string]string) map[string]string {
	if len(params) == 0 {
		return nil
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]string, len(params))
	exact := make(map[string]bool, len(params))
	for _, k := range keys {
		name := strings.ToLower(strings.TrimSpace(k))
		if name == "" || exact[name] {
			continue
		}
		out[name] = params[k]
		exact[name] = k == name
	}
	return out
}

// BuildQueryKey derives the cache key for a normalised business and caller
// params. Params must already be normalised with NormalizeParams so the key
// names the same params the adapters receive. Params are sorted so the key
// does not depend on map order.
func BuildQueryKey(business string, params map[string]string) string {
	if len(params) == 0 {
		return business
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := url.Values{}
	for _, k := range keys {
		values.Set(k, params[k])
	}
	return business + "?" + values.Encode()
}

// NewSourceQuery builds the query for one source.
func NewSourceQuery(desc *SourceDescriptor, business, queryKey string, params map[string]string) SourceQuery {
	merged := make(map[string]string, len(desc.Params)+len(params))
	for k, v := range desc.Params {
		merged[k] = v
	}
	for k, v := range params {
		merged[k] = v
	}

	return SourceQuery{
		SourceID: desc.ID,
		QueryKey: queryKey,
		Business: business,
		Params:   merged,
	}
}

// BusinessName guesses a display name from the business host by taking the
// label before the public suffix (e.g., "joes-pizza.co.uk" -> "joes pizza").
func BusinessName(business string) string {
	host := business
	if i := strings.IndexAny(host, "/:"); i >= 0 {
		host = host[:i]
	}
	labels := strings.Split(host, ".")
	name := labels[0]
	if len(labels) >= 3 && len(labels[len(labels)-2]) <= 3 {
		name = labels[len(labels)-3]
	} else if len(labels) >= 2 {
		name = labels[len(labels)-2]
	}
	return strings.ReplaceAll(name, "-", " ")
}
