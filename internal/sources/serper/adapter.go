// Package serper calls the serper.dev Google search API.
package serper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/synapse-labs/synapse/internal/core/domain"
	"github.com/synapse-labs/synapse/internal/core/ports/driven"
	"github.com/synapse-labs/synapse/internal/sources/httpjson"
)

// Kind is the adapter kind.
const Kind = "serper"

// DefaultBaseURL is the serper.dev API root.
const DefaultBaseURL = "https://google.serper.dev"

// Ensure Adapter implements the interface.
var _ driven.SourceAdapter = (*Adapter)(nil)

// expectedFields lists the response fields each endpoint should fill.
var expectedFields = map[string][]string{
	"search": {"organic", "knowledgeGraph", "peopleAlsoAsk", "relatedSearches"},
	"places": {"places"},
	"news":   {"news"},
}

// Adapter calls one serper endpoint (search, places or news).
type Adapter struct {
	client     *httpjson.Client
	baseURL    string
	endpoint   string
	num        int
	credential httpjson.Credential
}

type searchRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num,omitempty"`
	GL  string `json:"gl,omitempty"`
}

// New builds an Adapter. Params: endpoint (search|places|news), num,
// base_url.
func New(desc domain.SourceDescriptor, creds driven.CredentialProvider, httpClient *http.Client) (*Adapter, error) {
	endpoint := desc.Param("endpoint", "search")
	if _, ok := expectedFields[endpoint]; !ok {
		return nil, fmt.Errorf("%w: source %s: unknown serper endpoint %q", domain.ErrConfiguration, desc.ID, endpoint)
	}
	num, err := strconv.Atoi(desc.Param("num", "10"))
	if err != nil || num <= 0 {
		return nil, fmt.Errorf("%w: source %s: invalid num %q", domain.ErrConfiguration, desc.ID, desc.Param("num", ""))
	}

	return &Adapter{
		client:     httpjson.NewClient(httpClient, desc.ID),
		baseURL:    strings.TrimRight(desc.Param("base_url", DefaultBaseURL), "/"),
		endpoint:   endpoint,
		num:        num,
		credential: httpjson.ResolveCredential(desc, creds),
	}, nil
}

// Kind returns the adapter kind.
func (a *Adapter) Kind() string {
	return Kind
}

// Fetch runs the search. Web search looks the business domain up; places
// and news search by business name.
func (a *Adapter) Fetch(ctx context.Context, q domain.SourceQuery) (domain.RawPayload, error) {
	key, err := a.credential.Require()
	if err != nil {
		return domain.RawPayload{}, err
	}

	req := searchRequest{Q: a.searchTerm(q), Num: a.num, GL: q.Param("country", "")}
	header := http.Header{"X-API-KEY": []string{key}}

	var doc json.RawMessage
	if err := a.client.PostJSON(ctx, a.baseURL+"/"+a.endpoint, header, req, &doc); err != nil {
		return domain.RawPayload{}, err
	}

	completeness, err := httpjson.FieldCompleteness(doc, expectedFields[a.endpoint])
	if err != nil {
		return domain.RawPayload{}, err
	}
	return domain.RawPayload{Data: doc, Completeness: completeness}, nil
}

func (a *Adapter) searchTerm(q domain.SourceQuery) string {
	name := q.Param("name", domain.BusinessName(q.Business))
	switch a.endpoint {
	case "search":
		return q.Business
	case "places":
		if loc := q.Param("location", ""); loc != "" {
			return name + " " + loc
		}
		return name
	default:
		return name
	}
}
