// Package reddit searches Reddit for mentions of the business using
// application-only OAuth.
package reddit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/synapse-labs/synapse/internal/core/domain"
	"github.com/synapse-labs/synapse/internal/core/ports/driven"
	"github.com/synapse-labs/synapse/internal/sources/httpjson"
)

// Kind is the adapter kind.
const Kind = "reddit"

// Default endpoints.
const (
	DefaultTokenURL = "https://www.reddit.com/api/v1/access_token"
	DefaultAPIURL   = "https://oauth.reddit.com"
)

// tokenTimeout bounds token fetches, which do not carry the call context.
const tokenTimeout = 10 * time.Second

// Ensure Adapter implements the interface.
var _ driven.SourceAdapter = (*Adapter)(nil)

// Mention is one post that mentions the business.
type Mention struct {
	Title     string    `json:"title"`
	Subreddit string    `json:"subreddit"`
	Score     int       `json:"score"`
	Comments  int       `json:"comments"`
	Permalink string    `json:"permalink"`
	Created   time.Time `json:"created"`
}

// Mentions is the normalised search result.
type Mentions struct {
	Query      string    `json:"query"`
	Count      int       `json:"count"`
	Subreddits []string  `json:"subreddits,omitempty"`
	TotalScore int       `json:"total_score"`
	Posts      []Mention `json:"posts"`
}

type listing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title       string  `json:"title"`
				Subreddit   string  `json:"subreddit"`
				Score       int     `json:"score"`
				NumComments int     `json:"num_comments"`
				Permalink   string  `json:"permalink"`
				CreatedUTC  float64 `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Adapter searches posts through an oauth2 client credentials client.
type Adapter struct {
	sourceID string
	client   *httpjson.Client
	apiURL   string
	limit    int
	clientID httpjson.Credential
	secret   httpjson.Credential
}

// New builds an Adapter. The descriptor credential is the client ID;
// params: secret_env (credential name of the client secret), limit,
// token_url, base_url.
func New(desc domain.SourceDescriptor, creds driven.CredentialProvider, httpClient *http.Client) (*Adapter, error) {
	limit, err := strconv.Atoi(desc.Param("limit", "25"))
	if err != nil || limit <= 0 || limit > 100 {
		return nil, fmt.Errorf("%w: source %s: limit must be 1-100", domain.ErrConfiguration, desc.ID)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	clientID := httpjson.ResolveCredential(desc, creds)
	secretDesc := desc
	secretDesc.CredentialEnv = desc.Param("secret_env", "REDDIT_CLIENT_SECRET")
	secret := httpjson.ResolveCredential(secretDesc, creds)

	cfg := clientcredentials.Config{
		ClientID:     clientID.Value,
		ClientSecret: secret.Value,
		TokenURL:     desc.Param("token_url", DefaultTokenURL),
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	tokenClient := &http.Client{Transport: httpClient.Transport, Timeout: tokenTimeout}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, tokenClient)

	return &Adapter{
		sourceID: desc.ID,
		client:   httpjson.NewClient(cfg.Client(ctx), desc.ID),
		apiURL:   strings.TrimRight(desc.Param("base_url", DefaultAPIURL), "/"),
		limit:    limit,
		clientID: clientID,
		secret:   secret,
	}, nil
}

// Kind returns the adapter kind.
func (a *Adapter) Kind() string {
	return Kind
}

// Fetch searches the past year of posts for the business name.
func (a *Adapter) Fetch(ctx context.Context, q domain.SourceQuery) (domain.RawPayload, error) {
	if _, err := a.clientID.Require(); err != nil {
		return domain.RawPayload{}, err
	}
	if _, err := a.secret.Require(); err != nil {
		return domain.RawPayload{}, err
	}

	name := q.Param("name", domain.BusinessName(q.Business))
	query := fmt.Sprintf("%q OR %q", name, q.Business)
	params := url.Values{
		"q":     {query},
		"limit": {strconv.Itoa(a.limit)},
		"sort":  {"new"},
		"t":     {"year"},
		"type":  {"link"},
	}

	var l listing
	if err := a.client.GetJSON(ctx, a.apiURL+"/search?"+params.Encode(), nil, &l); err != nil {
		return domain.RawPayload{}, a.wrapTokenError(err)
	}

	m := Mentions{Query: query, Posts: make([]Mention, 0, len(l.Data.Children))}
	subs := map[string]bool{}
	engaged := false
	for _, c := range l.Data.Children {
		d := c.Data
		m.Posts = append(m.Posts, Mention{
			Title:     d.Title,
			Subreddit: d.Subreddit,
			Score:     d.Score,
			Comments:  d.NumComments,
			Permalink: d.Permalink,
			Created:   time.Unix(int64(d.CreatedUTC), 0).UTC(),
		})
		m.TotalScore += d.Score
		subs[d.Subreddit] = true
		if d.Score > 1 || d.NumComments > 0 {
			engaged = true
		}
	}
	m.Count = len(m.Posts)
	for s := range subs {
		m.Subreddits = append(m.Subreddits, s)
	}
	sort.Strings(m.Subreddits)

	return domain.NewRawPayload(m, domain.Completeness(map[string]bool{
		"mentions":   m.Count > 0,
		"engagement": engaged,
	}))
}

// wrapTokenError maps a rejected client credentials exchange to an auth
// error. Other errors are returned unchanged.
func (a *Adapter) wrapTokenError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		if re.Response != nil && re.Response.StatusCode == http.StatusTooManyRequests {
			return &domain.RateLimitError{SourceID: a.sourceID, RetryAfter: httpjson.RetryAfter(re.Response.Header)}
		}
		return fmt.Errorf("%w: token exchange: %w", domain.ErrSourceAuth, err)
	}
	return err
}
