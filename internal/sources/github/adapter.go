package github

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"

	"github.com/synapse-labs/synapse/internal/core/domain"
	"github.com/synapse-labs/synapse/internal/core/ports/driven"
	"github.com/synapse-labs/synapse/internal/sources/httpjson"
)

// Kind is the adapter kind.
const Kind = "github"

// Ensure Adapter implements the interface.
var _ driven.SourceAdapter = (*Adapter)(nil)

// Repo summarises one public repository.
type Repo struct {
	Name     string    `json:"name"`
	Language string    `json:"language,omitempty"`
	Stars    int       `json:"stars"`
	PushedAt time.Time `json:"pushed_at"`
}

// Presence is the normalised organisation summary.
type Presence struct {
	Login       string    `json:"login"`
	Found       bool      `json:"found"`
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`
	Blog        string    `json:"blog,omitempty"`
	URL         string    `json:"url,omitempty"`
	PublicRepos int       `json:"public_repos"`
	Followers   int       `json:"followers"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	TotalStars  int       `json:"total_stars"`
	Recent      []Repo    `json:"recent_repos,omitempty"`

	// BlogMatches is true when the org's blog links to the business.
	BlogMatches bool `json:"blog_matches"`
}

// Adapter looks the organisation up by login.
type Adapter struct {
	sourceID string
	client   *gh.Client
	perPage  int
}

// New builds an Adapter. Params: repos (recent repos to list), base_url.
func New(desc domain.SourceDescriptor, creds driven.CredentialProvider, httpClient *http.Client) (*Adapter, error) {
	perPage, err := strconv.Atoi(desc.Param("repos", "10"))
	if err != nil || perPage <= 0 || perPage > 100 {
		return nil, fmt.Errorf("%w: source %s: repos must be 1-100", domain.ErrConfiguration, desc.ID)
	}

	credential := httpjson.ResolveCredential(desc, creds)
	client, err := newClient(httpClient, credential.Value, desc.Param("base_url", ""))
	if err != nil {
		return nil, fmt.Errorf("%w: source %s: %w", domain.ErrConfiguration, desc.ID, err)
	}
	return &Adapter{sourceID: desc.ID, client: client, perPage: perPage}, nil
}

// Kind returns the adapter kind.
func (a *Adapter) Kind() string {
	return Kind
}

// Fetch loads the organisation and its recently pushed repositories.
// A missing organisation is a successful answer with zero completeness.
func (a *Adapter) Fetch(ctx context.Context, q domain.SourceQuery) (domain.RawPayload, error) {
	login := q.Param("github_org", OrgLogin(q.Business))
	presence := Presence{Login: login}

	org, _, err := a.client.Organizations.Get(ctx, login)
	if err != nil {
		if isNotFound(err) {
			return domain.NewRawPayload(presence, 0)
		}
		return domain.RawPayload{}, wrapError(a.sourceID, err, "get org")
	}

	presence.Found = true
	presence.Name = org.GetName()
	presence.Description = org.GetDescription()
	presence.Blog = org.GetBlog()
	presence.URL = org.GetHTMLURL()
	presence.PublicRepos = org.GetPublicRepos()
	presence.Followers = org.GetFollowers()
	presence.CreatedAt = org.GetCreatedAt().Time
	presence.BlogMatches = blogMatches(presence.Blog, q.Business)

	repos, _, err := a.client.Repositories.ListByOrg(ctx, login, &gh.RepositoryListByOrgOptions{
		Type:        "public",
		Sort:        "pushed",
		Direction:   "desc",
		ListOptions: gh.ListOptions{PerPage: a.perPage},
	})
	if err != nil {
		return domain.RawPayload{}, wrapError(a.sourceID, err, "list repos")
	}
	for _, r := range repos {
		presence.TotalStars += r.GetStargazersCount()
		presence.Recent = append(presence.Recent, Repo{
			Name:     r.GetName(),
			Language: r.GetLanguage(),
			Stars:    r.GetStargazersCount(),
			PushedAt: r.GetPushedAt().Time,
		})
	}

	return domain.NewRawPayload(presence, domain.Completeness(map[string]bool{
		"org":          true,
		"description":  presence.Description != "",
		"blog_matches": presence.BlogMatches,
		"repos":        len(presence.Recent) > 0,
	}))
}

// OrgLogin guesses the organisation login from the business host.
func OrgLogin(business string) string {
	return strings.ReplaceAll(domain.BusinessName(business), " ", "-")
}

func blogMatches(blog, business string) bool {
	if blog == "" {
		return false
	}
	normalized, err := domain.NormalizeBusinessURL(blog)
	if err != nil {
		return false
	}
	host := business
	if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}
	return normalized == host || strings.HasPrefix(normalized, host+"/")
}
