package github

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synapse-labs/synapse/internal/adapters/driven/credentials"
	"github.com/synapse-labs/synapse/internal/core/domain"
)

func githubDesc(baseURL string) domain.SourceDescriptor {
	return domain.SourceDescriptor{
		ID: "github-presence", Kind: Kind, Timeout: time.Second, CacheTTL: time.Hour,
		Tier: domain.TierLow, CredentialEnv: "GITHUB_TOKEN",
		Params: map[string]string{"base_url": baseURL, "repos": "5"},
	}
}

func newGitHubServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/orgs/acme", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer gh-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{
			"login": "acme", "name": "Acme Corp", "description": "Roadrunner solutions",
			"blog": "https://www.acme.com/", "html_url": "https://github.com/acme",
			"public_repos": 12, "followers": 40, "created_at": "2015-03-01T00:00:00Z"
		}`))
	})
	mux.HandleFunc("/orgs/acme/repos", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pushed", r.URL.Query().Get("sort"))
		assert.Equal(t, "5", r.URL.Query().Get("per_page"))
		_, _ = w.Write([]byte(`[
			{"name": "rockets", "language": "Go", "stargazers_count": 30, "pushed_at": "2026-09-01T00:00:00Z"},
			{"name": "anvils", "stargazers_count": 5}
		]`))
	})
	mux.HandleFunc("/orgs/limited", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "60")
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", "1")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message": "API rate limit exceeded"}`))
	})
	mux.HandleFunc("/orgs/private", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message": "Bad credentials"}`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message": "Not Found"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

var ghCreds = credentials.Static{"GITHUB_TOKEN": "gh-token"}

func TestAdapter_Fetch(t *testing.T) {
	srv := newGitHubServer(t)
	a, err := New(githubDesc(srv.URL), ghCreds, srv.Client())
	require.NoError(t, err)
	assert.Equal(t, Kind, a.Kind())

	payload, err := a.Fetch(context.Background(), domain.SourceQuery{Business: "acme.com"})
	require.NoError(t, err)

	var p Presence
	require.NoError(t, json.Unmarshal(payload.Data, &p))
	assert.True(t, p.Found)
	assert.Equal(t, "Acme Corp", p.Name)
	assert.True(t, p.BlogMatches)
	assert.Equal(t, 12, p.PublicRepos)
	assert.Equal(t, 35, p.TotalStars)
	require.Len(t, p.Recent, 2)
	assert.Equal(t, "rockets", p.Recent[0].Name)
	assert.Equal(t, 1.0, payload.Completeness)
}

func TestAdapter_OrgNotFound(t *testing.T) {
	srv := newGitHubServer(t)
	a, err := New(githubDesc(srv.URL), ghCreds, srv.Client())
	require.NoError(t, err)

	payload, err := a.Fetch(context.Background(), domain.SourceQuery{Business: "nobody.io"})
	require.NoError(t, err)

	var p Presence
	require.NoError(t, json.Unmarshal(payload.Data, &p))
	assert.False(t, p.Found)
	assert.Equal(t, "nobody", p.Login)
	assert.Equal(t, 0.0, payload.Completeness)
}

func TestAdapter_OrgParamOverridesGuess(t *testing.T) {
	srv := newGitHubServer(t)
	a, err := New(githubDesc(srv.URL), ghCreds, srv.Client())
	require.NoError(t, err)

	payload, err := a.Fetch(context.Background(), domain.SourceQuery{
		Business: "acme-industries.com",
		Params:   map[string]string{"github_org": "acme"},
	})
	require.NoError(t, err)

	var p Presence
	require.NoError(t, json.Unmarshal(payload.Data, &p))
	assert.True(t, p.Found)
	assert.False(t, p.BlogMatches)
	assert.Equal(t, 0.75, payload.Completeness)
}

func TestAdapter_ErrorTranslation(t *testing.T) {
	srv := newGitHubServer(t)
	a, err := New(githubDesc(srv.URL), ghCreds, srv.Client())
	require.NoError(t, err)

	_, err = a.Fetch(context.Background(), domain.SourceQuery{Business: "limited.com"})
	var rl *domain.RateLimitError
	require.True(t, errors.As(err, &rl), "got %v", err)
	assert.Equal(t, "github-presence", rl.SourceID)

	_, err = a.Fetch(context.Background(), domain.SourceQuery{Business: "private.com"})
	assert.Equal(t, domain.ErrorKindAuth, domain.ClassifyError(err))
}

func TestNew_InvalidRepos(t *testing.T) {
	desc := githubDesc("")
	desc.Params["repos"] = "500"

	_, err := New(desc, nil, nil)

	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestOrgLogin(t *testing.T) {
	assert.Equal(t, "joes-pizza", OrgLogin("joes-pizza.co.uk"))
	assert.Equal(t, "acme", OrgLogin("shop.acme.com"))
}

func TestBlogMatches(t *testing.T) {
	assert.True(t, blogMatches("acme.com", "acme.com"))
	assert.True(t, blogMatches("https://www.acme.com/blog", "acme.com"))
	assert.False(t, blogMatches("https://acme.io", "acme.com"))
	assert.False(t, blogMatches("", "acme.com"))
}
