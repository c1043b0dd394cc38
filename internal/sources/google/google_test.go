package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/synapse-labs/synapse/internal/adapters/driven/credentials"
	"github.com/synapse-labs/synapse/internal/core/domain"
)

var googleCreds = credentials.Static{"GOOGLE_API_KEY": "gkey", "YOUTUBE_API_KEY": "ykey"}

func googleDesc(id, kind, credential, baseURL string) domain.SourceDescriptor {
	return domain.SourceDescriptor{
		ID: id, Kind: kind, Timeout: time.Second, CacheTTL: time.Hour,
		Tier: domain.TierHigh, CredentialEnv: credential,
		Params: map[string]string{"base_url": baseURL},
	}
}

func TestPageSpeed_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pagespeedonline/v5/runPagespeed", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "gkey", q.Get("key"))
		assert.Equal(t, "https://acme.com", q.Get("url"))
		assert.Equal(t, "MOBILE", q.Get("strategy"))
		assert.ElementsMatch(t, lighthouseCategories, q["category"])
		_, _ = w.Write([]byte(`{
			"id": "https://acme.com/",
			"loadingExperience": {"overall_category": "FAST"},
			"lighthouseResult": {
				"fetchTime": "2026-10-16T10:00:00.000Z",
				"categories": {
					"performance": {"score": 0.91},
					"seo": {"score": 0.8},
					"accessibility": {"score": 0.75}
				}
			}
		}`))
	}))
	defer srv.Close()

	p, err := NewPageSpeed(googleDesc("pagespeed-seo", PageSpeedKind, "GOOGLE_API_KEY", srv.URL), googleCreds, srv.Client())
	require.NoError(t, err)
	assert.Equal(t, PageSpeedKind, p.Kind())

	payload, err := p.Fetch(context.Background(), domain.SourceQuery{Business: "acme.com"})
	require.NoError(t, err)

	var report PageSpeedReport
	require.NoError(t, json.Unmarshal(payload.Data, &report))
	assert.Equal(t, "FAST", report.OverallCategory)
	assert.InDelta(t, 91, report.Scores["performance"], 1e-9)
	assert.InDelta(t, 80, report.Scores["seo"], 1e-9)
	assert.NotContains(t, report.Scores, "best_practices")
	assert.Equal(t, 0.75, payload.Completeness)
}

func TestPageSpeed_QuotaIsRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"Quota exceeded","errors":[{"reason":"rateLimitExceeded"}]}}`))
	}))
	defer srv.Close()

	p, err := NewPageSpeed(googleDesc("pagespeed-seo", PageSpeedKind, "GOOGLE_API_KEY", srv.URL), googleCreds, srv.Client())
	require.NoError(t, err)

	_, err = p.Fetch(context.Background(), domain.SourceQuery{Business: "acme.com"})

	assert.Equal(t, domain.ErrorKindRateLimited, domain.ClassifyError(err))
}

func TestPageSpeed_MissingKey(t *testing.T) {
	p, err := NewPageSpeed(googleDesc("pagespeed-seo", PageSpeedKind, "GOOGLE_API_KEY", "http://unused"), credentials.Static{}, nil)
	require.NoError(t, err)

	_, err = p.Fetch(context.Background(), domain.SourceQuery{Business: "acme.com"})

	assert.ErrorIs(t, err, domain.ErrSourceAuth)
}

func TestNewPageSpeed_InvalidStrategy(t *testing.T) {
	desc := googleDesc("pagespeed-seo", PageSpeedKind, "GOOGLE_API_KEY", "")
	desc.Params["strategy"] = "tablet"

	_, err := NewPageSpeed(desc, googleCreds, nil)

	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestYouTube_Fetch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/youtube/v3/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "ykey", q.Get("key"))
		assert.Equal(t, "acme", q.Get("q"))
		assert.Equal(t, "channel", q.Get("type"))
		_, _ = w.Write([]byte(`{"items":[
			{"id":{"kind":"youtube#channel","channelId":"UC1"}},
			{"id":{"kind":"youtube#channel","channelId":"UC2"}}
		]}`))
	})
	mux.HandleFunc("/youtube/v3/channels", func(w http.ResponseWriter, r *http.Request) {
		var ids []string
		for _, v := range r.URL.Query()["id"] {
			ids = append(ids, strings.Split(v, ",")...)
		}
		assert.ElementsMatch(t, []string{"UC1", "UC2"}, ids)
		_, _ = w.Write([]byte(`{"items":[
			{"id":"UC2","snippet":{"title":"Road Runner Fans"},"statistics":{"subscriberCount":"10","videoCount":"2","viewCount":"99"}},
			{"id":"UC1","snippet":{"title":"ACME Official","customUrl":"@acme"},"statistics":{"subscriberCount":"1200","videoCount":"34","viewCount":"56000"}}
		]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	y, err := NewYouTube(googleDesc("youtube-presence", YouTubeKind, "YOUTUBE_API_KEY", srv.URL), googleCreds, srv.Client())
	require.NoError(t, err)
	assert.Equal(t, YouTubeKind, y.Kind())

	payload, err := y.Fetch(context.Background(), domain.SourceQuery{Business: "acme.com"})
	require.NoError(t, err)

	var p YouTubePresence
	require.NoError(t, json.Unmarshal(payload.Data, &p))
	require.Len(t, p.Channels, 2)
	assert.Equal(t, "UC1", p.BestMatch)
	assert.Equal(t, uint64(1200), p.Channels[1].Subscribers)
	assert.Equal(t, "@acme", p.Channels[1].Handle)
	assert.Equal(t, 1.0, payload.Completeness)
}

func TestYouTube_NoChannels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/youtube/v3/search", r.URL.Path)
		_, _ = w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	y, err := NewYouTube(googleDesc("youtube-presence", YouTubeKind, "YOUTUBE_API_KEY", srv.URL), googleCreds, srv.Client())
	require.NoError(t, err)

	payload, err := y.Fetch(context.Background(), domain.SourceQuery{Business: "nobody.io"})

	require.NoError(t, err)
	assert.Equal(t, 0.0, payload.Completeness)
	assert.JSONEq(t, `{"query":"nobody","channels":[]}`, string(payload.Data))
}

func TestNewYouTube_InvalidMaxResults(t *testing.T) {
	desc := googleDesc("youtube-presence", YouTubeKind, "YOUTUBE_API_KEY", "")
	desc.Params["max_results"] = "80"

	_, err := NewYouTube(desc, googleCreds, nil)

	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestWrapError(t *testing.T) {
	assert.Nil(t, WrapError("s", nil))

	tests := []struct {
		name string
		err  *googleapi.Error
		kind domain.ErrorKind
	}{
		{"unauthorised", &googleapi.Error{Code: 401}, domain.ErrorKindAuth},
		{"forbidden", &googleapi.Error{Code: 403, Message: "Permission denied"}, domain.ErrorKindAuth},
		{"quota", &googleapi.Error{Code: 403, Errors: []googleapi.ErrorItem{{Reason: "quotaExceeded"}}}, domain.ErrorKindRateLimited},
		{"too many", &googleapi.Error{Code: 429}, domain.ErrorKindRateLimited},
		{"bad key", &googleapi.Error{Code: 400, Message: "API key not valid"}, domain.ErrorKindAuth},
		{"server", &googleapi.Error{Code: 500}, domain.ErrorKindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, domain.ClassifyError(WrapError("s", tt.err)))
		})
	}
}
