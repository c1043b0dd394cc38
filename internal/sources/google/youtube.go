package google

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"google.golang.org/api/youtube/v3"

	"github.com/synapse-labs/synapse/internal/core/domain"
	"github.com/synapse-labs/synapse/internal/core/ports/driven"
	"github.com/synapse-labs/synapse/internal/sources/httpjson"
)

// YouTubeKind is the adapter kind for YouTube presence.
const YouTubeKind = "youtube"

// Ensure YouTube implements the interface.
var _ driven.SourceAdapter = (*YouTube)(nil)

// Channel is a YouTube channel that matched the business.
type Channel struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Handle      string `json:"handle,omitempty"`
	Subscribers uint64 `json:"subscribers"`
	Videos      uint64 `json:"videos"`
	Views       uint64 `json:"views"`
}

// YouTubePresence is the normalised channel search result.
type YouTubePresence struct {
	Query    string    `json:"query"`
	Channels []Channel `json:"channels"`

	// BestMatch is the ID of the channel whose title contains the name.
	BestMatch string `json:"best_match,omitempty"`
}

// YouTube finds the business's channels and their statistics.
type YouTube struct {
	sourceID   string
	svc        *youtube.Service
	maxResults int64
	credential httpjson.Credential
}

// NewYouTube builds a YouTube adapter. Params: max_results, base_url.
func NewYouTube(desc domain.SourceDescriptor, creds driven.CredentialProvider, httpClient *http.Client) (*YouTube, error) {
	maxResults, err := strconv.ParseInt(desc.Param("max_results", "5"), 10, 64)
	if err != nil || maxResults <= 0 || maxResults > 50 {
		return nil, fmt.Errorf("%w: source %s: max_results must be 1-50", domain.ErrConfiguration, desc.ID)
	}

	credential := httpjson.ResolveCredential(desc, creds)
	svc, err := youtube.NewService(context.Background(),
		clientOptions(httpClient, credential.Value, desc.Param("base_url", ""))...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	return &YouTube{sourceID: desc.ID, svc: svc, maxResults: maxResults, credential: credential}, nil
}

// Kind returns the adapter kind.
func (y *YouTube) Kind() string {
	return YouTubeKind
}

// Fetch searches channels by business name and loads their statistics.
func (y *YouTube) Fetch(ctx context.Context, q domain.SourceQuery) (domain.RawPayload, error) {
	if _, err := y.credential.Require(); err != nil {
		return domain.RawPayload{}, err
	}

	name := q.Param("name", domain.BusinessName(q.Business))
	presence := YouTubePresence{Query: name, Channels: []Channel{}}

	search, err := y.svc.Search.List([]string{"snippet"}).
		Q(name).
		Type("channel").
		MaxResults(y.maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return domain.RawPayload{}, WrapError(y.sourceID, err)
	}

	ids := make([]string, 0, len(search.Items))
	for _, item := range search.Items {
		if item.Id != nil && item.Id.ChannelId != "" {
			ids = append(ids, item.Id.ChannelId)
		}
	}
	if len(ids) == 0 {
		return domain.NewRawPayload(presence, 0)
	}

	channels, err := y.svc.Channels.List([]string{"snippet", "statistics"}).
		Id(ids...).
		Context(ctx).
		Do()
	if err != nil {
		return domain.RawPayload{}, WrapError(y.sourceID, err)
	}

	withStats := 0
	lowerName := strings.ToLower(name)
	for _, ch := range channels.Items {
		c := Channel{ID: ch.Id}
		if ch.Snippet != nil {
			c.Title = ch.Snippet.Title
			c.Handle = ch.Snippet.CustomUrl
		}
		if ch.Statistics != nil {
			c.Subscribers = ch.Statistics.SubscriberCount
			c.Videos = ch.Statistics.VideoCount
			c.Views = ch.Statistics.ViewCount
			withStats++
		}
		if presence.BestMatch == "" && strings.Contains(strings.ToLower(c.Title), lowerName) {
			presence.BestMatch = c.ID
		}
		presence.Channels = append(presence.Channels, c)
	}

	return domain.NewRawPayload(presence, domain.Completeness(map[string]bool{
		"channels":   len(presence.Channels) > 0,
		"statistics": withStats > 0,
		"best_match": presence.BestMatch != "",
	}))
}
