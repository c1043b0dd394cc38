// Package news reads Google News RSS search results for the business.
package news

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/synapse-labs/synapse/internal/core/domain"
	"github.com/synapse-labs/synapse/internal/core/ports/driven"
	"github.com/synapse-labs/synapse/internal/sources/httpjson"
)

// Kind is the adapter kind.
const Kind = "news"

// DefaultBaseURL is the Google News RSS search endpoint.
const DefaultBaseURL = "https://news.google.com/rss/search"

// Ensure Adapter implements the interface.
var _ driven.SourceAdapter = (*Adapter)(nil)

// Article is one news item.
type Article struct {
	Title     string     `json:"title"`
	Link      string     `json:"link"`
	Publisher string     `json:"publisher,omitempty"`
	Published *time.Time `json:"published,omitempty"`
}

// Coverage is the normalised feed.
type Coverage struct {
	Query      string    `json:"query"`
	Count      int       `json:"count"`
	Publishers int       `json:"publishers"`
	Articles   []Article `json:"articles"`
}

// Adapter fetches and parses the RSS feed.
type Adapter struct {
	client   *httpjson.Client
	baseURL  string
	language string
	country  string
	max      int
}

// New builds an Adapter. Params: language (e.g. en-US), country (e.g. US),
// max_items, base_url.
func New(desc domain.SourceDescriptor, _ driven.CredentialProvider, httpClient *http.Client) (*Adapter, error) {
	maxItems, err := strconv.Atoi(desc.Param("max_items", "20"))
	if err != nil || maxItems <= 0 {
		return nil, fmt.Errorf("%w: source %s: invalid max_items", domain.ErrConfiguration, desc.ID)
	}
	return &Adapter{
		client:   httpjson.NewClient(httpClient, desc.ID),
		baseURL:  desc.Param("base_url", DefaultBaseURL),
		language: desc.Param("language", "en-US"),
		country:  strings.ToUpper(desc.Param("country", "US")),
		max:      maxItems,
	}, nil
}

// Kind returns the adapter kind.
func (a *Adapter) Kind() string {
	return Kind
}

// Fetch searches the feed for the business name.
func (a *Adapter) Fetch(ctx context.Context, q domain.SourceQuery) (domain.RawPayload, error) {
	name := q.Param("name", domain.BusinessName(q.Business))
	query := fmt.Sprintf("%q", name)
	if industry := q.Param("industry", ""); industry != "" {
		query += " " + industry
	}

	lang := a.language
	if i := strings.IndexByte(lang, '-'); i > 0 {
		lang = lang[:i]
	}
	params := url.Values{
		"q":    {query},
		"hl":   {a.language},
		"gl":   {a.country},
		"ceid": {a.country + ":" + lang},
	}

	body, err := a.client.Get(ctx, a.baseURL+"?"+params.Encode(), http.Header{
		"Accept": []string{"application/rss+xml, application/xml;q=0.9, text/xml;q=0.8"},
	})
	if err != nil {
		return domain.RawPayload{}, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return domain.RawPayload{}, fmt.Errorf("%w: parse feed: %w", domain.ErrMalformedResponse, err)
	}

	cov := Parse(feed, a.max)
	cov.Query = query

	dated := 0
	for _, art := range cov.Articles {
		if art.Published != nil {
			dated++
		}
	}
	return domain.NewRawPayload(cov, domain.Completeness(map[string]bool{
		"articles":   cov.Count > 0,
		"publishers": cov.Publishers > 1,
		"dated":      cov.Count > 0 && dated == cov.Count,
	}))
}

// Parse converts up to max feed items into a Coverage.
func Parse(feed *gofeed.Feed, max int) Coverage {
	cov := Coverage{Articles: []Article{}}
	publishers := map[string]bool{}

	for _, item := range feed.Items {
		if len(cov.Articles) >= max {
			break
		}
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}

		art := Article{Title: title, Link: strings.TrimSpace(item.Link)}
		switch {
		case item.PublishedParsed != nil:
			t := item.PublishedParsed.UTC()
			art.Published = &t
		case item.UpdatedParsed != nil:
			t := item.UpdatedParsed.UTC()
			art.Published = &t
		}
		art.Publisher = publisher(item)
		if art.Publisher != "" {
			publishers[art.Publisher] = true
		}
		cov.Articles = append(cov.Articles, art)
	}

	cov.Count = len(cov.Articles)
	cov.Publishers = len(publishers)
	return cov
}

// publisher reads the item author, falling back to the " - Publisher"
// suffix Google News appends to titles.
func publisher(item *gofeed.Item) string {
	if len(item.Authors) > 0 && item.Authors[0] != nil && item.Authors[0].Name != "" {
		return strings.TrimSpace(item.Authors[0].Name)
	}
	if i := strings.LastIndex(item.Title, " - "); i > 0 {
		return strings.TrimSpace(item.Title[i+3:])
	}
	return ""
}
