// Package website scrapes the business homepage.
package website

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/synapse-labs/synapse/internal/core/domain"
	"github.com/synapse-labs/synapse/internal/core/ports/driven"
	"github.com/synapse-labs/synapse/internal/sources/httpjson"
)

// Kind is the adapter kind.
const Kind = "website"

// Ensure Adapter implements the interface.
var _ driven.SourceAdapter = (*Adapter)(nil)

// socialHosts maps link hosts to network names.
var socialHosts = map[string]string{
	"facebook.com":  "facebook",
	"instagram.com": "instagram",
	"twitter.com":   "twitter",
	"x.com":         "twitter",
	"linkedin.com":  "linkedin",
	"youtube.com":   "youtube",
	"tiktok.com":    "tiktok",
	"yelp.com":      "yelp",
	"pinterest.com": "pinterest",
}

// Profile is the normalised homepage summary.
type Profile struct {
	URL            string            `json:"url"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Headings       []string          `json:"headings,omitempty"`
	Language       string            `json:"language,omitempty"`
	Social         map[string]string `json:"social,omitempty"`
	Phones         []string          `json:"phones,omitempty"`
	Emails         []string          `json:"emails,omitempty"`
	StructuredData bool              `json:"structured_data"`
	OpenGraph      map[string]string `json:"open_graph,omitempty"`
	Links          int               `json:"links"`
	Images         int               `json:"images"`
	ImagesNoAlt    int               `json:"images_missing_alt"`
}

// Adapter fetches and parses the business homepage.
type Adapter struct {
	client  *httpjson.Client
	baseURL string
}

// New builds an Adapter. The base_url param replaces the business URL,
// mostly for tests and staging sites.
func New(desc domain.SourceDescriptor, _ driven.CredentialProvider, httpClient *http.Client) (*Adapter, error) {
	return &Adapter{
		client:  httpjson.NewClient(httpClient, desc.ID),
		baseURL: desc.Param("base_url", ""),
	}, nil
}

// Kind returns the adapter kind.
func (a *Adapter) Kind() string {
	return Kind
}

// Fetch downloads the homepage and extracts the profile.
func (a *Adapter) Fetch(ctx context.Context, q domain.SourceQuery) (domain.RawPayload, error) {
	target := a.baseURL
	if target == "" {
		target = q.BusinessURL()
	}

	body, err := a.client.Get(ctx, target, http.Header{"Accept": []string{"text/html,application/xhtml+xml"}})
	if err != nil {
		return domain.RawPayload{}, err
	}

	profile, err := Parse(target, body)
	if err != nil {
		return domain.RawPayload{}, err
	}
	return domain.NewRawPayload(profile, profile.completeness())
}

// Parse extracts a Profile from an HTML document.
func Parse(pageURL string, body []byte) (*Profile, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: empty html document", domain.ErrMalformedResponse)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %w", domain.ErrMalformedResponse, err)
	}

	p := &Profile{
		URL:       pageURL,
		Title:     clean(doc.Find("title").First().Text()),
		Language:  strings.TrimSpace(doc.Find("html").AttrOr("lang", "")),
		Social:    make(map[string]string),
		OpenGraph: make(map[string]string),
	}

	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		name := strings.ToLower(s.AttrOr("name", s.AttrOr("property", "")))
		content := clean(s.AttrOr("content", ""))
		switch {
		case name == "description":
			p.Description = content
		case strings.HasPrefix(name, "og:") && content != "":
			p.OpenGraph[strings.TrimPrefix(name, "og:")] = content
		}
	})
	if p.Description == "" {
		p.Description = p.OpenGraph["description"]
	}

	doc.Find("h1, h2").Each(func(_ int, s *goquery.Selection) {
		if h := clean(s.Text()); h != "" && len(p.Headings) < 10 {
			p.Headings = append(p.Headings, h)
		}
	})

	phones := map[string]bool{}
	emails := map[string]bool{}
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		p.Links++
		href := strings.TrimSpace(s.AttrOr("href", ""))
		switch {
		case strings.HasPrefix(href, "tel:"):
			phones[strings.TrimPrefix(href, "tel:")] = true
		case strings.HasPrefix(href, "mailto:"):
			addr := strings.TrimPrefix(href, "mailto:")
			if i := strings.IndexByte(addr, '?'); i >= 0 {
				addr = addr[:i]
			}
			emails[strings.ToLower(addr)] = true
		default:
			if network, ok := socialNetwork(href); ok {
				if _, seen := p.Social[network]; !seen {
					p.Social[network] = href
				}
			}
		}
	})
	p.Phones = sortedKeys(phones)
	p.Emails = sortedKeys(emails)

	p.StructuredData = doc.Find(`script[type="application/ld+json"]`).Length() > 0 ||
		doc.Find("[itemscope]").Length() > 0

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		p.Images++
		if strings.TrimSpace(s.AttrOr("alt", "")) == "" {
			p.ImagesNoAlt++
		}
	})

	return p, nil
}

func (p *Profile) completeness() float64 {
	return domain.Completeness(map[string]bool{
		"title":           p.Title != "",
		"description":     p.Description != "",
		"headings":        len(p.Headings) > 0,
		"social":          len(p.Social) > 0,
		"contact":         len(p.Phones) > 0 || len(p.Emails) > 0,
		"structured_data": p.StructuredData,
	})
}

func socialNetwork(href string) (string, bool) {
	u, err := url.Parse(href)
	if err != nil || u.Host == "" {
		return "", false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	network, ok := socialHosts[host]
	return network, ok
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func sortedKeys(m map[string]bool) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		if k != "" {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
