package google

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/pagespeedonline/v5"

	"github.com/synapse-labs/synapse/internal/core/domain"
	"github.com/synapse-labs/synapse/internal/core/ports/driven"
	"github.com/synapse-labs/synapse/internal/sources/httpjson"
)

// PageSpeedKind is the adapter kind for PageSpeed Insights.
const PageSpeedKind = "pagespeed"

// Ensure PageSpeed implements the interface.
var _ driven.SourceAdapter = (*PageSpeed)(nil)

// lighthouseCategories are requested on every run.
var lighthouseCategories = []string{"PERFORMANCE", "SEO", "ACCESSIBILITY", "BEST_PRACTICES"}

// PageSpeedReport is the normalised Lighthouse summary. Scores are 0-100.
type PageSpeedReport struct {
	URL             string             `json:"url"`
	Strategy        string             `json:"strategy"`
	Scores          map[string]float64 `json:"scores"`
	OverallCategory string             `json:"overall_category,omitempty"`
	FetchTime       string             `json:"fetch_time,omitempty"`
}

// PageSpeed runs Lighthouse against the business homepage.
type PageSpeed struct {
	sourceID   string
	svc        *pagespeedonline.Service
	strategy   string
	credential httpjson.Credential
}

// NewPageSpeed builds a PageSpeed adapter. Params: strategy (MOBILE or
// DESKTOP), base_url.
func NewPageSpeed(desc domain.SourceDescriptor, creds driven.CredentialProvider, httpClient *http.Client) (*PageSpeed, error) {
	strategy := strings.ToUpper(desc.Param("strategy", "MOBILE"))
	if strategy != "MOBILE" && strategy != "DESKTOP" {
		return nil, fmt.Errorf("%w: source %s: unknown strategy %q", domain.ErrConfiguration, desc.ID, strategy)
	}

	credential := httpjson.ResolveCredential(desc, creds)
	svc, err := pagespeedonline.NewService(context.Background(),
		clientOptions(httpClient, credential.Value, desc.Param("base_url", ""))...)
	if err != nil {
		return nil, fmt.Errorf("create pagespeed service: %w", err)
	}

	return &PageSpeed{sourceID: desc.ID, svc: svc, strategy: strategy, credential: credential}, nil
}

// Kind returns the adapter kind.
func (p *PageSpeed) Kind() string {
	return PageSpeedKind
}

// Fetch runs the analysis.
func (p *PageSpeed) Fetch(ctx context.Context, q domain.SourceQuery) (domain.RawPayload, error) {
	if _, err := p.credential.Require(); err != nil {
		return domain.RawPayload{}, err
	}

	target := q.BusinessURL()
	resp, err := p.svc.Pagespeedapi.Runpagespeed(target).
		Strategy(p.strategy).
		Category(lighthouseCategories...).
		Context(ctx).
		Do()
	if err != nil {
		return domain.RawPayload{}, WrapError(p.sourceID, err)
	}
	if resp.LighthouseResult == nil || resp.LighthouseResult.Categories == nil {
		return domain.RawPayload{}, fmt.Errorf("%w: no lighthouse result", domain.ErrMalformedResponse)
	}

	cats := resp.LighthouseResult.Categories
	report := PageSpeedReport{
		URL:       target,
		Strategy:  p.strategy,
		Scores:    make(map[string]float64, 4),
		FetchTime: resp.LighthouseResult.FetchTime,
	}
	if resp.LoadingExperience != nil {
		report.OverallCategory = resp.LoadingExperience.OverallCategory
	}

	present := make(map[string]bool, 4)
	for name, cat := range map[string]*pagespeedonline.LighthouseCategoryV5{
		"performance":    cats.Performance,
		"seo":            cats.Seo,
		"accessibility":  cats.Accessibility,
		"best_practices": cats.BestPractices,
	} {
		score, ok := categoryScore(cat)
		present[name] = ok
		if ok {
			report.Scores[name] = score
		}
	}

	return domain.NewRawPayload(report, domain.Completeness(present))
}

// categoryScore converts a 0-1 Lighthouse score into 0-100.
func categoryScore(cat *pagespeedonline.LighthouseCategoryV5) (float64, bool) {
	if cat == nil {
		return 0, false
	}
	switch v := cat.Score.(type) {
	case float64:
		return v * 100, true
	case int:
		return float64(v) * 100, true
	default:
		return 0, false
	}
}
