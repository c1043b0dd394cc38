// Package github looks up the business's GitHub organisation.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/synapse-labs/synapse/internal/core/domain"
	"github.com/synapse-labs/synapse/internal/sources/httpjson"
)

// newClient creates a go-github client. A token authenticates through an
// oauth2 static token source layered on httpClient; without one the API is
// used anonymously at the lower rate limit.
func newClient(httpClient *http.Client, token, baseURL string) (*gh.Client, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}

	client := gh.NewClient(httpClient)
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		client.BaseURL = u
	}
	return client, nil
}

// wrapError converts go-github errors into the errors the guard classifies.
func wrapError(sourceID string, err error, operation string) error {
	if err == nil {
		return nil
	}

	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		retry := time.Until(rateLimitErr.Rate.Reset.Time)
		if retry < 0 {
			retry = 0
		}
		return &domain.RateLimitError{SourceID: sourceID, RetryAfter: retry.Round(time.Second)}
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		rl := &domain.RateLimitError{SourceID: sourceID}
		if abuseErr.RetryAfter != nil {
			rl.RetryAfter = *abuseErr.RetryAfter
		}
		return rl
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return fmt.Errorf("%s: %w", operation,
			httpjson.StatusError(sourceID, ghErr.Response.StatusCode, ghErr.Response.Header, []byte(ghErr.Message)))
	}

	return fmt.Errorf("%s: %w", operation, err)
}

// isNotFound reports whether err is a 404 from the API.
func isNotFound(err error) bool {
	var ghErr *gh.ErrorResponse
	return errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound
}
