package google

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"

	"github.com/synapse-labs/synapse/internal/core/domain"
	"github.com/synapse-labs/synapse/internal/sources/httpjson"
)

// quotaReasons are 403 reasons that mean rate limiting rather than auth.
var quotaReasons = map[string]bool{
	"quotaExceeded":         true,
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
	"dailyLimitExceeded":    true,
}

// IsQuotaExceeded returns true if the error is a 403 caused by quota.
func IsQuotaExceeded(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) || gerr.Code != http.StatusForbidden {
		return false
	}
	for _, item := range gerr.Errors {
		if quotaReasons[item.Reason] {
			return true
		}
	}
	return strings.Contains(strings.ToLower(gerr.Message), "quota")
}

// WrapError converts a Google API error into the errors the guard
// classifies. Non-API errors are returned unchanged.
func WrapError(sourceID string, err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}

	if IsQuotaExceeded(err) {
		return &domain.RateLimitError{SourceID: sourceID}
	}

	switch gerr.Code {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
		return httpjson.StatusError(sourceID, gerr.Code, gerr.Header, nil)
	case http.StatusBadRequest:
		if strings.Contains(gerr.Message, "API key") {
			return fmt.Errorf("%w: %s", domain.ErrSourceAuth, gerr.Message)
		}
	}
	return fmt.Errorf("google api: %w", err)
}
