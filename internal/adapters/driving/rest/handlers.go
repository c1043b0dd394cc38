package rest

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/synapse-labs/synapse/internal/core/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

type gatherRequest struct {
	Business     string            `json:"business"`
	ForceRefresh bool              `json:"force_refresh"`
	Deadline     string            `json:"deadline"`
	Params       map[string]string `json:"params"`
}

// insufficientResponse is the 422 body of a non-viable gather.
type insufficientResponse struct {
	Error           string                     `json:"error"`
	Usable          int                        `json:"usable"`
	Required        int                        `json:"required"`
	Shortfall       int                        `json:"shortfall"`
	MissingCritical []string                   `json:"missing_critical,omitempty"`
	Bundle          *domain.IntelligenceBundle `json:"bundle,omitempty"`
}

type sourceView struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Kind          string            `json:"kind"`
	Tier          string            `json:"tier"`
	Critical      bool              `json:"critical"`
	Timeout       string            `json:"timeout"`
	CacheTTL      string            `json:"cache_ttl"`
	RateLimit     *rateLimitView    `json:"rate_limit,omitempty"`
	BackoffUntil  *time.Time        `json:"backoff_until,omitempty"`
	CredentialEnv string            `json:"credential_env,omitempty"`
	Params        map[string]string `json:"params,omitempty"`
}

type rateLimitView struct {
	Calls  int    `json:"calls"`
	Window string `json:"window"`
}

type warmRequest struct {
	Business string            `json:"business"`
	Params   map[string]string `json:"params"`
}

type warmTargetView struct {
	Business       string            `json:"business"`
	Params         map[string]string `json:"params,omitempty"`
	Interval       string            `json:"interval"`
	LastRun        *time.Time        `json:"last_run,omitempty"`
	NextRun        *time.Time        `json:"next_run,omitempty"`
	LastError      string            `json:"last_error,omitempty"`
	LastConfidence float64           `json:"last_confidence"`
}

// gather runs one fan-out. A non-viable result answers 422 with the
// shortfall and the non-viable bundle.
func (s *Server) gather(c echo.Context) error {
	var req gatherRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Business) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "business is required")
	}

	opts := domain.GatherOptions{
		ForceRefresh: req.ForceRefresh,
		Params:       req.Params,
	}
	if req.Deadline != "" {
		d, err := time.ParseDuration(req.Deadline)
		if err != nil || d <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid deadline %q", req.Deadline))
		}
		opts.Deadline = d
	}

	bundle, err := s.ports.Gatherer.Gather(c.Request().Context(), req.Business, opts)
	if err != nil {
		if insufficient, ok := domain.IsInsufficientIntelligence(err); ok {
			return c.JSON(http.StatusUnprocessableEntity, insufficientResponse{
				Error:           insufficient.Error(),
				Usable:          insufficient.Usable,
				Required:        insufficient.Required,
				Shortfall:       insufficient.Shortfall,
				MissingCritical: insufficient.MissingCritical,
				Bundle:          insufficient.Bundle,
			})
		}
		return httpError(err)
	}

	return c.JSON(http.StatusOK, bundle)
}

func (s *Server) listSources(c echo.Context) error {
	if s.ports.Catalogue == nil {
		return c.JSON(http.StatusOK, []sourceView{})
	}
	descs := s.ports.Catalogue.List()
	views := make([]sourceView, len(descs))
	for i := range descs {
		views[i] = s.sourceView(&descs[i])
	}
	return c.JSON(http.StatusOK, views)
}

func (s *Server) getSource(c echo.Context) error {
	if s.ports.Catalogue == nil {
		return echo.NewHTTPError(http.StatusNotFound, "source not found")
	}
	desc, err := s.ports.Catalogue.Get(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, s.sourceView(desc))
}

// clearCache invalidates one business when ?business= is given, otherwise
// purges the source, or the whole cache without a source.
func (s *Server) clearCache(c echo.Context) error {
	if s.ports.Cache == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "cache administration is not enabled")
	}

	sourceID := c.Param("source")
	if sourceID == "" {
		sourceID = c.QueryParam("source")
	}
	ctx := c.Request().Context()

	if business := c.QueryParam("business"); business != "" {
		n, err := s.ports.Cache.Invalidate(ctx, sourceID, business, nil)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, map[string]int{"invalidated": n})
	}

	n, err := s.ports.Cache.Purge(ctx, sourceID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]int{"purged": n})
}

func (s *Server) listWarmTargets(c echo.Context) error {
	if s.ports.Warmer == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "cache warmer is not enabled")
	}
	targets, err := s.ports.Warmer.Targets(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	views := make([]warmTargetView, len(targets))
	for i := range targets {
		views[i] = toWarmTargetView(&targets[i])
	}
	return c.JSON(http.StatusOK, views)
}

func (s *Server) trackWarmTarget(c echo.Context) error {
	if s.ports.Warmer == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "cache warmer is not enabled")
	}
	var req warmRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := s.ports.Warmer.Track(c.Request().Context(), req.Business, req.Params); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusAccepted)
}

// httpError maps domain errors to HTTP status codes.
func httpError(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	case errors.Is(err, domain.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error()).SetInternal(err)
	case errors.Is(err, domain.ErrCacheUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error()).SetInternal(err)
	default:
		return err
	}
}

func (s *Server) sourceView(d *domain.SourceDescriptor) sourceView {
	v := toSourceView(d)
	if until := s.ports.Catalogue.BackoffUntil(d.ID); !until.IsZero() {
		v.BackoffUntil = &until
	}
	return v
}

func toSourceView(d *domain.SourceDescriptor) sourceView {
	v := sourceView{
		ID:            d.ID,
		Name:          d.Name(),
		Kind:          d.Kind,
		Tier:          d.Tier.String(),
		Critical:      d.IsCritical,
		Timeout:       d.Timeout.String(),
		CacheTTL:      d.CacheTTL.String(),
		CredentialEnv: d.CredentialEnv,
		Params:        d.Params,
	}
	if !d.RateLimit.IsUnlimited() {
		v.RateLimit = &rateLimitView{Calls: d.RateLimit.Calls, Window: d.RateLimit.Window.String()}
	}
	return v
}

func toWarmTargetView(t *domain.WarmTarget) warmTargetView {
	v := warmTargetView{
		Business:       t.Business,
		Params:         t.Params,
		Interval:       t.Interval.String(),
		LastError:      t.LastError,
		LastConfidence: t.LastConfidence,
	}
	if !t.LastRun.IsZero() {
		last := t.LastRun
		v.LastRun = &last
	}
	if !t.NextRun.IsZero() {
		next := t.NextRun
		v.NextRun = &next
	}
	return v
}
