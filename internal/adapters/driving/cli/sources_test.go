package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synapse-labs/synapse/internal/adapters/driven/credentials"
	"github.com/synapse-labs/synapse/internal/core/domain"
)

func TestSourcesList(t *testing.T) {
	setupTestServices(t, &Services{Catalogue: &mockCatalogue{sources: testSources()}})

	out, err := run(t, "sources")

	require.NoError(t, err)
	assert.Contains(t, out, "Configured sources:")
	assert.Contains(t, out, "Company Website (critical)")
	assert.Contains(t, out, "serper-search")
}

func TestSourcesList_Empty(t *testing.T) {
	setupTestServices(t, &Services{Catalogue: &mockCatalogue{}})

	out, err := run(t, "sources")

	require.NoError(t, err)
	assert.Contains(t, out, "No sources configured.")
}

func TestSourcesShow(t *testing.T) {
	setupTestServices(t, &Services{Catalogue: &mockCatalogue{sources: testSources()}})

	out, err := run(t, "sources", "show", "serper-search")

	require.NoError(t, err)
	assert.Contains(t, out, "Kind:        serper")
	assert.Contains(t, out, "Rate limit:  5 per 1s")
	assert.Contains(t, out, "Credential:  SERPER_API_KEY")
	assert.Contains(t, out, "gl = us")
	assert.Less(t, strings.Index(out, "gl = us"), strings.Index(out, "num = 10"))
	assert.NotContains(t, out, "Backoff:")
}

func TestSourcesShow_Backoff(t *testing.T) {
	until := time.Date(2026, 3, 1, 12, 0, 30, 0, time.UTC)
	setupTestServices(t, &Services{Catalogue: &mockCatalogue{
		sources: testSources(),
		backoff: map[string]time.Time{"serper-search": until},
	}})

	out, err := run(t, "sources", "show", "serper-search")

	require.NoError(t, err)
	assert.Contains(t, out, "Backoff:     rate limited until 2026-03-01T12:00:30Z")
}

func TestSources_CredentialStatus(t *testing.T) {
	setupTestServices(t, &Services{
		Catalogue:   &mockCatalogue{sources: testSources()},
		Credentials: credentials.Static{},
	})

	out, err := run(t, "sources")
	require.NoError(t, err)
	assert.Contains(t, out, "(no credential)")

	out, err = run(t, "sources", "show", "serper-search")
	require.NoError(t, err)
	assert.Contains(t, out, "Credential:  SERPER_API_KEY (missing)")
}

func TestSourcesShow_CredentialSet(t *testing.T) {
	setupTestServices(t, &Services{
		Catalogue:   &mockCatalogue{sources: testSources()},
		Credentials: credentials.Static{"SERPER_API_KEY": "k"},
	})

	out, err := run(t, "sources", "show", "serper-search")

	require.NoError(t, err)
	assert.Contains(t, out, "Credential:  SERPER_API_KEY (set)")
}

func TestSourcesShow_Unlimited(t *testing.T) {
	setupTestServices(t, &Services{Catalogue: &mockCatalogue{sources: testSources()}})

	out, err := run(t, "sources", "show", "website")

	require.NoError(t, err)
	assert.Contains(t, out, "Rate limit:  none")
	assert.Contains(t, out, "Critical:    true")
}

func TestSourcesShow_NotFound(t *testing.T) {
	setupTestServices(t, &Services{Catalogue: &mockCatalogue{sources: testSources()}})

	_, err := run(t, "sources", "show", "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSources_NotConfigured(t *testing.T) {
	setupTestServices(t, &Services{})

	_, err := run(t, "sources")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "source catalogue not configured")
}
