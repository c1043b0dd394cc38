package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/synapse-labs/synapse/internal/adapters/driven/storage/memory"
)

func TestEnvProvider(t *testing.T) {
	t.Setenv("SYNAPSE_TEST_KEY", "  secret  ")
	t.Setenv("SYNAPSE_TEST_BLANK", "   ")
	p := NewEnvProvider()

	v, ok := p.Lookup("SYNAPSE_TEST_KEY")
	assert.True(t, ok)
	assert.Equal(t, "secret", v)

	_, ok = p.Lookup("SYNAPSE_TEST_BLANK")
	assert.False(t, ok)

	_, ok = p.Lookup("SYNAPSE_TEST_UNSET_KEY")
	assert.False(t, ok)
}

func TestConfigProvider(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("credentials.SERPER_API_KEY", "from-file")
	p := NewConfigProvider(store)

	v, ok := p.Lookup("SERPER_API_KEY")
	assert.True(t, ok)
	assert.Equal(t, "from-file", v)

	_, ok = p.Lookup("OPENAI_API_KEY")
	assert.False(t, ok)
}

func TestChain_FirstHitWins(t *testing.T) {
	c := Chain{
		nil,
		Static{"A": "first"},
		Static{"A": "second", "B": "only-second", "C": ""},
	}

	v, ok := c.Lookup("A")
	assert.True(t, ok)
	assert.Equal(t, "first", v)

	v, ok = c.Lookup("B")
	assert.True(t, ok)
	assert.Equal(t, "only-second", v)

	_, ok = c.Lookup("C")
	assert.False(t, ok)
}

func TestStatus(t *testing.T) {
	got := Status(Static{"SERPER_API_KEY": "k"}, []string{"SERPER_API_KEY", "OPENAI_API_KEY", ""})

	assert.Equal(t, map[string]bool{"SERPER_API_KEY": true, "OPENAI_API_KEY": false}, got)
}
