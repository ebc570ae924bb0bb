package factory

import (
	"testing"

	"fluorite-flake/internal/vendorcli"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKnownServicesSorted(t *testing.T) {
	assert.Equal(t, []string{"aws", "github", "system", "turso", "vercel", "wrangler"}, KnownServices())
}

func TestNewBuildsEveryKnownService(t *testing.T) {
	runner := vendorcli.NewFakeRunner()
	for _, name := range KnownServices() {
		adapter, err := New(runner, name, nil)
		require.NoError(t, err, name)
		assert.Equal(t, name, adapter.GetName())
	}
}

func TestNewUnknownServiceListsKnown(t *testing.T) {
	_, err := New(vendorcli.NewFakeRunner(), "heroku", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "heroku")
	assert.Contains(t, err.Error(), "github")
}
