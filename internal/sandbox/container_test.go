package sandbox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainerLookupOnHost(t *testing.T) {
	lookup := &hostContainerLookup{dockerEnv: filepath.Join(t.TempDir(), ".dockerenv")}
	assert.Empty(t, lookup.Current())
}

func TestContainerLookupInsideContainer(t *testing.T) {
	marker := filepath.Join(t.TempDir(), ".dockerenv")
	require.NoError(t, os.WriteFile(marker, nil, 0644))

	lookup := &hostContainerLookup{dockerEnv: marker}
	hostname, err := os.Hostname()
	require.NoError(t, err)
	assert.Equal(t, hostname, lookup.Current())
}
