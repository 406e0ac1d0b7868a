// ABOUTME: Tests for the catalog and cloud commands
// ABOUTME: Verifies filtering and output against the embedded catalog

package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/keir-whitehead/setup-lab-3d/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogCommand_ListsAllModels(t *testing.T) {
	resetGlobals(t)
	jsonOutput = true

	var buf bytes.Buffer
	require.Equal(t, 0, runCatalog(context.Background(), &buf))

	defs := decodeOutput[[]models.ModelDefinition](t, buf.Bytes())
	assert.Len(t, defs, 10)
}

func TestCatalogCommand_CategoryFilter(t *testing.T) {
	resetGlobals(t)
	catalogCategory = "audio"

	var buf bytes.Buffer
	require.Equal(t, 0, runCatalog(context.Background(), &buf))
	assert.Contains(t, buf.String(), "Whisper Large V3 Turbo")
	assert.NotContains(t, buf.String(), "Phi-4")
}

func TestCatalogCommand_NoMatches(t *testing.T) {
	resetGlobals(t)
	catalogSearch = "nothing-like-this"

	var buf bytes.Buffer
	require.Equal(t, 0, runCatalog(context.Background(), &buf))
	assert.Contains(t, buf.String(), "No models match.")
}

func TestCatalogCommand_InvalidCategory(t *testing.T) {
	resetGlobals(t)
	catalogCategory = "video"

	var buf bytes.Buffer
	assert.Equal(t, 2, runCatalog(context.Background(), &buf))
}

func TestCatalogCommand_BadCatalogPath(t *testing.T) {
	resetGlobals(t)
	catalogPath = "/nonexistent/catalog.yaml"

	var buf bytes.Buffer
	assert.Equal(t, 2, runCatalog(context.Background(), &buf))
	assert.Contains(t, buf.String(), "Error:")
}

func TestCloudCommand(t *testing.T) {
	resetGlobals(t)
	jsonOutput = true

	var buf bytes.Buffer
	require.Equal(t, 0, runCloud(context.Background(), &buf))

	cloud := decodeOutput[[]models.CloudService](t, buf.Bytes())
	assert.Len(t, cloud, 2)
}

func TestCloudCommand_AgainstBackend(t *testing.T) {
	resetGlobals(t)
	useBackend(t)

	var buf bytes.Buffer
	require.Equal(t, 0, runCloud(context.Background(), &buf), buf.String())
	assert.Contains(t, buf.String(), "Claude Opus 4.6")
}
