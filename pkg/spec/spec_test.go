package spec

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadEmbedded(t *testing.T) {
	doc, err := Load(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, "Theta Data REST API", doc.Info.Title)
	require.NotNil(t, doc.Paths.Find("/calendar/today"))
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.yaml")
	require.NoError(t, os.WriteFile(path, embedded, 0o644))

	doc, err := Load(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, "Theta Data REST API", doc.Info.Title)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse(context.Background(), []byte("openapi: 3.0.3\ninfo: {title: broken}\n"))
	require.Error(t, err)
}
