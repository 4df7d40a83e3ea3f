package tpex

import (
	"archive/tar"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	tw := tar.NewWriter(buf)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0644,
			Size:     int64(len(content)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func TestExtractMetadata(t *testing.T) {
	pkg := buildArchive(t, map[string]string{
		"plugin/manifest.json": `{"name":"clipboard","version":"1.2.0"}`,
		"plugin/README.md":     "# Clipboard\n\nA clipboard manager.",
	})

	meta, err := ExtractMetadata(pkg)
	require.NoError(t, err)
	require.NotNil(t, meta.Manifest)
	assert.Equal(t, "clipboard", meta.Manifest["name"])
	require.NotNil(t, meta.Readme)
	assert.Contains(t, *meta.Readme, "clipboard manager")
}

func TestExtractMetadataManifestOnly(t *testing.T) {
	pkg := buildArchive(t, map[string]string{
		"MANIFEST.JSON": `{"name":"x"}`,
	})

	meta, err := ExtractMetadata(pkg)
	require.NoError(t, err)
	assert.NotNil(t, meta.Manifest)
	assert.Nil(t, meta.Readme)
}

func TestExtractMetadataReadmeWithoutExtension(t *testing.T) {
	pkg := buildArchive(t, map[string]string{
		"docs/README": "plain readme",
	})

	meta, err := ExtractMetadata(pkg)
	require.NoError(t, err)
	assert.Nil(t, meta.Manifest)
	require.NotNil(t, meta.Readme)
	assert.Equal(t, "plain readme", *meta.Readme)
}

func TestExtractMetadataInvalidManifest(t *testing.T) {
	pkg := buildArchive(t, map[string]string{
		"manifest.json": `not json at all`,
	})

	meta, err := ExtractMetadata(pkg)
	require.NoError(t, err)
	assert.Nil(t, meta.Manifest)
}

func TestExtractMetadataManifestMustBeObject(t *testing.T) {
	pkg := buildArchive(t, map[string]string{
		"manifest.json": `[1,2,3]`,
	})

	meta, err := ExtractMetadata(pkg)
	require.NoError(t, err)
	assert.Nil(t, meta.Manifest)
}

func TestExtractMetadataFirstMatchWins(t *testing.T) {
	buf := new(bytes.Buffer)
	tw := tar.NewWriter(buf)
	for _, f := range []struct{ name, content string }{
		{"a/manifest.json", `{"name":"first"}`},
		{"b/manifest.json", `{"name":"second"}`},
	} {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     f.name,
			Mode:     0644,
			Size:     int64(len(f.content)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())

	meta, err := ExtractMetadata(buf.Bytes())
	require.NoError(t, err)
	require.NotNil(t, meta.Manifest)
	assert.Equal(t, "first", meta.Manifest["name"])
}

func TestExtractMetadataGarbageInput(t *testing.T) {
	meta, err := ExtractMetadata([]byte("definitely not a tar archive"))
	assert.ErrorIs(t, err, ErrNotTar)
	assert.Nil(t, meta.Manifest)
	assert.Nil(t, meta.Readme)
}

func TestExtractMetadataEmptyArchive(t *testing.T) {
	buf := new(bytes.Buffer)
	tw := tar.NewWriter(buf)
	require.NoError(t, tw.Close())

	meta, err := ExtractMetadata(buf.Bytes())
	require.NoError(t, err)
	assert.Nil(t, meta.Manifest)
	assert.Nil(t, meta.Readme)
}
