package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteArchive(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "1_0.glb")
	b := filepath.Join(dir, "1_1.obj")
	require.NoError(t, os.WriteFile(a, []byte("glb"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("obj data"), 0o644))

	var buf bytes.Buffer
	require.NoError(t, WriteArchive(&buf, []Entry{{Name: "1_0.glb", Path: a}, {Name: "1_1.obj", Path: b}}))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)

	got := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		got[f.Name] = string(data)
	}
	assert.Equal(t, map[string]string{"1_0.glb": "glb", "1_1.obj": "obj data"}, got)
}

func TestWriteArchiveMissingFile(t *testing.T) {
	var buf bytes.Buffer
	err := WriteArchive(&buf, []Entry{{Name: "x", Path: filepath.Join(t.TempDir(), "missing")}})
	assert.Error(t, err)
}
