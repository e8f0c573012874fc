package reliability

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateArchive_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ledger.db"), []byte("ledger-bytes"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cache.db"), []byte("cache-bytes"), 0644))

	archivePath := filepath.Join(dir, "backup.tar.gz")
	require.NoError(t, createArchive(archivePath, dir, []string{"ledger.db", "cache.db"}))

	archiveFile, err := os.Open(archivePath)
	require.NoError(t, err)
	defer archiveFile.Close()

	gzipReader, err := gzip.NewReader(archiveFile)
	require.NoError(t, err)
	tarReader := tar.NewReader(gzipReader)

	contents := map[string]string{}
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(tarReader)
		require.NoError(t, err)
		contents[header.Name] = string(data)
	}

	assert.Equal(t, map[string]string{
		"ledger.db": "ledger-bytes",
		"cache.db":  "cache-bytes",
	}, contents)
}

func TestCreateArchive_MissingFileFails(t *testing.T) {
	dir := t.TempDir()
	err := createArchive(filepath.Join(dir, "backup.tar.gz"), dir, []string{"absent.db"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absent.db")
}

func TestFileChecksum(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	sum, err := fileChecksum(path)
	require.NoError(t, err)
	// sha256 of "hello"
	assert.Equal(t, "sha256:2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", sum)

	same, err := fileChecksum(path)
	require.NoError(t, err)
	assert.Equal(t, sum, same)
}

func TestExtractArchive_RoundTrip(t *testing.T) {
	srcDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "ledger.db"), []byte("ledger-bytes"), 0644))

	archivePath := filepath.Join(srcDir, "backup.tar.gz")
	require.NoError(t, createArchive(archivePath, srcDir, []string{"ledger.db"}))

	archiveFile, err := os.Open(archivePath)
	require.NoError(t, err)
	defer archiveFile.Close()

	destDir := t.TempDir()
	require.NoError(t, extractArchive(archiveFile, destDir))

	data, err := os.ReadFile(filepath.Join(destDir, "ledger.db"))
	require.NoError(t, err)
	assert.Equal(t, "ledger-bytes", string(data))
}

func TestExtractArchive_RejectsPathTraversal(t *testing.T) {
	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)
	tarWriter := tar.NewWriter(gzipWriter)
	require.NoError(t, tarWriter.WriteHeader(&tar.Header{
		Name: "../escape.db",
		Size: 4,
		Mode: 0644,
	}))
	_, err := tarWriter.Write([]byte("evil"))
	require.NoError(t, err)
	require.NoError(t, tarWriter.Close())
	require.NoError(t, gzipWriter.Close())

	err = extractArchive(&buf, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "../escape.db")
}

func TestReadMetadata_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backup-metadata.json")

	written := BackupMetadata{
		Timestamp: time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC),
		Databases: []DatabaseMetadata{
			{Name: "cache", Filename: "cache.db", SizeBytes: 1024, Checksum: "sha256:def"},
		},
	}
	require.NoError(t, writeMetadata(path, written))

	read, err := readMetadata(path)
	require.NoError(t, err)
	assert.Equal(t, written, *read)
}

func TestWriteMetadata(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backup-metadata.json")

	metadata := BackupMetadata{
		Timestamp: time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC),
		Databases: []DatabaseMetadata{
			{Name: "ledger", Filename: "ledger.db", SizeBytes: 4096, Checksum: "sha256:abc"},
		},
	}
	require.NoError(t, writeMetadata(path, metadata))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"ledger.db"`)
	assert.Contains(t, string(data), `"sha256:abc"`)
}
