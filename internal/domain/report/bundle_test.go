package report

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZiperRom1/codechecker/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFailureZip creates a failure archive under dir/failed with the given
// failed_files member content. Empty content means no member at all.
func writeFailureZip(t *testing.T, dir, name string, failedFiles []string) string {
	t.Helper()
	failedDir := filepath.Join(dir, FailedDirName)
	require.NoError(t, os.MkdirAll(failedDir, 0755))

	path := filepath.Join(failedDir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("build-action")
	require.NoError(t, err)
	_, err = w.Write([]byte("gcc -c main.cpp"))
	require.NoError(t, err)

	if failedFiles != nil {
		w, err := zw.Create("failed_files")
		require.NoError(t, err)
		for _, p := range failedFiles {
			_, err = w.Write([]byte(p + "\n"))
			require.NoError(t, err)
		}
	}
	require.NoError(t, zw.Close())
	return path
}

func writeArtifact(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDescribe_EmptyDirectory(t *testing.T) {
	// An empty report directory is a valid bundle with everything absent.
	dir := t.TempDir()

	b, err := Describe(dir)
	require.NoError(t, err)

	assert.Equal(t, dir, b.Path)
	assert.Empty(t, b.CompileCommandsPath)
	assert.Empty(t, b.CompilerInfoPath)
	assert.Empty(t, b.MetadataPath)
	assert.Empty(t, b.FailedDir)
	assert.Empty(t, b.FailedArchives)
	assert.False(t, b.HasFailures())
	assert.Empty(t, b.ArtifactPaths())
}

func TestDescribe_PartialArtifacts(t *testing.T) {
	// Each conventional artifact is independently optional.
	dir := t.TempDir()
	writeArtifact(t, dir, CompileCommandsFile, "[]")
	writeArtifact(t, dir, MetadataFile, "{}")

	b, err := Describe(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, CompileCommandsFile), b.CompileCommandsPath)
	assert.Empty(t, b.CompilerInfoPath)
	assert.Equal(t, filepath.Join(dir, MetadataFile), b.MetadataPath)
	assert.Len(t, b.ArtifactPaths(), 2)
}

func TestDescribe_FullBundle(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, CompileCommandsFile, "[]")
	writeArtifact(t, dir, CompilerInfoFile, "{}")
	writeArtifact(t, dir, MetadataFile, "{}")
	writeFailureZip(t, dir, "main.cpp_clangsa.zip", []string{"/src/main.cpp"})

	b, err := Describe(dir)
	require.NoError(t, err)

	assert.True(t, b.HasFailures())
	assert.Equal(t, filepath.Join(dir, FailedDirName), b.FailedDir)
	require.Len(t, b.FailedArchives, 1)
	assert.Len(t, b.ArtifactPaths(), 3)
}

func TestDescribe_MissingDirectory(t *testing.T) {
	_, err := Describe(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrInvalidBundle)
}

func TestDescribe_NotADirectory(t *testing.T) {
	dir := t.TempDir()
	file := writeArtifact(t, dir, "plain.txt", "x")

	_, err := Describe(file)
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrInvalidBundle)
}

func TestDescribe_EmptyFailedDir(t *testing.T) {
	// A failed/ directory with no archives is present but carries no
	// failures; the capture precondition stays false.
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, FailedDirName), 0755))

	b, err := Describe(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, b.FailedDir)
	assert.False(t, b.HasFailures())
}

func TestFailedSources_ReadsMember(t *testing.T) {
	dir := t.TempDir()
	writeFailureZip(t, dir, "main.cpp_clangsa.zip", []string{"/src/main.cpp"})
	writeFailureZip(t, dir, "util.cpp_clangsa.zip", []string{"/src/util.cpp"})

	b, err := Describe(dir)
	require.NoError(t, err)

	sources, err := b.FailedSources()
	require.NoError(t, err)
	assert.Equal(t, []string{"/src/main.cpp", "/src/util.cpp"}, sources)
}

func TestFailedSources_DeduplicatesAcrossArchives(t *testing.T) {
	// The same source can fail under multiple analyzers; one path results.
	dir := t.TempDir()
	writeFailureZip(t, dir, "main.cpp_clangsa.zip", []string{"/src/main.cpp"})
	writeFailureZip(t, dir, "main.cpp_clang-tidy.zip", []string{"/src/main.cpp"})

	b, err := Describe(dir)
	require.NoError(t, err)

	sources, err := b.FailedSources()
	require.NoError(t, err)
	assert.Equal(t, []string{"/src/main.cpp"}, sources)
}

func TestFailedSources_ArchiveWithoutMember(t *testing.T) {
	// Archives without a failed_files member are packaged but contribute
	// no index records.
	dir := t.TempDir()
	writeFailureZip(t, dir, "mystery.zip", nil)

	b, err := Describe(dir)
	require.NoError(t, err)
	assert.True(t, b.HasFailures())

	sources, err := b.FailedSources()
	require.NoError(t, err)
	assert.Empty(t, sources)
}

func TestFailedSources_CorruptArchive(t *testing.T) {
	dir := t.TempDir()
	failedDir := filepath.Join(dir, FailedDirName)
	require.NoError(t, os.MkdirAll(failedDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(failedDir, "bad.zip"), []byte("not a zip"), 0644))

	b, err := Describe(dir)
	require.NoError(t, err)

	_, err = b.FailedSources()
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrInvalidBundle)
}

func TestDescribe_DoesNotMutateSource(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, CompileCommandsFile, "[]")
	writeFailureZip(t, dir, "main.cpp_clangsa.zip", []string{"/src/main.cpp"})

	before, err := os.ReadDir(dir)
	require.NoError(t, err)

	_, err = Describe(dir)
	require.NoError(t, err)

	after, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, len(before), len(after))
}
