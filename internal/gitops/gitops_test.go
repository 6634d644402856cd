package gitops

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var author = Author{Name: "Test Author", Email: "test@example.com"}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func TestInit(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	assert.False(t, IsRepo(dir), "empty dir should not be a repo")

	require.NoError(t, Init(context.Background(), dir))
	assert.True(t, IsRepo(dir), "initialized dir should be a repo")
}

func TestCommitAll(t *testing.T) {
	requireGit(t)
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "TrialBalance.csv"), []byte("account_id\n"), 0o644))

	hash, err := CommitAll(ctx, dir, "books as of 2025-01-31", author)
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.True(t, IsRepo(dir))

	log := exec.Command("git", "log", "--format=%s|%an <%ae>", "-1")
	log.Dir = dir
	out, err := log.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "books as of 2025-01-31|Test Author <test@example.com>")
}

func TestCommitAllNothingChanged(t *testing.T) {
	requireGit(t)
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "KPIs.csv"), []byte("kpi\n"), 0o644))

	_, err := CommitAll(ctx, dir, "first", author)
	require.NoError(t, err)

	hash, err := CommitAll(ctx, dir, "second", author)
	require.NoError(t, err)
	assert.Empty(t, hash)
}
