package gitrepo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commitFile(t *testing.T, repo *git.Repository, dir, name, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))

	worktree, err := repo.Worktree()
	require.NoError(t, err)
	_, err = worktree.Add(name)
	require.NoError(t, err)

	hash, err := worktree.Commit("add "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return hash.String()
}

func TestCollectMetadata(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	_, err = repo.CreateRemote(&config.RemoteConfig{
		Name: "origin",
		URLs: []string{"https://github.com/acme/shop-backend.git"},
	})
	require.NoError(t, err)

	hash := commitFile(t, repo, dir, "app/main.py", "print('hi')\n")

	md, err := CollectMetadata(filepath.Join(dir, "app"))
	require.NoError(t, err)
	assert.Equal(t, hash, md.CommitHash)
	assert.Equal(t, "https://github.com/acme/shop-backend", md.RemoteURL)
	assert.Equal(t, "app", md.Subfolder)
	assert.Equal(t, filepath.Clean(dir), md.RepoRoot)
	assert.Equal(t, "master", md.Branch)
}

func TestCollectMetadataNotARepository(t *testing.T) {
	_, err := CollectMetadata(t.TempDir())
	assert.Error(t, err)
}

func TestCollectMetadataEmptySource(t *testing.T) {
	_, err := CollectMetadata("")
	assert.Error(t, err)
}

func TestChangedFiles(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	commitFile(t, repo, dir, "a.py", "a = 1\n")
	second := commitFile(t, repo, dir, "b.py", "b = 2\n")

	files, err := ChangedFiles(dir, second)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.py"}, files)
}

func TestChangedFilesRootCommit(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	first := commitFile(t, repo, dir, "a.py", "a = 1\n")

	files, err := ChangedFiles(dir, first)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.py"}, files)
}
