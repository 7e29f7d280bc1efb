package gitrepo

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Metadata describes the repository a source tree belongs to. Annotation and
// permalink rendering work from it instead of shelling out to git.
type Metadata struct {
	Branch     string
	CommitHash string
	RemoteURL  string
	Subfolder  string
	RepoRoot   string
}

// CollectMetadata resolves the repository that contains sourceDir and reads
// its HEAD and origin remote. sourceDir may point below the repository root;
// the relative subfolder is preserved for path fix-ups.
func CollectMetadata(sourceDir string) (*Metadata, error) {
	if sourceDir == "" {
		return nil, fmt.Errorf("source folder is not set")
	}

	if abs, err := filepath.Abs(sourceDir); err == nil {
		sourceDir = abs
	}

	repoRoot, err := findRepositoryRoot(sourceDir)
	if err != nil {
		return nil, err
	}

	repo, err := git.PlainOpen(repoRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	md := &Metadata{RepoRoot: filepath.Clean(repoRoot)}
	if rel, err := filepath.Rel(repoRoot, sourceDir); err == nil && rel != "." {
		md.Subfolder = filepath.ToSlash(rel)
	}

	if head, err := repo.Head(); err == nil {
		if head.Name().IsBranch() {
			md.Branch = head.Name().Short()
		}
		md.CommitHash = head.Hash().String()
	}

	if remote, err := repo.Remote("origin"); err == nil {
		if cfg := remote.Config(); cfg != nil && len(cfg.URLs) > 0 {
			md.RemoteURL = strings.TrimSuffix(cfg.URLs[0], ".git")
		}
	}

	return md, nil
}

// ChangedFiles lists the paths touched by the given commit relative to its
// first parent. A root commit reports all of its files.
func ChangedFiles(repoRoot, commitHash string) ([]string, error) {
	repo, err := git.PlainOpen(repoRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository %q: %w", repoRoot, err)
	}

	commit, err := repo.CommitObject(plumbing.NewHash(commitHash))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve commit %q: %w", commitHash, err)
	}

	headTree, err := commit.Tree()
	if err != nil {
		return nil, err
	}

	var parentTree *object.Tree
	if commit.NumParents() > 0 {
		parent, err := commit.Parent(0)
		if err != nil {
			return nil, err
		}
		parentTree, err = parent.Tree()
		if err != nil {
			return nil, err
		}
	}

	changes, err := object.DiffTree(parentTree, headTree)
	if err != nil {
		return nil, fmt.Errorf("failed to compute diff: %w", err)
	}

	var paths []string
	seen := make(map[string]struct{})
	for _, change := range changes {
		path := change.To.Name
		if path == "" {
			// deletion, nothing to annotate
			continue
		}
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		paths = append(paths, path)
	}
	return paths, nil
}

// findRepositoryRoot walks up from sourceDir until a repository opens.
func findRepositoryRoot(sourceDir string) (string, error) {
	dir := sourceDir
	for {
		if _, err := git.PlainOpen(dir); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("source folder is not a git repository")
}
