package annotate

import (
	"context"
	"fmt"

	"github.com/xanzy/go-gitlab"
)

// GitlabCommenter posts commit comments through the GitLab API.
type GitlabCommenter struct {
	client *gitlab.Client
}

// NewGitlabCommenter authenticates against gitlab.com or a self-hosted
// instance when serverURL is set.
func NewGitlabCommenter(token, serverURL string) (*GitlabCommenter, error) {
	if token == "" {
		return nil, fmt.Errorf("GITLAB_TOKEN is not set")
	}

	var opts []gitlab.ClientOptionFunc
	if serverURL != "" {
		opts = append(opts, gitlab.WithBaseURL(serverURL))
	}
	client, err := gitlab.NewClient(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to set up GitLab client: %w", err)
	}
	return &GitlabCommenter{client: client}, nil
}

func (g *GitlabCommenter) projectID(target Target) string {
	return target.Owner + "/" + target.Repository
}

// ChangedFiles lists the files touched by the target commit.
func (g *GitlabCommenter) ChangedFiles(ctx context.Context, target Target) ([]string, error) {
	diffs, _, err := g.client.Commits.GetCommitDiff(g.projectID(target), target.CommitSHA, nil, gitlab.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(diffs))
	for _, diff := range diffs {
		if diff.NewPath != "" {
			files = append(files, diff.NewPath)
		}
	}
	return files, nil
}

// CreateCommitComment attaches a comment to a file position of the commit.
func (g *GitlabCommenter) CreateCommitComment(ctx context.Context, target Target, path string, line int, body string) error {
	opts := &gitlab.PostCommitCommentOptions{
		Note:     gitlab.String(body),
		Path:     gitlab.String(path),
		Line:     gitlab.Int(line),
		LineType: gitlab.String("new"),
	}
	_, _, err := g.client.Commits.PostCommitComment(g.projectID(target), target.CommitSHA, opts, gitlab.WithContext(ctx))
	return err
}
