package annotate

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v47/github"
	"golang.org/x/oauth2"
)

// GithubCommenter posts commit comments through the GitHub API.
type GithubCommenter struct {
	client *github.Client
}

// NewGithubCommenter authenticates against github.com or an enterprise server
// when serverURL is set.
func NewGithubCommenter(ctx context.Context, token, serverURL string) (*GithubCommenter, error) {
	if token == "" {
		return nil, fmt.Errorf("GITHUB_TOKEN is not set")
	}

	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	if serverURL != "" && serverURL != "https://github.com" {
		if !strings.HasPrefix(serverURL, "http") {
			serverURL = "https://" + serverURL
		}
		client, err := github.NewEnterpriseClient(serverURL, serverURL, httpClient)
		if err != nil {
			return nil, fmt.Errorf("failed to set up GitHub Enterprise client: %w", err)
		}
		return &GithubCommenter{client: client}, nil
	}
	return &GithubCommenter{client: github.NewClient(httpClient)}, nil
}

// ChangedFiles lists the files touched by the target commit.
func (g *GithubCommenter) ChangedFiles(ctx context.Context, target Target) ([]string, error) {
	commit, _, err := g.client.Repositories.GetCommit(ctx, target.Owner, target.Repository, target.CommitSHA, nil)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(commit.Files))
	for _, file := range commit.Files {
		files = append(files, file.GetFilename())
	}
	return files, nil
}

// CreateCommitComment attaches a comment to a file position of the commit.
func (g *GithubCommenter) CreateCommitComment(ctx context.Context, target Target, path string, line int, body string) error {
	comment := &github.RepositoryComment{
		Body:     github.String(body),
		Path:     github.String(path),
		Position: github.Int(line),
	}
	_, _, err := g.client.Repositories.CreateComment(ctx, target.Owner, target.Repository, target.CommitSHA, comment)
	return err
}
