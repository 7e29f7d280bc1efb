package annotate

import (
	"context"
	"fmt"
	"strings"

	"github.com/gitsight/go-vcsurl"
	"github.com/hashicorp/go-hclog"

	"github.com/ngsast/bestfix/internal/bestfix"
	"github.com/ngsast/bestfix/internal/gitrepo"
)

// Target identifies the repository and commit the comments attach to.
type Target struct {
	Provider   string
	Host       string
	Owner      string
	Repository string
	CommitSHA  string
}

// Commenter posts commit comments on a hosting provider. Implementations
// exist for GitHub and GitLab.
type Commenter interface {
	// ChangedFiles lists the paths touched by the target commit as the
	// provider sees them.
	ChangedFiles(ctx context.Context, target Target) ([]string, error)
	// CreateCommitComment attaches body to the given file position of the
	// target commit.
	CreateCommitComment(ctx context.Context, target Target, path string, line int, body string) error
}

// Options tunes one annotation run.
type Options struct {
	// ChangedFilesOnly restricts comments to files the commit actually
	// touched, keeping PR noise down on large reports.
	ChangedFilesOnly bool
}

// Annotator posts best-fix recommendations as commit comments.
type Annotator struct {
	commenter Commenter
	opts      Options
	logger    hclog.Logger
}

// NewAnnotator builds an annotator around a provider commenter.
func NewAnnotator(commenter Commenter, opts Options, logger hclog.Logger) *Annotator {
	return &Annotator{commenter: commenter, opts: opts, logger: logger}
}

// Annotate posts one comment per finding that has a sink location. deepLinks
// maps finding ids to their tenant URLs; a missing entry just drops the link
// line. A finding that fails to post is logged and skipped, the run continues.
func (a *Annotator) Annotate(ctx context.Context, target Target, findings []bestfix.AnnotatedFinding, deepLinks map[string]string) (int, error) {
	var changedFiles map[string]struct{}
	if a.opts.ChangedFilesOnly {
		files, err := a.commenter.ChangedFiles(ctx, target)
		if err != nil {
			return 0, fmt.Errorf("failed to list changed files: %w", err)
		}
		changedFiles = make(map[string]struct{}, len(files))
		for _, file := range files {
			changedFiles[file] = struct{}{}
		}
	}

	posted := 0
	for _, finding := range findings {
		if finding.LastLocation == "" {
			continue
		}
		file, line := bestfix.SplitLocation(finding.LastLocation)
		file = FixSourcePath(file)

		if changedFiles != nil {
			if _, ok := changedFiles[file]; !ok {
				a.logger.Debug("skipping finding outside the commit", "finding", finding.ID, "file", file)
				continue
			}
		}

		body := CommentBody(finding, target, file, line, deepLinks[finding.ID])
		if err := a.commenter.CreateCommitComment(ctx, target, file, line, body); err != nil {
			a.logger.Warn("failed to add comment", "finding", finding.ID, "file", file, "error", err)
			continue
		}
		a.logger.Debug("added comment", "file", file, "line", line)
		posted++
	}
	return posted, nil
}

// ResolveTarget derives the annotation target from repository metadata.
func ResolveTarget(md *gitrepo.Metadata) (Target, error) {
	if md == nil || md.RemoteURL == "" {
		return Target{}, fmt.Errorf("repository has no origin remote")
	}
	if md.CommitHash == "" {
		return Target{}, fmt.Errorf("repository has no HEAD commit")
	}

	info, err := vcsurl.Parse(md.RemoteURL)
	if err != nil {
		return Target{}, fmt.Errorf("unable to parse remote %q: %w", md.RemoteURL, err)
	}

	target := Target{
		Host:       string(info.Host),
		Owner:      info.Username,
		Repository: info.Name,
		CommitSHA:  md.CommitHash,
	}
	switch {
	case strings.Contains(target.Host, "gitlab"):
		target.Provider = "gitlab"
	case strings.Contains(target.Host, "github"):
		target.Provider = "github"
	default:
		return Target{}, fmt.Errorf("unsupported hosting provider: %s", target.Host)
	}
	return target, nil
}

// FixSourcePath prefixes the conventional src/main layout for Java and Scala
// files reported with package-relative paths.
func FixSourcePath(path string) string {
	if strings.HasSuffix(path, ".java") && !strings.HasPrefix(path, "src") {
		return "src/main/java/" + path
	}
	if strings.HasSuffix(path, ".scala") && !strings.HasPrefix(path, "src") {
		return "src/main/scala/" + path
	}
	return path
}

// CommentBody renders the markdown body of one commit comment.
func CommentBody(finding bestfix.AnnotatedFinding, target Target, file string, line int, deepLink string) string {
	var b strings.Builder
	b.WriteString(finding.Title)
	b.WriteString("\n")
	fmt.Fprintf(&b, "**Location:** https://%s/%s/%s/blob/%s/%s#L%d\n",
		target.Host, target.Owner, target.Repository, target.CommitSHA, file, line)
	b.WriteString(finding.RawBestFix())
	if deepLink != "" {
		fmt.Fprintf(&b, "\n**Finding Link:** %s\n", deepLink)
	}
	return b.String()
}
