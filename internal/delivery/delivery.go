// Package delivery publishes a successful repair as a GitHub pull request:
// an oauth2.StaticTokenSource-backed go-github/v45 client opens a branch,
// commits the repaired source, then opens the PR.
package delivery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/go-github/v45/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/codehealer/autofix-engine/internal/autofix"
)

// PullRequest is the subset of GitHub PR state callers care about.
type PullRequest struct {
	Number int
	URL    string
	Branch string
}

// GitHubDelivery opens a branch, commits the repaired source, and opens a PR
// against TargetBranch. It never mutates or blocks the repair loop's result;
// Publish is always called after the Controller has already finished.
type GitHubDelivery struct {
	client       *github.Client
	owner        string
	repo         string
	targetBranch string
	filePath     string
	logger       *logrus.Logger
}

// New builds a GitHubDelivery from a personal access token. Returns an error
// for an obviously malformed token, mirroring GitHubIntegration's validation.
func New(ctx context.Context, token, owner, repo, targetBranch, filePath string, logger *logrus.Logger) (*GitHubDelivery, error) {
	if !hasValidTokenPrefix(token) {
		return nil, fmt.Errorf("delivery: invalid GitHub token")
	}
	if err := validateRepositoryName(owner, repo); err != nil {
		return nil, fmt.Errorf("delivery: %w", err)
	}
	if logger == nil {
		logger = logrus.New()
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	client := github.NewClient(tc)

	if targetBranch == "" {
		targetBranch = "main"
	}
	if filePath == "" {
		filePath = "main.go"
	}

	return &GitHubDelivery{
		client:       client,
		owner:        owner,
		repo:         repo,
		targetBranch: targetBranch,
		filePath:     filePath,
		logger:       logger,
	}, nil
}

func hasValidTokenPrefix(token string) bool {
	for _, prefix := range []string{"ghp_", "gho_", "github_pat_"} {
		if len(token) >= len(prefix) && token[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

// validateRepositoryName rejects owner/repo pairs GitHub itself would
// reject, so a typo surfaces immediately instead of as an opaque 404 from
// the first API call.
func validateRepositoryName(owner, name string) error {
	if owner == "" {
		return fmt.Errorf("repository owner cannot be empty")
	}
	if name == "" {
		return fmt.Errorf("repository name cannot be empty")
	}
	if len(owner) > 39 || len(name) > 100 {
		return fmt.Errorf("repository owner/name too long: %s/%s", owner, name)
	}
	for _, char := range []string{" ", "~", "^", ":", "?", "*", "[", "\\"} {
		if strings.Contains(owner, char) || strings.Contains(name, char) {
			return fmt.Errorf("repository owner/name contains invalid character %q: %s/%s", char, owner, name)
		}
	}
	return nil
}

// Publish creates branch autofix/<runID>, commits the final source there,
// and opens a pull request describing the run. Only called by the caller
// when result.FinalStatus == autofix.StatusSuccess.
func (d *GitHubDelivery) Publish(ctx context.Context, result autofix.Report, finalSource autofix.Source) (*PullRequest, error) {
	if result.FinalStatus != autofix.StatusSuccess {
		return nil, fmt.Errorf("delivery: refusing to open a PR for a %s run", result.FinalStatus)
	}

	branchName := d.branchName(result.RunID)
	if err := d.createBranch(ctx, branchName); err != nil {
		return nil, fmt.Errorf("delivery: create branch: %w", err)
	}
	if err := d.commitFile(ctx, branchName, finalSource, result); err != nil {
		return nil, fmt.Errorf("delivery: commit fix: %w", err)
	}

	title := d.prTitle(result)
	body := d.prBody(result)

	pr, _, err := d.client.PullRequests.Create(ctx, d.owner, d.repo, &github.NewPullRequest{
		Title: github.String(title),
		Head:  github.String(branchName),
		Base:  github.String(d.targetBranch),
		Body:  github.String(body),
	})
	if err != nil {
		return nil, fmt.Errorf("delivery: create pull request: %w", err)
	}

	d.logger.WithFields(logrus.Fields{
		"pr_number": pr.GetNumber(),
		"branch":    branchName,
	}).Info("opened autofix pull request")

	return &PullRequest{Number: pr.GetNumber(), URL: pr.GetHTMLURL(), Branch: branchName}, nil
}

func (d *GitHubDelivery) branchName(runID string) string {
	if runID == "" {
		runID = fmt.Sprintf("%d", time.Now().Unix())
	}
	return "autofix/" + runID
}

func (d *GitHubDelivery) createBranch(ctx context.Context, branchName string) error {
	mainRef, _, err := d.client.Git.GetRef(ctx, d.owner, d.repo, "heads/"+d.targetBranch)
	if err != nil {
		return fmt.Errorf("get %s ref: %w", d.targetBranch, err)
	}

	newRef := &github.Reference{
		Ref:    github.String("refs/heads/" + branchName),
		Object: &github.GitObject{SHA: mainRef.Object.SHA},
	}
	_, _, err = d.client.Git.CreateRef(ctx, d.owner, d.repo, newRef)
	return err
}

func (d *GitHubDelivery) commitFile(ctx context.Context, branch string, src autofix.Source, result autofix.Report) error {
	existing, _, _, err := d.client.Repositories.GetContents(ctx, d.owner, d.repo, d.filePath, &github.RepositoryContentGetOptions{Ref: branch})

	opts := &github.RepositoryContentFileOptions{
		Message: github.String(fmt.Sprintf("autofix: repair %s (%d iterations)", d.filePath, result.TotalIterations)),
		Content: []byte(src),
		Branch:  &branch,
	}
	if err == nil && existing != nil {
		opts.SHA = existing.SHA
		_, _, err = d.client.Repositories.UpdateFile(ctx, d.owner, d.repo, d.filePath, opts)
		return err
	}
	_, _, err = d.client.Repositories.CreateFile(ctx, d.owner, d.repo, d.filePath, opts)
	return err
}

func (d *GitHubDelivery) prTitle(result autofix.Report) string {
	caser := cases.Title(language.English)
	return fmt.Sprintf("Autofix: %s after %d iteration(s)", caser.String(result.FinalStatus), result.TotalIterations)
}

func (d *GitHubDelivery) prBody(result autofix.Report) string {
	body := "Automated repair run.\n\n"
	body += fmt.Sprintf("Final status: %s\n", result.FinalStatus)
	body += fmt.Sprintf("Total iterations: %d\n\n", result.TotalIterations)
	for _, it := range result.Iterations {
		body += fmt.Sprintf("- iteration %d: method=%s error_kind=%s success=%t\n", it.Index, it.MethodApplied, it.ErrorKind, it.Success)
	}
	return body
}
