package github

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/content-sync-server/internal/otel"
	"github.com/stacklok/content-sync-server/internal/remote"
)

const blobMode = "100644"

// AtomicCommit writes every file in a single commit on the configured branch.
//
// The branch ref is moved with force disabled, so a branch that advanced while
// the commit was being built is reported as an api_error matching
// remote.ErrNotFastForward. Blobs and trees left behind by a failed attempt are
// unreachable and garbage collected by GitHub.
func (c *Client) AtomicCommit(ctx context.Context, files map[string][]byte, message string) (*CommitResult, error) {
	ctx, span := otel.StartSpan(ctx, c.tracer, "github.AtomicCommit",
		trace.WithAttributes(
			otel.AttrRepository.String(c.cfg.Repository),
			otel.AttrBranch.String(c.cfg.Branch),
			otel.AttrFileCount.Int(len(files)),
			otel.AttrPayloadBytes.Int(payloadSize(files)),
		))
	defer span.End()

	result, err := c.atomicCommit(ctx, files, message)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("git.commit_sha", result.SHA))
	return result, nil
}

func (c *Client) atomicCommit(ctx context.Context, files map[string][]byte, message string) (*CommitResult, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, remote.New(remote.CodeAPIError, "atomic commit", "no files to commit")
	}

	refURL := c.repoURL("git", "refs", "heads", escapePath(c.cfg.Branch))

	// 1. branch head
	var ref refResponse
	if err := c.call(ctx, "get ref", http.MethodGet, refURL, nil,
		http.StatusOK, remote.CodeRepoNotFound, &ref); err != nil {
		return nil, err
	}
	parentSHA := ref.Object.SHA
	if parentSHA == "" {
		return nil, remote.InvalidResponse("get ref", errors.New("missing object sha"))
	}

	// 2. base tree
	var parent commitResponse
	if err := c.call(ctx, "get commit", http.MethodGet, c.repoURL("git", "commits", parentSHA), nil,
		http.StatusOK, remote.CodeRepoNotFound, &parent); err != nil {
		return nil, err
	}
	if parent.Tree.SHA == "" {
		return nil, remote.InvalidResponse("get commit", errors.New("missing tree sha"))
	}

	// 3. blobs, all of them before any tree is created
	paths := sortedPaths(files)
	entries := make([]treeEntry, 0, len(paths))
	for _, path := range paths {
		var blob shaResponse
		req := blobRequest{
			Content:  base64.StdEncoding.EncodeToString(files[path]),
			Encoding: "base64",
		}
		if err := c.call(ctx, "create blob", http.MethodPost, c.repoURL("git", "blobs"), req,
			http.StatusCreated, remote.CodeRepoNotFound, &blob); err != nil {
			return nil, err
		}
		if blob.SHA == "" {
			return nil, remote.InvalidResponse("create blob", errors.New("missing blob sha"))
		}
		entries = append(entries, treeEntry{Path: path, Mode: blobMode, Type: "blob", SHA: blob.SHA})
	}

	// 4. tree
	var tree shaResponse
	if err := c.call(ctx, "create tree", http.MethodPost, c.repoURL("git", "trees"),
		treeRequest{BaseTree: parent.Tree.SHA, Tree: entries},
		http.StatusCreated, remote.CodeRepoNotFound, &tree); err != nil {
		return nil, err
	}
	if tree.SHA == "" {
		return nil, remote.InvalidResponse("create tree", errors.New("missing tree sha"))
	}

	// 5. commit
	var commit commitResponse
	if err := c.call(ctx, "create commit", http.MethodPost, c.repoURL("git", "commits"),
		commitRequest{Message: message, Tree: tree.SHA, Parents: []string{parentSHA}},
		http.StatusCreated, remote.CodeRepoNotFound, &commit); err != nil {
		return nil, err
	}
	if commit.SHA == "" {
		return nil, remote.InvalidResponse("create commit", errors.New("missing commit sha"))
	}

	// 6. move the branch
	if err := c.call(ctx, "update ref", http.MethodPatch, refURL,
		updateRefRequest{SHA: commit.SHA, Force: false},
		http.StatusOK, remote.CodeRepoNotFound, nil); err != nil {
		return nil, err
	}

	commitURL := commit.HTMLURL
	if commitURL == "" {
		commitURL = c.commitPage(commit.SHA)
	}

	return &CommitResult{
		SHA:       commit.SHA,
		URL:       commitURL,
		ParentSHA: parentSHA,
		TreeSHA:   tree.SHA,
		Files:     paths,
	}, nil
}

// commitPage derives the web URL of a commit for GitHub.com
func (c *Client) commitPage(sha string) string {
	if c.cfg.APIURL != DefaultAPIURL {
		return ""
	}
	return "https://github.com/" + c.cfg.Repository + "/commit/" + sha
}

func sortedPaths(files map[string][]byte) []string {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func payloadSize(files map[string][]byte) int {
	n := 0
	for _, data := range files {
		n += len(data)
	}
	return n
}
