package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/stacklok/content-sync-server/internal/remote"
)

// GetFile reads a file from the branch
func (c *Client) GetFile(ctx context.Context, path string) (*File, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	var content contentResponse
	if err := c.call(ctx, "get file", http.MethodGet, c.contentsURL(path, true), nil,
		http.StatusOK, remote.CodeNotFound, &content); err != nil {
		return nil, err
	}
	if content.Type != "file" {
		return nil, remote.InvalidResponse("get file", fmt.Errorf("%s is a %s", path, content.Type))
	}

	data, err := decodeContent(content)
	if err != nil {
		return nil, remote.InvalidResponse("get file", err)
	}
	return &File{Path: content.Path, SHA: content.SHA, Content: data}, nil
}

// DeleteFile removes a file from the branch with its own commit.
// A missing file is reported as a not_found remote error.
func (c *Client) DeleteFile(ctx context.Context, path, message string) (*CommitResult, error) {
	file, err := c.GetFile(ctx, path)
	if err != nil {
		return nil, err
	}

	var resp deleteFileResponse
	req := deleteFileRequest{Message: message, SHA: file.SHA, Branch: c.cfg.Branch}
	if err := c.call(ctx, "delete file", http.MethodDelete, c.contentsURL(path, false), req,
		http.StatusOK, remote.CodeNotFound, &resp); err != nil {
		return nil, err
	}

	return &CommitResult{
		SHA:   resp.Commit.SHA,
		URL:   resp.Commit.HTMLURL,
		Files: []string{strings.Trim(path, "/")},
	}, nil
}

// ListDirectory lists the entries of a directory on the branch
func (c *Client) ListDirectory(ctx context.Context, path string) ([]Entry, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, "list directory", http.MethodGet, c.contentsURL(path, true), nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, remote.FromResponse("list directory", resp, remote.CodeNotFound)
	}

	// the contents API answers with an object when the path is a file
	var entries []Entry
	if err := json.Unmarshal(resp.Body, &entries); err != nil {
		return nil, remote.InvalidResponse("list directory", fmt.Errorf("%s is not a directory: %w", path, err))
	}
	return entries, nil
}

func (c *Client) contentsURL(path string, withRef bool) string {
	u := c.repoURL("contents", escapePath(path))
	if withRef {
		u += "?ref=" + url.QueryEscape(c.cfg.Branch)
	}
	return u
}

func decodeContent(content contentResponse) ([]byte, error) {
	switch content.Encoding {
	case "base64":
		// GitHub wraps base64 content at 60 columns
		return base64.StdEncoding.DecodeString(strings.ReplaceAll(content.Content, "\n", ""))
	case "", "none":
		return []byte(content.Content), nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", content.Encoding)
	}
}
