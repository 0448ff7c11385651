// Package assets collects the images referenced by a content item and stages
// them for a commit.
//
// Local references are read from the media root, remote ones are downloaded
// when allowed. Every item gets its own in-memory staging filesystem that lives
// until Cleanup is called for the item.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/stacklok/content-sync-server/internal/content"
	"github.com/stacklok/content-sync-server/internal/httpclient"
)

const (
	// MaxAssetSize is the largest single asset accepted
	MaxAssetSize = 20 * 1024 * 1024
)

// ErrInvalidReference is returned for references that escape the media root
var ErrInvalidReference = errors.New("invalid asset reference")

// Payload is the staged asset set of one item
type Payload struct {
	// Files maps repository paths to content
	Files map[string][]byte
	// Rewrites maps the references used by the item to public site paths
	Rewrites map[string]string
}

// Size returns the total number of bytes in the payload
func (p *Payload) Size() int {
	n := 0
	for _, data := range p.Files {
		n += len(data)
	}
	return n
}

// Preparer builds asset payloads
//
//go:generate mockgen -destination=mocks/mock_preparer.go -package=mocks -source=assets.go Preparer
type Preparer interface {
	// Payload stages the assets of item under the given slug
	Payload(ctx context.Context, item *content.Item, slug string) (*Payload, error)
	// Cleanup drops the staging area of an item
	Cleanup(itemID string)
}

// Config describes where assets come from and where they go
type Config struct {
	// Media is the filesystem local references are resolved against
	Media billy.Filesystem
	// RepoDir is the asset directory inside the repository, e.g. "static/images"
	RepoDir string
	// AllowRemote enables downloading http(s) references
	AllowRemote bool
}

type preparer struct {
	media       billy.Filesystem
	repoDir     string
	publicDir   string
	allowRemote bool
	http        httpclient.Client

	mu      sync.Mutex
	staging map[string]billy.Filesystem
}

// NewPreparer creates an asset preparer
func NewPreparer(cfg Config, httpClient httpclient.Client) Preparer {
	repoDir := strings.Trim(cfg.RepoDir, "/")
	return &preparer{
		media:       cfg.Media,
		repoDir:     repoDir,
		publicDir:   PublicDir(repoDir),
		allowRemote: cfg.AllowRemote,
		http:        httpClient,
		staging:     make(map[string]billy.Filesystem),
	}
}

// PublicDir returns the site path an asset directory is served from.
// Static site generators serve "static/" at the site root.
func PublicDir(repoDir string) string {
	repoDir = strings.Trim(repoDir, "/")
	if rest, ok := strings.CutPrefix(repoDir, "static/"); ok {
		return "/" + rest
	}
	if repoDir == "static" {
		return ""
	}
	return "/" + repoDir
}

// References lists the image references of an item, featured image first, without duplicates
func References(item *content.Item) []string {
	seen := make(map[string]bool)
	var refs []string
	for _, ref := range append([]string{item.FeaturedImage}, item.Images...) {
		ref = strings.TrimSpace(ref)
		if ref == "" || seen[ref] {
			continue
		}
		seen[ref] = true
		refs = append(refs, ref)
	}
	return refs
}

func (p *preparer) Payload(ctx context.Context, item *content.Item, slug string) (*Payload, error) {
	stage := memfs.New()
	p.mu.Lock()
	p.staging[item.ID] = stage
	p.mu.Unlock()

	rewrites := make(map[string]string)
	used := make(map[string]int)
	for _, ref := range References(item) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := p.read(ctx, ref)
		if err != nil {
			if errors.Is(err, ErrInvalidReference) {
				return nil, err
			}
			if httpclient.IsRetryable(err) {
				return nil, fmt.Errorf("failed to fetch asset %s: %w", ref, err)
			}
			slog.Warn("Skipping asset", "item_id", item.ID, "reference", ref, "error", err)
			continue
		}

		name := uniqueName(assetName(ref, data), used)
		if err := util.WriteFile(stage, path.Join(slug, name), data, 0o644); err != nil {
			return nil, fmt.Errorf("failed to stage asset %s: %w", ref, err)
		}
		rewrites[ref] = p.publicDir + "/" + slug + "/" + name
	}

	files, err := p.collect(stage, slug)
	if err != nil {
		return nil, err
	}
	return &Payload{Files: files, Rewrites: rewrites}, nil
}

// collect reads the staged files back keyed by repository path
func (p *preparer) collect(stage billy.Filesystem, slug string) (map[string][]byte, error) {
	files := make(map[string][]byte)
	entries, err := stage.ReadDir(slug)
	if err != nil {
		if os.IsNotExist(err) {
			return files, nil
		}
		return nil, fmt.Errorf("failed to read staged assets: %w", err)
	}
	for _, entry := range entries {
		data, err := util.ReadFile(stage, path.Join(slug, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read staged asset %s: %w", entry.Name(), err)
		}
		files[path.Join(p.repoDir, slug, entry.Name())] = data
	}
	return files, nil
}

func (p *preparer) Cleanup(itemID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.staging, itemID)
}

func (p *preparer) read(ctx context.Context, ref string) ([]byte, error) {
	if isRemote(ref) {
		if !p.allowRemote || p.http == nil {
			return nil, errors.New("remote assets are disabled")
		}
		data, err := p.http.Get(ctx, ref)
		if err != nil {
			return nil, err
		}
		if len(data) > MaxAssetSize {
			return nil, fmt.Errorf("asset exceeds %d bytes", MaxAssetSize)
		}
		return data, nil
	}

	local, err := localPath(ref)
	if err != nil {
		return nil, err
	}
	if p.media == nil {
		return nil, errors.New("no media root configured")
	}
	info, err := p.media.Stat(local)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", ref)
	}
	if info.Size() > MaxAssetSize {
		return nil, fmt.Errorf("asset exceeds %d bytes", MaxAssetSize)
	}

	f, err := p.media.Open(local)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	return io.ReadAll(io.LimitReader(f, MaxAssetSize))
}

func isRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// localPath turns a reference into a path relative to the media root
func localPath(ref string) (string, error) {
	for _, segment := range strings.Split(ref, "/") {
		if segment == ".." {
			return "", fmt.Errorf("%w: %s", ErrInvalidReference, ref)
		}
	}
	cleaned := strings.TrimPrefix(path.Clean("/"+ref), "/")
	if cleaned == "" {
		return "", fmt.Errorf("%w: %s", ErrInvalidReference, ref)
	}
	return cleaned, nil
}

func baseName(ref string) string {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	name := path.Base(ref)
	if name == "." || name == "/" || name == "" {
		return "asset"
	}
	return name
}

// assetName is the basename of ref, given an extension from the detected
// content type when the reference has none (e.g. CDN URLs by id)
func assetName(ref string, data []byte) string {
	name := baseName(ref)
	if path.Ext(name) != "" {
		return name
	}
	return name + mimetype.Detect(data).Extension()
}

// uniqueName suffixes repeated basenames with -2, -3, ...
func uniqueName(name string, used map[string]int) string {
	used[name]++
	if used[name] == 1 {
		return name
	}
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext) + "-" + strconv.Itoa(used[name]) + ext
}

// SortedPaths returns the repository paths of a payload in order
func (p *Payload) SortedPaths() []string {
	paths := make([]string, 0, len(p.Files))
	for k := range p.Files {
		paths = append(paths, k)
	}
	sort.Strings(paths)
	return paths
}
