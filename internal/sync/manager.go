package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/content-sync-server/internal/assets"
	"github.com/stacklok/content-sync-server/internal/config"
	"github.com/stacklok/content-sync-server/internal/content"
	"github.com/stacklok/content-sync-server/internal/github"
	"github.com/stacklok/content-sync-server/internal/otel"
	"github.com/stacklok/content-sync-server/internal/remote"
	"github.com/stacklok/content-sync-server/internal/syndication"
	"github.com/stacklok/content-sync-server/internal/telemetry"
	"github.com/stacklok/content-sync-server/internal/transform"
)

// MaxPayloadWarnSize is the commit size above which a warning is logged
const MaxPayloadWarnSize = 10 * 1024 * 1024

// Outcome summarizes a successful run
type Outcome string

const (
	// OutcomePublished means every configured target was updated
	OutcomePublished Outcome = "published"
	// OutcomePartial means the canonical copy was published but syndication failed
	OutcomePartial Outcome = "partial"
	// OutcomeSkipped means publishing is disabled
	OutcomeSkipped Outcome = "skipped"
)

// Result contains the result of a successful run
type Result struct {
	Outcome  Outcome
	Strategy config.PublishingStrategy

	RemotePath string
	CommitSHA  string
	CommitURL  string
	FileCount  int

	SyndicationID  string
	SyndicationURL string

	// SyndicationErr is set for OutcomePartial
	SyndicationErr *Error
}

// DeleteResult contains the result of a remote deletion
type DeleteResult struct {
	Skipped bool
	// Deleted lists the repository paths that were removed
	Deleted []string
	// Failed lists asset paths that could not be removed
	Failed []string
}

// Manager publishes and removes content items
//
//go:generate mockgen -destination=mocks/mock_manager.go -package=mocks github.com/stacklok/content-sync-server/internal/sync Manager
type Manager interface {
	// Run publishes the current version of an item to the configured targets
	Run(ctx context.Context, itemID string) (*Result, *Error)

	// Delete removes the published copy of an item from the repository
	Delete(ctx context.Context, itemID string) (*DeleteResult, *Error)
}

// GitRemote is the repository API used by the manager
//
//go:generate mockgen -destination=mocks/mock_remotes.go -package=mocks github.com/stacklok/content-sync-server/internal/sync GitRemote,Syndicator
type GitRemote interface {
	TestConnection(ctx context.Context) error
	AtomicCommit(ctx context.Context, files map[string][]byte, message string) (*github.CommitResult, error)
	DeleteFile(ctx context.Context, path, message string) (*github.CommitResult, error)
	ListDirectory(ctx context.Context, path string) ([]github.Entry, error)
}

// Syndicator is the article API used by the manager
type Syndicator interface {
	Create(ctx context.Context, article syndication.Article) (*syndication.Result, error)
	Update(ctx context.Context, id string, article syndication.Article) (*syndication.Result, error)
}

// defaultSyncManager is the default implementation of Manager
type defaultSyncManager struct {
	strategy    config.PublishingStrategy
	layout      Layout
	draft       bool
	contents    content.Store
	transformer transform.Transformer
	assets      assets.Preparer
	git         GitRemote
	syndicator  Syndicator

	metrics *telemetry.SyncMetrics
	tracer  trace.Tracer
	now     func() time.Time
}

// Option configures the manager
type Option func(*defaultSyncManager)

// WithGitRemote sets the repository client, required by the git and dual strategies
func WithGitRemote(git GitRemote) Option {
	return func(m *defaultSyncManager) {
		m.git = git
	}
}

// WithSyndicator sets the article client, required by the syndication and dual strategies
func WithSyndicator(s Syndicator, draft bool) Option {
	return func(m *defaultSyncManager) {
		m.syndicator = s
		m.draft = draft
	}
}

// WithMetrics sets the sync metrics
func WithMetrics(metrics *telemetry.SyncMetrics) Option {
	return func(m *defaultSyncManager) {
		m.metrics = metrics
	}
}

// WithTracer sets the tracer for run spans
func WithTracer(tracer trace.Tracer) Option {
	return func(m *defaultSyncManager) {
		m.tracer = tracer
	}
}

// NewDefaultSyncManager creates a new defaultSyncManager
func NewDefaultSyncManager(
	strategy config.PublishingStrategy,
	layout Layout,
	contents content.Store,
	transformer transform.Transformer,
	preparer assets.Preparer,
	opts ...Option,
) Manager {
	m := &defaultSyncManager{
		strategy:    strategy,
		layout:      layout,
		contents:    contents,
		transformer: transformer,
		assets:      preparer,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run publishes an item. Panics of collaborators are reported as KindInternal.
func (m *defaultSyncManager) Run(ctx context.Context, itemID string) (result *Result, syncErr *Error) {
	ctx, span := otel.StartSpan(ctx, m.tracer, "sync.Run",
		trace.WithAttributes(
			otel.AttrItemID.String(itemID),
			otel.AttrStrategy.String(string(m.strategy)),
		))
	start := m.now()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Sync run panicked", "item_id", itemID, "panic", r, "stack", string(debug.Stack()))
			result = nil
			syncErr = &Error{Kind: KindInternal, Message: fmt.Sprintf("sync panicked: %v", r)}
		}
		if m.assets != nil {
			m.assets.Cleanup(itemID)
		}

		m.metrics.RecordSyncDuration(ctx, string(m.strategy), m.now().Sub(start), syncErr == nil)
		if syncErr != nil {
			span.SetAttributes(otel.AttrErrorKind.String(string(syncErr.Kind)))
			otel.RecordError(span, syncErr)
		} else {
			span.SetAttributes(otel.AttrOutcome.String(string(result.Outcome)))
		}
		span.End()
	}()

	item, err := m.contents.Get(ctx, itemID)
	if err != nil {
		if content.IsNotFound(err) {
			return nil, newError(KindValidation, nil, "item %s does not exist", itemID)
		}
		return nil, newError(KindTransient, err, "failed to load item %s", itemID)
	}
	if item.Status != content.StatusPublished {
		return nil, newError(KindValidation, nil, "item %s is not published (status %q)", itemID, item.Status)
	}

	switch m.strategy {
	case config.StrategyDisabled, "":
		return &Result{Outcome: OutcomeSkipped, Strategy: m.strategy}, nil
	case config.StrategyGit:
		gitResult, _, gitErr := m.runGit(ctx, item)
		return gitResult, gitErr
	case config.StrategySyndication:
		return m.runSyndication(ctx, item, nil, &Result{Strategy: m.strategy})
	case config.StrategyDual:
		gitResult, rewrites, gitErr := m.runGit(ctx, item)
		if gitErr != nil {
			return nil, gitErr
		}
		if !item.SyndicationOptIn {
			return gitResult, nil
		}
		// reload the metadata written by the git step
		if fresh, err := m.contents.Get(ctx, itemID); err == nil {
			item = fresh
		}
		// images are served by the site once the commit is live
		withSyndication, syndErr := m.runSyndication(ctx, item, rewrites, gitResult)
		if syndErr != nil {
			slog.Warn("Syndication failed after canonical publish",
				"item_id", itemID, "error_kind", syndErr.Kind, "error", syndErr.Message)
			gitResult.Outcome = OutcomePartial
			gitResult.SyndicationErr = syndErr
			return gitResult, nil
		}
		return withSyndication, nil
	default:
		return nil, newError(KindConfig, nil, "unknown publishing strategy %q", m.strategy)
	}
}

// runGit commits the document and its assets. It also returns the image
// rewrites so that a following syndication links the published images.
func (m *defaultSyncManager) runGit(ctx context.Context, item *content.Item) (*Result, map[string]string, *Error) {
	if m.git == nil {
		return nil, nil, newError(KindConfig, nil, "no repository client configured")
	}
	if err := m.timed(ctx, "github", "test_connection", func() error {
		return m.git.TestConnection(ctx)
	}); err != nil {
		return nil, nil, classify("repository connection", err)
	}

	slug := Slug(item)
	payload, err := m.assets.Payload(ctx, item, slug)
	if err != nil {
		if errors.Is(err, assets.ErrInvalidReference) {
			return nil, nil, newError(KindValidation, err, "invalid asset")
		}
		return nil, nil, classify("asset preparation", err)
	}

	doc, err := m.transformer.Convert(item, transform.Context{
		Flavor:       transform.FlavorGit,
		Slug:         slug,
		Rewrites:     payload.Rewrites,
		BaseURL:      m.layout.BaseURL,
		CanonicalURL: m.layout.CanonicalURL(item),
	})
	if err != nil {
		return nil, nil, newError(KindValidation, err, "failed to render document")
	}

	remotePath := m.layout.RemotePath(item)
	files := make(map[string][]byte, len(payload.Files)+1)
	for p, data := range payload.Files {
		files[p] = data
	}
	files[remotePath] = []byte(doc)

	if size := payload.Size() + len(doc); size > MaxPayloadWarnSize {
		slog.Warn("Large commit payload", "item_id", item.ID, "bytes", size, "files", len(files))
	}

	verb := "Publish"
	if item.Meta.CommitSHA != "" {
		verb = "Update"
	}

	var commit *github.CommitResult
	if err := m.timed(ctx, "github", "atomic_commit", func() error {
		var cerr error
		commit, cerr = m.git.AtomicCommit(ctx, files, verb+": "+item.Title)
		return cerr
	}); err != nil {
		return nil, nil, classify("commit", err)
	}

	now := m.now().UTC()
	meta := item.Meta
	meta.RemotePath = remotePath
	meta.CommitSHA = commit.SHA
	meta.CommitURL = commit.URL
	meta.LastSyncedAt = &now
	if err := m.contents.UpdateMeta(ctx, item.ID, meta); err != nil {
		// the commit exists; a failed bookkeeping write must not fail the run
		slog.Error("Failed to store publish metadata", "item_id", item.ID, "commit", commit.SHA, "error", err)
	}

	slog.Info("Published item", "item_id", item.ID, "path", remotePath, "commit", commit.SHA, "files", len(files))
	return &Result{
		Outcome:    OutcomePublished,
		Strategy:   m.strategy,
		RemotePath: remotePath,
		CommitSHA:  commit.SHA,
		CommitURL:  commit.URL,
		FileCount:  len(files),
	}, payload.Rewrites, nil
}

func (m *defaultSyncManager) runSyndication(
	ctx context.Context, item *content.Item, rewrites map[string]string, result *Result,
) (*Result, *Error) {
	if m.syndicator == nil {
		return nil, newError(KindConfig, nil, "no syndication client configured")
	}

	canonical := m.layout.CanonicalURL(item)

	body, err := m.transformer.Convert(item, transform.Context{
		Flavor:       transform.FlavorSyndication,
		Slug:         Slug(item),
		Rewrites:     rewrites,
		BaseURL:      m.layout.BaseURL,
		CanonicalURL: canonical,
	})
	if err != nil {
		return nil, newError(KindValidation, err, "failed to render article")
	}

	article := syndication.Article{
		Title:        item.Title,
		BodyMarkdown: body,
		Published:    !m.draft,
		Tags:         item.Tags,
		CanonicalURL: canonical,
		Description:  item.Excerpt,
	}
	if item.FeaturedImage != "" {
		article.MainImage = transform.AbsoluteURL(m.layout.BaseURL, rewriteOr(rewrites, item.FeaturedImage))
	}

	var published *syndication.Result
	err = m.timed(ctx, "syndication", "publish", func() error {
		var serr error
		if item.Meta.SyndicationID != "" {
			published, serr = m.syndicator.Update(ctx, item.Meta.SyndicationID, article)
			if serr == nil || !remote.IsNotFound(serr) {
				return serr
			}
			slog.Warn("Syndicated article is gone, creating a new one",
				"item_id", item.ID, "article_id", item.Meta.SyndicationID)
		}
		published, serr = m.syndicator.Create(ctx, article)
		return serr
	})
	if err != nil {
		return nil, classify("syndication", err)
	}

	now := m.now().UTC()
	meta := item.Meta
	meta.SyndicationID = published.ID
	meta.SyndicationURL = published.URL
	meta.LastSyncedAt = &now
	if err := m.contents.UpdateMeta(ctx, item.ID, meta); err != nil {
		slog.Error("Failed to store syndication metadata", "item_id", item.ID, "article_id", published.ID, "error", err)
	}

	out := *result
	out.Outcome = OutcomePublished
	out.SyndicationID = published.ID
	out.SyndicationURL = published.URL
	return &out, nil
}

// Delete removes the document and the asset directory of an item
func (m *defaultSyncManager) Delete(ctx context.Context, itemID string) (result *DeleteResult, syncErr *Error) {
	ctx, span := otel.StartSpan(ctx, m.tracer, "sync.Delete",
		trace.WithAttributes(otel.AttrItemID.String(itemID)))
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Delete panicked", "item_id", itemID, "panic", r, "stack", string(debug.Stack()))
			result = nil
			syncErr = &Error{Kind: KindInternal, Message: fmt.Sprintf("delete panicked: %v", r)}
		}
		if syncErr != nil {
			otel.RecordError(span, syncErr)
		}
		span.End()
	}()

	if !m.strategy.UsesGit() {
		return &DeleteResult{Skipped: true}, nil
	}
	if m.git == nil {
		return nil, newError(KindConfig, nil, "no repository client configured")
	}

	item, err := m.contents.Get(ctx, itemID)
	if err != nil {
		if content.IsNotFound(err) {
			return nil, newError(KindValidation, nil, "item %s does not exist", itemID)
		}
		return nil, newError(KindTransient, err, "failed to load item %s", itemID)
	}

	result = &DeleteResult{}
	docPath := m.layout.RemotePath(item)
	err = m.timed(ctx, "github", "delete_file", func() error {
		_, derr := m.git.DeleteFile(ctx, docPath, "Remove: "+item.Title)
		return derr
	})
	switch {
	case err == nil:
		result.Deleted = append(result.Deleted, docPath)
	case remote.IsNotFound(err):
		slog.Info("Document already absent", "item_id", itemID, "path", docPath)
	default:
		return nil, classify("document deletion", err)
	}

	assetDir := m.layout.AssetPath(item)
	entries, err := m.git.ListDirectory(ctx, assetDir)
	if err != nil && !remote.IsNotFound(err) {
		slog.Warn("Failed to list assets", "item_id", itemID, "path", assetDir, "error", err)
	}
	for _, entry := range entries {
		if entry.Type != "file" {
			continue
		}
		if _, err := m.git.DeleteFile(ctx, entry.Path, "Remove asset: "+entry.Name); err != nil && !remote.IsNotFound(err) {
			slog.Warn("Failed to delete asset", "item_id", itemID, "path", entry.Path, "error", err)
			result.Failed = append(result.Failed, entry.Path)
			continue
		}
		result.Deleted = append(result.Deleted, entry.Path)
	}

	meta := item.Meta
	meta.RemotePath = ""
	meta.CommitSHA = ""
	meta.CommitURL = ""
	if err := m.contents.UpdateMeta(ctx, itemID, meta); err != nil && !content.IsNotFound(err) {
		slog.Error("Failed to clear publish metadata", "item_id", itemID, "error", err)
	}

	slog.Info("Deleted item from repository", "item_id", itemID, "deleted", len(result.Deleted), "failed", len(result.Failed))
	return result, nil
}

// timed runs a remote call and records its duration
func (m *defaultSyncManager) timed(ctx context.Context, target, op string, fn func() error) error {
	start := m.now()
	err := fn()
	m.metrics.RecordRemoteCall(ctx, target, op, m.now().Sub(start), err == nil)
	return err
}

func rewriteOr(rewrites map[string]string, ref string) string {
	if to, ok := rewrites[ref]; ok {
		return to
	}
	return ref
}
