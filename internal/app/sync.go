package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/content-sync-server/internal/assets"
	"github.com/stacklok/content-sync-server/internal/config"
	"github.com/stacklok/content-sync-server/internal/content"
	"github.com/stacklok/content-sync-server/internal/github"
	"github.com/stacklok/content-sync-server/internal/httpclient"
	pkgsync "github.com/stacklok/content-sync-server/internal/sync"
	"github.com/stacklok/content-sync-server/internal/syndication"
	"github.com/stacklok/content-sync-server/internal/telemetry"
	"github.com/stacklok/content-sync-server/internal/transform"
)

const (
	// syncTracerName names the tracer of sync runs and remote calls
	syncTracerName = "github.com/stacklok/content-sync-server/sync"

	defaultMediaRoot = "."
)

// buildSyncManager creates the remote clients the strategy needs and the
// manager publishing through them
func buildSyncManager(
	cfg *config.Config,
	contents content.Store,
	tracerProvider trace.TracerProvider,
	metrics *telemetry.SyncMetrics,
) (pkgsync.Manager, error) {
	var tracer trace.Tracer
	if tracerProvider != nil {
		tracer = tracerProvider.Tracer(syncTracerName)
	}
	newHTTPClient := func(timeout time.Duration) httpclient.Client {
		return httpclient.NewDefaultClient(timeout, httpclient.WithTracerProvider(tracerProvider))
	}

	gh := cfg.GitHub
	if gh == nil {
		gh = &config.GitHubConfig{}
	}
	layout := pkgsync.Layout{
		ContentDir: gh.GetContentDir(),
		AssetDir:   gh.GetAssetDir(),
		BaseURL:    cfg.Site.BaseURL,
	}

	mediaRoot, allowRemote := defaultMediaRoot, false
	if cfg.Media != nil {
		if cfg.Media.Root != "" {
			mediaRoot = cfg.Media.Root
		}
		allowRemote = cfg.Media.AllowRemote
	}
	preparer := assets.NewPreparer(assets.Config{
		Media:       osfs.New(mediaRoot),
		RepoDir:     layout.AssetDir,
		AllowRemote: allowRemote,
	}, newHTTPClient(gh.GetTimeout()))

	opts := []pkgsync.Option{
		pkgsync.WithMetrics(metrics),
		pkgsync.WithTracer(tracer),
	}

	strategy := cfg.GetStrategy()
	if strategy.UsesGit() {
		token, err := gh.GetToken()
		if err != nil {
			return nil, fmt.Errorf("failed to read github token: %w", err)
		}
		client := github.NewClient(github.Config{
			Repository: gh.Repository,
			Branch:     gh.GetBranch(),
			Token:      token,
			APIURL:     gh.GetAPIURL(),
		}, newHTTPClient(gh.GetTimeout()), github.WithTracer(tracer))
		opts = append(opts, pkgsync.WithGitRemote(client))
	}

	if strategy.UsesSyndication() && cfg.Syndication != nil {
		apiKey, err := cfg.Syndication.GetAPIKey()
		if err != nil {
			return nil, fmt.Errorf("failed to read syndication api key: %w", err)
		}
		client := syndication.NewClient(
			cfg.Syndication.GetEndpoint(),
			apiKey,
			newHTTPClient(cfg.Syndication.GetTimeout()),
			tracer,
		)
		opts = append(opts, pkgsync.WithSyndicator(client, cfg.Syndication.Draft))
	}

	slog.Info("Sync manager configured",
		"strategy", strategy,
		"content_dir", layout.ContentDir,
		"asset_dir", layout.AssetDir,
		"media_root", mediaRoot)

	return pkgsync.NewDefaultSyncManager(
		strategy,
		layout,
		contents,
		transform.NewMarkdownTransformer(),
		preparer,
		opts...,
	), nil
}
