// Package helpers provides the server harness and the fake remote APIs used
// by the integration tests.
package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/onsi/gomega"

	syncapp "github.com/stacklok/content-sync-server/internal/app"
	"github.com/stacklok/content-sync-server/internal/config"
	"github.com/stacklok/content-sync-server/internal/status"
)

// ServerOptions describes the server under test
type ServerOptions struct {
	// Strategy is written verbatim to the config file
	Strategy string
	// GitHubURL and SyndicationURL point at the fake APIs; empty omits the section
	GitHubURL      string
	GitHubToken    string
	SyndicationURL string
	SyndicationKey string
	// AutoRetryInterval enables the periodic retry of failed jobs
	AutoRetryInterval string
}

// ServerTestHelper manages the content sync server lifecycle for testing
type ServerTestHelper struct {
	ctx        context.Context
	dir        string
	configPath string
	baseURL    string
	address    string
	httpClient *http.Client
	app        *syncapp.ContentSyncApp
}

// NewServerTestHelper writes the configuration and secrets of a server into
// dir and picks a free port for it
func NewServerTestHelper(ctx context.Context, dir string, opts ServerOptions) (*ServerTestHelper, error) {
	port, err := freePort()
	if err != nil {
		return nil, err
	}

	configPath, err := writeConfig(dir, opts)
	if err != nil {
		return nil, err
	}

	address := fmt.Sprintf("127.0.0.1:%d", port)
	return &ServerTestHelper{
		ctx:        ctx,
		dir:        dir,
		configPath: configPath,
		baseURL:    "http://" + address,
		address:    address,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// StartServer starts the server programmatically
func (s *ServerTestHelper) StartServer() error {
	cfg, err := config.LoadConfig(config.WithConfigPath(s.configPath))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app, err := syncapp.NewContentSyncApp(s.ctx,
		syncapp.WithConfig(cfg),
		syncapp.WithAddress(s.address),
	)
	if err != nil {
		return fmt.Errorf("failed to build app: %w", err)
	}
	s.app = app

	go func() {
		if err := app.Start(); err != nil {
			// the test fails when it tries to connect
			fmt.Fprintf(os.Stderr, "Server start failed: %v\n", err)
		}
	}()
	return nil
}

// StopServer gracefully stops the server
func (s *ServerTestHelper) StopServer() error {
	if s.app != nil {
		return s.app.Stop(5 * time.Second)
	}
	return nil
}

// WaitForServerReady waits for the server to be ready to accept requests
func (s *ServerTestHelper) WaitForServerReady(timeout time.Duration) {
	gomega.Eventually(func() error {
		resp, err := s.httpClient.Get(s.baseURL + "/readiness")
		if err != nil {
			return err
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server returned status %d", resp.StatusCode)
		}
		return nil
	}, timeout, 100*time.Millisecond).Should(gomega.Succeed(), "Server should be ready")
}

// PutItem sends the content-change event of an item
func (s *ServerTestHelper) PutItem(id string, item map[string]any) (*http.Response, error) {
	body, err := json.Marshal(item)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(s.ctx, http.MethodPut, s.baseURL+"/v1/items/"+id, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return s.httpClient.Do(req)
}

// SyncItem requests a manual sync
func (s *ServerTestHelper) SyncItem(id string) (*http.Response, error) {
	return s.post("/v1/items/" + id + "/sync")
}

// RetryFailed requests the retry of every failed job
func (s *ServerTestHelper) RetryFailed() (*http.Response, error) {
	return s.post("/v1/sync/retry-failed")
}

// GetJob reads the job of an item
func (s *ServerTestHelper) GetJob(id string) (*status.SyncJob, error) {
	resp, err := s.httpClient.Get(s.baseURL + "/v1/items/" + id + "/status")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status endpoint returned %d", resp.StatusCode)
	}

	var job status.SyncJob
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, err
	}
	return &job, nil
}

// WaitForJobStatus polls the job of an item until it reaches want
func (s *ServerTestHelper) WaitForJobStatus(id string, want status.JobStatus, timeout time.Duration) *status.SyncJob {
	var job *status.SyncJob
	gomega.Eventually(func() (status.JobStatus, error) {
		var err error
		job, err = s.GetJob(id)
		if err != nil {
			return "", err
		}
		return job.Status, nil
	}, timeout, 50*time.Millisecond).Should(gomega.Equal(want), "job of item %s", id)
	return job
}

func (s *ServerTestHelper) post(path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(s.ctx, http.MethodPost, s.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return s.httpClient.Do(req)
}

func writeConfig(dir string, opts ServerOptions) (string, error) {
	content := fmt.Sprintf(`strategy: %s

site:
  baseURL: https://blog.example.com

media:
  root: %s

queue:
  runner: memory
  workers: 2
  sweepInterval: 1s
`, opts.Strategy, filepath.Join(dir, "media"))
	if opts.AutoRetryInterval != "" {
		content += fmt.Sprintf("  autoRetryInterval: %s\n", opts.AutoRetryInterval)
	}

	content += fmt.Sprintf(`
storage:
  type: file
  dataDir: %s
`, filepath.Join(dir, "data"))

	if opts.GitHubURL != "" {
		tokenFile, err := writeSecret(dir, "github-token", opts.GitHubToken)
		if err != nil {
			return "", err
		}
		content += fmt.Sprintf(`
github:
  repository: example/blog
  branch: main
  apiURL: %s
  tokenFile: %s
  timeout: 5s
`, opts.GitHubURL, tokenFile)
	}

	if opts.SyndicationURL != "" {
		keyFile, err := writeSecret(dir, "syndication-key", opts.SyndicationKey)
		if err != nil {
			return "", err
		}
		content += fmt.Sprintf(`
syndication:
  endpoint: %s
  apiKeyFile: %s
  timeout: 5s
`, opts.SyndicationURL, keyFile)
	}

	if err := os.MkdirAll(filepath.Join(dir, "media"), 0750); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return "", err
	}
	return path, nil
}

func writeSecret(dir, name, value string) (string, error) {
	path := filepath.Join(dir, name)
	return path, os.WriteFile(path, []byte(value+"\n"), 0600)
}

func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("failed to find a free port: %w", err)
	}
	defer func() {
		_ = l.Close()
	}()
	return l.Addr().(*net.TCPAddr).Port, nil
}
