package helpers

import (
	"crypto/sha1" // #nosec G505 -- git object ids are sha1
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

// FakeGitHub is an in-memory repository served through the subset of the
// GitHub REST API the sync client uses: git refs, commits, blobs and trees
// plus the contents API.
type FakeGitHub struct {
	mu      sync.Mutex
	server  *httptest.Server
	token   string
	branch  string
	head    string
	commits map[string]fakeCommit
	trees   map[string]map[string]string
	blobs   map[string][]byte
	history []string
	// failures makes the next calls to create-commit answer 500
	failures int
}

type fakeCommit struct {
	Tree    string
	Parent  string
	Message string
}

// NewFakeGitHub starts a repository with a single empty commit on branch
func NewFakeGitHub(token, branch string) *FakeGitHub {
	g := &FakeGitHub{
		token:   token,
		branch:  branch,
		commits: map[string]fakeCommit{},
		trees:   map[string]map[string]string{},
		blobs:   map[string][]byte{},
	}

	emptyTree := g.putTree(map[string]string{})
	g.head = g.putCommit(fakeCommit{Tree: emptyTree, Message: "Initial commit"})

	r := chi.NewRouter()
	r.Use(g.authenticate)
	r.Route("/repos/{owner}/{repo}", func(r chi.Router) {
		r.Get("/", g.getRepository)
		r.Get("/git/refs/heads/*", g.getRef)
		r.Patch("/git/refs/heads/*", g.updateRef)
		r.Get("/git/commits/{sha}", g.getCommit)
		r.Post("/git/commits", g.createCommit)
		r.Post("/git/blobs", g.createBlob)
		r.Post("/git/trees", g.createTree)
		r.Get("/contents/*", g.getContents)
		r.Delete("/contents/*", g.deleteContents)
	})
	g.server = httptest.NewServer(r)
	return g
}

// URL is the API base URL
func (g *FakeGitHub) URL() string {
	return g.server.URL
}

// Close stops the server
func (g *FakeGitHub) Close() {
	g.server.Close()
}

// SetToken changes the accepted token
func (g *FakeGitHub) SetToken(token string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.token = token
}

// FailNextCommits makes the next n create-commit calls fail with 500
func (g *FakeGitHub) FailNextCommits(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures = n
}

// Files returns the files on the branch head
func (g *FakeGitHub) Files() map[string]string {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := map[string]string{}
	for p, blob := range g.trees[g.commits[g.head].Tree] {
		out[p] = string(g.blobs[blob])
	}
	return out
}

// CommitMessages lists the messages of the commits that moved the branch, oldest first
func (g *FakeGitHub) CommitMessages() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.history...)
}

func (g *FakeGitHub) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		want := "Bearer " + g.token
		g.mu.Unlock()
		if r.Header.Get("Authorization") != want {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (*FakeGitHub) getRepository(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"full_name": chi.URLParam(r, "owner") + "/" + chi.URLParam(r, "repo"),
	})
}

func (g *FakeGitHub) getRef(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if chi.URLParam(r, "*") != g.branch {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"object": map[string]string{"sha": g.head}})
}

func (g *FakeGitHub) updateRef(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SHA   string `json:"sha"`
		Force bool   `json:"force"`
	}
	if !decode(w, r, &req) {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	commit, ok := g.commits[req.SHA]
	if !ok {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "Object does not exist"})
		return
	}
	if !req.Force && commit.Parent != g.head {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "Update is not a fast forward"})
		return
	}
	g.head = req.SHA
	g.history = append(g.history, commit.Message)
	writeJSON(w, http.StatusOK, map[string]any{"object": map[string]string{"sha": g.head}})
}

func (g *FakeGitHub) getCommit(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()

	sha := chi.URLParam(r, "sha")
	commit, ok := g.commits[sha]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sha": sha, "tree": map[string]string{"sha": commit.Tree}})
}

func (g *FakeGitHub) createCommit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string   `json:"message"`
		Tree    string   `json:"tree"`
		Parents []string `json:"parents"`
	}
	if !decode(w, r, &req) {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failures > 0 {
		g.failures--
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Server Error"})
		return
	}
	if _, ok := g.trees[req.Tree]; !ok || len(req.Parents) != 1 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "Invalid tree or parents"})
		return
	}
	sha := g.putCommit(fakeCommit{Tree: req.Tree, Parent: req.Parents[0], Message: req.Message})
	writeJSON(w, http.StatusCreated, map[string]any{
		"sha":      sha,
		"html_url": g.server.URL + "/commit/" + sha,
		"tree":     map[string]string{"sha": req.Tree},
	})
}

func (g *FakeGitHub) createBlob(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}
	if !decode(w, r, &req) {
		return
	}
	data, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil || req.Encoding != "base64" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "Invalid blob"})
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	sha := objectID("blob", data)
	g.blobs[sha] = data
	writeJSON(w, http.StatusCreated, map[string]string{"sha": sha})
}

func (g *FakeGitHub) createTree(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BaseTree string `json:"base_tree"`
		Tree     []struct {
			Path string `json:"path"`
			SHA  string `json:"sha"`
		} `json:"tree"`
	}
	if !decode(w, r, &req) {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	base, ok := g.trees[req.BaseTree]
	if !ok {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "Invalid base tree"})
		return
	}
	files := make(map[string]string, len(base)+len(req.Tree))
	for p, sha := range base {
		files[p] = sha
	}
	for _, entry := range req.Tree {
		if _, ok := g.blobs[entry.SHA]; !ok {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "Invalid blob " + entry.SHA})
			return
		}
		files[entry.Path] = entry.SHA
	}
	writeJSON(w, http.StatusCreated, map[string]string{"sha": g.putTree(files)})
}

func (g *FakeGitHub) getContents(w http.ResponseWriter, r *http.Request) {
	p := strings.Trim(chi.URLParam(r, "*"), "/")

	g.mu.Lock()
	defer g.mu.Unlock()

	files := g.trees[g.commits[g.head].Tree]
	if blob, ok := files[p]; ok {
		writeJSON(w, http.StatusOK, map[string]string{
			"type":     "file",
			"path":     p,
			"sha":      blob,
			"content":  base64.StdEncoding.EncodeToString(g.blobs[blob]),
			"encoding": "base64",
		})
		return
	}

	var entries []map[string]any
	for _, name := range sortedKeys(files) {
		if path.Dir(name) != p {
			continue
		}
		entries = append(entries, map[string]any{
			"name": path.Base(name),
			"path": name,
			"sha":  files[name],
			"type": "file",
			"size": len(g.blobs[files[name]]),
		})
	}
	if len(entries) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (g *FakeGitHub) deleteContents(w http.ResponseWriter, r *http.Request) {
	p := strings.Trim(chi.URLParam(r, "*"), "/")
	var req struct {
		Message string `json:"message"`
		SHA     string `json:"sha"`
		Branch  string `json:"branch"`
	}
	if !decode(w, r, &req) {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	files := g.trees[g.commits[g.head].Tree]
	blob, ok := files[p]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	if blob != req.SHA {
		writeJSON(w, http.StatusConflict, map[string]string{"message": p + " does not match " + req.SHA})
		return
	}

	remaining := make(map[string]string, len(files))
	for name, sha := range files {
		if name != p {
			remaining[name] = sha
		}
	}
	sha := g.putCommit(fakeCommit{Tree: g.putTree(remaining), Parent: g.head, Message: req.Message})
	g.head = sha
	g.history = append(g.history, req.Message)
	writeJSON(w, http.StatusOK, map[string]any{
		"commit": map[string]string{"sha": sha, "html_url": g.server.URL + "/commit/" + sha},
	})
}

func (g *FakeGitHub) putTree(files map[string]string) string {
	var b strings.Builder
	for _, name := range sortedKeys(files) {
		fmt.Fprintf(&b, "%s %s\n", files[name], name)
	}
	sha := objectID("tree", []byte(b.String()))
	g.trees[sha] = files
	return sha
}

func (g *FakeGitHub) putCommit(c fakeCommit) string {
	sha := objectID("commit", fmt.Appendf(nil, "%s\n%s\n%s\n%d", c.Tree, c.Parent, c.Message, len(g.commits)))
	g.commits[sha] = c
	return sha
}

func objectID(kind string, data []byte) string {
	h := sha1.New() // #nosec G401 -- git object ids are sha1
	fmt.Fprintf(h, "%s %d\x00", kind, len(data))
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(r.Body)
	if err == nil {
		err = json.Unmarshal(body, v)
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Problems parsing JSON"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
