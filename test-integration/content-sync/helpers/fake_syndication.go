package helpers

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Article is an article stored by FakeSyndication
type Article struct {
	ID           int      `json:"id"`
	Title        string   `json:"title"`
	BodyMarkdown string   `json:"body_markdown"`
	Published    bool     `json:"published"`
	Tags         []string `json:"tags"`
	CanonicalURL string   `json:"canonical_url"`
	MainImage    string   `json:"main_image"`
	Description  string   `json:"description"`
}

// FakeSyndication is an in-memory Forem-style article API
type FakeSyndication struct {
	mu       sync.Mutex
	server   *httptest.Server
	apiKey   string
	nextID   int
	articles map[int]Article
	updates  int
}

// NewFakeSyndication starts an article API accepting apiKey
func NewFakeSyndication(apiKey string) *FakeSyndication {
	s := &FakeSyndication{apiKey: apiKey, nextID: 1000, articles: map[int]Article{}}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Api-Key") != s.apiKey {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized", "status": 401})
				return
			}
			next.ServeHTTP(w, r)
		})
	})
	r.Post("/api/articles", s.create)
	r.Put("/api/articles/{id}", s.update)
	s.server = httptest.NewServer(r)
	return s
}

// URL is the API base URL
func (s *FakeSyndication) URL() string {
	return s.server.URL
}

// Close stops the server
func (s *FakeSyndication) Close() {
	s.server.Close()
}

// Articles returns the stored articles
func (s *FakeSyndication) Articles() []Article {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Article, 0, len(s.articles))
	for _, a := range s.articles {
		out = append(out, a)
	}
	return out
}

// Updates counts the successful updates
func (s *FakeSyndication) Updates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates
}

// Remove deletes an article, as a platform moderator would
func (s *FakeSyndication) Remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.articles, id)
}

type articleEnvelope struct {
	Article Article `json:"article"`
}

func (s *FakeSyndication) create(w http.ResponseWriter, r *http.Request) {
	var req articleEnvelope
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	a := req.Article
	a.ID = s.nextID
	s.articles[a.ID] = a
	writeJSON(w, http.StatusCreated, map[string]any{"id": a.ID, "url": s.articleURL(a.ID)})
}

func (s *FakeSyndication) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found", "status": 404})
		return
	}
	var req articleEnvelope
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.articles[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found", "status": 404})
		return
	}
	a := req.Article
	a.ID = id
	s.articles[id] = a
	s.updates++
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "url": s.articleURL(id)})
}

func (s *FakeSyndication) articleURL(id int) string {
	return s.server.URL + "/articles/" + strconv.Itoa(id)
}
