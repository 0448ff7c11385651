package github

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/content-sync-server/internal/remote"
)

func contentsHandler(t *testing.T, deleted *deleteFileRequest) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/site/contents/content/posts/hello.md", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "main", r.URL.Query().Get("ref"))
		// "hello world" wrapped like GitHub does
		_, _ = io.WriteString(w, `{"type":"file","path":"content/posts/hello.md","sha":"file-sha",`+
			`"encoding":"base64","content":"aGVsbG8g\nd29ybGQ=\n"}`)
	})
	mux.HandleFunc("DELETE /repos/acme/site/contents/content/posts/hello.md", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, deleted))
		_, _ = io.WriteString(w, `{"commit":{"sha":"del-commit","html_url":"https://example.com/c/del-commit"}}`)
	})
	mux.HandleFunc("GET /repos/acme/site/contents/static/images/hello", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[
			{"name":"a.png","path":"static/images/hello/a.png","sha":"s1","type":"file","size":3},
			{"name":"b.png","path":"static/images/hello/b.png","sha":"s2","type":"file","size":4}
		]`)
	})
	mux.HandleFunc("GET /repos/acme/site/contents/static/images", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"name":"hello","path":"static/images/hello","sha":"d1","type":"dir"}]`)
	})
	mux.HandleFunc("GET /repos/acme/site/contents/static/images/file.png", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"type":"file","path":"static/images/file.png","sha":"x","content":""}`)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"Not Found"}`)
	})
	return mux
}

func TestGetFile(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, contentsHandler(t, &deleteFileRequest{}))

	file, err := client.GetFile(context.Background(), "/content/posts/hello.md")
	require.NoError(t, err)
	assert.Equal(t, "content/posts/hello.md", file.Path)
	assert.Equal(t, "file-sha", file.SHA)
	assert.Equal(t, "hello world", string(file.Content))

	_, err = client.GetFile(context.Background(), "content/posts/missing.md")
	assert.True(t, remote.IsNotFound(err))
	re, _ := remote.AsError(err)
	assert.Equal(t, remote.CodeNotFound, re.Code)
	assert.False(t, re.Fatal())
}

func TestDeleteFile(t *testing.T) {
	t.Parallel()

	var deleted deleteFileRequest
	client := newTestClient(t, contentsHandler(t, &deleted))

	result, err := client.DeleteFile(context.Background(), "content/posts/hello.md", "Remove: Hello")
	require.NoError(t, err)
	assert.Equal(t, "del-commit", result.SHA)
	assert.Equal(t, []string{"content/posts/hello.md"}, result.Files)
	assert.Equal(t, deleteFileRequest{Message: "Remove: Hello", SHA: "file-sha", Branch: "main"}, deleted)

	_, err = client.DeleteFile(context.Background(), "content/posts/gone.md", "Remove")
	assert.True(t, remote.IsNotFound(err))
}

func TestListDirectory(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, contentsHandler(t, &deleteFileRequest{}))

	entries, err := client.ListDirectory(context.Background(), "static/images/hello")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "static/images/hello/a.png", entries[0].Path)
	assert.Equal(t, "file", entries[1].Type)

	_, err = client.ListDirectory(context.Background(), "static/images/file.png")
	re, ok := remote.AsError(err)
	require.True(t, ok)
	assert.Equal(t, remote.CodeInvalidResponse, re.Code)

	_, err = client.ListDirectory(context.Background(), "static/images/none")
	assert.True(t, remote.IsNotFound(err))
}

func TestEscapePath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "content/posts/a%20b.md", escapePath("/content/posts/a b.md/"))
	assert.Equal(t, "feature/x", escapePath("feature/x"))
}
