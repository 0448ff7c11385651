package common

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemIDParam(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		path    string
		wantID  string
		wantErr bool
	}{
		{name: "numeric id", path: "/items/42", wantID: "42"},
		{name: "uuid", path: "/items/6f1c3c1e-3c2b-4d6e-9a57-0b8f3f1b2a10", wantID: "6f1c3c1e-3c2b-4d6e-9a57-0b8f3f1b2a10"},
		{name: "dots and underscores", path: "/items/post_1.draft", wantID: "post_1.draft"},
		{name: "encoded slash", path: "/items/a%2Fb", wantErr: true},
		{name: "parent directory", path: "/items/..", wantErr: true},
		{name: "encoded whitespace", path: "/items/a%20b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var (
				gotID  string
				gotErr error
			)
			r := chi.NewRouter()
			r.Get("/items/{id}", func(_ http.ResponseWriter, req *http.Request) {
				gotID, gotErr = ItemIDParam(req, "id")
			})

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			r.ServeHTTP(httptest.NewRecorder(), req)

			if tt.wantErr {
				require.Error(t, gotErr)
				return
			}
			require.NoError(t, gotErr)
			assert.Equal(t, tt.wantID, gotID)
		})
	}
}

func TestWriteErrorResponse(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	WriteErrorResponse(rr, "item not found", http.StatusNotFound)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"item not found"}`, rr.Body.String())
}
