package common

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/content-sync-server/internal/status"
)

// ItemIDParam returns the decoded item id held by the named route parameter.
// The id becomes a storage key, so whitespace is refused on top of the
// status.ValidateItemID rules.
func ItemIDParam(r *http.Request, paramName string) (string, error) {
	raw := chi.URLParam(r, paramName)
	id, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("invalid URL encoding in %s: %q", paramName, raw)
	}
	if strings.IndexFunc(id, unicode.IsSpace) >= 0 {
		return "", fmt.Errorf("%s cannot contain whitespace", paramName)
	}
	if err := status.ValidateItemID(id); err != nil {
		return "", err
	}
	return id, nil
}
