package validators

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTitle(t *testing.T) {
	t.Parallel()

	title, err := ValidateTitle("  Hello World \n")
	require.NoError(t, err)
	assert.Equal(t, "Hello World", title)

	_, err = ValidateTitle(strings.Repeat("a", maxTitleLength+1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum length")
}

func TestValidateSlug(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		slug        string
		want        string
		expectError string
	}{
		{name: "empty is derived later", slug: "", want: ""},
		{name: "single word", slug: "hello", want: "hello"},
		{name: "hyphenated", slug: "hello-world", want: "hello-world"},
		{name: "numbers", slug: "release-2-0", want: "release-2-0"},
		{name: "trimmed", slug: "  hello  ", want: "hello"},
		{name: "uppercase", slug: "Hello", expectError: "is invalid"},
		{name: "double hyphen", slug: "hello--world", expectError: "is invalid"},
		{name: "leading hyphen", slug: "-hello", expectError: "is invalid"},
		{name: "trailing hyphen", slug: "hello-", expectError: "is invalid"},
		{name: "slash", slug: "a/b", expectError: "is invalid"},
		{name: "too long", slug: strings.Repeat("a", maxSlugLength+1), expectError: "maximum length"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ValidateSlug(tt.slug)
			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateTerms(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		terms       []string
		want        []string
		expectError string
	}{
		{name: "nil", terms: nil, want: nil},
		{name: "trimmed", terms: []string{" go ", "redis"}, want: []string{"go", "redis"}},
		{name: "duplicates keep first", terms: []string{"Go", "redis", "go"}, want: []string{"Go", "redis"}},
		{name: "blank entry", terms: []string{"go", "  "}, expectError: "tags[1] cannot be empty"},
		{name: "long entry", terms: []string{strings.Repeat("x", maxTermLength+1)}, expectError: "maximum length"},
		{name: "too many", terms: make([]string, maxTerms+1), expectError: "at most"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ValidateTerms("tags", tt.terms)
			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateImageRef(t *testing.T) {
	t.Parallel()
	tests := []struct {
		ref       string
		expectErr bool
	}{
		{ref: "uploads/2024/cat.png"},
		{ref: "/uploads/cat.png"},
		{ref: "https://cdn.example.com/cat.png"},
		{ref: "http://cdn.example.com/cat.png"},
		{ref: "", expectErr: true},
		{ref: " cat.png", expectErr: true},
		{ref: "../secrets.png", expectErr: true},
		{ref: "uploads/../../etc/passwd", expectErr: true},
		{ref: "/", expectErr: true},
		{ref: "ftp://example.com/cat.png", expectErr: true},
		{ref: "https:///cat.png", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			t.Parallel()
			err := ValidateImageRef(tt.ref)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
