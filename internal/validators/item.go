// Package validators provides validation functions for content items.
package validators

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

const (
	maxTitleLength = 300
	maxSlugLength  = 200
	maxTermLength  = 100
	maxTerms       = 50
)

var (
	// Slug pattern: lowercase alphanumeric words separated by single hyphens
	slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// ValidateTitle trims a title and checks its length
func ValidateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if len(title) > maxTitleLength {
		return "", fmt.Errorf("title exceeds maximum length of %d characters", maxTitleLength)
	}
	return title, nil
}

// ValidateSlug validates an explicit slug. An empty slug is valid and means
// the slug is derived from the title at publish time.
//
// Examples of valid slugs:
//   - hello-world
//   - release-2-0
//
// Examples of invalid slugs:
//   - Hello-World (uppercase)
//   - hello--world (empty word)
//   - -hello (starts with a hyphen)
func ValidateSlug(slug string) (string, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return "", nil
	}
	if len(slug) > maxSlugLength {
		return "", fmt.Errorf("slug exceeds maximum length of %d characters", maxSlugLength)
	}
	if !slugPattern.MatchString(slug) {
		return "", fmt.Errorf(
			"slug '%s' is invalid. Slug must be lowercase alphanumeric words separated by single hyphens",
			slug,
		)
	}
	return slug, nil
}

// ValidateTerms trims a list of tags or categories and drops duplicates,
// keeping the first occurrence. kind names the list in error messages.
func ValidateTerms(kind string, terms []string) ([]string, error) {
	if len(terms) > maxTerms {
		return nil, fmt.Errorf("%s: at most %d entries are allowed", kind, maxTerms)
	}

	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for i, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			return nil, fmt.Errorf("%s[%d] cannot be empty", kind, i)
		}
		if len(term) > maxTermLength {
			return nil, fmt.Errorf("%s[%d] exceeds maximum length of %d characters", kind, i, maxTermLength)
		}
		key := strings.ToLower(term)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, term)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// ValidateImageRef checks an image reference. Remote references must be
// http or https URLs; local references must stay inside the media root.
func ValidateImageRef(ref string) error {
	if strings.TrimSpace(ref) != ref || ref == "" {
		return fmt.Errorf("image reference '%s' is invalid", ref)
	}

	if strings.Contains(ref, "://") {
		u, err := url.Parse(ref)
		if err != nil {
			return fmt.Errorf("image reference '%s' is not a valid URL: %w", ref, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("image reference '%s' must use http or https", ref)
		}
		if u.Host == "" {
			return fmt.Errorf("image reference '%s' has no host", ref)
		}
		return nil
	}

	cleaned := path.Clean("/" + strings.TrimPrefix(ref, "/"))
	for _, part := range strings.Split(ref, "/") {
		if part == ".." {
			return fmt.Errorf("image reference '%s' escapes the media root", ref)
		}
	}
	if cleaned == "/" {
		return fmt.Errorf("image reference '%s' does not name a file", ref)
	}
	return nil
}
