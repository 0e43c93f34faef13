package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

// maxSlugAttempts bounds the probe-and-insert loop when concurrent writers race for a slug
const maxSlugAttempts = 5

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases s, strips accents and joins the remaining words with dashes
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, s)
	if err != nil {
		plain = s
	}
	plain = nonSlugChars.ReplaceAllString(strings.ToLower(plain), "-")
	return strings.Trim(plain, "-")
}

// slugProbe reports whether slug is taken by a row other than exclude
type slugProbe func(ctx context.Context, slug string, exclude uuid.UUID) (bool, error)

// uniqueSlug returns base, or base-1, base-2, ... for the first candidate not taken
func uniqueSlug(ctx context.Context, base string, exists slugProbe, exclude uuid.UUID) (string, error) {
	candidate := base
	for i := 1; ; i++ {
		taken, err := exists(ctx, candidate, exclude)
		if err != nil {
			return "", fmt.Errorf("probe slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// resolveSlug picks the slug for a write. A supplied slug is normalised and must
// be free; otherwise one is derived from name, falling back to kind.
// auto reports whether the slug was generated and may be re-probed on conflict.
func resolveSlug(ctx context.Context, supplied, name, kind string, exists slugProbe, exclude uuid.UUID) (slug string, auto bool, err error) {
	if supplied = Slugify(supplied); supplied != "" {
		taken, err := exists(ctx, supplied, exclude)
		if err != nil {
			return "", false, err
		}
		if taken {
			return "", false, fieldError("slug", "The slug has already been taken.")
		}
		return supplied, false, nil
	}

	base := Slugify(name)
	if base == "" {
		base = kind
	}
	slug, err = uniqueSlug(ctx, base, exists, exclude)
	return slug, true, err
}

// writeWithSlug assigns a slug and runs write, re-probing when the insert loses a
// race on the unique slug index.
func writeWithSlug(ctx context.Context, assign func(ctx context.Context) (auto bool, err error), write func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		auto, err := assign(ctx)
		if err != nil {
			return err
		}
		lastErr = write(ctx)
		if lastErr == nil {
			return nil
		}
		if !auto || !errors.Is(lastErr, gorm.ErrDuplicatedKey) {
			return lastErr
		}
	}
	return lastErr
}
