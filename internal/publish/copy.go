package publish

import (
	"context"
	"fmt"
	"strings"
)

// SlugExists reports whether slug is taken.
type SlugExists func(ctx context.Context, slug string) (bool, error)

// CopySlug returns the first free slug in the sequence base-copy,
// base-copy-2, base-copy-3 and so on. base is shortened so every candidate
// fits MaxSlugLength.
func CopySlug(ctx context.Context, base string, exists SlugExists) (string, error) {
	candidate := copyCandidate(base, "-copy")
	for n := 2; ; n++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check copy slug: %w", err)
		}
		if !taken {
			return candidate, nil
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate = copyCandidate(base, fmt.Sprintf("-copy-%d", n))
	}
}

func copyCandidate(base, suffix string) string {
	if room := MaxSlugLength - len(suffix); len([]rune(base)) > room {
		base = string([]rune(base)[:room])
	}
	return strings.TrimRight(base, "-") + suffix
}
