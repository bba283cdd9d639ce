package template

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
)

// DefaultPattern matches every supported template file
const DefaultPattern = "**/*.{yaml,yml,toml,json}"

// LoadDir parses every file under root whose slash-separated relative path
// matches pattern. Files are parsed concurrently. The result is keyed by
// relative path; decode failures and unreadable entries are returned joined
// after the walk, together with the templates that did load.
func LoadDir(ctx context.Context, root, pattern string) (map[string]*Template, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: %q", doublestar.ErrBadPattern, pattern)
	}

	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	var (
		mu        sync.Mutex
		templates = make(map[string]*Template)
		errs      []error
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(p string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			rel = p
		}
		rel = filepath.ToSlash(rel)

		// Unreadable entries are reported with the bad files
		if err == nil {
			err = relErr
		}
		if err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("%s: %w", rel, err))
			mu.Unlock()
			return nil
		}

		if d.IsDir() {
			return nil
		}
		if matched, _ := doublestar.Match(pattern, rel); !matched {
			return nil
		}

		t, err := ParseFile(p)

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", rel, err))
			return nil
		}
		templates[rel] = t
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	return templates, errors.Join(errs...)
}
