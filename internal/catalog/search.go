package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/erazemk/fixitforward/internal/model"
)

// Filter narrows ListItems. The zero Filter matches everything.
type Filter struct {
	Status   model.Status
	Category string
	Query    string
}

// ListItems returns a newest-first snapshot of the items matching f.
func (c *Catalog) ListItems(ctx context.Context, f Filter) ([]model.Item, error) {
	items, err := c.repo.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}

	out := make([]model.Item, 0, len(items))
	for _, item := range items {
		if f.Status != "" && item.Status != f.Status {
			continue
		}
		if f.Category != "" && item.Category != f.Category {
			continue
		}
		if !matchesQuery(item, f.Query) {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

// matchesQuery accepts substring hits in title, description or location,
// and tolerates small typos against individual title words.
func matchesQuery(item model.Item, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}

	for _, field := range []string{item.Title, item.Description, item.Location} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}

	maxDist := len(q) / 4
	if maxDist < 1 {
		maxDist = 1
	}
	for _, word := range strings.Fields(strings.ToLower(item.Title)) {
		if levenshtein.ComputeDistance(word, q) <= maxDist {
			return true
		}
	}
	return false
}
