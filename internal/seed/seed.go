// Package seed fills an empty catalog with the demo listings.
package seed

import (
	"context"
	"fmt"

	"github.com/erazemk/fixitforward/internal/model"
)

// Catalog is what seeding needs from the item store.
type Catalog interface {
	CreateItem(ctx context.Context, draft model.ItemDraft) (*model.Item, error)
	UpdateStatus(ctx context.Context, id string, to model.Status) (*model.Item, error)
}

// Listing is a demo item and the status it should end up in.
type Listing struct {
	Draft  model.ItemDraft
	Status model.Status
}

// Demo is the demo catalog, oldest first.
var Demo = []Listing{
	{
		Draft: model.ItemDraft{
			Title:       "Metal Kettle",
			Category:    model.CategoryAppliances,
			Fee:         "150000",
			Location:    "Gg. Mawar No. 57 Sidomulyo",
			Description: "The main part has clear burn marks.",
		},
		Status: model.StatusAvailable,
	},
	{
		Draft: model.ItemDraft{
			Title:       "Wood Table",
			Category:    model.CategoryFurniture,
			Fee:         "300000",
			Location:    "Depok, Sleman",
			Description: "One leg is wobbly and needs glue.",
		},
		Status: model.StatusFixed,
	},
	{
		Draft: model.ItemDraft{
			Title:       "Black Chair",
			Category:    model.CategoryFurniture,
			Fee:         "500000",
			Location:    "Maguwoharjo, Sleman, Yogyakarta",
			Description: "The chair base not connects to the seat part anymore.",
		},
		Status: model.StatusAvailable,
	},
}

// Load creates every listing and walks it through the lifecycle to its
// status. Listings come back in creation order.
func Load(ctx context.Context, c Catalog, listings []Listing) ([]*model.Item, error) {
	items := make([]*model.Item, 0, len(listings))
	for _, l := range listings {
		item, err := c.CreateItem(ctx, l.Draft)
		if err != nil {
			return nil, fmt.Errorf("seeding %q: %w", l.Draft.Title, err)
		}
		for _, next := range path(l.Status) {
			if item, err = c.UpdateStatus(ctx, item.ID, next); err != nil {
				return nil, fmt.Errorf("seeding %q: %w", l.Draft.Title, err)
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// path lists the statuses an Available item passes through to reach s.
func path(s model.Status) []model.Status {
	switch s {
	case model.StatusInProgress:
		return []model.Status{model.StatusInProgress}
	case model.StatusFixed:
		return []model.Status{model.StatusInProgress, model.StatusFixed}
	}
	return nil
}
