package reachability

import (
	"context"
	"fmt"

	"github.com/GarethCitcom/orphaned-acf-media/internal/domain/repositories"
)

var (
	publishedStatuses = []string{"publish", "private", "draft"}
	liveStatuses      = []string{"publish", "private", "draft", "pending", "future"}
)

// anyOf drops matches with an empty term; an empty Contains would match every value
func anyOf(ms ...repositories.ValueMatch) []repositories.ValueMatch {
	out := make([]repositories.ValueMatch, 0, len(ms))
	for _, m := range ms {
		if m.Term != "" {
			out = append(out, m)
		}
	}
	return out
}

func quoted(id string) string     { return `"` + id + `"` }
func serialized(id string) string { return ":" + id + ";" }

type finder struct {
	repo repositories.ContentRepository
}

// find runs one query. A query with no usable value predicates matches nothing.
func (f finder) find(ctx context.Context, store repositories.Store, q repositories.ReferenceQuery) ([]repositories.Reference, error) {
	if len(q.Values) == 0 {
		return nil, nil
	}
	refs, err := f.repo.FindReferences(ctx, store, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", store, err)
	}
	return refs, nil
}

// first returns the first matching reference, if any
func (f finder) first(ctx context.Context, store repositories.Store, q repositories.ReferenceQuery) (*repositories.Reference, error) {
	q.Limit = 1
	refs, err := f.find(ctx, store, q)
	if err != nil || len(refs) == 0 {
		return nil, err
	}
	return &refs[0], nil
}

// describe renders a reference as a usage detail line
func describe(ref repositories.Reference) string {
	switch ref.Store {
	case repositories.StorePostMeta:
		return fmt.Sprintf("Meta %q on %s: %s", ref.Key, ref.OwnerType, ref.OwnerTitle)
	case repositories.StoreOptions:
		return fmt.Sprintf("Option %q", ref.Key)
	case repositories.StoreUserMeta:
		return fmt.Sprintf("Meta %q on user %d", ref.Key, ref.OwnerID)
	case repositories.StoreTermMeta:
		return fmt.Sprintf("Meta %q on %s term %d", ref.Key, ref.OwnerType, ref.OwnerID)
	case repositories.StorePostContent:
		return fmt.Sprintf("Content in %s: %s", ref.OwnerType, ref.OwnerTitle)
	case repositories.StoreAttachmentChildren:
		return fmt.Sprintf("Parent of attachment: %s", ref.OwnerTitle)
	default:
		return ref.Key
	}
}
