package reachability

import (
	"context"

	"github.com/GarethCitcom/orphaned-acf-media/internal/domain/entities/media"
	"github.com/GarethCitcom/orphaned-acf-media/internal/domain/repositories"
)

// ACFFieldsChecker finds the item in custom field values, including
// serialized arrays and consolidated "acf" storage.
type ACFFieldsChecker struct {
	descriptor
	finder
}

func NewACFFieldsChecker(repo repositories.ContentRepository) *ACFFieldsChecker {
	return &ACFFieldsChecker{
		descriptor: descriptor{id: CheckerACFFields, label: "ACF Fields", domain: media.DomainPrimary},
		finder:     finder{repo: repo},
	}
}

func (c *ACFFieldsChecker) Check(ctx context.Context, item *media.Item) (media.CheckerResult, error) {
	id := item.IDString()

	ref, err := c.first(ctx, repositories.StorePostMeta, repositories.ReferenceQuery{
		ExcludeReserved: true,
		Values:          anyOf(repositories.Equals(id), repositories.Contains(quoted(id))),
	})
	if err != nil || ref != nil {
		return hit(ref), err
	}

	ref, err = c.first(ctx, repositories.StorePostMeta, repositories.ReferenceQuery{
		Keys:   []string{"acf"},
		Values: anyOf(repositories.Contains(quoted(id)), repositories.Contains(serialized(id))),
	})
	return hit(ref), err
}

// ACFOptionsChecker finds the item in options-page fields
type ACFOptionsChecker struct {
	descriptor
	finder
}

func NewACFOptionsChecker(repo repositories.ContentRepository) *ACFOptionsChecker {
	return &ACFOptionsChecker{
		descriptor: descriptor{id: CheckerACFOptions, label: "ACF Options", domain: media.DomainPrimary},
		finder:     finder{repo: repo},
	}
}

func (c *ACFOptionsChecker) Check(ctx context.Context, item *media.Item) (media.CheckerResult, error) {
	id := item.IDString()

	ref, err := c.first(ctx, repositories.StoreOptions, repositories.ReferenceQuery{
		KeyPatterns: []string{`options\_%`},
		Values:      anyOf(repositories.Equals(id), repositories.Contains(quoted(id))),
	})
	if err != nil || ref != nil {
		return hit(ref), err
	}

	ref, err = c.first(ctx, repositories.StoreOptions, repositories.ReferenceQuery{
		Keys:   []string{"options_acf"},
		Values: anyOf(repositories.Contains(quoted(id)), repositories.Contains(serialized(id))),
	})
	return hit(ref), err
}

// hit converts an optional reference into a checker result
func hit(ref *repositories.Reference) media.CheckerResult {
	if ref == nil {
		return media.Unused()
	}
	return media.UsedBy(describe(*ref))
}
