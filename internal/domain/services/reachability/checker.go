// Package reachability decides whether a media item is still referenced
// anywhere in the content graph. Each place a reference can live is one
// Checker; the Classifier combines them into a verdict.
package reachability

import (
	"context"
	"fmt"

	"github.com/GarethCitcom/orphaned-acf-media/internal/domain/entities/media"
	"github.com/GarethCitcom/orphaned-acf-media/internal/domain/repositories"
)

// Checker ids in registration order
const (
	CheckerACFFields      = "acf_fields"
	CheckerACFOptions     = "acf_options"
	CheckerFeaturedImages = "featured_images"
	CheckerPostContent    = "post_content"
	CheckerWidgets        = "widgets"
	CheckerMenus          = "menus"
	CheckerCustomizer     = "customizer"
	CheckerSiteSettings   = "site_settings"
	CheckerPageBuilder    = "page_builder"
	CheckerWooCommerce    = "woocommerce"
	CheckerAllPostMeta    = "all_post_meta"
	CheckerUserMeta       = "user_meta"
	CheckerAttachedMedia  = "attached_media"
)

// Extension names used as gates
const (
	ExtensionOxygen      = "oxygen"
	ExtensionBreakdance  = "breakdance"
	ExtensionWooCommerce = "woocommerce"
)

// Checker answers whether one item is referenced by one source. Checkers
// only read; they never mutate the repository.
type Checker interface {
	ID() string
	// Label is the operator-facing explanation used when the checker matches
	Label() string
	Domain() media.Domain
	// Gates lists extensions of which at least one must be active for the
	// checker to run. Empty means always run.
	Gates() []string
	Check(ctx context.Context, item *media.Item) (media.CheckerResult, error)
}

type descriptor struct {
	id     string
	label  string
	domain media.Domain
	gates  []string
}

func (d descriptor) ID() string           { return d.id }
func (d descriptor) Label() string        { return d.label }
func (d descriptor) Domain() media.Domain { return d.domain }
func (d descriptor) Gates() []string      { return d.gates }

// Registry is the ordered set of checkers. The order is fixed at construction
// and decides explanation order.
type Registry struct {
	checkers []Checker
}

// NewRegistry builds a registry, rejecting duplicate ids
func NewRegistry(checkers ...Checker) (*Registry, error) {
	seen := make(map[string]struct{}, len(checkers))
	for _, c := range checkers {
		if _, ok := seen[c.ID()]; ok {
			return nil, fmt.Errorf("duplicate checker id %q", c.ID())
		}
		seen[c.ID()] = struct{}{}
	}
	return &Registry{checkers: append([]Checker(nil), checkers...)}, nil
}

// DefaultCheckers returns every built-in checker in registration order
func DefaultCheckers(repo repositories.ContentRepository) []Checker {
	return []Checker{
		NewACFFieldsChecker(repo),
		NewACFOptionsChecker(repo),
		NewFeaturedImagesChecker(repo),
		NewPostContentChecker(repo),
		NewWidgetsChecker(repo),
		NewMenusChecker(repo),
		NewCustomizerChecker(repo),
		NewSiteSettingsChecker(repo),
		NewPageBuilderChecker(repo),
		NewWooCommerceChecker(repo),
		NewAllPostMetaChecker(repo),
		NewUserMetaChecker(repo),
		NewAttachedMediaChecker(repo),
	}
}

// NewDefaultRegistry registers the built-in checkers minus any disabled ids
func NewDefaultRegistry(repo repositories.ContentRepository, disabled ...string) *Registry {
	r, _ := NewRegistry(DefaultCheckers(repo)...)
	return r.Without(disabled...)
}

// All returns the checkers in registration order
func (r *Registry) All() []Checker {
	return append([]Checker(nil), r.checkers...)
}

// InDomain returns the checkers of one domain in registration order
func (r *Registry) InDomain(d media.Domain) []Checker {
	var out []Checker
	for _, c := range r.checkers {
		if c.Domain() == d {
			out = append(out, c)
		}
	}
	return out
}

// Without returns a registry minus the given ids, keeping order
func (r *Registry) Without(ids ...string) *Registry {
	if len(ids) == 0 {
		return r
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := make([]Checker, 0, len(r.checkers))
	for _, c := range r.checkers {
		if _, ok := drop[c.ID()]; !ok {
			kept = append(kept, c)
		}
	}
	return &Registry{checkers: kept}
}

// IDs returns the registered ids in order
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.checkers))
	for i, c := range r.checkers {
		ids[i] = c.ID()
	}
	return ids
}
