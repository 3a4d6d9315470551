package reachability

import (
	"context"
	"fmt"
	"strings"

	"github.com/GarethCitcom/orphaned-acf-media/internal/domain/entities/media"
	"github.com/GarethCitcom/orphaned-acf-media/internal/domain/repositories"
)

var pageBuilderKeys = []string{
	"ct_builder_shortcodes",
	"ct_builder_json",
	"_oxygen_data",
	"ct_other_template",
	"ct_template_type",
	"_breakdance_data",
	"breakdance_data",
	"_breakdance_tree_json",
}

// PageBuilderChecker finds the item inside Oxygen or Breakdance page data
type PageBuilderChecker struct {
	descriptor
	finder
}

func NewPageBuilderChecker(repo repositories.ContentRepository) *PageBuilderChecker {
	return &PageBuilderChecker{
		descriptor: descriptor{
			id:     CheckerPageBuilder,
			label:  "Oxygen Builder",
			domain: media.DomainElsewhere,
			gates:  []string{ExtensionOxygen, ExtensionBreakdance},
		},
		finder: finder{repo: repo},
	}
}

func (c *PageBuilderChecker) Check(ctx context.Context, item *media.Item) (media.CheckerResult, error) {
	values := anyOf(
		repositories.Contains(item.IDString()),
		repositories.Contains(item.Filename),
		repositories.Contains(item.LocationRef),
	)

	candidates, err := c.find(ctx, repositories.StorePostMeta, repositories.ReferenceQuery{
		Keys:   pageBuilderKeys,
		Values: values,
	})
	if err != nil {
		return media.Unused(), err
	}
	for _, ref := range candidates {
		found, parsed := jsonReferences(ref.Value, item.ID, item.Filename, item.LocationRef)
		if found || !parsed {
			return media.UsedBy(describe(ref)), nil
		}
	}

	ref, err := c.first(ctx, repositories.StoreOptions, repositories.ReferenceQuery{
		KeyPatterns: []string{`ct\_%`, `oxygen\_vsb\_%`, `breakdance\_%`},
		Values:      values,
	})
	return hit(ref), err
}

var wooMediaOptions = []string{
	"woocommerce_catalog_image",
	"woocommerce_single_image",
	"woocommerce_thumbnail_image",
	"woocommerce_shop_page_id",
	"woocommerce_cart_page_id",
	"woocommerce_checkout_page_id",
	"woocommerce_myaccount_page_id",
	"woocommerce_terms_page_id",
	"woocommerce_placeholder_image",
	"woocommerce_shop_header_image",
	"woocommerce_email_header_image",
}

// WooCommerceChecker finds the item in product images, galleries, category
// thumbnails, store options and product content. It stops at the first hit.
type WooCommerceChecker struct {
	descriptor
	finder
}

func NewWooCommerceChecker(repo repositories.ContentRepository) *WooCommerceChecker {
	return &WooCommerceChecker{
		descriptor: descriptor{
			id:     CheckerWooCommerce,
			label:  "WooCommerce (Products/Categories)",
			domain: media.DomainElsewhere,
			gates:  []string{ExtensionWooCommerce},
		},
		finder: finder{repo: repo},
	}
}

func (c *WooCommerceChecker) Check(ctx context.Context, item *media.Item) (media.CheckerResult, error) {
	products, err := c.repo.CountPosts(ctx, []string{"product", "product_variation"}, publishedStatuses)
	if err != nil {
		return media.Unused(), fmt.Errorf("failed to count products: %w", err)
	}
	if products == 0 {
		ref, err := c.mediaOption(ctx, item)
		return hit(ref), err
	}

	if ref, err := c.galleryHit(ctx, item); err != nil || ref != nil {
		return hit(ref), err
	}

	id := item.IDString()
	steps := []func() (*repositories.Reference, error){
		func() (*repositories.Reference, error) {
			return c.first(ctx, repositories.StorePostMeta, repositories.ReferenceQuery{
				Keys:         []string{"_thumbnail_id"},
				PostTypes:    []string{"product"},
				PostStatuses: publishedStatuses,
				Values:       anyOf(repositories.Equals(id)),
			})
		},
		func() (*repositories.Reference, error) {
			return c.first(ctx, repositories.StoreTermMeta, repositories.ReferenceQuery{
				Keys:       []string{"thumbnail_id"},
				Taxonomies: []string{"product_cat", "product_tag"},
				Values:     anyOf(repositories.Equals(id)),
			})
		},
		func() (*repositories.Reference, error) {
			return c.first(ctx, repositories.StoreOptions, repositories.ReferenceQuery{
				KeyPatterns: []string{`theme\_mods\_%woocommerce%`},
				Values:      anyOf(repositories.Contains(id), repositories.Contains(item.Filename)),
			})
		},
		func() (*repositories.Reference, error) {
			return c.mediaOption(ctx, item)
		},
		func() (*repositories.Reference, error) {
			return c.first(ctx, repositories.StorePostContent, repositories.ReferenceQuery{
				Keys:         []string{"post_content", "post_excerpt"},
				PostTypes:    []string{"product"},
				PostStatuses: publishedStatuses,
				Values:       anyOf(repositories.Contains(id), repositories.Contains(item.LocationRef)),
			})
		},
		func() (*repositories.Reference, error) {
			return c.first(ctx, repositories.StorePostMeta, repositories.ReferenceQuery{
				PostTypes:    []string{"product_variation"},
				PostStatuses: publishedStatuses,
				Values:       anyOf(repositories.Contains(id), repositories.Contains(item.LocationRef)),
			})
		},
	}
	for _, step := range steps {
		if ref, err := step(); err != nil || ref != nil {
			return hit(ref), err
		}
	}
	return media.Unused(), nil
}

// galleryHit confirms substring matches against the comma separated id list
func (c *WooCommerceChecker) galleryHit(ctx context.Context, item *media.Item) (*repositories.Reference, error) {
	refs, err := c.find(ctx, repositories.StorePostMeta, repositories.ReferenceQuery{
		Keys:         []string{"_product_image_gallery"},
		PostTypes:    []string{"product"},
		PostStatuses: publishedStatuses,
		Values:       anyOf(repositories.Contains(item.IDString())),
	})
	if err != nil {
		return nil, err
	}
	for i := range refs {
		for _, part := range strings.Split(refs[i].Value, ",") {
			if strings.TrimSpace(part) == item.IDString() {
				return &refs[i], nil
			}
		}
	}
	return nil, nil
}

func (c *WooCommerceChecker) mediaOption(ctx context.Context, item *media.Item) (*repositories.Reference, error) {
	return c.first(ctx, repositories.StoreOptions, repositories.ReferenceQuery{
		Keys: wooMediaOptions,
		Values: anyOf(
			repositories.Equals(item.IDString()),
			repositories.Contains(item.Filename),
			repositories.Contains(item.LocationRef),
		),
	})
}
