package reachability

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"

	"github.com/GarethCitcom/orphaned-acf-media/internal/domain/entities/media"
	"github.com/GarethCitcom/orphaned-acf-media/internal/domain/repositories"
)

// WidgetsChecker finds the item in image widgets and any other widget settings
type WidgetsChecker struct {
	descriptor
	finder
}

func NewWidgetsChecker(repo repositories.ContentRepository) *WidgetsChecker {
	return &WidgetsChecker{
		descriptor: descriptor{id: CheckerWidgets, label: "Widgets", domain: media.DomainElsewhere},
		finder:     finder{repo: repo},
	}
}

func (c *WidgetsChecker) Check(ctx context.Context, item *media.Item) (media.CheckerResult, error) {
	raw, ok, err := c.repo.GetOption(ctx, "widget_media_image")
	if err != nil {
		return media.Unused(), fmt.Errorf("failed to load widget_media_image: %w", err)
	}
	if ok && slices.Contains(imageWidgetAttachments(raw), item.ID) {
		return media.UsedBy(`Image widget "widget_media_image"`), nil
	}

	ref, err := c.first(ctx, repositories.StoreOptions, repositories.ReferenceQuery{
		KeyPatterns: []string{`widget\_%`},
		Values:      anyOf(repositories.Contains(item.IDString()), repositories.Contains(item.Filename)),
	})
	return hit(ref), err
}

var serializedAttachmentID = regexp.MustCompile(`s:13:"attachment_id";(?:i:(\d+);|s:\d+:"(\d+)";)`)

// imageWidgetAttachments extracts attachment ids from the image widget option,
// which is stored either as JSON or as a PHP serialized array.
func imageWidgetAttachments(raw string) []int64 {
	var ids []int64

	var instances map[string]any
	if err := json.Unmarshal([]byte(raw), &instances); err == nil {
		for _, inst := range instances {
			fields, ok := inst.(map[string]any)
			if !ok {
				continue
			}
			if id, ok := asInt64(fields["attachment_id"]); ok {
				ids = append(ids, id)
			}
		}
		return ids
	}

	for _, m := range serializedAttachmentID.FindAllStringSubmatch(raw, -1) {
		s := m[1]
		if s == "" {
			s = m[2]
		}
		if id, ok := asInt64(s); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// MenusChecker finds the item in navigation menu item meta
type MenusChecker struct {
	descriptor
	finder
}

func NewMenusChecker(repo repositories.ContentRepository) *MenusChecker {
	return &MenusChecker{
		descriptor: descriptor{id: CheckerMenus, label: "Navigation Menus", domain: media.DomainElsewhere},
		finder:     finder{repo: repo},
	}
}

func (c *MenusChecker) Check(ctx context.Context, item *media.Item) (media.CheckerResult, error) {
	ref, err := c.first(ctx, repositories.StorePostMeta, repositories.ReferenceQuery{
		PostTypes: []string{"nav_menu_item"},
		Values:    anyOf(repositories.Equals(item.IDString()), repositories.Contains(item.Filename)),
	})
	return hit(ref), err
}

// CustomizerChecker finds the item in theme mods and the core customizer options
type CustomizerChecker struct {
	descriptor
	finder
}

func NewCustomizerChecker(repo repositories.ContentRepository) *CustomizerChecker {
	return &CustomizerChecker{
		descriptor: descriptor{id: CheckerCustomizer, label: "Theme Customizer", domain: media.DomainElsewhere},
		finder:     finder{repo: repo},
	}
}

func (c *CustomizerChecker) Check(ctx context.Context, item *media.Item) (media.CheckerResult, error) {
	ref, err := c.first(ctx, repositories.StoreOptions, repositories.ReferenceQuery{
		KeyPatterns: []string{`theme\_mods\_%`},
		Values:      anyOf(repositories.Contains(item.IDString()), repositories.Contains(item.Filename)),
	})
	if err != nil || ref != nil {
		return hit(ref), err
	}

	ref, err = c.first(ctx, repositories.StoreOptions, repositories.ReferenceQuery{
		Keys:   []string{"site_icon", "custom_logo", "header_image", "background_image"},
		Values: anyOf(repositories.Equals(item.IDString()), repositories.Contains(item.Filename)),
	})
	return hit(ref), err
}

// SiteSettingsChecker finds the item in icon, header, background and logo settings
type SiteSettingsChecker struct {
	descriptor
	finder
}

func NewSiteSettingsChecker(repo repositories.ContentRepository) *SiteSettingsChecker {
	return &SiteSettingsChecker{
		descriptor: descriptor{id: CheckerSiteSettings, label: "Site Settings", domain: media.DomainElsewhere},
		finder:     finder{repo: repo},
	}
}

func (c *SiteSettingsChecker) Check(ctx context.Context, item *media.Item) (media.CheckerResult, error) {
	id := item.IDString()
	queries := []repositories.ReferenceQuery{
		{
			Keys:   []string{"site_icon"},
			Values: anyOf(repositories.Equals(id)),
		},
		{
			Keys:   []string{"header_image", "background_image"},
			Values: anyOf(repositories.Contains(item.Filename), repositories.Contains(item.LocationRef)),
		},
		{
			Keys: []string{"custom_logo", "site_logo", "logo", "brand_logo"},
			Values: anyOf(
				repositories.Equals(id),
				repositories.Contains(item.Filename),
				repositories.Contains(item.LocationRef),
			),
		},
	}
	for _, q := range queries {
		ref, err := c.first(ctx, repositories.StoreOptions, q)
		if err != nil || ref != nil {
			return hit(ref), err
		}
	}
	return media.Unused(), nil
}
