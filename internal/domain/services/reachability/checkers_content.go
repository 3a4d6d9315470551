package reachability

import (
	"context"
	"fmt"

	"github.com/GarethCitcom/orphaned-acf-media/internal/domain/entities/media"
	"github.com/GarethCitcom/orphaned-acf-media/internal/domain/repositories"
)

// FeaturedImagesChecker finds posts using the item as their featured image
type FeaturedImagesChecker struct {
	descriptor
	finder
}

func NewFeaturedImagesChecker(repo repositories.ContentRepository) *FeaturedImagesChecker {
	return &FeaturedImagesChecker{
		descriptor: descriptor{id: CheckerFeaturedImages, label: "Featured Images", domain: media.DomainElsewhere},
		finder:     finder{repo: repo},
	}
}

func (c *FeaturedImagesChecker) Check(ctx context.Context, item *media.Item) (media.CheckerResult, error) {
	refs, err := c.find(ctx, repositories.StorePostMeta, repositories.ReferenceQuery{
		Keys:         []string{"_thumbnail_id"},
		Values:       anyOf(repositories.Equals(item.IDString())),
		PostStatuses: publishedStatuses,
	})
	if err != nil || len(refs) == 0 {
		return media.Unused(), err
	}
	details := make([]string, 0, len(refs))
	for _, ref := range refs {
		details = append(details, fmt.Sprintf("Featured image for %s: %s", ref.OwnerType, ref.OwnerTitle))
	}
	return media.UsedBy(details...), nil
}

// PostContentChecker finds the item's image class or filename in post bodies
type PostContentChecker struct {
	descriptor
	finder
}

func NewPostContentChecker(repo repositories.ContentRepository) *PostContentChecker {
	return &PostContentChecker{
		descriptor: descriptor{id: CheckerPostContent, label: "Post/Page Content", domain: media.DomainElsewhere},
		finder:     finder{repo: repo},
	}
}

func (c *PostContentChecker) Check(ctx context.Context, item *media.Item) (media.CheckerResult, error) {
	var details []string

	byID, err := c.find(ctx, repositories.StorePostContent, repositories.ReferenceQuery{
		Values:       anyOf(repositories.Contains("wp-image-" + item.IDString())),
		PostStatuses: publishedStatuses,
	})
	if err != nil {
		return media.Unused(), err
	}
	for _, ref := range byID {
		details = append(details, fmt.Sprintf("Content in %s: %s", ref.OwnerType, ref.OwnerTitle))
	}

	byName, err := c.find(ctx, repositories.StorePostContent, repositories.ReferenceQuery{
		Values:       anyOf(repositories.Contains(item.Filename)),
		PostStatuses: publishedStatuses,
	})
	if err != nil {
		return media.Unused(), err
	}
	for _, ref := range byName {
		details = append(details, fmt.Sprintf("Filename reference in %s: %s", ref.OwnerType, ref.OwnerTitle))
	}

	if len(details) == 0 {
		return media.Unused(), nil
	}
	return media.UsedBy(details...), nil
}

// AllPostMetaChecker is the low-precision safety net over every public meta
// key not already covered by a more specific checker.
type AllPostMetaChecker struct {
	descriptor
	finder
}

func NewAllPostMetaChecker(repo repositories.ContentRepository) *AllPostMetaChecker {
	return &AllPostMetaChecker{
		descriptor: descriptor{id: CheckerAllPostMeta, label: "Page Builder/Custom Fields", domain: media.DomainElsewhere},
		finder:     finder{repo: repo},
	}
}

func (c *AllPostMetaChecker) Check(ctx context.Context, item *media.Item) (media.CheckerResult, error) {
	ref, err := c.first(ctx, repositories.StorePostMeta, repositories.ReferenceQuery{
		ExcludeReserved: true,
		ExcludeKeys:     []string{"_thumbnail_id", "_product_image_gallery"},
		PostStatuses:    liveStatuses,
		Values: anyOf(
			repositories.Equals(item.IDString()),
			repositories.Contains(item.LocationRef),
			repositories.Contains(item.Filename),
		),
	})
	return hit(ref), err
}

// UserMetaChecker finds the item in user profile meta such as avatars
type UserMetaChecker struct {
	descriptor
	finder
}

func NewUserMetaChecker(repo repositories.ContentRepository) *UserMetaChecker {
	return &UserMetaChecker{
		descriptor: descriptor{id: CheckerUserMeta, label: "User Profiles", domain: media.DomainElsewhere},
		finder:     finder{repo: repo},
	}
}

func (c *UserMetaChecker) Check(ctx context.Context, item *media.Item) (media.CheckerResult, error) {
	ref, err := c.first(ctx, repositories.StoreUserMeta, repositories.ReferenceQuery{
		Values: anyOf(
			repositories.Equals(item.IDString()),
			repositories.Contains(item.LocationRef),
			repositories.Contains(item.Filename),
		),
	})
	return hit(ref), err
}

// AttachedMediaChecker flags items that other attachments name as their parent
type AttachedMediaChecker struct {
	descriptor
	finder
}

func NewAttachedMediaChecker(repo repositories.ContentRepository) *AttachedMediaChecker {
	return &AttachedMediaChecker{
		descriptor: descriptor{id: CheckerAttachedMedia, label: "Parent of Attached Media", domain: media.DomainElsewhere},
		finder:     finder{repo: repo},
	}
}

func (c *AttachedMediaChecker) Check(ctx context.Context, item *media.Item) (media.CheckerResult, error) {
	refs, err := c.find(ctx, repositories.StoreAttachmentChildren, repositories.ReferenceQuery{
		Values: anyOf(repositories.Equals(item.IDString())),
	})
	if err != nil || len(refs) == 0 {
		return media.Unused(), err
	}
	details := make([]string, 0, len(refs))
	for _, ref := range refs {
		details = append(details, describe(ref))
	}
	return media.UsedBy(details...), nil
}
