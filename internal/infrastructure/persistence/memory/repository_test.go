package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GarethCitcom/orphaned-acf-media/internal/domain/repositories"
)

func TestLikePatterns(t *testing.T) {
	assert.True(t, like("options_hero", `options\_%`))
	assert.False(t, like("optionsXhero", `options\_%`))
	assert.True(t, like("theme_mods_storefront-woocommerce", `theme\_mods\_%woocommerce%`))
	assert.True(t, like("WIDGET_text", `widget\_%`))
	assert.True(t, like("ab", "a_"))
	assert.False(t, like("abc", "a_"))
}

func TestListItemsNewestFirst(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := NewRepository("https://example.test")
	repo.AddAttachment(1, "2024/01/a.jpg", "image/jpeg", base)
	repo.AddAttachment(2, "2024/01/b.jpg", "image/jpeg", base.Add(time.Hour))
	repo.AddAttachment(3, "2024/01/c.pdf", "application/pdf", base.Add(2*time.Hour))
	repo.AddPost(Post{ID: 10, Type: "post", Status: "publish", Title: "Hello"})

	n, err := repo.CountItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	page, err := repo.ListItems(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, int64(3), page[0].ID)
	assert.Equal(t, int64(2), page[1].ID)
	assert.Equal(t, "c.pdf", page[0].Filename)
	assert.Equal(t, "https://example.test/wp-content/uploads/2024/01/c.pdf", page[0].LocationRef)

	rest, err := repo.ListItems(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, int64(1), rest[0].ID)

	missing, err := repo.FindItem(ctx, 10)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFindReferencesPostMeta(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository("")
	repo.AddPost(Post{ID: 10, Type: "page", Status: "publish", Title: "About"})
	repo.AddPost(Post{ID: 11, Type: "page", Status: "trash", Title: "Old"})
	repo.SetPostMeta(10, "hero_image", "42")
	repo.SetPostMeta(10, "_hero_image", "field_abc")
	repo.SetPostMeta(11, "hero_image", "42")

	refs, err := repo.FindReferences(ctx, repositories.StorePostMeta, repositories.ReferenceQuery{
		ExcludeReserved: true,
		PostStatuses:    []string{"publish"},
		Values:          []repositories.ValueMatch{repositories.Equals("42")},
	})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, int64(10), refs[0].OwnerID)
	assert.Equal(t, "hero_image", refs[0].Key)

	refs, err = repo.FindReferences(ctx, repositories.StorePostMeta, repositories.ReferenceQuery{
		Values: []repositories.ValueMatch{repositories.Contains("FIELD_")},
	})
	require.NoError(t, err)
	assert.Len(t, refs, 1)
}

func TestFindReferencesHonoursLimit(t *testing.T) {
	repo := NewRepository("")
	repo.SetOption("widget_a", "photo.jpg")
	repo.SetOption("widget_b", "photo.jpg")

	refs, err := repo.FindReferences(context.Background(), repositories.StoreOptions, repositories.ReferenceQuery{
		KeyPatterns: []string{`widget\_%`},
		Values:      []repositories.ValueMatch{repositories.Contains("photo.jpg")},
		Limit:       1,
	})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "widget_a", refs[0].Key)
}

func TestDeleteItem(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository("")
	repo.AddAttachment(5, "x.png", "image/png", time.Now())
	repo.SetPostMeta(5, "_wp_attached_file", "x.png")

	require.NoError(t, repo.DeleteItem(ctx, 5))
	assert.ErrorIs(t, repo.DeleteItem(ctx, 5), repositories.ErrItemNotFound)
	assert.Equal(t, 2, repo.DeleteCalls())

	refs, err := repo.FindReferences(ctx, repositories.StorePostMeta, repositories.ReferenceQuery{
		Values: []repositories.ValueMatch{repositories.Equals("x.png")},
	})
	require.NoError(t, err)
	assert.Empty(t, refs)

	boom := errors.New("disk full")
	repo.AddAttachment(6, "y.png", "image/png", time.Now())
	repo.FailDelete(6, boom)
	assert.ErrorIs(t, repo.DeleteItem(ctx, 6), boom)
}
