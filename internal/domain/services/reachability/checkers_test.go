package reachability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/persistence/memory"
)

func checkUsed(t *testing.T, c Checker, repo *memory.Repository) bool {
	t.Helper()
	item, err := repo.FindItem(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, item)
	result, err := c.Check(context.Background(), item)
	require.NoError(t, err)
	return result.Used
}

func TestACFFieldsChecker(t *testing.T) {
	t.Run("direct value", func(t *testing.T) {
		repo, _ := newSite()
		repo.AddPost(memory.Post{ID: 10, Type: "page", Status: "publish", Title: "Home"})
		repo.SetPostMeta(10, "hero_image", "42")
		assert.True(t, checkUsed(t, NewACFFieldsChecker(repo), repo))
	})
	t.Run("serialized gallery", func(t *testing.T) {
		repo, _ := newSite()
		repo.AddPost(memory.Post{ID: 10, Type: "page", Status: "publish"})
		repo.SetPostMeta(10, "gallery", `a:2:{i:0;s:2:"41";i:1;s:2:"42";}`)
		assert.True(t, checkUsed(t, NewACFFieldsChecker(repo), repo))
	})
	t.Run("reserved keys are ignored", func(t *testing.T) {
		repo, _ := newSite()
		repo.AddPost(memory.Post{ID: 10, Type: "page", Status: "publish"})
		repo.SetPostMeta(10, "_hero_image", "42")
		assert.False(t, checkUsed(t, NewACFFieldsChecker(repo), repo))
	})
	t.Run("consolidated storage", func(t *testing.T) {
		repo, _ := newSite()
		repo.AddPost(memory.Post{ID: 10, Type: "page", Status: "publish"})
		repo.SetPostMeta(10, "acf", `a:1:{s:4:"hero";i:42;}`)
		assert.True(t, checkUsed(t, NewACFFieldsChecker(repo), repo))
	})
	t.Run("partial ids do not match", func(t *testing.T) {
		repo, _ := newSite()
		repo.AddPost(memory.Post{ID: 10, Type: "page", Status: "publish"})
		repo.SetPostMeta(10, "hero_image", "420")
		assert.False(t, checkUsed(t, NewACFFieldsChecker(repo), repo))
	})
}

func TestACFOptionsChecker(t *testing.T) {
	repo, _ := newSite()
	c := NewACFOptionsChecker(repo)
	assert.False(t, checkUsed(t, c, repo))

	repo.SetOption("optionsXlogo", "42")
	assert.False(t, checkUsed(t, c, repo), "underscore in the pattern is literal")

	repo.SetOption("options_footer_logo", "42")
	assert.True(t, checkUsed(t, c, repo))
}

func TestFeaturedImagesChecker(t *testing.T) {
	repo, item := newSite()
	repo.AddPost(memory.Post{ID: 10, Type: "post", Status: "publish", Title: "Hello"})
	repo.AddPost(memory.Post{ID: 11, Type: "post", Status: "trash", Title: "Gone"})
	repo.SetPostMeta(10, "_thumbnail_id", "42")
	repo.SetPostMeta(11, "_thumbnail_id", "42")

	result, err := NewFeaturedImagesChecker(repo).Check(context.Background(), item)
	require.NoError(t, err)
	assert.True(t, result.Used)
	assert.Equal(t, []string{"Featured image for post: Hello"}, result.Details)
}

func TestPostContentChecker(t *testing.T) {
	repo, item := newSite()
	repo.AddPost(memory.Post{ID: 10, Type: "post", Status: "publish", Title: "Hello",
		Content: `<img class="wp-image-42" src="/wp-content/uploads/2024/05/photo.jpg">`})

	result, err := NewPostContentChecker(repo).Check(context.Background(), item)
	require.NoError(t, err)
	assert.True(t, result.Used)
	assert.Equal(t, []string{"Content in post: Hello", "Filename reference in post: Hello"}, result.Details)

	repo2, _ := newSite()
	repo2.AddPost(memory.Post{ID: 10, Type: "post", Status: "pending", Content: "wp-image-42"})
	assert.False(t, checkUsed(t, NewPostContentChecker(repo2), repo2))
}

func TestWidgetsChecker(t *testing.T) {
	t.Run("json image widget", func(t *testing.T) {
		repo, _ := newSite()
		repo.SetOption("widget_media_image", `{"2":{"attachment_id":42,"url":""},"_multiwidget":1}`)
		assert.True(t, checkUsed(t, NewWidgetsChecker(repo), repo))
	})
	t.Run("serialized image widget", func(t *testing.T) {
		repo, _ := newSite()
		repo.SetOption("widget_media_image", `a:1:{i:2;a:1:{s:13:"attachment_id";i:42;}}`)
		assert.True(t, checkUsed(t, NewWidgetsChecker(repo), repo))
	})
	t.Run("other widget by filename", func(t *testing.T) {
		repo, _ := newSite()
		repo.SetOption("widget_text", `<img src="photo.jpg">`)
		assert.True(t, checkUsed(t, NewWidgetsChecker(repo), repo))
	})
	t.Run("unrelated widget", func(t *testing.T) {
		repo, _ := newSite()
		repo.SetOption("widget_media_image", `{"2":{"attachment_id":7}}`)
		repo.SetOption("widget_text", "hello")
		assert.False(t, checkUsed(t, NewWidgetsChecker(repo), repo))
	})
}

func TestImageWidgetAttachments(t *testing.T) {
	assert.ElementsMatch(t, []int64{3, 9}, imageWidgetAttachments(`{"1":{"attachment_id":3},"2":{"attachment_id":"9"}}`))
	assert.Equal(t, []int64{5, 6}, imageWidgetAttachments(`a:2:{i:1;a:1:{s:13:"attachment_id";i:5;}i:2;a:1:{s:13:"attachment_id";s:1:"6";}}`))
	assert.Empty(t, imageWidgetAttachments("garbage"))
}

func TestMenusChecker(t *testing.T) {
	repo, _ := newSite()
	repo.AddPost(memory.Post{ID: 10, Type: "nav_menu_item", Status: "publish"})
	repo.SetPostMeta(10, "_menu_item_url", siteURL+"/wp-content/uploads/2024/05/photo.jpg")
	assert.True(t, checkUsed(t, NewMenusChecker(repo), repo))
}

func TestCustomizerChecker(t *testing.T) {
	repo, _ := newSite()
	c := NewCustomizerChecker(repo)
	repo.SetOption("theme_mods_twentytwenty", `a:1:{s:12:"header_image";s:9:"photo.jpg";}`)
	assert.True(t, checkUsed(t, c, repo))

	repo2, _ := newSite()
	repo2.SetOption("custom_logo", "42")
	assert.True(t, checkUsed(t, NewCustomizerChecker(repo2), repo2))
}

func TestSiteSettingsChecker(t *testing.T) {
	cases := []struct {
		name, option, value string
		want                bool
	}{
		{"site icon", "site_icon", "42", true},
		{"site icon partial", "site_icon", "142", false},
		{"header by url", "header_image", siteURL + "/wp-content/uploads/2024/05/photo.jpg", true},
		{"header by id", "header_image", "42", false},
		{"brand logo", "brand_logo", "42", true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			repo, _ := newSite()
			repo.SetOption(c.option, c.value)
			assert.Equal(t, c.want, checkUsed(t, NewSiteSettingsChecker(repo), repo))
		})
	}
}

func TestPageBuilderChecker(t *testing.T) {
	cases := []struct {
		name, value string
		want        bool
	}{
		{"json number", `{"children":[{"options":{"image_id":42}}]}`, true},
		{"json string url", `{"src":"` + siteURL + `/wp-content/uploads/2024/05/photo.jpg"}`, true},
		{"json substring of another id", `{"children":[{"options":{"image_id":142}}]}`, false},
		{"shortcodes fall back to substring", `[ct_image image_id="42"]`, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			repo, _ := newSite()
			repo.AddPost(memory.Post{ID: 10, Type: "page", Status: "publish"})
			repo.SetPostMeta(10, "ct_builder_json", c.value)
			assert.Equal(t, c.want, checkUsed(t, NewPageBuilderChecker(repo), repo))
		})
	}

	repo, _ := newSite()
	repo.SetOption("oxygen_vsb_global_settings", "photo.jpg")
	assert.True(t, checkUsed(t, NewPageBuilderChecker(repo), repo))
}

func TestWooCommerceChecker(t *testing.T) {
	t.Run("no products checks only store options", func(t *testing.T) {
		repo, _ := newSite()
		repo.AddPost(memory.Post{ID: 10, Type: "page", Status: "publish"})
		repo.SetOption("woocommerce_placeholder_image", "42")
		assert.True(t, checkUsed(t, NewWooCommerceChecker(repo), repo))
	})
	t.Run("gallery entries are exact", func(t *testing.T) {
		repo, _ := newSite()
		repo.AddPost(memory.Post{ID: 10, Type: "product", Status: "publish"})
		repo.SetPostMeta(10, "_product_image_gallery", "142,420")
		assert.False(t, checkUsed(t, NewWooCommerceChecker(repo), repo))

		repo.SetPostMeta(10, "_product_image_gallery", "41, 42")
		assert.True(t, checkUsed(t, NewWooCommerceChecker(repo), repo))
	})
	t.Run("category thumbnail", func(t *testing.T) {
		repo, _ := newSite()
		repo.AddPost(memory.Post{ID: 10, Type: "product", Status: "publish"})
		repo.SetTermMeta(3, "product_cat", "thumbnail_id", "42")
		assert.True(t, checkUsed(t, NewWooCommerceChecker(repo), repo))
	})
	t.Run("variation meta", func(t *testing.T) {
		repo, _ := newSite()
		repo.AddPost(memory.Post{ID: 11, Type: "product_variation", Status: "publish"})
		repo.SetPostMeta(11, "_variation_image", "42")
		assert.True(t, checkUsed(t, NewWooCommerceChecker(repo), repo))
	})
}

func TestAllPostMetaChecker(t *testing.T) {
	repo, _ := newSite()
	repo.AddPost(memory.Post{ID: 10, Type: "page", Status: "future"})
	repo.SetPostMeta(10, "section_bg", siteURL+"/wp-content/uploads/2024/05/photo.jpg")
	assert.True(t, checkUsed(t, NewAllPostMetaChecker(repo), repo))

	repo2, _ := newSite()
	repo2.AddPost(memory.Post{ID: 10, Type: "page", Status: "trash"})
	repo2.SetPostMeta(10, "section_bg", "42")
	assert.False(t, checkUsed(t, NewAllPostMetaChecker(repo2), repo2))
}

func TestUserMetaChecker(t *testing.T) {
	repo, _ := newSite()
	repo.SetUserMeta(1, "avatar", "42")
	assert.True(t, checkUsed(t, NewUserMetaChecker(repo), repo))
}

func TestAttachedMediaChecker(t *testing.T) {
	repo, item := newSite()
	repo.AddPost(memory.Post{ID: 43, Type: "attachment", Status: "inherit", Title: "Thumb", ParentID: 42, File: "t.jpg"})

	result, err := NewAttachedMediaChecker(repo).Check(context.Background(), item)
	require.NoError(t, err)
	assert.True(t, result.Used)
	assert.Equal(t, []string{"Parent of attachment: Thumb"}, result.Details)
}

func TestJSONReferences(t *testing.T) {
	found, ok := jsonReferences(`{"a":["x",{"b":"42"}]}`, 42)
	assert.True(t, ok)
	assert.True(t, found)

	found, ok = jsonReferences(`{"a":"See PHOTO.jpg"}`, 42, "photo.jpg", "")
	assert.True(t, ok)
	assert.True(t, found)

	_, ok = jsonReferences(`not json`, 42)
	assert.False(t, ok)
}
