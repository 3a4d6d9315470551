package content

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GarethCitcom/orphaned-acf-media/internal/domain/repositories"
	"github.com/GarethCitcom/orphaned-acf-media/internal/domain/services/reachability"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/observability/logging"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/persistence/database"
)

type fixture struct {
	db   *database.DB
	repo *MediaRepository
	root string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	db, err := database.NewConnection(ctx, database.Config{
		Driver:      database.DriverSQLite,
		DSN:         "file:" + filepath.Join(dir, "wp.db") + "?_foreign_keys=on",
		TablePrefix: "wp_",
	}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.CreateSchema(ctx))

	root := filepath.Join(dir, "uploads")
	require.NoError(t, os.MkdirAll(root, 0o755))
	return &fixture{db: db, repo: NewMediaRepository(db, root), root: root}
}

func (f *fixture) exec(t *testing.T, query string, args ...any) {
	t.Helper()
	_, err := f.db.Exec(query, args...)
	require.NoError(t, err)
}

func (f *fixture) attachment(t *testing.T, id int64, file string, posted time.Time) {
	t.Helper()
	f.exec(t, `INSERT INTO wp_posts (ID, post_title, post_type, post_status, post_mime_type, post_date, guid)
		VALUES (?, ?, 'attachment', 'inherit', 'image/jpeg', ?, ?)`,
		id, filepath.Base(file), posted.Format(postDateLayout), "https://example.test/wp-content/uploads/"+file)
	f.exec(t, `INSERT INTO wp_postmeta (post_id, meta_key, meta_value) VALUES (?, '_wp_attached_file', ?)`, id, file)
}

func (f *fixture) post(t *testing.T, id int64, postType, status, title, content string) {
	t.Helper()
	f.exec(t, `INSERT INTO wp_posts (ID, post_title, post_type, post_status, post_content) VALUES (?, ?, ?, ?, ?)`,
		id, title, postType, status, content)
}

func (f *fixture) meta(t *testing.T, postID int64, key, value string) {
	t.Helper()
	f.exec(t, `INSERT INTO wp_postmeta (post_id, meta_key, meta_value) VALUES (?, ?, ?)`, postID, key, value)
}

func TestListItemsOrderAndFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	f.attachment(t, 1, "2024/03/old.jpg", base)
	f.attachment(t, 2, "2024/03/new.jpg", base.Add(time.Hour))
	f.meta(t, 2, "_filesize", "2048")
	f.post(t, 10, "page", "publish", "Home", "")

	n, err := f.repo.CountItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	items, err := f.repo.ListItems(ctx, 0, 100)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(2), items[0].ID)
	assert.Equal(t, "new.jpg", items[0].Filename)
	assert.Equal(t, "2024/03/new.jpg", items[0].FilePath)
	assert.Equal(t, int64(2048), items[0].SizeBytes)
	assert.True(t, base.Add(time.Hour).Equal(items[0].CreatedAt))

	missing, err := f.repo.FindItem(ctx, 10)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFindReferencesEscapesWildcards(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.exec(t, `INSERT INTO wp_options (option_name, option_value) VALUES ('options_logo', '42'), ('optionsXlogo', '42'), ('widget_text', 'a 100% match')`)

	refs, err := f.repo.FindReferences(ctx, repositories.StoreOptions, repositories.ReferenceQuery{
		KeyPatterns: []string{`options\_%`},
		Values:      []repositories.ValueMatch{repositories.Equals("42")},
	})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "options_logo", refs[0].Key)

	refs, err = f.repo.FindReferences(ctx, repositories.StoreOptions, repositories.ReferenceQuery{
		Values: []repositories.ValueMatch{repositories.Contains("0%")},
	})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "widget_text", refs[0].Key)
}

func TestFindReferencesPostFilters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.post(t, 10, "page", "publish", "Home", `<img class="wp-image-42">`)
	f.post(t, 11, "page", "trash", "Old", `<img class="wp-image-42">`)
	f.meta(t, 10, "hero", "42")
	f.meta(t, 10, "_hero", "42")
	f.exec(t, `INSERT INTO wp_term_taxonomy (term_id, taxonomy) VALUES (5, 'product_cat')`)
	f.exec(t, `INSERT INTO wp_termmeta (term_id, meta_key, meta_value) VALUES (5, 'thumbnail_id', '42')`)

	refs, err := f.repo.FindReferences(ctx, repositories.StorePostMeta, repositories.ReferenceQuery{
		ExcludeReserved: true,
		Values:          []repositories.ValueMatch{repositories.Equals("42")},
	})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "hero", refs[0].Key)
	assert.Equal(t, "Home", refs[0].OwnerTitle)

	refs, err = f.repo.FindReferences(ctx, repositories.StorePostContent, repositories.ReferenceQuery{
		PostStatuses: []string{"publish"},
		Values:       []repositories.ValueMatch{repositories.Contains("wp-image-42")},
	})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, int64(10), refs[0].OwnerID)

	refs, err = f.repo.FindReferences(ctx, repositories.StoreTermMeta, repositories.ReferenceQuery{
		Keys:       []string{"thumbnail_id"},
		Taxonomies: []string{"product_cat"},
		Values:     []repositories.ValueMatch{repositories.Equals("42")},
	})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "product_cat", refs[0].OwnerType)

	count, err := f.repo.CountPosts(ctx, []string{"page"}, []string{"publish", "draft"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDeleteItemRemovesRowsAndFile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.attachment(t, 7, "2024/03/gone.jpg", time.Now())
	path := filepath.Join(f.root, "2024", "03", "gone.jpg")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("jpg"), 0o644))

	require.NoError(t, f.repo.DeleteItem(ctx, 7))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	item, err := f.repo.FindItem(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, item)

	var metaRows int
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM wp_postmeta WHERE post_id = 7`).Scan(&metaRows))
	assert.Zero(t, metaRows)

	assert.ErrorIs(t, f.repo.DeleteItem(ctx, 7), repositories.ErrItemNotFound)
}

func TestDeleteItemToleratesMissingFile(t *testing.T) {
	f := newFixture(t)
	f.attachment(t, 8, "2024/03/never-uploaded.jpg", time.Now())
	assert.NoError(t, f.repo.DeleteItem(context.Background(), 8))
}

func TestResolveRejectsEscapingPaths(t *testing.T) {
	repo := &MediaRepository{mediaRoot: "/srv/uploads"}
	_, ok := repo.resolve("../../etc/passwd")
	assert.False(t, ok)
	p, ok := repo.resolve("2024/01/a.jpg")
	assert.True(t, ok)
	assert.Equal(t, filepath.Join("/srv/uploads", "2024", "01", "a.jpg"), p)
}

func TestCheckersAgainstSQL(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.attachment(t, 42, "2024/05/photo.jpg", time.Now())
	f.post(t, 10, "page", "publish", "Home", "")
	f.meta(t, 10, "gallery", `a:1:{i:0;s:2:"42";}`)
	f.exec(t, `INSERT INTO wp_usermeta (user_id, meta_key, meta_value) VALUES (1, 'avatar', 'https://example.test/wp-content/uploads/2024/05/photo.jpg')`)

	item, err := f.repo.FindItem(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, item)

	classifier := reachability.NewClassifier(reachability.NewDefaultRegistry(f.repo), nil, nil, time.Minute, nil, nil)
	v, err := classifier.Classify(ctx, item)
	require.NoError(t, err)
	assert.Equal(t, []string{"ACF Fields", "User Profiles"}, v.Explanations())
}
