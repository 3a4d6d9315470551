// Package content implements the content repository over a WordPress-shaped
// SQL database.
package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/GarethCitcom/orphaned-acf-media/internal/domain/entities/media"
	"github.com/GarethCitcom/orphaned-acf-media/internal/domain/repositories"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/persistence/database"
)

const postDateLayout = "2006-01-02 15:04:05"

var contentColumns = map[string]bool{
	"post_content": true,
	"post_excerpt": true,
	"post_title":   true,
}

type MediaRepository struct {
	db        *database.DB
	mediaRoot string
}

// NewMediaRepository creates a repository. mediaRoot is the uploads
// directory attachment files are resolved against; empty disables file removal.
func NewMediaRepository(db *database.DB, mediaRoot string) *MediaRepository {
	return &MediaRepository{db: db, mediaRoot: mediaRoot}
}

func (r *MediaRepository) t(name string) string { return r.db.Table(name) }

func (r *MediaRepository) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query, args...)
	database.CheckAndLogSlowQuery(r.db.Logger(), query, time.Since(start))
	return rows, err
}

func (r *MediaRepository) CountItems(ctx context.Context) (int, error) {
	var n int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE post_type = 'attachment'`, r.t("posts"))
	if err := r.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count attachments: %w", err)
	}
	return n, nil
}

func (r *MediaRepository) itemSelect() string {
	return fmt.Sprintf(`SELECT p.ID, p.post_title, p.guid, p.post_mime_type, p.post_date, p.post_parent,
		COALESCE((SELECT meta_value FROM %[2]s WHERE post_id = p.ID AND meta_key = '_wp_attached_file' LIMIT 1), ''),
		COALESCE((SELECT meta_value FROM %[2]s WHERE post_id = p.ID AND meta_key = '_filesize' LIMIT 1), '')
		FROM %[1]s p WHERE p.post_type = 'attachment'`, r.t("posts"), r.t("postmeta"))
}

func (r *MediaRepository) ListItems(ctx context.Context, offset, limit int) ([]*media.Item, error) {
	query := r.itemSelect() + ` ORDER BY p.post_date DESC, p.ID DESC LIMIT ? OFFSET ?`
	rows, err := r.query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query attachments: %w", err)
	}
	defer rows.Close()

	items := []*media.Item{}
	for rows.Next() {
		item, err := r.scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attachments: %w", err)
	}
	return items, nil
}

func (r *MediaRepository) FindItem(ctx context.Context, id int64) (*media.Item, error) {
	rows, err := r.query(ctx, r.itemSelect()+` AND p.ID = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query attachment %d: %w", id, err)
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}
	return r.scanItem(rows)
}

func (r *MediaRepository) scanItem(rows *sql.Rows) (*media.Item, error) {
	var item media.Item
	var posted, file, sz string
	if err := rows.Scan(&item.ID, &item.Title, &item.LocationRef, &item.MimeType, &posted, &item.ParentID, &file, &sz); err != nil {
		return nil, fmt.Errorf("failed to scan attachment: %w", err)
	}
	if t, err := time.Parse(postDateLayout, posted); err == nil {
		item.CreatedAt = t
	}
	item.FilePath = file
	item.Filename = path.Base(file)
	if file == "" {
		item.Filename = path.Base(item.LocationRef)
	}
	if n, err := strconv.ParseInt(sz, 10, 64); err == nil {
		item.SizeBytes = n
	} else if p, ok := r.resolve(file); ok {
		if info, err := os.Stat(p); err == nil {
			item.SizeBytes = info.Size()
		}
	}
	return &item, nil
}

// resolve maps an upload path to a file under the media root, refusing paths
// that escape it
func (r *MediaRepository) resolve(file string) (string, bool) {
	if r.mediaRoot == "" || file == "" {
		return "", false
	}
	root := filepath.Clean(r.mediaRoot)
	full := filepath.Join(root, filepath.FromSlash(file))
	rel, err := filepath.Rel(root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return full, true
}

// DeleteItem removes the attachment row and its meta in one transaction, then
// the file on disk. A missing file is not an error.
func (r *MediaRepository) DeleteItem(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete: %w", err)
	}
	defer tx.Rollback()

	var file string
	err = tx.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT COALESCE((SELECT meta_value FROM %s WHERE post_id = p.ID AND meta_key = '_wp_attached_file' LIMIT 1), '')
		FROM %s p WHERE p.ID = ? AND p.post_type = 'attachment'`, r.t("postmeta"), r.t("posts")), id).Scan(&file)
	if errors.Is(err, sql.ErrNoRows) {
		return repositories.ErrItemNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load attachment %d: %w", id, err)
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE post_id = ?`, r.t("postmeta")), id); err != nil {
		return fmt.Errorf("failed to delete attachment meta: %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE ID = ?`, r.t("posts")), id); err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}

	if p, ok := r.resolve(file); ok {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			r.db.Logger().Deletion().Warn("Attachment file not removed", "id", id, "path", p, "error", err.Error())
		}
	}
	return nil
}

func (r *MediaRepository) GetOption(ctx context.Context, name string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT option_value FROM %s WHERE option_name = ?`, r.t("options")), name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to load option %s: %w", name, err)
	}
	return value, true, nil
}

func (r *MediaRepository) CountPosts(ctx context.Context, postTypes, statuses []string) (int, error) {
	w := &whereBuilder{}
	w.in("post_type", postTypes)
	w.in("post_status", statuses)
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+r.t("posts")+w.sql(), w.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return n, nil
}

func (r *MediaRepository) FindReferences(ctx context.Context, store repositories.Store, q repositories.ReferenceQuery) ([]repositories.Reference, error) {
	switch store {
	case repositories.StorePostMeta:
		w := &whereBuilder{}
		w.keys("pm.meta_key", q)
		w.in("p.post_type", q.PostTypes)
		w.in("p.post_status", q.PostStatuses)
		w.values("pm.meta_value", q.Values)
		query := fmt.Sprintf(`SELECT p.ID, p.post_type, p.post_title, pm.meta_key, pm.meta_value
			FROM %s pm JOIN %s p ON p.ID = pm.post_id`, r.t("postmeta"), r.t("posts")) + w.sql() + ` ORDER BY pm.meta_id`
		return r.collect(ctx, store, query, w.args, q.Limit, scanPostRef)

	case repositories.StoreOptions:
		w := &whereBuilder{}
		w.keys("option_name", q)
		w.values("option_value", q.Values)
		query := `SELECT 0, 'option', '', option_name, option_value FROM ` + r.t("options") + w.sql() + ` ORDER BY option_name`
		return r.collect(ctx, store, query, w.args, q.Limit, scanPostRef)

	case repositories.StoreUserMeta:
		w := &whereBuilder{}
		w.keys("meta_key", q)
		w.values("meta_value", q.Values)
		query := `SELECT user_id, 'user', '', meta_key, meta_value FROM ` + r.t("usermeta") + w.sql() + ` ORDER BY umeta_id`
		return r.collect(ctx, store, query, w.args, q.Limit, scanPostRef)

	case repositories.StoreTermMeta:
		w := &whereBuilder{}
		w.keys("tm.meta_key", q)
		w.in("tt.taxonomy", q.Taxonomies)
		w.values("tm.meta_value", q.Values)
		query := fmt.Sprintf(`SELECT tm.term_id, COALESCE(tt.taxonomy, ''), '', tm.meta_key, tm.meta_value
			FROM %s tm LEFT JOIN %s tt ON tt.term_id = tm.term_id`, r.t("termmeta"), r.t("term_taxonomy")) + w.sql() + ` ORDER BY tm.meta_id`
		return r.collect(ctx, store, query, w.args, q.Limit, scanPostRef)

	case repositories.StorePostContent:
		return r.findInContent(ctx, q)

	case repositories.StoreAttachmentChildren:
		w := &whereBuilder{}
		w.add("post_type = 'attachment'")
		w.add("post_parent != 0")
		w.values("CAST(post_parent AS TEXT)", q.Values)
		query := `SELECT ID, post_type, post_title, 'post_parent', CAST(post_parent AS TEXT) FROM ` + r.t("posts") + w.sql() + ` ORDER BY ID`
		return r.collect(ctx, store, query, w.args, q.Limit, scanPostRef)

	default:
		return nil, fmt.Errorf("unsupported store %s", store)
	}
}

// findInContent searches each requested column, reporting a post once
func (r *MediaRepository) findInContent(ctx context.Context, q repositories.ReferenceQuery) ([]repositories.Reference, error) {
	columns := q.Keys
	if len(columns) == 0 {
		columns = []string{"post_content"}
	}

	var refs []repositories.Reference
	seen := make(map[int64]bool)
	for _, col := range columns {
		if !contentColumns[col] {
			return nil, fmt.Errorf("unsupported content column %q", col)
		}
		w := &whereBuilder{}
		w.in("post_type", q.PostTypes)
		w.in("post_status", q.PostStatuses)
		w.values(col, q.Values)
		query := fmt.Sprintf(`SELECT ID, post_type, post_title, '%s', %s FROM %s`, col, col, r.t("posts")) + w.sql() + ` ORDER BY ID`
		found, err := r.collect(ctx, repositories.StorePostContent, query, w.args, 0, scanPostRef)
		if err != nil {
			return nil, err
		}
		for _, ref := range found {
			if seen[ref.OwnerID] {
				continue
			}
			seen[ref.OwnerID] = true
			refs = append(refs, ref)
			if q.Limit > 0 && len(refs) >= q.Limit {
				return refs, nil
			}
		}
	}
	return refs, nil
}

func scanPostRef(rows *sql.Rows, ref *repositories.Reference) error {
	var value sql.NullString
	var key sql.NullString
	if err := rows.Scan(&ref.OwnerID, &ref.OwnerType, &ref.OwnerTitle, &key, &value); err != nil {
		return err
	}
	ref.Key = key.String
	ref.Value = value.String
	return nil
}

func (r *MediaRepository) collect(
	ctx context.Context,
	store repositories.Store,
	query string,
	args []any,
	limit int,
	scan func(*sql.Rows, *repositories.Reference) error,
) ([]repositories.Reference, error) {
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", store, err)
	}
	defer rows.Close()

	var refs []repositories.Reference
	for rows.Next() {
		ref := repositories.Reference{Store: store}
		if err := scan(rows, &ref); err != nil {
			return nil, fmt.Errorf("failed to scan %s reference: %w", store, err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", store, err)
	}
	return refs, nil
}
