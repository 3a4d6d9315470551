// Package memory is an in-process ContentRepository. It mirrors the matching
// rules of the SQL adapter and backs the engine's tests and demo mode.
package memory

import (
	"context"
	"fmt"
	"path"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/GarethCitcom/orphaned-acf-media/internal/domain/entities/media"
	"github.com/GarethCitcom/orphaned-acf-media/internal/domain/repositories"
)

// Post is one row of the content graph. Attachments are posts of type "attachment".
type Post struct {
	ID       int64
	Type     string
	Status   string
	Title    string
	Content  string
	Excerpt  string
	ParentID int64
	Created  time.Time
	MimeType string
	// File is the upload path relative to the media root, attachments only
	File string
	Size int64
}

type metaRow struct {
	ownerID int64
	key     string
	value   string
}

type termMetaRow struct {
	metaRow
	taxonomy string
}

// Repository holds the whole content graph in memory
type Repository struct {
	mu       sync.RWMutex
	baseURL  string
	posts    map[int64]*Post
	postMeta []metaRow
	options  map[string]string
	userMeta []metaRow
	termMeta []termMetaRow

	failReferences error
	failDelete     map[int64]error
	deleteCalls    int
}

// NewRepository creates an empty repository. baseURL prefixes attachment URLs.
func NewRepository(baseURL string) *Repository {
	return &Repository{
		baseURL:    strings.TrimRight(baseURL, "/"),
		posts:      make(map[int64]*Post),
		options:    make(map[string]string),
		failDelete: make(map[int64]error),
	}
}

// AddPost inserts or replaces a post
func (r *Repository) AddPost(p Post) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := p
	r.posts[p.ID] = &cp
}

// AddAttachment inserts an attachment with the given upload path
func (r *Repository) AddAttachment(id int64, file, mimeType string, created time.Time) {
	r.AddPost(Post{
		ID:       id,
		Type:     "attachment",
		Status:   "inherit",
		Title:    strings.TrimSuffix(path.Base(file), path.Ext(file)),
		MimeType: mimeType,
		File:     file,
		Created:  created,
	})
}

func (r *Repository) SetPostMeta(postID int64, key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.postMeta = append(r.postMeta, metaRow{ownerID: postID, key: key, value: value})
}

func (r *Repository) SetOption(name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.options[name] = value
}

func (r *Repository) SetUserMeta(userID int64, key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userMeta = append(r.userMeta, metaRow{ownerID: userID, key: key, value: value})
}

func (r *Repository) SetTermMeta(termID int64, taxonomy, key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.termMeta = append(r.termMeta, termMetaRow{metaRow: metaRow{ownerID: termID, key: key, value: value}, taxonomy: taxonomy})
}

// FailReferences makes every FindReferences call return err; nil clears it
func (r *Repository) FailReferences(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failReferences = err
}

// FailDelete makes DeleteItem return err for id
func (r *Repository) FailDelete(id int64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failDelete[id] = err
}

// DeleteCalls returns how many times DeleteItem has been called
func (r *Repository) DeleteCalls() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.deleteCalls
}

func (r *Repository) CountItems(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.attachments()), nil
}

func (r *Repository) ListItems(ctx context.Context, offset, limit int) ([]*media.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.attachments()
	if offset >= len(all) {
		return []*media.Item{}, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	items := make([]*media.Item, 0, end-offset)
	for _, p := range all[offset:end] {
		items = append(items, r.toItem(p))
	}
	return items, nil
}

func (r *Repository) FindItem(ctx context.Context, id int64) (*media.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.posts[id]
	if !ok || p.Type != "attachment" {
		return nil, nil
	}
	return r.toItem(p), nil
}

func (r *Repository) DeleteItem(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteCalls++
	if err := r.failDelete[id]; err != nil {
		return err
	}
	p, ok := r.posts[id]
	if !ok || p.Type != "attachment" {
		return repositories.ErrItemNotFound
	}
	delete(r.posts, id)
	r.postMeta = slices.DeleteFunc(r.postMeta, func(m metaRow) bool { return m.ownerID == id })
	return nil
}

func (r *Repository) GetOption(ctx context.Context, name string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.options[name]
	return v, ok, nil
}

func (r *Repository) CountPosts(ctx context.Context, postTypes, statuses []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, p := range r.posts {
		if inSet(postTypes, p.Type) && inSet(statuses, p.Status) {
			n++
		}
	}
	return n, nil
}

func (r *Repository) FindReferences(ctx context.Context, store repositories.Store, q repositories.ReferenceQuery) ([]repositories.Reference, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failReferences != nil {
		return nil, r.failReferences
	}

	var refs []repositories.Reference
	add := func(ref repositories.Reference) bool {
		refs = append(refs, ref)
		return q.Limit > 0 && len(refs) >= q.Limit
	}

	switch store {
	case repositories.StorePostMeta:
		for _, m := range r.postMeta {
			p, ok := r.posts[m.ownerID]
			if !ok || !r.postMatches(p, q) || !keyMatches(m.key, q) || !valueMatches(m.value, q.Values) {
				continue
			}
			if add(repositories.Reference{Store: store, OwnerID: p.ID, OwnerType: p.Type, OwnerTitle: p.Title, Key: m.key, Value: m.value}) {
				return refs, nil
			}
		}
	case repositories.StoreOptions:
		names := make([]string, 0, len(r.options))
		for name := range r.options {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if !keyMatches(name, q) || !valueMatches(r.options[name], q.Values) {
				continue
			}
			if add(repositories.Reference{Store: store, OwnerType: "option", Key: name, Value: r.options[name]}) {
				return refs, nil
			}
		}
	case repositories.StoreUserMeta:
		for _, m := range r.userMeta {
			if !keyMatches(m.key, q) || !valueMatches(m.value, q.Values) {
				continue
			}
			if add(repositories.Reference{Store: store, OwnerID: m.ownerID, OwnerType: "user", Key: m.key, Value: m.value}) {
				return refs, nil
			}
		}
	case repositories.StoreTermMeta:
		for _, m := range r.termMeta {
			if !inSet(q.Taxonomies, m.taxonomy) || !keyMatches(m.key, q) || !valueMatches(m.value, q.Values) {
				continue
			}
			if add(repositories.Reference{Store: store, OwnerID: m.ownerID, OwnerType: m.taxonomy, Key: m.key, Value: m.value}) {
				return refs, nil
			}
		}
	case repositories.StorePostContent:
		columns := q.Keys
		if len(columns) == 0 {
			columns = []string{"post_content"}
		}
		for _, p := range r.sortedPosts() {
			if !r.postMatches(p, q) {
				continue
			}
			for _, col := range columns {
				value := p.Content
				if col == "post_excerpt" {
					value = p.Excerpt
				}
				if !valueMatches(value, q.Values) {
					continue
				}
				if add(repositories.Reference{Store: store, OwnerID: p.ID, OwnerType: p.Type, OwnerTitle: p.Title, Key: col, Value: value}) {
					return refs, nil
				}
				break
			}
		}
	case repositories.StoreAttachmentChildren:
		for _, p := range r.sortedPosts() {
			if p.Type != "attachment" || p.ParentID == 0 {
				continue
			}
			if !valueMatches(strconv.FormatInt(p.ParentID, 10), q.Values) {
				continue
			}
			if add(repositories.Reference{Store: store, OwnerID: p.ID, OwnerType: p.Type, OwnerTitle: p.Title, Key: "post_parent", Value: strconv.FormatInt(p.ParentID, 10)}) {
				return refs, nil
			}
		}
	default:
		return nil, fmt.Errorf("unsupported store %s", store)
	}
	return refs, nil
}

func (r *Repository) postMatches(p *Post, q repositories.ReferenceQuery) bool {
	return inSet(q.PostTypes, p.Type) && inSet(q.PostStatuses, p.Status)
}

func (r *Repository) sortedPosts() []*Post {
	out := make([]*Post, 0, len(r.posts))
	for _, p := range r.posts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// attachments returns attachments newest first, ties broken by id descending
func (r *Repository) attachments() []*Post {
	var out []*Post
	for _, p := range r.posts {
		if p.Type == "attachment" {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Created.Equal(out[j].Created) {
			return out[i].Created.After(out[j].Created)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r *Repository) toItem(p *Post) *media.Item {
	return &media.Item{
		ID:          p.ID,
		Title:       p.Title,
		Filename:    path.Base(p.File),
		LocationRef: r.baseURL + "/wp-content/uploads/" + p.File,
		FilePath:    p.File,
		MimeType:    p.MimeType,
		SizeBytes:   p.Size,
		CreatedAt:   p.Created,
		ParentID:    p.ParentID,
	}
}

func inSet(set []string, v string) bool {
	return len(set) == 0 || slices.Contains(set, v)
}
