// Package repositories defines the ports the reachability engine reads and
// deletes through. The engine never assumes ownership of storage; adapters in
// the persistence layer own the schema.
package repositories

import (
	"context"
	"errors"

	"github.com/GarethCitcom/orphaned-acf-media/internal/domain/entities/media"
)

// ErrItemNotFound is returned by DeleteItem when the item no longer exists
var ErrItemNotFound = errors.New("media item not found")

// Store names one place a reference can live
type Store int

const (
	StorePostMeta Store = iota + 1
	StoreOptions
	StoreUserMeta
	StoreTermMeta
	StorePostContent
	StoreAttachmentChildren
)

func (s Store) String() string {
	switch s {
	case StorePostMeta:
		return "postmeta"
	case StoreOptions:
		return "options"
	case StoreUserMeta:
		return "usermeta"
	case StoreTermMeta:
		return "termmeta"
	case StorePostContent:
		return "post_content"
	case StoreAttachmentChildren:
		return "attachment_children"
	default:
		return "unknown"
	}
}

// MatchKind selects how a ValueMatch term is compared to a stored value
type MatchKind int

const (
	MatchEquals MatchKind = iota + 1
	MatchContains
)

// ValueMatch is a single value predicate. Contains terms are literal
// substrings; adapters escape them.
type ValueMatch struct {
	Kind MatchKind
	Term string
}

func Equals(term string) ValueMatch   { return ValueMatch{Kind: MatchEquals, Term: term} }
func Contains(term string) ValueMatch { return ValueMatch{Kind: MatchContains, Term: term} }

// ReferenceQuery describes a lookup against one store. All populated fields
// combine with AND; the entries inside each slice combine with OR.
//
// Keys are meta keys or option names. For StorePostContent they select the
// searched columns (post_content, post_excerpt) and default to post_content.
// For StoreAttachmentChildren, Values are compared against the child's parent id.
//
// KeyPatterns are SQL LIKE patterns where '%' and '_' are wildcards and '\'
// escapes the next character. Keys and KeyPatterns together form one OR group.
type ReferenceQuery struct {
	Keys            []string
	KeyPatterns     []string
	ExcludeReserved bool
	ExcludeKeys     []string
	Values          []ValueMatch
	PostTypes       []string
	PostStatuses    []string
	Taxonomies      []string
	Limit           int
}

// Reference is one stored value that satisfied a ReferenceQuery
type Reference struct {
	Store      Store
	OwnerID    int64
	OwnerType  string
	OwnerTitle string
	Key        string
	Value      string
}

// ContentRepository is the content store the engine classifies against.
// Implementations must tolerate concurrent reads.
type ContentRepository interface {
	CountItems(ctx context.Context) (int, error)
	// ListItems pages candidates ordered by creation time, newest first
	ListItems(ctx context.Context, offset, limit int) ([]*media.Item, error)
	// FindItem returns nil, nil when the item does not exist
	FindItem(ctx context.Context, id int64) (*media.Item, error)
	DeleteItem(ctx context.Context, id int64) error
	FindReferences(ctx context.Context, store Store, q ReferenceQuery) ([]Reference, error)
	GetOption(ctx context.Context, name string) (string, bool, error)
	CountPosts(ctx context.Context, postTypes, statuses []string) (int, error)
}

// ExtensionRegistry answers whether an optional extension is active
type ExtensionRegistry interface {
	IsActive(ctx context.Context, extension string) (bool, error)
}
