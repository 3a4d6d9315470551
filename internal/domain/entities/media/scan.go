package media

import "time"

// ClassifiedItem pairs an item with the verdict it received during a scan
type ClassifiedItem struct {
	Item    Item    `json:"item"`
	Verdict Verdict `json:"verdict"`
}

// ScanResult is the output of one full classification pass, after filtering.
// It is cached whole and never patched in place.
type ScanResult struct {
	ScanID            string           `json:"scanId"`
	Filter            Filter           `json:"filter"`
	Items             []ClassifiedItem `json:"items"`
	TotalItems        int              `json:"totalItems"`
	TotalSafeToDelete int              `json:"totalSafeToDelete"`
	Unresolved        int              `json:"unresolved"`
	UnresolvedIDs     []int64          `json:"unresolvedIds,omitempty"`
	GeneratedAt       time.Time        `json:"generatedAt"`
}

// NewScanResult computes the aggregate counts over the filtered items
func NewScanResult(scanID string, filter Filter, items []ClassifiedItem, unresolvedIDs []int64, generatedAt time.Time) *ScanResult {
	if items == nil {
		items = []ClassifiedItem{}
	}
	safe := 0
	for _, ci := range items {
		if ci.Verdict.SafeToDelete() {
			safe++
		}
	}
	return &ScanResult{
		ScanID:            scanID,
		Filter:            filter,
		Items:             items,
		TotalItems:        len(items),
		TotalSafeToDelete: safe,
		Unresolved:        len(unresolvedIDs),
		UnresolvedIDs:     unresolvedIDs,
		GeneratedAt:       generatedAt,
	}
}

// SafeIDs returns the ids of the safe items in result order
func (r *ScanResult) SafeIDs() []int64 {
	ids := make([]int64, 0, r.TotalSafeToDelete)
	for _, ci := range r.Items {
		if ci.Verdict.SafeToDelete() {
			ids = append(ids, ci.Item.ID)
		}
	}
	return ids
}

// ItemView is the operator-facing row for one classified item
type ItemView struct {
	Item
	UsedElsewhere     bool     `json:"usedElsewhere"`
	IsTrulyOrphaned   bool     `json:"isTrulyOrphaned"`
	UsageDetails      []string `json:"usageDetails"`
	SafetyStatus      string   `json:"safetyStatus"`
	FileSizeFormatted string   `json:"fileSizeFormatted"`
	FileTypeLabel     string   `json:"fileTypeLabel"`
	FileCategory      string   `json:"fileCategory"`
	ThumbnailURL      string   `json:"thumbnailUrl,omitempty"`
}

// NewItemView decorates a classified item with display fields
func NewItemView(ci ClassifiedItem) ItemView {
	return ItemView{
		Item:              ci.Item,
		UsedElsewhere:     ci.Verdict.UsedElsewhere(),
		IsTrulyOrphaned:   ci.Verdict.SafeToDelete(),
		UsageDetails:      ci.Verdict.Explanations(),
		SafetyStatus:      ci.Verdict.SafetyStatus(),
		FileSizeFormatted: FormatFileSize(ci.Item.SizeBytes),
		FileTypeLabel:     FileTypeLabel(ci.Item.MimeType),
		FileCategory:      FileCategory(ci.Item.Extension()),
	}
}

// PageInfo describes one page of a scan result
type PageInfo struct {
	CurrentPage       int  `json:"currentPage"`
	TotalPages        int  `json:"totalPages"`
	TotalItems        int  `json:"totalItems"`
	PerPage           int  `json:"perPage"`
	HasPrev           bool `json:"hasPrev"`
	HasNext           bool `json:"hasNext"`
	TotalSafeToDelete int  `json:"totalSafeToDelete"`
}

// ScanResultPage is the scan operation's response
type ScanResultPage struct {
	ScanID      string     `json:"scanId"`
	Media       []ItemView `json:"media"`
	Pagination  PageInfo   `json:"pagination"`
	Unresolved  int        `json:"unresolved"`
	GeneratedAt time.Time  `json:"generatedAt"`
	FromCache   bool       `json:"fromCache"`
}
