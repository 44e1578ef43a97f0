package shortener

import "time"

// Code is a short link code. Codes are unique for all time and never
// recycled, even after the link is deactivated.
type Code string

// URLHash is a hash of a normalized destination URL, used to deduplicate
// link creation.
type URLHash string

// ShortLink maps a short code to a destination URL.
type ShortLink struct {
	Code           Code
	DestinationURL string
	URLHash        URLHash
	CreatedAt      time.Time
	Active         bool
	// ClickCount is a denormalized counter bumped when a click event is
	// persisted. Counts are approximate under ingestion overload.
	ClickCount int64
}

// SortKey orders link listings.
type SortKey string

const (
	SortCreatedDesc SortKey = "created_desc"
	SortCreatedAsc  SortKey = "created_asc"
	SortClicksDesc  SortKey = "clicks_desc"
	SortClicksAsc   SortKey = "clicks_asc"
)

// ListFilter narrows and orders a link listing.
type ListFilter struct {
	// Search matches a substring of the code or destination URL.
	Search string
	From   *time.Time
	To     *time.Time
	Sort   SortKey
	Limit  int
	Offset int
}
