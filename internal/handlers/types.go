package handlers

import (
	"time"

	"github.com/shortify/shortify/internal/analytics"
)

// CreateLinkRequest is the request body for shortening a URL.
type CreateLinkRequest struct {
	Body struct {
		URL string `doc:"The URL to shorten" example:"https://example.org/very/long/path" json:"url"`
	}
}

// CreateLinkResponse is the response for a successfully shortened URL.
type CreateLinkResponse struct {
	Location string `doc:"The short URL location" header:"Location"`
	Body     struct {
		Code           string `doc:"The short code"                         example:"aZ3kT9"                            json:"code"`
		ShortURL       string `doc:"The full short URL"                     example:"http://localhost:8888/aZ3kT9"      json:"shortUrl"`
		DestinationURL string `doc:"The destination URL"                    example:"https://example.org/very/long/path" json:"destinationUrl"`
		Deduplicated   bool   `doc:"True when an existing link was reused"  json:"deduplicated"`
	}
}

// RedirectRequest is the request for resolving a short code.
type RedirectRequest struct {
	Code string `doc:"The short code" example:"aZ3kT9" path:"code"`
}

// RedirectResponse redirects the client to the destination URL.
type RedirectResponse struct {
	Status   int
	Location string `doc:"The destination URL" header:"Location"`
}

// DeactivateLinkRequest is the request for deactivating a link.
type DeactivateLinkRequest struct {
	Code string `doc:"The short code" example:"aZ3kT9" path:"code"`
}

// DeactivateLinkResponse is the empty response for a deactivated link.
type DeactivateLinkResponse struct{}

// ListLinksRequest carries the link listing filters. Date bounds accept
// YYYY-MM-DD or RFC 3339.
type ListLinksRequest struct {
	Search string `doc:"Substring of code or destination URL" query:"search" required:"false"`
	From   string `doc:"Created-at lower bound"               query:"from"   required:"false"`
	To     string `doc:"Created-at upper bound"               query:"to"     required:"false"`
	Sort   string `doc:"Sort key"                             enum:"created_desc,created_asc,clicks_desc,clicks_asc" query:"sort" required:"false"`
	Limit  int    `doc:"Maximum links to return"              maximum:"200"  minimum:"1" query:"limit" required:"false"`
	Offset int    `doc:"Links to skip"                        minimum:"0"    query:"offset" required:"false"`
}

// LinkSummary is the listing view of a short link.
type LinkSummary struct {
	Code           string    `json:"code"`
	DestinationURL string    `json:"destinationUrl"`
	CreatedAt      time.Time `json:"createdAt"`
	Active         bool      `json:"active"`
	ClickCount     int64     `json:"clickCount"`
}

// ListLinksResponse is the response for a link listing.
type ListLinksResponse struct {
	Body struct {
		Links []LinkSummary `json:"links"`
	}
}

// StatsRequest carries the dashboard aggregate filters. Date bounds accept
// YYYY-MM-DD or RFC 3339.
type StatsRequest struct {
	From        string `doc:"Clicked-at lower bound"        query:"from"         required:"false"`
	To          string `doc:"Clicked-at upper bound"        query:"to"           required:"false"`
	Code        string `doc:"Restrict to one short code"    query:"code"         required:"false"`
	UTMSource   string `doc:"Exact utm_source match"        query:"utm_source"   required:"false"`
	UTMMedium   string `doc:"Exact utm_medium match"        query:"utm_medium"   required:"false"`
	UTMCampaign string `doc:"Exact utm_campaign match"      query:"utm_campaign" required:"false"`
	Referrer    string `doc:"Referrer substring match"      query:"referrer"     required:"false"`
}

// StatsResponse is the aggregate report for a filter.
type StatsResponse struct {
	Body struct {
		Report *analytics.Report `json:"report"`
	}
}

// LinkStatsRequest carries per-link aggregate filters.
type LinkStatsRequest struct {
	Code        string `doc:"The short code"           example:"aZ3kT9"     path:"code"`
	From        string `doc:"Clicked-at lower bound"   query:"from"         required:"false"`
	To          string `doc:"Clicked-at upper bound"   query:"to"           required:"false"`
	UTMSource   string `doc:"Exact utm_source match"   query:"utm_source"   required:"false"`
	UTMCampaign string `doc:"Exact utm_campaign match" query:"utm_campaign" required:"false"`
}

// LinkStatsResponse is the aggregate report for one link.
type LinkStatsResponse struct {
	Body struct {
		Link   LinkSummary       `json:"link"`
		Report *analytics.Report `json:"report"`
	}
}
