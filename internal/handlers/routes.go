package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterRoutes registers the link, redirect, and stats operations.
// The redirect route is registered last so the fixed paths win over the
// catch-all {code} pattern.
func RegisterRoutes(api huma.API, links *LinkHandler, redirect *RedirectHandler, stats *StatsHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-link",
		Method:        http.MethodPost,
		Path:          "/shorten",
		Summary:       "Create short link",
		Description:   "Shortens a URL. Identical destinations deduplicate to the same code.",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusCreated,
	}, links.CreateLink)

	huma.Register(api, huma.Operation{
		OperationID: "list-links",
		Method:      http.MethodGet,
		Path:        "/links",
		Summary:     "List short links",
		Tags:        []string{"Links"},
	}, links.ListLinks)

	huma.Register(api, huma.Operation{
		OperationID:   "deactivate-link",
		Method:        http.MethodDelete,
		Path:          "/links/{code}",
		Summary:       "Deactivate short link",
		Description:   "Soft-deletes a link. The code stays reserved and click history stays queryable.",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusNoContent,
	}, links.DeactivateLink)

	huma.Register(api, huma.Operation{
		OperationID: "link-stats",
		Method:      http.MethodGet,
		Path:        "/links/{code}/stats",
		Summary:     "Per-link click statistics",
		Tags:        []string{"Stats"},
	}, stats.GetLinkStats)

	huma.Register(api, huma.Operation{
		OperationID: "stats",
		Method:      http.MethodGet,
		Path:        "/stats",
		Summary:     "Aggregate click statistics",
		Description: "Aggregates click events under the given filters. Counts are eventually consistent with the redirect path.",
		Tags:        []string{"Stats"},
	}, stats.GetStats)

	huma.Register(api, huma.Operation{
		OperationID: "redirect",
		Method:      http.MethodGet,
		Path:        "/{code}",
		Summary:     "Redirect to destination URL",
		Description: "Resolves a short code and records a click event asynchronously.",
		Tags:        []string{"Links"},
	}, redirect.Redirect)
}
