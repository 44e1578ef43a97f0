package analytics

import (
	"net/url"
	"time"
)

// TopicLinkClicked is the stream topic for click events when the ingestion
// pipeline runs with a publishing sink.
const TopicLinkClicked = "link.clicked"

// ClickEvent records a single resolution of a short code. Events are
// immutable once created and keep a weak reference to the link: they survive
// deactivation of the code they point at.
type ClickEvent struct {
	LinkCode    string    `json:"linkCode"`
	OccurredAt  time.Time `json:"occurredAt"`
	UTMSource   string    `json:"utmSource,omitempty"`
	UTMMedium   string    `json:"utmMedium,omitempty"`
	UTMCampaign string    `json:"utmCampaign,omitempty"`
	UTMTerm     string    `json:"utmTerm,omitempty"`
	UTMContent  string    `json:"utmContent,omitempty"`
	Referrer    string    `json:"referrer,omitempty"`
	UserAgent   string    `json:"userAgent,omitempty"`
	IPAddress   string    `json:"ipAddress,omitempty"`
}

// EventFromRequest builds a click event from redirect request metadata.
// UTM parameters are parsed from the raw query string; a malformed query
// yields an event without UTM fields rather than an error, since extraction
// runs on the redirect hot path.
func EventFromRequest(code string, occurredAt time.Time, rawQuery, referrer, userAgent, ipAddress string) *ClickEvent {
	event := &ClickEvent{
		LinkCode:   code,
		OccurredAt: occurredAt,
		Referrer:   referrer,
		UserAgent:  userAgent,
		IPAddress:  ipAddress,
	}

	if rawQuery == "" {
		return event
	}

	params, err := url.ParseQuery(rawQuery)
	if err != nil {
		return event
	}

	event.UTMSource = params.Get("utm_source")
	event.UTMMedium = params.Get("utm_medium")
	event.UTMCampaign = params.Get("utm_campaign")
	event.UTMTerm = params.Get("utm_term")
	event.UTMContent = params.Get("utm_content")

	return event
}
