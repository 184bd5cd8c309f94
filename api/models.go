package api

import (
	"time"

	"github.com/nossahistoria/romantic/content"
)

// LoginRequest is the JSON body for POST /admin/login.
type LoginRequest struct {
	Password string `json:"password"`
}

// ActionResult is returned by every admin action. Message is set when the
// action fails.
type ActionResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// SessionResponse is returned from GET /admin/session.
type SessionResponse struct {
	Authenticated bool       `json:"authenticated"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// QuoteRequest is the JSON body for POST and PUT /admin/quotes.
type QuoteRequest struct {
	Text string `json:"text"`
}

// UploadResponse is returned from POST /admin/uploads.
type UploadResponse struct {
	OK   bool   `json:"ok"`
	Path string `json:"path"`
	URL  string `json:"url"`
}

// CarouselResponse is returned from POST and PUT /admin/carousel.
type CarouselResponse struct {
	OK   bool                  `json:"ok"`
	Item content.CarouselImage `json:"item"`
}

// QuoteResponse is returned from POST and PUT /admin/quotes.
type QuoteResponse struct {
	OK   bool          `json:"ok"`
	Item content.Quote `json:"item"`
}

// TimelinePostResponse is returned from POST and PUT /admin/timeline.
type TimelinePostResponse struct {
	OK   bool                 `json:"ok"`
	Item content.TimelinePost `json:"item"`
}

// LetterResponse is returned from POST and PUT /admin/letters.
type LetterResponse struct {
	OK   bool           `json:"ok"`
	Item content.Letter `json:"item"`
}

// ReasonResponse is returned from POST and PUT /admin/reasons.
type ReasonResponse struct {
	OK   bool           `json:"ok"`
	Item content.Reason `json:"item"`
}

// SettingsResponse is returned from PUT /admin/settings.
type SettingsResponse struct {
	OK       bool             `json:"ok"`
	Settings content.Settings `json:"settings"`
}

// ListCarouselResponse is returned from GET /carousel.
type ListCarouselResponse struct {
	Items []content.CarouselImage `json:"items"`
}

// ListQuotesResponse is returned from GET /quotes.
type ListQuotesResponse struct {
	Items []content.Quote `json:"items"`
}

// ListReasonsResponse is returned from GET /reasons.
type ListReasonsResponse struct {
	Items []content.Reason `json:"items"`
}

// ListTimelineResponse is returned from GET /timeline.
type ListTimelineResponse struct {
	Items []content.TimelinePost `json:"items"`
	PaginationMeta
}

// ListLettersResponse is returned from GET /letters.
type ListLettersResponse struct {
	Items []content.Letter `json:"items"`
	PaginationMeta
}

// ErrorResponse is returned for malformed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}
