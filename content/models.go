// Package content holds the site's content model and the service that reads
// and edits it: settings, carousel images, quotes, timeline posts, letters
// and reasons.
package content

import "time"

// Collection names used as storage keys.
const (
	CollectionSettings = "settings"
	CollectionCarousel = "carousel_images"
	CollectionQuotes   = "quotes"
	CollectionTimeline = "timeline_posts"
	CollectionLetters  = "letters"
	CollectionReasons  = "reasons"
)

// SettingsID is the ID of the single settings row.
const SettingsID = 1

// Settings are the site-wide options edited from the admin panel.
type Settings struct {
	ID                    int       `json:"id"`
	RelationshipStartDate *string   `json:"relationship_start_date"`
	WeddingDate           *string   `json:"wedding_date"`
	SpotifyTrackURL       *string   `json:"spotify_track_url"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// CarouselImage is one photo on the home page carousel.
type CarouselImage struct {
	ID        string    `json:"id"`
	ImagePath string    `json:"image_path"`
	Caption   *string   `json:"caption"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

type Quote struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// TimelinePost is an entry of the "our story" page. Date is YYYY-MM-DD.
type TimelinePost struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	Title     *string   `json:"title"`
	Content   string    `json:"content"`
	ImagePath *string   `json:"image_path"`
	CreatedAt time.Time `json:"created_at"`
}

// Letter is a love letter, addressable by slug or ID.
type Letter struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	Title     *string   `json:"title"`
	Content   string    `json:"content"`
	ImagePath *string   `json:"image_path"`
	Slug      *string   `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

type Reason struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}
