package content

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// HomeCarouselItem is a carousel image with its resolved public URL.
type HomeCarouselItem struct {
	ID       string  `json:"id"`
	ImageURL string  `json:"imageUrl"`
	Caption  *string `json:"caption"`
}

// Home is everything the home page renders.
type Home struct {
	Settings         *Settings          `json:"settings"`
	Carousel         []HomeCarouselItem `json:"carousel"`
	Quotes           []string           `json:"quotes"`
	Reasons          []Reason           `json:"reasons"`
	SpotifyTrackURL  *string            `json:"spotifyTrackUrl"`
	SpotifyEmbedURL  *string            `json:"spotifyEmbedUrl"`
	Together         *Counter           `json:"together"`
	DaysUntilWedding *int               `json:"daysUntilWedding"`
}

// Home assembles the home page at now. imageURL maps a stored image path to
// its public URL; items it cannot resolve are left out of the carousel.
func (s *Service) Home(ctx context.Context, now time.Time, imageURL func(path string) (string, bool)) (Home, error) {
	var (
		settings *Settings
		images   []CarouselImage
		quotes   []Quote
		reasons  []Reason
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		settings, err = s.Settings(gctx)
		return err
	})
	g.Go(func() (err error) {
		images, err = s.ListCarousel(gctx)
		return err
	})
	g.Go(func() (err error) {
		quotes, err = s.ListQuotes(gctx)
		return err
	})
	g.Go(func() (err error) {
		reasons, err = s.ListReasons(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Home{}, err
	}

	h := Home{
		Settings: settings,
		Carousel: make([]HomeCarouselItem, 0, len(images)),
		Quotes:   make([]string, 0, len(quotes)),
		Reasons:  reasons,
	}
	for _, img := range images {
		u, ok := imageURL(img.ImagePath)
		if !ok {
			continue
		}
		h.Carousel = append(h.Carousel, HomeCarouselItem{ID: img.ID, ImageURL: u, Caption: img.Caption})
	}
	for _, q := range quotes {
		h.Quotes = append(h.Quotes, q.Text)
	}
	if settings == nil {
		return h, nil
	}

	if settings.SpotifyTrackURL != nil {
		h.SpotifyTrackURL = settings.SpotifyTrackURL
		if embed, ok := SpotifyEmbedURL(*settings.SpotifyTrackURL); ok {
			h.SpotifyEmbedURL = &embed
		}
	}
	if settings.RelationshipStartDate != nil {
		if start, ok := ParseDateInput(*settings.RelationshipStartDate, now.Location()); ok {
			c := Together(start, now)
			h.Together = &c
		}
	}
	if settings.WeddingDate != nil {
		if days, ok := DaysUntil(*settings.WeddingDate, now); ok {
			h.DaysUntilWedding = &days
		}
	}
	return h, nil
}
