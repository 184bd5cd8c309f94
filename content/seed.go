package content

import (
	"context"
	"fmt"
	"time"

	"github.com/nossahistoria/romantic/storage"
)

// Default content loaded in mock mode.
const (
	DefaultRelationshipStart = "2024-01-01"
	DefaultWeddingDate       = "2026-06-15"
	DefaultSpotifyTrack      = "https://open.spotify.com/track/4cOdK2wGLETKBW3PvgPWqT"
)

var (
	defaultQuotes = []string{
		"Você é meu lugar favorito.",
		"Cada dia ao seu lado é especial.",
	}
	defaultReasons = []string{
		"Seu sorriso ilumina meus dias.",
		"Seu abraço me acalma.",
		"Você sempre me apoia.",
	}
)

// Seed writes the default settings, quotes and reasons in one batch. It does
// nothing when settings already exist, so it is safe on every start.
func (s *Service) Seed(ctx context.Context) (bool, error) {
	current, err := s.Settings(ctx)
	if err != nil {
		return false, err
	}
	if current != nil {
		return false, nil
	}

	now := s.now().UTC()
	start, wedding, track := DefaultRelationshipStart, DefaultWeddingDate, DefaultSpotifyTrack
	err = s.repo.Batch(ctx, func(tx storage.BatchTx) error {
		settings := Settings{
			ID:                    SettingsID,
			RelationshipStartDate: &start,
			WeddingDate:           &wedding,
			SpotifyTrackURL:       &track,
			UpdatedAt:             now,
		}
		if err := putDoc(tx, CollectionSettings, settingsKey, settings); err != nil {
			return err
		}
		for i, text := range defaultQuotes {
			q := Quote{ID: s.newID(), Text: text, CreatedAt: now.Add(time.Duration(i) * time.Millisecond)}
			if err := putDoc(tx, CollectionQuotes, q.ID, q); err != nil {
				return err
			}
		}
		for i, text := range defaultReasons {
			r := Reason{ID: s.newID(), Text: text, Position: i + 1, CreatedAt: now}
			if err := putDoc(tx, CollectionReasons, r.ID, r); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("seeding content: %w", err)
	}
	s.logger.Info("default content seeded")
	return true, nil
}

func putDoc(tx storage.BatchTx, collection, id string, v any) error {
	data, err := marshalDoc(collection, id, v)
	if err != nil {
		return err
	}
	return tx.Put(collection, id, data)
}
