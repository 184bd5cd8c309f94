package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/nossahistoria/romantic/internal/uuid"
	"github.com/nossahistoria/romantic/storage"
)

// Service reads and edits site content stored in a storage.Repository.
// Callers are responsible for authorising mutations.
type Service struct {
	repo   storage.Repository
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used for created/updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// WithLogger sets the logger for mutation events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService creates a Service over repo.
func NewService(repo storage.Repository, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now, newID: uuid.New}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

func load[T any](ctx context.Context, repo storage.Repository, collection, id string) (T, error) {
	var v T
	data, err := repo.Get(ctx, collection, id)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decoding %s/%s: %w", collection, id, err)
	}
	return v, nil
}

func loadAll[T any](ctx context.Context, repo storage.Repository, collection string) ([]T, error) {
	records, err := repo.List(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", collection, err)
	}
	out := make([]T, 0, len(records))
	for _, rec := range records {
		var v T
		if err := json.Unmarshal(rec.Data, &v); err != nil {
			return nil, fmt.Errorf("decoding %s/%s: %w", collection, rec.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func marshalDoc(collection, id string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding %s/%s: %w", collection, id, err)
	}
	return data, nil
}

func save(ctx context.Context, repo storage.Repository, collection, id string, v any) error {
	data, err := marshalDoc(collection, id, v)
	if err != nil {
		return err
	}
	return repo.Put(ctx, collection, id, data)
}

// loadForUpdate validates id and loads the existing record.
func loadForUpdate[T any](ctx context.Context, repo storage.Repository, collection, id string) (T, error) {
	var zero T
	if err := ValidateID(id); err != nil {
		return zero, err
	}
	return load[T](ctx, repo, collection, id)
}

func (s *Service) remove(ctx context.Context, collection, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, collection, id); err != nil {
		return err
	}
	s.logger.Info("content deleted", "collection", collection, "id", id)
	return nil
}

func (s *Service) logSaved(action, collection, id string) {
	s.logger.Info("content "+action, "collection", collection, "id", id)
}

// ---------------------------------------------------------------------------
// Settings
// ---------------------------------------------------------------------------

var settingsKey = strconv.Itoa(SettingsID)

// Settings returns the site settings, or nil when none were saved yet.
func (s *Service) Settings(ctx context.Context) (*Settings, error) {
	st, err := load[Settings](ctx, s.repo, CollectionSettings, settingsKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// SaveSettings upserts the settings row and refreshes UpdatedAt.
func (s *Service) SaveSettings(ctx context.Context, in SettingsInput) (Settings, error) {
	current, err := s.Settings(ctx)
	if err != nil {
		return Settings{}, err
	}
	st := Settings{ID: SettingsID}
	if current != nil {
		st = *current
	}
	if in.RelationshipStartDate != nil {
		if st.RelationshipStartDate, err = optionalDate("relationshipStartDate", in.RelationshipStartDate); err != nil {
			return Settings{}, err
		}
	}
	if in.WeddingDate != nil {
		if st.WeddingDate, err = optionalDate("weddingDate", in.WeddingDate); err != nil {
			return Settings{}, err
		}
	}
	if in.SpotifyTrackURL != nil {
		st.SpotifyTrackURL = optional(in.SpotifyTrackURL)
	}
	st.ID = SettingsID
	st.UpdatedAt = s.now().UTC()
	if err := save(ctx, s.repo, CollectionSettings, settingsKey, st); err != nil {
		return Settings{}, err
	}
	s.logSaved("updated", CollectionSettings, settingsKey)
	return st, nil
}

// ---------------------------------------------------------------------------
// Carousel
// ---------------------------------------------------------------------------

// ListCarousel returns carousel images ordered by position.
func (s *Service) ListCarousel(ctx context.Context) ([]CarouselImage, error) {
	items, err := loadAll[CarouselImage](ctx, s.repo, CollectionCarousel)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return byPosition(items[i].Position, items[j].Position, items[i].CreatedAt, items[j].CreatedAt, items[i].ID, items[j].ID)
	})
	return items, nil
}

func (s *Service) CreateCarousel(ctx context.Context, in CarouselInput) (CarouselImage, error) {
	in, err := in.validate()
	if err != nil {
		return CarouselImage{}, err
	}
	item := CarouselImage{
		ID:        s.newID(),
		ImagePath: in.ImagePath,
		Caption:   in.Caption,
		Position:  in.Position,
		CreatedAt: s.now().UTC(),
	}
	if err := save(ctx, s.repo, CollectionCarousel, item.ID, item); err != nil {
		return CarouselImage{}, err
	}
	s.logSaved("created", CollectionCarousel, item.ID)
	return item, nil
}

func (s *Service) UpdateCarousel(ctx context.Context, id string, p CarouselPatch) (CarouselImage, error) {
	item, err := loadForUpdate[CarouselImage](ctx, s.repo, CollectionCarousel, id)
	if err != nil {
		return CarouselImage{}, err
	}
	if p.ImagePath != nil {
		v := optional(p.ImagePath)
		if v == nil {
			return CarouselImage{}, validationErrorf("imagePath", "Imagem obrigatoria.")
		}
		item.ImagePath = *v
	}
	if p.Caption != nil {
		item.Caption = optional(p.Caption)
	}
	if p.Position != nil {
		if err := position("position", *p.Position); err != nil {
			return CarouselImage{}, err
		}
		item.Position = *p.Position
	}
	if err := save(ctx, s.repo, CollectionCarousel, item.ID, item); err != nil {
		return CarouselImage{}, err
	}
	s.logSaved("updated", CollectionCarousel, item.ID)
	return item, nil
}

func (s *Service) DeleteCarousel(ctx context.Context, id string) error {
	return s.remove(ctx, CollectionCarousel, id)
}

// ---------------------------------------------------------------------------
// Quotes
// ---------------------------------------------------------------------------

// ListQuotes returns quotes in insertion order.
func (s *Service) ListQuotes(ctx context.Context) ([]Quote, error) {
	items, err := loadAll[Quote](ctx, s.repo, CollectionQuotes)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return byCreated(items[i].CreatedAt, items[j].CreatedAt, items[i].ID, items[j].ID)
	})
	return items, nil
}

func (s *Service) CreateQuote(ctx context.Context, text string) (Quote, error) {
	text, err := validateQuote(text)
	if err != nil {
		return Quote{}, err
	}
	q := Quote{ID: s.newID(), Text: text, CreatedAt: s.now().UTC()}
	if err := save(ctx, s.repo, CollectionQuotes, q.ID, q); err != nil {
		return Quote{}, err
	}
	s.logSaved("created", CollectionQuotes, q.ID)
	return q, nil
}

func (s *Service) UpdateQuote(ctx context.Context, id, text string) (Quote, error) {
	q, err := loadForUpdate[Quote](ctx, s.repo, CollectionQuotes, id)
	if err != nil {
		return Quote{}, err
	}
	if q.Text, err = validateQuote(text); err != nil {
		return Quote{}, err
	}
	if err := save(ctx, s.repo, CollectionQuotes, q.ID, q); err != nil {
		return Quote{}, err
	}
	s.logSaved("updated", CollectionQuotes, q.ID)
	return q, nil
}

func (s *Service) DeleteQuote(ctx context.Context, id string) error {
	return s.remove(ctx, CollectionQuotes, id)
}

// ---------------------------------------------------------------------------
// Timeline
// ---------------------------------------------------------------------------

// ListTimeline returns timeline posts ordered by date.
func (s *Service) ListTimeline(ctx context.Context) ([]TimelinePost, error) {
	items, err := loadAll[TimelinePost](ctx, s.repo, CollectionTimeline)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return byDate(items[i].Date, items[j].Date, items[i].CreatedAt, items[j].CreatedAt, items[i].ID, items[j].ID)
	})
	return items, nil
}

func (s *Service) CreateTimelinePost(ctx context.Context, in TimelineInput) (TimelinePost, error) {
	in, err := in.validate()
	if err != nil {
		return TimelinePost{}, err
	}
	post := TimelinePost{
		ID:        s.newID(),
		Date:      in.Date,
		Title:     in.Title,
		Content:   in.Content,
		ImagePath: in.ImagePath,
		CreatedAt: s.now().UTC(),
	}
	if err := save(ctx, s.repo, CollectionTimeline, post.ID, post); err != nil {
		return TimelinePost{}, err
	}
	s.logSaved("created", CollectionTimeline, post.ID)
	return post, nil
}

func (s *Service) UpdateTimelinePost(ctx context.Context, id string, p TimelinePatch) (TimelinePost, error) {
	post, err := loadForUpdate[TimelinePost](ctx, s.repo, CollectionTimeline, id)
	if err != nil {
		return TimelinePost{}, err
	}
	if p.Date != nil {
		if post.Date, err = requiredDate("date", *p.Date); err != nil {
			return TimelinePost{}, err
		}
	}
	if p.Title != nil {
		post.Title = optional(p.Title)
	}
	if p.Content != nil {
		if post.Content, err = requiredText("content", *p.Content, 0, "Conteudo obrigatorio."); err != nil {
			return TimelinePost{}, err
		}
	}
	if p.ImagePath != nil {
		post.ImagePath = optional(p.ImagePath)
	}
	if err := save(ctx, s.repo, CollectionTimeline, post.ID, post); err != nil {
		return TimelinePost{}, err
	}
	s.logSaved("updated", CollectionTimeline, post.ID)
	return post, nil
}

func (s *Service) DeleteTimelinePost(ctx context.Context, id string) error {
	return s.remove(ctx, CollectionTimeline, id)
}

// ---------------------------------------------------------------------------
// Letters
// ---------------------------------------------------------------------------

// ListLetters returns letters ordered by date.
func (s *Service) ListLetters(ctx context.Context) ([]Letter, error) {
	items, err := loadAll[Letter](ctx, s.repo, CollectionLetters)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return byDate(items[i].Date, items[j].Date, items[i].CreatedAt, items[j].CreatedAt, items[i].ID, items[j].ID)
	})
	return items, nil
}

// LetterBySlugOrID finds a letter by slug, falling back to its ID.
func (s *Service) LetterBySlugOrID(ctx context.Context, key string) (Letter, error) {
	letters, err := s.ListLetters(ctx)
	if err != nil {
		return Letter{}, err
	}
	for _, l := range letters {
		if l.Slug != nil && *l.Slug == key {
			return l, nil
		}
	}
	for _, l := range letters {
		if l.ID == key {
			return l, nil
		}
	}
	return Letter{}, fmt.Errorf("%s/%s: %w", CollectionLetters, key, storage.ErrNotFound)
}

func (s *Service) CreateLetter(ctx context.Context, in LetterInput) (Letter, error) {
	in, err := in.validate()
	if err != nil {
		return Letter{}, err
	}
	l := Letter{
		ID:        s.newID(),
		Date:      in.Date,
		Title:     in.Title,
		Content:   in.Content,
		ImagePath: in.ImagePath,
		Slug:      in.Slug,
		CreatedAt: s.now().UTC(),
	}
	if err := save(ctx, s.repo, CollectionLetters, l.ID, l); err != nil {
		return Letter{}, err
	}
	s.logSaved("created", CollectionLetters, l.ID)
	return l, nil
}

func (s *Service) UpdateLetter(ctx context.Context, id string, p LetterPatch) (Letter, error) {
	l, err := loadForUpdate[Letter](ctx, s.repo, CollectionLetters, id)
	if err != nil {
		return Letter{}, err
	}
	if p.Date != nil {
		if l.Date, err = requiredDate("date", *p.Date); err != nil {
			return Letter{}, err
		}
	}
	if p.Title != nil {
		l.Title = optional(p.Title)
	}
	if p.Content != nil {
		if l.Content, err = requiredText("content", *p.Content, MaxLetterLength, "Conteudo obrigatorio."); err != nil {
			return Letter{}, err
		}
	}
	if p.ImagePath != nil {
		l.ImagePath = optional(p.ImagePath)
	}
	if p.Slug != nil {
		l.Slug = slugOf(p.Slug)
	}
	if err := save(ctx, s.repo, CollectionLetters, l.ID, l); err != nil {
		return Letter{}, err
	}
	s.logSaved("updated", CollectionLetters, l.ID)
	return l, nil
}

func (s *Service) DeleteLetter(ctx context.Context, id string) error {
	return s.remove(ctx, CollectionLetters, id)
}

// ---------------------------------------------------------------------------
// Reasons
// ---------------------------------------------------------------------------

// ListReasons returns reasons ordered by position.
func (s *Service) ListReasons(ctx context.Context) ([]Reason, error) {
	items, err := loadAll[Reason](ctx, s.repo, CollectionReasons)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return byPosition(items[i].Position, items[j].Position, items[i].CreatedAt, items[j].CreatedAt, items[i].ID, items[j].ID)
	})
	return items, nil
}

func (s *Service) CreateReason(ctx context.Context, in ReasonInput) (Reason, error) {
	in, err := in.validate()
	if err != nil {
		return Reason{}, err
	}
	r := Reason{ID: s.newID(), Text: in.Text, Position: in.Position, CreatedAt: s.now().UTC()}
	if err := save(ctx, s.repo, CollectionReasons, r.ID, r); err != nil {
		return Reason{}, err
	}
	s.logSaved("created", CollectionReasons, r.ID)
	return r, nil
}

func (s *Service) UpdateReason(ctx context.Context, id string, p ReasonPatch) (Reason, error) {
	r, err := loadForUpdate[Reason](ctx, s.repo, CollectionReasons, id)
	if err != nil {
		return Reason{}, err
	}
	if p.Text != nil {
		if r.Text, err = requiredText("text", *p.Text, MaxReasonLength, "Texto obrigatorio."); err != nil {
			return Reason{}, err
		}
	}
	if p.Position != nil {
		if err := position("position", *p.Position); err != nil {
			return Reason{}, err
		}
		r.Position = *p.Position
	}
	if err := save(ctx, s.repo, CollectionReasons, r.ID, r); err != nil {
		return Reason{}, err
	}
	s.logSaved("updated", CollectionReasons, r.ID)
	return r, nil
}

func (s *Service) DeleteReason(ctx context.Context, id string) error {
	return s.remove(ctx, CollectionReasons, id)
}

// ---------------------------------------------------------------------------
// Ordering
// ---------------------------------------------------------------------------

func byCreated(a, b time.Time, idA, idB string) bool {
	if !a.Equal(b) {
		return a.Before(b)
	}
	return idA < idB
}

func byPosition(pa, pb int, ca, cb time.Time, idA, idB string) bool {
	if pa != pb {
		return pa < pb
	}
	return byCreated(ca, cb, idA, idB)
}

func byDate(da, db string, ca, cb time.Time, idA, idB string) bool {
	if da != db {
		return da < db
	}
	return byCreated(ca, cb, idA, idB)
}
