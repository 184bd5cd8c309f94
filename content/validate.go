package content

import (
	"strings"
	"unicode/utf8"

	"github.com/nossahistoria/romantic/internal/uuid"
)

const (
	MaxQuoteLength  = 200
	MaxReasonLength = 200
	MaxLetterLength = 8000
)

// SettingsInput updates settings. A nil field is left unchanged and an empty
// string clears the value.
type SettingsInput struct {
	RelationshipStartDate *string `json:"relationshipStartDate"`
	WeddingDate           *string `json:"weddingDate"`
	SpotifyTrackURL       *string `json:"spotifyTrackUrl"`
}

type CarouselInput struct {
	ImagePath string  `json:"imagePath"`
	Caption   *string `json:"caption"`
	Position  int     `json:"position"`
}

// CarouselPatch is a partial carousel update; nil fields are left as is.
type CarouselPatch struct {
	ImagePath *string `json:"imagePath"`
	Caption   *string `json:"caption"`
	Position  *int    `json:"position"`
}

type TimelineInput struct {
	Date      string  `json:"date"`
	Title     *string `json:"title"`
	Content   string  `json:"content"`
	ImagePath *string `json:"imagePath"`
}

type TimelinePatch struct {
	Date      *string `json:"date"`
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	ImagePath *string `json:"imagePath"`
}

type LetterInput struct {
	Date      string  `json:"date"`
	Title     *string `json:"title"`
	Content   string  `json:"content"`
	ImagePath *string `json:"imagePath"`
	Slug      *string `json:"slug"`
}

type LetterPatch struct {
	Date      *string `json:"date"`
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	ImagePath *string `json:"imagePath"`
	Slug      *string `json:"slug"`
}

type ReasonInput struct {
	Text     string `json:"text"`
	Position int    `json:"position"`
}

type ReasonPatch struct {
	Text     *string `json:"text"`
	Position *int    `json:"position"`
}

// ValidateID checks that id is a canonical UUID.
func ValidateID(id string) error {
	if !uuid.Valid(id) {
		return validationErrorf("id", "ID invalido.")
	}
	return nil
}

// optional trims s and maps blank values to nil.
func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func requiredText(field, value string, maxLen int, missing string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", validationErrorf(field, "%s", missing)
	}
	if maxLen > 0 && utf8.RuneCountInString(v) > maxLen {
		return "", validationErrorf(field, "Maximo de %d caracteres.", maxLen)
	}
	return v, nil
}

func requiredDate(field, value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", validationErrorf(field, "Data obrigatoria.")
	}
	if _, ok := ParseDateInput(v, nil); !ok {
		return "", validationErrorf(field, "Data invalida.")
	}
	return v, nil
}

func optionalDate(field string, value *string) (*string, error) {
	v := optional(value)
	if v == nil {
		return nil, nil
	}
	if _, ok := ParseDateInput(*v, nil); !ok {
		return nil, validationErrorf(field, "Data invalida.")
	}
	return v, nil
}

func position(field string, p int) error {
	if p < 0 {
		return validationErrorf(field, "Posicao deve ser maior ou igual a zero.")
	}
	return nil
}

// slugOf normalises a user-supplied slug; a slug that normalises to nothing
// is dropped.
func slugOf(s *string) *string {
	v := optional(s)
	if v == nil {
		return nil
	}
	slug := ToSlug(*v)
	if slug == "" {
		return nil
	}
	return &slug
}

func (in CarouselInput) validate() (CarouselInput, error) {
	path := strings.TrimSpace(in.ImagePath)
	if path == "" {
		return in, validationErrorf("imagePath", "Imagem obrigatoria.")
	}
	if err := position("position", in.Position); err != nil {
		return in, err
	}
	return CarouselInput{ImagePath: path, Caption: optional(in.Caption), Position: in.Position}, nil
}

func (in TimelineInput) validate() (TimelineInput, error) {
	date, err := requiredDate("date", in.Date)
	if err != nil {
		return in, err
	}
	text, err := requiredText("content", in.Content, 0, "Conteudo obrigatorio.")
	if err != nil {
		return in, err
	}
	return TimelineInput{Date: date, Title: optional(in.Title), Content: text, ImagePath: optional(in.ImagePath)}, nil
}

func (in LetterInput) validate() (LetterInput, error) {
	date, err := requiredDate("date", in.Date)
	if err != nil {
		return in, err
	}
	text, err := requiredText("content", in.Content, MaxLetterLength, "Conteudo obrigatorio.")
	if err != nil {
		return in, err
	}
	return LetterInput{
		Date:      date,
		Title:     optional(in.Title),
		Content:   text,
		ImagePath: optional(in.ImagePath),
		Slug:      slugOf(in.Slug),
	}, nil
}

func (in ReasonInput) validate() (ReasonInput, error) {
	text, err := requiredText("text", in.Text, MaxReasonLength, "Texto obrigatorio.")
	if err != nil {
		return in, err
	}
	if err := position("position", in.Position); err != nil {
		return in, err
	}
	return ReasonInput{Text: text, Position: in.Position}, nil
}

func validateQuote(text string) (string, error) {
	return requiredText("text", text, MaxQuoteLength, "Texto obrigatorio.")
}
