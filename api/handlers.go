package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nossahistoria/romantic/content"
	"github.com/nossahistoria/romantic/media"
)

// GetHome handles GET /home.
func (a *API) GetHome(w http.ResponseWriter, r *http.Request) {
	home, err := a.content.Home(r.Context(), a.now(), a.uploader.PublicURL)
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, home)
}

// GetSettings handles GET /settings. The body is null before the settings
// are first saved.
func (a *API) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := a.content.Settings(r.Context())
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// ListCarousel handles GET /carousel.
func (a *API) ListCarousel(w http.ResponseWriter, r *http.Request) {
	items, err := a.content.ListCarousel(r.Context())
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ListCarouselResponse{Items: items})
}

// ListQuotes handles GET /quotes.
func (a *API) ListQuotes(w http.ResponseWriter, r *http.Request) {
	items, err := a.content.ListQuotes(r.Context())
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ListQuotesResponse{Items: items})
}

// ListReasons handles GET /reasons.
func (a *API) ListReasons(w http.ResponseWriter, r *http.Request) {
	items, err := a.content.ListReasons(r.Context())
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ListReasonsResponse{Items: items})
}

// ListTimeline handles GET /timeline.
func (a *API) ListTimeline(w http.ResponseWriter, r *http.Request) {
	posts, err := a.content.ListTimeline(r.Context())
	if err != nil {
		mapError(w, err)
		return
	}
	limit, offset := parsePagination(r)
	page, meta := paginate(posts, limit, offset)
	writeJSON(w, http.StatusOK, ListTimelineResponse{Items: page, PaginationMeta: meta})
}

// ListLetters handles GET /letters.
func (a *API) ListLetters(w http.ResponseWriter, r *http.Request) {
	letters, err := a.content.ListLetters(r.Context())
	if err != nil {
		mapError(w, err)
		return
	}
	limit, offset := parsePagination(r)
	page, meta := paginate(letters, limit, offset)
	writeJSON(w, http.StatusOK, ListLettersResponse{Items: page, PaginationMeta: meta})
}

// GetLetter handles GET /letters/{slugOrID}.
func (a *API) GetLetter(w http.ResponseWriter, r *http.Request) {
	letter, err := a.content.LetterBySlugOrID(r.Context(), chi.URLParam(r, "slugOrID"))
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, letter)
}

// SaveSettings handles PUT /admin/settings.
func (a *API) SaveSettings(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeJSON[content.SettingsInput](w, r, maxContentBodySize)
	if !ok {
		return
	}
	settings, err := a.content.SaveSettings(r.Context(), in)
	if err != nil {
		mapError(w, err)
		return
	}
	a.audit.log(AuditSettingsUpdated, r)
	writeJSON(w, http.StatusOK, SettingsResponse{OK: true, Settings: settings})
}

// UploadImage handles POST /admin/uploads. The multipart form carries the
// image in "file" and an optional "folder".
func (a *API) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.uploader.MaxBytes()+uploadOverhead)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			mapError(w, media.ErrTooLarge)
			return
		}
		writeResult(w, http.StatusBadRequest, "Arquivo obrigatorio.")
		return
	}
	defer file.Close()

	path, err := a.uploader.Upload(r.Context(), file, header.Header.Get("Content-Type"), r.FormValue("folder"))
	if err != nil {
		mapError(w, err)
		return
	}
	url, _ := a.uploader.PublicURL(path)
	a.audit.logContent(AuditImageUploaded, r, "uploads", path)
	writeJSON(w, http.StatusCreated, UploadResponse{OK: true, Path: path, URL: url})
}

// CreateCarousel handles POST /admin/carousel.
func (a *API) CreateCarousel(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeJSON[content.CarouselInput](w, r, maxContentBodySize)
	if !ok {
		return
	}
	item, err := a.content.CreateCarousel(r.Context(), in)
	if err != nil {
		mapError(w, err)
		return
	}
	a.audit.logContent(AuditContentCreated, r, content.CollectionCarousel, item.ID)
	writeJSON(w, http.StatusCreated, CarouselResponse{OK: true, Item: item})
}

// UpdateCarousel handles PUT /admin/carousel/{id}.
func (a *API) UpdateCarousel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, ok := decodeJSON[content.CarouselPatch](w, r, maxContentBodySize)
	if !ok {
		return
	}
	item, err := a.content.UpdateCarousel(r.Context(), id, p)
	if err != nil {
		mapError(w, err)
		return
	}
	a.audit.logContent(AuditContentUpdated, r, content.CollectionCarousel, id)
	writeJSON(w, http.StatusOK, CarouselResponse{OK: true, Item: item})
}

// DeleteCarousel handles DELETE /admin/carousel/{id}.
func (a *API) DeleteCarousel(w http.ResponseWriter, r *http.Request) {
	a.deleteItem(w, r, content.CollectionCarousel, a.content.DeleteCarousel)
}

// CreateQuote handles POST /admin/quotes.
func (a *API) CreateQuote(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[QuoteRequest](w, r, maxContentBodySize)
	if !ok {
		return
	}
	item, err := a.content.CreateQuote(r.Context(), req.Text)
	if err != nil {
		mapError(w, err)
		return
	}
	a.audit.logContent(AuditContentCreated, r, content.CollectionQuotes, item.ID)
	writeJSON(w, http.StatusCreated, QuoteResponse{OK: true, Item: item})
}

// UpdateQuote handles PUT /admin/quotes/{id}.
func (a *API) UpdateQuote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	req, ok := decodeJSON[QuoteRequest](w, r, maxContentBodySize)
	if !ok {
		return
	}
	item, err := a.content.UpdateQuote(r.Context(), id, req.Text)
	if err != nil {
		mapError(w, err)
		return
	}
	a.audit.logContent(AuditContentUpdated, r, content.CollectionQuotes, id)
	writeJSON(w, http.StatusOK, QuoteResponse{OK: true, Item: item})
}

// DeleteQuote handles DELETE /admin/quotes/{id}.
func (a *API) DeleteQuote(w http.ResponseWriter, r *http.Request) {
	a.deleteItem(w, r, content.CollectionQuotes, a.content.DeleteQuote)
}

// CreateTimelinePost handles POST /admin/timeline.
func (a *API) CreateTimelinePost(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeJSON[content.TimelineInput](w, r, maxContentBodySize)
	if !ok {
		return
	}
	item, err := a.content.CreateTimelinePost(r.Context(), in)
	if err != nil {
		mapError(w, err)
		return
	}
	a.audit.logContent(AuditContentCreated, r, content.CollectionTimeline, item.ID)
	writeJSON(w, http.StatusCreated, TimelinePostResponse{OK: true, Item: item})
}

// UpdateTimelinePost handles PUT /admin/timeline/{id}.
func (a *API) UpdateTimelinePost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, ok := decodeJSON[content.TimelinePatch](w, r, maxContentBodySize)
	if !ok {
		return
	}
	item, err := a.content.UpdateTimelinePost(r.Context(), id, p)
	if err != nil {
		mapError(w, err)
		return
	}
	a.audit.logContent(AuditContentUpdated, r, content.CollectionTimeline, id)
	writeJSON(w, http.StatusOK, TimelinePostResponse{OK: true, Item: item})
}

// DeleteTimelinePost handles DELETE /admin/timeline/{id}.
func (a *API) DeleteTimelinePost(w http.ResponseWriter, r *http.Request) {
	a.deleteItem(w, r, content.CollectionTimeline, a.content.DeleteTimelinePost)
}

// CreateLetter handles POST /admin/letters.
func (a *API) CreateLetter(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeJSON[content.LetterInput](w, r, maxContentBodySize)
	if !ok {
		return
	}
	item, err := a.content.CreateLetter(r.Context(), in)
	if err != nil {
		mapError(w, err)
		return
	}
	a.audit.logContent(AuditContentCreated, r, content.CollectionLetters, item.ID)
	writeJSON(w, http.StatusCreated, LetterResponse{OK: true, Item: item})
}

// UpdateLetter handles PUT /admin/letters/{id}.
func (a *API) UpdateLetter(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, ok := decodeJSON[content.LetterPatch](w, r, maxContentBodySize)
	if !ok {
		return
	}
	item, err := a.content.UpdateLetter(r.Context(), id, p)
	if err != nil {
		mapError(w, err)
		return
	}
	a.audit.logContent(AuditContentUpdated, r, content.CollectionLetters, id)
	writeJSON(w, http.StatusOK, LetterResponse{OK: true, Item: item})
}

// DeleteLetter handles DELETE /admin/letters/{id}.
func (a *API) DeleteLetter(w http.ResponseWriter, r *http.Request) {
	a.deleteItem(w, r, content.CollectionLetters, a.content.DeleteLetter)
}

// CreateReason handles POST /admin/reasons.
func (a *API) CreateReason(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeJSON[content.ReasonInput](w, r, maxContentBodySize)
	if !ok {
		return
	}
	item, err := a.content.CreateReason(r.Context(), in)
	if err != nil {
		mapError(w, err)
		return
	}
	a.audit.logContent(AuditContentCreated, r, content.CollectionReasons, item.ID)
	writeJSON(w, http.StatusCreated, ReasonResponse{OK: true, Item: item})
}

// UpdateReason handles PUT /admin/reasons/{id}.
func (a *API) UpdateReason(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, ok := decodeJSON[content.ReasonPatch](w, r, maxContentBodySize)
	if !ok {
		return
	}
	item, err := a.content.UpdateReason(r.Context(), id, p)
	if err != nil {
		mapError(w, err)
		return
	}
	a.audit.logContent(AuditContentUpdated, r, content.CollectionReasons, id)
	writeJSON(w, http.StatusOK, ReasonResponse{OK: true, Item: item})
}

// DeleteReason handles DELETE /admin/reasons/{id}.
func (a *API) DeleteReason(w http.ResponseWriter, r *http.Request) {
	a.deleteItem(w, r, content.CollectionReasons, a.content.DeleteReason)
}

func (a *API) deleteItem(w http.ResponseWriter, r *http.Request, collection string, del func(ctx context.Context, id string) error) {
	id := chi.URLParam(r, "id")
	if err := del(r.Context(), id); err != nil {
		mapError(w, err)
		return
	}
	a.audit.logContent(AuditContentDeleted, r, collection, id)
	writeResult(w, http.StatusOK, "")
}
