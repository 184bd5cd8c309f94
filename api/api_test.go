package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nossahistoria/romantic/api"
	"github.com/nossahistoria/romantic/auth"
	"github.com/nossahistoria/romantic/content"
	"github.com/nossahistoria/romantic/media"
	"github.com/nossahistoria/romantic/storage/memory"
)

const adminPassword = "nosso-segredo"

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type testEnv struct {
	api       *api.API
	srv       *httptest.Server
	clock     *testClock
	svc       *content.Service
	uploadDir string
}

func setupServer(t *testing.T, opts ...api.Option) *testEnv {
	t.Helper()
	return setupServerSecure(t, false, opts...)
}

// setupServerSecure is setupServer with the guard's Secure cookie setting
// under test control. The server itself always speaks plain HTTP.
func setupServerSecure(t *testing.T, secure bool, opts ...api.Option) *testEnv {
	t.Helper()
	clock := &testClock{now: time.Date(2026, 2, 14, 20, 0, 0, 0, time.UTC)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	guard, err := auth.NewGuard(auth.Config{
		Password: adminPassword,
		Secure:   secure,
		Now:      clock.Now,
		Sleep:    func(time.Duration) {},
	})
	require.NoError(t, err)

	svc := content.NewService(memory.NewRepository(), content.WithClock(clock.Now), content.WithLogger(logger))
	_, err = svc.Seed(t.Context())
	require.NoError(t, err)

	uploadDir := t.TempDir()
	uploader := media.NewUploader(media.NewDiskStore(uploadDir), 1, media.WithLogger(logger))

	opts = append([]api.Option{api.WithLogger(logger), api.WithClock(clock.Now)}, opts...)
	a := api.New(guard, svc, uploader, opts...)
	r := chi.NewRouter()
	r.Mount("/api/v1", a.Router())
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &testEnv{api: a, srv: srv, clock: clock, svc: svc, uploadDir: uploadDir}
}

func (e *testEnv) url(path string) string {
	return e.srv.URL + "/api/v1" + path
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

// csrfToken returns the CSRF cookie the jar holds for the server.
func csrfToken(t *testing.T, client *http.Client, base string) string {
	t.Helper()
	u, err := url.Parse(base)
	require.NoError(t, err)
	for _, c := range client.Jar.Cookies(u) {
		if c.Name == "romantic_csrf" {
			return c.Value
		}
	}
	return ""
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) *http.Response {
	t.Helper()
	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
	}
	req, err := http.NewRequestWithContext(t.Context(), method, url, &reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := csrfToken(t, client, url); token != "" {
		req.Header.Set("X-CSRF-Token", token)
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func login(t *testing.T, env *testEnv, client *http.Client, password string) *http.Response {
	t.Helper()
	return doJSON(t, client, http.MethodPost, env.url("/admin/login"), api.LoginRequest{Password: password})
}

func mustLogin(t *testing.T, env *testEnv, client *http.Client) {
	t.Helper()
	resp := login(t, env, client, adminPassword)
	res := decode[api.ActionResult](t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, res.OK)
}

func TestHome(t *testing.T) {
	env := setupServer(t)
	client := newClient(t)

	resp := doJSON(t, client, http.MethodGet, env.url("/home"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	home := decode[content.Home](t, resp)

	require.NotNil(t, home.Settings)
	assert.Len(t, home.Quotes, 2)
	assert.Len(t, home.Reasons, 3)
	assert.Empty(t, home.Carousel)
	require.NotNil(t, home.SpotifyEmbedURL)
	assert.Equal(t, "https://open.spotify.com/embed/track/4cOdK2wGLETKBW3PvgPWqT", *home.SpotifyEmbedURL)
	require.NotNil(t, home.Together)
	assert.Equal(t, 2, home.Together.Years)
	require.NotNil(t, home.DaysUntilWedding)
}

func TestAdminRoutesRequireSession(t *testing.T) {
	env := setupServer(t)
	client := newClient(t)

	resp := doJSON(t, client, http.MethodPost, env.url("/admin/quotes"), api.QuoteRequest{Text: "intruso"})
	res := decode[api.ActionResult](t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, res.OK)

	resp = doJSON(t, client, http.MethodPut, env.url("/admin/settings"), map[string]string{"weddingDate": ""})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Nothing was written.
	quotes, err := env.svc.ListQuotes(t.Context())
	require.NoError(t, err)
	assert.Len(t, quotes, 2)
	settings, err := env.svc.Settings(t.Context())
	require.NoError(t, err)
	require.NotNil(t, settings.WeddingDate)
}

func TestForgedSessionCookieRejected(t *testing.T) {
	env := setupServer(t)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, env.url("/admin/session"), nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: "eyJpYXQiOjAsImV4cCI6OTk5OTk5OTk5OTk5OX0.AAAA"})
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	status := decode[api.SessionResponse](t, resp)
	assert.False(t, status.Authenticated)
}

func TestLoginAndSession(t *testing.T) {
	env := setupServer(t)
	client := newClient(t)

	resp := doJSON(t, client, http.MethodGet, env.url("/admin/session"), nil)
	assert.False(t, decode[api.SessionResponse](t, resp).Authenticated)

	resp = login(t, env, client, "errada")
	res := decode[api.ActionResult](t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, res.OK)
	assert.Equal(t, auth.MessageWrongPassword, res.Message)

	mustLogin(t, env, client)
	assert.NotEmpty(t, csrfToken(t, client, env.srv.URL))

	resp = doJSON(t, client, http.MethodGet, env.url("/admin/session"), nil)
	status := decode[api.SessionResponse](t, resp)
	assert.True(t, status.Authenticated)
	require.NotNil(t, status.ExpiresAt)
	assert.True(t, status.ExpiresAt.Equal(env.clock.Now().Add(auth.SessionTTL)))

	// Sessions do not slide: thirteen hours later the cookie is dead.
	env.clock.Advance(13 * time.Hour)
	resp = doJSON(t, client, http.MethodGet, env.url("/admin/session"), nil)
	assert.False(t, decode[api.SessionResponse](t, resp).Authenticated)
}

func TestLoginLockout(t *testing.T) {
	env := setupServer(t)
	client := newClient(t)

	for i := 1; i <= 4; i++ {
		resp := login(t, env, client, "errada")
		resp.Body.Close()
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, "attempt %d", i)
	}

	resp := login(t, env, client, "errada")
	res := decode[api.ActionResult](t, resp)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "Muitas tentativas. Tente novamente em 15 min.", res.Message)
	assert.Equal(t, "900", resp.Header.Get("Retry-After"))

	// The right password does not help while locked.
	env.clock.Advance(10 * time.Minute)
	resp = login(t, env, client, adminPassword)
	res = decode[api.ActionResult](t, resp)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "Muitas tentativas. Tente novamente em 5 min.", res.Message)

	// A fresh client has its own counter.
	mustLogin(t, env, newClient(t))

	env.clock.Advance(6 * time.Minute)
	mustLogin(t, env, client)
}

// scrapeMetrics returns the Prometheus text exposition of env's API.
func scrapeMetrics(t *testing.T, env *testEnv) string {
	t.Helper()
	rec := httptest.NewRecorder()
	env.api.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestLoginLockoutAuditEvents(t *testing.T) {
	var (
		mu     sync.Mutex
		alerts []api.AlertEvent
	)
	env := setupServer(t, api.WithAlertFunc(func(e api.AlertEvent) {
		mu.Lock()
		alerts = append(alerts, e)
		mu.Unlock()
	}))
	client := newClient(t)

	for i := 0; i < auth.LockThreshold; i++ {
		resp := login(t, env, client, "errada")
		resp.Body.Close()
	}
	// A locked browser that keeps retrying is refused without a new lockout.
	for i := 0; i < 12; i++ {
		env.clock.Advance(time.Minute)
		resp := login(t, env, client, "errada")
		resp.Body.Close()
		require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	}

	metrics := scrapeMetrics(t, env)
	assert.Contains(t, metrics, `romantic_audit_events_total{event="login_failure"} 5`)
	assert.Contains(t, metrics, `romantic_audit_events_total{event="login_locked"} 1`)
	assert.Contains(t, metrics, `romantic_audit_events_total{event="login_refused_locked"} 12`)

	mu.Lock()
	defer mu.Unlock()
	assert.Empty(t, alerts)
}

func TestCSRFCookieFollowsGuardSecureSetting(t *testing.T) {
	for _, secure := range []bool{true, false} {
		t.Run(fmt.Sprintf("secure=%v", secure), func(t *testing.T) {
			env := setupServerSecure(t, secure)

			body, err := json.Marshal(api.LoginRequest{Password: adminPassword})
			require.NoError(t, err)
			resp, err := http.Post(env.url("/admin/login"), "application/json", bytes.NewReader(body))
			require.NoError(t, err)
			resp.Body.Close()
			require.Equal(t, http.StatusOK, resp.StatusCode)

			cookies := map[string]*http.Cookie{}
			for _, c := range resp.Cookies() {
				cookies[c.Name] = c
			}
			require.Contains(t, cookies, auth.SessionCookieName)
			require.Contains(t, cookies, "romantic_csrf")
			assert.Equal(t, secure, cookies[auth.SessionCookieName].Secure)
			assert.Equal(t, secure, cookies["romantic_csrf"].Secure,
				"the CSRF cookie must match the session cookie even without TLS on the request")
		})
	}
}

func TestCSRFRequiredForMutations(t *testing.T) {
	env := setupServer(t)
	client := newClient(t)
	mustLogin(t, env, client)

	var body bytes.Buffer
	require.NoError(t, json.NewEncoder(&body).Encode(api.QuoteRequest{Text: "sem token"}))
	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, env.url("/admin/quotes"), &body)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	quotes, err := env.svc.ListQuotes(t.Context())
	require.NoError(t, err)
	assert.Len(t, quotes, 2)
}

func TestQuoteCRUD(t *testing.T) {
	env := setupServer(t)
	client := newClient(t)
	mustLogin(t, env, client)
	env.clock.Advance(time.Minute)

	resp := doJSON(t, client, http.MethodPost, env.url("/admin/quotes"), api.QuoteRequest{Text: "  Te amo.  "})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[api.QuoteResponse](t, resp)
	assert.True(t, created.OK)
	assert.Equal(t, "Te amo.", created.Item.Text)

	resp = doJSON(t, client, http.MethodPut, env.url("/admin/quotes/"+created.Item.ID), api.QuoteRequest{Text: "Te amo muito."})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Te amo muito.", decode[api.QuoteResponse](t, resp).Item.Text)

	resp = doJSON(t, client, http.MethodGet, env.url("/quotes"), nil)
	list := decode[api.ListQuotesResponse](t, resp)
	require.Len(t, list.Items, 3)
	assert.Equal(t, "Te amo muito.", list.Items[2].Text)

	resp = doJSON(t, client, http.MethodDelete, env.url("/admin/quotes/"+created.Item.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[api.ActionResult](t, resp).OK)

	resp = doJSON(t, client, http.MethodDelete, env.url("/admin/quotes/"+created.Item.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.False(t, decode[api.ActionResult](t, resp).OK)
}

func TestValidationErrors(t *testing.T) {
	env := setupServer(t)
	client := newClient(t)
	mustLogin(t, env, client)

	tests := []struct {
		name    string
		method  string
		path    string
		body    any
		message string
	}{
		{"blank quote", http.MethodPost, "/admin/quotes", api.QuoteRequest{Text: "   "}, "Texto obrigatorio."},
		{"reason too long", http.MethodPost, "/admin/reasons", content.ReasonInput{Text: string(bytes.Repeat([]byte("a"), 201))}, "Maximo de 200 caracteres."},
		{"letter without date", http.MethodPost, "/admin/letters", content.LetterInput{Content: "oi"}, "Data obrigatoria."},
		{"timeline without content", http.MethodPost, "/admin/timeline", content.TimelineInput{Date: "2025-01-01"}, "Conteudo obrigatorio."},
		{"negative position", http.MethodPost, "/admin/carousel", content.CarouselInput{ImagePath: "a/b.jpg", Position: -1}, "Posicao deve ser maior ou igual a zero."},
		{"bad id", http.MethodPut, "/admin/reasons/not-a-uuid", content.ReasonPatch{}, "ID invalido."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, client, tt.method, env.url(tt.path), tt.body)
			res := decode[api.ActionResult](t, resp)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.False(t, res.OK)
			assert.Equal(t, tt.message, res.Message)
		})
	}
}

func TestLettersBySlugAndPagination(t *testing.T) {
	env := setupServer(t)
	client := newClient(t)
	mustLogin(t, env, client)

	for i := 1; i <= 3; i++ {
		slug := fmt.Sprintf("Carta Número %d", i)
		resp := doJSON(t, client, http.MethodPost, env.url("/admin/letters"), content.LetterInput{
			Date:    fmt.Sprintf("2025-0%d-01", i),
			Content: "Meu amor...",
			Slug:    &slug,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp := doJSON(t, client, http.MethodGet, env.url("/letters/carta-numero-2"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	letter := decode[content.Letter](t, resp)
	assert.Equal(t, "2025-02-01", letter.Date)

	resp = doJSON(t, client, http.MethodGet, env.url("/letters/"+letter.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, letter.ID, decode[content.Letter](t, resp).ID)

	resp = doJSON(t, client, http.MethodGet, env.url("/letters/nao-existe"), nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, client, http.MethodGet, env.url("/letters?limit=2&offset=1"), nil)
	page := decode[api.ListLettersResponse](t, resp)
	assert.Equal(t, 3, page.TotalCount)
	assert.False(t, page.HasMore)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "2025-02-01", page.Items[0].Date)
}

func TestSettingsUpdate(t *testing.T) {
	env := setupServer(t)
	client := newClient(t)
	mustLogin(t, env, client)

	wedding := "2027-03-20"
	clear := ""
	resp := doJSON(t, client, http.MethodPut, env.url("/admin/settings"), content.SettingsInput{
		WeddingDate:     &wedding,
		SpotifyTrackURL: &clear,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	saved := decode[api.SettingsResponse](t, resp)
	require.NotNil(t, saved.Settings.WeddingDate)
	assert.Equal(t, wedding, *saved.Settings.WeddingDate)
	assert.Nil(t, saved.Settings.SpotifyTrackURL)
	require.NotNil(t, saved.Settings.RelationshipStartDate, "omitted fields are kept")

	resp = doJSON(t, client, http.MethodGet, env.url("/home"), nil)
	home := decode[content.Home](t, resp)
	assert.Nil(t, home.SpotifyEmbedURL)
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func uploadRequest(t *testing.T, client *http.Client, target string, data []byte, contentType, folder string) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="foto"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("folder", folder))
	require.NoError(t, mw.Close())

	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, target, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-CSRF-Token", csrfToken(t, client, target))
	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func TestUploadAndCarousel(t *testing.T) {
	env := setupServer(t)
	client := newClient(t)
	mustLogin(t, env, client)

	resp := uploadRequest(t, client, env.url("/admin/uploads"), tinyPNG(t), "image/png", "Nossas Férias")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	up := decode[api.UploadResponse](t, resp)
	assert.Regexp(t, `^nossas-ferias/[0-9a-f-]{36}\.png$`, up.Path)
	assert.Equal(t, "/uploads/"+up.Path, up.URL)
	_, err := os.Stat(filepath.Join(env.uploadDir, filepath.FromSlash(up.Path)))
	require.NoError(t, err)

	resp = doJSON(t, client, http.MethodPost, env.url("/admin/carousel"), content.CarouselInput{ImagePath: up.Path, Position: 1})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, client, http.MethodGet, env.url("/home"), nil)
	home := decode[content.Home](t, resp)
	require.Len(t, home.Carousel, 1)
	assert.Equal(t, up.URL, home.Carousel[0].ImageURL)
}

func TestUploadRejections(t *testing.T) {
	env := setupServer(t)
	client := newClient(t)
	mustLogin(t, env, client)

	resp := uploadRequest(t, client, env.url("/admin/uploads"), []byte("GIF89a"), "image/gif", "")
	resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)

	resp = uploadRequest(t, client, env.url("/admin/uploads"), []byte("not really a png"), "image/png", "")
	resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)

	big := append(tinyPNG(t), bytes.Repeat([]byte{0}, 1<<20)...)
	resp = uploadRequest(t, client, env.url("/admin/uploads"), big, "image/png", "")
	resp.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	entries, err := os.ReadDir(env.uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLogout(t *testing.T) {
	env := setupServer(t)
	client := newClient(t)
	mustLogin(t, env, client)

	resp := doJSON(t, client, http.MethodPost, env.url("/admin/logout"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.Empty(t, csrfToken(t, client, env.srv.URL))

	resp = doJSON(t, client, http.MethodGet, env.url("/admin/session"), nil)
	assert.False(t, decode[api.SessionResponse](t, resp).Authenticated)

	resp = doJSON(t, client, http.MethodPost, env.url("/admin/reasons"), content.ReasonInput{Text: "depois do logout"})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
