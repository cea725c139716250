package handler

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	acocameras "github.com/denissonlm/AcoCameras"
	"github.com/denissonlm/AcoCameras/internal/auth"
	"github.com/denissonlm/AcoCameras/internal/blob"
	"github.com/denissonlm/AcoCameras/internal/config"
	"github.com/denissonlm/AcoCameras/internal/db"
	"github.com/denissonlm/AcoCameras/internal/fleet"
	"github.com/denissonlm/AcoCameras/internal/gateway"
	"github.com/denissonlm/AcoCameras/internal/layout"
	"github.com/denissonlm/AcoCameras/internal/model"
	"github.com/denissonlm/AcoCameras/internal/report"
	"github.com/denissonlm/AcoCameras/internal/snapshot"
	"github.com/denissonlm/AcoCameras/internal/sse"
)

const testPassword = "SESMTRH"

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

type testEnv struct {
	h      *Handler
	router http.Handler
	cookie *http.Cookie
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		DataDir:           dir,
		BaseURL:           "http://localhost:8080",
		SessionSecret:     "test-secret-test-secret-test-sec",
		AdminPassword:     testPassword,
		MaxUploadBytes:    1 << 20,
		DiskWarnYellowPct: 15,
		DiskWarnRedPct:    5,
		DiskWarnBlockPct:  2,
	}

	database, err := db.Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := db.Migrate(context.Background(), database, acocameras.MigrationFS); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	hub := sse.New()
	t.Cleanup(hub.Close)
	g := gateway.New(database, hub, false)
	cache := snapshot.New(g)
	if err := cache.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	bucket, err := blob.NewFS(dir, blob.LayoutsBucket, cfg.BaseURL)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	templates, err := fs.Sub(acocameras.TemplateFS, "templates")
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}
	renderer, err := report.New(templates, "Atenciosamente,\nSESMT")
	if err != nil {
		t.Fatalf("report.New: %v", err)
	}
	gate, err := auth.NewGate(cfg.AdminPassword, cfg.SessionSecret, false)
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}

	h := New(cfg, cache, fleet.NewService(g, cache), layout.NewService(g, bucket, cache), renderer, gate, hub)
	return &testEnv{h: h, router: h.API()}
}

func (e *testEnv) send(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.send(t, req)
}

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/admin/login", map[string]string{"password": testPassword})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			e.cookie = c
		}
	}
	if e.cookie == nil {
		t.Fatal("login did not set a session cookie")
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("Unmarshal %q: %v", rec.Body.String(), err)
	}
	return v
}

func errorKind(t *testing.T, rec *httptest.ResponseRecorder) fleet.Kind {
	t.Helper()
	return decode[errorBody](t, rec).Error.Kind
}

// seed creates a division with one 16-channel device holding the named
// channels, through the admin API.
func (e *testEnv) seed(t *testing.T, division string, channels ...string) (model.Division, model.Device, []model.Channel) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/divisions", map[string]string{"name": division})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create division status = %d, body %s", rec.Code, rec.Body.String())
	}
	div := decode[model.Division](t, rec)

	rec = e.do(t, http.MethodPost, "/api/devices", map[string]any{
		"name": "NVR Portaria", "type": "NVR", "division_id": div.ID, "channel_count": 16,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create device status = %d, body %s", rec.Code, rec.Body.String())
	}
	dev := decode[model.Device](t, rec)

	var out []model.Channel
	for _, name := range channels {
		rec = e.do(t, http.MethodPost, "/api/devices/"+strconv.FormatInt(dev.ID, 10)+"/channels", map[string]string{"name": name})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create channel status = %d, body %s", rec.Code, rec.Body.String())
		}
		out = append(out, decode[model.Channel](t, rec))
	}
	return div, dev, out
}

func TestHealthz(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestMutationRequiresAdmin(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodPost, "/api/divisions", map[string]string{"name": "Logística"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if k := errorKind(t, rec); k != fleet.KindPolicy {
		t.Errorf("kind = %q, want policy", k)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodPost, "/api/admin/login", map[string]string{"password": "errada"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if msg := decode[errorBody](t, rec).Error.Message; msg != "Senha incorreta." {
		t.Errorf("message = %q", msg)
	}
}

func TestSessionReportsAdmin(t *testing.T) {
	e := newTestEnv(t)
	if s := decode[sessionResponse](t, e.do(t, http.MethodGet, "/api/admin/session", nil)); s.Admin {
		t.Error("anonymous session reports admin")
	}
	e.login(t)
	if s := decode[sessionResponse](t, e.do(t, http.MethodGet, "/api/admin/session", nil)); !s.Admin {
		t.Error("session after login does not report admin")
	}
	e.do(t, http.MethodPost, "/api/admin/logout", nil)
	if s := decode[sessionResponse](t, e.do(t, http.MethodGet, "/api/admin/session", nil)); s.Admin {
		t.Error("session after logout still reports admin")
	}
}

func TestDivisionDuplicateAndDeleteConfirmation(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)
	div, _, _ := e.seed(t, "Logística")

	rec := e.do(t, http.MethodPost, "/api/divisions", map[string]string{"name": "Logística"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate status = %d, want 400", rec.Code)
	}

	rec = e.do(t, http.MethodDelete, "/api/divisions/"+strconv.FormatInt(div.ID, 10), nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("delete in-use status = %d, want 409 (body %s)", rec.Code, rec.Body.String())
	}

	rec = e.do(t, http.MethodPost, "/api/divisions", map[string]string{"name": "Vazia"})
	empty := decode[model.Division](t, rec)
	path := "/api/divisions/" + strconv.FormatInt(empty.ID, 10)

	rec = e.do(t, http.MethodDelete, path, nil)
	if rec.Code != http.StatusPreconditionRequired {
		t.Fatalf("unconfirmed delete status = %d, want 428", rec.Code)
	}
	if k := errorKind(t, rec); k != fleet.KindConfirmation {
		t.Errorf("kind = %q, want confirmation", k)
	}

	rec = e.do(t, http.MethodDelete, path+"?confirm=true", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("confirmed delete status = %d, want 204", rec.Code)
	}
	if _, ok := e.h.Cache.Current().Division(empty.ID); ok {
		t.Error("division still in snapshot after delete")
	}
}

func TestBadIDParam(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)
	rec := e.do(t, http.MethodPut, "/api/divisions/abc", map[string]string{"name": "X"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestDashboardFilters(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)
	_, _, channels := e.seed(t, "Logística", "Cam 1", "Cam 2")

	rec := e.do(t, http.MethodPost, "/api/channels/"+strconv.FormatInt(channels[0].ID, 10)+"/action",
		map[string]string{"action": string(model.ActionPurchase), "notes": "cabo rompido"})
	if rec.Code != http.StatusOK {
		t.Fatalf("action status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = e.do(t, http.MethodGet, "/api/dashboard?status=Offline", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decode[dashboardResponse](t, rec)
	if len(resp.Devices) != 1 || len(resp.Devices[0].Channels) != 1 {
		t.Fatalf("filtered devices = %+v, want one device with one channel", resp.Devices)
	}
	if resp.Devices[0].Channels[0].ID != channels[0].ID {
		t.Errorf("filtered channel = %d, want %d", resp.Devices[0].Channels[0].ID, channels[0].ID)
	}
	if resp.Stats.Totals.Channels != 2 || resp.Stats.Totals.Offline != 1 {
		t.Errorf("stats = %+v, want whole-fleet totals", resp.Stats)
	}
	if !resp.IsAdmin {
		t.Error("IsAdmin = false for logged-in session")
	}

	rec = e.do(t, http.MethodGet, "/api/dashboard?status=Quebrado", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid status filter = %d, want 400", rec.Code)
	}
	rec = e.do(t, http.MethodGet, "/api/dashboard?division=x", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid division filter = %d, want 400", rec.Code)
	}
	for _, q := range []string{
		"status=Online&action=" + url.QueryEscape(string(model.ActionWorks)),
		"division=1&status=Offline",
	} {
		rec = e.do(t, http.MethodGet, "/api/dashboard?"+q, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("dashboard?%s = %d, want 400", q, rec.Code)
		}
	}
}

func TestFilterTransition(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodPost, "/api/filters", map[string]any{
		"state":      map[string]any{},
		"transition": map[string]any{"dimension": "status", "status": "Offline"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decode[filterResponse](t, rec)
	if resp.Filter.Status != model.StatusOffline {
		t.Errorf("Filter.Status = %q, want Offline", resp.Filter.Status)
	}

	rec = e.do(t, http.MethodPost, "/api/filters", map[string]any{
		"transition": map[string]any{"dimension": "color"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown dimension = %d, want 400", rec.Code)
	}
}

func TestLogbookEndToEnd(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)
	_, _, channels := e.seed(t, "Logística", "Cam 1")
	ch := strconv.FormatInt(channels[0].ID, 10)

	rec := e.do(t, http.MethodPut, "/api/channels/"+ch+"/status", map[string]string{"status": "Offline"})
	if rec.Code != http.StatusOK {
		t.Fatalf("set status = %d, body %s", rec.Code, rec.Body.String())
	}
	rec = e.do(t, http.MethodPost, "/api/channels/"+ch+"/logs", map[string]string{"log_entry": "Técnico acionado"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add note = %d, body %s", rec.Code, rec.Body.String())
	}
	note := decode[model.ChannelLog](t, rec)

	e.cookie = nil
	rec = e.do(t, http.MethodGet, "/api/channels/"+ch+"/logs", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logs = %d", rec.Code)
	}
	logs := decode[[]model.ChannelLog](t, rec)
	if len(logs) == 0 {
		t.Fatal("no logs returned")
	}

	rec = e.do(t, http.MethodDelete, "/api/logs/"+strconv.FormatInt(note.ID, 10)+"?confirm=true", nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("anonymous delete = %d, want 403", rec.Code)
	}
}

func TestLayoutGetUnknownDivision(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodGet, "/api/layouts/999", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 (body %s)", rec.Code, rec.Body.String())
	}
}

func TestLayoutPlaceClampsPointer(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)
	div, _, channels := e.seed(t, "Logística", "Cam 1")
	path := "/api/layouts/" + strconv.FormatInt(div.ID, 10)

	rec := e.do(t, http.MethodPost, path+"/cameras", map[string]any{
		"channelId": channels[0].ID,
		"pointer":   map[string]float64{"x": 1500, "y": 50},
		"canvas":    map[string]float64{"left": 0, "top": 0, "width": 1000, "height": 100},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("place = %d, body %s", rec.Code, rec.Body.String())
	}
	view := decode[layout.View](t, rec)
	if len(view.Markers) != 1 {
		t.Fatalf("markers = %d, want 1", len(view.Markers))
	}
	if m := view.Markers[0]; m.X != 100 || m.Y != 50 {
		t.Errorf("marker at (%v,%v), want (100,50)", m.X, m.Y)
	}
	if !view.Locked {
		t.Error("layout with a marker is not locked")
	}

	rec = e.do(t, http.MethodPost, path+"/background/rotate", map[string]int{"degrees": 90})
	if rec.Code == http.StatusOK {
		t.Error("rotating a locked background succeeded")
	}

	rec = e.do(t, http.MethodPost, path+"/cameras/"+strconv.FormatInt(channels[0].ID, 10)+"/rotate", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("rotate marker = %d, body %s", rec.Code, rec.Body.String())
	}
	if view := decode[layout.View](t, rec); view.Markers[0].Rotation != 45 {
		t.Errorf("rotation = %d, want 45", view.Markers[0].Rotation)
	}
}

func multipartImage(t *testing.T, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	fw.Write(data)
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestBackgroundUploadServesImage(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)
	div, _, _ := e.seed(t, "Logística")

	body, ct := multipartImage(t, "planta.png", pngHeader)
	req := httptest.NewRequest(http.MethodPost, "/api/layouts/"+strconv.FormatInt(div.ID, 10)+"/background", body)
	req.Header.Set("Content-Type", ct)
	rec := e.send(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload = %d, body %s", rec.Code, rec.Body.String())
	}
	view := decode[layout.View](t, rec)
	if !view.Layout.HasBackground() {
		t.Fatal("layout has no background after upload")
	}

	u, err := url.Parse(*view.Layout.BackgroundImageURL)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	rec = e.do(t, http.MethodGet, u.Path, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET %s = %d", u.Path, rec.Code)
	}
	if !bytes.Equal(rec.Body.Bytes(), pngHeader) {
		t.Error("served image differs from upload")
	}
}

func TestBackgroundUploadRejectsNonImage(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)
	div, _, _ := e.seed(t, "Logística")

	body, ct := multipartImage(t, "planta.png", []byte("isto não é uma imagem"))
	req := httptest.NewRequest(http.MethodPost, "/api/layouts/"+strconv.FormatInt(div.ID, 10)+"/background", body)
	req.Header.Set("Content-Type", ct)
	rec := e.send(t, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
	}
}

func TestReportDownload(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodGet, "/api/report", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	cd := rec.Header().Get("Content-Disposition")
	if !strings.Contains(cd, "Relatorio_Acotubo_Cameras_") || !strings.HasSuffix(cd, `.html"`) {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !strings.Contains(rec.Body.String(), "<html") {
		t.Error("report body is not HTML")
	}

	empty := ""
	rec = e.do(t, http.MethodPost, "/api/report", map[string]*string{"conclusion": &empty})
	if rec.Code != http.StatusOK {
		t.Fatalf("POST status = %d", rec.Code)
	}
}

func TestLoginRateLimited(t *testing.T) {
	e := newTestEnv(t)
	e.h.LoginRL = NewRateLimiter(0.001, 1)
	t.Cleanup(e.h.LoginRL.Stop)
	e.router = e.h.API()

	e.do(t, http.MethodPost, "/api/admin/login", map[string]string{"password": "errada"})
	rec := e.do(t, http.MethodPost, "/api/admin/login", map[string]string{"password": "errada"})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second attempt = %d, want 429", rec.Code)
	}
}

func TestRoutesRejectMissingCSRF(t *testing.T) {
	e := newTestEnv(t)
	e.router = e.h.Routes()
	rec := e.do(t, http.MethodPost, "/api/admin/login", map[string]string{"password": testPassword})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if k := errorKind(t, rec); k != fleet.KindPolicy {
		t.Errorf("kind = %q, want policy", k)
	}
}
