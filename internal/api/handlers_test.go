package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/GmS-001/Law-Verdict/internal/config"
	"github.com/GmS-001/Law-Verdict/internal/database"
	"github.com/GmS-001/Law-Verdict/internal/scraper"
	"github.com/GmS-001/Law-Verdict/internal/scraper/scrapertest"
	"github.com/GmS-001/Law-Verdict/internal/service"
	"github.com/GmS-001/Law-Verdict/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type response struct {
	Success    bool            `json:"success"`
	Error      string          `json:"error"`
	CaptchaURL string          `json:"captcha_url"`
	Data       json.RawMessage `json:"data"`
	Pagination struct {
		Total int `json:"total"`
	} `json:"pagination"`
}

func setupTestRouter(t *testing.T, sessions ...*scrapertest.Session) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()

	cfg := &config.Config{
		PDFDir:         filepath.Join(dir, "PDFs"),
		CSVDir:         filepath.Join(dir, "CSVs"),
		CaptchaPath:    filepath.Join(dir, "captcha.png"),
		LookbackDays:   10,
		ScraperTimeout: 5 * time.Second,
		RunTimeout:     time.Minute,
		SessionTTL:     time.Minute,
		MaxSessions:    4,
	}

	db, err := database.Initialize(filepath.Join(dir, "data.db"))
	require.NoError(t, err)
	store := database.NewStore(db, logger.NewNop())
	t.Cleanup(func() { _ = store.Close() })

	opts := scraper.DefaultCollectorOptions()
	opts.TableWait = 50 * time.Millisecond
	opts.DownloadWait = 200 * time.Millisecond
	opts.PollInterval = 5 * time.Millisecond
	collector := scraper.NewCollector(opts, logger.NewNop())

	for _, s := range sessions {
		s.Portal.DownloadDir = cfg.PDFDir
	}
	svc := service.NewWithCollector(cfg, scrapertest.NewLauncher(sessions...), store, collector, logger.NewNop())

	router := gin.New()
	SetupRoutes(router, NewHandlers(svc, store, logger.NewNop(), cfg))
	return router
}

func do(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, response) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var resp response
	if w.Header().Get("Content-Type") != "image/png" {
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
	}
	return w, resp
}

func newSession(answer string) *scrapertest.Session {
	portal := scrapertest.NewPortal("",
		[]scrapertest.Row{
			scrapertest.NewRow("1", "201", "1", "2025"),
			scrapertest.NewRow("2", "202", "1", "2025"),
		},
	)
	return scrapertest.NewSession(portal, answer)
}

func TestHealthCheck(t *testing.T) {
	router := setupTestRouter(t)

	w, _ := do(t, router, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, true, body["database"])
}

func TestScrapeFlow(t *testing.T) {
	session := newSession("abc12")
	router := setupTestRouter(t, session)

	w, resp := do(t, router, http.MethodPost, "/api/scrapes", gin.H{"to_date": "14/08/2025", "option": "no"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var started struct {
		ID         string `json:"id"`
		FromDate   string `json:"from_date"`
		ToDate     string `json:"to_date"`
		Option     string `json:"option"`
		CaptchaURL string `json:"captcha_url"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &started))
	assert.Equal(t, "04/08/2025", started.FromDate)
	assert.Equal(t, "14/08/2025", started.ToDate)
	assert.Equal(t, "No", started.Option)

	w, _ = do(t, router, http.MethodGet, started.CaptchaURL, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, scrapertest.CaptchaPNG, w.Body.Bytes())

	w, resp = do(t, router, http.MethodPost, "/api/scrapes/"+started.ID+"/submit", gin.H{"captcha": "wrong"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, started.CaptchaURL, resp.CaptchaURL)

	w, resp = do(t, router, http.MethodPost, "/api/scrapes/"+started.ID+"/submit", gin.H{"captcha": "abc12"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, resp.Success)

	var report service.RunReport
	require.NoError(t, json.Unmarshal(resp.Data, &report))
	assert.Equal(t, 2, report.NewCount)
	assert.Len(t, report.Records, 2)
	assert.NotEmpty(t, report.ExportPath)

	w, resp = do(t, router, http.MethodGet, "/api/records?page=1&limit=1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, resp.Pagination.Total)

	// Finished sessions are gone
	w, _ = do(t, router, http.MethodGet, started.CaptchaURL, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStartScrapeValidation(t *testing.T) {
	router := setupTestRouter(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{name: "bad date", body: gin.H{"to_date": "someday"}},
		{name: "bad option", body: gin.H{"option": "maybe"}},
		{name: "no body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := do(t, router, http.MethodPost, "/api/scrapes", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.False(t, resp.Success)
		})
	}
}

func TestUnknownSession(t *testing.T) {
	router := setupTestRouter(t)

	tests := []struct {
		method string
		path   string
		body   interface{}
	}{
		{http.MethodGet, "/api/scrapes/nope/captcha", nil},
		{http.MethodPost, "/api/scrapes/nope/captcha/refresh", nil},
		{http.MethodPost, "/api/scrapes/nope/submit", gin.H{"captcha": "x"}},
		{http.MethodDelete, "/api/scrapes/nope", nil},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w, _ := do(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusNotFound, w.Code)
		})
	}
}

func TestCloseAndStats(t *testing.T) {
	session := newSession("x")
	router := setupTestRouter(t, session)

	_, resp := do(t, router, http.MethodPost, "/api/scrapes", gin.H{})
	var started struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &started))

	w, _ := do(t, router, http.MethodPost, "/api/scrapes/"+started.ID+"/captcha/refresh", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, session.Refreshes())

	w, _ = do(t, router, http.MethodGet, "/api/sessions/stats", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"size":1`)

	w, _ = do(t, router, http.MethodDelete, "/api/scrapes/"+started.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, session.Closed())
}
