package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/FangWolf96/corepoint-ingest/internal/config"
)

const sampleExport = `<!doctype html>
<div class="_outerWrapper_a1">
  <div class="_headerName_a1">Parts Ordered</div>
  <div class="card">Compressor swap Received: 7/1/25 Quoted Price $: 1,250</div>
  <div class="card">Thermostat fault Received 6/30/2025</div>
</div>
<div class="_outerWrapper_b2">
  <div class="_headerName_b2">Completed</div>
  <div class="card">Warranty visit Received: 2025-07-10 Quoted Price: 900</div>
</div>`

func testConfig() config.Config {
	var cfg config.Config
	cfg.Limits.MaxUploadBytes = 1024 * 1024
	cfg.Cache.WorkbookTTL = time.Hour
	cfg.Cache.ReportCacheEnabled = true
	cfg.Cache.ReportCacheTTL = time.Hour
	cfg.Board = config.DefaultBoard()
	return cfg
}

func testApp(t *testing.T, withRedis bool) (*fiber.App, *ReportService) {
	t.Helper()

	var rdb *redis.Client
	if withRedis {
		mr := miniredis.RunT(t)
		rdb = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })
	}

	svc := NewReportService(testConfig(), rdb)
	app := fiber.New()
	app.Get("/", svc.HandleIndex)
	app.Post("/v1/reports", svc.HandleAnalyze)
	app.Get("/v1/reports/:id/workbook", svc.HandleWorkbookDownload)
	return app, svc
}

func uploadRequest(t *testing.T, body string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", "board.html")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte(body)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest("POST", "/v1/reports", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestHandleIndex(t *testing.T) {
	app, _ := testApp(t, false)

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatalf("index request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "CorePoint Board Analyzer") {
		t.Fatalf("expected upload page content")
	}
}

func TestHandleAnalyze_MissingFile(t *testing.T) {
	app, _ := testApp(t, false)

	req := httptest.NewRequest("POST", "/v1/reports", strings.NewReader("nope"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, _ := app.Test(req)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for missing file, got %d", resp.StatusCode)
	}
}

func TestHandleAnalyze_NoCards(t *testing.T) {
	app, _ := testApp(t, false)

	resp, _ := app.Test(uploadRequest(t, "<html><body><p>not a board</p></body></html>"))
	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for export without cards, got %d", resp.StatusCode)
	}
}

func TestHandleAnalyze_TooLarge(t *testing.T) {
	app, svc := testApp(t, false)
	svc.Config.Limits.MaxUploadBytes = 16

	resp, _ := app.Test(uploadRequest(t, sampleExport))
	if resp.StatusCode != fiber.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", resp.StatusCode)
	}
}

func TestHandleAnalyze_HTMLReportAndDownload(t *testing.T) {
	app, _ := testApp(t, true)

	resp, err := app.Test(uploadRequest(t, sampleExport))
	if err != nil {
		t.Fatalf("analyze request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	page := string(body)
	if !strings.Contains(page, "All cards (excluding Completed/Canceled)") {
		t.Fatalf("expected scope table in report page")
	}
	if !strings.Contains(page, "/v1/reports/") {
		t.Fatalf("expected download link in report page")
	}

	// follow the download link
	start := strings.Index(page, "/v1/reports/")
	end := strings.Index(page[start:], `"`)
	link := page[start : start+end]

	dl, err := app.Test(httptest.NewRequest("GET", link, nil))
	if err != nil {
		t.Fatalf("download request failed: %v", err)
	}
	if dl.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 download, got %d", dl.StatusCode)
	}
	if ct := dl.Header.Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Fatalf("expected xlsx content type, got %q", ct)
	}
	if cd := dl.Header.Get("Content-Disposition"); !strings.Contains(cd, "planka_report_") {
		t.Fatalf("expected attachment filename, got %q", cd)
	}
}

func TestHandleAnalyze_JSONResponse(t *testing.T) {
	app, _ := testApp(t, true)

	req := uploadRequest(t, sampleExport)
	req.Header.Set("Accept", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("analyze request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var payload struct {
		ReportID string `json:"report_id"`
		Report   struct {
			Scope []struct {
				Scope string `json:"scope"`
				Count int    `json:"count"`
			} `json:"scope"`
			Quoted struct {
				WonTotal int `json:"won_total"`
			} `json:"quoted"`
		} `json:"report"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if payload.ReportID == "" {
		t.Fatalf("expected a report id")
	}
	if len(payload.Report.Scope) == 0 || payload.Report.Scope[0].Count != 2 {
		t.Fatalf("unexpected scope rows: %+v", payload.Report.Scope)
	}
	if payload.Report.Quoted.WonTotal != 900 {
		t.Fatalf("expected won total 900, got %d", payload.Report.Quoted.WonTotal)
	}
}

func TestHandleAnalyze_CacheHitOnIdenticalUpload(t *testing.T) {
	app, _ := testApp(t, true)

	req1 := uploadRequest(t, sampleExport)
	req1.Header.Set("Accept", "application/json")
	resp1, _ := app.Test(req1)
	var first struct {
		ReportID string `json:"report_id"`
	}
	if err := json.NewDecoder(resp1.Body).Decode(&first); err != nil {
		t.Fatalf("decode first response: %v", err)
	}

	req2 := uploadRequest(t, sampleExport)
	req2.Header.Set("Accept", "application/json")
	resp2, _ := app.Test(req2)
	var second struct {
		ReportID string `json:"report_id"`
	}
	if err := json.NewDecoder(resp2.Body).Decode(&second); err != nil {
		t.Fatalf("decode second response: %v", err)
	}

	if first.ReportID == "" || first.ReportID != second.ReportID {
		t.Fatalf("expected identical uploads to share a report id: %q vs %q", first.ReportID, second.ReportID)
	}
}

func TestHandleWorkbookDownload_UnknownID(t *testing.T) {
	app, _ := testApp(t, true)

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/reports/doesnotexist/workbook", nil))
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 for unknown report, got %d", resp.StatusCode)
	}
}

func TestHandleWorkbookDownload_NoStore(t *testing.T) {
	app, _ := testApp(t, false)

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/reports/x/workbook", nil))
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a report store, got %d", resp.StatusCode)
	}
}

func TestHandleAnalyze_WithoutRedisStillAnalyzes(t *testing.T) {
	app, _ := testApp(t, false)

	resp, _ := app.Test(uploadRequest(t, sampleExport))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 without redis, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if strings.Contains(string(body), "Download Excel") {
		t.Fatalf("download link must be absent when no store is configured")
	}
}
