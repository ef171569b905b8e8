package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/xid"

	"github.com/FangWolf96/corepoint-ingest/internal/board"
	"github.com/FangWolf96/corepoint-ingest/internal/config"
	"github.com/FangWolf96/corepoint-ingest/internal/infra/logging"
	"github.com/FangWolf96/corepoint-ingest/internal/metrics"
	"github.com/FangWolf96/corepoint-ingest/internal/reportstore"
	"github.com/FangWolf96/corepoint-ingest/internal/workbook"
)

// ReportService bundles configuration and dependencies for board analysis.
type ReportService struct {
	Config  *config.Config
	Store   *reportstore.Store
	Metrics *metrics.Metrics

	now func() time.Time
}

// NewReportService creates a service instance. A nil Redis client disables
// workbook persistence and the analysis cache; uploads are still analyzed.
func NewReportService(cfg config.Config, rdb *redis.Client) *ReportService {
	svc := &ReportService{
		Config:  &cfg,
		Metrics: metrics.Default(),
		now:     time.Now,
	}
	if rdb != nil {
		svc.Store = reportstore.New(rdb, cfg.Cache.WorkbookTTL, cfg.Cache.ReportCacheTTL)
	}
	return svc
}

// HandleIndex serves the upload page. It doubles as the liveness target.
func (svc *ReportService) HandleIndex(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, nil); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Template rendering failed")
	}
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

type resultPage struct {
	Report       *board.Report
	DownloadPath string
}

// HandleAnalyze parses an uploaded board export and responds with the report,
// as HTML by default or as JSON when the client asks for it.
func (svc *ReportService) HandleAnalyze(c *fiber.Ctx) error {
	start := svc.now()

	upload, err := readUpload(c, svc.Config.Limits.MaxUploadBytes)
	if err != nil {
		return err
	}

	// Identical uploads get the previously computed report.
	cacheKey := reportstore.AnalysisKey(upload)
	if svc.cacheEnabled() {
		if id, rep, ok := svc.Store.GetAnalysis(c.Context(), cacheKey); ok {
			svc.Metrics.CacheHits.Inc()
			logging.Info("Analysis cache hit", "report_id", id, "request_id", c.Get("X-Request-ID"))
			return svc.respond(c, rep, id)
		}
	}

	cards, err := board.ExtractCards(bytes.NewReader(upload), svc.now())
	if err != nil {
		svc.Metrics.AnalysisFailures.Inc()
		return fiber.NewError(fiber.StatusBadRequest, "Invalid HTML export: "+err.Error())
	}
	if len(cards) == 0 {
		svc.Metrics.AnalysisFailures.Inc()
		return fiber.NewError(fiber.StatusUnprocessableEntity, board.ErrNoCards.Error())
	}

	rep := board.BuildReport(cards, svc.Config.Board)

	xlsx, err := workbook.Build(rep)
	if err != nil {
		logging.Error("Workbook generation failed", "error", err.Error())
		return fiber.NewError(fiber.StatusInternalServerError, "Workbook generation failed")
	}

	id := xid.New().String()
	if svc.Store != nil {
		if err := svc.Store.SaveWorkbook(c.Context(), id, xlsx); err != nil {
			// The report itself is still useful without the download.
			logging.Warn("Workbook store write failed", "error", err)
			id = ""
		} else if svc.cacheEnabled() {
			svc.Store.SaveAnalysis(c.Context(), cacheKey, id, rep)
		}
	} else {
		id = ""
	}

	svc.Metrics.AnalysesTotal.Inc()
	svc.Metrics.CardsExtracted.Add(float64(len(cards)))
	svc.Metrics.ObserveAnalyze(start)

	logging.Info("Report generated",
		"report_id", id,
		"cards", len(cards),
		"request_id", c.Get("X-Request-ID"),
	)
	return svc.respond(c, rep, id)
}

func (svc *ReportService) cacheEnabled() bool {
	return svc.Store != nil && svc.Config.Cache.ReportCacheEnabled
}

func (svc *ReportService) respond(c *fiber.Ctx, rep *board.Report, id string) error {
	if strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON) {
		return c.JSON(fiber.Map{
			"report_id": id,
			"report":    rep,
		})
	}

	page := resultPage{Report: rep}
	if id != "" {
		page.DownloadPath = "/v1/reports/" + id + "/workbook"
	}
	var buf bytes.Buffer
	if err := resultTmpl.Execute(&buf, page); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Template rendering failed")
	}
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

// HandleWorkbookDownload streams a stored workbook as an xlsx attachment.
func (svc *ReportService) HandleWorkbookDownload(c *fiber.Ctx) error {
	if svc.Store == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "Report store unavailable")
	}

	id := c.Params("id")
	data, err := svc.Store.GetWorkbook(c.Context(), id)
	if errors.Is(err, reportstore.ErrReportNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "No report available. Upload a file first.")
	}
	if err != nil {
		logging.Error("Workbook store read failed", "error", err.Error())
		return fiber.NewError(fiber.StatusServiceUnavailable, "Report store unavailable")
	}

	filename := fmt.Sprintf("planka_report_%s.xlsx", svc.now().UTC().Format("2006-01-02"))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, "attachment; filename="+filename)
	return c.Send(data)
}

// readUpload pulls the uploaded export out of the multipart form and enforces
// the configured size limit.
func readUpload(c *fiber.Ctx, maxBytes int) ([]byte, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "No file uploaded")
	}
	if fh.Size > int64(maxBytes) {
		return nil, fiber.NewError(fiber.StatusRequestEntityTooLarge,
			fmt.Sprintf("Upload exceeds %d bytes", maxBytes))
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Cannot read uploaded file")
	}
	defer f.Close()

	buf := make([]byte, fh.Size)
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Cannot read uploaded file")
	}
	if len(bytes.TrimSpace(buf)) == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Uploaded file is empty")
	}
	return buf, nil
}
