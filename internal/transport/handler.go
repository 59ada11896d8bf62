package transport

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	apperrors "geosismica/internal/errors"
	"geosismica/internal/logger"
	"geosismica/internal/observer"
	"geosismica/internal/render"
	"geosismica/internal/repository"
	"geosismica/internal/service"
	"geosismica/internal/web"
)

const (
	// SessionCookie carries the session id between page interactions.
	SessionCookie = "geosismica_session"
	// UploadField is the form field of the file input.
	UploadField = "archivo"

	requestIDHeader = "X-Request-ID"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// StatsProvider exposes the running counters on /health.
type StatsProvider interface {
	Snapshot() observer.Stats
}

type Options struct {
	Templates      *template.Template
	Layout         web.Layout
	MaxRequestBody int64
	SessionTTL     time.Duration
	Version        string
}

type handler struct {
	svc   service.SeismicService
	stats StatsProvider
	opts  Options
}

func NewHandler(svc service.SeismicService, stats StatsProvider, opts Options) http.Handler {
	h := &handler{svc: svc, stats: stats, opts: opts}

	r := gin.New()
	r.SetHTMLTemplate(opts.Templates)

	// Add middleware
	r.Use(
		requestID(),
		requestLogger(),
		gin.Recovery(),
		requestSizeLimiter(opts.MaxRequestBody),
	)

	// Configure routes
	r.GET("/", h.index)
	r.POST("/upload", h.upload)
	r.POST("/analyze", h.analyze)
	r.GET("/report", h.report)
	r.GET("/health", h.healthCheck)

	return r
}

func (h *handler) index(c *gin.Context) {
	sess, err := h.svc.Session(c.Request.Context(), sessionID(c))
	if err != nil {
		respondError(c, determineStatusCode(err), "failed to load session", err)
		return
	}
	h.renderPage(c, http.StatusOK, sess, nil)
}

func (h *handler) upload(c *gin.Context) {
	ctx := c.Request.Context()

	fh, err := c.FormFile(UploadField)
	if err != nil {
		if isBodyTooLarge(err) {
			sess, sessErr := h.svc.Session(ctx, sessionID(c))
			if sessErr != nil {
				respondError(c, determineStatusCode(sessErr), "failed to load session", sessErr)
				return
			}
			notice := render.ValidationNotice(fmt.Sprintf(
				"El archivo supera el límite de %d MB", h.opts.Layout.MaxUploadMB))
			h.renderPage(c, http.StatusRequestEntityTooLarge, sess, &notice)
			return
		}
		// Nothing chosen; the page stays as it was.
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	data, err := readFormFile(fh)
	if err != nil {
		respondError(c, http.StatusBadRequest, "failed to read upload", err)
		return
	}

	sess, err := h.svc.Upload(ctx, sessionID(c), service.UploadInput{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil && !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		respondError(c, determineStatusCode(err), "failed to store upload", err)
		return
	}
	if sess == nil {
		respondError(c, http.StatusInternalServerError, "failed to store upload", err)
		return
	}

	logger.WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"session_id": sess.ID,
		"filename":   fh.Filename,
		"size_bytes": len(data),
		"accepted":   err == nil,
	}).Info("Upload processed")

	h.setSessionCookie(c, sess.ID)
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *handler) analyze(c *gin.Context) {
	ctx := c.Request.Context()
	id := sessionID(c)

	sess, err := h.svc.Analyze(ctx, id)
	if err != nil {
		if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
			respondError(c, determineStatusCode(err), "analysis failed", err)
			return
		}
		if sess == nil {
			if sess, err = h.svc.Session(ctx, id); err != nil {
				respondError(c, determineStatusCode(err), "failed to load session", err)
				return
			}
		}
		notice := render.ValidationNotice("Primero carga una línea sísmica")
		h.renderPage(c, http.StatusBadRequest, sess, &notice)
		return
	}

	h.setSessionCookie(c, sess.ID)
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *handler) report(c *gin.Context) {
	data, err := h.svc.Report(c.Request.Context(), sessionID(c))
	if err != nil {
		respondError(c, determineStatusCode(err), "no report available", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, render.ReportFilename))
	c.Data(http.StatusOK, render.ReportMIME, data)
}

func (h *handler) healthCheck(c *gin.Context) {
	body := gin.H{
		"status":  "available",
		"version": h.opts.Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}
	if h.stats != nil {
		body["stats"] = h.stats.Snapshot()
	}
	c.JSON(http.StatusOK, body)
}

func (h *handler) renderPage(c *gin.Context, code int, sess *repository.Session, notice *render.Notice) {
	page := web.BuildPage(h.opts.Layout, sess)
	if notice != nil {
		page.Notice = notice
	}
	if sess != nil {
		h.setSessionCookie(c, sess.ID)
	}
	c.HTML(code, web.PageTemplate, page)
}

func (h *handler) setSessionCookie(c *gin.Context, id string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, id, int(h.opts.SessionTTL.Seconds()), "/", "", false, true)
}

func sessionID(c *gin.Context) string {
	id, err := c.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return id
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func isBodyTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return true
	}
	// multipart does not always wrap the reader error
	return strings.Contains(err.Error(), "request body too large")
}

// Middleware and helper functions
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"request_id":  c.GetString("request_id"),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status_code": c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}).Info("Request handled")
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

func determineStatusCode(err error) int {
	// Check if it's a custom app error first
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	// Fallback to context-based errors
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	// Log the error with context
	logger.WithError(err).WithFields(logrus.Fields{
		"request_id":  c.GetString("request_id"),
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	resp := ErrorResponse{Error: http.StatusText(code), Message: message}
	if err != nil {
		resp.Message = fmt.Sprintf("%s: %v", message, err)
	}
	c.AbortWithStatusJSON(code, resp)
}
