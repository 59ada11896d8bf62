package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"geosismica/internal/logger"
	"geosismica/pkg/models"

	"github.com/sirupsen/logrus"
)

// FieldName is the multipart part the n8n webhook reads the image from.
const FieldName = "data"

// maxResponseSize bounds the JSON answer, which embeds an image and a PDF in base64.
const maxResponseSize = 64 << 20

// Analyzer sends one uploaded file to the remote endpoint and classifies the answer.
type Analyzer interface {
	Analyze(ctx context.Context, file *models.UploadedFile) models.Outcome
}

// HTTPAnalyzer implements Analyzer against an HTTP endpoint
type HTTPAnalyzer struct {
	endpoint string
	client   *http.Client
}

// NewHTTPAnalyzer creates an analyzer posting to endpoint. timeout caps the
// whole exchange, including reading the response body.
func NewHTTPAnalyzer(endpoint string, timeout time.Duration) *HTTPAnalyzer {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   15 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,

		// No ResponseHeaderTimeout: the webhook only answers once the AI
		// pipeline is done, so the client timeout is the only ceiling.
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &HTTPAnalyzer{
		endpoint: endpoint,
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
	}
}

// Endpoint returns the URL uploads are posted to.
func (a *HTTPAnalyzer) Endpoint() string {
	return a.endpoint
}

// Analyze posts file.Data as the single multipart part "data". It makes one
// attempt and always returns exactly one outcome.
func (a *HTTPAnalyzer) Analyze(ctx context.Context, file *models.UploadedFile) models.Outcome {
	start := time.Now()
	outcome := a.analyze(ctx, file)
	outcome.Duration = time.Since(start)

	logger.WithFields(logrus.Fields{
		"endpoint":    a.endpoint,
		"outcome":     outcome.Kind,
		"status_code": outcome.StatusCode,
		"duration_ms": outcome.Duration.Milliseconds(),
	}).Debug("Analysis request finished")

	return outcome
}

func (a *HTTPAnalyzer) analyze(ctx context.Context, file *models.UploadedFile) models.Outcome {
	body, contentType, err := encodeMultipart(file)
	if err != nil {
		return models.TransportFailure(fmt.Errorf("failed to build request body: %w", err), false)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, body)
	if err != nil {
		return models.TransportFailure(fmt.Errorf("invalid endpoint: %w", err), false)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "GeoSismicIA/1.0")

	resp, err := a.client.Do(req)
	if err != nil {
		return models.TransportFailure(err, isTimeout(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused; the body is never parsed.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return models.ServerError(resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return models.TransportFailure(fmt.Errorf("failed to read response: %w", err), isTimeout(err))
	}

	result, err := ParseResult(raw)
	if err != nil {
		return models.MalformedBody(resp.StatusCode, err)
	}
	return models.Success(resp.StatusCode, result)
}

// ParseResult decodes the endpoint's JSON answer. The body must be a JSON
// object, or an array holding exactly one object as n8n emits when the
// webhook responds with all incoming items.
func ParseResult(raw []byte) (*models.AnalysisResult, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("empty response body")
	}

	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		if len(items) != 1 {
			return nil, fmt.Errorf("expected a single JSON object, got an array of %d items", len(items))
		}
		trimmed = bytes.TrimSpace(items[0])
	}

	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errors.New("response is not a JSON object")
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(trimmed, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeMultipart(file *models.UploadedFile) (*bytes.Buffer, string, error) {
	filename := file.Filename
	if filename == "" {
		filename = FieldName
	}
	partType := file.ContentType
	if partType == "" {
		partType = "application/octet-stream"
	}

	body := bytes.NewBuffer(make([]byte, 0, len(file.Data)+512))
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, quoteEscaper.Replace(FieldName), quoteEscaper.Replace(filename)))
	header.Set("Content-Type", partType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
