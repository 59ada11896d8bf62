package analysis

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geosismica/pkg/models"
)

func testFile(data []byte) *models.UploadedFile {
	return &models.UploadedFile{Filename: "linea.png", ContentType: "image/png", Data: data}
}

func TestHTTPAnalyzer_Classification(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantKind   models.OutcomeKind
		wantStatus int
	}{
		{
			name:       "Success with all fields",
			status:     200,
			body:       `{"imagen_procesada":"aGVsbG8=","descripcion":"Falla normal","pdf":"JVBERi0="}`,
			wantKind:   models.OutcomeSuccess,
			wantStatus: 200,
		},
		{
			name:       "Success on other 2xx",
			status:     201,
			body:       `{"descripcion":"X"}`,
			wantKind:   models.OutcomeSuccess,
			wantStatus: 201,
		},
		{
			name:       "Single item array from n8n",
			status:     200,
			body:       `[{"descripcion":"X"}]`,
			wantKind:   models.OutcomeSuccess,
			wantStatus: 200,
		},
		{
			name:       "HTML body on 200",
			status:     200,
			body:       `<html>Workflow was started</html>`,
			wantKind:   models.OutcomeMalformedBody,
			wantStatus: 200,
		},
		{
			name:       "Empty body on 200",
			status:     200,
			body:       ``,
			wantKind:   models.OutcomeMalformedBody,
			wantStatus: 200,
		},
		{
			name:       "JSON string instead of object",
			status:     200,
			body:       `"ok"`,
			wantKind:   models.OutcomeMalformedBody,
			wantStatus: 200,
		},
		{
			name:       "Server error ignores valid JSON body",
			status:     500,
			body:       `{"descripcion":"should not be parsed"}`,
			wantKind:   models.OutcomeServerError,
			wantStatus: 500,
		},
		{
			name:       "Webhook not registered",
			status:     404,
			body:       `{"message":"The requested webhook is not registered."}`,
			wantKind:   models.OutcomeServerError,
			wantStatus: 404,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			outcome := NewHTTPAnalyzer(server.URL, 5*time.Second).Analyze(context.Background(), testFile([]byte("png")))

			assert.Equal(t, tt.wantKind, outcome.Kind)
			assert.Equal(t, tt.wantStatus, outcome.StatusCode)
			if tt.wantKind == models.OutcomeSuccess {
				require.NotNil(t, outcome.Result)
				require.NotNil(t, outcome.Result.Description)
			} else {
				assert.Nil(t, outcome.Result)
			}
		})
	}
}

func TestHTTPAnalyzer_ServerErrorDoesNotParse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("not json at all"))
	}))
	defer server.Close()

	outcome := NewHTTPAnalyzer(server.URL, 5*time.Second).Analyze(context.Background(), testFile([]byte("png")))

	assert.Equal(t, models.ServerError(500).Kind, outcome.Kind)
	assert.Equal(t, 500, outcome.StatusCode)
	assert.Empty(t, outcome.Message)
}

func TestHTTPAnalyzer_SendsOriginalBytes(t *testing.T) {
	original := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0x00, 0xff, 0x10, 0x00}
	var received []byte
	var partName, partFile, partType string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		reader, err := r.MultipartReader()
		require.NoError(t, err)

		parts := 0
		for {
			part, err := reader.NextPart()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			parts++
			partName = part.FormName()
			partFile = part.FileName()
			partType = part.Header.Get("Content-Type")
			received, _ = io.ReadAll(part)
		}
		assert.Equal(t, 1, parts, "expected exactly one multipart part")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	outcome := NewHTTPAnalyzer(server.URL, 5*time.Second).Analyze(context.Background(), testFile(original))

	assert.True(t, outcome.IsSuccess())
	assert.Equal(t, "data", partName)
	assert.Equal(t, "linea.png", partFile)
	assert.Equal(t, "image/png", partType)
	assert.True(t, bytes.Equal(original, received), "sent bytes differ from the upload")
}

func TestHTTPAnalyzer_DefaultPartFilename(t *testing.T) {
	var partFile, partType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("data")
		require.NoError(t, err)
		defer file.Close()
		partFile = header.Filename
		partType = header.Header.Get("Content-Type")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	NewHTTPAnalyzer(server.URL, 5*time.Second).Analyze(context.Background(), &models.UploadedFile{Data: []byte("x")})

	assert.Equal(t, "data", partFile)
	assert.Equal(t, "application/octet-stream", partType)
}

func TestHTTPAnalyzer_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-time.After(5 * time.Second):
		}
	}))
	defer server.Close()
	defer close(release)

	start := time.Now()
	outcome := NewHTTPAnalyzer(server.URL, 100*time.Millisecond).Analyze(context.Background(), testFile([]byte("png")))

	assert.Equal(t, models.OutcomeTransportFailure, outcome.Kind)
	assert.True(t, outcome.Timeout)
	assert.Contains(t, outcome.Message, "deadline exceeded")
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestHTTPAnalyzer_ConnectionRefused(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	outcome := NewHTTPAnalyzer("http://"+addr+"/webhook/seismic-upload", time.Second).
		Analyze(context.Background(), testFile([]byte("png")))

	assert.Equal(t, models.OutcomeTransportFailure, outcome.Kind)
	assert.False(t, outcome.Timeout)
	assert.NotEmpty(t, outcome.Message)
	assert.Zero(t, outcome.StatusCode)
}

func TestHTTPAnalyzer_SingleAttempt(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	outcome := NewHTTPAnalyzer(server.URL, time.Second).Analyze(context.Background(), testFile([]byte("png")))

	assert.Equal(t, models.OutcomeServerError, outcome.Kind)
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
}

func TestParseResult(t *testing.T) {
	result, err := ParseResult([]byte(` {"descripcion":"X","extra":1} `))
	require.NoError(t, err)
	assert.Equal(t, "X", *result.Description)
	assert.Nil(t, result.PDF)

	result, err = ParseResult([]byte(`{}`))
	require.NoError(t, err)
	assert.True(t, result.IsEmpty())

	for _, body := range []string{"", "null", "[]", `[{"a":1},{"b":2}]`, `{"descripcion":`, "42", `{"descripcion":5}`} {
		_, err := ParseResult([]byte(body))
		assert.Error(t, err, body)
	}
}
