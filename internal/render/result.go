package render

import (
	"encoding/base64"
	"fmt"
	"html/template"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"geosismica/internal/logger"
	"geosismica/pkg/models"
)

// Fixed labels and download contract of the results panel.
const (
	ImageCaption       = "Resultado automático"
	DescriptionHeading = "Descripción preliminar"
	DownloadLabel      = "Descargar informe técnico (PDF)"
	ReportFilename     = "reporte_sismico.pdf"
	ReportMIME         = "application/pdf"
	EmptyResultText    = "El análisis no devolvió resultados."
)

// ResultView is what the results panel shows for one successful analysis.
// Each part is independent; a nil/false part is not rendered at all.
type ResultView struct {
	Image          template.URL
	HasImage       bool
	Description    string
	HasDescription bool
	PDF            []byte
	HasPDF         bool
	Empty          bool
}

// RenderResult decodes the present fields of r. A field that fails to decode
// is dropped and logged; the others still render.
func RenderResult(r *models.AnalysisResult) ResultView {
	var view ResultView
	if r == nil {
		view.Empty = true
		return view
	}

	if r.ProcessedImage != nil {
		if data, err := DecodeWire(*r.ProcessedImage); err != nil {
			logger.WithError(err).WithField("field", models.FieldProcessedImage).Warn("Skipping undecodable result field")
		} else {
			view.Image = template.URL("data:" + imageMIME(data) + ";base64," + base64.StdEncoding.EncodeToString(data))
			view.HasImage = true
		}
	}

	if r.Description != nil {
		view.Description = *r.Description
		view.HasDescription = true
	}

	if r.PDF != nil {
		if data, err := DecodeWire(*r.PDF); err != nil {
			logger.WithError(err).WithField("field", models.FieldPDF).Warn("Skipping undecodable result field")
		} else {
			view.PDF = data
			view.HasPDF = true
		}
	}

	view.Empty = r.IsEmpty()
	return view
}

// DecodeWire decodes a base64 field. It accepts an optional data URI prefix,
// embedded whitespace and missing padding.
func DecodeWire(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', '\t', ' ':
			return -1
		}
		return r
	}, s)

	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	data, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	return data, nil
}

func imageMIME(data []byte) string {
	mt := mimetype.Detect(data)
	if strings.HasPrefix(mt.String(), "image/") {
		return mt.String()
	}
	return "image/png"
}
