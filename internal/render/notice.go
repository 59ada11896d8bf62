package render

import (
	"fmt"

	"geosismica/pkg/models"
)

type NoticeLevel string

const (
	LevelSuccess NoticeLevel = "success"
	LevelWarning NoticeLevel = "warning"
	LevelError   NoticeLevel = "error"
)

// Notice is the banner shown above the results panel.
type Notice struct {
	Level NoticeLevel
	Text  string
}

// NoticeFor maps an outcome to the user-facing message. The three failure
// kinds each have their own text.
func NoticeFor(o models.Outcome) Notice {
	switch o.Kind {
	case models.OutcomeSuccess:
		return Notice{Level: LevelSuccess, Text: "Análisis completado"}
	case models.OutcomeServerError:
		return Notice{Level: LevelError, Text: fmt.Sprintf(
			"Error en el servidor (n8n): %d - Verifica que el Webhook esté escuchando.", o.StatusCode)}
	case models.OutcomeMalformedBody:
		return Notice{Level: LevelWarning, Text: fmt.Sprintf(
			"n8n respondió correctamente (%d) pero no devolvió JSON válido. Revisa el nodo final 'Respond to Webhook' en n8n.", o.StatusCode)}
	case models.OutcomeTransportFailure:
		return Notice{Level: LevelError, Text: "Fallo de conexión con n8n: " + o.Message}
	default:
		return Notice{Level: LevelError, Text: "Resultado desconocido: " + string(o.Kind)}
	}
}

// ValidationNotice wraps a local rejection (bad extension, empty file, ...).
func ValidationNotice(text string) Notice {
	return Notice{Level: LevelError, Text: text}
}
