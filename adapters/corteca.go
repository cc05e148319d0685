package adapters

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/ftthdiag/diagchat/models"
)

// CortecaAdapter runs the advanced Wi-Fi diagnostic for Nokia ONTs. The
// backend holds the request open while the diagnostic completes, roughly
// one minute, so this adapter carries a much longer timeout than the rest.
type CortecaAdapter struct {
	Endpoint string
	Timeout  time.Duration
}

func (a *CortecaAdapter) Declaration() models.FunctionDeclaration {
	return models.FunctionDeclaration{
		Name:        "performCortecaDiagnostic",
		Description: `Realiza un diagnóstico avanzado de Wi-Fi para ONTs Nokia (serial empieza con "ALCL"). PRE-REQUISITO: Esta herramienta REQUIERE una dirección MAC obtenida primero con consultarEstatus815 o consultarEstatus7750, ajustada restando 4 al último octeto y formateada a MAYÚSCULAS con guiones. Informa al usuario que la operación tarda ~1 minuto.`,
		Parameters: models.Parameters{
			Type: "object",
			Properties: map[string]interface{}{
				"macAddress": map[string]interface{}{
					"type":        "string",
					"description": `La dirección MAC completa para la cual se desea realizar el diagnóstico, siempre en mayúscula y separada por "-". Ejemplo: "00-1A-2B-3C-4D-5E".`,
				},
			},
			Required: []string{"macAddress"},
		},
	}
}

func (a *CortecaAdapter) Invoke(ctx context.Context, args map[string]interface{}) (string, error) {
	mac := stringArg(args, "macAddress")
	if mac == "" {
		return "", fmt.Errorf("macAddress argument is required")
	}

	timeout := a.Timeout
	if timeout == 0 {
		timeout = 90 * time.Second
	}

	form := url.Values{}
	form.Set("MAC", mac)
	return postForm(ctx, a.Endpoint, form, timeout)
}
