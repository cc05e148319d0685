package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ftthdiag/diagchat/models"
)

// HostDetailsAdapter is the main lookup tool: finds a host by name, id or
// serial and summarizes its state including active problems.
type HostDetailsAdapter struct {
	Zabbix *ZabbixClient
}

func (a *HostDetailsAdapter) Declaration() models.FunctionDeclaration {
	return models.FunctionDeclaration{
		Name:        "getHostDetails",
		Description: "Busca un host específico por su nombre, ID o número de serie y devuelve un resumen de su estado, incluyendo problemas activos.",
		Parameters: models.Parameters{
			Type: "object",
			Properties: map[string]interface{}{
				"identifier": map[string]interface{}{
					"type":        "string",
					"description": `El nombre, ID, o número de serie del host a buscar. Por ejemplo: "FHTTA678754F" o "ID3612012281".`,
				},
			},
			Required: []string{"identifier"},
		},
	}
}

func (a *HostDetailsAdapter) Invoke(ctx context.Context, args map[string]interface{}) (string, error) {
	identifier := stringArg(args, "identifier")
	if identifier == "" {
		return "", fmt.Errorf("identifier argument is required")
	}

	raw, err := a.Zabbix.Call(ctx, "host.get", map[string]interface{}{
		"output":       []string{"hostid", "host", "name", "status"},
		"selectGroups": "extend",
		"search":       map[string]string{"name": identifier},
		"limit":        1,
	})
	if err != nil {
		return "", err
	}

	var hosts []zabbixHost
	if err := json.Unmarshal(raw, &hosts); err != nil {
		return "", fmt.Errorf("error unmarshalling host.get result: %w", err)
	}
	if len(hosts) == 0 {
		return fmt.Sprintf("No se encontró ningún host con el identificador %q.", identifier), nil
	}

	host := hosts[0]
	groupNames := make([]string, 0, len(host.Groups))
	for _, g := range host.Groups {
		groupNames = append(groupNames, g.Name)
	}

	raw, err = a.Zabbix.Call(ctx, "problem.get", map[string]interface{}{
		"output":  "extend",
		"hostids": []string{host.HostID},
	})
	if err != nil {
		return "", err
	}
	var problems []zabbixProblem
	if err := json.Unmarshal(raw, &problems); err != nil {
		return "", fmt.Errorf("error unmarshalling problem.get result: %w", err)
	}

	problemSummary := "Actualmente no hay problemas activos."
	if len(problems) > 0 {
		names := []string{}
		for i, p := range problems {
			if i == 3 {
				break
			}
			names = append(names, "- "+p.Name)
		}
		problemSummary = fmt.Sprintf("Tiene %d problema(s) activo(s). Los más recientes son:\n%s",
			len(problems), strings.Join(names, "\n"))
	}

	return fmt.Sprintf("Host encontrado: %s\nGrupos (Zonas): %s\nEstado: %s",
		host.Host, strings.Join(groupNames, ", "), problemSummary), nil
}

// ZabbixCallAdapter exposes one raw Zabbix API method as a tool, passing
// the model-provided params through after merging fixed defaults.
type ZabbixCallAdapter struct {
	Zabbix      *ZabbixClient
	ToolName    string
	Method      string
	Description string
	Properties  map[string]interface{}
	Required    []string
	Defaults    map[string]interface{}
}

func (a *ZabbixCallAdapter) Declaration() models.FunctionDeclaration {
	return models.FunctionDeclaration{
		Name:        a.ToolName,
		Description: a.Description,
		Parameters: models.Parameters{
			Type:       "object",
			Properties: a.Properties,
			Required:   a.Required,
		},
	}
}

func (a *ZabbixCallAdapter) Invoke(ctx context.Context, args map[string]interface{}) (string, error) {
	params := map[string]interface{}{}
	for k, v := range a.Defaults {
		params[k] = v
	}
	for k, v := range args {
		params[k] = v
	}

	raw, err := a.Zabbix.Call(ctx, a.Method, params)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// NewZabbixAdapters builds the Zabbix tool set: the composite host lookup
// plus the raw host, problem and history methods.
func NewZabbixAdapters(client *ZabbixClient) []Adapter {
	return []Adapter{
		&HostDetailsAdapter{Zabbix: client},
		&ZabbixCallAdapter{
			Zabbix:      client,
			ToolName:    "host_get",
			Method:      "host.get",
			Description: "Obtiene una lista de hosts de Zabbix con opciones de filtrado avanzadas.",
			Properties: map[string]interface{}{
				"filter": map[string]interface{}{
					"type":        "object",
					"description": "Filtra los resultados basado en propiedades del host.",
				},
				"groupids": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Devuelve solo hosts que pertenecen a los grupos dados.",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Limita el número de resultados.",
				},
			},
			Defaults: map[string]interface{}{"output": "extend", "selectGroups": "extend"},
		},
		&ZabbixCallAdapter{
			Zabbix:      client,
			ToolName:    "problem_get",
			Method:      "problem.get",
			Description: "Obtiene una lista de los problemas (alertas) activos en Zabbix.",
			Properties: map[string]interface{}{
				"hostids": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Devuelve solo problemas para los hosts con los IDs dados.",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Limita el número de resultados.",
				},
			},
			Defaults: map[string]interface{}{"output": "extend"},
		},
		&ZabbixCallAdapter{
			Zabbix:      client,
			ToolName:    "history_get",
			Method:      "history.get",
			Description: "Accede al historial de datos de un item (métrica) específico.",
			Properties: map[string]interface{}{
				"itemids": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "IDs de los items para los que se quiere obtener el historial.",
				},
				"time_from": map[string]interface{}{
					"type":        "integer",
					"description": "Timestamp de inicio (Unix).",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Limita el número de resultados.",
				},
				"history": map[string]interface{}{
					"type":        "integer",
					"description": "Tipo de historial (0: numérico, 1: texto, etc.).",
				},
			},
			Required: []string{"itemids"},
		},
	}
}
