package adapters

// Config carries the backend endpoints the adapter set talks to. All of
// them come from the environment; an empty endpoint leaves its adapter in
// place but every invocation reports a configuration error, which the
// model relays as a service problem.
type Config struct {
	ZabbixURL      string
	ZabbixToken    string
	Portal815URL   string
	Portal7750URL  string
	AltiplanoURL   string
	SimpleFibraURL string
	CortecaURL     string
}

// NewAdapterMap builds the full diagnostic tool set for a generation run.
func NewAdapterMap(cfg Config) Map {
	adapters := NewZabbixAdapters(NewZabbixClient(cfg.ZabbixURL, cfg.ZabbixToken))

	adapters = append(adapters,
		&PortalAdapter{
			ToolName:    "consultarEstatus815",
			Description: "Consulta el estado y detalles de un cliente en el router 815. Es útil para obtener la MAC de la ONT y otros datos de conexión. Se utiliza para clientes tanto en Red Propia como Alquilada que están en Zabbix. Requiere el Customer ID numérico.",
			Endpoint:    cfg.Portal815URL,
			Action:      "Action1",
			FormField:   "CID",
			ArgName:     "customerID",
			ArgDesc:     `El Customer ID del cliente a consultar, solo valor numérico. Por ejemplo: "1234567".`,
		},
		&PortalAdapter{
			ToolName:    "consultarEstatus7750",
			Description: "Consulta el estado y los detalles de un cliente en el sistema 7750 (Nokia) utilizando su Customer ID.",
			Endpoint:    cfg.Portal7750URL,
			Action:      "Action5",
			FormField:   "CID",
			ArgName:     "customerID",
			ArgDesc:     `El Customer ID del cliente a consultar. Solo valor numérico. Por ejemplo: "12345678".`,
		},
		&PortalAdapter{
			ToolName:    "consultarValoresOpticosAltiplano",
			Description: "Consulta los valores ópticos de una ONU (Unidad de Red Óptica) de Altiplano a través del customer ID.",
			Endpoint:    cfg.AltiplanoURL,
			Action:      "Action3",
			FormField:   "CID",
			ArgName:     "cid",
			ArgDesc:     `El customer id del cliente. Solo valores numéricos. Por ejemplo: "4567890".`,
		},
		&PortalAdapter{
			ToolName:    "consultarValoresOpticos",
			Description: `Consulta los valores ópticos (potencia de recepción/transmisión) de una ONU en la red de INTER (Red Alquilada). Se usa cuando el hostgroup de Zabbix NO contiene "Red propia" O cuando en 7750 el nombre de la OLT empieza por "HUB-". Requiere el número de serie de la ONU.`,
			Endpoint:    cfg.SimpleFibraURL,
			Action:      "Action3",
			FormField:   "serial",
			ArgName:     "serial",
			ArgDesc:     `El número de serie de la ONU a consultar. Por ejemplo: "FHTT12345678".`,
		},
		&CortecaAdapter{Endpoint: cfg.CortecaURL},
	)

	m := make(Map, len(adapters))
	for _, a := range adapters {
		m[a.Declaration().Name] = a
	}
	return m
}
