package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestZabbixCall_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req zabbixRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Bad request body: %v", err)
		}
		if req.JSONRPC != "2.0" || req.Auth != "token123" {
			t.Errorf("Unexpected request envelope: %+v", req)
		}
		w.Write([]byte(`{"jsonrpc":"2.0","result":[{"hostid":"1"}],"id":1}`))
	}))
	defer server.Close()

	client := NewZabbixClient(server.URL, "token123")
	result, err := client.Call(context.Background(), "host.get", map[string]string{})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if string(result) != `[{"hostid":"1"}]` {
		t.Errorf("Unexpected result: %s", result)
	}
}

func TestZabbixCall_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","error":{"code":-32602,"message":"Invalid params","data":"bad auth"},"id":1}`))
	}))
	defer server.Close()

	client := NewZabbixClient(server.URL, "token123")
	_, err := client.Call(context.Background(), "host.get", nil)
	if err == nil {
		t.Fatal("Expected API error")
	}
	if !strings.Contains(err.Error(), "Invalid params") {
		t.Errorf("Expected error message passthrough, got %v", err)
	}
}

func TestHostDetails_FoundWithProblems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req zabbixRequest
		json.NewDecoder(r.Body).Decode(&req)
		switch req.Method {
		case "host.get":
			w.Write([]byte(`{"jsonrpc":"2.0","result":[{"hostid":"42","host":"FHTT12345678 ID999","name":"cliente","status":"0","groups":[{"name":"Clientes FTTH POC (Caracas) - Red propia"}]}],"id":1}`))
		case "problem.get":
			w.Write([]byte(`{"jsonrpc":"2.0","result":[{"name":"Link down"}],"id":1}`))
		default:
			t.Errorf("Unexpected method %s", req.Method)
		}
	}))
	defer server.Close()

	adapter := &HostDetailsAdapter{Zabbix: NewZabbixClient(server.URL, "tok")}
	out, err := adapter.Invoke(context.Background(), map[string]interface{}{"identifier": "FHTT12345678"})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !strings.Contains(out, "FHTT12345678") || !strings.Contains(out, "Red propia") {
		t.Errorf("Summary missing host details: %s", out)
	}
	if !strings.Contains(out, "1 problema(s)") || !strings.Contains(out, "Link down") {
		t.Errorf("Summary missing problems: %s", out)
	}
}

func TestHostDetails_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","result":[],"id":1}`))
	}))
	defer server.Close()

	adapter := &HostDetailsAdapter{Zabbix: NewZabbixClient(server.URL, "tok")}
	out, err := adapter.Invoke(context.Background(), map[string]interface{}{"identifier": "NADA"})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !strings.Contains(out, "No se encontró") {
		t.Errorf("Expected not-found message, got %s", out)
	}
}

func TestPortalAdapter_FormAndResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm failed: %v", err)
		}
		if r.PostForm.Get("action") != "Action5" || r.PostForm.Get("CID") != "12345678" {
			t.Errorf("Unexpected form: %v", r.PostForm)
		}
		w.Write([]byte(`{"result":"Cliente enable, OLT CARACAS-01"}`))
	}))
	defer server.Close()

	adapter := &PortalAdapter{
		ToolName:  "consultarEstatus7750",
		Endpoint:  server.URL,
		Action:    "Action5",
		FormField: "CID",
		ArgName:   "customerID",
	}
	out, err := adapter.Invoke(context.Background(), map[string]interface{}{"customerID": "12345678"})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if out != "Cliente enable, OLT CARACAS-01" {
		t.Errorf("Unexpected output: %q", out)
	}
}

func TestPortalAdapter_BackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"equipo no responde"}`))
	}))
	defer server.Close()

	adapter := &PortalAdapter{
		ToolName:  "consultarEstatus815",
		Endpoint:  server.URL,
		Action:    "Action1",
		FormField: "CID",
		ArgName:   "customerID",
	}
	_, err := adapter.Invoke(context.Background(), map[string]interface{}{"customerID": "1"})
	if err == nil || !strings.Contains(err.Error(), "equipo no responde") {
		t.Errorf("Expected backend error surfaced, got %v", err)
	}
}

func TestPortalAdapter_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"result":"tarde"}`))
	}))
	defer server.Close()

	adapter := &PortalAdapter{
		ToolName:  "consultarValoresOpticos",
		Endpoint:  server.URL,
		Action:    "Action3",
		FormField: "serial",
		ArgName:   "serial",
		Timeout:   20 * time.Millisecond,
	}
	_, err := adapter.Invoke(context.Background(), map[string]interface{}{"serial": "FHTT12345678"})
	if err == nil {
		t.Fatal("Expected timeout error")
	}
}

func TestPortalAdapter_MissingArgument(t *testing.T) {
	adapter := &PortalAdapter{ToolName: "consultarEstatus815", Endpoint: "http://unused", ArgName: "customerID"}
	if _, err := adapter.Invoke(context.Background(), nil); err == nil {
		t.Error("Expected error for missing argument")
	}
}

func TestNewAdapterMap_AllToolsPresent(t *testing.T) {
	m := NewAdapterMap(Config{})
	expected := []string{
		"getHostDetails", "host_get", "problem_get", "history_get",
		"consultarEstatus815", "consultarEstatus7750",
		"consultarValoresOpticosAltiplano", "consultarValoresOpticos",
		"performCortecaDiagnostic",
	}
	for _, name := range expected {
		if _, ok := m[name]; !ok {
			t.Errorf("Missing adapter %s", name)
		}
	}
	if len(m) != len(expected) {
		t.Errorf("Expected %d adapters, got %d", len(expected), len(m))
	}
	for name, a := range m {
		if a.Declaration().Name != name {
			t.Errorf("Adapter keyed as %s declares %s", name, a.Declaration().Name)
		}
	}
}
