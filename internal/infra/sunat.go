package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SUNATPayload is sent by the Go worker pool to the SUNAT emission sidecar.
// The sidecar builds the UBL XML, signs it and talks to the SUNAT SOAP
// endpoints, returning the CPE hash (or a rejection).
type SUNATPayload struct {
	RUCEmisor       string  `json:"ruc_emisor"`
	TipoComprobante string  `json:"tipo_comprobante"` // factura | boleta
	Serie           string  `json:"serie"`
	Correlativo     int64   `json:"correlativo"`
	TipoDocReceptor string  `json:"tipo_doc_receptor"` // "6"=RUC, "1"=DNI, "0"=sin documento
	NroDocReceptor  string  `json:"nro_doc_receptor"`
	MontoBase       float64 `json:"monto_base"`
	MontoIGV        float64 `json:"monto_igv"`
	MontoTotal      float64 `json:"monto_total"`
	VentaID         string  `json:"venta_id"`
}

// SUNATResponse is returned by the sidecar after submitting the CPE.
type SUNATResponse struct {
	HashCPE       string `json:"hash_cpe"`
	Ticket        string `json:"ticket"`
	Resultado     string `json:"resultado"` // "A" (aceptado) | "R" (rechazado)
	Observaciones []struct {
		Codigo  string `json:"codigo"`
		Mensaje string `json:"mensaje"`
	} `json:"observaciones"`
}

// SUNATClient is an HTTP client that delegates electronic emission to the
// sidecar. The decoupling keeps SUNAT outages out of the sale transaction:
// a venta is numbered and committed before any emission attempt.
type SUNATClient struct {
	sidecarURL string
	httpClient *http.Client
}

func NewSUNATClient(sidecarURL string) *SUNATClient {
	return &SUNATClient{
		sidecarURL: sidecarURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Emitir sends a POST to the sidecar and returns the emission result.
func (c *SUNATClient) Emitir(ctx context.Context, payload SUNATPayload) (*SUNATResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("sunat: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.sidecarURL+"/emitir", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("sunat: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sunat: sidecar unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sunat: sidecar returned %d", resp.StatusCode)
	}

	var result SUNATResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("sunat: decode response: %w", err)
	}
	return &result, nil
}
