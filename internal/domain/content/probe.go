package content

import (
	"context"
	"fmt"
	"time"

	"clinic-content-gateway/internal/platform/httpclient"
	"clinic-content-gateway/internal/platform/logger"
	"clinic-content-gateway/internal/ports/pinning"
)

const DefaultProbeTimeout = 8 * time.Second

type PinReport struct {
	Provider string         `json:"provider"`
	Status   pinning.Status `json:"status"`
	Count    int            `json:"count,omitempty"`
	Error    string         `json:"error,omitempty"`
}

type GatewayReport struct {
	URL           string `json:"url"`
	Available     bool   `json:"available"`
	StatusCode    int    `json:"statusCode,omitempty"`
	ContentType   string `json:"contentType,omitempty"`
	ContentLength int64  `json:"contentLength,omitempty"`
	Error         string `json:"error,omitempty"`
}

type ProbeReport struct {
	Status            string                   `json:"status"`
	ContentIdentifier string                   `json:"contentIdentifier"`
	Timestamp         time.Time                `json:"timestamp"`
	Family            Family                   `json:"family"`
	ProviderPinStatus PinReport                `json:"providerPinStatus"`
	Gateways          map[string]GatewayReport `json:"gateways"`
	Error             string                   `json:"error,omitempty"`
}

// Prober revisa pin y disponibilidad en todos los gateways conocidos.
// No comparte estado con el Retriever y nunca está en el camino de lectura.
// Secuencial a propósito: orden y resultados deterministas.
type Prober struct {
	pins     pinning.PinService
	gateways []Gateway
	http     *httpclient.Client
	timeout  time.Duration
	log      logger.Logger
	metrics  *Metrics
	now      func() time.Time
}

func NewProber(pins pinning.PinService, gateways []Gateway, hc *httpclient.Client, timeout time.Duration, log logger.Logger, metrics *Metrics) *Prober {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	if hc == nil {
		hc = httpclient.NewPerAttempt(0)
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Prober{
		pins:     pins,
		gateways: gateways,
		http:     hc,
		timeout:  timeout,
		log:      log.With(map[string]any{"component": "prober"}),
		metrics:  metrics,
		now:      time.Now,
	}
}

// Probe nunca devuelve error: cada falla queda registrada en el reporte.
// Un panic inesperado se convierte en un reporte con status "error".
func (p *Prober) Probe(ctx context.Context, raw string) (rep ProbeReport) {
	id := Normalize(raw)
	rep = ProbeReport{
		Status:            "success",
		ContentIdentifier: id,
		Timestamp:         p.now().UTC(),
		Family:            FamilyOf(id),
		Gateways:          map[string]GatewayReport{},
	}

	defer func() {
		if r := recover(); r != nil {
			p.log.Error("probe panicked", map[string]any{"cid": id, "panic": fmt.Sprint(r)})
			rep.Status = "error"
			rep.Error = fmt.Sprintf("probe failed: %v", r)
		}
	}()

	rep.ProviderPinStatus = p.pinStatus(ctx, id)
	for _, g := range p.gateways {
		rep.Gateways[reportKey(rep.Gateways, g)] = p.checkGateway(ctx, g, id)
	}
	return rep
}

func (p *Prober) pinStatus(ctx context.Context, id string) PinReport {
	rep := PinReport{Provider: "pinata", Status: pinning.StatusNoCredentials}
	if p.pins == nil || !p.pins.IsConfigured() {
		p.metrics.probeCheck("provider", string(rep.Status))
		return rep
	}

	cctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	info, err := p.pins.PinStatus(cctx, id)
	rep.Status = info.Status
	rep.Count = info.Count
	if err != nil {
		rep.Status = pinning.StatusError
		rep.Error = err.Error()
	}
	p.metrics.probeCheck("provider", string(rep.Status))
	return rep
}

// reportKey usa el nombre del gateway; si otro gateway del mismo host ya
// ocupa ese nombre, cae a la URL base para no pisar su resultado.
func reportKey(seen map[string]GatewayReport, g Gateway) string {
	if _, dup := seen[g.Name]; !dup {
		return g.Name
	}
	return g.BaseURL
}

// checkGateway es un HEAD: no se descarga el contenido.
func (p *Prober) checkGateway(ctx context.Context, g Gateway, id string) GatewayReport {
	u := g.URL(id, "")
	rep := GatewayReport{URL: u}

	cctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.http.Head(cctx, u, g.Headers)
	if resp != nil {
		rep.StatusCode = resp.StatusCode
		rep.ContentType = resp.ContentType()
		if resp.ContentLength > 0 {
			rep.ContentLength = resp.ContentLength
		}
	}
	switch {
	case err == nil:
		rep.Available = true
	case cctx.Err() != nil:
		rep.Error = fmt.Sprintf("timeout after %s", p.timeout)
	default:
		rep.Error = err.Error()
	}

	result := "unavailable"
	if rep.Available {
		result = "available"
	}
	p.metrics.probeCheck(g.Name, result)
	return rep
}
