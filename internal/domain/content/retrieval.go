package content

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"clinic-content-gateway/internal/platform/httpclient"
	"clinic-content-gateway/internal/platform/logger"
)

const (
	DefaultAttemptTimeout  = 10 * time.Second
	DefaultProviderTimeout = 15 * time.Second
)

var (
	// dag-json, bytes, dag-cbor y por último sin hint.
	selfDescribingFormats = []string{"dag-json", "raw", "dag-cbor", ""}
	legacyFormats         = []string{""}
)

// Gateway es un endpoint HTTP público que sirve /ipfs/<cid>.
type Gateway struct {
	Name    string
	BaseURL string
	Headers map[string]string
}

func (g Gateway) URL(cid, format string) string {
	u := g.BaseURL + "/ipfs/" + cid
	if format != "" {
		u += "?format=" + url.QueryEscape(format)
	}
	return u
}

// ParseGateways arma gateways desde URLs base; el nombre es el host.
func ParseGateways(bases []string) []Gateway {
	out := make([]Gateway, 0, len(bases))
	for _, b := range bases {
		b = strings.TrimRight(strings.TrimSpace(b), "/")
		if b == "" {
			continue
		}
		out = append(out, Gateway{Name: gatewayName(b), BaseURL: b})
	}
	return out
}

func gatewayName(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return base
	}
	return u.Host
}

type RetrieverConfig struct {
	Gateways        []Gateway
	AttemptTimeout  time.Duration
	ProviderTimeout time.Duration
}

// Upstream es la primera respuesta 2xx de la cadena.
type Upstream struct {
	Identifier  string
	Endpoint    string
	Format      string
	StatusCode  int
	ContentType string
	Body        []byte
	Attempts    []Attempt
}

// Retriever es el orquestador de la cadena de fallback. Sin estado mutable
// compartido: cada Retrieve arma su propio sweep.
type Retriever struct {
	cfg       RetrieverConfig
	http      *httpclient.Client
	providers []ProviderStrategy
	log       logger.Logger
	metrics   *Metrics
}

func NewRetriever(cfg RetrieverConfig, hc *httpclient.Client, providers []ProviderStrategy, log logger.Logger, metrics *Metrics) *Retriever {
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = DefaultAttemptTimeout
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = DefaultProviderTimeout
	}
	if hc == nil {
		hc = httpclient.NewPerAttempt(0)
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Retriever{
		cfg:       cfg,
		http:      hc,
		providers: providers,
		log:       log.With(map[string]any{"component": "retriever"}),
		metrics:   metrics,
	}
}

// Plan es el orden efectivo de candidatos para un identificador.
type Plan struct {
	ProviderPhase   bool
	ProviderFormats []string
	Gateways        []Gateway
	GatewayFormats  []string
}

func (r *Retriever) Plan(id Classification) Plan {
	p := Plan{
		ProviderPhase: id.NeedsProviderPhase(),
		Gateways:      r.cfg.Gateways,
	}

	switch id.Family {
	case FamilySelfDescribing:
		p.GatewayFormats = selfDescribingFormats
	default:
		p.GatewayFormats = legacyFormats
	}
	p.ProviderFormats = selfDescribingFormats

	if o := id.Override; o != nil {
		if len(o.PreferredFormats) > 0 {
			p.GatewayFormats = o.PreferredFormats
			p.ProviderFormats = o.PreferredFormats
		}
		if len(o.PreferredGateways) > 0 {
			p.Gateways = r.resolveGateways(o.PreferredGateways)
		}
	}
	return p
}

// Un gateway preferido que ya está configurado conserva sus headers.
func (r *Retriever) resolveGateways(preferred []string) []Gateway {
	known := map[string]Gateway{}
	for _, g := range r.cfg.Gateways {
		known[g.BaseURL] = g
		known[g.Name] = g
	}

	out := make([]Gateway, 0, len(preferred))
	for _, p := range preferred {
		p = strings.TrimRight(strings.TrimSpace(p), "/")
		if g, ok := known[p]; ok {
			out = append(out, g)
			continue
		}
		out = append(out, ParseGateways([]string{p})...)
	}
	return out
}

// Retrieve recorre provider-direct y luego gateways públicos, en orden
// estricto, y corta en el primer 2xx.
func (r *Retriever) Retrieve(ctx context.Context, id Classification) (*Upstream, error) {
	if id.Identifier == "" {
		return nil, ErrMissingParameter
	}

	start := time.Now()
	plan := r.Plan(id)
	s := &sweep{
		id: id.Identifier,
		timeouts: map[Phase]time.Duration{
			PhaseProvider: r.cfg.ProviderTimeout,
			PhaseGateway:  r.cfg.AttemptTimeout,
		},
		log:     r.log,
		metrics: r.metrics,
	}

	if plan.ProviderPhase {
		for _, p := range r.providers {
			if !p.Available() {
				continue
			}
			if resp, ok := p.TryFetch(ctx, id, plan.ProviderFormats, s.try); ok {
				return r.done(s, resp, start), nil
			}
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("content: retrieval aborted: %w", err)
			}
		}
	}

	for _, g := range plan.Gateways {
		for _, f := range plan.GatewayFormats {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("content: retrieval aborted: %w", err)
			}
			u := g.URL(id.Identifier, f)
			headers := g.Headers
			resp, ok := s.try(ctx, Candidate{Phase: PhaseGateway, Source: g.Name, Endpoint: u, Format: f},
				func(ctx context.Context) (*httpclient.Response, error) {
					return r.http.Fetch(ctx, http.MethodGet, u, headers)
				})
			if ok {
				return r.done(s, resp, start), nil
			}
		}
	}

	failed := s.failed()
	r.metrics.retrieval("failed", time.Since(start))
	r.log.Warn("retrieval exhausted", map[string]any{
		"cid":      id.Identifier,
		"family":   string(id.Family),
		"attempts": len(failed.Attempts),
		"last_err": failed.LastErr,
	})
	return nil, failed
}

func (r *Retriever) done(s *sweep, resp *httpclient.Response, start time.Time) *Upstream {
	last := s.attempts[len(s.attempts)-1]
	r.metrics.retrieval("success", time.Since(start))
	r.log.Info("retrieval succeeded", map[string]any{
		"cid":      s.id,
		"url":      last.Endpoint,
		"format":   formatLabel(last.Format),
		"attempts": len(s.attempts),
	})
	return &Upstream{
		Identifier:  s.id,
		Endpoint:    last.Endpoint,
		Format:      last.Format,
		StatusCode:  resp.StatusCode,
		ContentType: resp.ContentType(),
		Body:        resp.Body,
		Attempts:    s.attempts,
	}
}
