package content

import (
	"context"
	"net/http"
	"time"

	"clinic-content-gateway/internal/platform/httpclient"
	"clinic-content-gateway/internal/platform/logger"
	"clinic-content-gateway/internal/ports/pinning"
)

// ProviderStrategy es un camino directo contra un provider de storage.
// El Retriever recorre la lista en orden sin saber qué credencial hay detrás.
type ProviderStrategy interface {
	Name() string
	Available() bool
	TryFetch(ctx context.Context, id Classification, formats []string, try TryFunc) (*httpclient.Response, bool)
}

// PinnedGatewayStrategy: si el provider tiene el CID pineado, lo pide a su
// gateway probando cada formato.
type PinnedGatewayStrategy struct {
	pins       pinning.PinService
	http       *httpclient.Client
	pinTimeout time.Duration
	log        logger.Logger
}

func NewPinnedGatewayStrategy(pins pinning.PinService, hc *httpclient.Client, pinTimeout time.Duration, log logger.Logger) *PinnedGatewayStrategy {
	if log == nil {
		log = logger.NewNop()
	}
	return &PinnedGatewayStrategy{pins: pins, http: hc, pinTimeout: pinTimeout, log: log}
}

func (s *PinnedGatewayStrategy) Name() string { return "pinned-gateway" }

func (s *PinnedGatewayStrategy) Available() bool {
	return s != nil && s.pins != nil && s.pins.IsConfigured()
}

func (s *PinnedGatewayStrategy) TryFetch(ctx context.Context, id Classification, formats []string, try TryFunc) (*httpclient.Response, bool) {
	pctx, cancel := context.WithTimeout(ctx, s.pinTimeout)
	info, err := s.pins.PinStatus(pctx, id.Identifier)
	cancel()
	if err != nil || info.Status != pinning.StatusPinned {
		s.log.Debug("provider pin check", map[string]any{
			"cid":    id.Identifier,
			"status": string(info.Status),
			"err":    err,
		})
		return nil, false
	}

	headers := s.pins.GatewayHeaders()
	for _, f := range formats {
		u := s.pins.GatewayURL(id.Identifier, f)
		resp, ok := try(ctx, Candidate{Phase: PhaseProvider, Source: s.Name(), Endpoint: u, Format: f},
			func(ctx context.Context) (*httpclient.Response, error) {
				return s.http.Fetch(ctx, http.MethodGet, u, headers)
			})
		if ok {
			return resp, true
		}
		if ctx.Err() != nil {
			return nil, false
		}
	}
	return nil, false
}

// NodeAPIStrategy prueba dag/get, cat y block/get contra la API del nodo.
type NodeAPIStrategy struct {
	node pinning.NodeAPI
	ops  []pinning.NodeOp
}

func NewNodeAPIStrategy(node pinning.NodeAPI) *NodeAPIStrategy {
	return &NodeAPIStrategy{
		node: node,
		ops:  []pinning.NodeOp{pinning.OpDagGet, pinning.OpCat, pinning.OpBlockGet},
	}
}

func (s *NodeAPIStrategy) Name() string { return "node-api" }

func (s *NodeAPIStrategy) Available() bool {
	return s != nil && s.node != nil && s.node.IsConfigured()
}

func (s *NodeAPIStrategy) TryFetch(ctx context.Context, id Classification, _ []string, try TryFunc) (*httpclient.Response, bool) {
	for _, op := range s.ops {
		c := Candidate{
			Phase:    PhaseProvider,
			Source:   s.Name(),
			Endpoint: s.node.Endpoint(op, id.Identifier),
			Format:   string(op),
		}
		resp, ok := try(ctx, c, func(ctx context.Context) (*httpclient.Response, error) {
			return s.node.Call(ctx, op, id.Identifier)
		})
		if ok {
			return resp, true
		}
		if ctx.Err() != nil {
			return nil, false
		}
	}
	return nil, false
}
