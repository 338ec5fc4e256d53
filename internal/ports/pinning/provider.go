package pinning

import (
	"context"

	"clinic-content-gateway/internal/platform/httpclient"
)

type Status string

const (
	StatusPinned        Status = "pinned"
	StatusNotPinned     Status = "not_pinned"
	StatusNoCredentials Status = "no_credentials"
	StatusError         Status = "error"
)

// PinInfo es el resultado de consultar el estado de pin en el provider.
type PinInfo struct {
	Status Status
	Count  int    // filas de pin devueltas por el provider
	Detail string // mensaje de error u observación
}

// PinService es un provider de pinning con gateway propio.
type PinService interface {
	IsConfigured() bool
	PinStatus(ctx context.Context, cid string) (PinInfo, error)

	// GatewayURL arma la URL del gateway del provider (format "" => sin hint).
	GatewayURL(cid, format string) string
	GatewayHeaders() map[string]string
}

type NodeOp string

const (
	OpDagGet   NodeOp = "dag/get"
	OpCat      NodeOp = "cat"
	OpBlockGet NodeOp = "block/get"
)

// NodeAPI es la API RPC de un nodo remoto (estilo /api/v0).
type NodeAPI interface {
	IsConfigured() bool
	Endpoint(op NodeOp, cid string) string
	Call(ctx context.Context, op NodeOp, cid string) (*httpclient.Response, error)
}
