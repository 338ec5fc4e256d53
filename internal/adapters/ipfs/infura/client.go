package infura

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"clinic-content-gateway/internal/platform/httpclient"
	"clinic-content-gateway/internal/ports/pinning"
)

var ErrInfuraNotConfigured = errors.New("infura client not configured")

const DefaultAPIURL = "https://ipfs.infura.io:5001"

type Config struct {
	ProjectID     string
	ProjectSecret string
	APIURL        string
}

// Client habla con la API RPC de un nodo (/api/v0/*) con basic auth.
type Client struct {
	apiURL string
	auth   string
	http   *httpclient.Client
}

func NewClient(cfg Config, hc *httpclient.Client) *Client {
	apiURL := strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if hc == nil {
		hc = httpclient.NewPerAttempt(0)
	}

	c := &Client{apiURL: apiURL, http: hc}
	id := strings.TrimSpace(cfg.ProjectID)
	secret := strings.TrimSpace(cfg.ProjectSecret)
	if id != "" && secret != "" {
		c.auth = "Basic " + base64.StdEncoding.EncodeToString([]byte(id+":"+secret))
	}
	return c
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.auth != ""
}

func (c *Client) Endpoint(op pinning.NodeOp, cid string) string {
	return c.apiURL + "/api/v0/" + string(op) + "?arg=" + url.QueryEscape(cid)
}

// Call ejecuta la operación. La API RPC solo acepta POST.
func (c *Client) Call(ctx context.Context, op pinning.NodeOp, cid string) (*httpclient.Response, error) {
	if !c.IsConfigured() {
		return nil, ErrInfuraNotConfigured
	}
	return c.http.Fetch(ctx, http.MethodPost, c.Endpoint(op, cid), map[string]string{
		"Authorization": c.auth,
	})
}
