package pinata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"clinic-content-gateway/internal/platform/httpclient"
	"clinic-content-gateway/internal/ports/pinning"
)

var (
	ErrPinataNotConfigured = errors.New("pinata client not configured")
	ErrPinataUnauthorized  = errors.New("pinata unauthorized")
	ErrPinataUpstream      = errors.New("pinata upstream error")
)

const (
	DefaultAPIURL     = "https://api.pinata.cloud"
	DefaultGatewayURL = "https://gateway.pinata.cloud"
)

// Config del cliente Pinata.
// Si hay JWT se usa JWT (Bearer); si no, el par api key / secret.
type Config struct {
	JWT       string
	APIKey    string
	APISecret string

	APIURL     string
	GatewayURL string
}

type authMode int

const (
	authNone authMode = iota
	authJWT
	authKeyPair
)

type Client struct {
	apiURL     string
	gatewayURL string
	headers    map[string]string
	mode       authMode
	http       *httpclient.Client
}

// NewClient no valida credenciales: IsConfigured dice si se pueden usar.
// El http client no trae timeout global; lo acota el ctx de cada llamada.
func NewClient(cfg Config, hc *httpclient.Client) *Client {
	apiURL := strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	gw := strings.TrimRight(strings.TrimSpace(cfg.GatewayURL), "/")
	if gw == "" {
		gw = DefaultGatewayURL
	}
	if hc == nil {
		hc = httpclient.NewPerAttempt(0)
	}

	c := &Client{
		apiURL:     apiURL,
		gatewayURL: gw,
		http:       hc,
	}

	jwt := strings.TrimSpace(cfg.JWT)
	key := strings.TrimSpace(cfg.APIKey)
	secret := strings.TrimSpace(cfg.APISecret)
	switch {
	case jwt != "":
		c.mode = authJWT
		c.headers = map[string]string{"Authorization": "Bearer " + jwt}
	case key != "" && secret != "":
		c.mode = authKeyPair
		c.headers = map[string]string{
			"pinata_api_key":        key,
			"pinata_secret_api_key": secret,
		}
	}
	return c
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.mode != authNone
}

// AuthMode es solo informativo (logs/diagnóstico).
func (c *Client) AuthMode() string {
	if c == nil {
		return "none"
	}
	switch c.mode {
	case authJWT:
		return "jwt"
	case authKeyPair:
		return "key_pair"
	default:
		return "none"
	}
}

type pinListResponse struct {
	Count int `json:"count"`
	Rows  []struct {
		IPFSPinHash string `json:"ipfs_pin_hash"`
		DatePinned  string `json:"date_pinned"`
		DateUnpin   string `json:"date_unpinned"`
	} `json:"rows"`
}

// PinStatus consulta /data/pinList filtrando por el CID.
func (c *Client) PinStatus(ctx context.Context, cid string) (pinning.PinInfo, error) {
	if !c.IsConfigured() {
		return pinning.PinInfo{Status: pinning.StatusNoCredentials}, ErrPinataNotConfigured
	}
	cid = strings.TrimSpace(cid)
	if cid == "" {
		return pinning.PinInfo{Status: pinning.StatusError, Detail: "cid required"}, errors.New("cid required")
	}

	q := url.Values{}
	q.Set("hashContains", cid)
	q.Set("status", "pinned")

	var out pinListResponse
	err := c.http.DoJSON(ctx, http.MethodGet, c.apiURL+"/data/pinList?"+q.Encode(), c.headers, nil, &out)
	if err != nil {
		switch httpclient.StatusOf(err) {
		case http.StatusUnauthorized, http.StatusForbidden:
			err = ErrPinataUnauthorized
		default:
			err = fmt.Errorf("%w: %v", ErrPinataUpstream, err)
		}
		return pinning.PinInfo{Status: pinning.StatusError, Detail: err.Error()}, err
	}

	n := 0
	for _, row := range out.Rows {
		if row.IPFSPinHash == cid {
			n++
		}
	}
	if n == 0 && out.Count > 0 && len(out.Rows) == 0 {
		// algunas cuentas devuelven solo count
		n = out.Count
	}
	if n == 0 {
		return pinning.PinInfo{Status: pinning.StatusNotPinned}, nil
	}
	return pinning.PinInfo{Status: pinning.StatusPinned, Count: n}, nil
}

func (c *Client) GatewayURL(cid, format string) string {
	u := c.gatewayURL + "/ipfs/" + cid
	if format != "" {
		u += "?format=" + url.QueryEscape(format)
	}
	return u
}

// El gateway dedicado acepta el JWT; con key-pair va sin auth (gateway público).
func (c *Client) GatewayHeaders() map[string]string {
	if c == nil || c.mode != authJWT {
		return nil
	}
	return c.headers
}
