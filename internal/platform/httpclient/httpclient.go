package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultTimeout = 10 * time.Second

	// Límite de body por defecto para Fetch (contenido upstream).
	DefaultMaxBody = 50 << 20
)

// ErrBodyTooLarge: el upstream mandó más bytes que el límite del cliente.
var ErrBodyTooLarge = errors.New("httpclient: response body exceeds limit")

// Client envuelve *http.Client con helpers comunes para adapters.
type Client struct {
	HTTP    *http.Client
	BaseURL string // opcional; si se define, DoJSON/Fetch pueden recibir paths relativos
	MaxBody int64  // límite de lectura para Fetch; <=0 usa DefaultMaxBody
}

// New crea un Client con timeout global. Con timeout <= 0 usa DefaultTimeout.
func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		HTTP: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewPerAttempt crea un Client sin timeout global: cada llamada se acota
// con el context que recibe (timeout por intento).
func NewPerAttempt(maxBody int64) *Client {
	c := NewWithTransport(0, nil)
	c.MaxBody = maxBody
	return c
}

// NewWithBaseURL crea un Client con BaseURL + timeout.
func NewWithBaseURL(baseURL string, timeout time.Duration) (*Client, error) {
	c := New(timeout)
	if strings.TrimSpace(baseURL) == "" {
		return c, nil
	}
	_, err := url.ParseRequestURI(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	c.BaseURL = strings.TrimRight(baseURL, "/")
	return c, nil
}

// NewWithTransport permite inyectar un Transport (p.ej. para tests).
func NewWithTransport(timeout time.Duration, tr http.RoundTripper) *Client {
	if tr == nil {
		tr = http.DefaultTransport
	}
	c := &Client{HTTP: &http.Client{Transport: tr}}
	if timeout > 0 {
		c.HTTP.Timeout = timeout
	}
	return c
}

// HTTPError representa una respuesta no-2xx.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("http error: status=%d body=%s", e.StatusCode, e.Body)
}

// StatusOf devuelve el status de un *HTTPError envuelto, o 0.
func StatusOf(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}

// Response es una respuesta ya leída (body completo en memoria).
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte

	// ContentLength declarado por upstream (-1 si no se conoce).
	ContentLength int64
}

func (r *Response) ContentType() string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(r.Header.Get("Content-Type"))
}

// DoJSON hace un request JSON.
// - method: GET/POST/etc
// - pathOrURL: puede ser URL absoluta o path relativo si BaseURL está seteado
// - headers: headers extra (opcional)
// - in: body a enviar (opcional). Si nil => no body.
// - out: donde decodificar JSON (opcional). Si nil => ignora body.
// Retorna error si status no es 2xx.
func (c *Client) DoJSON(
	ctx context.Context,
	method string,
	pathOrURL string,
	headers map[string]string,
	in any,
	out any,
) error {
	if c == nil || c.HTTP == nil {
		return errors.New("httpclient: nil client")
	}

	fullURL, err := c.resolveURL(pathOrURL)
	if err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("httpclient: marshal json: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return fmt.Errorf("httpclient: new request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	setHeaders(req, headers)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: do request: %w", err)
	}
	defer resp.Body.Close()

	raw, tooLarge, _ := readAtMost(resp.Body, 1<<20) // 1MB max

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
	}
	if tooLarge {
		return ErrBodyTooLarge
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("httpclient: unmarshal json: %w", err)
	}
	return nil
}

// Fetch hace el request y lee el body completo (hasta MaxBody) dentro del
// mismo ctx. Para status no-2xx devuelve la respuesta igual + *HTTPError.
// Un body 2xx más grande que MaxBody nunca se devuelve recortado: el error
// es ErrBodyTooLarge.
func (c *Client) Fetch(ctx context.Context, method, pathOrURL string, headers map[string]string) (*Response, error) {
	if c == nil || c.HTTP == nil {
		return nil, errors.New("httpclient: nil client")
	}

	fullURL, err := c.resolveURL(pathOrURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: new request: %w", err)
	}
	setHeaders(req, headers)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: do request: %w", err)
	}
	defer resp.Body.Close()

	out := &Response{
		URL:           fullURL,
		StatusCode:    resp.StatusCode,
		Header:        resp.Header.Clone(),
		ContentLength: resp.ContentLength,
	}

	tooLarge := false
	if method != http.MethodHead {
		raw, over, err := readAtMost(resp.Body, c.limit())
		if err != nil {
			return out, fmt.Errorf("httpclient: read body: %w", err)
		}
		out.Body = raw
		tooLarge = over
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := out.Body
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return out, &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}
	if tooLarge {
		out.Body = nil
		return out, fmt.Errorf("%w (%d bytes): %s", ErrBodyTooLarge, c.limit(), fullURL)
	}
	return out, nil
}

func (c *Client) limit() int64 {
	if c.MaxBody <= 0 {
		return DefaultMaxBody
	}
	return c.MaxBody
}

// Head es un Fetch sin body: chequeo de existencia.
func (c *Client) Head(ctx context.Context, pathOrURL string, headers map[string]string) (*Response, error) {
	return c.Fetch(ctx, http.MethodHead, pathOrURL, headers)
}

func (c *Client) resolveURL(pathOrURL string) (string, error) {
	pathOrURL = strings.TrimSpace(pathOrURL)
	if pathOrURL == "" {
		return "", errors.New("httpclient: empty url")
	}

	// Si ya es URL absoluta, úsala tal cual.
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return pathOrURL, nil
	}

	if strings.TrimSpace(c.BaseURL) == "" {
		return "", errors.New("httpclient: relative path requires BaseURL")
	}

	if !strings.HasPrefix(pathOrURL, "/") {
		pathOrURL = "/" + pathOrURL
	}
	return c.BaseURL + pathOrURL, nil
}

func setHeaders(req *http.Request, headers map[string]string) {
	for k, v := range headers {
		if strings.TrimSpace(k) == "" {
			continue
		}
		req.Header.Set(k, v)
	}
}

// readAtMost lee hasta max bytes; over indica que el body tenía más.
func readAtMost(r io.Reader, max int64) (data []byte, over bool, err error) {
	if max <= 0 {
		max = 1 << 20
	}
	data, err = io.ReadAll(io.LimitReader(r, max+1))
	if int64(len(data)) > max {
		return data[:max], true, err
	}
	return data, false, err
}
