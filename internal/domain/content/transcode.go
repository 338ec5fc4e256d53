package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"strings"
	"unicode/utf8"

	"clinic-content-gateway/internal/platform/logger"

	"github.com/ipld/go-ipld-prime/codec/dagcbor"
	"github.com/ipld/go-ipld-prime/codec/dagjson"
	"github.com/ipld/go-ipld-prime/node/basicnode"
)

// Representation es lo que pide el caller en responseType.
type Representation string

const (
	RepresentationAuto Representation = "auto"
	RepresentationJSON Representation = "json"
	RepresentationText Representation = "text"
)

func ParseRepresentation(s string) Representation {
	switch Representation(strings.ToLower(strings.TrimSpace(s))) {
	case RepresentationJSON:
		return RepresentationJSON
	case RepresentationText:
		return RepresentationText
	default:
		return RepresentationAuto
	}
}

// HintContentType traduce el hint "format" del caller a un MIME.
// Solo se usa si upstream no declara Content-Type.
func HintContentType(format string) string {
	f := strings.ToLower(strings.TrimSpace(format))
	switch {
	case f == "", f == "raw":
		return "application/octet-stream"
	case f == "json":
		return "application/json"
	case f == "text":
		return "text/plain; charset=utf-8"
	case strings.Contains(f, "/"):
		return f
	default:
		return "application/octet-stream"
	}
}

type PayloadKind string

const (
	PayloadJSON   PayloadKind = "json"
	PayloadText   PayloadKind = "text"
	PayloadBinary PayloadKind = "binary"
)

// Payload es lo que finalmente se escribe al caller.
type Payload struct {
	Kind        PayloadKind
	ContentType string
	Body        []byte
	Value       any // solo PayloadJSON

	// Degraded: se pidió/infirió estructura y el parseo falló.
	Degraded bool
}

type Transcoder struct {
	log logger.Logger
}

func NewTranscoder(log logger.Logger) *Transcoder {
	if log == nil {
		log = logger.NewNop()
	}
	return &Transcoder{log: log.With(map[string]any{"component": "transcoder"})}
}

// Transcode nunca falla: si el parseo estructurado no funciona, devuelve
// el body crudo con el content type original.
func (t *Transcoder) Transcode(up *Upstream, want Representation, hint string) Payload {
	ct := strings.TrimSpace(up.ContentType)
	if ct == "" {
		ct = strings.TrimSpace(hint)
	}
	if ct == "" {
		ct = "application/octet-stream"
	}
	media := mediaType(ct)

	if want == RepresentationJSON || (want == RepresentationAuto && isStructured(media)) {
		v, err := parseStructured(media, up.Body)
		var b []byte
		if err == nil {
			b, err = json.Marshal(v)
		}
		if err == nil {
			return Payload{Kind: PayloadJSON, ContentType: "application/json", Body: b, Value: v}
		}
		t.log.Warn("transcode degraded", map[string]any{
			"cid":          up.Identifier,
			"content_type": ct,
			"requested":    string(want),
			"err":          err,
		})
		p := raw(ct, media, up.Body)
		p.Degraded = true
		return p
	}

	if want == RepresentationText {
		if isText(media) {
			return Payload{Kind: PayloadText, ContentType: ct, Body: up.Body}
		}
		return Payload{Kind: PayloadText, ContentType: "text/plain; charset=utf-8", Body: up.Body}
	}

	return raw(ct, media, up.Body)
}

func raw(ct, media string, body []byte) Payload {
	if isText(media) {
		return Payload{Kind: PayloadText, ContentType: ct, Body: body}
	}
	return Payload{Kind: PayloadBinary, ContentType: ct, Body: body}
}

func parseStructured(media string, body []byte) (any, error) {
	if isCBOR(media) {
		nb := basicnode.Prototype.Any.NewBuilder()
		if err := dagcbor.Decode(nb, bytes.NewReader(body)); err != nil {
			return nil, fmt.Errorf("decode dag-cbor: %w", err)
		}
		var buf bytes.Buffer
		if err := dagjson.Encode(nb.Build(), &buf); err != nil {
			return nil, fmt.Errorf("encode dag-json: %w", err)
		}
		body = buf.Bytes()
	}

	if !utf8.Valid(body) {
		return nil, fmt.Errorf("body is not utf-8")
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return v, nil
}

func mediaType(ct string) string {
	m, _, err := mime.ParseMediaType(ct)
	if err != nil {
		m = ct
		if i := strings.Index(m, ";"); i >= 0 {
			m = m[:i]
		}
	}
	return strings.ToLower(strings.TrimSpace(m))
}

func isCBOR(media string) bool {
	return media == "application/cbor" || strings.HasSuffix(media, "dag-cbor") || strings.HasSuffix(media, "+cbor")
}

func isStructured(media string) bool {
	return media == "application/json" ||
		strings.HasSuffix(media, "+json") ||
		strings.HasSuffix(media, "dag-json") ||
		isCBOR(media)
}

func isText(media string) bool {
	return strings.HasPrefix(media, "text/") ||
		media == "application/xml" ||
		media == "application/javascript"
}
