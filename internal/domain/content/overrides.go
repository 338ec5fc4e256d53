package content

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Override fija formatos y gateways para un CID puntual.
//
// Es una salida de emergencia operativa para CIDs que sabemos que algún
// provider sirve mal; no es una regla general. Se consulta antes de armar
// la lista de candidatos por defecto y nada más.
type Override struct {
	PreferredFormats  []string `json:"preferredFormats,omitempty"`
	PreferredGateways []string `json:"preferredGateways,omitempty"`
	SkipProvider      bool     `json:"skipProvider,omitempty"`
	Note              string   `json:"note,omitempty"`
}

type Overrides map[string]Override

func (o Overrides) Lookup(id string) (Override, bool) {
	v, ok := o[id]
	return v, ok
}

// DefaultOverrides devuelve una copia de la tabla conocida.
func DefaultOverrides() Overrides {
	out := Overrides{}
	for k, v := range knownOverrides {
		out[k] = v
	}
	return out
}

var knownOverrides = Overrides{
	// export de historias clínicas subido como raw leaf: pinata responde 406
	// con format=dag-json y dweb.link tarda > 15s en resolverlo.
	"bafkreihdwdcefgh4dqkjv67uzcmw7ojee6xedzdetojuzjevtenxquvyku": {
		PreferredFormats:  []string{"raw", ""},
		PreferredGateways: []string{"https://ipfs.io", "https://cloudflare-ipfs.com"},
		SkipProvider:      true,
		Note:              "raw leaf export",
	},
	// cifrado dag-cbor de la migración inicial; solo el gateway de pinata lo tiene.
	"bafyreidykglsfhoixmivffc5uwhcgshx4j465xwqntbmu43nb2dzqwfvae": {
		PreferredFormats:  []string{"dag-cbor", "raw"},
		PreferredGateways: []string{"https://gateway.pinata.cloud", "https://ipfs.io"},
	},
}

// LoadOverridesFile mezcla un JSON {"<cid>": {...}} sobre la tabla conocida.
// path vacío => solo la tabla conocida.
func LoadOverridesFile(path string) (Overrides, error) {
	out := DefaultOverrides()
	path = strings.TrimSpace(path)
	if path == "" {
		return out, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("content: read overrides: %w", err)
	}

	var extra Overrides
	if err := json.Unmarshal(raw, &extra); err != nil {
		return nil, fmt.Errorf("content: parse overrides %s: %w", path, err)
	}
	for k, v := range extra {
		k = Normalize(k)
		if k == "" {
			continue
		}
		out[k] = v
	}
	return out, nil
}
