package content

import (
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multicodec"
)

// Family es la familia de versión/encoding inferida del prefijo del CID.
type Family string

const (
	FamilyLegacy         Family = "cidv0" // base58btc fijo, "Qm..."
	FamilySelfDescribing Family = "cidv1" // multibase + multicodec, "baf..."
	FamilyUnknown        Family = "unknown"
)

// Classification es lo que el Analyzer sabe de un identificador.
// Family es puramente léxica; los campos de go-cid son informativos.
type Classification struct {
	Identifier string
	Family     Family
	Override   *Override

	Valid     bool // go-cid pudo decodificarlo
	Version   uint64
	Codec     string
	Multihash string
}

func (c Classification) HasOverride() bool { return c.Override != nil }

// NeedsProviderPhase: solo CIDv1, salvo que el override diga lo contrario.
func (c Classification) NeedsProviderPhase() bool {
	if c.Family != FamilySelfDescribing {
		return false
	}
	return c.Override == nil || !c.Override.SkipProvider
}

type Analyzer struct {
	overrides Overrides
}

func NewAnalyzer(overrides Overrides) *Analyzer {
	if overrides == nil {
		overrides = Overrides{}
	}
	return &Analyzer{overrides: overrides}
}

// Classify normaliza el identificador, infiere la familia y busca overrides.
func (a *Analyzer) Classify(raw string) Classification {
	id := Normalize(raw)
	c := Classification{
		Identifier: id,
		Family:     FamilyOf(id),
	}
	if id == "" {
		return c
	}

	if o, ok := a.overrides.Lookup(id); ok {
		c.Override = &o
	}

	if parsed, err := cid.Decode(id); err == nil {
		p := parsed.Prefix()
		c.Valid = true
		c.Version = p.Version
		c.Codec = multicodec.Code(p.Codec).String()
		c.Multihash = multicodec.Code(p.MhType).String()
	}
	return c
}

// FamilyOf clasifica solo por prefijo léxico.
func FamilyOf(id string) Family {
	switch {
	case strings.HasPrefix(id, "Qm"):
		return FamilyLegacy
	case strings.HasPrefix(id, "baf"):
		return FamilySelfDescribing
	default:
		return FamilyUnknown
	}
}

// Normalize acepta "ipfs://<cid>", "/ipfs/<cid>" y URLs de gateway
// "https://host/ipfs/<cid>/path"; devuelve solo el CID.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	switch {
	case strings.HasPrefix(s, "ipfs://"):
		s = strings.TrimPrefix(s, "ipfs://")
	case strings.HasPrefix(s, "/ipfs/"):
		s = strings.TrimPrefix(s, "/ipfs/")
	case strings.HasPrefix(s, "http://"), strings.HasPrefix(s, "https://"):
		if i := strings.Index(s, "/ipfs/"); i >= 0 {
			s = s[i+len("/ipfs/"):]
		}
	}

	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
