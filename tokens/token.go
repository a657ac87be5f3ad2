package tokens

import "strings"

// Type is the DTCG token type.
type Type string

const (
	TypeColor       Type = "color"
	TypeDimension   Type = "dimension"
	TypeFontFamily  Type = "fontFamily"
	TypeFontWeight  Type = "fontWeight"
	TypeDuration    Type = "duration"
	TypeCubicBezier Type = "cubicBezier"
	TypeNumber      Type = "number"
	TypeStrokeStyle Type = "strokeStyle"
	TypeBorder      Type = "border"
	TypeTransition  Type = "transition"
	TypeShadow      Type = "shadow"
	TypeGradient    Type = "gradient"
	TypeTypography  Type = "typography"
)

var knownTypes = map[Type]struct{}{
	TypeColor: {}, TypeDimension: {}, TypeFontFamily: {}, TypeFontWeight: {},
	TypeDuration: {}, TypeCubicBezier: {}, TypeNumber: {}, TypeStrokeStyle: {},
	TypeBorder: {}, TypeTransition: {}, TypeShadow: {}, TypeGradient: {},
	TypeTypography: {},
}

func (t Type) Known() bool {
	_, ok := knownTypes[t]
	return ok
}

// Origin tells whether a token was authored by a client (manual) or
// came from the design tool (external). The tag is set at creation and
// never inferred afterwards.
type Origin string

const (
	OriginManual   Origin = "manual"
	OriginExternal Origin = "external"
)

// Id shapes produced by the design tool (style and variable ids).
// Used only as a fallback for producers that predate the origin tag.
var toolIDPrefixes = []string{"S:", "VariableID:"}

func InferOrigin(id string) Origin {
	for _, p := range toolIDPrefixes {
		if strings.HasPrefix(id, p) {
			return OriginExternal
		}
	}
	return OriginManual
}

// Token is the atomic synchronized unit: a named, typed design value.
// Value is a scalar for simple types and a structured object/array for
// composite ones (border, shadow, gradient, typography, cubicBezier).
type Token struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        Type   `json:"type"`
	Value       any    `json:"value"`
	Description string `json:"description,omitempty"`
	Origin      Origin `json:"origin,omitempty"`
}

// External reports whether the token is tool-originated. An explicit
// origin tag always wins over the id-shape fallback.
func (t Token) External() bool {
	switch t.Origin {
	case OriginExternal:
		return true
	case OriginManual:
		return false
	}
	return InferOrigin(t.ID) == OriginExternal
}
