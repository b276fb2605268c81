package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixConstruction = "cons"
	PrefixPoint        = "pt"
	PrefixLine         = "ln"
	PrefixCircle       = "circ"
	PrefixAngle        = "ang"
	PrefixPolygon      = "poly"
	PrefixOp           = "op"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewConstructionID() string { return New(PrefixConstruction) }
func NewPointID() string        { return New(PrefixPoint) }
func NewLineID() string         { return New(PrefixLine) }
func NewCircleID() string       { return New(PrefixCircle) }
func NewAngleID() string        { return New(PrefixAngle) }
func NewPolygonID() string      { return New(PrefixPolygon) }
func NewOpID() string           { return New(PrefixOp) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
