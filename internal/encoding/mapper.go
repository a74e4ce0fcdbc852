// Package encoding infers which data fields a chart specification encodes on
// which visual channel.
//
// Fields are registered under abstract channel names (positionX, lengthY,
// columnX, ...) so that later stages can reason about major and minor axes
// without knowing the chart grammar.
package encoding

import (
	"vis2table/internal/domain"
)

// Abstract channel names.
const (
	LengthX   = "lengthX"
	LengthY   = "lengthY"
	PositionX = "positionX"
	PositionY = "positionY"
	ColumnX   = "columnX"
	RowY      = "rowY"
	Color     = "color"
)

// Result is the outcome of ExtractMapping, read by every downstream stage.
type Result struct {
	Mark      domain.Mark                 `json:"mark"`
	Mappings  *BidirectionalMap           `json:"mappings"`
	Temporals []domain.TemporalDescriptor `json:"temporals"`
	// Passthrough is set when the mark is not reconstructed; rows flow
	// through the pipeline without folding.
	Passthrough bool `json:"passthrough"`
}

// Field returns the data field bound to an abstract channel.
func (r *Result) Field(channel string) (string, bool) {
	if r == nil || r.Mappings == nil {
		return "", false
	}
	return r.Mappings.GetForward(channel)
}

// ExtractMapping maps the specification's encodings to abstract channels and
// collects its temporal fields. Marks other than bar and line yield an empty
// passthrough result together with an *domain.UnsupportedMarkError.
func ExtractMapping(spec *domain.ChartSpec) (*Result, error) {
	if spec == nil {
		return nil, domain.ErrValidation("chart specification is required")
	}

	res := &Result{
		Mark:      spec.Mark,
		Mappings:  NewBidirectionalMap(),
		Temporals: []domain.TemporalDescriptor{},
	}

	switch spec.Mark {
	case domain.MarkBar:
		mapBarAxis(spec, res, domain.ChannelX, domain.ChannelColumn, LengthX, ColumnX, PositionX)
		mapBarAxis(spec, res, domain.ChannelY, domain.ChannelRow, LengthY, RowY, PositionY)
	case domain.MarkLine:
		mapLine(spec, res)
	default:
		// tick, point, circle and text are recognized but not reconstructed yet.
		res.Passthrough = true
		return res, &domain.UnsupportedMarkError{Mark: spec.Mark}
	}
	return res, nil
}

// mapBarAxis handles one axis of a bar chart. A quantitative axis carries the
// bar length; any other axis positions the bars, optionally faceted.
func mapBarAxis(spec *domain.ChartSpec, res *Result, axis, facet, length, facetChannel, position string) {
	fd, ok := spec.Channel(axis)
	if !ok {
		return
	}
	if fd.IsQuantitative() {
		res.Mappings.AddForward(length, fd.Field)
		return
	}
	if facetDef, ok := spec.Channel(facet); ok {
		res.Mappings.AddForward(facetChannel, facetDef.Field)
	}
	res.Mappings.AddForward(position, fd.Field)
	if fd.TimeUnit != "" {
		res.Temporals = append(res.Temporals, domain.TemporalDescriptor{Field: fd.Field, Unit: fd.TimeUnit})
	}
}

func mapLine(spec *domain.ChartSpec, res *Result) {
	x, hasX := spec.Channel(domain.ChannelX)
	if y, ok := spec.Channel(domain.ChannelY); ok && y.IsQuantitative() {
		res.Mappings.AddForward(PositionY, y.Field)
		if hasX {
			res.Mappings.AddForward(PositionX, x.Field)
		}
		if color, ok := spec.Channel(domain.ChannelColor); ok {
			res.Mappings.AddForward(Color, color.Field)
		}
	}
	if hasX && x.IsTemporal() {
		res.Temporals = append(res.Temporals, domain.TemporalDescriptor{Field: x.Field})
	}
}
