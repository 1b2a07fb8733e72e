package processor

import (
	"fmt"
	"strings"

	goeval "github.com/edisonguo/govaluate"
)

// TileFilter selects planned tiles with a boolean expression over the
// tile attributes id, priority, area_km2, width and height.
type TileFilter struct {
	expr *goeval.EvaluableExpression
}

// ParseTileFilter compiles a filter expression. An empty expression
// yields a nil filter which selects everything.
func ParseTileFilter(pattern string) (*TileFilter, error) {
	if len(strings.TrimSpace(pattern)) == 0 {
		return nil, nil
	}

	expr, err := goeval.NewEvaluableExpression(pattern)
	if err != nil {
		return nil, err
	}

	validVariables := map[string]struct{}{
		"id":       struct{}{},
		"priority": struct{}{},
		"area_km2": struct{}{},
		"width":    struct{}{},
		"height":   struct{}{},
	}
	for _, token := range expr.Tokens() {
		if token.Kind == goeval.VARIABLE {
			varName, ok := token.Value.(string)
			if !ok {
				return nil, fmt.Errorf("variable token '%v' failed to cast string", token.Value)
			}
			if _, found := validVariables[varName]; !found {
				return nil, fmt.Errorf("variable %v is not supported. Valid variables are %v", varName, validVariables)
			}
		}
	}
	return &TileFilter{expr: expr}, nil
}

// Match evaluates the filter against one tile.
func (f *TileFilter) Match(tile *TileDescriptor) (bool, error) {
	parameters := map[string]interface{}{
		"id":       float64(tile.ID),
		"priority": float64(tile.Priority),
		"area_km2": tile.AreaKm2,
		"width":    float64(tile.Window.Width),
		"height":   float64(tile.Window.Height),
	}
	result, err := f.expr.Evaluate(parameters)
	if err != nil {
		return false, fmt.Errorf("tile filter: %v", err)
	}

	val, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("tile filter: result '%v' is not boolean", result)
	}
	return val, nil
}

// FilterTiles returns the tiles matching the filter, preserving order.
// A nil filter passes all tiles through.
func FilterTiles(tiles []*TileDescriptor, filter *TileFilter) ([]*TileDescriptor, error) {
	if filter == nil {
		return tiles, nil
	}

	out := make([]*TileDescriptor, 0, len(tiles))
	for _, tile := range tiles {
		ok, err := filter.Match(tile)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, tile)
		}
	}
	return out, nil
}
