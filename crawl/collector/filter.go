package collector

import (
	"fmt"
	"strings"

	goeval "github.com/edisonguo/govaluate"

	"github.com/rgdonohue/ghost-forest-watcher/worker/tileservice"
)

func parsePatternExpression(pattern string) (*goeval.EvaluableExpression, error) {
	if len(strings.TrimSpace(pattern)) == 0 {
		return nil, nil
	}

	expr, err := goeval.NewEvaluableExpression(pattern)
	if err != nil {
		return nil, err
	}

	validVariables := map[string]struct{}{
		"tile_id":  struct{}{},
		"status":   struct{}{},
		"area_km2": struct{}{},
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
	return expr, nil
}

// FilterTileRecords keeps the records matching a boolean expression
// over tile_id, status and area_km2. An empty pattern keeps all.
func FilterTileRecords(records []*tileservice.TileRecord, pattern string) ([]*tileservice.TileRecord, error) {
	expr, err := parsePatternExpression(pattern)
	if err != nil {
		return nil, err
	}
	if expr == nil {
		return records, nil
	}

	var out []*tileservice.TileRecord
	for _, record := range records {
		parameters := map[string]interface{}{
			"tile_id":  float64(record.TileID),
			"status":   record.Status,
			"area_km2": record.AreaKm2,
		}
		result, err := expr.Evaluate(parameters)
		if err != nil {
			return nil, fmt.Errorf("pattern expression: %v", err)
		}
		val, ok := result.(bool)
		if !ok {
			return nil, fmt.Errorf("pattern expression: result '%v' is not boolean", result)
		}
		if val {
			out = append(out, record)
		}
	}
	return out, nil
}
