package google

import (
	"fmt"
	"strings"

	"puntos/internal/core"
)

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

func blankRow(cols []string) bool {
	for _, c := range cols {
		if c != "" {
			return false
		}
	}
	return true
}

// isHeader reports whether the first row names columns rather than holding data.
func isHeader(cols []string, valueCol int) bool {
	_, err := core.ParsePoints(safeGet(cols, valueCol))
	return err != nil
}

// parseCatalog reads name/value rows. Blank rows and "#" comments are skipped;
// bad values and duplicate names make the catalog unusable.
func parseCatalog(sheet string, values [][]any) (core.Catalog, error) {
	cat := core.Catalog{}
	for i, row := range values {
		cols := toStrings(row)
		if blankRow(cols) || strings.HasPrefix(safeGet(cols, 0), "#") {
			continue
		}
		if i == 0 && isHeader(cols, 1) {
			continue
		}
		name := safeGet(cols, 0)
		if name == "" {
			return nil, fmt.Errorf("%w: %s row %d has no name", core.ErrConfiguration, sheet, i+1)
		}
		v, err := core.ParsePoints(safeGet(cols, 1))
		if err != nil {
			return nil, fmt.Errorf("%w: %s row %d (%s): %v", core.ErrConfiguration, sheet, i+1, name, err)
		}
		if _, dup := cat[name]; dup {
			return nil, fmt.Errorf("%w: %s has %q twice", core.ErrConfiguration, sheet, name)
		}
		cat[name] = v
	}
	if len(cat) == 0 {
		return nil, fmt.Errorf("%w: %s has no entries", core.ErrConfiguration, sheet)
	}
	return cat, nil
}

// parseActivityRows reads id, nombre, actividad, fecha, puntos rows.
func parseActivityRows(values [][]any) ([]core.ActivityRecord, error) {
	out := make([]core.ActivityRecord, 0, len(values))
	for i, row := range values {
		cols := toStrings(row)
		if blankRow(cols) {
			continue
		}
		if i == 0 && isHeader(cols, 4) {
			continue
		}
		date, err := core.ParseDate(safeGet(cols, 3))
		if err != nil {
			return nil, core.DataIntegrityError("activity row %d: bad fecha %q", i+1, safeGet(cols, 3))
		}
		pts, err := core.ParsePoints(safeGet(cols, 4))
		if err != nil {
			return nil, fmt.Errorf("activity row %d: %w", i+1, err)
		}
		out = append(out, core.ActivityRecord{
			ID:       safeGet(cols, 0),
			Person:   core.Person(safeGet(cols, 1)),
			Activity: safeGet(cols, 2),
			Date:     date,
			Points:   pts,
		})
	}
	return out, nil
}

// parseRedemptionRows reads id, nombre, recompensa, puntos, fecha rows.
func parseRedemptionRows(values [][]any) ([]core.RedemptionRecord, error) {
	out := make([]core.RedemptionRecord, 0, len(values))
	for i, row := range values {
		cols := toStrings(row)
		if blankRow(cols) {
			continue
		}
		if i == 0 && isHeader(cols, 3) {
			continue
		}
		cost, err := core.ParsePoints(safeGet(cols, 3))
		if err != nil {
			return nil, fmt.Errorf("redemption row %d: %w", i+1, err)
		}
		date, err := core.ParseDate(safeGet(cols, 4))
		if err != nil {
			return nil, core.DataIntegrityError("redemption row %d: bad fecha %q", i+1, safeGet(cols, 4))
		}
		out = append(out, core.RedemptionRecord{
			ID:     safeGet(cols, 0),
			Person: core.Person(safeGet(cols, 1)),
			Reward: safeGet(cols, 2),
			Date:   date,
			Cost:   cost,
		})
	}
	return out, nil
}
