package readiness

import (
	"sort"

	"github.com/okian/nova/internal/domain/model"
)

// Table maps a workout or chapter type to the fatigue (0-100 per zone) it
// inflicts at time zero.
type Table map[model.WorkoutType]ZoneValues

// defaultTable is the single source of truth for fatigue infliction. The
// coach context is rendered from the same values.
var defaultTable = Table{
	model.TypeMartialArts:  {UpperBody: 85, LowerBody: 20, CNS: 90},
	model.TypeBoxing:       {UpperBody: 85, LowerBody: 20, CNS: 90},
	model.TypeMuayThai:     {UpperBody: 80, LowerBody: 85, CNS: 95},
	model.TypeStrength:     {UpperBody: 90, LowerBody: 0, CNS: 40},
	model.TypeGym:          {UpperBody: 90, LowerBody: 0, CNS: 40},
	model.TypeCalisthenics: {UpperBody: 75, LowerBody: 25, CNS: 35},
	model.TypeEndurance:    {UpperBody: 10, LowerBody: 85, CNS: 40},
	model.TypeRun:          {UpperBody: 10, LowerBody: 85, CNS: 40},
	model.TypeRecovery:     {},
	model.TypeIceBath:      {},
	model.TypeSauna:        {},
	model.TypeStretching:   {},
}

// FatigueTable returns a copy of the built-in fatigue table.
func FatigueTable() Table {
	return defaultTable.clone()
}

// Lookup returns the fresh fatigue for t. Unknown types, including hybrid
// itself, inflict nothing.
func (t Table) Lookup(wt model.WorkoutType) ZoneValues {
	if p, ok := t[wt.Normalize()]; ok {
		return p
	}
	return ZoneValues{}
}

// TableRow is one entry of a Table in a stable order.
type TableRow struct {
	Type    model.WorkoutType `json:"type"`
	Fatigue ZoneValues        `json:"fatigue"`
}

// Rows returns the table sorted by type name.
func (t Table) Rows() []TableRow {
	rows := make([]TableRow, 0, len(t))
	for wt, p := range t {
		rows = append(rows, TableRow{Type: wt, Fatigue: p})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Type < rows[j].Type })
	return rows
}

func (t Table) clone() Table {
	out := make(Table, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}
