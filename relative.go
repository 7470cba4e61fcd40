package keyset

// relativeCondition selects the records lying strictly after (wantAfter) or
// strictly before the anchor in canonical order. Canonical order is dir on
// sortColumn with idColumn as tie-breaker, regardless of navigation.
//
// For a sort column other than the identifier the lexicographic comparison
// of (sortColumn, idColumn) is spelled out as
//
//	(sortColumn op v) OR (sortColumn = v AND idColumn op id)
//
// This is the only place keyset conditions are built: page scans and both
// boundary checks share it.
func relativeCondition(sortColumn, idColumn string, dir Direction, anchor *Anchor, wantAfter bool) Condition {
	if anchor == nil || anchor.ID == nil {
		return nil
	}

	op := dir.ForOperator()
	if !wantAfter {
		op = op.Inverse()
	}

	if sortColumn == idColumn {
		return Condition{
			{{Column: idColumn, Operator: op, Value: anchor.ID}},
		}
	}

	return Condition{
		{{Column: sortColumn, Operator: op, Value: anchor.SortValue}},
		{
			{Column: sortColumn, Operator: OperatorEQ, Value: anchor.SortValue},
			{Column: idColumn, Operator: op, Value: anchor.ID},
		},
	}
}

// scanOrderings returns the physical ordering of a scan. Backward scans run
// in the negated canonical direction and are reversed afterwards.
func scanOrderings(sortColumn, idColumn string, dir Direction, nav NavDirection) Orderings {
	if nav == NavPrev {
		dir = dir.Negate()
	}

	if sortColumn == idColumn {
		return Orderings{{Column: idColumn, Direction: dir}}
	}

	return Orderings{
		{Column: sortColumn, Direction: dir},
		{Column: idColumn, Direction: dir},
	}
}
