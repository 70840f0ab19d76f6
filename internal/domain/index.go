package domain

// Indexes are the lookup tables derived from a Dataset. They are built once
// and read concurrently without locking.
type Indexes struct {
	MunicipiosByDept     map[CanonicalKey][]MunicipalityRecord
	DeptAggregatesByDept map[CanonicalKey]EnrichedDepartmentAggregate
	MunicipiosByDane     map[int]MunicipalityRecord

	// AliasesByKey records every distinct raw spelling seen for a key, in
	// first-seen order across municipalities then aggregates.
	AliasesByKey map[CanonicalKey][]string
}

// BuildIndexes groups municipalities by canonical department key (dataset
// order preserved) and enriches each department aggregate with geography
// computed from its municipalities. A department with no matching
// municipalities gets nil bounds and center and empty stats rather than an
// error. The function is pure: equal inputs give structurally equal output.
func BuildIndexes(ds Dataset) Indexes {
	idx := Indexes{
		MunicipiosByDept:     make(map[CanonicalKey][]MunicipalityRecord),
		DeptAggregatesByDept: make(map[CanonicalKey]EnrichedDepartmentAggregate, len(ds.Departamentos)),
		MunicipiosByDane:     make(map[int]MunicipalityRecord, len(ds.Municipios)),
		AliasesByKey:         make(map[CanonicalKey][]string),
	}

	for _, m := range ds.Municipios {
		key := NormalizeDepartmentName(m.DepartmentNameRaw)
		idx.MunicipiosByDept[key] = append(idx.MunicipiosByDept[key], m)
		idx.MunicipiosByDane[m.DaneCode] = m
		idx.addAlias(key, m.DepartmentNameRaw)
	}

	for _, d := range ds.Departamentos {
		key := NormalizeDepartmentName(d.DepartmentNameRaw)
		idx.DeptAggregatesByDept[key] = EnrichedDepartmentAggregate{
			DepartmentAggregateRecord: d,
			CanonicalKey:              key,
			GeographicInfo:            ComputeGeographicInfo(idx.MunicipiosByDept[key]),
		}
		idx.addAlias(key, d.DepartmentNameRaw)
	}

	return idx
}

func (idx Indexes) addAlias(key CanonicalKey, raw string) {
	for _, seen := range idx.AliasesByKey[key] {
		if seen == raw {
			return
		}
	}
	idx.AliasesByKey[key] = append(idx.AliasesByKey[key], raw)
}

// DepartmentAggregates returns copies of the enriched aggregates in dataset
// order, one per canonical key.
func (s *Snapshot) DepartmentAggregates() []EnrichedDepartmentAggregate {
	out := make([]EnrichedDepartmentAggregate, 0, len(s.Dataset.Departamentos))
	seen := make(map[CanonicalKey]bool, len(s.Dataset.Departamentos))
	for _, d := range s.Dataset.Departamentos {
		key := NormalizeDepartmentName(d.DepartmentNameRaw)
		if seen[key] {
			continue
		}
		seen[key] = true
		if agg, ok := s.Indexes.DeptAggregatesByDept[key]; ok {
			out = append(out, agg.Clone())
		}
	}
	return out
}
