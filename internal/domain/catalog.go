package domain

import "slices"

// knownDepartments lists the canonical keys of Colombia's 32 departments and
// the capital district.
var knownDepartments = []CanonicalKey{
	"AMAZONAS", "ANTIOQUIA", "ARAUCA", SanAndresKey, "ATLANTICO",
	"BOGOTA D C", "BOLIVAR", "BOYACA", "CALDAS", "CAQUETA", "CASANARE",
	"CAUCA", "CESAR", "CHOCO", "CORDOBA", "CUNDINAMARCA", "GUAINIA",
	"GUAVIARE", "HUILA", "LA GUAJIRA", "MAGDALENA", "META", "NARINO",
	"NORTE DE SANTANDER", "PUTUMAYO", "QUINDIO", "RISARALDA", "SANTANDER",
	"SUCRE", "TOLIMA", "VALLE DEL CAUCA", "VAUPES", "VICHADA",
}

// KnownDepartments returns the catalog of canonical department keys, sorted.
func KnownDepartments() []CanonicalKey {
	out := slices.Clone(knownDepartments)
	slices.Sort(out)
	return out
}

// IsKnownDepartment reports whether key is one of the catalogued departments.
func IsKnownDepartment(key CanonicalKey) bool {
	return slices.Contains(knownDepartments, key)
}
