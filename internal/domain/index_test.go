package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDataset() Dataset {
	return Dataset{
		Municipios: []MunicipalityRecord{
			{DaneCode: 44001, Name: "RIOHACHA", DepartmentNameRaw: "LA GUAJIRA", Latitude: ptr(11.5), Longitude: ptr(-72.9), PredictedClass: ClassEolica, ProbEolica: 0.9},
			{DaneCode: 11001, Name: "BOGOTÁ, D.C.", DepartmentNameRaw: "BOGOTÁ, D.C.", Latitude: ptr(4.6), Longitude: ptr(-74.1), PredictedClass: ClassSolar},
			{DaneCode: 44847, Name: "URIBIA", DepartmentNameRaw: "La Guajira", Latitude: ptr(11.7), Longitude: ptr(-72.3), PredictedClass: ClassEolica},
		},
		Departamentos: []DepartmentAggregateRecord{
			{DepartmentNameRaw: "La Guajira", NumMunicipios: 2, DominantClass: ClassEolica, EolicaPct: ptr(1.0)},
			{DepartmentNameRaw: "BogotáD.C.", NumMunicipios: 1, DominantClass: ClassSolar},
			{DepartmentNameRaw: "Vaupés", NumMunicipios: 3, DominantClass: ClassSolar},
		},
	}
}

func TestBuildIndexes_GroupsInDatasetOrder(t *testing.T) {
	idx := BuildIndexes(testDataset())

	guajira := idx.MunicipiosByDept["LA GUAJIRA"]
	require.Len(t, guajira, 2)
	assert.Equal(t, 44001, guajira[0].DaneCode)
	assert.Equal(t, 44847, guajira[1].DaneCode)

	assert.Len(t, idx.MunicipiosByDept["BOGOTA D C"], 1)
	assert.Len(t, idx.MunicipiosByDane, 3)
	assert.Equal(t, "URIBIA", idx.MunicipiosByDane[44847].Name)
}

func TestBuildIndexes_EnrichesAggregates(t *testing.T) {
	idx := BuildIndexes(testDataset())

	guajira, ok := idx.DeptAggregatesByDept["LA GUAJIRA"]
	require.True(t, ok)
	assert.Equal(t, CanonicalKey("LA GUAJIRA"), guajira.CanonicalKey)
	assert.Equal(t, "La Guajira", guajira.DepartmentNameRaw)
	require.NotNil(t, guajira.GeographicInfo.Bounds)
	assert.Equal(t, 11.7, guajira.GeographicInfo.Bounds.North)
	assert.Equal(t, -72.9, guajira.GeographicInfo.Bounds.West)

	bogota, ok := idx.DeptAggregatesByDept["BOGOTA D C"]
	require.True(t, ok, "concatenated boundary name should meet the dataset spelling")
	require.NotNil(t, bogota.GeographicInfo.Center)
	assert.Equal(t, LatLng{Lat: 4.6, Lng: -74.1}, *bogota.GeographicInfo.Center)
}

func TestBuildIndexes_DepartmentWithoutMunicipios(t *testing.T) {
	idx := BuildIndexes(testDataset())

	vaupes, ok := idx.DeptAggregatesByDept["VAUPES"]
	require.True(t, ok)
	assert.Nil(t, vaupes.GeographicInfo.Bounds)
	assert.Nil(t, vaupes.GeographicInfo.Center)
	assert.Equal(t, AreaStats{}, vaupes.GeographicInfo.AreaStats)
	assert.Empty(t, idx.MunicipiosByDept["VAUPES"])
}

func TestBuildIndexes_RecordsAliases(t *testing.T) {
	idx := BuildIndexes(testDataset())

	assert.Equal(t, []string{"LA GUAJIRA", "La Guajira"}, idx.AliasesByKey["LA GUAJIRA"])
	assert.Equal(t, []string{"BOGOTÁ, D.C.", "BogotáD.C."}, idx.AliasesByKey["BOGOTA D C"])
}

func TestBuildIndexes_Deterministic(t *testing.T) {
	first := BuildIndexes(testDataset())
	second := BuildIndexes(testDataset())

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("indexes differ between builds (-first +second):\n%s", diff)
	}
}

func TestBuildIndexes_EmptyDataset(t *testing.T) {
	idx := BuildIndexes(Dataset{})

	assert.Empty(t, idx.MunicipiosByDept)
	assert.Empty(t, idx.DeptAggregatesByDept)
	assert.NotNil(t, idx.MunicipiosByDept)
}

func TestSnapshot_DepartmentAggregates(t *testing.T) {
	ds := testDataset()
	ds.Departamentos = append(ds.Departamentos, DepartmentAggregateRecord{DepartmentNameRaw: "LA GUAJIRA", NumMunicipios: 2})
	snap := &Snapshot{Dataset: ds, Indexes: BuildIndexes(ds)}

	aggs := snap.DepartmentAggregates()

	keys := make([]CanonicalKey, 0, len(aggs))
	for _, a := range aggs {
		keys = append(keys, a.CanonicalKey)
	}
	assert.Equal(t, []CanonicalKey{"LA GUAJIRA", "BOGOTA D C", "VAUPES"}, keys)
}

func TestClone_SharesNoMemory(t *testing.T) {
	idx := BuildIndexes(testDataset())
	orig := idx.DeptAggregatesByDept["LA GUAJIRA"]
	require.NotNil(t, orig.GeographicInfo.Bounds)

	agg := orig.Clone()
	assert.True(t, cmp.Equal(orig, agg), cmp.Diff(orig, agg))

	agg.GeographicInfo.Bounds.North = 0
	agg.GeographicInfo.Center.Lat = 0
	*agg.EolicaPct = 0
	assert.InDelta(t, 11.7, idx.DeptAggregatesByDept["LA GUAJIRA"].GeographicInfo.Bounds.North, 0)
	assert.InDelta(t, 11.6, idx.DeptAggregatesByDept["LA GUAJIRA"].GeographicInfo.Center.Lat, 1e-9)
	assert.InDelta(t, 1.0, *idx.DeptAggregatesByDept["LA GUAJIRA"].EolicaPct, 0)

	munis := CloneMunicipios(idx.MunicipiosByDept["LA GUAJIRA"])
	*munis[0].Latitude = 0
	assert.InDelta(t, 11.5, *idx.MunicipiosByDept["LA GUAJIRA"][0].Latitude, 0)
	assert.Nil(t, CloneMunicipios(nil))
}
