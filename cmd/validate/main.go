// Command validate checks a prediction dataset for integrity problems that
// would make department lookups silently miss: aggregates whose name never
// meets a municipality, municipalities without an aggregate, names that do
// not resolve to a known department, and inconsistent counts or
// probabilities. It also prints every raw spelling seen per canonical key.
//
// Usage:
//
//	go run ./cmd/validate -dataset data/municipio_predictions.json
package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strings"

	"github.com/couchcryptid/energy-atlas-service/internal/domain"
)

// probabilityTolerance bounds how far the three class probabilities may sum
// away from 1 before a warning is printed. Probabilities need not sum to 1.
const probabilityTolerance = 0.01

// phase tracks pass/fail for a validation phase. Warnings are reported but
// never fail the phase.
type phase struct {
	name     string
	errors   []string
	warnings []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	datasetPath := flag.String("dataset", "", "path to municipio_predictions.json")
	showAliases := flag.Bool("aliases", true, "print raw spellings per canonical key")
	flag.Parse()

	if *datasetPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*datasetPath, *showAliases, os.Stdout); code != 0 {
		os.Exit(code)
	}
}

func run(path string, showAliases bool, out io.Writer) int {
	fmt.Fprintln(out, "=== Prediction Dataset Integrity Validation ===")
	fmt.Fprintln(out)

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(out, "FATAL: open dataset: %v\n", err)
		return 1
	}
	ds, err := domain.DecodeDataset(f)
	f.Close()
	if err != nil {
		fmt.Fprintf(out, "FATAL: decode dataset: %v\n", err)
		return 1
	}

	idx := domain.BuildIndexes(ds)

	phases := []*phase{
		validateMetadata(ds),
		validateAggregateCoverage(ds, idx),
		validateMunicipioCoverage(idx),
		validateCatalog(idx),
		validateRecords(ds),
	}

	fmt.Fprintln(out)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if len(p.warnings) > 0 {
			status = fmt.Sprintf("\033[32mPASS\033[0m \033[33m(%d warnings)\033[0m", len(p.warnings))
		}
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Records: %d municipios, %d departamentos, %d canonical keys\n",
		len(ds.Municipios), len(ds.Departamentos), len(idx.AliasesByKey))

	if showAliases {
		printAliases(out, idx)
	}

	for _, p := range phases {
		if len(p.warnings) == 0 {
			continue
		}
		fmt.Fprintf(out, "\n--- %s (warnings) ---\n", p.name)
		for i, w := range p.warnings {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, w)
		}
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

// ── Phases ──

func validateMetadata(ds domain.Dataset) *phase {
	p := &phase{name: "Metadata counts"}
	meta := ds.Metadata
	if meta.NumMunicipios != 0 && meta.NumMunicipios != len(ds.Municipios) {
		p.errorf("metadata num_municipios=%d, dataset has %d", meta.NumMunicipios, len(ds.Municipios))
	}
	if meta.NumDepartamentos != 0 && meta.NumDepartamentos != len(ds.Departamentos) {
		p.errorf("metadata num_departamentos=%d, dataset has %d", meta.NumDepartamentos, len(ds.Departamentos))
	}
	return p
}

func validateAggregateCoverage(ds domain.Dataset, idx domain.Indexes) *phase {
	p := &phase{name: "Aggregates matched to municipalities"}
	seen := make(map[domain.CanonicalKey]string, len(ds.Departamentos))
	for _, d := range ds.Departamentos {
		key := domain.NormalizeDepartmentName(d.DepartmentNameRaw)
		if prev, ok := seen[key]; ok {
			p.errorf("aggregates %q and %q share key %q", prev, d.DepartmentNameRaw, key)
			continue
		}
		seen[key] = d.DepartmentNameRaw

		munis := idx.MunicipiosByDept[key]
		switch {
		case len(munis) == 0:
			p.errorf("aggregate %q (key %q) has no municipalities", d.DepartmentNameRaw, key)
		case d.NumMunicipios != len(munis):
			p.errorf("aggregate %q reports %d municipalities, indexed %d", d.DepartmentNameRaw, d.NumMunicipios, len(munis))
		}
	}
	return p
}

func validateMunicipioCoverage(idx domain.Indexes) *phase {
	p := &phase{name: "Municipalities matched to aggregates"}
	for _, key := range sortedKeys(idx.MunicipiosByDept) {
		if _, ok := idx.DeptAggregatesByDept[key]; !ok {
			p.errorf("%d municipalities under %q have no aggregate (spellings: %s)",
				len(idx.MunicipiosByDept[key]), key, strings.Join(idx.AliasesByKey[key], ", "))
		}
	}
	return p
}

func validateCatalog(idx domain.Indexes) *phase {
	p := &phase{name: "Keys in department catalog"}
	for _, key := range sortedKeys(idx.AliasesByKey) {
		if !domain.IsKnownDepartment(key) {
			p.errorf("key %q is not a known department (spellings: %s)", key, strings.Join(idx.AliasesByKey[key], ", "))
		}
	}
	return p
}

func validateRecords(ds domain.Dataset) *phase {
	p := &phase{name: "Municipality record fields"}
	for _, m := range ds.Municipios {
		id := fmt.Sprintf("%d %s", m.DaneCode, m.Name)
		if strings.TrimSpace(m.DepartmentNameRaw) == "" {
			p.errorf("%s: empty departamento", id)
		}
		if m.Latitude == nil || m.Longitude == nil {
			p.warnf("%s: missing coordinates, excluded from bounds", id)
		}
		probs := []float64{m.ProbSolar, m.ProbEolica, m.ProbHibrida}
		if slices.ContainsFunc(probs, func(v float64) bool { return v < 0 || v > 1 }) {
			p.errorf("%s: probability outside [0,1]: %v", id, probs)
			continue
		}
		if sum := m.ProbSolar + m.ProbEolica + m.ProbHibrida; math.Abs(sum-1) > probabilityTolerance {
			p.warnf("%s: class probabilities sum to %.3f", id, sum)
		}
	}
	return p
}

// ── Reporting ──

func printAliases(out io.Writer, idx domain.Indexes) {
	fmt.Fprintln(out, "\nSpellings per canonical key:")
	for _, key := range sortedKeys(idx.AliasesByKey) {
		fmt.Fprintf(out, "  %-58s %s\n", key, strings.Join(idx.AliasesByKey[key], " | "))
	}
}

func sortedKeys[V any](m map[domain.CanonicalKey]V) []domain.CanonicalKey {
	keys := make([]domain.CanonicalKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
