package flowtable

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// columns recognized in the external trace, in the order spec.md enumerates
// them. captain and epfl are optional.
var requiredColumns = []string{"layer", "src", "dst", "flit", "interval", "counts", "map_src", "map_dst"}

// LoadFile reads a CSV trace from path and returns the validated flow table.
func LoadFile(path string) (Table, ValidationReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ValidationReport{}, fmt.Errorf("flowtable: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a CSV trace from r, applies map_src/map_dst overrides, drops
// self-flows, and returns the resulting table along with a report of any
// malformed rows encountered.
func Load(r io.Reader) (Table, ValidationReport, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, ValidationReport{}, fmt.Errorf("flowtable: read header: %w", err)
	}
	idx, err := columnIndex(header)
	if err != nil {
		return nil, ValidationReport{}, err
	}

	var report ValidationReport
	var table Table
	rowNum := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, ValidationReport{}, fmt.Errorf("flowtable: read row %d: %w", rowNum, err)
		}
		rowNum++

		flow, skip, rowErr := parseRow(record, idx, rowNum)
		if rowErr != nil {
			report.Errors = append(report.Errors, rowErr.Error())
			continue
		}
		if skip != "" {
			report.Warnings = append(report.Warnings, skip)
			continue
		}
		flow.ID = len(table)
		flow.Count = flow.Counts
		table = append(table, flow)
	}

	if !report.OK() {
		return nil, report, fmt.Errorf("flowtable: %d malformed row(s), load aborted", len(report.Errors))
	}
	return table, report, nil
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, want := range requiredColumns {
		if _, ok := idx[want]; !ok {
			return nil, fmt.Errorf("flowtable: missing required column %q", want)
		}
	}
	return idx, nil
}

func parseRow(record []string, idx map[string]int, rowNum int) (Flow, string, error) {
	get := func(col string) string {
		if i, ok := idx[col]; ok && i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}
	atoi := func(col string) (int, error) {
		v, err := strconv.Atoi(get(col))
		if err != nil {
			return 0, fmt.Errorf("row %d: column %q: %w", rowNum, col, err)
		}
		return v, nil
	}

	src, err := atoi("src")
	if err != nil {
		return Flow{}, "", err
	}
	dst, err := atoi("dst")
	if err != nil {
		return Flow{}, "", err
	}
	flit, err := atoi("flit")
	if err != nil {
		return Flow{}, "", err
	}
	interval, err := atoi("interval")
	if err != nil {
		return Flow{}, "", err
	}
	counts, err := atoi("counts")
	if err != nil {
		return Flow{}, "", err
	}
	mapSrc, err := atoi("map_src")
	if err != nil {
		return Flow{}, "", err
	}
	mapDst, err := atoi("map_dst")
	if err != nil {
		return Flow{}, "", err
	}

	if flit <= 0 {
		return Flow{}, "", fmt.Errorf("row %d: flit must be positive, got %d", rowNum, flit)
	}
	if interval <= 0 {
		return Flow{}, "", fmt.Errorf("row %d: interval must be positive, got %d", rowNum, interval)
	}
	if counts <= 0 {
		return Flow{}, "", fmt.Errorf("row %d: counts must be positive, got %d", rowNum, counts)
	}

	effSrc, effDst := src, dst
	if mapSrc >= 0 {
		effSrc = mapSrc
	}
	if mapDst >= 0 {
		effDst = mapDst
	}

	if effSrc == effDst {
		return Flow{}, fmt.Sprintf("row %d: dropped self-flow src=dst=%d", rowNum, effSrc), nil
	}

	flow := Flow{
		Src:      effSrc,
		Dst:      effDst,
		Flit:     flit,
		Interval: interval,
		Counts:   counts,
		Layer:    get("layer"),
	}

	if v := get("captain"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			flow.Captain = &n
		}
	}
	if v := get("epfl"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			flow.EPFL = &n
		}
	}

	return flow, "", nil
}
