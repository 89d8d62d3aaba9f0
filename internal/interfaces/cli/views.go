package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/turtacn/CDNAtlas/internal/application/atlas"
	"github.com/turtacn/CDNAtlas/internal/domain/criticality"
)

// Views adapt service results to the text and table printers; JSON output
// serializes the wrapped result unchanged.

func f2(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

// ── score ───────────────────────────────────────────────────────────────────

type scoreView struct {
	RelationID string                `json:"relationId,omitempty"`
	Breakdown  criticality.Breakdown `json:"breakdown"`
	Color      string                `json:"color"`
}

func (v scoreView) TableHeaders() []string { return []string{"COMPONENT", "SCORE", "MAX"} }

func (v scoreView) TableRows() [][]string {
	b := v.Breakdown
	return [][]string{
		{"performance", f2(b.Performance), "30"},
		{"business impact", f2(b.BusinessImpact), "25"},
		{"geopolitical", f2(b.Geopolitical), "20"},
		{"redundancy", f2(b.Redundancy), "18"},
		{"network quality", f2(b.NetworkQuality), "10"},
		{"total", f2(b.Total), "100"},
	}
}

func (v scoreView) Text() string {
	var sb strings.Builder
	if v.RelationID != "" {
		fmt.Fprintf(&sb, "relation:    %s\n", v.RelationID)
	}
	fmt.Fprintf(&sb, "criticality: %s (%s) %s\n", f2(v.Breakdown.Total), v.Breakdown.Level, v.Color)
	for _, row := range v.TableRows()[:5] {
		fmt.Fprintf(&sb, "  %-16s %6s / %s\n", row[0], row[1], row[2])
	}
	return sb.String()
}

// ── layer ───────────────────────────────────────────────────────────────────

type layerView struct{ *atlas.Layer }

func (v layerView) JSONValue() interface{} { return v.Layer }

func (v layerView) TableHeaders() []string {
	return []string{"RELATION", "ROUTE", "CDN", "CLASS", "INTENSITY", "OFFSET", "WEIGHT", "COLOR", "CRITICALITY"}
}

func (v layerView) TableRows() [][]string {
	rows := make([][]string, 0, len(v.Arcs))
	for _, a := range v.Arcs {
		rows = append(rows, []string{
			a.RelationID,
			a.Origin + " -> " + a.Host,
			a.CDNProvider,
			a.ContentClass,
			strconv.Itoa(a.Intensity),
			strconv.FormatFloat(a.Offset, 'f', -1, 64),
			f2(a.Weight),
			a.Color,
			f2(a.Criticality) + " " + a.CriticalityLevel,
		})
	}
	return rows
}

func (v layerView) Text() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d arcs over %d country pairs", len(v.Arcs), v.Pairs)
	if v.Skipped > 0 {
		fmt.Fprintf(&sb, " (%d skipped)", v.Skipped)
	}
	sb.WriteString("\n")
	for _, a := range v.Arcs {
		fmt.Fprintf(&sb, "  %-24s %s -> %s  %-10s intensity %3d  offset %+g  %s\n",
			a.RelationID, a.Origin, a.Host, a.CDNProvider, a.Intensity, a.Offset, a.Color)
	}
	return sb.String()
}

// ── country ─────────────────────────────────────────────────────────────────

type countryView struct{ *atlas.CountryDetail }

func (v countryView) JSONValue() interface{} { return v.CountryDetail }

func (v countryView) TableHeaders() []string {
	return []string{"RELATION", "DIRECTION", "COUNTERPART", "CDN", "CLASS", "INTENSITY"}
}

func (v countryView) TableRows() [][]string {
	rows := make([][]string, 0, len(v.Relations))
	for _, r := range v.Relations {
		counterpart := r.HostName
		if r.Direction == "provision" {
			counterpart = r.OriginName
		}
		rows = append(rows, []string{
			r.ID, string(r.Direction), counterpart, r.CDNName, r.ContentClassName, strconv.Itoa(r.Intensity),
		})
	}
	return rows
}

func (v countryView) Text() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)\n", v.Country.Name, v.Country.Code)
	fmt.Fprintf(&sb, "  dependencies:      %d\n", v.Dependencies)
	fmt.Fprintf(&sb, "  provisions:        %d\n", v.Provisions)
	fmt.Fprintf(&sb, "  total:             %d\n", v.Total)
	fmt.Fprintf(&sb, "  average intensity: %d\n", v.AverageIntensity)
	sb.WriteString("  content classes:\n")
	for _, c := range v.ContentClasses {
		fmt.Fprintf(&sb, "    %-26s %d\n", c.Name, c.Count)
	}
	return sb.String()
}

// ── stats ───────────────────────────────────────────────────────────────────

type statsView struct{ *atlas.MapStats }

func (v statsView) JSONValue() interface{} { return v.MapStats }

func (v statsView) TableHeaders() []string { return []string{"COUNTRY", "ACTIVE RELATIONS"} }

func (v statsView) TableRows() [][]string {
	codes := make([]string, 0, len(v.ActiveCountries))
	for c := range v.ActiveCountries {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	rows := make([][]string, 0, len(codes))
	for _, c := range codes {
		rows = append(rows, []string{c, strconv.Itoa(v.ActiveCountries[c])})
	}
	return rows
}

func (v statsView) Text() string {
	var sb strings.Builder
	if v.Selected != "" {
		fmt.Fprintf(&sb, "selected:          %s\n", v.Selected)
	}
	fmt.Fprintf(&sb, "relations:         %d\n", v.TotalRelations)
	fmt.Fprintf(&sb, "average intensity: %d\n", v.AverageIntensity)
	fmt.Fprintf(&sb, "dependencies:      %d\n", v.Dependencies)
	fmt.Fprintf(&sb, "provisions:        %d\n", v.Provisions)
	fmt.Fprintf(&sb, "active countries:  %d\n", len(v.ActiveCountries))
	return sb.String()
}

// ── analytics ───────────────────────────────────────────────────────────────

type analyticsView struct{ *atlas.Analytics }

func (v analyticsView) JSONValue() interface{} { return v.Analytics }

func (v analyticsView) TableHeaders() []string { return []string{"RANK", "TOP DEPENDENT", "COUNT", "TOP PROVIDER", "COUNT"} }

func (v analyticsView) TableRows() [][]string {
	n := len(v.TopDependents)
	if len(v.TopProviders) > n {
		n = len(v.TopProviders)
	}
	rows := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		row := []string{strconv.Itoa(i + 1), "", "", "", ""}
		if i < len(v.TopDependents) {
			row[1], row[2] = v.TopDependents[i].Code, strconv.Itoa(v.TopDependents[i].Count)
		}
		if i < len(v.TopProviders) {
			row[3], row[4] = v.TopProviders[i].Code, strconv.Itoa(v.TopProviders[i].Count)
		}
		rows = append(rows, row)
	}
	return rows
}

func (v analyticsView) Text() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "relations:           %d\n", v.TotalRelations)
	fmt.Fprintf(&sb, "average intensity:   %d\n", v.AverageIntensity)
	fmt.Fprintf(&sb, "average criticality: %s\n", f2(v.AverageCriticality))
	writeCounts(&sb, "protocols", v.Protocols)
	writeCounts(&sb, "content classes", v.ContentClasses)
	writeCounts(&sb, "criticality levels", v.CriticalityLevels)
	sb.WriteString("top dependents:\n")
	for _, c := range v.TopDependents {
		fmt.Fprintf(&sb, "  %-4s %-20s %d\n", c.Code, c.Name, c.Count)
	}
	sb.WriteString("top providers:\n")
	for _, c := range v.TopProviders {
		fmt.Fprintf(&sb, "  %-4s %-20s %d\n", c.Code, c.Name, c.Count)
	}
	return sb.String()
}

func writeCounts(sb *strings.Builder, title string, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(sb, "%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(sb, "  %-26s %d\n", k, counts[k])
	}
}
