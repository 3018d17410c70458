package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/viper"

	"github.com/anime-shed/waste-inspector-go/internal/analyzer"
	"github.com/anime-shed/waste-inspector-go/pkg/models"
)

const (
	formatJSON  = "json"
	formatTable = "table"
)

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printSummaries writes summaries in the configured format, honoring --non-zero
func printSummaries(w io.Writer, v *viper.Viper, summaries []models.Summary) error {
	if v.GetBool("non-zero") {
		for i := range summaries {
			summaries[i] = analyzer.NonZeroSummary(summaries[i])
		}
	}

	if v.GetString("format") != formatTable {
		return writeJSON(w, models.SummaryResponse{Summaries: summaries})
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "IMAGE\tCATEGORY\tPIXELS\tPERCENT")
	for _, s := range summaries {
		for _, name := range rankCategories(s.CategoryPixels) {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\n", s.ImageID, name, s.CategoryPixels[name], s.Percentages[name])
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t\n", s.ImageID, "TOTAL", s.TotalPixels)
	}
	return tw.Flush()
}

// rankCategories orders categories by pixel count, largest first, then by name
func rankCategories(counts map[string]int64) []string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}
