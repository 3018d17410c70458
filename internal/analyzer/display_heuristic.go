package analyzer

import (
	"sort"

	"github.com/anime-shed/waste-inspector-go/pkg/models"
)

// DisplayOptions controls the display-only area ranking
type DisplayOptions struct {
	// AnchorCategory is pinned to 100% when it was detected
	AnchorCategory string
	// AnchorScale inflates the largest category when the anchor is absent
	AnchorScale float64
}

// DefaultDisplayOptions returns the ranking parameters shown in the demo UI
func DefaultDisplayOptions() DisplayOptions {
	return DisplayOptions{
		AnchorCategory: "Garbage",
		AnchorScale:    1.2,
	}
}

// DisplayRanking is a presentation heuristic, not a statistic. It sums box
// areas per category and scales them against an anchor: the anchor category
// when present (shown as 100%), otherwise AnchorScale times the largest
// category. Results are clamped to [0, 100] and sorted by percent, then name.
// Categories whose summed area is not positive are left out.
func DisplayRanking(entries []models.AreaEntry, opts DisplayOptions) []models.DisplayShare {
	if opts.AnchorScale <= 0 {
		opts.AnchorScale = DefaultDisplayOptions().AnchorScale
	}

	totals := make(map[string]float64)
	order := make([]string, 0)
	for _, e := range entries {
		if _, seen := totals[e.Category]; !seen {
			order = append(order, e.Category)
		}
		totals[e.Category] += e.Area
	}

	var largest float64
	for _, cat := range order {
		if totals[cat] > largest {
			largest = totals[cat]
		}
	}
	if largest <= 0 {
		return []models.DisplayShare{}
	}

	anchor := opts.AnchorScale * largest
	anchorArea, anchored := totals[opts.AnchorCategory]
	if anchored && anchorArea > 0 {
		anchor = anchorArea
	} else {
		anchored = false
	}

	shares := make([]models.DisplayShare, 0, len(order))
	for _, cat := range order {
		area := totals[cat]
		if area <= 0 {
			continue
		}
		isAnchor := anchored && cat == opts.AnchorCategory
		pct := area / anchor * 100
		if isAnchor || pct > 100 {
			pct = 100
		}
		shares = append(shares, models.DisplayShare{
			Category: cat,
			Area:     area,
			Percent:  pct,
			Anchor:   isAnchor,
		})
	}

	sort.SliceStable(shares, func(i, j int) bool {
		if shares[i].Percent != shares[j].Percent {
			return shares[i].Percent > shares[j].Percent
		}
		return shares[i].Category < shares[j].Category
	})
	return shares
}
