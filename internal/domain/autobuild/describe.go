package autobuild

import (
	"fmt"
	"sort"
	"strings"

	"github.com/andrescamacho/autobuild-go/internal/domain/shared"
)

// Describe renders a one-line summary of st for verbose logging.
func (st *SimState) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s minerals %.0f gas %.0f supply %.1f/%.1f (+%.1f)",
		shared.FormatGameTime(st.Frame), st.Race,
		st.Minerals, st.Gas,
		st.UsedSupply[st.Race], st.MaxSupply[st.Race], st.InProductionSupply[st.Race])

	names := make([]string, 0, len(st.Producers))
	for t, list := range st.Producers {
		if len(list) > 0 {
			names = append(names, fmt.Sprintf("%s x%d", t, len(list)))
		}
	}
	sort.Strings(names)
	if len(names) > 0 {
		b.WriteString(" units [")
		b.WriteString(strings.Join(names, ", "))
		b.WriteString("]")
	}

	if len(st.Production) > 0 {
		b.WriteString(" production [")
		for i, p := range st.Production {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s in %d", p.Type, p.Frame-st.Frame)
		}
		b.WriteString("]")
	}
	return b.String()
}

// DescribePlan renders the committed plan, one entry per line, relative to
// the frame the plan was produced at.
func DescribePlan(plan []PlanItem, now int) string {
	var b strings.Builder
	for _, p := range plan {
		fmt.Fprintf(&b, "%s %s\n", shared.FormatGameTime(max(p.Frame, now)), p.Entry)
	}
	return b.String()
}
