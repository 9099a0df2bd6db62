package cli

import (
	"fmt"
	"strings"

	"github.com/andrescamacho/autobuild-go/internal/domain/buildtype"
)

// dependencyKind labels an edge of the dependency tree
type dependencyKind string

const (
	dependencyRoot    dependencyKind = ""
	dependencyBuilder dependencyKind = "BUILDER"
	dependencyPrereq  dependencyKind = "REQUIRES"
)

// TreeFormatter renders the builder and prerequisite tree of a build type
type TreeFormatter struct {
	useColors bool
	useEmojis bool
}

// NewTreeFormatter creates a new tree formatter
func NewTreeFormatter(useColors, useEmojis bool) *TreeFormatter {
	return &TreeFormatter{
		useColors: useColors,
		useEmojis: useEmojis,
	}
}

// FormatTree renders the dependencies of root. owned may be nil; when set,
// owned types are marked and not expanded further.
func (f *TreeFormatter) FormatTree(root *buildtype.BuildType, owned func(*buildtype.BuildType) bool) string {
	if root == nil {
		return "(empty tree)"
	}

	var builder strings.Builder
	expanded := make(map[*buildtype.BuildType]bool)
	f.formatNode(&builder, root, dependencyRoot, owned, expanded, "", true, true)
	return builder.String()
}

type dependencyEdge struct {
	t    *buildtype.BuildType
	kind dependencyKind
}

func dependencies(t *buildtype.BuildType) []dependencyEdge {
	var edges []dependencyEdge
	if t.Builder != nil {
		edges = append(edges, dependencyEdge{t: t.Builder, kind: dependencyBuilder})
	}
	for _, p := range t.Prerequisites {
		if p == t.Builder {
			continue
		}
		edges = append(edges, dependencyEdge{t: p, kind: dependencyPrereq})
	}
	return edges
}

// formatNode recursively formats a node and its dependencies. A type is
// expanded once; later occurrences are printed as leaves.
func (f *TreeFormatter) formatNode(
	builder *strings.Builder,
	t *buildtype.BuildType,
	kind dependencyKind,
	owned func(*buildtype.BuildType) bool,
	expanded map[*buildtype.BuildType]bool,
	prefix string,
	isLast bool,
	isRoot bool,
) {
	var linePrefix string
	if isRoot {
		linePrefix = ""
	} else if isLast {
		linePrefix = prefix + "└── "
	} else {
		linePrefix = prefix + "├── "
	}

	have := owned != nil && owned(t)
	kindText := ""
	if kind != dependencyRoot {
		kindText = fmt.Sprintf(" [%s%s%s]", f.kindColor(kind), kind, f.colorReset())
	}

	seen := expanded[t]
	suffix := f.costText(t)
	if seen && len(dependencies(t)) > 0 && !have {
		suffix += " (see above)"
	}

	builder.WriteString(fmt.Sprintf("%s%s %s%s%s\n", linePrefix, f.statusIcon(have, owned != nil), t.Name, kindText, suffix))

	if have || seen {
		return
	}
	expanded[t] = true

	children := dependencies(t)
	var childPrefix string
	if isRoot {
		childPrefix = ""
	} else if isLast {
		childPrefix = prefix + "    "
	} else {
		childPrefix = prefix + "│   "
	}
	for i, child := range children {
		f.formatNode(builder, child.t, child.kind, owned, expanded, childPrefix, i == len(children)-1, false)
	}
}

func (f *TreeFormatter) statusIcon(have, tracked bool) string {
	if !tracked {
		return "-"
	}
	if !f.useEmojis {
		if have {
			return "[✓]"
		}
		return "[ ]"
	}
	if have {
		return "✅"
	}
	return "⏳"
}

func (f *TreeFormatter) costText(t *buildtype.BuildType) string {
	if t.MineralCost == 0 && t.GasCost == 0 && t.BuildTime == 0 {
		return ""
	}
	return fmt.Sprintf(" (%d/%d, %d frames)", t.MineralCost, t.GasCost, t.BuildTime)
}

// kindColor returns ANSI color code for the edge kind
func (f *TreeFormatter) kindColor(kind dependencyKind) string {
	if !f.useColors {
		return ""
	}

	switch kind {
	case dependencyBuilder:
		return "\033[32m" // Green
	case dependencyPrereq:
		return "\033[33m" // Yellow
	default:
		return ""
	}
}

// colorReset returns ANSI reset code
func (f *TreeFormatter) colorReset() string {
	if !f.useColors {
		return ""
	}
	return "\033[0m"
}

// FormatTreeSummary creates a compact summary of the tree: distinct types,
// depth, and the cost of the types not owned yet.
func (f *TreeFormatter) FormatTreeSummary(root *buildtype.BuildType, owned func(*buildtype.BuildType) bool) string {
	if root == nil {
		return "No dependency tree"
	}

	visited := make(map[*buildtype.BuildType]bool)
	onPath := make(map[*buildtype.BuildType]bool)
	minerals, gas := 0, 0
	var depth func(t *buildtype.BuildType) int
	depth = func(t *buildtype.BuildType) int {
		// Workers and depots build each other.
		if onPath[t] {
			return 0
		}
		have := owned != nil && owned(t)
		if !visited[t] {
			visited[t] = true
			if !have {
				minerals += t.MineralCost
				gas += t.GasCost
			}
		}
		if have {
			return 1
		}
		onPath[t] = true
		deepest := 0
		for _, e := range dependencies(t) {
			deepest = max(deepest, depth(e.t))
		}
		onPath[t] = false
		return deepest + 1
	}
	d := depth(root)

	return fmt.Sprintf("Tree: %d types, depth=%d, missing cost=%d minerals %d gas",
		len(visited), d, minerals, gas)
}
