// Package orderer computes the placement order for declared file
// entries: descendant paths first, then their ancestors, with a
// lexicographic tie-break between siblings so output is reproducible.
package orderer

import (
	"sort"
	"strings"

	"github.com/arthur-debert/genlink/pkg/errors"
	"github.com/arthur-debert/genlink/pkg/logging"
	"github.com/arthur-debert/genlink/pkg/types"
	"github.com/gammazero/toposort"
)

// sentinel sorts after any byte that can appear in a UTF-8 path, so a
// directory's key sorts after the keys of everything inside it.
const sentinel = "\xff"

// Order validates and sorts entries for placement. Descendant targets
// come before their ancestor targets; siblings are ordered by base
// name. Entries with no path relationship keep a deterministic order.
//
// Fails with DUPLICATE_TARGET listing every duplicated path, or with
// ORDER_CYCLE naming a minimal cycle.
func Order(entries []types.FileEntry) ([]types.FileEntry, error) {
	logger := logging.GetLogger("orderer")

	if err := checkDuplicates(entries); err != nil {
		return nil, err
	}

	if err := checkAcyclic(entries); err != nil {
		return nil, err
	}

	ordered := make([]types.FileEntry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		return sortKey(&ordered[i]) < sortKey(&ordered[j])
	})

	logger.Debug().Int("entries", len(ordered)).Msg("Entries ordered for placement")
	return ordered, nil
}

// Before reports the strict partial order used for placement: a comes
// before b if a's target is a descendant of b's, or if they are
// siblings and a's base name sorts first.
func Before(a, b *types.FileEntry) bool {
	if strings.HasPrefix(a.NormalizedTarget(), b.NormalizedTarget()) {
		return true
	}
	if strings.HasPrefix(b.NormalizedTarget(), a.NormalizedTarget()) {
		return false
	}
	if parentOf(a.Target) == parentOf(b.Target) {
		return baseOf(a.Target) < baseOf(b.Target)
	}
	return false
}

func checkDuplicates(entries []types.FileEntry) error {
	seen := make(map[string]int, len(entries))
	for i := range entries {
		seen[entries[i].Target]++
	}

	var dups []string
	for target, count := range seen {
		if count > 1 {
			dups = append(dups, target)
		}
	}
	if len(dups) == 0 {
		return nil
	}

	sort.Strings(dups)
	return errors.Newf(errors.ErrDuplicateTarget,
		"duplicate targets declared: %s", strings.Join(dups, ", ")).
		WithDetail("targets", dups)
}

// checkAcyclic validates that the before() relation is a DAG. The
// prefix relation cannot cycle on distinct targets, but aliased inputs
// reaching this far must still be caught rather than looping later.
func checkAcyclic(entries []types.FileEntry) error {
	edges := relationEdges(entries)
	if len(edges) == 0 {
		return nil
	}

	if _, err := toposort.Toposort(edges); err != nil {
		cycle := findCycle(entries, edges)
		return errors.Newf(errors.ErrOrderCycle,
			"ordering cycle between targets: %s", strings.Join(cycle, " -> ")).
			WithDetail("cycle", cycle)
	}
	return nil
}

// relationEdges materializes before() as (earlier, later) vertex pairs
// over entry indexes.
func relationEdges(entries []types.FileEntry) []toposort.Edge {
	var edges []toposort.Edge
	for i := range entries {
		for j := range entries {
			if i == j {
				continue
			}
			if Before(&entries[i], &entries[j]) {
				edges = append(edges, toposort.Edge{i, j})
			}
		}
	}
	return edges
}

// findCycle walks the edge set depth-first to name one cycle for the
// error message.
func findCycle(entries []types.FileEntry, edges []toposort.Edge) []string {
	next := make(map[int][]int)
	for _, e := range edges {
		from, to := e[0].(int), e[1].(int)
		next[from] = append(next[from], to)
	}

	const (
		unvisited = 0
		inStack   = 1
		done      = 2
	)
	state := make(map[int]int)
	var stack []int

	var visit func(n int) []int
	visit = func(n int) []int {
		state[n] = inStack
		stack = append(stack, n)
		for _, m := range next[n] {
			switch state[m] {
			case inStack:
				// unwind the stack back to m
				for i, v := range stack {
					if v == m {
						return append(append([]int{}, stack[i:]...), m)
					}
				}
			case unvisited:
				if cycle := visit(m); cycle != nil {
					return cycle
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[n] = done
		return nil
	}

	for i := range entries {
		if state[i] == unvisited {
			if cycle := visit(i); cycle != nil {
				names := make([]string, len(cycle))
				for i, idx := range cycle {
					names[i] = entries[idx].Target
				}
				return names
			}
		}
	}
	return nil
}

// sortKey linearizes the partial order: appending a sentinel that
// sorts after every path byte makes each directory key greater than
// the keys of its contents, while siblings fall back to plain
// lexicographic order.
func sortKey(e *types.FileEntry) string {
	return e.NormalizedTarget() + sentinel
}

func parentOf(target string) string {
	if i := strings.LastIndex(target, "/"); i >= 0 {
		return target[:i]
	}
	return ""
}

func baseOf(target string) string {
	if i := strings.LastIndex(target, "/"); i >= 0 {
		return target[i+1:]
	}
	return target
}
