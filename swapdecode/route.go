package swapdecode

// AnalyzeRoutePlan determines which steps of a route plan are the trade's
// entry and exit hops.
//
// Steps share one route-wide numbering: input index 0 is the external start,
// output index len(plan) the external end. Entry steps are those reading from
// 0; exit steps those writing to len(plan). More than one step can qualify on
// either side when a trade fans out across parallel hops sharing an index;
// all of them are returned and the aggregator sums their amounts.
//
// Some routes never write to len(plan) because they loop back to the starting
// asset (A→B→A). When the naive exit set is empty, the plan is probed for a
// cycle, and if one is confirmed the exit set becomes the steps writing back
// to index 0. A plan that neither reaches the end nor cycles has no
// well-defined exit and an empty exit set is returned.
func AnalyzeRoutePlan(plan []RoutePlanStep) (entry []int, exit []int) {
	if len(plan) == 0 {
		return nil, nil
	}

	endIndex := uint8(len(plan))

	for i, step := range plan {
		if step.InputIndex == 0 {
			entry = append(entry, i)
		}
	}
	for i, step := range plan {
		if step.OutputIndex == endIndex {
			exit = append(exit, i)
		}
	}

	if len(exit) == 0 && isCircularRoute(plan) {
		for i, step := range plan {
			if step.OutputIndex == 0 {
				exit = append(exit, i)
			}
		}
	}

	return entry, exit
}

// isCircularRoute follows the input→output index chain from the first step's
// input index. The route is circular exactly when the walk returns to that
// starting index; running off the mapping means it is not.
func isCircularRoute(plan []RoutePlanStep) bool {
	if len(plan) == 0 {
		return false
	}

	indexMap := make(map[uint8]uint8, len(plan))
	for _, step := range plan {
		indexMap[step.InputIndex] = step.OutputIndex
	}

	start := plan[0].InputIndex
	visited := make(map[uint8]bool)
	current := start

	for {
		if visited[current] {
			return current == start
		}
		visited[current] = true

		next, ok := indexMap[current]
		if !ok {
			return false
		}
		current = next
	}
}
