package knapsack

// solveUnbounded keeps one profit per capacity and the item that last improved
// it. Improvements must be strict, so the first item in catalog order keeps a
// tied capacity. Units are aggregated by name in the order they are replayed.
func solveUnbounded(items []Item, budget int) Result {
	result := Result{Mode: ModeUnbounded, Budget: budget, Plan: []PlanEntry{}}
	if len(items) == 0 || budget == 0 {
		return result
	}

	dp := make([]int, budget+1)
	choice := make([]int, budget+1)
	for w := range choice {
		choice[w] = -1
	}

	for w := 1; w <= budget; w++ {
		for i, item := range items {
			if item.Cost > w {
				continue
			}
			if candidate := dp[w-item.Cost] + item.Profit(); candidate > dp[w] {
				dp[w] = candidate
				choice[w] = i
			}
		}
	}

	result.TotalProfit = dp[budget]

	positions := make(map[string]int)
	for w := budget; w > 0 && choice[w] >= 0; {
		item := items[choice[w]]
		pos, ok := positions[item.Name]
		if !ok {
			pos = len(result.Plan)
			positions[item.Name] = pos
			result.Plan = append(result.Plan, PlanEntry{Item: item})
		}
		entry := &result.Plan[pos]
		entry.Quantity++
		entry.TotalCost += item.Cost
		entry.TotalProfit += item.Profit()
		w -= item.Cost
	}

	return result
}
