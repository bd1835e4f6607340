package knapsack

// solveBounded fills dp[i][w], the best profit using the first i items within
// capacity w, then replays the table from the last item backwards. An item is
// taken only where its row diverges from the row above, so the plan lists items
// last-index-first and an exact tie between two items keeps the earlier one.
func solveBounded(items []Item, budget int) Result {
	result := Result{Mode: ModeBounded, Budget: budget, Plan: []PlanEntry{}}
	n := len(items)
	if n == 0 || budget == 0 {
		return result
	}

	width := budget + 1
	cells := make([]int, (n+1)*width)
	row := func(i int) []int {
		return cells[i*width : (i+1)*width]
	}

	for i := 1; i <= n; i++ {
		cost := items[i-1].Cost
		profit := items[i-1].Profit()
		prev, cur := row(i-1), row(i)
		for w := 0; w <= budget; w++ {
			cur[w] = prev[w]
			if cost > w {
				continue
			}
			if with := prev[w-cost] + profit; with > cur[w] {
				cur[w] = with
			}
		}
	}

	result.TotalProfit = row(n)[budget]

	w := budget
	for i := n; i > 0; i-- {
		if row(i)[w] == row(i-1)[w] {
			continue
		}
		item := items[i-1]
		result.Plan = append(result.Plan, PlanEntry{
			Item:        item,
			Quantity:    1,
			TotalCost:   item.Cost,
			TotalProfit: item.Profit(),
		})
		w -= item.Cost
	}

	return result
}
