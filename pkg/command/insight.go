package command

import "fmt"

// Insight renders the status report: the remaining balance and, when
// recent history exists, a days-left projection from the 7-day daily
// average with a top-up nudge when fewer than three days remain.
func Insight(balanceBytes, dailyAverage uint64) string {
	insight := fmt.Sprintf("You have %.2f GB remaining.", float64(balanceBytes)/1e9)

	if dailyAverage == 0 {
		return insight + " Start using data to see personalized forecasting."
	}

	daysLeft := balanceBytes / dailyAverage
	insight += fmt.Sprintf(" Based on last 7 days, you have roughly %d days of usage left.", daysLeft)
	if daysLeft < 3 {
		insight += " Recommendation: Top up soon to avoid interruption."
	}
	return insight
}
