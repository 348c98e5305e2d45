package prioritize

// actionMatrix keys the static recommended action on (churn band, value
// band), band 1 being the top tertile of each axis.
var actionMatrix = map[[2]int]string{
	{1, 1}: "Immediate retention outreach with premium incentive",
	{1, 2}: "Targeted win-back offer",
	{1, 3}: "Low-cost re-engagement email",
	{2, 1}: "Proactive check-in with loyalty reward",
	{2, 2}: "Include in standard retention campaign",
	{2, 3}: "Monitor activity, no direct spend",
	{3, 1}: "Upsell and advocacy program",
	{3, 2}: "Cross-sell recommendations",
	{3, 3}: "Routine marketing only",
}

// recommendedAction returns the action text for a band combination.
func recommendedAction(churnBand, valueBand int) string {
	return actionMatrix[[2]int{churnBand, valueBand}]
}
