package core

// Summary is the dashboard view for one person or both.
type Summary struct {
	Person      Person             `json:"person,omitempty"`
	Earned      int64              `json:"earned"`
	Spent       int64              `json:"spent"`
	Balance     int64              `json:"balance"`
	Rollup      []DayPoints        `json:"rollup"`
	Activities  []ActivityRecord   `json:"activities"`
	Redemptions []RedemptionRecord `json:"redemptions"`
}
