package report

// SummaryQuery selects the reporting period. Dates are calendar days in the
// company timezone; both default to the last 30 days.
type SummaryQuery struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

// DigestRunResponse reports a manual digest trigger
type DigestRunResponse struct {
	Queued int `json:"queued"`
}
