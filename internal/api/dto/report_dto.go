package dto

// MonthlySummaryRequest payload; dates are inclusive day bounds.
type MonthlySummaryRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// UpdateTemplateRequest payload for admin template edits.
type UpdateTemplateRequest struct {
	Name   string `json:"name"`
	Format string `json:"format"`
}
