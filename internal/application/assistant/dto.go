package assistant

// AskRequest is a question for the assistant
type AskRequest struct {
	Question string `json:"question" binding:"required,max=1000"`
}

// AskResponse is the assistant's answer. Filtered answers are the fixed
// refusal. RemainingQuota is omitted for premium companies.
type AskResponse struct {
	Answer         string `json:"answer"`
	Filtered       bool   `json:"filtered"`
	RemainingQuota *int64 `json:"remaining_quota,omitempty"`
}
