package server

import "solara-hq/quotient/pkg/quota"

// CheckRequest is the body of a POST /v1/check request.
type CheckRequest struct {
	// UserID identifies the caller. Required.
	UserID string `json:"user_id"`

	// Roles are the JWT roles attached to the caller's session.
	Roles []string `json:"roles,omitempty"`

	// EmailDomain is the caller's email domain, e.g. "acme.com".
	EmailDomain string `json:"email_domain,omitempty"`

	// SessionID correlates audit events with the chat session.
	SessionID string `json:"session_id,omitempty"`

	// ModelID is the model the caller requested. Used for downgrade
	// decisions; a downgraded response carries the substitute model.
	ModelID string `json:"model_id,omitempty"`
}

// CheckResponse is the body of a POST /v1/check response.
type CheckResponse struct {
	Allowed          bool             `json:"allowed"`
	Message          string           `json:"message,omitempty"`
	TierID           string           `json:"tier_id,omitempty"`
	TierName         string           `json:"tier_name,omitempty"`
	Limit            float64          `json:"limit"`
	Period           quota.PeriodType `json:"period,omitempty"`
	CurrentUsage     float64          `json:"current_usage"`
	PercentageUsed   float64          `json:"percentage_used"`
	Remaining        float64          `json:"remaining"`
	WarningLevel     string           `json:"warning_level,omitempty"`
	IsDowngraded     bool             `json:"is_downgraded,omitempty"`
	DowngradeModelID string           `json:"downgrade_model_id,omitempty"`
	OriginalModelID  string           `json:"original_model_id,omitempty"`
	MatchedBy        quota.MatchedBy  `json:"matched_by,omitempty"`
}

func toCheckResponse(result *quota.CheckResult) *CheckResponse {
	return &CheckResponse{
		Allowed:          result.Allowed,
		Message:          result.Message,
		TierID:           result.TierID,
		TierName:         result.TierName,
		Limit:            result.Limit,
		Period:           result.Period,
		CurrentUsage:     result.CurrentUsage,
		PercentageUsed:   result.PercentageUsed,
		Remaining:        result.Remaining,
		WarningLevel:     result.WarningLevel,
		IsDowngraded:     result.IsDowngraded,
		DowngradeModelID: result.DowngradeModelID,
		OriginalModelID:  result.OriginalModelID,
		MatchedBy:        result.MatchedBy,
	}
}

// ErrorResponse is the JSON error envelope returned by all endpoints.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the error message and a stable machine-readable code.
type ErrorDetail struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// NewErrorResponse creates an error envelope with the given code and message.
func NewErrorResponse(code, message string) *ErrorResponse {
	return &ErrorResponse{Error: ErrorDetail{Message: message, Code: code}}
}
