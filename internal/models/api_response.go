package models

// ProjectListResponse represents a paginated list of cached projects
type ProjectListResponse struct {
	Projects []Project `json:"projects"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
}

// CountdownResponse is a remaining duration in its display unit
type CountdownResponse struct {
	Time string `json:"time"`
	Unit string `json:"unit"`
}

// StageResponse represents a project's lifecycle stage at evaluation time
type StageResponse struct {
	ProjectID   uint64             `json:"project_id"`
	Stage       string             `json:"stage"`
	EvaluatedAt int64              `json:"evaluated_at"` // milliseconds
	RemainingMs *int64             `json:"remaining_ms,omitempty"`
	Countdown   *CountdownResponse `json:"countdown,omitempty"`
}

// SyncResponse reports the outcome of a manually triggered sync
type SyncResponse struct {
	Status  string `json:"status"`
	Cached  int    `json:"cached"`
	Cleared bool   `json:"cleared"`
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}
