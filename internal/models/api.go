package models

type AnalyzeRequest struct {
	PageURL       string `json:"page_url" binding:"required"`
	SessionCookie string `json:"session_cookie"`
}

type AnalyzeResponse struct {
	RunID          string          `json:"run_id"`
	ConversationID string          `json:"conversation_id,omitempty"`
	Result         *AnalysisResult `json:"result"`
	DurationMs     int             `json:"duration_ms"`
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
}
