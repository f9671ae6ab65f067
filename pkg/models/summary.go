package models

// Summary fields that can fall back to a default value
const (
	FieldSummary        = "summary"
	FieldKeyPoints      = "key_points"
	FieldActionRequired = "action_required"
	FieldUrgency        = "urgency_level"
	FieldTone           = "suggested_response_tone"
)

// EmailSummary is the structured result of an AI summarization
type EmailSummary struct {
	Email          EmailMessage `json:"original_email"`
	Summary        string       `json:"summary"`
	KeyPoints      []string     `json:"key_points"`
	ActionRequired bool         `json:"action_required"`
	Urgency        Priority     `json:"urgency_level"`
	SuggestedTone  string       `json:"suggested_response_tone"`
	Defaults       []string     `json:"defaulted_fields,omitempty"` // Fields not found in the model output
}

// ReplyRequest asks for a drafted reply to an email
type ReplyRequest struct {
	Email     EmailMessage `json:"original_email"`
	UserInput string       `json:"user_input"`
	Tone      string       `json:"tone"`
}

// ReplyDraft is a generated reply. ConfidenceScore is a fixed placeholder, not a model output.
type ReplyDraft struct {
	Email           EmailMessage `json:"original_email"`
	UserInput       string       `json:"user_input"`
	Body            string       `json:"generated_response"`
	ConfidenceScore float64      `json:"confidence_score"`
}
