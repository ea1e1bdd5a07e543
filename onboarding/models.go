package onboarding

import "time"

// Role selects which step sequence applies to a user.
type Role string

const (
	RoleBorrower   Role = "Borrower"
	RoleLender     Role = "Lender"
	RoleConsultant Role = "Consultant"
	RoleAdmin      Role = "Admin"
)

// InputType declares how a step's answer should be parsed.
type InputType string

const (
	InputText   InputType = "text"
	InputDate   InputType = "date"
	InputNumber InputType = "number"
	InputEmail  InputType = "email"
	InputPhone  InputType = "phone"
	InputSelect InputType = "select"
	InputFile   InputType = "file"
)

// StepDefinition is one question/state in the onboarding dialogue. The
// catalog of definitions is immutable and shared across sessions.
type StepDefinition struct {
	ID        string
	Prompt    string
	Field     string
	Type      InputType
	Required  bool
	Skippable bool
	Options   []string
}

// Message is a single conversation history entry.
type Message struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	speakerUser = "user"
	speakerBot  = "bot"
)

// Session is the persisted per-user dialogue state. At most one active
// session exists per user; concurrent turns race with last-write-wins.
type Session struct {
	ID           string
	UserID       string
	CurrentStep  string
	PendingSteps []string
	Data         CollectedData
	History      []Message
	Active       bool
	StartedAt    time.Time
	LastActivity time.Time
}

// Progress is the per-user completion aggregate, independent of session
// lifecycle. Completion is sticky: once IsComplete flips true the CompletedAt
// stamp is never cleared by later recomputation.
type Progress struct {
	UserID               string     `json:"user_id"`
	ProfileComplete      bool       `json:"profile_complete"`
	ContactComplete      bool       `json:"contact_complete"`
	AddressComplete      bool       `json:"address_complete"`
	CompanyComplete      bool       `json:"company_complete"`
	FinancialComplete    bool       `json:"financial_complete"`
	DocumentsComplete    bool       `json:"documents_complete"`
	AddressVerified      bool       `json:"address_verified"`
	CompanyVerified      bool       `json:"company_verified"`
	CompletionPercentage int        `json:"completion_percentage"`
	CurrentStep          string     `json:"current_step"`
	IsComplete           bool       `json:"is_complete"`
	StartedAt            time.Time  `json:"started_at"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
	LastUpdated          time.Time  `json:"last_updated"`
}

// QuestionDescriptor is the rendered prompt handed back to the client each
// turn.
type QuestionDescriptor struct {
	Question        string    `json:"question"`
	Step            string    `json:"step"`
	Field           string    `json:"field"`
	Type            InputType `json:"type"`
	Options         []string  `json:"options,omitempty"`
	Required        bool      `json:"required"`
	ProgressPercent int       `json:"progress_percent"`
	StepNumber      int       `json:"step_number"`
	TotalSteps      int       `json:"total_steps"`
}

// DirectorRecord is one parsed answer from the director collection loop.
type DirectorRecord struct {
	Name        string `json:"name"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
	Nationality string `json:"nationality,omitempty"`
	Verified    bool   `json:"verified"`
}

// TurnRequest is one inbound chat message.
type TurnRequest struct {
	UserID    string
	Role      Role
	SessionID string
	Step      string
	Message   string
}

// TurnResponse is the full per-turn payload: next question, progress
// snapshot and the conversation so far. Err carries a structured turn
// failure without losing the resumable question/progress.
type TurnResponse struct {
	SessionID string             `json:"session_id"`
	Question  QuestionDescriptor `json:"question"`
	Progress  Progress           `json:"progress"`
	History   []Message          `json:"conversation_history"`
	Resuming  bool               `json:"is_resuming,omitempty"`
	Err       string             `json:"error,omitempty"`
}
