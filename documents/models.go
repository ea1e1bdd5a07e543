package documents

import "time"

// Document is the metadata record for an uploaded file. File bytes live in
// object storage and are out of scope here.
type Document struct {
	ID         string
	UserID     string
	FileName   string
	FileType   string
	Category   string
	UploadedAt time.Time
}

// Requirement describes one document a user must supply before their
// onboarding can complete.
type Requirement struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Reason      string `json:"reason"`
	// ConditionalOn names a collected-data field; the requirement only
	// applies while that field is present.
	ConditionalOn string `json:"conditional_on,omitempty"`
}

// Checklist is the outcome of matching uploads against requirements.
type Checklist struct {
	Required      []Requirement `json:"required"`
	Uploaded      []string      `json:"uploaded"`
	Missing       []string      `json:"missing"`
	AllUploaded   bool          `json:"all_uploaded"`
	UploadedCount int           `json:"uploaded_count"`
	RequiredCount int           `json:"required_count"`
}
