package server

import "time"

// HTTPError is a generic error envelope returned by the server.
type HTTPError struct {
	Error string `json:"error"`
}

// AuthSignupRequest represents the signup payload. Role selects which
// profile record gets created alongside the account.
type AuthSignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`

	// doctor profile fields
	LicenseNumber  string `json:"license_number,omitempty"`
	Specialization string `json:"specialization,omitempty"`
	Department     string `json:"department,omitempty"`

	// patient profile fields
	DateOfBirth      string `json:"date_of_birth,omitempty"`
	Gender           string `json:"gender,omitempty"`
	BloodGroup       string `json:"blood_group,omitempty"`
	Address          string `json:"address,omitempty"`
	EmergencyContact string `json:"emergency_contact,omitempty"`

	Phone string `json:"phone,omitempty"`
}

// AuthLoginRequest represents the login payload.
type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries a bearer token.
type TokenResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

// IDResponse is a generic id response wrapper.
type IDResponse struct {
	ID string `json:"id"`
}

// MeResponse returns the current authenticated identity.
type MeResponse struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// CreateConversationRequest starts a new consultation record.
type CreateConversationRequest struct {
	PatientID      string `json:"patient_id"`
	ChiefComplaint string `json:"chief_complaint"`
}

// ConversationResponse is the API view of a consultation.
type ConversationResponse struct {
	ID             string    `json:"id"`
	PatientID      string    `json:"patient_id"`
	DoctorID       string    `json:"doctor_id"`
	Date           time.Time `json:"conversation_date"`
	Transcription  string    `json:"transcription,omitempty"`
	ChiefComplaint string    `json:"chief_complaint,omitempty"`
	Status         string    `json:"status"`
}

// EntityResponse is one extracted clinical entity.
type EntityResponse struct {
	ID         string  `json:"id"`
	Type       string  `json:"entity_type"`
	Value      string  `json:"entity_value"`
	Context    string  `json:"context,omitempty"`
	Confidence float64 `json:"confidence_score"`
}

// SummaryResponse is the SOAP summary of a conversation.
type SummaryResponse struct {
	ID          string   `json:"id"`
	Subjective  string   `json:"subjective,omitempty"`
	Objective   string   `json:"objective,omitempty"`
	Assessment  string   `json:"assessment,omitempty"`
	Plan        string   `json:"plan,omitempty"`
	FullSummary string   `json:"full_summary"`
	Keywords    []string `json:"keywords,omitempty"`
}

// HistoryRequest queries a patient's relevant clinical history by symptoms.
type HistoryRequest struct {
	Symptoms        []string `json:"symptoms"`
	TopK            int      `json:"top_k,omitempty"`
	UseRecency      bool     `json:"use_recency,omitempty"`
	RecencyWeight   *float64 `json:"recency_weight,omitempty"`
	RelevanceWeight *float64 `json:"relevance_weight,omitempty"`
}

// SearchRequest is a transcript search within a patient's record.
type SearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// MedicalHistoryRequest adds an entry to a patient's medical history.
type MedicalHistoryRequest struct {
	Category     string `json:"category"`
	Description  string `json:"description"`
	DateRecorded string `json:"date_recorded,omitempty"`
	IsActive     *bool  `json:"is_active,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// VitalSignsRequest records a set of vitals.
type VitalSignsRequest struct {
	ConversationID   string `json:"conversation_id,omitempty"`
	BPSystolic       int    `json:"bp_systolic,omitempty"`
	BPDiastolic      int    `json:"bp_diastolic,omitempty"`
	HeartRate        int    `json:"heart_rate,omitempty"`
	Temperature      string `json:"temperature,omitempty"`
	RespiratoryRate  int    `json:"respiratory_rate,omitempty"`
	OxygenSaturation int    `json:"oxygen_saturation,omitempty"`
	Weight           string `json:"weight,omitempty"`
	Height           string `json:"height,omitempty"`
}
