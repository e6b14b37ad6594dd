package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

type Store struct {
	DB *sql.DB
}

// Conversation statuses persisted through the pipeline.
const (
	ConversationStatusCreated     = "created"
	ConversationStatusRecorded    = "recorded"
	ConversationStatusTranscribed = "transcribed"
	ConversationStatusCompleted   = "completed"
)

// User roles.
const (
	RoleDoctor  = "doctor"
	RolePatient = "patient"
)

// UserRecord represents an account row.
type UserRecord struct {
	ID             string
	Email          string
	HashedPassword string
	FullName       string
	Role           string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DoctorRecord is a doctor profile linked to a user account.
type DoctorRecord struct {
	ID             string
	UserID         string
	LicenseNumber  string
	Specialization string
	Department     string
	Phone          string
	CreatedAt      time.Time
}

// PatientRecord is a patient profile linked to a user account.
type PatientRecord struct {
	ID               string
	UserID           string
	DateOfBirth      *time.Time
	Gender           string
	BloodGroup       string
	Phone            string
	Address          string
	EmergencyContact string
	CreatedAt        time.Time
}

// ConversationRecord is one doctor-patient consultation.
type ConversationRecord struct {
	ID             string
	PatientID      string
	DoctorID       string
	Date           time.Time
	AudioFilePath  string
	Transcription  string
	ChiefComplaint string
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ConversationSnapshot pairs a conversation with its summary text for the
// retrieval engine.
type ConversationSnapshot struct {
	ConversationRecord
	Summary string
}

// EntityRecord is one clinical entity extracted from a conversation.
type EntityRecord struct {
	ID             string
	ConversationID string
	EntityType     string
	EntityValue    string
	Context        string
	Confidence     float64
	StartPosition  int
	EndPosition    int
	CreatedAt      time.Time
}

// SummaryRecord is the generated clinical summary of a conversation.
type SummaryRecord struct {
	ID             string
	ConversationID string
	Subjective     string
	Objective      string
	Assessment     string
	Plan           string
	FullSummary    string
	Keywords       []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// MedicalHistoryRecord is a dated entry in a patient's medical history.
type MedicalHistoryRecord struct {
	ID           string
	PatientID    string
	Category     string
	Description  string
	DateRecorded *time.Time
	IsActive     bool
	Notes        string
	CreatedAt    time.Time
}

// VitalSignsRecord captures one set of vitals, optionally tied to a conversation.
type VitalSignsRecord struct {
	ID               string
	PatientID        string
	ConversationID   string
	BPSystolic       int
	BPDiastolic      int
	HeartRate        int
	Temperature      string
	RespiratoryRate  int
	OxygenSaturation int
	Weight           string
	Height           string
	RecordedAt       time.Time
}

// New constructs the Store from environment configuration.
func New(ctx context.Context) (*Store, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		host := getenvDefault("POSTGRES_HOST", "localhost")
		port := getenvDefault("POSTGRES_PORT", "5432")
		user := os.Getenv("POSTGRES_USER")
		pass := os.Getenv("POSTGRES_PASSWORD")
		db := os.Getenv("POSTGRES_DB")
		ssl := getenvDefault("POSTGRES_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, ssl)
	}
	return NewWithDSN(ctx, dsn)
}

// NewWithDSN constructs the Store using an explicit Postgres DSN
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

// User operations

func (s *Store) CreateUser(ctx context.Context, email, hash, fullName, role string) (string, error) {
	if role != RoleDoctor && role != RolePatient {
		return "", fmt.Errorf("invalid role %q", role)
	}
	id := uuid.NewString()
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO users (id, email, hashed_password, full_name, role)
VALUES ($1,$2,$3,$4,$5)
`, id, email, hash, fullName, role)
	return id, err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (UserRecord, bool, error) {
	row := s.DB.QueryRowContext(ctx, `
SELECT id, email, hashed_password, full_name, role, is_active, created_at, updated_at
FROM users
WHERE email=$1
`, email)
	return scanUser(row)
}

func (s *Store) GetUserByID(ctx context.Context, id string) (UserRecord, bool, error) {
	row := s.DB.QueryRowContext(ctx, `
SELECT id, email, hashed_password, full_name, role, is_active, created_at, updated_at
FROM users
WHERE id=$1
`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (UserRecord, bool, error) {
	var rec UserRecord
	if err := row.Scan(&rec.ID, &rec.Email, &rec.HashedPassword, &rec.FullName, &rec.Role, &rec.IsActive, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return UserRecord{}, false, nil
		}
		return UserRecord{}, false, err
	}
	return rec, true, nil
}

// Doctor operations

func (s *Store) CreateDoctor(ctx context.Context, rec DoctorRecord) (DoctorRecord, error) {
	if strings.TrimSpace(rec.LicenseNumber) == "" {
		return DoctorRecord{}, fmt.Errorf("license number required")
	}
	rec.ID = uuid.NewString()
	row := s.DB.QueryRowContext(ctx, `
INSERT INTO doctors (id, user_id, license_number, specialization, department, phone)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING created_at
`, rec.ID, rec.UserID, rec.LicenseNumber, nullableString(rec.Specialization), nullableString(rec.Department), nullableString(rec.Phone))
	if err := row.Scan(&rec.CreatedAt); err != nil {
		return DoctorRecord{}, err
	}
	return rec, nil
}

func (s *Store) GetDoctorByUserID(ctx context.Context, userID string) (DoctorRecord, bool, error) {
	row := s.DB.QueryRowContext(ctx, `
SELECT id, user_id, license_number, specialization, department, phone, created_at
FROM doctors
WHERE user_id=$1
`, userID)
	var rec DoctorRecord
	var spec, dept, phone sql.NullString
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.LicenseNumber, &spec, &dept, &phone, &rec.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DoctorRecord{}, false, nil
		}
		return DoctorRecord{}, false, err
	}
	rec.Specialization = spec.String
	rec.Department = dept.String
	rec.Phone = phone.String
	return rec, true, nil
}

// Patient operations

func (s *Store) CreatePatient(ctx context.Context, rec PatientRecord) (PatientRecord, error) {
	rec.ID = uuid.NewString()
	var dob sql.NullTime
	if rec.DateOfBirth != nil && !rec.DateOfBirth.IsZero() {
		dob = sql.NullTime{Time: rec.DateOfBirth.UTC(), Valid: true}
	}
	row := s.DB.QueryRowContext(ctx, `
INSERT INTO patients (id, user_id, date_of_birth, gender, blood_group, phone, address, emergency_contact)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING created_at
`, rec.ID, rec.UserID, dob, nullableString(rec.Gender), nullableString(rec.BloodGroup),
		nullableString(rec.Phone), nullableString(rec.Address), nullableString(rec.EmergencyContact))
	if err := row.Scan(&rec.CreatedAt); err != nil {
		return PatientRecord{}, err
	}
	return rec, nil
}

func (s *Store) GetPatientByUserID(ctx context.Context, userID string) (PatientRecord, bool, error) {
	row := s.DB.QueryRowContext(ctx, `
SELECT id, user_id, date_of_birth, gender, blood_group, phone, address, emergency_contact, created_at
FROM patients
WHERE user_id=$1
`, userID)
	return scanPatient(row)
}

func (s *Store) GetPatientByID(ctx context.Context, id string) (PatientRecord, bool, error) {
	row := s.DB.QueryRowContext(ctx, `
SELECT id, user_id, date_of_birth, gender, blood_group, phone, address, emergency_contact, created_at
FROM patients
WHERE id=$1
`, id)
	return scanPatient(row)
}

func scanPatient(row *sql.Row) (PatientRecord, bool, error) {
	var rec PatientRecord
	var dob sql.NullTime
	var gender, blood, phone, addr, emergency sql.NullString
	if err := row.Scan(&rec.ID, &rec.UserID, &dob, &gender, &blood, &phone, &addr, &emergency, &rec.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PatientRecord{}, false, nil
		}
		return PatientRecord{}, false, err
	}
	if dob.Valid {
		t := dob.Time
		rec.DateOfBirth = &t
	}
	rec.Gender = gender.String
	rec.BloodGroup = blood.String
	rec.Phone = phone.String
	rec.Address = addr.String
	rec.EmergencyContact = emergency.String
	return rec, true, nil
}

// Conversation operations

func (s *Store) CreateConversation(ctx context.Context, patientID, doctorID, chiefComplaint string) (ConversationRecord, error) {
	rec := ConversationRecord{
		ID:             uuid.NewString(),
		PatientID:      patientID,
		DoctorID:       doctorID,
		ChiefComplaint: chiefComplaint,
		Status:         ConversationStatusCreated,
	}
	row := s.DB.QueryRowContext(ctx, `
INSERT INTO conversations (id, patient_id, doctor_id, chief_complaint, status)
VALUES ($1,$2,$3,$4,$5)
RETURNING conversation_date, created_at, updated_at
`, rec.ID, rec.PatientID, rec.DoctorID, nullableString(rec.ChiefComplaint), rec.Status)
	if err := row.Scan(&rec.Date, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return ConversationRecord{}, err
	}
	return rec, nil
}

func (s *Store) GetConversation(ctx context.Context, id string) (ConversationRecord, bool, error) {
	row := s.DB.QueryRowContext(ctx, `
SELECT id, patient_id, doctor_id, conversation_date, audio_file_path, transcription, chief_complaint, status, created_at, updated_at
FROM conversations
WHERE id=$1
`, id)
	var rec ConversationRecord
	var audio, transcription, complaint sql.NullString
	if err := row.Scan(&rec.ID, &rec.PatientID, &rec.DoctorID, &rec.Date, &audio, &transcription, &complaint, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ConversationRecord{}, false, nil
		}
		return ConversationRecord{}, false, err
	}
	rec.AudioFilePath = audio.String
	rec.Transcription = transcription.String
	rec.ChiefComplaint = complaint.String
	return rec, true, nil
}

// ListConversationSnapshots returns a patient's conversations joined with
// their summaries, newest first. This is the retrieval engine's input.
func (s *Store) ListConversationSnapshots(ctx context.Context, patientID string) ([]ConversationSnapshot, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT c.id, c.patient_id, c.doctor_id, c.conversation_date, c.transcription, c.chief_complaint, c.status, c.created_at, c.updated_at,
       COALESCE(cs.full_summary, '')
FROM conversations c
LEFT JOIN clinical_summaries cs ON cs.conversation_id = c.id
WHERE c.patient_id=$1
ORDER BY c.conversation_date DESC
`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ConversationSnapshot
	for rows.Next() {
		var snap ConversationSnapshot
		var transcription, complaint sql.NullString
		if err := rows.Scan(&snap.ID, &snap.PatientID, &snap.DoctorID, &snap.Date, &transcription, &complaint, &snap.Status, &snap.CreatedAt, &snap.UpdatedAt, &snap.Summary); err != nil {
			return nil, err
		}
		snap.Transcription = transcription.String
		snap.ChiefComplaint = complaint.String
		out = append(out, snap)
	}
	return out, rows.Err()
}

// ListRecentSnapshots returns the most recently updated conversations across
// all patients joined with their summaries. The cache warmer uses this.
func (s *Store) ListRecentSnapshots(ctx context.Context, limit int) ([]ConversationSnapshot, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT c.id, c.patient_id, c.doctor_id, c.conversation_date, c.transcription, c.chief_complaint, c.status, c.created_at, c.updated_at,
       COALESCE(cs.full_summary, '')
FROM conversations c
LEFT JOIN clinical_summaries cs ON cs.conversation_id = c.id
ORDER BY c.updated_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ConversationSnapshot
	for rows.Next() {
		var snap ConversationSnapshot
		var transcription, complaint sql.NullString
		if err := rows.Scan(&snap.ID, &snap.PatientID, &snap.DoctorID, &snap.Date, &transcription, &complaint, &snap.Status, &snap.CreatedAt, &snap.UpdatedAt, &snap.Summary); err != nil {
			return nil, err
		}
		snap.Transcription = transcription.String
		snap.ChiefComplaint = complaint.String
		out = append(out, snap)
	}
	return out, rows.Err()
}

func (s *Store) SetConversationAudioPath(ctx context.Context, id, path string) error {
	res, err := s.DB.ExecContext(ctx, `
UPDATE conversations SET audio_file_path=$2, status=$3, updated_at=NOW() WHERE id=$1
`, id, path, ConversationStatusRecorded)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) SetConversationTranscription(ctx context.Context, id, transcription string) error {
	res, err := s.DB.ExecContext(ctx, `
UPDATE conversations SET transcription=$2, status=$3, updated_at=NOW() WHERE id=$1
`, id, transcription, ConversationStatusTranscribed)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) SetConversationStatus(ctx context.Context, id, status string) error {
	res, err := s.DB.ExecContext(ctx, `
UPDATE conversations SET status=$2, updated_at=NOW() WHERE id=$1
`, id, status)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Entity operations

// ReplaceEntities replaces all extracted entities for a conversation with
// the provided records, in one transaction.
func (s *Store) ReplaceEntities(ctx context.Context, conversationID string, records []EntityRecord) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM extracted_entities WHERE conversation_id=$1`, conversationID); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO extracted_entities (id, conversation_id, entity_type, entity_value, context, confidence_score, start_position, end_position)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range records {
		if strings.TrimSpace(rec.EntityValue) == "" {
			continue
		}
		id := rec.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := stmt.ExecContext(ctx, id, conversationID, rec.EntityType, rec.EntityValue,
			nullableString(rec.Context), rec.Confidence, rec.StartPosition, rec.EndPosition); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) ListEntitiesByConversation(ctx context.Context, conversationID string) ([]EntityRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, conversation_id, entity_type, entity_value, context, confidence_score, start_position, end_position, created_at
FROM extracted_entities
WHERE conversation_id=$1
ORDER BY created_at
`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntities(rows)
}

// ListEntitiesByPatient returns every entity extracted from any of the
// patient's conversations.
func (s *Store) ListEntitiesByPatient(ctx context.Context, patientID string) ([]EntityRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT e.id, e.conversation_id, e.entity_type, e.entity_value, e.context, e.confidence_score, e.start_position, e.end_position, e.created_at
FROM extracted_entities e
JOIN conversations c ON c.id = e.conversation_id
WHERE c.patient_id=$1
ORDER BY e.created_at DESC
`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntities(rows)
}

func scanEntities(rows *sql.Rows) ([]EntityRecord, error) {
	var out []EntityRecord
	for rows.Next() {
		var rec EntityRecord
		var ctxText sql.NullString
		if err := rows.Scan(&rec.ID, &rec.ConversationID, &rec.EntityType, &rec.EntityValue, &ctxText, &rec.Confidence, &rec.StartPosition, &rec.EndPosition, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Context = ctxText.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Summary operations

func (s *Store) UpsertSummary(ctx context.Context, rec SummaryRecord) (SummaryRecord, error) {
	if strings.TrimSpace(rec.ConversationID) == "" {
		return SummaryRecord{}, fmt.Errorf("conversation_id required")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	keywords, err := json.Marshal(rec.Keywords)
	if err != nil {
		return SummaryRecord{}, err
	}
	row := s.DB.QueryRowContext(ctx, `
INSERT INTO clinical_summaries (id, conversation_id, subjective, objective, assessment, plan, full_summary, keywords)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (conversation_id) DO UPDATE SET
  subjective = EXCLUDED.subjective,
  objective = EXCLUDED.objective,
  assessment = EXCLUDED.assessment,
  plan = EXCLUDED.plan,
  full_summary = EXCLUDED.full_summary,
  keywords = EXCLUDED.keywords,
  updated_at = NOW()
RETURNING id, created_at, updated_at
`, rec.ID, rec.ConversationID, nullableString(rec.Subjective), nullableString(rec.Objective),
		nullableString(rec.Assessment), nullableString(rec.Plan), nullableString(rec.FullSummary), keywords)
	if err := row.Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return SummaryRecord{}, err
	}
	return rec, nil
}

func (s *Store) GetSummaryByConversation(ctx context.Context, conversationID string) (SummaryRecord, bool, error) {
	row := s.DB.QueryRowContext(ctx, `
SELECT id, conversation_id, subjective, objective, assessment, plan, full_summary, keywords, created_at, updated_at
FROM clinical_summaries
WHERE conversation_id=$1
`, conversationID)
	var rec SummaryRecord
	var subj, obj, assess, plan, full sql.NullString
	var keywords []byte
	if err := row.Scan(&rec.ID, &rec.ConversationID, &subj, &obj, &assess, &plan, &full, &keywords, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SummaryRecord{}, false, nil
		}
		return SummaryRecord{}, false, err
	}
	rec.Subjective = subj.String
	rec.Objective = obj.String
	rec.Assessment = assess.String
	rec.Plan = plan.String
	rec.FullSummary = full.String
	if len(keywords) > 0 {
		_ = json.Unmarshal(keywords, &rec.Keywords)
	}
	return rec, true, nil
}

// Medical history operations

func (s *Store) InsertMedicalHistory(ctx context.Context, rec MedicalHistoryRecord) (MedicalHistoryRecord, error) {
	if strings.TrimSpace(rec.Category) == "" || strings.TrimSpace(rec.Description) == "" {
		return MedicalHistoryRecord{}, fmt.Errorf("category and description required")
	}
	rec.ID = uuid.NewString()
	var recorded sql.NullTime
	if rec.DateRecorded != nil && !rec.DateRecorded.IsZero() {
		recorded = sql.NullTime{Time: rec.DateRecorded.UTC(), Valid: true}
	}
	row := s.DB.QueryRowContext(ctx, `
INSERT INTO medical_history (id, patient_id, category, description, date_recorded, is_active, notes)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING created_at
`, rec.ID, rec.PatientID, rec.Category, rec.Description, recorded, rec.IsActive, nullableString(rec.Notes))
	if err := row.Scan(&rec.CreatedAt); err != nil {
		return MedicalHistoryRecord{}, err
	}
	return rec, nil
}

func (s *Store) ListMedicalHistoryByPatient(ctx context.Context, patientID string) ([]MedicalHistoryRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, patient_id, category, description, date_recorded, is_active, notes, created_at
FROM medical_history
WHERE patient_id=$1
ORDER BY created_at DESC
`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MedicalHistoryRecord
	for rows.Next() {
		var rec MedicalHistoryRecord
		var recorded sql.NullTime
		var notes sql.NullString
		if err := rows.Scan(&rec.ID, &rec.PatientID, &rec.Category, &rec.Description, &recorded, &rec.IsActive, &notes, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if recorded.Valid {
			t := recorded.Time
			rec.DateRecorded = &t
		}
		rec.Notes = notes.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Vital signs operations

func (s *Store) InsertVitalSigns(ctx context.Context, rec VitalSignsRecord) (VitalSignsRecord, error) {
	rec.ID = uuid.NewString()
	row := s.DB.QueryRowContext(ctx, `
INSERT INTO vital_signs (id, patient_id, conversation_id, bp_systolic, bp_diastolic, heart_rate, temperature, respiratory_rate, oxygen_saturation, weight, height)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
RETURNING recorded_at
`, rec.ID, rec.PatientID, nullableString(rec.ConversationID), rec.BPSystolic, rec.BPDiastolic, rec.HeartRate,
		nullableString(rec.Temperature), rec.RespiratoryRate, rec.OxygenSaturation, nullableString(rec.Weight), nullableString(rec.Height))
	if err := row.Scan(&rec.RecordedAt); err != nil {
		return VitalSignsRecord{}, err
	}
	return rec, nil
}

func (s *Store) ListVitalSignsByPatient(ctx context.Context, patientID string) ([]VitalSignsRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, patient_id, conversation_id, bp_systolic, bp_diastolic, heart_rate, temperature, respiratory_rate, oxygen_saturation, weight, height, recorded_at
FROM vital_signs
WHERE patient_id=$1
ORDER BY recorded_at DESC
`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []VitalSignsRecord
	for rows.Next() {
		var rec VitalSignsRecord
		var convID, temp, weight, height sql.NullString
		if err := rows.Scan(&rec.ID, &rec.PatientID, &convID, &rec.BPSystolic, &rec.BPDiastolic, &rec.HeartRate, &temp, &rec.RespiratoryRate, &rec.OxygenSaturation, &weight, &height, &rec.RecordedAt); err != nil {
			return nil, err
		}
		rec.ConversationID = convID.String
		rec.Temperature = temp.String
		rec.Weight = weight.String
		rec.Height = height.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

func nullableString(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
