package models

// Domain models matching the database schema in db/migrations/0001_init.sql

// Staff is a reviewer account allowed to run verification sessions.
type Staff struct {
	ID           int64  `json:"id" db:"id"`
	Email        string `json:"email" db:"email" validate:"required,email"`
	Name         string `json:"name" db:"name" validate:"required"`
	Updated      int64  `json:"updated" db:"updated"`
	PasswordHash string `json:"password_hash,omitempty" db:"password_hash"`
}

// VerificationEvent is the audit record written for every committed
// verification session.
type VerificationEvent struct {
	ID          int64  `json:"id" db:"id"`
	EnquiryID   string `json:"enquiry_id" db:"enquiry_id"`
	Group       string `json:"group_name" db:"group_name"`
	StaffEmail  string `json:"staff_email" db:"staff_email"`
	DocumentIDs string `json:"document_ids" db:"document_ids"`
	FieldsJSON  string `json:"fields_json" db:"fields_json"`
	Created     int64  `json:"created" db:"created"`
}
