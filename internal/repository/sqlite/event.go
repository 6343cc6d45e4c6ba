package sqlite

import (
	"context"
	"fmt"

	"github.com/admitkit/docverify/pkg/models"
)

func (r *SQLiteRepo) CreateEvent(ctx context.Context, e *models.VerificationEvent) (int64, error) {
	if e == nil {
		return 0, fmt.Errorf("event is nil")
	}

	res, err := r.conn.Exec(ctx,
		`INSERT INTO verification_events (enquiry_id, group_name, staff_email, document_ids, fields_json, created) VALUES (?, ?, ?, ?, ?, ?)`,
		e.EnquiryID, e.Group, e.StaffEmail, e.DocumentIDs, e.FieldsJSON, now())
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) ListByEnquiry(ctx context.Context, enquiryID string) ([]models.VerificationEvent, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT id, enquiry_id, group_name, staff_email, document_ids, fields_json, created FROM verification_events WHERE enquiry_id = ? ORDER BY created ASC, id ASC`,
		enquiryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.VerificationEvent
	for rows.Next() {
		var e models.VerificationEvent
		if err := rows.Scan(&e.ID, &e.EnquiryID, &e.Group, &e.StaffEmail, &e.DocumentIDs, &e.FieldsJSON, &e.Created); err != nil {
			r.logger.Warn("scan verification event row", "err", err)
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
