package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/admitkit/docverify/pkg/models"
)

func (r *SQLiteRepo) CreateStaff(ctx context.Context, s *models.Staff) (int64, error) {
	if s == nil {
		return 0, fmt.Errorf("staff is nil")
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO staff (email, name, password_hash, updated) VALUES (?, ?, ?, ?)`, s.Email, s.Name, s.PasswordHash, now())
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetByID(ctx context.Context, id int64) (*models.Staff, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, email, name, password_hash, updated FROM staff WHERE id = ?`, id)
	s, err := scanStaff(row)
	if err != nil {
		r.logger.Warn("scan staff row", "err", err)
	}
	return s, err
}

func (r *SQLiteRepo) GetByEmail(ctx context.Context, email string) (*models.Staff, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, email, name, password_hash, updated FROM staff WHERE email = ?`, email)
	s, err := scanStaff(row)
	if err != nil {
		r.logger.Warn("scan staff row", "err", err)
	}
	return s, err
}

func scanStaff(row *sql.Row) (*models.Staff, error) {
	var s models.Staff
	var pw sql.NullString
	if err := row.Scan(&s.ID, &s.Email, &s.Name, &pw, &s.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	if pw.Valid {
		s.PasswordHash = pw.String
	}

	return &s, nil
}

func (r *SQLiteRepo) UpdateStaff(ctx context.Context, s *models.Staff) error {
	if s == nil {
		return fmt.Errorf("staff is nil")
	}

	_, err := r.conn.Exec(ctx, `UPDATE staff SET email = ?, name = ?, password_hash = ?, updated = ? WHERE id = ?`, s.Email, s.Name, s.PasswordHash, now(), s.ID)
	return err
}

func (r *SQLiteRepo) DeleteStaff(ctx context.Context, id int64) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM staff WHERE id = ?`, id)
	return err
}
