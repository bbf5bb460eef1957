package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/matheus3301/jobdesk/internal/model"
)

// SaveSnapshot replaces the mirrored items and counter of s.UserID in one
// transaction.
func (db *DB) SaveSnapshot(s *Snapshot) (err error) {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.Exec(`DELETE FROM notifications WHERE user_id = ?`, s.UserID); err != nil {
		return fmt.Errorf("clear notifications: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO notifications (user_id, id, type_id, title, message, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, id) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, n := range s.Items {
		if _, err = stmt.Exec(s.UserID, n.ID, n.TypeID, n.Title, n.Message, n.IsRead, n.CreatedAt.UnixMilli()); err != nil {
			return fmt.Errorf("insert notification %d: %w", n.ID, err)
		}
	}

	updated := s.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	if _, err = tx.Exec(`
		INSERT INTO unread_counters (user_id, count, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			count = excluded.count,
			updated_at = excluded.updated_at`,
		s.UserID, s.UnreadCount, updated.UnixMilli()); err != nil {
		return fmt.Errorf("upsert counter: %w", err)
	}
	return tx.Commit()
}

// LoadSnapshot returns the mirrored view of userID, newest first, or nil
// if nothing was saved yet.
func (db *DB) LoadSnapshot(userID model.ID) (*Snapshot, error) {
	s := &Snapshot{UserID: userID}
	var updated int64
	err := db.QueryRow(`SELECT count, updated_at FROM unread_counters WHERE user_id = ?`, userID).
		Scan(&s.UnreadCount, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.UpdatedAt = time.UnixMilli(updated)

	rows, err := db.Query(`
		SELECT id, type_id, title, message, is_read, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	s.Items = []model.Notification{}
	for rows.Next() {
		n := model.Notification{UserID: userID}
		var created int64
		if err := rows.Scan(&n.ID, &n.TypeID, &n.Title, &n.Message, &n.IsRead, &created); err != nil {
			return nil, err
		}
		n.CreatedAt = model.Timestamp{Time: time.UnixMilli(created).UTC()}
		s.Items = append(s.Items, n)
	}
	return s, rows.Err()
}

// RecordRefresh appends a refresh outcome and trims history to keep rows
// per user.
func (db *DB) RecordRefresh(userID model.ID, refreshErr error, at time.Time, keep int) error {
	msg := ""
	if refreshErr != nil {
		msg = refreshErr.Error()
	}
	if _, err := db.Exec(`INSERT INTO refresh_log (user_id, ok, error, at) VALUES (?, ?, ?, ?)`,
		userID, refreshErr == nil, msg, at.UnixMilli()); err != nil {
		return err
	}
	if keep <= 0 {
		return nil
	}
	_, err := db.Exec(`
		DELETE FROM refresh_log
		WHERE user_id = ? AND id NOT IN (
			SELECT id FROM refresh_log WHERE user_id = ? ORDER BY at DESC, id DESC LIMIT ?
		)`, userID, userID, keep)
	return err
}

// RecentRefreshes returns the latest refresh outcomes, newest first.
func (db *DB) RecentRefreshes(userID model.ID, limit int) ([]RefreshRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`
		SELECT ok, error, at FROM refresh_log
		WHERE user_id = ?
		ORDER BY at DESC, id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []RefreshRecord
	for rows.Next() {
		var r RefreshRecord
		var at int64
		if err := rows.Scan(&r.OK, &r.Error, &at); err != nil {
			return nil, err
		}
		r.At = time.UnixMilli(at)
		out = append(out, r)
	}
	return out, rows.Err()
}
