package sqlstore

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/pliu/wisp/internal/store"
)

// GenerateInvite creates and persists a new 32-hex-character invite code.
func (s *SQLStore) GenerateInvite() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	code := hex.EncodeToString(raw)

	query, args, err := s.qb.Insert("invites").Columns("code").Values(code).ToSql()
	if err != nil {
		return "", err
	}
	if _, err := s.db.Exec(query, args...); err != nil {
		return "", err
	}
	return code, nil
}

// ValidateInvite reports whether code exists and is still unused, without
// consuming it.
func (s *SQLStore) ValidateInvite(code string) error {
	query, args, err := s.qb.Select("1").From("invites").
		Where(sq.Eq{"code": code}).Where("used_by IS NULL").ToSql()
	if err != nil {
		return err
	}

	var exists int
	err = s.db.QueryRow(query, args...).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrInviteUnavailable
	}
	return err
}

// ConsumeInvite atomically marks code as used by userID. It only succeeds
// while used_by IS NULL, so concurrent attempts on the same code can have at
// most one winner.
func (s *SQLStore) ConsumeInvite(code string, userID int64) error {
	query, args, err := s.qb.Update("invites").
		Set("used_by", userID).
		Set("used_at", sq.Expr("CURRENT_TIMESTAMP")).
		Where(sq.Eq{"code": code}).
		Where("used_by IS NULL").
		ToSql()
	if err != nil {
		return err
	}

	result, err := s.db.Exec(query, args...)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrInviteUnavailable
	}
	return nil
}
