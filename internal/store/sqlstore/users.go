package sqlstore

import (
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pliu/wisp/internal/models"
	"github.com/pliu/wisp/internal/store"
)

const userColumns = "id, username, public_key, created_at, last_seen"

func (s *SQLStore) CreateUser(username, passwordHash string, publicKey []byte) (*models.User, error) {
	query, args, err := s.qb.Insert("users").
		Columns("username", "password_hash", "public_key").
		Values(username, passwordHash, publicKey).
		ToSql()
	if err != nil {
		return nil, err
	}

	result, err := s.db.Exec(query, args...)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, store.ErrUsernameTaken
		}
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetUserByID(id)
}

func (s *SQLStore) GetUserByID(id int64) (*models.User, error) {
	query, args, err := s.qb.Select(userColumns).From("users").Where("id = ?", id).ToSql()
	if err != nil {
		return nil, err
	}
	return s.scanUser(s.db.QueryRow(query, args...))
}

func (s *SQLStore) GetUserByUsername(username string) (*models.User, error) {
	query, args, err := s.qb.Select(userColumns).From("users").Where("username = ?", username).ToSql()
	if err != nil {
		return nil, err
	}
	return s.scanUser(s.db.QueryRow(query, args...))
}

func (s *SQLStore) GetUserByUsernameWithPassword(username string) (*models.UserWithPassword, error) {
	query, args, err := s.qb.Select("id, username, password_hash, public_key, created_at, last_seen").
		From("users").Where("username = ?", username).ToSql()
	if err != nil {
		return nil, err
	}

	var u models.UserWithPassword
	row := s.db.QueryRow(query, args...)
	err = row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.PublicKey, &u.CreatedAt, &u.LastSeen)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *SQLStore) GetAllUsers() ([]models.User, error) {
	query, args, err := s.qb.Select(userColumns).From("users").OrderBy("username").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PublicKey, &u.CreatedAt, &u.LastSeen); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *SQLStore) UpdatePublicKey(userID int64, publicKey []byte) error {
	query, args, err := s.qb.Update("users").Set("public_key", publicKey).Where("id = ?", userID).ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.Exec(query, args...)
	return err
}

func (s *SQLStore) UpdateLastSeen(userID int64) error {
	query, args, err := s.qb.Update("users").
		Set("last_seen", sq.Expr("CURRENT_TIMESTAMP")).
		Where("id = ?", userID).ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.Exec(query, args...)
	return err
}

func (s *SQLStore) UserCount() (int, error) {
	query, args, err := s.qb.Select("COUNT(*)").From("users").ToSql()
	if err != nil {
		return 0, err
	}
	var count int
	err = s.db.QueryRow(query, args...).Scan(&count)
	return count, err
}

func (s *SQLStore) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.PublicKey, &u.CreatedAt, &u.LastSeen)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
