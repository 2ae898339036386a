package sqlstore

import (
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/pliu/wisp/internal/models"
	"github.com/pliu/wisp/internal/store"
)

const messageColumns = "id, sender_id, receiver_id, type, content, nonce, timestamp, read"

func (s *SQLStore) SaveMessage(senderID, receiverID int64, msgType models.MessageType, content, nonce []byte) (*models.Message, error) {
	if msgType == "" {
		msgType = models.MessageTypeText
	}

	query, args, err := s.qb.Insert("messages").
		Columns("sender_id", "receiver_id", "type", "content", "nonce").
		Values(senderID, receiverID, string(msgType), content, nonce).
		ToSql()
	if err != nil {
		return nil, err
	}

	result, err := s.db.Exec(query, args...)
	if err != nil {
		return nil, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.getMessageByID(id)
}

func (s *SQLStore) getMessageByID(id int64) (*models.Message, error) {
	query, args, err := s.qb.Select(messageColumns).From("messages").Where("id = ?", id).ToSql()
	if err != nil {
		return nil, err
	}

	var m models.Message
	var msgType string
	err = s.db.QueryRow(query, args...).Scan(&m.ID, &m.SenderID, &m.ReceiverID, &msgType, &m.Content, &m.Nonce, &m.Timestamp, &m.Read)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	m.Type = models.MessageType(msgType)
	return &m, nil
}

// GetMessagesBetween returns up to limit messages exchanged between a and b,
// newest first, skipping offset rows. Never returns a nil slice.
func (s *SQLStore) GetMessagesBetween(a, b int64, limit, offset int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 50
	}

	query, args, err := s.qb.Select(messageColumns).From("messages").
		Where(sq.Or{
			sq.And{sq.Eq{"sender_id": a}, sq.Eq{"receiver_id": b}},
			sq.And{sq.Eq{"sender_id": b}, sq.Eq{"receiver_id": a}},
		}).
		OrderBy("timestamp DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var m models.Message
		var msgType string
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &msgType, &m.Content, &m.Nonce, &m.Timestamp, &m.Read); err != nil {
			return nil, err
		}
		m.Type = models.MessageType(msgType)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// MarkMessagesAsRead marks unread messages from senderID to receiverID read.
// Succeeds even if zero rows match.
func (s *SQLStore) MarkMessagesAsRead(senderID, receiverID int64) error {
	query, args, err := s.qb.Update("messages").
		Set("read", true).
		Where(sq.Eq{"sender_id": senderID, "receiver_id": receiverID, "read": false}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.Exec(query, args...)
	return err
}

func (s *SQLStore) DeleteMessagesBetween(a, b int64) error {
	query, args, err := s.qb.Delete("messages").
		Where(sq.Or{
			sq.And{sq.Eq{"sender_id": a}, sq.Eq{"receiver_id": b}},
			sq.And{sq.Eq{"sender_id": b}, sq.Eq{"receiver_id": a}},
		}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.Exec(query, args...)
	return err
}
