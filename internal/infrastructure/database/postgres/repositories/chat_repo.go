package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/domain/chat"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/domain/session"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/database/postgres"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/monitoring/logging"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/pkg/errors"
)

const chatColumns = `id, username, title, created_at, last_message_at, last_message_preview`

const messageColumns = `id, chat_id, role, content, created_at, ml_activated, parameters`

type postgresChatRepo struct {
	conn     *postgres.Connection
	log      logging.Logger
	executor queryExecutor
}

// NewPostgresChatRepo returns a chat.Repository backed by PostgreSQL.
func NewPostgresChatRepo(conn *postgres.Connection, log logging.Logger) chat.Repository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &postgresChatRepo{
		conn:     conn,
		log:      log,
		executor: conn.DB(),
	}
}

func (r *postgresChatRepo) withTx(ctx context.Context, fn func(*postgresChatRepo) error) error {
	tx, err := r.conn.DB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to begin transaction")
	}

	txRepo := &postgresChatRepo{
		conn:     r.conn,
		log:      r.log,
		executor: tx,
	}

	if err := fn(txRepo); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.log.Warn("rollback failed", logging.Err(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to commit transaction")
	}
	return nil
}

func (r *postgresChatRepo) CreateChat(ctx context.Context, c *chat.Chat) error {
	query := `INSERT INTO chats (id, username, title, created_at) VALUES ($1, $2, $3, $4)`
	_, err := r.executor.ExecContext(ctx, query, c.ID, c.Username, c.Title, c.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return errors.Wrap(err, errors.ErrCodeChatAlreadyExists, "chat already exists").WithDetail(c.ID)
		}
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create chat")
	}
	return nil
}

func (r *postgresChatRepo) GetChat(ctx context.Context, id string) (*chat.Chat, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, chatNotFound(id)
	}
	query := `SELECT ` + chatColumns + ` FROM chats WHERE id = $1`
	c, err := scanChat(r.executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, chatNotFound(id)
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to get chat")
	}
	return c, nil
}

func (r *postgresChatRepo) ChatExists(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM chats WHERE id = $1)`
	if err := r.executor.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to check chat existence")
	}
	return exists, nil
}

func (r *postgresChatRepo) ListChatsByUser(ctx context.Context, username string) ([]*chat.Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE username = $1
		ORDER BY last_message_at DESC NULLS LAST, created_at DESC`
	rows, err := r.executor.QueryContext(ctx, query, username)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list chats")
	}
	defer rows.Close()

	chats := make([]*chat.Chat, 0)
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan chat")
		}
		chats = append(chats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate chats")
	}
	return chats, nil
}

func (r *postgresChatRepo) AppendMessage(ctx context.Context, m *chat.Message) error {
	var params []byte
	if len(m.Parameters) > 0 {
		b, err := json.Marshal(m.Parameters)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode message parameters")
		}
		params = b
	}

	return r.withTx(ctx, func(tx *postgresChatRepo) error {
		insert := `INSERT INTO messages (` + messageColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
		if _, err := tx.executor.ExecContext(ctx, insert,
			m.ID, m.ChatID, string(m.Role), m.Content, m.CreatedAt, m.MLActivated, params,
		); err != nil {
			return errors.Wrap(err, errors.ErrCodeMessageStoreFailed, "failed to insert message")
		}

		update := `UPDATE chats SET last_message_at = $2, last_message_preview = $3 WHERE id = $1`
		res, err := tx.executor.ExecContext(ctx, update, m.ChatID, m.CreatedAt, chat.Preview(m.Content))
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeMessageStoreFailed, "failed to update chat activity")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return chatNotFound(m.ChatID)
		}
		return nil
	})
}

func (r *postgresChatRepo) ListMessages(ctx context.Context, chatID string) ([]*chat.Message, error) {
	if _, err := uuid.Parse(chatID); err != nil {
		return []*chat.Message{}, nil
	}
	query := `SELECT ` + messageColumns + ` FROM messages WHERE chat_id = $1 ORDER BY created_at ASC, seq ASC`
	rows, err := r.executor.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list messages")
	}
	defer rows.Close()

	msgs := make([]*chat.Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate messages")
	}
	return msgs, nil
}

func chatNotFound(id string) error {
	return errors.New(errors.ErrCodeChatNotFound, "Chat not found").WithDetail(id)
}

func scanChat(row scanner) (*chat.Chat, error) {
	var (
		c       chat.Chat
		lastAt  sql.NullTime
		preview sql.NullString
	)
	if err := row.Scan(&c.ID, &c.Username, &c.Title, &c.CreatedAt, &lastAt, &preview); err != nil {
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	if lastAt.Valid {
		t := lastAt.Time.UTC()
		c.LastMessageAt = &t
	}
	if preview.Valid {
		p := preview.String
		c.LastMessagePreview = &p
	}
	return &c, nil
}

func scanMessage(row scanner) (*chat.Message, error) {
	var (
		m         chat.Message
		role      string
		createdAt time.Time
		params    []byte
	)
	if err := row.Scan(&m.ID, &m.ChatID, &role, &m.Content, &createdAt, &m.MLActivated, &params); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan message")
	}
	m.Role = chat.Role(role)
	m.CreatedAt = createdAt.UTC()
	if len(params) > 0 {
		var decoded map[string]session.Value
		if err := json.Unmarshal(params, &decoded); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode message parameters")
		}
		m.Parameters = decoded
	}
	return &m, nil
}

//Personal.AI order the ending
