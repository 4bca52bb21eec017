package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"ai-document-translator/internal/domain"
	"ai-document-translator/internal/domain/model"
	"ai-document-translator/internal/domain/ports/repository"
)

var _ repository.DocumentChatRepository = (*PostgresDocumentChatRepo)(nil)

type PostgresDocumentChatRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresDocumentChatRepo(pool *pgxpool.Pool) *PostgresDocumentChatRepo {
	return &PostgresDocumentChatRepo{pool: pool}
}

// sortColumns whitelists ORDER BY targets.
var sortColumns = map[string]string{
	model.SortByLastActivity: "c.last_activity_at",
	model.SortByCreatedAt:    "c.created_at",
	model.SortByTitle:        "c.title",
	model.SortByStatus:       "c.status",
}

func (r *PostgresDocumentChatRepo) Save(ctx context.Context, qx any, c *model.DocumentTranslationChat) error {
	var result []byte
	if c.TranslationResult != nil {
		b, err := json.Marshal(c.TranslationResult)
		if err != nil {
			return fmt.Errorf("marshal translation result: %w", err)
		}
		result = b
	}
	const q = `
INSERT INTO document_chats (
  chat_id, user_id, original_file_name, content_type, file_size_bytes, file_type,
  target_language_id, target_language_name, status, title, translation_result,
  error_message, created_at, updated_at, last_activity_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
ON CONFLICT (chat_id) DO UPDATE SET
  status=$9, title=$10, translation_result=$11, error_message=$12,
  updated_at=$14, last_activity_at=$15
RETURNING id;
`
	row := pickRow(ctx, r.pool, qx, q,
		c.ChatID, c.UserID, c.OriginalFileName, c.ContentType, c.FileSizeBytes, c.FileType,
		c.TargetLanguageID, c.TargetLanguageName, c.Status, c.Title, result,
		c.ErrorMessage, c.CreatedAt, c.UpdatedAt, c.LastActivityAt,
	)
	if err := row.Scan(&c.ID); err != nil {
		return fmt.Errorf("save chat: %w", err)
	}
	return nil
}

// FindByChatID loads the chat with all messages, hidden ones included. Inside a
// transaction the chat row is locked.
func (r *PostgresDocumentChatRepo) FindByChatID(ctx context.Context, qx any, chatID string) (*model.DocumentTranslationChat, error) {
	q := `
SELECT id, chat_id, user_id, original_file_name, content_type, file_size_bytes, file_type,
       target_language_id, target_language_name, status, title, translation_result,
       error_message, created_at, updated_at, last_activity_at
  FROM document_chats WHERE chat_id=$1`
	if _, ok := qx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	var (
		c      model.DocumentTranslationChat
		result []byte
	)
	err := pickRow(ctx, r.pool, qx, q, chatID).Scan(
		&c.ID, &c.ChatID, &c.UserID, &c.OriginalFileName, &c.ContentType, &c.FileSizeBytes, &c.FileType,
		&c.TargetLanguageID, &c.TargetLanguageName, &c.Status, &c.Title, &result,
		&c.ErrorMessage, &c.CreatedAt, &c.UpdatedAt, &c.LastActivityAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find chat: %w", err)
	}
	if len(result) > 0 {
		c.TranslationResult = &model.DocumentTranslationResult{}
		if err := json.Unmarshal(result, c.TranslationResult); err != nil {
			return nil, fmt.Errorf("%w: translation result: %v", domain.ErrReadDatabaseRow, err)
		}
	}
	msgs, err := r.ListMessages(ctx, qx, chatID)
	if err != nil {
		return nil, err
	}
	c.Messages = msgs
	return &c, nil
}

func (r *PostgresDocumentChatRepo) ListByUser(ctx context.Context, qx any, f model.ChatFilter) ([]model.ChatSummary, int, error) {
	f.Normalize()

	where := []string{"c.user_id = $1"}
	args := []any{f.UserID}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.FileType != "" {
		add("c.file_type = $%d", f.FileType)
	}
	if f.TargetLanguageID > 0 {
		add("c.target_language_id = $%d", f.TargetLanguageID)
	}
	if f.FromDate != nil {
		add("c.created_at >= $%d", *f.FromDate)
	}
	if f.ToDate != nil {
		add("c.created_at <= $%d", *f.ToDate)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := pickRow(ctx, r.pool, qx, `SELECT COUNT(*) FROM document_chats c WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count chats: %w", err)
	}

	order := sortColumns[f.SortBy]
	if order == "" {
		order = sortColumns[model.SortByLastActivity]
	}
	q := fmt.Sprintf(`
SELECT c.chat_id, c.title, c.original_file_name, c.file_type, c.target_language_id,
       c.target_language_name, c.status, c.translation_result IS NOT NULL,
       c.error_message <> '',
       (SELECT COUNT(*) FROM chat_messages m WHERE m.chat_id = c.chat_id AND m.is_visible),
       c.created_at, c.last_activity_at
  FROM document_chats c
 WHERE %s
 ORDER BY %s %s, c.id %s
 LIMIT $%d OFFSET $%d;
`, cond, order, f.SortDirection, f.SortDirection, len(args)+1, len(args)+2)
	args = append(args, f.PageSize, f.Offset())

	rows, err := queryRows(ctx, r.pool, qx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	out := make([]model.ChatSummary, 0, f.PageSize)
	for rows.Next() {
		var s model.ChatSummary
		if err := rows.Scan(&s.ChatID, &s.Title, &s.OriginalFileName, &s.FileType, &s.TargetLanguageID,
			&s.TargetLanguageName, &s.Status, &s.HasResult, &s.HasError, &s.MessageCount,
			&s.CreatedAt, &s.LastActivityAt); err != nil {
			return nil, 0, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list chats: %w", err)
	}
	return out, total, nil
}

// Delete removes the chat; its messages go with it by cascade.
func (r *PostgresDocumentChatRepo) Delete(ctx context.Context, qx any, chatID string) error {
	ct, err := execSQL(ctx, r.pool, qx, `DELETE FROM document_chats WHERE chat_id=$1;`, chatID)
	if err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresDocumentChatRepo) DeleteCreatedBefore(ctx context.Context, qx any, cutoff time.Time) (int64, error) {
	ct, err := execSQL(ctx, r.pool, qx, `DELETE FROM document_chats WHERE created_at < $1;`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old chats: %w", err)
	}
	return ct.RowsAffected(), nil
}

func (r *PostgresDocumentChatRepo) AddMessage(ctx context.Context, qx any, m *model.ChatMessage) error {
	var meta []byte
	if m.Metadata != nil {
		b, err := json.Marshal(m.Metadata)
		if err != nil {
			return fmt.Errorf("marshal message metadata: %w", err)
		}
		meta = b
	}
	const q = `
INSERT INTO chat_messages (
  message_id, chat_id, message_type, content, metadata, translation_job_id,
  ai_model, processing_cost, processing_time_seconds, is_visible, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
RETURNING id;
`
	err := pickRow(ctx, r.pool, qx, q,
		m.MessageID, m.ChatID, int(m.MessageType), m.Content, meta, m.TranslationJobID,
		m.AIModel, m.ProcessingCost, m.ProcessingTimeSeconds, m.IsVisible, m.CreatedAt,
	).Scan(&m.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("add message: %w", err)
	}
	return nil
}

func (r *PostgresDocumentChatRepo) ListMessages(ctx context.Context, qx any, chatID string) ([]model.ChatMessage, error) {
	const q = `
SELECT id, message_id, chat_id, message_type, content, metadata, translation_job_id,
       ai_model, processing_cost, processing_time_seconds, is_visible, created_at
  FROM chat_messages
 WHERE chat_id=$1
 ORDER BY created_at, id;
`
	rows, err := queryRows(ctx, r.pool, qx, q, chatID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	out := make([]model.ChatMessage, 0, 8)
	for rows.Next() {
		var (
			m    model.ChatMessage
			typ  int
			meta []byte
		)
		if err := rows.Scan(&m.ID, &m.MessageID, &m.ChatID, &typ, &m.Content, &meta, &m.TranslationJobID,
			&m.AIModel, &m.ProcessingCost, &m.ProcessingTimeSeconds, &m.IsVisible, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		m.MessageType = model.MessageType(typ)
		if len(meta) > 0 {
			m.Metadata = &model.MessageMetadata{}
			if err := json.Unmarshal(meta, m.Metadata); err != nil {
				return nil, fmt.Errorf("%w: message metadata: %v", domain.ErrReadDatabaseRow, err)
			}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PostgresDocumentChatRepo) SetMessageVisibility(ctx context.Context, qx any, chatID, messageID string, visible bool) error {
	ct, err := execSQL(ctx, r.pool, qx,
		`UPDATE chat_messages SET is_visible=$3 WHERE chat_id=$1 AND message_id=$2;`,
		chatID, messageID, visible)
	if err != nil {
		return fmt.Errorf("set message visibility: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
