package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iammorganparry/memchat/internal/models"
)

// ConversationStore handles conversation and message CRUD on SQLite.
// Every query is scoped to the owning user: a missing row and another
// user's row are indistinguishable (both yield ErrNotFound).
type ConversationStore struct {
	db *DB
}

func NewConversationStore(db *DB) *ConversationStore {
	return &ConversationStore{db: db}
}

// Create inserts a new empty conversation with the default title.
func (s *ConversationStore) Create(userID, model string) (*models.Conversation, error) {
	if model == "" {
		model = models.DefaultModel
	}
	now := time.Now().Unix()
	c := &models.Conversation{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     models.DefaultTitle,
		Model:     model,
		Messages:  []*models.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.Exec(`
		INSERT INTO conversations (id, user_id, title, model, message_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)
	`, c.ID, c.UserID, c.Title, c.Model, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}
	return c, nil
}

// GetByID fetches a conversation without its messages.
func (s *ConversationStore) GetByID(userID, id string) (*models.Conversation, error) {
	return s.scanOne(s.db.QueryRow(`
		SELECT id, user_id, title, model, message_count, created_at, updated_at
		FROM conversations WHERE id = ? AND user_id = ?
	`, id, userID))
}

// GetWithMessages fetches a conversation including its full ordered transcript.
func (s *ConversationStore) GetWithMessages(userID, id string) (*models.Conversation, error) {
	c, err := s.GetByID(userID, id)
	if err != nil {
		return nil, err
	}
	msgs, err := s.Messages(id)
	if err != nil {
		return nil, err
	}
	c.Messages = msgs
	return c, nil
}

// ListByUser returns conversation metadata without messages, most recently
// updated first.
func (s *ConversationStore) ListByUser(userID string) ([]*models.Conversation, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, title, model, message_count, created_at, updated_at
		FROM conversations WHERE user_id = ?
		ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var result []*models.Conversation
	for rows.Next() {
		var c models.Conversation
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.Model, &c.MessageCount, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		c.Messages = []*models.Message{}
		result = append(result, &c)
	}
	return result, rows.Err()
}

// Update applies partial updates (title, model) to a conversation.
func (s *ConversationStore) Update(userID, id string, req *models.UpdateConversationRequest) (*models.Conversation, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().Unix()}

	if req.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *req.Title)
	}
	if req.Model != nil {
		sets = append(sets, "model = ?")
		args = append(args, *req.Model)
	}

	args = append(args, id, userID)
	query := fmt.Sprintf("UPDATE conversations SET %s WHERE id = ? AND user_id = ?", strings.Join(sets, ", "))
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return nil, fmt.Errorf("update conversation: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return nil, ErrNotFound
	}
	return s.GetByID(userID, id)
}

// Delete removes a conversation and its messages (cascading).
func (s *ConversationStore) Delete(userID, id string) error {
	res, err := s.db.Exec("DELETE FROM conversations WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendMessage appends a message to the end of a conversation's transcript,
// incrementing message_count and refreshing updated_at. Order is insertion
// order; messages are never edited or reordered afterwards.
func (s *ConversationStore) AppendMessage(userID, convID string, sender models.Sender, content string, images []string) (*models.Message, error) {
	if _, err := s.GetByID(userID, convID); err != nil {
		return nil, err
	}

	var imagesJSON *string
	if len(images) > 0 {
		b, _ := json.Marshal(images)
		v := string(b)
		imagesJSON = &v
	}

	now := time.Now().Unix()
	var seq int
	if err := s.db.QueryRow(
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE conversation_id = ?`, convID,
	).Scan(&seq); err != nil {
		return nil, fmt.Errorf("next message seq: %w", err)
	}

	res, err := s.db.Exec(`
		INSERT INTO messages (conversation_id, seq, sender, content, images, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, convID, seq, string(sender), content, imagesJSON, now)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	id, _ := res.LastInsertId()

	_, err = s.db.Exec(`
		UPDATE conversations SET message_count = message_count + 1, updated_at = ?
		WHERE id = ?
	`, now, convID)
	if err != nil {
		return nil, fmt.Errorf("update message count: %w", err)
	}

	return &models.Message{
		ID:             id,
		ConversationID: convID,
		Seq:            seq,
		Sender:         sender,
		Content:        content,
		Images:         images,
		CreatedAt:      now,
	}, nil
}

// ClearMessages deletes the whole transcript of a conversation. This is the
// only way messages are ever removed.
func (s *ConversationStore) ClearMessages(userID, convID string) error {
	if _, err := s.GetByID(userID, convID); err != nil {
		return err
	}
	if _, err := s.db.Exec("DELETE FROM messages WHERE conversation_id = ?", convID); err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}
	_, err := s.db.Exec(`
		UPDATE conversations SET message_count = 0, updated_at = ? WHERE id = ?
	`, time.Now().Unix(), convID)
	if err != nil {
		return fmt.Errorf("reset message count: %w", err)
	}
	return nil
}

// Messages returns the full transcript in insertion order.
func (s *ConversationStore) Messages(convID string) ([]*models.Message, error) {
	rows, err := s.db.Query(`
		SELECT id, conversation_id, seq, sender, content, images, created_at
		FROM messages WHERE conversation_id = ?
		ORDER BY seq ASC
	`, convID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

// LastMessages returns the most recent n messages in insertion order.
func (s *ConversationStore) LastMessages(convID string, n int) ([]*models.Message, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.Query(`
		SELECT id, conversation_id, seq, sender, content, images, created_at
		FROM (
			SELECT * FROM messages WHERE conversation_id = ? ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC
	`, convID, n)
	if err != nil {
		return nil, fmt.Errorf("last messages: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]*models.Message, error) {
	result := []*models.Message{}
	for rows.Next() {
		var m models.Message
		var imagesJSON sql.NullString
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Seq, &m.Sender, &m.Content, &imagesJSON, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if imagesJSON.Valid {
			json.Unmarshal([]byte(imagesJSON.String), &m.Images)
		}
		result = append(result, &m)
	}
	return result, rows.Err()
}

func (s *ConversationStore) scanOne(row *sql.Row) (*models.Conversation, error) {
	var c models.Conversation
	err := row.Scan(&c.ID, &c.UserID, &c.Title, &c.Model, &c.MessageCount, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan conversation: %w", err)
	}
	c.Messages = []*models.Message{}
	return &c, nil
}
