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

// memoryColumns is the canonical column list for all SELECT queries.
// Order must match scanOne/scanMany.
const memoryColumns = `id, user_id, conversation_id, content, memory_type, importance, tags, created_at, updated_at`

// MemoryFilter narrows a memory list. A nil ConversationID with HasConvFilter
// set selects global memories only; without the flag, all memories match.
type MemoryFilter struct {
	HasConvFilter  bool
	ConversationID *string
	Type           models.MemoryType
}

// MemoryStore handles memory CRUD on SQLite.
type MemoryStore struct {
	db *DB
}

func NewMemoryStore(db *DB) *MemoryStore {
	return &MemoryStore{db: db}
}

// Insert stores a new memory. There is no content-based dedup: identical
// content yields distinct rows with distinct IDs. A conversation reference
// must point at a conversation the same user owns.
func (s *MemoryStore) Insert(userID string, req *models.CreateMemoryRequest) (*models.Memory, error) {
	if req.ConversationID != nil {
		var one int
		err := s.db.QueryRow("SELECT 1 FROM conversations WHERE id = ? AND user_id = ?", *req.ConversationID, userID).Scan(&one)
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("check conversation: %w", err)
		}
	}

	now := time.Now().Unix()
	m := &models.Memory{
		ID:             uuid.New().String(),
		UserID:         userID,
		ConversationID: req.ConversationID,
		Content:        strings.TrimSpace(req.Content),
		Type:           req.Type,
		Importance:     req.Importance,
		Tags:           req.Tags,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if m.Type == "" {
		m.Type = models.MemoryTypeFact
	}
	if m.Importance == 0 {
		m.Importance = models.DefaultImportance
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}

	tagsJSON, _ := json.Marshal(m.Tags)
	_, err := s.db.Exec(`
		INSERT INTO memories (id, user_id, conversation_id, content, memory_type, importance, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.UserID, m.ConversationID, m.Content, string(m.Type), m.Importance, string(tagsJSON), m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert memory: %w", err)
	}
	return m, nil
}

// GetByID fetches a single memory owned by the user.
func (s *MemoryStore) GetByID(userID, id string) (*models.Memory, error) {
	return s.scanOne(s.db.QueryRow(
		fmt.Sprintf(`SELECT %s FROM memories WHERE id = ? AND user_id = ?`, memoryColumns), id, userID))
}

// ListByUser returns the user's memories, most recently updated first. The
// ordering matters: the command matcher resolves ties by list position.
func (s *MemoryStore) ListByUser(userID string, f MemoryFilter) ([]*models.Memory, error) {
	conditions := []string{"user_id = ?"}
	args := []any{userID}

	if f.HasConvFilter {
		if f.ConversationID == nil {
			conditions = append(conditions, "conversation_id IS NULL")
		} else {
			conditions = append(conditions, "conversation_id = ?")
			args = append(args, *f.ConversationID)
		}
	}
	if f.Type != "" {
		conditions = append(conditions, "memory_type = ?")
		args = append(args, string(f.Type))
	}

	query := fmt.Sprintf(`
		SELECT %s FROM memories WHERE %s
		ORDER BY updated_at DESC, created_at DESC
	`, memoryColumns, strings.Join(conditions, " AND "))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	defer rows.Close()
	return s.scanMany(rows)
}

// Update applies partial updates to a memory and refreshes updated_at.
func (s *MemoryStore) Update(userID, id string, req *models.UpdateMemoryRequest) (*models.Memory, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().Unix()}

	if req.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, strings.TrimSpace(*req.Content))
	}
	if req.Type != nil {
		sets = append(sets, "memory_type = ?")
		args = append(args, string(*req.Type))
	}
	if req.Tags != nil {
		tagsJSON, _ := json.Marshal(*req.Tags)
		sets = append(sets, "tags = ?")
		args = append(args, string(tagsJSON))
	}
	if req.Importance != nil {
		sets = append(sets, "importance = ?")
		args = append(args, *req.Importance)
	}

	args = append(args, id, userID)
	query := fmt.Sprintf("UPDATE memories SET %s WHERE id = ? AND user_id = ?", strings.Join(sets, ", "))
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return nil, fmt.Errorf("update memory: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return nil, ErrNotFound
	}
	return s.GetByID(userID, id)
}

// Delete removes a memory by ID.
func (s *MemoryStore) Delete(userID, id string) error {
	res, err := s.db.Exec("DELETE FROM memories WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete memory: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAll removes every memory owned by the user.
func (s *MemoryStore) DeleteAll(userID string) (int64, error) {
	res, err := s.db.Exec("DELETE FROM memories WHERE user_id = ?", userID)
	if err != nil {
		return 0, fmt.Errorf("delete all memories: %w", err)
	}
	return res.RowsAffected()
}

func (s *MemoryStore) scanOne(row *sql.Row) (*models.Memory, error) {
	var m models.Memory
	var convID sql.NullString
	var tagsJSON sql.NullString
	err := row.Scan(&m.ID, &m.UserID, &convID, &m.Content, &m.Type, &m.Importance, &tagsJSON, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan memory: %w", err)
	}
	populateMemoryNullables(&m, convID, tagsJSON)
	return &m, nil
}

func (s *MemoryStore) scanMany(rows *sql.Rows) ([]*models.Memory, error) {
	result := []*models.Memory{}
	for rows.Next() {
		var m models.Memory
		var convID sql.NullString
		var tagsJSON sql.NullString
		if err := rows.Scan(&m.ID, &m.UserID, &convID, &m.Content, &m.Type, &m.Importance, &tagsJSON, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		populateMemoryNullables(&m, convID, tagsJSON)
		result = append(result, &m)
	}
	return result, rows.Err()
}

func populateMemoryNullables(m *models.Memory, convID, tagsJSON sql.NullString) {
	if convID.Valid {
		m.ConversationID = &convID.String
	}
	m.Tags = []string{}
	if tagsJSON.Valid {
		json.Unmarshal([]byte(tagsJSON.String), &m.Tags)
	}
}
