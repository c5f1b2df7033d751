package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/xaenox/iforgot/internal/models"
	"go.uber.org/zap"
)

//go:embed migrations.sql
var migrations embed.FS

// See https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pqForeignKeyViolation       = "23503"
	pqInvalidTextRepresentation = "22P02"
)

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN renders the config as a lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresStorage(config DatabaseConfig, logger *zap.Logger) (*PostgresStorage, error) {
	storage, err := newPostgresFromDSN(config.DSN(), logger)
	if err != nil {
		return nil, err
	}

	logger.Info("Connected to PostgreSQL",
		zap.String("host", config.Host),
		zap.String("dbname", config.DBName))

	return storage, nil
}

func newPostgresFromDSN(dsn string, logger *zap.Logger) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	storage := &PostgresStorage{db: db, logger: logger}

	if err := storage.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return storage, nil
}

// Migrate applies the embedded schema. It is safe to run repeatedly.
func (s *PostgresStorage) Migrate(ctx context.Context) error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}

	s.logger.Debug("Applied schema migrations")
	return nil
}

// EnsureOwner creates the owner row if it does not exist yet. There is no
// sign-up flow, so the demo owner has to be seeded this way.
func (s *PostgresStorage) EnsureOwner(ctx context.Context, ownerID, email string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
		ownerID, email)
	if err != nil {
		return fmt.Errorf("error ensuring owner: %w", err)
	}
	return nil
}

func (s *PostgresStorage) InsertNote(ctx context.Context, note *models.Note) error {
	if note.ID == "" {
		note.ID = uuid.New().String()
	}

	query := `
		INSERT INTO notes (id, user_id, content, category_id, themes, sentiment, mood, action_items, summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	err := s.db.QueryRowContext(ctx, query,
		note.ID,
		note.UserID,
		note.Content,
		nullString(note.CategoryID),
		pq.Array(nonNil(note.Themes)),
		string(note.Sentiment),
		note.Mood,
		pq.Array(nonNil(note.ActionItems)),
		note.Summary,
	).Scan(&note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating note: %w", classify(err))
	}

	return nil
}

const noteSelect = `
	SELECT n.id, n.user_id, n.content, n.category_id, n.themes, n.sentiment, n.mood,
	       n.action_items, n.summary, n.created_at, n.updated_at,
	       c.id, c.user_id, c.name, c.created_at, c.updated_at
	FROM notes n
	LEFT JOIN categories c ON c.id = n.category_id`

func (s *PostgresStorage) GetNote(ctx context.Context, ownerID, noteID string) (*models.Note, error) {
	rows, err := s.db.QueryContext(ctx, noteSelect+` WHERE n.id = $1 AND n.user_id = $2`, noteID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("error querying note: %w", classify(err))
	}
	notes, err := s.scanNotes(ctx, rows)
	if err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		return nil, ErrNotFound
	}
	return notes[0], nil
}

func (s *PostgresStorage) ListNotes(ctx context.Context, ownerID string, filter NoteFilter) ([]*models.Note, error) {
	var b strings.Builder
	b.WriteString(noteSelect)
	b.WriteString(` WHERE n.user_id = $1`)
	args := []any{ownerID}

	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		fmt.Fprintf(&b, ` AND n.category_id = $%d`, len(args))
	}
	b.WriteString(` ORDER BY n.created_at DESC, n.id DESC`)
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&b, ` LIMIT $%d`, len(args))
	}

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("error querying notes: %w", classify(err))
	}
	return s.scanNotes(ctx, rows)
}

func (s *PostgresStorage) UpdateNoteContent(ctx context.Context, ownerID, noteID, content string) (*models.Note, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE notes SET content = $1, updated_at = $2 WHERE id = $3 AND user_id = $4`,
		content, time.Now(), noteID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("error updating note: %w", classify(err))
	}
	if err := expectRow(result); err != nil {
		return nil, err
	}
	return s.GetNote(ctx, ownerID, noteID)
}

func (s *PostgresStorage) UpdateNoteCategory(ctx context.Context, noteID, categoryID string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE notes SET category_id = $1, updated_at = $2 WHERE id = $3`,
		categoryID, time.Now(), noteID)
	if err != nil {
		return fmt.Errorf("error updating note category: %w", classify(err))
	}
	return expectRow(result)
}

func (s *PostgresStorage) DeleteNote(ctx context.Context, ownerID, noteID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM notes WHERE id = $1 AND user_id = $2`, noteID, ownerID)
	if err != nil {
		return fmt.Errorf("error deleting note: %w", classify(err))
	}
	return expectRow(result)
}

func (s *PostgresStorage) InsertCategory(ctx context.Context, category *models.Category) error {
	if category.ID == "" {
		category.ID = uuid.New().String()
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO categories (id, user_id, name)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`,
		category.ID, category.UserID, category.Name,
	).Scan(&category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating category: %w", classify(err))
	}
	return nil
}

func (s *PostgresStorage) ListCategories(ctx context.Context, ownerID string) ([]*models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, created_at, updated_at
		FROM categories
		WHERE user_id = $1
		ORDER BY created_at, name`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("error querying categories: %w", classify(err))
	}
	defer rows.Close()

	categories := make([]*models.Category, 0)
	for rows.Next() {
		c := &models.Category{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

func (s *PostgresStorage) InsertTasks(ctx context.Context, noteID, ownerID string, descriptions []string) ([]*models.Task, error) {
	if len(descriptions) == 0 {
		return []*models.Task{}, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	tasks := make([]*models.Task, 0, len(descriptions))
	for _, description := range descriptions {
		task := &models.Task{
			ID:          uuid.New().String(),
			NoteID:      noteID,
			UserID:      ownerID,
			Description: description,
		}
		err := tx.QueryRowContext(ctx, `
			INSERT INTO tasks (id, note_id, user_id, description, completed)
			VALUES ($1, $2, $3, $4, FALSE)
			RETURNING created_at`,
			task.ID, task.NoteID, task.UserID, task.Description,
		).Scan(&task.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("error creating task: %w", classify(err))
		}
		tasks = append(tasks, task)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing tasks: %w", err)
	}
	return tasks, nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

func (s *PostgresStorage) scanNotes(ctx context.Context, rows *sql.Rows) ([]*models.Note, error) {
	defer rows.Close()

	notes := make([]*models.Note, 0)
	byID := make(map[string]*models.Note)
	for rows.Next() {
		var (
			note       models.Note
			categoryID sql.NullString
			sentiment  string
			catID      sql.NullString
			catUserID  sql.NullString
			catName    sql.NullString
			catCreated sql.NullTime
			catUpdated sql.NullTime
		)
		err := rows.Scan(
			&note.ID,
			&note.UserID,
			&note.Content,
			&categoryID,
			pq.Array(&note.Themes),
			&sentiment,
			&note.Mood,
			pq.Array(&note.ActionItems),
			&note.Summary,
			&note.CreatedAt,
			&note.UpdatedAt,
			&catID,
			&catUserID,
			&catName,
			&catCreated,
			&catUpdated,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning note: %w", err)
		}

		note.Sentiment = models.Sentiment(sentiment)
		if categoryID.Valid {
			id := categoryID.String
			note.CategoryID = &id
		}
		if catID.Valid {
			note.Category = &models.Category{
				ID:        catID.String,
				UserID:    catUserID.String,
				Name:      catName.String,
				CreatedAt: catCreated.Time,
				UpdatedAt: catUpdated.Time,
			}
		}
		notes = append(notes, &note)
		byID[note.ID] = &note
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notes: %w", err)
	}

	if len(notes) == 0 {
		return notes, nil
	}

	ids := make([]string, 0, len(notes))
	for _, n := range notes {
		ids = append(ids, n.ID)
	}

	taskRows, err := s.db.QueryContext(ctx, `
		SELECT id, note_id, user_id, description, completed, created_at
		FROM tasks
		WHERE note_id = ANY($1::uuid[])
		ORDER BY created_at, id`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("error querying tasks: %w", err)
	}
	defer taskRows.Close()

	for taskRows.Next() {
		task := &models.Task{}
		if err := taskRows.Scan(&task.ID, &task.NoteID, &task.UserID, &task.Description, &task.Completed, &task.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning task: %w", err)
		}
		if n, ok := byID[task.NoteID]; ok {
			n.Tasks = append(n.Tasks, task)
		}
	}
	if err := taskRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return notes, nil
}

func expectRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// classify maps foreign-key violations and malformed ids onto the package
// sentinels so callers can use errors.Is without knowing about lib/pq.
func classify(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pqForeignKeyViolation:
		if strings.HasSuffix(pqErr.Constraint, "_user_id_fkey") {
			return fmt.Errorf("%w: %s", ErrOwnerNotFound, pqErr.Message)
		}
		return fmt.Errorf("%w: %s", ErrNotFound, pqErr.Message)
	case pqInvalidTextRepresentation:
		// malformed UUID, it cannot match any row
		return fmt.Errorf("%w: %s", ErrNotFound, pqErr.Message)
	}
	return err
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
