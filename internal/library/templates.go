package library

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/kolam-tools-mcp/internal/kolam"
)

// TemplateCategories lists the categories a template may carry.
var TemplateCategories = []string{"daily", "festival", "wedding", "religious", "decorative", "traditional"}

// Difficulties lists the template difficulty levels.
var Difficulties = []string{"beginner", "intermediate", "advanced", "expert"}

// Template is a reusable starting pattern.
type Template struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Difficulty  string          `json:"difficulty"`
	Pattern     json.RawMessage `json:"pattern"`
	Preview     string          `json:"preview_image,omitempty"`
	GridSize    int             `json:"grid_size"`
	Featured    bool            `json:"is_featured"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewTemplate holds the fields of a template to create.
type NewTemplate struct {
	Name        string
	Description string
	Category    string
	Difficulty  string
	Pattern     json.RawMessage
	Preview     string
	GridSize    int
	Featured    bool
}

// TemplateFilter narrows ListTemplates. Zero fields match everything.
type TemplateFilter struct {
	Category   string `json:"category,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	Featured   *bool  `json:"featured,omitempty"`
}

// TemplateRenderer produces the pattern JSON and base64 PNG preview for a
// square grid of the given size.
type TemplateRenderer func(ctx context.Context, gridSize int) (json.RawMessage, string, error)

// defaultTemplates are seeded into an empty library.
var defaultTemplates = []NewTemplate{
	{Name: "Simple Daily Kolam", Description: "A simple daily kolam perfect for beginners", Category: "daily", Difficulty: "beginner", GridSize: 5, Featured: true},
	{Name: "Festival Lotus", Description: "Beautiful lotus design for festivals", Category: "festival", Difficulty: "intermediate", GridSize: 7, Featured: true},
	{Name: "Wedding Mandala", Description: "Intricate mandala for wedding ceremonies", Category: "wedding", Difficulty: "advanced", GridSize: 9, Featured: true},
	{Name: "Religious Swastika", Description: "Traditional swastika design", Category: "religious", Difficulty: "beginner", GridSize: 5},
	{Name: "Decorative Spiral", Description: "Elegant spiral pattern for decoration", Category: "decorative", Difficulty: "intermediate", GridSize: 7},
}

func (n *NewTemplate) validate() error {
	n.Name = strings.TrimSpace(n.Name)
	if n.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalid)
	}
	if !json.Valid(n.Pattern) {
		return fmt.Errorf("%w: pattern is not valid JSON", ErrInvalid)
	}
	if err := kolam.CheckSize(n.GridSize, n.GridSize); err != nil {
		return fmt.Errorf("%w: grid size: %v", ErrInvalid, err)
	}
	if err := oneOf("category", n.Category, TemplateCategories); err != nil {
		return err
	}
	return oneOf("difficulty", n.Difficulty, Difficulties)
}

// CreateTemplate stores a new template.
func (s *Store) CreateTemplate(ctx context.Context, n NewTemplate) (*Template, error) {
	if err := n.validate(); err != nil {
		return nil, err
	}
	id := uuid.NewString()
	now := s.timestamp()
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO templates (id, name, description, category, difficulty, pattern, preview, grid_size, is_featured, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, id, n.Name, n.Description, n.Category, n.Difficulty, string(n.Pattern), n.Preview, n.GridSize, boolInt(n.Featured), now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	return s.GetTemplate(ctx, id)
}

const templateColumns = `id, name, description, category, difficulty, pattern, preview, grid_size, is_featured, created_at, updated_at`

func scanTemplate(row rowScanner) (*Template, error) {
	var (
		t                Template
		body             string
		featured         int
		created, updated string
	)
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Category, &t.Difficulty, &body, &t.Preview,
		&t.GridSize, &featured, &created, &updated)
	if err != nil {
		return nil, err
	}
	t.Pattern = json.RawMessage(body)
	t.Featured = featured != 0
	t.CreatedAt = parseTime(created)
	t.UpdatedAt = parseTime(updated)
	return &t, nil
}

// GetTemplate returns the template with id.
func (s *Store) GetTemplate(ctx context.Context, id string) (*Template, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM templates WHERE id = ?`, id)
	t, err := scanTemplate(row)
	if err != nil {
		return nil, notFound(err, "template", id)
	}
	return t, nil
}

// ListTemplates returns templates matching f, featured first, then by name.
func (s *Store) ListTemplates(ctx context.Context, f TemplateFilter) ([]Template, error) {
	var (
		where []string
		args  []any
	)
	if f.Category != "" {
		if err := oneOf("category", f.Category, TemplateCategories); err != nil {
			return nil, err
		}
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.Difficulty != "" {
		if err := oneOf("difficulty", f.Difficulty, Difficulties); err != nil {
			return nil, err
		}
		where = append(where, "difficulty = ?")
		args = append(args, f.Difficulty)
	}
	if f.Featured != nil {
		where = append(where, "is_featured = ?")
		args = append(args, boolInt(*f.Featured))
	}

	query := `SELECT ` + templateColumns + ` FROM templates`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY is_featured DESC, name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	out := []Template{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// SeedDefaults fills an empty template table with the built-in templates,
// rendering each through render. It returns the number created and does
// nothing when any template already exists.
func (s *Store) SeedDefaults(ctx context.Context, render TemplateRenderer) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM templates`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count templates: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	created := 0
	for _, def := range defaultTemplates {
		pattern, preview, err := render(ctx, def.GridSize)
		if err != nil {
			return created, fmt.Errorf("failed to render template %q: %w", def.Name, err)
		}
		def.Pattern = pattern
		def.Preview = preview
		if _, err := s.CreateTemplate(ctx, def); err != nil {
			return created, err
		}
		created++
	}
	log.Printf("library: seeded %d default templates", created)
	return created, nil
}
