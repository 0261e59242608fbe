package library

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/kolam-tools-mcp/internal/kolam"
)

// Pattern categories.
const (
	CategoryGenerated = "generated"
	CategoryDigitized = "digitized"
	CategoryFavorites = "favorites"
)

// PatternCategories lists the categories a saved pattern may carry.
var PatternCategories = []string{CategoryGenerated, CategoryDigitized, CategoryFavorites}

// Pattern is a saved pattern.
type Pattern struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Pattern   json.RawMessage `json:"pattern"`
	Preview   string          `json:"preview_image,omitempty"`
	GridSize  int             `json:"grid_size"`
	Theme     string          `json:"theme"`
	Category  string          `json:"category"`
	Favorite  bool            `json:"is_favorite"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewPattern holds the fields of a pattern to save.
type NewPattern struct {
	Name     string
	Pattern  json.RawMessage
	Preview  string
	GridSize int
	Theme    string
	Category string
	Favorite bool
}

// PatternUpdate changes the non-nil fields of a saved pattern.
type PatternUpdate struct {
	Name     *string `json:"name,omitempty"`
	Category *string `json:"category,omitempty"`
	Favorite *bool   `json:"is_favorite,omitempty"`
}

func (n *NewPattern) validate() error {
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
	if n.Theme == "" {
		n.Theme = "traditional"
	}
	if n.Category == "" {
		n.Category = CategoryGenerated
	}
	return oneOf("category", n.Category, PatternCategories)
}

// SavePattern stores a new pattern and returns it with its id.
func (s *Store) SavePattern(ctx context.Context, n NewPattern) (*Pattern, error) {
	if err := n.validate(); err != nil {
		return nil, err
	}
	id := uuid.NewString()
	now := s.timestamp()
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO patterns (id, name, pattern, preview, grid_size, theme, category, is_favorite, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, id, n.Name, string(n.Pattern), n.Preview, n.GridSize, n.Theme, n.Category, boolInt(n.Favorite), now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to save pattern: %w", err)
	}
	return s.GetPattern(ctx, id)
}

const patternColumns = `id, name, pattern, preview, grid_size, theme, category, is_favorite, created_at, updated_at`

func scanPattern(row rowScanner) (*Pattern, error) {
	var (
		p                Pattern
		body             string
		fav              int
		created, updated string
	)
	if err := row.Scan(&p.ID, &p.Name, &body, &p.Preview, &p.GridSize, &p.Theme, &p.Category, &fav, &created, &updated); err != nil {
		return nil, err
	}
	p.Pattern = json.RawMessage(body)
	p.Favorite = fav != 0
	p.CreatedAt = parseTime(created)
	p.UpdatedAt = parseTime(updated)
	return &p, nil
}

// GetPattern returns the pattern with id.
func (s *Store) GetPattern(ctx context.Context, id string) (*Pattern, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+patternColumns+` FROM patterns WHERE id = ?`, id)
	p, err := scanPattern(row)
	if err != nil {
		return nil, notFound(err, "pattern", id)
	}
	return p, nil
}

// ListPatterns returns saved patterns, newest first. A non-empty category
// filters the list; CategoryFavorites also matches patterns flagged as
// favourite. Previews are omitted unless withPreview is set.
func (s *Store) ListPatterns(ctx context.Context, category string, withPreview bool) ([]Pattern, error) {
	query := `SELECT ` + patternColumns + ` FROM patterns`
	var args []any
	switch category {
	case "":
	case CategoryFavorites:
		query += ` WHERE category = ? OR is_favorite = 1`
		args = append(args, category)
	default:
		if err := oneOf("category", category, PatternCategories); err != nil {
			return nil, err
		}
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list patterns: %w", err)
	}
	defer rows.Close()

	out := []Pattern{}
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, err
		}
		if !withPreview {
			p.Preview = ""
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// UpdatePattern applies u to the pattern with id.
func (s *Store) UpdatePattern(ctx context.Context, id string, u PatternUpdate) (*Pattern, error) {
	var (
		sets []string
		args []any
	)
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: empty name", ErrInvalid)
		}
		sets = append(sets, "name = ?")
		args = append(args, name)
	}
	if u.Category != nil {
		if err := oneOf("category", *u.Category, PatternCategories); err != nil {
			return nil, err
		}
		sets = append(sets, "category = ?")
		args = append(args, *u.Category)
	}
	if u.Favorite != nil {
		sets = append(sets, "is_favorite = ?")
		args = append(args, boolInt(*u.Favorite))
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, s.timestamp(), id)

	res, err := s.db.ExecContext(ctx, `UPDATE patterns SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update pattern: %w", err)
	}
	if err := checkAffected(res, "pattern", id); err != nil {
		return nil, err
	}
	return s.GetPattern(ctx, id)
}

// DeletePattern removes the pattern with id.
func (s *Store) DeletePattern(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM patterns WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete pattern: %w", err)
	}
	return checkAffected(res, "pattern", id)
}
