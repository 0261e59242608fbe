package library

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ironsheep/kolam-tools-mcp/internal/kolam"
)

// Preferences are the single user's drawing defaults.
type Preferences struct {
	DefaultTheme    string    `json:"default_theme"`
	DefaultGridSize int       `json:"default_grid_size"`
	LineThickness   int       `json:"line_thickness"`
	DotSize         int       `json:"dot_size"`
	Density         string    `json:"pattern_density"`
	Symmetry        string    `json:"symmetry_type"`
	AutoSave        bool      `json:"auto_save"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DefaultPreferences returns the preferences of a fresh library.
func DefaultPreferences() Preferences {
	return Preferences{
		DefaultTheme:    "traditional",
		DefaultGridSize: 9,
		LineThickness:   2,
		DotSize:         3,
		Density:         string(kolam.DensityMedium),
		Symmetry:        "radial",
		AutoSave:        true,
	}
}

// PreferencesUpdate changes the non-nil fields.
type PreferencesUpdate struct {
	DefaultTheme    *string `json:"default_theme,omitempty"`
	DefaultGridSize *int    `json:"default_grid_size,omitempty"`
	LineThickness   *int    `json:"line_thickness,omitempty"`
	DotSize         *int    `json:"dot_size,omitempty"`
	Density         *string `json:"pattern_density,omitempty"`
	Symmetry        *string `json:"symmetry_type,omitempty"`
	AutoSave        *bool   `json:"auto_save,omitempty"`
}

func (u PreferencesUpdate) apply(p *Preferences) error {
	if u.DefaultTheme != nil {
		theme := strings.TrimSpace(*u.DefaultTheme)
		if theme == "" {
			return fmt.Errorf("%w: empty default theme", ErrInvalid)
		}
		p.DefaultTheme = theme
	}
	if u.DefaultGridSize != nil {
		if err := kolam.CheckSize(*u.DefaultGridSize, *u.DefaultGridSize); err != nil {
			return fmt.Errorf("%w: default grid size: %v", ErrInvalid, err)
		}
		p.DefaultGridSize = *u.DefaultGridSize
	}
	if u.LineThickness != nil {
		if *u.LineThickness < 1 || *u.LineThickness > 10 {
			return fmt.Errorf("%w: line thickness %d (allowed 1-10)", ErrInvalid, *u.LineThickness)
		}
		p.LineThickness = *u.LineThickness
	}
	if u.DotSize != nil {
		if *u.DotSize < 1 || *u.DotSize > 10 {
			return fmt.Errorf("%w: dot size %d (allowed 1-10)", ErrInvalid, *u.DotSize)
		}
		p.DotSize = *u.DotSize
	}
	if u.Density != nil {
		if _, ok := kolam.ParseDensity(*u.Density); !ok {
			return fmt.Errorf("%w: density %q", ErrInvalid, *u.Density)
		}
		p.Density = *u.Density
	}
	if u.Symmetry != nil {
		if _, ok := kolam.ParseSymmetry(*u.Symmetry); !ok {
			return fmt.Errorf("%w: symmetry %q", ErrInvalid, *u.Symmetry)
		}
		p.Symmetry = *u.Symmetry
	}
	if u.AutoSave != nil {
		p.AutoSave = *u.AutoSave
	}
	return nil
}

// GetPreferences returns the stored preferences, creating the defaults on
// first use.
func (s *Store) GetPreferences(ctx context.Context) (*Preferences, error) {
	d := DefaultPreferences()
	_, err := s.db.ExecContext(ctx, `
        INSERT OR IGNORE INTO preferences (id, default_theme, default_grid_size, line_thickness, dot_size, density, symmetry, auto_save, updated_at)
        VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
    `, d.DefaultTheme, d.DefaultGridSize, d.LineThickness, d.DotSize, d.Density, d.Symmetry, boolInt(d.AutoSave), s.timestamp())
	if err != nil {
		return nil, fmt.Errorf("failed to create preferences: %w", err)
	}

	var (
		p        Preferences
		autoSave int
		updated  string
	)
	err = s.db.QueryRowContext(ctx, `
        SELECT default_theme, default_grid_size, line_thickness, dot_size, density, symmetry, auto_save, updated_at
        FROM preferences WHERE id = 1
    `).Scan(&p.DefaultTheme, &p.DefaultGridSize, &p.LineThickness, &p.DotSize, &p.Density, &p.Symmetry, &autoSave, &updated)
	if err != nil {
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}
	p.AutoSave = autoSave != 0
	p.UpdatedAt = parseTime(updated)
	return &p, nil
}

// UpdatePreferences applies u and returns the result. Nothing is written
// when any field is invalid.
func (s *Store) UpdatePreferences(ctx context.Context, u PreferencesUpdate) (*Preferences, error) {
	p, err := s.GetPreferences(ctx)
	if err != nil {
		return nil, err
	}
	if err := u.apply(p); err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx, `
        UPDATE preferences
        SET default_theme = ?, default_grid_size = ?, line_thickness = ?, dot_size = ?,
            density = ?, symmetry = ?, auto_save = ?, updated_at = ?
        WHERE id = 1
    `, p.DefaultTheme, p.DefaultGridSize, p.LineThickness, p.DotSize, p.Density, p.Symmetry, boolInt(p.AutoSave), s.timestamp())
	if err != nil {
		return nil, fmt.Errorf("failed to update preferences: %w", err)
	}
	return s.GetPreferences(ctx)
}
