package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/atinyakov/DocDesk/internal/models"
)

// column maps a profile JSON key to its SQL column and value.
type column struct {
	name  string
	value func(p *models.DoctorProfile) any
}

var doctorColumns = map[string]column{
	"name":           {"name", func(p *models.DoctorProfile) any { return p.Name }},
	"phone":          {"phone", func(p *models.DoctorProfile) any { return p.Phone }},
	"email":          {"email", func(p *models.DoctorProfile) any { return p.Email }},
	"bio":            {"bio", func(p *models.DoctorProfile) any { return p.Bio }},
	"gender":         {"gender", func(p *models.DoctorProfile) any { return p.Gender }},
	"specialization": {"specialization", func(p *models.DoctorProfile) any { return p.Specialization }},
	"ticketPrice":    {"ticket_price", func(p *models.DoctorProfile) any { return p.TicketPrice }},
	"about":          {"about", func(p *models.DoctorProfile) any { return p.About }},
	"photo":          {"photo", func(p *models.DoctorProfile) any { return p.Photo }},
	"qualifications": {"qualifications", func(p *models.DoctorProfile) any { return jsonList(p.Qualifications) }},
	"experiences":    {"experiences", func(p *models.DoctorProfile) any { return jsonList(p.Experiences) }},
	"timeSlots":      {"time_slots", func(p *models.DoctorProfile) any { return jsonList(p.TimeSlots) }},
}

// jsonList encodes a list for a JSONB column; nil becomes [].
func jsonList[T any](items []T) string {
	if items == nil {
		items = []T{}
	}
	b, _ := json.Marshal(items)
	return string(b)
}

// PostgresDoctorRepository stores doctor profiles; the three lists live in JSONB columns.
type PostgresDoctorRepository struct {
	DB *sql.DB
}

// NewPostgresDoctorRepository creates a new PostgresDoctorRepository.
func NewPostgresDoctorRepository(db *sql.DB) *PostgresDoctorRepository {
	return &PostgresDoctorRepository{DB: db}
}

// GetDoctor loads the profile with the given id.
func (r *PostgresDoctorRepository) GetDoctor(ctx context.Context, id string) (*models.DoctorProfile, error) {
	var (
		p                  models.DoctorProfile
		quals, exps, slots []byte
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, name, phone, email, bio, gender, specialization, ticket_price, about, photo,
		       qualifications, experiences, time_slots
		  FROM doctors WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Phone, &p.Email, &p.Bio, &p.Gender, &p.Specialization,
		&p.TicketPrice, &p.About, &p.Photo, &quals, &exps, &slots)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetDoctor: %w", err)
	}

	if err := decodeList(quals, &p.Qualifications); err != nil {
		return nil, fmt.Errorf("decode qualifications: %w", err)
	}
	if err := decodeList(exps, &p.Experiences); err != nil {
		return nil, fmt.Errorf("decode experiences: %w", err)
	}
	if err := decodeList(slots, &p.TimeSlots); err != nil {
		return nil, fmt.Errorf("decode time slots: %w", err)
	}
	return &p, nil
}

func decodeList[T any](raw []byte, dst *[]T) error {
	*dst = []T{}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return err
	}
	if *dst == nil {
		*dst = []T{}
	}
	return nil
}

// UpdateDoctor writes only the listed fields (profile JSON keys) of p.
// Updating no fields is a no-op; an unknown id yields ErrNotFound.
func (r *PostgresDoctorRepository) UpdateDoctor(ctx context.Context, p *models.DoctorProfile, fields []string) error {
	if len(fields) == 0 {
		return nil
	}

	sets := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)
	for _, f := range fields {
		col, ok := doctorColumns[f]
		if !ok {
			return fmt.Errorf("unknown doctor field %q", f)
		}
		args = append(args, col.value(p))
		sets = append(sets, fmt.Sprintf("%s = $%d", col.name, len(args)))
	}
	args = append(args, p.ID)
	query := fmt.Sprintf("UPDATE doctors SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("UpdateDoctor: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
