package service

import (
	"context"
	"encoding/json"
	"errors"
	"slices"

	"github.com/go-playground/validator/v10"

	"github.com/atinyakov/DocDesk/internal/models"
	"github.com/atinyakov/DocDesk/internal/repository"
)

// DoctorRepository defines the profile persistence used by DoctorService.
type DoctorRepository interface {
	// GetDoctor returns repository.ErrNotFound for unknown ids.
	GetDoctor(ctx context.Context, id string) (*models.DoctorProfile, error)
	// UpdateDoctor writes only the named profile fields of p.
	UpdateDoctor(ctx context.Context, p *models.DoctorProfile, fields []string) error
}

// editableFields are the profile keys a PUT may carry.
var editableFields = []string{
	"name", "phone", "email", "bio", "gender", "specialization", "ticketPrice",
	"about", "photo", "qualifications", "experiences", "timeSlots",
}

// DoctorService reads and partially updates doctor profiles.
type DoctorService struct {
	repo     DoctorRepository
	validate *validator.Validate
}

// NewDoctorService constructs a DoctorService backed by repo.
func NewDoctorService(repo DoctorRepository) *DoctorService {
	return &DoctorService{repo: repo, validate: newValidator()}
}

// Get returns the profile with the given id.
func (s *DoctorService) Get(ctx context.Context, id string) (*models.DoctorProfile, error) {
	p, err := s.repo.GetDoctor(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return p, err
}

// CanEdit reports whether actor may update the profile id: admins may edit
// any profile, doctors only their own.
func CanEdit(actor *models.User, id string) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleDoctor:
		return actor.ID == id
	}
	return false
}

// Update applies patch to the profile id. Only the keys present in patch
// are changed; unknown keys, undecodable values and a result that fails
// validation are rejected with a *ValidationError before anything is stored.
func (s *DoctorService) Update(ctx context.Context, actor *models.User, id string, patch map[string]json.RawMessage) (*models.DoctorProfile, error) {
	if !CanEdit(actor, id) {
		return nil, ErrForbidden
	}

	fields := make([]string, 0, len(patch))
	for k := range patch {
		if !slices.Contains(editableFields, k) {
			return nil, invalid("unknown field %q", k)
		}
		fields = append(fields, k)
	}
	slices.Sort(fields)

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := *current
	for _, k := range fields {
		resetList(&updated, k)
		obj, err := json.Marshal(map[string]json.RawMessage{k: patch[k]})
		if err != nil {
			return nil, invalid("invalid value for %s", k)
		}
		if err := json.Unmarshal(obj, &updated); err != nil {
			return nil, invalid("invalid value for %s", k)
		}
	}
	updated.ID = id
	normalizeLists(&updated)

	if err := s.validate.Struct(updated); err != nil {
		return nil, validationError(err)
	}

	if err := s.repo.UpdateDoctor(ctx, &updated, fields); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &updated, nil
}

// resetList drops a list before it is decoded so that no element of the
// stored list leaks into the patched one.
func resetList(p *models.DoctorProfile, key string) {
	switch key {
	case "qualifications":
		p.Qualifications = nil
	case "experiences":
		p.Experiences = nil
	case "timeSlots":
		p.TimeSlots = nil
	}
}

func normalizeLists(p *models.DoctorProfile) {
	if p.Qualifications == nil {
		p.Qualifications = []models.Qualification{}
	}
	if p.Experiences == nil {
		p.Experiences = []models.Experience{}
	}
	if p.TimeSlots == nil {
		p.TimeSlots = []models.TimeSlot{}
	}
}
