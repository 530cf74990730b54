// Package editor holds the in-progress copy of a doctor profile: scalar
// fields plus the qualifications, experiences and time slots lists. Every
// operation produces a new record; the baseline is never touched.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/atinyakov/DocDesk/internal/client/api"
	"github.com/atinyakov/DocDesk/internal/logger"
	"github.com/atinyakov/DocDesk/internal/models"
)

var (
	// ErrIndexOutOfRange is returned when an entry index is outside its list.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrUnknownList is returned for a list name that is not editable.
	ErrUnknownList = errors.New("unknown list")
	// ErrUnknownField is returned for a field name the target does not have.
	ErrUnknownField = errors.New("unknown field")
	// ErrInvalidValue is returned when a value cannot be stored in its field.
	ErrInvalidValue = errors.New("invalid value")
)

// Editor owns the edited copy of a profile.
type Editor struct {
	baseline models.DoctorProfile
	current  models.DoctorProfile

	log      *zap.Logger
	validate *validator.Validate
}

// New starts editing a copy of baseline. Missing lists start empty.
func New(baseline models.DoctorProfile, log *zap.Logger) *Editor {
	e := &Editor{
		baseline: Clone(baseline),
		log:      logger.OrNop(log),
		validate: validator.New(),
	}
	e.current = withEmptyLists(Clone(baseline))
	return e
}

// Clone returns a deep copy of p.
func Clone(p models.DoctorProfile) models.DoctorProfile {
	p.Qualifications = slices.Clone(p.Qualifications)
	p.Experiences = slices.Clone(p.Experiences)
	p.TimeSlots = slices.Clone(p.TimeSlots)
	return p
}

func withEmptyLists(p models.DoctorProfile) models.DoctorProfile {
	if p.Qualifications == nil {
		p.Qualifications = []models.Qualification{}
	}
	if p.Experiences == nil {
		p.Experiences = []models.Experience{}
	}
	if p.TimeSlots == nil {
		p.TimeSlots = []models.TimeSlot{}
	}
	return p
}

// Baseline returns a copy of the record editing started from.
func (e *Editor) Baseline() models.DoctorProfile {
	return Clone(e.baseline)
}

// Record returns a copy of the edited record.
func (e *Editor) Record() models.DoctorProfile {
	return Clone(e.current)
}

// Reset discards all edits.
func (e *Editor) Reset() models.DoctorProfile {
	e.current = withEmptyLists(Clone(e.baseline))
	return e.Record()
}

// Validate checks the edited record against the profile constraints.
func (e *Editor) Validate() error {
	if err := e.validate.Struct(e.current); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return nil
}

// SetScalarField sets one of the scalar fields by its JSON name.
func (e *Editor) SetScalarField(name, value string) (models.DoctorProfile, error) {
	next := Clone(e.current)
	switch name {
	case "name":
		next.Name = value
	case "phone":
		next.Phone = value
	case "email":
		next.Email = value
	case "bio":
		next.Bio = value
	case "gender":
		next.Gender = value
	case "specialization":
		next.Specialization = value
	case "about":
		next.About = value
	case "photo":
		next.Photo = value
	case "ticketPrice":
		price, err := parsePrice(value)
		if err != nil {
			return e.Record(), err
		}
		next.TicketPrice = price
	default:
		return e.Record(), fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return e.commit("set_scalar", next), nil
}

// SetPhoto stores an uploaded photo URL. An empty URL leaves the photo as is.
func (e *Editor) SetPhoto(url string) models.DoctorProfile {
	if url == "" {
		return e.Record()
	}
	next := Clone(e.current)
	next.Photo = url
	return e.commit("set_photo", next)
}

// AttachPhoto uploads r through up and stores the returned URL. An upload
// that yields no URL leaves the photo unchanged.
func (e *Editor) AttachPhoto(ctx context.Context, up api.Uploader, name string, r io.Reader) (models.DoctorProfile, error) {
	res, err := up.Upload(ctx, name, r)
	if err != nil {
		e.log.Warn("photo upload failed", zap.String("file", name), zap.Error(err))
		return e.Record(), fmt.Errorf("upload photo: %w", err)
	}
	if res == nil || res.URL == "" {
		e.log.Warn("photo upload returned no url", zap.String("file", name))
		return e.Record(), nil
	}
	return e.SetPhoto(res.URL), nil
}

// AddListEntry appends the list's template entry, with overrides applied on
// top of the template defaults.
func (e *Editor) AddListEntry(list ListName, overrides map[string]string) (models.DoctorProfile, error) {
	next := Clone(e.current)
	var err error
	switch list {
	case Qualifications:
		next.Qualifications, err = add(next.Qualifications, qualificationTemplate(), setQualification, overrides)
	case Experiences:
		next.Experiences, err = add(next.Experiences, experienceTemplate(), setExperience, overrides)
	case TimeSlots:
		next.TimeSlots, err = add(next.TimeSlots, timeSlotTemplate(), setTimeSlot, overrides)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownList, list)
	}
	if err != nil {
		return e.Record(), err
	}
	return e.commit("add_entry", next), nil
}

// UpdateListEntry sets one field of the entry at index.
func (e *Editor) UpdateListEntry(list ListName, index int, field, value string) (models.DoctorProfile, error) {
	next := Clone(e.current)
	var err error
	switch list {
	case Qualifications:
		next.Qualifications, err = update(list, next.Qualifications, index, setQualification, field, value)
	case Experiences:
		next.Experiences, err = update(list, next.Experiences, index, setExperience, field, value)
	case TimeSlots:
		next.TimeSlots, err = update(list, next.TimeSlots, index, setTimeSlot, field, value)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownList, list)
	}
	if err != nil {
		return e.Record(), err
	}
	return e.commit("update_entry", next), nil
}

// DeleteListEntry removes the entry at index; later entries shift down.
func (e *Editor) DeleteListEntry(list ListName, index int) (models.DoctorProfile, error) {
	next := Clone(e.current)
	var err error
	switch list {
	case Qualifications:
		next.Qualifications, err = remove(list, next.Qualifications, index)
	case Experiences:
		next.Experiences, err = remove(list, next.Experiences, index)
	case TimeSlots:
		next.TimeSlots, err = remove(list, next.TimeSlots, index)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownList, list)
	}
	if err != nil {
		return e.Record(), err
	}
	return e.commit("delete_entry", next), nil
}

func (e *Editor) commit(op string, next models.DoctorProfile) models.DoctorProfile {
	e.current = next
	e.log.Debug("profile edited", zap.String("op", op))
	return e.Record()
}

func parsePrice(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	price, err := strconv.ParseFloat(value, 64)
	if err != nil || price < 0 {
		return 0, fmt.Errorf("%w: ticketPrice %q", ErrInvalidValue, value)
	}
	return price, nil
}
