package editor

import (
	"fmt"
	"maps"
	"slices"

	"github.com/atinyakov/DocDesk/internal/models"
)

// ListName names one of the editable lists by its JSON key.
type ListName string

const (
	Qualifications ListName = "qualifications"
	Experiences    ListName = "experiences"
	TimeSlots      ListName = "timeSlots"
)

// Lists returns the editable list names in display order.
func Lists() []ListName {
	return []ListName{Qualifications, Experiences, TimeSlots}
}

// Template returns the default field values used by AddListEntry.
func Template(list ListName) (map[string]string, error) {
	switch list {
	case Qualifications:
		q := qualificationTemplate()
		return map[string]string{
			"startingDate": q.StartingDate,
			"endingDate":   q.EndingDate,
			"degree":       q.Degree,
			"university":   q.University,
		}, nil
	case Experiences:
		x := experienceTemplate()
		return map[string]string{
			"startingDate": x.StartingDate,
			"endingDate":   x.EndingDate,
			"position":     x.Position,
			"hospital":     x.Hospital,
		}, nil
	case TimeSlots:
		s := timeSlotTemplate()
		return map[string]string{
			"day":          s.Day,
			"startingTime": s.StartingTime,
			"endingTime":   s.EndingTime,
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownList, list)
}

func qualificationTemplate() models.Qualification {
	return models.Qualification{}
}

// Product defaults for a new experience row.
func experienceTemplate() models.Experience {
	return models.Experience{
		Position: "Senior surgeon",
		Hospital: "Dhaka Medical",
	}
}

func timeSlotTemplate() models.TimeSlot {
	return models.TimeSlot{}
}

func setQualification(q *models.Qualification, field, value string) error {
	switch field {
	case "startingDate":
		q.StartingDate = value
	case "endingDate":
		q.EndingDate = value
	case "degree":
		q.Degree = value
	case "university":
		q.University = value
	default:
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, Qualifications, field)
	}
	return nil
}

func setExperience(x *models.Experience, field, value string) error {
	switch field {
	case "startingDate":
		x.StartingDate = value
	case "endingDate":
		x.EndingDate = value
	case "position":
		x.Position = value
	case "hospital":
		x.Hospital = value
	default:
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, Experiences, field)
	}
	return nil
}

func setTimeSlot(s *models.TimeSlot, field, value string) error {
	switch field {
	case "day":
		s.Day = value
	case "startingTime":
		s.StartingTime = value
	case "endingTime":
		s.EndingTime = value
	default:
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, TimeSlots, field)
	}
	return nil
}

// add appends tmpl with overrides applied in key order.
func add[E any](list []E, tmpl E, set func(*E, string, string) error, overrides map[string]string) ([]E, error) {
	for _, field := range slices.Sorted(maps.Keys(overrides)) {
		if err := set(&tmpl, field, overrides[field]); err != nil {
			return nil, err
		}
	}
	return append(slices.Clone(list), tmpl), nil
}

func update[E any](name ListName, list []E, index int, set func(*E, string, string) error, field, value string) ([]E, error) {
	if err := checkIndex(name, list, index); err != nil {
		return nil, err
	}
	out := slices.Clone(list)
	if err := set(&out[index], field, value); err != nil {
		return nil, err
	}
	return out, nil
}

func remove[E any](name ListName, list []E, index int) ([]E, error) {
	if err := checkIndex(name, list, index); err != nil {
		return nil, err
	}
	return slices.Delete(slices.Clone(list), index, index+1), nil
}

func checkIndex[E any](name ListName, list []E, index int) error {
	if index < 0 || index >= len(list) {
		return fmt.Errorf("%w: %s[%d] with %d entries", ErrIndexOutOfRange, name, index, len(list))
	}
	return nil
}
