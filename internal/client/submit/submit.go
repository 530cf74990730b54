// Package submit computes which profile fields were edited and sends only
// those to the API.
package submit

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"reflect"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/DocDesk/internal/client/api"
	"github.com/atinyakov/DocDesk/internal/logger"
	"github.com/atinyakov/DocDesk/internal/models"
)

const (
	apiDoctor = "/api/doctors/"

	// FallbackMessage is reported for rejected updates that carry no message.
	FallbackMessage = "something went wrong"
	// SuccessMessage is reported when the server accepts without a message.
	SuccessMessage = "profile updated successfully"
)

// ErrUpdateRejected matches every *UpdateRejectedError.
var ErrUpdateRejected = errors.New("update rejected")

// UpdateRejectedError carries the user-facing reason an update failed.
type UpdateRejectedError struct {
	// Status is the HTTP status, or 0 when no response was received.
	Status  int
	Message string
	Err     error
}

func (e *UpdateRejectedError) Error() string {
	return e.Message
}

func (e *UpdateRejectedError) Is(target error) bool {
	return target == ErrUpdateRejected
}

func (e *UpdateRejectedError) Unwrap() error {
	return e.Err
}

// Diff returns edited's fields, keyed by JSON name, whose values differ from
// baseline. Lists compare as a whole: any difference puts the entire edited
// list in the result. The identifier is never part of the diff.
func Diff(baseline, edited models.DoctorProfile) map[string]any {
	changed := make(map[string]any)

	bv := reflect.ValueOf(baseline)
	ev := reflect.ValueOf(edited)
	t := ev.Type()
	for i := 0; i < t.NumField(); i++ {
		key := jsonName(t.Field(i))
		if key == "" || key == "_id" {
			continue
		}
		b, e := bv.Field(i), ev.Field(i)
		if equal(b, e) {
			continue
		}
		changed[key] = e.Interface()
	}
	return changed
}

func jsonName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "-" || !f.IsExported() {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return f.Name
	}
	return name
}

// equal treats nil and empty lists as the same list.
func equal(a, b reflect.Value) bool {
	if a.Kind() == reflect.Slice && a.Len() == 0 && b.Len() == 0 {
		return true
	}
	return reflect.DeepEqual(a.Interface(), b.Interface())
}

// Result describes an accepted update.
type Result struct {
	Message string
	// Changed is the body that was sent.
	Changed map[string]any
	// Profile is the server's copy after the update, when it returned one.
	Profile *models.DoctorProfile
}

// Submitter sends profile diffs with PUT /api/doctors/{id}.
type Submitter struct {
	client *api.Client
	log    *zap.Logger
}

// New returns a Submitter using client for authorized requests.
func New(client *api.Client, log *zap.Logger) *Submitter {
	return &Submitter{client: client, log: logger.OrNop(log)}
}

// Submit sends Diff(baseline, edited) for the profile id. The request is sent
// even when nothing changed. Every failure is an *UpdateRejectedError.
func (s *Submitter) Submit(ctx context.Context, id string, baseline, edited models.DoctorProfile) (*Result, error) {
	changed := Diff(baseline, edited)
	keys := sortedKeys(changed)

	req, err := s.client.NewRequest(ctx, http.MethodPut, apiDoctor+url.PathEscape(id), changed)
	if err != nil {
		return nil, &UpdateRejectedError{Message: api.Message(err, FallbackMessage), Err: err}
	}

	env, err := s.client.Do(req)
	if err != nil {
		rej := &UpdateRejectedError{Message: api.Message(err, FallbackMessage), Err: err}
		var se *api.StatusError
		if errors.As(err, &se) {
			rej.Status = se.Status
		}
		s.log.Warn("profile update rejected",
			zap.String("id", id),
			zap.Strings("fields", keys),
			zap.Int("status", rej.Status),
			zap.String("message", rej.Message),
		)
		return nil, rej
	}

	res := &Result{Message: env.Message, Changed: changed}
	if res.Message == "" {
		res.Message = SuccessMessage
	}
	if env.HasData() {
		var p models.DoctorProfile
		if err := env.DecodeData(&p); err != nil {
			s.log.Warn("ignoring undecodable profile in update response", zap.Error(err))
		} else {
			res.Profile = &p
		}
	}
	s.log.Info("profile updated", zap.String("id", id), zap.Strings("fields", keys))
	return res, nil
}

// String renders a diff for display.
func String(changed map[string]any) string {
	if len(changed) == 0 {
		return "no changes"
	}
	var b strings.Builder
	for _, k := range sortedKeys(changed) {
		fmt.Fprintf(&b, "%s: %v\n", k, changed[k])
	}
	return strings.TrimRight(b.String(), "\n")
}

func sortedKeys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}
