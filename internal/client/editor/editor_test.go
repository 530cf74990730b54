package editor

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/DocDesk/internal/client/api"
	"github.com/atinyakov/DocDesk/internal/models"
)

func baseline() models.DoctorProfile {
	return models.DoctorProfile{
		ID:          "d1",
		Name:        "Dr. Karim",
		Phone:       "0171",
		Email:       "karim@example.com",
		TicketPrice: 500,
		Qualifications: []models.Qualification{
			{StartingDate: "2010-01-01", EndingDate: "2015-01-01", Degree: "MBBS", University: "Dhaka Medical College"},
			{StartingDate: "2016-01-01", EndingDate: "2018-01-01", Degree: "FCPS", University: "BCPS"},
		},
		TimeSlots: []models.TimeSlot{{Day: "sunday", StartingTime: "09:00", EndingTime: "12:00"}},
	}
}

func TestNew_DefaultsListsAndCopies(t *testing.T) {
	b := baseline()
	e := New(b, nil)

	rec := e.Record()
	assert.NotNil(t, rec.Experiences)
	assert.Empty(t, rec.Experiences)
	assert.Equal(t, b.Qualifications, rec.Qualifications)

	b.Qualifications[0].Degree = "changed outside"
	assert.Equal(t, "MBBS", e.Record().Qualifications[0].Degree)
	assert.Equal(t, "MBBS", e.Baseline().Qualifications[0].Degree)
}

func TestSetScalarField(t *testing.T) {
	e := New(baseline(), nil)

	rec, err := e.SetScalarField("phone", "0199")
	require.NoError(t, err)
	assert.Equal(t, "0199", rec.Phone)

	rec, err = e.SetScalarField("ticketPrice", "750.5")
	require.NoError(t, err)
	assert.Equal(t, 750.5, rec.TicketPrice)

	rec, err = e.SetScalarField("ticketPrice", "")
	require.NoError(t, err)
	assert.Zero(t, rec.TicketPrice)

	_, err = e.SetScalarField("ticketPrice", "cheap")
	assert.ErrorIs(t, err, ErrInvalidValue)
	_, err = e.SetScalarField("ticketPrice", "-1")
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = e.SetScalarField("qualifications", "x")
	assert.ErrorIs(t, err, ErrUnknownField)
	_, err = e.SetScalarField("password", "x")
	assert.ErrorIs(t, err, ErrUnknownField)

	assert.Equal(t, "0171", e.Baseline().Phone, "baseline must never change")
}

func TestAddListEntry_Templates(t *testing.T) {
	e := New(baseline(), nil)

	rec, err := e.AddListEntry(Experiences, nil)
	require.NoError(t, err)
	require.Len(t, rec.Experiences, 1)
	assert.Equal(t, "Senior surgeon", rec.Experiences[0].Position)
	assert.Equal(t, "Dhaka Medical", rec.Experiences[0].Hospital)
	assert.Empty(t, rec.Experiences[0].StartingDate)

	rec, err = e.AddListEntry(Qualifications, nil)
	require.NoError(t, err)
	require.Len(t, rec.Qualifications, 3)
	assert.Equal(t, models.Qualification{}, rec.Qualifications[2])
	assert.Equal(t, "MBBS", rec.Qualifications[0].Degree, "existing order kept")

	rec, err = e.AddListEntry(TimeSlots, map[string]string{"day": "monday"})
	require.NoError(t, err)
	assert.Equal(t, models.TimeSlot{Day: "monday"}, rec.TimeSlots[1])

	rec, err = e.AddListEntry(Experiences, map[string]string{"hospital": "Square"})
	require.NoError(t, err)
	assert.Equal(t, models.Experience{Position: "Senior surgeon", Hospital: "Square"}, rec.Experiences[1])
}

func TestAddListEntry_Errors(t *testing.T) {
	e := New(baseline(), nil)
	before := e.Record()

	_, err := e.AddListEntry("awards", nil)
	assert.ErrorIs(t, err, ErrUnknownList)
	_, err = e.AddListEntry(TimeSlots, map[string]string{"room": "4"})
	assert.ErrorIs(t, err, ErrUnknownField)

	assert.Equal(t, before, e.Record())
}

func TestUpdateListEntry(t *testing.T) {
	e := New(baseline(), nil)
	before := e.Record()

	rec, err := e.UpdateListEntry(Qualifications, 1, "degree", "MD")
	require.NoError(t, err)
	assert.Equal(t, "MD", rec.Qualifications[1].Degree)

	// exactly one field of one entry changed
	want := before.Qualifications
	want[1].Degree = "MD"
	assert.Equal(t, want, rec.Qualifications)
	assert.Equal(t, "FCPS", e.Baseline().Qualifications[1].Degree)
}

func TestUpdateListEntry_Errors(t *testing.T) {
	e := New(baseline(), nil)
	before := e.Record()

	_, err := e.UpdateListEntry(Qualifications, 2, "degree", "MD")
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = e.UpdateListEntry(TimeSlots, -1, "day", "x")
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = e.UpdateListEntry(Experiences, 0, "position", "x")
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = e.UpdateListEntry(Qualifications, 0, "hospital", "x")
	assert.ErrorIs(t, err, ErrUnknownField)
	_, err = e.UpdateListEntry("awards", 0, "x", "y")
	assert.ErrorIs(t, err, ErrUnknownList)

	assert.Equal(t, before, e.Record(), "failed operations must not mutate")
}

func TestDeleteListEntry(t *testing.T) {
	e := New(baseline(), nil)

	rec, err := e.DeleteListEntry(Qualifications, 0)
	require.NoError(t, err)
	require.Len(t, rec.Qualifications, 1)
	assert.Equal(t, "FCPS", rec.Qualifications[0].Degree)
	assert.Len(t, e.Baseline().Qualifications, 2)

	_, err = e.DeleteListEntry(Qualifications, 1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = e.DeleteListEntry(Experiences, 0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = e.DeleteListEntry("awards", 0)
	assert.ErrorIs(t, err, ErrUnknownList)
}

// Random deletes shrink the list by one and keep the survivors in order.
func TestDeleteListEntry_PreservesOrder(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for round := 0; round < 50; round++ {
		e := New(models.DoctorProfile{}, nil)
		n := 1 + r.IntN(8)
		for i := 0; i < n; i++ {
			_, err := e.AddListEntry(TimeSlots, map[string]string{"day": strconv.Itoa(i)})
			require.NoError(t, err)
		}
		for len(e.Record().TimeSlots) > 0 {
			before := e.Record().TimeSlots
			idx := r.IntN(len(before))

			rec, err := e.DeleteListEntry(TimeSlots, idx)
			require.NoError(t, err)
			require.Len(t, rec.TimeSlots, len(before)-1)

			want := append(append([]models.TimeSlot{}, before[:idx]...), before[idx+1:]...)
			require.Equal(t, want, rec.TimeSlots)
		}
	}
}

func TestReturnedRecordsAreIndependent(t *testing.T) {
	e := New(baseline(), nil)
	rec, err := e.UpdateListEntry(Qualifications, 0, "degree", "MD")
	require.NoError(t, err)

	rec.Qualifications[0].Degree = "tampered"
	assert.Equal(t, "MD", e.Record().Qualifications[0].Degree)
}

func TestReset(t *testing.T) {
	e := New(baseline(), nil)
	_, _ = e.SetScalarField("name", "Other")
	_, _ = e.AddListEntry(Experiences, nil)

	rec := e.Reset()
	assert.Equal(t, "Dr. Karim", rec.Name)
	assert.Empty(t, rec.Experiences)
}

func TestValidate(t *testing.T) {
	e := New(baseline(), nil)
	require.NoError(t, e.Validate())

	_, _ = e.SetScalarField("gender", "robot")
	assert.ErrorIs(t, e.Validate(), ErrInvalidValue)

	_, _ = e.SetScalarField("gender", "female")
	_, _ = e.SetScalarField("bio", strings.Repeat("x", 101))
	assert.ErrorIs(t, e.Validate(), ErrInvalidValue)
}

func TestTemplate(t *testing.T) {
	tmpl, err := Template(Experiences)
	require.NoError(t, err)
	assert.Equal(t, "Senior surgeon", tmpl["position"])
	assert.Equal(t, "Dhaka Medical", tmpl["hospital"])

	for _, l := range Lists() {
		_, err := Template(l)
		assert.NoError(t, err)
	}
	_, err = Template("awards")
	assert.ErrorIs(t, err, ErrUnknownList)
}

type fakeUploader struct {
	res *api.UploadResult
	err error
	got string
}

func (f *fakeUploader) Upload(_ context.Context, name string, r io.Reader) (*api.UploadResult, error) {
	b, _ := io.ReadAll(r)
	f.got = name + ":" + string(b)
	return f.res, f.err
}

func TestAttachPhoto(t *testing.T) {
	e := New(baseline(), nil)

	up := &fakeUploader{res: &api.UploadResult{URL: "http://cdn/p.png"}}
	rec, err := e.AttachPhoto(context.Background(), up, "p.png", strings.NewReader("img"))
	require.NoError(t, err)
	assert.Equal(t, "http://cdn/p.png", rec.Photo)
	assert.Equal(t, "p.png:img", up.got)

	// no url: photo untouched
	rec, err = e.AttachPhoto(context.Background(), &fakeUploader{}, "q.png", strings.NewReader("img"))
	require.NoError(t, err)
	assert.Equal(t, "http://cdn/p.png", rec.Photo)

	rec, err = e.AttachPhoto(context.Background(), &fakeUploader{res: &api.UploadResult{}}, "q.png", strings.NewReader("img"))
	require.NoError(t, err)
	assert.Equal(t, "http://cdn/p.png", rec.Photo)

	rec, err = e.AttachPhoto(context.Background(), &fakeUploader{err: errors.New("offline")}, "q.png", strings.NewReader("img"))
	require.Error(t, err)
	assert.Equal(t, "http://cdn/p.png", rec.Photo)

	assert.Equal(t, "http://cdn/p.png", e.SetPhoto("").Photo)
}
