package appointment

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turchettamarco/gestionale-fisio-sub002/internal/model"
	"github.com/turchettamarco/gestionale-fisio-sub002/internal/scheduling/timegrid"
	"github.com/turchettamarco/gestionale-fisio-sub002/internal/service/settings"
	apperrors "github.com/turchettamarco/gestionale-fisio-sub002/pkg/errors"
	"github.com/turchettamarco/gestionale-fisio-sub002/pkg/metrics"
)

// Registered once; promauto panics on duplicate collectors.
var testMetrics = metrics.NewMetrics("appointment_service_test")

type fakeAppointmentRepo struct {
	byID            map[uuid.UUID]*model.Appointment
	failNext        error
	failUpdateTimes error
	creates         int
	batches         int
	updates         int
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{byID: make(map[uuid.UUID]*model.Appointment)}
}

func (f *fakeAppointmentRepo) fail() error {
	err := f.failNext
	f.failNext = nil
	return err
}

func (f *fakeAppointmentRepo) Create(_ context.Context, appt *model.Appointment) error {
	if err := f.fail(); err != nil {
		return err
	}
	f.creates++
	cp := *appt
	f.byID[appt.ID] = &cp
	return nil
}

func (f *fakeAppointmentRepo) CreateBatch(_ context.Context, appointments []*model.Appointment) error {
	if err := f.fail(); err != nil {
		return err
	}
	f.batches++
	for _, appt := range appointments {
		cp := *appt
		f.byID[appt.ID] = &cp
	}
	return nil
}

func (f *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	appt, ok := f.byID[id]
	if !ok {
		return nil, apperrors.NotFound("appointment", nil)
	}
	cp := *appt
	return &cp, nil
}

func (f *fakeAppointmentRepo) Update(_ context.Context, appt *model.Appointment) error {
	if err := f.fail(); err != nil {
		return err
	}
	if _, ok := f.byID[appt.ID]; !ok {
		return apperrors.NotFound("appointment", nil)
	}
	f.updates++
	cp := *appt
	f.byID[appt.ID] = &cp
	return nil
}

func (f *fakeAppointmentRepo) UpdateTimes(_ context.Context, id uuid.UUID, start, end time.Time) error {
	if f.failUpdateTimes != nil {
		return f.failUpdateTimes
	}
	if err := f.fail(); err != nil {
		return err
	}
	appt, ok := f.byID[id]
	if !ok {
		return apperrors.NotFound("appointment", nil)
	}
	appt.StartTime = start
	appt.EndTime = end
	return nil
}

func (f *fakeAppointmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	if err := f.fail(); err != nil {
		return err
	}
	if _, ok := f.byID[id]; !ok {
		return apperrors.NotFound("appointment", nil)
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeAppointmentRepo) ListRange(_ context.Context, from, to time.Time) ([]*model.Appointment, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	var out []*model.Appointment
	for _, appt := range f.byID {
		if !appt.StartTime.Before(from) && appt.StartTime.Before(to) {
			cp := *appt
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (f *fakeAppointmentRepo) MarkReminderSent(_ context.Context, id uuid.UUID, at time.Time) error {
	appt, ok := f.byID[id]
	if !ok {
		return apperrors.NotFound("appointment", nil)
	}
	appt.ReminderSentAt = &at
	return nil
}

func (f *fakeAppointmentRepo) MarkWhatsappSent(_ context.Context, id uuid.UUID, at time.Time) error {
	appt, ok := f.byID[id]
	if !ok {
		return apperrors.NotFound("appointment", nil)
	}
	appt.WhatsappSentAt = &at
	return nil
}

type fakeSettingsRepo struct {
	settings *model.Settings
}

func (f *fakeSettingsRepo) GetByOwner(_ context.Context, ownerID uuid.UUID) (*model.Settings, error) {
	if f.settings == nil {
		return nil, apperrors.NotFound("settings", nil)
	}
	return f.settings, nil
}

func newTestService(repo *fakeAppointmentRepo, values model.JSONMap) *Service {
	ownerID := uuid.New()
	settingsSvc := settings.NewService(&fakeSettingsRepo{
		settings: &model.Settings{OwnerID: ownerID, Values: values},
	})
	return NewService(repo, settingsSvc, timegrid.DefaultWindow(), ownerID, testMetrics)
}

func validCreateRequest() *model.CreateAppointmentRequest {
	return &model.CreateAppointmentRequest{
		StartTime:     time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC),
		EndTime:       time.Date(2024, 3, 4, 11, 0, 0, 0, time.UTC),
		Location:      "studio",
		ClinicSite:    "Studio Centro",
		TreatmentType: "seduta",
		PriceType:     "cash",
	}
}

func TestCreateDefaultsToBooked(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo, nil)

	apt, err := svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)

	assert.Equal(t, model.AppointmentStatusBooked, apt.Status)
	assert.False(t, apt.IsPaid)
	assert.Equal(t, 1, repo.creates)
}

func TestCreateDerivesPaidFromStatus(t *testing.T) {
	svc := newTestService(newFakeAppointmentRepo(), nil)

	tests := []struct {
		status string
		paid   bool
	}{
		{"booked", false},
		{"confirmed", false},
		{"done", true},
		{"not_paid", false},
		{"cancelled", false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			req := validCreateRequest()
			req.Status = tt.status

			apt, err := svc.Create(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, tt.paid, apt.IsPaid)
		})
	}
}

func TestCreateNormalizesNoShow(t *testing.T) {
	svc := newTestService(newFakeAppointmentRepo(), nil)

	req := validCreateRequest()
	req.Status = "no_show"

	apt, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusNotPaid, apt.Status)
	assert.False(t, apt.IsPaid)
}

func TestCreateRejectsUnknownStatus(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo, nil)

	req := validCreateRequest()
	req.Status = "maybe"

	_, err := svc.Create(context.Background(), req)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, 0, repo.creates)
}

func TestCreateValidatesLocation(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo, nil)

	req := validCreateRequest()
	req.ClinicSite = ""
	_, err := svc.Create(context.Background(), req)
	assert.True(t, apperrors.IsValidation(err))

	req = validCreateRequest()
	req.Location = "domicile"
	req.DomicileAddress = "km 2"
	_, err = svc.Create(context.Background(), req)
	assert.True(t, apperrors.IsValidation(err))

	req = validCreateRequest()
	req.Location = "domicile"
	req.DomicileAddress = "Via Roma 15, Milano"
	_, err = svc.Create(context.Background(), req)
	assert.NoError(t, err)

	assert.Equal(t, 1, repo.creates, "validation failures must not reach the repository")
}

func TestToggleDone(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo, nil)

	req := validCreateRequest()
	req.Status = "confirmed"
	apt, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	toggled, err := svc.ToggleDone(context.Background(), apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusDone, toggled.Status)
	assert.True(t, toggled.IsPaid)

	back, err := svc.ToggleDone(context.Background(), apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusConfirmed, back.Status)
	assert.False(t, back.IsPaid, "toggling back must clear the paid flag")
}

func TestToggleDoneFromOtherStatuses(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo, nil)

	req := validCreateRequest()
	req.Status = "booked"
	apt, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	toggled, err := svc.ToggleDone(context.Background(), apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusDone, toggled.Status)
}

func TestToggleDoneMissing(t *testing.T) {
	svc := newTestService(newFakeAppointmentRepo(), nil)

	_, err := svc.ToggleDone(context.Background(), uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUpdateStatusRederivesPaid(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo, nil)

	apt, err := svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)

	done := "done"
	updated, err := svc.Update(context.Background(), apt.ID, &model.UpdateAppointmentRequest{Status: &done})
	require.NoError(t, err)
	assert.True(t, updated.IsPaid)

	cancelled := "cancelled"
	updated, err = svc.Update(context.Background(), apt.ID, &model.UpdateAppointmentRequest{Status: &cancelled})
	require.NoError(t, err)
	assert.False(t, updated.IsPaid)
}

func TestUpdateRejectsInvertedTimes(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo, nil)

	apt, err := svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)

	badEnd := apt.StartTime.Add(-time.Hour)
	_, err = svc.Update(context.Background(), apt.ID, &model.UpdateAppointmentRequest{EndTime: &badEnd})
	assert.True(t, apperrors.IsValidation(err))
}

func TestMoveRoundsAndKeepsDuration(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo, nil)

	apt, err := svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)

	moved, err := svc.Move(context.Background(), apt.ID, time.Date(2024, 3, 4, 9, 47, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 4, 9, 45, 0, 0, time.UTC), moved.StartTime)
	assert.Equal(t, time.Hour, moved.Duration())
}

func TestDeleteMissingIsNoOp(t *testing.T) {
	svc := newTestService(newFakeAppointmentRepo(), nil)

	assert.NoError(t, svc.Delete(context.Background(), uuid.New()))
}

func TestDeleteRemoves(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo, nil)

	apt, err := svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), apt.ID))
	_, err = svc.Get(context.Background(), apt.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGenerateRecurrenceInsertsSeries(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo, nil)

	series, err := svc.GenerateRecurrence(context.Background(), &model.RecurrenceRequest{
		StartTime:     time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC),
		EndTime:       time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC),
		Weekdays:      []int{1, 3, 5},
		Until:         time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Location:      "studio",
		ClinicSite:    "Studio Centro",
		TreatmentType: "seduta",
		PriceType:     "cash",
	})
	require.NoError(t, err)

	assert.Len(t, series, 6)
	assert.Equal(t, 1, repo.batches, "the whole series goes in one batch")
	for _, occ := range series {
		assert.Equal(t, model.AppointmentStatusBooked, occ.Status)
		assert.Equal(t, time.Hour, occ.Duration())
		assert.NotEqual(t, uuid.Nil, occ.ID)
	}
}

func TestGenerateRecurrenceCapRejectedBeforePersist(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo, nil)

	start := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	_, err := svc.GenerateRecurrence(context.Background(), &model.RecurrenceRequest{
		StartTime:     start,
		EndTime:       start.Add(time.Hour),
		Weekdays:      []int{1, 2, 3, 4, 5, 6},
		Until:         start.AddDate(2, 0, 0),
		Location:      "studio",
		ClinicSite:    "Studio Centro",
		TreatmentType: "seduta",
		PriceType:     "cash",
	})
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, 0, repo.batches)
	assert.Empty(t, repo.byID)
}

func TestListUpcomingLimits(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo, nil)

	base := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		req := validCreateRequest()
		req.StartTime = base.Add(time.Duration(i) * 24 * time.Hour)
		req.EndTime = req.StartTime.Add(time.Hour)
		_, err := svc.Create(context.Background(), req)
		require.NoError(t, err)
	}

	upcoming, err := svc.ListUpcoming(context.Background(), base.Add(-time.Hour), 3)
	require.NoError(t, err)
	assert.Len(t, upcoming, 3)
	assert.True(t, upcoming[0].StartTime.Before(upcoming[1].StartTime))
}

func TestEffectiveAmountFallsBackToSettings(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo, model.JSONMap{"price_seduta_cash": 55.0})

	apt, err := svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)

	amount, err := svc.EffectiveAmount(context.Background(), apt)
	require.NoError(t, err)
	assert.Equal(t, 55.0, amount)
}

func TestMovePersistFailureLeavesStoredTimes(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo, nil)

	apt, err := svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)

	repo.failUpdateTimes = errors.New("connection reset")
	_, err = svc.Move(context.Background(), apt.ID, apt.StartTime.Add(2*time.Hour))
	assert.Error(t, err)

	// The stored record still carries the original times; the caller reloads.
	stored, err := svc.Get(context.Background(), apt.ID)
	require.NoError(t, err)
	assert.Equal(t, apt.StartTime, stored.StartTime)
	assert.Equal(t, apt.EndTime, stored.EndTime)
}

func TestWeekAgendaPlacesAppointmentsOnGrid(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := newTestService(repo, nil)

	monday := validCreateRequest() // Monday 2024-03-04 10:00-11:00
	_, err := svc.Create(context.Background(), monday)
	require.NoError(t, err)

	wednesday := validCreateRequest()
	wednesday.StartTime = time.Date(2024, 3, 6, 14, 30, 0, 0, time.UTC)
	wednesday.EndTime = time.Date(2024, 3, 6, 15, 15, 0, 0, time.UTC)
	_, err = svc.Create(context.Background(), wednesday)
	require.NoError(t, err)

	nextWeek := validCreateRequest()
	nextWeek.StartTime = time.Date(2024, 3, 11, 10, 0, 0, 0, time.UTC)
	nextWeek.EndTime = time.Date(2024, 3, 11, 11, 0, 0, 0, time.UTC)
	_, err = svc.Create(context.Background(), nextWeek)
	require.NoError(t, err)

	agenda, err := svc.WeekAgenda(context.Background(), time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, agenda, timegrid.VisibleWeekDays)

	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), agenda[0].Date)
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), agenda[5].Date)

	require.Len(t, agenda[0].Entries, 1)
	// Window opens at 08:00, so a 10:00 start sits 120 minutes down.
	assert.Equal(t, timegrid.Position{Top: 120, Height: 60}, agenda[0].Entries[0].Position)

	require.Len(t, agenda[2].Entries, 1)
	assert.Equal(t, timegrid.Position{Top: 390, Height: 45}, agenda[2].Entries[0].Position)

	assert.Empty(t, agenda[1].Entries)
	assert.Empty(t, agenda[5].Entries)
}
