package export

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turchettamarco/gestionale-fisio-sub002/internal/model"
)

func sampleAppointment() (*model.Appointment, *model.Patient) {
	patientID := uuid.New()
	patient := &model.Patient{ID: patientID, Name: "Giulia Bianchi", Phone: "345 123 4567"}

	start := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	appt := &model.Appointment{
		ID:            uuid.New(),
		PatientID:     &patientID,
		StartTime:     start,
		EndTime:       start.Add(time.Hour),
		Status:        model.AppointmentStatusConfirmed,
		Location:      model.LocationStudio,
		ClinicSite:    "Studio Centro",
		TreatmentType: model.TreatmentSeduta,
		PriceType:     model.PriceInvoiced,
	}
	return appt, patient
}

func TestCSV(t *testing.T) {
	appt, patient := sampleAppointment()
	patients := map[uuid.UUID]*model.Patient{patient.ID: patient}

	out := CSV([]*model.Appointment{appt}, patients, func(*model.Appointment) float64 { return 60 })

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Data,Inizio,Fine,Paziente,Stato,Trattamento,Prezzo,Luogo,Fattura", lines[0])
	assert.Equal(t, "04/03/2024,10:00,11:00,Giulia Bianchi,Confermato,Seduta,60.00,Studio Centro,Sì", lines[1])
}

func TestCSVDomicileAndUnknownPatient(t *testing.T) {
	appt, _ := sampleAppointment()
	appt.Location = model.LocationDomicile
	appt.DomicileAddress = "Via Roma 15"
	appt.PriceType = model.PriceCash

	out := CSV([]*model.Appointment{appt}, nil, func(*model.Appointment) float64 { return 0 })

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)

	fields := strings.Split(lines[1], ",")
	assert.Equal(t, "", fields[3], "unknown patient renders empty")
	assert.Equal(t, "DOMICILIO", fields[7])
	assert.Equal(t, "No", fields[8])
	assert.Equal(t, "0.00", fields[6])
}

func TestCSVEmpty(t *testing.T) {
	out := CSV(nil, nil, func(*model.Appointment) float64 { return 0 })
	assert.Equal(t, strings.Join(csvHeader, ",")+"\n", out)
}

func TestCalendarURL(t *testing.T) {
	appt, patient := sampleAppointment()
	appt.Notes = "portare referto"

	raw := CalendarURL(appt, patient.Name)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "calendar.google.com", parsed.Host)
	assert.Equal(t, "/calendar/render", parsed.Path)

	q := parsed.Query()
	assert.Equal(t, "TEMPLATE", q.Get("action"))
	assert.Equal(t, "Seduta - Giulia Bianchi", q.Get("text"))
	assert.Equal(t, "portare referto", q.Get("details"))
	assert.Equal(t, "Studio Centro", q.Get("location"))
	assert.Equal(t, "20240304T100000Z/20240304T110000Z", q.Get("dates"))
}

func TestCalendarURLDomicileLocation(t *testing.T) {
	appt, _ := sampleAppointment()
	appt.Location = model.LocationDomicile
	appt.DomicileAddress = "Via Roma 15, Milano"

	parsed, err := url.Parse(CalendarURL(appt, ""))
	require.NoError(t, err)

	q := parsed.Query()
	assert.Equal(t, "Via Roma 15, Milano", q.Get("location"))
	assert.Equal(t, "Seduta", q.Get("text"))
	// Without notes the status label fills the details.
	assert.Equal(t, "Confermato", q.Get("details"))
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"national with leading zero", "0345 123 4567", "+393451234567"},
		{"spaces and dashes", "345-123-4567", "+3451234567"},
		{"already international", "+39 345 123 4567", "+393451234567"},
		{"prefixed 39 untouched", "393451234567", "+393451234567"},
		{"empty", "", ""},
		{"letters only", "nessuno", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizePhone(tt.raw))
		})
	}
}

func TestWhatsAppLink(t *testing.T) {
	appt, patient := sampleAppointment()
	now := appt.StartTime.AddDate(0, 0, -1)

	raw := WhatsAppLink(patient.Phone, "", MessageDataFor(appt, patient.Name, now))

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "api.whatsapp.com", parsed.Host)

	q := parsed.Query()
	assert.Equal(t, "+3451234567", q.Get("phone"))
	assert.Equal(t, "Ciao Giulia Bianchi, ti ricordo l'appuntamento di domani alle 10:00 presso Studio Centro.", q.Get("text"))
}

func TestWhatsAppLinkCustomTemplate(t *testing.T) {
	appt, patient := sampleAppointment()
	now := appt.StartTime

	raw := WhatsAppLink(patient.Phone, "{nome}: {data_relativa} {ora} @ {luogo}", MessageDataFor(appt, patient.Name, now))

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "Giulia Bianchi: oggi 10:00 @ Studio Centro", parsed.Query().Get("text"))
}

func TestRelativeDay(t *testing.T) {
	now := time.Date(2024, 3, 4, 18, 0, 0, 0, time.UTC) // Monday evening

	assert.Equal(t, "oggi", RelativeDay(time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC), now))
	assert.Equal(t, "domani", RelativeDay(time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC), now))
	assert.Equal(t, "mercoledì 06/03", RelativeDay(time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC), now))
	assert.Equal(t, "sabato 09/03", RelativeDay(time.Date(2024, 3, 9, 9, 0, 0, 0, time.UTC), now))
}

func TestRelativeDayAcrossDSTTransition(t *testing.T) {
	rome, err := time.LoadLocation("Europe/Rome")
	require.NoError(t, err)

	// Clocks spring forward on 2024-03-31, so the day before it is 23 hours
	// long. The labels come from the calendar, not from elapsed hours.
	now := time.Date(2024, 3, 30, 18, 0, 0, 0, rome)
	assert.Equal(t, "domani", RelativeDay(time.Date(2024, 3, 31, 9, 0, 0, 0, rome), now))
	assert.Equal(t, "oggi", RelativeDay(time.Date(2024, 3, 30, 9, 0, 0, 0, rome), now))

	// Fall back: 2024-10-27 is 25 hours long.
	now = time.Date(2024, 10, 26, 18, 0, 0, 0, rome)
	assert.Equal(t, "domani", RelativeDay(time.Date(2024, 10, 27, 9, 0, 0, 0, rome), now))
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Svolto", StatusLabel(model.AppointmentStatusDone))
	assert.Equal(t, "Non pagato", StatusLabel(model.AppointmentStatusNotPaid))
	assert.Equal(t, "Macchinario", TreatmentLabel(model.TreatmentMacchinario))
}
