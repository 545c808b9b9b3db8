package export

import (
	"fmt"
	"net/url"

	"github.com/turchettamarco/gestionale-fisio-sub002/internal/model"
)

const calendarBaseURL = "https://calendar.google.com/calendar/render"

// CalendarURL maps an appointment to a Google Calendar quick-add event URL.
func CalendarURL(appt *model.Appointment, patientName string) string {
	summary := TreatmentLabel(appt.TreatmentType)
	if patientName != "" {
		summary = fmt.Sprintf("%s - %s", summary, patientName)
	}

	location := appt.ClinicSite
	if appt.Location == model.LocationDomicile {
		location = appt.DomicileAddress
	}

	details := appt.Notes
	if details == "" {
		details = StatusLabel(appt.Status)
	}

	params := url.Values{}
	params.Set("action", "TEMPLATE")
	params.Set("text", summary)
	params.Set("details", details)
	params.Set("location", location)
	params.Set("dates", fmt.Sprintf("%s/%s",
		appt.StartTime.UTC().Format("20060102T150405Z"),
		appt.EndTime.UTC().Format("20060102T150405Z"),
	))

	return calendarBaseURL + "?" + params.Encode()
}
