// Package export builds the outward-facing artifacts derived from
// appointments: the CSV report, calendar quick-add URLs and WhatsApp deep
// links.
package export

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/turchettamarco/gestionale-fisio-sub002/internal/model"
)

var csvHeader = []string{
	"Data", "Inizio", "Fine", "Paziente", "Stato", "Trattamento", "Prezzo", "Luogo", "Fattura",
}

var statusLabels = map[model.AppointmentStatus]string{
	model.AppointmentStatusBooked:    "Prenotato",
	model.AppointmentStatusConfirmed: "Confermato",
	model.AppointmentStatusDone:      "Svolto",
	model.AppointmentStatusNotPaid:   "Non pagato",
	model.AppointmentStatusCancelled: "Annullato",
}

var treatmentLabels = map[model.TreatmentType]string{
	model.TreatmentSeduta:      "Seduta",
	model.TreatmentMacchinario: "Macchinario",
}

// CSV renders one comma-joined row per appointment, header first. The amount
// callback resolves the effective price so unset amounts still export the
// settings default.
func CSV(appointments []*model.Appointment, patients map[uuid.UUID]*model.Patient, amount func(*model.Appointment) float64) string {
	var b strings.Builder
	b.WriteString(strings.Join(csvHeader, ","))
	b.WriteByte('\n')

	for _, appt := range appointments {
		patientName := ""
		if appt.PatientID != nil {
			if p, ok := patients[*appt.PatientID]; ok {
				patientName = p.Name
			}
		}

		site := appt.ClinicSite
		if appt.Location == model.LocationDomicile {
			site = "DOMICILIO"
		}

		invoiced := "No"
		if appt.PriceType == model.PriceInvoiced {
			invoiced = "Sì"
		}

		row := []string{
			appt.StartTime.Format("02/01/2006"),
			appt.StartTime.Format("15:04"),
			appt.EndTime.Format("15:04"),
			patientName,
			statusLabels[appt.Status],
			treatmentLabels[appt.TreatmentType],
			fmt.Sprintf("%.2f", amount(appt)),
			site,
			invoiced,
		}
		b.WriteString(strings.Join(row, ","))
		b.WriteByte('\n')
	}

	return b.String()
}

// StatusLabel returns the display label of a status.
func StatusLabel(s model.AppointmentStatus) string {
	return statusLabels[s]
}

// TreatmentLabel returns the display label of a treatment type.
func TreatmentLabel(t model.TreatmentType) string {
	return treatmentLabels[t]
}
