package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusBooked    AppointmentStatus = "booked"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusDone      AppointmentStatus = "done"
	AppointmentStatusNotPaid   AppointmentStatus = "not_paid"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"

	// legacy value still present in old exports
	appointmentStatusNoShow AppointmentStatus = "no_show"
)

// NormalizeStatus maps legacy aliases onto the current status set.
func NormalizeStatus(s AppointmentStatus) AppointmentStatus {
	if s == appointmentStatusNoShow {
		return AppointmentStatusNotPaid
	}
	return s
}

// IsValidStatus reports whether s is one of the five allowed statuses.
// Legacy aliases must be normalized first.
func IsValidStatus(s AppointmentStatus) bool {
	switch s {
	case AppointmentStatusBooked,
		AppointmentStatusConfirmed,
		AppointmentStatusDone,
		AppointmentStatusNotPaid,
		AppointmentStatusCancelled:
		return true
	}
	return false
}

type Location string

const (
	LocationStudio   Location = "studio"
	LocationDomicile Location = "domicile"
)

type TreatmentType string

const (
	TreatmentSeduta      TreatmentType = "seduta"
	TreatmentMacchinario TreatmentType = "macchinario"
)

type PriceType string

const (
	PriceInvoiced PriceType = "invoiced"
	PriceCash     PriceType = "cash"
)

type Appointment struct {
	ID              uuid.UUID         `db:"id" json:"id"`
	PatientID       *uuid.UUID        `db:"patient_id" json:"patient_id,omitempty"`
	StartTime       time.Time         `db:"start_time" json:"start_time"`
	EndTime         time.Time         `db:"end_time" json:"end_time"`
	Status          AppointmentStatus `db:"status" json:"status"`
	IsPaid          bool              `db:"is_paid" json:"is_paid"`
	Location        Location          `db:"location" json:"location"`
	ClinicSite      string            `db:"clinic_site" json:"clinic_site,omitempty"`
	DomicileAddress string            `db:"domicile_address" json:"domicile_address,omitempty"`
	TreatmentType   TreatmentType     `db:"treatment_type" json:"treatment_type"`
	PriceType       PriceType         `db:"price_type" json:"price_type"`
	Amount          *float64          `db:"amount" json:"amount,omitempty"`
	Notes           string            `db:"notes" json:"notes,omitempty"`
	ReminderSentAt  *time.Time        `db:"reminder_sent_at" json:"reminder_sent_at,omitempty"`
	WhatsappSentAt  *time.Time        `db:"whatsapp_sent_at" json:"whatsapp_sent_at,omitempty"`
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time         `db:"updated_at" json:"updated_at"`
}

func (a *Appointment) Duration() time.Duration {
	return a.EndTime.Sub(a.StartTime)
}

type CreateAppointmentRequest struct {
	PatientID       *uuid.UUID `json:"patient_id"`
	StartTime       time.Time  `json:"start_time" binding:"required"`
	EndTime         time.Time  `json:"end_time" binding:"required,gtfield=StartTime"`
	Status          string     `json:"status"`
	Location        string     `json:"location" binding:"required,oneof=studio domicile"`
	ClinicSite      string     `json:"clinic_site"`
	DomicileAddress string     `json:"domicile_address"`
	TreatmentType   string     `json:"treatment_type" binding:"required,oneof=seduta macchinario"`
	PriceType       string     `json:"price_type" binding:"required,oneof=invoiced cash"`
	Amount          *float64   `json:"amount" binding:"omitempty,gte=0"`
	Notes           string     `json:"notes" binding:"max=1000"`
}

type UpdateAppointmentRequest struct {
	StartTime       *time.Time `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	Status          *string    `json:"status"`
	Location        *string    `json:"location" binding:"omitempty,oneof=studio domicile"`
	ClinicSite      *string    `json:"clinic_site"`
	DomicileAddress *string    `json:"domicile_address"`
	TreatmentType   *string    `json:"treatment_type" binding:"omitempty,oneof=seduta macchinario"`
	PriceType       *string    `json:"price_type" binding:"omitempty,oneof=invoiced cash"`
	Amount          *float64   `json:"amount" binding:"omitempty,gte=0"`
	Notes           *string    `json:"notes" binding:"omitempty,max=1000"`
}

// RecurrenceRequest describes a recurring series seeded by a single
// appointment. Weekdays are ISO (1 = Monday ... 6 = Saturday); Sunday is not
// bookable.
type RecurrenceRequest struct {
	PatientID       *uuid.UUID `json:"patient_id"`
	StartTime       time.Time  `json:"start_time" binding:"required"`
	EndTime         time.Time  `json:"end_time" binding:"required,gtfield=StartTime"`
	Weekdays        []int      `json:"weekdays" binding:"required,min=1,dive,min=1,max=6"`
	Until           time.Time  `json:"until" binding:"required"`
	Location        string     `json:"location" binding:"required,oneof=studio domicile"`
	ClinicSite      string     `json:"clinic_site"`
	DomicileAddress string     `json:"domicile_address"`
	TreatmentType   string     `json:"treatment_type" binding:"required,oneof=seduta macchinario"`
	PriceType       string     `json:"price_type" binding:"required,oneof=invoiced cash"`
	Amount          *float64   `json:"amount" binding:"omitempty,gte=0"`
	Notes           string     `json:"notes" binding:"max=1000"`
}

type MoveAppointmentRequest struct {
	NewStart time.Time `json:"new_start" binding:"required"`
}
