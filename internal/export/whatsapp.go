package export

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/turchettamarco/gestionale-fisio-sub002/internal/model"
)

const (
	whatsappBaseURL = "https://api.whatsapp.com/send"

	// CountryCode replaces a leading zero on national numbers.
	CountryCode = "39"

	// DefaultMessageTemplate is used when no template is configured.
	DefaultMessageTemplate = "Ciao {nome}, ti ricordo l'appuntamento di {data_relativa} alle {ora} presso {luogo}."
)

var weekdayNames = [...]string{
	"domenica", "lunedì", "martedì", "mercoledì", "giovedì", "venerdì", "sabato",
}

// MessageData fills the template placeholders.
type MessageData struct {
	Nome         string
	DataRelativa string
	Ora          string
	Luogo        string
}

// NormalizePhone strips a number down to digits, swaps a leading zero for the
// country code and enforces the + prefix.
func NormalizePhone(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}

	number := digits.String()
	if number == "" {
		return ""
	}
	if strings.HasPrefix(number, "0") {
		number = CountryCode + number[1:]
	}
	return "+" + number
}

// WhatsAppLink builds the deep link for a templated reminder message.
func WhatsAppLink(phone, template string, data MessageData) string {
	if template == "" {
		template = DefaultMessageTemplate
	}

	text := strings.NewReplacer(
		"{nome}", data.Nome,
		"{data_relativa}", data.DataRelativa,
		"{ora}", data.Ora,
		"{luogo}", data.Luogo,
	).Replace(template)

	params := url.Values{}
	params.Set("phone", NormalizePhone(phone))
	params.Set("text", text)

	return whatsappBaseURL + "?" + params.Encode()
}

// MessageDataFor derives the placeholder values from an appointment.
func MessageDataFor(appt *model.Appointment, patientName string, now time.Time) MessageData {
	place := appt.ClinicSite
	if appt.Location == model.LocationDomicile {
		place = appt.DomicileAddress
	}
	return MessageData{
		Nome:         patientName,
		DataRelativa: RelativeDay(appt.StartTime, now),
		Ora:          appt.StartTime.Format("15:04"),
		Luogo:        place,
	}
}

// RelativeDay renders a day as "oggi", "domani" or the weekday with its date.
// Days are compared on the calendar, not by duration, so DST transitions
// cannot shift the label.
func RelativeDay(day, now time.Time) string {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	y, m, d := day.Date()

	switch {
	case sameDate(today, y, m, d):
		return "oggi"
	case sameDate(today.AddDate(0, 0, 1), y, m, d):
		return "domani"
	default:
		return fmt.Sprintf("%s %s", weekdayNames[int(day.Weekday())], day.Format("02/01"))
	}
}

func sameDate(t time.Time, y int, m time.Month, d int) bool {
	ty, tm, td := t.Date()
	return ty == y && tm == m && td == d
}
