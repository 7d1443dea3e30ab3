package kakao

import "strings"

// Шаблоны сообщений клиенту. Плейсхолдеры вида {name} подставляются
// через Render.
const (
	// TemplateDepositGuide отправляется после одобрения заявки.
	TemplateDepositGuide = `안녕하세요, 예약 신청이 접수되었습니다.

예약 확정을 위해 예약금 입금을 부탁드립니다.
입금 확인 후 예약이 확정됩니다.

감사합니다.`

	// TemplateConfirmation отправляется после подтверждения брони.
	TemplateConfirmation = `{customerName}님, 예약이 확정되었습니다.

예약 일시: {appointmentDate} {appointmentTime}

예약 시간에 늦지 않게 방문 부탁드립니다.
감사합니다.`
)

// Render substitutes {key} placeholders with the given variables.
// Unknown placeholders are left as-is.
func Render(template string, vars map[string]string) string {
	out := template
	for key, val := range vars {
		out = strings.ReplaceAll(out, "{"+key+"}", val)
	}
	return out
}

// ConfirmationMessage builds the booking-confirmed text.
func ConfirmationMessage(customerName, date, timeLabel string) string {
	return Render(TemplateConfirmation, map[string]string{
		"customerName":    customerName,
		"appointmentDate": date,
		"appointmentTime": timeLabel,
	})
}

// DepositGuideMessage builds the deposit instructions text.
func DepositGuideMessage() string {
	return TemplateDepositGuide
}
