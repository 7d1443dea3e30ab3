package models

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	// DefaultDurationHours применяется, когда код услуги не найден в каталоге
	DefaultDurationHours = 1

	// WorkerQueueSize размер локальной очереди воркера
	WorkerQueueSize = 128

	// DefaultSlotCacheTTL время жизни кэша доступности в секундах
	DefaultSlotCacheTTL = 5 * 60

	// DefaultMaxAdvanceDays максимальный горизонт бронирования
	DefaultMaxAdvanceDays = 180
)

// DefaultTimeGrid — 9 slot labels; the studio closes 12:00-13:00, so the
// grid jumps from 11:00 to 13:00.
var DefaultTimeGrid = []string{
	"10:00", "11:00",
	"13:00", "14:00", "15:00", "16:00",
	"17:00", "18:00", "19:00",
}

// DefaultServices is the studio's fixed menu. Codes are stable identifiers
// stored on bookings; names are what the operator sees.
var DefaultServices = []Service{
	{Code: "natural", Name: "자연눈썹", DurationHours: 2},
	{Code: "combo", Name: "콤보눈썹", DurationHours: 2},
	{Code: "shadow", Name: "섀도우눈썹", DurationHours: 2},
	{Code: "retouch", Name: "리터치", DurationHours: 1},
	{Code: "brownline", Name: "브라운아이라인", DurationHours: 1},
	{Code: "removal", Name: "잔흔제거", DurationHours: 1},
	{Code: "recommend", Name: "키뮤원장 추천시술", DurationHours: 2},
}
