package availability

import (
	"strconv"
	"strings"
	"time"

	"prebook/internal/models"
)

// Slot is one grid entry of a day with its availability verdict.
type Slot struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// DateAvailability is the month-view aggregate for a single day.
type DateAvailability struct {
	Date             string `json:"date"`
	HasAvailableSlot bool   `json:"has_available_slot"`
}

// Engine computes slot availability from a fixed time grid, manual blocks
// and bookings. It holds no state beyond configuration and performs no I/O:
// identical inputs always produce identical output.
type Engine struct {
	grid    []string
	catalog map[string]models.Service
}

func NewEngine(grid []string, services []models.Service) *Engine {
	if len(grid) == 0 {
		grid = models.DefaultTimeGrid
	}
	catalog := make(map[string]models.Service, len(services))
	for _, svc := range services {
		catalog[svc.Code] = svc
	}
	return &Engine{grid: grid, catalog: catalog}
}

// Grid returns the configured slot labels in day order.
func (e *Engine) Grid() []string {
	out := make([]string, len(e.grid))
	copy(out, e.grid)
	return out
}

// DurationHours resolves a service code to its grid span. Unknown codes
// fall back to one hour so a data-entry error never hides extra slots.
func (e *Engine) DurationHours(serviceType string) int {
	if svc, ok := e.catalog[serviceType]; ok && svc.DurationHours > 0 {
		return svc.DurationHours
	}
	return models.DefaultDurationHours
}

// ServiceName returns the display name for a catalog code, or the code
// itself when unknown.
func (e *Engine) ServiceName(serviceType string) string {
	if svc, ok := e.catalog[serviceType]; ok {
		return svc.Name
	}
	return serviceType
}

// SlotsForDate marks every grid slot of the given day. A slot is
// unavailable when a manual block matches it exactly, when an active
// booking starts on it, or when an earlier active booking's duration span
// covers it. The grid order is preserved and no slot is ever dropped.
func (e *Engine) SlotsForDate(date string, blocks []models.Block, bookings []models.Booking) []Slot {
	active := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.Date == date && b.Status.Active() {
			active = append(active, b)
		}
	}

	slots := make([]Slot, 0, len(e.grid))
	for _, label := range e.grid {
		slots = append(slots, Slot{
			Date:      date,
			Time:      label,
			Available: e.slotFree(date, label, blocks, active),
		})
	}
	return slots
}

func (e *Engine) slotFree(date, label string, blocks []models.Block, active []models.Booking) bool {
	for _, bl := range blocks {
		if bl.Date == date && bl.Time == label {
			return false
		}
	}

	for _, b := range active {
		if b.Time == label {
			return false
		}
	}

	hour, ok := hourOf(label)
	if !ok {
		// Unparseable grid label: nothing can span onto it.
		return true
	}

	for _, b := range active {
		startHour, ok := hourOf(b.Time)
		if !ok {
			continue
		}
		if startHour < hour && startHour+e.DurationHours(b.ServiceType) > hour {
			return false
		}
	}
	return true
}

// DatesForMonth runs SlotsForDate over every day of the month and flags
// days that still have at least one open slot. Blocks and bookings may
// cover the whole month; per-day filtering happens inside SlotsForDate.
func (e *Engine) DatesForMonth(year, month int, blocks []models.Block, bookings []models.Booking) []DateAvailability {
	days := daysInMonth(year, month)
	out := make([]DateAvailability, 0, days)
	for day := 1; day <= days; day++ {
		date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Format(models.DateLayout)
		slots := e.SlotsForDate(date, blocks, bookings)
		hasOpen := false
		for _, s := range slots {
			if s.Available {
				hasOpen = true
				break
			}
		}
		out = append(out, DateAvailability{Date: date, HasAvailableSlot: hasOpen})
	}
	return out
}

// AllOpen returns the full grid marked available. Used as the degraded
// fallback when the underlying data cannot be fetched.
func (e *Engine) AllOpen(date string) []Slot {
	slots := make([]Slot, 0, len(e.grid))
	for _, label := range e.grid {
		slots = append(slots, Slot{Date: date, Time: label, Available: true})
	}
	return slots
}

// Morning reports whether a grid label belongs to the morning group
// (hour < 12). Display grouping only, not an availability rule.
func Morning(label string) bool {
	hour, ok := hourOf(label)
	return ok && hour < 12
}

func hourOf(label string) (int, bool) {
	head, _, found := strings.Cut(label, ":")
	if !found {
		return 0, false
	}
	hour, err := strconv.Atoi(head)
	if err != nil {
		return 0, false
	}
	return hour, true
}

func daysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
