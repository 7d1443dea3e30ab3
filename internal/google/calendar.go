package google

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"prebook/internal/config"
	"prebook/internal/models"
)

// Цвета событий: обычная процедура и ретушь различаются цветом в
// календаре оператора.
const (
	colorNormal  = "11"
	colorRetouch = "12"
)

// CalendarService зеркалирует подтвержденные брони в Google Calendar
// оператора.
type CalendarService struct {
	service    *calendar.Service
	calendarID string
	location   *time.Location
	durations  map[string]int
}

// NewCalendarService reads service-account credentials and builds the
// calendar client. durations maps service codes to hours.
func NewCalendarService(cfg config.CalendarConfig, durations map[string]int) (*CalendarService, error) {
	ctx := context.Background()

	// Читаем файл учетных данных сервисного аккаунта
	credentialsJSON, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %v", err)
	}

	// Создаем JWT конфигурацию
	jwtConfig, err := google.JWTConfigFromJSON(credentialsJSON, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %v", err)
	}

	srv, err := calendar.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar service: %v", err)
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("unable to load timezone %s: %v", cfg.Timezone, err)
	}

	return &CalendarService{
		service:    srv,
		calendarID: cfg.CalendarID,
		location:   location,
		durations:  durations,
	}, nil
}

// ScheduleEvent creates a calendar event for a confirmed booking. The
// event title is "<customer> <hour>시", retouch-length services get a
// distinct color.
func (s *CalendarService) ScheduleEvent(ctx context.Context, booking *models.Booking) error {
	event, err := s.buildEvent(booking)
	if err != nil {
		return err
	}

	_, err = s.service.Events.Insert(s.calendarID, event).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to insert calendar event: %w", err)
	}
	return nil
}

func (s *CalendarService) buildEvent(booking *models.Booking) (*calendar.Event, error) {
	start, err := time.ParseInLocation(
		models.DateLayout+" "+models.TimeLayout,
		booking.Date+" "+booking.Time,
		s.location,
	)
	if err != nil {
		return nil, fmt.Errorf("invalid booking date/time %s %s: %w", booking.Date, booking.Time, err)
	}

	hours := models.DefaultDurationHours
	if d, ok := s.durations[booking.ServiceType]; ok {
		hours = d
	}
	end := start.Add(time.Duration(hours) * time.Hour)

	colorID := colorNormal
	if hours == 1 {
		colorID = colorRetouch
	}

	hour, _, _ := strings.Cut(booking.Time, ":")
	hourNum, err := strconv.Atoi(hour)
	if err != nil {
		return nil, fmt.Errorf("invalid booking time %s: %w", booking.Time, err)
	}

	return &calendar.Event{
		Summary: fmt.Sprintf("%s %d시", booking.CustomerName, hourNum),
		ColorId: colorID,
		Start: &calendar.EventDateTime{
			DateTime: start.Format(time.RFC3339),
			TimeZone: s.location.String(),
		},
		End: &calendar.EventDateTime{
			DateTime: end.Format(time.RFC3339),
			TimeZone: s.location.String(),
		},
	}, nil
}
