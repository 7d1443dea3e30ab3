package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"prebook/internal/database"
	"prebook/internal/models"
)

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleSlots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}

	slots, degraded, err := s.availability.SlotsForDate(r.Context(), date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date":     date,
		"slots":    slots,
		"degraded": degraded,
	})
}

func (s *HTTPServer) handleSlotsMonth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	year, errYear := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("year")))
	month, errMonth := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("month")))
	if errYear != nil || errMonth != nil {
		writeError(w, http.StatusBadRequest, "year and month are required")
		return
	}

	dates, degraded, err := s.availability.MonthAvailability(r.Context(), year, month)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year or month")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"year":     year,
		"month":    month,
		"dates":    dates,
		"degraded": degraded,
	})
}

type bookingRequest struct {
	Date          string `json:"date"`
	Time          string `json:"time"`
	ServiceType   string `json:"service_type"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	Notes         string `json:"notes"`
	// Status is honored only on the operator create endpoint.
	Status string `json:"status,omitempty"`
}

func (req *bookingRequest) validate() string {
	switch {
	case strings.TrimSpace(req.Date) == "":
		return "date is required"
	case strings.TrimSpace(req.Time) == "":
		return "time is required"
	case strings.TrimSpace(req.ServiceType) == "":
		return "service_type is required"
	case strings.TrimSpace(req.CustomerName) == "":
		return "customer_name is required"
	case strings.TrimSpace(req.CustomerPhone) == "":
		return "customer_phone is required"
	}
	if _, err := time.Parse(models.DateLayout, req.Date); err != nil {
		return "invalid date format; expected YYYY-MM-DD"
	}
	if _, err := time.Parse(models.TimeLayout, req.Time); err != nil {
		return "invalid time format; expected HH:MM"
	}
	return ""
}

func (req *bookingRequest) toModel() *models.Booking {
	return &models.Booking{
		Date:          strings.TrimSpace(req.Date),
		Time:          strings.TrimSpace(req.Time),
		ServiceType:   strings.TrimSpace(req.ServiceType),
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		Notes:         strings.TrimSpace(req.Notes),
	}
}

func (s *HTTPServer) handleCustomerBooking(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req bookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	booking := req.toModel()
	if err := s.bookings.RequestBooking(r.Context(), booking); err != nil {
		writeErrorForServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"booking": booking})
}

func (s *HTTPServer) handleAdminBookings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listAdminBookings(w, r)
	case http.MethodPost:
		s.createAdminBooking(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) listAdminBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from := strings.TrimSpace(q.Get("from"))
	to := strings.TrimSpace(q.Get("to"))
	date := strings.TrimSpace(q.Get("date"))

	var (
		bookings []*models.Booking
		err      error
	)
	switch {
	case from != "" && to != "":
		bookings, err = s.bookings.ListBookingsByDateRange(r.Context(), from, to)
	case date != "":
		var status models.BookingStatus
		if raw := strings.TrimSpace(q.Get("status")); raw != "" {
			status, err = models.ParseBookingStatus(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
		}
		bookings, err = s.bookings.ListBookingsByDate(r.Context(), date, status)
	default:
		writeError(w, http.StatusBadRequest, "date or from/to is required")
		return
	}
	if err != nil {
		writeErrorForServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *HTTPServer) createAdminBooking(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	booking := req.toModel()
	booking.Status = models.BookingStatus(strings.TrimSpace(req.Status))
	if err := s.bookings.CreateBookingByOperator(r.Context(), booking); err != nil {
		writeErrorForServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"booking": booking})
}

type statusRequest struct {
	Action  string `json:"action"`
	Version int64  `json:"version"`
	Reason  string `json:"reason"`
}

func (s *HTTPServer) handleAdminBookingStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// /api/v1/admin/bookings/{id}/status
	rest := strings.TrimPrefix(r.URL.Path, adminPathPrefix+"bookings/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "status" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	bookingID := parts[0]

	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Version <= 0 {
		writeError(w, http.StatusBadRequest, "version is required")
		return
	}

	var err error
	switch strings.TrimSpace(req.Action) {
	case "accept":
		err = s.bookings.AcceptBooking(r.Context(), bookingID, req.Version)
	case "confirm":
		err = s.bookings.ConfirmBooking(r.Context(), bookingID, req.Version)
	case "reject":
		err = s.bookings.RejectBooking(r.Context(), bookingID, req.Version, req.Reason)
	case "cancel":
		err = s.bookings.CancelBooking(r.Context(), bookingID, req.Version, req.Reason)
	default:
		writeError(w, http.StatusBadRequest, "unknown action; expected accept, confirm, reject or cancel")
		return
	}
	if err != nil {
		writeErrorForServiceError(w, err)
		return
	}

	booking, err := s.bookings.GetBooking(r.Context(), bookingID)
	if err != nil {
		writeErrorForServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"booking": booking})
}

type blockToggleRequest struct {
	Date   string `json:"date"`
	Time   string `json:"time"`
	Reason string `json:"reason"`
}

func (s *HTTPServer) handleAdminBlocks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listAdminBlocks(w, r)
	case http.MethodPost:
		s.toggleAdminBlock(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) listAdminBlocks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from := strings.TrimSpace(q.Get("from"))
	to := strings.TrimSpace(q.Get("to"))
	date := strings.TrimSpace(q.Get("date"))

	var (
		blocks []*models.Block
		err    error
	)
	switch {
	case from != "" && to != "":
		blocks, err = s.blocks.ListBlocksByDateRange(r.Context(), from, to)
	case date != "":
		blocks, err = s.blocks.ListBlocksByDate(r.Context(), date)
	default:
		writeError(w, http.StatusBadRequest, "date or from/to is required")
		return
	}
	if err != nil {
		writeErrorForServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"blocks": blocks})
}

func (s *HTTPServer) toggleAdminBlock(w http.ResponseWriter, r *http.Request) {
	var req blockToggleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Date) == "" || strings.TrimSpace(req.Time) == "" {
		writeError(w, http.StatusBadRequest, "date and time are required")
		return
	}
	if _, err := time.Parse(models.DateLayout, req.Date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	blocked, err := s.blocks.ToggleBlock(r.Context(), req.Date, req.Time, req.Reason)
	if err != nil {
		writeErrorForServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date":    req.Date,
		"time":    req.Time,
		"blocked": blocked,
	})
}

type blocksBulkRequest struct {
	From   string   `json:"from"`
	To     string   `json:"to"`
	Times  []string `json:"times"`
	Reason string   `json:"reason"`
}

func (s *HTTPServer) handleAdminBlocksBulk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req blocksBulkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.From) == "" || strings.TrimSpace(req.To) == "" {
		writeError(w, http.StatusBadRequest, "from and to are required")
		return
	}
	if len(req.Times) == 0 {
		writeError(w, http.StatusBadRequest, "times is required")
		return
	}

	created, err := s.blocks.CreateBlocksBulk(r.Context(), req.From, req.To, req.Times, req.Reason)
	if err != nil {
		writeErrorForServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"created": created})
}

func (s *HTTPServer) handleAdminBlockDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, adminPathPrefix+"blocks/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if err := s.blocks.DeleteBlock(r.Context(), id); err != nil {
		writeErrorForServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

func (s *HTTPServer) handleAdminExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "export is not configured")
		return
	}

	year, errYear := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("year")))
	month, errMonth := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("month")))
	if errYear != nil || errMonth != nil || month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "year and month are required")
		return
	}

	filePath, err := s.exporter.SaveMonth(r.Context(), year, month)
	if err != nil {
		s.logger.Error().Err(err).Int("year", year).Int("month", month).Msg("export failed")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	http.ServeFile(w, r, filePath)
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

// writeErrorForServiceError maps storage and transition errors to HTTP codes.
func writeErrorForServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, database.ErrSlotTaken),
		errors.Is(err, database.ErrConcurrentModification):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrInvalidTransition),
		errors.Is(err, database.ErrPastDate),
		errors.Is(err, database.ErrDateTooFar):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
