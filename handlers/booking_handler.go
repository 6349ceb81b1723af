package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fieldbook/fieldbook-api/services"
)

type BookingHandler struct {
	bookingService services.BookingService
	logger         *slog.Logger
}

func NewBookingHandler(bs services.BookingService, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{
		bookingService: bs,
		logger:         logger,
	}
}

// AvailableSlotsHandler godoc
// @Summary Free time slots for a date
// @Tags bookings
// @Produce json
// @Param date query string true "Date, YYYY-MM-DD"
// @Success 200 {object} map[string]interface{} "{success, date, data}"
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /bookings/available-slots [get]
func (h *BookingHandler) AvailableSlotsHandler(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")

	slots, err := h.bookingService.AvailableSlots(r.Context(), date)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}
	successResponse(w, r, h.logger, http.StatusOK, jsonResponse{"date": date, "data": slots})
}

// CreateHandler godoc
// @Summary Book a time slot
// @Tags bookings
// @Accept json
// @Produce json
// @Param body body services.CreateBookingInput true "name, phoneNumber, date, timeSlot"
// @Success 201 {object} map[string]interface{} "{success, message, booking}"
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{} "slot already booked"
// @Failure 500 {object} map[string]interface{}
// @Router /bookings [post]
func (h *BookingHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var input services.CreateBookingInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, h.logger, err)
		return
	}

	booking, err := h.bookingService.CreateBooking(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}
	successResponse(w, r, h.logger, http.StatusCreated, jsonResponse{
		"message": "booking created",
		"booking": booking,
	})
}

func (h *BookingHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	booking, err := h.bookingService.GetBooking(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}
	successResponse(w, r, h.logger, http.StatusOK, jsonResponse{"booking": booking})
}

// CancelHandler godoc
// @Summary Cancel a booking
// @Tags bookings
// @Produce json
// @Param orderId path string true "Order ID"
// @Success 200 {object} map[string]interface{} "{success, booking}"
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{} "already cancelled"
// @Security BearerAuth
// @Router /bookings/{orderId}/cancel [patch]
func (h *BookingHandler) CancelHandler(w http.ResponseWriter, r *http.Request) {
	booking, err := h.bookingService.CancelBooking(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}
	successResponse(w, r, h.logger, http.StatusOK, jsonResponse{"booking": booking})
}
