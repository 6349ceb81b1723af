package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/fieldbook/fieldbook-api/middleware"
	"github.com/fieldbook/fieldbook-api/models"
	"github.com/fieldbook/fieldbook-api/services"
)

const maxBannerUploadBytes = 5 << 20 // 5MB

type TournamentHandler struct {
	tournamentService services.TournamentService
	logger            *slog.Logger
}

func NewTournamentHandler(ts services.TournamentService, logger *slog.Logger) *TournamentHandler {
	return &TournamentHandler{
		tournamentService: ts,
		logger:            logger,
	}
}

// CreateHandler godoc
// @Summary Create a tournament
// @Tags tournaments
// @Accept json
// @Produce json
// @Param body body services.CreateTournamentInput true "name, date (YYYY-MM-DD), optional banner URL"
// @Success 201 {object} map[string]interface{} "{success, tournament}"
// @Failure 400 {object} map[string]interface{} "validation error"
// @Failure 401 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Security BearerAuth
// @Router /tournaments [post]
func (h *TournamentHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var input services.CreateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, h.logger, err)
		return
	}

	tournament, err := h.tournamentService.CreateTournament(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}

	successResponse(w, r, h.logger, http.StatusCreated, jsonResponse{"tournament": tournament})
}

// ListHandler godoc
// @Summary List active tournaments
// @Tags tournaments
// @Produce json
// @Success 200 {object} map[string]interface{} "{success, tournaments}"
// @Failure 500 {object} map[string]interface{}
// @Router /tournaments [get]
func (h *TournamentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	tournaments, err := h.tournamentService.ListActiveTournaments(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}
	successResponse(w, r, h.logger, http.StatusOK, jsonResponse{"tournaments": tournaments})
}

// ListOngoingHandler godoc
// @Summary List ongoing tournaments
// @Tags tournaments
// @Produce json
// @Success 200 {object} map[string]interface{} "{success, tournaments}"
// @Failure 500 {object} map[string]interface{}
// @Router /tournaments/ongoing [get]
func (h *TournamentHandler) ListOngoingHandler(w http.ResponseWriter, r *http.Request) {
	tournaments, err := h.tournamentService.ListOngoing(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}
	successResponse(w, r, h.logger, http.StatusOK, jsonResponse{"tournaments": tournaments})
}

// GetByIDHandler обрабатывает GET /tournaments/{id}
func (h *TournamentHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, h.logger, err)
		return
	}

	tournament, err := h.tournamentService.GetTournament(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}
	successResponse(w, r, h.logger, http.StatusOK, jsonResponse{"tournament": tournament})
}

// RegisterHandler godoc
// @Summary Register the caller for a tournament
// @Tags tournaments
// @Produce json
// @Param id path int true "Tournament ID"
// @Success 200 {object} map[string]interface{} "{success, message, tournament}"
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{} "tournament or player not found"
// @Failure 409 {object} map[string]interface{} "already registered"
// @Failure 500 {object} map[string]interface{}
// @Security BearerAuth
// @Router /tournaments/{id}/register [post]
func (h *TournamentHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, h.logger, err)
		return
	}

	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		errorResponse(w, r, h.logger, http.StatusUnauthorized, "authentication required to register", nil)
		return
	}

	tournament, err := h.tournamentService.Register(r.Context(), id, principal)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}

	successResponse(w, r, h.logger, http.StatusOK, jsonResponse{
		"message":    "registered successfully",
		"tournament": tournament,
	})
}

type updateStatusRequest struct {
	Status models.TournamentStatus `json:"status"`
}

// UpdateStatusHandler godoc
// @Summary Change tournament status
// @Tags tournaments
// @Accept json
// @Produce json
// @Param id path int true "Tournament ID"
// @Param body body updateStatusRequest true "upcoming | ongoing | completed"
// @Success 200 {object} map[string]interface{} "{success, tournament}"
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Security BearerAuth
// @Router /tournaments/{id}/status [patch]
func (h *TournamentHandler) UpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, h.logger, err)
		return
	}

	var input updateStatusRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, h.logger, err)
		return
	}

	tournament, err := h.tournamentService.UpdateStatus(r.Context(), id, input.Status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}
	successResponse(w, r, h.logger, http.StatusOK, jsonResponse{"tournament": tournament})
}

// DeleteHandler godoc
// @Summary Soft-delete a tournament
// @Tags tournaments
// @Produce json
// @Param id path int true "Tournament ID"
// @Success 200 {object} map[string]interface{} "{success, message}"
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Security BearerAuth
// @Router /tournaments/{id} [delete]
func (h *TournamentHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, h.logger, err)
		return
	}

	if err := h.tournamentService.SoftDelete(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}
	successResponse(w, r, h.logger, http.StatusOK, jsonResponse{"message": "tournament deleted"})
}

// UploadBannerHandler принимает multipart-форму с файлом в поле "banner".
func (h *TournamentHandler) UploadBannerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, h.logger, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBannerUploadBytes+1024)
	if err := r.ParseMultipartForm(maxBannerUploadBytes); err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			errorResponse(w, r, h.logger, http.StatusRequestEntityTooLarge, "banner must not be larger than 5MB", nil)
			return
		}
		badRequestResponse(w, r, h.logger, errors.New("request must be multipart/form-data"))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("banner")
	if err != nil {
		badRequestResponse(w, r, h.logger, errors.New("missing 'banner' file field"))
		return
	}
	defer file.Close()

	tournament, err := h.tournamentService.UploadBanner(r.Context(), id, services.BannerUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}
	successResponse(w, r, h.logger, http.StatusOK, jsonResponse{"tournament": tournament})
}
