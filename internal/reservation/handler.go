package reservation

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/leobar37/welllink-sub003/internal/api"
	"github.com/leobar37/welllink-sub003/internal/auth"
	"github.com/leobar37/welllink-sub003/internal/profile"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service        Service
	profileService profile.Service
}

func NewHandler(service Service, profileService profile.Service) *Handler {
	return &Handler{
		service:        service,
		profileService: profileService,
	}
}

// Submit godoc
// @Summary      Submit a reservation request for a public profile
// @Tags         reservations
// @Accept       json
// @Produce      json
// @Param        slug     path      string         true  "Profile slug"
// @Param        request  body      SubmitRequest  true  "Reservation payload"
// @Success      201      {object}  SubmitResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /p/{slug}/reservations [post]
func (h *Handler) Submit(c *gin.Context) {
	prof, err := h.profileService.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Profile not found"})
		return
	}

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	request, err := h.service.Submit(c.Request.Context(), prof.ID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrSlotNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Slot not found"})
		case errors.Is(err, ErrSlotMismatch):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Slot does not belong to the requested service"})
		case errors.Is(err, ErrCapacityExceeded):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Slot is fully booked"})
		case errors.Is(err, ErrSlotNotBookable):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Slot is not open for booking"})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to submit reservation"})
		}
		return
	}

	c.JSON(http.StatusCreated, SubmitResponse{
		Request:   request,
		Reference: request.Reference,
		ExpiresAt: request.ExpiresAt,
	})
}

// GetByReference godoc
// @Summary      Check a reservation request by reference code
// @Tags         reservations
// @Produce      json
// @Param        reference  path      string  true  "Reference code"
// @Success      200        {object}  ReservationRequest
// @Failure      404        {object}  api.ErrorResponse
// @Router       /reservations/ref/{reference} [get]
func (h *Handler) GetByReference(c *gin.Context) {
	request, err := h.service.GetByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Reservation not found"})
		return
	}

	c.JSON(http.StatusOK, request)
}

// List godoc
// @Summary      List reservation requests for the authenticated advisor
// @Tags         reservations
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "Filter by status"
// @Success      200     {array}   ReservationRequest
// @Failure      401     {object}  api.ErrorResponse
// @Failure      500     {object}  api.ErrorResponse
// @Router       /reservations [get]
func (h *Handler) List(c *gin.Context) {
	profileID, exists := auth.GetProfileID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Not authenticated"})
		return
	}

	requests, err := h.service.ListByProfile(c.Request.Context(), profileID, c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to list reservations"})
		return
	}

	c.JSON(http.StatusOK, requests)
}

// Get godoc
// @Summary      Get a reservation request
// @Tags         reservations
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Request ID"
// @Success      200  {object}  ReservationRequest
// @Failure      401  {object}  api.ErrorResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /reservations/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	profileID, exists := auth.GetProfileID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Not authenticated"})
		return
	}

	requestID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request ID"})
		return
	}

	request, err := h.service.Get(c.Request.Context(), profileID, requestID)
	if err != nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Reservation not found"})
		return
	}

	c.JSON(http.StatusOK, request)
}

// Approve godoc
// @Summary      Approve a pending reservation request
// @Tags         reservations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int             true   "Request ID"
// @Param        request  body      ResolveRequest  false  "Optional note"
// @Success      200      {object}  ReservationRequest
// @Failure      401      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /reservations/{id}/approve [post]
func (h *Handler) Approve(c *gin.Context) {
	h.resolve(c, func(profileID, requestID int) (*ReservationRequest, error) {
		var req ResolveRequest
		// the note body is optional
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		return h.service.Approve(c.Request.Context(), profileID, requestID, req)
	})
}

// Reject godoc
// @Summary      Reject a pending reservation request
// @Tags         reservations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int            true  "Request ID"
// @Param        request  body      RejectRequest  true  "Rejection reason"
// @Success      200      {object}  ReservationRequest
// @Failure      400      {object}  api.ErrorResponse
// @Failure      401      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Router       /reservations/{id}/reject [post]
func (h *Handler) Reject(c *gin.Context) {
	h.resolve(c, func(profileID, requestID int) (*ReservationRequest, error) {
		var req RejectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return nil, errHandled
		}
		return h.service.Reject(c.Request.Context(), profileID, requestID, req)
	})
}

var errHandled = errors.New("response already written")

func (h *Handler) resolve(c *gin.Context, fn func(profileID, requestID int) (*ReservationRequest, error)) {
	profileID, exists := auth.GetProfileID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Not authenticated"})
		return
	}

	requestID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request ID"})
		return
	}

	request, err := fn(profileID, requestID)
	if err != nil {
		switch {
		case errors.Is(err, errHandled):
		case errors.Is(err, ErrRequestNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Reservation not found"})
		case errors.Is(err, ErrAlreadyResolved):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Reservation already resolved"})
		default:
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, request)
}
