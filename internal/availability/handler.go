package availability

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/leobar37/welllink-sub003/internal/api"
	"github.com/leobar37/welllink-sub003/internal/auth"
	"github.com/leobar37/welllink-sub003/internal/profile"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service  Service
	profiles profile.Repository
}

func NewHandler(service Service, profiles profile.Repository) *Handler {
	return &Handler{
		service:  service,
		profiles: profiles,
	}
}

// CreateRule godoc
// @Summary      Create availability rule
// @Tags         availability
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      RuleRequest  true  "Rule payload"
// @Success      201      {object}  AvailabilityRule
// @Failure      400      {object}  api.ErrorResponse
// @Failure      401      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /availability/rules [post]
func (h *Handler) CreateRule(c *gin.Context) {
	profileID, exists := auth.GetProfileID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Not authenticated"})
		return
	}

	var req RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	rule, err := h.service.CreateRule(c.Request.Context(), profileID, req)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create rule"})
		return
	}

	c.JSON(http.StatusCreated, rule)
}

// ListRules godoc
// @Summary      List my availability rules
// @Tags         availability
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   AvailabilityRule
// @Failure      401  {object}  api.ErrorResponse
// @Failure      500  {object}  api.ErrorResponse
// @Router       /availability/rules [get]
func (h *Handler) ListRules(c *gin.Context) {
	profileID, exists := auth.GetProfileID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Not authenticated"})
		return
	}

	rules, err := h.service.ListRules(c.Request.Context(), profileID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch rules"})
		return
	}

	c.JSON(http.StatusOK, rules)
}

// GetRule godoc
// @Summary      Get an availability rule
// @Tags         availability
// @Security     BearerAuth
// @Produce      json
// @Param        ruleID  path      int  true  "Rule ID"
// @Success      200     {object}  AvailabilityRule
// @Failure      400     {object}  api.ErrorResponse
// @Failure      404     {object}  api.ErrorResponse
// @Router       /availability/rules/{ruleID} [get]
func (h *Handler) GetRule(c *gin.Context) {
	profileID, exists := auth.GetProfileID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Not authenticated"})
		return
	}

	ruleID, err := strconv.Atoi(c.Param("ruleID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid rule ID"})
		return
	}

	rule, err := h.service.GetRule(c.Request.Context(), profileID, ruleID)
	if err != nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Rule not found"})
		return
	}

	c.JSON(http.StatusOK, rule)
}

// UpdateRule godoc
// @Summary      Update an availability rule
// @Tags         availability
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        ruleID   path      int          true  "Rule ID"
// @Param        request  body      RuleRequest  true  "Rule payload"
// @Success      200      {object}  AvailabilityRule
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /availability/rules/{ruleID} [put]
func (h *Handler) UpdateRule(c *gin.Context) {
	profileID, exists := auth.GetProfileID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Not authenticated"})
		return
	}

	ruleID, err := strconv.Atoi(c.Param("ruleID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid rule ID"})
		return
	}

	var req RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	rule, err := h.service.UpdateRule(c.Request.Context(), profileID, ruleID, req)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Rule not found"})
		return
	}

	c.JSON(http.StatusOK, rule)
}

// DeactivateRule godoc
// @Summary      Deactivate an availability rule
// @Description  Deactivated rules are excluded from generation but kept for history.
// @Tags         availability
// @Security     BearerAuth
// @Produce      json
// @Param        ruleID  path      int  true  "Rule ID"
// @Success      200     {object}  api.MessageResponse
// @Failure      400     {object}  api.ErrorResponse
// @Failure      404     {object}  api.ErrorResponse
// @Router       /availability/rules/{ruleID} [delete]
func (h *Handler) DeactivateRule(c *gin.Context) {
	profileID, exists := auth.GetProfileID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Not authenticated"})
		return
	}

	ruleID, err := strconv.Atoi(c.Param("ruleID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid rule ID"})
		return
	}

	if err := h.service.DeactivateRule(c.Request.Context(), profileID, ruleID); err != nil {
		if err == ErrRuleNotFound {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Rule not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to deactivate rule"})
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Rule deactivated"})
}

// GenerateSlots godoc
// @Summary      Generate time slots
// @Description  Expands active rules into concrete slots. Without explicit dates the
// @Description  window is the 7-day week starting 7 days out. Re-running the same
// @Description  window skips existing slots instead of duplicating them.
// @Tags         availability
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      GenerateRequest  true  "Generation request"
// @Success      200      {object}  GenerationResult
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /availability/generate [post]
func (h *Handler) GenerateSlots(c *gin.Context) {
	profileID, exists := auth.GetProfileID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Not authenticated"})
		return
	}

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.service.GenerateFromRequest(c.Request.Context(), profileID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation), err == ErrInvalidRange, err == ErrRangeTooLarge:
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		case err == ErrServiceNotFound:
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Service not found"})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to generate slots"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// PreviewSlots godoc
// @Summary      Preview slot generation
// @Description  Read-only projection of what generation would produce for the range.
// @Tags         availability
// @Security     BearerAuth
// @Produce      json
// @Param        from  query     string  true  "Start date (YYYY-MM-DD)"
// @Param        to    query     string  true  "End date (YYYY-MM-DD)"
// @Success      200   {array}   PreviewEntry
// @Failure      400   {object}  api.ErrorResponse
// @Failure      500   {object}  api.ErrorResponse
// @Router       /availability/preview [get]
func (h *Handler) PreviewSlots(c *gin.Context) {
	profileID, exists := auth.GetProfileID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Not authenticated"})
		return
	}

	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}

	entries, err := h.service.Preview(c.Request.Context(), profileID, from, to)
	if err != nil {
		if err == ErrInvalidRange || err == ErrRangeTooLarge {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to compute preview"})
		return
	}

	c.JSON(http.StatusOK, entries)
}

// ListSlots godoc
// @Summary      List my time slots
// @Tags         availability
// @Security     BearerAuth
// @Produce      json
// @Param        from  query     string  true  "Start date (YYYY-MM-DD)"
// @Param        to    query     string  true  "End date (YYYY-MM-DD)"
// @Success      200   {array}   TimeSlotWithAvailability
// @Failure      400   {object}  api.ErrorResponse
// @Failure      500   {object}  api.ErrorResponse
// @Router       /availability/slots [get]
func (h *Handler) ListSlots(c *gin.Context) {
	profileID, exists := auth.GetProfileID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Not authenticated"})
		return
	}

	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}

	// include the whole final day
	slots, err := h.service.ListSlots(c.Request.Context(), profileID, from, to.AddDate(0, 0, 1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch slots"})
		return
	}

	c.JSON(http.StatusOK, slots)
}

// BlockSlot godoc
// @Summary      Block a time slot
// @Tags         availability
// @Security     BearerAuth
// @Produce      json
// @Param        slotID  path      int  true  "Slot ID"
// @Success      200     {object}  api.MessageResponse
// @Failure      400     {object}  api.ErrorResponse
// @Failure      409     {object}  api.ErrorResponse
// @Router       /availability/slots/{slotID}/block [post]
func (h *Handler) BlockSlot(c *gin.Context) {
	profileID, exists := auth.GetProfileID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Not authenticated"})
		return
	}

	slotID, err := strconv.Atoi(c.Param("slotID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid slot ID"})
		return
	}

	if err := h.service.BlockSlot(c.Request.Context(), profileID, slotID); err != nil {
		if err == ErrSlotNotBlockable {
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Slot cannot be blocked"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to block slot"})
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Slot blocked"})
}

// UnblockSlot godoc
// @Summary      Unblock a time slot
// @Tags         availability
// @Security     BearerAuth
// @Produce      json
// @Param        slotID  path      int  true  "Slot ID"
// @Success      200     {object}  api.MessageResponse
// @Failure      400     {object}  api.ErrorResponse
// @Failure      409     {object}  api.ErrorResponse
// @Router       /availability/slots/{slotID}/unblock [post]
func (h *Handler) UnblockSlot(c *gin.Context) {
	profileID, exists := auth.GetProfileID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Not authenticated"})
		return
	}

	slotID, err := strconv.Atoi(c.Param("slotID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid slot ID"})
		return
	}

	if err := h.service.UnblockSlot(c.Request.Context(), profileID, slotID); err != nil {
		if err == ErrSlotNotBlocked {
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Slot is not blocked"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to unblock slot"})
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Slot unblocked"})
}

// PublicListSlots godoc
// @Summary      List bookable slots for a public profile
// @Tags         availability
// @Produce      json
// @Param        slug  path      string  true   "Profile slug"
// @Param        from  query     string  false  "Start date (YYYY-MM-DD), defaults to today"
// @Param        to    query     string  false  "End date (YYYY-MM-DD), defaults to two weeks out"
// @Success      200   {array}   TimeSlotWithAvailability
// @Failure      400   {object}  api.ErrorResponse
// @Failure      404   {object}  api.ErrorResponse
// @Router       /p/{slug}/slots [get]
func (h *Handler) PublicListSlots(c *gin.Context) {
	prof, err := h.profiles.FindBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Profile not found"})
		return
	}

	from, to, ok := parseOptionalDateRange(c)
	if !ok {
		return
	}

	slots, err := h.service.ListSlots(c.Request.Context(), prof.ID, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch slots"})
		return
	}

	// visitors only see slots they could actually book
	bookable := make([]TimeSlotWithAvailability, 0, len(slots))
	for _, s := range slots {
		if s.Bookable {
			bookable = append(bookable, s)
		}
	}

	c.JSON(http.StatusOK, bookable)
}

// parseOptionalDateRange is the public variant: missing params fall back to
// the next two weeks.
func parseOptionalDateRange(c *gin.Context) (time.Time, time.Time, bool) {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 0, 14)

	if fromStr := c.Query("from"); fromStr != "" {
		parsed, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid from format, use YYYY-MM-DD"})
			return time.Time{}, time.Time{}, false
		}
		from = parsed
	}

	if toStr := c.Query("to"); toStr != "" {
		parsed, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid to format, use YYYY-MM-DD"})
			return time.Time{}, time.Time{}, false
		}
		to = parsed.AddDate(0, 0, 1)
	}

	return from, to, true
}

func parseDateRange(c *gin.Context) (time.Time, time.Time, bool) {
	fromStr := c.Query("from")
	toStr := c.Query("to")

	if fromStr == "" || toStr == "" {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "from and to query params are required"})
		return time.Time{}, time.Time{}, false
	}

	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid from format, use YYYY-MM-DD"})
		return time.Time{}, time.Time{}, false
	}

	to, err := time.Parse("2006-01-02", toStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid to format, use YYYY-MM-DD"})
		return time.Time{}, time.Time{}, false
	}

	return from, to, true
}
