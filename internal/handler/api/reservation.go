package api

import (
	"errors"
	"net/http"

	reqdto "bike-reserve/internal/handler/dto/request"
	resdto "bike-reserve/internal/handler/dto/response"
	"bike-reserve/internal/handler/httperr"
	"bike-reserve/internal/handler/middleware"
	"bike-reserve/internal/pkg/errs"
	"bike-reserve/internal/usecase/commands"
	"bike-reserve/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// errMissingActor means the identity middleware did not run before the
// handler, which is a routing bug rather than a client error.
var errMissingActor = errs.New("actor missing from request context")

type ReservationHandler struct {
	commands commands.ReservationCommands
	queries  queries.ReservationQueries
}

func NewReservationHandler(cmds commands.ReservationCommands, qrys queries.ReservationQueries) *ReservationHandler {
	return &ReservationHandler{
		commands: cmds,
		queries:  qrys,
	}
}

func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errMissingActor, "Internal server error")
		return
	}

	var req reqdto.CreateReservationRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request format")
		return
	}

	res, err := h.commands.Reserve(c.Request.Context(), req.ToParams(actor.UserID))
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrTemplateNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Fixed-slot template not found")
		case errors.Is(err, errs.ErrNotTemplateOwner):
			httperr.AbortWithError(c, http.StatusForbidden, err, "Fixed-slot template belongs to another user")
		case errors.Is(err, errs.ErrTemplateNotActive):
			httperr.AbortWithError(c, http.StatusConflict, err, "Fixed-slot template is not active")
		case errors.Is(err, errs.ErrInsufficientFunds):
			httperr.AbortWithError(c, http.StatusPaymentRequired, err, "Insufficient wallet balance")
		case errors.Is(err, errs.ErrReservationConflict):
			httperr.AbortWithError(c, http.StatusConflict, err, "Slot is already reserved")
		case errors.Is(err, errs.ErrDomainValidation):
			httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Domain validation failed")
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error")
		}
		return
	}

	c.JSON(http.StatusCreated, resdto.FromReservation(res))
}

func (h *ReservationHandler) ConfirmReservation(c *gin.Context) {
	h.applyTransition(c, func(actor commands.Actor, id uuid.UUID) (commands.TransitionOutcome, error) {
		return h.commands.Confirm(c.Request.Context(), actor, id)
	})
}

func (h *ReservationHandler) CancelReservation(c *gin.Context) {
	var req reqdto.CancelReservationRequest
	if c.Request.ContentLength > 0 {
		if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
			httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request format")
			return
		}
	}

	h.applyTransition(c, func(actor commands.Actor, id uuid.UUID) (commands.TransitionOutcome, error) {
		return h.commands.Cancel(c.Request.Context(), actor, id, req.GetReason())
	})
}

// applyTransition shares the confirm/cancel plumbing: resolve actor, parse
// the ID, run the transition, map a lost race to 200 with applied=false.
func (h *ReservationHandler) applyTransition(
	c *gin.Context,
	apply func(actor commands.Actor, id uuid.UUID) (commands.TransitionOutcome, error),
) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errMissingActor, "Internal server error")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid reservation ID format")
		return
	}

	outcome, err := apply(actor, id)
	if err != nil {
		abortReservationError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromTransitionOutcome(outcome))
}

func (h *ReservationHandler) GetReservation(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errMissingActor, "Internal server error")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid reservation ID format")
		return
	}

	view, err := h.queries.GetByID(c.Request.Context(), actor.UserID, actor.IsStaff, id)
	if err != nil {
		abortReservationError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromReservationView(view))
}

func (h *ReservationHandler) GetUserReservations(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errMissingActor, "Internal server error")
		return
	}

	views, err := h.queries.ListByUser(c.Request.Context(), actor.UserID)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error")
		return
	}

	response := make([]*resdto.ReservationResponse, len(views))
	for i, view := range views {
		response[i] = resdto.FromReservationView(view)
	}

	c.JSON(http.StatusOK, response)
}

func abortReservationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrReservationNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Reservation not found")
	case errors.Is(err, errs.ErrNotReservationOwner):
		httperr.AbortWithError(c, http.StatusForbidden, err, "Reservation belongs to another user")
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error")
	}
}
