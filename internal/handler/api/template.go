package api

import (
	"context"
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

type TemplateHandler struct {
	commands commands.TemplateCommands
	queries  queries.TemplateQueries
}

func NewTemplateHandler(cmds commands.TemplateCommands, qrys queries.TemplateQueries) *TemplateHandler {
	return &TemplateHandler{
		commands: cmds,
		queries:  qrys,
	}
}

func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errMissingActor, "Internal server error")
		return
	}

	var req reqdto.CreateTemplateRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request format")
		return
	}

	tpl, err := h.commands.CreateTemplate(c.Request.Context(), req.ToParams(actor.UserID))
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrDomainValidation):
			httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Domain validation failed")
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error")
		}
		return
	}

	c.JSON(http.StatusCreated, resdto.FromTemplate(tpl))
}

func (h *TemplateHandler) GetUserTemplates(c *gin.Context) {
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

	response := make([]*resdto.TemplateResponse, len(views))
	for i, view := range views {
		response[i] = resdto.FromTemplateView(view)
	}

	c.JSON(http.StatusOK, response)
}

func (h *TemplateHandler) PauseTemplate(c *gin.Context) {
	h.applyTransition(c, h.commands.PauseTemplate)
}

func (h *TemplateHandler) ResumeTemplate(c *gin.Context) {
	h.applyTransition(c, h.commands.ResumeTemplate)
}

func (h *TemplateHandler) CancelTemplate(c *gin.Context) {
	h.applyTransition(c, h.commands.CancelTemplate)
}

func (h *TemplateHandler) applyTransition(
	c *gin.Context,
	apply func(ctx context.Context, actor commands.Actor, id uuid.UUID) error,
) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errMissingActor, "Internal server error")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid template ID format")
		return
	}

	if err := apply(c.Request.Context(), actor, id); err != nil {
		switch {
		case errors.Is(err, errs.ErrTemplateNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Fixed-slot template not found")
		case errors.Is(err, errs.ErrNotTemplateOwner):
			httperr.AbortWithError(c, http.StatusForbidden, err, "Fixed-slot template belongs to another user")
		case errors.Is(err, errs.ErrDomainValidation):
			httperr.AbortWithError(c, http.StatusConflict, err, "Status change is not allowed from the current state")
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error")
		}
		return
	}

	c.Status(http.StatusNoContent)
}
