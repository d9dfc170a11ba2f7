package api

import (
	"context"
	"net/http"

	reqdto "bike-reserve/internal/handler/dto/request"
	resdto "bike-reserve/internal/handler/dto/response"
	"bike-reserve/internal/handler/httperr"
	"bike-reserve/internal/pkg/errs"
	"bike-reserve/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

// DeadLetterDrainer is the operator-facing slice of the worker drainer.
type DeadLetterDrainer interface {
	Requeue(ctx context.Context, jobType string, limit int32) (int, error)
}

const defaultRequeueLimit = 50

type AdminHandler struct {
	drainer DeadLetterDrainer
}

func NewAdminHandler(drainer DeadLetterDrainer) *AdminHandler {
	return &AdminHandler{drainer: drainer}
}

// RequeueDeadLetters puts parked jobs of one type back in the queue after an
// operator has fixed whatever killed them.
func (h *AdminHandler) RequeueDeadLetters(c *gin.Context) {
	var req reqdto.RequeueDeadLettersRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request format")
		return
	}
	if !commands.KnownJobType(req.JobType) {
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, errs.Mark(commands.ErrUnknownJobType, errs.ErrDomainValidation), "Unknown job type")
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultRequeueLimit
	}

	requeued, err := h.drainer.Requeue(c.Request.Context(), req.JobType, limit)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, resdto.RequeueDeadLettersResponse{Requeued: requeued})
}
