package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/plankhq/plank-api/internal/apperrors"
	"github.com/plankhq/plank-api/internal/services"
)

// respondServiceError maps service-level sentinel errors onto HTTP
// responses and falls back to the shared error responder.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrInviteEmailNeeded),
		errors.Is(err, services.ErrChatTextRequired),
		errors.Is(err, services.ErrInvalidSeats),
		errors.Is(err, services.ErrProjectArchived),
		errors.Is(err, services.ErrAssigneeNotInWorkspace),
		errors.Is(err, services.ErrLabelNotInWorkspace),
		errors.Is(err, services.ErrSectionWorkspaceChange):
		apperrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrWorkspaceNotEmpty),
		errors.Is(err, services.ErrLastOwner),
		errors.Is(err, services.ErrAlreadyMember),
		errors.Is(err, services.ErrAlreadyInvited):
		apperrors.RespondWithError(c, http.StatusConflict, apperrors.NewAPIError("CONFLICT", err.Error()))
	case errors.Is(err, services.ErrCustomerNotFound):
		apperrors.NotFound(c, err.Error())
	default:
		apperrors.Respond(c, err)
	}
}
