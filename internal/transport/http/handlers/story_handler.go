package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/nictjader/siren-backend/internal/services/auth"
	storysvc "github.com/nictjader/siren-backend/internal/services/stories"
	"github.com/nictjader/siren-backend/internal/transport/http/dto"
	httperrors "github.com/nictjader/siren-backend/internal/transport/http/errors"
)

type StoryHandler struct {
	service *storysvc.Service
}

func NewStoryHandler(service *storysvc.Service) *StoryHandler {
	return &StoryHandler{service: service}
}

// Detail serves anonymous and signed-in readers alike; the viewer identity
// only widens what the service returns.
func (h *StoryHandler) Detail(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "STORY_SERVICE_UNAVAILABLE", "story service is unavailable")
		return
	}

	viewerID := ""
	if identity, ok := authsvc.IdentityFromContext(r.Context()); ok {
		viewerID = identity.UserID
	}

	detail, err := h.service.Detail(r.Context(), viewerID, chi.URLParam(r, "storyID"))
	if err != nil {
		handleStoryError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.StoryDetailResponse{
		Story:    toStoryResponse(detail.Story, ""),
		Unlocked: detail.Unlocked,
	})
}

func (h *StoryHandler) Series(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "STORY_SERVICE_UNAVAILABLE", "story service is unavailable")
		return
	}

	seriesID := chi.URLParam(r, "seriesID")
	parts, err := h.service.SeriesParts(r.Context(), seriesID)
	if err != nil {
		handleStoryError(w, err)
		return
	}

	out := make([]dto.StoryResponse, 0, len(parts))
	for _, part := range parts {
		out = append(out, toStoryResponse(part, ""))
	}

	httperrors.Write(w, http.StatusOK, dto.SeriesResponse{
		SeriesID: seriesID,
		Parts:    out,
	})
}

func (h *StoryHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "STORY_SERVICE_UNAVAILABLE", "story service is unavailable")
		return
	}

	result, err := h.service.Unlock(r.Context(), identity.UserID, chi.URLParam(r, "storyID"))
	if err != nil {
		switch {
		case errors.Is(err, storysvc.ErrInsufficientCoins):
			httperrors.Write(w, http.StatusPaymentRequired, httperrors.APIError{
				Code:    "INSUFFICIENT_COINS",
				Message: "coin balance is too low",
			})
		case errors.Is(err, storysvc.ErrAlreadyUnlocked):
			httperrors.Write(w, http.StatusConflict, httperrors.APIError{
				Code:    "ALREADY_UNLOCKED",
				Message: "story is already unlocked",
			})
		case errors.Is(err, storysvc.ErrNotPremium):
			writeBadRequest(w, "NOT_PREMIUM", "story does not require unlocking")
		default:
			handleStoryError(w, err)
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.UnlockResponse{
		OK:         true,
		NewBalance: result.NewBalance,
	})
}

func (h *StoryHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "STORY_SERVICE_UNAVAILABLE", "story service is unavailable")
		return
	}

	if err := h.service.MarkRead(r.Context(), identity.UserID, chi.URLParam(r, "storyID")); err != nil {
		handleStoryError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.MarkReadResponse{OK: true})
}

func (h *StoryHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "STORY_SERVICE_UNAVAILABLE", "story service is unavailable")
		return
	}

	favorited, err := h.service.ToggleFavorite(r.Context(), identity.UserID, chi.URLParam(r, "storyID"))
	if err != nil {
		handleStoryError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.FavoriteResponse{Favorited: favorited})
}

func handleStoryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storysvc.ErrStoryNotFound):
		writeNotFound(w, "STORY_NOT_FOUND", "story not found")
	case errors.Is(err, storysvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid story request")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}

func requireIdentity(w http.ResponseWriter, r *http.Request) (authsvc.Identity, bool) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return authsvc.Identity{}, false
	}
	return identity, true
}
