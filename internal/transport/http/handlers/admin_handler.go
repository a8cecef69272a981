package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nictjader/siren-backend/internal/domain/enums"
	"github.com/nictjader/siren-backend/internal/domain/model"
	"github.com/nictjader/siren-backend/internal/pkg/validate"
	storysvc "github.com/nictjader/siren-backend/internal/services/stories"
	"github.com/nictjader/siren-backend/internal/transport/http/dto"
	httperrors "github.com/nictjader/siren-backend/internal/transport/http/errors"
)

type AdminHandler struct {
	stories *storysvc.Service
}

func NewAdminHandler(stories *storysvc.Service) *AdminHandler {
	return &AdminHandler{stories: stories}
}

func (h *AdminHandler) PublishStory(w http.ResponseWriter, r *http.Request) {
	if h.stories == nil {
		writeInternal(w, "STORY_SERVICE_UNAVAILABLE", "story service is unavailable")
		return
	}

	var req dto.PublishStoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}
	if !validate.Required(req.Title) || !validate.Required(req.Body) {
		writeBadRequest(w, "VALIDATION_ERROR", "title and body are required")
		return
	}

	story := model.Story{
		ID:          req.ID,
		Title:       req.Title,
		Body:        req.Body,
		Preview:     req.Preview,
		Subgenre:    enums.Subgenre(req.Subgenre),
		CoinCost:    req.CoinCost,
		CoverKey:    req.CoverKey,
		PublishedAt: req.PublishedAt,
		SeriesTitle: req.SeriesTitle,
	}
	if req.SeriesID != "" {
		story.SeriesID = &req.SeriesID
	}
	if req.PartNumber != 0 {
		story.PartNumber = &req.PartNumber
	}
	if req.TotalParts != 0 {
		story.TotalParts = &req.TotalParts
	}

	published, err := h.stories.Publish(r.Context(), story)
	if err != nil {
		if errors.Is(err, storysvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid story payload")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to publish story")
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.PublishStoryResponse{
		Story: toStoryResponse(published, ""),
	})
}

func (h *AdminHandler) SetStoryPrice(w http.ResponseWriter, r *http.Request) {
	if h.stories == nil {
		writeInternal(w, "STORY_SERVICE_UNAVAILABLE", "story service is unavailable")
		return
	}

	var req dto.SetPriceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	err := h.stories.SetCoinCost(r.Context(), chi.URLParam(r, "storyID"), req.CoinCost)
	if err != nil {
		switch {
		case errors.Is(err, storysvc.ErrStoryNotFound):
			writeNotFound(w, "STORY_NOT_FOUND", "story not found")
		case errors.Is(err, storysvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid price payload")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to update story price")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}
