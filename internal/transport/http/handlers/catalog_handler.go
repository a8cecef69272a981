package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/nictjader/siren-backend/internal/domain/enums"
	catalogsvc "github.com/nictjader/siren-backend/internal/services/catalog"
	"github.com/nictjader/siren-backend/internal/transport/http/dto"
	httperrors "github.com/nictjader/siren-backend/internal/transport/http/errors"
)

type CatalogHandler struct {
	service *catalogsvc.Service
}

func NewCatalogHandler(service *catalogsvc.Service) *CatalogHandler {
	return &CatalogHandler{service: service}
}

func (h *CatalogHandler) Page(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	query := r.URL.Query()

	var subgenre enums.Subgenre
	if raw := query.Get("subgenre"); raw != "" {
		parsed, err := enums.ParseSubgenre(raw)
		if err != nil {
			writeBadRequest(w, "VALIDATION_ERROR", "unknown subgenre")
			return
		}
		subgenre = parsed
	}

	offset, ok := intQuery(w, query.Get("offset"), "offset")
	if !ok {
		return
	}
	limit, ok := intQuery(w, query.Get("limit"), "limit")
	if !ok {
		return
	}

	page, err := h.service.GetPage(r.Context(), subgenre, query.Get("cursor"), offset, limit)
	if err != nil {
		switch {
		case errors.Is(err, catalogsvc.ErrInvalidCursor):
			writeBadRequest(w, "INVALID_CURSOR", "cursor is malformed or expired")
		case errors.Is(err, catalogsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid pagination parameters")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to build catalog page")
		}
		return
	}

	items := make([]dto.StoryResponse, 0, len(page.Items))
	for _, item := range page.Items {
		story := item.Story
		// Catalog rows are teasers only.
		story.Body = ""
		items = append(items, toStoryResponse(story, item.CoverURL))
	}

	httperrors.Write(w, http.StatusOK, dto.CatalogPageResponse{
		Items:      items,
		NextCursor: page.NextCursor,
		NextOffset: page.NextOffset,
	})
}

func intQuery(w http.ResponseWriter, raw, name string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid "+name+" parameter")
		return 0, false
	}
	return parsed, true
}
