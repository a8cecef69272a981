package handlers

import (
	"errors"
	"net/http"

	profilesvc "github.com/nictjader/siren-backend/internal/services/profiles"
	"github.com/nictjader/siren-backend/internal/transport/http/dto"
	httperrors "github.com/nictjader/siren-backend/internal/transport/http/errors"
)

type MeHandler struct {
	service *profilesvc.Service
}

func NewMeHandler(service *profilesvc.Service) *MeHandler {
	return &MeHandler{service: service}
}

func (h *MeHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "PROFILE_SERVICE_UNAVAILABLE", "profile service is unavailable")
		return
	}

	overview, err := h.service.Overview(r.Context(), identity.UserID)
	if err != nil {
		handleProfileError(w, err)
		return
	}

	prefs := make([]string, 0, len(overview.Profile.SubgenrePrefs))
	for _, p := range overview.Profile.SubgenrePrefs {
		prefs = append(prefs, string(p))
	}
	unlocks := make([]dto.UnlockRecordResponse, 0, len(overview.Unlocks))
	for _, u := range overview.Unlocks {
		unlocks = append(unlocks, dto.UnlockRecordResponse{
			StoryID:    u.StoryID,
			UnlockedAt: u.UnlockedAt,
		})
	}

	httperrors.Write(w, http.StatusOK, dto.MeResponse{
		ID:            overview.Profile.ID,
		Email:         overview.Profile.Email,
		DisplayName:   overview.Profile.DisplayName,
		PictureURL:    overview.Profile.PictureURL,
		Coins:         overview.Profile.Coins,
		SubgenrePrefs: prefs,
		CreatedAt:     overview.Profile.CreatedAt,
		Unlocks:       unlocks,
		ReadIDs:       overview.ReadIDs,
		FavoriteIDs:   overview.FavoriteIDs,
	})
}

func (h *MeHandler) Library(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "PROFILE_SERVICE_UNAVAILABLE", "profile service is unavailable")
		return
	}

	stories, err := h.service.Library(r.Context(), identity.UserID)
	if err != nil {
		handleProfileError(w, err)
		return
	}

	out := make([]dto.StoryResponse, 0, len(stories))
	for _, story := range stories {
		out = append(out, toStoryResponse(story, ""))
	}

	httperrors.Write(w, http.StatusOK, dto.LibraryResponse{Stories: out})
}

func (h *MeHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.service == nil {
		writeInternal(w, "PROFILE_SERVICE_UNAVAILABLE", "profile service is unavailable")
		return
	}

	var req dto.PreferencesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	prefs, err := h.service.UpdatePreferences(r.Context(), identity.UserID, req.Subgenres)
	if err != nil {
		handleProfileError(w, err)
		return
	}

	out := make([]string, 0, len(prefs))
	for _, p := range prefs {
		out = append(out, string(p))
	}

	httperrors.Write(w, http.StatusOK, dto.PreferencesResponse{Subgenres: out})
}

func handleProfileError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, profilesvc.ErrProfileNotFound):
		writeNotFound(w, "PROFILE_NOT_FOUND", "profile not found")
	case errors.Is(err, profilesvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid profile request")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
