package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"bizradar/internal/store"
)

type createProfileRequest struct {
	Name        string `json:"name"`
	WebsiteURL  string `json:"website_url"`
	Industry    string `json:"industry"`
	Description string `json:"description"`
}

type updateProfileRequest struct {
	Name        *string `json:"name"`
	WebsiteURL  *string `json:"website_url"`
	Industry    *string `json:"industry"`
	Description *string `json:"description"`
}

// loadOwnedProfile resolves {profileID} and enforces ownership. Profiles
// belonging to other users answer 404, the same as missing ones. On
// failure the response has already been written.
func (s *Server) loadOwnedProfile(w http.ResponseWriter, r *http.Request) (*store.BusinessProfile, bool) {
	claims, ok := claimsFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}

	id, err := uuid.Parse(chi.URLParam(r, "profileID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid profile id")
		return nil, false
	}

	profile, err := s.store.ProfileByID(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return nil, false
	}
	if profile.UserID != claims.UserID {
		writeError(w, http.StatusNotFound, "not found")
		return nil, false
	}
	return profile, true
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createProfileRequest
	if !readJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	profile := &store.BusinessProfile{
		UserID:      claims.UserID,
		Name:        req.Name,
		WebsiteURL:  strings.TrimSpace(req.WebsiteURL),
		Industry:    strings.TrimSpace(req.Industry),
		Description: req.Description,
	}
	if err := s.store.CreateProfile(r.Context(), profile); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, profile)
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	profiles, err := s.store.ProfilesByUser(r.Context(), claims.UserID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"profiles": profiles})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, ok := s.loadOwnedProfile(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	profile, ok := s.loadOwnedProfile(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if !readJSON(w, r, &req) {
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			writeError(w, http.StatusBadRequest, "name cannot be empty")
			return
		}
		profile.Name = name
	}
	if req.WebsiteURL != nil {
		profile.WebsiteURL = strings.TrimSpace(*req.WebsiteURL)
	}
	if req.Industry != nil {
		profile.Industry = strings.TrimSpace(*req.Industry)
	}
	if req.Description != nil {
		profile.Description = *req.Description
	}

	if err := s.store.UpdateProfile(r.Context(), profile); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	profile, ok := s.loadOwnedProfile(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteProfile(r.Context(), profile.ID); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListCompetitions(w http.ResponseWriter, r *http.Request) {
	profile, ok := s.loadOwnedProfile(w, r)
	if !ok {
		return
	}

	comps, err := s.store.CompetitionsByProfile(r.Context(), profile.ID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"competitions": comps})
}

func (s *Server) handleListInteractions(w http.ResponseWriter, r *http.Request) {
	profile, ok := s.loadOwnedProfile(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	inters, err := s.store.InteractionsByProfile(r.Context(), profile.ID, limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"interactions": inters})
}

func (s *Server) handleGetInteraction(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "interactionID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid interaction id")
		return
	}

	inter, err := s.store.InteractionByID(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if inter.UserID != claims.UserID {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, inter)
}
