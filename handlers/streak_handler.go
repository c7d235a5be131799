package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"stillpointAPI/internal/streak"
	"stillpointAPI/middleware"
	"stillpointAPI/services"
)

type StreakHandler struct {
	streakService *services.StreakService
}

func NewStreakHandler(streakService *services.StreakService) *StreakHandler {
	return &StreakHandler{
		streakService: streakService,
	}
}

// UpdateStreak applies one day of qualifying activity to a streak. The
// activity date defaults to today when the client omits it.
func (h *StreakHandler) UpdateStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var body struct {
		StreakType   streak.StreakType `json:"streak_type"`
		ActivityDate string            `json:"activity_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if body.StreakType == "" {
		body.StreakType = streak.TypeOverall
	}
	if !streak.ValidType(body.StreakType) {
		respondWithError(w, http.StatusBadRequest, "Unknown streak type")
		return
	}

	activityDate := time.Now().UTC()
	if body.ActivityDate != "" {
		parsed, err := time.Parse("2006-01-02", body.ActivityDate)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "activity_date must be YYYY-MM-DD")
			return
		}
		activityDate = parsed
	}

	updated, err := h.streakService.UpdateStreak(ctx, clerkID, body.StreakType, activityDate)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

func (h *StreakHandler) GetStreaks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	streaks, err := h.streakService.GetUserStreaks(ctx, clerkID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, streaks)
}
