package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"stillpointAPI/internal/content"
	"stillpointAPI/middleware"
	"stillpointAPI/services"

	"github.com/google/uuid"
)

type ContentHandler struct {
	entitlementService *services.EntitlementService
}

func NewContentHandler(entitlementService *services.EntitlementService) *ContentHandler {
	return &ContentHandler{
		entitlementService: entitlementService,
	}
}

// PurchaseContent unlocks a course or standalone meditation for tokens.
// Insufficient funds comes back as a structured failure, not an HTTP error,
// and repeat purchases succeed without charging again.
func (h *ContentHandler) PurchaseContent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req content.PurchaseContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !content.ValidEntityType(req.EntityType) {
		respondWithError(w, http.StatusBadRequest, "entity_type must be 'course' or 'meditation'")
		return
	}
	entityID, err := uuid.Parse(req.EntityID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid entity id")
		return
	}
	if req.TokenCost < 0 {
		respondWithError(w, http.StatusBadRequest, "token_cost must not be negative")
		return
	}

	result, err := h.entitlementService.PurchaseContent(ctx, clerkID, req.EntityType, entityID, req.TokenCost)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *ContentHandler) CheckAccess(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	entityType := content.EntityType(r.URL.Query().Get("entityType"))
	if !content.ValidEntityType(entityType) {
		respondWithError(w, http.StatusBadRequest, "entityType must be 'course' or 'meditation'")
		return
	}

	entityID, err := uuid.Parse(r.URL.Query().Get("entityId"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid entity id")
		return
	}

	price := 0
	if v := r.URL.Query().Get("price"); v != "" {
		price, err = strconv.Atoi(v)
		if err != nil || price < 0 {
			respondWithError(w, http.StatusBadRequest, "price must be a non-negative integer")
			return
		}
	}

	hasAccess, err := h.entitlementService.HasAccess(ctx, clerkID, entityType, entityID, price)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, content.AccessResult{HasAccess: hasAccess})
}

func (h *ContentHandler) GetPurchases(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	purchases, err := h.entitlementService.GetUserPurchases(ctx, clerkID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, purchases)
}
