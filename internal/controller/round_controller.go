// internal/controller/round_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/unclebandit/crowdfund-backend/internal/service"
)

type RoundController struct {
	RoundService *service.RoundService
	Logger       *zap.Logger
}

// ListRounds serves GET /rounds
func (c *RoundController) ListRounds(w http.ResponseWriter, r *http.Request) {
	rounds, err := c.RoundService.ListRounds(r.Context())
	if err != nil {
		writeError(w, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rounds)
}

// AssignRounds serves POST /campaigns/round
func (c *RoundController) AssignRounds(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CampaignID int   `json:"campaignId"`
		RoundIDs   []int `json:"roundIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid body")
		return
	}

	if err := c.RoundService.AssignRounds(r.Context(), body.CampaignID, body.RoundIDs); err != nil {
		writeError(w, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"campaignId": body.CampaignID,
		"roundIds":   body.RoundIDs,
	})
}

// CampaignRounds serves GET /campaigns/round/{id}
func (c *RoundController) CampaignRounds(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid campaign id")
		return
	}
	rounds, err := c.RoundService.CampaignRounds(r.Context(), id)
	if err != nil {
		writeError(w, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rounds)
}
