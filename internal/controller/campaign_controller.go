// internal/controller/campaign_controller.go
package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/unclebandit/crowdfund-backend/internal/model"
	"github.com/unclebandit/crowdfund-backend/internal/service"
)

// MaxUploadBytes bounds a multipart campaign form.
const MaxUploadBytes = 10 << 20

type CampaignController struct {
	CampaignService *service.CampaignService
	Logger          *zap.Logger
}

// ListCampaigns serves GET /campaigns?status=&q=&page=&page_size=
func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var statuses []model.CampaignStatus
	for _, raw := range query["status"] {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				statuses = append(statuses, model.CampaignStatus(s))
			}
		}
	}
	page, _ := strconv.Atoi(query.Get("page"))
	pageSize, _ := strconv.Atoi(query.Get("page_size"))

	campaigns, pagination, err := c.CampaignService.ListCampaigns(r.Context(), service.ListQuery{
		Statuses: statuses,
		Search:   query.Get("q"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		writeError(w, c.Logger, err)
		return
	}

	resp := map[string]any{"campaigns": campaigns}
	if pagination != nil {
		resp["pagination"] = pagination
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateCampaign serves POST /campaigns with a multipart or urlencoded form.
func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)

	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		err = r.ParseMultipartForm(MaxUploadBytes)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		badRequest(w, "invalid form body")
		return
	}

	in := service.CreateCampaignInput{
		Title:          r.FormValue("title"),
		Description:    r.FormValue("description"),
		Location:       r.FormValue("location"),
		FundingGoal:    r.FormValue("fundingGoal"),
		StartTime:      r.FormValue("startTime"),
		EndTime:        r.FormValue("endTime"),
		CreatorAddress: r.FormValue("creatorAddress"),
		Status:         r.FormValue("status"),
	}

	file, header, err := r.FormFile("bannerImage")
	switch {
	case err == nil:
		defer file.Close()
		in.Image = &service.ImageUpload{Filename: header.Filename, Content: file}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		badRequest(w, "Failed to process campaign image")
		return
	}

	campaign, err := c.CampaignService.CreateCampaign(r.Context(), in)
	if err != nil {
		writeError(w, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"campaignId": campaign.ID})
}

// UpdateCampaign serves PATCH /campaigns
func (c *CampaignController) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CampaignID      int    `json:"campaignId"`
		Status          string `json:"status"`
		TransactionHash string `json:"transactionHash"`
		CampaignAddress string `json:"campaignAddress"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid body")
		return
	}

	campaign, err := c.CampaignService.UpdateCampaign(r.Context(), body.CampaignID, model.CampaignUpdate{
		Status:          model.CampaignStatus(body.Status),
		TransactionHash: body.TransactionHash,
		CampaignAddress: body.CampaignAddress,
	})
	if err != nil {
		writeError(w, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

// ApproveCampaign serves POST /campaigns/{id}/approve
func (c *CampaignController) ApproveCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		badRequest(w, "Campaign ID is required")
		return
	}

	var body struct {
		AdminAddress    string `json:"adminAddress"`
		TreasuryAddress string `json:"treasuryAddress"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "invalid body")
		return
	}

	campaign, err := c.CampaignService.ApproveCampaign(r.Context(), id, body.AdminAddress, body.TreasuryAddress)
	if err != nil {
		writeError(w, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"campaign": campaign})
}

// ListUserCampaigns serves GET /campaigns/user?creatorAddress=
func (c *CampaignController) ListUserCampaigns(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("creatorAddress")
	if address == "" {
		address = r.URL.Query().Get("address")
	}

	campaigns, stats, err := c.CampaignService.ListUserCampaigns(r.Context(), address)
	if err != nil {
		writeError(w, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"campaigns": campaigns,
		"stats":     stats,
	})
}

// GetCampaign serves GET /campaigns/{id}; a non-numeric id is read as a slug.
func (c *CampaignController) GetCampaign(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "id")

	var (
		campaign *model.Campaign
		err      error
	)
	if id, convErr := strconv.Atoi(ref); convErr == nil {
		campaign, err = c.CampaignService.GetCampaign(r.Context(), id)
	} else {
		campaign, err = c.CampaignService.GetCampaignBySlug(r.Context(), ref)
	}
	if err != nil {
		writeError(w, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}
