// internal/client/client.go
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	appErrors "github.com/unclebandit/crowdfund-backend/internal/errors"
	"github.com/unclebandit/crowdfund-backend/internal/model"
)

// Client talks to the campaign record store over HTTP.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// ListCampaigns fetches reconciled campaigns in the given statuses.
func (c *Client) ListCampaigns(ctx context.Context, statuses ...model.CampaignStatus) ([]model.CampaignView, error) {
	q := url.Values{}
	for _, s := range statuses {
		q.Add("status", string(s))
	}
	var resp struct {
		Campaigns []model.CampaignView `json:"campaigns"`
	}
	if err := c.do(ctx, "client.list", http.MethodGet, "/campaigns?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Campaigns, nil
}

func (c *Client) GetCampaign(ctx context.Context, id int) (*model.Campaign, error) {
	var campaign model.Campaign
	if err := c.do(ctx, "client.get", http.MethodGet, fmt.Sprintf("/campaigns/%d", id), nil, &campaign); err != nil {
		return nil, err
	}
	return &campaign, nil
}

// UpdateCampaign sends a PATCH /campaigns. The treasury address is only
// recorded through ApproveCampaign.
func (c *Client) UpdateCampaign(ctx context.Context, id int, u model.CampaignUpdate) (*model.Campaign, error) {
	body := map[string]any{"campaignId": id, "status": u.Status}
	if u.TransactionHash != "" {
		body["transactionHash"] = u.TransactionHash
	}
	if u.CampaignAddress != "" {
		body["campaignAddress"] = u.CampaignAddress
	}

	var campaign model.Campaign
	if err := c.do(ctx, "client.update", http.MethodPatch, "/campaigns", body, &campaign); err != nil {
		return nil, err
	}
	return &campaign, nil
}

// ApproveCampaign records a deployed treasury and activates the campaign.
func (c *Client) ApproveCampaign(ctx context.Context, id int, adminAddress, treasuryAddress string) (*model.Campaign, error) {
	body := map[string]string{
		"adminAddress":    adminAddress,
		"treasuryAddress": treasuryAddress,
	}
	var resp struct {
		Campaign model.Campaign `json:"campaign"`
	}
	if err := c.do(ctx, "client.approve", http.MethodPost, fmt.Sprintf("/campaigns/%d/approve", id), body, &resp); err != nil {
		return nil, err
	}
	return &resp.Campaign, nil
}

func (c *Client) CampaignRounds(ctx context.Context, id int) ([]model.Round, error) {
	rounds := []model.Round{}
	if err := c.do(ctx, "client.rounds", http.MethodGet, fmt.Sprintf("/campaigns/round/%d", id), nil, &rounds); err != nil {
		return nil, err
	}
	return rounds, nil
}

// do performs one request. Transport failures and non-2xx answers come back
// as persistence errors carrying the server's error text; 404 stays a
// not-found error.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return appErrors.Persistence(op, err, "request to record store failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return appErrors.Persistence(op, err, "read record store response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := gjson.GetBytes(raw, "error").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		if resp.StatusCode == http.StatusNotFound {
			return appErrors.NotFound(op, "%s", msg)
		}
		return appErrors.Persistence(op, nil, "record store returned %d: %s", resp.StatusCode, msg)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return appErrors.Persistence(op, err, "decode record store response")
	}
	return nil
}
