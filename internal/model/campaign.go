// internal/model/campaign.go
package model

import "time"

type CampaignStatus string

const (
	StatusDraft           CampaignStatus = "draft"
	StatusPendingApproval CampaignStatus = "pending_approval"
	StatusActive          CampaignStatus = "active"
	StatusFailed          CampaignStatus = "failed"
	StatusCompleted       CampaignStatus = "completed"
)

// Valid reports whether s is one of the known lifecycle states.
func (s CampaignStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPendingApproval, StatusActive, StatusFailed, StatusCompleted:
		return true
	}
	return false
}

type Campaign struct {
	ID              int            `db:"id" json:"id"`
	Slug            string         `db:"slug" json:"slug"`
	Title           string         `db:"title" json:"title"`
	Description     string         `db:"description" json:"description"`
	Location        string         `db:"location" json:"location,omitempty"`
	FundingGoal     string         `db:"funding_goal" json:"fundingGoal"`
	StartTime       time.Time      `db:"start_time" json:"startTime"`
	EndTime         time.Time      `db:"end_time" json:"endTime"`
	CreatorAddress  string         `db:"creator_address" json:"creatorAddress"`
	Status          CampaignStatus `db:"status" json:"status"`
	TransactionHash string         `db:"transaction_hash" json:"transactionHash,omitempty"`
	CampaignAddress string         `db:"campaign_address" json:"campaignAddress,omitempty"`
	TreasuryAddress string         `db:"treasury_address" json:"treasuryAddress,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt       *time.Time     `db:"updated_at" json:"updatedAt,omitempty"`

	Images []CampaignImage `db:"-" json:"images"`
}

type CampaignImage struct {
	ID          int    `db:"id" json:"id"`
	CampaignID  int    `db:"campaign_id" json:"campaignId"`
	ImageURL    string `db:"image_url" json:"imageUrl"`
	IsMainImage bool   `db:"is_main_image" json:"isMainImage"`
}

// MainImage returns the card image, the first image when none is marked.
func (c *Campaign) MainImage() *CampaignImage {
	for i := range c.Images {
		if c.Images[i].IsMainImage {
			return &c.Images[i]
		}
	}
	if len(c.Images) > 0 {
		return &c.Images[0]
	}
	return nil
}

// CampaignUpdate holds the optional fields of a PATCH. Empty strings leave
// the stored value untouched.
type CampaignUpdate struct {
	Status          CampaignStatus
	TransactionHash string
	CampaignAddress string
	TreasuryAddress string
}
