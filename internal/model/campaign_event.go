// internal/model/campaign_event.go
package model

import "time"

type EventType string

const (
	EventCampaignCreated  EventType = "campaign.created"
	EventCampaignUpdated  EventType = "campaign.updated"
	EventCampaignApproved EventType = "campaign.approved"
)

// CampaignEvent is the audit row written by the worker for every lifecycle
// change published on the queue.
type CampaignEvent struct {
	ID              int            `db:"id" json:"id"`
	CampaignID      int            `db:"campaign_id" json:"campaign_id"`
	Type            EventType      `db:"type" json:"type"`
	Status          CampaignStatus `db:"status" json:"status"`
	Actor           string         `db:"actor" json:"actor,omitempty"`
	TransactionHash string         `db:"transaction_hash" json:"transaction_hash,omitempty"`
	CampaignAddress string         `db:"campaign_address" json:"campaign_address,omitempty"`
	TreasuryAddress string         `db:"treasury_address" json:"treasury_address,omitempty"`
	OccurredAt      time.Time      `db:"occurred_at" json:"occurred_at"`
	RecordedAt      time.Time      `db:"recorded_at" json:"recorded_at"`
}
