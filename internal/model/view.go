// internal/model/view.go
package model

import "time"

// DisplayStatus is the label derived from the stored status and the
// campaign's schedule.
type DisplayStatus string

const (
	DisplayDraft           DisplayStatus = "Draft"
	DisplayPendingApproval DisplayStatus = "Pending Approval"
	DisplayFailed          DisplayStatus = "Failed"
	DisplayCompleted       DisplayStatus = "Completed"
	DisplayUpcoming        DisplayStatus = "Upcoming"
	DisplayEnded           DisplayStatus = "Ended"
	DisplayActive          DisplayStatus = "Active"
)

// CampaignView is a campaign row merged with its on-chain creation event.
// LaunchTime and Deadline are unix seconds; zero means unknown.
type CampaignView struct {
	ID              int            `json:"id"`
	Slug            string         `json:"slug"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Location        string         `json:"location,omitempty"`
	Status          CampaignStatus `json:"status"`
	FundingGoal     string         `json:"fundingGoal"`
	StartTime       time.Time      `json:"startTime"`
	EndTime         time.Time      `json:"endTime"`
	CreatorAddress  string         `json:"creatorAddress"`
	TransactionHash string         `json:"transactionHash,omitempty"`
	CampaignAddress string         `json:"campaignAddress,omitempty"`
	TreasuryAddress string         `json:"treasuryAddress,omitempty"`

	Address     string `json:"address"`
	Owner       string `json:"owner"`
	LaunchTime  int64  `json:"launchTime,string"`
	Deadline    int64  `json:"deadline,string"`
	GoalAmount  string `json:"goalAmount"`
	TotalRaised string `json:"totalRaised"`
	OnChain     bool   `json:"onChain"`

	Images        []CampaignImage `json:"images"`
	DisplayStatus DisplayStatus   `json:"displayStatus,omitempty"`
}

// CampaignStats summarises a list of views for the creator dashboard.
type CampaignStats struct {
	TotalCampaigns  int     `json:"totalCampaigns"`
	TotalRaised     string  `json:"totalRaised"`
	ActiveCampaigns int     `json:"activeCampaigns"`
	AverageProgress float64 `json:"averageProgress"`
}
