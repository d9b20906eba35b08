package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	appErrors "github.com/unclebandit/crowdfund-backend/internal/errors"
	"github.com/unclebandit/crowdfund-backend/internal/model"
)

// CampaignFilter narrows ListCampaigns. Zero values mean "no filter";
// Limit 0 returns every matching row.
type CampaignFilter struct {
	Statuses       []model.CampaignStatus
	CreatorAddress string
	Search         string
	// Addressed keeps rows that can resolve to a campaign contract: a
	// stored address, or a transaction hash to match an event by.
	Addressed bool
	Offset    int
	Limit     int
}

type CampaignRepositoryInterface interface {
	Create(ctx context.Context, c *model.Campaign) error
	GetByID(ctx context.Context, id int) (*model.Campaign, error)
	GetBySlug(ctx context.Context, slug string) (*model.Campaign, error)
	Update(ctx context.Context, id int, u model.CampaignUpdate) (*model.Campaign, error)
	ListCampaigns(ctx context.Context, f CampaignFilter) ([]*model.Campaign, int, error)
}

type CampaignRepository struct {
	DB *sqlx.DB
}

const campaignColumns = `id, slug, title, description, location, funding_goal, start_time, end_time,
        creator_address, status, transaction_hash, campaign_address, treasury_address, created_at, updated_at`

// ====================== Campaign CRUD ======================

// Create inserts the campaign and its images in one transaction.
func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	if c.Status == "" {
		c.Status = model.StatusDraft
	}

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	query := `
        INSERT INTO campaigns (slug, title, description, location, funding_goal, start_time, end_time,
            creator_address, status, transaction_hash, campaign_address, treasury_address, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        RETURNING id
    `
	err = tx.QueryRowxContext(ctx, query,
		c.Slug, c.Title, c.Description, c.Location, c.FundingGoal, c.StartTime, c.EndTime,
		c.CreatorAddress, c.Status, c.TransactionHash, c.CampaignAddress, c.TreasuryAddress, c.CreatedAt,
	).Scan(&c.ID)
	if err != nil {
		return err
	}

	for i := range c.Images {
		img := &c.Images[i]
		img.CampaignID = c.ID
		err = tx.QueryRowxContext(ctx,
			`INSERT INTO campaign_images (campaign_id, image_url, is_main_image) VALUES ($1, $2, $3) RETURNING id`,
			img.CampaignID, img.ImageURL, img.IsMainImage,
		).Scan(&img.ID)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *CampaignRepository) GetByID(ctx context.Context, id int) (*model.Campaign, error) {
	var c model.Campaign
	err := r.DB.GetContext(ctx, &c, `SELECT `+campaignColumns+` FROM campaigns WHERE id=$1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	if err := r.attachImages(ctx, []*model.Campaign{&c}); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) GetBySlug(ctx context.Context, slug string) (*model.Campaign, error) {
	var c model.Campaign
	err := r.DB.GetContext(ctx, &c, `SELECT `+campaignColumns+` FROM campaigns WHERE slug=$1`, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewCampaignSlugNotFound(slug)
		}
		return nil, err
	}
	if err := r.attachImages(ctx, []*model.Campaign{&c}); err != nil {
		return nil, err
	}
	return &c, nil
}

// Update overwrites the non-empty fields of u. There is no version check:
// the last writer wins.
func (r *CampaignRepository) Update(ctx context.Context, id int, u model.CampaignUpdate) (*model.Campaign, error) {
	query := `
        UPDATE campaigns
        SET status = COALESCE(NULLIF($1, ''), status),
            transaction_hash = COALESCE(NULLIF($2, ''), transaction_hash),
            campaign_address = COALESCE(NULLIF($3, ''), campaign_address),
            treasury_address = COALESCE(NULLIF($4, ''), treasury_address),
            updated_at = NOW()
        WHERE id = $5
        RETURNING ` + campaignColumns

	var c model.Campaign
	err := r.DB.GetContext(ctx, &c, query, string(u.Status), u.TransactionHash, u.CampaignAddress, u.TreasuryAddress, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	if err := r.attachImages(ctx, []*model.Campaign{&c}); err != nil {
		return nil, err
	}
	return &c, nil
}

func buildCampaignWhere(f CampaignFilter) (string, []interface{}) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		where += fmt.Sprintf(" AND status = ANY($%d)", argPos)
		args = append(args, pq.Array(statuses))
		argPos++
	}
	if f.CreatorAddress != "" {
		where += fmt.Sprintf(" AND LOWER(creator_address) = LOWER($%d)", argPos)
		args = append(args, f.CreatorAddress)
		argPos++
	}
	if f.Addressed {
		where += " AND (campaign_address <> '' OR transaction_hash <> '')"
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		where += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d OR location ILIKE $%d)", argPos, argPos, argPos)
		args = append(args, "%"+escapeLike(s)+"%")
	}
	return where, args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// ListCampaigns returns matching campaigns, newest first, with images, plus
// the total count before pagination.
func (r *CampaignRepository) ListCampaigns(ctx context.Context, f CampaignFilter) ([]*model.Campaign, int, error) {
	where, args := buildCampaignWhere(f)

	query := `SELECT ` + campaignColumns + ` FROM campaigns` + where + ` ORDER BY id DESC`
	listArgs := append([]interface{}{}, args...)
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		listArgs = append(listArgs, f.Limit, f.Offset)
	}

	campaigns := []*model.Campaign{}
	if err := r.DB.SelectContext(ctx, &campaigns, query, listArgs...); err != nil {
		return nil, 0, err
	}

	total := len(campaigns)
	if f.Limit > 0 {
		if err := r.DB.GetContext(ctx, &total, `SELECT COUNT(*) FROM campaigns`+where, args...); err != nil {
			return nil, 0, err
		}
	}

	if err := r.attachImages(ctx, campaigns); err != nil {
		return nil, 0, err
	}
	return campaigns, total, nil
}

func (r *CampaignRepository) attachImages(ctx context.Context, campaigns []*model.Campaign) error {
	if len(campaigns) == 0 {
		return nil
	}
	ids := make([]int64, len(campaigns))
	byID := make(map[int]*model.Campaign, len(campaigns))
	for i, c := range campaigns {
		ids[i] = int64(c.ID)
		c.Images = []model.CampaignImage{}
		byID[c.ID] = c
	}

	images := []model.CampaignImage{}
	err := r.DB.SelectContext(ctx, &images,
		`SELECT id, campaign_id, image_url, is_main_image FROM campaign_images WHERE campaign_id = ANY($1) ORDER BY id`,
		pq.Array(ids),
	)
	if err != nil {
		return err
	}
	for _, img := range images {
		if c, ok := byID[img.CampaignID]; ok {
			c.Images = append(c.Images, img)
		}
	}
	return nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
