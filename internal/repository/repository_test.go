package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/crowdfund-backend/internal/errors"
	"github.com/unclebandit/crowdfund-backend/internal/model"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

var columns = []string{
	"id", "slug", "title", "description", "location", "funding_goal", "start_time", "end_time",
	"creator_address", "status", "transaction_hash", "campaign_address", "treasury_address", "created_at", "updated_at",
}

func campaignRow(rows *sqlmock.Rows, id int, status model.CampaignStatus) *sqlmock.Rows {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	return rows.AddRow(id, "clean-water", "Clean Water", "wells", "Nairobi", "1000",
		start, start.Add(30*24*time.Hour), "0xCreator", string(status), "", "", "", start, nil)
}

func TestCampaignRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := &CampaignRepository{DB: db}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO campaigns")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO campaign_images")).
		WithArgs(7, "/campaign-images/a.png", true).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectCommit()

	c := &model.Campaign{
		Slug:        "clean-water",
		Title:       "Clean Water",
		FundingGoal: "1000",
		Images:      []model.CampaignImage{{ImageURL: "/campaign-images/a.png", IsMainImage: true}},
	}
	require.NoError(t, repo.Create(context.Background(), c))

	assert.Equal(t, 7, c.ID)
	assert.Equal(t, model.StatusDraft, c.Status)
	assert.False(t, c.CreatedAt.IsZero())
	assert.Equal(t, 3, c.Images[0].ID)
	assert.Equal(t, 7, c.Images[0].CampaignID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepository_CreateRollsBackOnImageFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := &CampaignRepository{DB: db}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO campaigns")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO campaign_images")).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	c := &model.Campaign{Title: "x", Images: []model.CampaignImage{{ImageURL: "/a"}}}
	assert.Error(t, repo.Create(context.Background(), c))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := &CampaignRepository{DB: db}

	mock.ExpectQuery(`SELECT .* FROM campaigns WHERE id=\$1`).
		WithArgs(5).
		WillReturnRows(campaignRow(sqlmock.NewRows(columns), 5, model.StatusActive))
	mock.ExpectQuery(regexp.QuoteMeta("FROM campaign_images")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "campaign_id", "image_url", "is_main_image"}).
			AddRow(1, 5, "/campaign-images/a.png", false).
			AddRow(2, 5, "/campaign-images/b.png", true))

	c, err := repo.GetByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 5, c.ID)
	assert.Equal(t, model.StatusActive, c.Status)
	assert.Nil(t, c.UpdatedAt)
	require.Len(t, c.Images, 2)
	assert.Equal(t, "/campaign-images/b.png", c.MainImage().ImageURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepository_GetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := &CampaignRepository{DB: db}

	mock.ExpectQuery(`SELECT .* FROM campaigns WHERE id=\$1`).
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	var nf *appErrors.ErrCampaignNotFound
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, 99, nf.CampaignID)
}

func TestCampaignRepository_GetBySlugNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := &CampaignRepository{DB: db}

	mock.ExpectQuery(`SELECT .* FROM campaigns WHERE slug=\$1`).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetBySlug(context.Background(), "nope")
	var nf *appErrors.ErrCampaignNotFound
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "nope", nf.Slug)
}

func TestCampaignRepository_Update(t *testing.T) {
	db, mock := newMockDB(t)
	repo := &CampaignRepository{DB: db}

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE campaigns")).
		WithArgs("pending_approval", "0xabc", "", "", 5).
		WillReturnRows(campaignRow(sqlmock.NewRows(columns), 5, model.StatusPendingApproval))
	mock.ExpectQuery(regexp.QuoteMeta("FROM campaign_images")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "campaign_id", "image_url", "is_main_image"}))

	c, err := repo.Update(context.Background(), 5, model.CampaignUpdate{
		Status:          model.StatusPendingApproval,
		TransactionHash: "0xabc",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingApproval, c.Status)
	assert.Empty(t, c.Images)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepository_UpdateNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := &CampaignRepository{DB: db}

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE campaigns")).WillReturnError(sql.ErrNoRows)

	_, err := repo.Update(context.Background(), 5, model.CampaignUpdate{Status: model.StatusActive})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestBuildCampaignWhere(t *testing.T) {
	where, args := buildCampaignWhere(CampaignFilter{
		Statuses:       []model.CampaignStatus{model.StatusActive},
		CreatorAddress: "0xAbC",
		Search:         " 100%_water ",
	})

	assert.Equal(t,
		` WHERE 1=1 AND status = ANY($1) AND LOWER(creator_address) = LOWER($2)`+
			` AND (title ILIKE $3 OR description ILIKE $3 OR location ILIKE $3)`,
		where)
	require.Len(t, args, 3)
	assert.Equal(t, "0xAbC", args[1])
	assert.Equal(t, `%100\%\_water%`, args[2])

	where, args = buildCampaignWhere(CampaignFilter{Statuses: []model.CampaignStatus{model.StatusActive}, Addressed: true})
	assert.Equal(t, ` WHERE 1=1 AND status = ANY($1) AND (campaign_address <> '' OR transaction_hash <> '')`, where)
	assert.Len(t, args, 1)

	where, args = buildCampaignWhere(CampaignFilter{})
	assert.Equal(t, ` WHERE 1=1`, where)
	assert.Empty(t, args)
}

func TestCampaignRepository_ListCampaignsPaginated(t *testing.T) {
	db, mock := newMockDB(t)
	repo := &CampaignRepository{DB: db}

	rows := sqlmock.NewRows(columns)
	campaignRow(rows, 9, model.StatusActive)
	campaignRow(rows, 8, model.StatusPendingApproval)

	mock.ExpectQuery(`SELECT .* FROM campaigns WHERE 1=1 AND status = ANY\(\$1\) ORDER BY id DESC LIMIT \$2 OFFSET \$3`).
		WithArgs(sqlmock.AnyArg(), 2, 4).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM campaigns WHERE 1=1 AND status = ANY($1)`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery(regexp.QuoteMeta("FROM campaign_images")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "campaign_id", "image_url", "is_main_image"}).
			AddRow(1, 8, "/campaign-images/a.png", true))

	campaigns, total, err := repo.ListCampaigns(context.Background(), CampaignFilter{
		Statuses: []model.CampaignStatus{model.StatusActive, model.StatusPendingApproval},
		Limit:    2,
		Offset:   4,
	})
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	require.Len(t, campaigns, 2)
	assert.Empty(t, campaigns[0].Images)
	assert.Len(t, campaigns[1].Images, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepository_ListCampaignsUnpaginatedSkipsCount(t *testing.T) {
	db, mock := newMockDB(t)
	repo := &CampaignRepository{DB: db}

	mock.ExpectQuery(`SELECT .* FROM campaigns WHERE 1=1 AND LOWER\(creator_address\) = LOWER\(\$1\) ORDER BY id DESC$`).
		WithArgs("0xcreator").
		WillReturnRows(sqlmock.NewRows(columns))

	campaigns, total, err := repo.ListCampaigns(context.Background(), CampaignFilter{CreatorAddress: "0xcreator"})
	require.NoError(t, err)
	assert.Empty(t, campaigns)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoundRepository_SetCampaignRounds(t *testing.T) {
	db, mock := newMockDB(t)
	repo := &RoundRepository{DB: db}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM campaign_rounds")).
		WithArgs(4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO campaign_rounds")).
		WithArgs(4, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO campaign_rounds")).
		WithArgs(4, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SetCampaignRounds(context.Background(), 4, []int{1, 2}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoundRepository_SetCampaignRoundsRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := &RoundRepository{DB: db}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM campaign_rounds")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO campaign_rounds")).
		WithArgs(4, 42).
		WillReturnError(errors.New("violates foreign key constraint"))
	mock.ExpectRollback()

	assert.Error(t, repo.SetCampaignRounds(context.Background(), 4, []int{42}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoundRepository_ListByCampaign(t *testing.T) {
	db, mock := newMockDB(t)
	repo := &RoundRepository{DB: db}

	mock.ExpectQuery(regexp.QuoteMeta("JOIN campaign_rounds")).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow(1, "Round 1"))

	rounds, err := repo.ListByCampaign(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, []model.Round{{ID: 1, Title: "Round 1"}}, rounds)
}

func TestCampaignEventRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := &CampaignEventRepository{DB: db}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO campaign_events")).
		WithArgs(5, "campaign.approved", "active", "0xadmin", "", "", "0xtreasury", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))

	e := &model.CampaignEvent{
		CampaignID:      5,
		Type:            model.EventCampaignApproved,
		Status:          model.StatusActive,
		Actor:           "0xadmin",
		TreasuryAddress: "0xtreasury",
	}
	require.NoError(t, repo.Create(context.Background(), e))
	assert.Equal(t, 12, e.ID)
	assert.Equal(t, e.RecordedAt, e.OccurredAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
