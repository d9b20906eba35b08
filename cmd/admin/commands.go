package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/unclebandit/crowdfund-backend/internal/chain"
	appErrors "github.com/unclebandit/crowdfund-backend/internal/errors"
	"github.com/unclebandit/crowdfund-backend/internal/model"
	"github.com/unclebandit/crowdfund-backend/internal/workflow"
)

func pendingCommand() *cobra.Command {
	var (
		watch    bool
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "list campaigns awaiting approval",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.logger.Sync()

			views, err := e.api.ListCampaigns(cmd.Context(), model.StatusPendingApproval)
			if err != nil {
				return err
			}
			board := workflow.NewBoard(nil)
			board.Replace(views)
			printBoard(cmd.OutOrStdout(), board.Campaigns(), time.Now())

			if !watch {
				return nil
			}
			board.Run(cmd.Context(), interval, func(vs []model.CampaignView) {
				fmt.Fprintln(cmd.OutOrStdout())
				printBoard(cmd.OutOrStdout(), vs, time.Now())
			})
			return nil
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "keep running and refresh display statuses")
	cmd.Flags().DurationVar(&interval, "interval", workflow.DefaultRefreshInterval, "refresh interval for --watch")
	return cmd
}

func printBoard(out io.Writer, views []model.CampaignView, now time.Time) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintf(tw, "refreshed %s\n", now.Format(time.RFC3339))
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tGOAL\tLAUNCH\tDEADLINE\tADDRESS")
	if len(views) == 0 {
		fmt.Fprintln(tw, "(no campaigns)")
		return
	}
	for _, v := range views {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			v.ID,
			v.Title,
			v.DisplayStatus,
			v.GoalAmount,
			relative(v.LaunchTime),
			relative(v.Deadline),
			v.Address,
		)
	}
}

func relative(unix int64) string {
	if unix == 0 {
		return "-"
	}
	return humanize.Time(time.Unix(unix, 0))
}

func approveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <campaignId> <campaignAddress>",
		Short: "deploy the campaign treasury and activate the campaign",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return appErrors.Validation("admin", "invalid campaign id %q", args[0])
			}

			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.logger.Sync()

			ctx := cmd.Context()
			cfg := e.cfg.Chain
			globalParams, err := optionalAddress("GLOBAL_PARAMS", cfg.GlobalParams)
			if err != nil {
				return err
			}
			factory, err := optionalAddress("TREASURY_FACTORY", cfg.TreasuryFactory)
			if err != nil {
				return err
			}
			platformHash, err := optionalHash("PLATFORM_HASH", cfg.PlatformHash)
			if err != nil {
				return err
			}
			if globalParams == (common.Address{}) {
				return appErrors.Configuration("admin", "GLOBAL_PARAMS not configured")
			}

			session, err := e.openChain(ctx)
			if err != nil {
				return err
			}
			defer session.close()

			board := workflow.NewBoard(nil)
			if views, err := e.api.ListCampaigns(ctx, model.StatusPendingApproval); err == nil {
				board.Replace(views)
			}

			out := cmd.OutOrStdout()
			approver := &workflow.Approver{
				Wallet:          session.wallet,
				Receipts:        session.node,
				Admins:          &chain.GlobalParams{Client: session.node, Address: globalParams},
				Records:         e.api,
				Board:           board,
				Network:         networkParams(cfg),
				TreasuryFactory: factory,
				PlatformHash:    platformHash,
				PlatformAdmin:   e.cfg.PlatformAdmin,
				PollInterval:    chain.DefaultReceiptPollInterval,
				Logger:          e.logger,
				OnStep: func(s workflow.State) {
					fmt.Fprintf(out, "  ✓ %s\n", s)
				},
			}

			res, err := approver.Approve(ctx, workflow.ApprovalRequest{CampaignID: id, CampaignAddress: args[1]})
			if err != nil {
				if res != nil && res.TransactionHash != (common.Hash{}) {
					fmt.Fprintf(out, "  transaction %s\n", res.TransactionHash.Hex())
				}
				return err
			}

			fmt.Fprintf(out, "campaign %d approved\n  treasury %s\n  transaction %s\n",
				id, res.TreasuryAddress.Hex(), res.TransactionHash.Hex())
			if v, ok := board.Find(id); ok {
				fmt.Fprintf(out, "  display status %s\n", v.DisplayStatus)
			}
			if rounds, err := e.api.CampaignRounds(ctx, id); err == nil && len(rounds) > 0 {
				fmt.Fprintf(out, "  rounds %d\n", len(rounds))
			}
			return nil
		},
	}
}

func submitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "submit <campaignId>",
		Short: "register a draft campaign with the campaign factory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return appErrors.Validation("admin", "invalid campaign id %q", args[0])
			}

			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.logger.Sync()

			ctx := cmd.Context()
			cfg := e.cfg.Chain
			factory, err := optionalAddress("CAMPAIGN_INFO_FACTORY", cfg.CampaignInfoFactory)
			if err != nil {
				return err
			}
			platformHash, err := optionalHash("PLATFORM_HASH", cfg.PlatformHash)
			if err != nil {
				return err
			}

			session, err := e.openChain(ctx)
			if err != nil {
				return err
			}
			defer session.close()

			submitter := &workflow.Submitter{
				Wallet:       session.wallet,
				Receipts:     session.node,
				Records:      e.api,
				Network:      networkParams(cfg),
				Factory:      factory,
				PlatformHash: platformHash,
				PollInterval: chain.DefaultReceiptPollInterval,
				Logger:       e.logger,
			}

			out := cmd.OutOrStdout()
			res, err := submitter.Submit(ctx, id)
			if res != nil && res.TransactionHash != (common.Hash{}) {
				fmt.Fprintf(out, "transaction %s\n", res.TransactionHash.Hex())
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "campaign %d submitted, pending approval\n", id)
			if res.CampaignAddress != (common.Address{}) {
				fmt.Fprintf(out, "  campaign address %s\n", res.CampaignAddress.Hex())
			}
			return nil
		},
	}
}
