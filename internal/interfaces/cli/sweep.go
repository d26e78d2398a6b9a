package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/ComplianceSentinel/internal/application/compliance"
)

// summaryTable renders sweep summaries.
type summaryTable []*compliance.Summary

func (s summaryTable) TableHeaders() []string {
	return []string{"ORGANIZATION", "CHECKED", "UNSCHEDULED", "CREATED", "ESCALATED", "DOWNGRADED", "RESOLVED", "NOTIFIED", "SCORE", "DURATION", "ERROR"}
}

func (s summaryTable) TableRows() [][]string {
	rows := make([][]string, 0, len(s))
	for _, sum := range s {
		if sum == nil {
			continue
		}
		score := "-"
		if sum.Score != nil {
			score = strconv.Itoa(*sum.Score)
		}
		rows = append(rows, []string{
			sum.OrganizationID,
			strconv.Itoa(sum.Checked),
			strconv.Itoa(sum.Unscheduled),
			strconv.Itoa(sum.AlertsCreated),
			strconv.Itoa(sum.AlertsEscalated),
			strconv.Itoa(sum.AlertsDowngraded),
			strconv.Itoa(sum.AlertsResolved),
			strconv.Itoa(sum.NotificationsSent),
			score,
			sum.Duration.Round(time.Millisecond).String(),
			sum.Error,
		})
	}
	return rows
}

func newSweepCmd(factory ServiceFactory) *cobra.Command {
	var (
		orgID string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run a compliance sweep",
		Long: `Recompute due dates, scores and alerts for one organization (--org) or for
every active organization, then dispatch the resulting notifications.

--force runs even when another sweep of the organization is in progress.`,
		Args: cobra.NoArgs,
		RunE: withServices(factory, func(ctx context.Context, cmd *cobra.Command, _ []string, svc *Services) error {
			if orgID != "" {
				sum, err := svc.Sweeper.SweepOrganization(ctx, orgID, force)
				if sum != nil {
					if perr := PrintResult(cmd, summaryTable{sum}); perr != nil {
						return perr
					}
				}
				return err
			}
			sums, err := svc.Sweeper.SweepAll(ctx, force)
			if err != nil {
				return err
			}
			if err := PrintResult(cmd, summaryTable(sums)); err != nil {
				return err
			}
			failed := 0
			for _, s := range sums {
				if s != nil && s.Error != "" {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d organization sweeps failed", failed, len(sums))
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&orgID, "org", "", "organization id (default: all active organizations)")
	cmd.Flags().BoolVar(&force, "force", false, "run even if a sweep is already in progress")
	return cmd
}

//Personal.AI order the ending
