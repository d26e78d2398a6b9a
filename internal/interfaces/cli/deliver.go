package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/ComplianceSentinel/internal/application/compliance"
)

type deliveryTable compliance.DeliveryStats

func (d deliveryTable) TableHeaders() []string {
	return []string{"SENT", "RETRYING", "FAILED", "SKIPPED", "DEFERRED", "CONTENDED"}
}

func (d deliveryTable) TableRows() [][]string {
	return [][]string{{
		strconv.Itoa(d.Sent), strconv.Itoa(d.Retrying), strconv.Itoa(d.Failed),
		strconv.Itoa(d.Skipped), strconv.Itoa(d.Deferred), strconv.Itoa(d.Contended),
	}}
}

func newDeliverDueCmd(factory ServiceFactory) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "deliver-due",
		Short: "Deliver notification jobs whose retry time has passed",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}
			return nil
		},
		RunE: withServices(factory, func(ctx context.Context, cmd *cobra.Command, _ []string, svc *Services) error {
			stats, err := svc.Deliverer.DeliverDue(ctx, limit)
			if err != nil {
				return err
			}
			return PrintResult(cmd, deliveryTable(stats))
		}),
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum jobs to deliver")
	return cmd
}

//Personal.AI order the ending
