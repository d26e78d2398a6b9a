package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/ComplianceSentinel/internal/domain/alert"
	"github.com/turtacn/ComplianceSentinel/internal/domain/obligation"
)

type alertTable []*alert.Alert

func (a alertTable) TableHeaders() []string {
	return []string{"ID", "ENTITY", "SEVERITY", "STATUS", "DUE", "TITLE"}
}

func (a alertTable) TableRows() [][]string {
	rows := make([][]string, 0, len(a))
	for _, al := range a {
		due := "-"
		if al.DueDate != nil {
			due = al.DueDate.Format("2006-01-02")
		}
		rows = append(rows, []string{al.ID, al.Ref.String(), al.Severity.String(), string(al.Status), due, al.Title})
	}
	return rows
}

func newAlertsCmd(factory ServiceFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Inspect and transition alerts",
	}
	cmd.AddCommand(newAlertsListCmd(factory))
	for _, t := range []struct {
		use, short string
		to         alert.Status
	}{
		{"ack", "Acknowledge an alert", alert.StatusAcknowledged},
		{"dismiss", "Dismiss an alert", alert.StatusDismissed},
		{"resolve", "Resolve an alert", alert.StatusResolved},
	} {
		cmd.AddCommand(newAlertTransitionCmd(factory, t.use, t.short, t.to))
	}
	return cmd
}

func newAlertsListCmd(factory ServiceFactory) *cobra.Command {
	var (
		orgID       string
		statuses    string
		minSeverity string
		kind        string
		limit       int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List alerts of an organization",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if orgID == "" {
				return fmt.Errorf("--org is required")
			}
			if limit < 1 || limit > 500 {
				return fmt.Errorf("--limit must be between 1 and 500, got %d", limit)
			}
			return nil
		},
		RunE: withServices(factory, func(ctx context.Context, cmd *cobra.Command, _ []string, svc *Services) error {
			f := alert.ListFilter{Limit: limit}
			for _, s := range strings.Split(statuses, ",") {
				if s = strings.TrimSpace(s); s == "" {
					continue
				}
				st := alert.Status(s)
				if !st.IsValid() {
					return fmt.Errorf("invalid status: %s", s)
				}
				f.Statuses = append(f.Statuses, st)
			}
			if minSeverity != "" {
				t, err := obligation.ParseTier(minSeverity)
				if err != nil {
					return err
				}
				f.MinSeverity = &t
			}
			if kind != "" {
				f.Kind = obligation.Kind(kind)
				if !f.Kind.IsValid() {
					return fmt.Errorf("invalid kind: %s", kind)
				}
			}
			items, total, err := svc.Reader.ListAlerts(ctx, orgID, f)
			if err != nil {
				return err
			}
			if err := PrintResult(cmd, alertTable(items)); err != nil {
				return err
			}
			if int64(len(items)) < total {
				fmt.Fprintf(cmd.ErrOrStderr(), "showing %d of %d alerts\n", len(items), total)
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&orgID, "org", "", "organization id")
	cmd.Flags().StringVar(&statuses, "status", "active,acknowledged", "comma-separated statuses")
	cmd.Flags().StringVar(&minSeverity, "min-severity", "", "lowest severity to include (info, attention, warning, urgent, expired)")
	cmd.Flags().StringVar(&kind, "kind", "", "entity kind filter")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum alerts to list (1-500)")
	return cmd
}

func newAlertTransitionCmd(factory ServiceFactory, use, short string, to alert.Status) *cobra.Command {
	var orgID, actor string
	cmd := &cobra.Command{
		Use:   use + " ALERT_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if orgID == "" {
				return fmt.Errorf("--org is required")
			}
			if actor == "" {
				return fmt.Errorf("--actor is required")
			}
			return nil
		},
		RunE: withServices(factory, func(ctx context.Context, cmd *cobra.Command, args []string, svc *Services) error {
			var (
				a   *alert.Alert
				err error
			)
			switch to {
			case alert.StatusAcknowledged:
				a, err = svc.Alerts.Acknowledge(ctx, orgID, args[0], actor)
			case alert.StatusDismissed:
				a, err = svc.Alerts.Dismiss(ctx, orgID, args[0], actor)
			default:
				a, err = svc.Alerts.Resolve(ctx, orgID, args[0], actor)
			}
			if err != nil {
				return err
			}
			return PrintResult(cmd, alertTable{a})
		}),
	}
	cmd.Flags().StringVar(&orgID, "org", "", "organization id")
	cmd.Flags().StringVar(&actor, "actor", "", "id of the user performing the transition")
	return cmd
}

//Personal.AI order the ending
