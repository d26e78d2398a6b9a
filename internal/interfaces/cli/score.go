package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/ComplianceSentinel/internal/domain/score"
)

type scoreTable struct {
	*score.ComplianceScore
}

func (s scoreTable) TableHeaders() []string {
	return []string{"CATEGORY", "SCORE", "ENTITIES", "UNSCHEDULED"}
}

func (s scoreTable) TableRows() [][]string {
	total := "n/a"
	if s.Scored {
		total = strconv.Itoa(s.Total)
	}
	rows := [][]string{{"TOTAL", total, "", ""}}
	for _, c := range s.Categories {
		rows = append(rows, []string{string(c.Category), strconv.Itoa(c.Score), strconv.Itoa(c.Entities), strconv.Itoa(c.Unscheduled)})
	}
	return rows
}

func newScoreCmd(factory ServiceFactory) *cobra.Command {
	var orgID string
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Show an organization's compliance score",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if orgID == "" {
				return fmt.Errorf("--org is required")
			}
			return nil
		},
		RunE: withServices(factory, func(ctx context.Context, cmd *cobra.Command, _ []string, svc *Services) error {
			s, err := svc.Reader.Score(ctx, orgID)
			if err != nil {
				return err
			}
			return PrintResult(cmd, scoreTable{s})
		}),
	}
	cmd.Flags().StringVar(&orgID, "org", "", "organization id")
	return cmd
}

//Personal.AI order the ending
