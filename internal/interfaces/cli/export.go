package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newExportCmd(factory ServiceFactory) *cobra.Command {
	var (
		orgID  string
		out    string
		upload bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the compliance register workbook",
		Long: `Render an organization's compliance register as an xlsx workbook.

Without --upload the workbook is written to --out (default: the generated
file name in the current directory). With --upload it is archived in object
storage and the object location is printed.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if orgID == "" {
				return fmt.Errorf("--org is required")
			}
			if upload && out != "" {
				return fmt.Errorf("--out and --upload are mutually exclusive")
			}
			return nil
		},
		RunE: withServices(factory, func(ctx context.Context, cmd *cobra.Command, _ []string, svc *Services) error {
			if upload {
				loc, err := svc.Exporter.Upload(ctx, orgID)
				if err != nil {
					return err
				}
				PrintSuccess(cmd, "register uploaded to "+loc)
				return nil
			}
			exp, err := svc.Exporter.Export(ctx, orgID)
			if err != nil {
				return err
			}
			path := out
			if path == "" {
				path = exp.FileName
			}
			if err := os.WriteFile(path, exp.Data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			PrintSuccess(cmd, fmt.Sprintf("register written to %s (%d bytes)", path, len(exp.Data)))
			return nil
		}),
	}
	cmd.Flags().StringVar(&orgID, "org", "", "organization id")
	cmd.Flags().StringVar(&out, "out", "", "output file path")
	cmd.Flags().BoolVar(&upload, "upload", false, "archive the workbook in object storage")
	return cmd
}

//Personal.AI order the ending
