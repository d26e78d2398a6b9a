package compliance

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ComplianceSentinel/pkg/errors"
)

// XLSXContentType is the media type of exported registers.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	sheetScore       = "Score"
	sheetAlerts      = "Alerts"
	sheetObligations = "Obligations"
)

// Export is a rendered compliance register.
type Export struct {
	OrganizationID string
	FileName       string
	Data           []byte
	GeneratedAt    time.Time
}

// RegisterExporter renders an organization's compliance register as a
// workbook and optionally stores it.
type RegisterExporter struct {
	query  *QueryService
	store  ObjectStore
	clock  Clock
	logger logging.Logger
}

// NewRegisterExporter builds an exporter. store may be nil when uploads are
// disabled.
func NewRegisterExporter(query *QueryService, store ObjectStore, logger logging.Logger) *RegisterExporter {
	return &RegisterExporter{query: query, store: store, clock: defaultClock, logger: logger}
}

// ObjectKey is where an export of organizationID on day is stored.
func ObjectKey(organizationID string, day time.Time) string {
	return fmt.Sprintf("exports/%s/%s.xlsx", organizationID, day.Format("2006-01-02"))
}

// Export renders the Score, Alerts and Obligations sheets.
func (e *RegisterExporter) Export(ctx context.Context, organizationID string) (*Export, error) {
	res, err := e.query.Snapshots(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	ov, err := e.query.overview(ctx, organizationID, res)
	if err != nil {
		return nil, err
	}

	now := e.clock()
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil {
			e.logger.Warn("failed to close workbook", logging.Err(cerr))
		}
	}()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to create header style")
	}

	scoreRows := [][]interface{}{{"Organization", organizationID}, {"Computed at", now.Format(time.RFC3339)}}
	if ov.Score.Scored {
		scoreRows = append(scoreRows, []interface{}{"Total", ov.Score.Total})
	} else {
		scoreRows = append(scoreRows, []interface{}{"Total", "n/a"})
	}
	scoreRows = append(scoreRows, []interface{}{})
	scoreRows = append(scoreRows, []interface{}{"Category", "Score", "Entities", "Unscheduled"})
	for _, c := range ov.Score.Categories {
		scoreRows = append(scoreRows, []interface{}{string(c.Category), c.Score, c.Entities, c.Unscheduled})
	}

	var alertRows [][]interface{}
	for _, a := range ov.ActiveAlerts {
		alertRows = append(alertRows, []interface{}{
			a.ID, a.Ref.String(), a.Title, a.Severity.String(), string(a.Status),
			formatDate(a.DueDate), a.CreatedAt.Format(time.RFC3339),
		})
	}

	var obligationRows [][]interface{}
	for _, s := range res.Snapshots {
		days := ""
		if s.DaysUntilDue != nil {
			days = fmt.Sprint(*s.DaysUntilDue)
		}
		tier := s.Severity.String()
		if s.Unscheduled {
			tier = "unscheduled"
		}
		obligationRows = append(obligationRows, []interface{}{
			string(s.Ref.Kind), s.Ref.ID, s.Title, s.OwnerID, formatDate(s.DueDate), days, tier,
		})
	}
	for _, fl := range res.Failures {
		obligationRows = append(obligationRows, []interface{}{string(fl.Ref.Kind), fl.Ref.ID, "", "", "", "", "error: " + fl.Reason})
	}

	sheets := []struct {
		name    string
		headers []interface{}
		rows    [][]interface{}
	}{
		{sheetScore, nil, scoreRows},
		{sheetAlerts, []interface{}{"Alert ID", "Entity", "Title", "Severity", "Status", "Due date", "Created at"}, alertRows},
		{sheetObligations, []interface{}{"Kind", "ID", "Title", "Owner", "Due date", "Days left", "Severity"}, obligationRows},
	}
	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sh.name); err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to name sheet")
			}
		} else if _, err := f.NewSheet(sh.name); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to create sheet")
		}
		if err := writeSheet(f, sh.name, sh.headers, sh.rows, header); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to write workbook")
	}
	return &Export{
		OrganizationID: organizationID,
		FileName:       fmt.Sprintf("compliance-register-%s-%s.xlsx", organizationID, now.Format("2006-01-02")),
		Data:           buf.Bytes(),
		GeneratedAt:    now,
	}, nil
}

// Upload renders the register and stores it under ObjectKey.
func (e *RegisterExporter) Upload(ctx context.Context, organizationID string) (string, error) {
	if e.store == nil {
		return "", errors.New(errors.ErrCodeServiceUnavailable, "object storage is not configured")
	}
	exp, err := e.Export(ctx, organizationID)
	if err != nil {
		return "", err
	}
	loc, err := e.store.Upload(ctx, ObjectKey(organizationID, exp.GeneratedAt), exp.Data, XLSXContentType)
	if err != nil {
		return "", err
	}
	e.logger.Info("register exported", logging.OrgID(organizationID), logging.String("location", loc))
	return loc, nil
}

func writeSheet(f *excelize.File, sheet string, headers []interface{}, rows [][]interface{}, headerStyle int) error {
	row := 1
	if headers != nil {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, cell, &headers); err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "failed to write header")
		}
		end, _ := excelize.CoordinatesToCellName(len(headers), row)
		if err := f.SetCellStyle(sheet, cell, end, headerStyle); err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "failed to style header")
		}
		if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "failed to freeze header")
		}
		row++
	}
	for _, r := range rows {
		r := r
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "failed to write row").WithDetail(cell)
		}
		row++
	}
	return nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

//Personal.AI order the ending
