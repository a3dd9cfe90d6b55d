package rowstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/wildforest/ticketsync/internal/domain/ticket"
)

// SheetsGrid addresses one tab of a Google spreadsheet through the Sheets v4
// values API. Cells are written RAW so phone numbers keep their dashes and
// leading zeros.
type SheetsGrid struct {
	svc           *sheets.Service
	spreadsheetID string
	sheet         string
}

// NewSheetsService builds an authenticated Sheets client from a service
// account key file or inline JSON key. Acquiring the key is the caller's job.
func NewSheetsService(ctx context.Context, credentialsFile, credentialsJSON string) (*sheets.Service, error) {
	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	switch {
	case credentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	case credentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: new service: %w", err)
	}
	return svc, nil
}

// NewSheetsGrid wraps an authenticated service for one tab.
func NewSheetsGrid(svc *sheets.Service, spreadsheetID, sheet string) *SheetsGrid {
	return &SheetsGrid{svc: svc, spreadsheetID: spreadsheetID, sheet: sheet}
}

func (g *SheetsGrid) rangeOf(a1 string) string {
	if a1 == "" {
		return quoteSheet(g.sheet)
	}
	return quoteSheet(g.sheet) + "!" + a1
}

func (g *SheetsGrid) Values(ctx context.Context) ([][]string, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, g.rangeOf("")).Context(ctx).Do()
	if err != nil {
		return nil, sheetsError("sheets.values", err)
	}
	return cellText(resp.Values), nil
}

func (g *SheetsGrid) Header(ctx context.Context) ([]string, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, g.rangeOf("1:1")).Context(ctx).Do()
	if err != nil {
		return nil, sheetsError("sheets.header", err)
	}
	rows := cellText(resp.Values)
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (g *SheetsGrid) Append(ctx context.Context, row []string) error {
	cells := make([]any, len(row))
	for i, v := range row {
		cells[i] = v
	}
	vr := &sheets.ValueRange{Values: [][]any{cells}}
	_, err := g.svc.Spreadsheets.Values.Append(g.spreadsheetID, g.rangeOf("A1"), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return sheetsError("sheets.append", err)
}

func (g *SheetsGrid) SetCell(ctx context.Context, row, col int, value string) error {
	if row < 1 || col < 0 {
		return ticket.WrapKind("sheets.set_cell", ticket.ErrRemoteRejected,
			fmt.Errorf("%w: row %d col %d", ErrRowOutOfRange, row, col))
	}
	vr := &sheets.ValueRange{Values: [][]any{{value}}}
	_, err := g.svc.Spreadsheets.Values.Update(g.spreadsheetID, g.rangeOf(CellRef(row, col)), vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return sheetsError("sheets.set_cell", err)
}

func cellText(values [][]any) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		r := make([]string, len(row))
		for j, v := range row {
			if v != nil {
				r[j] = fmt.Sprint(v)
			}
		}
		out[i] = r
	}
	return out
}

// sheetsError classifies API failures: malformed requests (bad range, missing
// tab) are rejections; auth, quota, server and transport failures leave the
// store unavailable.
func sheetsError(op string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusBadRequest, http.StatusNotFound:
			return ticket.WrapKind(op, ticket.ErrRemoteRejected, err)
		}
	}
	return ticket.WrapKind(op, ticket.ErrRemoteUnavailable, err)
}
