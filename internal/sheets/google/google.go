package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	ports "alkansya/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"alkansya/internal/log"
)

// Options configures a Sheets client. A service account (CredentialsJSON or
// CredentialsFile) is preferred; otherwise an OAuth client plus a saved
// user token is used.
type Options struct {
	SpreadsheetID   string
	CredentialsJSON string
	CredentialsFile string

	OAuthClientJSON string
	OAuthClientFile string
	OAuthTokenFile  string
}

func (o Options) hasServiceAccount() bool {
	return strings.TrimSpace(o.CredentialsJSON) != "" || strings.TrimSpace(o.CredentialsFile) != ""
}

func (o Options) hasOAuth() bool {
	return (strings.TrimSpace(o.OAuthClientJSON) != "" || strings.TrimSpace(o.OAuthClientFile) != "") &&
		strings.TrimSpace(o.OAuthTokenFile) != ""
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *log.Logger
}

// Ensure interface conformance
var _ ports.TableWriter = (*Client)(nil)

// NewFromOptions creates a Sheets client authenticated with a service
// account or, failing that, a saved OAuth user token.
func NewFromOptions(ctx context.Context, opts Options, logger *log.Logger) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	if !opts.hasServiceAccount() && opts.hasOAuth() {
		auth, err := oauthClientOption(ctx, opts)
		if err != nil {
			return nil, err
		}
		return New(ctx, spreadsheetID, logger, auth)
	}

	credentialsJSON, err := loadCredentials(opts)
	if err != nil {
		return nil, err
	}

	return New(ctx, spreadsheetID, logger,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// New creates a client with explicit client options
func New(ctx context.Context, spreadsheetID string, logger *log.Logger, opts ...goption.ClientOption) (*Client, error) {
	if logger == nil {
		logger = log.Discard()
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		logger:        logger.WithComponent(log.ComponentSheets),
	}, nil
}

func loadCredentials(opts Options) ([]byte, error) {
	if !opts.hasServiceAccount() {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
	return readInlineOrFile(opts.CredentialsJSON, opts.CredentialsFile, "service account")
}

// WriteTables creates missing tabs, clears them and writes every table from A1.
func (c *Client) WriteTables(ctx context.Context, prefix string, tables []ports.Table) ([]string, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	if len(tables) == 0 {
		return nil, nil
	}

	existing, err := c.sheetTitles(ctx)
	if err != nil {
		return nil, err
	}

	var add []*gsheet.Request
	for _, t := range tables {
		title := tabName(prefix, t.Name)
		if _, ok := existing[title]; ok {
			continue
		}
		existing[title] = struct{}{}
		add = append(add, &gsheet.Request{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
		})
	}
	if len(add) > 0 {
		_, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{Requests: add}).
			Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("add %d sheets: %w", len(add), err)
		}
		c.logger.InfoContext(ctx, "Created sheets", "count", len(add))
	}

	refs := make([]string, 0, len(tables))
	for _, t := range tables {
		title := tabName(prefix, t.Name)
		clearRange := fmt.Sprintf("'%s'!A:Z", title)
		if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
			Context(ctx).Do(); err != nil {
			return refs, fmt.Errorf("clear %s: %w", clearRange, err)
		}

		vr := &gsheet.ValueRange{Values: toValues(t)}
		resp, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, fmt.Sprintf("'%s'!A1", title), vr).
			ValueInputOption("USER_ENTERED").Context(ctx).Do()
		if err != nil {
			return refs, fmt.Errorf("update sheet %s: %w", title, err)
		}
		ref := resp.UpdatedRange
		if ref == "" {
			ref = title
		}
		refs = append(refs, ref)
	}

	c.logger.InfoContext(ctx, "Wrote tables to spreadsheet",
		log.FieldOperation, log.OpExport,
		"tables", len(tables),
		"prefix", prefix)
	return refs, nil
}

func (c *Client) sheetTitles(ctx context.Context) (map[string]struct{}, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read spreadsheet %s: %w", c.spreadsheetID, err)
	}
	titles := make(map[string]struct{}, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			titles[s.Properties.Title] = struct{}{}
		}
	}
	return titles, nil
}

func toValues(t ports.Table) [][]any {
	out := make([][]any, 0, len(t.Rows)+1)
	if len(t.Header) > 0 {
		out = append(out, toRow(t.Header))
	}
	for _, r := range t.Rows {
		out = append(out, toRow(r))
	}
	return out
}

func toRow(in []string) []any {
	row := make([]any, len(in))
	for i, v := range in {
		row[i] = v
	}
	return row
}

// tabName returns "<prefix> <name>" unless name already starts with prefix.
func tabName(prefix, name string) string {
	prefix = strings.TrimSpace(prefix)
	name = strings.TrimSpace(name)
	if prefix == "" || strings.HasPrefix(name, prefix+" ") {
		return name
	}
	return prefix + " " + name
}
