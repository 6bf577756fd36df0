package google

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
	ports "expensetracker/internal/sheets"
)

// Config selects the target sheet and the service account credentials.
// CredentialsJSON wins over CredentialsFile.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// valuesAPI is the slice of the Sheets values API the client uses.
type valuesAPI interface {
	Get(ctx context.Context, spreadsheetID, rng string) ([][]any, error)
	Update(ctx context.Context, spreadsheetID, rng string, values [][]any) error
}

type Client struct {
	values        valuesAPI
	spreadsheetID string
	expensesSheet string
	logger        *log.Logger
}

// Ensure interface conformance
var _ ports.ExpenseWriter = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if logger == nil {
		logger = log.Nop()
	}
	logger = logger.WithComponent(log.ComponentSheets)

	svc, err := newSheetsService(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(serviceValues{svc: svc}, cfg, logger), nil
}

func newClient(values valuesAPI, cfg Config, logger *log.Logger) *Client {
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = "Expenses"
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Client{
		values:        values,
		spreadsheetID: strings.TrimSpace(cfg.SpreadsheetID),
		expensesSheet: sheet,
		logger:        logger,
	}
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context, cfg Config, logger *log.Logger) (*gsheet.Service, error) {
	credentialsJSON, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
		goption.WithHTTPClient(newHTTPClientWithPooling()))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func loadCredentials(cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.CredentialsJSON)
	file := strings.TrimSpace(cfg.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// newHTTPClientWithPooling creates an HTTP client for the Sheets API with
// connection pooling and bounded timeouts.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   5,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// Append writes e to the first free row of the expenses sheet. The ID column
// is read first so a redelivered expense is not written twice.
func (c *Client) Append(ctx context.Context, e core.Expense) (string, error) {
	if err := ports.CheckRow(e); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.values == nil {
		return "", errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:A", quoteSheet(c.expensesSheet))
	ids, err := c.values.Get(ctx, c.spreadsheetID, rng)
	if err != nil {
		return "", fmt.Errorf("failed to read ids of %s: %w", c.expensesSheet, err)
	}

	if row, ok := findRow(ids, e.ID); ok {
		ref := rowRef(c.expensesSheet, row)
		c.logger.InfoContext(ctx, "Expense already exported", log.FieldExpenseID, e.ID, log.FieldSheetsRef, ref)
		return ref, nil
	}

	nextRow := len(ids) + 1
	if len(ids) == 0 {
		if err := c.writeRow(ctx, 1, headerRow()); err != nil {
			return "", fmt.Errorf("failed to write header to %s: %w", c.expensesSheet, err)
		}
		nextRow = 2
	}

	if err := c.writeRow(ctx, nextRow, ports.Row(e)); err != nil {
		return "", fmt.Errorf("failed to update row %d in sheet %s: %w", nextRow, c.expensesSheet, err)
	}

	ref := rowRef(c.expensesSheet, nextRow)
	c.logger.InfoContext(ctx, "Expense appended", log.FieldExpenseID, e.ID, log.FieldSheetsRef, ref, log.FieldOperation, log.OpAppend)
	return ref, nil
}

func (c *Client) writeRow(ctx context.Context, row int, values []any) error {
	rng := fmt.Sprintf("%s!A%d:F%d", quoteSheet(c.expensesSheet), row, row)
	return c.values.Update(ctx, c.spreadsheetID, rng, [][]any{values})
}

// serviceValues adapts *gsheet.Service to valuesAPI.
type serviceValues struct {
	svc *gsheet.Service
}

func (s serviceValues) Get(ctx context.Context, spreadsheetID, rng string) ([][]any, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (s serviceValues) Update(ctx context.Context, spreadsheetID, rng string, values [][]any) error {
	vr := &gsheet.ValueRange{Values: values}
	_, err := s.svc.Spreadsheets.Values.Update(spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	return err
}
