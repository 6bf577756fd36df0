//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"expensetracker/internal/core"
)

// Integration tests require a real spreadsheet shared with a service account.
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_AppendExpense(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	cfg := Config{
		SpreadsheetID:   os.Getenv("GOOGLE_SPREADSHEET_ID"),
		SheetName:       os.Getenv("GOOGLE_SHEET_NAME"),
		CredentialsJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		CredentialsFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
	}
	if cfg.SpreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	if cfg.CredentialsJSON == "" && cfg.CredentialsFile == "" {
		t.Skip("service account credentials not configured, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := New(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	expense := core.Expense{
		ID:           time.Now().Unix(),
		Username:     "integration",
		CategoryName: "Test",
		Amount:       core.Money{Cents: 1234},
		Description:  "Integration Test Expense",
		Date:         core.DateOf(time.Now()),
	}

	ref, err := client.Append(ctx, expense)
	if err != nil {
		t.Fatalf("Failed to append expense: %v", err)
	}
	t.Logf("Created expense with reference: %s", ref)

	again, err := client.Append(ctx, expense)
	if err != nil {
		t.Fatalf("Second append failed: %v", err)
	}
	if again != ref {
		t.Errorf("second append ref = %q, want %q", again, ref)
	}
}
