package repository

import (
	"os"
	"strings"
	"testing"

	"cmga_backend/internal/delivery/domain"
)

// The fake store used by the service tests never executes SQL, so a column
// referenced by a statement but missing from the schema would only surface in
// production. These tests pin the invoices table to what the repository
// actually writes.

func invoicesTableDDL(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("../../../migrations/000001_core_tables.up.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	sql := string(data)
	start := strings.Index(sql, "CREATE TABLE invoices (")
	if start < 0 {
		t.Fatal("migration does not create the invoices table")
	}
	end := strings.Index(sql[start:], ");")
	if end < 0 {
		t.Fatal("unterminated invoices table definition")
	}
	return sql[start : start+end]
}

func TestInvoicesTableHasColumnsTheEngineUpdates(t *testing.T) {
	ddl := invoicesTableDDL(t)

	// Every column named by UpdateInvoiceDelivery and InvoiceForUpdate.
	for _, column := range []string{
		"number",
		"status",
		"is_completed",
		"is_complete_delivery",
		"delivered_at",
		"created_at",
		"updated_at",
	} {
		if !strings.Contains(ddl, column) {
			t.Errorf("invoices table is missing column %q", column)
		}
	}
}

func TestInvoicesDefaultStatusIsAnInvoiceStatus(t *testing.T) {
	ddl := invoicesTableDDL(t)

	statusLine := ""
	for _, line := range strings.Split(ddl, "\n") {
		if strings.Contains(line, "status text") {
			statusLine = line
			break
		}
	}
	if statusLine == "" {
		t.Fatal("invoices table has no status column")
	}

	known := []domain.InvoiceStatus{
		domain.InvoiceNonReceptionnee,
		domain.InvoiceEnAttente,
		domain.InvoiceEnCours,
		domain.InvoiceLivree,
		domain.InvoiceRetour,
		domain.InvoiceRegule,
	}
	for _, status := range known {
		if strings.Contains(statusLine, "'"+string(status)+"'") {
			return
		}
	}
	t.Fatalf("invoices.status default is not a known invoice status: %s", strings.TrimSpace(statusLine))
}
