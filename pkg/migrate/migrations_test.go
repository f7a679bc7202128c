package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/bookstore-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no %s migration file found", suffix)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func assertContains(t *testing.T, content string, checks []string) {
	t.Helper()
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCatalogMigrationContainsSchemas(t *testing.T) {
	assertContains(t, readMigration(t, "create_catalog_tables"), []string{
		"CREATE TYPE profile_role AS ENUM ('customer', 'admin')",
		"CREATE TABLE IF NOT EXISTS items",
		"CREATE TABLE IF NOT EXISTS profiles",
		"CREATE TABLE IF NOT EXISTS discounts",
		"CONSTRAINT discounts_code_key UNIQUE (code)",
	})
}

func TestOrdersMigrationContainsFulfillmentSchema(t *testing.T) {
	assertContains(t, readMigration(t, "create_orders_tables"), []string{
		"CREATE TYPE fulfillment_status AS ENUM ('pending', 'processing', 'shipped', 'delivered', 'cancelled')",
		"CREATE TABLE IF NOT EXISTS order_fulfillments",
		"shipped_qty integer NOT NULL DEFAULT 0 CHECK (shipped_qty >= 0)",
		"CONSTRAINT order_fulfillments_order_item_key UNIQUE (order_id, item_id)",
		"DROP TYPE IF EXISTS fulfillment_status",
	})
}

func TestCartAndWishlistMigrations(t *testing.T) {
	assertContains(t, readMigration(t, "create_cart_tables"), []string{
		"CONSTRAINT carts_user_id_key UNIQUE (user_id)",
		"PRIMARY KEY (cart_id, item_id)",
	})
	assertContains(t, readMigration(t, "create_wishlist_items_table"), []string{
		"CONSTRAINT wishlist_items_user_item_key UNIQUE (user_id, item_id)",
	})
}

func TestValidateDirAcceptsRepoMigrations(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("expected repo migrations to validate: %v", err)
	}
}

func TestCreateSQLMigrationThenValidate(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Book Isbn!")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_book_isbn.sql") {
		t.Fatalf("unexpected filename %q", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("expected generated migration to validate: %v", err)
	}
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "init.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := migrate.ValidateDir(dir); err == nil {
		t.Fatal("expected invalid filename to be rejected")
	}
}
