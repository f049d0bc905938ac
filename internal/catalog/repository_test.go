package catalog_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/fmagalhaes/storefront-backend/internal/catalog"
	"github.com/fmagalhaes/storefront-backend/internal/page"
)

var testDB *pgxpool.Pool

// TestMain connects to the test database described by the DB_*_TEST
// variables (localhost defaults). The schema must already be migrated.
// When no database answers, every repository test here skips.
func TestMain(m *testing.M) {
	testDB = connectTestDB()

	exitCode := m.Run()

	if testDB != nil {
		testDB.Close()
	}
	os.Exit(exitCode)
}

func connectTestDB() *pgxpool.Pool {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		testEnv("DB_HOST_TEST", "localhost"),
		testEnv("DB_PORT_TEST", "5432"),
		testEnv("DB_USER_TEST", "postgres"),
		testEnv("DB_PASSWORD_TEST", "postgres"),
		testEnv("DB_NAME_TEST", "storefront_test"),
		testEnv("DB_SSLMODE_TEST", "disable"),
	)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil
	}
	poolConfig.MaxConns = 5

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil
	}
	return pool
}

func testEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func requireTestDB(tb testing.TB) {
	tb.Helper()
	if testDB == nil {
		tb.Skip("test database not available")
	}
}

func truncateCatalogTables(tb testing.TB) {
	tb.Helper()
	_, err := testDB.Exec(context.Background(),
		`TRUNCATE TABLE order_items, orders, product_categories, products, categories RESTART IDENTITY CASCADE`)
	require.NoError(tb, err, "failed to truncate catalog tables")
}

func mustCreateCategory(tb testing.TB, repo catalog.Repository, name string) *catalog.Category {
	tb.Helper()
	created, err := repo.CreateCategory(context.Background(), &catalog.Category{Name: name})
	require.NoError(tb, err)
	return created
}

func mustCreateProduct(tb testing.TB, repo catalog.Repository, name string, price float64, categoryIDs ...int64) *catalog.Product {
	tb.Helper()
	created, err := repo.CreateProduct(context.Background(), &catalog.Product{
		Name:        name,
		Price:       price,
		CategoryIDs: categoryIDs,
	})
	require.NoError(tb, err)
	return created
}

func TestCategoryRepository_CreateAndGetByID(t *testing.T) {
	requireTestDB(t)
	t.Cleanup(func() { truncateCatalogTables(t) })

	repo := catalog.NewRepository(testDB)

	created := mustCreateCategory(t, repo, "Computers")
	require.NotZero(t, created.ID)

	found, err := repo.GetCategoryByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, "Computers", found.Name)
}

func TestCategoryRepository_Delete_WithProducts_ReferentialConflict(t *testing.T) {
	requireTestDB(t)
	t.Cleanup(func() { truncateCatalogTables(t) })

	repo := catalog.NewRepository(testDB)

	cat := mustCreateCategory(t, repo, "Computers")
	mustCreateProduct(t, repo, "Desktop PC", 2000, cat.ID)

	err := repo.DeleteCategory(context.Background(), cat.ID)
	require.ErrorIs(t, err, catalog.ErrCategoryHasProducts)
}

// A product linked to more than one matching category must still come
// back exactly once.
func TestProductRepository_Search_DeduplicatesAcrossCategories(t *testing.T) {
	requireTestDB(t)
	t.Cleanup(func() { truncateCatalogTables(t) })

	repo := catalog.NewRepository(testDB)

	computers := mustCreateCategory(t, repo, "Computers")
	office := mustCreateCategory(t, repo, "Office")
	electronics := mustCreateCategory(t, repo, "Electronics")

	smartphone := mustCreateProduct(t, repo, "Smartphone", 800, computers.ID, electronics.ID)
	smartTV := mustCreateProduct(t, repo, "Smart TV", 1200, electronics.ID)
	mustCreateProduct(t, repo, "Desk", 300, office.ID)
	mustCreateProduct(t, repo, "Smart Lamp", 50, office.ID)

	req := page.Request{Page: 0, Size: 24, SortBy: "name", Direction: page.DirectionAsc}
	p, err := repo.SearchProducts(context.Background(), "smart", []int64{computers.ID, electronics.ID}, req)
	require.NoError(t, err)

	require.Equal(t, int64(2), p.TotalElements)
	require.Len(t, p.Content, 2)
	gotIDs := []int64{p.Content[0].ID, p.Content[1].ID}
	require.ElementsMatch(t, []int64{smartphone.ID, smartTV.ID}, gotIDs)
}

func TestProductRepository_Search_NameIsCaseInsensitive(t *testing.T) {
	requireTestDB(t)
	t.Cleanup(func() { truncateCatalogTables(t) })

	repo := catalog.NewRepository(testDB)

	cat := mustCreateCategory(t, repo, "Computers")
	mustCreateProduct(t, repo, "Smartphone", 800, cat.ID)

	req := page.Request{Page: 0, Size: 24, SortBy: "name", Direction: page.DirectionAsc}
	p, err := repo.SearchProducts(context.Background(), "SMART", []int64{cat.ID}, req)
	require.NoError(t, err)
	require.Equal(t, int64(1), p.TotalElements)
}
