package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	apperrors "warung/internal/errors"
	"warung/internal/models"
	"warung/internal/repositories"
	"warung/internal/services"
	"warung/pkg/events"
)

func newTestBackup() (*services.BackupService, *services.InventoryService, *eventRecorder) {
	recorder := &eventRecorder{}
	productRepo := repositories.NewMockProductRepository()
	saleRepo := repositories.NewMockSaleRepository()
	inventory := services.NewInventoryService(productRepo, saleRepo, recorder)
	backup := services.NewBackupService(inventory, productRepo, saleRepo, recorder)
	return backup, inventory, recorder
}

func TestExport(t *testing.T) {
	backup, inventory, _ := newTestBackup()
	mustAdd(t, inventory, tornadoScrews())
	_, err := inventory.ProcessSale("TOR001", 10)
	assert.NoError(t, err)

	doc, err := backup.Export()
	assert.NoError(t, err)
	assert.Equal(t, services.BackupVersion, doc.Version)
	assert.WithinDuration(t, time.Now(), doc.ExportDate, time.Minute)
	assert.Len(t, doc.Products, 1)
	assert.Len(t, doc.Sales, 1)
	assert.Equal(t, 1, doc.Metadata.TotalProducts)
	assert.Equal(t, 1, doc.Metadata.TotalSales)
}

func TestImport_RequiresProductsList(t *testing.T) {
	backup, _, _ := newTestBackup()

	err := backup.Import(&services.BackupDocument{Version: services.BackupVersion})

	var importErr *apperrors.ImportValidationError
	assert.ErrorAs(t, err, &importErr)
}

func TestImport_CollectsRowErrors(t *testing.T) {
	backup, inventory, _ := newTestBackup()
	original := mustAdd(t, inventory, tornadoScrews())

	doc := &services.BackupDocument{
		Version: services.BackupVersion,
		Products: []models.Product{
			{ID: 1, SKU: "BLT010", Name: "Hex Bolts", Category: "Hardware", Price: 1.10, Quantity: 40, MinStock: 10},
			{ID: 2, SKU: "X", Name: "Bad Row", Category: "Hardware"},
			{ID: 3, SKU: "BLT010", Name: "Duplicate Bolts", Category: "Hardware", Price: 1.10, Quantity: 1, MinStock: 1},
		},
	}

	err := backup.Import(doc)

	var importErr *apperrors.ImportValidationError
	assert.ErrorAs(t, err, &importErr)
	assert.Len(t, importErr.Rows, 2)
	assert.Equal(t, 1, importErr.Rows[0].Row)
	assert.Equal(t, "sku", importErr.Rows[0].Field)
	assert.Equal(t, 2, importErr.Rows[1].Row)
	assert.Equal(t, "sku", importErr.Rows[1].Field)

	// A rejected import must not touch existing data.
	current, err := inventory.GetProduct(original.ID)
	assert.NoError(t, err)
	assert.Equal(t, "TOR001", current.SKU)
}

func TestImport_ReplacesCatalogAndSales(t *testing.T) {
	backup, inventory, recorder := newTestBackup()
	mustAdd(t, inventory, tornadoScrews())
	_, err := inventory.ProcessSale("TOR001", 5)
	assert.NoError(t, err)

	doc := &services.BackupDocument{
		Version: services.BackupVersion,
		Products: []models.Product{
			{ID: 10, SKU: "blt010", Name: "Hex Bolts", Category: "Hardware", Price: 1.10, Quantity: 40, MinStock: 10},
			{ID: 11, SKU: "TEA001", Name: "Jasmine Tea", Category: "Beverages", Price: 3.50, Quantity: 12, MinStock: 5},
		},
		Sales: []models.Sale{
			{ID: 7, ProductID: 10, SKU: "BLT010", Name: "Hex Bolts", Quantity: 2, UnitPrice: 1.10, Total: 2.20, Date: time.Now()},
		},
	}

	assert.NoError(t, backup.Import(doc))

	products := inventory.GetAllProducts()
	assert.Len(t, products, 2)
	assert.Equal(t, "BLT010", products[0].SKU, "imported SKUs are upper-cased")

	sales, err := inventory.ListSales()
	assert.NoError(t, err)
	assert.Len(t, sales, 1)
	assert.Equal(t, uint(7), sales[0].ID)

	assert.Contains(t, recorder.types(), events.DataImported)

	// The replaced catalog answers lookups, the old one is gone.
	_, err = inventory.FindProduct("TOR001")
	var notFoundErr *apperrors.NotFoundError
	assert.ErrorAs(t, err, &notFoundErr)

	found, err := inventory.FindProduct("blt010")
	assert.NoError(t, err)
	assert.Equal(t, uint(10), found.ID)
}
