package state

import (
	"testing"

	siacerrors "github.com/siacdev/siac/internal/siac/errors"
	"github.com/siacdev/siac/internal/siac/models"
	"github.com/siacdev/siac/internal/siac/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompanyFormRequiresName(t *testing.T) {
	assert.ErrorIs(t, CompanyForm{Name: "  "}.Validate(), siacerrors.ErrInvalidInput)
	assert.NoError(t, CompanyForm{Name: "Acme"}.Validate())
}

func TestBranchFormValidation(t *testing.T) {
	assert.ErrorIs(t, BranchForm{}.Validate(), siacerrors.ErrInvalidInput)
	assert.ErrorIs(t, BranchForm{Name: "Centro", Type: "DRIVE_THRU"}.Validate(), siacerrors.ErrInvalidInput)
	assert.NoError(t, BranchForm{Name: "Centro", Type: models.BranchWarehouse}.Validate())
}

func TestBranchFormApplyPlace(t *testing.T) {
	form := BranchForm{Name: "Centro"}
	form.ApplyPlace(&widget.PlaceSelection{Address: "Av. Reforma 100", Lat: 19.43, Lng: -99.13})

	assert.Equal(t, "Av. Reforma 100", form.Address)
	assert.InDelta(t, 19.43, form.Latitude, 1e-9)
	assert.InDelta(t, -99.13, form.Longitude, 1e-9)
}

func TestStockFormRejectsNegativeQuantity(t *testing.T) {
	assert.ErrorIs(t, StockForm{Quantity: -1}.Validate(), siacerrors.ErrInvalidInput)
	assert.NoError(t, StockForm{Quantity: 0}.Validate())
}

func catalogConfig(fields ...models.CatalogField) *models.CatalogConfig {
	return &models.CatalogConfig{CompanyID: "acme-id", Fields: fields}
}

func TestProductFormFixedFields(t *testing.T) {
	assert.ErrorIs(t, ProductForm{SKU: "S-1"}.Validate(nil), siacerrors.ErrInvalidInput)
	assert.ErrorIs(t, ProductForm{Name: "Silla"}.Validate(nil), siacerrors.ErrInvalidInput)
	assert.NoError(t, ProductForm{Name: "Silla", SKU: "S-1"}.Validate(nil))
}

func TestProductFormRequiredCustomField(t *testing.T) {
	cfg := catalogConfig(models.CatalogField{Key: "color", Type: models.FieldText, Required: true})

	form := ProductForm{Name: "Silla", SKU: "S-1"}
	assert.ErrorIs(t, form.Validate(cfg), siacerrors.ErrInvalidInput)

	form.CustomFields = models.CustomFields{"color": ""}
	assert.ErrorIs(t, form.Validate(cfg), siacerrors.ErrInvalidInput, "empty counts as missing")

	form.CustomFields = models.CustomFields{"color": "rojo"}
	assert.NoError(t, form.Validate(cfg))
}

func TestProductFormTypeChecks(t *testing.T) {
	cfg := catalogConfig(
		models.CatalogField{Key: "talla", Type: models.FieldNumber},
		models.CatalogField{Key: "activo", Type: models.FieldBoolean},
	)

	form := ProductForm{Name: "Silla", SKU: "S-1", CustomFields: models.CustomFields{"talla": "grande"}}
	assert.ErrorIs(t, form.Validate(cfg), siacerrors.ErrInvalidInput)

	form.CustomFields = models.CustomFields{"talla": 45, "activo": true}
	assert.NoError(t, form.Validate(cfg), "plain ints count as numbers")

	form.CustomFields = models.CustomFields{"activo": "sí"}
	assert.ErrorIs(t, form.Validate(cfg), siacerrors.ErrInvalidInput)
}

func TestProductFormRejectsUnknownField(t *testing.T) {
	cfg := catalogConfig(models.CatalogField{Key: "color", Type: models.FieldText})

	form := ProductForm{Name: "Silla", SKU: "S-1", CustomFields: models.CustomFields{"peso": "3kg"}}
	err := form.Validate(cfg)
	require.ErrorIs(t, err, siacerrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "peso")
}

func TestProductFormToModel(t *testing.T) {
	form := ProductForm{Name: "Silla", SKU: "S-1", CustomFields: models.CustomFields{"color": "rojo"}}
	product := form.Product("acme-id")

	assert.Equal(t, "acme-id", product.CompanyID)
	assert.Equal(t, "rojo", product.CustomFields["color"])
}
