package state

import (
	"fmt"
	"strings"

	siacerrors "github.com/siacdev/siac/internal/siac/errors"
	"github.com/siacdev/siac/internal/siac/models"
	"github.com/siacdev/siac/internal/siac/widget"
)

// CompanyForm captures the new-company input.
type CompanyForm struct {
	Name string
}

func (f CompanyForm) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("%w: company name is required", siacerrors.ErrInvalidInput)
	}
	return nil
}

// BranchForm captures the location editor input. ApplyPlace fills the
// address and coordinates from a map-widget selection.
type BranchForm struct {
	ID        uint
	Name      string
	Address   string
	Latitude  float64
	Longitude float64
	Type      models.BranchType
}

func (f *BranchForm) ApplyPlace(selection *widget.PlaceSelection) {
	f.Address = selection.Address
	f.Latitude = selection.Lat
	f.Longitude = selection.Lng
}

func (f BranchForm) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("%w: branch name is required", siacerrors.ErrInvalidInput)
	}
	switch f.Type {
	case "", models.BranchPOS, models.BranchWarehouse:
	default:
		return fmt.Errorf("%w: unknown branch type %q", siacerrors.ErrInvalidInput, f.Type)
	}
	return nil
}

// Branch converts the form into the model. The zero Type defaults at
// the service layer.
func (f BranchForm) Branch(companyID string) *models.Branch {
	return &models.Branch{
		ID:        f.ID,
		Name:      f.Name,
		Address:   f.Address,
		Latitude:  f.Latitude,
		Longitude: f.Longitude,
		Type:      f.Type,
		CompanyID: companyID,
	}
}

// StockForm captures a quantity edit for one (product, branch) cell.
type StockForm struct {
	ProductID uint
	BranchID  uint
	Quantity  int
}

func (f StockForm) Validate() error {
	if f.Quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", siacerrors.ErrInvalidInput)
	}
	return nil
}

// ProductForm captures the product modal input. The custom fields are
// dynamic: which keys exist, their types and whether they are required
// comes from the company's catalog configuration.
type ProductForm struct {
	ID           uint
	Name         string
	SKU          string
	Description  string
	CustomFields models.CustomFields
}

// Validate checks the fixed fields and every configured custom field.
// A nil config means the company has no custom fields; any provided
// extras are rejected so the form cannot drift from the catalog.
func (f ProductForm) Validate(cfg *models.CatalogConfig) error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("%w: product name is required", siacerrors.ErrInvalidInput)
	}
	if strings.TrimSpace(f.SKU) == "" {
		return fmt.Errorf("%w: product sku is required", siacerrors.ErrInvalidInput)
	}

	var fields []models.CatalogField
	if cfg != nil {
		fields = cfg.Fields
	}
	known := make(map[string]models.CatalogField, len(fields))
	for _, field := range fields {
		known[field.Key] = field
	}
	for key := range f.CustomFields {
		if _, ok := known[key]; !ok {
			return fmt.Errorf("%w: field %q is not part of the catalog", siacerrors.ErrInvalidInput, key)
		}
	}
	for _, field := range fields {
		value, present := f.CustomFields[field.Key]
		if !present || value == nil || value == "" {
			if field.Required {
				return fmt.Errorf("%w: field %q is required", siacerrors.ErrInvalidInput, field.Key)
			}
			continue
		}
		if err := checkFieldType(field, value); err != nil {
			return err
		}
	}
	return nil
}

func checkFieldType(field models.CatalogField, value any) error {
	switch field.Type {
	case models.FieldText:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("%w: field %q must be text", siacerrors.ErrInvalidInput, field.Key)
		}
	case models.FieldNumber:
		switch value.(type) {
		case float64, float32, int, int64:
		default:
			return fmt.Errorf("%w: field %q must be a number", siacerrors.ErrInvalidInput, field.Key)
		}
	case models.FieldBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("%w: field %q must be a boolean", siacerrors.ErrInvalidInput, field.Key)
		}
	}
	return nil
}

// Product converts the form into the model.
func (f ProductForm) Product(companyID string) *models.Product {
	return &models.Product{
		ID:           f.ID,
		Name:         f.Name,
		SKU:          f.SKU,
		Description:  f.Description,
		CustomFields: f.CustomFields,
		CompanyID:    companyID,
	}
}
