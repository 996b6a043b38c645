// Package models defines the core domain models for the SIAC platform:
// tenants (companies), their branches, inventory and stock, module
// installs, and the user/grant pairs that control visibility.
package models

import (
	"time"
)

// BranchType tags the kind of physical location a branch represents.
type BranchType string

const (
	// BranchPOS is a point-of-sale location.
	BranchPOS BranchType = "POS"
	// BranchWarehouse is a storage-only location.
	BranchWarehouse BranchType = "ALMACEN"
)

// Names of the modules seeded into every new company.
const (
	ModuleStockControl      = "Control de Existencias"
	ModulePhysicalLocations = "Ubicaciones Físicas"
)

// Company is the tenant root entity. It owns branches, products, stock
// and module installs, and is linked to users through CompanyGrant rows.
type Company struct {
	// ID is a slug derived from the company name at creation time and
	// is immutable afterwards.
	ID string `gorm:"primaryKey"`
	// Name is the display name of the company.
	Name string
	// RootAdminID is the id of the user that created the company.
	RootAdminID string
	// LogoURL and LogoIconURL are optional static asset locations.
	LogoURL     string
	LogoIconURL string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// User is an authenticated identity. Users relate to companies only
// through grants.
type User struct {
	ID    string `gorm:"primaryKey"`
	Email string `gorm:"uniqueIndex"`
}

// CompanyGrant links a user to a company it may see. The pair is the
// key; a user holds at most one grant per company.
type CompanyGrant struct {
	UserID    string `gorm:"primaryKey"`
	CompanyID string `gorm:"primaryKey"`
}

// UserWithCompanies is the administration view of a user: the identity
// plus every company the user currently has a grant for.
type UserWithCompanies struct {
	User
	Companies []Company
}

// Branch is a physical location belonging to exactly one company. The
// company id is fixed at creation.
type Branch struct {
	ID        uint `gorm:"primaryKey;autoIncrement"`
	Name      string
	Address   string
	Latitude  float64
	Longitude float64
	Type      BranchType
	CompanyID string `gorm:"index"`
}

// CustomFields holds free-form attribute values keyed by catalog field key.
type CustomFields map[string]any

// Product is a catalog item belonging to one company. Besides the fixed
// fields it carries free-form custom fields driven by the company's
// catalog configuration.
type Product struct {
	ID           uint `gorm:"primaryKey;autoIncrement"`
	Name         string
	SKU          string
	Description  string
	CustomFields CustomFields `gorm:"serializer:json"`
	CompanyID    string       `gorm:"index"`
}

// Stock is the quantity of one product at one branch. The composite
// (product, branch) pair is the key; a row is materialized with
// quantity zero for every branch existing when its product is created.
type Stock struct {
	ProductID uint `gorm:"primaryKey;autoIncrement:false"`
	BranchID  uint `gorm:"primaryKey;autoIncrement:false"`
	Quantity  int
	CompanyID string `gorm:"index"`
}

// ModuleInstall records that a named module is enabled for a company.
// A module name is installed at most once per company.
type ModuleInstall struct {
	ID        uint `gorm:"primaryKey;autoIncrement"`
	CompanyID string `gorm:"index"`
	Name      string
}

// FieldType enumerates the value types a catalog field can take.
type FieldType string

const (
	FieldText    FieldType = "text"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
)

// CatalogField defines one dynamic product attribute for a company's
// catalog. It drives form generation and import column mapping.
type CatalogField struct {
	Key      string    `json:"key"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
}

// CatalogConfig is a company's catalog configuration: the ordered set
// of custom field definitions its products carry.
type CatalogConfig struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	CompanyID string `gorm:"uniqueIndex"`
	Fields    []CatalogField `gorm:"serializer:json"`
}

// CompanyUpdate represents the fields that can be updated for a Company.
// Pointer types are used to allow partial updates.
type CompanyUpdate struct {
	ID          string
	Name        *string
	LogoURL     *string
	LogoIconURL *string
}

// BranchUpdate represents a partial update of a Branch. The company id
// is not updatable.
type BranchUpdate struct {
	ID        uint
	Name      *string
	Address   *string
	Latitude  *float64
	Longitude *float64
	Type      *BranchType
}

// ProductUpdate represents a partial update of a Product.
type ProductUpdate struct {
	ID           uint
	Name         *string
	SKU          *string
	Description  *string
	CustomFields *CustomFields
}
