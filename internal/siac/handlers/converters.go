package handlers

import (
	"github.com/siacdev/siac/internal/siac/models"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type createCompanyRequest struct {
	Name string `json:"name"`
}

type updateCompanyRequest struct {
	Name        *string `json:"name"`
	LogoURL     *string `json:"logo_url"`
	LogoIconURL *string `json:"logo_icon_url"`
}

func (r updateCompanyRequest) toUpdate(id string) *models.CompanyUpdate {
	return &models.CompanyUpdate{
		ID:          id,
		Name:        r.Name,
		LogoURL:     r.LogoURL,
		LogoIconURL: r.LogoIconURL,
	}
}

type branchRequest struct {
	Name      string            `json:"name"`
	Address   string            `json:"address"`
	Latitude  float64           `json:"latitude"`
	Longitude float64           `json:"longitude"`
	Type      models.BranchType `json:"type"`
}

func (r branchRequest) toBranch(companyID string) *models.Branch {
	return &models.Branch{
		Name:      r.Name,
		Address:   r.Address,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Type:      r.Type,
		CompanyID: companyID,
	}
}

type updateBranchRequest struct {
	Name      *string            `json:"name"`
	Address   *string            `json:"address"`
	Latitude  *float64           `json:"latitude"`
	Longitude *float64           `json:"longitude"`
	Type      *models.BranchType `json:"type"`
}

func (r updateBranchRequest) toUpdate(id uint) *models.BranchUpdate {
	return &models.BranchUpdate{
		ID:        id,
		Name:      r.Name,
		Address:   r.Address,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Type:      r.Type,
	}
}

type productRequest struct {
	Name         string              `json:"name"`
	SKU          string              `json:"sku"`
	Description  string              `json:"description"`
	CustomFields models.CustomFields `json:"custom_fields"`
}

func (r productRequest) toProduct(companyID string) *models.Product {
	return &models.Product{
		Name:         r.Name,
		SKU:          r.SKU,
		Description:  r.Description,
		CustomFields: r.CustomFields,
		CompanyID:    companyID,
	}
}

type updateProductRequest struct {
	Name         *string              `json:"name"`
	SKU          *string              `json:"sku"`
	Description  *string              `json:"description"`
	CustomFields *models.CustomFields `json:"custom_fields"`
}

func (r updateProductRequest) toUpdate(id uint) *models.ProductUpdate {
	return &models.ProductUpdate{
		ID:           id,
		Name:         r.Name,
		SKU:          r.SKU,
		Description:  r.Description,
		CustomFields: r.CustomFields,
	}
}

type setStockRequest struct {
	ProductID uint `json:"product_id"`
	BranchID  uint `json:"branch_id"`
	Quantity  int  `json:"quantity"`
}

type catalogConfigRequest struct {
	Fields []models.CatalogField `json:"fields"`
}

type installModuleRequest struct {
	Name string `json:"name"`
}

type updateAccessRequest struct {
	CompanyIDs []string `json:"company_ids"`
}
