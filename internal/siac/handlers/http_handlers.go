package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/siacdev/siac/internal/siac/auth"
	"github.com/siacdev/siac/internal/siac/controller"
	siacerrors "github.com/siacdev/siac/internal/siac/errors"
	"github.com/siacdev/siac/internal/siac/importer"
	"github.com/siacdev/siac/internal/siac/models"
	"go.uber.org/zap"
)

// Handler bridges HTTP requests to the service layer.
type Handler struct {
	svc    *controller.Services
	authn  *auth.Authenticator
	logger *zap.Logger
}

func NewHandler(svc *controller.Services, authn *auth.Authenticator, logger *zap.Logger) *Handler {
	return &Handler{
		svc:    svc,
		authn:  authn,
		logger: logger.Named("http"),
	}
}

// Register mounts every route on the echo instance.
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	e.POST("/v1/login", h.Login)

	e.GET("/v1/companies", h.ListCompanies)
	e.POST("/v1/companies", h.CreateCompany)
	e.GET("/v1/companies/:id", h.GetCompany)
	e.PATCH("/v1/companies/:id", h.UpdateCompany)
	e.DELETE("/v1/companies/:id", h.DeleteCompany)

	e.GET("/v1/companies/:id/branches", h.ListBranches)
	e.POST("/v1/companies/:id/branches", h.AddBranch)
	e.PATCH("/v1/branches/:id", h.UpdateBranch)
	e.DELETE("/v1/branches/:id", h.DeleteBranch)

	e.GET("/v1/companies/:id/products", h.ListProducts)
	e.POST("/v1/companies/:id/products", h.AddProduct)
	e.PATCH("/v1/products/:id", h.UpdateProduct)
	e.DELETE("/v1/products/:id", h.DeleteProduct)

	e.GET("/v1/companies/:id/stock", h.ListStock)
	e.PUT("/v1/companies/:id/stock", h.SetStock)

	e.GET("/v1/companies/:id/catalog-config", h.GetCatalogConfig)
	e.PUT("/v1/companies/:id/catalog-config", h.SaveCatalogConfig)

	e.GET("/v1/modules", h.ListModules)
	e.POST("/v1/companies/:id/modules", h.InstallModule)

	e.GET("/v1/users", h.ListUsers)
	e.PUT("/v1/users/:id/access", h.UpdateUserAccess)

	e.POST("/v1/companies/:id/products/import", h.ImportProducts)
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	user, token, err := h.authn.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, loginResponse{Token: token, User: *user})
}

// Companies

func (h *Handler) ListCompanies(c echo.Context) error {
	companies, err := h.svc.Company.ListForUser(c.Request().Context(), auth.UserID(c))
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, companies)
}

func (h *Handler) GetCompany(c echo.Context) error {
	company, err := h.svc.Company.Get(c.Request().Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, company)
}

func (h *Handler) CreateCompany(c echo.Context) error {
	var req createCompanyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	company, err := h.svc.Company.Create(c.Request().Context(), auth.UserID(c), req.Name)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusCreated, company)
}

func (h *Handler) UpdateCompany(c echo.Context) error {
	var req updateCompanyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	company, err := h.svc.Company.Update(c.Request().Context(), auth.UserID(c), req.toUpdate(c.Param("id")))
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, company)
}

func (h *Handler) DeleteCompany(c echo.Context) error {
	if err := h.svc.Company.Delete(c.Request().Context(), auth.UserID(c), c.Param("id")); err != nil {
		return h.httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Branches

func (h *Handler) ListBranches(c echo.Context) error {
	branches, err := h.svc.Catalog.ListBranches(c.Request().Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, branches)
}

func (h *Handler) AddBranch(c echo.Context) error {
	var req branchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	branch, err := h.svc.Catalog.AddBranch(c.Request().Context(), auth.UserID(c), req.toBranch(c.Param("id")))
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusCreated, branch)
}

func (h *Handler) UpdateBranch(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req updateBranchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	branch, err := h.svc.Catalog.UpdateBranch(c.Request().Context(), auth.UserID(c), req.toUpdate(id))
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, branch)
}

func (h *Handler) DeleteBranch(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Catalog.DeleteBranch(c.Request().Context(), auth.UserID(c), id); err != nil {
		return h.httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Products

func (h *Handler) ListProducts(c echo.Context) error {
	products, err := h.svc.Catalog.ListProducts(c.Request().Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

func (h *Handler) AddProduct(c echo.Context) error {
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	product, err := h.svc.Catalog.AddProduct(c.Request().Context(), auth.UserID(c), req.toProduct(c.Param("id")))
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusCreated, product)
}

func (h *Handler) UpdateProduct(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req updateProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	product, err := h.svc.Catalog.UpdateProduct(c.Request().Context(), auth.UserID(c), req.toUpdate(id))
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *Handler) DeleteProduct(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Catalog.DeleteProduct(c.Request().Context(), auth.UserID(c), id); err != nil {
		return h.httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Stock

func (h *Handler) ListStock(c echo.Context) error {
	rows, err := h.svc.Catalog.ListStock(c.Request().Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}

func (h *Handler) SetStock(c echo.Context) error {
	var req setStockRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Quantity < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "quantity must not be negative")
	}
	err := h.svc.Catalog.SetStockQuantity(c.Request().Context(), auth.UserID(c), c.Param("id"),
		req.ProductID, req.BranchID, req.Quantity)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Catalog configuration

func (h *Handler) GetCatalogConfig(c echo.Context) error {
	cfg, err := h.svc.Catalog.GetCatalogConfig(c.Request().Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		return h.httpError(c, err)
	}
	if cfg == nil {
		return c.JSON(http.StatusOK, echo.Map{"fields": []models.CatalogField{}})
	}
	return c.JSON(http.StatusOK, cfg)
}

func (h *Handler) SaveCatalogConfig(c echo.Context) error {
	var req catalogConfigRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	cfg := &models.CatalogConfig{CompanyID: c.Param("id"), Fields: req.Fields}
	if err := h.svc.Catalog.SaveCatalogConfig(c.Request().Context(), auth.UserID(c), cfg); err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, cfg)
}

// Modules

func (h *Handler) ListModules(c echo.Context) error {
	installs, err := h.svc.Company.ListModules(c.Request().Context(), auth.UserID(c))
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, installs)
}

func (h *Handler) InstallModule(c echo.Context) error {
	var req installModuleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	install, err := h.svc.Company.InstallModule(c.Request().Context(), auth.UserID(c), c.Param("id"), req.Name)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusCreated, install)
}

// Users and access

func (h *Handler) ListUsers(c echo.Context) error {
	users, err := h.svc.Access.ListUsersWithCompanies(c.Request().Context())
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

func (h *Handler) UpdateUserAccess(c echo.Context) error {
	var req updateAccessRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.Access.UpdateUserAccess(c.Request().Context(), c.Param("id"), req.CompanyIDs); err != nil {
		return h.httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Import

func (h *Handler) ImportProducts(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read file")
	}
	defer file.Close()

	rows, err := importer.Parse(file)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	userID := auth.UserID(c)
	companyID := c.Param("id")
	if cfg, err := h.svc.Catalog.GetCatalogConfig(ctx, userID, companyID); err == nil && cfg != nil {
		importer.ApplyCatalogTypes(rows, cfg.Fields)
	}

	report, err := h.svc.Catalog.ImportProducts(ctx, userID, companyID, rows)
	if err != nil {
		return h.httpError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

// httpError maps service errors onto HTTP status codes.
func (h *Handler) httpError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, siacerrors.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, siacerrors.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	case errors.Is(err, siacerrors.ErrNoAuthenticatedUser):
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	case errors.Is(err, siacerrors.ErrDuplicateModule), errors.Is(err, siacerrors.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("request failed",
			zap.String("path", c.Path()),
			zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func pathID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}
