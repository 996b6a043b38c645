package state

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/siacdev/siac/internal/pkg/utils"
	"github.com/siacdev/siac/internal/siac/async"
	"github.com/siacdev/siac/internal/siac/gateway"
	"github.com/siacdev/siac/internal/siac/importer"
	"github.com/siacdev/siac/internal/siac/models"
	"go.uber.org/zap"
)

// Controller drives the store from user intents: it validates forms,
// issues gateway operations and dispatches the completion events.
// Completions run on background goroutines; the reducer's generation
// guard keeps late dashboard reads from landing in the wrong view.
type Controller struct {
	store  *Store
	gw     *gateway.Gateway
	userID string
	logger *zap.Logger
}

func NewController(store *Store, gw *gateway.Gateway, userID string, logger *zap.Logger) *Controller {
	return &Controller{
		store:  store,
		gw:     gw,
		userID: userID,
		logger: logger.Named("view_controller"),
	}
}

// Store exposes the underlying store for subscriptions and snapshots.
func (c *Controller) Store() *Store { return c.store }

// Initialize loads the launcher data: companies, module installs and
// the user administration listing.
func (c *Controller) Initialize(ctx context.Context) {
	go settle(c, ctx, c.gw.ListCompanies(ctx, c.userID), func(companies []models.Company) Event {
		return CompaniesLoaded{Companies: companies}
	})
	go settle(c, ctx, c.gw.ListModules(ctx, c.userID), func(installs []models.ModuleInstall) Event {
		return ModulesLoaded{Installs: installs}
	})
	go settle(c, ctx, c.gw.ListUsers(ctx), func(users []models.UserWithCompanies) Event {
		return UsersLoaded{Users: users}
	})
}

// OpenCompany navigates to a company dashboard and fans out the four
// data reads. Each completion is tagged with the generation captured at
// navigation time; if the user navigates again before a read lands, the
// reducer drops it.
func (c *Controller) OpenCompany(ctx context.Context, companyID string) {
	generation := c.store.Dispatch(NavigatedToBusiness{CompanyID: companyID}).Generation

	go settleLoad(c, ctx, generation, c.gw.ListBranches(ctx, c.userID, companyID),
		func(branches []models.Branch) Event {
			return BranchesLoaded{Generation: generation, Branches: branches}
		})
	go settleLoad(c, ctx, generation, c.gw.ListProducts(ctx, c.userID, companyID),
		func(products []models.Product) Event {
			return ProductsLoaded{Generation: generation, Products: products}
		})
	go settleLoad(c, ctx, generation, c.gw.ListStock(ctx, c.userID, companyID),
		func(rows []models.Stock) Event {
			return StockLoaded{Generation: generation, Rows: rows}
		})
	go settleLoad(c, ctx, generation, c.gw.GetCatalogConfig(ctx, c.userID, companyID),
		func(cfg *models.CatalogConfig) Event {
			return CatalogConfigLoaded{Generation: generation, Config: cfg}
		})
}

// BackToLauncher leaves the dashboard. In-flight dashboard reads become
// stale and will be discarded on arrival.
func (c *Controller) BackToLauncher() {
	c.store.Dispatch(NavigatedToLauncher{})
}

// OpenUserManagement switches to the administration view and refreshes
// the user listing.
func (c *Controller) OpenUserManagement(ctx context.Context) {
	c.store.Dispatch(NavigatedToUserManagement{})
	go settle(c, ctx, c.gw.ListUsers(ctx), func(users []models.UserWithCompanies) Event {
		return UsersLoaded{Users: users}
	})
}

// CreateCompany validates the form and submits it. Validation failures
// surface immediately; the company appears in state only after the
// gateway resolves.
func (c *Controller) CreateCompany(ctx context.Context, form CompanyForm) error {
	if err := form.Validate(); err != nil {
		c.store.Dispatch(SubmitFailed{Message: err.Error()})
		return err
	}
	c.store.Dispatch(SubmitStarted{})
	go settle(c, ctx, c.gw.CreateCompany(ctx, c.userID, form.Name), func(company *models.Company) Event {
		return CompanyAppended{Company: *company}
	})
	return nil
}

// SaveBranch adds or updates a location depending on whether the form
// carries an id.
func (c *Controller) SaveBranch(ctx context.Context, form BranchForm) error {
	if err := form.Validate(); err != nil {
		c.store.Dispatch(SubmitFailed{Message: err.Error()})
		return err
	}
	c.store.Dispatch(SubmitStarted{})
	if form.ID == 0 {
		companyID := c.store.State().ActiveCompanyID
		go settle(c, ctx, c.gw.AddBranch(ctx, c.userID, form.Branch(companyID)), func(branch *models.Branch) Event {
			return BranchAppended{Branch: *branch}
		})
		return nil
	}
	update := &models.BranchUpdate{
		ID:        form.ID,
		Name:      utils.Ptr(form.Name),
		Address:   utils.Ptr(form.Address),
		Latitude:  utils.Ptr(form.Latitude),
		Longitude: utils.Ptr(form.Longitude),
	}
	if form.Type != "" {
		update.Type = utils.Ptr(form.Type)
	}
	go settle(c, ctx, c.gw.UpdateBranch(ctx, c.userID, update), func(branch *models.Branch) Event {
		return BranchReplaced{Branch: *branch}
	})
	return nil
}

func (c *Controller) DeleteBranch(ctx context.Context, id uint) {
	c.store.Dispatch(SubmitStarted{})
	go settle(c, ctx, c.gw.DeleteBranch(ctx, c.userID, id), func(struct{}) Event {
		return BranchRemoved{ID: id}
	})
}

// SaveProduct validates the form against the loaded catalog
// configuration, then adds or updates the product.
func (c *Controller) SaveProduct(ctx context.Context, form ProductForm) error {
	snapshot := c.store.State()
	if err := form.Validate(snapshot.CatalogConfig); err != nil {
		c.store.Dispatch(SubmitFailed{Message: err.Error()})
		return err
	}
	c.store.Dispatch(SubmitStarted{})
	if form.ID == 0 {
		go settle(c, ctx, c.gw.AddProduct(ctx, c.userID, form.Product(snapshot.ActiveCompanyID)),
			func(product *models.Product) Event {
				return ProductAppended{Product: *product}
			})
		return nil
	}
	update := &models.ProductUpdate{
		ID:          form.ID,
		Name:        utils.Ptr(form.Name),
		SKU:         utils.Ptr(form.SKU),
		Description: utils.Ptr(form.Description),
	}
	if form.CustomFields != nil {
		update.CustomFields = &form.CustomFields
	}
	go settle(c, ctx, c.gw.UpdateProduct(ctx, c.userID, update), func(product *models.Product) Event {
		return ProductReplaced{Product: *product}
	})
	return nil
}

func (c *Controller) DeleteProduct(ctx context.Context, id uint) {
	c.store.Dispatch(SubmitStarted{})
	go settle(c, ctx, c.gw.DeleteProduct(ctx, c.userID, id), func(struct{}) Event {
		return ProductRemoved{ID: id}
	})
}

// SetStock validates the quantity and writes one stock cell.
func (c *Controller) SetStock(ctx context.Context, form StockForm) error {
	if err := form.Validate(); err != nil {
		c.store.Dispatch(SubmitFailed{Message: err.Error()})
		return err
	}
	companyID := c.store.State().ActiveCompanyID
	c.store.Dispatch(SubmitStarted{})
	go settle(c, ctx, c.gw.SetStockQuantity(ctx, c.userID, companyID, form.ProductID, form.BranchID, form.Quantity),
		func(struct{}) Event {
			return StockReplaced{Row: models.Stock{
				ProductID: form.ProductID,
				BranchID:  form.BranchID,
				Quantity:  form.Quantity,
				CompanyID: companyID,
			}}
		})
	return nil
}

// InstallModule enables a marketplace module for the active company.
func (c *Controller) InstallModule(ctx context.Context, name string) {
	companyID := c.store.State().ActiveCompanyID
	c.store.Dispatch(SubmitStarted{})
	go settle(c, ctx, c.gw.InstallModule(ctx, c.userID, companyID, name),
		func(install *models.ModuleInstall) Event {
			return ModuleAppended{Install: *install}
		})
}

// OpenAccessEditor seeds the grant checkboxes from the user's current
// companies.
func (c *Controller) OpenAccessEditor(user models.UserWithCompanies) {
	selection := make(map[string]bool, len(user.Companies))
	for _, company := range user.Companies {
		selection[company.ID] = true
	}
	c.store.Dispatch(AccessEditorOpened{UserID: user.ID, Selection: selection})
}

func (c *Controller) ToggleAccess(companyID string, checked bool) {
	c.store.Dispatch(AccessToggled{CompanyID: companyID, Checked: checked})
}

// SaveAccess replaces the edited user's grants with the checked set and
// refreshes the user listing once the write resolves.
func (c *Controller) SaveAccess(ctx context.Context) error {
	snapshot := c.store.State()
	if snapshot.AccessEdit == nil {
		return fmt.Errorf("no access edit in progress")
	}
	targetID := snapshot.AccessEdit.UserID
	var companyIDs []string
	for companyID, checked := range snapshot.AccessEdit.Selection {
		if checked {
			companyIDs = append(companyIDs, companyID)
		}
	}
	sort.Strings(companyIDs)

	c.store.Dispatch(SubmitStarted{})
	go func() {
		if _, err := c.gw.UpdateUserAccess(ctx, targetID, companyIDs).Await(ctx); err != nil {
			c.dispatchError(err)
			return
		}
		c.store.Dispatch(AccessEditorClosed{})
		users, err := c.gw.ListUsers(ctx).Await(ctx)
		if err != nil {
			c.dispatchError(err)
			return
		}
		c.store.Dispatch(UsersLoaded{Users: users})
	}()
	return nil
}

// ImportFile parses an upload, applies the catalog field types and
// imports the rows, then refreshes products and stock.
func (c *Controller) ImportFile(ctx context.Context, filename string, r io.Reader) error {
	rows, err := importer.Parse(r)
	if err != nil {
		c.store.Dispatch(UploadFailed{Message: err.Error()})
		return err
	}
	snapshot := c.store.State()
	if cfg := snapshot.CatalogConfig; cfg != nil {
		importer.ApplyCatalogTypes(rows, cfg.Fields)
	}
	companyID := snapshot.ActiveCompanyID
	generation := snapshot.Generation

	c.store.Dispatch(UploadStarted{Filename: filename})
	go func() {
		report, err := c.gw.ImportProducts(ctx, c.userID, companyID, rows).Await(ctx)
		if err != nil {
			c.store.Dispatch(UploadFailed{Message: err.Error()})
			return
		}
		message := fmt.Sprintf("%d de %d productos importados", report.Created, report.TotalRows)
		c.store.Dispatch(UploadFinished{Message: message})

		if products, err := c.gw.ListProducts(ctx, c.userID, companyID).Await(ctx); err == nil {
			c.store.Dispatch(ProductsLoaded{Generation: generation, Products: products})
		}
		if stock, err := c.gw.ListStock(ctx, c.userID, companyID).Await(ctx); err == nil {
			c.store.Dispatch(StockLoaded{Generation: generation, Rows: stock})
		}
	}()
	return nil
}

// dispatchError reports a failed operation. Cancellations are silent:
// the operation was abandoned on purpose.
func (c *Controller) dispatchError(err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		c.logger.Debug("operation cancelled", zap.Error(err))
		return
	}
	c.logger.Warn("operation failed", zap.Error(err))
	c.store.Dispatch(SubmitFailed{Message: err.Error()})
}

// settle awaits a deferred operation and dispatches the mapped event.
func settle[T any](c *Controller, ctx context.Context, d *async.Deferred[T], toEvent func(T) Event) {
	value, err := d.Await(ctx)
	if err != nil {
		c.dispatchError(err)
		return
	}
	c.store.Dispatch(toEvent(value))
}

// settleLoad is settle for generation-tagged dashboard reads; failures
// still settle their fan-out slot so loading can clear.
func settleLoad[T any](c *Controller, ctx context.Context, generation uint64, d *async.Deferred[T], toEvent func(T) Event) {
	value, err := d.Await(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		c.logger.Warn("dashboard load failed", zap.Error(err))
		c.store.Dispatch(LoadFailed{Generation: generation, Message: err.Error()})
		return
	}
	c.store.Dispatch(toEvent(value))
}
