// Package state models the application view state as a reducer: an
// event goes in, a new state comes out, subscribers are notified. No
// implicit reactivity: every change flows through Reduce. Company
// dashboard loads carry a generation number so completions that arrive
// after the user has navigated away are discarded instead of writing
// into a view that is no longer active.
package state

import (
	"github.com/siacdev/siac/internal/siac/models"
)

// View is the top-level navigation state.
type View string

const (
	ViewLauncher          View = "launcher"
	ViewBusinessDashboard View = "business_dashboard"
	ViewUserManagement    View = "user_management"
)

// EditorMode is the per-feature sub-state for the locations editor.
type EditorMode string

const (
	EditorView EditorMode = "view"
	EditorAdd  EditorMode = "add"
	EditorEdit EditorMode = "edit"
)

// ModalMode is the per-feature sub-state for the product modal.
type ModalMode string

const (
	ModalClosed ModalMode = "closed"
	ModalAdd    ModalMode = "add"
	ModalEdit   ModalMode = "edit"
)

// AccessEditor holds the in-progress grant selection for one user.
type AccessEditor struct {
	UserID    string
	Selection map[string]bool
}

// dashboardLoads is the size of the company-data fan-out: branches,
// products, stock and catalog config.
const dashboardLoads = 4

// AppState is the complete view state.
type AppState struct {
	View            View
	ActiveCompanyID string

	Companies []models.Company
	Modules   []models.ModuleInstall
	Users     []models.UserWithCompanies

	Branches      []models.Branch
	Products      []models.Product
	Stock         []models.Stock
	CatalogConfig *models.CatalogConfig

	Loading      bool
	Submitting   bool
	ErrorMessage string

	// Generation identifies the current dashboard load; completions
	// tagged with an older generation are stale and ignored.
	Generation   uint64
	pendingLoads int

	BranchEditor EditorMode
	ProductModal ModalMode
	AccessEdit   *AccessEditor

	Uploading    bool
	UploadStatus string
}

// Initial returns the state the application starts in.
func Initial() AppState {
	return AppState{
		View:         ViewLauncher,
		Loading:      true,
		BranchEditor: EditorView,
		ProductModal: ModalClosed,
	}
}

// ActiveCompany resolves the active company from the loaded listing.
func (s AppState) ActiveCompany() *models.Company {
	for i := range s.Companies {
		if s.Companies[i].ID == s.ActiveCompanyID {
			return &s.Companies[i]
		}
	}
	return nil
}

// ModulesForCompany filters the loaded installs down to one company.
func (s AppState) ModulesForCompany(companyID string) []models.ModuleInstall {
	var installs []models.ModuleInstall
	for _, install := range s.Modules {
		if install.CompanyID == companyID {
			installs = append(installs, install)
		}
	}
	return installs
}

// Event is a state transition input.
type Event interface{ isEvent() }

// Navigation events.
type NavigatedToBusiness struct{ CompanyID string }
type NavigatedToLauncher struct{}
type NavigatedToUserManagement struct{}

// Launcher / administration data completions.
type CompaniesLoaded struct{ Companies []models.Company }
type ModulesLoaded struct{ Installs []models.ModuleInstall }
type UsersLoaded struct{ Users []models.UserWithCompanies }

// Dashboard fan-out completions, tagged with the load generation.
type BranchesLoaded struct {
	Generation uint64
	Branches   []models.Branch
}
type ProductsLoaded struct {
	Generation uint64
	Products   []models.Product
}
type StockLoaded struct {
	Generation uint64
	Rows       []models.Stock
}
type CatalogConfigLoaded struct {
	Generation uint64
	Config     *models.CatalogConfig
}

// LoadFailed settles one slot of the dashboard fan-out with an error.
type LoadFailed struct {
	Generation uint64
	Message    string
}

// Submission lifecycle.
type SubmitStarted struct{}
type SubmitFailed struct{ Message string }

// Write completions. Updates replace by id, inserts append, deletes
// filter out; local state changes only after the gateway resolves.
type CompanyAppended struct{ Company models.Company }
type CompanyReplaced struct{ Company models.Company }
type CompanyRemoved struct{ ID string }
type BranchAppended struct{ Branch models.Branch }
type BranchReplaced struct{ Branch models.Branch }
type BranchRemoved struct{ ID uint }
type ProductAppended struct{ Product models.Product }
type ProductReplaced struct{ Product models.Product }
type ProductRemoved struct{ ID uint }
type StockReplaced struct{ Row models.Stock }
type ModuleAppended struct{ Install models.ModuleInstall }

// Editor and modal events.
type BranchEditorSet struct{ Mode EditorMode }
type ProductModalSet struct{ Mode ModalMode }
type AccessEditorOpened struct {
	UserID    string
	Selection map[string]bool
}
type AccessEditorClosed struct{}
type AccessToggled struct {
	CompanyID string
	Checked   bool
}

// Upload lifecycle.
type UploadStarted struct{ Filename string }
type UploadFinished struct{ Message string }
type UploadFailed struct{ Message string }

func (NavigatedToBusiness) isEvent()       {}
func (NavigatedToLauncher) isEvent()       {}
func (NavigatedToUserManagement) isEvent() {}
func (CompaniesLoaded) isEvent()           {}
func (ModulesLoaded) isEvent()             {}
func (UsersLoaded) isEvent()               {}
func (BranchesLoaded) isEvent()            {}
func (ProductsLoaded) isEvent()            {}
func (StockLoaded) isEvent()               {}
func (CatalogConfigLoaded) isEvent()       {}
func (LoadFailed) isEvent()                {}
func (SubmitStarted) isEvent()             {}
func (SubmitFailed) isEvent()              {}
func (CompanyAppended) isEvent()           {}
func (CompanyReplaced) isEvent()           {}
func (CompanyRemoved) isEvent()            {}
func (BranchAppended) isEvent()            {}
func (BranchReplaced) isEvent()            {}
func (BranchRemoved) isEvent()             {}
func (ProductAppended) isEvent()           {}
func (ProductReplaced) isEvent()           {}
func (ProductRemoved) isEvent()            {}
func (StockReplaced) isEvent()             {}
func (ModuleAppended) isEvent()            {}
func (BranchEditorSet) isEvent()           {}
func (ProductModalSet) isEvent()           {}
func (AccessEditorOpened) isEvent()        {}
func (AccessEditorClosed) isEvent()        {}
func (AccessToggled) isEvent()             {}
func (UploadStarted) isEvent()             {}
func (UploadFinished) isEvent()            {}
func (UploadFailed) isEvent()              {}

// Reduce applies one event and returns the next state.
func Reduce(s AppState, event Event) AppState {
	switch ev := event.(type) {
	case NavigatedToBusiness:
		s.View = ViewBusinessDashboard
		s.ActiveCompanyID = ev.CompanyID
		s.Generation++
		s.pendingLoads = dashboardLoads
		s.Loading = true
		s.Branches = nil
		s.Products = nil
		s.Stock = nil
		s.CatalogConfig = nil
		s.BranchEditor = EditorView
		s.ProductModal = ModalClosed
	case NavigatedToLauncher:
		s.View = ViewLauncher
		s.ActiveCompanyID = ""
		s.Generation++
		s.pendingLoads = 0
		s.Loading = false
		s.Branches = nil
		s.Products = nil
		s.Stock = nil
		s.CatalogConfig = nil
	case NavigatedToUserManagement:
		s.View = ViewUserManagement

	case CompaniesLoaded:
		s.Companies = ev.Companies
		s.Loading = false
	case ModulesLoaded:
		s.Modules = ev.Installs
	case UsersLoaded:
		s.Users = ev.Users

	case BranchesLoaded:
		if ev.Generation == s.Generation {
			s.Branches = ev.Branches
			s = s.loadArrived()
		}
	case ProductsLoaded:
		if ev.Generation == s.Generation {
			s.Products = ev.Products
			s = s.loadArrived()
		}
	case StockLoaded:
		if ev.Generation == s.Generation {
			s.Stock = ev.Rows
			s = s.loadArrived()
		}
	case CatalogConfigLoaded:
		if ev.Generation == s.Generation {
			s.CatalogConfig = ev.Config
			s = s.loadArrived()
		}
	case LoadFailed:
		if ev.Generation == s.Generation {
			s.ErrorMessage = ev.Message
			s = s.loadArrived()
		}

	case SubmitStarted:
		s.Submitting = true
		s.ErrorMessage = ""
	case SubmitFailed:
		s.Submitting = false
		s.ErrorMessage = ev.Message

	case CompanyAppended:
		s.Companies = append(s.Companies, ev.Company)
		s.Submitting = false
	case CompanyReplaced:
		for i := range s.Companies {
			if s.Companies[i].ID == ev.Company.ID {
				s.Companies[i] = ev.Company
			}
		}
		s.Submitting = false
	case CompanyRemoved:
		s.Companies = filterCompanies(s.Companies, ev.ID)
		s.Submitting = false
		if s.ActiveCompanyID == ev.ID {
			s.ActiveCompanyID = ""
			s.View = ViewLauncher
		}

	case BranchAppended:
		s.Branches = append(s.Branches, ev.Branch)
		s.Submitting = false
		s.BranchEditor = EditorView
	case BranchReplaced:
		for i := range s.Branches {
			if s.Branches[i].ID == ev.Branch.ID {
				s.Branches[i] = ev.Branch
			}
		}
		s.Submitting = false
		s.BranchEditor = EditorView
	case BranchRemoved:
		s.Branches = filterBranches(s.Branches, ev.ID)
		s.Submitting = false

	case ProductAppended:
		s.Products = append(s.Products, ev.Product)
		s.Submitting = false
		s.ProductModal = ModalClosed
	case ProductReplaced:
		for i := range s.Products {
			if s.Products[i].ID == ev.Product.ID {
				s.Products[i] = ev.Product
			}
		}
		s.Submitting = false
		s.ProductModal = ModalClosed
	case ProductRemoved:
		s.Products = filterProducts(s.Products, ev.ID)
		s.Stock = filterStockByProduct(s.Stock, ev.ID)
		s.Submitting = false

	case StockReplaced:
		replaced := false
		for i := range s.Stock {
			if s.Stock[i].ProductID == ev.Row.ProductID && s.Stock[i].BranchID == ev.Row.BranchID {
				s.Stock[i] = ev.Row
				replaced = true
			}
		}
		if !replaced {
			s.Stock = append(s.Stock, ev.Row)
		}
		s.Submitting = false

	case ModuleAppended:
		s.Modules = append(s.Modules, ev.Install)
		s.Submitting = false

	case BranchEditorSet:
		s.BranchEditor = ev.Mode
	case ProductModalSet:
		s.ProductModal = ev.Mode

	case AccessEditorOpened:
		s.AccessEdit = &AccessEditor{UserID: ev.UserID, Selection: ev.Selection}
	case AccessEditorClosed:
		s.AccessEdit = nil
		s.Submitting = false
	case AccessToggled:
		if s.AccessEdit != nil {
			selection := make(map[string]bool, len(s.AccessEdit.Selection))
			for k, v := range s.AccessEdit.Selection {
				selection[k] = v
			}
			selection[ev.CompanyID] = ev.Checked
			s.AccessEdit = &AccessEditor{UserID: s.AccessEdit.UserID, Selection: selection}
		}

	case UploadStarted:
		s.Uploading = true
		s.UploadStatus = "Procesando " + ev.Filename + "..."
	case UploadFinished:
		s.Uploading = false
		s.UploadStatus = ev.Message
	case UploadFailed:
		s.Uploading = false
		s.UploadStatus = ev.Message
	}
	return s
}

// loadArrived clears the loading flag once the last fan-out read lands.
func (s AppState) loadArrived() AppState {
	if s.pendingLoads > 0 {
		s.pendingLoads--
	}
	if s.pendingLoads == 0 {
		s.Loading = false
	}
	return s
}

func filterCompanies(list []models.Company, id string) []models.Company {
	out := list[:0:0]
	for _, c := range list {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

func filterBranches(list []models.Branch, id uint) []models.Branch {
	out := list[:0:0]
	for _, b := range list {
		if b.ID != id {
			out = append(out, b)
		}
	}
	return out
}

func filterProducts(list []models.Product, id uint) []models.Product {
	out := list[:0:0]
	for _, p := range list {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

func filterStockByProduct(list []models.Stock, productID uint) []models.Stock {
	out := list[:0:0]
	for _, row := range list {
		if row.ProductID != productID {
			out = append(out, row)
		}
	}
	return out
}
