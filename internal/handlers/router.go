package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	_ "github.com/shreyas/kumbhmela-leads/docs"
	"github.com/shreyas/kumbhmela-leads/internal/middleware"
	"github.com/shreyas/kumbhmela-leads/internal/models"
)

// Handlers groups every endpoint handler mounted by NewRouter
type Handlers struct {
	Auth        *AuthHandler
	Leads       *LeadHandler
	Activities  *ActivityHandler
	Inventory   *InventoryHandler
	Orders      *OrderHandler
	Notes       *NoteHandler
	Projections *ProjectionHandler
	Files       *FileHandler
	Lookups     *LookupHandler
	Realtime    *RealtimeHandler
	Health      *HealthHandler
}

type RouterConfig struct {
	AllowedOrigins []string
	SwaggerURL     string
}

// NewRouter mounts the API under /api/v1 behind JWT auth. Request id, logging
// and CORS wrap the whole router so preflight requests never reach route matching.
func NewRouter(h Handlers, auth middleware.Authenticator, cfg RouterConfig, log *zap.Logger) http.Handler {
	router := mux.NewRouter()

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusNotFound, "NOT_FOUND", "Endpoint not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})

	router.HandleFunc("/health", h.Health.GetOverallHealth).Methods(http.MethodGet, http.MethodOptions)

	swaggerURL := cfg.SwaggerURL
	if swaggerURL == "" {
		swaggerURL = "/swagger/doc.json"
	}
	router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL(swaggerURL),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("none"),
		httpSwagger.DomID("swagger-ui"),
	)).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()

	// Public
	api.HandleFunc("/auth/sign-in", h.Auth.SignIn).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/auth/refresh", h.Auth.Refresh).Methods(http.MethodPost, http.MethodOptions)

	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.JWTAuth(auth, log))

	feature := func(name string, fn http.HandlerFunc) http.Handler {
		return middleware.RequireFeature(name)(fn)
	}
	admin := func(fn http.HandlerFunc) http.Handler {
		return middleware.RequireRole(models.RoleAdmin)(fn)
	}

	// Auth and team
	protected.HandleFunc("/auth/sign-out", h.Auth.SignOut).Methods(http.MethodPost)
	protected.HandleFunc("/auth/session", h.Auth.GetSession).Methods(http.MethodGet)
	protected.HandleFunc("/team-members", h.Lookups.ListTeamMembers).Methods(http.MethodGet)
	protected.Handle("/team-members", admin(h.Auth.CreateTeamMember)).Methods(http.MethodPost)
	protected.Handle("/feature-permissions", admin(h.Auth.ListFeaturePermissions)).Methods(http.MethodGet)
	protected.Handle("/feature-permissions/{role}", admin(h.Auth.SetFeaturePermissions)).Methods(http.MethodPut)

	// Leads
	protected.Handle("/leads", feature(models.FeatureLeadsRead, h.Leads.ListLeads)).Methods(http.MethodGet)
	protected.Handle("/leads", feature(models.FeatureLeadsWrite, h.Leads.CreateLead)).Methods(http.MethodPost)
	protected.Handle("/leads/import/preview", feature(models.FeatureLeadsImport, h.Leads.PreviewImport)).Methods(http.MethodPost)
	protected.Handle("/leads/import/commit", feature(models.FeatureLeadsImport, h.Leads.CommitImport)).Methods(http.MethodPost)
	protected.Handle("/leads/{id}", feature(models.FeatureLeadsRead, h.Leads.GetLead)).Methods(http.MethodGet)
	protected.Handle("/leads/{id}", feature(models.FeatureLeadsWrite, h.Leads.UpdateLead)).Methods(http.MethodPatch)
	protected.Handle("/leads/{id}/convert", feature(models.FeatureLeadsWrite, h.Leads.ConvertLead)).Methods(http.MethodPost)
	protected.HandleFunc("/lead-statuses", h.Leads.ListStatuses).Methods(http.MethodGet)
	protected.Handle("/lead-statuses", feature(models.FeatureLeadsWrite, h.Leads.CreateStatus)).Methods(http.MethodPost)

	// Activities
	protected.HandleFunc("/activities", h.Activities.ListActivities).Methods(http.MethodGet)
	protected.Handle("/activities", feature(models.FeatureActivitiesWrite, h.Activities.CreateActivity)).Methods(http.MethodPost)
	protected.Handle("/activities/{id}/update", feature(models.FeatureActivitiesWrite, h.Activities.SetActivityUpdate)).Methods(http.MethodPatch)
	protected.HandleFunc("/activities/{id}/hide", h.Activities.HideActivity).Methods(http.MethodPost)
	protected.HandleFunc("/activities/{id}/unhide", h.Activities.UnhideActivity).Methods(http.MethodPost)

	// Inventory
	protected.HandleFunc("/inventory", h.Inventory.ListInventory).Methods(http.MethodGet)
	protected.Handle("/inventory", feature(models.FeatureInventoryWrite, h.Inventory.CreateInventoryItem)).Methods(http.MethodPost)
	protected.HandleFunc("/inventory/{id}", h.Inventory.GetInventoryItem).Methods(http.MethodGet)
	protected.Handle("/inventory/{id}", feature(models.FeatureInventoryWrite, h.Inventory.UpdateInventoryItem)).Methods(http.MethodPatch)

	// Orders and bookings
	protected.HandleFunc("/orders", h.Orders.ListOrders).Methods(http.MethodGet)
	protected.Handle("/orders", feature(models.FeatureOrdersWrite, h.Orders.CreateOrder)).Methods(http.MethodPost)
	protected.HandleFunc("/orders/{id}", h.Orders.GetOrder).Methods(http.MethodGet)
	protected.Handle("/orders/{id}/approve", feature(models.FeatureOrdersApprove, h.Orders.ApproveOrder)).Methods(http.MethodPost)
	protected.Handle("/orders/{id}/reject", feature(models.FeatureOrdersApprove, h.Orders.RejectOrder)).Methods(http.MethodPost)
	protected.HandleFunc("/bookings", h.Orders.ListBookings).Methods(http.MethodGet)
	protected.Handle("/bookings", feature(models.FeatureBookingsWrite, h.Orders.CreateBooking)).Methods(http.MethodPost)
	protected.Handle("/bookings/{id}/cancel", feature(models.FeatureBookingsWrite, h.Orders.CancelBooking)).Methods(http.MethodPost)

	// Notes and todos
	protected.HandleFunc("/notes", h.Notes.ListNotes).Methods(http.MethodGet)
	protected.HandleFunc("/notes", h.Notes.CreateNote).Methods(http.MethodPost)
	protected.HandleFunc("/notes/trash", h.Notes.ListTrashedNotes).Methods(http.MethodGet)
	protected.HandleFunc("/notes/{id}", h.Notes.UpdateNote).Methods(http.MethodPatch)
	protected.HandleFunc("/notes/{id}", h.Notes.TrashNote).Methods(http.MethodDelete)
	protected.HandleFunc("/notes/{id}/pin", h.Notes.TogglePin).Methods(http.MethodPost)
	protected.HandleFunc("/notes/{id}/restore", h.Notes.RestoreNote).Methods(http.MethodPost)
	protected.HandleFunc("/notes/{id}/purge", h.Notes.PurgeNote).Methods(http.MethodDelete)
	protected.HandleFunc("/todos", h.Notes.ListTodos).Methods(http.MethodGet)
	protected.HandleFunc("/todos", h.Notes.CreateTodo).Methods(http.MethodPost)
	protected.HandleFunc("/todos/trash", h.Notes.ListTrashedTodos).Methods(http.MethodGet)
	protected.HandleFunc("/todos/{id}", h.Notes.UpdateTodo).Methods(http.MethodPatch)
	protected.HandleFunc("/todos/{id}", h.Notes.TrashTodo).Methods(http.MethodDelete)
	protected.HandleFunc("/todos/{id}/toggle", h.Notes.ToggleTodo).Methods(http.MethodPost)
	protected.HandleFunc("/todos/{id}/restore", h.Notes.RestoreTodo).Methods(http.MethodPost)
	protected.HandleFunc("/todos/{id}/purge", h.Notes.PurgeTodo).Methods(http.MethodDelete)

	// Sales projection
	protected.HandleFunc("/projections/targets", h.Projections.ListTargets).Methods(http.MethodGet)
	protected.Handle("/projections/targets", feature(models.FeatureProjections, h.Projections.SetTarget)).Methods(http.MethodPost)
	protected.HandleFunc("/projections/entries", h.Projections.ListEntries).Methods(http.MethodGet)
	protected.Handle("/projections/entries", feature(models.FeatureProjections, h.Projections.AddEntry)).Methods(http.MethodPost)
	protected.HandleFunc("/projections/summary", h.Projections.Summary).Methods(http.MethodGet)

	// Files
	protected.HandleFunc("/files", h.Files.UploadFile).Methods(http.MethodPost)
	protected.HandleFunc("/files", h.Files.ListFiles).Methods(http.MethodGet)
	protected.HandleFunc("/files/{id}", h.Files.DownloadFile).Methods(http.MethodGet)

	// Lookups and preferences
	protected.HandleFunc("/zones", h.Lookups.ListZones).Methods(http.MethodGet)
	protected.Handle("/zones", feature(models.FeatureLookupsWrite, h.Lookups.CreateZone)).Methods(http.MethodPost)
	protected.HandleFunc("/sectors", h.Lookups.ListSectors).Methods(http.MethodGet)
	protected.Handle("/sectors", feature(models.FeatureLookupsWrite, h.Lookups.CreateSector)).Methods(http.MethodPost)
	protected.HandleFunc("/preferences/columns", h.Lookups.GetColumns).Methods(http.MethodGet)
	protected.HandleFunc("/preferences/columns", h.Lookups.SetColumns).Methods(http.MethodPut)

	// Realtime
	protected.HandleFunc("/realtime", h.Realtime.Subscribe).Methods(http.MethodGet)

	return middleware.RequestID()(middleware.Logger(log)(middleware.CORS(cfg.AllowedOrigins)(router)))
}
