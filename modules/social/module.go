package social

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	domain "github.com/example/social-chat/domain/social"
	"github.com/example/social-chat/events"
	"github.com/example/social-chat/modules/chat"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Module owns the identity directory and the invitation and friendship
// store, and runs the social workflows on the chat hub.
type Module struct {
	db       *gorm.DB
	repo     *Repository
	service  *Service
	hub      *chat.Hub
	eventBus mono.EventBus
	logger   types.Logger
	dbPath   string
}

// Compile-time interface checks
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
	_ chat.Notifier              = (*Module)(nil)
)

// NewModule creates a new social module.
func NewModule(logger types.Logger) *Module {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "social.db"
	}
	return &Module{
		logger: logger,
		dbPath: dbPath,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "social"
}

// Attach sets the chat hub the social handlers are registered on (called
// from main.go).
func (m *Module) Attach(hub *chat.Hub) {
	m.hub = hub
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.InvitationSentV1.ToBase(),
		events.FriendAddedV1.ToBase(),
	}
}

// Notify publishes a social event on the EventBus.
func (m *Module) Notify(_ context.Context, event any) {
	if m.eventBus == nil {
		return
	}
	var err error
	switch e := event.(type) {
	case events.InvitationSentEvent:
		err = events.InvitationSentV1.Publish(m.eventBus, e, nil)
	case events.FriendAddedEvent:
		err = events.FriendAddedV1.Publish(m.eventBus, e, nil)
	default:
		m.logger.Warn("Ignoring unknown social event", "event", fmt.Sprintf("%T", event))
		return
	}
	if err != nil {
		m.logger.Warn("Failed to publish social event", "event", fmt.Sprintf("%T", event), "error", err)
	}
}

// RegisterServices registers the social read surface.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServicePendingInvitations, json.Unmarshal, json.Marshal, m.pendingInvitations,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServicePendingInvitations, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListFriends, json.Unmarshal, json.Marshal, m.listFriends,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListFriends, err)
	}

	log.Printf("[social] Registered services: services.social.{%s,%s}", ServicePendingInvitations, ServiceListFriends)
	return nil
}

func (m *Module) pendingInvitations(ctx context.Context, req PendingInvitationsRequest, _ *mono.Msg) (PendingInvitationsResponse, error) {
	if m.repo == nil {
		return PendingInvitationsResponse{}, fmt.Errorf("social store not initialized")
	}
	pending, err := m.repo.ListPending(ctx, req.UserID)
	if err != nil {
		return PendingInvitationsResponse{}, err
	}
	resp := PendingInvitationsResponse{
		Incoming: make([]domain.Invitation, 0),
		Outgoing: make([]domain.Invitation, 0),
	}
	for _, inv := range pending {
		if inv.ToUserID == req.UserID {
			resp.Incoming = append(resp.Incoming, inv)
		} else {
			resp.Outgoing = append(resp.Outgoing, inv)
		}
	}
	return resp, nil
}

func (m *Module) listFriends(ctx context.Context, req ListFriendsRequest, _ *mono.Msg) (ListFriendsResponse, error) {
	if m.repo == nil {
		return ListFriendsResponse{}, fmt.Errorf("social store not initialized")
	}
	friendships, err := m.repo.ListFriends(ctx, req.UserID)
	if err != nil {
		return ListFriendsResponse{}, err
	}
	return ListFriendsResponse{Friendships: friendships}, nil
}

// Start opens the database, runs migrations and registers the social
// handlers on the chat hub.
func (m *Module) Start(_ context.Context) error {
	if m.hub == nil {
		return fmt.Errorf("chat hub not attached")
	}

	log.Printf("[social] Connecting to SQLite database: %s", m.dbPath)
	db, err := OpenDatabase(m.dbPath, os.Getenv("DB_DEBUG") == "true")
	if err != nil {
		return err
	}
	m.db = db

	m.repo = NewRepository(m.db)
	if err := m.repo.Migrate(); err != nil {
		return err
	}

	m.service = NewService(m.hub, m.repo, m, m.logger)
	m.service.Register()

	log.Println("[social] Module started successfully")
	return nil
}

// Stop closes the database connection.
func (m *Module) Stop(_ context.Context) error {
	if m.db == nil {
		return nil
	}

	log.Println("[social] Closing database connection...")

	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	log.Println("[social] Database connection closed")
	return nil
}

// Health pings the database.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get sql.DB: %v", err),
		}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": "sqlite",
			"path":   m.dbPath,
		},
	}
}

// OpenDatabase opens the SQLite database at path. An in-memory database is
// limited to one connection so every query sees the same data.
func OpenDatabase(path string, debug bool) (*gorm.DB, error) {
	logLevel := logger.Silent
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if path == ":memory:" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}
