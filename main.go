package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/example/social-chat/modules/api"
	"github.com/example/social-chat/modules/chat"
	"github.com/example/social-chat/modules/presence"
	"github.com/example/social-chat/modules/social"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Social Chat - Fiber WebSocket + EventBus ===")

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	logger := app.Logger()

	// Create modules
	chatModule := chat.NewModule(logger)
	socialModule := social.NewModule(logger)
	presenceModule := presence.NewModule()
	cfg := api.ConfigFromEnv()
	apiModule := api.NewModule(cfg, logger)

	// The hub is shared in-process: social registers its frame handlers on
	// it and the API module attaches websocket connections to it.
	socialModule.Attach(chatModule.Hub())
	apiModule.SetHub(chatModule.Hub())

	// Register modules with the framework.
	// - chat: connection hub, rooms, room services + event emitter
	// - social: invitations and friendships on SQLite + event emitter
	// - presence: event consumer tracking who is online
	// - api: driving adapter (Fiber HTTP/WebSocket server, depends on the rest)
	app.Register(chatModule)
	app.Register(socialModule)
	app.Register(presenceModule)
	app.Register(apiModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg.Port)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(port string) {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "social.db"
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Architecture:")
	log.Println("  - HTTP Framework: Fiber with WebSocket support")
	log.Println("  - Event Bus: NATS JetStream (internal pubsub)")
	log.Printf("  - Social store: SQLite (%s)", dbPath)
	log.Println("")
	log.Println("Events:")
	log.Println("  - UserJoined/UserLeft/IdentityUpdated -> presence module")
	log.Println("  - MessageSent, InvitationSent, FriendAdded -> EventBus")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", port)
	log.Println("  GET    /health                        - Health check")
	log.Println("  GET    /api/v1/rooms                  - List all rooms")
	log.Println("  POST   /api/v1/rooms                  - Create a new room")
	log.Println("  GET    /api/v1/rooms/:id              - Get room details")
	log.Println("  GET    /api/v1/rooms/:id/history      - Get message history")
	log.Println("  GET    /api/v1/users/:id/invitations  - Pending invitations")
	log.Println("  GET    /api/v1/users/:id/friends      - Friend list")
	log.Println("  GET    /api/v1/users/:id/presence     - Presence status")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%s/ws):", port)
	log.Println("  Frames: {\"type\": \"...\", \"payload\": {...}}")
	log.Println("  Start with identity-hello, then room-change to join a room")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
