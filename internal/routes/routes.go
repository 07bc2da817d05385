package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/Kumampet/itanavi-chat/internal/config"
	"github.com/Kumampet/itanavi-chat/internal/handlers"
	"github.com/Kumampet/itanavi-chat/internal/middleware"
	"github.com/Kumampet/itanavi-chat/internal/repository"
	"github.com/Kumampet/itanavi-chat/internal/services"
	chatws "github.com/Kumampet/itanavi-chat/internal/websocket"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool, redisClient *redis.Client) {
	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	reactionRepo := repository.NewReactionRepository(db)
	readRepo := repository.NewReadMarkerRepository(db)
	registry := repository.NewConnectionRegistry(redisClient)

	hub := chatws.NewHub(registry)
	go hub.Run()

	chatService := services.NewGroupChatService(db, groupRepo, messageRepo, reactionRepo, readRepo, registry)
	chatHandler := handlers.NewGroupChatHandler(chatService, hub, cfg.JWTSecret)
	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	groups := api.Group("/groups", middleware.AuthRequired(cfg.JWTSecret))
	groups.Get("/unread-count", chatHandler.GetUnreadMap)
	groups.Get("/:id", chatHandler.GetGroup)
	groups.Get("/:id/messages", chatHandler.GetMessages)
	groups.Post("/:id/messages", chatHandler.SendMessage)
	groups.Post("/:id/messages/:messageId/read", chatHandler.MarkRead)
	groups.Post("/:id/messages/:messageId/reactions", chatHandler.ToggleReaction)

	api.Use("/ws", chatHandler.WebSocketAuth)
	api.Get("/ws", websocket.New(chatHandler.HandleWebSocket))
}
