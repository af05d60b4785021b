package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	writeTimeout    = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

type gameplayService interface {
	Look(ctx context.Context, player string) (string, error)
	Flip(ctx context.Context, player string, row, col int) (string, error)
	Watch(ctx context.Context, player string) (string, error)
	MapCards(ctx context.Context, player string, labels map[string]string) (string, error)
}

type Server struct {
	logger   *slog.Logger
	gameplay gameplayService

	handlers map[string]func(ctx context.Context, conn *websocket.Conn, message *Message) error
}

func New(logger *slog.Logger, gameplay gameplayService) *Server {
	server := &Server{
		logger:   logger,
		gameplay: gameplay,

		handlers: make(map[string]func(context.Context, *websocket.Conn, *Message) error),
	}

	server.handlers["connect"] = server.handleConnect
	server.handlers["board:look"] = server.handleLook
	server.handlers["board:flip"] = server.handleFlip
	server.handlers["board:watch"] = server.handleWatch
	server.handlers["board:map"] = server.handleMapCards

	return server
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.upgradeToWebSocket)

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown websocket server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the connection to WebSocket.
func (that *Server) upgradeToWebSocket(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	conn, err := websocket.Accept(writer, req, nil)
	if err != nil {
		log.Error("failed to accept websocket connection", "error", err)
		return
	}
	defer conn.CloseNow()

	log.Info("WebSocket connection established")

	if err = that.handleMessages(req.Context(), conn); err != nil {
		log.Error("error handling messages", "error", err)
		return
	}

	conn.Close(websocket.StatusNormalClosure, "")
}

// handleMessages - processes messages from the client until it disconnects.
// Messages run one at a time, so a pending board:watch holds the connection
// until the board changes.
func (that *Server) handleMessages(ctx context.Context, conn *websocket.Conn) error {
	log := that.logger.With("method", "handleMessages")

	for {
		var message Message
		if err := wsjson.Read(ctx, conn, &message); err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return nil
			}

			return fmt.Errorf("failed to read message: %w", err)
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Error("unknown action", "action", message.Action)

			if err := that.sendErrorResponse(ctx, conn, message.Action, "unknown action"); err != nil {
				return err
			}

			continue
		}

		if err := handler(ctx, conn, &message); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

func (that *Server) sendMessage(ctx context.Context, conn *websocket.Conn, action string, payload Payload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	response := Message{
		Action:  action,
		Payload: raw,
	}

	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err = wsjson.Write(writeCtx, conn, response); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}
