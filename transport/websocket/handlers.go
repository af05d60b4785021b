package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"nhooyr.io/websocket"

	"github.com/rocketscienceinc/memory-scramble-backend/internal/apperror"
	"github.com/rocketscienceinc/memory-scramble-backend/internal/entity"
)

// rejections are the board rules a player can trip over. They go back to the
// client as error payloads instead of closing the connection.
var rejections = []error{
	apperror.ErrOutOfBounds,
	apperror.ErrNoCard,
	apperror.ErrAlreadyControlled,
	apperror.ErrSelfControlled,
}

func rejectionFor(err error) string {
	for _, rejection := range rejections {
		if errors.Is(err, rejection) {
			return rejection.Error()
		}
	}

	return ""
}

func (that *Server) handleConnect(ctx context.Context, conn *websocket.Conn, msg *Message) error {
	log := that.logger.With("method", "handleConnect")

	var payloadReq Payload

	if msg.Payload != nil {
		if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
			return fmt.Errorf("failed to unmarshal payload: %w", err)
		}
	}

	player := payloadReq.Player
	if player == nil || player.ID == "" {
		player = &entity.Player{ID: uuid.NewString()}
	}

	view, err := that.gameplay.Look(ctx, player.ID)
	if err != nil {
		log.Error("failed to render board", "error", err)
		return that.sendErrorResponse(ctx, conn, msg.Action, "failed to render board")
	}

	payloadResp := Payload{
		Player: player,
		View:   view,
	}

	if err = that.sendMessage(ctx, conn, msg.Action, payloadResp); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	log.Info("successfully connected player", "playerID", player.ID)

	return nil
}

func (that *Server) handleLook(ctx context.Context, conn *websocket.Conn, msg *Message) error {
	log := that.logger.With("method", "handleLook")

	var payloadReq Payload

	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payloadReq.Player == nil {
		log.Error("Player is missing in payload")
		return that.sendErrorResponse(ctx, conn, msg.Action, "Player is required")
	}

	view, err := that.gameplay.Look(ctx, payloadReq.Player.ID)
	if err != nil {
		log.Error("failed to render board", "error", err)
		return that.sendErrorResponse(ctx, conn, msg.Action, "failed to render board")
	}

	payloadResp := Payload{
		Player: payloadReq.Player,
		View:   view,
	}

	return that.sendMessage(ctx, conn, msg.Action, payloadResp)
}

func (that *Server) handleFlip(ctx context.Context, conn *websocket.Conn, msg *Message) error {
	log := that.logger.With("method", "handleFlip")

	var payloadReq Payload

	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payloadReq.Player == nil {
		log.Error("Player is missing in payload")
		return that.sendErrorResponse(ctx, conn, msg.Action, "Player is required")
	}

	if payloadReq.Spot == nil {
		log.Error("Spot is missing in payload")
		return that.sendErrorResponse(ctx, conn, msg.Action, "Spot is required")
	}

	log = log.With("playerID", payloadReq.Player.ID, "spot", payloadReq.Spot.String())

	view, err := that.gameplay.Flip(ctx, payloadReq.Player.ID, payloadReq.Spot.Row, payloadReq.Spot.Col)
	if rejection := rejectionFor(err); rejection != "" {
		return that.sendErrorResponse(ctx, conn, msg.Action, rejection)
	}

	if err != nil {
		log.Error("failed to flip card", "error", err)
		return that.sendErrorResponse(ctx, conn, msg.Action, "failed to flip card")
	}

	payloadResp := Payload{
		Player: payloadReq.Player,
		Spot:   payloadReq.Spot,
		View:   view,
	}

	if err = that.sendMessage(ctx, conn, msg.Action, payloadResp); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	log.Info("Player flipped a card")

	return nil
}

// handleWatch blocks until the board visibly changes, then replies with the
// fresh view. The client keeps the connection open while it waits.
func (that *Server) handleWatch(ctx context.Context, conn *websocket.Conn, msg *Message) error {
	log := that.logger.With("method", "handleWatch")

	var payloadReq Payload

	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payloadReq.Player == nil {
		log.Error("Player is missing in payload")
		return that.sendErrorResponse(ctx, conn, msg.Action, "Player is required")
	}

	view, err := that.gameplay.Watch(ctx, payloadReq.Player.ID)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}

		log.Error("failed to watch board", "error", err)
		return that.sendErrorResponse(ctx, conn, msg.Action, "failed to watch board")
	}

	payloadResp := Payload{
		Player: payloadReq.Player,
		View:   view,
	}

	return that.sendMessage(ctx, conn, msg.Action, payloadResp)
}

func (that *Server) handleMapCards(ctx context.Context, conn *websocket.Conn, msg *Message) error {
	log := that.logger.With("method", "handleMapCards")

	var payloadReq Payload

	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payloadReq.Player == nil {
		log.Error("Player is missing in payload")
		return that.sendErrorResponse(ctx, conn, msg.Action, "Player is required")
	}

	if payloadReq.Labels == nil {
		log.Error("Labels are missing in payload")
		return that.sendErrorResponse(ctx, conn, msg.Action, "Labels are required")
	}

	log = log.With("playerID", payloadReq.Player.ID)

	view, err := that.gameplay.MapCards(ctx, payloadReq.Player.ID, payloadReq.Labels)
	if err != nil {
		log.Error("failed to remap labels", "error", err)
		return that.sendErrorResponse(ctx, conn, msg.Action, "failed to remap labels")
	}

	payloadResp := Payload{
		Player: payloadReq.Player,
		View:   view,
	}

	if err = that.sendMessage(ctx, conn, msg.Action, payloadResp); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	log.Info("Player remapped labels")

	return nil
}

func (that *Server) sendErrorResponse(ctx context.Context, conn *websocket.Conn, action, errorMsg string) error {
	payload := Payload{Error: errorMsg}
	if err := that.sendMessage(ctx, conn, action, payload); err != nil {
		return fmt.Errorf("failed to send error response: %w", err)
	}

	return nil
}
