package websocket

import (
	"context"
	"encoding/json"
	"fmt"
)

func (that *Server) handleState(ctx context.Context, msg *Message, c *client) error {
	return that.sendMessage(c, actionGameState, Payload{Game: that.game.GetState(ctx)})
}

func (that *Server) handleNewGame(ctx context.Context, msg *Message, c *client) error {
	return that.sendMessage(c, actionGameState, Payload{Game: that.game.NewGame(ctx)})
}

func (that *Server) handleBid(ctx context.Context, msg *Message, c *client) error {
	state, err := that.game.StartBiddingRound(ctx)
	if err != nil {
		that.sendErrorResponse(c, msg.Action, err.Error())
		return nil
	}

	return that.sendMessage(c, actionGameState, Payload{Game: state})
}

func (that *Server) handlePlace(ctx context.Context, msg *Message, c *client) error {
	log := that.logger.With("method", "handlePlace")

	var payloadReq Payload
	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		log.Warn("failed to unmarshal payload", "error", err)
		that.sendErrorResponse(c, msg.Action, "invalid payload")
		return nil
	}

	if payloadReq.Cell == nil {
		that.sendErrorResponse(c, msg.Action, "cell is required")
		return nil
	}

	state, err := that.game.MakeTurn(ctx, *payloadReq.Cell)
	if err != nil {
		that.sendErrorResponse(c, msg.Action, err.Error())
		return nil
	}

	return that.sendMessage(c, actionGameState, Payload{Game: state})
}

func (that *Server) sendMessage(c *client, action string, payload Payload) error {
	data, err := encode(action, payload)
	if err != nil {
		return fmt.Errorf("failed to send %s: %w", action, err)
	}

	c.enqueue(data)

	return nil
}

func (that *Server) sendErrorResponse(c *client, request, errorMsg string) {
	if err := that.sendMessage(c, actionError, Payload{Error: errorMsg, Request: request}); err != nil {
		that.logger.Error("failed to send error response", "error", err)
	}
}
