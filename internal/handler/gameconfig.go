package handler

import (
	"net/http"

	"github.com/goalraiders/goalraiders/internal/config"
)

// GameConfigHandler exposes the game's balance tables so the client can
// show damage and reward previews without hardcoding them.
type GameConfigHandler struct {
	game config.GameConfig
}

// NewGameConfigHandler creates a GameConfigHandler.
func NewGameConfigHandler(game config.GameConfig) *GameConfigHandler {
	return &GameConfigHandler{game: game}
}

type gameConfigResponse struct {
	DamageByDifficulty map[string]int `json:"damageByDifficulty"`
	MaxHPByStatus      map[string]int `json:"maxHpByStatus"`
	XPRewardByStatus   map[string]int `json:"xpRewardByStatus"`
}

// HandleGet returns the active balance tables.
//
// HTTP: GET /api/config/game
func (h *GameConfigHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, gameConfigResponse{
		DamageByDifficulty: h.game.DamageByDifficulty,
		MaxHPByStatus:      h.game.MaxHPByStatus,
		XPRewardByStatus:   h.game.XPRewardByStatus,
	})
}
