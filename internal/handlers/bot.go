// internal/handlers/bot.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/braygame/bray/internal/bot"
)

// AddBotHandler seats a bot in a game: POST /game/bots?gameId=X&difficulty=Y.
// Difficulty defaults to medium.
func AddBotHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		gameID := r.URL.Query().Get("gameId")
		if gameID == "" {
			http.Error(w, "Missing gameId", http.StatusBadRequest)
			return
		}
		difficulty := bot.Difficulty(r.URL.Query().Get("difficulty"))
		if difficulty == "" {
			difficulty = bot.Medium
		}

		runner, err := gs.AddBot(gameID, difficulty)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"playerId":   runner.PlayerID,
			"difficulty": string(difficulty),
		})
	}
}
