package health

import (
	"context"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/freeplay/yourleague-service/internal/utils/response"
)

// Channels reports which notification channels are configured.
type Channels interface {
	EmailEnabled() bool
	PushEnabled() bool
}

type Status struct {
	Status    string `json:"status"`
	Email     bool   `json:"email"`
	Push      bool   `json:"push"`
	Redis     string `json:"redis"`
	Timestamp string `json:"timestamp"`
}

// Health reports liveness and channel availability
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} Status "Service is up"
// @Router /health [get]
func Health(channels Channels, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := Status{
			Status:    "ok",
			Email:     channels.EmailEnabled(),
			Push:      channels.PushEnabled(),
			Redis:     "disabled",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}

		if redisClient != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := redisClient.Ping(ctx).Err(); err != nil {
				status.Redis = "unreachable"
				status.Status = "degraded"
			} else {
				status.Redis = "ok"
			}
		}

		response.WriteJSON(w, http.StatusOK, status)
	}
}
