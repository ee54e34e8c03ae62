package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/freeplay/yourleague-service/internal/mailer"
	"github.com/freeplay/yourleague-service/internal/notify"
	"github.com/freeplay/yourleague-service/internal/push"
	"github.com/freeplay/yourleague-service/internal/types"
	"github.com/freeplay/yourleague-service/internal/utils/response"
)

const (
	defaultHistory = 20
	maxHistory     = 100
)

// HistoryReader reads back recent push messages of a topic.
type HistoryReader interface {
	History(ctx context.Context, topic string, count int64) ([]types.MatchPushEvent, error)
}

type NotificationHandlers struct {
	dispatcher *notify.Dispatcher
	history    HistoryReader
	validate   *validator.Validate
}

// NewNotificationHandlers creates the notification handlers. A nil history
// reader makes the history endpoint report the push channel as unavailable.
func NewNotificationHandlers(dispatcher *notify.Dispatcher, history HistoryReader) *NotificationHandlers {
	return &NotificationHandlers{
		dispatcher: dispatcher,
		history:    history,
		validate:   validator.New(),
	}
}

// decode reads a JSON body into dst and validates it. It writes the error
// response itself and reports whether the handler may continue.
func (h *NotificationHandlers) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("request body cannot be empty")))
		return false
	} else if err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
			return false
		}
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return false
	}
	return true
}

// Notify emails a match update to a recipient list
// @Summary Email a match update
// @Description Send one email per recipient. Sends run concurrently and every recipient is attempted; any failure fails the request.
// @Tags notifications
// @Accept json
// @Produce json
// @Param request body types.NotifyRequest true "Notification"
// @Success 200 {object} types.NotifyResponse "All emails sent"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 429 {object} response.Response "Rate limit exceeded"
// @Failure 502 {object} response.Response "Email transport failed"
// @Failure 503 {object} response.Response "Email not configured"
// @Router /notify [post]
func (h *NotificationHandlers) Notify() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.NotifyRequest
		if !h.decode(w, r, &req) {
			return
		}

		res, err := h.dispatcher.Notify(r.Context(), notify.NotifyInput{
			MatchID:    req.MatchID,
			Recipients: req.Recipients,
			Subject:    req.Subject,
			Message:    req.Message,
		})
		if err != nil {
			failed := res.Failed()
			if len(failed) > 0 {
				slog.Warn("Match notification partially failed",
					slog.String("match_id", req.MatchID),
					slog.Int("failed", len(failed)),
					slog.Int("recipients", len(res.Results)))
			}
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, types.NotifyResponse{Success: true, Sent: res.Sent})
	}
}

// Push publishes a push message to the match topic
// @Summary Push a match message
// @Description Publish a message to topic match_<matchId>.
// @Tags notifications
// @Accept json
// @Produce json
// @Param request body types.PushRequest true "Push message"
// @Success 200 {object} types.PushResponse "Message published"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 429 {object} response.Response "Rate limit exceeded"
// @Failure 502 {object} response.Response "Broker failed"
// @Failure 503 {object} response.Response "Push not configured"
// @Router /push [post]
func (h *NotificationHandlers) Push() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.PushRequest
		if !h.decode(w, r, &req) {
			return
		}

		res, err := h.dispatcher.Push(r.Context(), notify.PushInput{
			MatchID: req.MatchID,
			Title:   req.Title,
			Body:    req.Body,
		})
		if err != nil {
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, types.PushResponse{Success: true, ID: res.ID, Topic: res.Topic})
	}
}

// PushHistory lists recent push messages of a match
// @Summary Recent push messages
// @Tags notifications
// @Produce json
// @Param matchId path string true "Match ID"
// @Param limit query int false "Maximum messages, newest first (default 20, max 100)"
// @Success 200 {object} response.Response{data=[]types.MatchPushEvent} "Recent messages"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 503 {object} response.Response "Push not configured"
// @Router /matches/{matchId}/push-history [get]
func (h *NotificationHandlers) PushHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.history == nil {
			response.WriteError(w, fmt.Errorf("%w: push broker is not configured", types.ErrChannelUnavailable))
			return
		}

		limit := int64(defaultHistory)
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || n < 1 {
				response.WriteError(w, types.Validationf("limit must be a positive integer"))
				return
			}
			limit = min(n, maxHistory)
		}

		events, err := h.history.History(r.Context(), push.Topic(r.PathValue("matchId")), limit)
		if err != nil {
			response.WriteError(w, types.Wrap(types.ErrTransport, err))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Push history retrieved", events))
	}
}

// CartConfirmation emails an "added to cart" confirmation
// @Summary Cart confirmation email
// @Tags notifications
// @Accept json
// @Produce json
// @Param request body types.CartConfirmationRequest true "Cart item"
// @Success 200 {object} response.Response "Email sent"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 502 {object} response.Response "Email transport failed"
// @Failure 503 {object} response.Response "Email not configured"
// @Router /send-cart-confirmation [post]
func (h *NotificationHandlers) CartConfirmation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.CartConfirmationRequest
		if !h.decode(w, r, &req) {
			return
		}

		err := h.dispatcher.SendCartConfirmation(r.Context(), req.UserEmail, mailer.CartItem{
			ProductName: req.ProductName,
			Price:       req.ProductPrice,
			Quantity:    req.Quantity,
		})
		if err != nil {
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Confirmation email sent", nil))
	}
}
