package message

import (
	"WaRelay/bot/whatsapp"
	"WaRelay/impl/core"
	"WaRelay/internal/lib/api/response"
	"WaRelay/internal/lib/sl"
	"encoding/json"
	"errors"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"log/slog"
	"net/http"
)

type SendRequest struct {
	To   string `json:"to" validate:"required"`
	Text string `json:"text" validate:"required"`
}

type SendResponse struct {
	Result    string `json:"result"`
	To        string `json:"to"`
	MessageID string `json:"message_id,omitempty"`
}

type SendFailure struct {
	Error *whatsapp.APIError `json:"error"`
	Hint  string             `json:"hint"`
}

var validate = validator.New()

func Send(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.message"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req SendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request body"))
			return
		}

		if err := validate.Struct(req); err != nil {
			logger.Debug("invalid request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Missing required parameters: to, text"))
			return
		}

		result, err := handler.SendMessage(r.Context(), req.To, req.Text)
		if err != nil {
			logger = logger.With(slog.String("to", req.To), sl.Err(err))

			var apiErr *whatsapp.APIError
			switch {
			case errors.Is(err, whatsapp.ErrMissingCredentials):
				logger.Error("send message")
				render.Status(r, http.StatusServiceUnavailable)
				render.JSON(w, r, response.Error("Configuration error: missing WhatsApp credentials"))
			case errors.Is(err, core.ErrMissingParams):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.Error("Missing required parameters: to, text"))
			case errors.As(err, &apiErr):
				logger.Error("send message")
				render.Status(r, http.StatusBadGateway)
				render.JSON(w, r, response.Response{
					Success:       false,
					StatusMessage: apiErr.Error(),
					Data:          SendFailure{Error: apiErr, Hint: apiErr.Hint()},
				})
			default:
				logger.Error("send message")
				render.Status(r, http.StatusBadGateway)
				render.JSON(w, r, response.Error("Failed to send message"))
			}
			return
		}

		render.JSON(w, r, response.Ok(SendResponse{
			Result:    "sent",
			To:        result.To,
			MessageID: result.MessageID,
		}))
	}
}
