package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rocketscienceinc/bidtactoe-backend/internal/apperror"
	"github.com/rocketscienceinc/bidtactoe-backend/internal/repository"
)

const (
	defaultResultsLimit = 20
	maxResultsLimit     = 100
)

var (
	errMissingCell  = errors.New("cell is required")
	errInvalidLimit = errors.New("limit must be a positive integer")
)

type placeRequest struct {
	Cell *int `json:"cell"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (that *Server) GetGame(w http.ResponseWriter, r *http.Request) {
	that.writeJSON(w, http.StatusOK, that.game.GetState(r.Context()))
}

func (that *Server) NewGame(w http.ResponseWriter, r *http.Request) {
	that.writeJSON(w, http.StatusOK, that.game.NewGame(r.Context()))
}

func (that *Server) StartBiddingRound(w http.ResponseWriter, r *http.Request) {
	state, err := that.game.StartBiddingRound(r.Context())
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, state)
}

func (that *Server) MakeTurn(w http.ResponseWriter, r *http.Request) {
	var req placeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if req.Cell == nil {
		that.writeJSON(w, http.StatusBadRequest, errorResponse{Error: errMissingCell.Error()})
		return
	}

	state, err := that.game.MakeTurn(r.Context(), *req.Cell)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, state)
}

func (that *Server) ListResults(w http.ResponseWriter, r *http.Request) {
	limit := defaultResultsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			that.writeJSON(w, http.StatusBadRequest, errorResponse{Error: errInvalidLimit.Error()})
			return
		}
		limit = min(parsed, maxResultsLimit)
	}

	results, err := that.game.ListResults(r.Context(), limit)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, results)
}

func (that *Server) GetResult(w http.ResponseWriter, r *http.Request) {
	result, err := that.game.GetResult(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, result)
}

func (that *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		that.logger.Error("failed to encode response", "error", err)
	}
}

func (that *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		that.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"requestID", middleware.GetReqID(r.Context()),
			"error", err,
		)

		that.writeJSON(w, status, errorResponse{Error: http.StatusText(status)})

		return
	}

	that.writeJSON(w, status, errorResponse{Error: err.Error()})
}

// statusFor maps engine rejections onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrInvalidCell):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrResultNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrInvalidPlacement),
		errors.Is(err, apperror.ErrWrongPhase),
		errors.Is(err, apperror.ErrGameFinished),
		errors.Is(err, apperror.ErrStaleTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
