package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/rocketscienceinc/memory-scramble-backend/internal/apperror"
	"github.com/rocketscienceinc/memory-scramble-backend/internal/entity"
	"github.com/rocketscienceinc/memory-scramble-backend/internal/repository"
)

const defaultScoresLimit = 10

func (that *Server) handleLook(w http.ResponseWriter, r *http.Request) {
	player := mux.Vars(r)["player"]

	view, err := that.gameplay.Look(r.Context(), player)
	if err != nil {
		that.respondError(w, r, err)
		return
	}

	that.respondView(w, view)
}

func (that *Server) handleFlip(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	player := vars["player"]

	row, err := strconv.Atoi(vars["row"])
	if err != nil {
		http.Error(w, "row must be an integer", http.StatusBadRequest)
		return
	}

	col, err := strconv.Atoi(vars["col"])
	if err != nil {
		http.Error(w, "col must be an integer", http.StatusBadRequest)
		return
	}

	view, err := that.gameplay.Flip(r.Context(), player, row, col)
	if err != nil {
		that.respondError(w, r, err)
		return
	}

	that.respondView(w, view)
}

// handleWatch long-polls: the response is written once the board
// visibly changes, or the request dies with the client.
func (that *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	player := mux.Vars(r)["player"]

	view, err := that.gameplay.Watch(r.Context(), player)
	if err != nil {
		that.respondError(w, r, err)
		return
	}

	that.respondView(w, view)
}

func (that *Server) handleMapCards(w http.ResponseWriter, r *http.Request) {
	player := mux.Vars(r)["player"]

	var labels map[string]string
	if err := json.NewDecoder(r.Body).Decode(&labels); err != nil {
		http.Error(w, "body must be a JSON object of labels", http.StatusBadRequest)
		return
	}

	view, err := that.gameplay.MapCards(r.Context(), player, labels)
	if err != nil {
		that.respondError(w, r, err)
		return
	}

	that.respondView(w, view)
}

func (that *Server) handleScores(w http.ResponseWriter, r *http.Request) {
	limit := defaultScoresLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	scores, err := that.stats.Leaderboard(r.Context(), limit)
	if err != nil {
		that.respondError(w, r, err)
		return
	}

	if scores == nil {
		scores = []entity.PlayerScore{}
	}

	that.respondJSON(w, scores)
}

func (that *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	player := mux.Vars(r)["player"]

	stats, err := that.stats.PlayerStats(r.Context(), player)
	if err != nil {
		that.respondError(w, r, err)
		return
	}

	that.respondJSON(w, stats)
}

func (that *Server) respondView(w http.ResponseWriter, view string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write([]byte(view)); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}

func (that *Server) respondJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to encode response", "error", err)
	}
}

func (that *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		that.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}

	http.Error(w, err.Error(), status)
}

// statusFor maps game rule violations onto HTTP statuses; anything
// unrecognized is a server fault.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrOutOfBounds):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrNoCard):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrAlreadyControlled),
		errors.Is(err, apperror.ErrSelfControlled):
		return http.StatusConflict
	case errors.Is(err, repository.ErrPlayerNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
