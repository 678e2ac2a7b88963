package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/levelcard/internal/domain/levels"
)

// RankLookup reads a member's XP and rank within a guild.
type RankLookup interface {
	XP(ctx context.Context, guild, user string) (uint64, error)
	Rank(ctx context.Context, guild string, xp uint64) (int64, error)
}

// RankSummary is the JSON answer for GET /rank/{guild}/{user}.
type RankSummary struct {
	Guild string `json:"guild"`
	User  string `json:"user"`
	Rank  int64  `json:"rank"`
	LevelSummary
}

// RankHandler handles rank requests.
type RankHandler struct {
	deps RankLookup
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(deps RankLookup) *RankHandler {
	return &RankHandler{deps: deps}
}

// HandleGetRank handles GET /rank/{guild}/{user} requests. Unranked members
// report rank 0.
func (h *RankHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	if h.deps == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", ErrUnavailable)
		return
	}
	guild, user, ok := strings.Cut(strings.TrimPrefix(r.URL.Path, "/rank/"), "/")
	if !ok || guild == "" || user == "" || strings.Contains(user, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	ctx := r.Context()
	xp, err := h.deps.XP(ctx, guild, user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	var rank int64
	if xp > 0 {
		if rank, err = h.deps.Rank(ctx, guild, xp); err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, RankSummary{
		Guild:        guild,
		User:         user,
		Rank:         rank,
		LevelSummary: NewLevelSummary(levels.NewInfo(xp)),
	})
}
