package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/levelcard/internal/domain/levels"
	"github.com/okian/levelcard/pkg/metrics"
)

// LevelSummary is the JSON view of a levels.Info.
type LevelSummary struct {
	XP               uint64  `json:"xp"`
	Level            uint64  `json:"level"`
	Progress         float64 `json:"progress"`
	Percent          uint64  `json:"percent"`
	CurrentThreshold uint64  `json:"current_threshold"`
	NextThreshold    uint64  `json:"next_threshold"`
}

// NewLevelSummary converts a level summary for the wire.
func NewLevelSummary(info levels.Info) LevelSummary {
	return LevelSummary{
		XP:               info.XP(),
		Level:            info.Level(),
		Progress:         info.Progress(),
		Percent:          info.Percent(),
		CurrentThreshold: info.Current(),
		NextThreshold:    info.Needed(),
	}
}

// LevelsHandler serves the curve.
type LevelsHandler struct{}

// NewLevelsHandler creates a new levels handler.
func NewLevelsHandler() *LevelsHandler {
	return &LevelsHandler{}
}

// HandleGetLevel handles GET /levels/{xp} requests.
func (h *LevelsHandler) HandleGetLevel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	raw := strings.TrimPrefix(r.URL.Path, "/levels/")
	if raw == "" || strings.Contains(raw, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	xp, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: xp must be a non-negative integer", ErrBadRequest))
		return
	}
	metrics.RecordLevelLookup()
	writeJSON(w, http.StatusOK, NewLevelSummary(levels.NewInfo(xp)))
}
