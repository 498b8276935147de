package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ThomasConrad/PlantTracker/internal/auth"
	"github.com/ThomasConrad/PlantTracker/internal/service"
)

// CalendarHandler serves the subscription metadata endpoints and the public
// iCalendar feed.
type CalendarHandler struct {
	calendars *service.CalendarService
	logger    *slog.Logger
}

// NewCalendarHandler creates a CalendarHandler.
func NewCalendarHandler(calendars *service.CalendarService, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{calendars: calendars, logger: logger}
}

// HandleSubscription returns the user's feed URL and setup instructions.
func (h *CalendarHandler) HandleSubscription(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	info, err := h.calendars.Subscription(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, info)
}

// HandleRegenerateToken rotates the user's calendar token, revoking the
// previous feed URL.
func (h *CalendarHandler) HandleRegenerateToken(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	info, err := h.calendars.RegenerateToken(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, info)
}

// HandleFeed serves the iCalendar document. The route is public: calendar
// clients cannot send cookies, so access is authorized by the token query
// parameter alone.
func (h *CalendarHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	token := r.URL.Query().Get("token")

	feed, err := h.calendars.Feed(r.Context(), userID, token)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "plant-care-"+userID+".ics"))
	w.Write([]byte(feed))
}
