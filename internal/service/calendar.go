package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThomasConrad/PlantTracker/internal/apperror"
	"github.com/ThomasConrad/PlantTracker/internal/auth"
	"github.com/ThomasConrad/PlantTracker/internal/calendar"
	"github.com/ThomasConrad/PlantTracker/internal/model"
	"github.com/ThomasConrad/PlantTracker/internal/repository"
)

// feedPlantLimit caps how many plants a single feed renders. Two events per
// plant keeps even the cap comfortably under calendar clients' limits.
const feedPlantLimit = 1000

// CalendarService produces the iCalendar feed and manages feed access
// tokens.
type CalendarService struct {
	users   repository.UserRepository
	plants  repository.PlantRepository
	baseURL string
	logger  *slog.Logger
}

// NewCalendarService creates a CalendarService. baseURL is the externally
// reachable origin used to build feed URLs, without a trailing slash.
func NewCalendarService(users repository.UserRepository, plants repository.PlantRepository, baseURL string, logger *slog.Logger) *CalendarService {
	return &CalendarService{users: users, plants: plants, baseURL: baseURL, logger: logger}
}

// SubscriptionInfo tells the client how to subscribe to their feed.
type SubscriptionInfo struct {
	FeedURL      string            `json:"feedUrl"`
	Instructions map[string]string `json:"instructions"`
	Features     []string          `json:"features"`
}

// Subscription returns the user's current feed URL along with per-client
// setup instructions.
func (s *CalendarService) Subscription(ctx context.Context, userID string) (*SubscriptionInfo, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.subscriptionInfo(user.ID, user.CalendarToken), nil
}

// RegenerateToken replaces the user's calendar token and returns the new
// subscription info. Feed URLs issued with the old token stop working
// immediately.
func (s *CalendarService) RegenerateToken(ctx context.Context, userID string) (*SubscriptionInfo, error) {
	token := auth.NewCalendarToken()
	if err := s.users.UpdateCalendarToken(ctx, userID, token); err != nil {
		return nil, err
	}

	s.logger.Info("calendar token regenerated", slog.String("user_id", userID))
	return s.subscriptionInfo(userID, token), nil
}

func (s *CalendarService) subscriptionInfo(userID, token string) *SubscriptionInfo {
	feedURL := fmt.Sprintf("%s/api/v1/calendar/%s.ics?token=%s", s.baseURL, userID, token)
	return &SubscriptionInfo{
		FeedURL: feedURL,
		Instructions: map[string]string{
			"general": "Subscribe to the feed URL with any calendar app that supports iCalendar subscriptions.",
			"apple":   "Calendar > File > New Calendar Subscription, then paste the feed URL.",
			"iOS":     "Settings > Calendar > Accounts > Add Account > Other > Add Subscribed Calendar, then paste the feed URL.",
			"android": "Add the feed URL in Google Calendar on the web under Other calendars > From URL; it then syncs to your device.",
			"outlook": "Calendar > Add calendar > Subscribe from web, then paste the feed URL.",
		},
		Features: []string{
			"Recurring watering reminders for every plant",
			"Recurring fertilizing reminders for every plant",
			"Schedules shift automatically when you record care",
			"Updates whenever your plants change",
		},
	}
}

// Feed renders the iCalendar document for the given user, authorized by the
// calendar token from the feed URL. The token comparison is constant-time.
// An unknown user is not found; a wrong token is unauthorized.
func (s *CalendarService) Feed(ctx context.Context, userID, token string) (string, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}

	if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(user.CalendarToken)) != 1 {
		return "", apperror.Unauthorized("invalid calendar token")
	}

	// Page through the collection; list pages are capped at 100 per query.
	// A user with no plants still gets a valid, empty calendar.
	var plants []model.Plant
	for offset := 0; offset < feedPlantLimit; offset += 100 {
		page, total, err := s.plants.ListPlants(ctx, userID, repository.ListOptions{Limit: 100, Offset: offset})
		if err != nil {
			return "", err
		}
		plants = append(plants, page...)
		if len(page) == 0 || int64(len(plants)) >= total {
			break
		}
	}

	return calendar.Generate(plants, time.Now().UTC()), nil
}
