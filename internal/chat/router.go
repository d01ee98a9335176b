package chat

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fueltrack/backend-go/internal/models"
)

// nearbyRadiusMeters is the fixed radius for chat-initiated station
// searches.
const nearbyRadiusMeters = 5000

const (
	locationPrompt = "Please share your location so I can find nearby gas stations."
	loginPrompt    = "Please log in so I can look up your fuel records."
	apologyReply   = "Sorry, I couldn't fetch your fuel data right now. Please try again in a moment."
	helpReply      = "I can help you with:\n" +
		"• Finding nearby gas stations — say \"find gas stations near me\" and share your location\n" +
		"• Monthly expenses — ask \"how much have I spent this month?\"\n" +
		"• Fuel prices — ask \"what's my average price?\"\n" +
		"• Your last fill-up — ask \"when was my last fill-up?\""
)

var suggestions = []string{
	"Try asking \"find gas stations near me\" to see what's nearby.",
	"Ask \"how much have I spent this month?\" for a quick expense summary.",
	"Ask \"what's my average fuel price?\" to track price trends.",
	"Ask \"when was my last fill-up?\" to see your latest entry.",
	"Say \"help\" to see everything I can do.",
}

// StationSearcher is the station search service as the chatbot sees it.
type StationSearcher interface {
	FindNearby(ctx context.Context, lat, lng float64, radiusMeters int) *models.StationSearchResult
}

// FuelStats is the slice of the fuel store the statistics intents query.
type FuelStats interface {
	MonthToDate(ctx context.Context, userID string, now time.Time) (cost, liters float64, count int, err error)
	AveragePrice(ctx context.Context, userID string) (float64, int, error)
	LastEntry(ctx context.Context, userID string) (*models.FuelEntry, error)
}

// Message is one inbound chat turn. Coordinates and identity are optional;
// intents that need them prompt for them instead of failing.
type Message struct {
	Text   string
	Lat    *float64
	Lng    *float64
	UserID string
}

// Reply is the chatbot answer: text plus, for station searches, the
// structured station list.
type Reply struct {
	Reply    string           `json:"reply"`
	Stations []models.Station `json:"stations,omitempty"`
}

type rule struct {
	matches func(text string) bool
	handle  func(ctx context.Context, msg Message) Reply
}

// Router classifies a single chat turn by ordered keyword rules and
// dispatches to the station search or fuel statistics. It is stateless
// across turns and never returns an error to its caller.
type Router struct {
	stations StationSearcher
	stats    FuelStats
	rules    []rule

	// Injectable for tests.
	now     func() time.Time
	randInt func(n int) int
}

func NewRouter(stations StationSearcher, stats FuelStats) *Router {
	r := &Router{
		stations: stations,
		stats:    stats,
		now:      time.Now,
		randInt:  rand.Intn,
	}

	// First match wins.
	r.rules = []rule{
		{
			matches: func(t string) bool {
				return hasAny(t, "near", "nearby", "find") &&
					hasAny(t, "gas", "station", "petrol", "diesel", "fuel")
			},
			handle: r.handleNearby,
		},
		{
			matches: func(t string) bool {
				return hasAny(t, "spent", "spend", "expense") && strings.Contains(t, "month")
			},
			handle: r.handleMonthlySpend,
		},
		{
			matches: func(t string) bool {
				return hasAny(t, "average", "avg") && strings.Contains(t, "price")
			},
			handle: r.handleAveragePrice,
		},
		{
			matches: func(t string) bool {
				return strings.Contains(t, "last") && hasAny(t, "fill", "entry", "refuel")
			},
			handle: r.handleLastFillUp,
		},
		{
			matches: func(t string) bool { return strings.Contains(t, "help") },
			handle: func(context.Context, Message) Reply {
				return Reply{Reply: helpReply}
			},
		},
	}

	return r
}

// Handle answers one chat turn.
func (r *Router) Handle(ctx context.Context, msg Message) Reply {
	text := strings.ToLower(msg.Text)

	for _, rule := range r.rules {
		if rule.matches(text) {
			return rule.handle(ctx, msg)
		}
	}

	return Reply{Reply: suggestions[r.randInt(len(suggestions))]}
}

func (r *Router) handleNearby(ctx context.Context, msg Message) Reply {
	if msg.Lat == nil || msg.Lng == nil {
		return Reply{Reply: locationPrompt}
	}

	result := r.stations.FindNearby(ctx, *msg.Lat, *msg.Lng, nearbyRadiusMeters)
	if result.Count == 0 {
		return Reply{Reply: "I couldn't find any fuel stations near you. Try again from a different spot."}
	}

	closest := result.Stations[0]
	return Reply{
		Reply: fmt.Sprintf("Found %d fuel stations near you. The closest is %s, about %s away.",
			result.Count, closest.Name, formatDistance(closest.DistanceMeters)),
		Stations: result.Stations,
	}
}

func (r *Router) handleMonthlySpend(ctx context.Context, msg Message) Reply {
	if msg.UserID == "" {
		return Reply{Reply: loginPrompt}
	}

	cost, liters, count, err := r.stats.MonthToDate(ctx, msg.UserID, r.now())
	if err != nil {
		log.Error().Err(err).Msg("Chat monthly-spend lookup failed")
		return Reply{Reply: apologyReply}
	}
	if count == 0 {
		return Reply{Reply: "You haven't logged any fill-ups this month yet."}
	}

	return Reply{Reply: fmt.Sprintf(
		"You've spent ₹%.2f on %.1f liters across %d fill-ups this month.",
		cost, liters, count,
	)}
}

func (r *Router) handleAveragePrice(ctx context.Context, msg Message) Reply {
	if msg.UserID == "" {
		return Reply{Reply: loginPrompt}
	}

	avg, count, err := r.stats.AveragePrice(ctx, msg.UserID)
	if err != nil {
		log.Error().Err(err).Msg("Chat average-price lookup failed")
		return Reply{Reply: apologyReply}
	}
	if count == 0 {
		return Reply{Reply: "You haven't logged any fill-ups yet."}
	}

	return Reply{Reply: fmt.Sprintf(
		"Your average fuel price over your last %d fill-ups is ₹%.2f per liter.",
		count, avg,
	)}
}

func (r *Router) handleLastFillUp(ctx context.Context, msg Message) Reply {
	if msg.UserID == "" {
		return Reply{Reply: loginPrompt}
	}

	entry, err := r.stats.LastEntry(ctx, msg.UserID)
	if err != nil {
		log.Error().Err(err).Msg("Chat last-fill-up lookup failed")
		return Reply{Reply: apologyReply}
	}
	if entry == nil {
		return Reply{Reply: "You haven't logged any fill-ups yet."}
	}

	station := entry.StationName
	if station == "" {
		station = "an unnamed station"
	}
	return Reply{Reply: fmt.Sprintf(
		"Your last fill-up was %.1f liters at %s on %s for ₹%.2f.",
		entry.Liters, station, entry.Date.Format("Jan 2, 2006"), entry.TotalCost,
	)}
}

func hasAny(text string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func formatDistance(meters int) string {
	if meters < 1000 {
		return fmt.Sprintf("%d m", meters)
	}
	return fmt.Sprintf("%.1f km", float64(meters)/1000)
}
