package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// The Google overlay is a read-only convenience: a connected user's Google
// events are shown alongside materialized occurrences as busy blocks. The
// reschedule engine never writes to it.

// BusyBlock is an external event reduced to what the grid renders.
type BusyBlock struct {
	ID      string    `json:"id"`
	Summary string    `json:"summary"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	AllDay  bool      `json:"all_day"`
}

func (a *App) googleOAuthConfig() *oauth2.Config {
	if a.Cfg.GoogleClientID == "" || a.Cfg.GoogleClientSecret == "" || a.Cfg.GoogleRedirectURL == "" {
		return nil
	}
	return &oauth2.Config{
		ClientID:     a.Cfg.GoogleClientID,
		ClientSecret: a.Cfg.GoogleClientSecret,
		RedirectURL:  a.Cfg.GoogleRedirectURL,
		Scopes:       []string{calendar.CalendarReadonlyScope},
		Endpoint:     google.Endpoint,
	}
}

// GET /api/overlay/google/auth — begins the OAuth2 flow.
func (a *App) GoogleAuthHandler(c *gin.Context) {
	conf := a.googleOAuthConfig()
	if conf == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "google overlay not configured"})
		return
	}
	state := fmt.Sprintf("user_%s_%d", currentUser(c), time.Now().Unix())
	c.JSON(http.StatusOK, gin.H{
		"auth_url": conf.AuthCodeURL(state, oauth2.AccessTypeOffline),
		"state":    state,
	})
}

// GET /oauth2callback — completes the OAuth2 flow and hands the token back
// to the client, which supplies it on overlay reads.
func (a *App) GoogleOAuth2CallbackHandler(c *gin.Context) {
	conf := a.googleOAuthConfig()
	if conf == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "google overlay not configured"})
		return
	}
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "authorization code required"})
		return
	}
	token, err := conf.Exchange(c.Request.Context(), code)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to exchange code for token"})
		return
	}
	tokenJSON, err := json.Marshal(token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"state": c.Query("state"),
		"token": string(tokenJSON),
	})
}

// GET /api/overlay/google?from=ISO&to=ISO — lists the connected calendar's
// events in the window as busy blocks. The token travels in X-Google-Token.
func (a *App) GoogleOverlayHandler(c *gin.Context) {
	conf := a.googleOAuthConfig()
	if conf == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "google overlay not configured"})
		return
	}
	tokenStr := c.GetHeader("X-Google-Token")
	if tokenStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "X-Google-Token header required"})
		return
	}
	var token oauth2.Token
	if err := json.Unmarshal([]byte(tokenStr), &token); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid token format"})
		return
	}

	ctx := c.Request.Context()
	srv, err := calendar.NewService(ctx,
		option.WithHTTPClient(conf.Client(context.Background(), &token)))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create calendar client"})
		return
	}

	call := srv.Events.List(c.DefaultQuery("calendar_id", "primary")).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(250)
	if from := c.Query("from"); from != "" {
		call = call.TimeMin(from)
	}
	if to := c.Query("to"); to != "" {
		call = call.TimeMax(to)
	}

	events, err := call.Do()
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": fmt.Sprintf("failed to retrieve events: %v", err)})
		return
	}

	blocks := make([]BusyBlock, 0, len(events.Items))
	for _, item := range events.Items {
		b := BusyBlock{ID: item.Id, Summary: item.Summary}
		if item.Start != nil {
			b.Start, b.AllDay = parseGoogleTime(item.Start.DateTime, item.Start.Date)
		}
		if item.End != nil {
			b.End, _ = parseGoogleTime(item.End.DateTime, item.End.Date)
		}
		if b.Start.IsZero() || b.End.IsZero() {
			continue
		}
		blocks = append(blocks, b)
	}

	c.JSON(http.StatusOK, gin.H{"busy": blocks, "count": len(blocks)})
}

func parseGoogleTime(dateTime, date string) (time.Time, bool) {
	if dateTime != "" {
		if t, err := time.Parse(time.RFC3339, dateTime); err == nil {
			return t, false
		}
		return time.Time{}, false
	}
	if date != "" {
		if t, err := time.Parse("2006-01-02", date); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
