package httpapi

import (
	"bufio"
	"errors"
	"io"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-dashboard/internal/assistant"
	"github.com/i474232898/weather-dashboard/internal/geo"
	"github.com/i474232898/weather-dashboard/internal/geo/providers"
	"github.com/i474232898/weather-dashboard/internal/resolve"
	"github.com/i474232898/weather-dashboard/internal/session"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var validate = validator.New()

// Deps are the services the HTTP layer drives.
type Deps struct {
	Sessions  *session.Store
	Resolver  *resolve.Resolver
	Weather   *weather.Service
	Assistant *assistant.Client
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	h := &handlers{deps: deps}

	v1 := app.Group("/api/v1")

	v1.Post("/sessions", h.createSession)

	v1.Get("/sessions/:id", h.loadSession, h.getSession)
	v1.Post("/sessions/:id/search", h.loadSession, h.search)
	v1.Post("/sessions/:id/locate", h.loadSession, h.locate)
	v1.Put("/sessions/:id/location", h.loadSession, h.pick)
	v1.Put("/sessions/:id/date", h.loadSession, h.setDate)
	v1.Delete("/sessions/:id/notices/:noticeId", h.loadSession, h.dismissNotice)
	v1.Get("/sessions/:id/weather", h.loadSession, h.weather)
	v1.Post("/sessions/:id/chat", h.loadSession, h.chat)
}

// ErrorHandler renders every error as the JSON envelope clients expect.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

type handlers struct {
	deps Deps
}

const sessionKey = "session"

func (h *handlers) loadSession(c *fiber.Ctx) error {
	sess, err := h.deps.Sessions.Get(c.Params("id"))
	if err != nil {
		return toHTTPError(err)
	}
	c.Locals(sessionKey, sess)
	return c.Next()
}

func currentSession(c *fiber.Ctx) *session.Session {
	return c.Locals(sessionKey).(*session.Session)
}

func (h *handlers) createSession(c *fiber.Ctx) error {
	sess := h.deps.Sessions.Create()
	sess.Observe(func(snap session.Snapshot) {
		if snap.Location == nil {
			log.Printf("DEBUG: session %s: date=%s", snap.ID, snap.Date)
			return
		}
		log.Printf("DEBUG: session %s: location=%q (%s) date=%s", snap.ID, snap.Location.Name, snap.Location.Label(), snap.Date)
	})
	log.Printf("INFO: created session %s", sess.ID())
	return c.Status(fiber.StatusCreated).JSON(sess.Snapshot())
}

func (h *handlers) getSession(c *fiber.Ctx) error {
	return c.JSON(currentSession(c).Snapshot())
}

type searchRequest struct {
	Query string `json:"query" validate:"max=512"`
}

func (h *handlers) search(c *fiber.Ctx) error {
	var req searchRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	sess := currentSession(c)
	if _, err := h.deps.Resolver.Search(c.UserContext(), sess, req.Query); err != nil {
		if errors.Is(err, resolve.ErrEmptyQuery) {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return toHTTPError(err)
	}
	return c.JSON(sess.Snapshot())
}

// deviceReport is what the browser's geolocation API produced, if anything.
type deviceReport struct {
	Lat      *float64 `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lng      *float64 `json:"lng" validate:"omitempty,gte=-180,lte=180"`
	Accuracy float64  `json:"accuracy" validate:"gte=0"`
	// Timestamp is the fix time in Unix milliseconds.
	Timestamp int64  `json:"timestamp" validate:"gte=0"`
	Error     string `json:"error" validate:"max=64"`
}

type locateRequest struct {
	Device *deviceReport `json:"device"`
}

func (d *deviceReport) locator() (*providers.ReportedPosition, error) {
	pos := &providers.ReportedPosition{Error: d.Error}
	if d.Error != "" {
		return pos, nil
	}
	if d.Lat == nil || d.Lng == nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "device report needs lat and lng or an error code")
	}
	pos.Coordinate = geo.Coordinate{Latitude: *d.Lat, Longitude: *d.Lng}
	if d.Timestamp > 0 {
		pos.Timestamp = time.UnixMilli(d.Timestamp)
	}
	return pos, nil
}

func (h *handlers) locate(c *fiber.Ctx) error {
	var req locateRequest
	if len(c.Body()) > 0 {
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}
	}

	lr := resolve.LocateRequest{ClientIP: c.IP()}
	if req.Device != nil {
		pos, err := req.Device.locator()
		if err != nil {
			return err
		}
		lr.Device = pos
	}

	sess := currentSession(c)
	if _, err := h.deps.Resolver.Locate(c.UserContext(), sess, lr); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(sess.Snapshot())
}

type pickRequest struct {
	Lat  *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng  *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
	Name string   `json:"name" validate:"omitempty,max=256"`
}

func (h *handlers) pick(c *fiber.Ctx) error {
	var req pickRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	sess := currentSession(c)
	coord := geo.Coordinate{Latitude: *req.Lat, Longitude: *req.Lng}
	if _, err := h.deps.Resolver.Pick(c.UserContext(), sess, coord, req.Name); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(sess.Snapshot())
}

type dateRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

func (h *handlers) setDate(c *fiber.Ctx) error {
	var req dateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	d, err := session.ParseDate(req.Date)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	sess := currentSession(c)
	sess.PublishDate(d)
	return c.JSON(sess.Snapshot())
}

func (h *handlers) dismissNotice(c *fiber.Ctx) error {
	if !currentSession(c).Dismiss(c.Params("noticeId")) {
		return fiber.NewError(fiber.StatusNotFound, "notice not found")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handlers) weather(c *fiber.Ctx) error {
	sess := currentSession(c)
	loc, ok := sess.Location()
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "no location selected")
	}

	summary, err := h.deps.Weather.Daily(c.UserContext(), loc, sess.Date())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(summary)
}

type chatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required,max=8000"`
}

type chatRequest struct {
	Messages []chatMessage `json:"messages" validate:"required,min=1,max=50,dive"`
}

func (h *handlers) chat(c *fiber.Ctx) error {
	var req chatRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	history := make([]assistant.Message, len(req.Messages))
	for i, m := range req.Messages {
		history[i] = assistant.Message{Role: m.Role, Content: m.Content}
	}

	var loc *geo.Location
	if l, ok := currentSession(c).Location(); ok {
		loc = &l
	}

	if h.deps.Assistant == nil {
		return chatFailure(c, assistant.ErrNotConfigured)
	}
	stream, err := h.deps.Assistant.SendChat(c.UserContext(), history, loc)
	if err != nil {
		log.Printf("ERROR: chat request failed: %v", err)
		return chatFailure(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer stream.Close()
		for {
			chunk, err := stream.Recv()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					log.Printf("ERROR: chat stream interrupted: %v", err)
				}
				return
			}
			if _, err := w.WriteString(chunk); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				// Client went away.
				return
			}
		}
	})
	return nil
}

func chatFailure(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   "Failed to process chat request",
		"message": err.Error(),
	})
}

func bindAndValidate(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}
	if err := validate.Struct(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

// toHTTPError maps domain errors onto status codes.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrBusy), errors.Is(err, session.ErrSuperseded):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, geo.ErrInvalidCoordinate), errors.Is(err, geo.ErrEmptyName):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, resolve.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, resolve.MsgNotFound)
	case errors.Is(err, resolve.ErrSearch):
		return fiber.NewError(fiber.StatusBadGateway, resolve.MsgSearchError)
	case errors.Is(err, resolve.ErrLocateFailed):
		return fiber.NewError(fiber.StatusBadGateway, resolve.MsgLocateFailed)
	case errors.Is(err, weather.ErrNoData):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	log.Printf("ERROR: unhandled request error: %v", err)
	return fiber.NewError(fiber.StatusInternalServerError, "internal error")
}
