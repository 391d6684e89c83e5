// Package web serves the status API and the touch stick websocket.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/cors"

	"go.viam.com/benben/controller"
	"go.viam.com/benben/drive"
	"go.viam.com/benben/input/webstick"
	"go.viam.com/benben/logging"
	"go.viam.com/benben/protocol"
	"go.viam.com/benben/utils"
)

// Controller is the part of the vehicle controller the server drives.
type Controller interface {
	ConnectionState() controller.State
	Connect(ctx context.Context) error
	Subscribe(fn func(controller.State)) func()
}

// StatusProvider reports the last drive loop tick.
type StatusProvider interface {
	Status() drive.Status
}

// Options configures a Server.
type Options struct {
	// ConnectTimeout bounds POST /api/connect. Zero means no bound beyond the request.
	ConnectTimeout time.Duration
}

// Server is an http.Handler.
type Server struct {
	router chi.Router
	ctrl   Controller
	status StatusProvider
	stick  *webstick.Stick
	opts   Options
	logger logging.Logger

	upgrader websocket.Upgrader
}

// NewServer returns a handler serving the API for ctrl, feeding stick from the websocket.
func NewServer(
	ctrl Controller,
	status StatusProvider,
	stick *webstick.Stick,
	opts Options,
	logger logging.Logger,
) *Server {
	s := &Server{
		ctrl:   ctrl,
		status: status,
		stick:  stick,
		opts:   opts,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Route("/api", func(r chi.Router) {
		r.Use(cors.AllowAll().Handler)
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/status", s.getStatus)
		r.Post("/connect", s.postConnect)
	})
	r.Route("/ws", func(r chi.Router) {
		r.Get("/stick", s.stickSocket)
	})
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// InputPayload is the selected input in a status response.
type InputPayload struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
}

// StatusPayload is the body of GET /api/status.
type StatusPayload struct {
	State  controller.State     `json:"state"`
	Motors protocol.MotorValues `json:"motors"`
	Input  InputPayload         `json:"input"`
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	st := s.status.Status()
	render.JSON(w, r, StatusPayload{
		State:  s.ctrl.ConnectionState(),
		Motors: st.Motors,
		Input: InputPayload{
			X:        st.Input.Movement.X,
			Y:        st.Input.Movement.Y,
			Rotation: st.Input.Rotation,
		},
	})
}

func (s *Server) postConnect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.opts.ConnectTimeout > 0 {
		var cancel func()
		ctx, cancel = context.WithTimeout(ctx, s.opts.ConnectTimeout)
		defer cancel()
	}

	if err := s.ctrl.Connect(ctx); err != nil {
		s.logger.CWarnw(ctx, "connect request failed", "error", err)
		if err := render.Render(w, r, errorResponse(err)); err != nil {
			s.logger.CErrorw(ctx, "failed to render error", "error", err)
		}
		return
	}
	render.JSON(w, r, StatePayload{State: s.ctrl.ConnectionState()})
}

// StatePayload is pushed on the websocket on every connection state change.
type StatePayload struct {
	State controller.State `json:"state"`
}

// StickPayload is a touch stick update sent by the page.
type StickPayload struct {
	LX float64 `json:"lx"`
	LY float64 `json:"ly"`
	RX float64 `json:"rx"`
	RY float64 `json:"ry"`
}

func (s *Server) stickSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied.
		s.logger.Debugw("websocket upgrade failed", "error", err)
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			s.logger.Debugw("failed to close websocket", "error", err)
		}
	}()

	states := make(chan controller.State, 16)
	unsubscribe := s.ctrl.Subscribe(func(state controller.State) {
		select {
		case states <- state:
		default:
			s.logger.Debugw("websocket client is slow, dropping state", "state", state)
		}
	})
	writer := utils.NewStoppableWorkers(func(ctx context.Context) {
		s.pushStates(ctx, conn, states)
	})
	defer func() {
		unsubscribe()
		writer.Stop()
		s.stick.Reset()
	}()

	// Subscribed before the initial push so no transition is missed.
	select {
	case states <- s.ctrl.ConnectionState():
	default:
	}

	for {
		var msg StickPayload
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debugw("stick websocket closed", "error", err)
			}
			return
		}
		s.stick.Set(msg.LX, msg.LY, msg.RX, msg.RY)
	}
}

// pushStates is the only writer on conn.
func (s *Server) pushStates(ctx context.Context, conn *websocket.Conn, states <-chan controller.State) {
	for {
		select {
		case <-ctx.Done():
			return
		case state := <-states:
			if err := conn.WriteJSON(StatePayload{State: state}); err != nil {
				s.logger.Debugw("failed to push state", "error", err)
				return
			}
		}
	}
}

// ErrResponse is the JSON error body.
type ErrResponse struct {
	Err            error `json:"-"`
	HTTPStatusCode int   `json:"-"`

	StatusText string `json:"status"`
	ErrorText  string `json:"error,omitempty"`
}

// Render sets the response status.
func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func errorResponse(err error) render.Renderer {
	code := http.StatusInternalServerError
	var precondition *controller.PreconditionError
	var discovery *controller.DiscoveryError
	switch {
	case errors.As(err, &precondition):
		code = http.StatusConflict
	case errors.As(err, &discovery):
		code = http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		code = http.StatusGatewayTimeout
	}
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: code,
		StatusText:     http.StatusText(code),
		ErrorText:      err.Error(),
	}
}
