// Package httpapi hosts the one streaming HTTP route this runtime exposes:
// GET /sse/translation/:taskID. Everything else (upload handling, task
// listing) is a Non-goal per spec.md §1 and is left to the CLI / caller
// that invokes pkg/workflow directly. Grounded on the teacher's
// pkg/api.Server shape (gin.Engine wrapper, Start/Shutdown lifecycle),
// narrowed to this single route, with wire framing from
// github.com/Tangerg/lynx/sse.
package httpapi

import (
	"context"
	"net/http"
	"time"

	lynxsse "github.com/Tangerg/lynx/sse"
	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/docflow/pkg/eventbus"
	"github.com/codeready-toolchain/docflow/pkg/tasktracker"
)

// heartbeatPeriod is the silence window before the handler emits a
// heartbeat and checks task liveness, per spec.md §6.
const heartbeatPeriod = 5 * time.Second

// TaskDirectory is the liveness/status lookup the streaming handler
// consults instead of reaching into orchestrator internals, per
// spec.md §9's closing design note.
type TaskDirectory interface {
	IsRunning(taskID string) bool
	Status(taskID string) (tasktracker.Status, bool)
}

// Subscriber is the narrow slice of *eventbus.Bus the server depends on.
type Subscriber interface {
	Subscribe(taskID string) (<-chan eventbus.Event, func())
}

// Server hosts the SSE streaming endpoint. The HTTP surface is
// deliberately minimal: no routing for upload, listing, or cancellation,
// which stay out of scope per spec.md §1.
type Server struct {
	engine          *gin.Engine
	httpServer      *http.Server
	bus             Subscriber
	tasks           TaskDirectory
	heartbeatPeriod time.Duration
}

// NewServer wires the SSE route. tasks may be nil, in which case the
// handler never synthesizes a completion — it only forwards bus events
// and heartbeats, relying on the client or context cancellation to end
// the stream.
func NewServer(bus Subscriber, tasks TaskDirectory) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:          engine,
		bus:             bus,
		tasks:           tasks,
		heartbeatPeriod: heartbeatPeriod,
	}
	s.engine.GET("/sse/translation/:taskID", s.streamTranslation)
	return s
}

// Handler returns the underlying http.Handler, for tests and for servers
// that want to mount this alongside other routers.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Engine exposes the underlying *gin.Engine so an embedding binary can
// register its own routes (e.g. a translation-submission endpoint)
// alongside the one streaming route this package owns. This package's own
// contribution to the HTTP surface stays limited to that one route, per
// spec.md §1's HTTP-binding Non-goal.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start runs the HTTP server on addr until it returns an error (e.g.
// after Shutdown).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.engine}
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// wireEvent is the canonical on-the-wire shape from spec.md §6.
type wireEvent struct {
	Agent    string         `json:"agent"`
	Stage    string         `json:"stage"`
	Progress int            `json:"progress"`
	Detail   map[string]any `json:"detail,omitempty"`
}

func connectedEvent() wireEvent {
	return wireEvent{Agent: "system", Stage: "connected", Progress: 0}
}

func heartbeatEvent() wireEvent {
	return wireEvent{Agent: "system", Stage: "heartbeat", Progress: -1}
}

func syntheticCompleteEvent() wireEvent {
	return wireEvent{Agent: "orchestrator", Stage: "complete", Progress: 100}
}

func syntheticErrorEvent() wireEvent {
	return wireEvent{Agent: "system", Stage: "error", Progress: -1}
}

func toWireEvent(evt eventbus.Event) wireEvent {
	return wireEvent{Agent: evt.Agent, Stage: evt.Stage, Progress: evt.Progress, Detail: evt.Detail}
}

func isComplete(evt eventbus.Event) bool {
	return evt.Agent == "orchestrator" && evt.Stage == "complete"
}

// streamTranslation serves GET /sse/translation/:taskID.
func (s *Server) streamTranslation(c *gin.Context) {
	taskID := c.Param("taskID")

	// lynxsse.Writer.initialize sets Content-Type/Connection/Cache-Control;
	// X-Accel-Buffering isn't one of them and must be set ourselves, before
	// the writer's first flush.
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	writer, err := lynxsse.NewWriter(&lynxsse.WriterConfig{
		Context:        c.Request.Context(),
		ResponseWriter: c.Writer,
	})
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	defer writer.Close()

	events, unsubscribe := s.bus.Subscribe(taskID)
	defer unsubscribe()

	if err := writer.SendData(connectedEvent()); err != nil {
		return
	}

	timer := time.NewTimer(s.heartbeatPeriod)
	defer timer.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return

		case evt, ok := <-events:
			if !ok {
				return
			}
			drainTimer(timer)
			timer.Reset(s.heartbeatPeriod)

			if err := writer.SendData(toWireEvent(evt)); err != nil {
				return
			}
			if isComplete(evt) {
				return
			}

		case <-timer.C:
			timer.Reset(s.heartbeatPeriod)
			if err := writer.SendData(heartbeatEvent()); err != nil {
				return
			}
			if s.taskHasEnded(taskID) {
				s.synthesizeCompletion(writer, taskID)
				return
			}
		}
	}
}

// taskHasEnded reports whether the directory knows about taskID and
// considers it no longer running. An unknown directory (nil) or unknown
// task never ends the stream on its own — only client/context
// disconnection does.
func (s *Server) taskHasEnded(taskID string) bool {
	if s.tasks == nil {
		return false
	}
	return !s.tasks.IsRunning(taskID)
}

// synthesizeCompletion emits a closing event once the directory confirms
// the task ended without ever publishing its own complete event: a
// completion for a successful/unknown outcome, or an error event for a
// task recorded as failed, cancelled, or timed out.
func (s *Server) synthesizeCompletion(writer *lynxsse.Writer, taskID string) {
	status, known := s.tasks.Status(taskID)
	if known && (status == tasktracker.StatusFailed || status == tasktracker.StatusCancelled || status == tasktracker.StatusTimedOut) {
		_ = writer.SendData(syntheticErrorEvent())
		return
	}
	_ = writer.SendData(syntheticCompleteEvent())
}

// drainTimer empties timer.C if it already fired, so Reset starts a fresh
// window rather than firing immediately on a stale tick.
func drainTimer(timer *time.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
