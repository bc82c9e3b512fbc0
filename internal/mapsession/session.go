package mapsession

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"tgstorefront/internal/geo"
	"tgstorefront/internal/mapview"
	"tgstorefront/internal/points"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	pingInterval   = 30 * time.Second
	pongWait       = 60 * time.Second
	writeWait      = 10 * time.Second
	maxMessageSize = 8192

	outboxSize = 256
	eventQueue = 64
	listLimit  = 50
)

var (
	ErrClosed       = errors.New("map session closed")
	ErrUnknownEvent = errors.New("unknown event")
	ErrUnknownRef   = errors.New("unknown layer ref")
	ErrMissingCoord = errors.New("lat and lon are required")
)

// Options configure the websocket endpoint
type Options struct {
	Catalog *points.Catalog
	Logger  *zap.Logger
	// CheckOrigin defaults to accepting every origin
	CheckOrigin func(r *http.Request) bool
}

// Handler upgrades requests to map sessions
type Handler struct {
	upgrader websocket.Upgrader
	catalog  *points.Catalog
	logger   *zap.Logger
}

// NewHandler creates the websocket endpoint
func NewHandler(opts Options) *Handler {
	checkOrigin := opts.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	catalog := opts.Catalog
	if catalog == nil {
		catalog = points.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		catalog: catalog,
		logger:  logger,
	}
}

// ServeHTTP runs one map session until the connection closes
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	s := newSession(conn, h.catalog, h.logger)
	s.logger.Info("Map session opened", zap.String("remote_addr", r.RemoteAddr))
	s.run()
	s.logger.Info("Map session closed")
}

type watch struct {
	onFix   func(mapview.Fix)
	onError func(error)
}

type session struct {
	conn   *websocket.Conn
	logger *zap.Logger
	ctrl   *mapview.Controller

	out       chan []byte
	events    chan Envelope
	done      chan struct{}
	closeOnce sync.Once

	refSeq uint64

	mu       sync.Mutex
	ready    map[string]chan struct{}
	clicks   map[string]func()
	maps     map[string]*remoteMap
	watches  map[mapview.WatchID]watch
	watchSeq mapview.WatchID
}

func newSession(conn *websocket.Conn, catalog *points.Catalog, logger *zap.Logger) *session {
	s := &session{
		conn:    conn,
		logger:  logger.With(zap.String("session_id", uuid.NewString())),
		out:     make(chan []byte, outboxSize),
		events:  make(chan Envelope, eventQueue),
		done:    make(chan struct{}),
		ready:   make(map[string]chan struct{}),
		clicks:  make(map[string]func()),
		maps:    make(map[string]*remoteMap),
		watches: make(map[mapview.WatchID]watch),
	}

	s.ctrl = mapview.NewController(mapview.Deps{
		Library:    remoteLibrary{s: s},
		Geolocator: remoteGeolocator{s: s},
		Navigator:  remoteNavigator{s: s},
		Catalog:    catalog,
		Logger:     s.logger,
	}, nil)

	return s
}

func (s *session) run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workerDone := make(chan struct{})
	go s.writePump()
	go func() {
		defer close(workerDone)
		s.worker(ctx)
	}()

	s.readPump()
	s.close()
	cancel()

	<-workerDone
	s.ctrl.Unmount()
	_ = s.conn.Close()
}

func (s *session) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *session) readPump() {
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("Websocket read failed", zap.Error(err))
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			s.logger.Debug("Malformed frame", zap.Error(err))
			_ = s.command(CmdError, errorCmd{Message: "malformed frame"})
			continue
		}

		switch env.Type {
		case EvtMapReady:
			s.resolveReady(env)
		case EvtViewChanged:
			s.viewChanged(env)
		default:
			select {
			case s.events <- env:
			case <-s.done:
				return
			}
		}
	}
}

func (s *session) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		s.close()
	}()

	for {
		select {
		case message := <-s.out:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.logger.Debug("Websocket write failed", zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// worker handles events one at a time so the controller sees them in order
func (s *session) worker(ctx context.Context) {
	for {
		select {
		case env := <-s.events:
			s.handle(ctx, env)
		case <-s.done:
			return
		}
	}
}

func (s *session) handle(ctx context.Context, env Envelope) {
	var ev Event
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			_ = s.command(CmdError, errorCmd{Event: env.Type, Message: "malformed event data"})
			return
		}
	}

	if err := s.dispatch(ctx, env.Type, ev); err != nil {
		s.logger.Debug("Event failed", zap.String("event", env.Type), zap.Error(err))
		_ = s.command(CmdError, errorCmd{Event: env.Type, Message: err.Error()})
	}

	s.pushState()
}

func (s *session) dispatch(ctx context.Context, event string, ev Event) error {
	switch event {
	case EvtSync:
		q, err := url.ParseQuery(strings.TrimPrefix(ev.Query, "?"))
		if err != nil {
			return fmt.Errorf("invalid query: %w", err)
		}
		return s.ctrl.Sync(ctx, q)

	case EvtPickAddress:
		var coord *geo.Coordinate
		if ev.Lat != nil && ev.Lon != nil {
			coord = &geo.Coordinate{Lat: *ev.Lat, Lon: *ev.Lon}
		}
		return s.ctrl.PickAddress(ctx, ev.Address, coord)

	case EvtSelectPoint:
		return s.ctrl.SelectPoint(ctx, ev.PointID)

	case EvtMarkerClick:
		s.mu.Lock()
		click := s.clicks[ev.Ref]
		s.mu.Unlock()
		if click == nil {
			return ErrUnknownRef
		}
		click()
		return nil

	case EvtSetStep:
		return s.ctrl.SetStep(ctx, mapview.ParseStep(ev.Step))

	case EvtCloseDetail:
		return s.ctrl.CloseDetail(ctx)

	case EvtSetFilter:
		return s.ctrl.SetProviderFilter(ev.Filter)

	case EvtToggleTracking:
		err := s.ctrl.ToggleTracking()
		if errors.Is(err, mapview.ErrGeolocationUnsupported) {
			// reported through the state's geoError
			return nil
		}
		return err

	case EvtFix:
		w, ok := s.watch(mapview.WatchID(ev.WatchID))
		if !ok {
			return nil
		}
		if ev.Lat == nil || ev.Lon == nil {
			return ErrMissingCoord
		}
		w.onFix(mapview.Fix{
			Coordinate: geo.Coordinate{Lat: *ev.Lat, Lon: *ev.Lon},
			AccuracyM:  ev.Accuracy,
		})
		return nil

	case EvtGeoError:
		w, ok := s.watch(mapview.WatchID(ev.WatchID))
		if !ok {
			return nil
		}
		w.onError(geoError(ev.Code))
		return nil

	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, event)
	}
}

func (s *session) pushState() {
	st := State{Snapshot: s.ctrl.Snapshot()}
	if st.Step == mapview.StepList {
		st.Points = s.ctrl.ListPoints(listLimit)
	}
	_ = s.command(CmdState, st)
}

// command queues a frame for the browser
func (s *session) command(cmd string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", cmd, err)
	}
	frame, err := json.Marshal(Envelope{Type: cmd, Data: data})
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", cmd, err)
	}

	select {
	case <-s.done:
		return ErrClosed
	default:
	}

	select {
	case s.out <- frame:
		return nil
	case <-s.done:
		return ErrClosed
	}
}

func (s *session) nextRef(kind string) string {
	return fmt.Sprintf("%s-%d", kind, atomic.AddUint64(&s.refSeq, 1))
}

func (s *session) expectReady(ref string) <-chan struct{} {
	ch := make(chan struct{})
	s.mu.Lock()
	s.ready[ref] = ch
	s.mu.Unlock()
	return ch
}

func (s *session) dropReady(ref string) {
	s.mu.Lock()
	delete(s.ready, ref)
	s.mu.Unlock()
}

func (s *session) resolveReady(env Envelope) {
	var ev Event
	if err := json.Unmarshal(env.Data, &ev); err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.ready[ev.Ref]; ok {
		close(ch)
		delete(s.ready, ev.Ref)
	}
}

func (s *session) trackMap(m *remoteMap) {
	s.mu.Lock()
	s.maps[m.ref] = m
	s.mu.Unlock()
}

func (s *session) untrackMap(m *remoteMap) {
	s.mu.Lock()
	delete(s.maps, m.ref)
	s.mu.Unlock()
}

func (s *session) viewChanged(env Envelope) {
	var ev Event
	if err := json.Unmarshal(env.Data, &ev); err != nil || ev.Lat == nil || ev.Lon == nil {
		return
	}

	s.mu.Lock()
	m := s.maps[ev.Ref]
	s.mu.Unlock()
	if m != nil {
		m.moved(geo.Coordinate{Lat: *ev.Lat, Lon: *ev.Lon}, ev.Zoom)
	}
}

// onClick registers or, with a nil fn, forgets a marker click handler
func (s *session) onClick(ref string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn == nil {
		delete(s.clicks, ref)
		return
	}
	s.clicks[ref] = fn
}

func (s *session) addWatch(onFix func(mapview.Fix), onError func(error)) mapview.WatchID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchSeq++
	s.watches[s.watchSeq] = watch{onFix: onFix, onError: onError}
	return s.watchSeq
}

func (s *session) removeWatch(id mapview.WatchID) {
	s.mu.Lock()
	delete(s.watches, id)
	s.mu.Unlock()
}

func (s *session) watch(id mapview.WatchID) (watch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.watches[id]
	return w, ok
}

func geoError(code string) error {
	switch code {
	case GeoDenied:
		return mapview.ErrPermissionDenied
	case GeoUnsupported:
		return mapview.ErrGeolocationUnsupported
	default:
		return mapview.ErrPositionUnavailable
	}
}
