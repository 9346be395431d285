package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/sprite-ai/smartdiff/internal/model"
	"github.com/sprite-ai/smartdiff/internal/render"
	"github.com/sprite-ai/smartdiff/internal/report"
	"github.com/sprite-ai/smartdiff/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024 * 64,
	WriteBufferSize: 1024 * 64,
	CheckOrigin: func(r *http.Request) bool {
		return true // local tool; the server binds to loopback by default
	},
}

// WebSocket message types from client.
const (
	wsMsgStart    = "start"
	wsMsgMode     = "mode"
	wsMsgExport   = "export"
	wsMsgSnapshot = "snapshot"
)

// WebSocket message types to client.
const (
	wsMsgState = "state"
	wsMsgView  = "view"
	wsMsgError = "error"
)

// wsMessage is the envelope for WebSocket messages in both directions.
type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// wsStart is the payload for "start" messages.
type wsStart struct {
	Kind string `json:"kind"`
	Code string `json:"code,omitempty"`
	URL  string `json:"url,omitempty"`
}

func (m wsStart) request() (model.Request, error) {
	kind, err := model.ParseRequestKind(m.Kind)
	if err != nil {
		return model.Request{}, err
	}
	req := model.Request{Kind: kind, Code: m.Code, RepositoryURL: m.URL}
	if err := req.Validate(); err != nil {
		return model.Request{}, err
	}
	return req, nil
}

// wsMode is the payload for "mode" messages.
type wsMode struct {
	Mode    string   `json:"mode"`
	Include []string `json:"include,omitempty"`
}

// wsState mirrors the session after every transition.
type wsState struct {
	SessionID  string               `json:"session_id"`
	Generation uint64               `json:"generation"`
	Status     string               `json:"status"`
	Kind       string               `json:"kind,omitempty"`
	Target     string               `json:"target,omitempty"`
	Error      string               `json:"error,omitempty"`
	HasRawDiff bool                 `json:"has_raw_diff"`
	Files      []correlatedFileJSON `json:"files"`
	Snippet    *reviewJSON          `json:"snippet,omitempty"`
}

func stateJSON(id string, s session.Session) wsState {
	cm := s.Correlated()
	st := wsState{
		SessionID:  id,
		Generation: s.Generation,
		Status:     s.Status.String(),
		Error:      s.Err,
		HasRawDiff: cm.HasRawDiff(),
		Files:      correlatedJSON(cm),
	}
	if s.Request != nil {
		st.Kind = s.Request.Kind.String()
		st.Target = s.Request.Target()
	}
	if s.Snippet != nil {
		r := reviewFromAnalysis(*s.Snippet)
		st.Snippet = &r
	}
	return st
}

type opResult struct {
	gen uint64
	res session.Result
}

// wsSession is one connection's review session. All of its fields are
// touched only by the loop in handleWebSocket.
type wsSession struct {
	id      string
	conn    *websocket.Conn
	machine *session.Machine
	mode    render.Mode
	opts    render.Options
	log     zerolog.Logger
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	id := uuid.NewString()
	log := s.log.With().Str("session", id).Logger()
	ws := &wsSession{
		id:      id,
		conn:    conn,
		machine: session.New(session.WithLogger(log), session.WithClock(s.now)),
		log:     log,
	}
	ws.machine.OnChange(func(snap session.Session) {
		ws.send(wsMsgState, stateJSON(id, snap))
	})
	log.Debug().Msg("websocket session opened")

	incoming := make(chan []byte)
	go func() {
		defer close(incoming)
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn().Err(err).Msg("websocket read")
				}
				return
			}
			select {
			case incoming <- raw:
			case <-ctx.Done():
				return
			}
		}
	}()

	results := make(chan opResult)
	for {
		select {
		case raw, ok := <-incoming:
			if !ok {
				log.Debug().Msg("websocket session closed")
				return
			}
			s.handleWSMessage(ctx, ws, raw, results)
		case done := <-results:
			if !ws.machine.Resolve(done.gen, done.res) {
				continue
			}
			snap := ws.machine.Snapshot()
			if kind, _ := snap.Kind(); snap.Status == session.Resolved && kind != model.KindSnippet {
				ws.sendView()
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) handleWSMessage(ctx context.Context, ws *wsSession, raw []byte, results chan<- opResult) {
	var msg wsMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		ws.sendError("invalid message format")
		return
	}

	switch msg.Type {
	case wsMsgStart:
		var in wsStart
		if err := json.Unmarshal(msg.Data, &in); err != nil {
			ws.sendError("invalid start data")
			return
		}
		req, err := in.request()
		if err != nil {
			ws.sendError(err.Error())
			return
		}
		if s.analyzer == nil {
			ws.sendError("no analysis backend configured")
			return
		}
		op := ws.machine.Start(ctx, req)
		go func() {
			res := op.Run(s.analyzer)
			select {
			case results <- opResult{gen: op.Generation, res: res}:
			case <-ctx.Done():
			}
		}()
	case wsMsgMode:
		var in wsMode
		if err := json.Unmarshal(msg.Data, &in); err != nil {
			ws.sendError("invalid mode data")
			return
		}
		mode, err := render.ParseMode(in.Mode)
		if err != nil {
			ws.sendError(err.Error())
			return
		}
		ws.mode = mode
		ws.opts = render.Options{Include: in.Include}
		ws.sendView()
	case wsMsgExport:
		doc, err := report.Export(ws.machine.Snapshot(), s.now())
		if errors.Is(err, report.ErrNothingToExport) {
			ws.sendError("nothing to export")
			return
		}
		if err != nil {
			ws.sendError(err.Error())
			return
		}
		ws.send(wsMsgExport, doc)
	case wsMsgSnapshot:
		ws.send(wsMsgState, stateJSON(ws.id, ws.machine.Snapshot()))
	default:
		ws.sendError("unknown message type: " + msg.Type)
	}
}

// sendView renders the current session in the selected mode.
func (ws *wsSession) sendView() {
	snap := ws.machine.Snapshot()
	if snap.Status != session.Resolved {
		ws.sendError("no resolved analysis to render")
		return
	}
	view, err := render.For(ws.mode).Render(snap.Correlated(), ws.opts)
	if err != nil {
		ws.sendError(err.Error())
		return
	}
	ws.send(wsMsgView, view)
}

func (ws *wsSession) send(msgType string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		ws.log.Error().Err(err).Msg("ws marshal")
		return
	}
	if err := ws.conn.WriteJSON(wsMessage{Type: msgType, Data: raw}); err != nil {
		ws.log.Warn().Err(err).Msg("ws write")
	}
}

func (ws *wsSession) sendError(errMsg string) {
	ws.send(wsMsgError, map[string]string{"message": errMsg})
}
