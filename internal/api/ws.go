package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/aezell/codemint/internal/model"
	"github.com/aezell/codemint/internal/replay"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024 * 64,
	WriteBufferSize: 1024 * 64,
	CheckOrigin: func(r *http.Request) bool {
		return true // local tool; restrict behind a proxy in production
	},
}

// WebSocket message types from client.
const (
	wsMsgValidate = "validate"
	wsMsgCheck    = "check"
)

// WebSocket message types to client.
const (
	wsMsgAccepted   = "accepted"
	wsMsgCase       = "case"
	wsMsgVerdict    = "verdict"
	wsMsgViolations = "violations"
	wsMsgError      = "error"
)

// wsMessage is the envelope for WebSocket messages in both directions.
type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// wsAccepted is sent before the first case runs.
type wsAccepted struct {
	CodemodID string `json:"codemod_id"`
	Cases     int    `json:"cases"`
}

// wsCase reports one finished case.
type wsCase struct {
	CodemodID string            `json:"codemod_id"`
	Index     int               `json:"index"` // 1-based completion count
	Total     int               `json:"total"`
	Outcome   model.CaseOutcome `json:"outcome"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read", zap.Error(err))
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.sendWSError(conn, "invalid message format")
			continue
		}

		switch msg.Type {
		case wsMsgValidate:
			s.handleWSValidate(r, conn, msg.Data)
		case wsMsgCheck:
			s.handleWSCheck(conn, msg.Data)
		default:
			s.sendWSError(conn, "unknown message type: "+msg.Type)
		}
	}
}

// handleWSValidate streams one "case" message per finished case, then the verdict.
// The validator serializes its hook and Validate blocks, so writes never overlap.
func (s *Server) handleWSValidate(r *http.Request, conn *websocket.Conn, data json.RawMessage) {
	var req validateRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWSError(conn, "invalid validate data")
		return
	}
	if err := checkFields(&req); err != nil {
		s.sendWSError(conn, "invalid validate data: "+err.Error())
		return
	}

	def := req.definition()
	s.sendWSMessage(conn, wsMsgAccepted, wsAccepted{CodemodID: def.CodemodID, Cases: len(req.Cases)})

	done := 0
	v := s.newValidator(replay.WithOnCase(func(o model.CaseOutcome) {
		done++
		s.sendWSMessage(conn, wsMsgCase, wsCase{
			CodemodID: def.CodemodID,
			Index:     done,
			Total:     len(req.Cases),
			Outcome:   o,
		})
	}))

	def = v.Validate(r.Context(), def, req.Cases, req.timeout())
	s.sendWSMessage(conn, wsMsgVerdict, newValidateResponse(def))
}

func (s *Server) handleWSCheck(conn *websocket.Conn, data json.RawMessage) {
	var req checkRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWSError(conn, "invalid check data")
		return
	}

	violations, err := s.check(req)
	if err != nil {
		s.sendWSError(conn, err.Error())
		return
	}
	s.sendWSMessage(conn, wsMsgViolations, checkResponse{Total: len(violations), Violations: violations})
}

func (s *Server) sendWSMessage(conn *websocket.Conn, msgType string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		s.logger.Warn("ws marshal", zap.Error(err))
		return
	}
	msg := wsMessage{Type: msgType, Data: raw}
	if err := conn.WriteJSON(msg); err != nil {
		s.logger.Debug("ws write", zap.Error(err))
	}
}

func (s *Server) sendWSError(conn *websocket.Conn, errMsg string) {
	s.sendWSMessage(conn, wsMsgError, map[string]string{"message": errMsg})
}
