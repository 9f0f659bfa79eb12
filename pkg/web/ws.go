package web

import (
	"context"
	"encoding/json"
	"fmt"

	contribws "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-vega/pkg/console"
	"github.com/teslashibe/go-vega/pkg/control"
	"github.com/teslashibe/go-vega/pkg/hub"
)

// Control socket message types.
const (
	MsgJoy    = "joy"
	MsgButton = "button"
	MsgSlider = "slider"
	MsgAck    = "ack"
	MsgPanel  = "panel"
	MsgError  = "error"
)

// ControlMessage is a message from an operator on /ws/control.
//
//	{"type":"joy","id":1,"x":0,"y":80,"dir":"N"}
//	{"type":"button","value":"FORWARD"}
//	{"type":"slider","name":"pitch","value":10}
type ControlMessage struct {
	Type string `json:"type"`
	JoyRequest
	Name  string          `json:"name,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// ControlReply answers one ControlMessage.
type ControlReply struct {
	Type    string          `json:"type"`
	Sent    *bool           `json:"sent,omitempty"`
	Emitted control.Command `json:"emitted,omitempty"`
	Buttons any             `json:"buttons,omitempty"`
	Name    string          `json:"name,omitempty"`
	Value   *float64        `json:"value,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// handleControlWS gives each connection its own session, so two operators
// never share dispatch or panel state.
func (s *Server) handleControlWS(conn *contribws.Conn) {
	sess := s.console.NewSession()
	defer s.console.CloseSession(sess)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		reply := s.handleControlMessage(context.Background(), sess, data)
		if err := conn.WriteJSON(reply); err != nil {
			s.logger.Debug("control socket write failed", "session", sess.ID, "err", err)
			return
		}
	}
}

func (s *Server) handleControlMessage(ctx context.Context, sess *console.Session, data []byte) ControlReply {
	var msg ControlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return errorReply(err)
	}

	switch msg.Type {
	case MsgJoy:
		sample, err := msg.Sample()
		if err != nil {
			return errorReply(err)
		}
		sent, err := sess.Joy(ctx, sample)
		if err != nil {
			return errorReply(err)
		}
		return ControlReply{Type: MsgAck, Sent: &sent}

	case MsgButton:
		var name string
		if err := json.Unmarshal(msg.Value, &name); err != nil {
			return errorReply(fmt.Errorf("button value must be a string"))
		}
		cmd, err := control.ParseCommand(name)
		if err != nil {
			return errorReply(err)
		}
		emitted, err := sess.Click(cmd)
		if err != nil {
			return errorReply(err)
		}
		return ControlReply{Type: MsgPanel, Emitted: emitted, Buttons: sess.Panel.Buttons()}

	case MsgSlider:
		slider, err := s.console.Slider(msg.Name)
		if err != nil {
			return errorReply(err)
		}
		var v float64
		if len(msg.Value) == 0 {
			v = slider.Reset()
		} else {
			if err := json.Unmarshal(msg.Value, &v); err != nil {
				return errorReply(fmt.Errorf("slider value must be a number"))
			}
			v = slider.Change(v)
		}
		return ControlReply{Type: MsgSlider, Name: slider.Name(), Value: &v}
	}

	return errorReply(fmt.Errorf("unknown message type %q", msg.Type))
}

func errorReply(err error) ControlReply {
	return ControlReply{Type: MsgError, Error: err.Error()}
}

// handleTelemetryWS streams telemetry snapshots
func (s *Server) handleTelemetryWS(c *websocket.Conn) {
	client := hub.NewClient(s.telemetryHub, c)
	client.Run()
}

// handlePanelWS streams the shared panel state
func (s *Server) handlePanelWS(c *websocket.Conn) {
	client := hub.NewClient(s.panelHub, c)
	client.Run()
}
