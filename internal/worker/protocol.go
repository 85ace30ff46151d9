package worker

import (
	"encoding/json"
	"fmt"

	"github.com/vovakirdan/blockfall/internal/core"
	"github.com/vovakirdan/blockfall/internal/engine"
)

// CommandType names an inbound command.
type CommandType string

const (
	CmdStart           CommandType = "start"
	CmdInput           CommandType = "input"
	CmdRecover         CommandType = "recover"
	CmdUpdateSettings  CommandType = "updateSettings"
	CmdPause           CommandType = "pause"
	CmdResume          CommandType = "resume"
	CmdRequestSnapshot CommandType = "requestSnapshot"
)

// Command is one inbound message. Seq is optional; when present it must be
// strictly greater than every sequence number accepted before it.
type Command struct {
	Seq     *uint64         `json:"sequenceNumber,omitempty"`
	Type    CommandType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// WithSeq returns a copy of c carrying sequence number n.
func (c Command) WithSeq(n uint64) Command {
	c.Seq = &n
	return c
}

// MessageType names an outbound message.
type MessageType string

const (
	MsgSnapshot MessageType = "snapshot"
	MsgLog      MessageType = "log"
	MsgFatal    MessageType = "fatal"
)

// Message is one outbound message. Payload is *engine.Snapshot, LogPayload
// or FatalPayload depending on Type.
type Message struct {
	ProtocolVersion int         `json:"protocolVersion"`
	Seq             uint64      `json:"sequenceNumber"`
	Type            MessageType `json:"type"`
	Payload         any         `json:"payload,omitempty"`
}

// Snapshot returns the payload of a snapshot message, or nil.
func (m Message) Snapshot() *engine.Snapshot {
	s, _ := m.Payload.(*engine.Snapshot)
	return s
}

// LogPayload is carried by log messages.
type LogPayload struct {
	Level string `json:"level"`
	Msg   string `json:"msg"`
}

// FatalPayload is carried by fatal messages. No snapshots follow it until a
// new start or recover command succeeds.
type FatalPayload struct {
	Error string `json:"error"`
}

// StartPayload is the payload of a start command.
type StartPayload struct {
	Seed     uint32           `json:"seed"`
	Settings *engine.Settings `json:"settings,omitempty"`
}

// TimingsPayload is the object form of an input payload.
type TimingsPayload struct {
	Type string `json:"type"`
	DAS  int    `json:"das"`
	ARR  int    `json:"arr"`
}

const setTimingsType = "setTimings"

// UnmarshalJSON decodes the payload according to the message type.
func (m *Message) UnmarshalJSON(b []byte) error {
	var raw struct {
		ProtocolVersion int             `json:"protocolVersion"`
		Seq             uint64          `json:"sequenceNumber"`
		Type            MessageType     `json:"type"`
		Payload         json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	m.ProtocolVersion = raw.ProtocolVersion
	m.Seq = raw.Seq
	m.Type = raw.Type
	m.Payload = nil
	if len(raw.Payload) == 0 || string(raw.Payload) == "null" {
		return nil
	}

	var err error
	switch raw.Type {
	case MsgSnapshot:
		var s engine.Snapshot
		err = json.Unmarshal(raw.Payload, &s)
		m.Payload = &s
	case MsgLog:
		var p LogPayload
		err = json.Unmarshal(raw.Payload, &p)
		m.Payload = p
	case MsgFatal:
		var p FatalPayload
		err = json.Unmarshal(raw.Payload, &p)
		m.Payload = p
	default:
		m.Payload = raw.Payload
	}
	if err != nil {
		return fmt.Errorf("worker: decode %s payload: %w", raw.Type, err)
	}
	return nil
}

func command(t CommandType, payload any) Command {
	c := Command{Type: t}
	if payload != nil {
		// Payload types are plain structs and strings.
		data, _ := json.Marshal(payload)
		c.Payload = data
	}
	return c
}

// StartCommand builds a start command. A nil settings keeps the worker's current settings.
func StartCommand(seed uint32, settings *engine.Settings) Command {
	return command(CmdStart, StartPayload{Seed: seed, Settings: settings})
}

// InputCommand builds an input command for a player action.
func InputCommand(a core.Action) Command {
	return command(CmdInput, a.String())
}

// TimingsCommand builds the setTimings form of an input command.
func TimingsCommand(das, arr int) Command {
	return command(CmdInput, TimingsPayload{Type: setTimingsType, DAS: das, ARR: arr})
}

// RecoverCommand builds a recover command from a snapshot.
func RecoverCommand(s *engine.Snapshot) Command {
	return command(CmdRecover, s)
}

// UpdateSettingsCommand builds an updateSettings command from a partial
// settings object (any JSON-encodable value, usually a map).
func UpdateSettingsCommand(patch any) Command {
	return command(CmdUpdateSettings, patch)
}

// PauseCommand builds a pause command.
func PauseCommand() Command { return command(CmdPause, nil) }

// ResumeCommand builds a resume command.
func ResumeCommand() Command { return command(CmdResume, nil) }

// RequestSnapshotCommand builds a requestSnapshot command.
func RequestSnapshotCommand() Command { return command(CmdRequestSnapshot, nil) }
