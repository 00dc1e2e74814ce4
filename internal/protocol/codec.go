package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ErrInvalidMessage is returned for frames that cannot be decoded into a
// valid message.
var ErrInvalidMessage = errors.New("protocol: invalid message")

// Envelope is the wire form of a message.
type Envelope struct {
	Type    Kind            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

var decoders = map[Kind]func(json.RawMessage) (Message, error){
	KindSetDialogType: decodeAs[SetDialogType],
	KindShowList:      decodeAs[ShowList],
	KindLoaded:        decodeAs[Loaded],
	KindDialogBrowse:  decodeAs[DialogBrowse],
	KindDialogOpen:    decodeAs[DialogOpen],
	KindDialogSave:    decodeAs[DialogSave],
	KindDialogCancel:  decodeAs[DialogCancel],
	KindSetClientID:   decodeAs[SetClientID],
	KindDialogLogin:   decodeAs[DialogLogin],
}

func decodeAs[T Message](payload json.RawMessage) (Message, error) {
	var m T
	if len(payload) > 0 && string(payload) != "null" {
		if err := json.Unmarshal(payload, &m); err != nil {
			return nil, fmt.Errorf("%w: %s payload: %v", ErrInvalidMessage, m.Kind(), err)
		}
	}
	if err := validation.Validate(m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidMessage, m.Kind(), err)
	}
	return m, nil
}

// Encode validates m and returns its envelope as JSON.
func Encode(m Message) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil message", ErrInvalidMessage)
	}
	if u, ok := m.(Unknown); ok {
		return nil, fmt.Errorf("%w: cannot encode unknown type %q", ErrInvalidMessage, u.Type)
	}
	if err := validation.Validate(m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidMessage, m.Kind(), err)
	}
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("protocol: marshal %s: %w", m.Kind(), err)
	}
	return json.Marshal(Envelope{Type: m.Kind(), Payload: payload})
}

// Decode parses a JSON envelope. Recognised discriminants yield their typed,
// validated message; unrecognised ones yield an Unknown so the receiver can
// log and handle them explicitly.
func Decode(data []byte) (Message, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrInvalidMessage)
	}
	decode, ok := decoders[env.Type]
	if !ok {
		return Unknown{Type: string(env.Type), Payload: []byte(env.Payload)}, nil
	}
	return decode(env.Payload)
}
