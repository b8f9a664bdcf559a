// Package termupdate decodes the JSON actions that carry remote screen
// updates:
//
//	{"action":"terminal:termupdate","id":1,"screen":["$ ls",null],"scrollback":[],"backspace":"\b"}
//
// A null or empty entry in "screen" means the row is unchanged. An absent
// "scrollback" leaves the stored scrollback alone.
//
// Session lifetime and mode changes use the same envelope:
//
//	{"action":"terminal:open","id":1,"rows":24,"columns":80,"keyboard_mode":"xterm","cursor_mode":"app"}
//	{"action":"terminal:mode","id":1,"cursor_mode":"normal"}
//	{"action":"terminal:close","id":1}
package termupdate

import (
	"errors"
	"fmt"

	"github.com/Gaurav-Gosain/termlink/internal/keys"
	"github.com/Gaurav-Gosain/termlink/internal/session"
	"github.com/tidwall/gjson"
)

// Action names.
const (
	ActionUpdate = "terminal:termupdate"
	ActionOpen   = "terminal:open"
	ActionClose  = "terminal:close"
	ActionMode   = "terminal:mode"
)

var (
	// ErrNotTermUpdate is returned by Decode for valid actions of another
	// kind.
	ErrNotTermUpdate = errors.New("not a terminal:termupdate action")
	// ErrUnknownAction is returned by Parse for actions it does not handle.
	ErrUnknownAction = errors.New("unknown action")
	// ErrInvalid is returned for malformed messages.
	ErrInvalid = errors.New("invalid message")
)

// Kind is the type of a parsed message.
type Kind int

// Message kinds.
const (
	KindUpdate Kind = iota
	KindOpen
	KindClose
	KindMode
)

func (k Kind) String() string {
	switch k {
	case KindUpdate:
		return "update"
	case KindOpen:
		return "open"
	case KindClose:
		return "close"
	case KindMode:
		return "mode"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Message is one decoded action.
type Message struct {
	Kind    Kind
	Session session.ID

	// KindUpdate
	Update session.Update

	// KindOpen
	Rows, Columns int

	// KindOpen and KindMode
	KeyboardMode    keys.KeyboardMode
	HasKeyboardMode bool
	CursorMode      keys.CursorMode
	HasCursorMode   bool
}

// Decode parses a terminal:termupdate action.
func Decode(data []byte) (session.Update, error) {
	msg, err := Parse(data)
	if err != nil {
		if errors.Is(err, ErrUnknownAction) {
			return session.Update{}, ErrNotTermUpdate
		}
		return session.Update{}, err
	}
	if msg.Kind != KindUpdate {
		return session.Update{}, ErrNotTermUpdate
	}
	return msg.Update, nil
}

// Parse decodes any supported action.
func Parse(data []byte) (Message, error) {
	if !gjson.ValidBytes(data) {
		return Message{}, fmt.Errorf("%w: malformed JSON", ErrInvalid)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return Message{}, fmt.Errorf("%w: not an object", ErrInvalid)
	}

	action := root.Get("action").String()
	id := root.Get("id")
	if !id.Exists() {
		id = root.Get("session")
	}

	var msg Message
	switch action {
	case ActionUpdate:
		msg.Kind = KindUpdate
	case ActionOpen:
		msg.Kind = KindOpen
	case ActionClose:
		msg.Kind = KindClose
	case ActionMode:
		msg.Kind = KindMode
	default:
		return Message{}, fmt.Errorf("%w %q", ErrUnknownAction, action)
	}

	if id.Type != gjson.Number {
		return Message{}, fmt.Errorf("%w: %s without a numeric id", ErrInvalid, action)
	}
	msg.Session = session.ID(id.Int())

	switch msg.Kind {
	case KindUpdate:
		u, err := decodeUpdate(root)
		if err != nil {
			return Message{}, err
		}
		u.Session = msg.Session
		msg.Update = u
	case KindOpen:
		msg.Rows = int(root.Get("rows").Int())
		msg.Columns = int(root.Get("columns").Int())
		if err := decodeModes(root, &msg); err != nil {
			return Message{}, err
		}
	case KindMode:
		if err := decodeModes(root, &msg); err != nil {
			return Message{}, err
		}
	}
	return msg, nil
}

func decodeUpdate(root gjson.Result) (session.Update, error) {
	var u session.Update

	screen := root.Get("screen")
	if screen.Exists() && !screen.IsArray() && screen.Type != gjson.Null {
		return u, fmt.Errorf("%w: screen is not an array", ErrInvalid)
	}
	screen.ForEach(func(_, line gjson.Result) bool {
		// null entries decode to "" which means unchanged.
		u.Lines = append(u.Lines, line.String())
		return true
	})
	if u.Lines == nil && screen.IsArray() {
		u.Lines = []string{}
	}

	scrollback := root.Get("scrollback")
	if scrollback.IsArray() {
		u.Scrollback = []string{}
		scrollback.ForEach(func(_, line gjson.Result) bool {
			u.Scrollback = append(u.Scrollback, line.String())
			return true
		})
	}

	bs := root.Get("backspace")
	switch bs.Type {
	case gjson.String:
		if s := bs.String(); s != "" {
			if len(s) != 1 {
				return u, fmt.Errorf("%w: backspace %q is not one byte", ErrInvalid, s)
			}
			u.Backspace, u.HasBackspace = s[0], true
		}
	case gjson.Number:
		n := bs.Int()
		if n < 0 || n > 0xff {
			return u, fmt.Errorf("%w: backspace %d out of range", ErrInvalid, n)
		}
		u.Backspace, u.HasBackspace = byte(n), true
	}
	return u, nil
}

func decodeModes(root gjson.Result, msg *Message) error {
	if v := root.Get("keyboard_mode"); v.Exists() {
		m, err := keys.ParseKeyboardMode(v.String())
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		msg.KeyboardMode, msg.HasKeyboardMode = m, true
	}
	if v := root.Get("cursor_mode"); v.Exists() {
		m, err := keys.ParseCursorMode(v.String())
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		msg.CursorMode, msg.HasCursorMode = m, true
	}
	return nil
}
