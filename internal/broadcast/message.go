// Package broadcast publishes game snapshots to at most one remote viewer.
package broadcast

import (
	"encoding/json"
	"fmt"

	"github.com/vovakirdan/dragonslayer/internal/game"
)

// Message types on the wire.
const (
	TypeUpdate = "u"
	TypeError  = "e"
)

// RejectMessage is the error text sent to a second viewer.
const RejectMessage = "single player supported"

// FireballMsg is one pool slot.
type FireballMsg struct {
	X      int  `json:"x"`
	Y      int  `json:"y"`
	Active bool `json:"a"`
}

// UpdateMsg is the full state sent every tick. Keys are kept short for the
// browser viewer.
type UpdateMsg struct {
	Type         string        `json:"t"`
	PlayerX      int           `json:"px"`
	PlayerY      int           `json:"py"`
	DragonX      int           `json:"dx"`
	DragonY      int           `json:"dy"`
	DragonAlive  bool          `json:"da"`
	DragonHealth int           `json:"dh"`
	Fireballs    []FireballMsg `json:"fb"`
	GameOver     bool          `json:"go"`
	Win          bool          `json:"win"`
	Started      bool          `json:"st"`
}

// ErrorMsg tells a client why it was refused.
type ErrorMsg struct {
	Type    string `json:"t"`
	Message string `json:"m"`
}

// NewUpdate converts a snapshot into its wire form.
func NewUpdate(s game.State) UpdateMsg {
	fbs := make([]FireballMsg, len(s.Fireballs))
	for i, fb := range s.Fireballs {
		fbs[i] = FireballMsg{X: fb.X, Y: fb.Y, Active: fb.Active}
	}
	return UpdateMsg{
		Type:         TypeUpdate,
		PlayerX:      s.Player.X,
		PlayerY:      s.Player.Y,
		DragonX:      s.Dragon.X,
		DragonY:      s.Dragon.Y,
		DragonAlive:  s.Dragon.Alive,
		DragonHealth: s.Dragon.Health,
		Fireballs:    fbs,
		GameOver:     s.GameOver,
		Win:          s.Win,
		Started:      s.Started,
	}
}

// EncodeUpdate serializes a snapshot.
func EncodeUpdate(s game.State) ([]byte, error) {
	b, err := json.Marshal(NewUpdate(s))
	if err != nil {
		return nil, fmt.Errorf("broadcast: encode update: %w", err)
	}
	return b, nil
}

// EncodeError serializes an error payload.
func EncodeError(msg string) []byte {
	// Marshal of a struct of two strings cannot fail.
	b, _ := json.Marshal(ErrorMsg{Type: TypeError, Message: msg})
	return b
}
