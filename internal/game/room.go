package game

import (
	"math/rand"
	"strings"
)

// Room mutators shared by the client store and the relay's canonical
// registry. None of them lock; the owner of the room does.

// AddPlayer appends p unless a player with the same id is already
// present. The first joiner becomes host.
func (r *Room) AddPlayer(p Player) bool {
	if r.Player(p.ID) != nil {
		return false
	}
	p.IsHost = len(r.Players) == 0
	r.Players = append(r.Players, p)
	return true
}

// RemovePlayer removes the named player. If the painter left and players
// remain, the first remaining player (stable order) takes over as painter
// and everyone else becomes a guesser. Returns false when the id was not
// present; callers prune the room when the roster ends up empty.
func (r *Room) RemovePlayer(id string) bool {
	idx := -1
	for i := range r.Players {
		if r.Players[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	r.Players = append(r.Players[:idx], r.Players[idx+1:]...)
	if len(r.Players) == 0 {
		r.PainterID = ""
		return true
	}
	if r.Player(r.PainterID) != nil {
		return true
	}
	next := r.Players[0].ID
	r.PainterID = next
	for i := range r.Players {
		if r.Players[i].ID == next {
			r.Players[i].Role = RolePainter
		} else {
			r.Players[i].Role = RoleGuesser
		}
	}
	return true
}

// SetRole assigns a role, keeping the painter exclusive: promoting a
// player to painter demotes the previous painter to guesser; demoting
// the current painter to guesser clears PainterID.
func (r *Room) SetRole(playerID string, role Role) bool {
	p := r.Player(playerID)
	if p == nil {
		return false
	}
	switch role {
	case RolePainter:
		for i := range r.Players {
			if r.Players[i].ID != playerID && r.Players[i].Role == RolePainter {
				r.Players[i].Role = RoleGuesser
			}
		}
		r.PainterID = playerID
	default:
		if r.PainterID == playerID {
			r.PainterID = ""
		}
	}
	p.Role = role
	return true
}

// ClearRoles drops every role and the painter reference, so the next
// round requires explicit role re-selection.
func (r *Room) ClearRoles() {
	r.PainterID = ""
	for i := range r.Players {
		r.Players[i].Role = RoleNone
	}
}

// StartRound moves the room into the drawing phase: picks a secret
// word+hint pair, builds the shuffled answer options (optionCount-1
// distractors plus the word), resolves the painter (current painter
// role, else first player), and arms the countdown. No-op with an empty
// roster.
func (r *Room) StartRound(seconds, optionCount int) bool {
	if len(r.Players) == 0 {
		return false
	}
	w := randomWord()
	opts := distractors(w.Word, optionCount-1)
	opts = append(opts, w.Word)
	rand.Shuffle(len(opts), func(i, j int) { opts[i], opts[j] = opts[j], opts[i] })

	painterID := r.Players[0].ID
	for _, p := range r.Players {
		if p.Role == RolePainter {
			painterID = p.ID
			break
		}
	}

	r.Phase = PhaseDrawing
	r.Word = w.Word
	r.Hint = w.Hint
	r.PainterID = painterID
	r.TimeLeft = seconds
	r.Paths = []Path{}
	r.AnswerOptions = opts
	r.WinnerName = ""
	return true
}

// EndRound moves the room into the reveal phase. winnerName is empty on
// the timeout path.
func (r *Room) EndRound(winnerName string) {
	r.Phase = PhaseReveal
	r.TimeLeft = 0
	r.WinnerName = winnerName
}

// MatchesWord reports whether text matches the secret word, ignoring
// surrounding whitespace and case. Always false while no word is set.
func (r *Room) MatchesWord(text string) bool {
	if r.Word == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(text), strings.TrimSpace(r.Word))
}
