package entity

import (
	"fmt"
	"unicode"

	"github.com/rocketscienceinc/memory-scramble-backend/internal/apperror"
)

// MoveState tracks where a player stands inside their current turn.
// First and Second are set in order; Matched is meaningful once Second is set.
type MoveState struct {
	First   *Position
	Second  *Position
	Matched bool
}

func (that *MoveState) HasFirst() bool {
	return that.First != nil
}

func (that *MoveState) HasSecond() bool {
	return that.Second != nil
}

func (that *MoveState) Reset() {
	that.First = nil
	that.Second = nil
	that.Matched = false
}

// Grid is the passive store behind a board: a rows x cols matrix of spots
// plus the per-player move state. It does no locking and no blocking;
// callers serialize access themselves.
type Grid struct {
	rows  int
	cols  int
	spots [][]Spot
	moves map[string]*MoveState
}

// NewGrid builds a grid from row-major card labels. Every spot starts
// face down and uncontrolled.
func NewGrid(rows, cols int, labels []string) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%d", apperror.ErrMalformedBoard, rows, cols)
	}

	if len(labels) != rows*cols {
		return nil, fmt.Errorf("%w: expected %d cards, got %d", apperror.ErrMalformedBoard, rows*cols, len(labels))
	}

	spots := make([][]Spot, rows)
	for r := range spots {
		spots[r] = make([]Spot, cols)
		for c := range spots[r] {
			label := labels[r*cols+c]
			if !ValidLabel(label) {
				return nil, fmt.Errorf("%w: invalid card label %q", apperror.ErrMalformedBoard, label)
			}
			spots[r][c] = Spot{Card: label}
		}
	}

	return &Grid{
		rows:  rows,
		cols:  cols,
		spots: spots,
		moves: make(map[string]*MoveState),
	}, nil
}

func (that *Grid) Rows() int { return that.rows }

func (that *Grid) Cols() int { return that.cols }

func (that *Grid) InBounds(pos Position) bool {
	return pos.Row >= 0 && pos.Row < that.rows && pos.Col >= 0 && pos.Col < that.cols
}

// At returns the spot at pos. The position must be in bounds.
func (that *Grid) At(pos Position) *Spot {
	return &that.spots[pos.Row][pos.Col]
}

// Move returns the move state for a player, creating it on first use.
func (that *Grid) Move(player string) *MoveState {
	move, ok := that.moves[player]
	if !ok {
		move = &MoveState{}
		that.moves[player] = move
	}

	return move
}

// TurnFaceUp turns the card at pos face up and reports whether the
// face changed. Empty spots stay as they are.
func (that *Grid) TurnFaceUp(pos Position) bool {
	spot := that.At(pos)
	if !spot.HasCard() || spot.FaceUp {
		return false
	}

	spot.FaceUp = true

	return true
}

// TurnFaceDown turns the card at pos face down and reports whether the
// face changed. Controlled cards stay face up.
func (that *Grid) TurnFaceDown(pos Position) bool {
	spot := that.At(pos)
	if !spot.HasCard() || !spot.FaceUp || spot.IsControlled() {
		return false
	}

	spot.FaceUp = false

	return true
}

// Claim gives the player control of the face-up card at pos. It fails on
// empty, face-down or already controlled spots.
func (that *Grid) Claim(pos Position, player string) bool {
	spot := that.At(pos)
	if !spot.HasCard() || !spot.FaceUp || spot.IsControlled() {
		return false
	}

	spot.Controller = player

	return true
}

// Release drops control of the card at pos, leaving its face as is.
func (that *Grid) Release(pos Position) bool {
	spot := that.At(pos)
	if !spot.IsControlled() {
		return false
	}

	spot.Controller = ""

	return true
}

// RemoveCard takes the card at pos out of play.
func (that *Grid) RemoveCard(pos Position) bool {
	spot := that.At(pos)
	if !spot.HasCard() {
		return false
	}

	spot.Card = NoCard
	spot.FaceUp = false
	spot.Controller = ""

	return true
}

// Relabel swaps the card label at pos, keeping face and control.
func (that *Grid) Relabel(pos Position, label string) bool {
	spot := that.At(pos)
	if !spot.HasCard() || !ValidLabel(label) {
		return false
	}

	spot.Card = label

	return true
}

// LabelGroups snapshots the positions currently occupied by each label.
func (that *Grid) LabelGroups() map[string][]Position {
	groups := make(map[string][]Position)
	for r := range that.spots {
		for c := range that.spots[r] {
			spot := &that.spots[r][c]
			if !spot.HasCard() {
				continue
			}
			groups[spot.Card] = append(groups[spot.Card], Position{Row: r, Col: c})
		}
	}

	return groups
}

// ValidLabel reports whether label may occupy a spot: non-empty and
// free of whitespace.
func ValidLabel(label string) bool {
	if label == "" {
		return false
	}

	for _, r := range label {
		if unicode.IsSpace(r) {
			return false
		}
	}

	return true
}
