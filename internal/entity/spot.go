package entity

import "fmt"

// NoCard marks a spot whose card has been removed from play.
const NoCard = ""

// Position addresses a single spot on the board, zero-based.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (that Position) String() string {
	return fmt.Sprintf("%d,%d", that.Row, that.Col)
}

// Spot is one cell of the grid. A spot either holds a card with a label
// or is empty. An empty spot is never face up and never controlled.
// A controlled card is always face up.
type Spot struct {
	Card       string `json:"card"`
	FaceUp     bool   `json:"face_up"`
	Controller string `json:"controller,omitempty"`
}

func (that *Spot) HasCard() bool {
	return that.Card != NoCard
}

func (that *Spot) IsControlled() bool {
	return that.Controller != ""
}

func (that *Spot) IsControlledBy(player string) bool {
	return that.Controller != "" && that.Controller == player
}
