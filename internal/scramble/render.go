package scramble

import (
	"fmt"
	"strings"

	"github.com/rocketscienceinc/memory-scramble-backend/internal/entity"
)

// renderLocked writes the player's view of the board: a "{rows}x{cols}"
// header, then one line per spot in row-major order. Callers hold the
// board lock.
func (that *Board) renderLocked(player string) string {
	var view strings.Builder

	fmt.Fprintf(&view, "%dx%d\n", that.grid.Rows(), that.grid.Cols())

	for r := 0; r < that.grid.Rows(); r++ {
		for c := 0; c < that.grid.Cols(); c++ {
			spot := that.grid.At(entity.Position{Row: r, Col: c})

			switch {
			case !spot.HasCard():
				view.WriteString("none\n")
			case !spot.FaceUp:
				view.WriteString("down\n")
			case spot.IsControlledBy(player):
				fmt.Fprintf(&view, "my %s\n", spot.Card)
			default:
				fmt.Fprintf(&view, "up %s\n", spot.Card)
			}
		}
	}

	return view.String()
}
