// Package scramble implements a shared Memory Scramble board: a grid of
// face-down cards that any number of players flip concurrently, claiming
// pairs and removing the ones that match.
package scramble

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/memory-scramble-backend/internal/apperror"
	"github.com/rocketscienceinc/memory-scramble-backend/internal/entity"
)

// ErrInvalidTransform is reported by MapCards when the transform hands
// back a label no spot may hold.
var ErrInvalidTransform = errors.New("transform produced an invalid label")

// TransformFunc rewrites one card label. MapCards calls it once per
// distinct label, concurrently, with no lock held.
type TransformFunc func(ctx context.Context, label string) (string, error)

// FlipResult is what a settled flip hands back: the caller's view of the
// board and whether this flip completed a match.
type FlipResult struct {
	View    string
	Matched bool
}

// Board wraps a Grid with the concurrency rules of the game. All state
// changes run inside critical sections of one fair lock; waiting for a
// contended spot or for a visible change happens outside it, on signals
// that are fired and re-armed atomically within those critical sections.
type Board struct {
	grid *entity.Grid
	lock *ExclusiveLock

	// spot signals fire when a card's control is released or the card
	// leaves the board, waking flippers parked on that spot.
	signals [][]*signal

	// changed fires on any visible change: face turns, removals and
	// relabels, but never control handoffs.
	changed *signal
}

// New wraps grid into a board. The grid must not be touched directly
// afterwards.
func New(grid *entity.Grid) *Board {
	signals := make([][]*signal, grid.Rows())
	for r := range signals {
		signals[r] = make([]*signal, grid.Cols())
		for c := range signals[r] {
			signals[r][c] = newSignal()
		}
	}

	return &Board{
		grid:    grid,
		lock:    NewExclusiveLock(),
		signals: signals,
		changed: newSignal(),
	}
}

func (that *Board) Rows() int { return that.grid.Rows() }

func (that *Board) Cols() int { return that.grid.Cols() }

// runExclusive runs fn inside one critical section of the board lock.
func (that *Board) runExclusive(ctx context.Context, fn func() error) error {
	if err := that.lock.Lock(ctx); err != nil {
		return fmt.Errorf("failed to acquire board lock: %w", err)
	}
	defer that.lock.Unlock()

	return fn()
}

// Flip turns the card at row,col for player, following the turn rules:
// the first flip of a turn claims a card, the second resolves the pair,
// and the flip after a resolved pair cleans it up before starting over.
// Flip blocks while the target card is controlled by another player and
// returns once the flip settles or ctx is done.
func (that *Board) Flip(ctx context.Context, player string, row, col int) (*FlipResult, error) {
	pos := entity.Position{Row: row, Col: col}
	if !that.grid.InBounds(pos) {
		return nil, fmt.Errorf("%w: %s", apperror.ErrOutOfBounds, pos)
	}

	for {
		result, wait, err := that.flipOnce(ctx, player, pos)
		if err != nil {
			return nil, err
		}

		if wait == nil {
			return result, nil
		}

		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// flipOnce runs one locked flip attempt. A non-nil wait channel means
// the target was held by someone else: block on it, then retry, because
// the board may have changed arbitrarily while parked.
func (that *Board) flipOnce(ctx context.Context, player string, pos entity.Position) (*FlipResult, <-chan struct{}, error) {
	var (
		result *FlipResult
		wait   <-chan struct{}
	)

	err := that.runExclusive(ctx, func() error {
		move := that.grid.Move(player)
		if move.HasSecond() {
			that.settlePair(move)
		}

		if !move.HasFirst() {
			w, err := that.flipFirst(player, pos, move)
			if err != nil {
				return err
			}
			if w != nil {
				wait = w
				return nil
			}

			result = &FlipResult{View: that.renderLocked(player)}

			return nil
		}

		matched, err := that.flipSecond(player, pos, move)
		if err != nil {
			return err
		}

		result = &FlipResult{View: that.renderLocked(player), Matched: matched}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return result, wait, nil
}

// flipFirst starts a turn. It either claims the target card, reports a
// channel to park on while another player holds it, or fails.
func (that *Board) flipFirst(player string, pos entity.Position, move *entity.MoveState) (<-chan struct{}, error) {
	spot := that.grid.At(pos)

	if !spot.HasCard() {
		return nil, fmt.Errorf("%w: %s", apperror.ErrNoCard, pos)
	}

	if spot.IsControlled() {
		return that.signals[pos.Row][pos.Col].wait(), nil
	}

	if that.grid.TurnFaceUp(pos) {
		that.changed.fire()
	}
	that.grid.Claim(pos, player)

	move.First = &pos
	move.Second = nil
	move.Matched = false

	return nil, nil
}

// flipSecond resolves a turn against its first card. It never parks:
// every branch settles or fails on the spot.
func (that *Board) flipSecond(player string, pos entity.Position, move *entity.MoveState) (bool, error) {
	first := *move.First
	spot := that.grid.At(pos)

	if !spot.HasCard() {
		that.releaseControl(first)
		move.First = nil

		return false, fmt.Errorf("%w: %s", apperror.ErrNoCard, pos)
	}

	if spot.IsControlledBy(player) {
		// The first card stays claimed; only this attempt is rejected.
		return false, fmt.Errorf("%w: %s", apperror.ErrSelfControlled, pos)
	}

	if spot.IsControlled() {
		that.releaseControl(first)
		move.First = nil

		return false, fmt.Errorf("%w: %s", apperror.ErrAlreadyControlled, pos)
	}

	if that.grid.TurnFaceUp(pos) {
		that.changed.fire()
	}

	move.Second = &pos

	if that.grid.At(first).Card == spot.Card {
		that.grid.Claim(pos, player)
		move.Matched = true

		return true, nil
	}

	// A mismatch ends the player's hold right away; both cards stay
	// face up until the cleanup on their next flip.
	that.releaseControl(first)
	move.Matched = false

	return false, nil
}

// settlePair applies the aftermath of the previous turn: matched pairs
// leave the board, mismatched cards turn back down unless someone else
// grabbed them meanwhile. Clears the move state.
func (that *Board) settlePair(move *entity.MoveState) {
	first, second := *move.First, *move.Second

	if move.Matched {
		that.removeCard(first)
		that.removeCard(second)
	} else {
		for _, pos := range []entity.Position{first, second} {
			if that.grid.TurnFaceDown(pos) {
				that.changed.fire()
			}
		}
	}

	move.Reset()
}

// releaseControl drops control of a spot and wakes whoever is parked on it.
func (that *Board) releaseControl(pos entity.Position) {
	if that.grid.Release(pos) {
		that.signals[pos.Row][pos.Col].fire()
	}
}

// removeCard takes a card out of play, waking spot waiters and watchers.
func (that *Board) removeCard(pos entity.Position) {
	if that.grid.RemoveCard(pos) {
		that.signals[pos.Row][pos.Col].fire()
		that.changed.fire()
	}
}

// Watch blocks until the next visible change after the call, then
// returns the player's fresh view of the board.
func (that *Board) Watch(ctx context.Context, player string) (string, error) {
	var wait <-chan struct{}

	err := that.runExclusive(ctx, func() error {
		wait = that.changed.wait()
		return nil
	})
	if err != nil {
		return "", err
	}

	select {
	case <-wait:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	return that.RenderFor(ctx, player)
}

// MapCards runs transform once per distinct label on the board and
// rewrites the spots that still hold their original label when the
// result lands. Spots matched away in the meantime are left alone, so
// equal labels stay equal throughout. Face state and control are never
// touched. The first transform failure cancels the rest; labels already
// committed stay committed.
func (that *Board) MapCards(ctx context.Context, transform TransformFunc) error {
	var groups map[string][]entity.Position

	err := that.runExclusive(ctx, func() error {
		groups = that.grid.LabelGroups()
		return nil
	})
	if err != nil {
		return err
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for label, positions := range groups {
		label, positions := label, positions
		group.Go(func() error {
			next, err := transform(groupCtx, label)
			if err != nil {
				return fmt.Errorf("failed to transform label %q: %w", label, err)
			}

			if !entity.ValidLabel(next) {
				return fmt.Errorf("%w: %q -> %q", ErrInvalidTransform, label, next)
			}

			if next == label {
				return nil
			}

			return that.commitLabel(groupCtx, label, next, positions)
		})
	}

	return group.Wait()
}

// commitLabel installs a transformed label on every snapshotted position
// that still holds the original one.
func (that *Board) commitLabel(ctx context.Context, label, next string, positions []entity.Position) error {
	return that.runExclusive(ctx, func() error {
		for _, pos := range positions {
			if that.grid.At(pos).Card != label {
				continue
			}

			that.grid.Relabel(pos, next)
			that.signals[pos.Row][pos.Col].fire()
			that.changed.fire()
		}

		return nil
	})
}

// RenderFor projects the board as the given player sees it.
func (that *Board) RenderFor(ctx context.Context, player string) (string, error) {
	var view string

	err := that.runExclusive(ctx, func() error {
		view = that.renderLocked(player)
		return nil
	})
	if err != nil {
		return "", err
	}

	return view, nil
}
