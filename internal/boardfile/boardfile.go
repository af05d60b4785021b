// Package boardfile reads the on-disk board format: a "{rows}x{cols}"
// header line followed by rows*cols card labels, one per line, row-major.
package boardfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/memory-scramble-backend/internal/apperror"
	"github.com/rocketscienceinc/memory-scramble-backend/internal/entity"
)

// Load reads a board file from disk.
func Load(path string) (*entity.Grid, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open board file: %w", err)
	}
	defer file.Close()

	grid, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse board file %s: %w", path, err)
	}

	return grid, nil
}

// Parse reads a board from r.
func Parse(r io.Reader) (*entity.Grid, error) {
	scanner := bufio.NewScanner(r)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read header: %w", err)
		}
		return nil, fmt.Errorf("%w: empty input", apperror.ErrMalformedBoard)
	}

	rows, cols, err := parseDimensions(scanner.Text())
	if err != nil {
		return nil, err
	}

	labels := make([]string, 0, rows*cols)
	for scanner.Scan() {
		line := scanner.Text()
		if len(labels) == rows*cols {
			return nil, fmt.Errorf("%w: content after the last card on line %d", apperror.ErrMalformedBoard, len(labels)+2)
		}
		if !entity.ValidLabel(line) {
			return nil, fmt.Errorf("%w: invalid card label %q on line %d", apperror.ErrMalformedBoard, line, len(labels)+2)
		}
		labels = append(labels, line)
	}

	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cards: %w", err)
	}

	if len(labels) != rows*cols {
		return nil, fmt.Errorf("%w: expected %d cards, got %d", apperror.ErrMalformedBoard, rows*cols, len(labels))
	}

	return entity.NewGrid(rows, cols, labels)
}

func parseDimensions(header string) (int, int, error) {
	rawRows, rawCols, ok := strings.Cut(header, "x")
	if !ok {
		return 0, 0, fmt.Errorf("%w: header %q is not ROWSxCOLS", apperror.ErrMalformedBoard, header)
	}

	rows, err := strconv.Atoi(rawRows)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bad row count in header %q", apperror.ErrMalformedBoard, header)
	}

	cols, err := strconv.Atoi(rawCols)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bad column count in header %q", apperror.ErrMalformedBoard, header)
	}

	if rows <= 0 || cols <= 0 {
		return 0, 0, fmt.Errorf("%w: dimensions %dx%d", apperror.ErrMalformedBoard, rows, cols)
	}

	return rows, cols, nil
}
