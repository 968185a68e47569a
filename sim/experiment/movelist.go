package experiment

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wafer-sim/wafer-sim/sim"
)

// MoveListFile is the on-disk move-list document.
type MoveListFile struct {
	MoveList []sim.Move `json:"MoveList"`
}

// WriteMoveList writes moves as {"MoveList": [...]}.
func WriteMoveList(path string, moves []sim.Move) error {
	if moves == nil {
		moves = []sim.Move{}
	}
	data, err := json.MarshalIndent(MoveListFile{MoveList: moves}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding move list: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing move list: %w", err)
	}
	return nil
}

// MoveListPath names the file of one combination: <prefix>_<scenario>_<mode>.json.
func MoveListPath(dir, prefix string, scenario sim.Scenario, mode Mode) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s_%s.json", prefix, scenario, mode))
}

// WriteMoveLists writes every kept move list of the report into dir and
// returns the paths written.
func WriteMoveLists(dir, prefix string, report *Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	var written []string
	for _, tr := range report.Trials {
		if tr.Moves == nil {
			continue
		}
		path := MoveListPath(dir, prefix, tr.Scenario, tr.Mode)
		if err := WriteMoveList(path, tr.Moves); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}
