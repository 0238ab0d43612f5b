package gitrepo

import (
	"bytes"
	"fmt"

	"github.com/notegit/notesyncd/internal/models"
)

// Standard git conflict markers. A file counts as conflicted only when all
// three appear in its content.
var (
	markerOurs   = []byte("<<<<<<<")
	markerSep    = []byte("=======")
	markerTheirs = []byte(">>>>>>>")
)

// HasConflictMarkers reports whether content carries all three git conflict
// marker sequences.
func HasConflictMarkers(content []byte) bool {
	return bytes.Contains(content, markerOurs) &&
		bytes.Contains(content, markerSep) &&
		bytes.Contains(content, markerTheirs)
}

// ResolveMarkers rewrites conflicted content keeping one side of every
// conflict hunk. Lines between "<<<<<<<" and "=======" are the local (ours)
// side, lines between "=======" and ">>>>>>>" the remote (theirs) side.
// Returns an error on unbalanced markers rather than guessing.
func ResolveMarkers(content []byte, strategy models.ConflictStrategy) ([]byte, error) {
	if strategy != models.StrategyOurs && strategy != models.StrategyTheirs {
		return nil, fmt.Errorf("strategy %q cannot rewrite conflict hunks", strategy)
	}

	const (
		stateNormal = iota
		stateOurs
		stateTheirs
	)

	var out bytes.Buffer
	state := stateNormal

	lines := bytes.SplitAfter(content, []byte("\n"))
	for _, line := range lines {
		trimmed := bytes.TrimRight(line, "\r\n")
		switch {
		case bytes.HasPrefix(trimmed, markerOurs):
			if state != stateNormal {
				return nil, fmt.Errorf("nested conflict marker %q", trimmed)
			}
			state = stateOurs

		case bytes.Equal(trimmed, markerSep) && state == stateOurs:
			state = stateTheirs

		case bytes.HasPrefix(trimmed, markerTheirs):
			if state != stateTheirs {
				return nil, fmt.Errorf("unexpected conflict marker %q", trimmed)
			}
			state = stateNormal

		default:
			keep := state == stateNormal ||
				(state == stateOurs && strategy == models.StrategyOurs) ||
				(state == stateTheirs && strategy == models.StrategyTheirs)
			if keep {
				out.Write(line)
			}
		}
	}

	if state != stateNormal {
		return nil, fmt.Errorf("unterminated conflict hunk")
	}

	return out.Bytes(), nil
}
