package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkExitFound   BookmarkType = "exit_found"
	BookmarkCloseCall   BookmarkType = "close_call"
	BookmarkLongestLife BookmarkType = "longest_life"
	BookmarkMultiStun   BookmarkType = "multi_stun"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Tick        int          `csv:"tick" json:"tick"`
	Life        int          `csv:"life" json:"life"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark(logger *slog.Logger) {
	logger.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"life", b.Life,
		"description", b.Description,
	)
}

// BookmarkDetector detects notable moments in a run.
type BookmarkDetector struct {
	closeCallHealth int // health at or below which a survived hit counts
	longestTicks    int
}

// NewBookmarkDetector creates a detector. A close call is a life whose health
// dropped to closeCallFraction of maxHealth or lower without dying.
func NewBookmarkDetector(maxHealth int, closeCallFraction float64) *BookmarkDetector {
	return &BookmarkDetector{
		closeCallHealth: int(float64(maxHealth) * closeCallFraction),
	}
}

// CheckLife analyzes a finished life and returns any triggered bookmarks.
func (bd *BookmarkDetector) CheckLife(ls LifeStats) []Bookmark {
	var bookmarks []Bookmark

	if ls.ExitFound {
		bookmarks = append(bookmarks, Bookmark{
			Type:        BookmarkExitFound,
			Tick:        ls.EndTick,
			Life:        ls.Life,
			Description: fmt.Sprintf("reached %s after %.1fs", ls.ExitID, ls.SurvivalSec),
		})
	}

	if ls.Hits > 0 && !ls.Died && ls.MinHealth > 0 && ls.MinHealth <= bd.closeCallHealth {
		bookmarks = append(bookmarks, Bookmark{
			Type:        BookmarkCloseCall,
			Tick:        ls.EndTick,
			Life:        ls.Life,
			Description: fmt.Sprintf("survived at %d health", ls.MinHealth),
		})
	}

	// The first life only sets the baseline.
	if bd.longestTicks > 0 && ls.Ticks > bd.longestTicks {
		bookmarks = append(bookmarks, Bookmark{
			Type:        BookmarkLongestLife,
			Tick:        ls.EndTick,
			Life:        ls.Life,
			Description: fmt.Sprintf("%d ticks beats previous best of %d", ls.Ticks, bd.longestTicks),
		})
	}
	if ls.Ticks > bd.longestTicks {
		bd.longestTicks = ls.Ticks
	}

	return bookmarks
}

// CheckAttack returns a bookmark when one attack stunned several pursuers.
func (bd *BookmarkDetector) CheckAttack(tick, life, stunned int) *Bookmark {
	if stunned < 2 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkMultiStun,
		Tick:        tick,
		Life:        life,
		Description: fmt.Sprintf("one attack stunned %d pursuers", stunned),
	}
}
