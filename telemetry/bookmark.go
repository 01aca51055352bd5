package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkPopulationCrash    BookmarkType = "population_crash"
	BookmarkPopulationRecovery BookmarkType = "population_recovery"
	BookmarkCriticalSurge      BookmarkType = "critical_surge"
	BookmarkStablePopulation   BookmarkType = "stable_population"
	BookmarkFeedStalled        BookmarkType = "feed_stalled"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `json:"type"`
	Frame       uint64       `json:"frame"`
	SimTick     uint64       `json:"sim_tick"`
	Description string       `json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"frame", b.Frame,
		"sim_tick", b.SimTick,
		"description", b.Description,
	)
}

// stallWindows is how many consecutive windows without a snapshot count as
// a stalled feed.
const stallWindows = 3

// BookmarkDetector detects interesting moments in the viewed ecosystem.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	recentMin          int // minimum population in recent history
	recentPeak         int // peak population in recent history
	stableWindowsCount int // consecutive windows with a steady population
	quietWindows       int // consecutive windows without a snapshot
	seenSnapshot       bool
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for stable population detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
		recentMin:   -1,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkFeedStalled(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	// Population checks only make sense once something has been seen
	if bd.seenSnapshot {
		if bd.historyFull || bd.historyIdx > 0 {
			if b := bd.checkCriticalSurge(stats); b != nil {
				bookmarks = append(bookmarks, *b)
			}
			if b := bd.checkPopulationRecovery(stats); b != nil {
				bookmarks = append(bookmarks, *b)
			}
			if b := bd.checkPopulationCrash(stats); b != nil {
				bookmarks = append(bookmarks, *b)
			}
			if b := bd.checkStablePopulation(stats); b != nil {
				bookmarks = append(bookmarks, *b)
			}
		}

		bd.addToHistory(stats)

		if stats.Population < bd.recentMin || bd.recentMin < 0 {
			bd.recentMin = stats.Population
		}
		if stats.Population > bd.recentPeak {
			bd.recentPeak = stats.Population
		}
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// getHistory returns the recorded windows, oldest first.
func (bd *BookmarkDetector) getHistory() []WindowStats {
	if !bd.historyFull {
		return bd.history[:bd.historyIdx]
	}
	ordered := make([]WindowStats, 0, bd.historySize)
	ordered = append(ordered, bd.history[bd.historyIdx:]...)
	return append(ordered, bd.history[:bd.historyIdx]...)
}

// checkFeedStalled fires once when snapshots stop arriving after at least
// one was seen, and re-arms when they resume.
func (bd *BookmarkDetector) checkFeedStalled(stats WindowStats) *Bookmark {
	if stats.Snapshots > 0 {
		bd.seenSnapshot = true
		bd.quietWindows = 0
		return nil
	}
	if !bd.seenSnapshot {
		return nil
	}
	bd.quietWindows++
	if bd.quietWindows != stallWindows {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkFeedStalled,
		Frame:       stats.WindowEndFrame,
		SimTick:     stats.SimTick,
		Description: fmt.Sprintf("No snapshot for %d windows since sim tick %d", stallWindows, stats.SimTick),
	}
}

func criticalShare(s WindowStats) float64 {
	if s.Population == 0 {
		return 0
	}
	return float64(s.Critical) / float64(s.Population)
}

func (bd *BookmarkDetector) checkCriticalSurge(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	// Rolling average share of critical organisms
	var total float64
	for _, h := range history {
		total += criticalShare(h)
	}
	avg := total / float64(len(history))
	if avg == 0 {
		return nil
	}

	current := criticalShare(stats)
	if current > avg*2.0 && stats.Critical >= 3 {
		return &Bookmark{
			Type:        BookmarkCriticalSurge,
			Frame:       stats.WindowEndFrame,
			SimTick:     stats.SimTick,
			Description: fmt.Sprintf("Critical share %.2f is %.1fx average (%.2f)", current, current/avg, avg),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkPopulationRecovery(stats WindowStats) *Bookmark {
	if bd.recentMin < 0 || bd.recentMin > 3 {
		return nil
	}

	threshold := bd.recentMin * 3
	if stats.Population >= threshold && stats.Population >= 6 {
		// Reset the minimum after triggering
		oldMin := bd.recentMin
		bd.recentMin = stats.Population

		return &Bookmark{
			Type:        BookmarkPopulationRecovery,
			Frame:       stats.WindowEndFrame,
			SimTick:     stats.SimTick,
			Description: fmt.Sprintf("Population recovered from %d to %d", oldMin, stats.Population),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkPopulationCrash(stats WindowStats) *Bookmark {
	if bd.recentPeak == 0 {
		return nil
	}

	dropPercent := 1.0 - float64(stats.Population)/float64(bd.recentPeak)
	if dropPercent > 0.30 && stats.Population < bd.recentPeak-10 {
		// Reset peak after crash
		oldPeak := bd.recentPeak
		bd.recentPeak = stats.Population

		return &Bookmark{
			Type:        BookmarkPopulationCrash,
			Frame:       stats.WindowEndFrame,
			SimTick:     stats.SimTick,
			Description: fmt.Sprintf("Population crashed %.0f%% from peak %d to %d", dropPercent*100, oldPeak, stats.Population),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkStablePopulation(stats WindowStats) *Bookmark {
	if stats.Population < 10 {
		bd.stableWindowsCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	recent := history[len(history)-4:]
	var sum float64
	for _, h := range recent {
		sum += float64(h.Population)
	}
	mean := sum / 4

	var variance float64
	for _, h := range recent {
		d := float64(h.Population) - mean
		variance += d * d
	}
	variance /= 4

	// CV^2 < 0.04 means CV < 0.2
	if mean > 0 && variance/(mean*mean) < 0.04 {
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	if bd.stableWindowsCount == 5 { // trigger exactly once at 5 windows
		return &Bookmark{
			Type:        BookmarkStablePopulation,
			Frame:       stats.WindowEndFrame,
			SimTick:     stats.SimTick,
			Description: fmt.Sprintf("Stable population of %d over 5+ windows", stats.Population),
		}
	}

	return nil
}
