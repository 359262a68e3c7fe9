package telemetry

import "testing"

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_ExitFound(t *testing.T) {
	bd := NewBookmarkDetector(500, 0.1)

	got := bd.CheckLife(LifeStats{Life: 0, Ticks: 300, ExitFound: true, ExitID: "exit-0"})
	if !hasBookmark(got, BookmarkExitFound) {
		t.Errorf("expected exit_found bookmark, got %+v", got)
	}
}

func TestBookmarkDetector_CloseCall(t *testing.T) {
	tests := []struct {
		name string
		ls   LifeStats
		want bool
	}{
		{"survived at low health", LifeStats{Hits: 30, MinHealth: 50}, true},
		{"died", LifeStats{Hits: 34, MinHealth: -10, Died: true}, false},
		{"never low", LifeStats{Hits: 2, MinHealth: 470}, false},
		{"never hit", LifeStats{MinHealth: 500}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bd := NewBookmarkDetector(500, 0.1)
			if got := hasBookmark(bd.CheckLife(tt.ls), BookmarkCloseCall); got != tt.want {
				t.Errorf("close call = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBookmarkDetector_LongestLife(t *testing.T) {
	bd := NewBookmarkDetector(500, 0.1)

	if hasBookmark(bd.CheckLife(LifeStats{Life: 0, Ticks: 100}), BookmarkLongestLife) {
		t.Error("first life should only set the baseline")
	}
	if hasBookmark(bd.CheckLife(LifeStats{Life: 1, Ticks: 80}), BookmarkLongestLife) {
		t.Error("shorter life flagged as longest")
	}
	if !hasBookmark(bd.CheckLife(LifeStats{Life: 2, Ticks: 150}), BookmarkLongestLife) {
		t.Error("expected longest_life bookmark")
	}
}

func TestBookmarkDetector_MultiStun(t *testing.T) {
	bd := NewBookmarkDetector(500, 0.1)

	if bd.CheckAttack(10, 0, 1) != nil {
		t.Error("single stun should not bookmark")
	}
	bm := bd.CheckAttack(10, 2, 3)
	if bm == nil || bm.Type != BookmarkMultiStun || bm.Life != 2 {
		t.Errorf("CheckAttack = %+v", bm)
	}
}
