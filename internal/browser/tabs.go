package browser

import (
	"github.com/chromedp/cdproto/target"
)

// TabSet is the ordered set of tabs a test has touched. A tab that shows
// up in the browser but not in the set is a new tab.
type TabSet struct {
	order []target.ID
	seen  map[target.ID]bool
}

// NewTabSet returns an empty set.
func NewTabSet() *TabSet {
	return &TabSet{seen: make(map[target.ID]bool)}
}

// Add records id, keeping first-seen order. Returns false if already present.
func (s *TabSet) Add(id target.ID) bool {
	if id == "" || s.seen[id] {
		return false
	}
	s.seen[id] = true
	s.order = append(s.order, id)
	return true
}

// Contains reports whether id has been recorded.
func (s *TabSet) Contains(id target.ID) bool {
	return s.seen[id]
}

// Remove forgets id.
func (s *TabSet) Remove(id target.ID) {
	if !s.seen[id] {
		return
	}
	delete(s.seen, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Len is the number of recorded tabs.
func (s *TabSet) Len() int {
	return len(s.order)
}

// List returns the recorded tabs in the order they were added.
func (s *TabSet) List() []target.ID {
	return append([]target.ID(nil), s.order...)
}

// FirstNew returns the first of handles that is not in the set. The order
// of handles is the browser's; no assumption is made about where a new tab
// appears in it.
func (s *TabSet) FirstNew(handles []target.ID) (target.ID, bool) {
	for _, h := range handles {
		if !s.seen[h] {
			return h, true
		}
	}
	return "", false
}

// pageTargets filters browser targets down to page tabs.
func pageTargets(infos []*target.Info) []target.ID {
	var ids []target.ID
	for _, info := range infos {
		if info == nil || info.Type != "page" {
			continue
		}
		ids = append(ids, info.TargetID)
	}
	return ids
}
