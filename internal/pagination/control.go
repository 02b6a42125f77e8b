// Package pagination models a page navigation control: a bounded, block-aligned
// window of page numbers plus a current-page indicator and page-change listeners.
package pagination

import "sync"

// DefaultMaxVisible is the number of page links shown at once.
const DefaultMaxVisible = 5

// Listener receives the page number requested by a page-change event.
type Listener func(page int)

// Control holds the state of a pagination widget. It is safe for concurrent use.
type Control struct {
	mutex      sync.Mutex
	total      int
	page       int
	maxVisible int
	listeners  []Listener
}

// State is an immutable snapshot of a Control, suitable for rendering.
type State struct {
	Total       int
	Page        int
	Visible     []int
	HasPrevious bool
	HasNext     bool
	Previous    int
	Next        int
}

// New builds a control for total pages positioned at page. A non-positive
// maxVisible falls back to DefaultMaxVisible.
func New(total int, page int, maxVisible int) *Control {
	if maxVisible <= 0 {
		maxVisible = DefaultMaxVisible
	}
	control := &Control{maxVisible: maxVisible}
	control.total = normalizeTotal(total)
	control.page = clamp(page, control.total)
	return control
}

func (control *Control) Page() int {
	control.mutex.Lock()
	defer control.mutex.Unlock()
	return control.page
}

func (control *Control) Total() int {
	control.mutex.Lock()
	defer control.mutex.Unlock()
	return control.total
}

// SetPage moves the current-page indicator without emitting a page-change event.
func (control *Control) SetPage(page int) {
	control.mutex.Lock()
	defer control.mutex.Unlock()
	control.page = clamp(page, control.total)
}

// SetTotal replaces the page count and keeps the indicator within range.
func (control *Control) SetTotal(total int) {
	control.mutex.Lock()
	defer control.mutex.Unlock()
	control.total = normalizeTotal(total)
	control.page = clamp(control.page, control.total)
}

// Subscribe registers listener for page-change events.
func (control *Control) Subscribe(listener Listener) {
	if listener == nil {
		return
	}
	control.mutex.Lock()
	defer control.mutex.Unlock()
	control.listeners = append(control.listeners, listener)
}

// Select emits a page-change event for page, clamped to the valid range.
// The indicator is left alone; owners call SetPage once the page has loaded.
func (control *Control) Select(page int) {
	control.mutex.Lock()
	requestedPage := clamp(page, control.total)
	listeners := append([]Listener(nil), control.listeners...)
	control.mutex.Unlock()

	for _, listener := range listeners {
		listener(requestedPage)
	}
}

func (control *Control) HasPrevious() bool {
	control.mutex.Lock()
	defer control.mutex.Unlock()
	return control.page > 1
}

func (control *Control) HasNext() bool {
	control.mutex.Lock()
	defer control.mutex.Unlock()
	return control.page < control.total
}

// Previous requests the page before the indicator. It is a no-op on the first page.
func (control *Control) Previous() {
	if !control.HasPrevious() {
		return
	}
	control.Select(control.Page() - 1)
}

// Next requests the page after the indicator. It is a no-op on the last page.
func (control *Control) Next() {
	if !control.HasNext() {
		return
	}
	control.Select(control.Page() + 1)
}

// Visible returns the block of page numbers containing the current page.
func (control *Control) Visible() []int {
	control.mutex.Lock()
	defer control.mutex.Unlock()
	return control.visibleLocked()
}

// Snapshot captures the control for rendering.
func (control *Control) Snapshot() State {
	control.mutex.Lock()
	defer control.mutex.Unlock()
	return State{
		Total:       control.total,
		Page:        control.page,
		Visible:     control.visibleLocked(),
		HasPrevious: control.page > 1,
		HasNext:     control.page < control.total,
		Previous:    clamp(control.page-1, control.total),
		Next:        clamp(control.page+1, control.total),
	}
}

func (control *Control) visibleLocked() []int {
	blockStart := ((control.page-1)/control.maxVisible)*control.maxVisible + 1
	blockEnd := blockStart + control.maxVisible - 1
	if blockEnd > control.total {
		blockEnd = control.total
	}
	pages := make([]int, 0, blockEnd-blockStart+1)
	for page := blockStart; page <= blockEnd; page++ {
		pages = append(pages, page)
	}
	return pages
}

func normalizeTotal(total int) int {
	if total < 1 {
		return 1
	}
	return total
}

func clamp(page int, total int) int {
	if page < 1 {
		return 1
	}
	if page > total {
		return total
	}
	return page
}
