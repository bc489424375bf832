package panel

import (
	"time"

	"github.com/wrale/wrale-panels/api/types/v1alpha1"
	"github.com/wrale/wrale-panels/internal/wpaneld/rotation"
)

// snapshotLocked renders the machine position for the configured layout
func (e *Engine) snapshotLocked() v1alpha1.PanelState {
	st := v1alpha1.PanelState{
		TypeMeta:   v1alpha1.NewTypeMeta("PanelState"),
		PanelID:    e.cfg.ID,
		Layout:     e.cfg.Layout,
		Version:    e.version,
		Title:      e.title,
		FooterText: e.footer,
		UpdatedAt:  time.Now().UTC(),
	}

	action, ok := e.machine.Current()
	if !ok {
		st.Empty = true
		if e.cfg.Layout == v1alpha1.PanelLayoutGrid {
			st.Slots = emptySlots(e.cfg.GridSize)
		}
		return st
	}

	pos := e.machine.State()
	st.ActionIndex = pos.ActionIndex
	st.ImageIndex = pos.ImageIndex
	st.Action = &v1alpha1.ActionRef{
		ID:       action.ID,
		Name:     action.Name,
		Bordered: action.Bordered,
	}

	switch e.cfg.Layout {
	case v1alpha1.PanelLayoutCarousel:
		if it, ok := e.machine.CurrentItem(); ok {
			st.Current = e.displayItem(it)
		}

	case v1alpha1.PanelLayoutDual:
		left, right, distinct := e.machine.Panes()
		st.Left = e.displayItem(left)
		if !distinct {
			// A single item takes the whole width.
			st.Split = &v1alpha1.PaneSplit{LeftPercent: 100, RightPercent: 0}
			break
		}
		st.Right = e.displayItem(right)
		split := rotation.SplitPanes(e.aspects.Get(left.MediaRef), e.aspects.Get(right.MediaRef))
		st.Split = &v1alpha1.PaneSplit{LeftPercent: split.Left, RightPercent: split.Right}

	case v1alpha1.PanelLayoutGrid:
		grid := rotation.Allocate(action.Items, e.cfg.GridSize)
		st.Slots = e.gridSlots(grid.Slots)
		st.Dropped = len(grid.Dropped)

	case v1alpha1.PanelLayoutPagedGrid:
		view := e.machine.PageView()
		slots := make([]rotation.Slot, e.cfg.PageSize)
		for i := range slots {
			slots[i].Index = i
			if i < len(view.Items) {
				it := view.Items[i]
				slots[i].Item = &it
			}
		}
		st.Slots = e.gridSlots(slots)
		st.Page = view.Page
		st.PageCount = view.PageCount
	}

	return st
}

// visibleLocked reports whether ref is on screen in the current state
func (e *Engine) visibleLocked(ref string) bool {
	if ref == "" {
		return false
	}
	switch e.cfg.Layout {
	case v1alpha1.PanelLayoutCarousel:
		it, ok := e.machine.CurrentItem()
		return ok && it.MediaRef == ref
	case v1alpha1.PanelLayoutDual:
		left, right, _ := e.machine.Panes()
		return left.MediaRef == ref || right.MediaRef == ref
	case v1alpha1.PanelLayoutPagedGrid:
		for _, it := range e.machine.PageView().Items {
			if it.MediaRef == ref {
				return true
			}
		}
		return false
	}
	for _, it := range e.machine.Collection() {
		if it.MediaRef == ref {
			return true
		}
	}
	return false
}

func (e *Engine) displayItem(it rotation.Item) *v1alpha1.DisplayItem {
	return &v1alpha1.DisplayItem{
		ID:       it.ID,
		Title:    it.Title,
		Ordinal:  it.Ordinal,
		MediaRef: it.MediaRef,
		Payload:  it.Payload,
		Failed:   it.MediaRef != "" && e.tracker.IsFailed(it.MediaRef),
	}
}

func (e *Engine) gridSlots(slots []rotation.Slot) []v1alpha1.GridSlot {
	out := make([]v1alpha1.GridSlot, len(slots))
	for i, s := range slots {
		out[i].Index = s.Index
		if s.Item != nil {
			out[i].Item = e.displayItem(*s.Item)
		}
	}
	return out
}

func emptySlots(n int) []v1alpha1.GridSlot {
	out := make([]v1alpha1.GridSlot, n)
	for i := range out {
		out[i].Index = i
	}
	return out
}
