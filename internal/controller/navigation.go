package controller

import (
	"errors"
	"fmt"

	"inventoryrecord/pkg/domain"
)

// ErrInvalidTransition reports an intent that is not accepted in the
// current navigation state. The state is left unchanged.
var ErrInvalidTransition = errors.New("invalid navigation transition")

// View identifies the page being shown.
type View string

const (
	ViewList   View = "list"
	ViewForm   View = "form"
	ViewDetail View = "detail"
)

// Navigation is the current page. Entry and Editing are set only for ViewDetail.
type Navigation struct {
	View    View
	Entry   domain.Entry
	Editing bool
}

func listNav() Navigation { return Navigation{View: ViewList} }

func detailNav(entry domain.Entry, editing bool) Navigation {
	return Navigation{View: ViewDetail, Entry: entry.Clone(), Editing: editing}
}

// Intent names a user action posted from a view.
type Intent string

const (
	IntentAdd    Intent = "add"
	IntentView   Intent = "view"
	IntentEdit   Intent = "edit"
	IntentDelete Intent = "delete"
	IntentSubmit Intent = "submit"
	IntentUpdate Intent = "update"
	IntentCancel Intent = "cancel"
	IntentBack   Intent = "back"
	IntentReload Intent = "reload"
)

// ParseIntent validates a posted intent name.
func ParseIntent(s string) (Intent, error) {
	switch i := Intent(s); i {
	case IntentAdd, IntentView, IntentEdit, IntentDelete, IntentSubmit, IntentUpdate, IntentCancel, IntentBack, IntentReload:
		return i, nil
	default:
		return "", fmt.Errorf("unknown intent %q", s)
	}
}

// allowed reports whether intent is accepted in nav.
func allowed(nav Navigation, intent Intent) bool {
	switch nav.View {
	case ViewList:
		switch intent {
		case IntentAdd, IntentView, IntentEdit, IntentDelete, IntentReload:
			return true
		}
	case ViewForm:
		switch intent {
		case IntentSubmit, IntentCancel, IntentBack:
			return true
		}
	case ViewDetail:
		if nav.Editing {
			switch intent {
			case IntentUpdate, IntentCancel, IntentDelete, IntentBack:
				return true
			}
			return false
		}
		switch intent {
		case IntentEdit, IntentDelete, IntentCancel, IntentBack:
			return true
		}
	}
	return false
}

func invalid(nav Navigation, intent Intent) error {
	state := string(nav.View)
	if nav.View == ViewDetail && nav.Editing {
		state += "(editing)"
	}
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, intent, state)
}
