package bookmarks

import "git.home.luguber.info/inful/screenstore/internal/screens"

// Action is the closed set of Bookmarks screen actions.
//
//sumtype:decl
type Action interface {
	isBookmarkAction()
}

type (
	// Change shows Tree as the current folder.
	Change struct {
		Tree Node `json:"tree"`
	}
	Select struct {
		Node Node `json:"node"`
	}
	Deselect struct {
		Node Node `json:"node"`
	}
	DeselectAll struct{}
	StartSync   struct{}
	FinishSync  struct{}
)

func (Change) isBookmarkAction()      {}
func (Select) isBookmarkAction()      {}
func (Deselect) isBookmarkAction()    {}
func (DeselectAll) isBookmarkAction() {}
func (StartSync) isBookmarkAction()   {}
func (FinishSync) isBookmarkAction()  {}

// Codec serializes Bookmarks actions.
var Codec = screens.NewCodec[Action](Name,
	Change{},
	Select{},
	Deselect{},
	DeselectAll{},
	StartSync{},
	FinishSync{},
)
