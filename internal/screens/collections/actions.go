package collections

import "git.home.luguber.info/inful/screenstore/internal/screens"

// Action is the closed set of collection-creation actions.
//
//sumtype:decl
type Action interface {
	isCollectionAction()
}

type (
	// StepChanged moves the flow to Step.
	StepChanged struct {
		Step Step `json:"step"`
	}
	AddTabToSelection struct {
		Tab Tab `json:"tab"`
	}
	RemoveTabFromSelection struct {
		Tab Tab `json:"tab"`
	}
	SelectAllTabs   struct{}
	DeselectAllTabs struct{}
	// TabsChanged replaces the open tabs and drops selections that closed.
	TabsChanged struct {
		Tabs []Tab `json:"tabs"`
	}
	// CollectionsLoaded delivers the saved collections from storage.
	CollectionsLoaded struct {
		Collections []Collection `json:"collections"`
	}
	// CollectionSelected picks the collection to save into or rename.
	CollectionSelected struct {
		Collection Collection `json:"collection"`
	}
	// BackPressed navigates back from From.
	BackPressed struct {
		From Step `json:"from"`
	}
)

func (StepChanged) isCollectionAction()            {}
func (AddTabToSelection) isCollectionAction()      {}
func (RemoveTabFromSelection) isCollectionAction() {}
func (SelectAllTabs) isCollectionAction()          {}
func (DeselectAllTabs) isCollectionAction()        {}
func (TabsChanged) isCollectionAction()            {}
func (CollectionsLoaded) isCollectionAction()      {}
func (CollectionSelected) isCollectionAction()     {}
func (BackPressed) isCollectionAction()            {}

// Codec serializes collection-creation actions.
var Codec = screens.NewCodec[Action](Name,
	StepChanged{},
	AddTabToSelection{},
	RemoveTabFromSelection{},
	SelectAllTabs{},
	DeselectAllTabs{},
	TabsChanged{},
	CollectionsLoaded{},
	CollectionSelected{},
	BackPressed{},
)
