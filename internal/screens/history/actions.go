package history

import "git.home.luguber.info/inful/screenstore/internal/screens"

// Action is the closed set of History screen actions.
//
//sumtype:decl
type Action interface {
	isHistoryAction()
}

type (
	// ExitEditMode leaves Editing and drops the selection.
	ExitEditMode struct{}
	// AddItemForRemoval adds Item to the removal selection.
	AddItemForRemoval struct {
		Item Item `json:"item"`
	}
	// RemoveItemForRemoval removes Item from the removal selection.
	RemoveItemForRemoval struct {
		Item Item `json:"item"`
	}
	StartSync  struct{}
	FinishSync struct{}
	// EnterDeletionMode marks a bulk deletion as in progress.
	EnterDeletionMode struct{}
	ExitDeletionMode  struct{}
	// AddPendingDeletionSet hides IDs until the deletion is committed or undone.
	AddPendingDeletionSet struct {
		IDs []int64 `json:"ids"`
	}
	UndoPendingDeletionSet struct {
		IDs []int64 `json:"ids"`
	}
	// ReplaceItems installs a fresh item list, typically a sync result.
	ReplaceItems struct {
		Items []Item `json:"items"`
	}
)

func (ExitEditMode) isHistoryAction()           {}
func (AddItemForRemoval) isHistoryAction()      {}
func (RemoveItemForRemoval) isHistoryAction()   {}
func (StartSync) isHistoryAction()              {}
func (FinishSync) isHistoryAction()             {}
func (EnterDeletionMode) isHistoryAction()      {}
func (ExitDeletionMode) isHistoryAction()       {}
func (AddPendingDeletionSet) isHistoryAction()  {}
func (UndoPendingDeletionSet) isHistoryAction() {}
func (ReplaceItems) isHistoryAction()           {}

// Codec serializes History actions.
var Codec = screens.NewCodec[Action](Name,
	ExitEditMode{},
	AddItemForRemoval{},
	RemoveItemForRemoval{},
	StartSync{},
	FinishSync{},
	EnterDeletionMode{},
	ExitDeletionMode{},
	AddPendingDeletionSet{},
	UndoPendingDeletionSet{},
	ReplaceItems{},
)
