package tui

// StateChangedMsg tells the model that the coordinator's state moved.
type StateChangedMsg struct{}

// VaultChangedMsg is sent when the watcher re-indexed notes.
type VaultChangedMsg struct {
	Paths []string
}
