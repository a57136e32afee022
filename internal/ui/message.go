package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/kjx/internal/formatter"
	"github.com/desertthunder/kjx/internal/rotation"
	"github.com/desertthunder/kjx/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgRotationLoaded MsgKind = iota
	MsgQueueLoaded
	MsgRotationChanged
	MsgAdvance
	MsgTick
	MsgDispatch
)

type rotationLoaded struct {
	export *formatter.RotationExport
	err    error
}

type queueLoaded struct {
	singerID int64
	items    []list.Item
	err      error
}

// rotationLoadedMsg is the constructor for [MsgRotationLoaded]
func rotationLoadedMsg(export *formatter.RotationExport, err error) Msg {
	return Msg{kind: MsgRotationLoaded, data: rotationLoaded{export, err}}
}

// queueLoadedMsg is the constructor for [MsgQueueLoaded]
func queueLoadedMsg(singerID int64, items []list.Item, err error) Msg {
	return Msg{kind: MsgQueueLoaded, data: queueLoaded{singerID, items, err}}
}

// changedMsg is the constructor for [MsgRotationChanged]
func changedMsg(change rotation.Change) Msg {
	return Msg{kind: MsgRotationChanged, data: change}
}

// advanceMsg is the constructor for [MsgAdvance]
func advanceMsg(event tasks.AdvanceEvent) Msg {
	return Msg{kind: MsgAdvance, data: event}
}

// tickMsg is the constructor for [MsgTick]
func tickMsg(t time.Time) Msg {
	return Msg{kind: MsgTick, data: t}
}

// dispatchMsg is the constructor for [MsgDispatch], which runs f on the update loop.
func dispatchMsg(f func()) Msg {
	return Msg{kind: MsgDispatch, data: f}
}
