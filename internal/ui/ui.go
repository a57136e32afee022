package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/kjx/internal/formatter"
	"github.com/desertthunder/kjx/internal/models"
	"github.com/desertthunder/kjx/internal/rotation"
	"github.com/desertthunder/kjx/internal/shared"
	"github.com/desertthunder/kjx/internal/tasks"
	"github.com/samber/lo"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	RotationView ViewState = iota
	QueueView
)

// Model represents the TUI application state.
type Model struct {
	session  *rotation.Session
	ctrl     *tasks.AdvanceController
	changes  <-chan rotation.Change
	clock    shared.Clock
	logger   *log.Logger
	view     ViewState
	width    int
	height   int
	singers  list.Model
	queue    list.Model
	export   *formatter.RotationExport
	selected formatter.RotationRow // singer whose queue is open
	pending  *tasks.AdvanceEvent
	ticking  bool
	status   string
	failed   bool
	err      error
	help     help.Model
	keys     keyMap
}

// Run starts the TUI and blocks until the user quits.
//
// Countdown callbacks are delivered onto the bubbletea update loop, so the controller and the
// view never race.
func Run(ctx context.Context, session *rotation.Session, performer tasks.Performer, opts tasks.AdvanceOptions) error {
	var p *tea.Program
	dispatch := func(f func()) { p.Send(dispatchMsg(f)) }

	ctrl := tasks.NewAdvanceController(session, performer, opts, nil, tasks.WithDispatcher(dispatch))
	defer ctrl.Cancel()

	p = tea.NewProgram(NewModel(session, ctrl), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// NewModel creates a new TUI model over session, driven by ctrl.
func NewModel(session *rotation.Session, ctrl *tasks.AdvanceController) *Model {
	return &Model{
		session: session,
		ctrl:    ctrl,
		changes: session.Subscribe(64),
		clock:   shared.SystemClock{},
		logger:  shared.WithLogger(session.Logger(), "component", "tui"),
		view:    RotationView,
		singers: newList("Rotation"),
		queue:   newList("Queue"),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

func newList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.ForceQuit.SetEnabled(false)
	return l
}

// Init loads the rotation and starts listening for changes and advance events.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadRotation(), m.waitForChange(), m.waitForAdvance())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.singers.SetSize(msg.Width-4, msg.Height-10)
		m.queue.SetSize(msg.Width-4, msg.Height-10)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	sections := []string{}
	if alert := m.renderAlert(); alert != "" {
		sections = append(sections, alert)
	}

	switch m.view {
	case RotationView:
		sections = append(sections, m.singers.View())
	case QueueView:
		sections = append(sections, m.queue.View())
	}

	sections = append(sections, m.renderStatus(), m.renderHelp())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgRotationLoaded:
		data := msg.data.(rotationLoaded)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		return m, m.setRotation(data.export)

	case MsgQueueLoaded:
		data := msg.data.(queueLoaded)
		if data.singerID != m.selected.SingerID {
			return m, nil
		}
		if data.err != nil {
			m.setError(data.err)
			return m, nil
		}
		return m, m.queue.SetItems(data.items)

	case MsgRotationChanged:
		change := msg.data.(rotation.Change)
		cmds := []tea.Cmd{m.loadRotation(), m.waitForChange()}
		if m.view == QueueView && change.Kind == rotation.QueueChanged &&
			(change.SingerID == m.selected.SingerID || change.SingerID == models.NoSinger) {
			cmds = append(cmds, m.loadQueue(m.selected.SingerID))
		}
		return m, tea.Batch(cmds...)

	case MsgAdvance:
		return m, tea.Batch(m.handleAdvance(msg.data.(tasks.AdvanceEvent)), m.waitForAdvance())

	case MsgTick:
		if _, ok := m.ctrl.Pending(); !ok {
			m.pending, m.ticking = nil, false
			return m, nil
		}
		return m, m.tick()

	case MsgDispatch:
		msg.data.(func())()
	}
	return m, nil
}

func (m *Model) handleAdvance(e tasks.AdvanceEvent) tea.Cmd {
	switch e.Kind {
	case tasks.AdvanceScheduled:
		m.pending = &e
		m.setStatus(fmt.Sprintf("%s is up next", e.Singer))
		if !m.ticking {
			m.ticking = true
			return m.tick()
		}
	case tasks.AdvanceCommitted:
		m.pending = nil
		m.setStatus(fmt.Sprintf("Now singing: %s - %s", e.Singer, e.Song))
	case tasks.AdvanceCancelled:
		m.pending = nil
		m.setStatus("Advance cancelled")
	case tasks.AdvanceAbandoned:
		m.pending = nil
		m.setStatus(fmt.Sprintf("%s - %s changed before it started, staying put", e.Singer, e.Song))
	case tasks.AdvanceFailed:
		m.pending = nil
		m.setError(fmt.Errorf("could not start %s for %s", e.Song, e.Singer))
	}
	return nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.playing):
		m.ctrl.HandlePlaybackState(models.Playing)
		m.setStatus("Playing")
		return m, nil
	case key.Matches(msg, m.keys.ended):
		m.ctrl.HandlePlaybackState(models.EndOfMedia)
		if m.ctrl.State() != tasks.PendingAdvance {
			m.setStatus("Song ended")
		}
		return m, nil
	case key.Matches(msg, m.keys.cancel):
		m.ctrl.Cancel()
		return m, nil
	case key.Matches(msg, m.keys.skip):
		m.ctrl.SkipNext()
		m.setStatus("The next song end will not advance")
		return m, nil
	case key.Matches(msg, m.keys.auto):
		m.ctrl.SetEnabled(!m.ctrl.Enabled())
		return m, nil
	case key.Matches(msg, m.keys.advance):
		if _, err := m.ctrl.Advance(); errors.Is(err, tasks.ErrNothingQueued) {
			m.setStatus("Nobody has a song queued")
		} else if err != nil {
			m.setError(err)
		}
		return m, nil
	}

	switch m.view {
	case RotationView:
		return m.handleRotationKeys(msg)
	case QueueView:
		return m.handleQueueKeys(msg)
	}
	return m, nil
}

func (m *Model) handleRotationKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	item, ok := m.singers.SelectedItem().(singerItem)
	if !ok {
		return m.updateLists(msg)
	}

	row := item.row
	last := len(m.singers.Items()) - 1
	r, reorder := m.session.Rotation(), m.session.Reorder()

	switch {
	case key.Matches(msg, m.keys.enter):
		m.act(r.SetCurrentSinger(row.SingerID), row.Singer+" is now singing")
	case key.Matches(msg, m.keys.queue):
		m.selected = row
		m.view = QueueView
		m.queue.Title = fmt.Sprintf("%s's queue", row.Singer)
		m.queue.ResetSelected()
		return m, m.loadQueue(row.SingerID)
	case key.Matches(msg, m.keys.moveUp):
		if row.Position > 0 {
			m.act(reorder.MoveSinger(row.SingerID, row.Position-1), "")
			m.singers.Select(row.Position - 1)
		}
	case key.Matches(msg, m.keys.moveDown):
		if row.Position < last {
			m.act(reorder.MoveSinger(row.SingerID, row.Position+1), "")
			m.singers.Select(row.Position + 1)
		}
	case key.Matches(msg, m.keys.top):
		m.act(reorder.MoveSingersToTop([]int64{row.SingerID}), "")
		m.singers.Select(0)
	case key.Matches(msg, m.keys.bottom):
		m.act(reorder.MoveSingersToBottom([]int64{row.SingerID}), "")
		m.singers.Select(last)
	case key.Matches(msg, m.keys.remove):
		m.act(r.RemoveSinger(row.SingerID), row.Singer+" removed")
	default:
		return m.updateLists(msg)
	}
	return m, nil
}

func (m *Model) handleQueueKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.back) {
		m.view = RotationView
		return m, nil
	}

	item, ok := m.queue.SelectedItem().(entryItem)
	if !ok {
		return m.updateLists(msg)
	}

	entry := item.entry
	last := len(m.queue.Items()) - 1
	q := m.session.Queues()

	switch {
	case key.Matches(msg, m.keys.enter):
		m.act(m.ctrl.PlayNow(entry.ID), "")
	case key.Matches(msg, m.keys.moveUp):
		if entry.Position > 0 {
			m.act(q.MoveWithinSinger(entry.ID, entry.Position-1), "")
			m.queue.Select(entry.Position - 1)
		}
	case key.Matches(msg, m.keys.moveDown):
		if entry.Position < last {
			m.act(q.MoveWithinSinger(entry.ID, entry.Position+1), "")
			m.queue.Select(entry.Position + 1)
		}
	case key.Matches(msg, m.keys.top):
		m.act(q.MoveWithinSinger(entry.ID, 0), "")
		m.queue.Select(0)
	case key.Matches(msg, m.keys.bottom):
		m.act(q.MoveWithinSinger(entry.ID, last), "")
		m.queue.Select(last)
	case key.Matches(msg, m.keys.remove):
		m.act(q.Dequeue(entry.ID), "")
	case key.Matches(msg, m.keys.played):
		m.act(q.SetPlayed(entry.ID, !entry.Played), "")
	case key.Matches(msg, m.keys.keyUp):
		m.act(q.SetKeyChange(entry.ID, entry.KeyChange+1), "")
	case key.Matches(msg, m.keys.keyDown):
		m.act(q.SetKeyChange(entry.ID, entry.KeyChange-1), "")
	default:
		return m.updateLists(msg)
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case RotationView:
		m.singers, cmd = m.singers.Update(msg)
	case QueueView:
		m.queue, cmd = m.queue.Update(msg)
	}
	return m, cmd
}

func (m *Model) setRotation(export *formatter.RotationExport) tea.Cmd {
	m.export = export
	m.singers.Title = fmt.Sprintf("Rotation • %d singers • %s per lap", len(export.Rows), shared.FormatDuration(export.Total))

	if m.view == QueueView {
		row, ok := lo.Find(export.Rows, func(r formatter.RotationRow) bool { return r.SingerID == m.selected.SingerID })
		if ok {
			m.selected = row
		} else {
			m.view = RotationView
		}
	}

	items := lo.Map(export.Rows, func(r formatter.RotationRow, _ int) list.Item { return singerItem{row: r} })
	return m.singers.SetItems(items)
}

func (m *Model) setStatus(s string) {
	m.status, m.failed = s, false
}

func (m *Model) setError(err error) {
	m.logger.Warn("action failed", "error", err)
	m.status, m.failed = err.Error(), true
}

// act reports the outcome of a mutation in the status line.
func (m *Model) act(err error, ok string) {
	switch {
	case err != nil:
		m.setError(err)
	case ok != "":
		m.setStatus(ok)
	}
}

func (m *Model) loadRotation() tea.Cmd {
	return func() tea.Msg {
		export, err := formatter.BuildRotationExport(m.session, m.clock.Now())
		return rotationLoadedMsg(export, err)
	}
}

func (m *Model) loadQueue(singerID int64) tea.Cmd {
	return func() tea.Msg {
		entries, err := m.session.Queues().Entries(singerID)
		if err != nil {
			return queueLoadedMsg(singerID, nil, err)
		}

		items := lo.Map(entries, func(e *models.QueueEntry, _ int) list.Item {
			song, err := m.session.Catalog().Song(e.SongID)
			if err != nil {
				song = nil
			}
			return entryItem{entry: e, song: song}
		})
		return queueLoadedMsg(singerID, items, nil)
	}
}

func (m *Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		change, ok := <-m.changes
		if !ok {
			return nil
		}
		return changedMsg(change)
	}
}

func (m *Model) waitForAdvance() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-m.ctrl.Events()
		if !ok {
			return nil
		}
		return advanceMsg(event)
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) renderAlert() string {
	if m.pending == nil {
		return ""
	}
	return styles.alert.Render(m.pending.Alert(m.clock.Now()) + "  (c to cancel)")
}

func (m *Model) renderStatus() string {
	auto := "off"
	if m.ctrl.Enabled() {
		auto = "on"
	}

	line := styles.status.Render(fmt.Sprintf("auto-advance %s • %s", auto, m.ctrl.State()))
	switch {
	case m.status == "":
	case m.failed:
		line += " " + styles.err.Render(m.status)
	default:
		line += " " + styles.ok.Render(m.status)
	}
	return line
}

func (m *Model) renderHelp() string {
	if m.view == QueueView {
		playNow := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play now"))
		helpKeys := []key.Binding{playNow, m.keys.played, m.keys.keyUp, m.keys.keyDown, m.keys.remove, m.keys.back, m.keys.quit}
		return m.help.ShortHelpView(helpKeys)
	}
	return m.help.View(m.keys)
}
