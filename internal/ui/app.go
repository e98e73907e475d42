package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/five82/peerdeck/internal/connection"
	"github.com/five82/peerdeck/internal/files"
	"github.com/five82/peerdeck/internal/prefs"
	"github.com/five82/peerdeck/internal/seeding"
	"github.com/five82/peerdeck/internal/state"
	"github.com/five82/peerdeck/internal/view"
)

// View represents the current active view.
type View int

const (
	ViewFiles View = iota
	ViewNotices
)

// Options configures the UI.
type Options struct {
	Context        context.Context
	Conn           *connection.Controller
	Seed           *seeding.Controller
	Files          *files.Controller
	Store          *state.Store
	Collator       *view.Collator
	RequestRefresh func()
	PollTick       time.Duration
	Prefs          prefs.Prefs
	PrefsPath      string
	Logger         zerolog.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx            context.Context
	conn           *connection.Controller
	seed           *seeding.Controller
	files          *files.Controller
	store          *state.Store
	collator       *view.Collator
	requestRefresh func()
	prefs          prefs.Prefs
	prefsPath      string
	uiTick         time.Duration
	log            zerolog.Logger
	keys           keyMap

	// UI state
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool

	// Data state
	sort        view.Sort
	rows        []view.Row
	selected    string
	connState   connection.State
	seedState   seeding.State
	health      state.Snapshot
	lastUpdated time.Time

	// Pending destructive action awaiting confirmation
	confirmDelete string
	// Transient status line message
	flash string

	noticesViewport viewport.Model
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	uiTick := opts.PollTick
	if uiTick <= 0 || uiTick > DefaultUIInterval {
		uiTick = DefaultUIInterval
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	userPrefs := opts.Prefs
	if userPrefs == (prefs.Prefs{}) {
		userPrefs = prefs.Default()
	}

	m := Model{
		ctx:            ctx,
		conn:           opts.Conn,
		seed:           opts.Seed,
		files:          opts.Files,
		store:          opts.Store,
		collator:       opts.Collator,
		requestRefresh: opts.RequestRefresh,
		prefs:          userPrefs,
		prefsPath:      prefsPath,
		uiTick:         uiTick,
		log:            opts.Logger.With().Str("component", "ui").Logger(),
		keys:           DefaultKeyMap(),
		theme:          GetTheme(userPrefs.Theme),
		currentView:    ViewFiles,
		sort:           userPrefs.Sort(),
	}
	m.sync()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tickCmd(m.uiTick),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.noticesViewport = viewport.New(msg.Width, maxInt(1, msg.Height-headerHeight))
		}
		m.ready = true
		m.updateNoticesViewport()
		return m, nil

	case tickMsg:
		m.sync()
		m.updateNoticesViewport()
		return m, tickCmd(m.uiTick)

	case stateChangedMsg:
		m.sync()
		return m, nil

	case actionMsg:
		m.sync()
		m.flash = msg.flash()
		m.updateNoticesViewport()
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if m.confirmDelete != "" {
		return m.handleConfirmKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.Notices):
		if m.currentView == ViewNotices {
			m.currentView = ViewFiles
		} else {
			m.currentView = ViewNotices
			m.updateNoticesViewport()
		}
		return m, nil

	case key.Matches(msg, m.keys.Connect):
		m.flash = ""
		return m, m.toggleConnectionCmd()

	case key.Matches(msg, m.keys.Seed):
		m.flash = ""
		return m, m.toggleSeedingCmd()

	case key.Matches(msg, m.keys.Refresh):
		if m.requestRefresh != nil {
			m.requestRefresh()
		}
		m.flash = "Refresh requested"
		return m, nil
	}

	switch m.currentView {
	case ViewFiles:
		return m.handleFilesKey(msg)
	case ViewNotices:
		return m.handleNoticesKey(msg)
	}
	return m, nil
}

// handleFilesKey processes keyboard input for the file list.
func (m Model) handleFilesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.SortName):
		m.applySort(view.FieldName)
		return m, nil
	case key.Matches(msg, m.keys.SortSize):
		m.applySort(view.FieldSize)
		return m, nil
	case key.Matches(msg, m.keys.SortModified):
		m.applySort(view.FieldModified)
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		if m.files != nil {
			m.files.ClearSelection()
		}
		m.flash = ""
		m.sync()
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if m.selected == "" {
			m.flash = "Select a file first"
			return m, nil
		}
		m.confirmDelete = m.selected
		return m, nil

	case key.Matches(msg, m.keys.Download):
		if m.selected == "" {
			m.flash = "Select a file first"
			return m, nil
		}
		return m, m.downloadCmd(m.selected)
	}

	if len(m.rows) == 0 {
		return m, nil
	}

	idx := view.IndexOf(m.rows, m.selected)
	last := len(m.rows) - 1
	switch {
	case key.Matches(msg, m.keys.Down):
		if idx < last {
			idx++
		}
	case key.Matches(msg, m.keys.Up):
		if idx < 0 {
			idx = 0
		} else if idx > 0 {
			idx--
		}
	case key.Matches(msg, m.keys.Top):
		idx = 0
	case key.Matches(msg, m.keys.Bottom):
		idx = last
	default:
		return m, nil
	}
	m.selectRow(idx)
	return m, nil
}

// handleNoticesKey scrolls and dismisses the notice history.
func (m Model) handleNoticesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.currentView = ViewFiles
		return m, nil
	case key.Matches(msg, m.keys.Dismiss):
		if m.store != nil {
			m.store.DismissNotices()
		}
		m.sync()
		m.updateNoticesViewport()
		return m, nil
	case key.Matches(msg, m.keys.Top):
		m.noticesViewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.noticesViewport.GotoBottom()
		return m, nil
	}
	var cmd tea.Cmd
	m.noticesViewport, cmd = m.noticesViewport.Update(msg)
	return m, cmd
}

// handleConfirmKey resolves a pending delete.
func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	target := m.confirmDelete
	m.confirmDelete = ""
	if key.Matches(msg, m.keys.Confirm) {
		return m, m.deleteCmd(target)
	}
	m.flash = "Delete cancelled"
	return m, nil
}

// applySort toggles the sort field and persists it.
func (m *Model) applySort(field view.Field) {
	m.sort = m.sort.Toggle(field)
	m.prefs = m.prefs.WithSort(m.sort)
	m.savePrefs()
	m.sync()
}

// selectRow selects the row at idx in the current projection.
func (m *Model) selectRow(idx int) {
	if idx < 0 || idx >= len(m.rows) || m.files == nil {
		return
	}
	m.files.Select(m.rows[idx].Key)
	m.sync()
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.log.Warn().Err(err).Str("path", m.prefsPath).Msg("save preferences failed")
	}
}

// sync pulls the latest controller state into the model.
func (m *Model) sync() {
	if m.conn != nil {
		m.connState = m.conn.State()
	}
	if m.seed != nil {
		m.seedState = m.seed.State()
	}
	if m.store != nil {
		m.health = m.store.Snapshot()
	}
	if m.files != nil {
		snap := m.files.Snapshot()
		m.selected = snap.Selected
		m.rows = view.Project(snap.Records, m.sort, snap.Selected, m.collator)
	}
	m.lastUpdated = time.Now()
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	// Header line 1: logo + status
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	// Header line 2: command bar
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	// Main content
	b.WriteString(m.renderContent())

	return b.String()
}

// renderContent renders the main content area based on current view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewNotices:
		return m.renderNotices()
	default:
		return m.renderFiles()
	}
}

// Messages

type tickMsg time.Time

// stateChangedMsg wakes the model when a controller reports a transition
// between ticks.
type stateChangedMsg struct{}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))

	wake := func() { go p.Send(stateChangedMsg{}) }
	if m.conn != nil {
		defer m.conn.Subscribe(func(connection.Change) { wake() })()
	}
	if m.seed != nil {
		defer m.seed.Subscribe(func(seeding.Change) { wake() })()
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
