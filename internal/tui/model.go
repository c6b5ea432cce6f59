package tui

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"slices"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"
	"github.com/hylla/taskboard/internal/app"
	"github.com/hylla/taskboard/internal/domain"
)

// Service is the board surface the TUI drives.
type Service interface {
	LoadBoard(context.Context) (app.Board, error)
	SaveTask(context.Context, app.SaveTaskInput) (domain.Task, error)
	EditTask(context.Context, app.EditTaskInput) (domain.Task, error)
	RemoveTask(context.Context, string) error
	MoveTask(context.Context, string, string) (domain.Task, error)
	ListActivity(context.Context, int) ([]domain.ChangeEvent, error)
}

// inputMode represents input mode data used by this package.
type inputMode int

const (
	modeNone inputMode = iota
	modeAddTask
	modeEditTask
	modeConfirmRemove
	modeAlert
	modeTaskInfo
	modeActivityLog
)

const (
	fillBothFieldsAlert  = "Please fill in both fields!"
	confirmRemovePrompt  = "Are you sure you want to delete this task?"
	editButtonLabel      = "[Edit Task]"
	removeButtonLabel    = "[Remove Task]"
	defaultActivityLimit = 50
	activityViewWindow   = 14
)

// Rows between a column box's top edge and its first content line: border, padding.
const columnInsetY = 2

// Columns between a column box's left edge and its content: border, padding.
const columnInsetX = 3

// Content lines above the first card: column header, spacer.
const cardsTop = 2

// cardSpan locates one card inside a column's content lines.
type cardSpan struct {
	taskIdx   int
	start     int
	end       int
	buttonRow int
}

// columnLayout is the rendered content of one column plus card positions for hit testing.
type columnLayout struct {
	lines     []string
	spans     []cardSpan
	scrollTop int
	window    int
}

type Model struct {
	svc Service

	ready  bool
	width  int
	height int
	err    error

	status string

	help help.Model
	keys keyMap

	theme    string
	markdown *markdownRenderer
	copyText func(string) error

	columns        []domain.Column
	tasks          []domain.Task
	cards          map[string]domain.CardView
	selectedColumn int
	selectedTask   int

	mode          inputMode
	formInputs    []textinput.Model
	formFocus     int
	formColumnID  string
	editingTaskID string
	removeTaskID  string
	infoTaskID    string
	alertText     string
	alertBack     inputMode

	dragTaskID   string
	mouseDrag    bool
	pressTaskID  string
	pendingFocus string
	// dropOrder ranks cards dropped this session; they sit after undropped cards
	// in their column while the stored record keeps its position.
	dropOrder map[string]int
	dropSeq   int

	activity      []domain.ChangeEvent
	activityLimit int
}

// loadedMsg carries message data through update handling.
type loadedMsg struct {
	board app.Board
	err   error
}

// actionMsg carries the outcome of one service mutation.
type actionMsg struct {
	err         error
	status      string
	reload      bool
	focusTaskID string
	droppedID   string
}

// activityLoadedMsg carries persisted change events for the activity modal.
type activityLoadedMsg struct {
	events []domain.ChangeEvent
	err    error
}

// NewModel constructs a new value for this package.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		svc:           svc,
		status:        "loading...",
		help:          h,
		keys:          newKeyMap(),
		theme:         themeDark,
		markdown:      &markdownRenderer{},
		copyText:      clipboard.WriteAll,
		cards:         map[string]domain.CardView{},
		dropOrder:     map[string]int{},
		activityLimit: defaultActivityLimit,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return m.loadData
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.applyBoard(msg.board)
		if m.status == "" || m.status == "loading..." || m.status == "reloading..." {
			m.status = "ready"
		}
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.status = "error: " + msg.err.Error()
		} else if msg.status != "" {
			m.status = msg.status
		}
		if msg.focusTaskID != "" {
			m.pendingFocus = msg.focusTaskID
		}
		if msg.droppedID != "" {
			m.dropSeq++
			order := make(map[string]int, len(m.dropOrder)+1)
			for id, seq := range m.dropOrder {
				order[id] = seq
			}
			order[msg.droppedID] = m.dropSeq
			m.dropOrder = order
		}
		if msg.reload {
			return m, m.loadData
		}
		return m, nil

	case activityLoadedMsg:
		if msg.err != nil {
			if m.mode == modeActivityLog {
				m.status = "activity log unavailable: " + msg.err.Error()
			}
			return m, nil
		}
		m.activity = append([]domain.ChangeEvent(nil), msg.events...)
		if m.mode == modeActivityLog {
			m.status = "activity log"
		}
		return m, nil

	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.err != nil {
			return m.handleErrorScreenKey(msg)
		}
		if m.help.ShowAll {
			return m.handleHelpKey(msg)
		}
		if m.mode != modeNone {
			return m.handleInputModeKey(msg)
		}
		if m.dragTaskID != "" {
			return m.handleDragKey(msg)
		}
		return m.handleNormalModeKey(msg)

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	case tea.MouseMotionMsg:
		return m.handleMouseMotion(msg)

	case tea.MouseReleaseMsg:
		return m.handleMouseRelease(msg)

	default:
		return m, nil
	}
}

// applyBoard replaces the board with freshly loaded data and keeps per-card state for surviving tasks.
func (m *Model) applyBoard(board app.Board) {
	m.columns = board.Columns
	m.tasks = board.Tasks
	cards := make(map[string]domain.CardView, len(board.Tasks))
	for _, task := range board.Tasks {
		if view, ok := m.cards[task.ID]; ok {
			cards[task.ID] = view
			continue
		}
		cards[task.ID] = domain.NewCard(task).View
	}
	m.cards = cards
	if m.dragTaskID != "" {
		if _, ok := m.taskByID(m.dragTaskID); !ok {
			m.endDrag()
		}
	}
	if m.pendingFocus != "" {
		m.focusTaskByID(m.pendingFocus)
		m.pendingFocus = ""
	}
	m.clampSelections()
}

// loadData loads required data for the current operation.
func (m Model) loadData() tea.Msg {
	board, err := m.svc.LoadBoard(context.Background())
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{board: board}
}

// loadActivityLog fetches recent change events.
func (m Model) loadActivityLog() tea.Msg {
	events, err := m.svc.ListActivity(context.Background(), m.activityLimit)
	if err != nil {
		return activityLoadedMsg{err: err}
	}
	return activityLoadedMsg{events: events}
}

// newModalInput builds one text input for inline forms.
func newModalInput(prompt, placeholder, value string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.Placeholder = placeholder
	in.CharLimit = limit
	if value != "" {
		in.SetValue(value)
		in.CursorEnd()
	}
	return in
}

// startTaskForm opens the inline task form. A nil task opens the add form for the selected column.
func (m *Model) startTaskForm(task *domain.Task) tea.Cmd {
	title, description := "", ""
	m.editingTaskID = ""
	m.mode = modeAddTask
	if len(m.columns) > 0 {
		m.formColumnID = m.columns[clamp(m.selectedColumn, 0, len(m.columns)-1)].ID
	}
	if task != nil {
		title, description = task.Title, task.Description
		m.editingTaskID = task.ID
		m.formColumnID = task.ColumnID
		m.mode = modeEditTask
	}
	m.formInputs = []textinput.Model{
		newModalInput("title: ", "task title", title, 120),
		newModalInput("desc: ", "task description", description, 500),
	}
	m.status = ""
	return m.focusFormField(0)
}

// focusFormField moves focus to one form field.
func (m *Model) focusFormField(idx int) tea.Cmd {
	if len(m.formInputs) == 0 {
		return nil
	}
	idx = wrapIndex(idx, 0, len(m.formInputs))
	m.formFocus = idx
	for i := range m.formInputs {
		m.formInputs[i].Blur()
	}
	return m.formInputs[idx].Focus()
}

// closeForm hides the inline form and clears its inputs.
func (m *Model) closeForm() {
	m.mode = modeNone
	m.formInputs = nil
	m.formFocus = 0
	m.formColumnID = ""
	m.editingTaskID = ""
}

// formValues returns the trimmed form title and description.
func (m Model) formValues() (string, string) {
	if len(m.formInputs) < 2 {
		return "", ""
	}
	return strings.TrimSpace(m.formInputs[0].Value()), strings.TrimSpace(m.formInputs[1].Value())
}

// handleErrorScreenKey handles keys while the load error screen is shown.
func (m Model) handleErrorScreenKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.reload):
		m.err = nil
		m.status = "reloading..."
		return m, m.loadData
	default:
		return m, nil
	}
}

// handleHelpKey handles keys while the full help overlay is open.
func (m Model) handleHelpKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp), msg.String() == "esc":
		m.help.ShowAll = false
	}
	return m, nil
}

// handleNormalModeKey handles normal mode key.
func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = true
		return m, nil
	case key.Matches(msg, m.keys.reload):
		m.status = "reloading..."
		return m, m.loadData
	case key.Matches(msg, m.keys.moveLeft):
		if m.selectedColumn > 0 {
			m.selectedColumn--
			m.selectedTask = 0
		}
		return m, nil
	case key.Matches(msg, m.keys.moveRight):
		if m.selectedColumn < len(m.columns)-1 {
			m.selectedColumn++
			m.selectedTask = 0
		}
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		if m.selectedTask > 0 {
			m.selectedTask--
		}
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		if m.selectedTask < len(m.currentColumnTasks())-1 {
			m.selectedTask++
		}
		return m, nil
	case key.Matches(msg, m.keys.toggleTheme):
		m.theme = nextTheme(m.theme)
		m.status = "theme: " + m.theme
		return m, nil
	case key.Matches(msg, m.keys.addTask):
		if len(m.columns) == 0 {
			return m, nil
		}
		return m, m.startTaskForm(nil)
	case key.Matches(msg, m.keys.activityLog):
		m.mode = modeActivityLog
		m.status = "loading activity..."
		return m, m.loadActivityLog
	}

	task, ok := m.selectedTaskInColumn()
	switch {
	case key.Matches(msg, m.keys.editTask):
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		return m.pressEdit(task)
	case key.Matches(msg, m.keys.removeTask):
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		return m.pressRemove(task)
	case key.Matches(msg, m.keys.grab):
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		m.dragTaskID = task.ID
		m.mouseDrag = false
		m.status = fmt.Sprintf("moving %q • %s/%s column • space drop", truncate(task.Title, 32), m.keys.moveLeft.Help().Key, m.keys.moveRight.Help().Key)
		return m, nil
	case key.Matches(msg, m.keys.taskInfo), msg.String() == "enter":
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		m.mode = modeTaskInfo
		m.infoTaskID = task.ID
		return m, nil
	case key.Matches(msg, m.keys.copyTask):
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		return m, m.copyTaskCmd(task)
	}
	return m, nil
}

// pressEdit reveals the card's edit button on the first press and opens the edit form after that.
func (m Model) pressEdit(task domain.Task) (tea.Model, tea.Cmd) {
	view := m.cards[task.ID]
	if view.RevealEdit() {
		m.cards[task.ID] = view
		m.status = "edit button shown • press " + m.keys.editTask.Help().Key + " again to edit"
		return m, nil
	}
	return m, m.startTaskForm(&task)
}

// pressRemove reveals the card's remove button on the first press and asks for confirmation after that.
func (m Model) pressRemove(task domain.Task) (tea.Model, tea.Cmd) {
	view := m.cards[task.ID]
	if view.RevealRemove() {
		m.cards[task.ID] = view
		m.status = "remove button shown • press " + m.keys.removeTask.Help().Key + " again to remove"
		return m, nil
	}
	m.mode = modeConfirmRemove
	m.removeTaskID = task.ID
	return m, nil
}

// handleDragKey handles keys while a card is grabbed.
func (m Model) handleDragKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.moveLeft):
		return m.dragOver(m.selectedColumn - 1)
	case key.Matches(msg, m.keys.moveRight):
		return m.dragOver(m.selectedColumn + 1)
	case key.Matches(msg, m.keys.grab), msg.String() == "enter", msg.String() == "esc":
		m.endDrag()
		m.status = "dropped"
		return m, nil
	default:
		return m, nil
	}
}

// dragOver shows the dragging card at the end of the column at colIdx and stores its new column.
// Without an active drag it does nothing.
func (m Model) dragOver(colIdx int) (tea.Model, tea.Cmd) {
	if m.dragTaskID == "" {
		return m, nil
	}
	if colIdx < 0 || colIdx >= len(m.columns) {
		return m, nil
	}
	m.selectedColumn = colIdx
	return m, m.moveTaskCmd(m.dragTaskID, m.columns[colIdx].ID)
}

// endDrag clears drag state.
func (m *Model) endDrag() {
	m.dragTaskID = ""
	m.mouseDrag = false
	m.pressTaskID = ""
}

// handleInputModeKey handles input mode key.
func (m Model) handleInputModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeAddTask, modeEditTask:
		return m.handleFormKey(msg)

	case modeAlert:
		m.mode = m.alertBack
		m.alertText = ""
		if m.mode == modeAddTask || m.mode == modeEditTask {
			return m, m.focusFormField(m.formFocus)
		}
		return m, nil

	case modeConfirmRemove:
		switch msg.String() {
		case "y", "enter":
			taskID := m.removeTaskID
			m.mode = modeNone
			m.removeTaskID = ""
			return m, m.removeTaskCmd(taskID)
		case "n", "esc":
			m.mode = modeNone
			m.removeTaskID = ""
			m.status = "remove cancelled"
		}
		return m, nil

	case modeTaskInfo:
		switch {
		case msg.String() == "esc", msg.String() == "enter", key.Matches(msg, m.keys.taskInfo):
			m.mode = modeNone
			m.infoTaskID = ""
		case key.Matches(msg, m.keys.copyTask):
			if task, ok := m.taskByID(m.infoTaskID); ok {
				return m, m.copyTaskCmd(task)
			}
		}
		return m, nil

	case modeActivityLog:
		switch {
		case msg.String() == "esc", key.Matches(msg, m.keys.activityLog):
			m.mode = modeNone
			m.status = "ready"
		case key.Matches(msg, m.keys.reload):
			return m, m.loadActivityLog
		}
		return m, nil
	}
	return m, nil
}

// handleFormKey handles keys inside the inline add and edit forms.
func (m Model) handleFormKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		cancelled := "add cancelled"
		if m.mode == modeEditTask {
			cancelled = "edit cancelled"
		}
		m.closeForm()
		m.status = cancelled
		return m, nil
	case "tab", "down":
		return m, m.focusFormField(m.formFocus + 1)
	case "shift+tab", "up":
		return m, m.focusFormField(m.formFocus - 1)
	case "enter":
		return m.submitForm()
	}
	// Before anything is typed, the add key hides the add input again.
	if m.mode == modeAddTask && key.Matches(msg, m.keys.addTask) && m.formEmpty() {
		m.closeForm()
		m.status = "add input hidden"
		return m, nil
	}
	if len(m.formInputs) == 0 {
		return m, nil
	}
	var cmd tea.Cmd
	m.formInputs[m.formFocus], cmd = m.formInputs[m.formFocus].Update(msg)
	return m, cmd
}

func (m Model) formEmpty() bool {
	for _, in := range m.formInputs {
		if in.Value() != "" {
			return false
		}
	}
	return true
}

// submitForm saves or edits the task from the inline form.
func (m Model) submitForm() (tea.Model, tea.Cmd) {
	title, description := m.formValues()
	if m.mode == modeEditTask {
		taskID := m.editingTaskID
		m.closeForm()
		if title == "" || description == "" {
			m.status = "edit cancelled: title and description are required"
			return m, nil
		}
		return m, m.editTaskCmd(taskID, title, description)
	}

	if title == "" || description == "" {
		m.alertBack = m.mode
		m.alertText = fillBothFieldsAlert
		m.mode = modeAlert
		return m, nil
	}
	columnID := m.formColumnID
	m.closeForm()
	return m, m.saveTaskCmd(columnID, title, description)
}

func (m Model) saveTaskCmd(columnID, title, description string) tea.Cmd {
	return func() tea.Msg {
		task, err := m.svc.SaveTask(context.Background(), app.SaveTaskInput{
			ColumnID:    columnID,
			Title:       title,
			Description: description,
		})
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: "task saved", reload: true, focusTaskID: task.ID}
	}
}

func (m Model) editTaskCmd(taskID, title, description string) tea.Cmd {
	return func() tea.Msg {
		task, err := m.svc.EditTask(context.Background(), app.EditTaskInput{
			TaskID:      taskID,
			Title:       title,
			Description: description,
		})
		if err != nil {
			return actionMsg{err: err, reload: errors.Is(err, app.ErrNotFound)}
		}
		return actionMsg{status: "task updated", reload: true, focusTaskID: task.ID}
	}
}

func (m Model) removeTaskCmd(taskID string) tea.Cmd {
	return func() tea.Msg {
		if err := m.svc.RemoveTask(context.Background(), taskID); err != nil {
			return actionMsg{err: err, reload: errors.Is(err, app.ErrNotFound)}
		}
		return actionMsg{status: "task removed", reload: true}
	}
}

// moveTaskCmd always reloads so the board reflects the stored column, including after a failed move.
func (m Model) moveTaskCmd(taskID, columnID string) tea.Cmd {
	return func() tea.Msg {
		task, err := m.svc.MoveTask(context.Background(), taskID, columnID)
		if err != nil {
			return actionMsg{err: err, reload: true, focusTaskID: taskID}
		}
		return actionMsg{status: "moved to " + task.ColumnID, reload: true, focusTaskID: task.ID, droppedID: task.ID}
	}
}

func (m Model) copyTaskCmd(task domain.Task) tea.Cmd {
	text := task.Title + "\n\n" + task.Description
	write := m.copyText
	return func() tea.Msg {
		if err := write(text); err != nil {
			return actionMsg{status: "copy failed: " + err.Error()}
		}
		return actionMsg{status: "copied task"}
	}
}

// handleMouseWheel handles mouse wheel.
func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if m.help.ShowAll || m.mode != modeNone {
		return m, nil
	}
	tasks := m.currentColumnTasks()
	if len(tasks) == 0 {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseWheelUp:
		if m.selectedTask > 0 {
			m.selectedTask--
		}
	case tea.MouseWheelDown:
		if m.selectedTask < len(tasks)-1 {
			m.selectedTask++
		}
	}
	return m, nil
}

// handleMouseClick selects the column and card under the pointer and activates revealed buttons.
func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if m.help.ShowAll || m.mode != modeNone || msg.Button != tea.MouseLeft {
		return m, nil
	}
	colIdx := m.columnAt(msg.X)
	if colIdx < 0 {
		return m, nil
	}
	if colIdx != m.selectedColumn {
		m.selectedColumn = colIdx
		m.selectedTask = 0
	}
	span, ok := m.cardAt(colIdx, msg.Y)
	if !ok {
		return m, nil
	}
	m.selectedTask = span.taskIdx
	task, ok := m.selectedTaskInColumn()
	if !ok {
		return m, nil
	}
	if span.buttonRow >= 0 && m.contentRow(colIdx, msg.Y) == span.buttonRow {
		view := m.cards[task.ID]
		offset := msg.X - m.columnStart(colIdx) - columnInsetX
		editWidth := lipgloss.Width(editButtonLabel)
		switch {
		case view.EditShown && offset < editWidth:
			return m, m.startTaskForm(&task)
		case view.RemoveShown:
			m.mode = modeConfirmRemove
			m.removeTaskID = task.ID
			return m, nil
		}
	}
	m.pressTaskID = task.ID
	return m, nil
}

// handleMouseMotion drags the pressed card across columns while the left button is held.
func (m Model) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeNone || msg.Button != tea.MouseLeft || m.pressTaskID == "" {
		return m, nil
	}
	colIdx := m.columnAt(msg.X)
	if colIdx < 0 || colIdx == m.selectedColumn {
		return m, nil
	}
	if m.dragTaskID == "" {
		task, ok := m.taskByID(m.pressTaskID)
		if !ok {
			m.pressTaskID = ""
			return m, nil
		}
		m.dragTaskID = task.ID
		m.mouseDrag = true
		m.status = fmt.Sprintf("moving %q • release to drop", truncate(task.Title, 32))
	}
	return m.dragOver(colIdx)
}

// handleMouseRelease drops a mouse-dragged card.
func (m Model) handleMouseRelease(tea.MouseReleaseMsg) (tea.Model, tea.Cmd) {
	m.pressTaskID = ""
	if m.mouseDrag {
		m.endDrag()
		m.status = "dropped"
	}
	return m, nil
}

// columnStride returns the rendered width of one column box including its margin.
func (m Model) columnStride() int {
	return lipgloss.Width(m.columnStyle(m.columnWidth(), paletteFor(m.theme).dim).Render(""))
}

// columnStart returns the screen x where column colIdx begins.
func (m Model) columnStart(colIdx int) int {
	return colIdx * m.columnStride()
}

// columnAt returns the column index under screen x, or -1.
func (m Model) columnAt(x int) int {
	stride := m.columnStride()
	if stride <= 0 || x < 0 {
		return -1
	}
	idx := x / stride
	if idx >= len(m.columns) {
		return -1
	}
	return idx
}

// contentRow converts screen y into a row of column colIdx's unscrolled content.
func (m Model) contentRow(colIdx, y int) int {
	layout := m.columnLayout(colIdx)
	row := y - m.boardTop() - columnInsetY
	if row < cardsTop {
		return row
	}
	return row + layout.scrollTop
}

// cardAt returns the card under screen y in column colIdx.
func (m Model) cardAt(colIdx, y int) (cardSpan, bool) {
	row := m.contentRow(colIdx, y)
	for _, span := range m.columnLayout(colIdx).spans {
		if row >= span.start && row <= span.end {
			return span, true
		}
	}
	return cardSpan{}, false
}

// clampSelections clamps selections.
func (m *Model) clampSelections() {
	if len(m.columns) == 0 {
		m.selectedColumn = 0
		m.selectedTask = 0
		return
	}
	m.selectedColumn = clamp(m.selectedColumn, 0, len(m.columns)-1)
	tasks := m.currentColumnTasks()
	if len(tasks) == 0 {
		m.selectedTask = 0
		return
	}
	m.selectedTask = clamp(m.selectedTask, 0, len(tasks)-1)
}

// focusTaskByID selects the column and row holding taskID.
func (m *Model) focusTaskByID(taskID string) bool {
	for colIdx, column := range m.columns {
		for taskIdx, task := range m.tasksForColumn(column.ID) {
			if task.ID == taskID {
				m.selectedColumn = colIdx
				m.selectedTask = taskIdx
				return true
			}
		}
	}
	return false
}

// tasksForColumn returns the column's tasks in persisted order, followed by cards
// dropped into it this session in drop order.
func (m Model) tasksForColumn(columnID string) []domain.Task {
	out := make([]domain.Task, 0)
	for _, task := range m.tasks {
		if task.ColumnID == columnID {
			out = append(out, task)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.Task) int {
		return m.dropOrder[a.ID] - m.dropOrder[b.ID]
	})
	return out
}

// currentColumnTasks returns current column tasks.
func (m Model) currentColumnTasks() []domain.Task {
	if len(m.columns) == 0 {
		return nil
	}
	return m.tasksForColumn(m.columns[clamp(m.selectedColumn, 0, len(m.columns)-1)].ID)
}

// selectedTaskInColumn returns the selected task in the selected column.
func (m Model) selectedTaskInColumn() (domain.Task, bool) {
	tasks := m.currentColumnTasks()
	if len(tasks) == 0 {
		return domain.Task{}, false
	}
	return tasks[clamp(m.selectedTask, 0, len(tasks)-1)], true
}

// taskByID returns a loaded task by id.
func (m Model) taskByID(taskID string) (domain.Task, bool) {
	for _, task := range m.tasks {
		if task.ID == taskID {
			return task, true
		}
	}
	return domain.Task{}, false
}

// columnName returns the display name of columnID.
func (m Model) columnName(columnID string) string {
	if idx := domain.ColumnIndex(m.columns, columnID); idx >= 0 {
		return m.columns[idx].Name
	}
	return columnID
}

// View handles view.
func (m Model) View() tea.View {
	pal := paletteFor(m.theme)
	if m.err != nil {
		return newView("error: " + m.err.Error() + "\n\npress r to retry • q quit\n")
	}
	if !m.ready {
		return newView("loading...")
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(pal.text)
	statusStyle := lipgloss.NewStyle().Foreground(pal.dim)
	themeStyle := lipgloss.NewStyle().Foreground(pal.accent)

	header := titleStyle.Render("taskboard") + statusStyle.Render("  ["+m.modeLabel()+"]")
	header += "  " + themeStyle.Render(fmt.Sprintf("%s %s", m.keys.toggleTheme.Help().Key, themeToggleLabel(m.theme)))
	if m.dragTaskID != "" {
		header += lipgloss.NewStyle().Foreground(pal.dragging).Render("  dragging")
	}

	var body string
	if len(m.columns) == 0 {
		body = lipgloss.NewStyle().Foreground(pal.muted).Render("No columns configured.")
	} else {
		colWidth := m.columnWidth()
		innerHeight := max(1, m.columnHeight()-4)
		columnViews := make([]string, 0, len(m.columns))
		for colIdx := range m.columns {
			border := pal.dim
			if colIdx == m.selectedColumn {
				border = pal.accent
			}
			content := fitLines(strings.Join(m.columnLayout(colIdx).lines, "\n"), innerHeight)
			columnViews = append(columnViews, m.columnStyle(colWidth, border).Render(content))
		}
		body = lipgloss.JoinHorizontal(lipgloss.Top, columnViews...)
	}

	sections := []string{header, "", body}
	if strings.TrimSpace(m.status) != "" && m.status != "ready" {
		sections = append(sections, statusStyle.Render(m.status))
	}
	content := strings.Join(sections, "\n")

	helpBubble := m.help
	helpBubble.ShowAll = false
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(pal.muted).
		BorderTop(true).
		BorderForeground(pal.dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))

	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(helpLine)))
	}
	fullContent := content + "\n" + helpLine

	overlay := m.renderModeOverlay(pal, m.width-8)
	if m.help.ShowAll {
		overlay = m.renderHelpOverlay(pal, m.width-8)
	}
	if overlay != "" {
		overlayHeight := lipgloss.Height(fullContent)
		if m.height > 0 {
			overlayHeight = m.height
		}
		fullContent = overlayOnContent(fullContent, overlay, max(1, m.width), max(1, overlayHeight))
	}
	return newView(fullContent)
}

func newView(content string) tea.View {
	v := tea.NewView(content)
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

// columnStyle returns the box style shared by rendering and hit testing.
func (m Model) columnStyle(width int, border color.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(1, 2).
		MarginRight(1).
		Width(width)
}

// columnLayout renders one column's content lines and records where each card sits.
func (m Model) columnLayout(colIdx int) columnLayout {
	pal := paletteFor(m.theme)
	column := m.columns[colIdx]
	tasks := m.tasksForColumn(column.ID)
	textWidth := max(1, m.columnWidth()-8)

	colTitle := lipgloss.NewStyle().Bold(true).Foreground(pal.accent)
	cardTitle := lipgloss.NewStyle().Bold(true).Foreground(pal.text)
	selectedStyle := lipgloss.NewStyle().Bold(true).Foreground(pal.selected)
	draggingStyle := lipgloss.NewStyle().Bold(true).Foreground(pal.dragging)
	subStyle := lipgloss.NewStyle().Foreground(pal.muted)
	buttonStyle := lipgloss.NewStyle().Foreground(pal.accent)
	removeStyle := lipgloss.NewStyle().Foreground(pal.danger)
	formTitle := lipgloss.NewStyle().Bold(true).Foreground(pal.accent)

	lines := []string{colTitle.Render(fmt.Sprintf("%s (%d)", column.Name, len(tasks))), ""}
	spans := make([]cardSpan, 0, len(tasks))
	selectedStart, selectedEnd := -1, -1

	formLines := func(heading string) []string {
		out := []string{formTitle.Render(heading)}
		for _, in := range m.formInputs {
			in.SetWidth(max(8, textWidth-8))
			out = append(out, in.View())
		}
		return append(out, subStyle.Render("enter save • tab switch • esc cancel"))
	}

	if len(tasks) == 0 {
		lines = append(lines, subStyle.Render("(empty)"))
	}
	for taskIdx, task := range tasks {
		selected := colIdx == m.selectedColumn && taskIdx == m.selectedTask
		prefix := "  "
		if selected {
			prefix = "│ "
		}
		span := cardSpan{taskIdx: taskIdx, start: len(lines), buttonRow: -1}

		if m.mode == modeEditTask && task.ID == m.editingTaskID {
			for _, line := range formLines("Edit task") {
				lines = append(lines, prefix+line)
			}
		} else {
			title := prefix + truncate(task.Title, textWidth)
			switch {
			case task.ID == m.dragTaskID:
				title = draggingStyle.Render(title)
			case selected:
				title = selectedStyle.Render(title)
			default:
				title = cardTitle.Render(title)
			}
			lines = append(lines, title)
			lines = append(lines, prefix+subStyle.Render(truncate(task.Description, textWidth)))

			view := m.cards[task.ID]
			if view.EditShown || view.RemoveShown {
				buttons := make([]string, 0, 2)
				if view.EditShown {
					buttons = append(buttons, buttonStyle.Render(editButtonLabel))
				}
				if view.RemoveShown {
					buttons = append(buttons, removeStyle.Render(removeButtonLabel))
				}
				span.buttonRow = len(lines)
				lines = append(lines, strings.Join(buttons, " "))
			}
		}
		span.end = len(lines) - 1
		spans = append(spans, span)
		if selected {
			selectedStart, selectedEnd = span.start, span.end
		}
		if taskIdx < len(tasks)-1 {
			lines = append(lines, "")
		}
	}
	if m.mode == modeAddTask && column.ID == m.formColumnID {
		lines = append(lines, "")
		formStart := len(lines)
		lines = append(lines, formLines("New task")...)
		if colIdx == m.selectedColumn {
			selectedStart, selectedEnd = formStart, len(lines)-1
		}
	}

	innerHeight := max(1, m.columnHeight()-4)
	window := max(1, innerHeight-cardsTop)
	cardLines := lines[cardsTop:]
	scrollTop := 0
	if colIdx == m.selectedColumn && selectedStart >= 0 {
		start, end := selectedStart-cardsTop, selectedEnd-cardsTop
		if end >= scrollTop+window {
			scrollTop = end - window + 1
		}
		if start < scrollTop {
			scrollTop = start
		}
	}
	scrollTop = clamp(scrollTop, 0, max(0, len(cardLines)-window))
	if len(cardLines) > window {
		cardLines = cardLines[scrollTop : scrollTop+window]
	}
	return columnLayout{
		lines:     append(append([]string{}, lines[:cardsTop]...), cardLines...),
		spans:     spans,
		scrollTop: scrollTop,
		window:    window,
	}
}

// renderModeOverlay renders the modal for the active mode.
func (m Model) renderModeOverlay(pal palette, maxWidth int) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(pal.accent).
		Padding(0, 1)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(pal.accent)
	hintStyle := lipgloss.NewStyle().Foreground(pal.muted)

	switch m.mode {
	case modeAlert:
		style := boxStyle.BorderForeground(pal.danger)
		return style.Render(strings.Join([]string{
			lipgloss.NewStyle().Bold(true).Foreground(pal.danger).Render(m.alertText),
			hintStyle.Render("press any key"),
		}, "\n"))

	case modeConfirmRemove:
		task, ok := m.taskByID(m.removeTaskID)
		if !ok {
			return ""
		}
		style := boxStyle.BorderForeground(pal.danger)
		return style.Render(strings.Join([]string{
			titleStyle.Render(confirmRemovePrompt),
			truncate(task.Title, 48),
			hintStyle.Render("y/enter delete • n/esc cancel"),
		}, "\n"))

	case modeTaskInfo:
		task, ok := m.taskByID(m.infoTaskID)
		if !ok {
			return ""
		}
		width := 76
		if maxWidth > 0 {
			width = clamp(maxWidth, 24, 76)
		}
		lines := []string{
			titleStyle.Render(task.Title),
			hintStyle.Render("column: " + m.columnName(task.ColumnID) + " • id: " + task.ID),
		}
		if !task.UpdatedAt.IsZero() {
			lines = append(lines, hintStyle.Render("updated: "+formatActivityTimestamp(task.UpdatedAt)))
		}
		lines = append(lines, "", m.markdown.render(task.Description, width-4, m.theme), "")
		lines = append(lines, hintStyle.Render("esc close • "+m.keys.copyTask.Help().Key+" copy"))
		return boxStyle.Width(width).Render(strings.Join(lines, "\n"))

	case modeActivityLog:
		style := boxStyle
		if maxWidth > 0 {
			style = style.Width(clamp(maxWidth, 44, 96))
		}
		lines := []string{titleStyle.Render("Activity Log")}
		if len(m.activity) == 0 {
			lines = append(lines, hintStyle.Render("(no activity yet)"))
		}
		for idx, event := range m.activity {
			if idx >= activityViewWindow {
				break
			}
			line := fmt.Sprintf("%s  %s • %s", formatActivityTimestamp(event.OccurredAt), event.Operation, truncate(event.Title, 42))
			if event.Operation == domain.ChangeOperationMove {
				line += " → " + m.columnName(event.ColumnID)
			}
			lines = append(lines, line)
		}
		lines = append(lines, hintStyle.Render("esc close • r refresh"))
		return style.Render(strings.Join(lines, "\n"))
	}
	return ""
}

// renderHelpOverlay renders the full key help.
func (m Model) renderHelpOverlay(pal palette, maxWidth int) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(pal.accent).
		Padding(0, 1)
	if maxWidth > 0 {
		style = style.Width(clamp(maxWidth, 40, 96))
	}
	helpBubble := m.help
	helpBubble.ShowAll = true
	helpBubble.SetWidth(max(20, maxWidth-4))
	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(pal.accent).Render("Keys"),
		helpBubble.View(m.keys),
		lipgloss.NewStyle().Foreground(pal.muted).Render("forms: tab switch field • enter save • esc cancel"),
		lipgloss.NewStyle().Foreground(pal.muted).Render("mouse: click select • drag a card across columns"),
	}
	return style.Render(strings.Join(lines, "\n"))
}

// modeLabel returns mode label.
func (m Model) modeLabel() string {
	if m.help.ShowAll {
		return "help"
	}
	switch m.mode {
	case modeAddTask:
		return "add"
	case modeEditTask:
		return "edit"
	case modeConfirmRemove:
		return "confirm"
	case modeAlert:
		return "alert"
	case modeTaskInfo:
		return "info"
	case modeActivityLog:
		return "activity"
	}
	if m.dragTaskID != "" {
		return "move"
	}
	return "normal"
}

// formatActivityTimestamp formats activity timestamp.
func formatActivityTimestamp(at time.Time) string {
	if at.IsZero() {
		return "--:--:--"
	}
	local := at.Local()
	now := time.Now().In(local.Location())
	if local.Year() != now.Year() || local.YearDay() != now.YearDay() {
		return local.Format("01-02 15:04")
	}
	return local.Format("15:04:05")
}

// columnWidth returns column width.
func (m Model) columnWidth() int {
	return m.columnWidthFor(m.width)
}

// columnWidthFor returns column width for.
func (m Model) columnWidthFor(boardWidth int) int {
	if len(m.columns) == 0 {
		return 24
	}
	w := 28
	if boardWidth > 0 {
		// Per-column overhead: left/right border (2), horizontal padding (4), margin-right (1)
		const colOverhead = 7
		usable := boardWidth - len(m.columns)*colOverhead
		candidate := usable / len(m.columns)
		if candidate > 0 {
			w = candidate
		}
	}
	return clamp(w, 24, 42)
}

// columnHeight returns column height.
func (m Model) columnHeight() int {
	const headerLines = 2
	const footerLines = 4
	return max(10, m.height-headerLines-footerLines)
}

// boardTop returns the screen row of the column boxes' top border: header, spacer.
func (m Model) boardTop() int {
	return 2
}

// clamp clamps the requested operation.
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// wrapIndex steps current by delta within [0, total).
func wrapIndex(current, delta, total int) int {
	if total <= 0 {
		return 0
	}
	return ((current+delta)%total + total) % total
}

// fitLines fits lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent overlays on content.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	baseLayer := lipgloss.NewLayer(base).X(0).Y(0).Z(0)
	centeredOverlay := lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		overlay,
	)
	overlayLayer := lipgloss.NewLayer(centeredOverlay).X(0).Y(0).Z(10)

	canvas.Compose(baseLayer)
	canvas.Compose(overlayLayer)
	return canvas.Render()
}

// truncate truncates the requested operation.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 1 {
		return string(rs[:max])
	}
	return string(rs[:max-1]) + "…"
}
