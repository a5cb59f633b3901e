package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/studyr/internal/folders"
)

type foldersModel struct {
	ctx    context.Context
	repo   *folders.Repository
	now    func() time.Time
	width  int
	height int

	folders     []folders.Folder
	cursor      int
	itemCursor  int
	viewingItem bool // true = viewing todos and notes of the selected folder

	formActive bool
	form       *huh.Form
	formType   string // "folder", "todo", "note", "delete", "delete_all", "delete_item"

	// Form field pointers (survive value copies)
	formName     *string
	formDate     *string
	formNoteType *string
	formConfirm  *bool
}

func newFoldersModel(ctx context.Context, repo *folders.Repository, now func() time.Time) foldersModel {
	name, date, typ, ok := "", "", string(folders.NoteImage), false
	return foldersModel{
		ctx:          ctx,
		repo:         repo,
		now:          now,
		formName:     &name,
		formDate:     &date,
		formNoteType: &typ,
		formConfirm:  &ok,
	}
}

func (f *foldersModel) setSize(w, h int) {
	f.width = w
	f.height = h
}

type foldersDataMsg struct {
	folders []folders.Folder
}

func (f foldersModel) refresh() tea.Cmd {
	return func() tea.Msg {
		return foldersDataMsg{folders: f.repo.LoadAll(f.ctx)}
	}
}

func (f foldersModel) selected() (folders.Folder, bool) {
	if f.cursor >= len(f.folders) {
		return folders.Folder{}, false
	}
	return f.folders[f.cursor], true
}

// itemCount is the number of rows in the detail view: todos, then notes.
func (f foldersModel) itemCount() int {
	sel, ok := f.selected()
	if !ok {
		return 0
	}
	return len(sel.Todos) + len(sel.Notes)
}

func (f foldersModel) update(msg tea.Msg) (foldersModel, tea.Cmd) {
	if f.formActive && f.form != nil {
		return f.updateForm(msg)
	}

	switch msg := msg.(type) {
	case foldersDataMsg:
		f.folders = msg.folders
		if f.cursor >= len(f.folders) {
			f.cursor = max(0, len(f.folders)-1)
		}
		if len(f.folders) == 0 {
			f.viewingItem = false
		}
		if f.itemCursor >= f.itemCount() {
			f.itemCursor = max(0, f.itemCount()-1)
		}
		return f, nil

	case tea.KeyMsg:
		if f.viewingItem {
			return f.updateDetail(msg)
		}
		return f.updateList(msg)
	}
	return f, nil
}

func (f foldersModel) updateList(msg tea.KeyMsg) (foldersModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if f.cursor > 0 {
			f.cursor--
		}
	case key.Matches(msg, keys.Down):
		if f.cursor < len(f.folders)-1 {
			f.cursor++
		}
	case key.Matches(msg, keys.Enter):
		if len(f.folders) > 0 {
			f.viewingItem = true
			f.itemCursor = 0
		}
	case key.Matches(msg, keys.New):
		return f.showFolderForm()
	case key.Matches(msg, keys.Delete):
		if sel, ok := f.selected(); ok {
			return f.showConfirm("delete", fmt.Sprintf("Delete folder %q?", sel.Name),
				"Its todos and notes are removed. Session history is kept.")
		}
	case key.Matches(msg, keys.Purge):
		if len(f.folders) > 0 {
			return f.showConfirm("delete_all", "Delete all folders?", "This cannot be undone.")
		}
	}
	return f, nil
}

func (f foldersModel) updateDetail(msg tea.KeyMsg) (foldersModel, tea.Cmd) {
	sel, ok := f.selected()
	if !ok {
		f.viewingItem = false
		return f, nil
	}
	switch {
	case key.Matches(msg, keys.Back):
		f.viewingItem = false
	case key.Matches(msg, keys.Up):
		if f.itemCursor > 0 {
			f.itemCursor--
		}
	case key.Matches(msg, keys.Down):
		if f.itemCursor < f.itemCount()-1 {
			f.itemCursor++
		}
	case key.Matches(msg, keys.Todo), key.Matches(msg, keys.New):
		return f.showTodoForm()
	case key.Matches(msg, keys.Note):
		return f.showNoteForm()
	case key.Matches(msg, keys.Toggle), key.Matches(msg, keys.Enter):
		if f.itemCursor < len(sel.Todos) {
			t := sel.Todos[f.itemCursor]
			return f, f.mutate(func(ctx context.Context) error {
				return f.repo.ToggleTodo(ctx, sel.Name, t.Name, t.Date)
			}, nil)
		}
	case key.Matches(msg, keys.Delete):
		if f.itemCount() > 0 {
			return f.showConfirm("delete_item", "Delete this item?", f.itemLabel(sel))
		}
	}
	return f, nil
}

func (f foldersModel) itemLabel(sel folders.Folder) string {
	if f.itemCursor < len(sel.Todos) {
		t := sel.Todos[f.itemCursor]
		return fmt.Sprintf("todo %q due %s", t.Name, t.Date)
	}
	n := sel.Notes[f.itemCursor-len(sel.Todos)]
	if n.Type == "" {
		return "note " + n.URI
	}
	return fmt.Sprintf("%s note %s", n.Type, n.URI)
}

// mutate runs fn and announces the change, or reports its error.
func (f foldersModel) mutate(fn func(context.Context) error, deleted []string) tea.Cmd {
	return func() tea.Msg {
		if err := fn(f.ctx); err != nil {
			return errStatus("Folders", err)
		}
		return foldersChangedMsg{deleted: deleted}
	}
}

func (f foldersModel) showFolderForm() (foldersModel, tea.Cmd) {
	*f.formName = ""
	f.formType = "folder"

	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Folder Name").Value(f.formName).Validate(notBlank("name")),
		),
	).WithShowHelp(true).WithShowErrors(true)

	f.formActive = true
	return f, f.form.Init()
}

func (f foldersModel) showTodoForm() (foldersModel, tea.Cmd) {
	*f.formName = ""
	*f.formDate = today(f.now())
	f.formType = "todo"

	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Todo").Value(f.formName).Validate(notBlank("todo")),
			huh.NewInput().Title("Due (YYYY-MM-DD)").Value(f.formDate).Validate(validDate),
		),
	).WithShowHelp(true).WithShowErrors(true)

	f.formActive = true
	return f, f.form.Init()
}

func (f foldersModel) showNoteForm() (foldersModel, tea.Cmd) {
	*f.formName = ""
	*f.formDate = today(f.now())
	*f.formNoteType = string(folders.NoteImage)
	f.formType = "note"

	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Location (path or URI)").Value(f.formName).Validate(notBlank("location")),
			huh.NewSelect[string]().Title("Type").Options(
				huh.NewOption("Image", string(folders.NoteImage)),
				huh.NewOption("Video", string(folders.NoteVideo)),
			).Value(f.formNoteType),
			huh.NewInput().Title("Captured (YYYY-MM-DD)").Value(f.formDate).Validate(validDate),
		),
	).WithShowHelp(true).WithShowErrors(true)

	f.formActive = true
	return f, f.form.Init()
}

func (f foldersModel) showConfirm(kind, title, description string) (foldersModel, tea.Cmd) {
	*f.formConfirm = false
	f.formType = kind

	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().Title(title).Description(description).
				Affirmative("Delete").Negative("Cancel").Value(f.formConfirm),
		),
	).WithShowHelp(true)

	f.formActive = true
	return f, f.form.Init()
}

func (f foldersModel) updateForm(msg tea.Msg) (foldersModel, tea.Cmd) {
	// Check for escape to cancel form
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			f.formActive = false
			f.form = nil
			return f, nil
		}
	}

	form, cmd := f.form.Update(msg)
	if fm, ok := form.(*huh.Form); ok {
		f.form = fm
	}

	if f.form.State == huh.StateCompleted {
		f.formActive = false
		f.form = nil
		return f, f.submit()
	}

	return f, cmd
}

func (f foldersModel) submit() tea.Cmd {
	sel, hasSel := f.selected()
	name, date := strings.TrimSpace(*f.formName), *f.formDate

	switch f.formType {
	case "folder":
		return f.mutate(func(ctx context.Context) error {
			_, err := f.repo.AddFolder(ctx, name)
			return err
		}, nil)
	case "todo":
		if hasSel {
			return f.mutate(func(ctx context.Context) error {
				return f.repo.AddTodo(ctx, sel.Name, name, date)
			}, nil)
		}
	case "note":
		if hasSel {
			note := folders.Note{URI: name, Type: folders.NoteType(*f.formNoteType), Date: date}
			return f.mutate(func(ctx context.Context) error {
				return f.repo.AddNote(ctx, sel.Name, note)
			}, nil)
		}
	case "delete":
		if hasSel && *f.formConfirm {
			return f.mutate(func(ctx context.Context) error {
				return f.repo.DeleteFolder(ctx, sel.Name)
			}, []string{sel.Name})
		}
	case "delete_all":
		if *f.formConfirm {
			names := make([]string, len(f.folders))
			for i, fl := range f.folders {
				names[i] = fl.Name
			}
			return f.mutate(f.repo.DeleteAll, names)
		}
	case "delete_item":
		if hasSel && *f.formConfirm {
			return f.deleteItem(sel)
		}
	}
	return nil
}

func (f foldersModel) deleteItem(sel folders.Folder) tea.Cmd {
	if f.itemCursor < len(sel.Todos) {
		t := sel.Todos[f.itemCursor]
		return f.mutate(func(ctx context.Context) error {
			return f.repo.RemoveTodo(ctx, sel.Name, t.Name, t.Date)
		}, nil)
	}
	idx := f.itemCursor - len(sel.Todos)
	if idx >= len(sel.Notes) {
		return nil
	}
	uri := sel.Notes[idx].URI
	return f.mutate(func(ctx context.Context) error {
		return f.repo.DeleteNote(ctx, sel.Name, uri)
	}, nil)
}

func notBlank(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be blank", field)
		}
		return nil
	}
}

func validDate(s string) error {
	if _, err := time.Parse(folders.DateLayout, s); err != nil {
		return fmt.Errorf("use YYYY-MM-DD")
	}
	return nil
}

func (f foldersModel) view() string {
	if f.formActive && f.form != nil {
		titles := map[string]string{
			"folder":      "New Folder",
			"todo":        "New Todo",
			"note":        "New Note",
			"delete":      "Delete Folder",
			"delete_all":  "Delete All Folders",
			"delete_item": "Delete Item",
		}
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(titles[f.formType]), "", f.form.View())
		return panelStyle.Width(f.width - 4).Render(content)
	}

	if f.viewingItem {
		return f.renderDetail()
	}
	return f.renderList()
}

func (f foldersModel) renderList() string {
	w := f.width - 4
	title := titleStyle.Render("Folders")

	if len(f.folders) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No folders yet. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	header := mutedStyle.Render(fmt.Sprintf("  %-28s %8s %8s", "Name", "Todos", "Notes"))
	rows = append(rows, header)

	for i, fl := range f.folders {
		cursor := "  "
		style := normalItemStyle
		if i == f.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		todos := fmt.Sprintf("%d/%d", len(fl.Open()), len(fl.Todos))
		rows = append(rows, style.Render(fmt.Sprintf("%s%-28s %8s %8d", cursor, fl.Name, todos, len(fl.Notes))))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  d: delete  D: delete all  enter: open"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (f foldersModel) renderDetail() string {
	w := f.width - 4
	sel, _ := f.selected()
	title := titleStyle.Render(sel.Name)
	todayStr := today(f.now())

	var rows []string
	rows = append(rows, title, "")

	rows = append(rows, highlightStyle.Render("Todos"))
	if len(sel.Todos) == 0 {
		rows = append(rows, mutedStyle.Render("  none, press t to add one"))
	}
	for i, t := range sel.Todos {
		box := "[ ]"
		if t.Checked {
			box = successStyle.Render("[x]")
		}
		due := mutedStyle.Render(t.Date)
		if !t.Checked && t.Date < todayStr {
			due = errorStyle.Render(t.Date)
		}
		rows = append(rows, f.itemRow(i, fmt.Sprintf("%s %-30s", box, t.Name))+" "+due)
	}

	rows = append(rows, "", highlightStyle.Render("Notes"))
	if len(sel.Notes) == 0 {
		rows = append(rows, mutedStyle.Render("  none, press m to add one"))
	}
	for i, n := range sel.Notes {
		icon := "▣"
		if n.Type == folders.NoteVideo {
			icon = "▶"
		}
		rows = append(rows, f.itemRow(len(sel.Todos)+i, fmt.Sprintf("%s %-30s", icon, n.URI))+" "+mutedStyle.Render(n.Date))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  t: todo  m: note  c: check  d: delete  esc: back"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (f foldersModel) itemRow(i int, text string) string {
	if i == f.itemCursor {
		return selectedItemStyle.Render("> " + text)
	}
	return normalItemStyle.Render("  " + text)
}
