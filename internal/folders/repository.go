package folders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/sadopc/studyr/internal/store"
)

var (
	ErrInvalid   = errors.New("folders: invalid input")
	ErrDuplicate = errors.New("folders: folder already exists")
)

// Repository stores the whole folder list as one JSON document under
// store.KeyFolders. The underlying store has no partial update, so every
// mutation re-reads the list, edits it and writes it back while holding mu.
// Writers in other processes are not coordinated: last writer wins.
type Repository struct {
	kv     store.KV
	logger *slog.Logger
	mu     sync.Mutex
}

func NewRepository(kv store.KV, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Repository{kv: kv, logger: logger}
}

// LoadAll returns the persisted folders. A failed read is logged and
// treated as an empty list.
func (r *Repository) LoadAll(ctx context.Context) []Folder {
	folders, err := r.load(ctx)
	if err != nil {
		r.logger.Warn("folders: load failed", slog.String("error", err.Error()))
		return []Folder{}
	}
	return folders
}

// SaveAll overwrites the persisted list.
func (r *Repository) SaveAll(ctx context.Context, folders []Folder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.save(ctx, folders)
}

// FindByName returns a pointer into folders for the first folder named name.
func FindByName(folders []Folder, name string) (*Folder, bool) {
	for i := range folders {
		if folders[i].Name == name {
			return &folders[i], true
		}
	}
	return nil, false
}

// AddFolder appends a new empty folder. The name is trimmed; blank and
// duplicate names are rejected.
func (r *Repository) AddFolder(ctx context.Context, name string) (Folder, error) {
	name = strings.TrimSpace(name)
	if err := validation.Validate(name, validation.Required); err != nil {
		return Folder{}, fmt.Errorf("%w: folder name %w", ErrInvalid, err)
	}

	folder := Folder{Name: name, Todos: []Todo{}, Notes: []Note{}}
	err := r.update(ctx, func(folders []Folder) ([]Folder, bool, error) {
		if _, ok := FindByName(folders, name); ok {
			return nil, false, fmt.Errorf("%w: %q", ErrDuplicate, name)
		}
		return append(folders, folder), true, nil
	})
	if err != nil {
		return Folder{}, err
	}
	r.logger.Info("folder added", slog.String("folder", name))
	return folder, nil
}

// UpsertFolder replaces the folder with the same name, or appends it.
func (r *Repository) UpsertFolder(ctx context.Context, folder Folder) error {
	folder.Name = strings.TrimSpace(folder.Name)
	if err := validation.Validate(folder.Name, validation.Required); err != nil {
		return fmt.Errorf("%w: folder name %w", ErrInvalid, err)
	}
	folder.normalize()
	return r.update(ctx, func(folders []Folder) ([]Folder, bool, error) {
		if f, ok := FindByName(folders, folder.Name); ok {
			*f = folder
			return folders, true, nil
		}
		return append(folders, folder), true, nil
	})
}

// DeleteFolder removes the named folder and drops the active-session marker
// if it points at it. Deleting a missing folder is a no-op.
func (r *Repository) DeleteFolder(ctx context.Context, name string) error {
	err := r.update(ctx, func(folders []Folder) ([]Folder, bool, error) {
		out := folders[:0]
		for _, f := range folders {
			if f.Name != name {
				out = append(out, f)
			}
		}
		return out, len(out) != len(folders), nil
	})
	if err != nil {
		return err
	}

	var active string
	ok, err := r.kv.Get(ctx, store.KeyActiveFolder, &active)
	if err != nil {
		return fmt.Errorf("read active folder: %w", err)
	}
	if ok && active == name {
		if err := r.kv.Remove(ctx, store.KeyActiveFolder); err != nil {
			return fmt.Errorf("clear active folder: %w", err)
		}
	}
	return nil
}

// DeleteAll removes every folder and the active-session marker.
func (r *Repository) DeleteAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.kv.Remove(ctx, store.KeyFolders); err != nil {
		return fmt.Errorf("delete folders: %w", err)
	}
	if err := r.kv.Remove(ctx, store.KeyActiveFolder); err != nil {
		return fmt.Errorf("clear active folder: %w", err)
	}
	r.logger.Info("all folders deleted")
	return nil
}

// AddTodo appends a todo to the named folder.
func (r *Repository) AddTodo(ctx context.Context, folder, name, date string) error {
	todo := Todo{Name: strings.TrimSpace(name), Date: date}
	if err := todo.Validate(); err != nil {
		return fmt.Errorf("%w: todo %w", ErrInvalid, err)
	}
	return r.updateFolder(ctx, folder, func(f *Folder) bool {
		f.Todos = append(f.Todos, todo)
		return true
	})
}

// ToggleTodo flips the checked flag of the first todo matching (name, date).
func (r *Repository) ToggleTodo(ctx context.Context, folder, name, date string) error {
	return r.updateFolder(ctx, folder, func(f *Folder) bool {
		for i := range f.Todos {
			if f.Todos[i].Name == name && f.Todos[i].Date == date {
				f.Todos[i].Checked = !f.Todos[i].Checked
				return true
			}
		}
		return false
	})
}

// RemoveTodo deletes the first todo matching (name, date).
func (r *Repository) RemoveTodo(ctx context.Context, folder, name, date string) error {
	return r.updateFolder(ctx, folder, func(f *Folder) bool {
		for i := range f.Todos {
			if f.Todos[i].Name == name && f.Todos[i].Date == date {
				f.Todos = append(f.Todos[:i], f.Todos[i+1:]...)
				return true
			}
		}
		return false
	})
}

// AddNote appends a media note to the named folder.
func (r *Repository) AddNote(ctx context.Context, folder string, note Note) error {
	if err := note.Validate(); err != nil {
		return fmt.Errorf("%w: note %w", ErrInvalid, err)
	}
	return r.updateFolder(ctx, folder, func(f *Folder) bool {
		f.Notes = append(f.Notes, note)
		return true
	})
}

// DeleteNote removes every note with the given uri from the named folder.
func (r *Repository) DeleteNote(ctx context.Context, folder, uri string) error {
	return r.updateFolder(ctx, folder, func(f *Folder) bool {
		kept := make([]Note, 0, len(f.Notes))
		for _, n := range f.Notes {
			if n.URI != uri {
				kept = append(kept, n)
			}
		}
		changed := len(kept) != len(f.Notes)
		f.Notes = kept
		return changed
	})
}

// updateFolder applies fn to the named folder. A folder that no longer
// exists makes the call a no-op.
func (r *Repository) updateFolder(ctx context.Context, name string, fn func(*Folder) bool) error {
	return r.update(ctx, func(folders []Folder) ([]Folder, bool, error) {
		f, ok := FindByName(folders, name)
		if !ok {
			r.logger.Debug("folders: update skipped, folder missing", slog.String("folder", name))
			return folders, false, nil
		}
		return folders, fn(f), nil
	})
}

func (r *Repository) update(ctx context.Context, fn func([]Folder) ([]Folder, bool, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	folders, err := r.load(ctx)
	if err != nil {
		return err
	}
	next, changed, err := fn(folders)
	if err != nil || !changed {
		return err
	}
	return r.save(ctx, next)
}

func (r *Repository) load(ctx context.Context) ([]Folder, error) {
	var folders []Folder
	if _, err := r.kv.Get(ctx, store.KeyFolders, &folders); err != nil {
		return nil, fmt.Errorf("load folders: %w", err)
	}
	if folders == nil {
		folders = []Folder{}
	}
	for i := range folders {
		folders[i].normalize()
	}
	return folders, nil
}

func (r *Repository) save(ctx context.Context, folders []Folder) error {
	if folders == nil {
		folders = []Folder{}
	}
	for i := range folders {
		folders[i].normalize()
	}
	if err := r.kv.Set(ctx, store.KeyFolders, folders); err != nil {
		return fmt.Errorf("save folders: %w", err)
	}
	return nil
}
