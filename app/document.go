package app

import (
	"errors"
	"path/filepath"

	eventeditor "gdide/event_editor"
	"gdide/render"
	"gdide/storage"
	"gdide/typedef"
)

// ErrNoPath is returned when saving a document that was never saved.
var ErrNoPath = errors.New("document has no file")

// Document is a scene open in the editor.
type Document struct {
	Path    string
	Session *eventeditor.Session
	Scroll  int

	dumped uint64 // Tree revision of the last recovery dump
}

// NewDocument creates an unsaved document with an empty scene.
func NewDocument(name string, cfg *render.Config, historyLimit int) *Document {
	s := eventeditor.NewSession(typedef.NewScene(name), nil, cfg)
	s.SetHistoryLimit(historyLimit)
	return &Document{Session: s}
}

// OpenDocument loads a scene file.
func OpenDocument(path string, cfg *render.Config, historyLimit int) (*Document, error) {
	scene, tree, err := storage.LoadScene(path)
	if err != nil {
		return nil, err
	}
	s := eventeditor.NewSession(scene, tree, cfg)
	s.SetHistoryLimit(historyLimit)
	return &Document{Path: path, Session: s, dumped: tree.Revision(typedef.NoEvent)}, nil
}

// RestoreDocument opens the scene held by a crash dump. The document is
// marked modified since the dump was never saved.
func RestoreDocument(d storage.Dump, cfg *render.Config, historyLimit int) (*Document, error) {
	scene, tree, err := d.Restore()
	if err != nil {
		return nil, err
	}
	s := eventeditor.NewSession(scene, tree, cfg)
	s.SetHistoryLimit(historyLimit)
	doc := &Document{Path: d.Path, Session: s}
	doc.Session.MarkModified()
	return doc, nil
}

// Title is the name shown in the tab bar.
func (d *Document) Title() string {
	name := d.Session.Scene.Name
	if d.Path != "" {
		name = filepath.Base(d.Path)
	}
	if name == "" {
		name = "Untitled"
	}
	if d.Session.Dirty() {
		name += "*"
	}
	return name
}

// Save writes the document to its file and drops its recovery dump.
func (d *Document) Save() error {
	if d.Path == "" {
		return ErrNoPath
	}
	if err := storage.SaveScene(d.Path, d.Session.Scene, d.Session.Tree()); err != nil {
		return err
	}
	d.Session.MarkSaved()
	d.dumped = d.Session.Tree().Revision(typedef.NoEvent)
	return storage.RemoveDump(d.Path, d.Session.Scene.Name)
}

// Dump writes a recovery copy when the document changed since the last
// save or dump. It reports whether a dump was written.
func (d *Document) Dump() (bool, error) {
	rev := d.Session.Tree().Revision(typedef.NoEvent)
	if !d.Session.Dirty() || rev == d.dumped {
		return false, nil
	}
	if err := storage.WriteDump(d.Path, d.Session.Scene, d.Session.Tree()); err != nil {
		return false, err
	}
	d.dumped = rev
	return true, nil
}
