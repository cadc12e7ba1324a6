package storage

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"

	eventeditor "gdide/event_editor"
	"gdide/typedef"
)

// SaveScene writes a scene file. The previous file is replaced only once
// the new one is completely written.
func SaveScene(path string, scene *typedef.Scene, tree *eventeditor.Tree) error {
	var buf bytes.Buffer
	if err := eventeditor.WriteScene(&buf, scene, tree); err != nil {
		return err
	}
	if err := writeFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	log.Printf("[STORAGE] saved %s (%d events)", filepath.Base(path), tree.Len())
	return nil
}

// LoadScene reads a scene file.
func LoadScene(path string) (*typedef.Scene, *eventeditor.Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	scene, tree, err := eventeditor.ReadScene(f)
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", path, err)
	}
	log.Printf("[STORAGE] loaded %s (%d events)", filepath.Base(path), tree.Len())
	return scene, tree, nil
}
