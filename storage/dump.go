package storage

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	eventeditor "gdide/event_editor"
	"gdide/typedef"

	"github.com/pierrec/lz4"
)

const dumpDir = "dumps"

// Dump is the recovery copy of an open scene, written periodically so a
// crashed session can be restored.
type Dump struct {
	Path    string    `json:"path"` // File the scene was opened from, may be empty
	Written time.Time `json:"written"`
	Scene   string    `json:"scene"` // Scene document
}

// compressLZ4 compresses data using LZ4
func compressLZ4(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := lz4.NewWriter(&buf)

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decompressLZ4 decompresses LZ4 data
func decompressLZ4(data []byte) ([]byte, error) {
	reader := lz4.NewReader(bytes.NewReader(data))

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// dumpName derives a stable file name from the scene path.
func dumpName(path, sceneName string) string {
	key := path
	if key == "" {
		key = "unsaved:" + sceneName
	}
	sum := sha1.Sum([]byte(key))
	return filepath.Join(dumpDir, hex.EncodeToString(sum[:8])+".lz4")
}

// WriteDump saves a compressed recovery copy of a scene.
func WriteDump(path string, scene *typedef.Scene, tree *eventeditor.Tree) error {
	var doc bytes.Buffer
	if err := eventeditor.WriteScene(&doc, scene, tree); err != nil {
		return err
	}
	data, err := json.Marshal(Dump{Path: path, Written: time.Now(), Scene: doc.String()})
	if err != nil {
		return err
	}
	compressed, err := compressLZ4(data)
	if err != nil {
		return fmt.Errorf("compress dump: %w", err)
	}
	return WriteDataFile(dumpName(path, scene.Name), compressed, 0o644)
}

// ReadDumps returns the recovery copies found in the data directory,
// oldest first. Unreadable dumps are skipped.
func ReadDumps() ([]Dump, error) {
	entries, err := os.ReadDir(DataFile(dumpDir))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var dumps []Dump
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".lz4") {
			continue
		}
		raw, err := ReadDataFile(filepath.Join(dumpDir, e.Name()))
		if err != nil {
			log.Printf("[STORAGE] skipping dump %s: %v", e.Name(), err)
			continue
		}
		data, err := decompressLZ4(raw)
		if err != nil {
			log.Printf("[STORAGE] skipping dump %s: %v", e.Name(), err)
			continue
		}
		var d Dump
		if err := json.Unmarshal(data, &d); err != nil {
			log.Printf("[STORAGE] skipping dump %s: %v", e.Name(), err)
			continue
		}
		dumps = append(dumps, d)
	}
	sort.Slice(dumps, func(i, j int) bool { return dumps[i].Written.Before(dumps[j].Written) })
	return dumps, nil
}

// Restore parses the scene held by a dump.
func (d Dump) Restore() (*typedef.Scene, *eventeditor.Tree, error) {
	return eventeditor.ReadScene(strings.NewReader(d.Scene))
}

// ClearDumps deletes every recovery copy.
func ClearDumps() error {
	return os.RemoveAll(DataFile(dumpDir))
}

// RemoveDump deletes the recovery copy of one scene.
func RemoveDump(path, sceneName string) error {
	return RemoveDataFile(dumpName(path, sceneName))
}
