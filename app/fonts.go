package app

import (
	"fmt"
	"log"
	"os"
	"sync"

	"gdide/render"
	"gdide/storage"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

type faceKey struct {
	path string
	size float64
}

// Parsed fonts and faces are cached; faces are shared by every document.
var (
	fontCache    = make(map[string]*opentype.Font)
	faceCache    = make(map[faceKey]font.Face)
	fontCacheMux sync.Mutex
)

// loadFace returns a face of the font file at path.
func loadFace(path string, size float64) (font.Face, error) {
	fontCacheMux.Lock()
	defer fontCacheMux.Unlock()

	key := faceKey{path, size}
	if face, ok := faceCache[key]; ok {
		return face, nil
	}
	parsed, ok := fontCache[path]
	if !ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		parsed, err = opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse font %s: %w", path, err)
		}
		fontCache[path] = parsed
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	faceCache[key] = face
	return face, nil
}

// RenderConfig builds the rendering configuration of the events view from
// the editor preferences.
func RenderConfig(cfg *storage.EditorConfig) *render.Config {
	rc := render.DefaultConfig()
	rc.ConditionsColumnWidth = cfg.ConditionsColumnWidth
	rc.Language = render.ParseLanguage(cfg.Language)
	if cfg.FontPath == "" {
		return rc
	}
	face, err := loadFace(cfg.FontPath, cfg.FontSize)
	if err != nil {
		log.Printf("[APP] failed to load font, using default font: %v", err)
		rc.Face, rc.BoldFace = basicfont.Face7x13, basicfont.Face7x13
		return rc
	}
	rc.Face, rc.BoldFace = face, face
	return rc
}
