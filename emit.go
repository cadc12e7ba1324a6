package main

import (
	"fmt"
	"io"
	"os"

	eventeditor "gdide/event_editor"
	"gdide/render"
	"gdide/storage"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"golang.org/x/term"
)

const highlightStyle = "monokai"

// emitCode prints the generated code of a scene file, highlighted when
// stdout is a terminal.
func emitCode(w io.Writer, path string, cfg *render.Config, colour bool) error {
	scene, tree, err := storage.LoadScene(path)
	if err != nil {
		return err
	}
	code := eventeditor.GenerateCode(tree, scene, cfg.Metadata)
	if !colour {
		_, err := io.WriteString(w, code)
		return err
	}
	return highlight(w, code)
}

func highlight(w io.Writer, code string) error {
	lexer := lexers.Get("javascript")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)
	style := styles.Get(highlightStyle)
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}
	tokens, err := lexer.Tokenise(nil, code)
	if err != nil {
		return fmt.Errorf("highlight: %w", err)
	}
	return formatter.Format(w, style, tokens)
}

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// writeSnapshot renders the events of a scene file into a PNG image.
func writeSnapshot(out, path string, cfg *render.Config, width int) error {
	_, tree, err := storage.LoadScene(path)
	if err != nil {
		return err
	}
	helper := render.NewHelper(cfg)
	height := max(eventeditor.EventsHeight(tree, width, helper), 1)

	surface := render.NewImageSurface(width, height, cfg.Colors.Background)
	eventeditor.RenderEvents(surface, tree, 0, 0, width, render.NewAreas(), render.NewSelection(), helper)

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := surface.EncodePNG(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
