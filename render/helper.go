package render

import (
	"image"
	"image/color"
	"strings"
	"unicode/utf8"

	"gdide/typedef"

	"golang.org/x/image/font"
)

// Helper measures and draws instruction lists with a given Config.
type Helper struct {
	cfg *Config
}

// NewHelper returns a helper for cfg. A nil cfg means DefaultConfig.
func NewHelper(cfg *Config) *Helper {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Helper{cfg: cfg}
}

// Config returns the configuration of the helper.
func (h *Helper) Config() *Config { return h.cfg }

// InstructionText returns the sentence displayed for an instruction.
func (h *Helper) InstructionText(kind typedef.InstructionKind, instr typedef.Instruction) string {
	m, _ := h.cfg.Metadata.Lookup(kind, instr.Type)
	text := m.FormatSentence(instr)
	if instr.Inverted {
		text = h.cfg.Label(LabelNot) + " " + text
	}
	return text
}

// WrapText splits s into lines no wider than width, breaking at spaces
// when possible and inside words otherwise. It always returns a line.
func (h *Helper) WrapText(s string, width int, face font.Face) []string {
	if width < 1 {
		width = 1
	}
	var lines []string
	line := ""
	for _, word := range strings.Fields(s) {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if MeasureText(face, candidate) <= width {
			line = candidate
			continue
		}
		if line != "" {
			lines = append(lines, line)
			line = ""
		}
		// Split words longer than the line.
		for MeasureText(face, word) > width {
			cut := fitPrefix(face, word, width)
			lines = append(lines, word[:cut])
			word = word[cut:]
		}
		line = word
	}
	if line != "" || len(lines) == 0 {
		lines = append(lines, line)
	}
	return lines
}

// fitPrefix returns the byte length of the longest prefix of word fitting
// in width, at least one rune.
func fitPrefix(face font.Face, word string, width int) int {
	cut := 0
	for i, r := range word {
		end := i + utf8.RuneLen(r)
		if cut > 0 && MeasureText(face, word[:end]) > width {
			break
		}
		cut = end
	}
	return cut
}

func (h *Helper) instructionHeight(kind typedef.InstructionKind, instr typedef.Instruction, width int) int {
	lines := h.WrapText(h.InstructionText(kind, instr), width, h.cfg.Face)
	return len(lines)*h.cfg.LineHeight() + h.cfg.InstructionPadding*2
}

// GetRenderedInstructionsListHeight returns the height a list takes when drawn at width.
func (h *Helper) GetRenderedInstructionsListHeight(kind typedef.InstructionKind, list *typedef.InstructionList, width int) int {
	if list == nil || list.IsEmpty() {
		return h.cfg.EmptyListHeight
	}
	height := 0
	for i := 0; i < list.Len(); i++ {
		height += h.instructionHeight(kind, list.At(i), width)
	}
	return height
}

// GetRenderedConditionsListHeight returns the drawn height of a conditions list.
func (h *Helper) GetRenderedConditionsListHeight(list *typedef.InstructionList, width int) int {
	return h.GetRenderedInstructionsListHeight(typedef.KindCondition, list, width)
}

// GetRenderedActionsListHeight returns the drawn height of an actions list.
func (h *Helper) GetRenderedActionsListHeight(list *typedef.InstructionList, width int) int {
	return h.GetRenderedInstructionsListHeight(typedef.KindAction, list, width)
}

// DrawConditionsList draws a conditions list and records its areas.
// It returns the height used.
func (h *Helper) DrawConditionsList(list *typedef.InstructionList, s Surface, x, y, width int, ref ItemRef, disabled bool, areas *Areas, sel *Selection) int {
	ref.Kind = typedef.KindCondition
	return h.drawInstructionsList(list, s, x, y, width, ref, disabled, areas, sel)
}

// DrawActionsList draws an actions list and records its areas.
// It returns the height used.
func (h *Helper) DrawActionsList(list *typedef.InstructionList, s Surface, x, y, width int, ref ItemRef, disabled bool, areas *Areas, sel *Selection) int {
	ref.Kind = typedef.KindAction
	return h.drawInstructionsList(list, s, x, y, width, ref, disabled, areas, sel)
}

func (h *Helper) drawInstructionsList(list *typedef.InstructionList, s Surface, x, y, width int, ref ItemRef, disabled bool, areas *Areas, sel *Selection) int {
	cfg := h.cfg
	listRef := ref.ListRef()
	total := h.GetRenderedInstructionsListHeight(ref.Kind, list, width)
	listRect := image.Rect(x, y, x+width, y+total)
	if areas != nil {
		areas.AddInstructionArea(listRect, listRef)
	}

	textColor := cfg.Colors.Text
	if disabled {
		textColor = cfg.Colors.DisabledText
	}

	if list == nil || list.IsEmpty() {
		if sel != nil && sel.IsInstructionSelected(listRef) {
			s.FillRect(listRect, cfg.Colors.SelectedInstruction)
		} else if sel != nil && sel.IsHovered(listRef) {
			s.FillRect(listRect, cfg.Colors.HoveredInstruction)
		}
		label := LabelNoConditions
		if ref.Kind == typedef.KindAction {
			label = LabelNoActions
		}
		s.DrawText(cfg.Label(label), x+2, y+(total-cfg.LineHeight())/2, cfg.Face, cfg.Colors.PlaceholderText)
		return total
	}

	lineHeight := cfg.LineHeight()
	cy := y
	for i := 0; i < list.Len(); i++ {
		instr := list.At(i)
		lines := h.WrapText(h.InstructionText(ref.Kind, instr), width, cfg.Face)
		itemHeight := len(lines)*lineHeight + cfg.InstructionPadding*2
		itemRef := ref
		itemRef.Index = i
		r := image.Rect(x, cy, x+width, cy+itemHeight)
		if areas != nil {
			areas.AddInstructionArea(r, itemRef)
		}
		switch {
		case sel != nil && sel.IsInstructionSelected(itemRef):
			s.FillRect(r, cfg.Colors.SelectedInstruction)
		case sel != nil && sel.IsHovered(itemRef):
			s.FillRect(r, cfg.Colors.HoveredInstruction)
		}
		ty := cy + cfg.InstructionPadding
		for _, line := range lines {
			s.DrawText(line, x, ty, cfg.Face, textColor)
			ty += lineHeight
		}
		cy += itemHeight
	}
	return total
}

// DrawNiceRectangle draws the frame of an event block.
func (h *Helper) DrawNiceRectangle(s Surface, r image.Rectangle, fill color.Color) {
	s.FillRect(r, fill)
	s.StrokeRect(r, h.cfg.Colors.EventBorder)
}

// DrawBoldText draws text with the bold face. When no distinct bold face
// is configured the text is drawn twice, one pixel apart.
func (h *Helper) DrawBoldText(s Surface, text string, x, y int, c color.Color) {
	s.DrawText(text, x, y, h.cfg.BoldFace, c)
	if h.cfg.BoldFace == h.cfg.Face {
		s.DrawText(text, x+1, y, h.cfg.BoldFace, c)
	}
}
