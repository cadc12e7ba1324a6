package render

import (
	"image/color"

	"gdide/typedef"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/text/language"
)

// Config holds the layout metrics, fonts and colors used to draw events.
// It is passed explicitly to every rendering call; two editors can render
// with different settings side by side.
type Config struct {
	InstructionsListBorder int // Padding around each instructions list
	ConditionsColumnWidth  int // Width of the left (conditions) column
	InstructionPadding     int // Vertical padding around one instruction
	EmptyListHeight        int // Height of a list with no instruction
	LabelColumnWidth       int // Width reserved for the "While:" label
	RepeatBandHeight       int // Height of the "Repeat:" band of loops
	SubEventsIndent        int // Left indentation of sub-events in the actions column

	Face     font.Face
	BoldFace font.Face // May equal Face; bold text is then drawn twice with a 1px offset

	Language language.Tag
	Metadata *typedef.MetadataHolder

	Colors Colors
}

// Colors of the events view.
type Colors struct {
	Background          color.RGBA
	EventBorder         color.RGBA
	ConditionsFill      color.RGBA
	ActionsFill         color.RGBA
	HeaderFill          color.RGBA
	Text                color.RGBA
	DisabledText        color.RGBA
	PlaceholderText     color.RGBA
	SelectedInstruction color.RGBA
	HoveredInstruction  color.RGBA
	SelectedEvent       color.RGBA
}

// DefaultConfig returns the metrics of the classic events editor, using the
// 7x13 bitmap font so layouts are identical on every machine.
func DefaultConfig() *Config {
	return &Config{
		InstructionsListBorder: 1,
		ConditionsColumnWidth:  350,
		InstructionPadding:     2,
		EmptyListHeight:        18,
		LabelColumnWidth:       80,
		RepeatBandHeight:       20,
		SubEventsIndent:        10,
		Face:                   basicfont.Face7x13,
		BoldFace:               basicfont.Face7x13,
		Language:               language.English,
		Metadata:               typedef.StandardMetadata(),
		Colors: Colors{
			Background:          color.RGBA{255, 255, 255, 255},
			EventBorder:         color.RGBA{184, 199, 219, 255},
			ConditionsFill:      color.RGBA{252, 252, 255, 255},
			ActionsFill:         color.RGBA{255, 255, 255, 255},
			HeaderFill:          color.RGBA{237, 242, 248, 255},
			Text:                color.RGBA{0, 0, 0, 255},
			DisabledText:        color.RGBA{160, 160, 160, 255},
			PlaceholderText:     color.RGBA{130, 130, 130, 255},
			SelectedInstruction: color.RGBA{196, 220, 255, 255},
			HoveredInstruction:  color.RGBA{235, 243, 255, 255},
			SelectedEvent:       color.RGBA{60, 120, 216, 255},
		},
	}
}

// LineHeight returns the height of one line of instruction text.
func (c *Config) LineHeight() int {
	return c.Face.Metrics().Height.Ceil()
}

// Clone returns a copy that can be modified without affecting c.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
