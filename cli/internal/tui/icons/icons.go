// ABOUTME: Terminal icons for fleet, economics and model status
// ABOUTME: Uses Nerd Font glyphs when the terminal likely has them, plain Unicode otherwise

package icons

import (
	"os"
	"strings"
	"sync"

	"github.com/keir-whitehead/setup-lab-3d/backend/models"
)

// NerdFontsEnv forces glyph selection: "1" or "true" enables, anything else disables
const NerdFontsEnv = "AI_CAPACITY_NERD_FONTS"

var nerdFontTerminals = []string{"iTerm.app", "alacritty", "WezTerm", "kitty", "ghostty"}

var nerdFonts = sync.OnceValue(func() bool { return detect(os.Getenv) })

func detect(getenv func(string) string) bool {
	if v := getenv(NerdFontsEnv); v != "" {
		return v == "1" || strings.EqualFold(v, "true")
	}

	term := strings.ToLower(getenv("TERM"))
	program := getenv("TERM_PROGRAM")
	for _, t := range nerdFontTerminals {
		if strings.Contains(program, t) || strings.Contains(term, strings.ToLower(t)) {
			return true
		}
	}
	return getenv("NERD_FONTS") == "1"
}

// HasNerdFonts reports whether Nerd Font glyphs are used. Detection runs once.
func HasNerdFonts() bool {
	return nerdFonts()
}

// Icon is a glyph with a plain Unicode fallback
type Icon struct {
	NerdFont string
	Fallback string
}

func (i Icon) String() string {
	if HasNerdFonts() {
		return i.NerdFont
	}
	return i.Fallback
}

var (
	Machine = Icon{"󰇄", "▢"}
	Money   = Icon{"󰄔", "$"}
	App     = Icon{"󰚩", "◈"}

	On  = Icon{"󰄲", "●"}
	Off = Icon{"󰄱", "○"}

	Fast        = Icon{"󱐋", "»"}
	Runs        = Icon{"", "✓"}
	Distributed = Icon{"󱃾", "⬡"}
	Tight       = Icon{"", "⚠"}
	No          = Icon{"", "✗"}
)

// ForStatus maps a planning status to its icon. Unknown statuses read as No.
func ForStatus(s models.Status) Icon {
	switch s {
	case models.StatusFast:
		return Fast
	case models.StatusRuns:
		return Runs
	case models.StatusDistributed:
		return Distributed
	case models.StatusTight:
		return Tight
	default:
		return No
	}
}

// Active picks On or Off for a machine's active flag
func Active(active bool) Icon {
	if active {
		return On
	}
	return Off
}
