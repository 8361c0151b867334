package tui

import (
	"github.com/charmbracelet/lipgloss"

	"uichat/internal/uitag"
)

// ─── Colors ─────────────────────────────────────────────────────────────────

var (
	colorOrange  = lipgloss.Color("#F28C28") // primary accent
	colorCyan    = lipgloss.Color("80")
	colorGreen   = lipgloss.Color("78")
	colorYellow  = lipgloss.Color("220")
	colorRed     = lipgloss.Color("196")
	colorMagenta = lipgloss.Color("213")
	colorBlue    = lipgloss.Color("111")
	colorGray    = lipgloss.Color("242")
	colorDimGray = lipgloss.Color("238")
	colorWhite   = lipgloss.Color("255")
)

// ─── Welcome ────────────────────────────────────────────────────────────────

var logoBodyStyle = lipgloss.NewStyle().
	Foreground(colorGray)

var logoDotStyle = lipgloss.NewStyle().
	Foreground(colorOrange).
	Bold(true)

var logoTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorWhite)

var versionStyle = lipgloss.NewStyle().
	Foreground(colorGray)

var welcomeHintStyle = lipgloss.NewStyle().
	Foreground(colorGray).
	Italic(true)

var welcomeInfoLabel = lipgloss.NewStyle().
	Foreground(colorGray)

// ─── Input / Prompt ─────────────────────────────────────────────────────────

var promptSymbol = lipgloss.NewStyle().
	Foreground(colorOrange).
	Bold(true)

// ─── Hint Bar ───────────────────────────────────────────────────────────────

var hintBarStyle = lipgloss.NewStyle().
	Foreground(colorGray)

var hintKeyStyle = lipgloss.NewStyle().
	Foreground(colorGray).
	Bold(true)

var dimHintStyle = lipgloss.NewStyle().
	Foreground(colorDimGray)

// Command menu styles
var cmdNameStyle = lipgloss.NewStyle().
	Foreground(colorOrange)

var cmdDescStyle = lipgloss.NewStyle().
	Foreground(colorGray)

// Selected/highlighted command in the menu
var cmdSelectedNameStyle = lipgloss.NewStyle().
	Foreground(colorOrange).
	Bold(true).
	Reverse(true)

var cmdSelectedDescStyle = lipgloss.NewStyle().
	Foreground(colorWhite).
	Bold(true)

// ─── Output Styles ──────────────────────────────────────────────────────────

var successMsgStyle = lipgloss.NewStyle().
	Foreground(colorGreen)

var errorMsgStyle = lipgloss.NewStyle().
	Foreground(colorRed)

var warnMsgStyle = lipgloss.NewStyle().
	Foreground(colorYellow)

var statusStyle = lipgloss.NewStyle().
	Foreground(colorYellow)

var userPromptStyle = lipgloss.NewStyle().
	Foreground(colorOrange).
	Bold(true)

var botLabelStyle = lipgloss.NewStyle().
	Foreground(colorBlue).
	Bold(true)

var timeStyle = lipgloss.NewStyle().
	Foreground(colorDimGray)

var dimStyle = lipgloss.NewStyle().
	Foreground(colorGray)

var separatorStyle = lipgloss.NewStyle().
	Foreground(colorDimGray)

// ─── Tag kinds ──────────────────────────────────────────────────────────────

var kindStyles = map[uitag.Kind]lipgloss.Style{
	uitag.KindImage: lipgloss.NewStyle().Foreground(colorBlue).Bold(true),
	uitag.KindVideo: lipgloss.NewStyle().Foreground(colorMagenta).Bold(true),
	uitag.KindLink:  lipgloss.NewStyle().Foreground(colorCyan).Bold(true),
	uitag.KindQuiz:  lipgloss.NewStyle().Foreground(colorYellow).Bold(true),
}

func kindStyle(k uitag.Kind) lipgloss.Style {
	if s, ok := kindStyles[k]; ok {
		return s
	}
	return dimStyle
}
