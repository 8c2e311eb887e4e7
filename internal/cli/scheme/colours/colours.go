package colours

import "github.com/fatih/color"

// Color scheme for the CLI
var (
	Title   = color.New(color.FgCyan, color.Bold)
	Speaker = color.New(color.FgMagenta, color.Bold)
	Line    = color.New(color.FgWhite)
	Emotion = color.New(color.FgHiBlack)
	Error   = color.New(color.FgRed, color.Bold)
	Success = color.New(color.FgGreen)
	Info    = color.New(color.FgBlue)
	Warning = color.New(color.FgYellow)
)
