// Package icons holds the glyphs used by the player screen.
package icons

// Style represents the icon style to use.
type Style string

const (
	StyleNerd    Style = "nerd"
	StyleUnicode Style = "unicode"
	StyleNone    Style = "none"
)

// Icons holds the icon characters for one style.
type Icons struct {
	Playing    string
	Paused     string
	Loading    string
	Stopped    string
	Error      string
	Continuing string
	Shuffle    string
	RepeatAll  string
	RepeatOne  string
}

var (
	nerdIcons = Icons{
		Playing:    "\uf04b", // nf-fa-play
		Paused:     "\uf04c", // nf-fa-pause
		Loading:    "\uf110", // nf-fa-spinner
		Stopped:    "\uf04d", // nf-fa-stop
		Error:      "\uf071", // nf-fa-warning
		Continuing: "\uf021", // nf-fa-refresh
		Shuffle:    "󰒟",      // nf-md-shuffle
		RepeatAll:  "󰑖",      // nf-md-repeat
		RepeatOne:  "󰑘",      // nf-md-repeat_once
	}

	unicodeIcons = Icons{
		Playing:    "▶",
		Paused:     "⏸",
		Loading:    "…",
		Stopped:    "■",
		Error:      "!",
		Continuing: "⟳",
		Shuffle:    "🔀",
		RepeatAll:  "🔁",
		RepeatOne:  "🔂",
	}

	noneIcons = Icons{
		Playing:    ">",
		Paused:     "||",
		Loading:    "...",
		Stopped:    "[]",
		Error:      "!",
		Continuing: "~",
		Shuffle:    "[S]",
		RepeatAll:  "[R]",
		RepeatOne:  "[1]",
	}

	// current holds the active icon set
	current = unicodeIcons
)

// Init selects the icon set for style. Call it once at startup with the
// config value; unknown styles fall back to plain ASCII.
func Init(style string) {
	switch Style(style) {
	case StyleNerd:
		current = nerdIcons
	case StyleUnicode:
		current = unicodeIcons
	default:
		current = noneIcons
	}
}

// Current returns the active icon set.
func Current() Icons {
	return current
}

func Playing() string    { return current.Playing }
func Paused() string     { return current.Paused }
func Loading() string    { return current.Loading }
func Stopped() string    { return current.Stopped }
func Error() string      { return current.Error }
func Continuing() string { return current.Continuing }
func Shuffle() string    { return current.Shuffle }
func RepeatAll() string  { return current.RepeatAll }
func RepeatOne() string  { return current.RepeatOne }
