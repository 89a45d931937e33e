package console

import "strings"

// Raw ANSI Color Codes
const (
	CodeReset = "\033[0m"

	CodeBold          = "\033[1m"
	CodeDim           = "\033[2m"
	CodeItalic        = "\033[3m"
	CodeUnderline     = "\033[4m"
	CodeBlink         = "\033[5m"
	CodeReverse       = "\033[7m"
	CodeStrikethrough = "\033[9m"

	CodeBoldOff          = "\033[22m"
	CodeDimOff           = "\033[22m"
	CodeItalicOff        = "\033[23m"
	CodeUnderlineOff     = "\033[24m"
	CodeBlinkOff         = "\033[25m"
	CodeReverseOff       = "\033[27m"
	CodeStrikethroughOff = "\033[29m"

	CodeBlack   = "\033[30m"
	CodeRed     = "\033[31m"
	CodeGreen   = "\033[32m"
	CodeYellow  = "\033[33m"
	CodeBlue    = "\033[34m"
	CodeMagenta = "\033[35m"
	CodeCyan    = "\033[36m"
	CodeWhite   = "\033[37m"

	CodeBlackBg   = "\033[40m"
	CodeRedBg     = "\033[41m"
	CodeGreenBg   = "\033[42m"
	CodeYellowBg  = "\033[43m"
	CodeBlueBg    = "\033[44m"
	CodeMagentaBg = "\033[45m"
	CodeCyanBg    = "\033[46m"
	CodeWhiteBg   = "\033[47m"
)

var ansiMap = map[string]string{
	"-":     CodeReset,
	"reset": CodeReset,

	"black":   CodeBlack,
	"red":     CodeRed,
	"green":   CodeGreen,
	"yellow":  CodeYellow,
	"blue":    CodeBlue,
	"magenta": CodeMagenta,
	"cyan":    CodeCyan,
	"white":   CodeWhite,

	"blackbg":   CodeBlackBg,
	"redbg":     CodeRedBg,
	"greenbg":   CodeGreenBg,
	"yellowbg":  CodeYellowBg,
	"bluebg":    CodeBlueBg,
	"magentabg": CodeMagentaBg,
	"cyanbg":    CodeCyanBg,
	"whitebg":   CodeWhiteBg,
}

// Flag characters: upper case turns an attribute on, lower case turns it off.
var flagMap = map[rune]string{
	'B': CodeBold, 'b': CodeBoldOff,
	'D': CodeDim, 'd': CodeDimOff,
	'I': CodeItalic, 'i': CodeItalicOff,
	'U': CodeUnderline, 'u': CodeUnderlineOff,
	'L': CodeBlink, 'l': CodeBlinkOff,
	'R': CodeReverse, 'r': CodeReverseOff,
	'S': CodeStrikethrough, 's': CodeStrikethroughOff,
}

// semanticMap holds semantic tag name (lower case) -> direct style tags.
var semanticMap = map[string]string{}

func init() {
	registerBaseTags()
}

func registerBaseTags() {
	base := map[string]string{
		// Log levels
		"Timestamp":   "{{|-|}}",
		"Trace":       "{{|blue|}}",
		"Debug":       "{{|blue|}}",
		"Info":        "{{|blue|}}",
		"Notice":      "{{|green|}}",
		"Warn":        "{{|yellow|}}",
		"Error":       "{{|red|}}",
		"Fatal":       "{{|white:red|}}",
		"FatalFooter": "{{|-|}}",

		// Stack traces
		"TraceHeader":      "{{|red|}}",
		"TraceFooter":      "{{|red|}}",
		"TraceFrameNumber": "{{|red|}}",
		"TraceFrameLines":  "{{|red|}}",
		"TraceSourceFile":  "{{|cyan::B|}}",
		"TraceLineNumber":  "{{|yellow::B|}}",
		"TraceFunction":    "{{|green::B|}}",

		// Domain
		"ApplicationName": "{{|cyan::B|}}",
		"Version":         "{{|cyan|}}",
		"App":             "{{|cyan|}}",
		"Category":        "{{|magenta::B|}}",
		"Language":        "{{|yellow|}}",
		"License":         "{{|blue|}}",
		"Docker":          "{{|green|}}",
		"NotDocker":       "{{|-|}}",
		"Image":           "{{|green::B|}}",
		"Port":            "{{|yellow::B|}}",
		"Network":         "{{|cyan|}}",
		"Key":             "{{|magenta|}}",
		"Branch":          "{{|cyan|}}",
		"File":            "{{|cyan::B|}}",
		"Folder":          "{{|cyan::B|}}",
		"URL":             "{{|cyan::U|}}",
		"User":            "{{|cyan|}}",
		"Var":             "{{|magenta|}}",
		"Update":          "{{|green|}}",
		"Highlight":       "{{|yellow::B|}}",
		"Diff":            "{{|-|}}",
		"DiffAdd":         "{{|green|}}",
		"DiffRemove":      "{{|red|}}",

		// Commands
		"RunningCommand":         "{{|green::B|}}",
		"FailingCommand":         "{{|red|}}",
		"UserCommand":            "{{|yellow::B|}}",
		"UserCommandError":       "{{|red::U|}}",
		"UserCommandErrorMarker": "{{|red|}}",
		"Yes":                    "{{|green|}}",
		"No":                     "{{|red|}}",

		// Usage
		"UsageCommand":  "{{|yellow::B|}}",
		"UsageOption":   "{{|yellow|}}",
		"UsageApp":      "{{|cyan|}}",
		"UsageCategory": "{{|magenta|}}",
		"UsageFile":     "{{|cyan::B|}}",
		"UsageVar":      "{{|magenta|}}",
	}
	for name, value := range base {
		RegisterSemanticTag(name, value)
	}
}

// RegisterSemanticTag registers (or replaces) a semantic tag. The value is
// written with direct tags, e.g. "{{|cyan::B|}}".
func RegisterSemanticTag(name, taggedValue string) {
	name = strings.Trim(name, "_")
	semanticMap[strings.ToLower(name)] = taggedValue
}
