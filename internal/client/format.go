package client

import (
	"strings"

	"github.com/gookit/color"
)

var (
	errorStyle  = color.New(color.FgRed, color.OpBold)
	noticeStyle = color.New(color.FgCyan)
)

// Colorize highlights server replies: "!!!" usage errors in bold red and
// "user ..." membership notices in cyan. Chat text is returned unchanged.
func Colorize(line string) string {
	switch {
	case strings.HasPrefix(line, "!!!"):
		return errorStyle.Sprint(line)
	case strings.HasPrefix(line, "user "):
		return noticeStyle.Sprint(line)
	default:
		return line
	}
}
