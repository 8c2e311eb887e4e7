package parser

import (
	"strconv"
	"strings"
)

// rawLine is the tokenizer's view of one script line, before command
// resolution and asset scanning.
type rawLine struct {
	commandToken string
	hasCommand   bool
	content      string
	comment      string
	flags        []Flag
	empty        bool
}

// Flag is one -key or -key=value argument from a line's flag tail.
type Flag struct {
	Key   string
	Value interface{}
}

const (
	escapedSemicolon = `\;`
	escapedColon     = `\:`
)

// tokenize splits one raw line into command token, content, trailing comment
// and flag arguments. It never fails: malformed fragments degrade to content.
func tokenize(line string) rawLine {
	body, comment := splitComment(line)

	if strings.TrimSpace(body) == "" {
		return rawLine{empty: true, comment: comment}
	}

	commandToken, remainder, hasCommand := splitCommand(body)
	content, flagTail := splitFlags(remainder)

	return rawLine{
		commandToken: commandToken,
		hasCommand:   hasCommand,
		content:      strings.TrimSpace(content),
		comment:      comment,
		flags:        parseFlags(flagTail),
	}
}

// splitComment cuts at the first un-escaped ';'. Escaped semicolons are
// restored as literals in the returned body.
func splitComment(line string) (body, comment string) {
	masked := strings.ReplaceAll(line, escapedSemicolon, "\x00")
	if idx := strings.Index(masked, ";"); idx >= 0 {
		body = masked[:idx]
		comment = strings.ReplaceAll(masked[idx+1:], "\x00", ";")
	} else {
		body = masked
	}
	return strings.ReplaceAll(body, "\x00", ";"), comment
}

// splitCommand cuts at the first un-escaped ':'. A line without one is
// continuous dialogue, not an error.
func splitCommand(body string) (token, remainder string, ok bool) {
	masked := strings.ReplaceAll(body, escapedColon, "\x00")
	idx := strings.Index(masked, ":")
	if idx < 0 {
		return "", strings.ReplaceAll(masked, "\x00", ":"), false
	}
	token = strings.TrimSpace(strings.ReplaceAll(masked[:idx], "\x00", ":"))
	remainder = strings.ReplaceAll(masked[idx+1:], "\x00", ":")
	return token, remainder, true
}

// splitFlags cuts content from the flag tail at the first " -".
func splitFlags(remainder string) (content, flagTail string) {
	if idx := strings.Index(remainder, " -"); idx >= 0 {
		return remainder[:idx], remainder[idx:]
	}
	return remainder, ""
}

// parseFlags splits the tail on " -" boundaries. "-key=value" carries a typed
// value, bare "-key" is boolean true. Fragments without a leading dash are
// kept as valueless keys rather than rejected.
func parseFlags(tail string) []Flag {
	if strings.TrimSpace(tail) == "" {
		return nil
	}

	var flags []Flag
	for _, part := range strings.Split(tail, " -") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		part = strings.TrimPrefix(part, "-")

		if eq := strings.Index(part, "="); eq >= 0 {
			flags = append(flags, Flag{
				Key:   part[:eq],
				Value: typedValue(part[eq+1:]),
			})
			continue
		}
		flags = append(flags, Flag{Key: part, Value: true})
	}
	return flags
}

// typedValue narrows a flag value to bool or float64 where it parses as one.
func typedValue(raw string) interface{} {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	return raw
}
