package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const ErrorMarker = "[Error]"

var (
	trailingYearPattern = regexp.MustCompile(`\s*\((\d{4})\)\s*$`)
	idPattern           = regexp.MustCompile(`\[(?:movie:)?(\d+)\]`)
	spacePattern        = regexp.MustCompile(`\s+`)
)

type Marker int

const (
	MarkerNone Marker = iota
	MarkerSeries
	MarkerMovie
	MarkerError
)

// CanonicalKey identifies the same logical entry regardless of its marker.
type CanonicalKey struct {
	Title string
	Year  int
}

func (k CanonicalKey) String() string {
	if k.Year > 0 {
		return fmt.Sprintf("%s (%d)", k.Title, k.Year)
	}
	return k.Title
}

// StoreLine is one parsed store record.
type StoreLine struct {
	Raw    string
	Title  string
	Base   string
	Year   int
	Marker Marker
	ID     int
}

func ParseStoreLine(raw string) StoreLine {
	raw = strings.TrimRight(raw, "\r\n")
	title := TitlePart(raw)
	l := StoreLine{
		Raw:   raw,
		Title: title,
		Base:  BaseTitle(title),
		Year:  TitleYear(title),
	}

	if m := idPattern.FindStringSubmatch(raw); m != nil {
		l.ID, _ = strconv.Atoi(m[1])
		l.Marker = MarkerSeries
		if strings.HasPrefix(m[0], "[movie:") {
			l.Marker = MarkerMovie
		}
	} else if strings.Contains(raw, ErrorMarker) {
		l.Marker = MarkerError
	}

	return l
}

func (l StoreLine) Blank() bool {
	return strings.TrimSpace(l.Raw) == ""
}

func (l StoreLine) HasID() bool {
	return l.Marker == MarkerSeries || l.Marker == MarkerMovie
}

func (l StoreLine) IsError() bool {
	return l.Marker == MarkerError
}

func (l StoreLine) Key() CanonicalKey {
	return CanonicalKey{Title: l.Base, Year: l.Year}
}

// Match returns the resolved entry carried by the line, if any.
func (l StoreLine) Match() (MatchResult, bool) {
	if !l.HasID() {
		return ErrorSentinel, false
	}
	kind := MediaTV
	if l.Marker == MarkerMovie {
		kind = MediaMovie
	}
	return MatchResult{Matched: true, ID: l.ID, Kind: kind, Year: l.Year}, true
}

// TitlePart returns everything before the first "->" and "[" separators.
func TitlePart(line string) string {
	line, _, _ = strings.Cut(line, "->")
	line, _, _ = strings.Cut(line, "[")
	return strings.TrimSpace(line)
}

// BaseTitle strips a trailing "(YYYY)".
func BaseTitle(title string) string {
	return strings.TrimSpace(trailingYearPattern.ReplaceAllString(title, ""))
}

// TitleYear returns the trailing "(YYYY)" of title or 0.
func TitleYear(title string) int {
	m := trailingYearPattern.FindStringSubmatch(title)
	if m == nil {
		return 0
	}
	y, _ := strconv.Atoi(m[1])
	return y
}

// NormalizeTitle collapses whitespace and replaces the reserved store
// separators so the title survives a round trip through a store line.
func NormalizeTitle(s string) string {
	s = strings.ReplaceAll(s, "->", "-")
	s = strings.NewReplacer("[", "(", "]", ")").Replace(s)
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}

// FormatStoreLine renders title with its resolution state, without a line
// terminator. A year is only appended when title does not already end in one.
func FormatStoreLine(title string, m MatchResult, resolve, includeYear bool) string {
	if !resolve {
		return title
	}
	if !m.Matched {
		return title + " " + ErrorMarker
	}

	name := title
	if includeYear && m.Year > 0 && TitleYear(title) == 0 {
		name = fmt.Sprintf("%s (%d)", title, m.Year)
	}

	if m.Kind == MediaMovie {
		return fmt.Sprintf("%s [movie:%d]", name, m.ID)
	}
	return fmt.Sprintf("%s [%d]", name, m.ID)
}
