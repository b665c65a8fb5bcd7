package symbol

import "strings"

type BingXConverter struct{}

func (BingXConverter) ToExchange(canonical string) string {
	s := strings.ToUpper(strings.TrimSpace(canonical))
	if s == "" {
		return ""
	}
	if strings.Contains(s, "-") {
		return s
	}
	return Parse(s).Canonical()
}

func (BingXConverter) FromExchange(raw string) string {
	return Parse(raw).Canonical()
}

func (BingXConverter) Format() Format {
	return FormatBingX
}

var BingX = BingXConverter{}
