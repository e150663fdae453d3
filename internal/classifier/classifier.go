// Package classifier assigns display defaults to category names using
// keyword matching.
package classifier

import (
	"strings"
)

const (
	DefaultIcon  = "📁"
	DefaultColor = "blue"
)

type keyword struct {
	key   string
	value string
}

// Order matters: the first keyword contained in the name wins.
var icons = []keyword{
	{"development", "💻"},
	{"dev", "💻"},
	{"code", "💻"},
	{"design", "🎨"},
	{"marketing", "📢"},
	{"research", "🔍"},
	{"testing", "🧪"},
	{"deployment", "🚀"},
	{"planning", "📋"},
	{"documentation", "📝"},
	{"learning", "📚"},
	{"infrastructure", "🏗️"},
	{"security", "🔒"},
	{"performance", "⚡"},
}

var colors = []keyword{
	{"development", "blue"},
	{"dev", "blue"},
	{"code", "blue"},
	{"design", "purple"},
	{"marketing", "orange"},
	{"research", "green"},
	{"testing", "yellow"},
	{"deployment", "red"},
	{"planning", "blue"},
	{"documentation", "gray"},
	{"learning", "pink"},
}

// Style is the icon and color shown for a category.
type Style struct {
	Icon  string
	Color string
}

// StyleFor looks up defaults for a category by case-insensitive substring
// match on its name.
func StyleFor(name string) Style {
	name = strings.ToLower(name)
	return Style{
		Icon:  lookup(icons, name, DefaultIcon),
		Color: lookup(colors, name, DefaultColor),
	}
}

func lookup(table []keyword, name, fallback string) string {
	for _, kw := range table {
		if strings.Contains(name, kw.key) {
			return kw.value
		}
	}
	return fallback
}
