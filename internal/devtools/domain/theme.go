package domain

import (
	"errors"
	"strings"
)

// ColorTheme is the panel's color scheme.
type ColorTheme string

const (
	ColorThemeLight ColorTheme = "light"
	ColorThemeDark  ColorTheme = "dark"
)

// DefaultColorTheme is used until the panel picks one.
const DefaultColorTheme = ColorThemeLight

var ErrInvalidColorTheme = errors.New("color theme must be light or dark")

// IsValid checks if the theme is a known value
func (t ColorTheme) IsValid() bool {
	return t == ColorThemeLight || t == ColorThemeDark
}

// ParseColorTheme accepts "light" or "dark" in any case.
func ParseColorTheme(raw string) (ColorTheme, error) {
	theme := ColorTheme(strings.ToLower(strings.TrimSpace(raw)))
	if !theme.IsValid() {
		return "", ErrInvalidColorTheme
	}
	return theme, nil
}
