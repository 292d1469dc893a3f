// Package theme holds the editor's colour palette.
package theme

import (
	"image/color"
)

// Theme is the palette used by the editor window.
type Theme struct {
	Name string

	Background color.RGBA
	Foreground color.RGBA

	ToolbarBackground color.RGBA
	StatusBackground  color.RGBA
	StatusText        color.RGBA
	ErrorText         color.RGBA

	ButtonBackground      color.RGBA
	ButtonBackgroundHover color.RGBA
	ButtonBackgroundPress color.RGBA
	ButtonActive          color.RGBA
	ButtonText            color.RGBA
	ButtonBorder          color.RGBA

	// Mode indicators next to the brush controls.
	KeepIndicator    color.RGBA
	DiscardIndicator color.RGBA

	// Shown behind transparent result pixels.
	CheckerLight color.RGBA
	CheckerDark  color.RGBA

	// Dims the canvas while a mask is being submitted.
	BusyShade color.RGBA
}

// Default returns the built-in light theme.
func Default() *Theme {
	return &Theme{
		Name:                  "Default",
		Background:            color.RGBA{230, 230, 230, 255},
		Foreground:            color.RGBA{20, 20, 20, 255},
		ToolbarBackground:     color.RGBA{214, 214, 214, 255},
		StatusBackground:      color.RGBA{240, 240, 240, 255},
		StatusText:            color.RGBA{40, 40, 40, 255},
		ErrorText:             color.RGBA{185, 28, 28, 255},
		ButtonBackground:      color.RGBA{200, 200, 200, 255},
		ButtonBackgroundHover: color.RGBA{180, 180, 180, 255},
		ButtonBackgroundPress: color.RGBA{150, 150, 150, 255},
		ButtonActive:          color.RGBA{147, 197, 253, 255},
		ButtonText:            color.RGBA{0, 0, 0, 255},
		ButtonBorder:          color.RGBA{60, 60, 60, 255},
		KeepIndicator:         color.RGBA{0x22, 0xC5, 0x5E, 255},
		DiscardIndicator:      color.RGBA{0xEF, 0x44, 0x44, 255},
		CheckerLight:          color.RGBA{220, 220, 220, 255},
		CheckerDark:           color.RGBA{192, 192, 192, 255},
		BusyShade:             color.RGBA{0, 0, 0, 96},
	}
}
