package gui

import "fyne.io/fyne/v2"

// SVG content for the tray icon: a speech bubble with two glyph strokes.
const iconSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 16 16" width="16" height="16">
  <path d="M2 3.5h12v7H8.5L5 13.5v-3H2z" fill="none" stroke="#333333" stroke-width="1.2" stroke-linejoin="round"/>
  <path d="M4.5 6h3M6 5v1M5 8.5c1-.5 1.8-1.4 2.2-2.5" fill="none" stroke="#0078d4" stroke-width="0.9" stroke-linecap="round"/>
  <path d="M9 9l1.5-4 1.5 4M9.5 7.8h2" fill="none" stroke="#0078d4" stroke-width="0.9" stroke-linecap="round"/>
</svg>`

var iconResource = fyne.NewStaticResource("select-translate.svg", []byte(iconSVG))
