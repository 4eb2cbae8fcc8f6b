// led_console.go - the LED peripheral's console backend.
package main

import "fmt"

// ConsoleLEDs renders the 8 LED bits written to regLEDs as a row of
// lit/unlit glyphs printed to stdout whenever the value changes,
// matching the reference emulator's own text-terminal LED display
// (original_source/src/sdl-main.c has no host LED strip, so a console
// readout is the most faithful host-side stand-in available here).
type ConsoleLEDs struct {
	last  uint32
	first bool
}

// NewConsoleLEDs returns an LED backend that prints to stdout.
func NewConsoleLEDs() *ConsoleLEDs {
	return &ConsoleLEDs{first: true}
}

// Write renders the low 8 bits of value as lit ('#') or unlit ('.')
// glyphs, skipping the print entirely when nothing changed.
func (l *ConsoleLEDs) Write(value uint32) {
	value &= 0xFF
	if !l.first && value == l.last {
		return
	}
	l.first = false
	l.last = value
	var glyphs [8]byte
	for i := 0; i < 8; i++ {
		if value&(1<<uint(7-i)) != 0 {
			glyphs[i] = '#'
		} else {
			glyphs[i] = '.'
		}
	}
	fmt.Printf("LEDS [%s]\n", glyphs[:])
}
