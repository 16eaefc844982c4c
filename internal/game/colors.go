package game

// colorHex maps the player color names the UI offers to the bare 6-hex-digit
// RGB strings the board's LED controller expects.
var colorHex = map[string]string{
	"red":    "FF0000",
	"blue":   "0000FF",
	"green":  "00FF00",
	"yellow": "FFFF00",
	"purple": "800080",
	"orange": "FFA500",
	"white":  "FFFFFF",
	"cyan":   "00FFFF",
}

// ColorHex resolves a color name to its LED hex value. Unknown names fall
// back to white so the board always gets a renderable color.
func ColorHex(name string) string {
	if hex, ok := colorHex[name]; ok {
		return hex
	}
	return "FFFFFF"
}
