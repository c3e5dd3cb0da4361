package assets

import _ "embed"

// starter.csv is a small hand-checked position catalog spanning piece
// counts 2..32. It seeds a fresh database so the server can serve games
// before any real puzzle file has been loaded.

//go:embed starter.csv
var starterCSV []byte

// StarterCSV returns the embedded starter position catalog.
func StarterCSV() []byte { return starterCSV }
