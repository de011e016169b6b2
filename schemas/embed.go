// Package schemas holds the JSON Schema documents for data exchanged as files.
package schemas

import "embed"

// FS contains every *.schema.json file in this directory.
//
//go:embed *.schema.json
var FS embed.FS

// Snapshot is the file name of the account snapshot schema.
const Snapshot = "snapshot.schema.json"
