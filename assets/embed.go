package assets

import _ "embed"

// CatalogTOML is the default detection catalog shipped with the binary.
//
//go:embed catalog.toml
var CatalogTOML []byte

// ProfileINI is a sample account profile written by "profiles init".
//
//go:embed profile.ini
var ProfileINI []byte
