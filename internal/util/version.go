package util

import (
	_ "embed"

	"github.com/BurntSushi/toml"
)

//go:embed version.toml
var versionBlob []byte

// VersionInfo is the static build metadata the "version" intrinsic
// surfaces to a running script (spec.md §6), loaded once from an
// embedded TOML blob the way internal/util/config.go loads a
// deployment's mscript.toml.
type VersionInfo struct {
	Name      string `toml:"name"`
	BuildDate string `toml:"build_date"`
	Host      string `toml:"host"`
	HostInfo  string `toml:"host_info"`
}

var cachedVersionInfo *VersionInfo

// LoadVersionInfo decodes the embedded version blob, caching the result
// since it never changes within a process.
func LoadVersionInfo() (VersionInfo, error) {
	if cachedVersionInfo != nil {
		return *cachedVersionInfo, nil
	}
	var v VersionInfo
	if _, err := toml.Decode(string(versionBlob), &v); err != nil {
		return VersionInfo{}, err
	}
	cachedVersionInfo = &v
	return v, nil
}
