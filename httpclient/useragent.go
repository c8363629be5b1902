package httpclient

import (
	"fmt"
	"net/url"
	"path"
	"runtime/debug"
)

// userAgentProduct prefixes every User-Agent value
const userAgentProduct = "sheets-go-sdk"

// buildUserAgent returns "sheets-go-sdk(<name>)/<version>" URL-escaped. Missing parts
// come from the main module of the running binary.
func buildUserAgent(name, version string) string {
	if name == "" || version == "" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if name == "" && info.Main.Path != "" {
				name = path.Base(info.Main.Path)
			}
			if version == "" {
				version = info.Main.Version
			}
		}
	}
	return url.PathEscape(fmt.Sprintf("%s(%s)/%s", userAgentProduct, name, version))
}
