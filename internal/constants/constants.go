// Package constants holds values shared by every binary in the module.
package constants

import "runtime"

// Version is printed by -version and reported by the REST status endpoint.
const Version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH
