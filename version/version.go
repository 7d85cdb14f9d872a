// Package version holds build metadata stamped in at link time:
//
//	go build -ldflags "-X github.com/stashd/stashd/version.Ver=v1.2.3 -X github.com/stashd/stashd/version.Rev=abc123"
package version

var (
	Ver string
	Rev string
)
