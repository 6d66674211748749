package pkg

import "fmt"

var (
	// These variables are here only to show current version. They are set in makefile during build process
	SqzrVersion         = "devel"
	GitRevision         = "devel"
	SqzrVersionRevision = fmt.Sprintf("%s-%s", SqzrVersion, GitRevision)
)
