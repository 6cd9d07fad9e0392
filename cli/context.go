package cli

import "io"

type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

type IOStreams struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
}

type GlobalOptions struct {
	Home  string
	Plain bool
	Quiet bool
}

type AppContext struct {
	Build BuildInfo
	IO    IOStreams
	Opts  GlobalOptions
}
