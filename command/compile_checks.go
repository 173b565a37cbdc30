package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[SetupMessage]       = (*SetupCommand)(nil)
	_ gocmd.Commander[EnsureFreshMessage] = (*EnsureFreshCommand)(nil)
	_ gocmd.Commander[ReconfigureMessage] = (*ReconfigureCommand)(nil)
)
