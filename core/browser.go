package core

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// ExecBrowserOpener shells out to the platform opener. Failures are soft;
// the flow keeps going with the logged URL.
type ExecBrowserOpener struct{}

func (ExecBrowserOpener) Open(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return fmt.Errorf("core: url is required")
	}
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
