//go:build windows

package cmd

import "os"

// gracefulSignals returns the signals that end "watch" cleanly.
func gracefulSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}
