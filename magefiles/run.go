//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Builds and runs the demo with the default settings.
func (Run) Engine() error {
	mg.Deps(Build.Engine)
	fmt.Println("Run engine...")
	if _, err := executeCmd("bin/terra", withStream()); err != nil {
		return err
	}
	return nil
}

// Runs the demo without a window for a fixed number of frames.
func (Run) Headless() error {
	mg.Deps(Build.Engine)
	if _, err := executeCmd("bin/terra", withArgs("--backend", "headless", "--frames", "300", "--split", "both"), withStream()); err != nil {
		return err
	}
	return nil
}
