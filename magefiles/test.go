//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Runs every package test with the race detector.
func (Test) All() error {
	if _, err := executeCmd("go", withArgs("test", "-race", "./..."), withEnv("CGO_ENABLED=1"), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs the tests of the frame composition systems only.
func (Test) Systems() error {
	if _, err := executeCmd("go", withArgs("test", "-v", "./engine/systems/..."), withDir("."), withStream()); err != nil {
		return err
	}
	return nil
}
