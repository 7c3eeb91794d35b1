//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binary = "pronounce"

var Default = Build

// Build compiles the pronounce binary into the working directory
func Build() error {
	return sh.RunV("go", "build", "-o", binary, "./cmd/pronounce")
}

// Test runs all unit tests
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Integration runs the tests that talk to the real pronunciation sources
func Integration() error {
	return sh.RunWithV(map[string]string{"PRONOUNCE_INTEGRATION": "1"}, "go", "test", "-count=1", "./internal/fetch/...")
}

// Vet runs go vet
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Install builds and copies the binary to ~/go/bin
func Install() error {
	mg.Deps(Build)

	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	dest := filepath.Join(home, "go", "bin", binary)
	fmt.Println("Installing to", dest)
	return sh.Copy(dest, binary)
}

// Clean removes the built binary
func Clean() error {
	return sh.Rm(binary)
}
