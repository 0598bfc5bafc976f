package gotest

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// ModulePath returns the module path declared in the go.mod of workingDir
func ModulePath(workingDir string) (string, error) {
	goModPath := filepath.Join(workingDir, "go.mod")
	goModContent, err := os.ReadFile(goModPath)
	if err != nil {
		return "", fmt.Errorf("failed to read go.mod: %w", err)
	}

	modFile, err := modfile.Parse(goModPath, goModContent, nil)
	if err != nil {
		return "", fmt.Errorf("failed to parse go.mod: %w", err)
	}

	if modFile.Module == nil || modFile.Module.Mod.Path == "" {
		return "", fmt.Errorf("could not find module name in go.mod")
	}
	return modFile.Module.Mod.Path, nil
}

// ReportTitle derives a report title from the module in workingDir.
// It returns an empty string when no module can be read.
func ReportTitle(workingDir string) string {
	modulePath, err := ModulePath(workingDir)
	if err != nil {
		return ""
	}
	return modulePath + " Test Report"
}
