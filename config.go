package abiderive

import (
	"os"
	"strings"
)

const PackageName = "abiderive"
const PackageVersion = "0.3.0"
const PackageCopyRight = PackageName + " " + PackageVersion + " Copyright (C) 2026 tos-network"

// TargetDirEnv names the environment variable holding the build output
// directory manifests are written under.
var TargetDirEnv = "ABIDERIVE_TARGET_DIR"
var DefaultTargetDir = "target"

// DefaultEndpoint is the endpoint name used by the CLI when none is given.
var DefaultEndpoint = "Endpoint"

// TargetDirFromEnv returns the target directory from the environment, or
// DefaultTargetDir when the variable is unset or blank.
func TargetDirFromEnv() string {
	if dir := strings.TrimSpace(os.Getenv(TargetDirEnv)); dir != "" {
		return dir
	}
	return DefaultTargetDir
}
