// features.go - build-time feature reporting (-version flag).

/*
(c) 2026 the psxcore contributors
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"runtime"
	"sort"
)

// Version identifies this build for -version output.
const Version = "0.1.0"

// compiledFeatures tracks build-time feature flags via init() registration
// (see gpu_backend_select_vulkan.go).
var compiledFeatures []string

func printFeatures() {
	fmt.Printf("psxcore %s\n", Version)
	fmt.Printf("  Go version: %s\n", runtime.Version())
	fmt.Printf("  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Println()
	fmt.Println("Compiled features:")

	sort.Strings(compiledFeatures)
	for _, f := range compiledFeatures {
		fmt.Printf("  %s\n", f)
	}
	if len(compiledFeatures) == 0 {
		fmt.Println("  (none)")
	}
}
