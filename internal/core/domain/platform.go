package domain

import (
	"runtime"

	"go.trai.ch/zerr"
)

// Platform identifies the operating system family the pipeline runs on.
type Platform string

const (
	// PlatformLinux is any Linux distribution.
	PlatformLinux Platform = "linux"
	// PlatformMacOS is Apple's macOS.
	PlatformMacOS Platform = "macos"
	// PlatformOther is every platform without dedicated handling.
	PlatformOther Platform = "other"
)

// ParsePlatform returns the platform named s.
func ParsePlatform(s string) (Platform, error) {
	switch p := Platform(s); p {
	case PlatformLinux, PlatformMacOS, PlatformOther:
		return p, nil
	default:
		return "", zerr.With(ErrUnknownPlatform, "platform", s)
	}
}

// PlatformFromGOOS maps a Go GOOS value onto a Platform.
func PlatformFromGOOS(goos string) Platform {
	switch goos {
	case "linux":
		return PlatformLinux
	case "darwin":
		return PlatformMacOS
	default:
		return PlatformOther
	}
}

// Scope restricts a dependency or patch to a platform family.
type Scope string

const (
	// ScopeAll applies on every platform.
	ScopeAll Scope = "all"
	// ScopeLinux applies on Linux only.
	ScopeLinux Scope = "linux-only"
	// ScopeMacOS applies on macOS only.
	ScopeMacOS Scope = "macos-only"
)

// Includes reports whether the scope covers platform p.
func (s Scope) Includes(p Platform) bool {
	switch s {
	case ScopeAll:
		return true
	case ScopeLinux:
		return p == PlatformLinux
	case ScopeMacOS:
		return p == PlatformMacOS
	default:
		return false
	}
}

// PathRewriteTool is the dependency providing the ELF path rewrite tool.
const PathRewriteTool = "patchelf"

// Default package manager opt roots, one directory per installed dependency.
const (
	MacOSOptRoot = "/opt/homebrew/opt"
	LinuxOptRoot = "/home/linuxbrew/.linuxbrew/opt"
	OtherOptRoot = "/usr/local/opt"
)

// Strategy carries every platform-dependent decision of a pipeline run.
// It is selected once; nothing else inspects the host OS.
type Strategy struct {
	platform Platform
}

// NewStrategy returns the Strategy for platform p.
func NewStrategy(p Platform) Strategy {
	return Strategy{platform: p}
}

// HostStrategy returns the Strategy for the running host.
func HostStrategy() Strategy {
	return NewStrategy(PlatformFromGOOS(runtime.GOOS))
}

// Platform returns the platform the strategy was built for.
func (s Strategy) Platform() Platform {
	return s.platform
}

// Matches reports whether something scoped to scope applies on this platform.
func (s Strategy) Matches(scope Scope) bool {
	return scope.Includes(s.platform)
}

// PathRewriteTool returns the dependency whose binary must be exported as
// PATCHELF, or false where binaries need no rewriting.
func (s Strategy) PathRewriteTool() (string, bool) {
	if s.platform == PlatformLinux {
		return PathRewriteTool, true
	}
	return "", false
}

// OptRoot returns where dependency install locations live on this platform
// unless configuration says otherwise.
func (s Strategy) OptRoot() string {
	switch s.platform {
	case PlatformMacOS:
		return MacOSOptRoot
	case PlatformLinux:
		return LinuxOptRoot
	default:
		return OtherOptRoot
	}
}
