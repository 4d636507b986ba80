//go:build !tinygo && (linux || darwin) && (amd64 || arm64)

// Package dl finds, opens and binds host shared libraries through purego.
package dl

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/ebitengine/purego"

	"mcukit/errcode"
)

// ErrNotFound is returned when no candidate path could be opened.
var ErrNotFound = errors.New("dl: library not found")

// Symbol pairs a C entry point with a pointer to the Go func it fills.
type Symbol struct {
	Name string
	Fptr any
}

// Open tries the file named by the envVar environment variable, then the
// platform library path, then the bare file name. It returns the library
// and the path that worked.
func Open(name, envVar string) (uintptr, string, error) {
	candidates := make([]string, 0, 8)
	if envVar != "" {
		if p := os.Getenv(envVar); p != "" {
			candidates = append(candidates, p)
		}
	}
	file := FileName(name)
	for _, dir := range SearchPaths() {
		candidates = append(candidates, filepath.Join(dir, file))
	}
	candidates = append(candidates, file)

	var last error
	for _, c := range candidates {
		lib, err := purego.Dlopen(c, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil {
			return lib, c, nil
		}
		last = err
	}
	return 0, "", fmt.Errorf("%w: %s (%v)", ErrNotFound, name, last)
}

// Bind resolves syms one at a time so a missing one is reported by name
// instead of panicking inside purego.
func Bind(lib uintptr, op string, syms []Symbol) error {
	for _, s := range syms {
		if _, e := purego.Dlsym(lib, s.Name); e != nil {
			return &errcode.E{C: errcode.NotSupported, Op: op, Msg: s.Name, Err: e}
		}
		purego.RegisterLibFunc(s.Fptr, lib, s.Name)
	}
	return nil
}

// Close unloads lib. A zero lib is a no-op.
func Close(lib uintptr) error {
	if lib == 0 {
		return nil
	}
	return purego.Dlclose(lib)
}

// FileName turns a base name into the platform's shared library file name.
func FileName(name string) string {
	if runtime.GOOS == "darwin" {
		return "lib" + name + ".dylib"
	}
	return "lib" + name + ".so"
}

// SearchPaths lists directories tried in order.
func SearchPaths() []string {
	var paths []string
	env := "LD_LIBRARY_PATH"
	if runtime.GOOS == "darwin" {
		env = "DYLD_LIBRARY_PATH"
	}
	if v := os.Getenv(env); v != "" {
		paths = append(paths, filepath.SplitList(v)...)
	}
	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Dir(exe))
	}
	paths = append(paths, "/usr/local/lib", "/usr/lib")
	if runtime.GOOS == "darwin" {
		paths = append(paths, "/opt/homebrew/lib")
	}
	return paths
}
