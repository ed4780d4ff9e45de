package device

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
)

// Fake is an in-memory emulator. It answers the commands issued by this package's
// helpers and exposes methods to simulate what a user or agent does on the device.
type Fake struct {
	mu         sync.Mutex
	files      map[string]string
	dirs       map[string]bool
	settings   map[string]string
	foreground string
	failures   map[string]error
	commands   [][]string
}

var fakeDefaultDirs = []string{
	"/sdcard/DCIM/Camera",
	"/sdcard/Documents",
	"/sdcard/Download",
	"/sdcard/Recordings",
}

func NewFake() *Fake {
	f := &Fake{
		files:      make(map[string]string),
		dirs:       map[string]bool{"/": true},
		settings:   map[string]string{"wifi_on": "1", "bluetooth_on": "0"},
		foreground: LauncherPackage,
		failures:   make(map[string]error),
	}
	for _, dir := range fakeDefaultDirs {
		f.mkdirAll(dir)
	}
	return f
}

// AddFile creates path (and its parents) with content.
func (f *Fake) AddFile(p, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p = path.Clean(p)
	f.mkdirAll(path.Dir(p))
	f.files[p] = content
}

func (f *Fake) File(p string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	content, ok := f.files[path.Clean(p)]
	return content, ok
}

func (f *Fake) SetForeground(pkg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.foreground = pkg
}

func (f *Fake) SetSetting(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings[key] = value
}

func (f *Fake) Setting(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings[key]
}

// FailOn makes every later command whose first argument is name fail with err.
func (f *Fake) FailOn(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[name] = err
}

// Commands returns every argv received so far.
func (f *Fake) Commands() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, len(f.commands))
	copy(out, f.commands)
	return out
}

func (f *Fake) Shell(ctx context.Context, args ...string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &DeviceCommunicationError{Args: args, Err: err}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, append([]string{}, args...))

	if len(args) == 0 {
		return nil, &DeviceCommunicationError{Err: fmt.Errorf("empty command")}
	}
	if err, ok := f.failures[args[0]]; ok {
		return nil, &DeviceCommunicationError{Args: args, Err: err}
	}

	out, err := f.dispatch(args)
	if err != nil {
		return nil, &DeviceCommunicationError{Args: args, Output: err.Error(), Err: ErrCommandFailed}
	}
	return []byte(out), nil
}

func (f *Fake) dispatch(args []string) (string, error) {
	switch {
	case len(args) == 3 && args[0] == "ls" && args[1] == "-1":
		return f.ls(path.Clean(args[2]))
	case len(args) == 2 && args[0] == "cat":
		content, ok := f.files[path.Clean(args[1])]
		if !ok {
			return "", fmt.Errorf("cat: %s: No such file or directory", args[1])
		}
		return content, nil
	case len(args) == 6 && args[0] == "sh" && args[1] == "-c" && args[2] == writeFileScript:
		p := path.Clean(args[5])
		if !f.dirs[path.Dir(p)] {
			return "", fmt.Errorf("sh: can't create %s: No such file or directory", args[5])
		}
		f.files[p] = args[4]
		return "", nil
	case len(args) == 3 && args[0] == "rm" && args[1] == "-rf":
		f.removeAll(path.Clean(args[2]))
		return "", nil
	case len(args) == 3 && args[0] == "mkdir" && args[1] == "-p":
		f.mkdirAll(path.Clean(args[2]))
		return "", nil
	case len(args) == 5 && args[0] == "find" && args[2] == "-mindepth" && args[3] == "1" && args[4] == "-delete":
		dir := path.Clean(args[1])
		if !f.dirs[dir] {
			return "", fmt.Errorf("find: %s: No such file or directory", args[1])
		}
		f.removeAll(dir)
		f.dirs[dir] = true
		return "", nil
	case len(args) == 3 && args[0] == "dumpsys" && args[1] == "activity" && args[2] == "activities":
		if f.foreground == "" {
			return "ACTIVITY MANAGER ACTIVITIES (dumpsys activity activities)\n", nil
		}
		return fmt.Sprintf("ACTIVITY MANAGER ACTIVITIES (dumpsys activity activities)\n  topResumedActivity=ActivityRecord{4f1c2d u0 %s/.Main t12}\n", f.foreground), nil
	case len(args) == 4 && args[0] == "settings" && args[1] == "get" && args[2] == "global":
		if v, ok := f.settings[args[3]]; ok {
			return v + "\n", nil
		}
		return "null\n", nil
	case len(args) == 5 && args[0] == "settings" && args[1] == "put" && args[2] == "global":
		f.settings[args[3]] = args[4]
		return "", nil
	case len(args) == 3 && args[0] == "svc" && (args[1] == "wifi" || args[1] == "bluetooth"):
		value := "0"
		switch args[2] {
		case "enable":
			value = "1"
		case "disable":
		default:
			return "", fmt.Errorf("svc %s: unknown state %s", args[1], args[2])
		}
		f.settings[args[1]+"_on"] = value
		return "", nil
	case len(args) == 3 && args[0] == "input" && args[1] == "keyevent" && args[2] == "KEYCODE_HOME":
		f.foreground = LauncherPackage
		return "", nil
	case len(args) == 3 && args[0] == "am" && args[1] == "start" || len(args) == 4 && args[0] == "am" && args[1] == "start" && args[2] == "-n":
		component := args[len(args)-1]
		pkg, _, ok := strings.Cut(component, "/")
		if !ok {
			return "", fmt.Errorf("am start: bad component %s", component)
		}
		f.foreground = pkg
		return "Starting: Intent { cmp=" + component + " }\n", nil
	case len(args) >= 3 && args[0] == "monkey" && args[1] == "-p":
		f.foreground = args[2]
		return "Events injected: 1\n", nil
	}
	return "", fmt.Errorf("/system/bin/sh: %s: inaccessible or not found", args[0])
}

func (f *Fake) ls(dir string) (string, error) {
	if !f.dirs[dir] {
		if _, ok := f.files[dir]; ok {
			return path.Base(dir) + "\n", nil
		}
		return "", fmt.Errorf("ls: %s: No such file or directory", dir)
	}
	seen := make(map[string]bool)
	for p := range f.files {
		if path.Dir(p) == dir {
			seen[path.Base(p)] = true
		}
	}
	for d := range f.dirs {
		if d != dir && path.Dir(d) == dir {
			seen[path.Base(d)] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return "", nil
	}
	return strings.Join(names, "\n") + "\n", nil
}

func (f *Fake) mkdirAll(dir string) {
	for d := dir; ; d = path.Dir(d) {
		f.dirs[d] = true
		if d == "/" || d == "." {
			return
		}
	}
}

func (f *Fake) removeAll(p string) {
	prefix := strings.TrimSuffix(p, "/") + "/"
	delete(f.files, p)
	delete(f.dirs, p)
	for name := range f.files {
		if strings.HasPrefix(name, prefix) {
			delete(f.files, name)
		}
	}
	for d := range f.dirs {
		if strings.HasPrefix(d, prefix) {
			delete(f.dirs, d)
		}
	}
}
