package device

import (
	"context"
	"regexp"
	"strings"
)

// writeFileScript receives the content as $1 and the destination as $2 so neither
// needs escaping beyond argv quoting.
const writeFileScript = `printf '%s' "$1" > "$2"`

const LauncherPackage = "com.google.android.apps.nexuslauncher"

var resumedActivityRe = regexp.MustCompile(`(?:topResumedActivity|mResumedActivity)[=:]\s*ActivityRecord\{\S+ \S+ ([^/\s]+)/`)

// ListDir returns the entry names of dir, one `ls -1` call.
func ListDir(ctx context.Context, d Device, dir string) ([]string, error) {
	out, err := d.Shell(ctx, "ls", "-1", dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, line := range strings.Split(string(out), "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

func ReadFile(ctx context.Context, d Device, path string) (string, error) {
	out, err := d.Shell(ctx, "cat", path)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func WriteFile(ctx context.Context, d Device, path, content string) error {
	_, err := d.Shell(ctx, "sh", "-c", writeFileScript, "sh", content, path)
	return err
}

func RemoveAll(ctx context.Context, d Device, path string) error {
	_, err := d.Shell(ctx, "rm", "-rf", path)
	return err
}

func MakeDir(ctx context.Context, d Device, dir string) error {
	_, err := d.Shell(ctx, "mkdir", "-p", dir)
	return err
}

// ClearDir empties dir, creating it first when missing.
func ClearDir(ctx context.Context, d Device, dir string) error {
	if err := MakeDir(ctx, d, dir); err != nil {
		return err
	}
	_, err := d.Shell(ctx, "find", dir, "-mindepth", "1", "-delete")
	return err
}

// ForegroundPackage returns the package of the resumed activity, or "" when none is reported.
func ForegroundPackage(ctx context.Context, d Device) (string, error) {
	out, err := d.Shell(ctx, "dumpsys", "activity", "activities")
	if err != nil {
		return "", err
	}
	if m := resumedActivityRe.FindSubmatch(out); m != nil {
		return string(m[1]), nil
	}
	return "", nil
}

func PressHome(ctx context.Context, d Device) error {
	_, err := d.Shell(ctx, "input", "keyevent", "KEYCODE_HOME")
	return err
}

// GetGlobalSetting reads from the global settings namespace. Unset keys come back as "null".
func GetGlobalSetting(ctx context.Context, d Device, key string) (string, error) {
	out, err := d.Shell(ctx, "settings", "get", "global", key)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func PutGlobalSetting(ctx context.Context, d Device, key, value string) error {
	_, err := d.Shell(ctx, "settings", "put", "global", key, value)
	return err
}

// SetService toggles a radio through `svc`, e.g. SetService(ctx, d, "wifi", true).
func SetService(ctx context.Context, d Device, service string, enabled bool) error {
	state := "disable"
	if enabled {
		state = "enable"
	}
	_, err := d.Shell(ctx, "svc", service, state)
	return err
}
