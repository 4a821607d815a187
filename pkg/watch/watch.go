// Package watch reruns the build pipeline when source files change.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rotisserie/eris"

	"github.com/notname9390/lol/pkg/langs"
	"github.com/notname9390/lol/pkg/term"
)

// lullTime is how long the tree has to stay quiet before a rebuild fires.
const lullTime = 500 * time.Millisecond

// Run watches root recursively and calls rebuild after each burst of
// changes to recognized source files. It returns when ctx is canceled.
// Every rebuild runs the full pipeline from scratch; no state is carried
// between runs.
func Run(ctx context.Context, root string, rebuild func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return eris.Wrap(err, "Failed to initialize file watcher")
	}
	defer watcher.Close()

	err = addRecursive(watcher, root)
	if err != nil {
		return err
	}

	timer := time.NewTimer(lullTime)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			term.Log(ctx).Warn().Err(err).Msg("watch error")
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					// new directories need their own watch; errors here are
					// no worse than an unreadable entry during a scan
					_ = addRecursive(watcher, event.Name)
				}
			}

			if !relevant(event) {
				continue
			}

			term.Log(ctx).Debug().Str("file", event.Name).Msg("change detected")
			if pending {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
			}
			timer.Reset(lullTime)
			pending = true
		case <-timer.C:
			if pending {
				pending = false
				rebuild()
			}
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return false
	}

	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return false
	}

	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return false
	}

	_, ok := langs.FromExtension(ext)
	return ok
}

func addRecursive(watcher *fsnotify.Watcher, root string) error {
	err := watcher.Add(root)
	if err != nil {
		return eris.Wrapf(err, "Failed to watch %s", root)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		// match the scanner: unreadable entries are skipped, not fatal
		return nil
	}

	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		err = addRecursive(watcher, filepath.Join(root, entry.Name()))
		if err != nil {
			return err
		}
	}
	return nil
}
