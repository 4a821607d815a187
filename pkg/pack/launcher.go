package pack

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/ulikunitz/xz"

	"github.com/notname9390/lol/pkg/langs"
)

const payloadMarker = "__PAYLOAD_BELOW__"

// launcherStub is the extraction script written ahead of the payload. The
// payload is a tar.xz stream so the stub only needs tar and xz.
const launcherStub = `#!/bin/sh
# %s - self-contained source bundle, generated by lol
set -e
PAYLOAD_LINE=$(awk '/^%s$/ {print NR + 1; exit 0}' "$0")
DIR=$(mktemp -d)
trap 'rm -rf "$DIR"' EXIT
tail -n +"$PAYLOAD_LINE" "$0" | xz -d | tar -x -C "$DIR"
cd "$DIR/%s"
exec sh ./run.sh "$@"
%s
`

func buildLauncher(out, name, root string, files []string, groups map[langs.Language][]string) error {
	hdl, err := os.Create(out)
	if err != nil {
		return eris.Wrapf(err, "Failed to create %s", out)
	}

	_, err = fmt.Fprintf(hdl, launcherStub, name, payloadMarker, name, payloadMarker)
	if err != nil {
		hdl.Close()
		return eris.Wrapf(err, "Failed to write launcher stub to %s", out)
	}

	err = writePayload(hdl, name, root, files, groups)
	if err != nil {
		hdl.Close()
		os.Remove(out)
		return err
	}

	err = hdl.Close()
	if err != nil {
		return eris.Wrapf(err, "Failed to finish %s", out)
	}

	return os.Chmod(out, 0o755)
}

func writePayload(w io.Writer, name, root string, files []string, groups map[langs.Language][]string) error {
	xzw, err := xz.NewWriter(w)
	if err != nil {
		return eris.Wrap(err, "Failed to initialize payload compressor")
	}

	tw := tar.NewWriter(xzw)
	now := time.Now()

	runScript := runScript(name, groups)
	err = writeTarEntry(tw, name+"/run.sh", []byte(runScript), 0o755, now)
	if err != nil {
		return err
	}

	for _, rel := range files {
		source := filepath.Join(root, filepath.FromSlash(rel))
		data, err := os.ReadFile(source)
		if err != nil {
			return eris.Wrapf(err, "Failed to read %s", source)
		}

		err = writeTarEntry(tw, name+"/"+rel, data, 0o644, now)
		if err != nil {
			return err
		}
	}

	err = tw.Close()
	if err != nil {
		return eris.Wrap(err, "Failed to finish payload archive")
	}
	return xzw.Close()
}

func writeTarEntry(tw *tar.Writer, name string, data []byte, mode int64, modTime time.Time) error {
	err := tw.WriteHeader(&tar.Header{
		Name:    name,
		Mode:    mode,
		Size:    int64(len(data)),
		ModTime: modTime,
	})
	if err != nil {
		return eris.Wrapf(err, "Failed to write archive header for %s", name)
	}

	_, err = tw.Write(data)
	if err != nil {
		return eris.Wrapf(err, "Failed to write archive entry %s", name)
	}
	return nil
}

// runScript generates the launcher entry point inside the payload. It prints
// the bundle inventory; a packaged project carries no build products, so
// there is nothing else to execute.
func runScript(name string, groups map[langs.Language][]string) string {
	var buf strings.Builder
	buf.WriteString("#!/bin/sh\n")
	fmt.Fprintf(&buf, "echo '%s - bundled sources'\n", name)
	for _, line := range strings.Split(strings.TrimRight(Manifest(groups), "\n"), "\n") {
		if line != "" {
			fmt.Fprintf(&buf, "echo '  %s'\n", line)
		}
	}
	buf.WriteString("echo 'Sources extracted to:'\n")
	buf.WriteString("pwd\n")
	return buf.String()
}
