package dispatch

import (
	"context"
	"os/exec"
	"strings"

	"github.com/notname9390/lol/pkg/langs"
)

// CompilerStatus describes one probed toolchain.
type CompilerStatus struct {
	Lang      langs.Language
	Available bool
	Version   string
}

// Probe checks every registered language's compiler by running its version
// command. Languages without a compile step always report as available.
func Probe(ctx context.Context) []CompilerStatus {
	result := make([]CompilerStatus, 0, len(langs.All()))

	for _, lang := range langs.All() {
		if !lang.Compiled() {
			result = append(result, CompilerStatus{Lang: lang, Available: true, Version: "built-in"})
			continue
		}

		exe, args := lang.ProbeCommand()
		out, err := exec.CommandContext(ctx, exe, args...).CombinedOutput()
		if err != nil {
			result = append(result, CompilerStatus{Lang: lang})
			continue
		}

		version := strings.TrimSpace(string(out))
		if idx := strings.IndexByte(version, '\n'); idx > -1 {
			version = version[:idx]
		}
		result = append(result, CompilerStatus{Lang: lang, Available: true, Version: version})
	}

	return result
}
