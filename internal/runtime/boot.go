package runtime

import (
	"fmt"

	"golang.org/x/mod/semver"

	"glyph/internal/node"
	"glyph/internal/pool"
)

// ManifestVersion is the schema version of the boot-time native catalog
// this build understands (SPEC_FULL.md §11's semver-gated boot manifest).
// Bump it whenever Catalog()'s shape changes in a way an older manifest
// couldn't describe.
const ManifestVersion = "v1.0.0"

// MinManifestVersion is the oldest manifest schema this runtime still boots
// against.
const MinManifestVersion = "v1.0.0"

// Boot builds a Runtime and installs every boot-time native catalog (core,
// db, port) into a freshly built "lib" module context — the Go analogue of
// spec.md §4.12's boot sequence binding C dispatchers to symbols.
// manifestVersion names the schema version of the catalog being installed;
// Boot refuses to start if it falls outside [MinManifestVersion,
// ManifestVersion] by semver ordering, so a host embedding an older or
// newer native manifest against a mismatched runtime build fails loudly at
// startup instead of silently misreading the catalog shape.
func Boot(cfg Config, manifestVersion string) (*Runtime, error) {
	if !semver.IsValid(manifestVersion) {
		return nil, fmt.Errorf("runtime: invalid manifest version %q", manifestVersion)
	}
	if semver.Compare(manifestVersion, MinManifestVersion) < 0 || semver.Compare(manifestVersion, ManifestVersion) > 0 {
		return nil, fmt.Errorf("runtime: manifest version %s outside supported range [%s, %s]",
			manifestVersion, MinManifestVersion, ManifestVersion)
	}

	rt := New(cfg)
	pool.WarnTorture(cfg.MemoryTorture)

	lib := rt.Nodes.NewContext(rt.Syms, node.ArchModule, false)
	rt.Natives.InstallAll(lib)
	rt.DB.InstallAll(rt.Actions, lib)
	rt.Port.InstallAll(rt.Actions, lib)
	rt.Lib = lib

	return rt, nil
}

// LibWord reports whether name is bound in the booted lib context, for
// hosts that want to check a binding before handing control to the
// evaluator (e.g. a REPL printing a startup banner of available natives).
func (rt *Runtime) LibWord(name string) (slot int, ok bool) {
	if rt.Lib == pool.InvalidNode {
		return 0, false
	}
	sym := rt.Syms.Intern(name)
	return rt.Nodes.FindKey(rt.Lib, sym)
}
