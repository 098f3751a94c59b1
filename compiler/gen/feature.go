package gen

import (
	"encoding/json"
	"os"
	"path/filepath"
)

var (
	// FeatureReflectConfig writes a reflect-config.json next to the
	// generated files, listing every implementation with its constructors
	// and public methods for ahead-of-time compilers.
	FeatureReflectConfig = Feature{
		Name:        "reflectconfig",
		Stage:       Beta,
		Default:     false,
		Description: "Writes reflect-config.json listing the generated implementations",
		cleanup: func(dir string) error {
			return remove(dir, ReflectConfigFile)
		},
	}

	// FeatureDescriptor writes the msgpack-encoded implementation
	// descriptor of each interface, for emitters running out of process.
	FeatureDescriptor = Feature{
		Name:        "descriptor",
		Stage:       Experimental,
		Default:     false,
		Description: "Writes a msgpack descriptor of each generated implementation",
		cleanup: func(dir string) error {
			files, err := filepath.Glob(filepath.Join(dir, "*_repox.msgpack"))
			if err != nil {
				return err
			}
			for _, f := range files {
				if err := remove(dir, filepath.Base(f)); err != nil {
					return err
				}
			}
			return nil
		},
	}

	// AllFeatures holds a list of all feature-flags.
	AllFeatures = []Feature{
		FeatureReflectConfig,
		FeatureDescriptor,
	}
)

// ReflectConfigFile is the name of the reflection metadata file.
const ReflectConfigFile = "reflect-config.json"

// DescriptorFile returns the name of the descriptor file of the given
// interface.
func DescriptorFile(iface string) string {
	return snake(iface) + "_repox.msgpack"
}

// FeatureStage describes the stage of the codegen feature.
type FeatureStage int

const (
	_ FeatureStage = iota

	// Experimental features are in development, and actively being tested.
	Experimental

	// Alpha features are features whose initial development was finished,
	// but we expect breaking-changes to their APIs.
	Alpha

	// Beta features are Alpha features that were documented, and no
	// breaking-changes are expected for them.
	Beta

	// Stable features are Beta features that were running for a while.
	Stable
)

// A Feature of the repox codegen.
type Feature struct {
	// Name of the feature.
	Name string

	// Stage of the feature.
	Stage FeatureStage

	// Default values indicates if this feature is enabled by default.
	Default bool

	// A Description of this feature.
	Description string

	// cleanup used to cleanup all changes when a feature-flag is removed.
	// e.g. delete files from previous codegen runs.
	cleanup func(dir string) error
}

// Cleanup removes the files a disabled feature wrote into dir during
// previous runs.
func (f Feature) Cleanup(dir string) error {
	if f.cleanup == nil {
		return nil
	}
	return f.cleanup(dir)
}

// remove file (if exists).
func remove(dir, file string) error {
	if err := os.Remove(filepath.Join(dir, file)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ReflectEntry is one entry of reflect-config.json.
type ReflectEntry struct {
	Name                    string `json:"name"`
	AllDeclaredConstructors bool   `json:"allDeclaredConstructors"`
	AllPublicMethods        bool   `json:"allPublicMethods"`
}

// ReflectConfig returns the reflection metadata of the given
// implementations, all of the same package.
func ReflectConfig(impls ...*Implementation) ([]byte, error) {
	entries := make([]ReflectEntry, len(impls))
	for i, impl := range impls {
		entries[i] = ReflectEntry{
			Name:                    impl.PkgPath + "." + impl.Name,
			AllDeclaredConstructors: true,
			AllPublicMethods:        true,
		}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
