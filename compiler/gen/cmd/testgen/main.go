// testgen runs the generator over an in-memory repository interface and
// prints the output tree.
// Run: go run ./compiler/gen/cmd/testgen
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/syssam/repox/compiler"
	"github.com/syssam/repox/compiler/gen"
	"github.com/syssam/repox/compiler/load"
)

func main() {
	outDir, err := os.MkdirTemp("", "repox-testgen-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create temp dir: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Output directory: %s\n", outDir)

	iface, err := userRepository(outDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build interface: %v\n", err)
		os.Exit(1)
	}

	cfg, err := gen.NewConfig(gen.WithFeatures(gen.AllFeatures...))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	results, err := gen.Generate(ctx, cfg, []*load.Interface{iface})
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}
	for _, res := range results {
		for _, d := range res.Diagnostics {
			fmt.Printf("diagnostic: %v\n", d)
		}
	}
	files, err := compiler.Emit(cfg, results)
	if err != nil {
		fmt.Fprintf(os.Stderr, "render failed: %v\n", err)
		os.Exit(1)
	}
	if err := compiler.Write(ctx, cfg, &compiler.Report{Results: results, Files: files}); err != nil {
		fmt.Fprintf(os.Stderr, "write failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nGenerated files:")
	for _, path := range files.Paths() {
		f, _ := files.Get(path)
		rel, _ := filepath.Rel(outDir, path)
		fmt.Printf("  %s (%d bytes)\n", rel, len(f.Data))
	}

	src, ok := files.Get(filepath.Join(outDir, gen.FileName(iface.Name)))
	if ok {
		fmt.Printf("\n--- %s ---\n%s", gen.FileName(iface.Name), src.Data)
	}
	fmt.Println("Done!")
}

// userRepository describes the interface
//
//	//repox:repository unit="main"
//	type UserRepository interface {
//		Find(ctx context.Context, id int64) (*User, error)
//		SaveAndFlush(ctx context.Context, u *User) (*User, error)
//		//repox:query "User.byName"
//		ByName(ctx context.Context, name string) ([]User, error)
//	}
func userRepository(dir string) (*load.Interface, error) {
	const pkg = "example.com/store"
	repo, err := load.ParseDirective(`//repox:repository unit="main"`)
	if err != nil {
		return nil, err
	}
	query, err := load.ParseDirective(`//repox:query "User.byName"`)
	if err != nil {
		return nil, err
	}
	ctx := &load.Param{Name: "ctx", Type: load.Named("context", "Context")}
	user := load.Named(pkg, "User")
	return &load.Interface{
		Name:       "UserRepository",
		PkgPath:    pkg,
		PkgName:    "store",
		Dir:        dir,
		Directives: []*load.Directive{repo},
		Methods: []*load.Method{
			{
				Name:    "Find",
				Params:  []*load.Param{ctx, {Name: "id", Type: load.Basic("int64")}},
				Results: []*load.TypeRef{load.PointerTo(user), load.Error()},
			},
			{
				Name:    "SaveAndFlush",
				Params:  []*load.Param{ctx, {Name: "u", Type: load.PointerTo(user)}},
				Results: []*load.TypeRef{load.PointerTo(user), load.Error()},
			},
			{
				Name:       "ByName",
				Params:     []*load.Param{ctx, {Name: "name", Type: load.Basic("string")}},
				Results:    []*load.TypeRef{load.SliceOf(user), load.Error()},
				Directives: []*load.Directive{query},
			},
		},
	}, nil
}
