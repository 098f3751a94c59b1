package compiler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dave/jennifer/jen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/repox/compiler/gen"
	"github.com/syssam/repox/compiler/gen/session"
	"github.com/syssam/repox/compiler/load"
)

func TestGenerate(t *testing.T) {
	ctx := context.Background()
	r, err := Generate(ctx, nil, nil, "./load/testdata/repo")
	require.NoError(t, err)
	require.NoError(t, r.Err())
	require.Len(t, r.Results, 1)
	require.Len(t, r.Dirs, 1)
	require.Equal(t, 1, r.Files.Len())

	path := filepath.Join(r.Dirs[0], "user_repository_repox.go")
	f, ok := r.Files.Get(path)
	require.True(t, ok, "missing %s in %v", path, r.Files.Paths())
	assert.Equal(t, "UserRepository", f.Owner)

	src := string(f.Data)
	for _, want := range []string{
		"// Code generated by repox. DO NOT EDIT.",
		"package repo",
		"type userRepositoryImpl struct {\n\tuserBase\n",
		"func NewUserRepository(p repox.SessionProvider) UserRepository {",
		"Mode: repox.Extended,",
		"return repox.OfNullable(repox.Find[User](ctx, uri.session, id))",
		`q.SetParameter(repox.Named("name"), name)`,
		"//repox:transactional MANDATORY\nfunc (uri *userRepositoryImpl) ByName(",
		"q.SetTemporalParameter(repox.Positional(1), since, repox.TemporalDate)",
		"q.SetParameter(repox.Positional(2), arg2)",
		"func (uri *userRepositoryImpl) Session() repox.Session {",
		"func (uri *userRepositoryImpl) Flush(ctx context.Context) (err error) {",
	} {
		assert.Contains(t, src, want)
	}
	assert.NotContains(t, src, "func (uri *userRepositoryImpl) Describe(")

	err = Verify(ctx, nil, r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "should exist, but does not")
}

func TestGenerateFeatures(t *testing.T) {
	cfg := gen.MustNewConfig(gen.WithFeatures(gen.FeatureReflectConfig, gen.FeatureDescriptor))
	r, err := Generate(context.Background(), &load.Config{}, cfg, "./load/testdata/repo")
	require.NoError(t, err)
	require.Equal(t, 3, r.Files.Len())

	rc, ok := r.Files.Get(filepath.Join(r.Dirs[0], gen.ReflectConfigFile))
	require.True(t, ok)
	assert.Contains(t, string(rc.Data), `compiler/load/testdata/repo.userRepositoryImpl"`)

	desc, ok := r.Files.Get(filepath.Join(r.Dirs[0], gen.DescriptorFile("UserRepository")))
	require.True(t, ok)
	var impl gen.Implementation
	require.NoError(t, impl.UnmarshalBinary(desc.Data))
	assert.Equal(t, "UserRepository", impl.Interface)
	assert.Equal(t, "NewUserRepository", impl.Constructor)
	assert.Equal(t, []string{"Describe"}, impl.Skipped)
}

func TestGenerateLoadError(t *testing.T) {
	_, err := Generate(context.Background(), nil, nil, "./load/testdata/broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid directive")
}

// results generates interfaces declared in dir.
func results(t *testing.T, dir string, ifaces ...*load.Interface) []*gen.Result {
	t.Helper()
	for _, iface := range ifaces {
		iface.Dir = dir
	}
	res, err := gen.Generate(context.Background(), nil, ifaces)
	require.NoError(t, err)
	return res
}

func repository(t *testing.T, name string, methods ...*load.Method) *load.Interface {
	t.Helper()
	d, err := load.ParseDirective(`//repox:repository unit="main"`)
	require.NoError(t, err)
	return &load.Interface{
		Name:       name,
		PkgPath:    "example.com/app/model",
		PkgName:    "model",
		Directives: []*load.Directive{d},
		Methods:    methods,
	}
}

func TestEmitSkipsDiagnostics(t *testing.T) {
	flush := &load.Method{
		Name:    "Flush",
		Params:  []*load.Param{{Name: "ctx", Type: load.Named("context", "Context")}},
		Results: []*load.TypeRef{load.Error()},
	}
	count := &load.Method{Name: "Count", Results: []*load.TypeRef{load.Basic("int64"), load.Error()}}
	dir := t.TempDir()
	res := results(t, dir,
		repository(t, "UserRepository", flush),
		repository(t, "OrderRepository", flush, count),
	)
	files, err := Emit(nil, res)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "user_repository_repox.go")}, files.Paths())

	r := &Report{Results: res, Files: files, Dirs: []string{dir}}
	err = r.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, gen.ErrUnhandledMethod)
}

// failingEmitter fails for one interface and delegates the others.
type failingEmitter struct {
	gen.Emitter
	iface string
}

func (e failingEmitter) Emit(impl *gen.Implementation) (*jen.File, error) {
	if impl.Interface == e.iface {
		return nil, errors.New("unsupported base type")
	}
	return e.Emitter.Emit(impl)
}

func TestEmitContinuesAfterFailure(t *testing.T) {
	flush := &load.Method{
		Name:    "Flush",
		Params:  []*load.Param{{Name: "ctx", Type: load.Named("context", "Context")}},
		Results: []*load.TypeRef{load.Error()},
	}
	dir := t.TempDir()
	res := results(t, dir,
		repository(t, "OrderRepository", flush),
		repository(t, "UserRepository", flush),
	)
	cfg := gen.MustNewConfig(gen.WithEmitter(failingEmitter{Emitter: session.New(nil), iface: "OrderRepository"}))
	files, err := Emit(cfg, res)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "user_repository_repox.go")}, files.Paths())

	require.Error(t, res[0].Err)
	assert.True(t, gen.IsGenerationError(res[0].Err))
	assert.ErrorContains(t, res[0].Err, "unsupported base type")
	assert.True(t, res[1].OK())

	r := &Report{Results: res, Files: files}
	assert.ErrorContains(t, r.Err(), "unsupported base type")
}

func TestWriteVerify(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	flush := &load.Method{Name: "Flush", Results: []*load.TypeRef{load.Error()}}
	res := results(t, dir, repository(t, "UserRepository", flush))

	stale := filepath.Join(dir, gen.ReflectConfigFile)
	require.NoError(t, os.WriteFile(stale, []byte("[]\n"), 0o644))

	cfg := gen.DefaultConfig()
	files, err := Emit(cfg, res)
	require.NoError(t, err)
	r := &Report{Results: res, Files: files, Dirs: []string{dir}}
	require.NoError(t, Write(ctx, cfg, r))
	require.NoError(t, Verify(ctx, cfg, r))

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "disabled feature output must be removed")

	data, err := os.ReadFile(filepath.Join(dir, "user_repository_repox.go"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "return uri.session.Flush(context.Background())")
}
