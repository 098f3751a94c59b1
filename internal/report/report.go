// Package report prints the outcome of a generation run for humans.
package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/syssam/repox/compiler/gen"
)

var (
	okMark   = color.New(color.FgGreen, color.Bold)
	warnMark = color.New(color.FgYellow, color.Bold)
	errMark  = color.New(color.FgRed, color.Bold)
	faint    = color.New(color.Faint)
)

// hints suggests a fix for each diagnostic kind.
var hints = map[gen.DiagnosticKind]string{
	gen.EmptyQueryIdentifier:      `give the query a name: //repox:query "Entity.name"`,
	gen.ParamCountMismatch:        "bridge methods take exactly one entity or key, flush takes none",
	gen.VoidReturnRequired:        "declare the method with error as its only result",
	gen.ParamsNotSupported:        "the session accessor takes no parameters",
	gen.UnsupportedReturnType:     "return sql.Null[T], iter.Seq2[T, error], []T, int64 or no value",
	gen.UnsupportedTemporalTarget: "temporal bindings apply to time.Time parameters only",
	gen.MissingErrorResult:        "add error as the last result",
	gen.InvalidDirective:          "check the directive syntax: //repox:<name> key=value",
	gen.UnhandledMethod:           "add a //repox:query directive or use a find, persist, merge, remove, flush or save name",
}

// Reporter writes generation results.
type Reporter struct {
	w       io.Writer
	verbose bool
}

// New creates a Reporter writing to w. Verbose reporters list generated
// methods and suggest fixes for diagnostics.
func New(w io.Writer, verbose bool) *Reporter {
	return &Reporter{w: w, verbose: verbose}
}

// Results reports every interface of a run. It returns the number of
// interfaces that were not fully generated.
func (r *Reporter) Results(results []*gen.Result) int {
	failed := 0
	for _, res := range results {
		switch {
		case res.Err != nil:
			failed++
			errMark.Fprint(r.w, "✗ ")
			fmt.Fprintf(r.w, "%s\n", res.Interface)
			fmt.Fprintf(r.w, "    %s\n", res.Err)
		case len(res.Diagnostics) > 0:
			failed++
			warnMark.Fprint(r.w, "! ")
			fmt.Fprintf(r.w, "%s: %d of %d methods not generated\n", res.Interface, len(res.Diagnostics), len(res.Diagnostics)+len(res.Impl.Methods))
			for _, d := range res.Diagnostics {
				r.diagnostic(d)
			}
		default:
			okMark.Fprint(r.w, "✓ ")
			fmt.Fprintf(r.w, "%s\n", res.Interface)
		}
		if r.verbose && res.Impl != nil {
			for _, m := range res.Impl.Methods {
				faint.Fprintf(r.w, "    %s\n", m)
			}
			for _, name := range res.Impl.Skipped {
				faint.Fprintf(r.w, "    %s (default)\n", name)
			}
		}
	}
	return failed
}

func (r *Reporter) diagnostic(d *gen.MethodError) {
	fmt.Fprintf(r.w, "    %s: ", d.Method)
	warnMark.Fprint(r.w, d.Kind)
	fmt.Fprintf(r.w, ": %s\n", d.Message)
	if d.Pos != "" {
		faint.Fprintf(r.w, "      at %s\n", d.Pos)
	}
	if hint, ok := hints[d.Kind]; ok && r.verbose {
		faint.Fprintf(r.w, "      hint: %s\n", hint)
	}
}

// Files reports the files of a run, written or verified.
func (r *Reporter) Files(files *gen.Files, verified bool) {
	verb := "wrote"
	if verified {
		verb = "verified"
	}
	fmt.Fprintf(r.w, "%s %d file(s)\n", verb, files.Len())
	if r.verbose {
		for _, p := range files.Paths() {
			faint.Fprintf(r.w, "    %s\n", p)
		}
	}
}

// Error reports a failure of the run itself.
func (r *Reporter) Error(err error) {
	errMark.Fprint(r.w, "error: ")
	fmt.Fprintf(r.w, "%s\n", err)
}
