package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/spiral/pkg/catalog"
	"github.com/chazu/spiral/pkg/compliance"
	"github.com/chazu/spiral/pkg/config"
	"github.com/chazu/spiral/pkg/engine"
	"github.com/chazu/spiral/pkg/geometry"
	"github.com/chazu/spiral/pkg/kernel"
	"github.com/chazu/spiral/pkg/kernel/sdfx"
	"github.com/chazu/spiral/pkg/repair"
	"github.com/chazu/spiral/pkg/stair"
	"github.com/chazu/spiral/pkg/tessellate"
)

// ErrSourceInvalid means a source file did not evaluate to a staircase.
var ErrSourceInvalid = errors.New("source has errors")

// App runs the full pipeline: source, repair, geometry, meshes, export.
type App struct {
	engine *engine.Engine
	kernel kernel.Kernel
	cfg    *config.Config
	logger *slog.Logger
}

// MeshData is the JSON-serializable mesh format for one part.
type MeshData struct {
	Vertices []float32  `json:"vertices"`
	Normals  []float32  `json:"normals"`
	Indices  []uint32   `json:"indices"`
	PartName string     `json:"partName"`
	Tag      string     `json:"tag"`
	Color    string     `json:"color"`
	Min      [3]float32 `json:"min"`
	Max      [3]float32 `json:"max"`
}

// EvalErrorData is a JSON-serializable eval error.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// BuildResult is everything one pipeline run produced. Err is set when the
// run stopped early; the fields filled before that point stay populated.
type BuildResult struct {
	RunID      string                 `json:"runId,omitempty"`
	Name       string                 `json:"name,omitempty"`
	Spec       stair.Spec             `json:"spec"`
	Summary    *repair.Summary        `json:"summary,omitempty"`
	Accepted   []repair.Fix           `json:"accepted,omitempty"`
	Fatal      []compliance.Violation `json:"fatal,omitempty"`
	Placements []geometry.Placement   `json:"placements,omitempty"`
	Meshes     []MeshData             `json:"meshes"`
	Errors     []EvalErrorData        `json:"errors"`
	Warnings   []EvalErrorData        `json:"warnings"`
	Files      []string               `json:"files,omitempty"`
	Err        error                  `json:"-"`

	parts []tessellate.Part
}

// OK reports whether the run reached geometry.
func (r *BuildResult) OK() bool {
	return r.Err == nil
}

// NewApp creates an App from cfg. A nil logger uses slog.Default.
func NewApp(cfg *config.Config, logger *slog.Logger) *App {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	eng := engine.NewEngine()
	eng.DefaultDirection = cfg.Defaults.Direction
	eng.Timeout = cfg.Source.Timeout
	return &App{
		engine: eng,
		kernel: sdfx.NewWithCells(cfg.Kernel.MeshCells),
		cfg:    cfg,
		logger: logger,
	}
}

// Parse evaluates source into a spec without running the pipeline.
func (a *App) Parse(source string) (*engine.EvalResult, error) {
	res, err := a.engine.Evaluate(source)
	if err != nil {
		a.logger.Error("evaluate failed", "error", err)
		return nil, err
	}
	return res, nil
}

// Evaluate takes Lisp source and runs the whole pipeline, asking provider
// at every repair checkpoint.
func (a *App) Evaluate(source string, provider repair.DecisionProvider) BuildResult {
	res, err := a.Parse(source)
	if err != nil {
		r := newBuildResult()
		r.Errors = append(r.Errors, EvalErrorData{Message: err.Error()})
		r.Err = err
		return r
	}
	if !res.OK() {
		r := newBuildResult()
		for _, e := range res.Errors {
			r.Errors = append(r.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		r.Err = fmt.Errorf("%w: %s", ErrSourceInvalid, res.Errors[0].Error())
		return r
	}

	r := a.Build(res.Spec, provider)
	r.Name = res.Name
	for _, w := range res.Warnings {
		r.Warnings = append(r.Warnings, EvalErrorData{Message: w.Message})
	}
	return r
}

func newBuildResult() BuildResult {
	return BuildResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}
}

// Build repairs spec and lays out and tessellates the result.
func (a *App) Build(spec stair.Spec, provider repair.DecisionProvider) BuildResult {
	r := newBuildResult()

	if a.cfg.Defaults.SnapPole {
		var notice string
		spec, notice = SnapPole(spec)
		if notice != "" {
			a.logger.Info(notice, "available", strings.Join(catalog.Labels(), ", "))
			r.Warnings = append(r.Warnings, EvalErrorData{Message: notice})
		}
	}
	r.Spec = spec

	rr, err := repair.Repair(spec, provider,
		repair.WithLogger(a.logger),
		repair.WithMaxAttempts(a.cfg.Repair.MaxAttempts))
	if err != nil {
		var fatal *repair.FatalError
		if errors.As(err, &fatal) {
			r.Fatal = fatal.Violations
		}
		r.Err = err
		return r
	}
	r.RunID = rr.RunID
	r.Spec = rr.Spec
	r.Summary = &rr.Summary
	r.Accepted = rr.Accepted

	log := a.logger.With("run_id", rr.RunID)
	placements, err := geometry.Build(rr.Spec, rr.Derived, geometry.Options{ArcSegments: a.cfg.Kernel.ArcSegments})
	if err != nil {
		log.Error("geometry failed", "error", err)
		r.Err = err
		return r
	}
	r.Placements = placements

	parts, err := tessellate.Solids(placements, a.kernel)
	if err != nil {
		log.Error("solid construction failed", "error", err)
		r.Err = err
		return r
	}
	r.parts = parts

	meshes, err := tessellate.Meshes(parts, a.kernel)
	if err != nil {
		log.Error("tessellate failed", "error", err)
		r.Err = fmt.Errorf("tessellation failed: %w", err)
		return r
	}
	for _, m := range meshes {
		lo, hi := m.Bounds()
		r.Meshes = append(r.Meshes, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			PartName: m.PartName,
			Tag:      m.Tag,
			Color:    tessellate.TagColor(m.Tag),
			Min:      lo,
			Max:      hi,
		})
	}
	log.Debug("build complete", "placements", len(placements), "meshes", len(meshes))
	return r
}

// Check audits spec without repairing it.
func (a *App) Check(spec stair.Spec) compliance.Report {
	if a.cfg.Defaults.SnapPole {
		spec, _ = SnapPole(spec)
	}
	return compliance.Audit(spec)
}

// Export writes the files enabled in the config to dir, named after base.
// It returns the paths written.
func (a *App) Export(r *BuildResult, dir, base string) ([]string, error) {
	if !r.OK() || len(r.parts) == 0 {
		return nil, fmt.Errorf("export: nothing to export")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	var files []string
	if a.cfg.Output.STL {
		solid, err := tessellate.Assemble(r.parts, a.kernel)
		if err != nil {
			return files, err
		}
		path := filepath.Join(dir, base+".stl")
		if err := a.kernel.ExportSTL(solid, path); err != nil {
			return files, err
		}
		files = append(files, path)
	}
	if a.cfg.Output.DXF {
		path := filepath.Join(dir, base+"-plan.dxf")
		if err := a.kernel.ExportPlanDXF(tessellate.PlanOutlines(r.Placements), path); err != nil {
			return files, err
		}
		files = append(files, path)
	}
	for _, f := range files {
		a.logger.Info("exported", "run_id", r.RunID, "path", f)
	}
	r.Files = append(r.Files, files...)
	return files, nil
}

// SnapPole moves the center pole to the nearest stock size. The notice is
// empty when the pole already was a stock size.
func SnapPole(spec stair.Spec) (stair.Spec, string) {
	if catalog.Contains(spec.CenterPoleDiameter) {
		return spec, ""
	}
	d := catalog.Nearest(spec.CenterPoleDiameter)
	notice := fmt.Sprintf("center pole %.3f in is not a stock size, snapped to %s", spec.CenterPoleDiameter, d.Label)
	return spec.With(stair.FieldCenterPoleDiameter, d.Value), notice
}

// BaseName picks an export file name for a run.
func BaseName(sourcePath, name string) string {
	switch {
	case name != "":
		return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
	case sourcePath != "":
		return strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	}
	return "staircase"
}
