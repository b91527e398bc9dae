package job

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"spritesplit/internal/genimage"
	"spritesplit/internal/matting"
	"spritesplit/internal/modelcache"
	"spritesplit/internal/raster"
	"spritesplit/internal/sprite"
)

// Runner executes pipeline runs. One Runner is shared by all workers of a
// process; the model cache is its only cross-job mutable state.
type Runner struct {
	Store  *Store
	Models *modelcache.Cache

	ResultDir string // terminal archives land here
	WorkDir   string // per-run temp directories are created under here

	MattingEndpoint string // empty: require input alpha (passthrough)
	GenEndpoint     string // empty: generate-mode requests fail
	GenModel        string

	Retry Policy
}

// Run drives one request through the pipeline and records the outcome in the
// store. The run's working directory is removed on every exit path.
func (r *Runner) Run(ctx context.Context, req Request) {
	fmt.Printf("job %s: start\n", req.ID)

	img, err := r.resolveRaster(ctx, req)
	if err != nil {
		// Generation/matting failures are terminal; no geometry ran.
		r.Store.fail(req.ID, err)
		fmt.Fprintf(os.Stderr, "job %s: %v\n", req.ID, err)
		return
	}

	workDir := filepath.Join(r.WorkDir, req.ID)
	defer os.RemoveAll(workDir)

	var result *sprite.Result
	var archivePath string
	err = r.Retry.Do(ctx, func() error {
		// A retried run starts from a clean working directory.
		if err := os.RemoveAll(workDir); err != nil {
			return errors.Wrap(err, "reset working directory")
		}
		if err := os.MkdirAll(workDir, 0o755); err != nil {
			return errors.Wrap(err, "create working directory")
		}

		r.Store.stage(req.ID, StateProcessing, progressProcessing, "segmenting sprites")
		var err error
		result, err = sprite.Split(img, workDir, req.Options)
		if err != nil {
			return err
		}

		r.Store.stage(req.ID, StatePackaging, progressPackaging, "packaging results")
		archivePath, err = r.packageRun(req.ID, workDir)
		return err
	})
	if err != nil {
		r.Store.fail(req.ID, err)
		fmt.Fprintf(os.Stderr, "job %s: %v\n", req.ID, err)
		return
	}

	r.Store.succeed(req.ID, result.Count(), archivePath)
	fmt.Printf("job %s: %d sprites -> %s\n", req.ID, result.Count(), archivePath)
}

// resolveRaster produces the RGBA input raster: generated from a prompt, or
// loaded from the uploaded file, matted when it carries no alpha.
func (r *Runner) resolveRaster(ctx context.Context, req Request) (*image.NRGBA, error) {
	var img *image.NRGBA

	if req.Prompt != "" {
		r.Store.stage(req.ID, StateGenerating, progressGenerating, "generating sheet")
		gen, err := r.generator()
		if err != nil {
			return nil, CollaboratorError(err, "image generation unavailable")
		}
		img, err = gen.Generate(ctx, req.Prompt)
		if err != nil {
			return nil, CollaboratorError(err, "image generation failed")
		}
	} else {
		loaded, err := raster.Load(req.InputPath)
		if err != nil {
			return nil, InputError(err, "load input raster")
		}
		img = loaded
	}

	if req.Options.GridMode || raster.HasAlpha(img) {
		// Grid slicing works on color discontinuities, and rasters that
		// already carry transparency need no matting.
		return img, nil
	}

	remover, err := r.remover()
	if err != nil {
		return nil, CollaboratorError(err, "background removal unavailable")
	}
	matted, err := remover.Remove(ctx, img)
	if err != nil {
		return nil, CollaboratorError(err, "background removal failed")
	}
	return matted, nil
}

// generator returns the process-wide generation client, building it on first
// use.
func (r *Runner) generator() (genimage.Generator, error) {
	return modelcache.GetOrCreate(r.Models, "generator", func() (genimage.Generator, error) {
		if r.GenEndpoint == "" {
			return nil, errors.New("no generation endpoint configured")
		}
		fmt.Println("initializing generation client")
		return genimage.NewClient(r.GenEndpoint, r.GenModel, 1.0), nil
	})
}

// remover returns the process-wide matting client, building it on first use.
func (r *Runner) remover() (matting.Remover, error) {
	return modelcache.GetOrCreate(r.Models, "matting", func() (matting.Remover, error) {
		if r.MattingEndpoint == "" {
			return matting.Passthrough{}, nil
		}
		fmt.Println("initializing matting client")
		return matting.NewClient(r.MattingEndpoint), nil
	})
}

// packageRun archives the run's output directory into the result store.
func (r *Runner) packageRun(id, workDir string) (string, error) {
	if err := os.MkdirAll(r.ResultDir, 0o755); err != nil {
		return "", errors.Wrap(err, "create result directory")
	}
	archivePath := filepath.Join(r.ResultDir, fmt.Sprintf("sprites_%s.zip", id))
	if err := zipDir(workDir, archivePath); err != nil {
		return "", errors.Wrap(err, "package results")
	}
	return archivePath, nil
}
