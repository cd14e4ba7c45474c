package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"git.home.luguber.info/inful/prev/internal/compiler"
	"git.home.luguber.info/inful/prev/internal/config"
	"git.home.luguber.info/inful/prev/internal/events"
	"git.home.luguber.info/inful/prev/internal/git"
	"git.home.luguber.info/inful/prev/internal/logfields"
	"git.home.luguber.info/inful/prev/internal/metrics"
	"git.home.luguber.info/inful/prev/internal/ordering"
	"git.home.luguber.info/inful/prev/internal/previews"
	"git.home.luguber.info/inful/prev/internal/render"
	"git.home.luguber.info/inful/prev/internal/site"
	"git.home.luguber.info/inful/prev/internal/storage"
	"git.home.luguber.info/inful/prev/internal/templates"
)

// DefaultService is the standard implementation of Service.
// It orchestrates the pipeline: discovery → pages → previews → summary.
type DefaultService struct {
	compilerFactory func(cfg *config.Config) *compiler.Compiler
	renderer        *render.Renderer
	store           storage.ArtifactStore
	publisher       events.Publisher
	recorder        metrics.Recorder
}

// NewService creates a DefaultService with a compiler built from each
// request's configuration and no artifact cache.
func NewService() *DefaultService {
	return &DefaultService{
		renderer:  render.New(),
		publisher: events.NoopPublisher{},
		recorder:  metrics.NoopRecorder{},
	}
}

// WithCompilerFactory overrides how compilers are created from configuration.
func (s *DefaultService) WithCompilerFactory(f func(cfg *config.Config) *compiler.Compiler) *DefaultService {
	s.compilerFactory = f
	return s
}

// WithStore enables the artifact cache.
func (s *DefaultService) WithStore(store storage.ArtifactStore) *DefaultService {
	s.store = store
	return s
}

// WithPublisher sets the build event publisher.
func (s *DefaultService) WithPublisher(p events.Publisher) *DefaultService {
	if p != nil {
		s.publisher = p
	}
	return s
}

// WithRecorder sets the metrics recorder.
func (s *DefaultService) WithRecorder(r metrics.Recorder) *DefaultService {
	s.recorder = metrics.OrNoop(r)
	return s
}

// CompilerFor returns the compiler used for production builds of cfg.
func CompilerFor(cfg *config.Config, recorder metrics.Recorder) *compiler.Compiler {
	return compiler.New(compiler.Options{
		CDNBase:  cfg.CDN.Base,
		Pins:     cfg.CDN.Pins,
		Minify:   true,
		Tailwind: cfg.Tailwind,
		Recorder: recorder,
	})
}

// Run executes a build. Preview failures are reported in the result with
// StatusPartial; the returned error covers output, discovery and cancellation.
func (s *DefaultService) Run(ctx context.Context, req Request) (*Result, error) {
	res := &Result{ID: uuid.NewString(), StartTime: time.Now(), OutputPath: req.OutputDir}
	cfg := req.Config
	if cfg == nil {
		cfg = config.Default()
	}
	log := slog.With(slog.String("build_id", res.ID))
	log.Info("Build started", logfields.Path(req.Root), slog.String("output", req.OutputDir))

	err := s.run(ctx, req, cfg, res)
	res.EndTime = time.Now()
	res.Duration = res.EndTime.Sub(res.StartTime)

	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		res.Status = StatusCanceled
	case err != nil:
		res.Status = StatusFailed
	case len(res.Failures) > 0:
		res.Status = StatusPartial
	default:
		res.Status = StatusSuccess
	}

	s.recorder.ObserveBuildDuration(res.Duration)
	s.recorder.IncBuildOutcome(outcome(res.Status))
	s.summarize(ctx, req.Root, res)

	if err != nil {
		log.Error("Build failed", logfields.Error(err))
		return res, err
	}
	log.Info("Build finished",
		slog.String("status", string(res.Status)),
		slog.Int("pages", res.Pages),
		slog.Int("previews", res.Previews),
		slog.Int("cache_hits", res.CacheHits),
		slog.Int("failures", len(res.Failures)),
		logfields.DurationMS(float64(res.Duration.Milliseconds())))
	return res, nil
}

func (s *DefaultService) run(ctx context.Context, req Request, cfg *config.Config, res *Result) error {
	if err := resetDir(req.OutputDir, req.Root); err != nil {
		return err
	}
	out := writer{root: req.OutputDir}

	cache := site.New(req.Root, site.Options{Include: cfg.Include, Recorder: s.recorder})
	module, err := cache.Module(cfg.Hidden, ordering.Normalize(cfg.Order))
	if err != nil {
		return fmt.Errorf("%w: pages: %w", ErrDiscovery, err)
	}
	list, err := cache.Previews()
	if err != nil {
		return fmt.Errorf("%w: previews: %w", ErrDiscovery, err)
	}

	stage := time.Now()
	if err := s.writePages(ctx, req.Root, cfg, module, out); err != nil {
		return err
	}
	res.Pages = len(module.Pages)
	slog.Debug("Stage finished", logfields.Stage("pages"), logfields.Count(res.Pages),
		logfields.DurationMS(float64(time.Since(stage).Milliseconds())))

	if err := out.json(PreviewsFile, list); err != nil {
		return err
	}
	if err := out.json(ConfigFile, cfg); err != nil {
		return err
	}
	stage = time.Now()
	if err := s.writePreviews(ctx, req, cfg, list, out, res); err != nil {
		return err
	}
	res.Previews = len(list)
	slog.Debug("Stage finished", logfields.Stage("previews"), logfields.Count(res.Previews),
		logfields.DurationMS(float64(time.Since(stage).Milliseconds())))
	return nil
}

func (s *DefaultService) writePages(ctx context.Context, root string, cfg *config.Config, module site.Module, out writer) error {
	if err := out.json(PagesFile, module); err != nil {
		return err
	}
	for name, data := range map[string][]byte{
		"app.js":  templates.AppScript(),
		"app.css": templates.Stylesheet(),
	} {
		if err := out.bytes(AssetsDir+"/"+name, data); err != nil {
			return err
		}
	}

	rootShell, err := templates.Shell(shellData(cfg, ""))
	if err != nil {
		return err
	}
	if err := out.bytes("index.html", rootShell); err != nil {
		return err
	}
	// Unknown routes fall back to the shell, which renders its not-found state.
	if err := out.bytes("404.html", rootShell); err != nil {
		return err
	}

	for _, page := range module.Pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		// #nosec G304 -- SourceFile comes from a scan of root.
		source, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(page.SourceFile)))
		if err != nil {
			return fmt.Errorf("%w: read %s: %w", ErrDiscovery, page.SourceFile, err)
		}
		fragment, err := s.renderer.Render(page, source)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrOutput, err)
		}
		if err := out.json(ContentFile(page.Route), fragment); err != nil {
			return err
		}
		shell, err := templates.Shell(shellData(cfg, page.Title))
		if err != nil {
			return err
		}
		if err := out.bytes(ShellFile(page.Route), shell); err != nil {
			return err
		}
	}
	return nil
}

func shellData(cfg *config.Config, title string) templates.ShellData {
	return templates.ShellData{
		Title:        title,
		Theme:        string(cfg.Theme),
		ContentWidth: string(cfg.ContentWidth),
		Mode:         templates.ModeStatic,
	}
}

func (s *DefaultService) writePreviews(ctx context.Context, req Request, cfg *config.Config, list []previews.Preview, out writer, res *Result) error {
	comp := s.compiler(cfg)

	workers := req.Options.Concurrency
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	sem := make(chan struct{}, workers)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		errs     error
		writeErr error
	)
	for _, p := range list {
		wg.Add(1)
		go func(p previews.Preview) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			html, hit, buildErr := s.buildPreview(ctx, req, comp, p, res.ID)
			if buildErr != nil {
				html = compiler.ErrorHTML(p.Name, buildErr.Error())
			}
			wErr := out.bytes(PreviewFile(p.Name), []byte(html))

			mu.Lock()
			defer mu.Unlock()
			if hit {
				res.CacheHits++
			}
			if buildErr != nil {
				errs = multierr.Append(errs, fmt.Errorf("%w: %s: %w", ErrPreview, p.Name, buildErr))
				res.Failures = append(res.Failures, PreviewFailure{Name: p.Name, Error: buildErr.Error()})
			}
			writeErr = multierr.Append(writeErr, wErr)
		}(p)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	for _, err := range multierr.Errors(errs) {
		slog.Warn("Preview build failed", logfields.Error(err))
	}
	sortFailures(res.Failures)
	return writeErr
}

// buildPreview returns the artifact document for p and whether it came from the cache.
func (s *DefaultService) buildPreview(ctx context.Context, req Request, comp *compiler.Compiler, p previews.Preview, buildID string) (string, bool, error) {
	cfg, err := previews.Load(req.Root, p.Name)
	if err != nil {
		return "", false, err
	}
	key := comp.CacheKey(*cfg)

	if s.store != nil && !req.Options.NoCache {
		if a, getErr := s.store.Get(ctx, key); getErr == nil {
			slog.Debug("Preview artifact cache hit", logfields.Preview(p.Name))
			return a.HTML, true, nil
		} else if !errors.Is(getErr, storage.ErrNotFound) {
			slog.Warn("Artifact cache read failed", logfields.Preview(p.Name), logfields.Error(getErr))
		}
	}

	result := comp.BuildHTML(ctx, *cfg)
	if result.Error != "" {
		events.Notify(s.publisher, &events.Event{Type: events.TypePreviewFail, Root: req.Root, BuildID: buildID, Preview: p.Name, Error: result.Error})
		return "", false, errors.New(result.Error)
	}

	if s.store != nil {
		a := &storage.Artifact{Hash: key, Preview: p.Name, HTML: result.HTML, BuildID: buildID}
		if putErr := s.store.Put(ctx, a); putErr != nil {
			slog.Warn("Artifact cache write failed", logfields.Preview(p.Name), logfields.Error(putErr))
		}
	}
	return result.HTML, false, nil
}

func (s *DefaultService) compiler(cfg *config.Config) *compiler.Compiler {
	if s.compilerFactory != nil {
		return s.compilerFactory(cfg)
	}
	return CompilerFor(cfg, s.recorder)
}

func (s *DefaultService) summarize(ctx context.Context, root string, res *Result) {
	if s.store != nil {
		if prev, err := s.store.LastBuild(context.WithoutCancel(ctx)); err == nil {
			slog.Debug("Previous build",
				slog.String("build_id", prev.ID),
				slog.Time("finished_at", prev.FinishedAt),
				slog.Int("failures", prev.Failures))
			if prev.Failures > 0 && len(res.Failures) == 0 && res.Status == StatusSuccess {
				slog.Info("All previews compile again", slog.Int("previously_failed", prev.Failures))
			}
		}
		rec := storage.BuildRecord{
			ID:         res.ID,
			StartedAt:  res.StartTime,
			FinishedAt: res.EndTime,
			Pages:      res.Pages,
			Previews:   res.Previews,
			Failures:   len(res.Failures),
			CacheHits:  res.CacheHits,
		}
		// The build context may already be canceled; the record is still wanted.
		if err := s.store.RecordBuild(context.WithoutCancel(ctx), rec); err != nil {
			slog.Warn("Failed to record build", logfields.Error(err))
		}
	}
	commit, err := git.HeadCommit(root)
	if err != nil {
		slog.Debug("No commit for build event", logfields.Error(err))
	}
	events.Notify(s.publisher, &events.Event{
		Type:     events.TypeBuild,
		Root:     root,
		BuildID:  res.ID,
		Commit:   commit,
		Success:  res.Status.IsSuccess(),
		Pages:    res.Pages,
		Previews: res.Previews,
	})
}

func outcome(s Status) metrics.ResultLabel {
	switch s {
	case StatusSuccess:
		return metrics.ResultSuccess
	case StatusCanceled:
		return metrics.ResultCanceled
	default:
		return metrics.ResultFailed
	}
}

func sortFailures(f []PreviewFailure) {
	sort.Slice(f, func(i, j int) bool { return f[i].Name < f[j].Name })
}
