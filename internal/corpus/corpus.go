package corpus

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"fuzzrun/config"
	"fuzzrun/internal/types"
	"fuzzrun/internal/utils"
)

// ErrNoCorpus marks the expected soft failure: the backup bucket has no
// public corpus for this target. Callers proceed without seeds.
var ErrNoCorpus = fmt.Errorf("no corpus available")

// Fetcher stages the latest public backup corpus for a fuzz target under
// <out>/corpus/<target>. Fetching is best-effort; a run without seeds is
// still a valid run.
type Fetcher interface {
	// Download returns the staged corpus directory, or ErrNoCorpus when the
	// target has no retrievable corpus.
	Download(ctx context.Context, target *types.FuzzTarget) (string, error)
}

type httpFetcher struct {
	logger      *zap.Logger
	client      *http.Client
	storageBase string
}

type FetcherParams struct {
	fx.In

	Logger    *zap.Logger
	AppConfig *config.AppConfig
}

func NewFetcher(p FetcherParams) Fetcher {
	return &httpFetcher{
		logger:      p.Logger,
		client:      &http.Client{Timeout: 5 * time.Minute},
		storageBase: p.AppConfig.CorpusStorageBase,
	}
}

// archiveURL builds the deterministic backup location for a project/target
// pair. The layout is fixed by the corpus storage service.
func (f *httpFetcher) archiveURL(project, target string) string {
	return fmt.Sprintf(
		"%s/%s-backup.clusterfuzz-external.appspot.com/corpus/libFuzzer/%s_%s/public.zip",
		f.storageBase, project, project, target,
	)
}

// Download fetches and unpacks the backup corpus for the target, returning
// the local corpus directory. Without a project identifier no fetch is
// attempted. Any transport failure returns ErrNoCorpus; the archive never
// being there is a normal condition, not a fault.
//
// Re-download replaces prior contents of the corpus directory: extraction is
// not incremental.
func (f *httpFetcher) Download(ctx context.Context, target *types.FuzzTarget) (string, error) {
	if target.Project == "" {
		return "", ErrNoCorpus
	}
	if _, err := os.Stat(target.OutDir); err != nil {
		return "", fmt.Errorf("output directory %s not accessible: %w", target.OutDir, err)
	}

	corpusURL := f.archiveURL(target.Project, target.Name)
	f.logger.Info("trying backup corpus",
		zap.String("target", target.Name),
		zap.String("url", corpusURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, corpusURL, nil)
	if err != nil {
		return "", fmt.Errorf("build corpus request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("failed to fetch corpus archive", zap.Error(err))
		return "", ErrNoCorpus
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.logger.Warn("corpus archive not available",
			zap.String("url", corpusURL),
			zap.String("status", resp.Status))
		return "", ErrNoCorpus
	}

	archive, err := io.ReadAll(resp.Body)
	if err != nil {
		f.logger.Warn("failed to read corpus archive", zap.Error(err))
		return "", ErrNoCorpus
	}

	corpusDir := filepath.Join(target.OutDir, "corpus", target.Name)
	if err := os.RemoveAll(corpusDir); err != nil {
		return "", fmt.Errorf("clear corpus directory: %w", err)
	}
	if err := os.MkdirAll(corpusDir, 0755); err != nil {
		return "", fmt.Errorf("create corpus directory: %w", err)
	}
	if err := utils.UnzipBytes(archive, corpusDir); err != nil {
		f.logger.Warn("failed to unpack corpus archive", zap.Error(err))
		return "", ErrNoCorpus
	}

	seeds, err := os.ReadDir(corpusDir)
	if err != nil {
		return "", fmt.Errorf("read corpus directory: %w", err)
	}
	f.logger.Info("using downloaded corpus",
		zap.String("target", target.Name),
		zap.String("corpus_dir", corpusDir),
		zap.Int("seed_count", len(seeds)))

	return corpusDir, nil
}
