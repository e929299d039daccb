package apply

import (
	"bytes"
	"log/slog"
	"sync"

	"github.com/fontshim/fontshim/internal/common"
	"github.com/fontshim/fontshim/models"
	"github.com/fontshim/fontshim/pkg/artifacts"
	"github.com/fontshim/fontshim/pkg/caching"
	"github.com/fontshim/fontshim/pkg/cssdom"
	"github.com/fontshim/fontshim/pkg/db"
	"github.com/fontshim/fontshim/pkg/engine"
	"github.com/fontshim/fontshim/pkg/fetcher"
	"github.com/fontshim/fontshim/pkg/storage"
)

// cssFetchRecord captures one stylesheet fetch observed during a job, to be
// written under the job's run row afterwards.
type cssFetchRecord struct {
	url  string
	body []byte
	err  error
}

// worker processes jobs from the jobs channel and sends results to the
// results channel. Each job gets its own fetcher so per-run fetch
// observations do not interleave across workers.
func worker(id int, logger *slog.Logger, opts models.EngineOptions, manager *artifacts.Manager, cache *caching.Cache, store *storage.Storage, database *db.DB, forceFetch bool, wg *sync.WaitGroup, jobs <-chan Job, results chan<- Result) {
	defer wg.Done()
	for job := range jobs {
		logger.Info("Worker started job", "worker", id, "url", job.URL)
		results <- processJob(logger, id, job, opts, manager, cache, store, database, forceFetch)
	}
}

func processJob(logger *slog.Logger, id int, job Job, opts models.EngineOptions, manager *artifacts.Manager, cache *caching.Cache, store *storage.Storage, database *db.DB, forceFetch bool) Result {
	result := Result{URL: job.URL}

	if !forceFetch {
		if _, fresh, err := manager.GetRewritten(job.URL); err == nil && fresh {
			path, _ := manager.RewrittenPath(job.URL)
			result.FilePath = path
			result.Cached = true
			logger.Info("Worker reused fresh artifact", "worker", id, "url", job.URL)
			return result
		}
	}

	client := fetcher.NewClient()
	var fetches []cssFetchRecord
	client.OnCSSFetch = func(url string, body []byte, err error) {
		fetches = append(fetches, cssFetchRecord{url: url, body: body, err: err})
	}

	htmlBytes, err := client.GetHTML(job.URL)
	if err != nil {
		logger.Error("Worker failed to fetch page", "worker", id, "url", job.URL, "error", err)
		result.Error = err
		result.ErrorType = "fetch_error"
		recordRun(logger, database, &result)
		return result
	}

	loader, err := newSheetLoader(job.URL, client, cache)
	if err != nil {
		result.Error = err
		result.ErrorType = "parse_error"
		recordRun(logger, database, &result)
		return result
	}

	doc, err := cssdom.Load(bytes.NewReader(htmlBytes), job.URL, loader)
	if err != nil {
		logger.Error("Worker failed to parse page", "worker", id, "url", job.URL, "error", err)
		result.Error = err
		result.ErrorType = "parse_error"
		recordRun(logger, database, &result)
		return result
	}

	eng := engine.New(doc, opts, client, nil)
	result.Stats = eng.Start()

	rewritten, err := doc.HTML()
	if err != nil {
		logger.Error("Worker failed to render page", "worker", id, "url", job.URL, "error", err)
		result.Error = err
		result.ErrorType = "render_error"
		recordRun(logger, database, &result)
		return result
	}

	path, err := manager.RewrittenPath(job.URL)
	if err == nil {
		err = store.SaveFile(path, []byte(rewritten))
	}
	if err != nil {
		logger.Error("Worker failed to save artifact", "worker", id, "url", job.URL, "error", err)
		result.Error = err
		result.ErrorType = "save_error"
		recordRun(logger, database, &result)
		return result
	}
	result.FilePath = path

	recordRun(logger, database, &result)
	recordCSSFetches(logger, database, result.RunID, fetches)
	logger.Info("Worker finished job", "worker", id, "url", job.URL,
		"rules_collected", result.Stats.RulesCollected, "rules_emitted", result.Stats.RulesEmitted)
	return result
}

// recordRun writes the run row and stores its id on the result. History is
// observability only, so failures are logged and swallowed.
func recordRun(logger *slog.Logger, database *db.DB, result *Result) {
	if database == nil {
		return
	}
	row := db.Run{
		PageURL:         result.URL,
		StylesheetCount: result.Stats.Stylesheets,
		RulesCollected:  result.Stats.RulesCollected,
		RulesEmitted:    result.Stats.RulesEmitted,
		InlineFixed:     result.Stats.InlineFixed,
		Status:          "success",
	}
	if result.Error != nil {
		row.Status = result.ErrorType
		row.ErrorMessage = result.Error.Error()
	}
	runID, err := database.InsertRun(row)
	if err != nil {
		logger.Warn("Failed to record run", "url", result.URL, "error", err)
		return
	}
	result.RunID = runID
}

func recordCSSFetches(logger *slog.Logger, database *db.DB, runID int64, fetches []cssFetchRecord) {
	if database == nil || runID == 0 {
		return
	}
	for _, f := range fetches {
		row := db.CSSFetch{
			RunID:  runID,
			CSSURL: f.url,
			Status: "success",
		}
		if f.err != nil {
			row.Status = "error"
			row.ErrorMessage = f.err.Error()
		} else {
			row.SizeBytes = int64(len(f.body))
			row.ContentHash = common.ContentHash(f.body)
		}
		if err := database.InsertCSSFetch(row); err != nil {
			logger.Warn("Failed to record CSS fetch", "css_url", f.url, "error", err)
		}
	}
}

// run fans the configured URLs out over a worker pool and gathers results.
func run(logger *slog.Logger, config *models.ApplyConfig, opts models.EngineOptions, manager *artifacts.Manager, cache *caching.Cache, database *db.DB, forceFetch bool) []Result {
	store := &storage.Storage{}

	logger.Info("Starting concurrent apply phase", "url_count", len(config.URLs), "workers", config.WorkerCount, "force_fetch", forceFetch)
	var wg sync.WaitGroup
	jobs := make(chan Job, len(config.URLs))
	results := make(chan Result, len(config.URLs))

	workers := config.WorkerCount
	if workers < 1 {
		workers = 1
	}
	for w := 1; w <= workers; w++ {
		wg.Add(1)
		go worker(w, logger, opts, manager, cache, store, database, forceFetch, &wg, jobs, results)
	}

	for _, rawURL := range config.URLs {
		jobs <- Job{URL: rawURL}
	}
	close(jobs)

	wg.Wait()
	close(results)

	all := make([]Result, 0, len(config.URLs))
	for r := range results {
		all = append(all, r)
	}
	return all
}
