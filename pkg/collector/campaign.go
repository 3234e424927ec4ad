package collector

import (
	"context"
	"fmt"
	"sync"

	"xhscollect/internal/downloader"
	"xhscollect/pkg/artifact"
	"xhscollect/pkg/logger"
	"xhscollect/pkg/models"
	"xhscollect/pkg/ratelimit"
	"xhscollect/pkg/stats"
	"xhscollect/pkg/xhs"
)

// Options holds the per-campaign collection parameters.
type Options struct {
	NotesPerKeyword int
	Sort            string
	NoteType        int
	SaveMode        string
}

// saveModes expands a save mode into its excel and media flags. Unknown
// modes behave like "all".
func saveModes(mode string) (excel, media bool) {
	switch mode {
	case "excel":
		return true, false
	case "media":
		return false, true
	default:
		return true, true
	}
}

// CampaignRunner drives one collection campaign: a list of keywords searched
// in order within a single category. Keywords never run in parallel; only
// media downloads fan out through the worker pool.
type CampaignRunner struct {
	source   NoteSource
	items    *ItemCollector
	store    *artifact.Store
	pool     *downloader.WorkerPool
	gate     *ratelimit.Gate
	pacing   Pacing
	category string
	opts     Options
	logger   logger.Logger

	// Progress, when set, is invoked after each keyword completes.
	Progress func(category, keyword string, done, total int)
}

// NewCampaignRunner creates a runner for one category. pool may be nil when
// the save mode excludes media; a fresh pool is required per run since pools
// cannot be restarted.
func NewCampaignRunner(source NoteSource, store *artifact.Store, pool *downloader.WorkerPool, gate *ratelimit.Gate, pacing Pacing, category string, opts Options, log logger.Logger) *CampaignRunner {
	return &CampaignRunner{
		source:   source,
		items:    NewItemCollector(source, gate, pacing, category, log),
		store:    store,
		pool:     pool,
		gate:     gate,
		pacing:   pacing,
		category: category,
		opts:     opts,
		logger:   log,
	}
}

// Run collects every keyword in order and persists the run statistics. The
// returned CollectionRun reflects what actually happened; collection-level
// failures are recorded in it rather than returned. The error is non-nil
// only when the stats file itself cannot be written.
func (cr *CampaignRunner) Run(ctx context.Context, keywords []string) (*stats.CollectionRun, error) {
	run := stats.NewCollectionRun(cr.category, len(keywords))

	saveExcel, saveMedia := saveModes(cr.opts.SaveMode)
	mediaEnabled := saveMedia && cr.pool != nil

	cr.logger.InfoWithFields("Starting campaign", map[string]interface{}{
		"category":  cr.category,
		"keywords":  len(keywords),
		"save_mode": cr.opts.SaveMode,
	})

	var drain sync.WaitGroup
	if mediaEnabled {
		cr.pool.Start()
		drain.Add(1)
		go func() {
			defer drain.Done()
			for res := range cr.pool.Results() {
				if !res.Success {
					cr.logger.WarnWithFields("Media download failed", map[string]interface{}{
						"note_id":  res.Job.NoteID,
						"filename": res.Job.Filename,
						"error":    res.Error.Error(),
					})
				}
			}
		}()
	}

	for i, keyword := range keywords {
		if ctx.Err() != nil {
			break
		}

		records := cr.collectKeyword(ctx, run, keyword)
		if len(records) > 0 {
			if mediaEnabled {
				cr.submitMedia(records, keyword)
			}
			if saveExcel {
				if err := cr.store.WriteExcel(records, cr.category, keyword); err != nil {
					cr.logger.ErrorWithFields("Excel export failed", map[string]interface{}{
						"category": cr.category,
						"keyword":  keyword,
						"error":    err.Error(),
					})
				}
			}
			run.RecordSuccess(len(records))
		}

		if cr.Progress != nil {
			cr.Progress(cr.category, keyword, i+1, len(keywords))
		}

		if err := cr.gate.Wait(ctx, cr.pacing.Keyword); err != nil {
			break
		}
	}

	if mediaEnabled {
		cr.pool.Stop()
		drain.Wait()
	}

	statsPath := cr.store.StatsPath(cr.category, run.Started)
	if err := run.Save(statsPath); err != nil {
		return run, fmt.Errorf("failed to save run stats: %w", err)
	}

	cr.logger.InfoWithFields("Campaign finished", map[string]interface{}{
		"category":            cr.category,
		"total_keywords":      run.TotalKeywords,
		"successful_keywords": run.SuccessfulKeywords,
		"total_notes":         run.TotalNotes,
		"failed_keywords":     len(run.FailedKeywords),
		"stats_file":          statsPath,
	})

	return run, nil
}

// collectKeyword searches one keyword and fetches the surviving notes. A
// search error is recorded as a keyword failure; a keyword that simply
// yields nothing is neither a success nor a failure.
func (cr *CampaignRunner) collectKeyword(ctx context.Context, run *stats.CollectionRun, keyword string) []models.Record {
	refs, err := cr.searchKeyword(ctx, keyword)
	if err != nil {
		if ctx.Err() != nil {
			// Run is being cancelled, not a keyword failure.
			return nil
		}
		cr.logger.WarnWithFields("Search failed", map[string]interface{}{
			"category": cr.category,
			"keyword":  keyword,
			"error":    err.Error(),
		})
		run.RecordFailure(keyword, err.Error())
		return nil
	}
	if len(refs) == 0 {
		cr.logger.InfoWithFields("No notes found", map[string]interface{}{
			"category": cr.category,
			"keyword":  keyword,
		})
		return nil
	}

	records := cr.items.Collect(ctx, refs, keyword)
	if len(records) == 0 {
		cr.logger.WarnWithFields("All detail fetches failed", map[string]interface{}{
			"category": cr.category,
			"keyword":  keyword,
			"refs":     len(refs),
		})
		return nil
	}

	cr.logger.InfoWithFields("Keyword collected", map[string]interface{}{
		"category": cr.category,
		"keyword":  keyword,
		"notes":    len(records),
		"skipped":  len(refs) - len(records),
	})
	return records
}

// searchKeyword paginates the search endpoint until enough note references
// are gathered or results run out. Entries that are not notes (inline query
// suggestions, user cards) are discarded. Any page error fails the whole
// keyword.
func (cr *CampaignRunner) searchKeyword(ctx context.Context, keyword string) ([]xhs.NoteRef, error) {
	target := cr.opts.NotesPerKeyword
	refs := make([]xhs.NoteRef, 0, target)

	for page := 1; len(refs) < target; page++ {
		data, err := cr.source.SearchNotes(ctx, keyword, page, cr.opts.Sort, cr.opts.NoteType)
		if err != nil {
			return nil, err
		}

		for _, item := range data.Items {
			if item.ModelType != "note" {
				continue
			}
			refs = append(refs, xhs.NoteRef{ID: item.ID, XsecToken: item.XsecToken})
			if len(refs) >= target {
				break
			}
		}

		if !data.HasMore || len(refs) >= target {
			break
		}
		if err := cr.gate.Wait(ctx, cr.pacing.Page); err != nil {
			return nil, err
		}
	}

	return refs, nil
}

// submitMedia queues the media files of each record. Video notes yield a
// cover image and the video stream; image notes yield every image.
func (cr *CampaignRunner) submitMedia(records []models.Record, partitionKey string) {
	for _, rec := range records {
		for _, job := range mediaJobs(rec, cr.category, partitionKey) {
			if err := cr.pool.Submit(job); err != nil {
				cr.logger.WarnWithFields("Media job rejected", map[string]interface{}{
					"note_id":  job.NoteID,
					"filename": job.Filename,
					"error":    err.Error(),
				})
				return
			}
		}
	}
}

// mediaJobs builds the download jobs for one record.
func mediaJobs(rec models.Record, category, partitionKey string) []downloader.MediaJob {
	var jobs []downloader.MediaJob

	if rec.IsVideo() {
		if len(rec.ImageURLs) > 0 {
			jobs = append(jobs, downloader.MediaJob{
				URL:          rec.ImageURLs[0],
				NoteID:       rec.NoteID,
				Category:     category,
				PartitionKey: partitionKey,
				Filename:     rec.NoteID + "_cover.jpg",
			})
		}
		if rec.VideoURL != "" {
			jobs = append(jobs, downloader.MediaJob{
				URL:          rec.VideoURL,
				NoteID:       rec.NoteID,
				Category:     category,
				PartitionKey: partitionKey,
				Filename:     rec.NoteID + ".mp4",
			})
		}
		return jobs
	}

	for i, u := range rec.ImageURLs {
		jobs = append(jobs, downloader.MediaJob{
			URL:          u,
			NoteID:       rec.NoteID,
			Category:     category,
			PartitionKey: partitionKey,
			Filename:     fmt.Sprintf("%s_%d.jpg", rec.NoteID, i),
		})
	}
	return jobs
}
