package collector

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"xhscollect/internal/downloader"
	"xhscollect/pkg/artifact"
	"xhscollect/pkg/auth"
	"xhscollect/pkg/config"
	"xhscollect/pkg/export"
	"xhscollect/pkg/logger"
	"xhscollect/pkg/ratelimit"
	"xhscollect/pkg/stats"
	"xhscollect/pkg/xhs"
)

// Facade wires the collection components together and exposes the
// operations the CLI runs: single-category campaigns, full runs across all
// categories, known-user collection and the scheduled job body.
type Facade struct {
	cfg    *config.Config
	source NoteSource
	store  *artifact.Store
	gate   *ratelimit.Gate
	pacing Pacing
	logger logger.Logger

	// Progress, when set, is forwarded to every campaign runner.
	Progress func(category, keyword string, done, total int)
}

// NewFacade builds a facade from the resolved configuration and session
// credentials. The artifact layout is created immediately so startup fails
// fast on an unwritable data directory.
func NewFacade(cfg *config.Config, creds *auth.Credentials, log logger.Logger) (*Facade, error) {
	userAgent := creds.UserAgent
	if userAgent == "" {
		userAgent = cfg.XHS.UserAgent
	}

	client := xhs.NewClient(creds.Cookies, userAgent, cfg.Download.DownloadTimeout, log)
	if cfg.XHS.APIBase != "" {
		client.SetAPIBaseURL(cfg.XHS.APIBase)
	}

	store, err := artifact.NewStore(cfg.Output.DataDirectory, export.NewExcelWriter())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare data directory: %w", err)
	}

	return &Facade{
		cfg:    cfg,
		source: client,
		store:  store,
		gate:   ratelimit.NewGate(),
		pacing: PacingFromConfig(cfg.Pacing),
		logger: log,
	}, nil
}

// Store exposes the artifact store, mainly so the CLI can resolve paths.
func (f *Facade) Store() *artifact.Store {
	return f.store
}

// keywordsFor resolves the keyword list for a category. Configured keyword
// overrides take precedence over the built-in sets.
func (f *Facade) keywordsFor(category string) []string {
	if kws, ok := f.cfg.Collection.Keywords[category]; ok && len(kws) > 0 {
		return kws
	}
	return BuiltinKeywords(category)
}

// newRunner assembles a campaign runner for one category, with a fresh
// worker pool when the save mode includes media.
func (f *Facade) newRunner(category string) *CampaignRunner {
	opts := Options{
		NotesPerKeyword: f.cfg.Collection.NotesPerKeyword,
		Sort:            f.cfg.Collection.Sort,
		NoteType:        f.cfg.Collection.NoteType,
		SaveMode:        f.cfg.Collection.SaveMode,
	}

	var pool *downloader.WorkerPool
	if _, media := saveModes(opts.SaveMode); media {
		pool = downloader.NewWorkerPool(
			f.cfg.Download.ConcurrentDownloads,
			f.source,
			f.store,
			ratelimit.NewTokenBucket(f.cfg.RateLimit.RequestsPerMinute, time.Minute),
			f.cfg.Download.RetryAttempts,
			f.logger,
		)
	}

	runner := NewCampaignRunner(f.source, f.store, pool, f.gate, f.pacing, category, opts, f.logger)
	runner.Progress = f.Progress
	return runner
}

// RunCategory runs a full campaign over one keyword category.
func (f *Facade) RunCategory(ctx context.Context, category string) (*stats.CollectionRun, error) {
	keywords := f.keywordsFor(category)
	if len(keywords) == 0 {
		return nil, fmt.Errorf("no keywords configured for category %q", category)
	}
	return f.newRunner(category).Run(ctx, keywords)
}

// RunAll runs every keyword category in order, then collects the configured
// known-user profiles. Long pauses separate the categories.
func (f *Facade) RunAll(ctx context.Context) ([]*stats.CollectionRun, error) {
	categories := KeywordCategories()
	userURLs := f.cfg.Collection.UserURLs

	runs := make([]*stats.CollectionRun, 0, len(categories))
	for i, category := range categories {
		run, err := f.RunCategory(ctx, category)
		if run != nil {
			runs = append(runs, run)
		}
		if err != nil {
			return runs, err
		}

		last := i == len(categories)-1 && len(userURLs) == 0
		if !last {
			if err := f.gate.Wait(ctx, f.pacing.Category); err != nil {
				return runs, err
			}
		}
	}

	if len(userURLs) > 0 {
		if _, err := f.CollectUsers(ctx); err != nil {
			return runs, err
		}
	}

	return runs, nil
}

// CollectUser collects the recent notes of one known user profile. Records
// land under the known_users category keyed by the user id. Returns how
// many notes were collected. User collection produces artifacts but no
// stats file.
func (f *Facade) CollectUser(ctx context.Context, profileURL string) (int, error) {
	userID, err := xhs.ParseUserID(profileURL)
	if err != nil {
		return 0, err
	}

	profile, err := f.source.GetUserProfile(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch profile %s: %w", userID, err)
	}

	f.logger.InfoWithFields("Collecting user", map[string]interface{}{
		"user_id":   userID,
		"nickname":  profile.BasicInfo.Nickname,
		"followers": profile.Followers(),
	})

	refs, err := f.userNoteRefs(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(refs) == 0 {
		f.logger.InfoWithFields("User has no notes", map[string]interface{}{"user_id": userID})
		return 0, nil
	}

	items := NewItemCollector(f.source, f.gate, f.pacing, CategoryKnownUsers, f.logger)
	records := items.Collect(ctx, refs, userID)
	if len(records) == 0 {
		return 0, nil
	}

	// The note card only carries a thin author snapshot; enrich it from
	// the profile.
	for i := range records {
		records[i].Author.Desc = profile.BasicInfo.Desc
		records[i].Author.Followers = profile.Followers()
		records[i].Author.Following = profile.Following()
		if records[i].Author.Nickname == "" {
			records[i].Author.Nickname = profile.BasicInfo.Nickname
		}
	}

	saveExcel, saveMedia := saveModes(f.cfg.Collection.SaveMode)
	if saveMedia {
		pool := downloader.NewWorkerPool(
			f.cfg.Download.ConcurrentDownloads,
			f.source,
			f.store,
			ratelimit.NewTokenBucket(f.cfg.RateLimit.RequestsPerMinute, time.Minute),
			f.cfg.Download.RetryAttempts,
			f.logger,
		)
		pool.Start()
		done := make(chan struct{})
		go func() {
			defer close(done)
			for res := range pool.Results() {
				if !res.Success {
					f.logger.WarnWithFields("Media download failed", map[string]interface{}{
						"note_id":  res.Job.NoteID,
						"filename": res.Job.Filename,
						"error":    res.Error.Error(),
					})
				}
			}
		}()
	submit:
		for _, rec := range records {
			for _, job := range mediaJobs(rec, CategoryKnownUsers, userID) {
				if err := pool.Submit(job); err != nil {
					f.logger.WarnWithFields("Media job rejected", map[string]interface{}{
						"note_id": job.NoteID,
						"error":   err.Error(),
					})
					break submit
				}
			}
		}
		pool.Stop()
		<-done
	}
	if saveExcel {
		if err := f.store.WriteExcel(records, CategoryKnownUsers, userID); err != nil {
			f.logger.ErrorWithFields("Excel export failed", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
		}
	}

	f.logger.InfoWithFields("User collected", map[string]interface{}{
		"user_id": userID,
		"notes":   len(records),
	})
	return len(records), nil
}

// userNoteRefs paginates the user's posted notes up to the per-keyword note
// budget.
func (f *Facade) userNoteRefs(ctx context.Context, userID string) ([]xhs.NoteRef, error) {
	target := f.cfg.Collection.NotesPerKeyword
	refs := make([]xhs.NoteRef, 0, target)

	cursor := ""
	for len(refs) < target {
		page, err := f.source.GetUserNotes(ctx, userID, cursor)
		if err != nil {
			return nil, err
		}

		for _, note := range page.Notes {
			refs = append(refs, xhs.NoteRef{ID: note.NoteID, XsecToken: note.XsecToken})
			if len(refs) >= target {
				break
			}
		}

		if !page.HasMore || len(refs) >= target {
			break
		}
		cursor = page.Cursor
		if err := f.gate.Wait(ctx, f.pacing.Page); err != nil {
			return nil, err
		}
	}

	return refs, nil
}

// ScheduledJob returns the job body for scheduled mode: a bounded random
// sample of each category's keywords, then the configured known users.
// Errors never escape; the scheduler must come back for the next trigger.
func (f *Facade) ScheduledJob(keywordsPerRun int) func(ctx context.Context) {
	return func(ctx context.Context) {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		categories := KeywordCategories()
		userURLs := f.cfg.Collection.UserURLs

		for i, category := range categories {
			if ctx.Err() != nil {
				return
			}

			keywords := SampleKeywords(f.keywordsFor(category), keywordsPerRun, rng)
			if len(keywords) == 0 {
				continue
			}

			if _, err := f.newRunner(category).Run(ctx, keywords); err != nil {
				f.logger.ErrorWithFields("Scheduled campaign failed", map[string]interface{}{
					"category": category,
					"error":    err.Error(),
				})
			}

			last := i == len(categories)-1 && len(userURLs) == 0
			if !last {
				if err := f.gate.Wait(ctx, f.pacing.Category); err != nil {
					return
				}
			}
		}

		if len(userURLs) > 0 {
			// Per-user failures are logged inside; an error here only
			// means the run was cancelled.
			_, _ = f.CollectUsers(ctx)
		}
	}
}

// CollectUsers collects every configured known-user profile with user
// pacing between them. Per-user failures are logged and skipped; the
// returned error is non-nil only when no users are configured or the run
// is cancelled mid-pacing. Returns the total note count.
func (f *Facade) CollectUsers(ctx context.Context) (int, error) {
	userURLs := f.cfg.Collection.UserURLs
	if len(userURLs) == 0 {
		return 0, fmt.Errorf("no user URLs configured")
	}

	total := 0
	for i, profileURL := range userURLs {
		if ctx.Err() != nil {
			break
		}
		n, err := f.CollectUser(ctx, profileURL)
		if err != nil {
			f.logger.WarnWithFields("User collection failed", map[string]interface{}{
				"url":   profileURL,
				"error": err.Error(),
			})
		}
		total += n
		if i < len(userURLs)-1 {
			if err := f.gate.Wait(ctx, f.pacing.User); err != nil {
				return total, err
			}
		}
	}
	return total, nil
}
