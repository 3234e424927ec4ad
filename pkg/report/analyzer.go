// Package report is the offline analysis stage: it reads the spreadsheets a
// collection run produced and renders word-frequency and engagement metrics
// as a JSON dataset plus an HTML report.
package report

import (
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"xhscollect/pkg/export"
	"xhscollect/pkg/logger"
	"xhscollect/pkg/models"
)

// WordCount is one entry of the word frequency ranking.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// PostRef points at one note in an engagement ranking.
type PostRef struct {
	NoteID string `json:"note_id"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	Count  int    `json:"count"`
}

// TextAnalysis holds the word frequency ranking over titles and
// descriptions.
type TextAnalysis struct {
	WordFreq []WordCount `json:"word_freq"`
}

// UserMetrics aggregates engagement and distribution figures across every
// loaded record.
type UserMetrics struct {
	TotalNotes           int            `json:"total_notes"`
	CategoryDistribution map[string]int `json:"category_distribution"`
	KeywordDistribution  map[string]int `json:"keyword_distribution"`

	AvgLikes      float64   `json:"avg_likes"`
	MaxLikes      int       `json:"max_likes"`
	TopLikedPosts []PostRef `json:"top_liked_posts"`

	AvgComments       float64   `json:"avg_comments"`
	MaxComments       int       `json:"max_comments"`
	TopCommentedPosts []PostRef `json:"top_commented_posts"`

	AvgCollects float64 `json:"avg_collects"`
	MaxCollects int     `json:"max_collects"`

	TopUsers map[string]int `json:"top_users"`
}

// Analysis is the full analysis dataset persisted as analysis_data.json.
type Analysis struct {
	TextAnalysis TextAnalysis `json:"text_analysis"`
	UserMetrics  UserMetrics  `json:"user_metrics"`
	Timestamp    string       `json:"timestamp"`
}

const (
	topWords     = 50
	topPostCount = 10
	topUserCount = 20
	topKeywords  = 20
)

// Analyzer loads every exported workbook under a data directory and writes
// the analysis artifacts next to them.
type Analyzer struct {
	dataDir string
	outDir  string
	logger  logger.Logger
}

// NewAnalyzer creates an analyzer rooted at dataDir, the directory that
// holds the excel/ and media/ trees.
func NewAnalyzer(dataDir string, log logger.Logger) *Analyzer {
	return &Analyzer{
		dataDir: dataDir,
		outDir:  filepath.Join(dataDir, "analysis"),
		logger:  log,
	}
}

// Run loads the collected records, computes the analysis and writes
// analysis_data.json and report.html under <dataDir>/analysis. It fails
// when no records can be loaded at all.
func (a *Analyzer) Run() error {
	records, err := a.loadRecords()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no collected data found under %s", filepath.Join(a.dataDir, "excel"))
	}

	a.logger.InfoWithFields("Loaded records for analysis", map[string]interface{}{
		"records": len(records),
	})

	analysis := BuildAnalysis(records)

	if err := os.MkdirAll(a.outDir, 0755); err != nil {
		return fmt.Errorf("failed to create analysis directory: %w", err)
	}
	if err := a.writeJSON(analysis); err != nil {
		return err
	}
	if err := a.writeHTML(analysis); err != nil {
		return err
	}

	a.logger.InfoWithFields("Analysis complete", map[string]interface{}{
		"output_dir": a.outDir,
	})
	return nil
}

// loadRecords reads every workbook under excel/<category>/. Records missing
// provenance columns get them backfilled from the file location, mirroring
// how the artifact layout encodes category and keyword.
func (a *Analyzer) loadRecords() ([]models.Record, error) {
	pattern := filepath.Join(a.dataDir, "excel", "*", "*.xlsx")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list workbooks: %w", err)
	}

	var records []models.Record
	for _, file := range files {
		recs, err := export.ReadRecords(file)
		if err != nil {
			a.logger.WarnWithFields("Skipping unreadable workbook", map[string]interface{}{
				"file":  file,
				"error": err.Error(),
			})
			continue
		}

		category := filepath.Base(filepath.Dir(file))
		keyword := keywordFromFilename(filepath.Base(file))
		for i := range recs {
			if recs[i].Category == "" {
				recs[i].Category = category
			}
			if recs[i].SearchKeyword == "" {
				recs[i].SearchKeyword = keyword
			}
		}
		records = append(records, recs...)
	}

	return records, nil
}

// keywordFromFilename recovers the partition key from a
// "<keyword>_<YYYYMMDD_HHMMSS>.xlsx" file name.
func keywordFromFilename(name string) string {
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if i := strings.Index(name, "_"); i > 0 {
		return name[:i]
	}
	return name
}

// BuildAnalysis computes the full analysis dataset over a record set.
func BuildAnalysis(records []models.Record) *Analysis {
	metrics := UserMetrics{
		TotalNotes:           len(records),
		CategoryDistribution: make(map[string]int),
		KeywordDistribution:  make(map[string]int),
	}

	userCounts := make(map[string]int)
	var likeSum, commentSum, collectSum int
	for _, rec := range records {
		metrics.CategoryDistribution[rec.Category]++
		metrics.KeywordDistribution[rec.SearchKeyword]++

		likeSum += rec.LikeCount
		commentSum += rec.CommentCount
		collectSum += rec.CollectCount
		if rec.LikeCount > metrics.MaxLikes {
			metrics.MaxLikes = rec.LikeCount
		}
		if rec.CommentCount > metrics.MaxComments {
			metrics.MaxComments = rec.CommentCount
		}
		if rec.CollectCount > metrics.MaxCollects {
			metrics.MaxCollects = rec.CollectCount
		}

		if rec.Author.Nickname != "" {
			userCounts[rec.Author.Nickname]++
		}
	}

	if n := float64(len(records)); n > 0 {
		metrics.AvgLikes = float64(likeSum) / n
		metrics.AvgComments = float64(commentSum) / n
		metrics.AvgCollects = float64(collectSum) / n
	}

	metrics.KeywordDistribution = topCounts(metrics.KeywordDistribution, topKeywords)
	metrics.TopUsers = topCounts(userCounts, topUserCount)
	metrics.TopLikedPosts = topPosts(records, func(r models.Record) int { return r.LikeCount }, topPostCount)
	metrics.TopCommentedPosts = topPosts(records, func(r models.Record) int { return r.CommentCount }, topPostCount)

	return &Analysis{
		TextAnalysis: TextAnalysis{WordFreq: WordFrequencies(records, topWords)},
		UserMetrics:  metrics,
		Timestamp:    time.Now().Format(models.TimeLayout),
	}
}

// WordFrequencies ranks the terms of every title and description. Ties
// break alphabetically so the ranking is stable.
func WordFrequencies(records []models.Record, topN int) []WordCount {
	counts := make(map[string]int)
	for _, rec := range records {
		for _, token := range Tokenize(rec.Title) {
			counts[token]++
		}
		for _, token := range Tokenize(rec.Desc) {
			counts[token]++
		}
	}

	ranked := make([]WordCount, 0, len(counts))
	for word, count := range counts {
		ranked = append(ranked, WordCount{Word: word, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Word < ranked[j].Word
	})

	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// topPosts ranks records by an engagement counter and keeps the first n.
func topPosts(records []models.Record, count func(models.Record) int, n int) []PostRef {
	sorted := make([]models.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return count(sorted[i]) > count(sorted[j])
	})

	if len(sorted) > n {
		sorted = sorted[:n]
	}
	refs := make([]PostRef, 0, len(sorted))
	for _, rec := range sorted {
		refs = append(refs, PostRef{
			NoteID: rec.NoteID,
			Title:  rec.Title,
			URL:    rec.URL,
			Count:  count(rec),
		})
	}
	return refs
}

// topCounts keeps the n highest entries of a counter map.
func topCounts(counts map[string]int, n int) map[string]int {
	if len(counts) <= n {
		return counts
	}

	type pair struct {
		key   string
		count int
	}
	pairs := make([]pair, 0, len(counts))
	for k, v := range counts {
		pairs = append(pairs, pair{k, v})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count != pairs[j].count {
			return pairs[i].count > pairs[j].count
		}
		return pairs[i].key < pairs[j].key
	})

	top := make(map[string]int, n)
	for _, p := range pairs[:n] {
		top[p.key] = p.count
	}
	return top
}

// writeJSON persists the analysis dataset atomically.
func (a *Analyzer) writeJSON(analysis *Analysis) error {
	path := filepath.Join(a.outDir, "analysis_data.json")
	tempPath := path + ".tmp"

	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create analysis file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(analysis); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode analysis data: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync analysis file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close analysis file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace analysis file: %w", err)
	}
	return nil
}

// writeHTML renders the human-readable report.
func (a *Analyzer) writeHTML(analysis *Analysis) error {
	view := newReportView(analysis)

	path := filepath.Join(a.outDir, "report.html")
	tempPath := path + ".tmp"

	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	if err := reportTemplate.Execute(file, view); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to render report: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync report file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close report file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace report file: %w", err)
	}
	return nil
}

// reportView flattens the analysis into ordered rows for the template.
type reportView struct {
	Timestamp     string
	TotalNotes    int
	CategoryCount int
	KeywordCount  int
	AvgLikes      string
	AvgComments   string
	AvgCollects   string
	TopWords      []WordCount
	TopLiked      []PostRef
	TopCommented  []PostRef
	Categories    []WordCount
	Keywords      []WordCount
	Users         []WordCount
}

func newReportView(analysis *Analysis) reportView {
	m := analysis.UserMetrics
	return reportView{
		Timestamp:     analysis.Timestamp,
		TotalNotes:    m.TotalNotes,
		CategoryCount: len(m.CategoryDistribution),
		KeywordCount:  len(m.KeywordDistribution),
		AvgLikes:      fmt.Sprintf("%.2f", m.AvgLikes),
		AvgComments:   fmt.Sprintf("%.2f", m.AvgComments),
		AvgCollects:   fmt.Sprintf("%.2f", m.AvgCollects),
		TopWords:      analysis.TextAnalysis.WordFreq,
		TopLiked:      m.TopLikedPosts,
		TopCommented:  m.TopCommentedPosts,
		Categories:    sortedCounts(m.CategoryDistribution),
		Keywords:      sortedCounts(m.KeywordDistribution),
		Users:         sortedCounts(m.TopUsers),
	}
}

// sortedCounts turns a counter map into rows ordered by count.
func sortedCounts(counts map[string]int) []WordCount {
	rows := make([]WordCount, 0, len(counts))
	for k, v := range counts {
		rows = append(rows, WordCount{Word: k, Count: v})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Word < rows[j].Word
	})
	return rows
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>小红书维权数据分析报告</title>
<style>
body { font-family: Arial, sans-serif; margin: 0; padding: 20px; color: #333; }
h1, h2, h3 { color: #d81e06; }
h1 { border-bottom: 2px solid #d81e06; padding-bottom: 10px; }
table { border-collapse: collapse; width: 100%; margin-bottom: 20px; }
th, td { text-align: left; padding: 12px; }
th { background-color: #f2f2f2; }
tr:nth-child(even) { background-color: #f9f9f9; }
.container { max-width: 1200px; margin: 0 auto; }
.summary { background-color: #f8f9fa; padding: 15px; border-radius: 5px; margin-bottom: 20px; }
</style>
</head>
<body>
<div class="container">
<h1>小红书维权数据分析报告</h1>
<p>生成时间: {{.Timestamp}}</p>

<div class="summary">
<h2>数据概览</h2>
<p>总笔记数量: <strong>{{.TotalNotes}}</strong></p>
<p>分析类别数量: <strong>{{.CategoryCount}}</strong></p>
<p>分析关键词数量: <strong>{{.KeywordCount}}</strong></p>
<p>平均点赞数: <strong>{{.AvgLikes}}</strong></p>
<p>平均评论数: <strong>{{.AvgComments}}</strong></p>
<p>平均收藏数: <strong>{{.AvgCollects}}</strong></p>
</div>

<h2>文本分析</h2>
<h3>高频词汇</h3>
<table>
<tr><th>词汇</th><th>出现次数</th></tr>
{{range .TopWords}}<tr><td>{{.Word}}</td><td>{{.Count}}</td></tr>
{{end}}</table>

<h2>交互指标分析</h2>
<h3>点赞最多的笔记</h3>
<table>
<tr><th>标题</th><th>点赞数</th></tr>
{{range .TopLiked}}<tr><td><a href="{{.URL}}" target="_blank">{{.Title}}</a></td><td>{{.Count}}</td></tr>
{{end}}</table>

<h3>评论最多的笔记</h3>
<table>
<tr><th>标题</th><th>评论数</th></tr>
{{range .TopCommented}}<tr><td><a href="{{.URL}}" target="_blank">{{.Title}}</a></td><td>{{.Count}}</td></tr>
{{end}}</table>

<h3>类别分布</h3>
<table>
<tr><th>类别</th><th>数量</th></tr>
{{range .Categories}}<tr><td>{{.Word}}</td><td>{{.Count}}</td></tr>
{{end}}</table>

<h3>热门关键词分布</h3>
<table>
<tr><th>关键词</th><th>数量</th></tr>
{{range .Keywords}}<tr><td>{{.Word}}</td><td>{{.Count}}</td></tr>
{{end}}</table>

<h3>最活跃用户</h3>
<table>
<tr><th>用户</th><th>发布笔记数</th></tr>
{{range .Users}}<tr><td>{{.Word}}</td><td>{{.Count}}</td></tr>
{{end}}</table>
</div>
</body>
</html>
`))
