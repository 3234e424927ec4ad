package integration

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"xhscollect/pkg/collector"
	"xhscollect/pkg/export"
	"xhscollect/pkg/report"
	"xhscollect/pkg/stats"
	"xhscollect/pkg/xhs"
)

// TestCampaignEndToEnd drives a full keyword campaign against the mock API
// and checks every artifact the run leaves on disk.
func TestCampaignEndToEnd(t *testing.T) {
	h := NewTestHelper(t)
	mock := h.SetupMockServer()

	keyword := "医美维权"
	n1 := noteIDSuffix(1)
	n2 := noteIDSuffix(2)
	n3 := noteIDSuffix(3)
	h.SeedImageNote(keyword, n1, "医美维权成功经历", "详细讲讲整个退款过程")
	h.SeedImageNote(keyword, n2, "整形失败如何取证", "病历和聊天记录都要留好")
	h.SeedVideoNote(keyword, n3, "维权全过程记录")
	mock.AddComments(n1,
		xhs.Comment{ID: "c1", Content: "同样被坑，求流程", CreateTime: 1700000000000, UserInfo: xhs.CommentUser{UserID: "cu1", Nickname: "阿明"}},
		xhs.Comment{ID: "c2", Content: "已私信", CreateTime: 1700000100000, UserInfo: xhs.CommentUser{UserID: "cu2", Nickname: "小李"}},
	)

	cfg := h.CreateTestConfig()
	cfg.Collection.Keywords = map[string][]string{collector.CategoryMedicalBeauty: {keyword}}

	facade, err := collector.NewFacade(cfg, h.TestCredentials(), h.CreateTestLogger())
	if err != nil {
		t.Fatalf("Failed to build facade: %v", err)
	}

	run, err := facade.RunCategory(context.Background(), collector.CategoryMedicalBeauty)
	if err != nil {
		t.Fatalf("Campaign failed: %v", err)
	}

	if run.TotalKeywords != 1 || run.SuccessfulKeywords != 1 {
		t.Errorf("Run counted %d/%d successful keywords, expected 1/1", run.SuccessfulKeywords, run.TotalKeywords)
	}
	if run.TotalNotes != 3 {
		t.Errorf("Run collected %d notes, expected 3", run.TotalNotes)
	}
	if len(run.FailedKeywords) != 0 {
		t.Errorf("Run recorded unexpected keyword failures: %v", run.FailedKeywords)
	}

	dataDir := facade.Store().DataDir()

	// Stats file sits at the data root and round-trips through JSON.
	statsPath := h.GlobOne(filepath.Join(dataDir, "stats_medical_beauty_*.json"))
	raw, err := os.ReadFile(statsPath)
	if err != nil {
		t.Fatalf("Failed to read stats file: %v", err)
	}
	var saved stats.CollectionRun
	if err := json.Unmarshal(raw, &saved); err != nil {
		t.Fatalf("Stats file is not valid JSON: %v", err)
	}
	if saved.TotalNotes != 3 || saved.SuccessfulKeywords != 1 {
		t.Errorf("Stats file recorded %d notes / %d keywords, expected 3 / 1", saved.TotalNotes, saved.SuccessfulKeywords)
	}

	// One workbook per keyword under the category directory.
	excelPath := h.GlobOne(filepath.Join(dataDir, "excel", "medical_beauty", keyword+"_*.xlsx"))
	records, err := export.ReadRecords(excelPath)
	if err != nil {
		t.Fatalf("Failed to read workbook: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Workbook has %d records, expected 3", len(records))
	}

	first := records[0]
	if first.NoteID != n1 || first.Title != "医美维权成功经历" {
		t.Errorf("First record is %s %q, expected note %s", first.NoteID, first.Title, n1)
	}
	if first.Category != collector.CategoryMedicalBeauty || first.SearchKeyword != keyword {
		t.Errorf("Record provenance is %s/%s, expected %s/%s",
			first.Category, first.SearchKeyword, collector.CategoryMedicalBeauty, keyword)
	}
	if first.LikeCount != 120 || first.CollectCount != 30 {
		t.Errorf("Engagement counters did not survive: likes=%d collects=%d", first.LikeCount, first.CollectCount)
	}
	if len(first.Comments) != 2 || first.Comments[0].Nickname != "阿明" {
		t.Errorf("Comments did not survive the round trip: %+v", first.Comments)
	}
	if !strings.Contains(first.URL, n1) {
		t.Errorf("Record URL %q does not reference the note", first.URL)
	}
	if records[2].NoteType != "video" {
		t.Errorf("Third record type is %q, expected video", records[2].NoteType)
	}

	// Media files land under media/<category>/<keyword>/, named by note id.
	mediaDir := filepath.Join(dataDir, "media", "medical_beauty", keyword)
	h.AssertFileSize(filepath.Join(mediaDir, n1+"_0.jpg"), mockMediaSize)
	h.AssertFileSize(filepath.Join(mediaDir, n2+"_0.jpg"), mockMediaSize)
	h.AssertFileSize(filepath.Join(mediaDir, n3+"_cover.jpg"), mockMediaSize)
	h.AssertFileSize(filepath.Join(mediaDir, n3+".mp4"), mockMediaSize)

	if got := mock.MediaDownloads(); got != 4 {
		t.Errorf("Mock served %d media files, expected 4", got)
	}
}

// TestCampaignKeywordFailureIsolation checks that one blocked keyword does
// not sink the rest of the campaign and still reaches the stats file.
func TestCampaignKeywordFailureIsolation(t *testing.T) {
	h := NewTestHelper(t)
	mock := h.SetupMockServer()

	good := "退款维权"
	bad := "消费陷阱"
	h.SeedImageNote(good, noteIDSuffix(10), "退款成功经验", "耐心协商是关键")
	mock.FailKeyword(bad, -510000)

	cfg := h.CreateTestConfig()
	cfg.Collection.SaveMode = "excel"
	cfg.Collection.Keywords = map[string][]string{collector.CategoryGeneralRights: {bad, good}}

	facade, err := collector.NewFacade(cfg, h.TestCredentials(), h.CreateTestLogger())
	if err != nil {
		t.Fatalf("Failed to build facade: %v", err)
	}

	run, err := facade.RunCategory(context.Background(), collector.CategoryGeneralRights)
	if err != nil {
		t.Fatalf("Campaign returned an error despite keyword isolation: %v", err)
	}

	if run.SuccessfulKeywords != 1 || run.TotalNotes != 1 {
		t.Errorf("Run counted %d keywords / %d notes, expected 1 / 1", run.SuccessfulKeywords, run.TotalNotes)
	}
	if len(run.FailedKeywords) != 1 || run.FailedKeywords[0].Keyword != bad {
		t.Fatalf("Expected %q as the failed keyword, got %v", bad, run.FailedKeywords)
	}
	if run.FailedKeywords[0].Reason == "" {
		t.Error("Keyword failure carries no reason")
	}

	dataDir := facade.Store().DataDir()
	h.GlobOne(filepath.Join(dataDir, "stats_general_rights_*.json"))
	h.GlobOne(filepath.Join(dataDir, "excel", "general_rights", good+"_*.xlsx"))
}

// TestCampaignSkipsBrokenNotes checks that a note whose detail fetch fails
// is dropped without failing its keyword.
func TestCampaignSkipsBrokenNotes(t *testing.T) {
	h := NewTestHelper(t)
	mock := h.SetupMockServer()

	keyword := "维权经验"
	h.SeedImageNote(keyword, noteIDSuffix(20), "有效投诉路径", "按这个顺序走")
	mock.AddSearchRef(keyword, noteIDSuffix(21))

	cfg := h.CreateTestConfig()
	cfg.Collection.SaveMode = "excel"
	cfg.Collection.Keywords = map[string][]string{collector.CategoryGeneralRights: {keyword}}

	facade, err := collector.NewFacade(cfg, h.TestCredentials(), h.CreateTestLogger())
	if err != nil {
		t.Fatalf("Failed to build facade: %v", err)
	}

	run, err := facade.RunCategory(context.Background(), collector.CategoryGeneralRights)
	if err != nil {
		t.Fatalf("Campaign failed: %v", err)
	}

	if run.SuccessfulKeywords != 1 || run.TotalNotes != 1 {
		t.Errorf("Run counted %d keywords / %d notes, expected 1 / 1", run.SuccessfulKeywords, run.TotalNotes)
	}
	if len(run.FailedKeywords) != 0 {
		t.Errorf("A skipped note must not fail its keyword: %v", run.FailedKeywords)
	}

	excelPath := h.GlobOne(filepath.Join(facade.Store().DataDir(), "excel", "general_rights", keyword+"_*.xlsx"))
	records, err := export.ReadRecords(excelPath)
	if err != nil {
		t.Fatalf("Failed to read workbook: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Workbook has %d records, expected 1", len(records))
	}
}

// TestUserCollectionEndToEnd collects a known user against the mock API and
// checks the profile enrichment on the exported records.
func TestUserCollectionEndToEnd(t *testing.T) {
	h := NewTestHelper(t)
	mock := h.SetupMockServer()

	userID := "5ff0e6410000000001008400"
	u1 := noteIDSuffix(30)
	u2 := noteIDSuffix(31)
	h.SeedImageNote("", u1, "我的维权记录一", "第一次协商失败")
	h.SeedVideoNote("", u2, "我的维权记录二")
	mock.AddUser(userID, xhs.UserData{
		BasicInfo: xhs.UserBasicInfo{Nickname: "维权博主", Desc: "记录医美维权全过程", RedID: "12345", IPLocation: "上海"},
		Interactions: []xhs.UserInteract{
			{Type: "fans", Name: "粉丝", Count: "3.5万"},
			{Type: "follows", Name: "关注", Count: "120"},
		},
	}, u1, u2)

	cfg := h.CreateTestConfig()
	facade, err := collector.NewFacade(cfg, h.TestCredentials(), h.CreateTestLogger())
	if err != nil {
		t.Fatalf("Failed to build facade: %v", err)
	}

	profileURL := "https://www.xiaohongshu.com/user/profile/" + userID + "?xsec_token=AB"
	count, err := facade.CollectUser(context.Background(), profileURL)
	if err != nil {
		t.Fatalf("User collection failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Collected %d notes, expected 2", count)
	}

	dataDir := facade.Store().DataDir()
	excelPath := h.GlobOne(filepath.Join(dataDir, "excel", "known_users", userID+"_*.xlsx"))
	records, err := export.ReadRecords(excelPath)
	if err != nil {
		t.Fatalf("Failed to read workbook: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Workbook has %d records, expected 2", len(records))
	}

	for _, rec := range records {
		if rec.Category != collector.CategoryKnownUsers {
			t.Errorf("Record %s categorized as %q, expected %q", rec.NoteID, rec.Category, collector.CategoryKnownUsers)
		}
		if rec.SearchKeyword != userID {
			t.Errorf("Record %s keyed by %q, expected the user id", rec.NoteID, rec.SearchKeyword)
		}
		if rec.Author.Followers != 35000 || rec.Author.Following != 120 {
			t.Errorf("Author not enriched from profile: %+v", rec.Author)
		}
		if rec.Author.Desc != "记录医美维权全过程" {
			t.Errorf("Author desc is %q", rec.Author.Desc)
		}
	}

	// User media lands under the user's own partition.
	h.AssertFileSize(filepath.Join(dataDir, "media", "known_users", userID, u1+"_0.jpg"), mockMediaSize)
	h.AssertFileSize(filepath.Join(dataDir, "media", "known_users", userID, u2+".mp4"), mockMediaSize)
}

// TestRunAllCoversCategoriesAndUsers runs the full campaign surface: every
// keyword category in order, then the configured known users.
func TestRunAllCoversCategoriesAndUsers(t *testing.T) {
	h := NewTestHelper(t)
	mock := h.SetupMockServer()

	userID := "5ff0e6410000000001008401"
	h.SeedImageNote("医美维权", noteIDSuffix(40), "医美维权笔记", "经过")
	h.SeedImageNote("男科维权", noteIDSuffix(41), "男科维权笔记", "经过")
	h.SeedImageNote("消费维权", noteIDSuffix(42), "消费维权笔记", "经过")
	h.SeedImageNote("", noteIDSuffix(43), "博主记录", "记录")
	mock.AddUser(userID, xhs.UserData{
		BasicInfo:    xhs.UserBasicInfo{Nickname: "老读者", Desc: "互助"},
		Interactions: []xhs.UserInteract{{Type: "fans", Name: "粉丝", Count: "5000"}},
	}, noteIDSuffix(43))

	cfg := h.CreateTestConfig()
	cfg.Collection.SaveMode = "excel"
	cfg.Collection.Keywords = map[string][]string{
		collector.CategoryMedicalBeauty: {"医美维权"},
		collector.CategoryMaleHealth:    {"男科维权"},
		collector.CategoryGeneralRights: {"消费维权"},
	}
	cfg.Collection.UserURLs = []string{"https://www.xiaohongshu.com/user/profile/" + userID}

	facade, err := collector.NewFacade(cfg, h.TestCredentials(), h.CreateTestLogger())
	if err != nil {
		t.Fatalf("Failed to build facade: %v", err)
	}

	runs, err := facade.RunAll(context.Background())
	if err != nil {
		t.Fatalf("Full run failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("Full run produced %d category runs, expected 3", len(runs))
	}

	for i, category := range collector.KeywordCategories() {
		if runs[i].Category != category {
			t.Errorf("Run %d covers %q, expected %q", i, runs[i].Category, category)
		}
		if runs[i].TotalNotes != 1 {
			t.Errorf("Category %s collected %d notes, expected 1", category, runs[i].TotalNotes)
		}
	}

	dataDir := facade.Store().DataDir()
	for _, category := range collector.KeywordCategories() {
		h.GlobOne(filepath.Join(dataDir, "stats_"+category+"_*.json"))
	}
	h.GlobOne(filepath.Join(dataDir, "excel", "known_users", userID+"_*.xlsx"))
}

// TestCollectThenAnalyze runs a campaign and then the offline analysis stage
// over its artifacts.
func TestCollectThenAnalyze(t *testing.T) {
	h := NewTestHelper(t)
	h.SetupMockServer()

	keyword := "医美退款"
	h.SeedImageNote(keyword, noteIDSuffix(50), "医美退款成功", "历时两个月终于退款成功")
	h.SeedImageNote(keyword, noteIDSuffix(51), "医美退款攻略", "协商话术整理")

	cfg := h.CreateTestConfig()
	cfg.Collection.SaveMode = "excel"
	cfg.Collection.Keywords = map[string][]string{collector.CategoryMedicalBeauty: {keyword}}

	facade, err := collector.NewFacade(cfg, h.TestCredentials(), h.CreateTestLogger())
	if err != nil {
		t.Fatalf("Failed to build facade: %v", err)
	}
	if _, err := facade.RunCategory(context.Background(), collector.CategoryMedicalBeauty); err != nil {
		t.Fatalf("Campaign failed: %v", err)
	}

	analyzer := report.NewAnalyzer(facade.Store().DataDir(), h.CreateTestLogger())
	if err := analyzer.Run(); err != nil {
		t.Fatalf("Analysis failed: %v", err)
	}

	analysisDir := filepath.Join(facade.Store().DataDir(), "analysis")

	raw, err := os.ReadFile(filepath.Join(analysisDir, "analysis_data.json"))
	if err != nil {
		t.Fatalf("Analysis data missing: %v", err)
	}
	var analysis report.Analysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		t.Fatalf("Analysis data is not valid JSON: %v", err)
	}
	if analysis.UserMetrics.TotalNotes != 2 {
		t.Errorf("Analysis counted %d notes, expected 2", analysis.UserMetrics.TotalNotes)
	}
	if analysis.UserMetrics.CategoryDistribution[collector.CategoryMedicalBeauty] != 2 {
		t.Errorf("Category distribution is %v", analysis.UserMetrics.CategoryDistribution)
	}
	if len(analysis.TextAnalysis.WordFreq) == 0 {
		t.Error("Analysis produced no word frequencies")
	}

	html, err := os.ReadFile(filepath.Join(analysisDir, "report.html"))
	if err != nil {
		t.Fatalf("Report missing: %v", err)
	}
	if !strings.Contains(string(html), "小红书维权数据分析报告") {
		t.Error("Report is missing its title")
	}
}
