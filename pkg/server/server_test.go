package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"moodtoon/pkg/analysis"
	"moodtoon/pkg/backup"
	"moodtoon/pkg/config"
	"moodtoon/pkg/illustration"
	"moodtoon/pkg/inference"
	"moodtoon/pkg/inference/inferencetest"
	"moodtoon/pkg/pipeline"
	"moodtoon/pkg/schema"
	"moodtoon/pkg/store"
	"moodtoon/pkg/story"
	"moodtoon/pkg/weekly"
)

const (
	analysisReply = `{"emotion":"Joy","emotion_intensity":6,"sub_emotions":["relief"],"summary":"Made up with a friend.","keywords":["friend"],"one_line":"Making up felt good."}`
	storyReply    = `{"panels":[{"scene":"Two friends sharing an umbrella","dialogue":"Sorry about earlier."}]}`
)

type fixture struct {
	srv    *Server
	text   *inferencetest.Inferencer
	images *inferencetest.Images
	store  *store.Memory
}

func newFixture(t *testing.T, replies ...string) *fixture {
	t.Helper()
	return newFixtureAt(t, "", filepath.Join(t.TempDir(), "backup.jsonl"), replies...)
}

func newFixtureAt(t *testing.T, staticDir, backupPath string, replies ...string) *fixture {
	t.Helper()
	f := &fixture{
		text:   &inferencetest.Inferencer{Replies: replies},
		images: &inferencetest.Images{},
		store:  store.NewMemory(),
	}
	if len(replies) == 0 {
		f.text.Err = inference.ErrExternalCall
	}
	log, err := backup.Open(backupPath)
	if err != nil {
		t.Fatalf("backup.Open: %v", err)
	}

	vocab := schema.DefaultVocabulary()
	extractor := analysis.NewExtractor(f.text, vocab)
	composer := story.NewComposer(f.text)
	illustrator := illustration.NewIllustrator(f.images)
	f.srv = NewServer(Deps{
		Extractor:            extractor,
		Summarizer:           analysis.NewSummarizer(f.text),
		Composer:             composer,
		Aggregator:           weekly.NewAggregator(f.text),
		Illustrator:          illustrator,
		Daily:                pipeline.NewDaily(extractor, composer, illustrator),
		Images:               f.images,
		Store:                f.store,
		Backup:               log,
		Vocabulary:           vocab,
		StaticDir:            staticDir,
		DefaultCharacterName: "me",
		ImageQuality:         "standard",
	})
	return f
}

func (f *fixture) do(t *testing.T, method, target string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		req = httptest.NewRequest(method, target, strings.NewReader(string(raw)))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	f.srv.Echo.ServeHTTP(rec, req)

	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func week(emotions ...string) []map[string]any {
	out := make([]map[string]any, len(emotions))
	for i, e := range emotions {
		out[i] = map[string]any{"emotion": e, "emotion_intensity": 5, "summary": "s", "one_line": fmt.Sprintf("day %d", i+1)}
	}
	return out
}

func TestRootAndHealth(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if rec, out := f.do(t, http.MethodGet, "/", nil); rec.Code != http.StatusOK || out["status"] != "ok" {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body)
	}
	rec, out := f.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK || out["status"] != "healthy" || out["store"] != "connected" {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body)
	}
}

func TestAnalyze(t *testing.T) {
	t.Parallel()

	f := newFixture(t, analysisReply)
	rec, out := f.do(t, http.MethodPost, "/api/diary/analyze", map[string]any{"text": "I fought with a friend today but apologized later and felt better"})
	if rec.Code != http.StatusOK {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body)
	}
	if out["emotion"] != "Joy" || out["success"] != true {
		t.Fatalf("body=%s", rec.Body)
	}

	rec, out = f.do(t, http.MethodPost, "/api/diary/analyze", map[string]any{"text": "   "})
	if rec.Code != http.StatusBadRequest || out["success"] != false {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body)
	}
}

func TestAnalyzeWithWebtoon_FallbackStillAnswers(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec, out := f.do(t, http.MethodPost, "/api/diary/analyze_with_webtoon", map[string]any{"text": "rainy and slow"})
	if rec.Code != http.StatusOK {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body)
	}
	a := out["analysis"].(map[string]any)
	if a["success"] != false || a["emotion"] != "Calm" {
		t.Fatalf("analysis=%v", a)
	}
	panels := out["story"].(map[string]any)["panels"].([]any)
	if len(panels) != 1 {
		t.Fatalf("panels=%v", panels)
	}
	if len(f.images.Prompts()) != 0 {
		t.Fatalf("text-only route generated images")
	}
}

func TestAnalyzeWithWebtoonImage_PersistsAndBacksUp(t *testing.T) {
	t.Parallel()

	f := newFixture(t, analysisReply, storyReply)
	rec, out := f.do(t, http.MethodPost, "/api/diary/analyze_with_webtoon_image", map[string]any{
		"text":    "I fought with a friend today but apologized later and felt better",
		"user_id": "u1",
		"character_info": map[string]any{
			"description": "a boy with curly red hair",
			"base_images": map[string]string{"Joy": "https://img.test/joy.png"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body)
	}
	if out["saved"] != true || out["backedUp"] != true || out["diaryId"] == "" {
		t.Fatalf("body=%s", rec.Body)
	}
	panel := out["story"].(map[string]any)["panels"].([]any)[0].(map[string]any)
	if panel["imageUrl"] == nil || panel["characterUsed"] != true {
		t.Fatalf("panel=%v", panel)
	}
	if p := f.images.Prompts(); len(p) != 1 || !strings.Contains(p[0], "curly red hair") || !strings.Contains(p[0], "CONSISTENCY:") {
		t.Fatalf("prompts=%q", p)
	}

	rec, out = f.do(t, http.MethodGet, "/api/diary/list?user_id=u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body)
	}
	if diaries := out["diaries"].([]any); len(diaries) != 1 {
		t.Fatalf("diaries=%v", diaries)
	}
}

func TestAnalyzeWithWebtoonImage_UsesSavedCharacter(t *testing.T) {
	t.Parallel()

	f := newFixture(t, analysisReply, storyReply)
	rec, _ := f.do(t, http.MethodPost, "/api/save-character", map[string]any{
		"user_id":     "u2",
		"description": "a girl in a green hoodie",
		"images":      map[string]string{"Calm": "https://img.test/calm.png"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body)
	}

	rec, _ = f.do(t, http.MethodPost, "/api/diary/analyze_with_webtoon_image", map[string]any{"text": "x", "user_id": "u2"})
	if rec.Code != http.StatusOK {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body)
	}
	if p := f.images.Prompts(); len(p) != 1 || !strings.Contains(p[0], "green hoodie") {
		t.Fatalf("prompts=%q", p)
	}
}

func TestSaveAndListDiary(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	for i := range 2 {
		rec, out := f.do(t, http.MethodPost, "/api/diary/save", map[string]any{"user_id": "u3", "text": fmt.Sprintf("entry %d", i)})
		if rec.Code != http.StatusOK || out["diary_id"] == "" {
			t.Fatalf("code=%d body=%s", rec.Code, rec.Body)
		}
	}
	_, out := f.do(t, http.MethodGet, "/api/diary/list?user_id=u3", nil)
	diaries := out["diaries"].([]any)
	if len(diaries) != 2 || diaries[0].(map[string]any)["text"] != "entry 1" {
		t.Fatalf("diaries=%v", diaries)
	}

	if rec, _ := f.do(t, http.MethodGet, "/api/diary/list", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("code=%d", rec.Code)
	}
	if rec, _ := f.do(t, http.MethodPost, "/api/diary/save", map[string]any{"user_id": "u3"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("code=%d", rec.Code)
	}
}

func TestWeeklyNarrative(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec, _ := f.do(t, http.MethodPost, "/api/diary/generate_weekly_narrative", map[string]any{"daily_analyses": week("Joy", "Joy", "Calm", "Calm", "Calm", "Joy")})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("six days code=%d", rec.Code)
	}

	rec, out := f.do(t, http.MethodPost, "/api/diary/generate_weekly_narrative", map[string]any{
		"user_id":        "u4",
		"daily_analyses": week("😊 기쁨", "Calm", "Calm", "Sadness", "Joy", "Calm", "Joy"),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body)
	}
	if out["dominantEmotion"] != "Joy" || out["success"] != false {
		t.Fatalf("body=%s", rec.Body)
	}
	if n := out["dailyNarratives"].([]any); len(n) != 7 {
		t.Fatalf("narratives=%d", len(n))
	}
	if len(f.images.Prompts()) != 0 {
		t.Fatalf("weekly narrative generated images")
	}

	var saved []store.Weekly
	if err := f.store.Query(context.Background(), store.Weeklies, store.Filter{"userId": "u4"}, &saved); err != nil || len(saved) != 1 {
		t.Fatalf("saved=%v err=%v", saved, err)
	}
}

func TestWeeklyWebtoon(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec, out := f.do(t, http.MethodPost, "/api/diary/generate_weekly_webtoon", map[string]any{"daily_analyses": week("Joy", "Sadness", "Calm", "Anger", "Anxiety", "Calm", "Joy")})
	if rec.Code != http.StatusOK {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body)
	}
	if panels := out["story"].(map[string]any)["panels"].([]any); len(panels) != 8 {
		t.Fatalf("panels=%d", len(panels))
	}
}

func TestCuts(t *testing.T) {
	t.Parallel()

	f := newFixture(t, `{"panels":[{"scene":"a","dialogue":"b"},{"scene":"c","dialogue":"d"}]}`)
	rec, out := f.do(t, http.MethodPost, "/api/generate_4cuts", map[string]any{"text": "a long walk", "emotion": "calm"})
	if rec.Code != http.StatusOK {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body)
	}
	if panels := out["panels"].([]any); len(panels) != 4 || out["emotion"] != "Calm" {
		t.Fatalf("body=%s", rec.Body)
	}
	if calls := f.text.Calls(); len(calls) != 1 {
		t.Fatalf("known emotion should skip extraction: calls=%d", len(calls))
	}

	rec, out = f.do(t, http.MethodPost, "/api/generate_daily_cut", map[string]any{"text": "a long walk", "emotion": "Joy"})
	if rec.Code != http.StatusOK || out["scene"] != "a" || out["mood"] != "Joy" {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body)
	}

	if rec, _ := f.do(t, http.MethodPost, "/api/generate_4cuts", map[string]any{"emotion": "Joy"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("code=%d", rec.Code)
	}
}

func TestGenerateCharacter_Cached(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	body := map[string]any{"emotion": "기쁨", "character_description": "a cat-eared girl"}

	var urls []string
	for range 3 {
		rec, out := f.do(t, http.MethodPost, "/api/generate_character", body)
		if rec.Code != http.StatusOK || out["emotion"] != "Joy" {
			t.Fatalf("code=%d body=%s", rec.Code, rec.Body)
		}
		urls = append(urls, out["url"].(string))
	}
	for _, u := range urls {
		if u != urls[0] || u == "" {
			t.Fatalf("urls=%q", urls)
		}
	}
	if n := len(f.images.Prompts()); n != 1 {
		t.Fatalf("generations=%d", n)
	}
	if s := f.images.Sizes(); s[0] != inference.SizeSquare {
		t.Fatalf("size=%v", s[0])
	}

	if rec, _ := f.do(t, http.MethodPost, "/api/generate_character", map[string]any{"emotion": "Joy"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("code=%d", rec.Code)
	}
}

func TestGenerateCharacter_Failure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.images.Err = inference.ErrExternalCall
	rec, _ := f.do(t, http.MethodPost, "/api/generate_character", map[string]any{"emotion": "Joy", "character_description": "d"})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body)
	}
}

func TestCharacter_BackupFallback(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if rec, _ := f.do(t, http.MethodGet, "/api/get-character?user_id=nobody", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("code=%d", rec.Code)
	}

	rec, _ := f.do(t, http.MethodPost, "/api/save-character", map[string]any{
		"user_id":        "u5",
		"character_info": map[string]any{"description": "tall", "base_images": map[string]string{"Joy": "j"}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body)
	}
	_, out := f.do(t, http.MethodGet, "/api/get-character?user_id=u5", nil)
	if out["source"] != "store" {
		t.Fatalf("body=%v", out)
	}

	// Without a store only the backup log can answer.
	f.srv.Store = nil
	_, out = f.do(t, http.MethodGet, "/api/get-character?user_id=u5", nil)
	if out["source"] != "backup" || out["character"].(map[string]any)["description"] != "tall" {
		t.Fatalf("body=%v", out)
	}
}

func TestGenerateImage(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec, out := f.do(t, http.MethodPost, "/api/generate_image", map[string]any{"prompt": "a lighthouse", "size": "1792x1024"})
	if rec.Code != http.StatusOK || out["url"] == "" {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body)
	}
	if s := f.images.Sizes(); s[0] != inference.SizeWide {
		t.Fatalf("size=%v", s[0])
	}
	if rec, _ := f.do(t, http.MethodPost, "/api/generate_image", map[string]any{"prompt": ""}); rec.Code != http.StatusBadRequest {
		t.Fatalf("code=%d", rec.Code)
	}
	if rec, _ := f.do(t, http.MethodPost, "/api/generate_image", map[string]any{"prompt": "x", "size": "10x10"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("code=%d", rec.Code)
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "A short summary.")
	rec, out := f.do(t, http.MethodPost, "/api/summarize", map[string]any{"text": "a much longer text than the summary itself, really"})
	if rec.Code != http.StatusOK || out["summary"] != "A short summary." || out["success"] != true {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body)
	}
	if rec, _ := f.do(t, http.MethodPost, "/api/summarize", map[string]any{"text": ""}); rec.Code != http.StatusBadRequest {
		t.Fatalf("code=%d", rec.Code)
	}
}

func TestStatic_DoesNotServeBackup(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{"STATIC_DIR", "BACKUP_PATH"} {
		t.Setenv(k, "")
	}
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	f := newFixtureAt(t, cfg.StaticDir, cfg.BackupPath, analysisReply, storyReply)
	rec, out := f.do(t, http.MethodPost, "/api/diary/analyze_with_webtoon_image", map[string]any{"text": "a private diary line", "user_id": "u7"})
	if rec.Code != http.StatusOK || out["backedUp"] != true {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body)
	}
	if _, err := os.Stat(cfg.BackupPath); err != nil {
		t.Fatalf("backup not written: %v", err)
	}

	if err := os.MkdirAll(filepath.Join(cfg.StaticDir, "panels"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(cfg.StaticDir, "panels", "a.webp"), []byte("img"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if rec, _ := f.do(t, http.MethodGet, "/static/panels/a.webp", nil); rec.Code != http.StatusOK {
		t.Fatalf("static file code=%d", rec.Code)
	}

	for _, target := range []string{
		"/static/" + filepath.Base(cfg.BackupPath),
		"/static/characters_backup.jsonl",
		"/static/" + filepath.ToSlash(cfg.BackupPath),
	} {
		rec, _ := f.do(t, http.MethodGet, target, nil)
		if rec.Code != http.StatusNotFound || strings.Contains(rec.Body.String(), "private diary") {
			t.Fatalf("GET %s code=%d body=%s", target, rec.Code, rec.Body)
		}
	}
}

func TestCharacter_UndecodableBackupIsNotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.srv.Store = nil
	if err := f.srv.Backup.Append("u6", backup.KindCharacter, map[string]any{"images": "not-a-map"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	rec, out := f.do(t, http.MethodGet, "/api/get-character?user_id=u6", nil)
	if rec.Code != http.StatusNotFound || out["source"] != nil {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body)
	}
}

// ctxImages fails once the request context is done.
type ctxImages struct{}

func (ctxImages) Generate(ctx context.Context, _ string, _ inference.ImageSize, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "https://img.test/portrait.png", nil
}

func TestGenerateCharacter_SurvivesCallerCancel(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.srv.Illustrator = illustration.NewIllustrator(ctxImages{})

	raw, _ := json.Marshal(map[string]any{"emotion": "Joy", "character_description": "a tall boy"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/generate_character", strings.NewReader(string(raw))).WithContext(ctx)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	f.srv.Echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "portrait.png") {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body)
	}
}

func TestSummarizeForWebtoon(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "She laughs under one umbrella with her friend.")
	rec, out := f.do(t, http.MethodPost, "/api/summarize_for_webtoon", map[string]any{"text": "made up with my friend in the rain"})
	if rec.Code != http.StatusOK || out["webtoon_summary"] == "" || out["scene_description"] != nil || out["success"] != true {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body)
	}

	rec, out = f.do(t, http.MethodPost, "/api/summarize_for_webtoon", map[string]any{"text": "made up with my friend in the rain", "emotion": "기쁨"})
	if rec.Code != http.StatusOK || out["emotion"] != "Joy" || out["scene_description"] == nil {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body)
	}

	if rec, _ := f.do(t, http.MethodPost, "/api/summarize_for_webtoon", map[string]any{"text": " "}); rec.Code != http.StatusBadRequest {
		t.Fatalf("code=%d", rec.Code)
	}
}

func TestSummarizeForWebtoon_Fallback(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	text := strings.Repeat("rain ", 40)
	rec, out := f.do(t, http.MethodPost, "/api/summarize_for_webtoon", map[string]any{"text": text, "emotion": "Sadness"})
	if rec.Code != http.StatusOK || out["success"] != false {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body)
	}
	if got := out["webtoon_summary"].(string); !strings.HasSuffix(got, "...") {
		t.Fatalf("webtoon_summary=%q", got)
	}
	if out["scene_description"] != "an everyday scene filled with sadness" {
		t.Fatalf("scene_description=%v", out["scene_description"])
	}
}

func TestGenerateScene(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "Mina sits by the window, chin on her hand, watching the rain.")
	rec, out := f.do(t, http.MethodPost, "/api/generate_scene", map[string]any{"text": "a quiet rainy afternoon", "character_name": "Mina"})
	if rec.Code != http.StatusOK {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body)
	}
	if out["emotion"] != "Calm" || out["character_name"] != "Mina" || out["suitable_for_illustration"] != true || out["success"] != true {
		t.Fatalf("body=%s", rec.Body)
	}
	if calls := f.text.Calls(); len(calls) != 1 || !strings.Contains(calls[0].User, "Mina") {
		t.Fatalf("calls=%+v", calls)
	}

	if rec, _ := f.do(t, http.MethodPost, "/api/generate_scene", map[string]any{"text": ""}); rec.Code != http.StatusBadRequest {
		t.Fatalf("code=%d", rec.Code)
	}
}

func TestBatchSummarize(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "Short.")
	rec, out := f.do(t, http.MethodPost, "/api/batch_summarize", map[string]any{
		"texts": []string{"monday was long", "", "wednesday was " + strings.Repeat("very ", 20) + "fun"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body)
	}
	if out["total_count"] != float64(3) || out["successful_count"] != float64(2) || out["success_rate"] != 66.7 {
		t.Fatalf("body=%s", rec.Body)
	}
	items := out["summaries"].([]any)
	for i, it := range items {
		item := it.(map[string]any)
		if item["index"] != float64(i) {
			t.Fatalf("item %d=%v", i, item)
		}
	}
	if failed := items[1].(map[string]any); failed["success"] != false || failed["error"] == nil {
		t.Fatalf("empty text item=%v", failed)
	}
	if orig := items[2].(map[string]any)["original"].(string); !strings.HasSuffix(orig, "...") {
		t.Fatalf("original=%q", orig)
	}

	for _, body := range []map[string]any{
		{"texts": []string{}},
		{"texts": []string{"a"}, "type": "poem"},
		{"texts": make([]string, maxBatchTexts+1)},
	} {
		if rec, _ := f.do(t, http.MethodPost, "/api/batch_summarize", body); rec.Code != http.StatusBadRequest {
			t.Fatalf("body=%v code=%d", body, rec.Code)
		}
	}
}

func TestBatchSummarize_WebtoonFallback(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, out := f.do(t, http.MethodPost, "/api/batch_summarize", map[string]any{"texts": []string{"a", "b"}, "type": "webtoon"})
	if out["successful_count"] != float64(0) || out["success_rate"] != float64(0) {
		t.Fatalf("body=%v", out)
	}
	if s := out["summaries"].([]any)[0].(map[string]any)["summary"]; s != "a" {
		t.Fatalf("summary=%v", s)
	}
}

func TestEmotion(t *testing.T) {
	t.Parallel()

	f := newFixture(t, analysisReply)
	rec, out := f.do(t, http.MethodPost, "/api/emotion", map[string]any{"text": "made up with a friend"})
	if rec.Code != http.StatusOK || out["emotion"] != "Joy" || out["confidence"] != 0.6 {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body)
	}
	if rec, _ := f.do(t, http.MethodPost, "/api/emotion", map[string]any{"text": ""}); rec.Code != http.StatusBadRequest {
		t.Fatalf("code=%d", rec.Code)
	}
}
