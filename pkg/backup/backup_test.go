package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"moodtoon/pkg/schema"
)

func TestLog_LatestWins(t *testing.T) {
	t.Parallel()

	l, err := Open(filepath.Join(t.TempDir(), "data", "backup.jsonl"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	var got schema.CharacterDescriptor
	if ok, err := l.Latest("u1", KindCharacter, &got); ok || err != nil {
		t.Fatalf("ok=%v err=%v on empty log", ok, err)
	}

	for _, d := range []string{"first", "second"} {
		if err := l.Append("u1", KindCharacter, schema.CharacterDescriptor{Description: d}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := l.Append("u2", KindCharacter, schema.CharacterDescriptor{Description: "other"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	ok, err := l.Latest("u1", KindCharacter, &got)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if got.Description != "second" {
		t.Fatalf("Description=%q", got.Description)
	}
	if ok, _ := l.Latest("u1", KindDiary, &got); ok {
		t.Fatalf("kinds must not mix")
	}
}

func TestLog_ConcurrentAppendsAreKept(t *testing.T) {
	t.Parallel()

	l, err := Open(filepath.Join(t.TempDir(), "backup.jsonl"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Append(fmt.Sprintf("user-%d", i), KindCharacter, map[string]int{"n": i}); err != nil {
				t.Errorf("Append: %v", err)
			}
		}()
	}
	wg.Wait()

	for i := range 20 {
		var got map[string]int
		ok, err := l.Latest(fmt.Sprintf("user-%d", i), KindCharacter, &got)
		if err != nil || !ok || got["n"] != i {
			t.Fatalf("user-%d ok=%v err=%v got=%v", i, ok, err, got)
		}
	}
}

func TestLog_CompactKeepsState(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "backup.jsonl")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = l.Append("u1", KindCharacter, schema.CharacterDescriptor{Description: "old"})
	_ = l.Append("u1", KindCharacter, schema.CharacterDescriptor{Description: "new"})
	if err := l.Compact(); err != nil {
		t.Fatalf("Compact: %v", err)
	}

	if fi, err := os.Stat(path); err != nil || fi.Size() != 0 {
		t.Fatalf("log not truncated: %v", err)
	}
	_ = l.Append("u2", KindCharacter, schema.CharacterDescriptor{Description: "fresh"})

	var got schema.CharacterDescriptor
	if ok, err := l.Latest("u1", KindCharacter, &got); !ok || err != nil || got.Description != "new" {
		t.Fatalf("u1 ok=%v err=%v got=%+v", ok, err, got)
	}
	if ok, err := l.Latest("u2", KindCharacter, &got); !ok || err != nil || got.Description != "fresh" {
		t.Fatalf("u2 ok=%v err=%v got=%+v", ok, err, got)
	}
}

func TestLog_SkipsTornLine(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "backup.jsonl")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = l.Append("u1", KindCharacter, schema.CharacterDescriptor{Description: "ok"})
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	_, _ = f.WriteString(`{"userId":"u1","kind":"charac`)
	_ = f.Close()

	var got schema.CharacterDescriptor
	if ok, err := l.Latest("u1", KindCharacter, &got); !ok || err != nil || got.Description != "ok" {
		t.Fatalf("ok=%v err=%v got=%+v", ok, err, got)
	}
}

func TestLog_UndecodableIsNotFound(t *testing.T) {
	t.Parallel()

	l, err := Open(filepath.Join(t.TempDir(), "backup.jsonl"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	// A well-formed line whose document does not fit the target type.
	if err := l.Append("u1", KindCharacter, map[string]any{"description": 42}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	var got schema.CharacterDescriptor
	ok, err := l.Latest("u1", KindCharacter, &got)
	if ok || err == nil {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
}
