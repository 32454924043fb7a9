package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"courseassist/internal/knowledge"
	"courseassist/internal/wellbeing"
)

type fakeIndexer struct {
	content, source string
	err             error
}

func (f *fakeIndexer) AddDocument(_ context.Context, content, source string) (int, error) {
	f.content, f.source = content, source
	return 1, f.err
}

func TestUploadPlainText(t *testing.T) {
	idx := &fakeIndexer{}
	svc := NewUploadService(idx)

	msg, err := svc.Upload(context.Background(), "week1.txt", []byte("Pointers and references"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if msg != "Successfully uploaded week1.txt" {
		t.Fatalf("unexpected message %q", msg)
	}
	if idx.source != "week1.txt" || idx.content != "Pointers and references" {
		t.Fatalf("indexer got %q/%q", idx.source, idx.content)
	}
}

func TestUploadErrorKinds(t *testing.T) {
	indexFail := &fakeIndexer{err: fmt.Errorf("%w: boom", knowledge.ErrIndexing)}
	otherFail := &fakeIndexer{err: errors.New("unexpected")}

	tests := []struct {
		name     string
		indexer  DocumentIndexer
		filename string
		data     []byte
		want     UploadErrorKind
	}{
		{"missing file", &fakeIndexer{}, "", nil, KindMissingFile},
		{"legacy word", &fakeIndexer{}, "old.doc", []byte("x"), KindUnsupportedFormat},
		{"broken pdf", &fakeIndexer{}, "s.pdf", []byte("nope"), KindExtractionFailed},
		{"bad utf8", &fakeIndexer{}, "s.txt", []byte{0xff}, KindExtractionFailed},
		{"index failure", indexFail, "s.txt", []byte("ok"), KindIndexingFailed},
		{"other failure", otherFail, "s.txt", []byte("ok"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUploadService(tt.indexer).Upload(context.Background(), tt.filename, tt.data)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := KindOf(err); got != tt.want {
				t.Fatalf("want kind %s, got %s (%v)", tt.want, got, err)
			}
		})
	}
}

func TestOutlineNeedsPDF(t *testing.T) {
	_, err := NewUploadService(&fakeIndexer{}).Outline("syllabus.docx", []byte("x"))
	if KindOf(err) != KindUnsupportedFormat {
		t.Fatalf("want unsupported_format, got %v", err)
	}
}

func TestDashboardSnapshot(t *testing.T) {
	now := time.Date(2024, 11, 1, 9, 0, 0, 0, time.UTC)
	flags := wellbeing.NewFlagStore()
	flags.Append(wellbeing.Analysis{StudentID: "old", Timestamp: now.Add(-8 * 24 * time.Hour)})
	flags.Append(wellbeing.Analysis{StudentID: "new", Timestamp: now.Add(-2 * 24 * time.Hour)})

	d := NewDashboardService(flags, 0).Snapshot(now)
	if d.TotalFlags != 2 {
		t.Fatalf("want 2 total flags, got %d", d.TotalFlags)
	}
	if len(d.RecentFlags) != 1 || d.RecentFlags[0].StudentID != "new" {
		t.Fatalf("unexpected recent flags %+v", d.RecentFlags)
	}
	if d.StudentSummary == nil || len(d.StudentSummary) != 0 {
		t.Fatalf("student summary must be an empty object, got %v", d.StudentSummary)
	}
}

func TestAuthLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	svc := NewAuthService(true, "instructor", string(hash), "secret", time.Hour)

	res, err := svc.Login(LoginInput{Username: "instructor", Password: "correct horse"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Token == "" || res.Username != "instructor" {
		t.Fatalf("unexpected result %+v", res)
	}

	if _, err := svc.Login(LoginInput{Username: "instructor", Password: "wrong"}); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("want ErrInvalidCredential, got %v", err)
	}
	if _, err := svc.Login(LoginInput{Username: "", Password: "x"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}

	disabled := NewAuthService(false, "instructor", string(hash), "secret", time.Hour)
	if _, err := disabled.Login(LoginInput{Username: "instructor", Password: "correct horse"}); !errors.Is(err, ErrAuthDisabled) {
		t.Fatalf("want ErrAuthDisabled, got %v", err)
	}
}
