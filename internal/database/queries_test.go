package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/go-while/go-nntparc/internal/config"
	"github.com/go-while/go-nntparc/internal/models"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open(&config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "test.sq3")})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testMessage(group *models.Group, thread *models.Thread, msgID, subject string, created time.Time) *models.Message {
	return &models.Message{
		GroupID:           group.ID,
		MsgID:             msgID,
		Sender:            "dev@example.org",
		Subject:           subject,
		SubjectNormalized: subject,
		Headers:           "Subject: " + subject,
		Body:              "body text",
		Created:           created,
		Thread:            thread,
	}
}

func TestGetOrCreateGroupIdempotent(t *testing.T) {
	db := openTestDB(t)

	g1, err := db.GetOrCreateGroup("misc.test")
	if err != nil {
		t.Fatalf("GetOrCreateGroup failed: %v", err)
	}
	g2, err := db.GetOrCreateGroup("misc.test")
	if err != nil {
		t.Fatalf("second GetOrCreateGroup failed: %v", err)
	}
	if g1.ID != g2.ID {
		t.Fatalf("same name produced two groups: %d, %d", g1.ID, g2.ID)
	}

	missing, err := db.GetGroupByName("not.there")
	if err != nil || missing != nil {
		t.Fatalf("GetGroupByName for unknown group = %v, %v; want nil, nil", missing, err)
	}
}

func TestInsertBatchRoundTrip(t *testing.T) {
	db := openTestDB(t)
	group, _ := db.GetOrCreateGroup("misc.test")

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	thread := &models.Thread{GroupID: group.ID, Subject: "a topic", Created: base, Updated: base}
	m1 := testMessage(group, thread, "<a@test>", "a topic", base)
	m2 := testMessage(group, thread, "<b@test>", "a topic", base.Add(time.Hour))
	m2.ReplyTo = "<a@test>"
	m2.Refs = []string{"<a@test>", "<zero@test>"}

	if err := db.InsertBatch([]*models.Thread{thread}, []*models.Message{m1, m2}); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}
	if thread.ID == 0 || m1.ID == 0 {
		t.Fatal("insert ids not captured")
	}

	got, err := db.GetMessageByMsgID("<b@test>")
	if err != nil {
		t.Fatalf("GetMessageByMsgID failed: %v", err)
	}
	if got == nil || got.ThreadID != thread.ID || got.ReplyTo != "<a@test>" {
		t.Fatalf("stored message wrong: %+v", got)
	}

	msgs, err := db.GetThreadMessages(thread.ID)
	if err != nil {
		t.Fatalf("GetThreadMessages failed: %v", err)
	}
	if len(msgs) != 2 || msgs[0].MsgID != "<a@test>" || msgs[1].MsgID != "<b@test>" {
		t.Fatalf("thread messages wrong or out of order: %+v", msgs)
	}

	refs, err := db.GetMessageReferences(m2.ID)
	if err != nil {
		t.Fatalf("GetMessageReferences failed: %v", err)
	}
	if len(refs) != 2 || refs[0].RefMsgID != "<a@test>" || refs[1].RefMsgID != "<zero@test>" {
		t.Fatalf("references wrong or out of order: %+v", refs)
	}

	latest, err := db.GetLatestMessage(group.ID)
	if err != nil {
		t.Fatalf("GetLatestMessage failed: %v", err)
	}
	if latest == nil || latest.MsgID != "<b@test>" {
		t.Fatalf("latest message = %+v, want <b@test>", latest)
	}

	threads, err := db.GetThreads(group.ID, 10)
	if err != nil {
		t.Fatalf("GetThreads failed: %v", err)
	}
	if len(threads) != 1 || threads[0].MessageCount != 2 {
		t.Fatalf("thread listing wrong: %+v", threads)
	}

	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.Groups != 1 || stats.Threads != 1 || stats.Messages != 2 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestInsertBatchRollsBackOnConflict(t *testing.T) {
	db := openTestDB(t)
	group, _ := db.GetOrCreateGroup("misc.test")

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	thread := &models.Thread{GroupID: group.ID, Subject: "doomed", Created: base, Updated: base}
	m1 := testMessage(group, thread, "<dup@test>", "doomed", base)
	m2 := testMessage(group, thread, "<dup@test>", "doomed", base.Add(time.Minute))

	if err := db.InsertBatch([]*models.Thread{thread}, []*models.Message{m1, m2}); err == nil {
		t.Fatal("duplicate msg_id should fail the batch")
	}

	// nothing from the failed batch may be visible
	if m, _ := db.GetMessageByMsgID("<dup@test>"); m != nil {
		t.Errorf("message from rolled-back batch is visible")
	}
	if th, _ := db.GetThreadBySubject(group.ID, "doomed"); th != nil {
		t.Errorf("thread from rolled-back batch is visible")
	}
}

func TestInsertBatchBumpsThreadUpdated(t *testing.T) {
	db := openTestDB(t)
	group, _ := db.GetOrCreateGroup("misc.test")

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	thread := &models.Thread{GroupID: group.ID, Subject: "ongoing", Created: base, Updated: base}
	if err := db.InsertBatch([]*models.Thread{thread},
		[]*models.Message{testMessage(group, thread, "<t1@test>", "ongoing", base)}); err != nil {
		t.Fatalf("seed InsertBatch failed: %v", err)
	}

	newer := base.Add(2 * time.Hour)
	if err := db.InsertBatch(nil,
		[]*models.Message{testMessage(group, thread, "<t2@test>", "ongoing", newer)}); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}
	got, err := db.GetThreadByID(thread.ID)
	if err != nil {
		t.Fatalf("GetThreadByID failed: %v", err)
	}
	if !got.Updated.Equal(newer) {
		t.Fatalf("thread updated = %v, want %v", got.Updated, newer)
	}

	// an older message arriving late must not move updated backwards
	if err := db.InsertBatch(nil,
		[]*models.Message{testMessage(group, thread, "<t0@test>", "ongoing", base.Add(-time.Hour))}); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}
	got, _ = db.GetThreadByID(thread.ID)
	if !got.Updated.Equal(newer) {
		t.Fatalf("older message moved thread updated to %v", got.Updated)
	}
}

func TestTouchGroup(t *testing.T) {
	db := openTestDB(t)
	group, _ := db.GetOrCreateGroup("misc.test")

	when := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	if err := db.TouchGroup(group.ID, when); err != nil {
		t.Fatalf("TouchGroup failed: %v", err)
	}
	got, err := db.GetGroupByID(group.ID)
	if err != nil {
		t.Fatalf("GetGroupByID failed: %v", err)
	}
	if !got.Updated.Equal(when) {
		t.Fatalf("group updated = %v, want %v", got.Updated, when)
	}
}
