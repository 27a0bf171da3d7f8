package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
)

func TestFingerprintFile(t *testing.T) {
	h := newHarness(t)
	path := h.writeFile(t, "a.txt", "hello")

	fp, err := FingerprintFile(path)

	require.NoError(t, err)
	sum := sha256.Sum256([]byte("hello"))
	assert.Equal(t, domain.Fingerprint(hex.EncodeToString(sum[:])), fp)

	_, err = FingerprintFile(path + ".missing")
	assert.Error(t, err)
}

func TestDedupeGate_Decisions(t *testing.T) {
	t.Run("identical content is accepted once then duplicate", func(t *testing.T) {
		h := newHarness(t)

		first := h.dedupeEvent(t, "case_letter.pdf", "same bytes")
		second := h.dedupeEvent(t, "other_name.pdf", "same bytes")

		assert.Equal(t, string(domain.DedupeAccepted), first.DetailString(domain.DetailStatus))
		assert.Equal(t, string(domain.DedupeDuplicate), second.DetailString(domain.DetailStatus))
		assert.Equal(t, "case_letter.pdf", second.DetailString(domain.DetailDuplicateOf))
		assert.Equal(t, first.DetailString(domain.DetailFingerprint), second.DetailString(domain.DetailFingerprint))
		assert.Len(t, h.find(t, domain.KindDedupe), 2)
	})

	t.Run("new version of a grouped document supersedes the old one", func(t *testing.T) {
		h := newHarness(t)

		first := h.dedupeEvent(t, "report_v1.txt", "version one")
		second := h.dedupeEvent(t, "report_v2.txt", "version two")

		assert.Equal(t, string(domain.DedupeAccepted), first.DetailString(domain.DetailStatus))
		assert.Equal(t, string(domain.DedupeSuperseded), second.DetailString(domain.DetailStatus))
		assert.Equal(t, "report_v1.txt", second.DetailString(domain.DetailSupersedes))
		assert.Equal(t, "report", second.DetailString(domain.DetailGroupKey))

		ctx := context.Background()
		current, err := h.fingerprints.CurrentForGroup(ctx, "report")
		require.NoError(t, err)
		assert.Equal(t, "report_v2.txt", current.FileRelpath)

		old, err := h.fingerprints.Get(ctx, domain.Fingerprint(first.DetailString(domain.DetailFingerprint)))
		require.NoError(t, err)
		assert.False(t, old.Current)
	})

	t.Run("without grouping every new fingerprint is accepted", func(t *testing.T) {
		h := newHarness(t, withPolicy(NoGroupingPolicy{}))

		h.dedupeEvent(t, "report_v1.txt", "version one")
		second := h.dedupeEvent(t, "report_v2.txt", "version two")

		assert.Equal(t, string(domain.DedupeAccepted), second.DetailString(domain.DetailStatus))
	})

	t.Run("same content re-seen at the same path is duplicate", func(t *testing.T) {
		h := newHarness(t)
		path := h.writeFile(t, "a.txt", "content")

		ctx := context.Background()
		n1, err := h.intake.Submit(ctx, path, domain.Classification{})
		require.NoError(t, err)
		_, err = h.gate.Evaluate(ctx, *n1)
		require.NoError(t, err)

		n2, err := h.intake.Submit(ctx, path, domain.Classification{})
		require.NoError(t, err)
		event, err := h.gate.Evaluate(ctx, *n2)
		require.NoError(t, err)

		assert.Equal(t, string(domain.DedupeDuplicate), event.DetailString(domain.DetailStatus))
		assert.Equal(t, "a.txt", event.DetailString(domain.DetailDuplicateOf))
	})

	t.Run("recorded but unpublished decision is repeated on replay", func(t *testing.T) {
		h := newHarness(t)
		intake := h.intakeEvent(t, "a.txt", "content")
		fp, err := FingerprintFile(h.watchDir + "/a.txt")
		require.NoError(t, err)
		require.NoError(t, h.fingerprints.Record(context.Background(), domain.FingerprintRecord{
			Fingerprint: fp,
			FileRelpath: "a.txt",
			IntakeID:    intake.ID,
			GroupKey:    "a",
			Decision:    domain.DedupeAccepted,
			Current:     true,
			SeenAt:      time.Now(),
		}, ""))

		event, err := h.gate.process(context.Background(), intake)

		require.NoError(t, err)
		assert.Equal(t, string(domain.DedupeAccepted), event.DetailString(domain.DetailStatus))
	})
}

func TestDedupeGate_Handle(t *testing.T) {
	t.Run("publishes one decision per intake event", func(t *testing.T) {
		h := newHarness(t)
		intake := h.intakeEvent(t, "a.txt", "content")
		ctx := context.Background()

		require.NoError(t, h.gate.Handle(ctx, intake))
		require.NoError(t, h.gate.Handle(ctx, intake))

		dedupes := h.find(t, domain.KindDedupe)
		require.Len(t, dedupes, 1)
		assert.Equal(t, intake.ID, dedupes[0].IntakeID())
	})

	t.Run("ignores unroutable files and other kinds", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()

		require.NoError(t, h.gate.Handle(ctx, h.intakeEvent(t, "archive.zip", "zip")))
		require.NoError(t, h.gate.Handle(ctx, domain.Event{Kind: domain.KindTextReady}))

		assert.Empty(t, h.find(t, domain.KindDedupe))
	})

	t.Run("unreadable file publishes item.failed", func(t *testing.T) {
		h := newHarness(t)
		intake := h.intakeEvent(t, "gone.txt", "content")
		require.NoError(t, os.Remove(h.watchDir+"/gone.txt"))

		require.NoError(t, h.gate.Handle(context.Background(), intake))

		assert.Empty(t, h.find(t, domain.KindDedupe))
		failed := h.find(t, domain.KindItemFailed)
		require.Len(t, failed, 1)
		assert.Equal(t, "dedupe", failed[0].DetailString(domain.DetailStage))
		assert.Equal(t, string(domain.StatusError), failed[0].DetailString(domain.DetailStatus))
		assert.Equal(t, intake.ID, failed[0].IntakeID())
	})
}
