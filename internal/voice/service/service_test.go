package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"shelfscan_backend/internal/adapters/storage"
	"shelfscan_backend/internal/voice/repository"
	"shelfscan_backend/platform/logger"
)

type stubSynth struct {
	audio []byte
	err   error
}

func (s *stubSynth) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return s.audio, s.err
}

type stubMessenger struct {
	texts    []string
	media    []string
	textErr  error
	mediaErr error
}

func (s *stubMessenger) SendText(ctx context.Context, to, body string) error {
	if s.textErr != nil {
		return s.textErr
	}
	s.texts = append(s.texts, body)
	return nil
}

func (s *stubMessenger) SendMedia(ctx context.Context, to, caption, mediaURL string) error {
	if s.mediaErr != nil {
		return s.mediaErr
	}
	s.media = append(s.media, mediaURL)
	return nil
}

type stubNotes struct {
	created  []repository.VoiceNote
	statuses map[uuid.UUID]string
}

func (s *stubNotes) Create(ctx context.Context, note repository.VoiceNote) (repository.VoiceNote, error) {
	note.ID = uuid.New()
	s.created = append(s.created, note)
	return note, nil
}

func (s *stubNotes) UpdateDeliveryStatus(ctx context.Context, id uuid.UUID, status string) error {
	if s.statuses == nil {
		s.statuses = make(map[uuid.UUID]string)
	}
	s.statuses[id] = status
	return nil
}

type stubOutbound struct {
	entries []string
}

func (s *stubOutbound) LogOutbound(ctx context.Context, storeID uuid.UUID, phoneNumber, messageType, content, mediaURL, status string) {
	s.entries = append(s.entries, messageType+":"+status)
}

type stubStorage struct {
	uploadErr  error
	presignErr error
}

func (s *stubStorage) GenerateDownloadURL(ctx context.Context, bucket, fileKey string) (*storage.PresignedURL, error) {
	if s.presignErr != nil {
		return nil, s.presignErr
	}
	return &storage.PresignedURL{URL: "https://media.example/" + fileKey, FileKey: fileKey, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (s *stubStorage) DownloadFile(ctx context.Context, bucket, fileKey string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

func (s *stubStorage) DeleteObject(ctx context.Context, bucket, fileKey string) error { return nil }

func (s *stubStorage) UploadFile(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error) {
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	return folder + "/" + fileName, nil
}

func (s *stubStorage) EnsureBucketExists(ctx context.Context, bucket string) error { return nil }
func (s *stubStorage) ValidateContentType(contentType string) error                { return nil }
func (s *stubStorage) ValidateFileSize(sizeBytes int64) error                      { return nil }
func (s *stubStorage) GetMaxFileSize() int64                                       { return 16 << 20 }

func newRequest() Request {
	return Request{
		ScanID:         uuid.New(),
		StoreID:        uuid.New(),
		Phone:          "+919876543210",
		Language:       "hi",
		Recommendation: "Aaj Parle-G aur Tata Salt mangaiye, stock khatam ho raha hai.",
		Caption:        "Shelf health 62/100. 2 items critical.",
	}
}

func TestDeliverVoiceSucceeds(t *testing.T) {
	messenger := &stubMessenger{}
	notes := &stubNotes{}
	o := New(&stubSynth{audio: []byte("mp3")}, &stubStorage{}, "voice-notes", messenger, notes, &stubOutbound{}, logger.New("development"))

	delivery, err := o.Deliver(context.Background(), newRequest())
	if err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}
	if !delivery.VoiceDelivered || delivery.TextDelivered {
		t.Fatalf("expected voice delivery, got %+v", delivery)
	}
	if len(messenger.media) != 1 {
		t.Fatalf("expected one media send, got %d", len(messenger.media))
	}
	if len(notes.created) != 1 {
		t.Fatalf("expected one voice note, got %d", len(notes.created))
	}
	if delivery.Note == nil || delivery.Note.DeliveryStatus != repository.StatusSent {
		t.Fatalf("expected note marked sent, got %+v", delivery.Note)
	}
}

func TestDeliverSynthesisFailureFallsBackToText(t *testing.T) {
	messenger := &stubMessenger{}
	notes := &stubNotes{}
	o := New(&stubSynth{err: errors.New("synthesis down")}, &stubStorage{}, "voice-notes", messenger, notes, &stubOutbound{}, logger.New("development"))

	delivery, err := o.Deliver(context.Background(), newRequest())
	if err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}
	if delivery.VoiceDelivered || !delivery.TextDelivered {
		t.Fatalf("expected text fallback, got %+v", delivery)
	}
	if len(notes.created) != 0 {
		t.Fatal("failed synthesis must not create a voice note")
	}
	if len(messenger.texts) != 1 {
		t.Fatalf("expected one text send, got %d", len(messenger.texts))
	}
}

func TestDeliverNoSynthesizerGoesStraightToText(t *testing.T) {
	messenger := &stubMessenger{}
	o := New(nil, &stubStorage{}, "voice-notes", messenger, &stubNotes{}, &stubOutbound{}, logger.New("development"))

	delivery, err := o.Deliver(context.Background(), newRequest())
	if err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}
	if !delivery.TextDelivered {
		t.Fatalf("expected text delivery, got %+v", delivery)
	}
}

func TestDeliverMediaSendFailureMarksNoteAndFallsBack(t *testing.T) {
	messenger := &stubMessenger{mediaErr: errors.New("gateway down")}
	notes := &stubNotes{}
	o := New(&stubSynth{audio: []byte("mp3")}, &stubStorage{}, "voice-notes", messenger, notes, &stubOutbound{}, logger.New("development"))

	delivery, err := o.Deliver(context.Background(), newRequest())
	if err != nil {
		t.Fatalf("Deliver failed: %v", err)
	}
	if !delivery.TextDelivered {
		t.Fatalf("expected text fallback, got %+v", delivery)
	}
	if len(notes.created) != 1 {
		t.Fatalf("expected a voice note record, got %d", len(notes.created))
	}
	if notes.statuses[notes.created[0].ID] != repository.StatusFailed {
		t.Fatalf("expected note marked failed, got %q", notes.statuses[notes.created[0].ID])
	}
}

func TestDeliverEverythingFails(t *testing.T) {
	messenger := &stubMessenger{textErr: errors.New("gateway down")}
	o := New(&stubSynth{err: errors.New("synthesis down")}, &stubStorage{}, "voice-notes", messenger, &stubNotes{}, &stubOutbound{}, logger.New("development"))

	if _, err := o.Deliver(context.Background(), newRequest()); err == nil {
		t.Fatal("expected error when no channel delivers")
	}
}
