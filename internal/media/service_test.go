package media

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mototrade-erp/mototrade/internal/shared"
)

type fakeRepo struct {
	attachments map[int64]Attachment
	nextID      int64
	failCreate  bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{attachments: map[int64]Attachment{}, nextID: 1}
}

func (f *fakeRepo) ListByVehicle(_ context.Context, vehicleID int64) ([]Attachment, error) {
	var out []Attachment
	for _, a := range f.attachments {
		if a.VehicleID == vehicleID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRepo) Get(_ context.Context, id int64) (Attachment, error) {
	a, ok := f.attachments[id]
	if !ok {
		return Attachment{}, shared.ErrNotFound
	}
	return a, nil
}

func (f *fakeRepo) Create(_ context.Context, a Attachment) (Attachment, error) {
	if f.failCreate {
		return Attachment{}, io.ErrUnexpectedEOF
	}
	a.ID = f.nextID
	f.nextID++
	f.attachments[a.ID] = a
	return a, nil
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.attachments[id]; !ok {
		return shared.ErrNotFound
	}
	delete(f.attachments, id)
	return nil
}

type fakeStore struct {
	objects map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) Put(_ context.Context, key, _ string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func (f *fakeStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://media.example.test/" + key, nil
}

type fakeScanQueue struct {
	enqueued []int64
}

func (f *fakeScanQueue) EnqueueScan(_ context.Context, attachmentID, _ int64) error {
	f.enqueued = append(f.enqueued, attachmentID)
	return nil
}

// Minimal valid PNG header plus padding; mimetype sniffs the magic bytes.
func pngBytes() []byte {
	return append([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}, make([]byte, 64)...)
}

func TestUploadSniffsContentType(t *testing.T) {
	repo := newFakeRepo()
	store := newFakeStore()
	svc := NewService(repo, store, nil, nil, time.Minute)

	attachment, err := svc.Upload(context.Background(), 100, "photo.bin", bytes.NewReader(pngBytes()), false, 7)
	require.NoError(t, err)
	require.Equal(t, "image/png", attachment.ContentType)
	require.Contains(t, attachment.ObjectKey, "vehicles/100/")
	require.Contains(t, store.objects, attachment.ObjectKey)
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	svc := NewService(newFakeRepo(), newFakeStore(), nil, nil, time.Minute)

	_, err := svc.Upload(context.Background(), 100, "notes.txt", bytes.NewReader([]byte("plain text file")), false, 7)
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestUploadCleansUpObjectWhenRowInsertFails(t *testing.T) {
	repo := newFakeRepo()
	repo.failCreate = true
	store := newFakeStore()
	svc := NewService(repo, store, nil, nil, time.Minute)

	_, err := svc.Upload(context.Background(), 100, "photo.png", bytes.NewReader(pngBytes()), false, 7)
	require.Error(t, err)
	require.Empty(t, store.objects)
}

func TestUploadQueuesScanWhenRequested(t *testing.T) {
	repo := newFakeRepo()
	store := newFakeStore()
	queue := &fakeScanQueue{}
	svc := NewService(repo, store, nil, queue, time.Minute)

	attachment, err := svc.Upload(context.Background(), 100, "stnk.pdf", bytes.NewReader(pngBytes()), true, 7)
	require.NoError(t, err)
	require.Equal(t, []int64{attachment.ID}, queue.enqueued)

	_, err = svc.Upload(context.Background(), 100, "photo.png", bytes.NewReader(pngBytes()), false, 7)
	require.NoError(t, err)
	require.Len(t, queue.enqueued, 1)
}

func TestDownloadURLPresignsObjectKey(t *testing.T) {
	repo := newFakeRepo()
	store := newFakeStore()
	svc := NewService(repo, store, nil, nil, time.Minute)

	attachment, err := svc.Upload(context.Background(), 100, "photo.png", bytes.NewReader(pngBytes()), false, 7)
	require.NoError(t, err)

	url, err := svc.DownloadURL(context.Background(), attachment.ID)
	require.NoError(t, err)
	require.Equal(t, "https://media.example.test/"+attachment.ObjectKey, url)
}

func TestDeleteRemovesRowAndObject(t *testing.T) {
	repo := newFakeRepo()
	store := newFakeStore()
	svc := NewService(repo, store, nil, nil, time.Minute)

	attachment, err := svc.Upload(context.Background(), 100, "photo.png", bytes.NewReader(pngBytes()), false, 7)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), attachment.ID, 7))
	require.Empty(t, store.objects)
	_, err = svc.DownloadURL(context.Background(), attachment.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
