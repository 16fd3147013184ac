package drive

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"secure-drive/internal/audit"
	"secure-drive/internal/auth"
	"secure-drive/internal/content"
	"secure-drive/internal/domain/file"
	"secure-drive/internal/ledger"
	apperrors "secure-drive/pkg/errors"
	"secure-drive/pkg/metrics"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const (
	helloCID = "bafkreibm6jg3ux5qumhcn2b3flc3tyu6dmlb4xa7u5bf44yegnrjhc4yeq"
	strayHex = "0x0000000000000000000000000000000000000DEF"
)

type memBackend struct {
	mu    sync.Mutex
	blobs map[string][]byte
	down  error
	adds  int
}

func (m *memBackend) Add(_ context.Context, data []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adds++
	if m.down != nil {
		return "", m.down
	}
	id, err := content.ComputeID(data)
	if err != nil {
		return "", err
	}
	m.blobs[id] = append([]byte(nil), data...)
	return id, nil
}

func (m *memBackend) Cat(_ context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down != nil {
		return nil, m.down
	}
	b, ok := m.blobs[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return b, nil
}

func (m *memBackend) Ping(context.Context) error { return m.down }

// memLedger persists records in memory and filters reads by owner.
type memLedger struct {
	mu       sync.Mutex
	files    []file.Descriptor
	folders  []file.Folder
	writeErr error
}

func (l *memLedger) WriteFile(_ context.Context, d file.Descriptor) (file.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.writeErr != nil {
		return file.Receipt{}, l.writeErr
	}
	l.files = append(l.files, d)
	return file.Receipt{TxHash: "0xabc", Status: file.StatusConfirmed, BlockNumber: 7}, nil
}

func (l *memLedger) WriteFolder(_ context.Context, f file.Folder) (file.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.writeErr != nil {
		return file.Receipt{}, l.writeErr
	}
	l.folders = append(l.folders, f)
	return file.Receipt{TxHash: "0xdef", Status: file.StatusConfirmed}, nil
}

func (l *memLedger) FilesByOwner(_ context.Context, owner string) ([]file.Descriptor, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []file.Descriptor{}
	for _, f := range l.files {
		if strings.EqualFold(f.Uploader, owner) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (l *memLedger) FoldersByOwner(_ context.Context, owner string) ([]file.Folder, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []file.Folder{}
	for _, f := range l.folders {
		if strings.EqualFold(f.Creator, owner) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (l *memLedger) Mode() ledger.Mode { return ledger.ModeLive }

type auditSink struct {
	mu     sync.Mutex
	events []audit.Event
}

func (a *auditSink) Record(_ context.Context, e *audit.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, *e)
}

func (a *auditSink) last() audit.Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.events[len(a.events)-1]
}

type fixture struct {
	backend  *memBackend
	store    *content.Store
	ledger   ledger.Ledger
	audit    *auditSink
	metrics  *metrics.Metrics
	pipeline *Pipeline
	gate     *Gate
}

type fixtureOpts struct {
	ledger   ledger.Ledger
	fallback bool
	bypass   bool
}

func newFixture(t *testing.T, opts fixtureOpts) *fixture {
	t.Helper()

	if opts.ledger == nil {
		opts.ledger = &memLedger{}
	}
	f := &fixture{
		backend: &memBackend{blobs: map[string][]byte{}},
		ledger:  opts.ledger,
		audit:   &auditSink{},
		metrics: metrics.New(),
	}
	f.store = content.NewStore(f.backend, content.Options{
		Fallback:      opts.fallback,
		Timeout:       time.Second,
		LocalGateway:  "http://127.0.0.1:8080/ipfs",
		PublicGateway: "https://ipfs.io/ipfs/",
	}, zap.NewNop())

	tracer := noop.NewTracerProvider().Tracer("test")
	f.pipeline = NewPipeline(PipelineDeps{
		Verifier:      auth.NewVerifier(opts.bypass, zap.NewNop()),
		Store:         f.store,
		Ledger:        f.ledger,
		Audit:         f.audit,
		Metrics:       f.metrics,
		Tracer:        tracer,
		Logger:        zap.NewNop(),
		MaxUploadSize: 1 << 20,
	})
	f.pipeline.now = func() time.Time { return time.Unix(1700000000, 0) }
	f.gate = NewGate(GateDeps{
		Store:   f.store,
		Ledger:  f.ledger,
		Audit:   f.audit,
		Metrics: f.metrics,
		Tracer:  tracer,
		Logger:  zap.NewNop(),
	})
	return f
}

func newWallet(t *testing.T) (*ecdsa.PrivateKey, string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return key, crypto.PubkeyToAddress(key.PublicKey).Hex()
}

// bypassRequest carries headers that only a bypassed verifier accepts.
func bypassRequest(owner string) file.SignedRequest {
	return file.SignedRequest{Message: "m", Signature: []byte("unsigned"), ClaimedAddress: owner}
}

func signed(t *testing.T, key *ecdsa.PrivateKey, address, message string) file.SignedRequest {
	t.Helper()
	sig, err := auth.SignMessage(key, message)
	require.NoError(t, err)
	return file.SignedRequest{Message: message, Signature: sig, ClaimedAddress: address}
}

func TestUploadAndRetrieveHello(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	key, owner := newWallet(t)
	ctx := context.Background()

	res, err := f.pipeline.Upload(ctx, UploadInput{
		Data:     []byte("hello"),
		FileName: "hello.txt",
		FileType: "text/plain",
		Request:  signed(t, key, owner, "Upload file: hello.txt at 1700000000000"),
	})
	require.NoError(t, err)

	assert.Equal(t, helloCID, res.File.ContentID)
	assert.Equal(t, "hello.txt", res.File.FileName)
	assert.Equal(t, "text/plain", res.File.FileType)
	assert.Equal(t, int64(5), res.File.FileSize)
	assert.Equal(t, file.RootFolderID, res.File.FolderID)
	assert.Equal(t, int64(1700000000), res.File.UploadTime)
	assert.Equal(t, owner, res.File.Uploader)
	assert.NotEmpty(t, res.File.FileID)
	assert.Equal(t, file.StatusConfirmed, res.Receipt.Status)

	files, err := f.gate.ListFiles(ctx, owner)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, res.File, files[0])

	got, err := f.gate.Retrieve(ctx, helloCID, strings.ToLower(owner), file.ModeDownload)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got.Data)
	assert.Equal(t, "hello.txt", got.File.FileName)

	_, err = f.gate.Retrieve(ctx, helloCID, strayHex, file.ModeView)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.Equal(t, audit.StatusDenied, f.audit.last().Status)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Uploads.WithLabelValues(metrics.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Retrievals.WithLabelValues("view", metrics.OutcomeForbidden)))
}

func TestUploadIdenticalBytesShareContentID(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	key, owner := newWallet(t)
	ctx := context.Background()

	first, err := f.pipeline.Upload(ctx, UploadInput{Data: []byte("same"), FileName: "a.txt", Request: signed(t, key, owner, "a")})
	require.NoError(t, err)
	second, err := f.pipeline.Upload(ctx, UploadInput{Data: []byte("same"), FileName: "b.txt", Request: signed(t, key, owner, "b")})
	require.NoError(t, err)

	assert.Equal(t, first.File.ContentID, second.File.ContentID)
	assert.NotEqual(t, first.File.FileID, second.File.FileID)
}

func TestUploadRejectsBadSignature(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	key, owner := newWallet(t)
	_, other := newWallet(t)

	tests := []struct {
		name    string
		req     file.SignedRequest
		wantErr error
	}{
		{"signed by another wallet", signed(t, key, other, "msg"), apperrors.ErrUnauthorized},
		{"flipped bit", func() file.SignedRequest {
			r := signed(t, key, owner, "msg")
			r.Signature[10] ^= 0x01
			return r
		}(), apperrors.ErrUnauthorized},
		{"missing signature", file.SignedRequest{Message: "msg", ClaimedAddress: owner}, apperrors.ErrValidation},
		{"missing message", file.SignedRequest{Signature: make([]byte, 65), ClaimedAddress: owner}, apperrors.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.pipeline.Upload(context.Background(), UploadInput{
				Data:     []byte("x"),
				FileName: "x.bin",
				Request:  tt.req,
			})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Zero(t, f.backend.adds, "rejected uploads never reach the store")
}

func TestUploadValidation(t *testing.T) {
	f := newFixture(t, fixtureOpts{bypass: true})
	_, owner := newWallet(t)

	_, err := f.pipeline.Upload(context.Background(), UploadInput{Data: []byte("x"), FileName: "", Request: bypassRequest(owner)})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.pipeline.Upload(context.Background(), UploadInput{Data: []byte("x"), FileName: "a.txt", FolderID: "../x", Request: bypassRequest(owner)})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.pipeline.Upload(context.Background(), UploadInput{Data: make([]byte, 2<<20), FileName: "big.bin", Request: bypassRequest(owner)})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestBypassStillRequiresSignedHeaders(t *testing.T) {
	f := newFixture(t, fixtureOpts{bypass: true})
	_, owner := newWallet(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     file.SignedRequest
		wantErr error
	}{
		{"empty request", file.SignedRequest{}, apperrors.ErrValidation},
		{"missing signature", file.SignedRequest{Message: "m", ClaimedAddress: owner}, apperrors.ErrValidation},
		{"missing message", file.SignedRequest{Signature: []byte("unsigned"), ClaimedAddress: owner}, apperrors.ErrValidation},
		{"missing address", file.SignedRequest{Message: "m", Signature: []byte("unsigned")}, apperrors.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.pipeline.Upload(ctx, UploadInput{Data: []byte("x"), FileName: "x.bin", Request: tt.req})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := f.pipeline.CreateFolder(ctx, FolderInput{FolderName: "docs", Request: file.SignedRequest{ClaimedAddress: owner}})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Zero(t, f.backend.adds)
}

func TestUploadSniffsMissingType(t *testing.T) {
	f := newFixture(t, fixtureOpts{bypass: true})
	_, owner := newWallet(t)

	res, err := f.pipeline.Upload(context.Background(), UploadInput{
		Data:     []byte("<html><body>hi</body></html>"),
		FileName: "index.html",
		FolderID: "docs",
		Request:  bypassRequest(owner),
	})
	require.NoError(t, err)
	assert.Equal(t, "text/html; charset=utf-8", res.File.FileType)
	assert.Equal(t, "docs", res.File.FolderID)
}

func TestUploadStoreDownInProduction(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	f.backend.down = errors.New("connection refused")
	key, owner := newWallet(t)

	_, err := f.pipeline.Upload(context.Background(), UploadInput{Data: []byte("x"), FileName: "x.txt", Request: signed(t, key, owner, "m")})
	assert.ErrorIs(t, err, apperrors.ErrDependencyUnavailable)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Uploads.WithLabelValues(metrics.OutcomeStoreFailed)))

	files, err := f.gate.ListFiles(context.Background(), owner)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDegradedUploadServesStandIn(t *testing.T) {
	f := newFixture(t, fixtureOpts{fallback: true})
	f.backend.down = errors.New("connection refused")
	key, owner := newWallet(t)
	ctx := context.Background()

	res, err := f.pipeline.Upload(ctx, UploadInput{Data: []byte("real bytes"), FileName: "notes.txt", Request: signed(t, key, owner, "m")})
	require.NoError(t, err)
	assert.True(t, content.IsPlaceholder(res.File.ContentID))

	got, err := f.gate.Retrieve(ctx, res.File.ContentID, owner, file.ModeView)
	require.NoError(t, err)
	assert.Equal(t, content.StandInPayload, string(got.Data))
}

func TestUploadLedgerFailureLeavesBlob(t *testing.T) {
	l := &memLedger{writeErr: apperrors.LedgerRejected("transaction reverted", nil)}
	f := newFixture(t, fixtureOpts{ledger: l})
	key, owner := newWallet(t)

	_, err := f.pipeline.Upload(context.Background(), UploadInput{Data: []byte("hello"), FileName: "hello.txt", Request: signed(t, key, owner, "m")})
	assert.ErrorIs(t, err, apperrors.ErrLedgerWriteFailed)

	f.backend.mu.Lock()
	_, stored := f.backend.blobs[helloCID]
	f.backend.mu.Unlock()
	assert.True(t, stored)

	_, err = f.gate.Retrieve(context.Background(), helloCID, owner, file.ModeDownload)
	assert.ErrorIs(t, err, apperrors.ErrForbidden, "orphaned blob is unreachable")
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Uploads.WithLabelValues(metrics.OutcomeLedgerError)))
}

func TestSimulatedLedgerDoesNotPersist(t *testing.T) {
	f := newFixture(t, fixtureOpts{ledger: ledger.NewSimulated(zap.NewNop()), bypass: true})
	_, owner := newWallet(t)
	ctx := context.Background()

	res, err := f.pipeline.Upload(ctx, UploadInput{Data: []byte("hello"), FileName: "hello.txt", Request: bypassRequest(owner)})
	require.NoError(t, err)
	assert.Equal(t, file.StatusDevelopmentMode, res.Receipt.Status)
	assert.Regexp(t, `^0x[0-9a-f]{64}$`, res.Receipt.TxHash)

	files, err := f.gate.ListFiles(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, files)

	_, err = f.gate.Retrieve(ctx, helloCID, owner, file.ModeDownload)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestRetrieveMissingBlobForOwner(t *testing.T) {
	l := &memLedger{files: []file.Descriptor{{FileID: "f1", ContentID: helloCID, FileName: "hello.txt", Uploader: strayHex}}}
	f := newFixture(t, fixtureOpts{ledger: l})

	_, err := f.gate.Retrieve(context.Background(), helloCID, strayHex, file.ModeDownload)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	f.backend.down = errors.New("timeout")
	_, err = f.gate.Retrieve(context.Background(), helloCID, strayHex, file.ModeDownload)
	assert.ErrorIs(t, err, apperrors.ErrDependencyUnavailable)
}

func TestGateway(t *testing.T) {
	l := &memLedger{files: []file.Descriptor{{FileID: "f1", ContentID: helloCID, FileName: "hello.txt", FileType: "text/plain", Uploader: strayHex}}}
	f := newFixture(t, fixtureOpts{ledger: l})
	ctx := context.Background()

	info, err := f.gate.Gateway(ctx, helloCID, strayHex, false)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8080/ipfs/"+helloCID, info.GatewayURL)
	assert.Equal(t, "https://ipfs.io/ipfs/"+helloCID, info.PublicGateway)
	assert.Equal(t, "hello.txt", info.FileName)

	info, err = f.gate.Gateway(ctx, helloCID, strayHex, true)
	require.NoError(t, err)
	assert.Equal(t, info.PublicGateway, info.GatewayURL)

	_, owner := newWallet(t)
	_, err = f.gate.Gateway(ctx, helloCID, owner, true)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestCreateFolder(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	key, owner := newWallet(t)
	ctx := context.Background()

	res, err := f.pipeline.CreateFolder(ctx, FolderInput{FolderName: "  Invoices ", Request: signed(t, key, owner, "Create folder: Invoices")})
	require.NoError(t, err)
	assert.Equal(t, "Invoices", res.Folder.FolderName)
	assert.Equal(t, owner, res.Folder.Creator)
	assert.NotEmpty(t, res.Folder.FolderID)
	assert.Equal(t, "0xdef", res.Receipt.TxHash)

	folders, err := f.gate.ListFolders(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, folders, 1)

	folders, err = f.gate.ListFolders(ctx, strayHex)
	require.NoError(t, err)
	assert.Empty(t, folders)

	_, err = f.pipeline.CreateFolder(ctx, FolderInput{FolderName: "   ", Request: signed(t, key, owner, "x")})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, other := newWallet(t)
	_, err = f.pipeline.CreateFolder(ctx, FolderInput{FolderName: "x", Request: signed(t, key, other, "x")})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}
