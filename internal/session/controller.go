// Package session owns the record → stop → preview → confirm/re-record
// lifecycle. Each browser tab drives one Controller; the gallery observes the
// outcome only through the performance collection, never through session
// state.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/neon-karaoke/backend/internal/capture"
	"github.com/neon-karaoke/backend/internal/models"
	"github.com/neon-karaoke/backend/internal/notify"
	"github.com/neon-karaoke/backend/internal/preview"
	"github.com/neon-karaoke/backend/pkg/storage"
)

// State is a recording session state.
type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StateReviewing State = "reviewing"
	StateUploading State = "uploading"
)

// ObjectStore stores artifact bytes and resolves retrievable URLs for them.
type ObjectStore interface {
	Put(ctx context.Context, key, mediaType string, data []byte) error
	ResolveURL(ctx context.Context, key string) (string, error)
}

// RecordStore persists performance records.
type RecordStore interface {
	Insert(ctx context.Context, p *models.Performance) error
}

// Deps is the context handed to every controller: the collaborators plus the
// fixed capture media type.
type Deps struct {
	Device    capture.Device
	Objects   ObjectStore
	Records   RecordStore
	Previews  *preview.Registry
	Notifier  notify.Notifier
	Logger    *zap.Logger
	MediaType string
	Extension string
	// AfterSave runs after a record is persisted (e.g. change-feed publish).
	AfterSave func()
}

// Status is the control-surface projection of a session: which controls are
// enabled (start and stop are mutually exclusive at all times) and where the
// preview, if any, can be played.
type Status struct {
	State        State  `json:"state"`
	StartEnabled bool   `json:"startEnabled"`
	StopEnabled  bool   `json:"stopEnabled"`
	PreviewToken string `json:"previewToken,omitempty"`
}

// Controller is the recording session state machine. Initial state is Idle;
// every cycle ends back in Idle.
type Controller struct {
	id       string
	clientID string
	deps     Deps

	mu         sync.Mutex
	state      State
	chunks     [][]byte
	artifact   []byte
	previewRef *preview.Ref
	stream     capture.Stream
	drained    chan struct{}
	lastActive time.Time

	now func() time.Time
}

// NewController creates an idle session bound to the page identified by
// clientID (notice delivery target; may be empty).
func NewController(id, clientID string, deps Deps) *Controller {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Controller{
		id:         id,
		clientID:   clientID,
		deps:       deps,
		state:      StateIdle,
		lastActive: time.Now(),
		now:        time.Now,
	}
}

// ID returns the session id.
func (c *Controller) ID() string { return c.id }

// Status returns the current control surface.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Status{
		State:        c.state,
		StartEnabled: c.state == StateIdle,
		StopEnabled:  c.state == StateRecording,
	}
	if c.previewRef != nil {
		s.PreviewToken = c.previewRef.Token
	}
	return s
}

// Start begins capture. The handle field must be non-empty; device denial
// keeps the session Idle. On success start is disabled and stop enabled.
func (c *Controller) Start(ctx context.Context, handle string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if c.state != StateIdle {
		return fmt.Errorf("start from %s: %w", c.state, ErrInvalidState)
	}
	if strings.TrimSpace(handle) == "" {
		c.notify("Please enter your handle before recording.", notify.KindError)
		return fmt.Errorf("empty handle: %w", ErrValidation)
	}

	stream, err := c.deps.Device.RequestAccess(ctx, c.id)
	if err != nil {
		c.notify("Microphone access denied!", notify.KindError)
		return fmt.Errorf("request access: %w: %v", ErrDeviceAccess, err)
	}

	c.stream = stream
	c.chunks = nil
	c.drained = make(chan struct{})
	go c.accumulate(stream, c.drained)

	c.state = StateRecording
	c.deps.Logger.Info("recording started", zap.String("session_id", c.id))
	return nil
}

// accumulate appends stream fragments until the stream closes.
func (c *Controller) accumulate(stream capture.Stream, drained chan struct{}) {
	defer close(drained)
	for chunk := range stream.Chunks() {
		c.mu.Lock()
		c.chunks = append(c.chunks, chunk)
		c.mu.Unlock()
	}
}

// Stop ends capture, assembles the artifact, and moves to Reviewing with a
// fresh preview reference (any prior reference is revoked first). A no-op in
// any state other than Recording.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateRecording {
		c.mu.Unlock()
		return nil
	}
	c.touch()
	stream := c.stream
	drained := c.drained
	c.mu.Unlock()

	stream.Close()
	select {
	case <-drained:
	case <-ctx.Done():
		return ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var size int
	for _, chunk := range c.chunks {
		size += len(chunk)
	}
	artifact := make([]byte, 0, size)
	for _, chunk := range c.chunks {
		artifact = append(artifact, chunk...)
	}
	c.artifact = artifact
	c.chunks = nil
	c.stream = nil
	c.drained = nil

	if c.previewRef != nil {
		c.previewRef.Revoke()
	}
	c.previewRef = c.deps.Previews.Create(c.artifact, c.deps.MediaType)

	c.state = StateReviewing
	c.deps.Logger.Info("recording stopped",
		zap.String("session_id", c.id),
		zap.Int("artifact_bytes", len(c.artifact)),
	)
	return nil
}

// ConfirmSave uploads the artifact, resolves its URL, and persists the
// performance record — strictly in that order, so a record is never visible
// without a reachable audio asset. On any collaborator failure the session
// returns to Reviewing with the artifact intact so retry does not require
// re-recording. On success the session resets to Idle.
func (c *Controller) ConfirmSave(ctx context.Context, handle, title string) (*models.Performance, error) {
	c.mu.Lock()
	c.touch()
	if c.state != StateReviewing {
		c.mu.Unlock()
		return nil, fmt.Errorf("confirm from %s: %w", c.state, ErrInvalidState)
	}
	if c.artifact == nil {
		c.mu.Unlock()
		c.notify("Please record something first!", notify.KindError)
		return nil, fmt.Errorf("nothing recorded: %w", ErrValidation)
	}
	artifact := c.artifact
	c.state = StateUploading
	c.mu.Unlock()

	fail := func(stage string, err error) (*models.Performance, error) {
		c.mu.Lock()
		c.state = StateReviewing
		c.mu.Unlock()
		c.notify("Error uploading audio. Try again.", notify.KindError)
		c.deps.Logger.Error("save failed", zap.String("session_id", c.id), zap.String("stage", stage), zap.Error(err))
		return nil, fmt.Errorf("%s: %w: %v", stage, ErrUpload, err)
	}

	key := storage.PerformanceKey(handle, c.now(), c.deps.Extension)
	if err := c.deps.Objects.Put(ctx, key, c.deps.MediaType, artifact); err != nil {
		return fail("put", err)
	}
	url, err := c.deps.Objects.ResolveURL(ctx, key)
	if err != nil {
		return fail("resolve url", err)
	}

	perf := &models.Performance{
		Username: strings.TrimSpace(handle),
		Title:    strings.TrimSpace(title),
		AudioURL: url,
	}
	if perf.Username == "" {
		perf.Username = models.DefaultUsername
	}
	if perf.Title == "" {
		perf.Title = models.DefaultTitle
	}
	if err := c.deps.Records.Insert(ctx, perf); err != nil {
		// The uploaded blob is now orphaned; this service does not reconcile
		// such orphans.
		c.deps.Logger.Warn("orphaned blob after insert failure", zap.String("key", key))
		return fail("insert", err)
	}

	c.mu.Lock()
	c.artifact = nil
	if c.previewRef != nil {
		c.previewRef.Revoke()
		c.previewRef = nil
	}
	c.state = StateIdle
	c.mu.Unlock()

	c.notify("Performance saved!", notify.KindSuccess)
	c.deps.Logger.Info("performance saved",
		zap.String("session_id", c.id),
		zap.String("performance_id", perf.ID.String()),
		zap.String("key", key),
	)
	if c.deps.AfterSave != nil {
		c.deps.AfterSave()
	}
	return perf, nil
}

// ReRecord discards the artifact and preview and returns to Idle without
// contacting any collaborator. Valid only from Reviewing.
func (c *Controller) ReRecord() error {
	c.mu.Lock()
	c.touch()
	if c.state != StateReviewing {
		c.mu.Unlock()
		return fmt.Errorf("re-record from %s: %w", c.state, ErrInvalidState)
	}
	c.artifact = nil
	if c.previewRef != nil {
		c.previewRef.Revoke()
		c.previewRef = nil
	}
	c.state = StateIdle
	c.mu.Unlock()

	c.notify("Ready to record again", notify.KindSuccess)
	return nil
}

// Close releases everything the session owns: the capture stream, chunks,
// artifact, and preview reference. Used on eviction and shutdown.
func (c *Controller) Close() {
	c.mu.Lock()
	stream := c.stream
	c.stream = nil
	c.chunks = nil
	c.artifact = nil
	if c.previewRef != nil {
		c.previewRef.Revoke()
		c.previewRef = nil
	}
	c.state = StateIdle
	c.mu.Unlock()

	if stream != nil {
		stream.Close()
	}
}

// IdleSince returns the time of the last session operation.
func (c *Controller) IdleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

func (c *Controller) touch() { c.lastActive = time.Now() }

func (c *Controller) notify(message string, kind notify.Kind) {
	if c.deps.Notifier != nil {
		c.deps.Notifier.Notify(c.clientID, message, kind)
	}
}
